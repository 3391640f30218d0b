// Package jobs schedules tagged one-shot background jobs for scheduled
// transaction reminders and expiry cleanup.
package jobs

import (
	"context"
	"fmt"
	"time"
)

// Tag prefixes for the two job kinds attached to a scheduled transaction.
const (
	reminderTagPrefix = "scheduled_notification_"
	expiryTagPrefix   = "delete_expired_"
)

// ReminderTag returns the tag of the reminder job for a scheduled
// transaction.
func ReminderTag(scheduledID int64) string {
	return fmt.Sprintf("%s%d", reminderTagPrefix, scheduledID)
}

// ExpiryTag returns the tag of the expiry-cleanup job for a scheduled
// transaction.
func ExpiryTag(scheduledID int64) string {
	return fmt.Sprintf("%s%d", expiryTagPrefix, scheduledID)
}

// Job is the work a scheduled job runs when it fires.
type Job func(ctx context.Context)

// Scheduler runs tagged one-shot jobs at a given time. Scheduling a tag that
// already exists replaces the pending job, so re-arming after an edit never
// leaves two timers for the same record.
type Scheduler interface {
	// Schedule registers fn to run at the given time, replacing any pending
	// job with the same tag. A time in the past runs the job immediately.
	Schedule(tag string, at time.Time, fn Job)
	// Cancel removes the pending job with the given tag. Cancelling an
	// unknown tag is a no-op.
	Cancel(tag string)
	// CancelScheduled cancels both jobs attached to a scheduled transaction.
	CancelScheduled(scheduledID int64)
	// Stop cancels every pending job.
	Stop()
}
