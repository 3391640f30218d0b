// Package reminder drives the scheduled-transaction lifecycle: due-today
// reminders, expiration notices, and cleanup of records the user never
// confirmed.
package reminder

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/centsible/centsible/internal/jobs"
	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/notify"
	"github.com/centsible/centsible/internal/photos"
	"github.com/centsible/centsible/internal/service"
)

// expiryGrace is how long an expired record survives after the end of its
// scheduled day before it is deleted.
const expiryGrace = 24 * time.Hour

// Syncer is the slice of the sync service the engine needs: mirroring
// lifecycle flag changes and retiring remote documents.
type Syncer interface {
	PushTransaction(ctx context.Context, txn *model.Transaction) error
	PushScheduled(ctx context.Context, sched *model.ScheduledTransaction) error
	DeleteRemoteScheduled(ctx context.Context, remoteID string) error
}

// Engine evaluates scheduled transactions against the wall clock and sends
// at-most-once reminders and expiration notices.
type Engine struct {
	store     service.Storage
	syncer    Syncer
	notifier  notify.Notifier
	scheduler jobs.Scheduler
	photos    photos.Store
	now       func() time.Time
}

// Option configures an Engine.
type Option func(*Engine)

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(e *Engine) { e.now = now }
}

// WithPhotoStore enables moving receipt photos when a record is confirmed.
func WithPhotoStore(store photos.Store) Option {
	return func(e *Engine) { e.photos = store }
}

// NewEngine creates a reminder engine.
func NewEngine(store service.Storage, syncer Syncer, notifier notify.Notifier, scheduler jobs.Scheduler, opts ...Option) *Engine {
	e := &Engine{
		store:     store,
		syncer:    syncer,
		notifier:  notifier,
		scheduler: scheduler,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// endOfScheduledDay returns the last instant of the target date's calendar
// day: 23:59:59.999.
func endOfScheduledDay(target time.Time) time.Time {
	y, m, d := target.Date()
	return time.Date(y, m, d, 23, 59, 59, int(999*time.Millisecond), target.Location())
}

// deleteAfter returns the instant an unconfirmed record is removed.
func deleteAfter(target time.Time) time.Time {
	return endOfScheduledDay(target).Add(expiryGrace)
}

// Run evaluates every scheduled transaction once and re-arms background jobs
// for transitions still in the future.
func (e *Engine) Run(ctx context.Context) error {
	all, err := e.store.ListScheduledTransactions(ctx)
	if err != nil {
		return fmt.Errorf("failed to list scheduled transactions: %w", err)
	}

	for i := range all {
		if err := e.evaluate(ctx, &all[i]); err != nil {
			slog.Error("scheduled evaluation failed", "id", all[i].ID, "error", err)
		}
	}
	return nil
}

// CheckOne re-evaluates a single record's reminder transition, used when a
// record arrives or changes mid-day via sync. Expiration and deletion stay
// with the background jobs and full scans.
func (e *Engine) CheckOne(ctx context.Context, id int64) error {
	sched, err := e.store.GetScheduledTransaction(ctx, id)
	if err != nil {
		return err
	}
	if sched == nil || sched.Confirmed || sched.ReminderSent {
		return nil
	}

	now := e.now()
	if now.Before(sched.TargetDate) || now.After(endOfScheduledDay(sched.TargetDate)) {
		return nil
	}
	return e.sendReminder(ctx, sched)
}

// Arm registers the background jobs for a record: the reminder at its target
// time and the cleanup a day after its scheduled day ends. Confirmed records
// get their jobs cancelled instead.
func (e *Engine) Arm(sched *model.ScheduledTransaction) {
	if sched.Confirmed {
		e.scheduler.CancelScheduled(sched.ID)
		return
	}

	id := sched.ID
	if !sched.ReminderSent {
		e.scheduler.Schedule(jobs.ReminderTag(id), sched.TargetDate, func(ctx context.Context) {
			if err := e.CheckOne(ctx, id); err != nil {
				slog.Error("reminder job failed", "id", id, "error", err)
			}
		})
	}
	e.scheduler.Schedule(jobs.ExpiryTag(id), deleteAfter(sched.TargetDate), func(ctx context.Context) {
		sched, err := e.store.GetScheduledTransaction(ctx, id)
		if err != nil || sched == nil {
			return
		}
		if err := e.evaluate(ctx, sched); err != nil {
			slog.Error("expiry job failed", "id", id, "error", err)
		}
	})
}

// OnScheduledChange is the sync hook: re-arm jobs and fire the reminder check
// for records arriving from other devices.
func (e *Engine) OnScheduledChange(ctx context.Context, sched *model.ScheduledTransaction) {
	e.Arm(sched)
	if err := e.CheckOne(ctx, sched.ID); err != nil {
		slog.Error("reminder check failed", "id", sched.ID, "error", err)
	}
}

// evaluate walks the record through the lifecycle exactly once for the
// current wall-clock time.
func (e *Engine) evaluate(ctx context.Context, sched *model.ScheduledTransaction) error {
	if sched.Confirmed {
		return nil
	}

	now := e.now()
	endOfDay := endOfScheduledDay(sched.TargetDate)

	switch {
	case now.Before(sched.TargetDate):
		e.Arm(sched)
		return nil

	case !now.After(endOfDay):
		if sched.ReminderSent {
			return nil
		}
		return e.sendReminder(ctx, sched)

	case now.Before(endOfDay.Add(expiryGrace)):
		if sched.ExpirationNotified {
			return nil
		}
		return e.sendExpirationNotice(ctx, sched)

	default:
		return e.expire(ctx, sched)
	}
}

func (e *Engine) sendReminder(ctx context.Context, sched *model.ScheduledTransaction) error {
	if err := e.notifier.Send(reminderNotification(sched)); err != nil {
		return fmt.Errorf("failed to send reminder for %d: %w", sched.ID, err)
	}
	if err := e.store.SetReminderSent(ctx, sched.ID); err != nil {
		return err
	}
	sched.ReminderSent = true
	slog.Info("reminder sent", "id", sched.ID, "category", sched.Category)

	if err := e.syncer.PushScheduled(ctx, sched); err != nil {
		slog.Warn("reminder flag push failed", "id", sched.ID, "error", err)
	}
	return nil
}

func (e *Engine) sendExpirationNotice(ctx context.Context, sched *model.ScheduledTransaction) error {
	if err := e.notifier.Send(expirationNotification(sched)); err != nil {
		return fmt.Errorf("failed to send expiration notice for %d: %w", sched.ID, err)
	}
	if err := e.store.SetExpirationNotified(ctx, sched.ID); err != nil {
		return err
	}
	sched.ExpirationNotified = true
	slog.Info("expiration notice sent", "id", sched.ID, "category", sched.Category)

	if err := e.syncer.PushScheduled(ctx, sched); err != nil {
		slog.Warn("expiration flag push failed", "id", sched.ID, "error", err)
	}
	return nil
}

// expire removes a record that sat unconfirmed for a full day past its
// scheduled day.
func (e *Engine) expire(ctx context.Context, sched *model.ScheduledTransaction) error {
	if err := e.store.DeleteScheduledTransaction(ctx, sched.ID); err != nil {
		return err
	}
	if sched.RemoteID != "" {
		if err := e.syncer.DeleteRemoteScheduled(ctx, sched.RemoteID); err != nil {
			slog.Warn("remote expiry delete failed", "id", sched.ID, "error", err)
		}
	}
	e.scheduler.CancelScheduled(sched.ID)
	slog.Info("expired scheduled transaction removed", "id", sched.ID, "target_date", sched.TargetDate)
	return nil
}
