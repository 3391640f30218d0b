package jobs

import (
	"sync"
	"time"
)

// ScheduledCall records one Schedule invocation on the mock.
type ScheduledCall struct {
	At  time.Time
	Tag string
	Fn  Job
}

// MockScheduler is a test double that records calls instead of running
// timers. Tests can fire captured jobs by hand.
type MockScheduler struct {
	mu sync.Mutex

	Scheduled []ScheduledCall
	Cancelled []string
	pending   map[string]ScheduledCall
}

// NewMockScheduler creates an empty mock.
func NewMockScheduler() *MockScheduler {
	return &MockScheduler{pending: make(map[string]ScheduledCall)}
}

// Schedule records the call and keeps it as the pending job for the tag.
func (m *MockScheduler) Schedule(tag string, at time.Time, fn Job) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call := ScheduledCall{Tag: tag, At: at, Fn: fn}
	m.Scheduled = append(m.Scheduled, call)
	m.pending[tag] = call
}

// Cancel records the cancellation and drops the pending job.
func (m *MockScheduler) Cancel(tag string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Cancelled = append(m.Cancelled, tag)
	delete(m.pending, tag)
}

// CancelScheduled cancels both tags for a scheduled transaction.
func (m *MockScheduler) CancelScheduled(scheduledID int64) {
	m.Cancel(ReminderTag(scheduledID))
	m.Cancel(ExpiryTag(scheduledID))
}

// Stop drops every pending job.
func (m *MockScheduler) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pending = make(map[string]ScheduledCall)
}

// Pending returns the pending job for the tag, if any.
func (m *MockScheduler) Pending(tag string) (ScheduledCall, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	call, ok := m.pending[tag]
	return call, ok
}

// HasPending reports whether a job is pending for the tag.
func (m *MockScheduler) HasPending(tag string) bool {
	_, ok := m.Pending(tag)
	return ok
}

var _ Scheduler = (*MockScheduler)(nil)
