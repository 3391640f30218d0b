package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// TimerScheduler is the in-process Scheduler implementation. Each job holds
// its own timer; firing removes the tag before running the work so a job can
// re-schedule itself under the same tag.
type TimerScheduler struct {
	ctx     context.Context
	cancel  context.CancelFunc
	pending map[string]*time.Timer
	mu      sync.Mutex
	wg      sync.WaitGroup
	stopped bool
}

// NewTimerScheduler creates a scheduler whose jobs run with a context that is
// cancelled by Stop.
func NewTimerScheduler() *TimerScheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &TimerScheduler{
		ctx:     ctx,
		cancel:  cancel,
		pending: make(map[string]*time.Timer),
	}
}

// Schedule registers fn under tag, replacing any pending job with that tag.
func (s *TimerScheduler) Schedule(tag string, at time.Time, fn Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopped {
		return
	}

	if prev, ok := s.pending[tag]; ok && prev.Stop() {
		s.wg.Done()
	}

	delay := time.Until(at)
	if delay < 0 {
		delay = 0
	}
	slog.Debug("job scheduled", "tag", tag, "at", at)

	s.wg.Add(1)
	s.pending[tag] = time.AfterFunc(delay, func() {
		defer s.wg.Done()

		s.mu.Lock()
		delete(s.pending, tag)
		stopped := s.stopped
		s.mu.Unlock()
		if stopped || s.ctx.Err() != nil {
			return
		}

		slog.Debug("job fired", "tag", tag)
		fn(s.ctx)
	})
}

// Cancel removes the pending job with the given tag, if any.
func (s *TimerScheduler) Cancel(tag string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.pending[tag]
	if !ok {
		return
	}
	delete(s.pending, tag)
	if timer.Stop() {
		s.wg.Done()
	}
	slog.Debug("job cancelled", "tag", tag)
}

// CancelScheduled cancels both jobs attached to a scheduled transaction.
func (s *TimerScheduler) CancelScheduled(scheduledID int64) {
	s.Cancel(ReminderTag(scheduledID))
	s.Cancel(ExpiryTag(scheduledID))
}

// Stop cancels every pending job and waits for in-flight jobs to return.
func (s *TimerScheduler) Stop() {
	s.mu.Lock()
	if s.stopped {
		s.mu.Unlock()
		return
	}
	s.stopped = true
	for tag, timer := range s.pending {
		delete(s.pending, tag)
		if timer.Stop() {
			s.wg.Done()
		}
	}
	s.mu.Unlock()

	s.cancel()
	s.wg.Wait()
}

var _ Scheduler = (*TimerScheduler)(nil)
