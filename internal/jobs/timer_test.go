package jobs

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTags(t *testing.T) {
	assert.Equal(t, "scheduled_notification_42", ReminderTag(42))
	assert.Equal(t, "delete_expired_42", ExpiryTag(42))
}

func TestScheduleFires(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Stop()

	fired := make(chan struct{})
	s.Schedule("test_fire", time.Now().Add(5*time.Millisecond), func(_ context.Context) {
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("job never fired")
	}
}

func TestScheduleReplacesSameTag(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Stop()

	var first, second atomic.Int32
	s.Schedule("test_replace", time.Now().Add(10*time.Millisecond), func(_ context.Context) {
		first.Add(1)
	})
	fired := make(chan struct{})
	s.Schedule("test_replace", time.Now().Add(10*time.Millisecond), func(_ context.Context) {
		second.Add(1)
		close(fired)
	})

	select {
	case <-fired:
	case <-time.After(2 * time.Second):
		t.Fatal("replacement job never fired")
	}
	assert.Zero(t, first.Load(), "replaced job must not run")
	assert.Equal(t, int32(1), second.Load())
}

func TestStopReturnsAfterReplacement(t *testing.T) {
	s := NewTimerScheduler()

	// re-arming the same tag must release the replaced job's accounting,
	// otherwise Stop waits on it forever
	fn := func(_ context.Context) {}
	s.Schedule("test_rearm", time.Now().Add(time.Hour), fn)
	s.Schedule("test_rearm", time.Now().Add(2*time.Hour), fn)
	s.Schedule(ExpiryTag(9), time.Now().Add(time.Hour), fn)
	s.Schedule(ExpiryTag(9), time.Now().Add(2*time.Hour), fn)

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after tags were re-armed")
	}
}

func TestCancelStopsJob(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Stop()

	var ran atomic.Int32
	s.Schedule("test_cancel", time.Now().Add(20*time.Millisecond), func(_ context.Context) {
		ran.Add(1)
	})
	s.Cancel("test_cancel")

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, ran.Load())

	// cancelling an unknown tag is a no-op
	s.Cancel("never_scheduled")
}

func TestCancelScheduledCancelsBothTags(t *testing.T) {
	s := NewTimerScheduler()
	defer s.Stop()

	var ran atomic.Int32
	fn := func(_ context.Context) { ran.Add(1) }
	s.Schedule(ReminderTag(7), time.Now().Add(20*time.Millisecond), fn)
	s.Schedule(ExpiryTag(7), time.Now().Add(20*time.Millisecond), fn)

	s.CancelScheduled(7)

	time.Sleep(50 * time.Millisecond)
	assert.Zero(t, ran.Load())
}

func TestStopWaitsForJobs(t *testing.T) {
	s := NewTimerScheduler()

	var ran atomic.Int32
	s.Schedule("test_stop_pending", time.Now().Add(time.Hour), func(_ context.Context) {
		ran.Add(1)
	})

	done := make(chan struct{})
	go func() {
		s.Stop()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return")
	}
	require.Zero(t, ran.Load())

	// scheduling after Stop is ignored
	s.Schedule("test_after_stop", time.Now(), func(_ context.Context) {
		ran.Add(1)
	})
	time.Sleep(20 * time.Millisecond)
	assert.Zero(t, ran.Load())
}
