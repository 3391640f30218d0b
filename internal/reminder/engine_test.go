package reminder

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centsible/centsible/internal/jobs"
	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/notify"
	"github.com/centsible/centsible/internal/photos"
	"github.com/centsible/centsible/internal/remote"
	"github.com/centsible/centsible/internal/storage"
	syncsvc "github.com/centsible/centsible/internal/sync"
)

// testTarget is 09:00 on the scheduled day; its day ends at 23:59:59.999.
var testTarget = time.Date(2025, 6, 10, 9, 0, 0, 0, time.UTC)

type engineFixture struct {
	engine    *Engine
	store     *storage.SQLiteStorage
	remote    *remote.MemoryStore
	scheduler *jobs.MockScheduler
	notifier  *notify.MockNotifier
	photos    *photos.MemoryStore
	now       time.Time
}

func newFixture(t *testing.T) *engineFixture {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	rem := remote.NewMemoryStore()
	t.Cleanup(func() { _ = rem.Close() })

	f := &engineFixture{
		store:     store,
		remote:    rem,
		scheduler: jobs.NewMockScheduler(),
		notifier:  notify.NewMockNotifier(),
		photos:    photos.NewMemoryStore(),
		now:       testTarget.Add(-24 * time.Hour),
	}
	syncer := syncsvc.NewService(store, rem, f.scheduler)
	f.engine = NewEngine(store, syncer, f.notifier, f.scheduler,
		WithClock(func() time.Time { return f.now }),
		WithPhotoStore(f.photos),
	)
	return f
}

// seedScheduled stores a scheduled transaction and mirrors it remotely, the
// state a record is in once sync has run.
func (f *engineFixture) seedScheduled(t *testing.T) *model.ScheduledTransaction {
	t.Helper()

	sched := &model.ScheduledTransaction{
		Amount:     1200,
		Direction:  model.DirectionExpense,
		Category:   model.CategoryRent,
		Note:       "june rent",
		TargetDate: testTarget,
	}
	require.NoError(t, f.store.SaveScheduledTransaction(context.Background(), sched))
	require.NoError(t, syncsvc.NewService(f.store, f.remote, f.scheduler).PushScheduled(context.Background(), sched))
	return sched
}

func (f *engineFixture) reload(t *testing.T, id int64) *model.ScheduledTransaction {
	t.Helper()
	sched, err := f.store.GetScheduledTransaction(context.Background(), id)
	require.NoError(t, err)
	return sched
}

func TestRunBeforeTargetDoesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sched := f.seedScheduled(t)

	f.now = testTarget.Add(-time.Hour)
	require.NoError(t, f.engine.Run(ctx))

	assert.Zero(t, f.notifier.Count())
	got := f.reload(t, sched.ID)
	require.NotNil(t, got)
	assert.False(t, got.ReminderSent)

	// both background jobs are armed for the future
	assert.True(t, f.scheduler.HasPending(jobs.ReminderTag(sched.ID)))
	assert.True(t, f.scheduler.HasPending(jobs.ExpiryTag(sched.ID)))
}

func TestRunSendsReminderOnceOnTargetDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sched := f.seedScheduled(t)

	f.now = testTarget.Add(time.Hour)
	require.NoError(t, f.engine.Run(ctx))
	require.NoError(t, f.engine.Run(ctx))

	assert.Equal(t, 1, f.notifier.Count(), "a reminder is sent at most once")
	got := f.reload(t, sched.ID)
	assert.True(t, got.ReminderSent)

	n := f.notifier.Last()
	require.Len(t, n.Actions, 2)
	assert.Equal(t, notify.ActionConfirm, n.Actions[0].Kind)
	assert.Equal(t, notify.ActionCancel, n.Actions[1].Kind)
	assert.Equal(t, sched.ID, n.Actions[0].ScheduledID)

	// the flag change is mirrored remotely so other devices stay quiet
	docs, err := f.remote.List(ctx, remote.CollectionScheduled)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, true, docs[0].Fields["reminderSent"])
}

func TestRunSendsExpirationNoticeAfterDayEnds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sched := f.seedScheduled(t)

	// one hour into the day after the scheduled day
	f.now = testTarget.Add(25 * time.Hour)
	require.NoError(t, f.engine.Run(ctx))
	require.NoError(t, f.engine.Run(ctx))

	assert.Equal(t, 1, f.notifier.Count())
	assert.Empty(t, f.notifier.Last().Actions, "expiration notices carry no actions")

	got := f.reload(t, sched.ID)
	require.NotNil(t, got, "record survives until a full day past its scheduled day")
	assert.True(t, got.ExpirationNotified)
	assert.False(t, got.ReminderSent, "the missed reminder is not sent retroactively")
}

func TestRunDeletesRecordADayAfterExpiry(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sched := f.seedScheduled(t)
	remoteID := sched.RemoteID

	f.now = endOfScheduledDay(testTarget).Add(25 * time.Hour)
	require.NoError(t, f.engine.Run(ctx))

	assert.Nil(t, f.reload(t, sched.ID))

	docs, err := f.remote.List(ctx, remote.CollectionScheduled)
	require.NoError(t, err)
	assert.Empty(t, docs, "remote document %s is removed with the record", remoteID)

	assert.Contains(t, f.scheduler.Cancelled, jobs.ReminderTag(sched.ID))
	assert.Contains(t, f.scheduler.Cancelled, jobs.ExpiryTag(sched.ID))
}

func TestConfirmedRecordsAreNeverNotified(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sched := f.seedScheduled(t)

	got := f.reload(t, sched.ID)
	got.Confirmed = true
	require.NoError(t, f.store.UpdateScheduledTransaction(ctx, got))

	for _, offset := range []time.Duration{time.Hour, 25 * time.Hour, 72 * time.Hour} {
		f.now = testTarget.Add(offset)
		require.NoError(t, f.engine.Run(ctx))
	}

	assert.Zero(t, f.notifier.Count())
	assert.NotNil(t, f.reload(t, sched.ID), "confirmed records are not expired")
}

func TestCheckOneOnlyFiresInsideTargetDay(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	sched := f.seedScheduled(t)

	f.now = testTarget.Add(-time.Minute)
	require.NoError(t, f.engine.CheckOne(ctx, sched.ID))
	assert.Zero(t, f.notifier.Count())

	f.now = testTarget.Add(2 * time.Hour)
	require.NoError(t, f.engine.CheckOne(ctx, sched.ID))
	assert.Equal(t, 1, f.notifier.Count())

	// after the day ends CheckOne never escalates to expiration
	f.notifier.Sent = nil
	f.now = testTarget.Add(26 * time.Hour)
	require.NoError(t, f.engine.CheckOne(ctx, sched.ID))
	assert.Zero(t, f.notifier.Count())
}

func TestCheckOneAbsentIDIsNoop(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, f.engine.CheckOne(context.Background(), 9999))
	assert.Zero(t, f.notifier.Count())
}

func TestEndOfScheduledDay(t *testing.T) {
	end := endOfScheduledDay(testTarget)
	assert.Equal(t, time.Date(2025, 6, 10, 23, 59, 59, 999000000, time.UTC), end)

	// midnight target still ends the same calendar day
	midnight := time.Date(2025, 6, 10, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, end, endOfScheduledDay(midnight))
}
