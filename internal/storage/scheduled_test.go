package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centsible/centsible/internal/model"
)

func testScheduled() *model.ScheduledTransaction {
	return &model.ScheduledTransaction{
		Amount:     150,
		Direction:  model.DirectionExpense,
		Category:   model.CategoryUtilities,
		Note:       "electricity bill",
		TargetDate: time.Date(2025, 4, 20, 9, 0, 0, 0, time.UTC),
	}
}

func TestScheduledLifecycleFlags(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	sched := testScheduled()
	require.NoError(t, store.SaveScheduledTransaction(ctx, sched))
	require.Positive(t, sched.ID)

	got, err := store.GetScheduledTransaction(ctx, sched.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.False(t, got.ReminderSent)
	assert.False(t, got.ExpirationNotified)
	assert.False(t, got.Confirmed)

	require.NoError(t, store.SetReminderSent(ctx, sched.ID))
	require.NoError(t, store.SetExpirationNotified(ctx, sched.ID))

	got, err = store.GetScheduledTransaction(ctx, sched.ID)
	require.NoError(t, err)
	assert.True(t, got.ReminderSent)
	assert.True(t, got.ExpirationNotified)
}

func TestScheduledSyncRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	sched := testScheduled()
	require.NoError(t, store.SaveScheduledTransaction(ctx, sched))

	unsynced, err := store.ListUnsyncedScheduledTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)

	require.NoError(t, store.MarkScheduledSynced(ctx, sched.ID, "sched-remote-1"))

	unsynced, err = store.ListUnsyncedScheduledTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)

	got, err := store.GetScheduledTransactionByRemoteID(ctx, "sched-remote-1")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, sched.ID, got.ID)
}

func TestDeleteScheduledByRemoteID(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	sched := testScheduled()
	require.NoError(t, store.SaveScheduledTransaction(ctx, sched))
	require.NoError(t, store.MarkScheduledSynced(ctx, sched.ID, "sched-remote-2"))

	id, err := store.DeleteScheduledByRemoteID(ctx, "sched-remote-2")
	require.NoError(t, err)
	assert.Equal(t, sched.ID, id, "deletion reports the local id for job cancellation")

	// second delete finds nothing
	id, err = store.DeleteScheduledByRemoteID(ctx, "sched-remote-2")
	require.NoError(t, err)
	assert.Zero(t, id)
}

func TestListScheduledOrderedByTarget(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	late := testScheduled()
	late.TargetDate = time.Date(2025, 5, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveScheduledTransaction(ctx, late))

	early := testScheduled()
	early.TargetDate = time.Date(2025, 4, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, store.SaveScheduledTransaction(ctx, early))

	all, err := store.ListScheduledTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, early.ID, all[0].ID)
	assert.Equal(t, late.ID, all[1].ID)
}
