package sync

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centsible/centsible/internal/jobs"
	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/photos"
	"github.com/centsible/centsible/internal/remote"
	"github.com/centsible/centsible/internal/service"
	"github.com/centsible/centsible/internal/storage"
)

func newTestService(t *testing.T, opts ...Option) (*Service, *storage.SQLiteStorage, *remote.MemoryStore, *jobs.MockScheduler) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(context.Background()))
	t.Cleanup(func() { _ = store.Close() })

	rem := remote.NewMemoryStore()
	t.Cleanup(func() { _ = rem.Close() })

	scheduler := jobs.NewMockScheduler()
	svc := NewService(store, rem, scheduler, opts...)
	return svc, store, rem, scheduler
}

func remoteTransactionFields(amount float64, note string) map[string]any {
	return map[string]any{
		"amount":    amount,
		"direction": "expense",
		"category":  "groceries",
		"note":      note,
		"date":      time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC),
		"photoRef":  "",
	}
}

func remoteScheduledFields(amount float64, target time.Time) map[string]any {
	return map[string]any{
		"amount":             amount,
		"direction":          "expense",
		"category":           "rent",
		"note":               "monthly rent",
		"targetDate":         target,
		"photoRef":           "",
		"confirmed":          false,
		"reminderSent":       false,
		"expirationNotified": false,
	}
}

func TestInitialSyncPullsRemoteRecords(t *testing.T) {
	ctx := context.Background()
	svc, store, rem, _ := newTestService(t)

	require.NoError(t, rem.Put(ctx, remote.CollectionTransactions, "tx-1", remoteTransactionFields(42.50, "coffee beans")))
	require.NoError(t, rem.Put(ctx, remote.CollectionBudgets, "bg-1", map[string]any{
		"kind": "general_monthly", "category": "", "amount": 2000.0, "limitPercent": 0.0,
	}))

	require.NoError(t, svc.InitialSync(ctx))

	txn, err := store.GetTransactionByRemoteID(ctx, "tx-1")
	require.NoError(t, err)
	require.NotNil(t, txn)
	assert.True(t, txn.Synced)
	assert.Equal(t, "coffee beans", txn.Note)
	assert.InDelta(t, 42.50, txn.Amount, 1e-9)

	rule, err := store.GetGeneralMonthlyRule(ctx)
	require.NoError(t, err)
	require.NotNil(t, rule)
	assert.Equal(t, "bg-1", rule.RemoteID)
}

func TestInitialSyncPushesUnsynced(t *testing.T) {
	ctx := context.Background()
	svc, store, rem, _ := newTestService(t)

	txn := &model.Transaction{
		Amount:    18.90,
		Direction: model.DirectionExpense,
		Category:  model.CategoryDining,
		Note:      "lunch",
		Date:      time.Date(2025, 6, 9, 13, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveTransaction(ctx, txn))

	require.NoError(t, svc.InitialSync(ctx))

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.True(t, got.Synced)
	require.NotEmpty(t, got.RemoteID)

	docs, err := rem.List(ctx, remote.CollectionTransactions)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, got.RemoteID, docs[0].ID)
	assert.Equal(t, "lunch", docs[0].Fields["note"])
}

func TestInitialSyncIdempotent(t *testing.T) {
	ctx := context.Background()
	svc, store, rem, _ := newTestService(t)

	require.NoError(t, rem.Put(ctx, remote.CollectionScheduled, "sc-1",
		remoteScheduledFields(1200, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC))))

	require.NoError(t, svc.InitialSync(ctx))
	require.NoError(t, svc.InitialSync(ctx))

	all, err := store.ListScheduledTransactions(ctx)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	docs, err := rem.List(ctx, remote.CollectionScheduled)
	require.NoError(t, err)
	assert.Len(t, docs, 1)
}

func TestListenerInsertsRemoteAdd(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, store, rem, _ := newTestService(t)

	require.NoError(t, svc.Listen(ctx))

	require.NoError(t, rem.Put(ctx, remote.CollectionTransactions, "tx-new", remoteTransactionFields(7.25, "bus ticket")))

	require.Eventually(t, func() bool {
		txn, err := store.GetTransactionByRemoteID(ctx, "tx-new")
		return err == nil && txn != nil
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListenerSuppressesOwnWrites(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, store, _, _ := newTestService(t)

	require.NoError(t, svc.Listen(ctx))

	txn := &model.Transaction{
		Amount:    15,
		Direction: model.DirectionExpense,
		Category:  model.CategoryTransport,
		Note:      "fuel",
		Date:      time.Date(2025, 6, 10, 8, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveTransaction(ctx, txn))
	require.NoError(t, svc.PushTransaction(ctx, txn))

	// the echo of our own write must not produce a second record
	time.Sleep(100 * time.Millisecond)
	all, err := store.ListTransactions(ctx, service.TransactionFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 1)
	assert.Equal(t, txn.ID, all[0].ID)
}

func TestListenerMergeKeepsAbsentFields(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, store, rem, _ := newTestService(t)

	seeded := &model.Transaction{
		RemoteID:  "tx-merge",
		Synced:    true,
		Amount:    50,
		Direction: model.DirectionExpense,
		Category:  model.CategoryGroceries,
		Note:      "weekly shop",
		PhotoRef:  "photos/transactions/receipt.jpg",
		Date:      time.Date(2025, 6, 8, 10, 0, 0, 0, time.UTC),
	}
	// the remote document was written by a client that never sets note or photo
	require.NoError(t, store.SaveTransaction(ctx, seeded))
	require.NoError(t, rem.Put(ctx, remote.CollectionTransactions, "tx-merge", map[string]any{
		"amount":    50.0,
		"direction": "expense",
		"category":  "groceries",
		"date":      seeded.Date,
	}))

	require.NoError(t, svc.Listen(ctx))

	require.NoError(t, rem.Put(ctx, remote.CollectionTransactions, "tx-merge", map[string]any{"amount": 62.30}))

	require.Eventually(t, func() bool {
		got, err := store.GetTransactionByRemoteID(ctx, "tx-merge")
		return err == nil && got != nil && got.Amount == 62.30
	}, 2*time.Second, 10*time.Millisecond)

	got, err := store.GetTransactionByRemoteID(ctx, "tx-merge")
	require.NoError(t, err)
	assert.Equal(t, "weekly shop", got.Note, "absent fields keep their local values")
	assert.Equal(t, model.CategoryGroceries, got.Category)
	assert.Equal(t, "photos/transactions/receipt.jpg", got.PhotoRef)
}

func TestListenerClearsRemotelyClearedPhoto(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, store, rem, _ := newTestService(t)

	seeded := &model.Transaction{
		RemoteID:  "tx-photo",
		Synced:    true,
		Amount:    20,
		Direction: model.DirectionExpense,
		Category:  model.CategoryDining,
		PhotoRef:  "photos/transactions/old.jpg",
		Date:      time.Date(2025, 6, 8, 19, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveTransaction(ctx, seeded))
	require.NoError(t, rem.Put(ctx, remote.CollectionTransactions, "tx-photo", remoteTransactionFields(20, "")))

	require.NoError(t, svc.Listen(ctx))

	require.NoError(t, rem.Put(ctx, remote.CollectionTransactions, "tx-photo", map[string]any{"photoRef": ""}))

	require.Eventually(t, func() bool {
		got, err := store.GetTransactionByRemoteID(ctx, "tx-photo")
		return err == nil && got != nil && got.PhotoRef == ""
	}, 2*time.Second, 10*time.Millisecond)
}

func TestListenerRemovedScheduledCancelsJobs(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	svc, store, rem, scheduler := newTestService(t)

	sched := &model.ScheduledTransaction{
		RemoteID:   "sc-gone",
		Synced:     true,
		Amount:     300,
		Direction:  model.DirectionExpense,
		Category:   model.CategoryUtilities,
		TargetDate: time.Date(2025, 7, 15, 0, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveScheduledTransaction(ctx, sched))
	require.NoError(t, rem.Put(ctx, remote.CollectionScheduled, "sc-gone",
		remoteScheduledFields(300, sched.TargetDate)))

	require.NoError(t, svc.Listen(ctx))

	require.NoError(t, rem.Delete(ctx, remote.CollectionScheduled, "sc-gone"))

	require.Eventually(t, func() bool {
		got, err := store.GetScheduledTransactionByRemoteID(ctx, "sc-gone")
		return err == nil && got == nil
	}, 2*time.Second, 10*time.Millisecond)

	assert.Contains(t, scheduler.Cancelled, jobs.ReminderTag(sched.ID))
	assert.Contains(t, scheduler.Cancelled, jobs.ExpiryTag(sched.ID))
}

func TestScheduledHookRunsOnRemoteUpsert(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	seen := make(chan *model.ScheduledTransaction, 1)
	svc, _, rem, _ := newTestService(t, WithScheduledHook(func(_ context.Context, sched *model.ScheduledTransaction) {
		select {
		case seen <- sched:
		default:
		}
	}))

	require.NoError(t, svc.Listen(ctx))
	require.NoError(t, rem.Put(ctx, remote.CollectionScheduled, "sc-hook",
		remoteScheduledFields(75, time.Date(2025, 8, 1, 0, 0, 0, 0, time.UTC))))

	select {
	case sched := <-seen:
		assert.Equal(t, "sc-hook", sched.RemoteID)
		assert.Positive(t, sched.ID)
	case <-time.After(2 * time.Second):
		t.Fatal("scheduled hook never ran")
	}
}

func TestDeleteRemoteWithoutIDIsNoop(t *testing.T) {
	ctx := context.Background()
	svc, _, _, _ := newTestService(t)

	require.NoError(t, svc.DeleteRemoteScheduled(ctx, ""))
}

// flakyRemote fails the first putFailures writes before delegating.
type flakyRemote struct {
	remote.Store
	putFailures int
}

func (f *flakyRemote) Put(ctx context.Context, col remote.Collection, id string, fields map[string]any) error {
	if f.putFailures > 0 {
		f.putFailures--
		return errors.New("backend unavailable")
	}
	return f.Store.Put(ctx, col, id, fields)
}

func TestPushRetriesTransientRemoteFailure(t *testing.T) {
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	rem := remote.NewMemoryStore()
	t.Cleanup(func() { _ = rem.Close() })
	flaky := &flakyRemote{Store: rem, putFailures: 2}

	svc := NewService(store, flaky, jobs.NewMockScheduler(), WithRetryOptions(service.RetryOptions{
		MaxAttempts:  3,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}))

	txn := &model.Transaction{
		Amount:    99.99,
		Direction: model.DirectionExpense,
		Category:  model.CategoryShopping,
		Note:      "headphones",
		Date:      time.Date(2025, 6, 11, 15, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveTransaction(ctx, txn))

	require.NoError(t, svc.PushTransaction(ctx, txn))
	assert.True(t, txn.Synced)

	docs, err := rem.List(ctx, remote.CollectionTransactions)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, "headphones", docs[0].Fields["note"])
}

func TestPushGivesUpAfterExhaustedRetries(t *testing.T) {
	ctx := context.Background()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	require.NoError(t, store.Migrate(ctx))
	t.Cleanup(func() { _ = store.Close() })

	rem := remote.NewMemoryStore()
	t.Cleanup(func() { _ = rem.Close() })
	flaky := &flakyRemote{Store: rem, putFailures: 10}

	svc := NewService(store, flaky, jobs.NewMockScheduler(), WithRetryOptions(service.RetryOptions{
		MaxAttempts:  2,
		InitialDelay: time.Millisecond,
		MaxDelay:     5 * time.Millisecond,
	}))

	txn := &model.Transaction{
		Amount:    5,
		Direction: model.DirectionExpense,
		Category:  model.CategoryDining,
		Note:      "espresso",
		Date:      time.Date(2025, 6, 11, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveTransaction(ctx, txn))

	require.Error(t, svc.PushTransaction(ctx, txn))

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.False(t, got.Synced, "record stays unsynced for the next reconciliation")
}

func TestPullPatchesPhotoAfterDownload(t *testing.T) {
	ctx := context.Background()

	photoStore := photos.NewMemoryStore()
	ref, err := photoStore.Upload(ctx, photos.AreaTransactions, "receipt.jpg", strings.NewReader("jpeg bytes"))
	require.NoError(t, err)

	cacheDir := t.TempDir()
	svc, store, rem, _ := newTestService(t, WithPhotoStore(photoStore, cacheDir))

	fields := remoteTransactionFields(33.10, "framed print")
	fields["photoRef"] = ref
	require.NoError(t, rem.Put(ctx, remote.CollectionTransactions, "tx-photo-pull", fields))

	require.NoError(t, svc.InitialSync(ctx))
	svc.Wait()

	got, err := store.GetTransactionByRemoteID(ctx, "tx-photo-pull")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, ref, got.PhotoRef, "reference recorded once the photo is cached")

	cached, err := os.ReadFile(filepath.Join(cacheDir, "receipt.jpg"))
	require.NoError(t, err)
	assert.Equal(t, "jpeg bytes", string(cached))
}
