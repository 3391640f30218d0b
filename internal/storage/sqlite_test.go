package storage

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/service"
)

func createTestStorage(t *testing.T) *SQLiteStorage {
	t.Helper()

	store, err := NewSQLiteStorage(":memory:")
	require.NoError(t, err)

	require.NoError(t, store.Migrate(context.Background()))

	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}

func testTransaction() *model.Transaction {
	return &model.Transaction{
		Amount:    42.50,
		Direction: model.DirectionExpense,
		Category:  model.CategoryGroceries,
		Note:      "weekly shop",
		Date:      time.Date(2025, 3, 10, 18, 30, 0, 0, time.UTC),
	}
}

func TestMigrateIdempotent(t *testing.T) {
	store := createTestStorage(t)
	require.NoError(t, store.Migrate(context.Background()))
}

func TestSaveAndGetTransaction(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	txn := testTransaction()
	txn.Location = &model.Location{
		Full:      "1 Main St, Springfield",
		Short:     "Main St",
		Latitude:  40.12,
		Longitude: -75.34,
	}
	require.NoError(t, store.SaveTransaction(ctx, txn))
	require.Positive(t, txn.ID)

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, txn.Amount, got.Amount)
	assert.Equal(t, model.CategoryGroceries, got.Category)
	assert.Equal(t, "weekly shop", got.Note)
	assert.False(t, got.Synced)
	require.NotNil(t, got.Location)
	assert.Equal(t, "Main St", got.Location.Short)
	assert.InDelta(t, 40.12, got.Location.Latitude, 1e-9)
}

func TestGetTransactionAbsent(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	got, err := store.GetTransaction(ctx, 999)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestSaveTransactionRejectsInvalid(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	txn := testTransaction()
	txn.Category = model.CategorySalary // income category on an expense
	err := store.SaveTransaction(ctx, txn)
	assert.ErrorIs(t, err, model.ErrDirectionMismatch)
}

func TestMarkTransactionSynced(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	txn := testTransaction()
	require.NoError(t, store.SaveTransaction(ctx, txn))

	unsynced, err := store.ListUnsyncedTransactions(ctx)
	require.NoError(t, err)
	require.Len(t, unsynced, 1)

	require.NoError(t, store.MarkTransactionSynced(ctx, txn.ID, "remote-abc"))

	unsynced, err = store.ListUnsyncedTransactions(ctx)
	require.NoError(t, err)
	assert.Empty(t, unsynced)

	got, err := store.GetTransactionByRemoteID(ctx, "remote-abc")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.True(t, got.Synced)
	assert.Equal(t, txn.ID, got.ID)
}

func TestListTransactionsFilter(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	for day := 1; day <= 5; day++ {
		txn := testTransaction()
		txn.Date = time.Date(2025, 3, day, 12, 0, 0, 0, time.UTC)
		if day%2 == 0 {
			txn.Category = model.CategoryDining
		}
		require.NoError(t, store.SaveTransaction(ctx, txn))
	}

	start := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 4, 23, 59, 59, 0, time.UTC)
	got, err := store.ListTransactions(ctx, service.TransactionFilter{StartDate: &start, EndDate: &end})
	require.NoError(t, err)
	assert.Len(t, got, 3)

	got, err = store.ListTransactions(ctx, service.TransactionFilter{Category: model.CategoryDining})
	require.NoError(t, err)
	assert.Len(t, got, 2)

	got, err = store.ListTransactions(ctx, service.TransactionFilter{Limit: 2})
	require.NoError(t, err)
	require.Len(t, got, 2)
	// newest first
	assert.True(t, got[0].Date.After(got[1].Date))
}

func TestDeleteTransactionByRemoteID(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	txn := testTransaction()
	require.NoError(t, store.SaveTransaction(ctx, txn))
	require.NoError(t, store.MarkTransactionSynced(ctx, txn.ID, "remote-1"))

	require.NoError(t, store.DeleteTransactionByRemoteID(ctx, "remote-1"))

	got, err := store.GetTransaction(ctx, txn.ID)
	require.NoError(t, err)
	assert.Nil(t, got)

	// absent remote id is a no-op, not an error
	require.NoError(t, store.DeleteTransactionByRemoteID(ctx, "remote-1"))
}

func TestSumExpensesByCategory(t *testing.T) {
	ctx := context.Background()
	store := createTestStorage(t)

	amounts := map[model.Category][]float64{
		model.CategoryGroceries: {10, 20},
		model.CategoryDining:    {15},
	}
	for cat, values := range amounts {
		for _, amount := range values {
			txn := testTransaction()
			txn.Category = cat
			txn.Amount = amount
			require.NoError(t, store.SaveTransaction(ctx, txn))
		}
	}

	// income must not be counted
	income := &model.Transaction{
		Amount:    1000,
		Direction: model.DirectionIncome,
		Category:  model.CategorySalary,
		Date:      time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC),
	}
	require.NoError(t, store.SaveTransaction(ctx, income))

	start := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 3, 31, 23, 59, 59, 0, time.UTC)
	sums, err := store.SumExpensesByCategory(ctx, start, end)
	require.NoError(t, err)
	assert.InDelta(t, 30, sums[model.CategoryGroceries], 1e-9)
	assert.InDelta(t, 15, sums[model.CategoryDining], 1e-9)
	assert.NotContains(t, sums, model.CategorySalary)
}
