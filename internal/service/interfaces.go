// Package service defines the interfaces for all application services.
package service

import (
	"context"
	"time"

	"github.com/centsible/centsible/internal/model"
)

// TransactionFilter defines filtering options for transaction queries.
type TransactionFilter struct {
	StartDate *time.Time
	EndDate   *time.Time
	Category  model.Category
	Limit     int
	Offset    int
}

// Storage defines the contract for the local record store. The local store is
// the single source of truth; the synchronization service reads and writes
// through this interface and never keeps its own copy beyond in-flight
// operations.
type Storage interface {
	// Transaction operations
	SaveTransaction(ctx context.Context, txn *model.Transaction) error
	GetTransaction(ctx context.Context, id int64) (*model.Transaction, error)
	GetTransactionByRemoteID(ctx context.Context, remoteID string) (*model.Transaction, error)
	ListTransactions(ctx context.Context, filter TransactionFilter) ([]model.Transaction, error)
	ListUnsyncedTransactions(ctx context.Context) ([]model.Transaction, error)
	UpdateTransaction(ctx context.Context, txn *model.Transaction) error
	UpdateTransactionPhoto(ctx context.Context, id int64, photoRef string) error
	MarkTransactionSynced(ctx context.Context, id int64, remoteID string) error
	DeleteTransaction(ctx context.Context, id int64) error
	DeleteTransactionByRemoteID(ctx context.Context, remoteID string) error
	SumExpensesByCategory(ctx context.Context, start, end time.Time) (map[model.Category]float64, error)

	// Scheduled transaction operations
	SaveScheduledTransaction(ctx context.Context, sched *model.ScheduledTransaction) error
	GetScheduledTransaction(ctx context.Context, id int64) (*model.ScheduledTransaction, error)
	GetScheduledTransactionByRemoteID(ctx context.Context, remoteID string) (*model.ScheduledTransaction, error)
	ListScheduledTransactions(ctx context.Context) ([]model.ScheduledTransaction, error)
	ListUnsyncedScheduledTransactions(ctx context.Context) ([]model.ScheduledTransaction, error)
	UpdateScheduledTransaction(ctx context.Context, sched *model.ScheduledTransaction) error
	UpdateScheduledPhoto(ctx context.Context, id int64, photoRef string) error
	SetReminderSent(ctx context.Context, id int64) error
	SetExpirationNotified(ctx context.Context, id int64) error
	MarkScheduledSynced(ctx context.Context, id int64, remoteID string) error
	DeleteScheduledTransaction(ctx context.Context, id int64) error
	// DeleteScheduledByRemoteID deletes by remote identifier and returns the
	// local id of the deleted record so callers can retire its background
	// work, or 0 if no record matched.
	DeleteScheduledByRemoteID(ctx context.Context, remoteID string) (int64, error)

	// Budget rule operations
	SaveBudgetRule(ctx context.Context, rule *model.BudgetRule) error
	GetBudgetRule(ctx context.Context, id int64) (*model.BudgetRule, error)
	GetBudgetRuleByRemoteID(ctx context.Context, remoteID string) (*model.BudgetRule, error)
	GetGeneralMonthlyRule(ctx context.Context) (*model.BudgetRule, error)
	ListBudgetRules(ctx context.Context) ([]model.BudgetRule, error)
	ListUnsyncedBudgetRules(ctx context.Context) ([]model.BudgetRule, error)
	UpdateBudgetRule(ctx context.Context, rule *model.BudgetRule) error
	MarkBudgetRuleSynced(ctx context.Context, id int64, remoteID string) error
	DeleteBudgetRule(ctx context.Context, id int64) error
	DeleteBudgetRuleByRemoteID(ctx context.Context, remoteID string) error

	// Database management
	Migrate(ctx context.Context) error
	Close() error
}

// RetryOptions configures retry behavior for operations.
type RetryOptions struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
}
