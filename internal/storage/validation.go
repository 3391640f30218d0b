package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/centsible/centsible/internal/model"
)

// Validation errors.
var (
	ErrNilContext   = errors.New("context cannot be nil")
	ErrEmptyString  = errors.New("string parameter cannot be empty")
	ErrNilParameter = errors.New("parameter cannot be nil")
	ErrInvalidID    = errors.New("id must be positive")
)

// validateContext ensures the context is not nil.
func validateContext(ctx context.Context) error {
	if ctx == nil {
		return ErrNilContext
	}
	return nil
}

// validateString ensures a string parameter is not empty.
func validateString(s string, paramName string) error {
	if strings.TrimSpace(s) == "" {
		return fmt.Errorf("%w: %s", ErrEmptyString, paramName)
	}
	return nil
}

// validateID ensures a local identifier is positive.
func validateID(id int64, paramName string) error {
	if id <= 0 {
		return fmt.Errorf("%w: %s", ErrInvalidID, paramName)
	}
	return nil
}

func validateTransaction(txn *model.Transaction) error {
	if txn == nil {
		return fmt.Errorf("%w: transaction", ErrNilParameter)
	}
	return txn.Validate()
}

func validateScheduled(sched *model.ScheduledTransaction) error {
	if sched == nil {
		return fmt.Errorf("%w: scheduled transaction", ErrNilParameter)
	}
	return sched.Validate()
}

func validateBudgetRule(rule *model.BudgetRule) error {
	if rule == nil {
		return fmt.Errorf("%w: budget rule", ErrNilParameter)
	}
	return rule.Validate()
}
