package model

import (
	"errors"
	"fmt"
)

// BudgetKind distinguishes the three kinds of budget rule.
type BudgetKind string

const (
	// BudgetGeneralMonthly caps total monthly spending. At most one such
	// rule exists; saving a new one replaces the old.
	BudgetGeneralMonthly BudgetKind = "general_monthly"
	// BudgetCategoryAmount caps monthly spending in one category by a fixed
	// amount.
	BudgetCategoryAmount BudgetKind = "category_amount"
	// BudgetCategoryPercent caps monthly spending in one category as a
	// percentage of the general monthly limit.
	BudgetCategoryPercent BudgetKind = "category_percent"
)

// Valid reports whether the kind is a known value.
func (k BudgetKind) Valid() bool {
	switch k {
	case BudgetGeneralMonthly, BudgetCategoryAmount, BudgetCategoryPercent:
		return true
	}
	return false
}

// ParseBudgetKind converts a serialized kind name back to a BudgetKind.
func ParseBudgetKind(s string) (BudgetKind, error) {
	k := BudgetKind(s)
	if !k.Valid() {
		return "", fmt.Errorf("unknown budget kind %q", s)
	}
	return k, nil
}

// BudgetRule is a monthly spending limit, either overall or per category.
type BudgetRule struct {
	RemoteID     string
	Kind         BudgetKind
	Category     Category // empty for general_monthly
	Amount       float64  // fixed limit, unused for category_percent
	LimitPercent float64  // unused except for category_percent
	ID           int64
	Synced       bool
}

// Validate checks the rule's own invariants.
func (r *BudgetRule) Validate() error {
	if !r.Kind.Valid() {
		return fmt.Errorf("%w: %q", errors.New("invalid budget kind"), r.Kind)
	}
	switch r.Kind {
	case BudgetGeneralMonthly:
		if r.Category != "" {
			return errors.New("general monthly rule must not name a category")
		}
		if r.Amount <= 0 {
			return ErrInvalidAmount
		}
	case BudgetCategoryAmount:
		if !r.Category.Valid() || r.Category.Direction() != DirectionExpense {
			return fmt.Errorf("%w: %q", ErrInvalidCategory, r.Category)
		}
		if r.Amount <= 0 {
			return ErrInvalidAmount
		}
	case BudgetCategoryPercent:
		if !r.Category.Valid() || r.Category.Direction() != DirectionExpense {
			return fmt.Errorf("%w: %q", ErrInvalidCategory, r.Category)
		}
		if r.LimitPercent <= 0 || r.LimitPercent > 100 {
			return errors.New("limit percent must be in (0, 100]")
		}
	}
	return nil
}
