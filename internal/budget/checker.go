// Package budget evaluates budget rules against month-to-date spending.
package budget

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/service"
)

// Status is the month-to-date standing of one budget rule.
type Status struct {
	Rule model.BudgetRule
	// Spent is what the rule's scope has consumed this month.
	Spent float64
	// Limit is the rule's effective cap. Zero when the cap cannot be
	// derived, e.g. a percent rule with no general budget to apply it to.
	Limit float64
	// UsedPercent is Spent over Limit, rounded to one decimal place.
	UsedPercent float64
	// Over reports whether the limit is exceeded.
	Over bool
}

// Checker computes budget statuses from the local store.
type Checker struct {
	store service.Storage
	now   func() time.Time
}

// NewChecker creates a checker over the local store.
func NewChecker(store service.Storage) *Checker {
	return &Checker{store: store, now: time.Now}
}

// WithClock overrides the wall clock, for tests.
func (c *Checker) WithClock(now func() time.Time) *Checker {
	c.now = now
	return c
}

// monthWindow returns the first instant of the current month and now.
func (c *Checker) monthWindow() (time.Time, time.Time) {
	now := c.now()
	start := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	return start, now
}

// Statuses evaluates every budget rule against this month's expenses. The
// general rule, when present, comes first.
func (c *Checker) Statuses(ctx context.Context) ([]Status, error) {
	rules, err := c.store.ListBudgetRules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list budget rules: %w", err)
	}
	if len(rules) == 0 {
		return nil, nil
	}

	start, end := c.monthWindow()
	sums, err := c.store.SumExpensesByCategory(ctx, start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to sum expenses: %w", err)
	}

	total := decimal.Zero
	for _, amount := range sums {
		total = total.Add(decimal.NewFromFloat(amount))
	}

	var general *model.BudgetRule
	for i := range rules {
		if rules[i].Kind == model.BudgetGeneralMonthly {
			general = &rules[i]
			break
		}
	}

	statuses := make([]Status, 0, len(rules))
	for _, rule := range rules {
		statuses = append(statuses, c.evaluate(rule, sums, total, general))
	}
	return statuses, nil
}

func (c *Checker) evaluate(rule model.BudgetRule, sums map[model.Category]float64, total decimal.Decimal, general *model.BudgetRule) Status {
	var spent, limit decimal.Decimal

	switch rule.Kind {
	case model.BudgetGeneralMonthly:
		spent = total
		limit = decimal.NewFromFloat(rule.Amount)

	case model.BudgetCategoryAmount:
		spent = decimal.NewFromFloat(sums[rule.Category])
		limit = decimal.NewFromFloat(rule.Amount)

	case model.BudgetCategoryPercent:
		spent = decimal.NewFromFloat(sums[rule.Category])
		if general != nil {
			limit = decimal.NewFromFloat(general.Amount).
				Mul(decimal.NewFromFloat(rule.LimitPercent)).
				Div(decimal.NewFromInt(100))
		}
	}

	status := Status{
		Rule:  rule,
		Spent: spent.InexactFloat64(),
		Limit: limit.InexactFloat64(),
	}
	if limit.IsPositive() {
		status.UsedPercent = spent.Div(limit).
			Mul(decimal.NewFromInt(100)).
			Round(1).
			InexactFloat64()
		status.Over = spent.GreaterThan(limit)
	}
	return status
}
