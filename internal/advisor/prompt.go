package advisor

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/centsible/centsible/internal/budget"
	"github.com/centsible/centsible/internal/model"
)

// MonthSummary is the financial snapshot the prompt is built from.
type MonthSummary struct {
	Month    time.Time
	Income   float64
	Expenses float64
	// ByCategory is month-to-date expense totals per category.
	ByCategory map[model.Category]float64
	// Budgets is the current standing of every budget rule.
	Budgets []budget.Status
}

// BuildPrompt renders the advice prompt. The model is asked for plain prose
// so the output can go straight to a terminal.
func BuildPrompt(summary MonthSummary) string {
	var b strings.Builder

	b.WriteString("You are a personal finance assistant. ")
	b.WriteString("Based on the data below, give the user three short, concrete suggestions ")
	b.WriteString("to improve their spending next month.\n")
	b.WriteString("Answer in plain prose, no Markdown, at most 120 words.\n\n")

	fmt.Fprintf(&b, "Month: %s\n", summary.Month.Format("January 2006"))
	fmt.Fprintf(&b, "Income: %.2f\n", summary.Income)
	fmt.Fprintf(&b, "Expenses: %.2f\n", summary.Expenses)
	fmt.Fprintf(&b, "Net: %.2f\n\n", summary.Income-summary.Expenses)

	if len(summary.ByCategory) > 0 {
		b.WriteString("Spending by category:\n")
		categories := make([]model.Category, 0, len(summary.ByCategory))
		for c := range summary.ByCategory {
			categories = append(categories, c)
		}
		sort.Slice(categories, func(i, j int) bool {
			return summary.ByCategory[categories[i]] > summary.ByCategory[categories[j]]
		})
		for _, c := range categories {
			fmt.Fprintf(&b, "- %s: %.2f\n", c, summary.ByCategory[c])
		}
		b.WriteString("\n")
	}

	if len(summary.Budgets) > 0 {
		b.WriteString("Budget standing:\n")
		for _, s := range summary.Budgets {
			b.WriteString("- ")
			b.WriteString(describeBudget(s))
			b.WriteString("\n")
		}
	}

	return b.String()
}

func describeBudget(s budget.Status) string {
	scope := "overall monthly budget"
	if s.Rule.Kind != model.BudgetGeneralMonthly {
		scope = fmt.Sprintf("%s budget", s.Rule.Category)
	}

	if s.Limit <= 0 {
		return fmt.Sprintf("%s: spent %.2f (no effective limit)", scope, s.Spent)
	}
	state := "within limit"
	if s.Over {
		state = "OVER LIMIT"
	}
	return fmt.Sprintf("%s: spent %.2f of %.2f (%.1f%%, %s)", scope, s.Spent, s.Limit, s.UsedPercent, state)
}
