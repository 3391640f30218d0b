package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/centsible/centsible/internal/advisor"
	"github.com/centsible/centsible/internal/budget"
	"github.com/centsible/centsible/internal/cli"
	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/service"
)

func adviseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "advise",
		Short: "Get AI advice on this month's spending",
		Long: `Summarize the month's cash flow and budget standing and ask the
configured model for concrete suggestions. Requires a Gemini API key in the
environment.`,
		RunE: runAdvise,
	}
}

func runAdvise(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	now := time.Now()
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	byCategory, err := store.SumExpensesByCategory(ctx, monthStart, now)
	if err != nil {
		return err
	}

	txns, err := store.ListTransactions(ctx, service.TransactionFilter{StartDate: &monthStart, EndDate: &now})
	if err != nil {
		return err
	}

	var income, expenses float64
	for _, txn := range txns {
		if txn.Direction == model.DirectionIncome {
			income += txn.Amount
		} else {
			expenses += txn.Amount
		}
	}

	statuses, err := budget.NewChecker(store).Statuses(ctx)
	if err != nil {
		return err
	}

	prompt := advisor.BuildPrompt(advisor.MonthSummary{
		Month:      monthStart,
		Income:     income,
		Expenses:   expenses,
		ByCategory: byCategory,
		Budgets:    statuses,
	})

	client, err := advisor.NewGeminiClient(ctx, viper.GetString("advisor.model"))
	if err != nil {
		return err
	}

	advice, err := client.Advise(ctx, prompt)
	if err != nil {
		return err
	}

	fmt.Println(cli.TitleStyle.Render("Advice"))
	fmt.Println(advice)
	return nil
}
