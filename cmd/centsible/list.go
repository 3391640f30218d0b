package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/centsible/centsible/internal/cli"
	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/service"
)

func listCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List recent transactions",
		RunE:  runList,
	}

	cmd.Flags().Int("limit", 20, "maximum records to show")
	cmd.Flags().String("category", "", "filter by category")
	cmd.Flags().String("since", "", "only records on or after this date (YYYY-MM-DD)")
	return cmd
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	filter := service.TransactionFilter{}
	filter.Limit, _ = cmd.Flags().GetInt("limit")

	if categoryFlag, _ := cmd.Flags().GetString("category"); categoryFlag != "" {
		category, _, parseErr := parseCategory(categoryFlag)
		if parseErr != nil {
			return parseErr
		}
		filter.Category = category
	}
	if sinceFlag, _ := cmd.Flags().GetString("since"); sinceFlag != "" {
		since, parseErr := parseDate(sinceFlag)
		if parseErr != nil {
			return parseErr
		}
		filter.StartDate = &since
	}

	txns, err := store.ListTransactions(ctx, filter)
	if err != nil {
		return err
	}
	if len(txns) == 0 {
		fmt.Println(cli.SubtleStyle.Render("no transactions"))
		return nil
	}

	fmt.Println(cli.TitleStyle.Render("Transactions"))
	for _, txn := range txns {
		fmt.Println(formatTransaction(&txn))
	}
	return nil
}

func formatTransaction(txn *model.Transaction) string {
	style := cli.AmountExpenseStyle
	sign := "-"
	if txn.Direction == model.DirectionIncome {
		style = cli.AmountIncomeStyle
		sign = "+"
	}

	line := fmt.Sprintf("#%-4d %s  %s  %-14s %s",
		txn.ID,
		txn.Date.Format("2006-01-02"),
		style.Render(fmt.Sprintf("%s$%9.2f", sign, txn.Amount)),
		txn.Category,
		txn.Note)

	if !txn.Synced {
		line += " " + cli.WarningStyle.Render("(unsynced)")
	}
	return line
}

// scheduledDateStatus renders the lifecycle hint shown next to a scheduled
// record's target date.
func scheduledDateStatus(sched *model.ScheduledTransaction, now time.Time) string {
	switch {
	case sched.Confirmed:
		return cli.SuccessStyle.Render("confirmed")
	case sched.ExpirationNotified:
		return cli.ErrorStyle.Render("expired")
	case sched.ReminderSent:
		return cli.WarningStyle.Render("due")
	case now.Before(sched.TargetDate):
		return cli.SubtleStyle.Render("upcoming")
	default:
		return cli.WarningStyle.Render("due")
	}
}
