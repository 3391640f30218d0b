package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/centsible/centsible/internal/budget"
	"github.com/centsible/centsible/internal/cli"
	"github.com/centsible/centsible/internal/jobs"
	"github.com/centsible/centsible/internal/model"
)

func budgetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "budget",
		Short: "Manage budget rules",
	}

	cmd.AddCommand(budgetSetCmd())
	cmd.AddCommand(budgetStatusCmd())
	return cmd
}

func budgetSetCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "set",
		Short: "Create or replace a budget rule",
		Long: `Create a budget rule. Exactly one of the three forms applies:

  budget set --monthly 2000                 overall monthly budget
  budget set --category dining --amount 300 fixed cap for one category
  budget set --category dining --percent 15 cap as a share of the monthly budget

Setting a second overall monthly budget replaces the first.`,
		RunE: runBudgetSet,
	}

	cmd.Flags().Float64("monthly", 0, "overall monthly budget amount")
	cmd.Flags().String("category", "", "expense category the rule applies to")
	cmd.Flags().Float64("amount", 0, "fixed cap for the category")
	cmd.Flags().Float64("percent", 0, "cap as percent of the monthly budget")
	return cmd
}

func runBudgetSet(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	monthly, _ := cmd.Flags().GetFloat64("monthly")
	categoryFlag, _ := cmd.Flags().GetString("category")
	amount, _ := cmd.Flags().GetFloat64("amount")
	percent, _ := cmd.Flags().GetFloat64("percent")

	rule := &model.BudgetRule{}
	switch {
	case monthly > 0:
		rule.Kind = model.BudgetGeneralMonthly
		rule.Amount = monthly
	case categoryFlag != "" && amount > 0:
		category, _, err := parseCategory(categoryFlag)
		if err != nil {
			return err
		}
		rule.Kind = model.BudgetCategoryAmount
		rule.Category = category
		rule.Amount = amount
	case categoryFlag != "" && percent > 0:
		category, _, err := parseCategory(categoryFlag)
		if err != nil {
			return err
		}
		rule.Kind = model.BudgetCategoryPercent
		rule.Category = category
		rule.LimitPercent = percent
	default:
		return fmt.Errorf("specify --monthly, or --category with --amount or --percent")
	}

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	scheduler := jobs.NewTimerScheduler()
	defer scheduler.Stop()
	svc, rem, err := initSync(ctx, store, scheduler)
	if err != nil {
		return err
	}
	defer func() { _ = rem.Close() }()

	if err := store.SaveBudgetRule(ctx, rule); err != nil {
		return err
	}
	if err := svc.PushBudgetRule(ctx, rule); err != nil {
		slog.Warn("push failed, rule stays local until next sync", "id", rule.ID, "error", err)
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ budget rule saved (#%d)", rule.ID)))
	return nil
}

func budgetStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show month-to-date standing of every budget rule",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			statuses, err := budget.NewChecker(store).Statuses(ctx)
			if err != nil {
				return err
			}
			if len(statuses) == 0 {
				fmt.Println(cli.SubtleStyle.Render("no budget rules, use `centsible budget set`"))
				return nil
			}

			fmt.Println(cli.TitleStyle.Render("Budgets"))
			for _, s := range statuses {
				fmt.Println(formatBudgetStatus(s))
			}
			return nil
		},
	}
}

func formatBudgetStatus(s budget.Status) string {
	scope := "overall"
	if s.Rule.Kind != model.BudgetGeneralMonthly {
		scope = string(s.Rule.Category)
	}

	if s.Limit <= 0 {
		return fmt.Sprintf("%-16s $%9.2f spent  %s",
			scope, s.Spent, cli.SubtleStyle.Render("(no effective limit)"))
	}

	usage := fmt.Sprintf("%.1f%%", s.UsedPercent)
	style := cli.SuccessStyle
	switch {
	case s.Over:
		style = cli.ErrorStyle
	case s.UsedPercent >= 80:
		style = cli.WarningStyle
	}

	return fmt.Sprintf("%-16s $%9.2f of $%9.2f  %s",
		scope, s.Spent, s.Limit, style.Render(usage))
}
