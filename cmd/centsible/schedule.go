package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/centsible/centsible/internal/cli"
	"github.com/centsible/centsible/internal/jobs"
	"github.com/centsible/centsible/internal/model"
)

func scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Manage scheduled transactions",
	}

	cmd.AddCommand(scheduleAddCmd())
	cmd.AddCommand(scheduleListCmd())
	return cmd
}

func scheduleAddCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <amount> <category> <target-date>",
		Short: "Schedule a future transaction",
		Long: `Schedule a transaction for a future date. On that day you get a reminder
asking whether it happened; unconfirmed records expire and are cleaned up a
day later.`,
		Args: cobra.ExactArgs(3),
		RunE: runScheduleAdd,
	}

	cmd.Flags().String("note", "", "free-form note")
	return cmd
}

func runScheduleAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	category, direction, err := parseCategory(args[1])
	if err != nil {
		return err
	}
	target, err := parseDate(args[2])
	if err != nil {
		return err
	}

	note, _ := cmd.Flags().GetString("note")
	sched := &model.ScheduledTransaction{
		Amount:     amount,
		Direction:  direction,
		Category:   category,
		Note:       note,
		TargetDate: target,
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

	if err := store.SaveScheduledTransaction(ctx, sched); err != nil {
		return err
	}
	if err := svc.PushScheduled(ctx, sched); err != nil {
		slog.Warn("push failed, record stays local until next sync", "id", sched.ID, "error", err)
	}

	fmt.Printf("%s $%.2f %s on %s (#%d)\n",
		cli.SuccessStyle.Render("✓ scheduled"),
		amount, category, target.Format("2006-01-02"), sched.ID)
	return nil
}

func scheduleListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List scheduled transactions",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()

			store, err := initStorage(ctx)
			if err != nil {
				return err
			}
			defer func() { _ = store.Close() }()

			all, err := store.ListScheduledTransactions(ctx)
			if err != nil {
				return err
			}
			if len(all) == 0 {
				fmt.Println(cli.SubtleStyle.Render("nothing scheduled"))
				return nil
			}

			now := time.Now()
			fmt.Println(cli.TitleStyle.Render("Scheduled"))
			for i := range all {
				sched := &all[i]
				fmt.Printf("#%-4d %s  $%9.2f  %-14s %-20s %s\n",
					sched.ID,
					sched.TargetDate.Format("2006-01-02"),
					sched.Amount,
					sched.Category,
					sched.Note,
					scheduledDateStatus(sched, now))
			}
			return nil
		},
	}
}
