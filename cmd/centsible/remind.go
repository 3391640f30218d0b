package main

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/centsible/centsible/internal/cli"
	"github.com/centsible/centsible/internal/jobs"
)

func remindCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "remind",
		Short: "Check scheduled transactions for due reminders",
		Long: `Evaluate every scheduled transaction once: send due-today reminders,
expiration notices, and clean up records unconfirmed for a full day past
their scheduled day.

With --watch the check keeps running on an interval and background jobs fire
at their exact times.`,
		RunE: runRemind,
	}

	cmd.Flags().Bool("watch", false, "keep running and re-check on an interval")
	cmd.Flags().Duration("interval", 5*time.Minute, "re-check interval in watch mode")
	return cmd
}

func runRemind(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	watch, _ := cmd.Flags().GetBool("watch")
	interval, _ := cmd.Flags().GetDuration("interval")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	scheduler := jobs.NewTimerScheduler()
	defer scheduler.Stop()
	engine, rem, err := initEngine(ctx, store, scheduler)
	if err != nil {
		return err
	}
	defer func() { _ = rem.Close() }()

	if err := engine.Run(ctx); err != nil {
		return err
	}
	if !watch {
		return nil
	}

	fmt.Println(cli.InfoStyle.Render(fmt.Sprintf("watching scheduled transactions every %s", interval)))

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := engine.Run(ctx); err != nil {
				slog.Error("reminder pass failed", "error", err)
			}
		}
	}
}
