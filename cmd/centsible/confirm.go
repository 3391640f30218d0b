package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/centsible/centsible/internal/cli"
	"github.com/centsible/centsible/internal/jobs"
	"github.com/centsible/centsible/internal/notify"
	"github.com/centsible/centsible/internal/reminder"
	"github.com/centsible/centsible/internal/remote"
	"github.com/centsible/centsible/internal/storage"
)

// initEngine wires the reminder engine and everything under it.
func initEngine(ctx context.Context, store *storage.SQLiteStorage, scheduler jobs.Scheduler) (*reminder.Engine, remote.Store, error) {
	svc, rem, err := initSync(ctx, store, scheduler)
	if err != nil {
		return nil, nil, err
	}

	opts := []reminder.Option{}
	if photoStore, photosErr := initPhotos(ctx); photosErr == nil && photoStore != nil {
		opts = append(opts, reminder.WithPhotoStore(photoStore))
	}

	notifier := notify.NewConsoleNotifier(os.Stdout)
	return reminder.NewEngine(store, svc, notifier, scheduler, opts...), rem, nil
}

func confirmCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "confirm <id>",
		Short: "Confirm a scheduled transaction happened",
		Long: `Confirm that a scheduled transaction actually took place. This records a
real transaction dated now and retires the scheduled record on every device.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

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

			if err := engine.Confirm(ctx, id); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ confirmed #%d", id)))
			return nil
		},
	}
}

func cancelCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <id>",
		Short: "Cancel a scheduled transaction",
		Long:  `Discard a scheduled transaction that will not happen, on every device.`,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			id, err := parseID(args[0])
			if err != nil {
				return err
			}

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

			if err := engine.Cancel(ctx, id); err != nil {
				return err
			}
			fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ cancelled #%d", id)))
			return nil
		},
	}
}
