package main

import (
	"context"
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/centsible/centsible/internal/cli"
	"github.com/centsible/centsible/internal/jobs"
	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/notify"
	"github.com/centsible/centsible/internal/reminder"
	"github.com/centsible/centsible/internal/remote"
	syncsvc "github.com/centsible/centsible/internal/sync"
)

func syncCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Synchronize with the remote store",
		Long: `Run a full reconciliation with the remote store: remote records missing
locally are pulled, local records never pushed are pushed.

With --listen the command stays attached afterwards and applies remote
changes live as other devices make them.`,
		RunE: runSync,
	}

	cmd.Flags().Bool("listen", false, "stay attached and apply live remote changes")
	return cmd
}

func runSync(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	listen, _ := cmd.Flags().GetBool("listen")

	store, err := initStorage(ctx)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	scheduler := jobs.NewTimerScheduler()
	defer scheduler.Stop()

	bar := progressbar.NewOptions(len(remote.Collections()),
		progressbar.OptionSetDescription("syncing"),
		progressbar.OptionClearOnFinish(),
	)

	// the engine re-checks scheduled records arriving mid-day; it is built
	// after the sync service it depends on, so the hook binds late
	var engine *reminder.Engine
	svc, rem, err := initSync(ctx, store, scheduler,
		syncsvc.WithPullProgress(func(_ remote.Collection) { _ = bar.Add(1) }),
		syncsvc.WithScheduledHook(func(ctx context.Context, sched *model.ScheduledTransaction) {
			if engine != nil {
				engine.OnScheduledChange(ctx, sched)
			}
		}),
	)
	if err != nil {
		return err
	}
	defer func() { _ = rem.Close() }()

	engineOpts := []reminder.Option{}
	if photoStore, photosErr := initPhotos(ctx); photosErr == nil && photoStore != nil {
		engineOpts = append(engineOpts, reminder.WithPhotoStore(photoStore))
	}
	engine = reminder.NewEngine(store, svc, notify.NewConsoleNotifier(os.Stdout), scheduler, engineOpts...)

	if err := svc.InitialSync(ctx); err != nil {
		return err
	}
	_ = bar.Finish()
	fmt.Println(cli.SuccessStyle.Render("✓ sync complete"))

	if !listen {
		return nil
	}

	// arm reminder jobs for everything we now know about
	if err := engine.Run(ctx); err != nil {
		return err
	}

	fmt.Println(cli.InfoStyle.Render("listening for remote changes, ctrl-c to stop"))
	if err := svc.Listen(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	svc.Wait()
	return nil
}
