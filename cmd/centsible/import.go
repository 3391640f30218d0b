package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/centsible/centsible/internal/cli"
	"github.com/centsible/centsible/internal/jobs"
	"github.com/centsible/centsible/internal/ofx"
)

func importCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.ofx>",
		Short: "Import an OFX/QFX bank statement",
		Long: `Import transactions from a bank-exported OFX or QFX statement into the
local ledger. Imported records are pushed to the remote store like any other
transaction.`,
		Args: cobra.ExactArgs(1),
		RunE: runImport,
	}

	cmd.Flags().Bool("dry-run", false, "parse and show what would be imported")
	return cmd
}

func runImport(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	dryRun, _ := cmd.Flags().GetBool("dry-run")

	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("failed to open statement: %w", err)
	}
	defer func() { _ = f.Close() }()

	transactions, err := ofx.NewParser().ParseFile(ctx, f)
	if err != nil {
		return err
	}
	if len(transactions) == 0 {
		fmt.Println(cli.SubtleStyle.Render("statement contains no transactions"))
		return nil
	}

	if dryRun {
		fmt.Println(cli.TitleStyle.Render(fmt.Sprintf("Would import %d transactions", len(transactions))))
		for i := range transactions {
			fmt.Println(formatTransaction(&transactions[i]))
		}
		return nil
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

	imported := 0
	for i := range transactions {
		txn := &transactions[i]
		if err := store.SaveTransaction(ctx, txn); err != nil {
			slog.Warn("skipping unimportable transaction", "note", txn.Note, "error", err)
			continue
		}
		if err := svc.PushTransaction(ctx, txn); err != nil {
			slog.Warn("push failed, record stays local until next sync", "id", txn.ID, "error", err)
		}
		imported++
	}

	fmt.Println(cli.SuccessStyle.Render(fmt.Sprintf("✓ imported %d of %d transactions", imported, len(transactions))))
	return nil
}
