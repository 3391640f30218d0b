package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/centsible/centsible/internal/cli"
	"github.com/centsible/centsible/internal/jobs"
	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/photos"
)

func addCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "add <amount> <category>",
		Short: "Record a transaction",
		Long: `Record a committed transaction in the local ledger and push it to the
remote store. With no remote configured the record stays local and is pushed
by the next sync.`,
		Args: cobra.ExactArgs(2),
		RunE: runAdd,
	}

	cmd.Flags().String("note", "", "free-form note")
	cmd.Flags().String("date", "today", "transaction date (YYYY-MM-DD, today, tomorrow)")
	cmd.Flags().String("photo", "", "path to a receipt photo to upload")
	cmd.Flags().String("location", "", "location description")
	return cmd
}

func runAdd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	amount, err := parseAmount(args[0])
	if err != nil {
		return err
	}
	category, direction, err := parseCategory(args[1])
	if err != nil {
		return err
	}

	dateFlag, _ := cmd.Flags().GetString("date")
	date, err := parseDate(dateFlag)
	if err != nil {
		return err
	}

	note, _ := cmd.Flags().GetString("note")
	locationFlag, _ := cmd.Flags().GetString("location")

	txn := &model.Transaction{
		Amount:    amount,
		Direction: direction,
		Category:  category,
		Note:      note,
		Date:      date,
	}
	if locationFlag != "" {
		txn.Location = &model.Location{Full: locationFlag, Short: locationFlag}
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

	if photoPath, _ := cmd.Flags().GetString("photo"); photoPath != "" {
		ref, uploadErr := uploadPhoto(cmd, photoPath)
		if uploadErr != nil {
			return uploadErr
		}
		txn.PhotoRef = ref
	}

	if err := store.SaveTransaction(ctx, txn); err != nil {
		return err
	}

	if err := svc.PushTransaction(ctx, txn); err != nil {
		slog.Warn("push failed, record stays local until next sync", "id", txn.ID, "error", err)
	}

	style := cli.AmountExpenseStyle
	if direction == model.DirectionIncome {
		style = cli.AmountIncomeStyle
	}
	fmt.Printf("%s %s %s (#%d)\n",
		cli.SuccessStyle.Render("✓ recorded"),
		style.Render(fmt.Sprintf("$%.2f", amount)),
		category, txn.ID)
	return nil
}

func uploadPhoto(cmd *cobra.Command, path string) (string, error) {
	ctx := cmd.Context()

	photoStore, err := initPhotos(ctx)
	if err != nil {
		return "", err
	}
	if photoStore == nil {
		return "", fmt.Errorf("photos.bucket is not configured")
	}
	defer func() { _ = photoStore.Close() }()

	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open photo: %w", err)
	}
	defer func() { _ = f.Close() }()

	return photoStore.Upload(ctx, photos.AreaTransactions, filepath.Base(path), f)
}
