package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/centsible/centsible/internal/common"
	"github.com/centsible/centsible/internal/jobs"
	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/photos"
	"github.com/centsible/centsible/internal/remote"
	"github.com/centsible/centsible/internal/storage"
	syncsvc "github.com/centsible/centsible/internal/sync"
)

// initStorage opens the local database and brings its schema up to date.
func initStorage(ctx context.Context) (*storage.SQLiteStorage, error) {
	dbPath := viper.GetString("database.path")
	if dbPath == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get home directory: %w", err)
		}
		dbPath = filepath.Join(home, ".local", "share", "centsible", "centsible.db")
	}

	store, err := storage.NewSQLiteStorage(dbPath)
	if err != nil {
		return nil, err
	}

	if err := store.Migrate(ctx); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return store, nil
}

// initRemote connects to the configured remote document store. Without a
// configured project the CLI runs offline against an in-memory store.
func initRemote(ctx context.Context) (remote.Store, error) {
	project := viper.GetString("remote.project")
	if project == "" {
		slog.Warn("no remote.project configured, running offline")
		return remote.NewMemoryStore(), nil
	}

	user := viper.GetString("remote.user")
	if user == "" {
		return nil, common.ErrNotSignedIn
	}
	return remote.NewFirestoreStore(ctx, project, user)
}

// initPhotos connects to the configured photo bucket, or nil when photo
// storage is not configured.
func initPhotos(ctx context.Context) (photos.Store, error) {
	bucket := viper.GetString("photos.bucket")
	if bucket == "" {
		return nil, nil
	}
	return photos.NewGCSStore(ctx, bucket)
}

func photoCacheDir() string {
	dir := viper.GetString("photos.cache_dir")
	if dir == "" {
		return ""
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		slog.Warn("failed to create photo cache dir", "dir", dir, "error", err)
		return ""
	}
	return dir
}

// initSync wires the sync service over the opened stores.
func initSync(ctx context.Context, store *storage.SQLiteStorage, scheduler jobs.Scheduler, opts ...syncsvc.Option) (*syncsvc.Service, remote.Store, error) {
	rem, err := initRemote(ctx)
	if err != nil {
		return nil, nil, err
	}

	photoStore, err := initPhotos(ctx)
	if err != nil {
		return nil, nil, err
	}
	if photoStore != nil {
		if dir := photoCacheDir(); dir != "" {
			opts = append(opts, syncsvc.WithPhotoStore(photoStore, dir))
		}
	}

	return syncsvc.NewService(store, rem, scheduler, opts...), rem, nil
}

// parseAmount parses a positive decimal amount.
func parseAmount(s string) (float64, error) {
	amount, err := strconv.ParseFloat(strings.TrimPrefix(s, "$"), 64)
	if err != nil {
		return 0, common.NewUserError("Amounts look like 12.50", fmt.Errorf("invalid amount %q", s))
	}
	if amount <= 0 {
		return 0, common.NewUserError("Amounts must be positive", model.ErrInvalidAmount)
	}
	return amount, nil
}

// parseCategory resolves a category name and derives its direction.
func parseCategory(s string) (model.Category, model.Direction, error) {
	category, err := model.ParseCategory(strings.ToLower(s))
	if err != nil {
		names := make([]string, 0, len(model.Categories()))
		for _, c := range model.Categories() {
			names = append(names, string(c))
		}
		return "", "", common.NewUserError("Known categories: "+strings.Join(names, ", "), err)
	}
	return category, category.Direction(), nil
}

// parseDate accepts YYYY-MM-DD or the words today/tomorrow.
func parseDate(s string) (time.Time, error) {
	now := time.Now()
	switch strings.ToLower(s) {
	case "", "today":
		return now, nil
	case "tomorrow":
		return now.AddDate(0, 0, 1), nil
	}

	parsed, err := time.ParseInLocation("2006-01-02", s, time.Local)
	if err != nil {
		return time.Time{}, common.NewUserError("Dates look like 2025-06-10", fmt.Errorf("invalid date %q", s))
	}
	return parsed, nil
}

func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, common.NewUserError("Use the numeric id shown by list commands", fmt.Errorf("invalid id %q", s))
	}
	return id, nil
}
