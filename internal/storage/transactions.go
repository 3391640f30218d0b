package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/centsible/centsible/internal/model"
	"github.com/centsible/centsible/internal/service"
)

const transactionColumns = `id, remote_id, amount, direction, category, note, date,
	photo_ref, location_full, location_short, latitude, longitude, synced`

// locationArgs flattens an optional location into its four column values.
func locationArgs(loc *model.Location) (full, short any, lat, lon any) {
	if loc == nil {
		return nil, nil, nil, nil
	}
	return loc.Full, loc.Short, loc.Latitude, loc.Longitude
}

// scanLocation rebuilds an optional location from its nullable columns.
func scanLocation(full, short sql.NullString, lat, lon sql.NullFloat64) *model.Location {
	if !full.Valid && !short.Valid && !lat.Valid && !lon.Valid {
		return nil
	}
	return &model.Location{
		Full:      full.String,
		Short:     short.String,
		Latitude:  lat.Float64,
		Longitude: lon.Float64,
	}
}

func scanTransaction(scan func(dest ...any) error) (*model.Transaction, error) {
	var (
		txn         model.Transaction
		direction   string
		category    string
		full, short sql.NullString
		lat, lon    sql.NullFloat64
	)
	err := scan(
		&txn.ID, &txn.RemoteID, &txn.Amount, &direction, &category, &txn.Note,
		&txn.Date, &txn.PhotoRef, &full, &short, &lat, &lon, &txn.Synced,
	)
	if err != nil {
		return nil, err
	}
	txn.Direction = model.Direction(direction)
	txn.Category = model.Category(category)
	txn.Location = scanLocation(full, short, lat, lon)
	return &txn, nil
}

// SaveTransaction inserts a new transaction and assigns its local id.
func (s *SQLiteStorage) SaveTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}

	full, short, lat, lon := locationArgs(txn.Location)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO transactions (
			remote_id, amount, direction, category, note, date,
			photo_ref, location_full, location_short, latitude, longitude, synced
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		txn.RemoteID, txn.Amount, string(txn.Direction), string(txn.Category),
		txn.Note, txn.Date, txn.PhotoRef, full, short, lat, lon, txn.Synced,
	)
	if err != nil {
		return fmt.Errorf("failed to insert transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get transaction id: %w", err)
	}
	txn.ID = id

	slog.Debug("saved transaction", "id", id, "category", txn.Category, "amount", txn.Amount)
	return nil
}

// GetTransaction returns a transaction by local id, or nil if absent.
func (s *SQLiteStorage) GetTransaction(ctx context.Context, id int64) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE id = ?`, id)
	txn, err := scanTransaction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction: %w", err)
	}
	return txn, nil
}

// GetTransactionByRemoteID returns a transaction by its remote document id,
// or nil if no local record carries it.
func (s *SQLiteStorage) GetTransactionByRemoteID(ctx context.Context, remoteID string) (*model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(remoteID, "remoteID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE remote_id = ?`, remoteID)
	txn, err := scanTransaction(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get transaction by remote id: %w", err)
	}
	return txn, nil
}

// ListTransactions returns transactions matching the filter, newest first.
func (s *SQLiteStorage) ListTransactions(ctx context.Context, filter service.TransactionFilter) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	var (
		conds []string
		args  []any
	)
	if filter.StartDate != nil {
		conds = append(conds, "date >= ?")
		args = append(args, *filter.StartDate)
	}
	if filter.EndDate != nil {
		conds = append(conds, "date <= ?")
		args = append(args, *filter.EndDate)
	}
	if filter.Category != "" {
		conds = append(conds, "category = ?")
		args = append(args, string(filter.Category))
	}

	query := `SELECT ` + transactionColumns + ` FROM transactions`
	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}
	query += " ORDER BY date DESC, id DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
		if filter.Offset > 0 {
			query += fmt.Sprintf(" OFFSET %d", filter.Offset)
		}
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", scanErr)
		}
		out = append(out, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return out, nil
}

// ListUnsyncedTransactions returns transactions not yet mirrored remotely.
func (s *SQLiteStorage) ListUnsyncedTransactions(ctx context.Context) ([]model.Transaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE synced = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced transactions: %w", err)
	}
	defer rows.Close()

	var out []model.Transaction
	for rows.Next() {
		txn, scanErr := scanTransaction(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", scanErr)
		}
		out = append(out, *txn)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating transactions: %w", err)
	}
	return out, nil
}

// UpdateTransaction replaces all mutable fields of an existing transaction.
func (s *SQLiteStorage) UpdateTransaction(ctx context.Context, txn *model.Transaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateTransaction(txn); err != nil {
		return err
	}
	if err := validateID(txn.ID, "txn.ID"); err != nil {
		return err
	}

	full, short, lat, lon := locationArgs(txn.Location)
	_, err := s.db.ExecContext(ctx, `
		UPDATE transactions SET
			remote_id = ?, amount = ?, direction = ?, category = ?, note = ?, date = ?,
			photo_ref = ?, location_full = ?, location_short = ?, latitude = ?, longitude = ?, synced = ?
		WHERE id = ?`,
		txn.RemoteID, txn.Amount, string(txn.Direction), string(txn.Category),
		txn.Note, txn.Date, txn.PhotoRef, full, short, lat, lon, txn.Synced, txn.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update transaction: %w", err)
	}
	return nil
}

// UpdateTransactionPhoto patches only the photo reference; used by the async
// photo download path so it cannot clobber concurrent field merges.
func (s *SQLiteStorage) UpdateTransactionPhoto(ctx context.Context, id int64, photoRef string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET photo_ref = ? WHERE id = ?`, photoRef, id)
	if err != nil {
		return fmt.Errorf("failed to update transaction photo: %w", err)
	}
	return nil
}

// MarkTransactionSynced records the remote document id and sets the synced flag.
func (s *SQLiteStorage) MarkTransactionSynced(ctx context.Context, id int64, remoteID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}
	if err := validateString(remoteID, "remoteID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE transactions SET remote_id = ?, synced = 1 WHERE id = ?`, remoteID, id)
	if err != nil {
		return fmt.Errorf("failed to mark transaction synced: %w", err)
	}
	return nil
}

// DeleteTransaction removes a transaction by local id. Absent records are a no-op.
func (s *SQLiteStorage) DeleteTransaction(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete transaction: %w", err)
	}
	return nil
}

// DeleteTransactionByRemoteID removes the transaction mirroring a remote
// document. Absent records are a no-op.
func (s *SQLiteStorage) DeleteTransactionByRemoteID(ctx context.Context, remoteID string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateString(remoteID, "remoteID"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM transactions WHERE remote_id = ?`, remoteID)
	if err != nil {
		return fmt.Errorf("failed to delete transaction by remote id: %w", err)
	}
	return nil
}

// SumExpensesByCategory totals expense amounts per category over [start, end].
func (s *SQLiteStorage) SumExpensesByCategory(ctx context.Context, start, end time.Time) (map[model.Category]float64, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT category, SUM(amount)
		FROM transactions
		WHERE direction = ? AND date >= ? AND date <= ?
		GROUP BY category`,
		string(model.DirectionExpense), start, end)
	if err != nil {
		return nil, fmt.Errorf("failed to sum expenses: %w", err)
	}
	defer rows.Close()

	sums := make(map[model.Category]float64)
	for rows.Next() {
		var (
			category string
			total    float64
		)
		if err := rows.Scan(&category, &total); err != nil {
			return nil, fmt.Errorf("failed to scan expense sum: %w", err)
		}
		sums[model.Category(category)] = total
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating expense sums: %w", err)
	}
	return sums, nil
}
