package storage

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/centsible/centsible/internal/model"
)

const scheduledColumns = `id, remote_id, amount, direction, category, note, target_date,
	confirmed, reminder_sent, expiration_notified,
	photo_ref, location_full, location_short, latitude, longitude, synced`

func scanScheduled(scan func(dest ...any) error) (*model.ScheduledTransaction, error) {
	var (
		sched       model.ScheduledTransaction
		direction   string
		category    string
		full, short sql.NullString
		lat, lon    sql.NullFloat64
	)
	err := scan(
		&sched.ID, &sched.RemoteID, &sched.Amount, &direction, &category, &sched.Note,
		&sched.TargetDate, &sched.Confirmed, &sched.ReminderSent, &sched.ExpirationNotified,
		&sched.PhotoRef, &full, &short, &lat, &lon, &sched.Synced,
	)
	if err != nil {
		return nil, err
	}
	sched.Direction = model.Direction(direction)
	sched.Category = model.Category(category)
	sched.Location = scanLocation(full, short, lat, lon)
	return &sched, nil
}

// SaveScheduledTransaction inserts a new scheduled transaction and assigns
// its local id.
func (s *SQLiteStorage) SaveScheduledTransaction(ctx context.Context, sched *model.ScheduledTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateScheduled(sched); err != nil {
		return err
	}

	full, short, lat, lon := locationArgs(sched.Location)
	res, err := s.db.ExecContext(ctx, `
		INSERT INTO scheduled_transactions (
			remote_id, amount, direction, category, note, target_date,
			confirmed, reminder_sent, expiration_notified,
			photo_ref, location_full, location_short, latitude, longitude, synced
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sched.RemoteID, sched.Amount, string(sched.Direction), string(sched.Category),
		sched.Note, sched.TargetDate, sched.Confirmed, sched.ReminderSent,
		sched.ExpirationNotified, sched.PhotoRef, full, short, lat, lon, sched.Synced,
	)
	if err != nil {
		return fmt.Errorf("failed to insert scheduled transaction: %w", err)
	}

	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("failed to get scheduled transaction id: %w", err)
	}
	sched.ID = id

	slog.Debug("saved scheduled transaction", "id", id, "target_date", sched.TargetDate)
	return nil
}

// GetScheduledTransaction returns a scheduled transaction by local id, or nil
// if absent.
func (s *SQLiteStorage) GetScheduledTransaction(ctx context.Context, id int64) (*model.ScheduledTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateID(id, "id"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+scheduledColumns+` FROM scheduled_transactions WHERE id = ?`, id)
	sched, err := scanScheduled(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled transaction: %w", err)
	}
	return sched, nil
}

// GetScheduledTransactionByRemoteID returns a scheduled transaction by its
// remote document id, or nil if no local record carries it.
func (s *SQLiteStorage) GetScheduledTransactionByRemoteID(ctx context.Context, remoteID string) (*model.ScheduledTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(remoteID, "remoteID"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx,
		`SELECT `+scheduledColumns+` FROM scheduled_transactions WHERE remote_id = ?`, remoteID)
	sched, err := scanScheduled(row.Scan)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get scheduled transaction by remote id: %w", err)
	}
	return sched, nil
}

// ListScheduledTransactions returns every scheduled transaction ordered by
// target date; the reminder engine scans this on each pass.
func (s *SQLiteStorage) ListScheduledTransactions(ctx context.Context) ([]model.ScheduledTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scheduledColumns+` FROM scheduled_transactions ORDER BY target_date, id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query scheduled transactions: %w", err)
	}
	defer rows.Close()

	var out []model.ScheduledTransaction
	for rows.Next() {
		sched, scanErr := scanScheduled(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan scheduled transaction: %w", scanErr)
		}
		out = append(out, *sched)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled transactions: %w", err)
	}
	return out, nil
}

// ListUnsyncedScheduledTransactions returns scheduled transactions not yet
// mirrored remotely.
func (s *SQLiteStorage) ListUnsyncedScheduledTransactions(ctx context.Context) ([]model.ScheduledTransaction, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT `+scheduledColumns+` FROM scheduled_transactions WHERE synced = 0 ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("failed to query unsynced scheduled transactions: %w", err)
	}
	defer rows.Close()

	var out []model.ScheduledTransaction
	for rows.Next() {
		sched, scanErr := scanScheduled(rows.Scan)
		if scanErr != nil {
			return nil, fmt.Errorf("failed to scan scheduled transaction: %w", scanErr)
		}
		out = append(out, *sched)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating scheduled transactions: %w", err)
	}
	return out, nil
}

// UpdateScheduledTransaction replaces all mutable fields of an existing
// scheduled transaction.
func (s *SQLiteStorage) UpdateScheduledTransaction(ctx context.Context, sched *model.ScheduledTransaction) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateScheduled(sched); err != nil {
		return err
	}
	if err := validateID(sched.ID, "sched.ID"); err != nil {
		return err
	}

	full, short, lat, lon := locationArgs(sched.Location)
	_, err := s.db.ExecContext(ctx, `
		UPDATE scheduled_transactions SET
			remote_id = ?, amount = ?, direction = ?, category = ?, note = ?, target_date = ?,
			confirmed = ?, reminder_sent = ?, expiration_notified = ?,
			photo_ref = ?, location_full = ?, location_short = ?, latitude = ?, longitude = ?, synced = ?
		WHERE id = ?`,
		sched.RemoteID, sched.Amount, string(sched.Direction), string(sched.Category),
		sched.Note, sched.TargetDate, sched.Confirmed, sched.ReminderSent,
		sched.ExpirationNotified, sched.PhotoRef, full, short, lat, lon, sched.Synced, sched.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update scheduled transaction: %w", err)
	}
	return nil
}

// UpdateScheduledPhoto patches only the photo reference.
func (s *SQLiteStorage) UpdateScheduledPhoto(ctx context.Context, id int64, photoRef string) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_transactions SET photo_ref = ? WHERE id = ?`, photoRef, id)
	if err != nil {
		return fmt.Errorf("failed to update scheduled photo: %w", err)
	}
	return nil
}

// SetReminderSent marks the reminder notification as delivered. The flag only
// ever moves from false to true; deletion is the only way back.
func (s *SQLiteStorage) SetReminderSent(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_transactions SET reminder_sent = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to set reminder sent: %w", err)
	}
	return nil
}

// SetExpirationNotified marks the expiration notice as delivered.
func (s *SQLiteStorage) SetExpirationNotified(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`UPDATE scheduled_transactions SET expiration_notified = 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to set expiration notified: %w", err)
	}
	return nil
}

// MarkScheduledSynced records the remote document id and sets the synced flag.
func (s *SQLiteStorage) MarkScheduledSynced(ctx context.Context, id int64, remoteID string) error {
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
		`UPDATE scheduled_transactions SET remote_id = ?, synced = 1 WHERE id = ?`, remoteID, id)
	if err != nil {
		return fmt.Errorf("failed to mark scheduled transaction synced: %w", err)
	}
	return nil
}

// DeleteScheduledTransaction removes a scheduled transaction by local id.
// Absent records are a no-op.
func (s *SQLiteStorage) DeleteScheduledTransaction(ctx context.Context, id int64) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if err := validateID(id, "id"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `DELETE FROM scheduled_transactions WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete scheduled transaction: %w", err)
	}
	return nil
}

// DeleteScheduledByRemoteID removes the scheduled transaction mirroring a
// remote document and returns its local id so callers can cancel tagged
// background work, or 0 if no record matched.
func (s *SQLiteStorage) DeleteScheduledByRemoteID(ctx context.Context, remoteID string) (int64, error) {
	if err := validateContext(ctx); err != nil {
		return 0, err
	}
	if err := validateString(remoteID, "remoteID"); err != nil {
		return 0, err
	}

	var id int64
	err := s.db.QueryRowContext(ctx,
		`SELECT id FROM scheduled_transactions WHERE remote_id = ?`, remoteID).Scan(&id)
	if err == sql.ErrNoRows {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("failed to find scheduled transaction by remote id: %w", err)
	}

	if _, err := s.db.ExecContext(ctx,
		`DELETE FROM scheduled_transactions WHERE id = ?`, id); err != nil {
		return 0, fmt.Errorf("failed to delete scheduled transaction: %w", err)
	}
	return id, nil
}
