package reminder

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/centsible/centsible/internal/photos"
)

// Confirm records that a scheduled transaction actually happened: a real
// transaction is created from its financial fields with the current time,
// then the scheduled record is retired. The local insert is never rolled
// back; remote failures leave the new transaction unsynced for the next
// reconciliation. Confirming an id that no longer exists is a no-op.
func (e *Engine) Confirm(ctx context.Context, id int64) error {
	sched, err := e.store.GetScheduledTransaction(ctx, id)
	if err != nil {
		return err
	}
	if sched == nil {
		slog.Debug("confirm on absent scheduled transaction", "id", id)
		return nil
	}

	promoted := sched.ToTransaction(e.now())
	txn := &promoted

	if sched.PhotoRef != "" && e.photos != nil {
		moved, moveErr := e.photos.Move(ctx, sched.PhotoRef, photos.AreaTransactions)
		if moveErr != nil {
			slog.Warn("photo move failed, keeping original reference", "id", id, "error", moveErr)
		} else {
			txn.PhotoRef = moved
		}
	}

	if err := e.store.SaveTransaction(ctx, txn); err != nil {
		return fmt.Errorf("failed to record confirmed transaction: %w", err)
	}

	if err := e.syncer.PushTransaction(ctx, txn); err != nil {
		slog.Warn("confirmed transaction push failed, will retry next sync", "id", txn.ID, "error", err)
	}

	if err := e.store.DeleteScheduledTransaction(ctx, id); err != nil {
		return err
	}
	if sched.RemoteID != "" {
		if err := e.syncer.DeleteRemoteScheduled(ctx, sched.RemoteID); err != nil {
			slog.Warn("remote scheduled delete failed", "id", id, "error", err)
		}
	}

	e.scheduler.CancelScheduled(id)
	slog.Info("scheduled transaction confirmed", "id", id, "transaction_id", txn.ID)
	return nil
}

// Cancel discards a scheduled transaction that will not happen. Records never
// pushed remotely, and ids that no longer exist, are left alone.
func (e *Engine) Cancel(ctx context.Context, id int64) error {
	sched, err := e.store.GetScheduledTransaction(ctx, id)
	if err != nil {
		return err
	}
	if sched == nil || sched.RemoteID == "" {
		slog.Debug("cancel is a no-op", "id", id)
		return nil
	}

	if err := e.syncer.DeleteRemoteScheduled(ctx, sched.RemoteID); err != nil {
		return err
	}
	if err := e.store.DeleteScheduledTransaction(ctx, id); err != nil {
		return err
	}

	e.scheduler.CancelScheduled(id)
	slog.Info("scheduled transaction cancelled", "id", id)
	return nil
}
