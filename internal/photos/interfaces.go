// Package photos stores receipt photo blobs in a per-user bucket.
package photos

import (
	"context"
	"fmt"
	"io"
	"path"
)

// Area is the storage area a photo belongs to. Photos move from the
// scheduled area to the transactions area when a scheduled transaction is
// confirmed.
type Area string

const (
	// AreaTransactions holds photos attached to committed transactions.
	AreaTransactions Area = "transactions"
	// AreaScheduled holds photos attached to scheduled transactions.
	AreaScheduled Area = "scheduled_transactions"
)

// Ref builds the object reference for a photo in an area.
func Ref(area Area, name string) string {
	return fmt.Sprintf("photos/%s/%s", area, name)
}

// Rehome returns the reference the photo would have in a different area.
func Rehome(ref string, area Area) string {
	return Ref(area, path.Base(ref))
}

// Store defines the contract for photo blob storage. References are object
// paths within the configured bucket, shared verbatim with other clients via
// the remote photoRef field.
type Store interface {
	// Upload stores the photo and returns its reference.
	Upload(ctx context.Context, area Area, name string, r io.Reader) (string, error)
	// Download returns the photo bytes for a reference.
	Download(ctx context.Context, ref string) ([]byte, error)
	// Move relocates a photo to another area and returns its new reference.
	Move(ctx context.Context, ref string, area Area) (string, error)
	// Delete removes the photo. Deleting an absent reference is a no-op.
	Delete(ctx context.Context, ref string) error
	// Close releases any underlying connections.
	Close() error
}
