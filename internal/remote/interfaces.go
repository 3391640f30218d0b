// Package remote provides access to the per-user remote document store that
// mirrors the local record kinds.
package remote

import "context"

// Collection identifies one of the per-user document collections.
type Collection string

const (
	// CollectionTransactions mirrors committed transactions.
	CollectionTransactions Collection = "transactions"
	// CollectionScheduled mirrors scheduled transactions.
	CollectionScheduled Collection = "scheduled_transactions"
	// CollectionBudgets mirrors budget rules.
	CollectionBudgets Collection = "budget_rules"
)

// Collections lists every mirrored collection.
func Collections() []Collection {
	return []Collection{CollectionTransactions, CollectionScheduled, CollectionBudgets}
}

// Document is a remote document: a server-side identifier plus its fields.
type Document struct {
	Fields map[string]any
	ID     string
}

// ChangeKind classifies an incremental remote change.
type ChangeKind int

const (
	// ChangeAdded indicates a document new to the collection.
	ChangeAdded ChangeKind = iota
	// ChangeModified indicates an existing document's fields changed.
	ChangeModified
	// ChangeRemoved indicates a document was deleted.
	ChangeRemoved
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeAdded:
		return "added"
	case ChangeModified:
		return "modified"
	case ChangeRemoved:
		return "removed"
	}
	return "unknown"
}

// Change is one incremental remote change delivered by a listener.
type Change struct {
	Doc  Document
	Kind ChangeKind
}

// Store defines the contract for the remote document store. All operations
// are scoped to the signed-in user.
//
// Identifiers are generated client-side by NewID before the write is issued,
// which lets callers reserve the id in the echo-suppression set strictly
// before the document can appear on a listener.
type Store interface {
	// NewID returns a fresh document identifier for the collection.
	NewID(col Collection) string
	// List returns every document in the user's collection.
	List(ctx context.Context, col Collection) ([]Document, error)
	// Put writes fields into the document with merge semantics: fields not
	// named are preserved, never nulled.
	Put(ctx context.Context, col Collection, id string, fields map[string]any) error
	// Delete removes the document. Deleting an absent document is a no-op.
	Delete(ctx context.Context, col Collection, id string) error
	// Listen streams incremental changes for the user's collection until the
	// context is cancelled. The returned channel is closed when the stream
	// ends.
	Listen(ctx context.Context, col Collection) (<-chan Change, error)
	// Close releases any underlying connections.
	Close() error
}
