package remote

import (
	"context"
	"fmt"
	"log/slog"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
)

// userIDField scopes every query and write to the signed-in user.
const userIDField = "userId"

// FirestoreStore implements Store over a Firestore project. Each collection
// is a top-level Firestore collection; documents carry a userId field and
// every read is filtered by it.
type FirestoreStore struct {
	client *firestore.Client
	userID string
}

// NewFirestoreStore connects to the given project as the given user.
// Credentials come from Application Default Credentials unless overridden by
// client options.
func NewFirestoreStore(ctx context.Context, projectID, userID string, opts ...option.ClientOption) (*FirestoreStore, error) {
	if projectID == "" {
		return nil, fmt.Errorf("project id is required")
	}
	if userID == "" {
		return nil, fmt.Errorf("user id is required")
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	return &FirestoreStore{
		client: client,
		userID: userID,
	}, nil
}

func (s *FirestoreStore) collection(col Collection) *firestore.CollectionRef {
	return s.client.Collection(string(col))
}

// NewID returns a fresh server-style document id without writing anything.
func (s *FirestoreStore) NewID(col Collection) string {
	return s.collection(col).NewDoc().ID
}

// List returns every document in the user's collection.
func (s *FirestoreStore) List(ctx context.Context, col Collection) ([]Document, error) {
	iter := s.collection(col).Where(userIDField, "==", s.userID).Documents(ctx)
	defer iter.Stop()

	var docs []Document
	for {
		snap, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to list %s: %w", col, err)
		}
		docs = append(docs, Document{ID: snap.Ref.ID, Fields: snap.Data()})
	}
	return docs, nil
}

// Put writes fields into the document with merge semantics and stamps the
// user id so listeners on other devices pick it up.
func (s *FirestoreStore) Put(ctx context.Context, col Collection, id string, fields map[string]any) error {
	stamped := make(map[string]any, len(fields)+1)
	for k, v := range fields {
		stamped[k] = v
	}
	stamped[userIDField] = s.userID

	if _, err := s.collection(col).Doc(id).Set(ctx, stamped, firestore.MergeAll); err != nil {
		return fmt.Errorf("failed to write %s/%s: %w", col, id, err)
	}
	return nil
}

// Delete removes the document. Firestore treats deleting an absent document
// as success, matching the Store contract.
func (s *FirestoreStore) Delete(ctx context.Context, col Collection, id string) error {
	if _, err := s.collection(col).Doc(id).Delete(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", col, id, err)
	}
	return nil
}

// Listen streams incremental changes for the user's collection. The watch
// stream only delivers server-acknowledged snapshots, so there is no
// pending-write state to filter out here.
func (s *FirestoreStore) Listen(ctx context.Context, col Collection) (<-chan Change, error) {
	snaps := s.collection(col).Where(userIDField, "==", s.userID).Snapshots(ctx)
	ch := make(chan Change, 16)

	go func() {
		defer close(ch)
		defer snaps.Stop()

		for {
			snap, err := snaps.Next()
			if err != nil {
				if ctx.Err() == nil {
					slog.Error("remote listener stopped", "collection", col, "error", err)
				}
				return
			}
			for _, dc := range snap.Changes {
				change := Change{
					Kind: changeKind(dc.Kind),
					Doc:  Document{ID: dc.Doc.Ref.ID},
				}
				if change.Kind != ChangeRemoved {
					change.Doc.Fields = dc.Doc.Data()
				}
				select {
				case ch <- change:
				case <-ctx.Done():
					return
				}
			}
		}
	}()

	return ch, nil
}

func changeKind(k firestore.DocumentChangeKind) ChangeKind {
	switch k {
	case firestore.DocumentAdded:
		return ChangeAdded
	case firestore.DocumentModified:
		return ChangeModified
	case firestore.DocumentRemoved:
		return ChangeRemoved
	}
	return ChangeModified
}

// Close releases the underlying client.
func (s *FirestoreStore) Close() error {
	return s.client.Close()
}

var _ Store = (*FirestoreStore)(nil)
