package remote

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// listener wraps a change channel so a concurrent Put can never send on a
// channel that teardown already closed.
type listener struct {
	ch     chan Change
	mu     sync.Mutex
	closed bool
}

func (l *listener) send(change Change) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.closed {
		l.ch <- change
	}
}

func (l *listener) close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.closed = true
	close(l.ch)
}

// MemoryStore is an in-memory implementation of Store. It is used in tests
// and by the offline CLI mode. Like the real backend, it echoes every write
// back to attached listeners, including writes made through this same
// instance, so the sync layer's echo suppression gets exercised.
type MemoryStore struct {
	collections map[Collection]map[string]map[string]any
	listeners   map[Collection][]*listener
	mu          sync.Mutex
	closed      bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		collections: make(map[Collection]map[string]map[string]any),
		listeners:   make(map[Collection][]*listener),
	}
}

// NewID returns a fresh document identifier.
func (s *MemoryStore) NewID(_ Collection) string {
	return uuid.New().String()
}

func (s *MemoryStore) docs(col Collection) map[string]map[string]any {
	if s.collections[col] == nil {
		s.collections[col] = make(map[string]map[string]any)
	}
	return s.collections[col]
}

// List returns every document in the collection.
func (s *MemoryStore) List(_ context.Context, col Collection) ([]Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, fmt.Errorf("store is closed")
	}

	var out []Document
	for id, fields := range s.docs(col) {
		out = append(out, Document{ID: id, Fields: copyFields(fields)})
	}
	return out, nil
}

// Put merges fields into the document, creating it if absent, and notifies
// listeners.
func (s *MemoryStore) Put(_ context.Context, col Collection, id string, fields map[string]any) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("store is closed")
	}

	docs := s.docs(col)
	existing, exists := docs[id]
	if !exists {
		existing = make(map[string]any)
		docs[id] = existing
	}
	for k, v := range fields {
		existing[k] = v
	}

	kind := ChangeModified
	if !exists {
		kind = ChangeAdded
	}
	change := Change{Kind: kind, Doc: Document{ID: id, Fields: copyFields(existing)}}
	targets := append([]*listener(nil), s.listeners[col]...)
	s.mu.Unlock()

	for _, l := range targets {
		l.send(change)
	}
	return nil
}

// Delete removes the document if present and notifies listeners.
func (s *MemoryStore) Delete(_ context.Context, col Collection, id string) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return fmt.Errorf("store is closed")
	}

	docs := s.docs(col)
	if _, exists := docs[id]; !exists {
		s.mu.Unlock()
		return nil
	}
	delete(docs, id)

	change := Change{Kind: ChangeRemoved, Doc: Document{ID: id}}
	targets := append([]*listener(nil), s.listeners[col]...)
	s.mu.Unlock()

	for _, l := range targets {
		l.send(change)
	}
	return nil
}

// Listen attaches a listener for the collection. The channel closes when the
// context is cancelled.
func (s *MemoryStore) Listen(ctx context.Context, col Collection) (<-chan Change, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, fmt.Errorf("store is closed")
	}
	l := &listener{ch: make(chan Change, 64)}
	s.listeners[col] = append(s.listeners[col], l)
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		attached := s.listeners[col]
		for i, other := range attached {
			if other == l {
				s.listeners[col] = append(attached[:i], attached[i+1:]...)
				break
			}
		}
		s.mu.Unlock()
		l.close()
	}()

	return l.ch, nil
}

// Close marks the store closed. Attached listeners are shut by their own
// context cancellation.
func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func copyFields(fields map[string]any) map[string]any {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = v
	}
	return out
}

var _ Store = (*MemoryStore)(nil)
