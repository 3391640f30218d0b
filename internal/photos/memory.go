package photos

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// MemoryStore is an in-memory Store used in tests and offline mode.
type MemoryStore struct {
	objects map[string][]byte
	mu      sync.Mutex
}

// NewMemoryStore creates an empty in-memory photo store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{objects: make(map[string][]byte)}
}

// Upload stores the photo and returns its reference.
func (s *MemoryStore) Upload(_ context.Context, area Area, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("failed to read photo: %w", err)
	}

	ref := Ref(area, name)
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[ref] = data
	return ref, nil
}

// Download returns the photo bytes for a reference.
func (s *MemoryStore) Download(_ context.Context, ref string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, ok := s.objects[ref]
	if !ok {
		return nil, fmt.Errorf("photo %s does not exist", ref)
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Move relocates the photo to another area.
func (s *MemoryStore) Move(_ context.Context, ref string, area Area) (string, error) {
	dst := Rehome(ref, area)
	if dst == ref {
		return ref, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[ref]
	if !ok {
		return "", fmt.Errorf("photo %s does not exist", ref)
	}
	s.objects[dst] = data
	delete(s.objects, ref)
	return dst, nil
}

// Delete removes the photo. An absent reference is a no-op.
func (s *MemoryStore) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.objects, ref)
	return nil
}

// Close is a no-op.
func (s *MemoryStore) Close() error { return nil }

// Has reports whether a reference exists, for tests.
func (s *MemoryStore) Has(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.objects[ref]
	return ok
}

var _ Store = (*MemoryStore)(nil)
