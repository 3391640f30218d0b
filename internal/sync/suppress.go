package sync

import (
	"sync"
	"time"
)

// defaultSuppressTTL bounds how long a reserved id stays in the set if the
// echo never arrives, e.g. because the write failed after the reservation.
const defaultSuppressTTL = 5 * time.Second

// suppressionSet holds remote document ids whose next listener echo must be
// ignored because this process originated the write. Ids are reserved
// strictly before the remote write is issued, so the echo can never race
// ahead of the reservation.
type suppressionSet struct {
	ids map[string]*time.Timer
	ttl time.Duration
	mu  sync.Mutex
}

func newSuppressionSet(ttl time.Duration) *suppressionSet {
	if ttl <= 0 {
		ttl = defaultSuppressTTL
	}
	return &suppressionSet{
		ids: make(map[string]*time.Timer),
		ttl: ttl,
	}
}

// Reserve marks the id as self-originated. The reservation expires on its
// own if never consumed.
func (s *suppressionSet) Reserve(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if prev, ok := s.ids[id]; ok {
		prev.Stop()
	}
	s.ids[id] = time.AfterFunc(s.ttl, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.ids, id)
	})
}

// Consume reports whether the id was reserved, removing the reservation.
func (s *suppressionSet) Consume(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	timer, ok := s.ids[id]
	if !ok {
		return false
	}
	timer.Stop()
	delete(s.ids, id)
	return true
}

// Release drops a reservation without consuming it, used when the write the
// reservation covered failed and no echo is coming.
func (s *suppressionSet) Release(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if timer, ok := s.ids[id]; ok {
		timer.Stop()
		delete(s.ids, id)
	}
}
