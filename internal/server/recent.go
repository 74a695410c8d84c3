package server

import (
	"sync"

	"github.com/safqa-app/safqagate/internal/model"
)

// RecentRequestsStore keeps the last N emitted request records for the
// inspection endpoint. Records arrive already sanitized.
type RecentRequestsStore struct {
	mu   sync.RWMutex
	ring []*model.LogRecord
	next int
	full bool
}

func newRecentRequestsStore(capacity int) *RecentRequestsStore {
	if capacity < 1 {
		capacity = 1
	}
	return &RecentRequestsStore{ring: make([]*model.LogRecord, capacity)}
}

// Add appends one record, evicting the oldest when full.
func (s *RecentRequestsStore) Add(rec *model.LogRecord) {
	if rec == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ring[s.next] = rec
	s.next = (s.next + 1) % len(s.ring)
	if s.next == 0 {
		s.full = true
	}
}

// Recent returns the stored records, newest first.
func (s *RecentRequestsStore) Recent() []*model.LogRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()

	size := s.next
	if s.full {
		size = len(s.ring)
	}
	out := make([]*model.LogRecord, 0, size)
	for i := 1; i <= size; i++ {
		idx := (s.next - i + len(s.ring)) % len(s.ring)
		out = append(out, s.ring[idx])
	}
	return out
}
