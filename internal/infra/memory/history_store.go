package memory

import (
	"context"
	"sync"

	"esquematiza/internal/domain"
)

// HistoryStore keeps finalized sessions in process memory.
type HistoryStore struct {
	mu       sync.RWMutex
	entries  []domain.HistoryEntry
	sessions map[string]struct{}
	nextID   int64
}

func NewHistoryStore() *HistoryStore {
	return &HistoryStore{sessions: make(map[string]struct{})}
}

func (s *HistoryStore) Append(_ context.Context, entry domain.HistoryEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.sessions[entry.SessionID]; ok {
		return domain.ErrDuplicateSession
	}
	s.nextID++
	entry.ID = s.nextID
	s.sessions[entry.SessionID] = struct{}{}
	s.entries = append(s.entries, entry)
	return nil
}

func (s *HistoryStore) ListFor(_ context.Context, userID string) ([]domain.HistoryEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.HistoryEntry, 0)
	for i := len(s.entries) - 1; i >= 0; i-- {
		if s.entries[i].UserID == userID {
			out = append(out, s.entries[i])
		}
	}
	return out, nil
}
