package memory

import (
	"context"
	"sync"
	"time"

	"esquematiza/internal/domain"
)

// SessionStore is an in-memory implementation of app.SessionRepository.
// A zero ttl keeps sessions until they are cleared.
type SessionStore struct {
	ttl   time.Duration
	clock func() time.Time

	mu       sync.RWMutex
	sessions map[string]storedSession
}

type storedSession struct {
	session   domain.Session
	expiresAt time.Time
}

func NewSessionStore(ttl time.Duration) *SessionStore {
	return &SessionStore{
		ttl:      ttl,
		clock:    time.Now,
		sessions: make(map[string]storedSession),
	}
}

func (s *SessionStore) Put(_ context.Context, userID string, session domain.Session) error {
	entry := storedSession{session: cloneSession(session)}
	if s.ttl > 0 {
		entry.expiresAt = s.clock().Add(s.ttl)
	}
	s.mu.Lock()
	s.sessions[userID] = entry
	s.mu.Unlock()
	return nil
}

func (s *SessionStore) Get(_ context.Context, userID string) (domain.Session, bool, error) {
	s.mu.RLock()
	entry, ok := s.sessions[userID]
	s.mu.RUnlock()
	if !ok {
		return domain.Session{}, false, nil
	}
	if !entry.expiresAt.IsZero() && !entry.expiresAt.After(s.clock()) {
		s.mu.Lock()
		delete(s.sessions, userID)
		s.mu.Unlock()
		return domain.Session{}, false, nil
	}
	return cloneSession(entry.session), true, nil
}

func (s *SessionStore) Clear(_ context.Context, userID string) error {
	s.mu.Lock()
	delete(s.sessions, userID)
	s.mu.Unlock()
	return nil
}

// cloneSession copies the answers map so callers never mutate stored state.
func cloneSession(session domain.Session) domain.Session {
	answers := make(map[int64]domain.Answer, len(session.Answers))
	for id, a := range session.Answers {
		answers[id] = a
	}
	session.Answers = answers
	return session
}
