package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"esquematiza/internal/domain"
	"github.com/redis/go-redis/v9"
)

// SessionStore is the shared implementation of app.SessionRepository.
// Each user's session is one JSON document, so any instance can serve the next request.
// Writes are plain SETs; pair the store with a UserLocker when several instances share it.
type SessionStore struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewSessionStore builds a store; a zero ttl keeps sessions until cleared.
func NewSessionStore(client *redis.Client, prefix string, ttl time.Duration) *SessionStore {
	return &SessionStore{
		client: client,
		prefix: prefix,
		ttl:    ttl,
	}
}

func (s *SessionStore) Put(ctx context.Context, userID string, session domain.Session) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(userID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("redis set session: %w", err)
	}
	return nil
}

func (s *SessionStore) Get(ctx context.Context, userID string) (domain.Session, bool, error) {
	raw, err := s.client.Get(ctx, s.key(userID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.Session{}, false, nil
	}
	if err != nil {
		return domain.Session{}, false, fmt.Errorf("redis get session: %w", err)
	}
	var session domain.Session
	if err := json.Unmarshal(raw, &session); err != nil {
		return domain.Session{}, false, fmt.Errorf("decode session: %w", err)
	}
	return session, true, nil
}

func (s *SessionStore) Clear(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, s.key(userID)).Err(); err != nil {
		return fmt.Errorf("redis clear session: %w", err)
	}
	return nil
}

func (s *SessionStore) key(userID string) string {
	return s.prefix + ":session:" + userID
}
