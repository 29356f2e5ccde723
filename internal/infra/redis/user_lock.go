package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	defaultLockTTL   = 10 * time.Second
	defaultLockRetry = 5 * time.Millisecond
	maxLockRetry     = 100 * time.Millisecond
)

// ErrLockTimeout is returned when the per-user lock could not be taken before the context ended.
var ErrLockTimeout = errors.New("user lock not acquired")

// releaseScript deletes the lock only while it still carries our token.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// UserLocker is a per-user mutex shared by every instance pointed at the same Redis.
// Lock:   SET {prefix}:lock:{user} {token} NX PX {ttl}
// Unlock: compare-and-delete on {token}
// The ttl bounds how long a crashed holder can block the user.
type UserLocker struct {
	client *redis.Client
	prefix string
	ttl    time.Duration
}

// NewUserLocker builds a locker; a non-positive ttl uses ten seconds.
func NewUserLocker(client *redis.Client, prefix string, ttl time.Duration) *UserLocker {
	if ttl <= 0 {
		ttl = defaultLockTTL
	}
	return &UserLocker{client: client, prefix: prefix, ttl: ttl}
}

// Lock polls with a growing backoff until the key is free or ctx is done.
func (l *UserLocker) Lock(ctx context.Context, userID string) (func(), error) {
	key := l.key(userID)
	token := uuid.NewString()
	wait := defaultLockRetry

	for {
		ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
		if err != nil {
			return nil, fmt.Errorf("redis lock: %w", err)
		}
		if ok {
			return func() {
				// The caller's context may already be cancelled; release regardless.
				ctx, cancel := context.WithTimeout(context.Background(), time.Second)
				defer cancel()
				_ = releaseScript.Run(ctx, l.client, []string{key}, token).Err()
			}, nil
		}

		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return nil, fmt.Errorf("%w: %v", ErrLockTimeout, ctx.Err())
		case <-timer.C:
		}
		if wait *= 2; wait > maxLockRetry {
			wait = maxLockRetry
		}
	}
}

func (l *UserLocker) key(userID string) string {
	return l.prefix + ":lock:" + userID
}
