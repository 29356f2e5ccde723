package memory

import (
	"context"
	"math/rand"
	"sync"
	"time"

	"esquematiza/internal/domain"
	"golang.org/x/sync/singleflight"
)

// QuestionSource is the backing bank the cache wraps.
type QuestionSource interface {
	ListSubjects(ctx context.Context) ([]domain.SubjectCount, error)
	Sample(ctx context.Context, subjects []string, n int) ([]domain.Question, error)
}

const subjectsKey = "subjects"

// SubjectCache caches the subject listing with TTL to avoid repeated bank scans.
// Sampling is always delegated to the source.
type SubjectCache struct {
	source QuestionSource
	ttl    time.Duration
	clock  func() time.Time
	sf     singleflight.Group
	rnd    *rand.Rand

	mu        sync.RWMutex
	subjects  []domain.SubjectCount
	expiresAt time.Time
}

func NewSubjectCache(source QuestionSource, ttl time.Duration) *SubjectCache {
	return &SubjectCache{
		source: source,
		ttl:    ttl,
		clock:  time.Now,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *SubjectCache) ListSubjects(ctx context.Context) ([]domain.SubjectCount, error) {
	if subjects, ok := c.cached(c.clock()); ok {
		return subjects, nil
	}

	result, err, _ := c.sf.Do(subjectsKey, func() (interface{}, error) {
		now := c.clock()
		if subjects, ok := c.cached(now); ok {
			return subjects, nil
		}

		subjects, err := c.source.ListSubjects(ctx)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.subjects = subjects
		c.expiresAt = now.Add(c.ttlWithJitter())
		c.mu.Unlock()
		return subjects, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.SubjectCount), nil
}

func (c *SubjectCache) Sample(ctx context.Context, subjects []string, n int) ([]domain.Question, error) {
	return c.source.Sample(ctx, subjects, n)
}

func (c *SubjectCache) cached(now time.Time) ([]domain.SubjectCount, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.subjects != nil && c.expiresAt.After(now) {
		return c.subjects, true
	}
	return nil, false
}

func (c *SubjectCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	// add up to 10% jitter to spread expirations
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}

// Ping checks the source when it supports health checks.
func (c *SubjectCache) Ping(ctx context.Context) error {
	if p, ok := c.source.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}
