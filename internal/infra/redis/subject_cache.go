package redis

import (
	"context"
	"math/rand"
	"strconv"
	"strings"
	"time"

	"esquematiza/internal/domain"
	"esquematiza/internal/infra/memory"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// SubjectCache caches the subject listing in Redis so every instance shares one copy,
// and falls back to the bank on a miss.
// Counts are stored as: HSET {prefix}:subjects:counts {subject}\x00{discipline} {count}
type SubjectCache struct {
	client *redis.Client
	source memory.QuestionSource
	prefix string
	ttl    time.Duration
	sf     singleflight.Group
	rnd    *rand.Rand
}

func NewSubjectCache(client *redis.Client, source memory.QuestionSource, prefix string, ttl time.Duration) *SubjectCache {
	return &SubjectCache{
		client: client,
		source: source,
		prefix: prefix,
		ttl:    ttl,
		rnd:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func (c *SubjectCache) ListSubjects(ctx context.Context) ([]domain.SubjectCount, error) {
	if subjects, ok := c.cached(ctx); ok {
		return subjects, nil
	}

	result, err, _ := c.sf.Do(c.countsKey(), func() (interface{}, error) {
		// Re-check cache in case another goroutine filled it.
		if subjects, ok := c.cached(ctx); ok {
			return subjects, nil
		}

		subjects, err := c.source.ListSubjects(ctx)
		if err != nil {
			return nil, err
		}
		if len(subjects) == 0 || c.ttl <= 0 {
			return subjects, nil
		}

		ttl := c.ttlWithJitter()
		pipe := c.client.TxPipeline()
		pipe.Del(ctx, c.countsKey())
		for _, s := range subjects {
			pipe.HSet(ctx, c.countsKey(), countField(s.Subject, s.Discipline), s.Count)
		}
		pipe.Expire(ctx, c.countsKey(), ttl)
		_, _ = pipe.Exec(ctx)

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

// Ping checks both Redis and the source bank.
func (c *SubjectCache) Ping(ctx context.Context) error {
	if err := c.client.Ping(ctx).Err(); err != nil {
		return err
	}
	if p, ok := c.source.(interface{ Ping(context.Context) error }); ok {
		return p.Ping(ctx)
	}
	return nil
}

func (c *SubjectCache) cached(ctx context.Context) ([]domain.SubjectCount, bool) {
	counts, err := c.client.HGetAll(ctx, c.countsKey()).Result()
	if err != nil || len(counts) == 0 {
		return nil, false
	}
	return buildSubjectsFromCache(counts), true
}

func (c *SubjectCache) countsKey() string {
	return c.prefix + ":subjects:counts"
}

func countField(subject, discipline string) string {
	return subject + "\x00" + discipline
}

func buildSubjectsFromCache(counts map[string]string) []domain.SubjectCount {
	subjects := make([]domain.SubjectCount, 0, len(counts))
	for field, countStr := range counts {
		count, err := strconv.Atoi(countStr)
		if err != nil {
			continue
		}
		subject, discipline, _ := strings.Cut(field, "\x00")
		subjects = append(subjects, domain.SubjectCount{
			Subject:    subject,
			Discipline: discipline,
			Count:      count,
		})
	}
	memory.SortSubjects(subjects)
	return subjects
}

func (c *SubjectCache) ttlWithJitter() time.Duration {
	if c.ttl <= 0 {
		return 0
	}
	jitterMax := int64(c.ttl) / 10
	return c.ttl + time.Duration(c.rnd.Int63n(jitterMax+1))
}
