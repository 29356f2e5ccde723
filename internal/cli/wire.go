package cli

import (
	"context"
	"fmt"
	"time"

	"esquematiza/internal/app"
	"esquematiza/internal/config"
	"esquematiza/internal/essay"
	"esquematiza/internal/infra/memory"
	pgstore "esquematiza/internal/infra/postgres"
	redisstore "esquematiza/internal/infra/redis"
	"esquematiza/internal/infra/sqlite"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
)

// bankSource is what the subject cache and health check need from a question bank.
type bankSource interface {
	memory.QuestionSource
	Ping(ctx context.Context) error
}

// backends holds the stores selected by the configuration and their cleanup hooks.
type backends struct {
	bank     bankSource
	subjects app.QuestionBank
	sessions app.SessionRepository
	history  app.HistoryRepository
	prompts  essay.PromptRepository
	// locker is nil for the in-memory session store, which keeps the service's own lock.
	locker app.Locker

	closers []func()
}

func (b *backends) close() {
	for i := len(b.closers) - 1; i >= 0; i-- {
		b.closers[i]()
	}
}

func openBackends(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*backends, error) {
	b := &backends{}
	fail := func(err error) (*backends, error) {
		b.close()
		return nil, err
	}

	var (
		pool *pgxpool.Pool
		lite *sqlite.Store
	)

	switch loc := cfg.Bank.Location; {
	case loc == "":
		log.Info("using built-in demo question bank")
		b.bank = memory.NewQuestionBank(memory.DemoQuestions())
		b.prompts = memory.NewPromptStore(memory.DemoPrompts())
	case config.IsPostgresURL(loc):
		if err := runMigrationsWithURL(ctx, loc, log); err != nil {
			return fail(err)
		}
		p, err := pgxpool.Connect(ctx, loc)
		if err != nil {
			return fail(fmt.Errorf("connect postgres: %w", err))
		}
		pool = p
		b.closers = append(b.closers, p.Close)
		b.bank = pgstore.NewQuestionBank(pool)
		b.prompts = pgstore.NewPromptStore(pool)
	default:
		s, err := sqlite.New(loc)
		if err != nil {
			return fail(fmt.Errorf("open sqlite bank: %w", err))
		}
		lite = s
		b.closers = append(b.closers, func() { _ = s.Close() })
		if err := s.Seed(ctx, nil, memory.DemoPrompts()); err != nil {
			return fail(fmt.Errorf("seed essay prompts: %w", err))
		}
		b.bank = s
		b.prompts = s
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		b.closers = append(b.closers, func() { _ = rdb.Close() })
	}

	cacheTTL := config.TTLDuration(cfg.Subjects.CacheTTL, 10*time.Minute)
	if rdb != nil && cfg.Session.Backend == config.SessionShared {
		b.subjects = redisstore.NewSubjectCache(rdb, b.bank, cfg.Redis.Prefix, cacheTTL)
	} else {
		b.subjects = memory.NewSubjectCache(b.bank, cacheTTL)
	}

	sessionTTL := config.TTLDuration(cfg.Session.TTL, 0)
	switch cfg.Session.Backend {
	case config.SessionShared:
		b.sessions = redisstore.NewSessionStore(rdb, cfg.Redis.Prefix, sessionTTL)
		b.locker = redisstore.NewUserLocker(rdb, cfg.Redis.Prefix, config.TTLDuration(cfg.Session.LockTTL, 0))
	default:
		b.sessions = memory.NewSessionStore(sessionTTL)
	}

	switch cfg.History.Backend {
	case config.HistoryMemory:
		b.history = memory.NewHistoryStore()
	case config.HistoryPostgres:
		if pool == nil || cfg.History.Location != cfg.Bank.Location {
			if err := runMigrationsWithURL(ctx, cfg.History.Location, log); err != nil {
				return fail(err)
			}
			p, err := pgxpool.Connect(ctx, cfg.History.Location)
			if err != nil {
				return fail(fmt.Errorf("connect history postgres: %w", err))
			}
			b.closers = append(b.closers, p.Close)
			pool = p
		}
		b.history = pgstore.NewHistoryStore(pool)
	case config.HistorySQLite:
		if lite == nil || cfg.History.Location != cfg.Bank.Location {
			s, err := sqlite.New(cfg.History.Location)
			if err != nil {
				return fail(fmt.Errorf("open sqlite history: %w", err))
			}
			b.closers = append(b.closers, func() { _ = s.Close() })
			lite = s
		}
		b.history = lite.History()
	default:
		return fail(fmt.Errorf("unknown history backend %q", cfg.History.Backend))
	}

	log.WithFields(logrus.Fields{
		"session_backend": cfg.Session.Backend,
		"history_backend": cfg.History.Backend,
	}).Info("backends ready")
	return b, nil
}
