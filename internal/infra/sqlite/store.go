package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"esquematiza/internal/domain"
	msqlite "modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store is the local durable backend: question bank, exam history and essay prompts
// share one SQLite file.
type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	dsn := dbPath
	if dbPath != ":memory:" {
		dsn += "?_pragma=busy_timeout(5000)&_pragma=journal_mode(WAL)"
	}
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if dbPath == ":memory:" {
		// every connection would otherwise get its own empty database
		db.SetMaxOpenConns(1)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS questions (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		subject TEXT NOT NULL,
		discipline TEXT NOT NULL DEFAULT '',
		prompt TEXT NOT NULL,
		alternatives TEXT NOT NULL,
		correct_letter TEXT NOT NULL,
		rationale TEXT NOT NULL DEFAULT '',
		difficulty TEXT NOT NULL DEFAULT 'Médio',
		weight INTEGER,
		hint TEXT NOT NULL DEFAULT '',
		formula TEXT NOT NULL DEFAULT ''
	);

	CREATE INDEX IF NOT EXISTS idx_questions_subject ON questions(subject);

	CREATE TABLE IF NOT EXISTS history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		session_id TEXT NOT NULL UNIQUE,
		answers TEXT NOT NULL,
		report TEXT NOT NULL,
		end_timestamp TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_history_user ON history(user_id, id);

	CREATE TABLE IF NOT EXISTS essay_prompts (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		title TEXT NOT NULL,
		category TEXT NOT NULL,
		keywords TEXT NOT NULL DEFAULT '',
		tips TEXT NOT NULL DEFAULT ''
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Seed fills the question and prompt tables when they are empty.
func (s *Store) Seed(ctx context.Context, questions []domain.Question, prompts []domain.EssayPrompt) error {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		for _, q := range questions {
			if _, err := s.InsertQuestion(ctx, q); err != nil {
				return fmt.Errorf("seed question %d: %w", q.ID, err)
			}
		}
	}
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM essay_prompts`).Scan(&count); err != nil {
		return err
	}
	if count == 0 {
		for _, p := range prompts {
			if _, err := s.InsertPrompt(ctx, p); err != nil {
				return fmt.Errorf("seed prompt %q: %w", p.Title, err)
			}
		}
	}
	return nil
}

func isUniqueViolation(err error) bool {
	var se *msqlite.Error
	if !errors.As(err, &se) {
		return false
	}
	switch se.Code() {
	case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
		return true
	case sqlite3.SQLITE_CONSTRAINT:
		// connections without extended result codes only report the primary code
		return strings.Contains(se.Error(), "UNIQUE constraint failed")
	}
	return false
}
