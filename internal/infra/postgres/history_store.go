package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"esquematiza/internal/domain"
	"github.com/jackc/pgconn"
	"github.com/jackc/pgx/v4/pgxpool"
)

const uniqueViolation = "23505"

// HistoryStore persists finalized sessions; answers and report are JSONB.
type HistoryStore struct {
	pool *pgxpool.Pool
}

func NewHistoryStore(pool *pgxpool.Pool) *HistoryStore {
	return &HistoryStore{pool: pool}
}

func (s *HistoryStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	answers, err := json.Marshal(entry.Answers)
	if err != nil {
		return fmt.Errorf("marshal answers: %w", err)
	}
	report, err := json.Marshal(entry.Report)
	if err != nil {
		return fmt.Errorf("marshal report: %w", err)
	}
	_, err = s.pool.Exec(ctx,
		`INSERT INTO history (user_id, session_id, answers, report, end_timestamp)
		 VALUES ($1, $2, $3::jsonb, $4::jsonb, $5)`,
		entry.UserID, entry.SessionID, string(answers), string(report), entry.EndedAt,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return domain.ErrDuplicateSession
	}
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (s *HistoryStore) ListFor(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, session_id, answers, report, end_timestamp
		 FROM history WHERE user_id = $1 ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var (
			e               domain.HistoryEntry
			answers, report []byte
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.SessionID, &answers, &report, &e.EndedAt); err != nil {
			return nil, fmt.Errorf("scan history: %w", err)
		}
		if err := json.Unmarshal(answers, &e.Answers); err != nil {
			return nil, fmt.Errorf("history %d: unmarshal answers: %w", e.ID, err)
		}
		if err := json.Unmarshal(report, &e.Report); err != nil {
			return nil, fmt.Errorf("history %d: unmarshal report: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
