package sqlite

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"esquematiza/internal/domain"
)

// HistoryStore adapts Store to app.HistoryRepository.
type HistoryStore struct {
	*Store
}

func (s *Store) History() *HistoryStore {
	return &HistoryStore{Store: s}
}

func (h *HistoryStore) Append(ctx context.Context, entry domain.HistoryEntry) error {
	answers, err := json.Marshal(entry.Answers)
	if err != nil {
		return fmt.Errorf("encode answers: %w", err)
	}
	report, err := json.Marshal(entry.Report)
	if err != nil {
		return fmt.Errorf("encode report: %w", err)
	}
	_, err = h.db.ExecContext(ctx,
		`INSERT INTO history (user_id, session_id, answers, report, end_timestamp) VALUES (?, ?, ?, ?, ?)`,
		entry.UserID, entry.SessionID, string(answers), string(report), entry.EndedAt.UTC().Format(time.RFC3339Nano),
	)
	if isUniqueViolation(err) {
		return domain.ErrDuplicateSession
	}
	if err != nil {
		return fmt.Errorf("append history: %w", err)
	}
	return nil
}

func (h *HistoryStore) ListFor(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	rows, err := h.db.QueryContext(ctx,
		`SELECT id, user_id, session_id, answers, report, end_timestamp FROM history
		 WHERE user_id = ? ORDER BY id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	defer rows.Close()

	entries := make([]domain.HistoryEntry, 0)
	for rows.Next() {
		var (
			e               domain.HistoryEntry
			answers, report string
			ended           string
		)
		if err := rows.Scan(&e.ID, &e.UserID, &e.SessionID, &answers, &report, &ended); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(answers), &e.Answers); err != nil {
			return nil, fmt.Errorf("history %d: decode answers: %w", e.ID, err)
		}
		if err := json.Unmarshal([]byte(report), &e.Report); err != nil {
			return nil, fmt.Errorf("history %d: decode report: %w", e.ID, err)
		}
		if e.EndedAt, err = time.Parse(time.RFC3339Nano, ended); err != nil {
			return nil, fmt.Errorf("history %d: parse end timestamp: %w", e.ID, err)
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
