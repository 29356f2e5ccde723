package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"esquematiza/internal/domain"
)

func (s *Store) InsertPrompt(ctx context.Context, p domain.EssayPrompt) (int64, error) {
	var id sql.NullInt64
	if p.ID > 0 {
		id = sql.NullInt64{Int64: p.ID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO essay_prompts (id, title, category, keywords, tips) VALUES (?, ?, ?, ?, ?)`,
		id, p.Title, p.Category, p.Keywords, p.Tips,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListPrompts returns every essay prompt ordered by title.
func (s *Store) ListPrompts(ctx context.Context) ([]domain.EssayPrompt, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, title, category, keywords, tips FROM essay_prompts ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()
	prompts := make([]domain.EssayPrompt, 0)
	for rows.Next() {
		var p domain.EssayPrompt
		if err := rows.Scan(&p.ID, &p.Title, &p.Category, &p.Keywords, &p.Tips); err != nil {
			return nil, err
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

func (s *Store) GetPrompt(ctx context.Context, id int64) (domain.EssayPrompt, error) {
	var p domain.EssayPrompt
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, category, keywords, tips FROM essay_prompts WHERE id = ?`, id,
	).Scan(&p.ID, &p.Title, &p.Category, &p.Keywords, &p.Tips)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.EssayPrompt{}, domain.ErrUnknownPrompt
	}
	if err != nil {
		return domain.EssayPrompt{}, fmt.Errorf("get prompt: %w", err)
	}
	return p, nil
}
