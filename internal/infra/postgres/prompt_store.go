package postgres

import (
	"context"
	"errors"
	"fmt"

	"esquematiza/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// PromptStore serves essay prompts from Postgres.
type PromptStore struct {
	pool *pgxpool.Pool
}

func NewPromptStore(pool *pgxpool.Pool) *PromptStore {
	return &PromptStore{pool: pool}
}

func (s *PromptStore) ListPrompts(ctx context.Context) ([]domain.EssayPrompt, error) {
	rows, err := s.pool.Query(ctx, `SELECT id, title, category, keywords, tips FROM essay_prompts ORDER BY title`)
	if err != nil {
		return nil, fmt.Errorf("list prompts: %w", err)
	}
	defer rows.Close()
	prompts := make([]domain.EssayPrompt, 0)
	for rows.Next() {
		var p domain.EssayPrompt
		if err := rows.Scan(&p.ID, &p.Title, &p.Category, &p.Keywords, &p.Tips); err != nil {
			return nil, fmt.Errorf("scan prompt: %w", err)
		}
		prompts = append(prompts, p)
	}
	return prompts, rows.Err()
}

func (s *PromptStore) GetPrompt(ctx context.Context, id int64) (domain.EssayPrompt, error) {
	var p domain.EssayPrompt
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, category, keywords, tips FROM essay_prompts WHERE id = $1`, id,
	).Scan(&p.ID, &p.Title, &p.Category, &p.Keywords, &p.Tips)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.EssayPrompt{}, domain.ErrUnknownPrompt
	}
	if err != nil {
		return domain.EssayPrompt{}, fmt.Errorf("get prompt: %w", err)
	}
	return p, nil
}
