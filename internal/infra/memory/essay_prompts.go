package memory

import (
	"context"

	"esquematiza/internal/domain"
)

// PromptStore serves a fixed list of essay prompts.
type PromptStore struct {
	prompts []domain.EssayPrompt
}

func NewPromptStore(prompts []domain.EssayPrompt) *PromptStore {
	return &PromptStore{prompts: prompts}
}

func (s *PromptStore) ListPrompts(_ context.Context) ([]domain.EssayPrompt, error) {
	out := make([]domain.EssayPrompt, len(s.prompts))
	copy(out, s.prompts)
	return out, nil
}

func (s *PromptStore) GetPrompt(_ context.Context, id int64) (domain.EssayPrompt, error) {
	for _, p := range s.prompts {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.EssayPrompt{}, domain.ErrUnknownPrompt
}
