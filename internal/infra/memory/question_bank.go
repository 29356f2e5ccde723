package memory

import (
	"context"
	"math/rand"
	"sort"

	"esquematiza/internal/domain"
)

// QuestionBank is a static, in-process bank (used for demos and tests).
type QuestionBank struct {
	questions []domain.Question
}

func NewQuestionBank(questions []domain.Question) *QuestionBank {
	return &QuestionBank{questions: questions}
}

// ListSubjects groups by (subject, discipline), like the SQL banks.
func (b *QuestionBank) ListSubjects(_ context.Context) ([]domain.SubjectCount, error) {
	type groupKey struct{ subject, discipline string }
	counts := make(map[groupKey]*domain.SubjectCount)
	for _, q := range b.questions {
		key := groupKey{q.Subject, q.Discipline}
		entry, ok := counts[key]
		if !ok {
			entry = &domain.SubjectCount{Subject: q.Subject, Discipline: q.Discipline}
			counts[key] = entry
		}
		entry.Count++
	}
	out := make([]domain.SubjectCount, 0, len(counts))
	for _, c := range counts {
		out = append(out, *c)
	}
	SortSubjects(out)
	return out, nil
}

// SortSubjects orders counts by (discipline, subject).
func SortSubjects(counts []domain.SubjectCount) {
	sort.Slice(counts, func(i, j int) bool {
		if counts[i].Discipline != counts[j].Discipline {
			return counts[i].Discipline < counts[j].Discipline
		}
		return counts[i].Subject < counts[j].Subject
	})
}

func (b *QuestionBank) Ping(context.Context) error { return nil }

// Sample draws up to n distinct questions uniformly from the matching subjects.
func (b *QuestionBank) Sample(_ context.Context, subjects []string, n int) ([]domain.Question, error) {
	if len(subjects) == 0 {
		return nil, domain.ErrEmptyFilter
	}
	wanted := make(map[string]struct{}, len(subjects))
	for _, s := range subjects {
		wanted[s] = struct{}{}
	}

	var pool []domain.Question
	for _, q := range b.questions {
		if _, ok := wanted[q.Subject]; ok {
			pool = append(pool, q)
		}
	}
	if len(pool) == 0 {
		return nil, domain.ErrNoQuestionsAvailable
	}
	return pick(pool, n), nil
}

func pick(pool []domain.Question, n int) []domain.Question {
	if n > len(pool) {
		n = len(pool)
	}
	out := make([]domain.Question, 0, n)
	for _, i := range rand.Perm(len(pool))[:n] {
		out = append(out, pool[i])
	}
	return out
}
