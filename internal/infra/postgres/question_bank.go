package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"esquematiza/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// QuestionBank reads questions from Postgres; alternatives are stored as JSONB.
type QuestionBank struct {
	pool *pgxpool.Pool
}

func NewQuestionBank(pool *pgxpool.Pool) *QuestionBank {
	return &QuestionBank{pool: pool}
}

func (b *QuestionBank) ListSubjects(ctx context.Context) ([]domain.SubjectCount, error) {
	rows, err := b.pool.Query(ctx,
		`SELECT subject, discipline, COUNT(*) FROM questions
		 GROUP BY subject, discipline
		 ORDER BY discipline, subject`)
	if err != nil {
		return nil, fmt.Errorf("list subjects: %w", err)
	}
	defer rows.Close()

	subjects := make([]domain.SubjectCount, 0)
	for rows.Next() {
		var sc domain.SubjectCount
		if err := rows.Scan(&sc.Subject, &sc.Discipline, &sc.Count); err != nil {
			return nil, fmt.Errorf("scan subject: %w", err)
		}
		subjects = append(subjects, sc)
	}
	return subjects, rows.Err()
}

func (b *QuestionBank) Sample(ctx context.Context, subjects []string, n int) ([]domain.Question, error) {
	if len(subjects) == 0 {
		return nil, domain.ErrEmptyFilter
	}
	rows, err := b.pool.Query(ctx,
		`SELECT id, subject, discipline, prompt, alternatives, correct_letter, rationale, difficulty, COALESCE(weight, 0), hint, formula
		 FROM questions WHERE subject = ANY($1)
		 ORDER BY random() LIMIT $2`, subjects, n)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		var (
			q          domain.Question
			raw        []byte
			difficulty string
		)
		if err := rows.Scan(&q.ID, &q.Subject, &q.Discipline, &q.Prompt, &raw, &q.CorrectLetter,
			&q.Rationale, &difficulty, &q.Weight, &q.Hint, &q.Formula); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		if err := json.Unmarshal(raw, &q.Alternatives); err != nil {
			return nil, fmt.Errorf("question %d: unmarshal alternatives: %w", q.ID, err)
		}
		q.Difficulty = domain.Difficulty(difficulty)
		questions = append(questions, q)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestionsAvailable
	}
	return questions, nil
}

// InsertQuestion stores a question; a zero weight is stored as NULL.
func (b *QuestionBank) InsertQuestion(ctx context.Context, q domain.Question) (int64, error) {
	raw, err := json.Marshal(q.Alternatives)
	if err != nil {
		return 0, fmt.Errorf("marshal alternatives: %w", err)
	}
	var weight *int
	if q.Weight > 0 {
		weight = &q.Weight
	}
	var id int64
	err = b.pool.QueryRow(ctx,
		`INSERT INTO questions (subject, discipline, prompt, alternatives, correct_letter, rationale, difficulty, weight, hint, formula)
		 VALUES ($1, $2, $3, $4::jsonb, $5, $6, $7, $8, $9, $10) RETURNING id`,
		q.Subject, q.Discipline, q.Prompt, string(raw), q.CorrectLetter, q.Rationale, string(q.Difficulty), weight, q.Hint, q.Formula,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("insert question: %w", err)
	}
	return id, nil
}

func (b *QuestionBank) Ping(ctx context.Context) error {
	return b.pool.Ping(ctx)
}
