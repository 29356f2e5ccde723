package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"esquematiza/internal/domain"
)

// InsertQuestion stores a question. A non-zero id is kept.
func (s *Store) InsertQuestion(ctx context.Context, q domain.Question) (int64, error) {
	alternatives, err := json.Marshal(q.Alternatives)
	if err != nil {
		return 0, fmt.Errorf("encode alternatives: %w", err)
	}
	var weight sql.NullInt64
	if q.Weight > 0 {
		weight = sql.NullInt64{Int64: int64(q.Weight), Valid: true}
	}
	var id sql.NullInt64
	if q.ID > 0 {
		id = sql.NullInt64{Int64: q.ID, Valid: true}
	}
	res, err := s.db.ExecContext(ctx,
		`INSERT INTO questions (id, subject, discipline, prompt, alternatives, correct_letter, rationale, difficulty, weight, hint, formula)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		id, q.Subject, q.Discipline, q.Prompt, string(alternatives), q.CorrectLetter, q.Rationale, string(q.Difficulty), weight, q.Hint, q.Formula,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// ListSubjects aggregates the bank per subject, ordered by (discipline, subject).
func (s *Store) ListSubjects(ctx context.Context) ([]domain.SubjectCount, error) {
	rows, err := s.db.QueryContext(ctx,
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
			return nil, err
		}
		subjects = append(subjects, sc)
	}
	return subjects, rows.Err()
}

// Sample draws up to n distinct questions at random from the given subjects.
func (s *Store) Sample(ctx context.Context, subjects []string, n int) ([]domain.Question, error) {
	if len(subjects) == 0 {
		return nil, domain.ErrEmptyFilter
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(subjects)), ",")
	args := make([]any, 0, len(subjects)+1)
	for _, subject := range subjects {
		args = append(args, subject)
	}
	args = append(args, n)

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, subject, discipline, prompt, alternatives, correct_letter, rationale, difficulty, weight, hint, formula
		 FROM questions WHERE subject IN (`+placeholders+`)
		 ORDER BY RANDOM() LIMIT ?`, args...)
	if err != nil {
		return nil, fmt.Errorf("sample questions: %w", err)
	}
	defer rows.Close()

	var questions []domain.Question
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
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

// QuestionCount returns the size of the bank.
func (s *Store) QuestionCount(ctx context.Context) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM questions`).Scan(&n)
	return n, err
}

func scanQuestion(rows *sql.Rows) (domain.Question, error) {
	var (
		q            domain.Question
		alternatives string
		difficulty   string
		weight       sql.NullInt64
	)
	if err := rows.Scan(&q.ID, &q.Subject, &q.Discipline, &q.Prompt, &alternatives, &q.CorrectLetter,
		&q.Rationale, &difficulty, &weight, &q.Hint, &q.Formula); err != nil {
		return domain.Question{}, err
	}
	if err := json.Unmarshal([]byte(alternatives), &q.Alternatives); err != nil {
		return domain.Question{}, fmt.Errorf("question %d: decode alternatives: %w", q.ID, err)
	}
	q.Difficulty = domain.Difficulty(difficulty)
	if weight.Valid {
		q.Weight = int(weight.Int64)
	}
	return q, nil
}
