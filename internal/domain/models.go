package domain

import (
	"fmt"
	"strings"
	"time"
)

// Difficulty is the difficulty tag of a bank question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "Fácil"
	DifficultyMedium Difficulty = "Médio"
	DifficultyHard   Difficulty = "Difícil"
)

// validLetters is the closed set of alternative keys.
const validLetters = "ABCDE"

// WeightForDifficulty maps a difficulty tag to its default weight (Fácil=1, Médio=2, Difícil=3).
// Legacy tags (Baixa/Média/Alta) found in older banks map the same way.
func WeightForDifficulty(d Difficulty) int {
	tag := strings.ToLower(strings.TrimSpace(string(d)))
	switch {
	case strings.Contains(tag, "difícil"), strings.Contains(tag, "dificil"), strings.Contains(tag, "alta"):
		return 3
	case strings.Contains(tag, "médi"), strings.Contains(tag, "medi"):
		return 2
	default:
		return 1
	}
}

// NormalizeLetter strips whitespace and upper-cases an alternative letter.
func NormalizeLetter(letter string) string {
	return strings.ToUpper(strings.TrimSpace(letter))
}

// Question is an immutable multiple-choice item of the bank.
type Question struct {
	ID            int64             `json:"id"`
	Subject       string            `json:"subject"`
	Discipline    string            `json:"discipline"`
	Prompt        string            `json:"prompt"`
	Alternatives  map[string]string `json:"alternatives"`
	CorrectLetter string            `json:"correct_letter"`
	Rationale     string            `json:"rationale"`
	Difficulty    Difficulty        `json:"difficulty"`
	Weight        int               `json:"weight"` // zero means absent; back-filled from Difficulty
	Hint          string            `json:"hint,omitempty"`
	Formula       string            `json:"formula,omitempty"`
}

// Normalize returns a copy with canonical letters and a back-filled weight.
func (q Question) Normalize() Question {
	alternatives := make(map[string]string, len(q.Alternatives))
	for letter, text := range q.Alternatives {
		alternatives[NormalizeLetter(letter)] = text
	}
	q.Alternatives = alternatives
	q.CorrectLetter = NormalizeLetter(q.CorrectLetter)
	if q.Weight <= 0 {
		q.Weight = WeightForDifficulty(q.Difficulty)
	}
	return q
}

// Validate checks the bank invariants of a normalized question.
func (q Question) Validate() error {
	if len(q.Alternatives) < 2 {
		return fmt.Errorf("question %d: %w: fewer than two alternatives", q.ID, ErrInvalidQuestion)
	}
	for letter := range q.Alternatives {
		if len(letter) != 1 || !strings.Contains(validLetters, letter) {
			return fmt.Errorf("question %d: %w: alternative key %q", q.ID, ErrInvalidQuestion, letter)
		}
	}
	if !q.HasAlternative(q.CorrectLetter) {
		return fmt.Errorf("question %d: %w: correct letter %q not among alternatives", q.ID, ErrInvalidQuestion, q.CorrectLetter)
	}
	if q.Weight < 1 {
		return fmt.Errorf("question %d: %w: weight %d", q.ID, ErrInvalidQuestion, q.Weight)
	}
	return nil
}

// HasAlternative reports whether letter is a key of the alternatives.
func (q Question) HasAlternative(letter string) bool {
	_, ok := q.Alternatives[letter]
	return ok
}

// View projects the question without the correct letter and rationale.
func (q Question) View() QuestionView {
	return QuestionView{
		ID:           q.ID,
		Subject:      q.Subject,
		Discipline:   q.Discipline,
		Prompt:       q.Prompt,
		Alternatives: q.Alternatives,
		Difficulty:   q.Difficulty,
		Weight:       q.Weight,
		Hint:         q.Hint,
		Formula:      q.Formula,
	}
}

// QuestionView is what clients see before answering.
type QuestionView struct {
	ID           int64             `json:"id"`
	Subject      string            `json:"subject"`
	Discipline   string            `json:"discipline"`
	Prompt       string            `json:"prompt"`
	Alternatives map[string]string `json:"alternatives"`
	Difficulty   Difficulty        `json:"difficulty"`
	Weight       int               `json:"weight"`
	Hint         string            `json:"hint"`
	Formula      string            `json:"formula"`
}

// SubjectCount aggregates the bank per subject.
type SubjectCount struct {
	Subject    string `json:"subject"`
	Discipline string `json:"discipline"`
	Count      int    `json:"count"`
}

// Answer records a submission for one question. Correct and Points are fixed at submission.
type Answer struct {
	ChosenLetter string    `json:"chosen_letter"`
	Correct      bool      `json:"correct"`
	Points       int       `json:"points"`
	AnsweredAt   time.Time `json:"timestamp"`
}

// SessionState is derived from the answers recorded so far.
type SessionState string

const (
	SessionCreated    SessionState = "created"
	SessionInProgress SessionState = "in_progress"
)

// Session is the live state of one user's exam attempt.
type Session struct {
	ID           string           `json:"session_id"`
	UserID       string           `json:"user_id"`
	Subjects     []string         `json:"subjects"`
	Questions    []Question       `json:"questions"`
	CurrentIndex int              `json:"current_index"`
	Answers      map[int64]Answer `json:"answers"`
	StartedAt    time.Time        `json:"started_at"`
}

// QuestionByID finds a question of the sampled set.
func (s *Session) QuestionByID(id int64) (Question, bool) {
	for _, q := range s.Questions {
		if q.ID == id {
			return q, true
		}
	}
	return Question{}, false
}

// State reports whether any answer was recorded.
func (s *Session) State() SessionState {
	if len(s.Answers) == 0 {
		return SessionCreated
	}
	return SessionInProgress
}

// AnswerOutcome is revealed to the client after each submission.
type AnswerOutcome struct {
	Correct         bool   `json:"correct"`
	CorrectLetter   string `json:"correct_letter"`
	Rationale       string `json:"rationale"`
	Hint            string `json:"hint"`
	Formula         string `json:"formula"`
	InterpretiveTip string `json:"interpretive_tip"`
}

// Report is the terminal summary of a finalized session.
type Report struct {
	SessionID         string    `json:"session_id"`
	TotalQuestions    int       `json:"total_questions"`
	TotalAnswered     int       `json:"total_answered"`
	TotalCorrect      int       `json:"total_correct"`
	PointsObtained    int       `json:"points_obtained"`
	TotalWeight       int       `json:"total_weight"`
	SimpleAccuracyPct float64   `json:"simple_accuracy_pct"`
	WeightedScorePct  float64   `json:"weighted_score_pct"`
	EndTimestamp      time.Time `json:"end_timestamp"`
}

// HistoryEntry is the append-only record of a finalized session.
type HistoryEntry struct {
	ID        int64            `json:"id"`
	UserID    string           `json:"user_id"`
	SessionID string           `json:"session_id"`
	Answers   map[int64]Answer `json:"answers"`
	Report    Report           `json:"report"`
	EndedAt   time.Time        `json:"end_timestamp"`
}
