package app

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"esquematiza/internal/domain"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultSampleSize is used when a start request omits the size.
	DefaultSampleSize = 10
	// MaxSampleSize caps a single exam.
	MaxSampleSize = 200

	historyAppendAttempts = 3
)

// QuestionBank is the read-only source of exam questions.
type QuestionBank interface {
	ListSubjects(ctx context.Context) ([]domain.SubjectCount, error)
	// Sample returns up to n distinct questions whose subject is in subjects.
	Sample(ctx context.Context, subjects []string, n int) ([]domain.Question, error)
}

// SessionRepository holds at most one live session per user.
type SessionRepository interface {
	Put(ctx context.Context, userID string, session domain.Session) error
	Get(ctx context.Context, userID string) (domain.Session, bool, error)
	Clear(ctx context.Context, userID string) error
}

// HistoryRepository is the append-only log of finalized sessions.
type HistoryRepository interface {
	// Append fails with domain.ErrDuplicateSession when the session id was already recorded.
	Append(ctx context.Context, entry domain.HistoryEntry) error
	// ListFor returns the user's entries, newest first.
	ListFor(ctx context.Context, userID string) ([]domain.HistoryEntry, error)
}

// Metrics receives exam lifecycle events.
type Metrics interface {
	SessionStarted(questions int)
	AnswerRecorded(correct bool)
	SessionFinalized(report domain.Report)
	HistoryAppendFailed()
}

type noopMetrics struct{}

func (noopMetrics) SessionStarted(int)             {}
func (noopMetrics) AnswerRecorded(bool)            {}
func (noopMetrics) SessionFinalized(domain.Report) {}
func (noopMetrics) HistoryAppendFailed()           {}

// StartResult is returned when a new exam begins.
type StartResult struct {
	SessionID string              `json:"session_id"`
	Total     int                 `json:"total"`
	Question  domain.QuestionView `json:"question"`
}

// QuestionPage is one question of the active session plus any recorded answer.
type QuestionPage struct {
	Index    int                 `json:"index"`
	Total    int                 `json:"total"`
	Question domain.QuestionView `json:"question"`
	Answer   *domain.Answer      `json:"answer,omitempty"`
}

// ExamService runs the mock-exam lifecycle: start, navigate, answer, finalize.
type ExamService struct {
	questions QuestionBank
	sessions  SessionRepository
	history   HistoryRepository
	log       logrus.FieldLogger
	metrics   Metrics
	now       func() time.Time
	newID     func(time.Time) string
	locks     Locker
}

// Option customises an ExamService.
type Option func(*ExamService)

// WithLogger sets the service logger.
func WithLogger(log logrus.FieldLogger) Option {
	return func(s *ExamService) { s.log = log }
}

// WithMetrics sets the lifecycle metrics sink.
func WithMetrics(m Metrics) Option {
	return func(s *ExamService) { s.metrics = m }
}

// WithClock is used by tests for deterministic timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *ExamService) { s.now = now }
}

// WithLocker replaces the in-process per-user lock, for services sharing one session store.
func WithLocker(l Locker) Option {
	return func(s *ExamService) { s.locks = l }
}

// WithIDGenerator replaces the session id generator.
func WithIDGenerator(gen func(time.Time) string) Option {
	return func(s *ExamService) { s.newID = gen }
}

func NewExamService(questions QuestionBank, sessions SessionRepository, history HistoryRepository, opts ...Option) *ExamService {
	s := &ExamService{
		questions: questions,
		sessions:  sessions,
		history:   history,
		log:       logrus.StandardLogger(),
		metrics:   noopMetrics{},
		now:       time.Now,
		newID:     NewSessionID,
		locks:     newUserLocks(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// NewSessionID builds ids of the form sim_<unix seconds>_<1000..9999>.
func NewSessionID(now time.Time) string {
	return fmt.Sprintf("sim_%d_%d", now.Unix(), 1000+rand.Intn(9000))
}

// ListSubjects returns the per-subject counts of the bank.
func (s *ExamService) ListSubjects(ctx context.Context) ([]domain.SubjectCount, error) {
	return s.questions.ListSubjects(ctx)
}

// Start samples a new exam for the user, replacing any session already in progress.
func (s *ExamService) Start(ctx context.Context, userID string, subjects []string, n int) (StartResult, error) {
	subjects = cleanSubjects(subjects)
	if len(subjects) == 0 {
		return StartResult{}, domain.ErrEmptyFilter
	}
	if n < 1 || n > MaxSampleSize {
		return StartResult{}, domain.ErrInvalidSampleSize
	}

	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return StartResult{}, err
	}
	defer unlock()

	sampled, err := s.questions.Sample(ctx, subjects, n)
	if err != nil {
		return StartResult{}, err
	}

	questions := make([]domain.Question, 0, len(sampled))
	for _, q := range sampled {
		q = q.Normalize()
		if err := q.Validate(); err != nil {
			s.log.WithError(err).WithField("question_id", q.ID).Warn("dropping invalid question")
			continue
		}
		questions = append(questions, q)
	}
	if len(questions) == 0 {
		return StartResult{}, domain.ErrNoQuestionsAvailable
	}

	now := s.now()
	session := domain.Session{
		ID:        s.newID(now),
		UserID:    userID,
		Subjects:  subjects,
		Questions: questions,
		Answers:   make(map[int64]domain.Answer),
		StartedAt: now,
	}
	if err := s.sessions.Put(ctx, userID, session); err != nil {
		return StartResult{}, fmt.Errorf("store session: %w", err)
	}

	s.metrics.SessionStarted(len(questions))
	s.log.WithFields(logrus.Fields{
		"user_id":    userID,
		"session_id": session.ID,
		"questions":  len(questions),
	}).Info("exam started")

	return StartResult{
		SessionID: session.ID,
		Total:     len(questions),
		Question:  questions[0].View(),
	}, nil
}

// GetQuestion moves the cursor to index and returns that question with any prior answer.
func (s *ExamService) GetQuestion(ctx context.Context, userID string, index int) (QuestionPage, error) {
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return QuestionPage{}, err
	}
	defer unlock()

	session, err := s.activeSession(ctx, userID)
	if err != nil {
		return QuestionPage{}, err
	}
	if index < 0 || index >= len(session.Questions) {
		return QuestionPage{}, domain.ErrIndexOutOfRange
	}

	if session.CurrentIndex != index {
		session.CurrentIndex = index
		if err := s.sessions.Put(ctx, userID, session); err != nil {
			return QuestionPage{}, fmt.Errorf("store session: %w", err)
		}
	}

	q := session.Questions[index]
	page := QuestionPage{
		Index:    index,
		Total:    len(session.Questions),
		Question: q.View(),
	}
	if answer, ok := session.Answers[q.ID]; ok {
		page.Answer = &answer
	}
	return page, nil
}

// CurrentIndex returns the cursor of the active session.
func (s *ExamService) CurrentIndex(ctx context.Context, userID string) (int, error) {
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return 0, err
	}
	defer unlock()

	session, err := s.activeSession(ctx, userID)
	if err != nil {
		return 0, err
	}
	return session.CurrentIndex, nil
}

// Answer records (or overwrites) the user's choice for a question of the active session.
// An invalid letter leaves the session untouched.
func (s *ExamService) Answer(ctx context.Context, userID string, questionID int64, letter string) (domain.AnswerOutcome, error) {
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}
	defer unlock()

	session, err := s.activeSession(ctx, userID)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}
	q, ok := session.QuestionByID(questionID)
	if !ok {
		return domain.AnswerOutcome{}, domain.ErrUnknownQuestion
	}
	correct, points, err := Verdict(q, letter)
	if err != nil {
		return domain.AnswerOutcome{}, err
	}

	session.Answers[q.ID] = domain.Answer{
		ChosenLetter: domain.NormalizeLetter(letter),
		Correct:      correct,
		Points:       points,
		AnsweredAt:   s.now(),
	}
	if err := s.sessions.Put(ctx, userID, session); err != nil {
		return domain.AnswerOutcome{}, fmt.Errorf("store session: %w", err)
	}
	s.metrics.AnswerRecorded(correct)

	return domain.AnswerOutcome{
		Correct:         correct,
		CorrectLetter:   q.CorrectLetter,
		Rationale:       q.Rationale,
		Hint:            q.Hint,
		Formula:         q.Formula,
		InterpretiveTip: InterpretiveTip(q.Subject),
	}, nil
}

// Finalize closes the active session, records it in the history and returns its report.
// The session is cleared before the history append; a failed append is logged but
// does not withhold the report.
func (s *ExamService) Finalize(ctx context.Context, userID string) (domain.Report, error) {
	unlock, err := s.locks.Lock(ctx, userID)
	if err != nil {
		return domain.Report{}, err
	}
	defer unlock()

	session, err := s.activeSession(ctx, userID)
	if err != nil {
		return domain.Report{}, err
	}

	state := session.State()
	report := BuildReport(session.Questions, session.Answers, s.now())
	report.SessionID = session.ID

	if err := s.sessions.Clear(ctx, userID); err != nil {
		return domain.Report{}, fmt.Errorf("clear session: %w", err)
	}

	entry := domain.HistoryEntry{
		UserID:    userID,
		SessionID: session.ID,
		Answers:   session.Answers,
		Report:    report,
		EndedAt:   report.EndTimestamp,
	}
	recorded, err := s.appendHistory(ctx, entry)
	if err != nil {
		s.metrics.HistoryAppendFailed()
		s.log.WithError(err).WithFields(logrus.Fields{
			"user_id":    userID,
			"session_id": session.ID,
		}).Error("history append failed")
	} else {
		report = recorded.Report
	}

	s.metrics.SessionFinalized(report)
	s.log.WithFields(logrus.Fields{
		"user_id":        userID,
		"session_id":     report.SessionID,
		"state":          state,
		"answered":       report.TotalAnswered,
		"weighted_score": report.WeightedScorePct,
	}).Info("exam finalized")
	return report, nil
}

// History returns the user's finalized sessions, newest first.
func (s *ExamService) History(ctx context.Context, userID string) ([]domain.HistoryEntry, error) {
	return s.history.ListFor(ctx, userID)
}

// appendHistory retries with a fresh session id when the id collides with a recorded one.
func (s *ExamService) appendHistory(ctx context.Context, entry domain.HistoryEntry) (domain.HistoryEntry, error) {
	var err error
	for attempt := 0; attempt < historyAppendAttempts; attempt++ {
		if attempt > 0 {
			entry.SessionID = s.newID(s.now())
			entry.Report.SessionID = entry.SessionID
		}
		err = s.history.Append(ctx, entry)
		if err == nil {
			return entry, nil
		}
		if !errors.Is(err, domain.ErrDuplicateSession) {
			return entry, err
		}
		s.log.WithField("session_id", entry.SessionID).Warn("session id already recorded, regenerating")
	}
	return entry, err
}

func (s *ExamService) activeSession(ctx context.Context, userID string) (domain.Session, error) {
	session, ok, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return domain.Session{}, fmt.Errorf("load session: %w", err)
	}
	if !ok {
		return domain.Session{}, domain.ErrNoActiveSession
	}
	if session.Answers == nil {
		session.Answers = make(map[int64]domain.Answer)
	}
	return session, nil
}

// cleanSubjects trims, drops blanks and de-duplicates while keeping order.
func cleanSubjects(subjects []string) []string {
	seen := make(map[string]struct{}, len(subjects))
	out := make([]string, 0, len(subjects))
	for _, subject := range subjects {
		subject = strings.TrimSpace(subject)
		if subject == "" {
			continue
		}
		if _, ok := seen[subject]; ok {
			continue
		}
		seen[subject] = struct{}{}
		out = append(out, subject)
	}
	return out
}
