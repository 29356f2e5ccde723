package app_test

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
	"testing"
	"time"

	"esquematiza/internal/app"
	"esquematiza/internal/domain"
	"esquematiza/internal/infra/memory"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

func question(id int64, subject, correct string, weight int) domain.Question {
	return domain.Question{
		ID:            id,
		Subject:       subject,
		Discipline:    "Matemática e Raciocínio Lógico",
		Prompt:        fmt.Sprintf("Questão %d", id),
		Alternatives:  map[string]string{"A": "a", "B": "b", "C": "c", "D": "d"},
		CorrectLetter: correct,
		Rationale:     fmt.Sprintf("porque %s", correct),
		Weight:        weight,
	}
}

type harness struct {
	service  *app.ExamService
	sessions *memory.SessionStore
	history  *memory.HistoryStore
}

func newHarness(questions []domain.Question, opts ...app.Option) harness {
	sessions := memory.NewSessionStore(0)
	history := memory.NewHistoryStore()
	opts = append([]app.Option{app.WithClock(func() time.Time { return fixedNow })}, opts...)
	return harness{
		service:  app.NewExamService(memory.NewQuestionBank(questions), sessions, history, opts...),
		sessions: sessions,
		history:  history,
	}
}

// answerAll answers every question of the session with the letter chosen by pick.
func answerAll(t *testing.T, h harness, userID string, pick func(q domain.Question) string) []domain.QuestionView {
	t.Helper()
	ctx := context.Background()
	idx, err := h.service.CurrentIndex(ctx, userID)
	require.NoError(t, err)
	require.Equal(t, 0, idx)

	session, ok, err := h.sessions.Get(ctx, userID)
	require.NoError(t, err)
	require.True(t, ok)

	views := make([]domain.QuestionView, 0, len(session.Questions))
	for i, q := range session.Questions {
		page, err := h.service.GetQuestion(ctx, userID, i)
		require.NoError(t, err)
		views = append(views, page.Question)
		letter := pick(q)
		if letter == "" {
			continue
		}
		_, err = h.service.Answer(ctx, userID, q.ID, letter)
		require.NoError(t, err)
	}
	return views
}

func TestHappyPath(t *testing.T) {
	h := newHarness([]domain.Question{
		question(1, "Matemática", "A", 1),
		question(2, "Matemática", "B", 1),
		question(3, "Matemática", "C", 1),
	})
	ctx := context.Background()

	started, err := h.service.Start(ctx, "u1", []string{"Matemática"}, 3)
	require.NoError(t, err)
	assert.Equal(t, 3, started.Total)
	assert.Regexp(t, `^sim_\d+_\d{4}$`, started.SessionID)

	answerAll(t, h, "u1", func(q domain.Question) string { return q.CorrectLetter })

	report, err := h.service.Finalize(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, started.SessionID, report.SessionID)
	assert.Equal(t, 3, report.TotalQuestions)
	assert.Equal(t, 3, report.TotalAnswered)
	assert.Equal(t, 3, report.TotalCorrect)
	assert.Equal(t, 3, report.PointsObtained)
	assert.Equal(t, 3, report.TotalWeight)
	assert.Equal(t, 100.0, report.WeightedScorePct)
	assert.Equal(t, 100.0, report.SimpleAccuracyPct)
	assert.Equal(t, fixedNow, report.EndTimestamp)

	_, err = h.service.Finalize(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)

	entries, err := h.service.History(ctx, "u1")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, report, entries[0].Report)
}

func TestPartialCompletion(t *testing.T) {
	h := newHarness([]domain.Question{
		question(1, "Matemática", "A", 1),
		question(2, "Matemática", "B", 1),
		question(3, "Matemática", "C", 1),
	})
	ctx := context.Background()
	_, err := h.service.Start(ctx, "u1", []string{"Matemática"}, 3)
	require.NoError(t, err)

	step := 0
	answerAll(t, h, "u1", func(q domain.Question) string {
		step++
		switch step {
		case 1:
			return q.CorrectLetter
		case 2:
			if q.CorrectLetter == "D" {
				return "A"
			}
			return "D"
		default:
			return ""
		}
	})

	report, err := h.service.Finalize(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 3, report.TotalQuestions)
	assert.Equal(t, 2, report.TotalAnswered)
	assert.Equal(t, 1, report.TotalCorrect)
	assert.Equal(t, 1, report.PointsObtained)
	assert.Equal(t, 3, report.TotalWeight)
	assert.Equal(t, 33.33, report.WeightedScorePct)
	assert.Equal(t, 33.33, report.SimpleAccuracyPct)
}

func TestWeightedMix(t *testing.T) {
	h := newHarness([]domain.Question{
		question(1, "Matemática", "A", 1),
		question(2, "Matemática", "B", 2),
		question(3, "Matemática", "C", 3),
	})
	ctx := context.Background()
	_, err := h.service.Start(ctx, "u1", []string{"Matemática"}, 3)
	require.NoError(t, err)

	chosen := map[int64]string{1: "A", 2: "B", 3: "A"}
	for id, letter := range chosen {
		_, err := h.service.Answer(ctx, "u1", id, letter)
		require.NoError(t, err)
	}

	report, err := h.service.Finalize(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, report.TotalCorrect)
	assert.Equal(t, 3, report.PointsObtained)
	assert.Equal(t, 6, report.TotalWeight)
	assert.Equal(t, 50.0, report.WeightedScorePct)
	assert.Equal(t, 66.67, report.SimpleAccuracyPct)
}

func TestReanswerReplacesPriorAnswer(t *testing.T) {
	h := newHarness([]domain.Question{question(1, "Matemática", "A", 2)})
	ctx := context.Background()
	_, err := h.service.Start(ctx, "u1", []string{"Matemática"}, 1)
	require.NoError(t, err)

	outcome, err := h.service.Answer(ctx, "u1", 1, "B")
	require.NoError(t, err)
	assert.False(t, outcome.Correct)
	assert.Equal(t, "A", outcome.CorrectLetter)

	outcome, err = h.service.Answer(ctx, "u1", 1, " a ")
	require.NoError(t, err)
	assert.True(t, outcome.Correct)

	page, err := h.service.GetQuestion(ctx, "u1", 0)
	require.NoError(t, err)
	require.NotNil(t, page.Answer)
	assert.Equal(t, "A", page.Answer.ChosenLetter)

	report, err := h.service.Finalize(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalCorrect)
	assert.Equal(t, 2, report.PointsObtained)

	_, err = h.service.Start(ctx, "u1", []string{"Matemática"}, 1)
	require.NoError(t, err)
	entries, err := h.service.History(ctx, "u1")
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestUndersizedSample(t *testing.T) {
	h := newHarness([]domain.Question{
		question(1, "Matemática", "A", 1),
		question(2, "Matemática", "B", 2),
		question(3, "Matemática", "C", 3),
		question(4, "Matemática", "D", 1),
		question(5, "Português", "A", 1),
	})
	ctx := context.Background()
	started, err := h.service.Start(ctx, "u1", []string{"Matemática"}, 10)
	require.NoError(t, err)
	assert.Equal(t, 4, started.Total)

	answerAll(t, h, "u1", func(q domain.Question) string { return q.CorrectLetter })
	report, err := h.service.Finalize(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 7, report.TotalWeight)
	assert.Equal(t, 100.0, report.WeightedScorePct)
}

func TestBadLetterLeavesSessionUnchanged(t *testing.T) {
	h := newHarness([]domain.Question{question(1, "Matemática", "A", 1)})
	ctx := context.Background()
	_, err := h.service.Start(ctx, "u1", []string{"Matemática"}, 1)
	require.NoError(t, err)

	before, _, err := h.sessions.Get(ctx, "u1")
	require.NoError(t, err)

	_, err = h.service.Answer(ctx, "u1", 1, "Z")
	assert.ErrorIs(t, err, domain.ErrInvalidChoice)

	after, _, err := h.sessions.Get(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestStartValidation(t *testing.T) {
	h := newHarness([]domain.Question{question(1, "Matemática", "A", 1)})
	ctx := context.Background()

	_, err := h.service.Start(ctx, "u1", nil, 5)
	assert.ErrorIs(t, err, domain.ErrEmptyFilter)
	_, err = h.service.Start(ctx, "u1", []string{"  "}, 5)
	assert.ErrorIs(t, err, domain.ErrEmptyFilter)
	_, err = h.service.Start(ctx, "u1", []string{"Matemática"}, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidSampleSize)
	_, err = h.service.Start(ctx, "u1", []string{"Matemática"}, 201)
	assert.ErrorIs(t, err, domain.ErrInvalidSampleSize)
	_, err = h.service.Start(ctx, "u1", []string{"Astronomia"}, 5)
	assert.ErrorIs(t, err, domain.ErrNoQuestionsAvailable)
}

func TestStartDropsInvalidQuestionsAndBackfillsWeight(t *testing.T) {
	broken := question(2, "Matemática", "E", 1)
	unweighted := question(3, "Matemática", "B", 0)
	unweighted.Difficulty = domain.DifficultyHard
	h := newHarness([]domain.Question{broken, unweighted})
	ctx := context.Background()

	started, err := h.service.Start(ctx, "u1", []string{"Matemática"}, 5)
	require.NoError(t, err)
	assert.Equal(t, 1, started.Total)
	assert.Equal(t, int64(3), started.Question.ID)
	assert.Equal(t, 3, started.Question.Weight)

	onlyBroken := newHarness([]domain.Question{broken})
	_, err = onlyBroken.service.Start(ctx, "u1", []string{"Matemática"}, 5)
	assert.ErrorIs(t, err, domain.ErrNoQuestionsAvailable)
}

func TestOperationsRequireSession(t *testing.T) {
	h := newHarness([]domain.Question{question(1, "Matemática", "A", 1)})
	ctx := context.Background()

	_, err := h.service.GetQuestion(ctx, "u1", 0)
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	_, err = h.service.Answer(ctx, "u1", 1, "A")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	_, err = h.service.Finalize(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)
	_, err = h.service.CurrentIndex(ctx, "u1")
	assert.ErrorIs(t, err, domain.ErrNoActiveSession)

	_, err = h.service.Start(ctx, "u1", []string{"Matemática"}, 1)
	require.NoError(t, err)
	_, err = h.service.GetQuestion(ctx, "u1", 1)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	_, err = h.service.GetQuestion(ctx, "u1", -1)
	assert.ErrorIs(t, err, domain.ErrIndexOutOfRange)
	_, err = h.service.Answer(ctx, "u1", 42, "A")
	assert.ErrorIs(t, err, domain.ErrUnknownQuestion)
}

func TestGetQuestionMovesCursor(t *testing.T) {
	h := newHarness([]domain.Question{
		question(1, "Matemática", "A", 1),
		question(2, "Matemática", "B", 1),
		question(3, "Matemática", "C", 1),
	})
	ctx := context.Background()
	_, err := h.service.Start(ctx, "u1", []string{"Matemática"}, 3)
	require.NoError(t, err)

	page, err := h.service.GetQuestion(ctx, "u1", 2)
	require.NoError(t, err)
	assert.Equal(t, 2, page.Index)
	assert.Equal(t, 3, page.Total)
	assert.Nil(t, page.Answer)

	idx, err := h.service.CurrentIndex(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 2, idx)

	_, err = h.service.GetQuestion(ctx, "u1", 0)
	require.NoError(t, err)
	idx, _ = h.service.CurrentIndex(ctx, "u1")
	assert.Equal(t, 0, idx)
}

func TestAnswerRevealsTip(t *testing.T) {
	q := question(1, "Direito Constitucional", "A", 1)
	q.Hint = "art. 5º"
	q.Formula = ""
	h := newHarness([]domain.Question{q})
	ctx := context.Background()
	_, err := h.service.Start(ctx, "u1", []string{"Direito Constitucional"}, 1)
	require.NoError(t, err)

	outcome, err := h.service.Answer(ctx, "u1", 1, "b")
	require.NoError(t, err)
	assert.False(t, outcome.Correct)
	assert.Equal(t, "porque A", outcome.Rationale)
	assert.Equal(t, "art. 5º", outcome.Hint)
	assert.Equal(t, app.InterpretiveTip("Direito"), outcome.InterpretiveTip)
}

func TestDuplicateSessionIDIsRegenerated(t *testing.T) {
	ids := []string{"sim_1_1000", "sim_1_1000", "sim_1_2000"}
	var mu sync.Mutex
	gen := func(time.Time) string {
		mu.Lock()
		defer mu.Unlock()
		id := ids[0]
		ids = ids[1:]
		return id
	}
	h := newHarness([]domain.Question{question(1, "Matemática", "A", 1)}, app.WithIDGenerator(gen))
	ctx := context.Background()

	_, err := h.service.Start(ctx, "u1", []string{"Matemática"}, 1)
	require.NoError(t, err)
	_, err = h.service.Finalize(ctx, "u1")
	require.NoError(t, err)

	_, err = h.service.Start(ctx, "u2", []string{"Matemática"}, 1)
	require.NoError(t, err)
	report, err := h.service.Finalize(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, "sim_1_2000", report.SessionID)

	entries, err := h.service.History(ctx, "u2")
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, "sim_1_2000", entries[0].SessionID)
}

func TestFinalizeReturnsReportWhenHistoryFails(t *testing.T) {
	sessions := memory.NewSessionStore(0)
	service := app.NewExamService(
		memory.NewQuestionBank([]domain.Question{question(1, "Matemática", "A", 1)}),
		sessions,
		failingHistory{},
	)
	ctx := context.Background()
	_, err := service.Start(ctx, "u1", []string{"Matemática"}, 1)
	require.NoError(t, err)

	report, err := service.Finalize(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 1, report.TotalQuestions)

	_, ok, _ := sessions.Get(ctx, "u1")
	assert.False(t, ok)
}

func TestFinalizeKeepsSessionWhenClearFails(t *testing.T) {
	sessions := &flakySessions{SessionStore: memory.NewSessionStore(0), failClear: true}
	history := memory.NewHistoryStore()
	service := app.NewExamService(
		memory.NewQuestionBank([]domain.Question{question(1, "Matemática", "A", 1)}),
		sessions,
		history,
	)
	ctx := context.Background()
	_, err := service.Start(ctx, "u1", []string{"Matemática"}, 1)
	require.NoError(t, err)

	_, err = service.Finalize(ctx, "u1")
	require.Error(t, err)
	assert.Equal(t, domain.KindInternal, domain.KindOf(err))

	_, ok, _ := sessions.Get(ctx, "u1")
	assert.True(t, ok)
	entries, _ := history.ListFor(ctx, "u1")
	assert.Empty(t, entries)

	sessions.failClear = false
	_, err = service.Finalize(ctx, "u1")
	require.NoError(t, err)
	entries, _ = history.ListFor(ctx, "u1")
	assert.Len(t, entries, 1)
}

func TestReportInvariantUnderAnswerOrder(t *testing.T) {
	questions := make([]domain.Question, 0, 8)
	letters := []string{"A", "B", "C", "D"}
	for i := 1; i <= 8; i++ {
		questions = append(questions, question(int64(i), "Matemática", letters[i%4], 1+i%3))
	}
	final := map[int64]string{}
	for _, q := range questions {
		final[q.ID] = letters[(int(q.ID)*7)%4]
	}

	var baseline *domain.Report
	rnd := rand.New(rand.NewSource(42))
	for round := 0; round < 20; round++ {
		h := newHarness(questions, app.WithIDGenerator(func(time.Time) string { return "sim_fixed" }))
		ctx := context.Background()
		_, err := h.service.Start(ctx, "u1", []string{"Matemática"}, len(questions))
		require.NoError(t, err)

		// noise answers first, then the final letters in a random order
		order := rnd.Perm(len(questions))
		for _, i := range order {
			q := questions[i]
			_, err := h.service.Answer(ctx, "u1", q.ID, letters[rnd.Intn(4)])
			require.NoError(t, err)
		}
		for _, i := range rnd.Perm(len(questions)) {
			q := questions[i]
			_, err := h.service.Answer(ctx, "u1", q.ID, final[q.ID])
			require.NoError(t, err)
		}

		report, err := h.service.Finalize(ctx, "u1")
		require.NoError(t, err)
		if baseline == nil {
			baseline = &report
			continue
		}
		assert.Equal(t, *baseline, report)
	}
}

func TestConcurrentAnswersSerialise(t *testing.T) {
	questions := make([]domain.Question, 0, 20)
	for i := 1; i <= 20; i++ {
		questions = append(questions, question(int64(i), "Matemática", "A", 1))
	}
	h := newHarness(questions)
	ctx := context.Background()
	_, err := h.service.Start(ctx, "u1", []string{"Matemática"}, 20)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 1; i <= 20; i++ {
		wg.Add(1)
		go func(id int64) {
			defer wg.Done()
			_, _ = h.service.Answer(ctx, "u1", id, "A")
		}(int64(i))
	}
	wg.Wait()

	report, err := h.service.Finalize(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, 20, report.TotalAnswered)
	assert.Equal(t, 20, report.TotalCorrect)
}

func TestFinalizeLogsSessionState(t *testing.T) {
	log, hook := logtest.NewNullLogger()
	h := newHarness([]domain.Question{
		question(1, "Matemática", "A", 1),
		question(2, "Matemática", "B", 1),
	}, app.WithLogger(log))
	ctx := context.Background()

	_, err := h.service.Start(ctx, "u1", []string{"Matemática"}, 2)
	require.NoError(t, err)
	_, err = h.service.Finalize(ctx, "u1")
	require.NoError(t, err)
	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, domain.SessionCreated, entry.Data["state"])

	_, err = h.service.Start(ctx, "u1", []string{"Matemática"}, 2)
	require.NoError(t, err)
	_, err = h.service.Answer(ctx, "u1", 1, "A")
	require.NoError(t, err)
	_, err = h.service.Finalize(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, domain.SessionInProgress, hook.LastEntry().Data["state"])
}

type failingHistory struct{}

func (failingHistory) Append(context.Context, domain.HistoryEntry) error {
	return errors.New("disk full")
}

func (failingHistory) ListFor(context.Context, string) ([]domain.HistoryEntry, error) {
	return nil, nil
}

type flakySessions struct {
	*memory.SessionStore
	failClear bool
}

func (s *flakySessions) Clear(ctx context.Context, userID string) error {
	if s.failClear {
		return errors.New("connection refused")
	}
	return s.SessionStore.Clear(ctx, userID)
}
