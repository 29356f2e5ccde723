package http

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"esquematiza/internal/app"
	"esquematiza/internal/domain"
	"esquematiza/internal/essay"
	"esquematiza/internal/i18n"
	"esquematiza/internal/infra/memory"
	"esquematiza/internal/metrics"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type downBank struct{}

func (downBank) Ping(context.Context) error { return errors.New("connection refused") }

func newTestServer(t *testing.T) *Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	bank := memory.NewQuestionBank(memory.DemoQuestions())
	history := memory.NewHistoryStore()
	prompts := memory.NewPromptStore(memory.DemoPrompts())
	catalog, err := i18n.New("pt-BR", log)
	require.NoError(t, err)

	m := metrics.New()
	exam := app.NewExamService(bank, memory.NewSessionStore(0), history, app.WithLogger(log), app.WithMetrics(m))
	return NewServer(Deps{
		Exam:      exam,
		Dashboard: app.NewDashboard(bank, history, prompts),
		Essay:     essay.New(essay.Config{MinLength: 100}, prompts, log),
		Bank:      bank,
		Areas:     domain.DefaultAreas,
		Catalog:   catalog,
		Metrics:   m,
		Log:       log,
	})
}

// call sends a request as user and decodes the JSON body.
func call(t *testing.T, h http.Handler, method, path, user string, body any) (int, map[string]any) {
	t.Helper()
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		rd = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, rd)
	if user != "" {
		req.Header.Set(userHeader, user)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return rec.Code, out
}

func TestExamFlow(t *testing.T) {
	h := newTestServer(t).Router()

	code, body := call(t, h, http.MethodGet, "/api/subjects", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	areas := body["areas"].(map[string]any)
	math := areas["Matemática e Raciocínio Lógico"].([]any)
	require.Len(t, math, 2)
	first := math[0].(map[string]any)
	assert.Equal(t, "Matemática", first["subject_key"])
	assert.Equal(t, float64(2), first["total"])
	assert.NotContains(t, areas, domain.OtherArea)

	code, body = call(t, h, http.MethodPost, "/api/exam/start", "u1",
		map[string]any{"subjects": []string{"Matemática"}, "n": 2})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, true, body["success"])
	assert.Equal(t, float64(2), body["total"])
	assert.True(t, strings.HasPrefix(body["session_id"].(string), "sim_"))
	firstQ := body["question"].(map[string]any)
	assert.NotContains(t, firstQ, "correct_letter")
	qid := int64(firstQ["id"].(float64))

	code, body = call(t, h, http.MethodPost, "/api/exam/answer", "u1",
		map[string]any{"question_id": qid, "letter": " a "})
	require.Equal(t, http.StatusOK, code, body)
	correctLetter := body["correct_letter"].(string)
	assert.NotEmpty(t, body["interpretive_tip"])

	code, body = call(t, h, http.MethodPost, "/api/exam/answer", "u1",
		map[string]any{"question_id": qid, "letter": correctLetter})
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, true, body["correct"])

	code, body = call(t, h, http.MethodGet, "/api/exam/question/0", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	prior := body["prior_answer"].(map[string]any)
	assert.Equal(t, correctLetter, prior["chosen_letter"])
	assert.Equal(t, float64(2), body["total"])

	code, body = call(t, h, http.MethodGet, "/api/exam/question/1", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Nil(t, body["prior_answer"])

	code, body = call(t, h, http.MethodPost, "/api/exam/finalize", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	report := body["report"].(map[string]any)
	assert.Equal(t, float64(2), report["total_questions"])
	assert.Equal(t, float64(1), report["total_answered"])
	assert.Equal(t, float64(1), report["total_correct"])
	assert.Equal(t, float64(50), report["weighted_score_pct"])
	keys := make([]string, 0, len(report))
	for k := range report {
		keys = append(keys, k)
	}
	assert.ElementsMatch(t, []string{
		"session_id", "total_questions", "total_answered", "total_correct", "points_obtained",
		"total_weight", "simple_accuracy_pct", "weighted_score_pct", "end_timestamp",
	}, keys)

	code, body = call(t, h, http.MethodGet, "/api/exam/history", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["entries"], 1)

	code, body = call(t, h, http.MethodGet, "/api/dashboard/stats", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	bank := body["bank"].(map[string]any)
	assert.Equal(t, float64(10), bank["total_questions"])
	assert.Equal(t, float64(5), bank["total_essay_prompts"])
	user := body["user"].(map[string]any)
	assert.Equal(t, float64(1), user["total_exams"])

	code, body = call(t, h, http.MethodGet, "/api/exam/history", "someone-else", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body["entries"])
}

func TestErrorMapping(t *testing.T) {
	h := newTestServer(t).Router()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		kind   domain.Kind
	}{
		{"no session answer", http.MethodPost, "/api/exam/answer", map[string]any{"question_id": 1, "letter": "A"}, 400, domain.KindNoActiveSession},
		{"no session finalize", http.MethodPost, "/api/exam/finalize", nil, 400, domain.KindNoActiveSession},
		{"empty filter", http.MethodPost, "/api/exam/start", map[string]any{"subjects": []string{}}, 400, domain.KindEmptyFilter},
		{"sample too big", http.MethodPost, "/api/exam/start", map[string]any{"subjects": []string{"Matemática"}, "n": 500}, 400, domain.KindInvalidSampleSize},
		{"sample zero", http.MethodPost, "/api/exam/start", map[string]any{"subjects": []string{"Matemática"}, "n": 0}, 400, domain.KindInvalidSampleSize},
		{"unknown subject", http.MethodPost, "/api/exam/start", map[string]any{"subjects": []string{"Astrologia"}}, 404, domain.KindNoQuestionsAvailable},
		{"missing question id", http.MethodPost, "/api/exam/answer", map[string]any{"letter": "A"}, 400, domain.KindInvalidRequest},
		{"bad index", http.MethodGet, "/api/exam/question/abc", nil, 400, domain.KindIndexOutOfRange},
		{"grader off", http.MethodPost, "/api/essay/grade", map[string]any{"prompt_id": 1, "text": "x"}, 503, domain.KindGraderUnavailable},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, body := call(t, h, tt.method, tt.path, "err-user", tt.body)
			assert.Equal(t, tt.status, code)
			assert.Equal(t, false, body["success"])
			assert.Equal(t, string(tt.kind), body["kind"])
			assert.NotEmpty(t, body["error"])
		})
	}
}

func TestMalformedBody(t *testing.T) {
	h := newTestServer(t).Router()
	req := httptest.NewRequest(http.MethodPost, "/api/exam/start", strings.NewReader("{not json"))
	req.Header.Set(userHeader, "u1")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), string(domain.KindInvalidRequest))
}

func TestStartDefaultsToTenQuestions(t *testing.T) {
	h := newTestServer(t).Router()
	subjects := []string{"Matemática", "Raciocínio Lógico", "Direito Constitucional", "Direito Administrativo",
		"Língua Portuguesa", "Informática", "Administração Pública"}
	code, body := call(t, h, http.MethodPost, "/api/exam/start", "u1", map[string]any{"subjects": subjects})
	require.Equal(t, http.StatusOK, code, body)
	assert.Equal(t, float64(app.DefaultSampleSize), body["total"])
}

func TestLocalizedErrors(t *testing.T) {
	h := newTestServer(t).Router()

	req := httptest.NewRequest(http.MethodPost, "/api/exam/finalize", nil)
	req.Header.Set(userHeader, "u1")
	req.Header.Set("Accept-Language", "en")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Contains(t, rec.Body.String(), "No exam in progress.")

	_, body := call(t, h, http.MethodPost, "/api/exam/finalize", "u1", nil)
	assert.Equal(t, "Nenhum simulado em andamento.", body["error"])
}

func TestIdentityCookie(t *testing.T) {
	h := newTestServer(t).Router()

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/exam/history", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, userCookie, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)
	assert.NotEmpty(t, cookies[0].Value)

	// The cookie identifies the same user on the next request.
	start := httptest.NewRequest(http.MethodPost, "/api/exam/start",
		strings.NewReader(`{"subjects":["Informática"],"n":1}`))
	start.AddCookie(cookies[0])
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, start)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Result().Cookies())

	code, _ := call(t, h, http.MethodGet, "/api/exam/question/0", cookies[0].Value, nil)
	assert.Equal(t, http.StatusOK, code)
}

func TestEssayPrompts(t *testing.T) {
	h := newTestServer(t).Router()
	code, body := call(t, h, http.MethodGet, "/api/essay/prompts", "u1", nil)
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body["prompts"], 5)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	h := s.Router()

	code, body := call(t, h, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, code)
	assert.Equal(t, "ok", body["status"])

	call(t, h, http.MethodGet, "/api/subjects", "u1", nil)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `route="/api/subjects"`)

	s.bank = downBank{}
	code, body = call(t, s.Router(), http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, code)
	assert.Equal(t, "unavailable", body["status"])
}

func TestStatusFor(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, statusFor(domain.KindInternal))
	assert.Equal(t, http.StatusInternalServerError, statusFor(domain.KindDuplicateSession))
	assert.Equal(t, http.StatusBadGateway, statusFor(domain.KindGraderFailed))
	assert.Equal(t, http.StatusNotFound, statusFor(domain.KindUnknownPrompt))
	assert.Equal(t, http.StatusBadRequest, statusFor(domain.KindEssayTooShort))
}

func TestGroupByArea(t *testing.T) {
	grouped := groupByArea(domain.DefaultAreas, []domain.SubjectCount{
		{Subject: "Direito Administrativo", Discipline: "Direito", Count: 3},
		{Subject: "Direito Constitucional", Discipline: "Direito", Count: 1},
		{Subject: "Astronomia", Discipline: "Ciências", Count: 2},
	})
	require.Len(t, grouped["Direito (Admin. e Const.)"], 2)
	assert.Equal(t, "Direito Administrativo", grouped["Direito (Admin. e Const.)"][0].SubjectName)
	assert.Equal(t, 2, grouped[domain.OtherArea][0].Total)
}
