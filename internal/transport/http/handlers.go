package http

import (
	"net/http"
	"strconv"

	"esquematiza/internal/app"
	"esquematiza/internal/domain"
	"github.com/go-chi/chi/v5"
)

type subjectEntry struct {
	SubjectKey  string `json:"subject_key"`
	SubjectName string `json:"subject_name"`
	Discipline  string `json:"discipline"`
	Total       int    `json:"total"`
}

type startRequest struct {
	Subjects []string `json:"subjects"`
	N        *int     `json:"n" validate:"omitempty,min=1,max=200"`
}

type answerRequest struct {
	QuestionID int64  `json:"question_id" validate:"required,gt=0"`
	Letter     string `json:"letter"`
}

type gradeRequest struct {
	PromptID int64  `json:"prompt_id" validate:"required,gt=0"`
	Text     string `json:"text"`
}

// groupByArea buckets the subject listing by area, keeping the bank order inside each area.
func groupByArea(areas domain.AreaTable, subjects []domain.SubjectCount) map[string][]subjectEntry {
	grouped := make(map[string][]subjectEntry)
	for _, sc := range subjects {
		area := areas.Classify(sc.Subject)
		grouped[area] = append(grouped[area], subjectEntry{
			SubjectKey:  sc.Subject,
			SubjectName: sc.Subject,
			Discipline:  sc.Discipline,
			Total:       sc.Count,
		})
	}
	return grouped
}

func (s *Server) listSubjects(w http.ResponseWriter, r *http.Request) {
	subjects, err := s.exam.ListSubjects(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"areas": groupByArea(s.areas, subjects)})
}

func (s *Server) startExam(w http.ResponseWriter, r *http.Request) {
	var req startRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	n := app.DefaultSampleSize
	if req.N != nil {
		n = *req.N
	}
	res, err := s.exam.Start(r.Context(), UserID(r.Context()), req.Subjects, n)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]any{
		"session_id": res.SessionID,
		"total":      res.Total,
		"question":   res.Question,
	})
}

func (s *Server) getQuestion(w http.ResponseWriter, r *http.Request) {
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil {
		s.fail(w, r, domain.ErrIndexOutOfRange)
		return
	}
	page, err := s.exam.GetQuestion(r.Context(), UserID(r.Context()), index)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]any{
		"question":     page.Question,
		"prior_answer": page.Answer,
		"index":        page.Index,
		"total":        page.Total,
	})
}

func (s *Server) answer(w http.ResponseWriter, r *http.Request) {
	var req answerRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	out, err := s.exam.Answer(r.Context(), UserID(r.Context()), req.QuestionID, req.Letter)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]any{
		"correct":          out.Correct,
		"correct_letter":   out.CorrectLetter,
		"rationale":        out.Rationale,
		"hint":             out.Hint,
		"formula":          out.Formula,
		"interpretive_tip": out.InterpretiveTip,
	})
}

func (s *Server) finalize(w http.ResponseWriter, r *http.Request) {
	report, err := s.exam.Finalize(r.Context(), UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"report": report})
}

func (s *Server) history(w http.ResponseWriter, r *http.Request) {
	entries, err := s.exam.History(r.Context(), UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if entries == nil {
		entries = []domain.HistoryEntry{}
	}
	ok(w, map[string]any{"entries": entries})
}

func (s *Server) essayPrompts(w http.ResponseWriter, r *http.Request) {
	prompts, err := s.essay.Prompts(r.Context())
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if prompts == nil {
		prompts = []domain.EssayPrompt{}
	}
	ok(w, map[string]any{"prompts": prompts})
}

func (s *Server) gradeEssay(w http.ResponseWriter, r *http.Request) {
	var req gradeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, r, err)
		return
	}
	rubric, err := s.essay.Grade(r.Context(), req.PromptID, req.Text)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"rubric": rubric})
}

func (s *Server) dashboardStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.dashboard.Stats(r.Context(), UserID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	ok(w, map[string]any{"bank": stats.Bank, "user": stats.User})
}
