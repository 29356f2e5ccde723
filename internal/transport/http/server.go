package http

import (
	"context"
	"net/http"

	"esquematiza/internal/app"
	"esquematiza/internal/domain"
	"esquematiza/internal/i18n"
	"esquematiza/internal/metrics"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// EssayGrader is the essay collaborator used by the REST surface.
type EssayGrader interface {
	Prompts(ctx context.Context) ([]domain.EssayPrompt, error)
	Grade(ctx context.Context, promptID int64, text string) (domain.Rubric, error)
}

// Pinger reports whether the bank is reachable.
type Pinger interface {
	Ping(ctx context.Context) error
}

type Deps struct {
	Exam      *app.ExamService
	Dashboard *app.Dashboard
	Essay     EssayGrader
	Bank      Pinger
	Areas     domain.AreaTable
	Catalog   *i18n.Catalog
	Metrics   *metrics.Metrics
	Log       logrus.FieldLogger
	// AllowedOrigins feeds CORS; empty allows any origin.
	AllowedOrigins []string
}

// Server holds the handlers of the REST and websocket surfaces.
type Server struct {
	exam      *app.ExamService
	dashboard *app.Dashboard
	essay     EssayGrader
	bank      Pinger
	areas     domain.AreaTable
	catalog   *i18n.Catalog
	metrics   *metrics.Metrics
	log       logrus.FieldLogger
	upgrader  websocket.Upgrader
	origins   []string
}

func NewServer(d Deps) *Server {
	origins := d.AllowedOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}
	return &Server{
		exam:      d.Exam,
		dashboard: d.Dashboard,
		essay:     d.Essay,
		bank:      d.Bank,
		areas:     d.Areas,
		catalog:   d.Catalog,
		metrics:   d.Metrics,
		log:       d.Log,
		origins:   origins,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
	}
}

// Router builds the chi router with every route and middleware.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(accessLog(s.log))
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.origins,
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Accept-Language", "Content-Type", userHeader},
		AllowCredentials: false,
		MaxAge:           300,
	}))
	r.Use(s.catalog.Middleware)

	r.Get("/healthz", s.healthz)
	r.Method(http.MethodGet, "/metrics", s.metrics.Handler())

	r.Group(func(r chi.Router) {
		r.Use(identity)

		r.Get("/ws", s.ServeWS)

		r.Route("/api", func(r chi.Router) {
			r.Get("/subjects", s.listSubjects)

			r.Route("/exam", func(r chi.Router) {
				r.Post("/start", s.startExam)
				r.Get("/question/{index}", s.getQuestion)
				r.Post("/answer", s.answer)
				r.Post("/finalize", s.finalize)
				r.Get("/history", s.history)
			})

			r.Route("/essay", func(r chi.Router) {
				r.Get("/prompts", s.essayPrompts)
				r.Post("/grade", s.gradeEssay)
			})

			r.Get("/dashboard/stats", s.dashboardStats)
		})
	})
	return r
}

func (s *Server) healthz(w http.ResponseWriter, r *http.Request) {
	if err := s.bank.Ping(r.Context()); err != nil {
		s.log.WithError(err).Warn("health check failed")
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{"status": "unavailable"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"status": "ok"})
}
