package metrics

import (
	"net/http"
	"strconv"
	"time"

	"esquematiza/internal/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "esquematiza"

// Metrics holds the Prometheus collectors of the service on a private registry.
type Metrics struct {
	registry *prometheus.Registry

	RequestCounter   *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	RequestsInFlight prometheus.Gauge

	SessionsStarted      prometheus.Counter
	QuestionsSampled     prometheus.Histogram
	AnswersRecorded      *prometheus.CounterVec
	SessionsFinalized    prometheus.Counter
	WeightedScore        prometheus.Histogram
	HistoryAppendFailure prometheus.Counter
}

// New registers the collectors, plus the Go and process collectors, on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		RequestCounter: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: "http",
				Name:      "request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
		RequestsInFlight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "http",
			Name:      "requests_in_flight",
			Help:      "Number of requests currently being processed",
		}),
		SessionsStarted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exam",
			Name:      "sessions_started_total",
			Help:      "Exam sessions started",
		}),
		QuestionsSampled: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "exam",
			Name:      "questions_sampled",
			Help:      "Questions drawn per started session",
			Buckets:   []float64{1, 5, 10, 20, 50, 100, 200},
		}),
		AnswersRecorded: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: "exam",
				Name:      "answers_total",
				Help:      "Answers recorded, by verdict",
			},
			[]string{"correct"},
		),
		SessionsFinalized: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exam",
			Name:      "sessions_finalized_total",
			Help:      "Exam sessions finalized",
		}),
		WeightedScore: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "exam",
			Name:      "weighted_score_pct",
			Help:      "Weighted score of finalized sessions",
			Buckets:   prometheus.LinearBuckets(0, 10, 11),
		}),
		HistoryAppendFailure: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "exam",
			Name:      "history_append_failures_total",
			Help:      "Finalized reports that could not be written to history",
		}),
	}
}

func (m *Metrics) SessionStarted(questions int) {
	m.SessionsStarted.Inc()
	m.QuestionsSampled.Observe(float64(questions))
}

func (m *Metrics) AnswerRecorded(correct bool) {
	m.AnswersRecorded.WithLabelValues(strconv.FormatBool(correct)).Inc()
}

func (m *Metrics) SessionFinalized(r domain.Report) {
	m.SessionsFinalized.Inc()
	m.WeightedScore.Observe(r.WeightedScorePct)
}

func (m *Metrics) HistoryAppendFailed() {
	m.HistoryAppendFailure.Inc()
}

// Handler exposes the registry in the Prometheus text format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Middleware records count and latency per chi route pattern.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		m.RequestsInFlight.Inc()
		defer m.RequestsInFlight.Dec()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.RequestDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
		m.RequestCounter.WithLabelValues(route, strconv.Itoa(status)).Inc()
	})
}
