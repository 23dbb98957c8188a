package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector the service exports. A nil *Metrics is
// valid and records nothing, which keeps tests free of registry setup.
type Metrics struct {
	registry *prometheus.Registry

	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
	llmRequests       *prometheus.CounterVec
	llmDuration       *prometheus.HistogramVec
	llmTokens         *prometheus.CounterVec
	quizzesGenerated  *prometheus.CounterVec
	submissions       *prometheus.CounterVec
	submissionScores  prometheus.Histogram
	notifications     *prometheus.CounterVec
	leaderboardLookup *prometheus.CounterVec
}

func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.05, 0.1, 0.5, 1, 2, 5, 10, 30},
		}, []string{"method", "route"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_requests_total",
			Help: "Provider calls by purpose and outcome",
		}, []string{"provider", "purpose", "outcome"}),
		llmDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "llm_request_duration_seconds",
			Help:    "Latency of single provider calls",
			Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20, 40},
		}, []string{"provider", "purpose"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "llm_tokens_total",
			Help: "Tokens consumed by direction",
		}, []string{"provider", "direction"}),
		quizzesGenerated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quizzes_generated_total",
			Help: "Quizzes persisted by subject",
		}, []string{"subject"}),
		submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "quiz_submissions_total",
			Help: "Graded submissions by subject",
		}, []string{"subject"}),
		submissionScores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "quiz_submission_score",
			Help:    "Distribution of submission scores",
			Buckets: []float64{0, 20, 40, 60, 80, 90, 100},
		}),
		notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "notifications_sent_total",
			Help: "Result notification deliveries by outcome",
		}, []string{"outcome"}),
		leaderboardLookup: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "leaderboard_cache_lookups_total",
			Help: "Leaderboard cache lookups by result",
		}, []string{"result"}),
	}

	reg.MustRegister(
		m.httpRequests, m.httpDuration,
		m.llmRequests, m.llmDuration, m.llmTokens,
		m.quizzesGenerated, m.submissions, m.submissionScores,
		m.notifications, m.leaderboardLookup,
	)
	return m
}

// Handler serves the registry for scraping.
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

func (m *Metrics) ObserveHTTP(method, route, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, status).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func (m *Metrics) ObserveLLM(provider, purpose, outcome string, d time.Duration, inputTokens, outputTokens int) {
	if m == nil {
		return
	}
	m.llmRequests.WithLabelValues(provider, purpose, outcome).Inc()
	m.llmDuration.WithLabelValues(provider, purpose).Observe(d.Seconds())
	if inputTokens > 0 {
		m.llmTokens.WithLabelValues(provider, "input").Add(float64(inputTokens))
	}
	if outputTokens > 0 {
		m.llmTokens.WithLabelValues(provider, "output").Add(float64(outputTokens))
	}
}

func (m *Metrics) QuizGenerated(subject string) {
	if m == nil {
		return
	}
	m.quizzesGenerated.WithLabelValues(subject).Inc()
}

func (m *Metrics) SubmissionGraded(subject string, score float64) {
	if m == nil {
		return
	}
	m.submissions.WithLabelValues(subject).Inc()
	m.submissionScores.Observe(score)
}

func (m *Metrics) NotificationSent(outcome string) {
	if m == nil {
		return
	}
	m.notifications.WithLabelValues(outcome).Inc()
}

func (m *Metrics) LeaderboardLookup(result string) {
	if m == nil {
		return
	}
	m.leaderboardLookup.WithLabelValues(result).Inc()
}
