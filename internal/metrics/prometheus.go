// Package metrics exposes Prometheus collectors for the ingest pipeline and
// aggregates recorded model calls into latency and token statistics.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Cank256/market-mail/internal/defra"
	"github.com/Cank256/market-mail/internal/llmcall"
)

const namespace = "marketmail"

// Outcomes of a submission.
const (
	OutcomeSaved    = "saved"
	OutcomeRejected = "rejected"
	OutcomeFailed   = "failed"
)

// Registry holds every collector the service exports.
type Registry struct {
	reg *prometheus.Registry

	Submissions        *prometheus.CounterVec // source, strategy, outcome
	Items              prometheus.Counter
	ExtractionSeconds  *prometheus.HistogramVec // strategy
	ModelCalls         *prometheus.CounterVec   // provider, model, success
	ModelTokens        *prometheus.CounterVec   // provider, direction
	ModelLatency       *prometheus.HistogramVec // provider
	Notifications      *prometheus.CounterVec   // kind, outcome
	MailboxPolls       *prometheus.CounterVec   // outcome
	LastSubmissionTime prometheus.Gauge
}

// NewRegistry creates a registry with the Go and process collectors and
// every pipeline collector registered.
func NewRegistry() *Registry {
	r := prometheus.NewRegistry()
	r.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Registry{
		reg: r,
		Submissions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Inbound submissions by source, extraction strategy and outcome.",
		}, []string{"source", "strategy", "outcome"}),
		Items: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "price_items_total",
			Help:      "Price items saved.",
		}),
		ExtractionSeconds: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "extraction_duration_seconds",
			Help:      "Time spent extracting a record from an email.",
			Buckets:   []float64{0.001, 0.01, 0.1, 0.5, 1, 2.5, 5, 10, 30},
		}, []string{"strategy"}),
		ModelCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_calls_total",
			Help:      "Fallback model calls by provider, model and success.",
		}, []string{"provider", "model", "success"}),
		ModelTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_tokens_total",
			Help:      "Tokens consumed by fallback model calls.",
		}, []string{"provider", "direction"}),
		ModelLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "model_call_duration_seconds",
			Help:      "Fallback model call latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
		Notifications: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "notifications_total",
			Help:      "Submitter notifications by kind and outcome.",
		}, []string{"kind", "outcome"}),
		MailboxPolls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mailbox_polls_total",
			Help:      "IMAP poll cycles by outcome.",
		}, []string{"outcome"}),
		LastSubmissionTime: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_submission_timestamp_seconds",
			Help:      "Unix time of the last saved submission.",
		}),
	}

	r.MustRegister(
		m.Submissions, m.Items, m.ExtractionSeconds,
		m.ModelCalls, m.ModelTokens, m.ModelLatency,
		m.Notifications, m.MailboxPolls, m.LastSubmissionTime,
	)
	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Registry) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{})
}

// Gatherer exposes the underlying registry, mainly for tests.
func (m *Registry) Gatherer() prometheus.Gatherer {
	return m.reg
}

// ObserveSubmission records one processed submission.
func (m *Registry) ObserveSubmission(source, strategy, outcome string, items int, took time.Duration) {
	if strategy == "" {
		strategy = "none"
	}
	m.Submissions.WithLabelValues(source, strategy, outcome).Inc()
	m.ExtractionSeconds.WithLabelValues(strategy).Observe(took.Seconds())
	if outcome == OutcomeSaved {
		m.Items.Add(float64(items))
		m.LastSubmissionTime.SetToCurrentTime()
	}
}

// ObserveNotification records a notification attempt.
func (m *Registry) ObserveNotification(kind string, err error) {
	outcome := "sent"
	if err != nil {
		outcome = "failed"
	}
	m.Notifications.WithLabelValues(kind, outcome).Inc()
}

// ObservePoll records a mailbox poll cycle.
func (m *Registry) ObservePoll(err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.MailboxPolls.WithLabelValues(outcome).Inc()
}

// ObserveCall records a model call. It matches llmcall.Recorder's observer
// signature.
func (m *Registry) ObserveCall(c *llmcall.Call) {
	success := "false"
	if c.Success {
		success = "true"
	}
	m.ModelCalls.WithLabelValues(c.Provider, c.Model, success).Inc()
	m.ModelTokens.WithLabelValues(c.Provider, "input").Add(float64(c.InputTokens))
	m.ModelTokens.WithLabelValues(c.Provider, "output").Add(float64(c.OutputTokens))
	m.ModelLatency.WithLabelValues(c.Provider).Observe(float64(c.LatencyMs) / 1000)
}

// RegisterSink exports the write sink's counters.
func (m *Registry) RegisterSink(s *defra.Sink) {
	counter := func(name, help string, value func(defra.SinkStats) int64) prometheus.Collector {
		return prometheus.NewCounterFunc(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      name,
			Help:      help,
		}, func() float64 { return float64(value(s.Stats())) })
	}
	m.reg.MustRegister(
		counter("queued_total", "Writes accepted by the sink.", func(st defra.SinkStats) int64 { return st.Queued }),
		counter("written_total", "Writes persisted.", func(st defra.SinkStats) int64 { return st.Written }),
		counter("failed_total", "Writes that failed.", func(st defra.SinkStats) int64 { return st.Failed }),
		counter("dropped_total", "Writes dropped because the queue was full or closed.", func(st defra.SinkStats) int64 { return st.Dropped }),
	)
}
