// Package metrics exposes Prometheus metrics for chat turns, rendering and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Turn outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeTransport = "transport_error"
	OutcomeRejected  = "rejected"
)

// Recorder owns the service metrics. A nil *Recorder records nothing.
type Recorder struct {
	namespace string
	buckets   []float64
	registry  *prometheus.Registry

	turns          *prometheus.CounterVec
	turnDuration   prometheus.Histogram
	renderDuration *prometheus.HistogramVec
	renderErrors   prometheus.Counter
	agentErrors    *prometheus.CounterVec
	activeSessions prometheus.Gauge
	atsScore       prometheus.Histogram

	httpRequests        *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec
}

// Option configures a Recorder.
type Option func(*Recorder)

// WithNamespace sets the metric namespace.
func WithNamespace(namespace string) Option {
	return func(r *Recorder) {
		if namespace != "" {
			r.namespace = namespace
		}
	}
}

// WithHistogramBuckets sets latency buckets in seconds.
func WithHistogramBuckets(buckets []float64) Option {
	return func(r *Recorder) {
		if len(buckets) > 0 {
			r.buckets = buckets
		}
	}
}

// WithRegistry registers metrics on registry instead of a fresh one.
func WithRegistry(registry *prometheus.Registry) Option {
	return func(r *Recorder) {
		if registry != nil {
			r.registry = registry
		}
	}
}

// New creates a Recorder on its own registry.
func New(opts ...Option) *Recorder {
	r := &Recorder{
		namespace: "resume_builder",
		buckets:   prometheus.DefBuckets,
		registry:  prometheus.NewRegistry(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.init()
	return r
}

func (r *Recorder) init() {
	auto := promauto.With(r.registry)

	r.turns = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "chat_turns_total",
		Help:      "Chat turns by outcome",
	}, []string{"outcome"})

	r.turnDuration = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "chat_turn_duration_seconds",
		Help:      "Time from sending a turn to the agent until the document is rendered",
		Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 40, 80, 160},
	})

	r.renderDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "render_duration_seconds",
		Help:      "Template render time by layout",
		Buckets:   r.buckets,
	}, []string{"template"})

	r.renderErrors = auto.NewCounter(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "render_errors_total",
		Help:      "Failed template renders",
	})

	r.agentErrors = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "agent_errors_total",
		Help:      "Agent transport failures by upstream status",
	}, []string{"status"})

	r.activeSessions = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: r.namespace,
		Name:      "active_sessions",
		Help:      "Open builder sessions",
	})

	r.atsScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "ats_score_percent",
		Help:      "Reported ATS scores",
		Buckets:   prometheus.LinearBuckets(10, 10, 9),
	})

	r.httpRequests = auto.NewCounterVec(prometheus.CounterOpts{
		Namespace: r.namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status code",
	}, []string{"route", "method", "status_code"})

	r.httpRequestDuration = auto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: r.namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request duration",
		Buckets:   r.buckets,
	}, []string{"route", "method"})
}

// Registry returns the registry the metrics live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// RecordTurn counts a finished chat turn.
func (r *Recorder) RecordTurn(outcome string, d time.Duration) {
	if r == nil {
		return
	}
	r.turns.WithLabelValues(outcome).Inc()
	if outcome == OutcomeSuccess {
		r.turnDuration.Observe(d.Seconds())
	}
}

// RecordRender observes one template render.
func (r *Recorder) RecordRender(template string, d time.Duration, err error) {
	if r == nil {
		return
	}
	r.renderDuration.WithLabelValues(template).Observe(d.Seconds())
	if err != nil {
		r.renderErrors.Inc()
	}
}

// RecordAgentError counts an agent failure. status is 0 for network errors.
func (r *Recorder) RecordAgentError(status int) {
	if r == nil {
		return
	}
	label := "network"
	if status > 0 {
		label = http.StatusText(status)
		if label == "" {
			label = "unknown"
		}
	}
	r.agentErrors.WithLabelValues(label).Inc()
}

// RecordATSScore observes a reported score in percent.
func (r *Recorder) RecordATSScore(percent float64) {
	if r == nil {
		return
	}
	r.atsScore.Observe(percent)
}

// SessionOpened increments the active session gauge.
func (r *Recorder) SessionOpened() {
	if r == nil {
		return
	}
	r.activeSessions.Inc()
}

// SessionClosed decrements the active session gauge.
func (r *Recorder) SessionClosed() {
	if r == nil {
		return
	}
	r.activeSessions.Dec()
}

// RecordHTTPRequest counts an HTTP request. route is the matched mux pattern.
func (r *Recorder) RecordHTTPRequest(route, method string, status int, d time.Duration) {
	if r == nil {
		return
	}
	r.httpRequests.WithLabelValues(route, method, statusLabel(status)).Inc()
	r.httpRequestDuration.WithLabelValues(route, method).Observe(d.Seconds())
}

func statusLabel(status int) string {
	if status == 0 {
		status = http.StatusOK
	}
	return strconv.Itoa(status)
}
