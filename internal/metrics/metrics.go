// Package metrics provides Prometheus metrics for the support chat backend.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Turn outcomes.
const (
	OutcomeOK          = "ok"
	OutcomeSubstituted = "substituted"
	OutcomeFailed      = "failed"
)

// Metrics is safe to use as a nil pointer; every method is then a no-op.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec
	TurnsTotal          *prometheus.CounterVec
	ReplyErrorsTotal    *prometheus.CounterVec
	ReplyDuration       *prometheus.HistogramVec
	ConversationsTotal  prometheus.Counter
}

// New creates the metrics and registers them on reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quickshop_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quickshop_http_request_duration_seconds",
				Help:    "Duration of HTTP requests in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
		TurnsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quickshop_chat_turns_total",
				Help: "Chat turns by outcome",
			},
			[]string{"outcome"},
		),
		ReplyErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "quickshop_reply_errors_total",
				Help: "Classified reply generator failures",
			},
			[]string{"kind"},
		),
		ReplyDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "quickshop_reply_duration_seconds",
				Help:    "Time spent producing a reply",
				Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10, 20, 30},
			},
			[]string{"provider"},
		),
		ConversationsTotal: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "quickshop_conversations_created_total",
				Help: "Conversations created",
			},
		),
	}
}

func (m *Metrics) RecordHTTPRequest(method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}

func (m *Metrics) RecordTurn(outcome string) {
	if m == nil {
		return
	}
	m.TurnsTotal.WithLabelValues(outcome).Inc()
}

func (m *Metrics) RecordReplyError(kind string) {
	if m == nil {
		return
	}
	m.ReplyErrorsTotal.WithLabelValues(kind).Inc()
}

func (m *Metrics) RecordReply(provider string, duration time.Duration) {
	if m == nil {
		return
	}
	m.ReplyDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func (m *Metrics) RecordConversationCreated() {
	if m == nil {
		return
	}
	m.ConversationsTotal.Inc()
}
