// Package metrics holds the Prometheus collectors exposed on /metrics.
package metrics

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/vnkhanh/e-flashcard-backend/services/llm"
)

var (
	httpRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flashcards_http_requests_total",
			Help: "HTTP requests by method, route template and status.",
		},
		[]string{"method", "route", "status"},
	)

	httpRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flashcards_http_request_duration_seconds",
			Help:    "HTTP request latency by method and route template.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	generationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flashcards_generations_total",
			Help: "Generation requests by outcome code (ok or an error code).",
		},
		[]string{"outcome"},
	)

	completionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "flashcards_completion_duration_seconds",
			Help:    "Completion call latency by provider and result.",
			Buckets: []float64{0.5, 1, 2, 5, 10, 20, 30, 60, 120},
		},
		[]string{"provider", "result"},
	)

	flashcardsPersisted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flashcards_persisted_total",
			Help: "Flashcards written by bulk saves, by source.",
		},
		[]string{"source"},
	)
)

func ObserveHTTP(method, route string, status int, elapsed time.Duration) {
	httpRequestsTotal.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
	httpRequestDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordGeneration counts one generation attempt. outcome is "ok" or an error code.
func RecordGeneration(outcome string) {
	generationsTotal.WithLabelValues(outcome).Inc()
}

func AddPersisted(source string, n int) {
	if n > 0 {
		flashcardsPersisted.WithLabelValues(source).Add(float64(n))
	}
}

// InstrumentedCompleter times every completion call of the wrapped client.
type InstrumentedCompleter struct {
	next llm.Completer
}

func InstrumentCompleter(next llm.Completer) *InstrumentedCompleter {
	return &InstrumentedCompleter{next: next}
}

func (c *InstrumentedCompleter) Provider() string { return c.next.Provider() }

func (c *InstrumentedCompleter) Complete(ctx context.Context, req llm.ChatRequest) (string, error) {
	start := time.Now()
	content, err := c.next.Complete(ctx, req)
	completionDuration.WithLabelValues(c.next.Provider(), completionResult(err)).Observe(time.Since(start).Seconds())
	return content, err
}

func completionResult(err error) string {
	var (
		transport *llm.TransportError
		upstream  *llm.UpstreamError
		malformed *llm.MalformedResponseError
	)
	switch {
	case err == nil:
		return "ok"
	case errors.As(err, &transport):
		return "transport_error"
	case errors.As(err, &upstream):
		return "upstream_error"
	case errors.As(err, &malformed):
		return "malformed_response"
	}
	return "error"
}
