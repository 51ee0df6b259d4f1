package graphql

import (
	"errors"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcome labels recorded per operation.
const (
	outcomeOK        = "ok"
	outcomeRemote    = "remote_error"
	outcomeTransport = "transport_error"
)

// Metrics records request counts and latencies per operation.
type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewMetrics registers the GraphQL client collectors with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "patient_console_graphql_requests_total",
			Help: "GraphQL operations sent to the patient service, by outcome.",
		}, []string{"operation", "outcome"}),
		duration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "patient_console_graphql_request_duration_seconds",
			Help:    "Latency of GraphQL operations sent to the patient service.",
			Buckets: prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) observe(operation string, started time.Time, err error) {
	if m == nil {
		return
	}
	m.duration.WithLabelValues(operation).Observe(time.Since(started).Seconds())
	m.requests.WithLabelValues(operation, outcomeOf(err)).Inc()
}

func outcomeOf(err error) string {
	var remote *RemoteError
	switch {
	case err == nil:
		return outcomeOK
	case errors.As(err, &remote):
		return outcomeRemote
	default:
		return outcomeTransport
	}
}
