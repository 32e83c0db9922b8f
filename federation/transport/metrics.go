package transport

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds Prometheus metrics for subgraph calls.
type Metrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewMetrics registers the transport metrics on reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "graphql_composer",
			Subsystem: "subgraph",
			Name:      "requests_total",
			Help:      "Total number of requests sent to subgraphs",
		}, []string{"url", "kind", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "graphql_composer",
			Subsystem: "subgraph",
			Name:      "request_duration_seconds",
			Help:      "Duration of requests sent to subgraphs",
			Buckets:   prometheus.DefBuckets,
		}, []string{"url", "kind"}),
	}
	if reg != nil {
		reg.MustRegister(m.requestsTotal, m.requestDuration)
	}
	return m
}

func (m *Metrics) observe(url, kind string, start time.Time, err error) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.requestsTotal.WithLabelValues(url, kind, status).Inc()
	m.requestDuration.WithLabelValues(url, kind).Observe(time.Since(start).Seconds())
}
