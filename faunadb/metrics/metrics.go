// Package metrics exports request counters and latencies of a connection
// to Prometheus.
package metrics

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/krew-solutions/faunadb-go/faunadb/connection"
	"github.com/krew-solutions/faunadb-go/faunadb/signals"
)

const statusTransportError = "transport_error"

type Metrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
	inFlight prometheus.Gauge
}

// New registers the collectors with reg. Registering twice with the same
// registry panics, as with promauto.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		requests: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "faunadb_client_requests_total",
				Help: "Total number of query requests by response status",
			},
			[]string{"status"},
		),
		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "faunadb_client_request_duration_seconds",
				Help:    "Query request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"status"},
		),
		inFlight: factory.NewGauge(prometheus.GaugeOpts{
			Name: "faunadb_client_requests_in_flight",
			Help: "Query requests sent and not yet answered",
		}),
	}
}

// Observe starts recording the requests of conn until the returned
// Disposable is disposed.
func (m *Metrics) Observe(conn *connection.Connection) signals.Disposable {
	started := conn.OnRequestStarted().Attach(m.requestStarted, m)
	ended := conn.OnRequestEnded().Attach(m.requestEnded, m)
	return disposables{started, ended}
}

func (m *Metrics) requestStarted(connection.RequestStartedEvent) error {
	m.inFlight.Inc()
	return nil
}

func (m *Metrics) requestEnded(e connection.RequestEndedEvent) error {
	m.inFlight.Dec()
	status := statusTransportError
	if e.RequestView.Status != nil {
		status = strconv.Itoa(*e.RequestView.Status)
	}
	m.requests.WithLabelValues(status).Inc()
	if e.RequestView.ResponseTime != nil {
		m.duration.WithLabelValues(status).Observe(e.RequestView.ResponseTime.Seconds())
	}
	return nil
}

type disposables []signals.Disposable

func (d disposables) Dispose() {
	for _, item := range d {
		item.Dispose()
	}
}
