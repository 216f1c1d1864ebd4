package bench

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pior/mctext"
)

// Exporter publishes request metrics for Prometheus. It implements Observer.
type Exporter struct {
	registry *prometheus.Registry
	duration *prometheus.HistogramVec
	requests *prometheus.CounterVec
}

var _ Observer = (*Exporter)(nil)

// NewExporter creates an exporter with its own registry.
func NewExporter() *Exporter {
	registry := prometheus.NewRegistry()

	e := &Exporter{
		registry: registry,
		duration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "mctext_request_duration_seconds",
				Help:    "Duration of memcache requests",
				Buckets: prometheus.ExponentialBuckets(0.00001, 2, 16), // 10µs to ~330ms
			},
			[]string{"op"},
		),
		requests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "mctext_requests_total",
				Help: "Total number of memcache requests",
			},
			[]string{"op", "outcome"},
		),
	}

	registry.MustRegister(e.duration, e.requests)
	return e
}

// Observe records one request.
func (e *Exporter) Observe(op string, d time.Duration, outcome string) {
	e.duration.WithLabelValues(op).Observe(d.Seconds())
	e.requests.WithLabelValues(op, outcome).Inc()
}

// RegisterClient exposes the counters of client.
func (e *Exporter) RegisterClient(client *mctext.Client) {
	counter := func(name, help string, value func(mctext.ClientStats) uint64) prometheus.Collector {
		return prometheus.NewCounterFunc(
			prometheus.CounterOpts{
				Name:        name,
				Help:        help,
				ConstLabels: prometheus.Labels{"server": client.Addr()},
			},
			func() float64 { return float64(value(client.Counters())) },
		)
	}

	e.registry.MustRegister(
		counter("mctext_client_gets_total", "Get operations", func(s mctext.ClientStats) uint64 { return s.Gets }),
		counter("mctext_client_get_hits_total", "Get operations that found the key", func(s mctext.ClientStats) uint64 { return s.GetHits }),
		counter("mctext_client_sets_total", "Set operations", func(s mctext.ClientStats) uint64 { return s.Sets }),
		counter("mctext_client_errors_total", "Operations that returned an error", func(s mctext.ClientStats) uint64 { return s.Errors }),
		counter("mctext_client_sent_bytes_total", "Bytes written to the server", func(s mctext.ClientStats) uint64 { return s.BytesSent }),
		counter("mctext_client_received_bytes_total", "Bytes read from the server", func(s mctext.ClientStats) uint64 { return s.BytesReceived }),
	)
}

// Handler returns an HTTP handler for the /metrics endpoint
func (e *Exporter) Handler() http.Handler {
	return promhttp.HandlerFor(e.registry, promhttp.HandlerOpts{})
}

// ServeHTTP starts the metrics HTTP server
func (e *Exporter) ServeHTTP(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", e.Handler())
	return http.ListenAndServe(addr, mux)
}
