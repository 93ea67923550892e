package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics records query outcomes on its own registry so several instances can
// coexist in tests.
type Metrics struct {
	reg       *prometheus.Registry
	queries   *prometheus.CounterVec
	durations *prometheus.HistogramVec
	records   *prometheus.GaugeVec
}

// New creates and registers the service collectors.
func New() *Metrics {
	m := &Metrics{reg: prometheus.NewRegistry()}
	m.queries = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "forecast_facts",
		Name:      "queries_total",
		Help:      "Number of queries by operation, transport and outcome",
	}, []string{"operation", "transport", "outcome"})
	m.durations = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "forecast_facts",
		Name:      "query_duration_seconds",
		Help:      "Time spent answering a query",
		Buckets:   prometheus.ExponentialBuckets(0.00001, 4, 8),
	}, []string{"operation"})
	m.records = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "forecast_facts",
		Name:      "dataset_records",
		Help:      "Records loaded into the registry by table",
	}, []string{"table"})

	m.reg.MustRegister(m.queries, m.durations, m.records)
	return m
}

// ObserveQuery counts one query and its latency.
func (m *Metrics) ObserveQuery(operation, transport, outcome string, d time.Duration) {
	m.queries.WithLabelValues(operation, transport, outcome).Inc()
	m.durations.WithLabelValues(operation).Observe(d.Seconds())
}

// SetDatasetSize records how many rows each table holds.
func (m *Metrics) SetDatasetSize(events, gdp int) {
	m.records.WithLabelValues("political_events").Set(float64(events))
	m.records.WithLabelValues("gdp_records").Set(float64(gdp))
}

// Handler serves the exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.reg, promhttp.HandlerOpts{Registry: m.reg})
}

// Registry exposes the underlying registry for tests.
func (m *Metrics) Registry() *prometheus.Registry { return m.reg }
