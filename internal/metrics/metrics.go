// Package metrics exposes session statistics and HTTP request metrics to
// Prometheus.
package metrics

import (
	"net/http"
	"sort"

	"sessionlog/internal/model"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "sessionlog"

// StatsSource supplies the statistics to export. It must not record anything
// when read.
type StatsSource interface {
	Stats() model.Stats
}

// Collector reads a fresh snapshot from its source on every scrape.
type Collector struct {
	src StatsSource

	entries     *prometheus.Desc
	byLevel     *prometheus.Desc
	byCategory  *prometheus.Desc
	utilization *prometheus.Desc
	memory      *prometheus.Desc
	maxEntries  *prometheus.Desc
	enabled     *prometheus.Desc
	duration    *prometheus.Desc
}

// NewCollector returns a collector over src.
func NewCollector(src StatsSource) *Collector {
	return &Collector{
		src: src,
		entries: prometheus.NewDesc(namespace+"_entries",
			"Entries currently held in the session store.", nil, nil),
		byLevel: prometheus.NewDesc(namespace+"_entries_by_level",
			"Stored entries per level.", []string{"level"}, nil),
		byCategory: prometheus.NewDesc(namespace+"_entries_by_category",
			"Stored entries per category.", []string{"category"}, nil),
		utilization: prometheus.NewDesc(namespace+"_buffer_utilization_ratio",
			"Stored entries divided by store capacity.", nil, nil),
		memory: prometheus.NewDesc(namespace+"_estimated_memory_bytes",
			"Estimated memory held by stored entries.", nil, nil),
		maxEntries: prometheus.NewDesc(namespace+"_max_entries",
			"Store capacity.", nil, nil),
		enabled: prometheus.NewDesc(namespace+"_enabled",
			"1 while leveled logging records entries.", nil, nil),
		duration: prometheus.NewDesc(namespace+"_session_duration_seconds",
			"Time since the current session started.", nil, nil),
	}
}

// Describe implements prometheus.Collector.
func (c *Collector) Describe(ch chan<- *prometheus.Desc) {
	ch <- c.entries
	ch <- c.byLevel
	ch <- c.byCategory
	ch <- c.utilization
	ch <- c.memory
	ch <- c.maxEntries
	ch <- c.enabled
	ch <- c.duration
}

// Collect implements prometheus.Collector.
func (c *Collector) Collect(ch chan<- prometheus.Metric) {
	s := c.src.Stats()

	ch <- prometheus.MustNewConstMetric(c.entries, prometheus.GaugeValue, float64(s.TotalEntries))
	for _, level := range model.Levels {
		ch <- prometheus.MustNewConstMetric(c.byLevel, prometheus.GaugeValue, float64(s.ByLevel[level]), string(level))
	}
	categories := make([]string, 0, len(s.ByCategory))
	for category := range s.ByCategory {
		categories = append(categories, category)
	}
	sort.Strings(categories)
	for _, category := range categories {
		ch <- prometheus.MustNewConstMetric(c.byCategory, prometheus.GaugeValue, float64(s.ByCategory[category]), category)
	}
	ch <- prometheus.MustNewConstMetric(c.utilization, prometheus.GaugeValue, s.BufferUtilization)
	ch <- prometheus.MustNewConstMetric(c.memory, prometheus.GaugeValue, float64(s.EstimatedMemoryBytes))
	ch <- prometheus.MustNewConstMetric(c.maxEntries, prometheus.GaugeValue, float64(s.MaxEntries))
	ch <- prometheus.MustNewConstMetric(c.enabled, prometheus.GaugeValue, boolFloat(s.Enabled))
	ch <- prometheus.MustNewConstMetric(c.duration, prometheus.GaugeValue, s.SessionDuration.Seconds())
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}

// Metrics owns a registry holding the session collector and request metrics.
type Metrics struct {
	registry *prometheus.Registry

	// RequestTotal counts HTTP requests by method, route and status.
	RequestTotal *prometheus.CounterVec
	// RequestDuration is the latency of HTTP requests.
	RequestDuration *prometheus.HistogramVec
}

// New registers a collector over src and the request metrics on a fresh
// registry.
func New(src StatsSource) *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewCollector(src))
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		RequestTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total number of HTTP requests",
			},
			[]string{"method", "route", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request latency in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"method", "route"},
		),
	}
}

// Registry returns the underlying registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
