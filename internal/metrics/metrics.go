// Package metrics collects per-run counters for batch and search runs and
// writes them in the Prometheus textfile format.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics provides observability for one run. A nil *Metrics is valid and
// records nothing.
type Metrics struct {
	reg *prometheus.Registry

	// Hives processed, by outcome: "ok", "skipped", "failed"
	Hives *prometheus.CounterVec

	// Output rows by kind: "value", "plugin"
	Rows *prometheus.CounterVec

	// Search hits by region
	Hits *prometheus.CounterVec

	PluginErrors prometheus.Counter
	SkippedRules prometheus.Counter

	HiveDuration prometheus.Histogram
}

// New creates a Metrics instance on its own registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	f := promauto.With(reg)
	return &Metrics{
		reg: reg,
		Hives: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hivebatch_hives_total",
			Help: "Hives processed by outcome",
		}, []string{"outcome"}),

		Rows: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hivebatch_rows_total",
			Help: "Batch output rows by kind",
		}, []string{"kind"}),

		Hits: f.NewCounterVec(prometheus.CounterOpts{
			Name: "hivebatch_search_hits_total",
			Help: "Search hits by region",
		}, []string{"region"}),

		PluginErrors: f.NewCounter(prometheus.CounterOpts{
			Name: "hivebatch_plugin_errors_total",
			Help: "Errors reported or raised by plugins",
		}),

		SkippedRules: f.NewCounter(prometheus.CounterOpts{
			Name: "hivebatch_skipped_rules_total",
			Help: "Rules skipped because their key or value was missing",
		}),

		HiveDuration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "hivebatch_hive_duration_seconds",
			Help:    "Time spent processing one hive",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		}),
	}
}

// Registry returns the registry holding every metric.
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.reg
}

// HiveDone records the outcome and duration of one hive.
func (m *Metrics) HiveDone(outcome string, d time.Duration) {
	if m != nil {
		m.Hives.WithLabelValues(outcome).Inc()
		m.HiveDuration.Observe(d.Seconds())
	}
}

// AddRows records batch rows.
func (m *Metrics) AddRows(values, plugins int) {
	if m != nil {
		m.Rows.WithLabelValues("value").Add(float64(values))
		m.Rows.WithLabelValues("plugin").Add(float64(plugins))
	}
}

// AddHits records search hits found in region.
func (m *Metrics) AddHits(region string, n int) {
	if m != nil && n > 0 {
		m.Hits.WithLabelValues(region).Add(float64(n))
	}
}

// AddPluginErrors records plugin failures.
func (m *Metrics) AddPluginErrors(n int) {
	if m != nil && n > 0 {
		m.PluginErrors.Add(float64(n))
	}
}

// AddSkippedRules records rules skipped for missing keys or values.
func (m *Metrics) AddSkippedRules(n int) {
	if m != nil && n > 0 {
		m.SkippedRules.Add(float64(n))
	}
}

// WriteFile writes every metric to path in the textfile collector format.
func (m *Metrics) WriteFile(path string) error {
	if m == nil {
		return nil
	}
	return prometheus.WriteToTextfile(path, m.reg)
}
