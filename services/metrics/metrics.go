// Package metricsvc exposes the application counters to Prometheus.
package metricsvc

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/trezcool/bunkguard/core"
)

const namespace = "bunkguard"

type PrometheusMetrics struct {
	registry *prometheus.Registry

	attendanceMarksTotal *prometheus.CounterVec
	dashboardCacheTotal  *prometheus.CounterVec
	alertsSentTotal      *prometheus.CounterVec
}

var _ core.Metrics = (*PrometheusMetrics)(nil)

// NewPrometheusMetrics registers the application counters, along with the Go runtime & process
// collectors, on registry.
func NewPrometheusMetrics(registry *prometheus.Registry) (*PrometheusMetrics, error) {
	m := &PrometheusMetrics{
		registry: registry,
		attendanceMarksTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "attendance_marks_total",
				Help:      "Total number of attendance marks",
			},
			[]string{"status"},
		),
		dashboardCacheTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "dashboard_cache_lookups_total",
				Help:      "Total number of dashboard cache lookups",
			},
			[]string{"result"}, // hit, miss
		),
		alertsSentTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "alerts_sent_total",
				Help:      "Total number of alert emails sent",
			},
			[]string{"kind"},
		),
	}

	for _, c := range []prometheus.Collector{
		m,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := registry.Register(c); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// Describe implements the Collector interface
func (m *PrometheusMetrics) Describe(ch chan<- *prometheus.Desc) {
	m.attendanceMarksTotal.Describe(ch)
	m.dashboardCacheTotal.Describe(ch)
	m.alertsSentTotal.Describe(ch)
}

// Collect implements the Collector interface
func (m *PrometheusMetrics) Collect(ch chan<- prometheus.Metric) {
	m.attendanceMarksTotal.Collect(ch)
	m.dashboardCacheTotal.Collect(ch)
	m.alertsSentTotal.Collect(ch)
}

func (m *PrometheusMetrics) AttendanceMarked(status string) {
	m.attendanceMarksTotal.WithLabelValues(status).Inc()
}

func (m *PrometheusMetrics) DashboardCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.dashboardCacheTotal.WithLabelValues(result).Inc()
}

func (m *PrometheusMetrics) AlertSent(kind string) {
	m.alertsSentTotal.WithLabelValues(kind).Inc()
}

// Handler serves the registry in the Prometheus text format.
func (m *PrometheusMetrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
