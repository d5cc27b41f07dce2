// SPDX-License-Identifier: AGPL-3.0-only
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds every collector the service exports on /metrics.
// A nil *Metrics is valid and records nothing.
type Metrics struct {
	HTTPRequestsTotal   *prometheus.CounterVec
	HTTPRequestDuration *prometheus.HistogramVec

	SyncsTotal     *prometheus.CounterVec
	SyncDuration   *prometheus.HistogramVec
	UpstreamErrors *prometheus.CounterVec

	OAuthConnectsTotal *prometheus.CounterVec

	ReportsGenerated *prometheus.CounterVec
	ReportExports    *prometheus.CounterVec
}

func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialpulse_http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socialpulse_http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),
		SyncsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialpulse_account_syncs_total",
				Help: "Account syncs by platform and result",
			},
			[]string{"platform", "result"},
		),
		SyncDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "socialpulse_account_sync_duration_seconds",
				Help:    "Duration of a single account sync",
				Buckets: []float64{0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
			},
			[]string{"platform"},
		),
		UpstreamErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialpulse_upstream_errors_total",
				Help: "Failed calls to platform APIs",
			},
			[]string{"platform", "operation"},
		),
		OAuthConnectsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialpulse_oauth_connects_total",
				Help: "OAuth connect attempts by platform and outcome",
			},
			[]string{"platform", "result"},
		),
		ReportsGenerated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialpulse_reports_generated_total",
				Help: "Reports generated by type",
			},
			[]string{"report_type"},
		),
		ReportExports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "socialpulse_report_exports_total",
				Help: "Report exports by format",
			},
			[]string{"format"},
		),
	}
}

func (m *Metrics) ObserveHTTP(method, path string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, statusLabel(status)).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

func (m *Metrics) ObserveSync(platform, result string, d time.Duration) {
	if m == nil {
		return
	}
	m.SyncsTotal.WithLabelValues(platform, result).Inc()
	m.SyncDuration.WithLabelValues(platform).Observe(d.Seconds())
}

func (m *Metrics) UpstreamError(platform, operation string) {
	if m == nil {
		return
	}
	m.UpstreamErrors.WithLabelValues(platform, operation).Inc()
}

func (m *Metrics) OAuthConnect(platform, result string) {
	if m == nil {
		return
	}
	m.OAuthConnectsTotal.WithLabelValues(platform, result).Inc()
}

func (m *Metrics) ReportGenerated(reportType string) {
	if m == nil {
		return
	}
	m.ReportsGenerated.WithLabelValues(reportType).Inc()
}

func (m *Metrics) ReportExported(format string) {
	if m == nil {
		return
	}
	m.ReportExports.WithLabelValues(format).Inc()
}

// statusLabel keeps the numeric code so queries like status=~"5.." work.
func statusLabel(status int) string {
	if status < 100 || status > 599 {
		return "unknown"
	}
	return strconv.Itoa(status)
}
