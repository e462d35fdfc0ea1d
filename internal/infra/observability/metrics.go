package observability

import (
	"time"

	"github.com/boddenberg/travel-agency-bfa-go/internal/domain"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	dto "github.com/prometheus/client_model/go"
)

// Metrics holds all Prometheus metrics for the agency back office.
type Metrics struct {
	// Registry is the Prometheus registry that owns these metrics.
	// Exposed so the /metrics endpoint can use it.
	Registry *prometheus.Registry

	requestDuration    *prometheus.HistogramVec
	requestsTotal      *prometheus.CounterVec
	externalErrors     *prometheus.CounterVec
	cacheHits          *prometheus.CounterVec
	cacheMisses        *prometheus.CounterVec
	automationRuns     *prometheus.CounterVec
	automationDuration prometheus.Histogram
	alertsCreated      *prometheus.CounterVec
	recordIssues       *prometheus.CounterVec
	lastRun            prometheus.Gauge
}

// NewMetrics creates a dedicated Prometheus registry and registers all
// application metrics in it. Using a private registry avoids "duplicate
// collector" panics when NewMetrics is called more than once (e.g. in tests).
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)

	return &Metrics{
		Registry: reg,

		requestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agency_request_duration_seconds",
				Help:    "Duration of HTTP requests by route.",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		requestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agency_requests_total",
				Help: "Total HTTP requests by status class.",
			},
			[]string{"status"},
		),
		externalErrors: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agency_external_errors_total",
				Help: "Total errors from stores and notifiers.",
			},
			[]string{"service"},
		),
		cacheHits: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agency_cache_hits_total",
				Help: "Total report cache hits.",
			},
			[]string{"cache"},
		),
		cacheMisses: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agency_cache_misses_total",
				Help: "Total report cache misses.",
			},
			[]string{"cache"},
		),
		automationRuns: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agency_automation_runs_total",
				Help: "Reconciliation passes by outcome.",
			},
			[]string{"result"},
		),
		automationDuration: factory.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "agency_automation_duration_seconds",
				Help:    "Duration of reconciliation passes, persistence included.",
				Buckets: prometheus.DefBuckets,
			},
		),
		alertsCreated: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agency_alerts_created_total",
				Help: "Alerts created by reconciliation, by type.",
			},
			[]string{"type"},
		),
		recordIssues: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agency_record_issues_total",
				Help: "Malformed records reported by reconciliation.",
			},
			[]string{"collection"},
		),
		lastRun: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "agency_automation_last_run_timestamp_seconds",
				Help: "Unix time of the last successful reconciliation pass.",
			},
		),
	}
}

// RecordRequestDuration records the duration of an operation.
func (m *Metrics) RecordRequestDuration(operation string, d time.Duration) {
	m.requestDuration.WithLabelValues(operation).Observe(d.Seconds())
}

// IncrRequest increments the request counter with a status label.
func (m *Metrics) IncrRequest(status string) {
	m.requestsTotal.WithLabelValues(status).Inc()
}

// IncrExternalError increments the external error counter.
func (m *Metrics) IncrExternalError(service string) {
	m.externalErrors.WithLabelValues(service).Inc()
}

// IncrCacheHit increments the cache hit counter.
func (m *Metrics) IncrCacheHit(cache string) {
	m.cacheHits.WithLabelValues(cache).Inc()
}

// IncrCacheMiss increments the cache miss counter.
func (m *Metrics) IncrCacheMiss(cache string) {
	m.cacheMisses.WithLabelValues(cache).Inc()
}

// RecordAutomationRun records the outcome of one reconciliation pass.
func (m *Metrics) RecordAutomationRun(d time.Duration, err error) {
	m.automationDuration.Observe(d.Seconds())
	if err != nil {
		m.automationRuns.WithLabelValues("error").Inc()
		return
	}
	m.automationRuns.WithLabelValues("success").Inc()
	m.lastRun.SetToCurrentTime()
}

// RecordAlerts counts newly created alerts by type.
func (m *Metrics) RecordAlerts(alerts []domain.Alert) {
	for _, a := range alerts {
		m.alertsCreated.WithLabelValues(string(a.Type)).Inc()
	}
}

// RecordIssues counts malformed records by collection.
func (m *Metrics) RecordIssues(issues []domain.RecordError) {
	for _, is := range issues {
		m.recordIssues.WithLabelValues(is.Collection).Inc()
	}
}

// AutomationSnapshot returns cumulative automation counters for the
// GET /v1/automation/metrics endpoint.
func (m *Metrics) AutomationSnapshot() *domain.AutomationMetrics {
	success := getCounterValue(m.automationRuns, "success")
	failed := getCounterValue(m.automationRuns, "error")

	alerts := float64(0)
	for _, t := range []domain.AlertType{
		domain.AlertCheckinToday, domain.AlertCheckinTomorrow, domain.AlertCheckinSoon,
		domain.AlertClientInactive, domain.AlertGoalReached,
	} {
		alerts += getCounterValue(m.alertsCreated, string(t))
	}

	hits := getCounterValue(m.cacheHits, "reports")
	misses := getCounterValue(m.cacheMisses, "reports")
	hitRate := float64(0)
	if hits+misses > 0 {
		hitRate = hits / (hits + misses)
	}

	errorRate := float64(0)
	if success+failed > 0 {
		errorRate = failed / (success + failed)
	}

	return &domain.AutomationMetrics{
		Runs:          int64(success + failed),
		FailedRuns:    int64(failed),
		ErrorRate:     errorRate,
		AlertsCreated: int64(alerts),
		RecordIssues:  int64(getCounterValue(m.recordIssues, "bookings") + getCounterValue(m.recordIssues, "clients")),
		CacheHitRate:  hitRate,
		Period:        "all_time",
	}
}

// getCounterValue extracts the current float64 value from a CounterVec for a given label.
func getCounterValue(cv *prometheus.CounterVec, label string) float64 {
	counter := cv.WithLabelValues(label)
	m := &dto.Metric{}
	if err := counter.(prometheus.Metric).Write(m); err != nil {
		return 0
	}
	if m.Counter != nil && m.Counter.Value != nil {
		return *m.Counter.Value
	}
	return 0
}
