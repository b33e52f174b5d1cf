package observability

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gymapp",
		Subsystem: "http",
		Name:      "requests_total",
		Help:      "HTTP requests handled, by method, route and status code.",
	}, []string{"method", "route", "code"})
	httpDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "gymapp",
		Subsystem: "http",
		Name:      "request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"method", "route"})
	statusEvaluations = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gymapp",
		Subsystem: "status",
		Name:      "evaluations_total",
		Help:      "Derived statuses computed, by kind and tier.",
	}, []string{"kind", "tier"})
	alertsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "gymapp",
		Subsystem: "alerts",
		Name:      "published_total",
		Help:      "Alerts published to the broker, by kind and outcome.",
	}, []string{"kind", "outcome"})
	lastScan = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "gymapp",
		Subsystem: "alerts",
		Name:      "last_scan_timestamp_seconds",
		Help:      "Unix timestamp of the most recent completed alert scan.",
	})
)

func init() {
	prometheus.MustRegister(httpRequests, httpDuration, statusEvaluations, alertsPublished, lastScan)
}

// RecordRequest counts a handled HTTP request.
func RecordRequest(method, route string, code int, elapsed time.Duration) {
	httpRequests.WithLabelValues(method, route, strconv.Itoa(code)).Inc()
	httpDuration.WithLabelValues(method, route).Observe(elapsed.Seconds())
}

// RecordStatus counts a derived status. kind is "maintenance" or "payment".
func RecordStatus(kind, tier string) {
	statusEvaluations.WithLabelValues(kind, tier).Inc()
}

// RecordAlert counts a published alert.
func RecordAlert(kind string, err error) {
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	alertsPublished.WithLabelValues(kind, outcome).Inc()
}

// RecordScan updates the alert scan watermark gauge.
func RecordScan(ts time.Time) {
	if ts.IsZero() {
		return
	}
	lastScan.Set(float64(ts.Unix()))
}
