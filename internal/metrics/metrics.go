package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const METRICS_SUBSYSTEM = "deployment_tracker"

const (
	ResultSuccess      = "success"
	ResultRemoteFailed = "remote_failed"
	ResultError        = "error"
)

// TrackerMetrics records outbound calls to the tracking service and relays
type TrackerMetrics interface {
	RecordRequest(operation string, result string, duration time.Duration)
	RecordRelay(status string)
}

type trackerMetrics struct {
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	relaysTotal     *prometheus.CounterVec
}

func InitMetrics(registry prometheus.Registerer) TrackerMetrics {
	m := &trackerMetrics{
		requestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "requests_total",
			Help:      "Requests sent to the tracking service",
			Subsystem: METRICS_SUBSYSTEM,
		}, []string{"operation", "result"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:      "request_duration_seconds",
			Help:      "Tracking service request duration in seconds",
			Subsystem: METRICS_SUBSYSTEM,
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
		relaysTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name:      "relays_total",
			Help:      "Transactions relayed to chain, by final status",
			Subsystem: METRICS_SUBSYSTEM,
		}, []string{"status"}),
	}

	registry.MustRegister(m.requestsTotal, m.requestDuration, m.relaysTotal)
	return m
}

func (m *trackerMetrics) RecordRequest(operation string, result string, duration time.Duration) {
	m.requestsTotal.WithLabelValues(operation, result).Inc()
	m.requestDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

func (m *trackerMetrics) RecordRelay(status string) {
	m.relaysTotal.WithLabelValues(status).Inc()
}

type noopMetrics struct{}

// NewNoopMetrics returns a TrackerMetrics that records nothing
func NewNoopMetrics() TrackerMetrics {
	return noopMetrics{}
}

func (noopMetrics) RecordRequest(string, string, time.Duration) {}

func (noopMetrics) RecordRelay(string) {}
