package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRecordRequest(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := InitMetrics(registry).(*trackerMetrics)

	m.RecordRequest("create_deployment", ResultSuccess, 10*time.Millisecond)
	m.RecordRequest("create_deployment", ResultSuccess, 20*time.Millisecond)
	m.RecordRequest("send_eth_transaction", ResultRemoteFailed, time.Millisecond)

	assert.Equal(t, float64(2), testutil.ToFloat64(m.requestsTotal.WithLabelValues("create_deployment", ResultSuccess)))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.requestsTotal.WithLabelValues("send_eth_transaction", ResultRemoteFailed)))
	assert.Equal(t, 2, testutil.CollectAndCount(m.requestDuration))
}

func TestRecordRelay(t *testing.T) {
	registry := prometheus.NewRegistry()
	m := InitMetrics(registry).(*trackerMetrics)

	m.RecordRelay("confirmed")
	m.RecordRelay("failed")
	m.RecordRelay("confirmed")

	assert.Equal(t, float64(2), testutil.ToFloat64(m.relaysTotal.WithLabelValues("confirmed")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.relaysTotal.WithLabelValues("failed")))
}

func TestInitMetricsTwicePanics(t *testing.T) {
	registry := prometheus.NewRegistry()
	InitMetrics(registry)
	assert.Panics(t, func() { InitMetrics(registry) })
}

func TestNoopMetrics(t *testing.T) {
	m := NewNoopMetrics()
	assert.NotPanics(t, func() {
		m.RecordRequest("create_deployment", ResultError, time.Second)
		m.RecordRelay("confirmed")
	})
}
