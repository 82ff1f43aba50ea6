package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestCounters(t *testing.T) {
	m := New(prometheus.NewRegistry())

	m.BlockWritten("plan", "create")
	m.BlockWritten("plan", "create")
	m.LoginAttempt("rejected")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.BlockWrites.WithLabelValues("plan", "create")))
	assert.Equal(t, 0.0, testutil.ToFloat64(m.BlockWrites.WithLabelValues("actual", "create")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.Logins.WithLabelValues("rejected")))
}

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.BlockWritten("plan", "delete")
		m.LoginAttempt("ok")
	})
}
