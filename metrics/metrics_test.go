package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
)

func TestNewRegistersWithoutCollision(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := New(reg, "lendvault")
	assert.NotNil(t, m.Deposits)

	// a second instance on its own registry must not panic
	assert.NotPanics(t, func() {
		New(prometheus.NewRegistry(), "lendvault")
	})
}

func TestCounterValue(t *testing.T) {
	m := New(prometheus.NewRegistry(), "lendvault")

	assert.Equal(t, float64(0), CounterValue(m.Borrows))

	m.Borrows.Inc()
	m.Borrows.Inc()
	assert.Equal(t, float64(2), CounterValue(m.Borrows))
}

func TestRejectionLabels(t *testing.T) {
	m := New(prometheus.NewRegistry(), "lendvault")

	m.Rejections.WithLabelValues("borrow", "would_breach_health_factor").Inc()
	c := m.Rejections.WithLabelValues("borrow", "would_breach_health_factor")
	assert.Equal(t, float64(1), CounterValue(c))
}
