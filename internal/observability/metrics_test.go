package observability

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetricsRegisters(t *testing.T) {
	reg := prometheus.NewRegistry()

	m := NewMetrics(reg)
	m.LinkCreated()
	m.LinkCreated()
	m.LinkDestroyed()
	m.EventEmitted("subscribe")
	m.ListenerFailure("subscribe")
	m.SignalSent()

	assert.Equal(t, float64(2), testutil.ToFloat64(m.linksCreatedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.linksDestroyedTotal))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.eventsEmittedTotal.WithLabelValues("subscribe")))
	assert.Equal(t, float64(1), testutil.ToFloat64(m.signalsTotal))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.NotEmpty(t, families)
}

func TestNilMetricsAreSafe(t *testing.T) {
	var m *Metrics

	assert.NotPanics(t, func() {
		m.LinkCreated()
		m.LinkDestroyed()
		m.LeaderSwap("swapped")
		m.Subscription("subscribed")
		m.SignalSent()
		m.Announcement("created")
		m.EventEmitted("subscribe")
		m.ListenerFailure("subscribe")
	})
}
