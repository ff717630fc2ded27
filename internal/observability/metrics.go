// Package observability exposes Prometheus metrics for the gridt core.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds all Prometheus metrics for the gridt core.
// A nil *Metrics is valid and records nothing, so the library and its
// tests can run without a registry.
type Metrics struct {
	// Graph metrics
	linksCreatedTotal   prometheus.Counter
	linksDestroyedTotal prometheus.Counter
	leaderSwapsTotal    *prometheus.CounterVec

	// Relation metrics
	subscriptionsTotal   *prometheus.CounterVec
	signalsTotal         prometheus.Counter
	announcementsTotal   *prometheus.CounterVec

	// Event bus metrics
	eventsEmittedTotal    *prometheus.CounterVec
	listenerFailuresTotal *prometheus.CounterVec
}

// NewMetrics creates all metrics and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		linksCreatedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gridt_links_created_total",
			Help: "Total number of follower-leader links created",
		}),
		linksDestroyedTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gridt_links_destroyed_total",
			Help: "Total number of follower-leader links destroyed",
		}),
		leaderSwapsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridt_leader_swaps_total",
			Help: "Total number of leader swap attempts",
		}, []string{"outcome"}),
		subscriptionsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridt_subscriptions_total",
			Help: "Total number of subscription state changes",
		}, []string{"action"}),
		signalsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "gridt_signals_total",
			Help: "Total number of signals sent",
		}),
		announcementsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridt_announcements_total",
			Help: "Total number of announcement state changes",
		}, []string{"action"}),
		eventsEmittedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridt_events_emitted_total",
			Help: "Total number of events emitted on the bus",
		}, []string{"event"}),
		listenerFailuresTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "gridt_event_listener_failures_total",
			Help: "Total number of event listener failures",
		}, []string{"event"}),
	}

	reg.MustRegister(
		m.linksCreatedTotal,
		m.linksDestroyedTotal,
		m.leaderSwapsTotal,
		m.subscriptionsTotal,
		m.signalsTotal,
		m.announcementsTotal,
		m.eventsEmittedTotal,
		m.listenerFailuresTotal,
	)

	return m
}

// LinkCreated records a new active link.
func (m *Metrics) LinkCreated() {
	if m == nil {
		return
	}
	m.linksCreatedTotal.Inc()
}

// LinkDestroyed records a destroyed link.
func (m *Metrics) LinkDestroyed() {
	if m == nil {
		return
	}
	m.linksDestroyedTotal.Inc()
}

// LeaderSwap records a swap attempt outcome ("swapped" or "no_candidates").
func (m *Metrics) LeaderSwap(outcome string) {
	if m == nil {
		return
	}
	m.leaderSwapsTotal.WithLabelValues(outcome).Inc()
}

// Subscription records a subscription action ("subscribed" or "unsubscribed").
func (m *Metrics) Subscription(action string) {
	if m == nil {
		return
	}
	m.subscriptionsTotal.WithLabelValues(action).Inc()
}

// SignalSent records a sent signal.
func (m *Metrics) SignalSent() {
	if m == nil {
		return
	}
	m.signalsTotal.Inc()
}

// Announcement records an announcement action ("created", "updated", "deleted").
func (m *Metrics) Announcement(action string) {
	if m == nil {
		return
	}
	m.announcementsTotal.WithLabelValues(action).Inc()
}

// EventEmitted records an event delivered on the bus.
func (m *Metrics) EventEmitted(event string) {
	if m == nil {
		return
	}
	m.eventsEmittedTotal.WithLabelValues(event).Inc()
}

// ListenerFailure records a failed event listener.
func (m *Metrics) ListenerFailure(event string) {
	if m == nil {
		return
	}
	m.listenerFailuresTotal.WithLabelValues(event).Inc()
}
