package notify

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Refresh outcomes.
const (
	OutcomeOK           = "ok"
	OutcomeError        = "error"
	OutcomeDeduplicated = "deduplicated"
)

// Trigger names.
const (
	TriggerTimer   = "timer"
	TriggerFocus   = "focus"
	TriggerStorage = "storage"
	TriggerEvent   = "event"
	TriggerFlag    = "flag"
)

type collectors struct {
	refreshTotal   *prometheus.CounterVec
	triggerTotal   *prometheus.CounterVec
	lookupFailures prometheus.Counter
	unread         prometheus.Gauge
}

// newCollectors registers on reg. A nil reg yields working but unregistered collectors.
func newCollectors(reg prometheus.Registerer) *collectors {
	factory := promauto.With(reg)
	return &collectors{
		refreshTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_refresh_total",
			Help: "Notification refresh attempts by outcome.",
		}, []string{"outcome"}),
		triggerTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "notify_trigger_total",
			Help: "Refresh triggers fired, by trigger.",
		}, []string{"trigger"}),
		lookupFailures: factory.NewCounter(prometheus.CounterOpts{
			Name: "notify_party_lookup_failures_total",
			Help: "Party label lookups that fell back to the placeholder.",
		}),
		unread: factory.NewGauge(prometheus.GaugeOpts{
			Name: "notify_unread_items",
			Help: "Unread notifications after the last refresh.",
		}),
	}
}
