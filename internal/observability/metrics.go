// Package observability exposes the service's Prometheus collectors.
package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	Logins = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity",
		Name:      "logins_total",
		Help:      "Login attempts by outcome.",
	}, []string{"outcome"})

	Signups = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity",
		Name:      "signups_total",
		Help:      "Signup attempts by outcome.",
	}, []string{"outcome"})

	Logouts = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "identity",
		Name:      "logouts_total",
		Help:      "Logout requests.",
	})

	Restores = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity",
		Name:      "session_restores_total",
		Help:      "Session restores by outcome.",
	}, []string{"outcome"})

	GuardDecisions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity",
		Name:      "guard_decisions_total",
		Help:      "Route guard decisions.",
	}, []string{"decision"})

	OutboxProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "identity",
		Subsystem: "relay",
		Name:      "outbox_events_total",
		Help:      "Outbox events handled by the relay, by result.",
	}, []string{"result"})
)

const (
	OutcomeSuccess     = "success"
	OutcomeInvalid     = "invalid_credentials"
	OutcomeValidation  = "validation_error"
	OutcomeUnavailable = "store_unavailable"
	OutcomePersistence = "persistence_failed"
	OutcomeConflict    = "email_taken"
	OutcomeAbsent      = "absent"
)
