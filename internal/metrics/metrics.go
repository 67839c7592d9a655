// Package metrics provides Prometheus instrumentation for the triage engine.
// It exposes counters for scoring and flag throughput, a latency histogram
// for the classification call, and gauges for active report sessions.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// MessagesScored counts monitored-channel messages (and edits) sent to
	// the classification service.
	MessagesScored = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vigil_messages_scored_total",
		Help: "Monitored-channel messages sent to the classification service",
	})

	// ClassifyFailures counts classification calls that failed and were
	// handled by the fail-open policy.
	ClassifyFailures = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vigil_classify_failures_total",
		Help: "Classification calls that failed (handled fail-open)",
	})

	// ClassifyLatency records classification call latency in seconds.
	ClassifyLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "vigil_classify_latency_seconds",
		Help:    "Classification call latency in seconds",
		Buckets: []float64{.05, .1, .25, .5, 1, 2.5, 5, 10},
	})

	// FlagsRaised counts flag entries registered, labeled by priority
	// ("normal", "high") and source ("auto", "report").
	FlagsRaised = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vigil_flags_raised_total",
		Help: "Flag entries registered for moderator disposition",
	}, []string{"priority", "source"})

	// Dispositions counts resolved flags by disposition.
	Dispositions = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vigil_dispositions_total",
		Help: "Moderator dispositions applied",
	}, []string{"disposition"})

	// AlreadyHandled counts disposition signals that arrived after the flag
	// was resolved (the expected two-moderators race).
	AlreadyHandled = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "vigil_already_handled_total",
		Help: "Disposition signals on already-resolved flags",
	})

	// ActiveSessions tracks the number of active report sessions.
	ActiveSessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "vigil_active_report_sessions",
		Help: "Current number of active report sessions",
	})

	// SessionOutcomes counts report sessions retired, labeled by outcome
	// ("submitted", "blocked", "cancelled").
	SessionOutcomes = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "vigil_report_outcomes_total",
		Help: "Report sessions retired, by outcome",
	}, []string{"outcome"})
)

func init() {
	prometheus.MustRegister(
		MessagesScored,
		ClassifyFailures,
		ClassifyLatency,
		FlagsRaised,
		Dispositions,
		AlreadyHandled,
		ActiveSessions,
		SessionOutcomes,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
