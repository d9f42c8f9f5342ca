// internal/metrics/metrics.go
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// SessionsActive is the number of sessions held in memory.
	SessionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "memorymatch",
		Name:      "sessions_active",
		Help:      "Sessions currently held in memory.",
	})

	// SocketsConnected is the number of attached WebSocket clients.
	SocketsConnected = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "memorymatch",
		Name:      "sockets_connected",
		Help:      "WebSocket clients currently attached to a session.",
	})

	// Actions counts logged session actions by type.
	Actions = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memorymatch",
		Name:      "actions_total",
		Help:      "Session actions by type.",
	}, []string{"type"})

	// RoundDuration observes how long won rounds took, by grid size.
	RoundDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "memorymatch",
		Name:      "round_duration_seconds",
		Help:      "Time from round start to win.",
		Buckets:   []float64{5, 10, 20, 30, 60, 120, 300},
	}, []string{"grid"})

	// EventsDropped counts board events discarded because a client outbox was full.
	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "memorymatch",
		Name:      "events_dropped_total",
		Help:      "Board events dropped on a full client outbox.",
	})

	// SinkErrors counts failed writes to Redis or Postgres.
	SinkErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "memorymatch",
		Name:      "sink_errors_total",
		Help:      "Failed writes to the action queue or the results table.",
	}, []string{"sink"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
