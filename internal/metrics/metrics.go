package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Sessions
	ActiveSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "game_sessions_active",
		Help: "The current number of active game sessions.",
	})
	SessionsCreated = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_sessions_created_total",
		Help: "The total number of sessions created, by match type.",
	}, []string{"match_type"})
	GamesCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_sessions_completed_total",
		Help: "The total number of sessions that ended, by reason.",
	}, []string{"reason"})
	MovesApplied = promauto.NewCounter(prometheus.CounterOpts{
		Name: "game_moves_applied_total",
		Help: "The total number of accepted moves.",
	})
	MovesRejected = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "game_moves_rejected_total",
		Help: "The total number of rejected moves, by error.",
	}, []string{"error"})

	// Bot
	BotThinkSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "bot_think_seconds",
		Help:    "Time spent searching for a bot move.",
		Buckets: prometheus.ExponentialBuckets(0.0005, 2, 12),
	})

	// Matchmaking
	QueueSize = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "matchmaking_queue_size",
		Help: "The current number of players waiting for an opponent.",
	})
	QueueTimeouts = promauto.NewCounter(prometheus.CounterOpts{
		Name: "matchmaking_timeouts_total",
		Help: "The total number of queue entries that fell back to a bot match.",
	})

	// Connections
	BoundConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "connections_bound",
		Help: "The current number of connections bound to a player.",
	})
	WebSocketConnections = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "ws_connections_active",
		Help: "The current number of open WebSocket connections.",
	})
	GraceExpired = promauto.NewCounter(prometheus.CounterOpts{
		Name: "disconnect_grace_expired_total",
		Help: "The total number of sessions forfeited after the reconnect window.",
	})

	// Persistence
	PersistenceFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "persistence_failures_total",
		Help: "The total number of persistence writes that failed after retries.",
	}, []string{"operation"})

	// Analytics
	AnalyticsDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "analytics_events_dropped_total",
		Help: "The total number of analytics events dropped because the producer was not accepting input.",
	}, []string{"event_type"})
)

// Handler exposes the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
