// Package metrics provides Prometheus instrumentation for the relay. It
// exposes gauges for connection, session, and conversation counts, counters
// for event throughput, and a histogram for broadcast fan-out latency.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Connections tracks the current number of open WebSocket connections,
	// registered or not.
	Connections = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_connections",
		Help: "Current number of open WebSocket connections",
	})

	// Sessions tracks the current number of registered usernames.
	Sessions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_sessions",
		Help: "Current number of registered chat sessions",
	})

	// Conversations tracks the number of distinct conversation histories.
	Conversations = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "relay_conversations",
		Help: "Current number of distinct two-party conversations",
	})

	// EventsTotal counts inbound events by outcome, labeled by type:
	// "connect", "message", "close", "malformed", "unknown", or "rejected".
	EventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "relay_events_total",
		Help: "Total number of inbound events processed",
	}, []string{"type"})

	// MessagesTotal counts messages appended to conversation histories.
	MessagesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "relay_messages_total",
		Help: "Total number of messages stored and relayed",
	})

	// BroadcastDuration records the time to fan out personalized updates to
	// every registered session after one state change.
	BroadcastDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "relay_broadcast_duration_seconds",
		Help:    "Latency of a full personalized update broadcast",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25},
	})
)

func init() {
	prometheus.MustRegister(
		Connections,
		Sessions,
		Conversations,
		EventsTotal,
		MessagesTotal,
		BroadcastDuration,
	)
}

// Handler returns the Prometheus metrics HTTP handler.
func Handler() http.Handler {
	return promhttp.Handler()
}
