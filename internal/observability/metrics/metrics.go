// Package metrics provides Prometheus metrics for the signaling server.
package metrics

import "github.com/prometheus/client_golang/prometheus"

const namespace = "globalbridge"

// Metrics holds the relay-facing Prometheus collectors. Construct one
// per relay instance with an explicit registerer so isolated relays in
// tests never collide on registration.
type Metrics struct {
	ConnectionsTotal  prometheus.Counter
	ConnectionsActive prometheus.Gauge
	RoomsActive       prometheus.Gauge
	SignalsRelayed    prometheus.Counter
	SignalsDropped    *prometheus.CounterVec
}

// Drop reasons recorded on SignalsDropped.
const (
	DropMalformed    = "malformed"
	DropNoRoom       = "no_room"
	DropBackpressure = "backpressure"
	DropUnknownType  = "unknown_type"
	DropDisconnected = "disconnected"
)

func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ConnectionsTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signaling_connections_total",
			Help:      "Total signaling connections accepted",
		}),
		ConnectionsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "signaling_connections_active",
			Help:      "Signaling connections currently open",
		}),
		RoomsActive: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "rooms_active",
			Help:      "Rooms with at least one member",
		}),
		SignalsRelayed: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_relayed_total",
			Help:      "Signal envelopes fanned out to room members",
		}),
		SignalsDropped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "signals_dropped_total",
			Help:      "Signal envelopes dropped, by reason",
		}, []string{"reason"}),
	}
	reg.MustRegister(
		m.ConnectionsTotal,
		m.ConnectionsActive,
		m.RoomsActive,
		m.SignalsRelayed,
		m.SignalsDropped,
	)
	return m
}
