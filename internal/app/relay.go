package app

import (
	"github.com/rs/zerolog/log"

	"github.com/globalbridge/bridge/internal/core"
	"github.com/globalbridge/bridge/internal/domain"
	"github.com/globalbridge/bridge/internal/observability/metrics"
)

// Relay is a pure fan-out relay for signal envelopes. It never inspects
// or transforms payloads; it only addresses them. State is injected so
// isolated relay instances can coexist in tests.
type Relay struct {
	conns *Registry
	rooms *Rooms
	mx    *metrics.Metrics
}

func NewRelay(conns *Registry, rooms *Rooms, mx *metrics.Metrics) *Relay {
	return &Relay{conns: conns, rooms: rooms, mx: mx}
}

// HandleConnect registers a freshly accepted transport and returns its id.
func (rl *Relay) HandleConnect(conn core.SignalConn) core.ConnectionID {
	id := rl.conns.Add(conn)
	rl.mx.ConnectionsTotal.Inc()
	rl.mx.ConnectionsActive.Inc()
	return id
}

// HandleMessage consumes one inbound envelope. Malformed or unknown
// messages are logged and dropped; the connection stays open.
func (rl *Relay) HandleMessage(id core.ConnectionID, raw core.Frame) {
	env, err := core.ParseEnvelope(raw)
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Str("conn", string(id)).Msg("malformed envelope")
		rl.mx.SignalsDropped.WithLabelValues(metrics.DropMalformed).Inc()
		return
	}

	switch env.Type {
	case core.EnvelopeJoin:
		rl.handleJoin(id, domain.RoomID(env.RoomID))
	case core.EnvelopeSignal:
		rl.handleSignal(id, env)
	default:
		log.Warn().Str("module", "app.relay").Str("type", env.Type).Msg("unknown envelope type")
		rl.mx.SignalsDropped.WithLabelValues(metrics.DropUnknownType).Inc()
	}
}

func (rl *Relay) handleJoin(id core.ConnectionID, room domain.RoomID) {
	// Join returns the members present before insertion, atomically:
	// the newcomer is never told about its own join, a same-room
	// re-join notifies nobody twice, and of two concurrent joiners
	// exactly one observes the other.
	present := rl.rooms.Join(id, room)
	rl.mx.RoomsActive.Set(float64(rl.rooms.Count()))
	log.Debug().Str("module", "app.relay").Str("conn", string(id)).Str("room", string(room)).Msg("join")
	if len(present) == 0 {
		return
	}

	// Existing members observe the join so one of them can answer with
	// a ready payload (the rendezvous that decides who offers).
	notice := core.Envelope{Type: core.EnvelopeJoin, RoomID: string(room), From: string(id)}
	frame, err := notice.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("encode join notice")
		return
	}
	rl.deliver(id, present, frame)
}

func (rl *Relay) handleSignal(id core.ConnectionID, env core.Envelope) {
	room, ok := rl.rooms.RoomOf(id)
	if !ok {
		// Sender may have joined a different room or none yet; not an error.
		rl.mx.SignalsDropped.WithLabelValues(metrics.DropNoRoom).Inc()
		return
	}

	out := core.Envelope{Type: core.EnvelopeSignal, From: string(id), Payload: env.Payload}
	frame, err := out.Encode()
	if err != nil {
		log.Error().Err(err).Str("module", "app.relay").Msg("encode relayed signal")
		return
	}
	rl.deliver(id, rl.rooms.Members(room), frame)
}

// deliver fans out to every member except the sender whose transport is
// still registered and writable.
func (rl *Relay) deliver(from core.ConnectionID, members []core.ConnectionID, frame core.Frame) {
	for _, member := range members {
		if member == from {
			continue
		}
		conn, ok := rl.conns.Get(member)
		if !ok {
			rl.mx.SignalsDropped.WithLabelValues(metrics.DropDisconnected).Inc()
			continue
		}
		if err := conn.TrySend(frame); err != nil {
			log.Warn().Err(err).Str("module", "app.relay").Str("to", string(member)).Msg("member not writable")
			rl.mx.SignalsDropped.WithLabelValues(metrics.DropBackpressure).Inc()
			continue
		}
		rl.mx.SignalsRelayed.Inc()
	}
}

// HandleDisconnect tears down registry and room state for the
// connection. Idempotent: a second call for the same id is a no-op.
func (rl *Relay) HandleDisconnect(id core.ConnectionID) {
	if !rl.conns.Remove(id) {
		return
	}
	rl.mx.ConnectionsActive.Dec()
	if room, ok := rl.rooms.Leave(id); ok {
		rl.mx.RoomsActive.Set(float64(rl.rooms.Count()))
		log.Info().Str("module", "app.relay").Str("conn", string(id)).Str("room", string(room)).Msg("left room on disconnect")
	}
}
