package client

import (
	"context"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/globalbridge/bridge/internal/core"
	"github.com/globalbridge/bridge/internal/rtc"
)

// Call glues one signaling connection to one peer negotiator and
// applies the rendezvous policy: observing another participant's join
// answers with ready, and receiving ready makes this side offer.
type Call struct {
	sig *Signaling
	neg *rtc.Negotiator
}

func NewCall(sig *Signaling, transport core.MediaTransport) *Call {
	c := &Call{sig: sig}
	c.neg = rtc.NewNegotiator(transport, func(p rtc.Payload) {
		if err := sig.Signal(p); err != nil {
			log.Error().Err(err).Str("module", "client.call").Str("payload", string(p.Type)).Msg("emit signal")
		}
	})
	return c
}

// Negotiator exposes the state machine for track replacement and state
// inspection.
func (c *Call) Negotiator() *rtc.Negotiator {
	return c.neg
}

// Start binds local tracks, joins the room and runs the envelope loop
// until the signaling socket closes.
func (c *Call) Start(ctx context.Context, tracks ...webrtc.TrackLocal) error {
	if err := c.neg.InitPeer(tracks...); err != nil {
		return err
	}
	if err := c.sig.Join(); err != nil {
		return err
	}
	return c.sig.Listen(ctx, c.handleEnvelope)
}

func (c *Call) handleEnvelope(env core.Envelope) {
	switch env.Type {
	case core.EnvelopeJoin:
		log.Info().Str("module", "client.call").Str("from", env.From).Msg("peer joined")
		c.neg.HandlePeerJoin()
	case core.EnvelopeSignal:
		c.neg.HandleSignal(env.Payload)
	default:
		log.Warn().Str("module", "client.call").Str("type", env.Type).Msg("unexpected envelope")
	}
}

// Hangup tears down negotiation and the signaling socket. Idempotent.
func (c *Call) Hangup() {
	c.neg.Close()
	c.sig.Close()
}
