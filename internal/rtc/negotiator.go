// Package rtc drives peer-connection negotiation from relayed signal
// payloads: offer/answer/candidate exchange plus track replacement.
package rtc

import (
	"encoding/json"
	"sync"

	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/globalbridge/bridge/internal/core"
)

type State int

const (
	StateUninitialized State = iota
	StateLocalMediaReady
	StateOfferSent
	StateAnswerSent
	StateConnected
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateUninitialized:
		return "uninitialized"
	case StateLocalMediaReady:
		return "local-media-ready"
	case StateOfferSent:
		return "offer-sent"
	case StateAnswerSent:
		return "answer-sent"
	case StateConnected:
		return "connected"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Negotiator turns relayed payloads into a working media transport.
// One instance per local participant. The mutex serializes description
// handling so signals arriving out of order never interleave a
// half-applied negotiation step.
type Negotiator struct {
	mu        sync.Mutex
	state     State
	transport core.MediaTransport
	emit      func(Payload)

	onRemoteTrack func(*webrtc.TrackRemote, *webrtc.RTPReceiver)
}

// NewNegotiator binds the state machine to a transport. emit publishes
// a payload to the room via the signaling relay.
func NewNegotiator(transport core.MediaTransport, emit func(Payload)) *Negotiator {
	return &Negotiator{state: StateUninitialized, transport: transport, emit: emit}
}

// OnRemoteTrack surfaces the remote media stream to the consumer.
// Must be set before InitPeer.
func (n *Negotiator) OnRemoteTrack(fn func(*webrtc.TrackRemote, *webrtc.RTPReceiver)) {
	n.onRemoteTrack = fn
}

// InitPeer binds local capture tracks to the transport and registers
// the candidate and track callbacks.
func (n *Negotiator) InitPeer(tracks ...webrtc.TrackLocal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state != StateUninitialized {
		return nil
	}

	for _, tr := range tracks {
		if _, err := n.transport.AddTrack(tr); err != nil {
			return err
		}
	}

	n.transport.OnICECandidate(func(ci webrtc.ICECandidateInit) {
		n.emit(Payload{Type: PayloadCandidate, Candidate: candidateFromPion(ci)})
	})
	n.transport.OnTrack(func(track *webrtc.TrackRemote, recv *webrtc.RTPReceiver) {
		if n.onRemoteTrack != nil {
			n.onRemoteTrack(track, recv)
		}
	})
	n.transport.OnStateChange(func(s webrtc.PeerConnectionState) {
		n.mu.Lock()
		defer n.mu.Unlock()
		switch s {
		case webrtc.PeerConnectionStateConnected:
			if n.state != StateClosed {
				n.state = StateConnected
				log.Info().Str("module", "rtc").Msg("peer connected")
			}
		case webrtc.PeerConnectionStateFailed, webrtc.PeerConnectionStateClosed:
			if n.state != StateClosed {
				n.state = StateClosed
				log.Info().Str("module", "rtc").Str("peer_state", s.String()).Msg("peer closed")
			}
		}
	})

	n.state = StateLocalMediaReady
	return nil
}

// HandlePeerJoin reacts to another participant joining the room: an
// already-ready participant answers with a ready payload, and whoever
// receives ready is the side that offers. This keeps the pairwise case
// free of glare.
func (n *Negotiator) HandlePeerJoin() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == StateUninitialized || n.state == StateClosed {
		return
	}
	n.emit(Payload{Type: PayloadReady})
}

// CreateOffer generates and installs the local offer, then emits it.
func (n *Negotiator) CreateOffer() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.createOfferLocked()
}

func (n *Negotiator) createOfferLocked() {
	if n.state == StateUninitialized || n.state == StateClosed {
		return
	}
	offer, err := n.transport.CreateOffer()
	if err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("create offer")
		return
	}
	if err := n.transport.SetLocalDescription(offer); err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("set local offer")
		return
	}
	n.emit(Payload{Type: PayloadOffer, Offer: descFromPion(offer)})
	n.state = StateOfferSent
}

// HandleSignal applies one relayed payload. Transport errors are logged
// and the step abandoned; the local session continues and no error
// crosses this boundary.
func (n *Negotiator) HandleSignal(raw json.RawMessage) {
	p, err := ParsePayload(raw)
	if err != nil {
		log.Warn().Err(err).Str("module", "rtc").Msg("bad signal payload")
		return
	}

	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == StateUninitialized || n.state == StateClosed {
		return
	}

	switch p.Type {
	case PayloadReady:
		n.createOfferLocked()
	case PayloadOffer:
		n.applyOffer(*p.Offer)
	case PayloadAnswer:
		n.applyAnswer(*p.Answer)
	case PayloadCandidate:
		if err := n.transport.AddICECandidate(p.Candidate.ToPion()); err != nil {
			log.Error().Err(err).Str("module", "rtc").Msg("add ice candidate")
		}
	}
}

func (n *Negotiator) applyOffer(desc SessionDesc) {
	offer, err := desc.ToPion()
	if err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("parse offer")
		return
	}
	if err := n.transport.SetRemoteDescription(offer); err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("set remote offer")
		return
	}
	answer, err := n.transport.CreateAnswer()
	if err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("create answer")
		return
	}
	if err := n.transport.SetLocalDescription(answer); err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("set local answer")
		return
	}
	n.emit(Payload{Type: PayloadAnswer, Answer: descFromPion(answer)})
	n.state = StateAnswerSent
}

func (n *Negotiator) applyAnswer(desc SessionDesc) {
	answer, err := desc.ToPion()
	if err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("parse answer")
		return
	}
	if err := n.transport.SetRemoteDescription(answer); err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("set remote answer")
	}
}

// ReplaceTrack swaps the outbound sender whose kind matches the new
// track, without renegotiating. Used for screen-share toggles.
func (n *Negotiator) ReplaceTrack(newTrack webrtc.TrackLocal) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, sender := range n.transport.Senders() {
		if sender.Kind() == newTrack.Kind().String() {
			return sender.ReplaceTrack(newTrack)
		}
	}
	log.Warn().Str("module", "rtc").Str("kind", newTrack.Kind().String()).Msg("no sender for track kind")
	return nil
}

func (n *Negotiator) State() State {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.state
}

// Close tears down the transport. Safe to call at any point, including
// mid-negotiation; repeated calls are no-ops.
func (n *Negotiator) Close() {
	n.mu.Lock()
	defer n.mu.Unlock()
	if n.state == StateClosed {
		return
	}
	n.state = StateClosed
	if err := n.transport.Close(); err != nil {
		log.Error().Err(err).Str("module", "rtc").Msg("transport close")
	}
}
