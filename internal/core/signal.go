package core

import "encoding/json"

// Frame is a raw signaling payload as it travels the wire.
type Frame []byte

// ConnectionID identifies one signaling transport session, from socket
// open to socket close.
type ConnectionID string

// SignalConn abstracts a duplex signaling transport endpoint.
// Owned by the adapter; the adapter must Close() it.
type SignalConn interface {
	TrySend(Frame) error
	Close()
}

const (
	EnvelopeJoin   = "join"
	EnvelopeSignal = "signal"
)

// Envelope is the JSON message unit exchanged over the signaling channel.
// Payload is opaque to the relay; it is interpreted only by the peers.
type Envelope struct {
	Type    string          `json:"type"`
	RoomID  string          `json:"roomId,omitempty"`
	From    string          `json:"from,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func ParseEnvelope(data []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return Envelope{}, err
	}
	return env, nil
}

func (e Envelope) Encode() (Frame, error) {
	return json.Marshal(e)
}
