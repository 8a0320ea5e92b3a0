// Package client implements the participant side of a call: the
// signaling connection and the glue between relayed envelopes and the
// peer negotiator.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/globalbridge/bridge/internal/core"
	"github.com/globalbridge/bridge/internal/domain"
)

const writeWait = 5 * time.Second

// Signaling is a client connection to the relay, bound to one room.
type Signaling struct {
	conn *websocket.Conn
	room domain.RoomID

	mu sync.Mutex // serializes writes
}

func DialSignaling(ctx context.Context, url string, room domain.RoomID) (*Signaling, error) {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return nil, fmt.Errorf("dial signaling: %w", err)
	}
	return &Signaling{conn: conn, room: room}, nil
}

// Join announces this participant to the room.
func (s *Signaling) Join() error {
	return s.send(core.Envelope{Type: core.EnvelopeJoin, RoomID: string(s.room)})
}

// Signal relays an opaque payload to the other room members.
func (s *Signaling) Signal(payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	return s.send(core.Envelope{Type: core.EnvelopeSignal, RoomID: string(s.room), Payload: raw})
}

func (s *Signaling) send(env core.Envelope) error {
	frame, err := env.Encode()
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
		return err
	}
	return s.conn.WriteMessage(websocket.TextMessage, frame)
}

// Listen blocks, delivering inbound envelopes until the socket closes
// or ctx is canceled. Cancellation closes the socket to unblock the
// read; the connection is not reusable afterwards.
func (s *Signaling) Listen(ctx context.Context, onEnvelope func(core.Envelope)) error {
	unhook := context.AfterFunc(ctx, func() { _ = s.conn.Close() })
	defer unhook()
	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return err
		}
		env, err := core.ParseEnvelope(data)
		if err != nil {
			log.Warn().Err(err).Str("module", "client.signaling").Msg("bad envelope from relay")
			continue
		}
		onEnvelope(env)
	}
}

func (s *Signaling) Close() {
	_ = s.conn.Close()
}
