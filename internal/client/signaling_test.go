package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"github.com/globalbridge/bridge/internal/core"
)

// relayStub accepts one client, records inbound envelopes and lets the
// test push envelopes back down.
type relayStub struct {
	mu       sync.Mutex
	inbound  []core.Envelope
	conn     *websocket.Conn
	accepted chan struct{}
}

func newRelayStub(t *testing.T) (*relayStub, string) {
	t.Helper()
	stub := &relayStub{accepted: make(chan struct{})}
	upgrader := websocket.Upgrader{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			t.Errorf("upgrade: %v", err)
			return
		}
		stub.mu.Lock()
		stub.conn = conn
		stub.mu.Unlock()
		close(stub.accepted)
		for {
			_, data, err := conn.ReadMessage()
			if err != nil {
				return
			}
			env, err := core.ParseEnvelope(data)
			if err != nil {
				t.Errorf("client sent a bad envelope: %v", err)
				continue
			}
			stub.mu.Lock()
			stub.inbound = append(stub.inbound, env)
			stub.mu.Unlock()
		}
	}))
	t.Cleanup(srv.Close)
	return stub, "ws" + strings.TrimPrefix(srv.URL, "http")
}

func (s *relayStub) received(n int, t *testing.T) []core.Envelope {
	t.Helper()
	deadline := time.Now().Add(3 * time.Second)
	for time.Now().Before(deadline) {
		s.mu.Lock()
		if len(s.inbound) >= n {
			out := append([]core.Envelope(nil), s.inbound...)
			s.mu.Unlock()
			return out
		}
		s.mu.Unlock()
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("relay stub never received %d envelopes", n)
	return nil
}

func (s *relayStub) push(t *testing.T, env core.Envelope) {
	t.Helper()
	<-s.accepted
	frame, err := env.Encode()
	if err != nil {
		t.Fatal(err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		t.Fatal(err)
	}
}

func TestSignalingJoinAndSignal(t *testing.T) {
	stub, url := newRelayStub(t)

	sig, err := DialSignaling(context.Background(), url, "demo")
	if err != nil {
		t.Fatal(err)
	}
	defer sig.Close()

	if err := sig.Join(); err != nil {
		t.Fatal(err)
	}
	if err := sig.Signal(map[string]string{"type": "ready"}); err != nil {
		t.Fatal(err)
	}

	got := stub.received(2, t)
	if got[0].Type != core.EnvelopeJoin || got[0].RoomID != "demo" {
		t.Fatalf("first envelope = %+v, want join to demo", got[0])
	}
	if got[1].Type != core.EnvelopeSignal || got[1].RoomID != "demo" {
		t.Fatalf("second envelope = %+v, want signal to demo", got[1])
	}
	if string(got[1].Payload) != `{"type":"ready"}` {
		t.Fatalf("payload = %s", got[1].Payload)
	}
}

func TestSignalingListenDeliversEnvelopes(t *testing.T) {
	stub, url := newRelayStub(t)

	sig, err := DialSignaling(context.Background(), url, "demo")
	if err != nil {
		t.Fatal(err)
	}
	defer sig.Close()

	envs := make(chan core.Envelope, 4)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		_ = sig.Listen(ctx, func(env core.Envelope) { envs <- env })
	}()

	stub.push(t, core.Envelope{Type: core.EnvelopeJoin, From: "peer-1"})
	stub.push(t, core.Envelope{Type: core.EnvelopeSignal, From: "peer-1", Payload: json.RawMessage(`{"type":"ready"}`)})

	for _, wantType := range []string{core.EnvelopeJoin, core.EnvelopeSignal} {
		select {
		case env := <-envs:
			if env.Type != wantType || env.From != "peer-1" {
				t.Fatalf("env = %+v, want %s from peer-1", env, wantType)
			}
		case <-time.After(3 * time.Second):
			t.Fatalf("never received %s envelope", wantType)
		}
	}
}

// A quiet relay keeps the read blocked; cancellation must still get
// Listen to return, or a caller like a signal-handled main never exits.
func TestSignalingListenReturnsOnCancel(t *testing.T) {
	_, url := newRelayStub(t)

	sig, err := DialSignaling(context.Background(), url, "demo")
	if err != nil {
		t.Fatal(err)
	}
	defer sig.Close()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- sig.Listen(ctx, func(core.Envelope) {})
	}()

	time.Sleep(20 * time.Millisecond) // let Listen park in the read
	cancel()

	select {
	case err := <-done:
		if err != context.Canceled {
			t.Fatalf("Listen returned %v, want context.Canceled", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("Listen still blocked after cancellation")
	}
}

func TestSignalingListenReturnsOnClose(t *testing.T) {
	_, url := newRelayStub(t)

	sig, err := DialSignaling(context.Background(), url, "demo")
	if err != nil {
		t.Fatal(err)
	}

	done := make(chan error, 1)
	go func() {
		done <- sig.Listen(context.Background(), func(core.Envelope) {})
	}()
	sig.Close()

	select {
	case err := <-done:
		if err == nil {
			t.Fatal("Listen returned nil after socket close")
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Listen did not return after Close")
	}
}
