package core

import (
	"testing"
)

func TestParseEnvelope(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"type":"signal","roomId":"demo","payload":{"type":"ready"}}`))
	if err != nil {
		t.Fatal(err)
	}
	if env.Type != EnvelopeSignal || env.RoomID != "demo" {
		t.Fatalf("env = %+v", env)
	}
	if string(env.Payload) != `{"type":"ready"}` {
		t.Fatalf("payload = %s", env.Payload)
	}

	if _, err := ParseEnvelope([]byte(`{broken`)); err == nil {
		t.Fatal("malformed envelope parsed")
	}
}

// The payload must survive parse/encode untouched: the relay may not
// interpret or normalize it.
func TestEnvelopePayloadIsOpaque(t *testing.T) {
	raw := `{"type":"signal","payload":{"b":2,"a":1,"nested":{"x":[1,2,3]}}}`
	env, err := ParseEnvelope([]byte(raw))
	if err != nil {
		t.Fatal(err)
	}
	if string(env.Payload) != `{"b":2,"a":1,"nested":{"x":[1,2,3]}}` {
		t.Fatalf("payload rewritten: %s", env.Payload)
	}

	out := Envelope{Type: EnvelopeSignal, From: "abc", Payload: env.Payload}
	frame, err := out.Encode()
	if err != nil {
		t.Fatal(err)
	}
	back, err := ParseEnvelope(frame)
	if err != nil {
		t.Fatal(err)
	}
	if string(back.Payload) != string(env.Payload) {
		t.Fatalf("payload changed through encode: %s", back.Payload)
	}
}

func TestEnvelopeOmitsEmptyFields(t *testing.T) {
	frame, err := Envelope{Type: EnvelopeJoin, RoomID: "demo"}.Encode()
	if err != nil {
		t.Fatal(err)
	}
	if got := string(frame); got != `{"type":"join","roomId":"demo"}` {
		t.Fatalf("frame = %s", got)
	}
}
