package rtc

import (
	"encoding/json"
	"fmt"

	"github.com/pion/webrtc/v4"
)

type PayloadType string

const (
	PayloadReady     PayloadType = "ready"
	PayloadOffer     PayloadType = "offer"
	PayloadAnswer    PayloadType = "answer"
	PayloadCandidate PayloadType = "candidate"
)

// SessionDesc is the wire form of an SDP description.
type SessionDesc struct {
	Type string `json:"type"`
	SDP  string `json:"sdp"`
}

func descFromPion(d webrtc.SessionDescription) *SessionDesc {
	return &SessionDesc{Type: d.Type.String(), SDP: d.SDP}
}

func (d SessionDesc) ToPion() (webrtc.SessionDescription, error) {
	var t webrtc.SDPType
	switch d.Type {
	case "offer":
		t = webrtc.SDPTypeOffer
	case "answer":
		t = webrtc.SDPTypeAnswer
	default:
		return webrtc.SessionDescription{}, fmt.Errorf("unsupported sdp type %q", d.Type)
	}
	return webrtc.SessionDescription{Type: t, SDP: d.SDP}, nil
}

// Candidate is the wire form of an ICE candidate.
type Candidate struct {
	Candidate     string  `json:"candidate"`
	SDPMid        *string `json:"sdpMid,omitempty"`
	SDPMLineIndex *uint16 `json:"sdpMLineIndex,omitempty"`
}

func candidateFromPion(init webrtc.ICECandidateInit) *Candidate {
	return &Candidate{
		Candidate:     init.Candidate,
		SDPMid:        init.SDPMid,
		SDPMLineIndex: init.SDPMLineIndex,
	}
}

func (c Candidate) ToPion() webrtc.ICECandidateInit {
	return webrtc.ICECandidateInit{
		Candidate:     c.Candidate,
		SDPMid:        c.SDPMid,
		SDPMLineIndex: c.SDPMLineIndex,
	}
}

// Payload is the envelope payload exchanged end-to-end between peers.
// The relay never looks inside it.
type Payload struct {
	Type      PayloadType  `json:"type"`
	Offer     *SessionDesc `json:"offer,omitempty"`
	Answer    *SessionDesc `json:"answer,omitempty"`
	Candidate *Candidate   `json:"candidate,omitempty"`
}

func ParsePayload(data []byte) (Payload, error) {
	var p Payload
	if err := json.Unmarshal(data, &p); err != nil {
		return Payload{}, err
	}
	if err := p.validate(); err != nil {
		return Payload{}, err
	}
	return p, nil
}

func (p Payload) validate() error {
	switch p.Type {
	case PayloadReady:
	case PayloadOffer:
		if p.Offer == nil {
			return fmt.Errorf("offer payload missing offer")
		}
	case PayloadAnswer:
		if p.Answer == nil {
			return fmt.Errorf("answer payload missing answer")
		}
	case PayloadCandidate:
		if p.Candidate == nil || p.Candidate.Candidate == "" {
			return fmt.Errorf("candidate payload missing candidate")
		}
	default:
		return fmt.Errorf("unknown payload type %q", p.Type)
	}
	return nil
}
