package rtc

import (
	"github.com/pion/webrtc/v4"
	"github.com/rs/zerolog/log"

	"github.com/globalbridge/bridge/internal/core"
)

// PionTransport implements core.MediaTransport over a pion
// PeerConnection.
type PionTransport struct {
	pc *webrtc.PeerConnection
}

func DefaultWebRTCConfig() webrtc.Configuration {
	return webrtc.Configuration{
		ICEServers: []webrtc.ICEServer{
			{
				URLs: []string{"stun:stun.l.google.com:19302"},
			},
		},
	}
}

func NewPionTransport(cfg webrtc.Configuration) (*PionTransport, error) {
	pc, err := webrtc.NewPeerConnection(cfg)
	if err != nil {
		return nil, err
	}
	return &PionTransport{pc: pc}, nil
}

type pionSender struct {
	sender *webrtc.RTPSender
}

func (s pionSender) Kind() string {
	tr := s.sender.Track()
	if tr == nil {
		return ""
	}
	return tr.Kind().String()
}

func (s pionSender) ReplaceTrack(t webrtc.TrackLocal) error {
	return s.sender.ReplaceTrack(t)
}

func (t *PionTransport) AddTrack(track webrtc.TrackLocal) (core.TrackSender, error) {
	sender, err := t.pc.AddTrack(track)
	if err != nil {
		return nil, err
	}
	return pionSender{sender: sender}, nil
}

func (t *PionTransport) Senders() []core.TrackSender {
	senders := t.pc.GetSenders()
	out := make([]core.TrackSender, 0, len(senders))
	for _, s := range senders {
		out = append(out, pionSender{sender: s})
	}
	return out
}

func (t *PionTransport) CreateOffer() (webrtc.SessionDescription, error) {
	return t.pc.CreateOffer(nil)
}

func (t *PionTransport) CreateAnswer() (webrtc.SessionDescription, error) {
	return t.pc.CreateAnswer(nil)
}

func (t *PionTransport) SetLocalDescription(d webrtc.SessionDescription) error {
	return t.pc.SetLocalDescription(d)
}

func (t *PionTransport) SetRemoteDescription(d webrtc.SessionDescription) error {
	return t.pc.SetRemoteDescription(d)
}

func (t *PionTransport) AddICECandidate(ci webrtc.ICECandidateInit) error {
	return t.pc.AddICECandidate(ci)
}

func (t *PionTransport) OnICECandidate(fn func(webrtc.ICECandidateInit)) {
	t.pc.OnICECandidate(func(cand *webrtc.ICECandidate) {
		// nil marks end of gathering
		if cand != nil {
			fn(cand.ToJSON())
		}
	})
}

func (t *PionTransport) OnTrack(fn func(*webrtc.TrackRemote, *webrtc.RTPReceiver)) {
	t.pc.OnTrack(func(track *webrtc.TrackRemote, recv *webrtc.RTPReceiver) {
		log.Info().
			Str("module", "rtc").
			Str("kind", track.Kind().String()).
			Str("track_id", track.ID()).
			Str("stream_id", track.StreamID()).
			Msg("remote track")
		fn(track, recv)
	})
}

func (t *PionTransport) OnStateChange(fn func(webrtc.PeerConnectionState)) {
	t.pc.OnConnectionStateChange(func(s webrtc.PeerConnectionState) {
		log.Info().Str("module", "rtc").Str("peer_state", s.String()).Msg("peer state")
		fn(s)
	})
}

func (t *PionTransport) Close() error {
	return t.pc.Close()
}
