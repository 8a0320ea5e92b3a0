package core

import "github.com/pion/webrtc/v4"

// TrackSender is one outbound media sender on a transport. Kind reports
// "audio" or "video" so a replacement track can be matched to it.
type TrackSender interface {
	Kind() string
	ReplaceTrack(webrtc.TrackLocal) error
}

// MediaTransport abstracts the peer connection driven by the negotiator.
// The production implementation wraps a pion PeerConnection; tests pair
// two in-memory transports instead.
type MediaTransport interface {
	AddTrack(webrtc.TrackLocal) (TrackSender, error)
	Senders() []TrackSender

	CreateOffer() (webrtc.SessionDescription, error)
	CreateAnswer() (webrtc.SessionDescription, error)
	SetLocalDescription(webrtc.SessionDescription) error
	SetRemoteDescription(webrtc.SessionDescription) error
	AddICECandidate(webrtc.ICECandidateInit) error

	// OnICECandidate sets a callback for newly gathered local candidates.
	OnICECandidate(func(webrtc.ICECandidateInit))
	// OnTrack sets a callback invoked when a remote track arrives.
	OnTrack(func(*webrtc.TrackRemote, *webrtc.RTPReceiver))
	// OnStateChange sets a callback for transport lifecycle transitions.
	OnStateChange(func(webrtc.PeerConnectionState))

	Close() error
}
