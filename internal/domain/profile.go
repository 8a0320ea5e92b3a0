package domain

// VoiceProfile is the read-only output of the enrollment feature.
// Fingerprint is an acoustic description the translation engine can be
// asked to reproduce.
type VoiceProfile struct {
	VoiceID      string `json:"voiceId,omitempty"`
	IsEnrolled   bool   `json:"isEnrolled"`
	ConsentGiven bool   `json:"consentGiven"`
	Fingerprint  string `json:"fingerprint,omitempty"`
}

// Cloneable reports whether the profile may constrain the engine's voice.
// Consent is required: an enrolled profile without consent behaves like
// no profile at all.
func (p *VoiceProfile) Cloneable() bool {
	return p != nil && p.IsEnrolled && p.ConsentGiven && p.Fingerprint != ""
}
