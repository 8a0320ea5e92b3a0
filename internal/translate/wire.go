package translate

import (
	"fmt"

	"github.com/globalbridge/bridge/internal/domain"
)

// Client -> engine messages. Exactly one field is set per message.
type clientMessage struct {
	Setup         *sessionSetup  `json:"setup,omitempty"`
	RealtimeInput *realtimeInput `json:"realtimeInput,omitempty"`
}

type sessionSetup struct {
	Model              string   `json:"model"`
	SystemInstruction  string   `json:"systemInstruction"`
	ResponseModalities []string `json:"responseModalities"`
	InputTranscription bool     `json:"inputAudioTranscription"`
	OutputTranscript   bool     `json:"outputAudioTranscription"`
}

type realtimeInput struct {
	Media mediaBlob `json:"media"`
}

type mediaBlob struct {
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
}

// Engine -> client messages.
type serverMessage struct {
	SetupComplete *struct{}      `json:"setupComplete,omitempty"`
	ServerContent *serverContent `json:"serverContent,omitempty"`
	Error         *engineError   `json:"error,omitempty"`
}

type serverContent struct {
	Audio               *mediaBlob     `json:"audio,omitempty"`
	InputTranscription  *transcription `json:"inputTranscription,omitempty"`
	OutputTranscription *transcription `json:"outputTranscription,omitempty"`
	TurnComplete        bool           `json:"turnComplete,omitempty"`
}

type transcription struct {
	Text string `json:"text"`
}

type engineError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message"`
}

func (e *engineError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("engine error %s: %s", e.Code, e.Message)
	}
	return "engine error: " + e.Message
}

// translatorDirective builds the system instruction: translate-only
// output, and when a consenting enrolled profile is supplied, a
// constraint pinning the synthesized voice to the caller's acoustic
// fingerprint.
func translatorDirective(targetLanguage string, profile *domain.VoiceProfile, cloneVoice bool) string {
	directive := fmt.Sprintf(
		"You are a real-time translator. Translate everything the user says into %s. "+
			"Speak only the translation. Keep it natural and low-latency. Do not add meta-talk.",
		targetLanguage)

	if cloneVoice && profile.Cloneable() {
		return directive + fmt.Sprintf(
			" Reproduce the speaker's own vocal identity as described by this acoustic fingerprint: %s.",
			profile.Fingerprint)
	}
	return directive + " Use a clear generic voice."
}
