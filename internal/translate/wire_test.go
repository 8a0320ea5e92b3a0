package translate

import (
	"strings"
	"testing"

	"github.com/globalbridge/bridge/internal/domain"
)

func TestTranslatorDirective(t *testing.T) {
	enrolled := &domain.VoiceProfile{
		VoiceID:      "v-1",
		IsEnrolled:   true,
		ConsentGiven: true,
		Fingerprint:  "warm baritone, slight rasp",
	}

	tests := []struct {
		name      string
		profile   *domain.VoiceProfile
		clone     bool
		wantVoice bool
	}{
		{name: "clone with consent", profile: enrolled, clone: true, wantVoice: true},
		{name: "clone not requested", profile: enrolled, clone: false, wantVoice: false},
		{name: "no consent", profile: &domain.VoiceProfile{IsEnrolled: true, Fingerprint: "x"}, clone: true, wantVoice: false},
		{name: "not enrolled", profile: &domain.VoiceProfile{ConsentGiven: true, Fingerprint: "x"}, clone: true, wantVoice: false},
		{name: "empty fingerprint", profile: &domain.VoiceProfile{IsEnrolled: true, ConsentGiven: true}, clone: true, wantVoice: false},
		{name: "nil profile", profile: nil, clone: true, wantVoice: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := translatorDirective("Spanish", tt.profile, tt.clone)
			if !strings.Contains(got, "into Spanish") {
				t.Fatalf("directive lacks target language: %q", got)
			}
			hasVoice := strings.Contains(got, "acoustic fingerprint")
			if hasVoice != tt.wantVoice {
				t.Fatalf("voice clause present = %v, want %v: %q", hasVoice, tt.wantVoice, got)
			}
			if tt.wantVoice && !strings.Contains(got, tt.profile.Fingerprint) {
				t.Fatalf("fingerprint not embedded: %q", got)
			}
			if !tt.wantVoice && !strings.Contains(got, "generic voice") {
				t.Fatalf("generic voice fallback missing: %q", got)
			}
		})
	}
}

func TestEngineErrorString(t *testing.T) {
	e := &engineError{Code: "RESOURCE_EXHAUSTED", Message: "quota"}
	if got := e.Error(); !strings.Contains(got, "RESOURCE_EXHAUSTED") || !strings.Contains(got, "quota") {
		t.Fatalf("Error() = %q", got)
	}
	bare := &engineError{Message: "boom"}
	if got := bare.Error(); !strings.Contains(got, "boom") {
		t.Fatalf("Error() = %q", got)
	}
}
