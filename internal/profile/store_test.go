package profile

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/globalbridge/bridge/internal/domain"
)

func TestLoadMissingFileYieldsZeroProfile(t *testing.T) {
	p, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if p == nil {
		t.Fatal("profile is nil")
	}
	if p.Cloneable() {
		t.Fatal("zero profile must not be cloneable")
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice_profile.json")
	in := &domain.VoiceProfile{
		VoiceID:      "v-42",
		IsEnrolled:   true,
		ConsentGiven: true,
		Fingerprint:  "low, measured, slight accent",
	}
	if err := Save(path, in); err != nil {
		t.Fatal(err)
	}

	out, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if *out != *in {
		t.Fatalf("loaded %+v, want %+v", out, in)
	}
	if !out.Cloneable() {
		t.Fatal("round-tripped profile must stay cloneable")
	}
}

func TestLoadRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "voice_profile.json")
	if err := os.WriteFile(path, []byte("{broken"), 0o600); err != nil {
		t.Fatal(err)
	}
	if _, err := Load(path); err == nil {
		t.Fatal("corrupt profile loaded without error")
	}
}

func TestCloneableRequiresConsent(t *testing.T) {
	p := &domain.VoiceProfile{IsEnrolled: true, Fingerprint: "x"}
	if p.Cloneable() {
		t.Fatal("cloneable without consent")
	}
	p.ConsentGiven = true
	if !p.Cloneable() {
		t.Fatal("consenting enrolled profile must be cloneable")
	}
}
