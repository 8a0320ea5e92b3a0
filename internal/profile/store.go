// Package profile gives read access to the enrollment feature's output.
package profile

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/globalbridge/bridge/internal/domain"
)

// Load reads the voice profile saved by the enrollment flow. A missing
// file is not an error: it means nobody enrolled, and the zero profile
// keeps voice cloning off.
func Load(path string) (*domain.VoiceProfile, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return &domain.VoiceProfile{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read voice profile: %w", err)
	}
	var p domain.VoiceProfile
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse voice profile: %w", err)
	}
	log.Info().Str("module", "profile").Bool("enrolled", p.IsEnrolled).Msg("voice profile loaded")
	return &p, nil
}

func Save(path string, p *domain.VoiceProfile) error {
	data, err := json.MarshalIndent(p, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0o600)
}
