package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode       string        `mapstructure:"mode"`
	Port       int           `mapstructure:"port"`
	StaticPath string        `mapstructure:"static_path"`
	ReadLimit  int64         `mapstructure:"read_limit"`
	PingPeriod time.Duration `mapstructure:"ping_period"`
	Secret     string        `mapstructure:"secret"`

	Audio   AudioConfig  `mapstructure:"audio"`
	Engine  EngineConfig `mapstructure:"engine"`
	Profile string       `mapstructure:"profile_path"`
}

// AudioConfig fixes the two clock domains of the pipeline: capture
// runs at InRate, the engine synthesizes at OutRate.
type AudioConfig struct {
	InRate        int `mapstructure:"in_rate"`
	OutRate       int `mapstructure:"out_rate"`
	CaptureWindow int `mapstructure:"capture_window"`
}

type EngineConfig struct {
	Endpoint       string `mapstructure:"endpoint"`
	Model          string `mapstructure:"model"`
	TargetLanguage string `mapstructure:"target_language"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("port", 4000)
	v.SetDefault("static_path", "./web")
	v.SetDefault("read_limit", 32768)
	v.SetDefault("ping_period", "54s")
	v.SetDefault("audio.in_rate", 16000)
	v.SetDefault("audio.out_rate", 24000)
	v.SetDefault("audio.capture_window", 1024)
	v.SetDefault("engine.endpoint", "wss://generativelanguage.googleapis.com/ws/live")
	v.SetDefault("engine.model", "gemini-2.5-flash-native-audio-preview-12-2025")
	v.SetDefault("engine.target_language", "Spanish")
	v.SetDefault("profile_path", "voice_profile.json")

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("⚠️ Config file not found (%s), using defaults\n", fileName)
	} else {
		fmt.Printf("✅ Loaded config: %s\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	fmt.Printf("🧩 Mode: %s | Port: %d | Engine: %s\n", cfg.Mode, cfg.Port, cfg.Engine.Model)
	return &cfg, nil
}
