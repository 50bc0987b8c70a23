// Package config loads runtime configuration from environment variables.
package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// Config holds all runtime configuration.
type Config struct {
	Port        int    `env:"RADIO_PORT" envDefault:"8080"`
	StationName string `env:"RADIO_NAME" envDefault:"patterncast"`

	// Render loop
	ChunkSeconds     float64 `env:"RADIO_CHUNK_SECONDS" envDefault:"2"`
	LookaheadSeconds float64 `env:"RADIO_LOOKAHEAD_SECONDS" envDefault:"4"`
	MinCycleDelayMs  int     `env:"RADIO_MIN_CYCLE_DELAY_MS" envDefault:"10"`

	// Codecs
	BitrateKbps int `env:"RADIO_BITRATE_KBPS" envDefault:"192"`    // MP3 stream
	OpusBitrate int `env:"RADIO_OPUS_BITRATE" envDefault:"128000"` // WebRTC, bits/s

	// Mixing policy, tuned by ear
	DuckLevel  float64 `env:"RADIO_DUCK_LEVEL" envDefault:"0.4"`
	SpeechGain float64 `env:"RADIO_SPEECH_GAIN" envDefault:"1.2"`

	// Tempo in pattern cycles per second (0.5 cps = 120 BPM at 4/4)
	TempoCPS float64 `env:"RADIO_TEMPO_CPS" envDefault:"0.5"`
	TempoMin float64 `env:"RADIO_TEMPO_MIN" envDefault:"0.05"`
	TempoMax float64 `env:"RADIO_TEMPO_MAX" envDefault:"4"`

	// Pattern installed at startup; empty means start silent.
	Pattern string `env:"RADIO_PATTERN" envDefault:"bd hh sn hh"`
}

// Load reads configuration from the environment and validates it.
func Load() (Config, error) {
	cfg, err := env.ParseAs[Config]()
	if err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if cfg.ChunkSeconds <= 0 {
		return Config{}, fmt.Errorf("RADIO_CHUNK_SECONDS must be positive, got %v", cfg.ChunkSeconds)
	}
	if cfg.LookaheadSeconds < cfg.ChunkSeconds {
		return Config{}, fmt.Errorf("RADIO_LOOKAHEAD_SECONDS (%v) must be at least one chunk (%v)", cfg.LookaheadSeconds, cfg.ChunkSeconds)
	}
	if cfg.TempoMin <= 0 || cfg.TempoMax < cfg.TempoMin {
		return Config{}, fmt.Errorf("bad tempo bounds [%v, %v]", cfg.TempoMin, cfg.TempoMax)
	}
	if cfg.DuckLevel < 0 || cfg.DuckLevel > 1 {
		return Config{}, fmt.Errorf("RADIO_DUCK_LEVEL must be in [0, 1], got %v", cfg.DuckLevel)
	}
	if cfg.SpeechGain <= 0 {
		return Config{}, fmt.Errorf("RADIO_SPEECH_GAIN must be positive, got %v", cfg.SpeechGain)
	}
	if cfg.BitrateKbps <= 0 || cfg.OpusBitrate <= 0 {
		return Config{}, fmt.Errorf("bitrates must be positive")
	}
	return cfg, nil
}
