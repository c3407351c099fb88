// Package config defines service configuration structures and loading hooks.
package config

import (
	"fmt"
	"strings"

	"github.com/okian/notebeat/internal/domain/palette"
)

// Audio outputs.
const (
	OutputSpeaker = "speaker"
	OutputNull    = "null"
)

// Config contains process configuration.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// LogFormat selects the log handler: text or json.
	LogFormat string `koanf:"log_format"`

	// Addr configures the HTTP listen address, e.g. ":9080".
	Addr string `koanf:"addr"`

	// TrackPath is the soundtrack, .wav or .mp3.
	TrackPath string `koanf:"track_path"`

	// BPM and Subdivision set the beat interval.
	BPM         float64 `koanf:"bpm"`
	Subdivision float64 `koanf:"subdivision"`

	// Palette lists the five note colors as hex, lowest value first.
	Palette []string `koanf:"palette"`

	// ModelPath is the COLLADA note model. A missing file means sphere notes.
	ModelPath string `koanf:"model_path"`

	// Spawn bounds, in meters around the viewer.
	SpawnHorizontal float64 `koanf:"spawn_horizontal"`
	SpawnVertical   float64 `koanf:"spawn_vertical"`
	SpawnDepthMin   float64 `koanf:"spawn_depth_min"`
	SpawnDepthMax   float64 `koanf:"spawn_depth_max"`

	// QueueSize bounds the session command and event queue.
	QueueSize int `koanf:"queue_size"`

	// DedupeSize bounds the remembered tap ids.
	DedupeSize int `koanf:"dedupe_size"`

	// FallbackScore is awarded for notes whose color is unknown.
	FallbackScore int `koanf:"fallback_score"`

	// FadeInMS is the spawn fade-in reported to clients.
	FadeInMS int `koanf:"fade_in_ms"`

	// MaxHighscoreLimit caps GET /highscores?limit.
	MaxHighscoreLimit int `koanf:"max_highscore_limit"`

	// AudioOutput is speaker or null.
	AudioOutput string `koanf:"audio_output"`

	// AudioBufferMS sizes the speaker buffer and the null output period.
	AudioBufferMS int `koanf:"audio_buffer_ms"`

	// Volume scales playback, 0 to 1.
	Volume float64 `koanf:"volume"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:          "info",
		LogFormat:         "text",
		Addr:              ":9080",
		TrackPath:         "assets/track.mp3",
		BPM:               96,
		Subdivision:       0.25,
		Palette:           append([]string(nil), palette.DefaultHex...),
		ModelPath:         "assets/music_note.dae",
		SpawnHorizontal:   10,
		SpawnVertical:     10,
		SpawnDepthMin:     1,
		SpawnDepthMax:     10,
		QueueSize:         256,
		DedupeSize:        4096,
		FallbackScore:     50,
		FadeInMS:          250,
		MaxHighscoreLimit: 100,
		AudioOutput:       OutputSpeaker,
		AudioBufferMS:     100,
		Volume:            1,
	}
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	switch {
	case strings.TrimSpace(c.Addr) == "":
		return fmt.Errorf("%w: addr must not be empty", ErrInvalidConfig)
	case strings.TrimSpace(c.TrackPath) == "":
		return fmt.Errorf("%w: track_path must not be empty", ErrInvalidConfig)
	case c.BPM <= 0:
		return fmt.Errorf("%w: bpm must be positive, got %v", ErrInvalidConfig, c.BPM)
	case c.Subdivision <= 0:
		return fmt.Errorf("%w: subdivision must be positive, got %v", ErrInvalidConfig, c.Subdivision)
	case len(c.Palette) != palette.Size:
		return fmt.Errorf("%w: palette needs %d colors, got %d", ErrInvalidConfig, palette.Size, len(c.Palette))
	case c.SpawnHorizontal < 0 || c.SpawnVertical < 0:
		return fmt.Errorf("%w: spawn bounds must not be negative", ErrInvalidConfig)
	case c.SpawnDepthMin <= 0 || c.SpawnDepthMax < c.SpawnDepthMin:
		return fmt.Errorf("%w: spawn depth must satisfy 0 < min <= max", ErrInvalidConfig)
	case c.QueueSize <= 0:
		return fmt.Errorf("%w: queue_size must be positive", ErrInvalidConfig)
	case c.DedupeSize <= 0:
		return fmt.Errorf("%w: dedupe_size must be positive", ErrInvalidConfig)
	case c.FadeInMS < 0:
		return fmt.Errorf("%w: fade_in_ms must not be negative", ErrInvalidConfig)
	case c.MaxHighscoreLimit <= 0:
		return fmt.Errorf("%w: max_highscore_limit must be positive", ErrInvalidConfig)
	case c.AudioOutput != OutputSpeaker && c.AudioOutput != OutputNull:
		return fmt.Errorf("%w: audio_output must be %q or %q", ErrInvalidConfig, OutputSpeaker, OutputNull)
	case c.AudioBufferMS <= 0:
		return fmt.Errorf("%w: audio_buffer_ms must be positive", ErrInvalidConfig)
	case c.Volume < 0 || c.Volume > 1:
		return fmt.Errorf("%w: volume must be within [0,1]", ErrInvalidConfig)
	}
	if _, err := palette.FromHex(c.Palette); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	return nil
}
