// Package config loads environment variables and provides a typed Config used across the service.
// It applies sensible defaults so the binary can run locally with minimal setup.
// Home Assistant credentials are required (see Validate); Discord credentials are only
// required when the chat relay is enabled (see ValidateRelayReady).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	// Home Assistant
	HABaseURL    string
	HAToken      string
	CameraEntity string

	// Discord
	DiscordToken  string
	CommandPrefix string

	// Recording
	FFmpegPath     string
	RecordGrace    time.Duration
	MinClipBytes   int64
	MaxUploadBytes int64

	// Database (optional; empty DSN disables the recordings journal)
	DBDsn string

	// Storage
	DataDir string
}

// Load reads environment variables and applies defaults. It doesn't fail if Discord creds
// are missing; use ValidateRelayReady() when you require the chat relay. Validate() checks
// the Home Assistant credentials the whole service depends on.
func Load() (*Config, error) {
	cfg := &Config{}

	cfg.HABaseURL = strings.TrimRight(os.Getenv("HA_URL"), "/")
	cfg.HAToken = os.Getenv("HA_TOKEN")
	cfg.CameraEntity = os.Getenv("CAMERA_ENTITY_ID")

	cfg.DiscordToken = os.Getenv("DISCORD_TOKEN")
	cfg.CommandPrefix = os.Getenv("COMMAND_PREFIX")
	if cfg.CommandPrefix == "" {
		cfg.CommandPrefix = "!"
	}

	cfg.FFmpegPath = os.Getenv("FFMPEG_PATH")
	if cfg.FFmpegPath == "" {
		cfg.FFmpegPath = "ffmpeg"
	}

	cfg.RecordGrace = 15 * time.Second
	if s := os.Getenv("RECORD_GRACE"); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("invalid RECORD_GRACE (duration): %q", s)
		}
		cfg.RecordGrace = d
	}

	cfg.MinClipBytes = 1024
	if s := os.Getenv("MIN_CLIP_BYTES"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
			cfg.MinClipBytes = n
		}
	}

	cfg.MaxUploadBytes = 8 << 20 // Discord attachment ceiling for non-boosted servers
	if s := os.Getenv("MAX_UPLOAD_BYTES"); s != "" {
		if n, err := strconv.ParseInt(s, 10, 64); err == nil && n > 0 {
			cfg.MaxUploadBytes = n
		}
	}

	cfg.DBDsn = os.Getenv("DB_DSN")

	cfg.DataDir = os.Getenv("DATA_DIR")
	if cfg.DataDir == "" {
		cfg.DataDir = "data"
	}

	return cfg, nil
}

// Validate checks the Home Assistant settings the service cannot run without.
// Absence is a startup-time fatal condition, not a per-request error.
func (c *Config) Validate() error {
	if c.HABaseURL == "" || c.HAToken == "" || c.CameraEntity == "" {
		return fmt.Errorf("missing home assistant env: require HA_URL, HA_TOKEN, CAMERA_ENTITY_ID")
	}
	return nil
}

// ValidateRelayReady checks required fields when the Discord relay is enabled.
func (c *Config) ValidateRelayReady() error {
	if c.DiscordToken == "" {
		return fmt.Errorf("missing discord env: require DISCORD_TOKEN")
	}
	return nil
}
