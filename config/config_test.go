package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("HA_URL", "")
	t.Setenv("FFMPEG_PATH", "")
	t.Setenv("RECORD_GRACE", "")
	t.Setenv("MAX_UPLOAD_BYTES", "")
	t.Setenv("DATA_DIR", "")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.FFmpegPath != "ffmpeg" {
		t.Errorf("FFmpegPath = %q, want ffmpeg", cfg.FFmpegPath)
	}
	if cfg.RecordGrace != 15*time.Second {
		t.Errorf("RecordGrace = %v, want 15s", cfg.RecordGrace)
	}
	if cfg.MaxUploadBytes != 8<<20 {
		t.Errorf("MaxUploadBytes = %d, want %d", cfg.MaxUploadBytes, 8<<20)
	}
	if cfg.MinClipBytes != 1024 {
		t.Errorf("MinClipBytes = %d, want 1024", cfg.MinClipBytes)
	}
	if cfg.DataDir != "data" {
		t.Errorf("DataDir = %q, want data", cfg.DataDir)
	}
	if cfg.CommandPrefix != "!" {
		t.Errorf("CommandPrefix = %q, want !", cfg.CommandPrefix)
	}
}

func TestLoadTrimsTrailingSlash(t *testing.T) {
	t.Setenv("HA_URL", "http://ha.local:8123/")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.HABaseURL != "http://ha.local:8123" {
		t.Errorf("HABaseURL = %q, want trailing slash removed", cfg.HABaseURL)
	}
}

func TestLoadRejectsBadGrace(t *testing.T) {
	t.Setenv("RECORD_GRACE", "soon")
	if _, err := Load(); err == nil {
		t.Errorf("expected error for non-duration RECORD_GRACE")
	}
	t.Setenv("RECORD_GRACE", "-5s")
	if _, err := Load(); err == nil {
		t.Errorf("expected error for negative RECORD_GRACE")
	}
}

func TestValidate(t *testing.T) {
	t.Setenv("HA_URL", "http://ha.local:8123")
	t.Setenv("HA_TOKEN", "token")
	t.Setenv("CAMERA_ENTITY_ID", "camera.front_door")
	cfg, _ := Load()
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}

	t.Setenv("HA_TOKEN", "")
	cfg, _ = Load()
	if err := cfg.Validate(); err == nil {
		t.Errorf("expected error when HA_TOKEN missing")
	}
}

func TestValidateRelayReady(t *testing.T) {
	t.Setenv("DISCORD_TOKEN", "bot-token")
	cfg, _ := Load()
	if err := cfg.ValidateRelayReady(); err != nil {
		t.Errorf("expected relay-ready config, got %v", err)
	}

	t.Setenv("DISCORD_TOKEN", "")
	cfg, _ = Load()
	if err := cfg.ValidateRelayReady(); err == nil {
		t.Errorf("expected error when DISCORD_TOKEN missing")
	}
}
