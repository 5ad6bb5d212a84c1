package recorder

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func writeAged(t *testing.T, dir, name string, age time.Duration) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	old := time.Now().Add(-age)
	if err := os.Chtimes(path, old, old); err != nil {
		t.Fatalf("chtimes: %v", err)
	}
	return path
}

func TestSweepOnceRemovesOnlyStaleClips(t *testing.T) {
	dir := t.TempDir()
	stale := writeAged(t, dir, "clip_old.mp4", 2*time.Hour)
	fresh := writeAged(t, dir, "clip_new.mp4", time.Minute)
	unrelated := writeAged(t, dir, "notes.txt", 2*time.Hour)

	policy := SweepPolicy{MaxAge: time.Hour}
	if err := sweepOnce(context.Background(), dir, nil, policy); err != nil {
		t.Fatalf("sweepOnce: %v", err)
	}

	if _, err := os.Stat(stale); !os.IsNotExist(err) {
		t.Errorf("stale clip survived the sweep")
	}
	if _, err := os.Stat(fresh); err != nil {
		t.Errorf("fresh clip was removed: %v", err)
	}
	if _, err := os.Stat(unrelated); err != nil {
		t.Errorf("unrelated file was removed: %v", err)
	}
}

func TestSweepOnceDryRun(t *testing.T) {
	dir := t.TempDir()
	stale := writeAged(t, dir, "clip_old.mp4", 2*time.Hour)

	policy := SweepPolicy{MaxAge: time.Hour, DryRun: true}
	if err := sweepOnce(context.Background(), dir, nil, policy); err != nil {
		t.Fatalf("sweepOnce: %v", err)
	}
	if _, err := os.Stat(stale); err != nil {
		t.Errorf("dry run deleted a file: %v", err)
	}
}

func TestSweepOnceMissingDir(t *testing.T) {
	policy := SweepPolicy{MaxAge: time.Hour}
	if err := sweepOnce(context.Background(), filepath.Join(t.TempDir(), "nope"), nil, policy); err != nil {
		t.Errorf("missing data dir should not error: %v", err)
	}
}

func TestLoadSweepPolicy(t *testing.T) {
	t.Setenv("CLIP_MAX_AGE", "30m")
	t.Setenv("CLIP_SWEEP_INTERVAL", "1m")
	t.Setenv("CLIP_SWEEP_DRY_RUN", "1")
	policy := LoadSweepPolicy()
	if policy.MaxAge != 30*time.Minute {
		t.Errorf("MaxAge = %v, want 30m", policy.MaxAge)
	}
	if policy.Interval != time.Minute {
		t.Errorf("Interval = %v, want 1m", policy.Interval)
	}
	if !policy.DryRun {
		t.Error("DryRun not set")
	}
}
