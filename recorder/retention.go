package recorder

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ekvall/camrelay/db"
)

// SweepPolicy controls the orphaned-clip sweeper. Clips are normally deleted
// by the delivery layer right after transmit; the sweeper only catches files
// left behind by crashes or kills.
type SweepPolicy struct {
	// MaxAge: clips older than this are deleted (0 = disabled)
	MaxAge time.Duration
	// Interval: how often to run the sweep
	Interval time.Duration
	// DryRun: when true, log actions but don't delete files
	DryRun bool
}

// LoadSweepPolicy loads sweeper configuration from environment variables.
func LoadSweepPolicy() SweepPolicy {
	policy := SweepPolicy{
		MaxAge:   time.Hour,
		Interval: 10 * time.Minute,
	}
	if s := os.Getenv("CLIP_MAX_AGE"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d >= 0 {
			policy.MaxAge = d
		}
	}
	if s := os.Getenv("CLIP_SWEEP_INTERVAL"); s != "" {
		if d, err := time.ParseDuration(s); err == nil && d > 0 {
			policy.Interval = d
		}
	}
	if os.Getenv("CLIP_SWEEP_DRY_RUN") == "1" {
		policy.DryRun = true
	}
	return policy
}

// StartSweepJob runs a background job that periodically removes orphaned clip
// files from dataDir according to the configured policy.
func StartSweepJob(ctx context.Context, dataDir string, journal *db.Journal) {
	policy := LoadSweepPolicy()
	if policy.MaxAge == 0 {
		slog.Info("clip sweeper disabled (CLIP_MAX_AGE=0)")
		return
	}

	slog.Info("clip sweeper starting",
		slog.Duration("max_age", policy.MaxAge),
		slog.Duration("interval", policy.Interval),
		slog.Bool("dry_run", policy.DryRun))

	// Run immediately on start so a crash-restart cleans up promptly.
	if err := sweepOnce(ctx, dataDir, journal, policy); err != nil {
		slog.Warn("clip sweep failed", slog.Any("err", err))
	}

	ticker := time.NewTicker(policy.Interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			slog.Info("clip sweeper stopped")
			return
		case <-ticker.C:
			if err := sweepOnce(ctx, dataDir, journal, policy); err != nil {
				slog.Warn("clip sweep failed", slog.Any("err", err))
			}
		}
	}
}

// sweepOnce performs a single sweep cycle.
func sweepOnce(ctx context.Context, dataDir string, journal *db.Journal, policy SweepPolicy) error {
	logger := slog.Default().With(slog.String("component", "clip_sweep"), slog.Bool("dry_run", policy.DryRun))
	journal.Heartbeat(ctx, "job_clip_sweep_last")

	entries, err := os.ReadDir(dataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	cutoff := time.Now().Add(-policy.MaxAge)
	removed := 0
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		if !strings.HasPrefix(name, "clip_") || !strings.HasSuffix(name, ".mp4") {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			continue
		}
		if info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(dataDir, name)
		if policy.DryRun {
			logger.Info("would remove orphaned clip", slog.String("path", path), slog.Time("mod_time", info.ModTime()))
			continue
		}
		if err := os.Remove(path); err != nil {
			logger.Warn("orphan removal failed", slog.String("path", path), slog.Any("err", err))
			continue
		}
		removed++
		logger.Info("removed orphaned clip", slog.String("path", path), slog.Time("mod_time", info.ModTime()))
	}
	if removed > 0 {
		logger.Info("sweep cycle complete", slog.Int("removed", removed))
	}
	return nil
}
