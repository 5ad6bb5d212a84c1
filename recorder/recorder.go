// Package recorder implements the clip recording engine: it resolves an
// authorized camera stream locator, supervises an ffmpeg stream-copy against
// it under a hard deadline, validates the resulting artifact, and guarantees
// temp-file cleanup on every exit path.
package recorder

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"

	"github.com/ekvall/camrelay/config"
	"github.com/ekvall/camrelay/db"
	"github.com/ekvall/camrelay/homeassistant"
	"github.com/ekvall/camrelay/telemetry"
)

const (
	// MinDuration and MaxDuration bound the accepted clip length in seconds.
	MinDuration = 1
	MaxDuration = 60

	// stderrExcerptLen caps the diagnostic excerpt carried in ProcessError.
	stderrExcerptLen = 512
)

// Resolver produces an authorized stream locator (see homeassistant.Client).
type Resolver interface {
	ResolveStream(ctx context.Context) (homeassistant.Locator, error)
}

// Engine records clips from the camera stream. Each Record call owns its
// temp path and process exclusively; Engines are safe for concurrent use.
type Engine struct {
	Resolver   Resolver
	Journal    *db.Journal
	FFmpegPath string
	DataDir    string
	Grace      time.Duration
	MinBytes   int64
}

// NewEngine builds an Engine from the service configuration.
func NewEngine(cfg *config.Config, res Resolver, journal *db.Journal) *Engine {
	return &Engine{
		Resolver:   res,
		Journal:    journal,
		FFmpegPath: cfg.FFmpegPath,
		DataDir:    cfg.DataDir,
		Grace:      cfg.RecordGrace,
		MinBytes:   cfg.MinClipBytes,
	}
}

func (e *Engine) ffmpeg() string {
	if e.FFmpegPath != "" {
		return e.FFmpegPath
	}
	return "ffmpeg"
}

func (e *Engine) grace() time.Duration {
	if e.Grace > 0 {
		return e.Grace
	}
	return 15 * time.Second
}

func (e *Engine) minBytes() int64 {
	if e.MinBytes > 0 {
		return e.MinBytes
	}
	return 1024
}

// args builds the ffmpeg invocation for the stream-copy strategy: copy the
// incoming packets without re-encoding, bounded by wall-clock duration, with
// timestamp regeneration and faststart so the clip plays before it finishes
// downloading. The output path must stay the last argument.
func (e *Engine) args(loc homeassistant.Locator, seconds int, out string) []string {
	return []string{
		"-y",
		"-headers", loc.AuthHeader,
		"-i", loc.URL,
		"-t", strconv.Itoa(seconds),
		"-c:v", "copy",
		"-c:a", "copy",
		"-avoid_negative_ts", "make_zero",
		"-fflags", "+genpts",
		"-movflags", "+faststart",
		out,
	}
}

// Record captures a clip of the given length and returns the artifact path.
// Ownership of the file transfers to the caller, which must delete it after
// transmitting (the retention sweeper is the backstop for crashes). On any
// error the temp file is already gone when Record returns.
func (e *Engine) Record(ctx context.Context, seconds int) (string, error) {
	// Fail fast before resolving anything or touching the filesystem.
	if seconds < MinDuration || seconds > MaxDuration {
		return "", ErrInvalidDuration
	}

	jobID := uuid.New().String()
	logger := telemetry.LoggerWithCorr(ctx).With(slog.String("job_id", jobID), slog.String("component", "recorder"))

	ctx, span := telemetry.StartSpan(ctx, "recorder", "record",
		attribute.Int("duration_seconds", seconds),
		attribute.String("job_id", jobID),
	)
	defer span.End()

	telemetry.RecordingsStarted.Inc()
	telemetry.ActiveRecordings.Inc()
	defer telemetry.ActiveRecordings.Dec()
	start := time.Now()
	defer func() { telemetry.RecordingDuration.Observe(time.Since(start).Seconds()) }()

	e.Journal.Begin(ctx, jobID, "clip", seconds, "")

	e.Journal.SetState(ctx, jobID, "resolving")
	loc, err := e.Resolver.ResolveStream(ctx)
	if err != nil {
		rerr := &ResolutionError{Err: err}
		e.fail(ctx, logger, jobID, rerr)
		telemetry.RecordError(span, rerr)
		return "", rerr
	}

	if err := os.MkdirAll(e.DataDir, 0o755); err != nil {
		werr := fmt.Errorf("mkdir data dir: %w", err)
		e.fail(ctx, logger, jobID, werr)
		telemetry.RecordError(span, werr)
		return "", werr
	}
	out := filepath.Join(e.DataDir, fmt.Sprintf("clip_%s.mp4", jobID))

	// The engine owns out until the caller takes the returned path. Any
	// non-success exit below must leave no file behind.
	delivered := false
	defer func() {
		if !delivered {
			if rmErr := os.Remove(out); rmErr != nil && !os.IsNotExist(rmErr) {
				logger.Warn("temp clip cleanup failed", slog.String("path", out), slog.Any("err", rmErr))
			}
		}
	}()

	// Hard deadline: requested duration plus grace for stream negotiation.
	deadline := time.Duration(seconds)*time.Second + e.grace()
	rctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	cmd := exec.CommandContext(rctx, e.ffmpeg(), e.args(loc, seconds, out)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	// Give the process a moment to exit after the kill signal before Wait
	// gives up on its pipes.
	cmd.WaitDelay = 3 * time.Second

	e.Journal.SetState(ctx, jobID, "running")
	logger.Info("recording started", slog.Int("seconds", seconds), slog.Duration("deadline", deadline))

	runErr := cmd.Run()

	switch {
	case errors.Is(rctx.Err(), context.DeadlineExceeded):
		// CommandContext already killed the process; confirm cleanup and
		// report the timeout.
		e.Journal.Finish(ctx, jobID, "timed_out", ErrTimeout.Error(), 0)
		telemetry.RecordingsTimedOut.Inc()
		logger.Warn("recording killed at deadline", slog.Duration("deadline", deadline))
		telemetry.RecordError(span, ErrTimeout)
		return "", ErrTimeout
	case ctx.Err() != nil:
		// Caller cancelled mid-recording; the process is dead and the defer
		// removes the partial file before we return.
		e.Journal.Finish(context.WithoutCancel(ctx), jobID, "failed", ctx.Err().Error(), 0)
		logger.Info("recording cancelled", slog.Any("err", ctx.Err()))
		telemetry.RecordError(span, ctx.Err())
		return "", ctx.Err()
	case runErr != nil:
		perr := &ProcessError{Err: runErr, Stderr: excerpt(stderr.Bytes())}
		e.fail(ctx, logger, jobID, perr)
		telemetry.RecordError(span, perr)
		return "", perr
	}

	fi, statErr := os.Stat(out)
	if statErr != nil || fi.Size() < e.minBytes() {
		e.fail(ctx, logger, jobID, ErrEmptyOutput)
		telemetry.RecordError(span, ErrEmptyOutput)
		return "", ErrEmptyOutput
	}

	delivered = true
	e.Journal.Finish(ctx, jobID, "completed", "", fi.Size())
	telemetry.RecordingsSucceeded.Inc()
	telemetry.ArtifactBytes.Observe(float64(fi.Size()))
	telemetry.SetSpanSuccess(span)
	logger.Info("recording complete", slog.String("path", out), slog.Int64("bytes", fi.Size()), slog.Duration("took", time.Since(start)))
	return out, nil
}

func (e *Engine) fail(ctx context.Context, logger *slog.Logger, jobID string, err error) {
	e.Journal.Finish(ctx, jobID, "failed", err.Error(), 0)
	telemetry.RecordingsFailed.Inc()
	logger.Error("recording failed", slog.String("kind", Classify(err).String()), slog.Any("err", err))
}

// excerpt trims stderr to a bounded diagnostic string, keeping the tail where
// ffmpeg puts the actual failure reason.
func excerpt(b []byte) string {
	if len(b) > stderrExcerptLen {
		b = b[len(b)-stderrExcerptLen:]
	}
	return string(bytes.TrimSpace(b))
}
