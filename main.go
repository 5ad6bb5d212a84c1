// Command camrelay is the main entrypoint for the camera relay service.
// It:
//   - Loads configuration and initializes structured logging.
//   - Optionally connects to Postgres and runs idempotent migrations for the
//     recordings journal.
//   - Starts the Discord relay and the orphaned-clip sweeper.
//   - Exposes a minimal HTTP server with /healthz, /readyz, /status, /metrics
//     and the camera API endpoints.
//
// Shutdown is graceful on SIGINT/SIGTERM.
package main

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/ekvall/camrelay/config"
	"github.com/ekvall/camrelay/db"
	"github.com/ekvall/camrelay/homeassistant"
	"github.com/ekvall/camrelay/recorder"
	"github.com/ekvall/camrelay/relay"
	"github.com/ekvall/camrelay/server"
	"github.com/ekvall/camrelay/telemetry"
)

func main() {
	// Load .env file if present (local dev convenience only; production relies on real env)
	_ = godotenv.Load(".env")

	// Configure logging (level + format). Defaults: level=info, format=text.
	lvl := slog.LevelInfo
	switch strings.ToLower(os.Getenv("LOG_LEVEL")) {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	case "info", "":
		// keep default
	default:
		tmp := slog.New(slog.NewTextHandler(os.Stdout, nil))
		tmp.Warn("unknown LOG_LEVEL, using info", slog.String("value", os.Getenv("LOG_LEVEL")))
	}
	format := strings.ToLower(os.Getenv("LOG_FORMAT")) // text | json
	var handler slog.Handler
	switch format {
	case "json":
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	default:
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: lvl})
	}
	slog.SetDefault(slog.New(handler))

	// Config
	cfg, err := config.Load()
	if err != nil {
		slog.Error("config load failed", slog.Any("err", err))
		os.Exit(1)
	}
	if err := cfg.Validate(); err != nil {
		slog.Error("config invalid", slog.Any("err", err))
		os.Exit(1)
	}

	// Metrics / telemetry init
	telemetry.Init()

	// Initialize OpenTelemetry tracing (optional; requires OTEL_EXPORTER_OTLP_ENDPOINT)
	shutdown, err := telemetry.InitTracing("camrelay", relay.Version)
	if err != nil {
		slog.Error("tracing initialization failed", slog.Any("err", err))
		os.Exit(1)
	}
	defer shutdown()

	// Recordings journal (optional; the service runs without Postgres)
	var journal *db.Journal
	var dbc *sql.DB
	if cfg.DBDsn != "" {
		dbc, err = db.Connect(cfg.DBDsn)
		if err != nil {
			slog.Error("failed to open db", slog.Any("err", err))
			os.Exit(1)
		}
		if err := db.Migrate(context.Background(), dbc); err != nil {
			slog.Error("failed to migrate db", slog.Any("err", err))
			os.Exit(1)
		}
		journal = &db.Journal{DB: dbc}
		slog.Info("recordings journal enabled")
	} else {
		slog.Info("recordings journal disabled (DB_DSN not set)")
	}
	defer func() {
		if dbc != nil {
			if err := dbc.Close(); err != nil {
				slog.Error("failed to close database", slog.Any("err", err))
			}
		}
	}()

	// Root context with graceful shutdown
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	camera := homeassistant.New(cfg)
	engine := recorder.NewEngine(cfg, camera, journal)

	// Background sweeper for clips orphaned by crashes
	go recorder.StartSweepJob(ctx, cfg.DataDir, journal)

	// Discord relay (optional: requires DISCORD_TOKEN)
	if err := cfg.ValidateRelayReady(); err == nil {
		r := relay.New(cfg, camera, engine)
		go func() {
			if err := relay.Start(ctx, cfg, r); err != nil {
				slog.Error("discord relay exited with error", slog.Any("err", err))
			}
		}()
	} else {
		slog.Info("discord relay disabled", slog.Any("reason", err))
	}

	// HTTP server (health/status/metrics/camera API)
	addr := os.Getenv("HTTP_ADDR")
	if addr == "" {
		addr = ":8080"
	}
	handlers := server.NewHandlers(dbc, journal, camera, engine)
	go func() {
		if err := server.Start(ctx, handlers, addr); err != nil {
			slog.Error("http server exited with error", slog.Any("err", err))
		}
	}()

	// Block until shutdown signal
	<-ctx.Done()
	slog.Info("shutting down")
}
