// Package relay connects the camera pipeline to Discord: a thin listener for
// the snapshot/record/status commands and the outbound delivery of images and
// clips. Generic command routing, help rendering, and presence management are
// deliberately out of scope.
package relay

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/bwmarrin/discordgo"

	"github.com/ekvall/camrelay/config"
	"github.com/ekvall/camrelay/homeassistant"
	"github.com/ekvall/camrelay/recorder"
	"github.com/ekvall/camrelay/telemetry"
)

// Version is stamped at build time via -ldflags.
var Version = "dev"

// Relay owns the chat-facing side of the service.
type Relay struct {
	Camera    *homeassistant.Client
	Engine    *recorder.Engine
	Prefix    string
	MaxUpload int64

	// Entity and base URL are only surfaced in the status command output.
	baseURL string
	entity  string
}

// New builds a Relay from the service configuration and collaborators.
func New(cfg *config.Config, cam *homeassistant.Client, eng *recorder.Engine) *Relay {
	return &Relay{
		Camera:    cam,
		Engine:    eng,
		Prefix:    cfg.CommandPrefix,
		MaxUpload: cfg.MaxUploadBytes,
		baseURL:   cfg.HABaseURL,
		entity:    cfg.CameraEntity,
	}
}

// Start connects to Discord and serves commands until ctx is cancelled.
func Start(ctx context.Context, cfg *config.Config, r *Relay) error {
	session, err := discordgo.New("Bot " + cfg.DiscordToken)
	if err != nil {
		return fmt.Errorf("discord session: %w", err)
	}
	session.Identify.Intents = discordgo.IntentsGuildMessages | discordgo.IntentMessageContent

	transport := NewTransport(session)
	session.AddHandler(func(s *discordgo.Session, m *discordgo.MessageCreate) {
		if m.Author == nil || m.Author.Bot {
			return
		}
		r.HandleMessage(ctx, transport, m.ChannelID, m.Author.Username, m.Content)
	})

	if err := session.Open(); err != nil {
		return fmt.Errorf("discord connect: %w", err)
	}
	slog.Info("discord relay connected", slog.String("prefix", r.Prefix))

	<-ctx.Done()
	if err := session.Close(); err != nil {
		slog.Error("discord close error", slog.Any("err", err))
	}
	slog.Info("discord relay stopped")
	return nil
}

// HandleMessage dispatches one inbound chat line. Unrecognized content is
// ignored silently.
func (r *Relay) HandleMessage(ctx context.Context, t Transport, channelID, author, content string) {
	cmd, arg, ok := parseCommand(r.Prefix, content)
	if !ok {
		return
	}
	logger := slog.Default().With(slog.String("component", "relay"), slog.String("command", cmd), slog.String("author", author))

	switch cmd {
	case "webcam":
		r.handleSnapshot(ctx, t, channelID, logger)
	case "record":
		seconds, err := strconv.Atoi(arg)
		if err != nil {
			r.send(t, channelID, "Please specify the duration in seconds (1-60). Example: "+r.Prefix+"record 10", logger)
			return
		}
		r.handleRecord(ctx, t, channelID, seconds, logger)
	case "hastatus":
		r.handleStatus(ctx, t, channelID, logger)
	case "about":
		r.handleAbout(t, channelID, logger)
	}
}

// parseCommand splits "<prefix><cmd> <arg>" into its parts.
func parseCommand(prefix, content string) (cmd, arg string, ok bool) {
	if !strings.HasPrefix(content, prefix) {
		return "", "", false
	}
	fields := strings.Fields(strings.TrimPrefix(content, prefix))
	if len(fields) == 0 {
		return "", "", false
	}
	cmd = strings.ToLower(fields[0])
	if len(fields) > 1 {
		arg = fields[1]
	}
	return cmd, arg, true
}

func (r *Relay) send(t Transport, channelID, content string, logger *slog.Logger) {
	if _, err := t.SendText(channelID, content); err != nil {
		logger.Error("send failed", slog.Any("err", err))
	}
}

func (r *Relay) handleSnapshot(ctx context.Context, t Transport, channelID string, logger *slog.Logger) {
	ctx, span := telemetry.StartSpan(ctx, "relay", "snapshot")
	defer span.End()

	img, err := r.Camera.Snapshot(ctx)
	if err != nil {
		telemetry.SnapshotsFailed.Inc()
		telemetry.RecordError(span, err)
		logger.Error("snapshot failed", slog.Any("err", err))
		r.send(t, channelID, "Could not capture an image. Check Home Assistant.", logger)
		return
	}
	name := fmt.Sprintf("camera_%s.jpg", time.Now().Format("20060102_150405"))
	if err := t.SendFile(channelID, "Here's your image:", name, bytes.NewReader(img)); err != nil {
		telemetry.SnapshotsFailed.Inc()
		telemetry.RecordError(span, err)
		logger.Error("snapshot delivery failed", slog.Any("err", err))
		return
	}
	telemetry.SnapshotsServed.Inc()
	telemetry.SetSpanSuccess(span)
}

func (r *Relay) handleRecord(ctx context.Context, t Transport, channelID string, seconds int, logger *slog.Logger) {
	ctx, span := telemetry.StartSpan(ctx, "relay", "record")
	defer span.End()

	progressID, _ := t.SendText(channelID, fmt.Sprintf("Starting %d-second recording...", seconds))

	// Progress edits while the engine runs; best effort only.
	progressCtx, stopProgress := context.WithCancel(ctx)
	defer stopProgress()
	if seconds > 5 && progressID != "" {
		go func() {
			ticker := time.NewTicker(5 * time.Second)
			defer ticker.Stop()
			elapsed := 0
			for {
				select {
				case <-progressCtx.Done():
					return
				case <-ticker.C:
					elapsed += 5
					if elapsed >= seconds {
						return
					}
					_ = t.EditText(channelID, progressID, fmt.Sprintf("Recording in progress... %d/%ds", elapsed, seconds))
				}
			}
		}()
	}

	path, err := r.Engine.Record(ctx, seconds)
	stopProgress()
	if progressID != "" {
		_ = t.DeleteMessage(channelID, progressID)
	}
	if err != nil {
		telemetry.RecordError(span, err)
		r.send(t, channelID, UserError(err), logger)
		return
	}

	// Ownership of the clip is ours now; delete after the transmit attempt
	// regardless of outcome. The sweeper handles anything this misses.
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			logger.Warn("clip cleanup failed", slog.String("path", path), slog.Any("err", rmErr))
		}
	}()

	fi, statErr := os.Stat(path)
	if statErr != nil {
		telemetry.RecordError(span, statErr)
		r.send(t, channelID, UserError(statErr), logger)
		return
	}
	if fi.Size() > r.MaxUpload {
		telemetry.DeliveriesRejected.Inc()
		telemetry.RecordError(span, recorder.ErrTooLarge)
		logger.Warn("clip over upload ceiling", slog.Int64("bytes", fi.Size()), slog.Int64("limit", r.MaxUpload))
		r.send(t, channelID, UserError(recorder.ErrTooLarge), logger)
		return
	}

	f, err := os.Open(path)
	if err != nil {
		telemetry.RecordError(span, err)
		r.send(t, channelID, UserError(err), logger)
		return
	}
	defer f.Close()

	name := fmt.Sprintf("camera_clip_%s%s", time.Now().Format("20060102_150405"), filepath.Ext(path))
	content := fmt.Sprintf("Here's your %d-second clip (%.1f MB):", seconds, float64(fi.Size())/(1024*1024))
	if err := t.SendFile(channelID, content, name, f); err != nil {
		telemetry.RecordError(span, err)
		logger.Error("clip delivery failed", slog.Any("err", err))
		r.send(t, channelID, "Recording succeeded but sending the clip failed.", logger)
		return
	}
	telemetry.SetSpanSuccess(span)
	logger.Info("clip delivered", slog.Int("seconds", seconds), slog.Int64("bytes", fi.Size()))
}

func (r *Relay) handleStatus(ctx context.Context, t Transport, channelID string, logger *slog.Logger) {
	err := r.Camera.Status(ctx)
	if err != nil {
		logger.Warn("home assistant unreachable", slog.Any("err", err))
		r.send(t, channelID, "Could not connect to Home Assistant: "+err.Error(), logger)
		return
	}
	embed := &discordgo.MessageEmbed{
		Title: "Home Assistant Status",
		Color: 0x2ecc71,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Status", Value: "Connected", Inline: false},
			{Name: "URL", Value: r.baseURL, Inline: true},
			{Name: "Camera Entity", Value: r.entity, Inline: true},
		},
	}
	if err := t.SendEmbed(channelID, embed); err != nil {
		logger.Error("status embed send failed", slog.Any("err", err))
	}
}

func (r *Relay) handleAbout(t Transport, channelID string, logger *slog.Logger) {
	embed := &discordgo.MessageEmbed{
		Title:       "Home Assistant Camera Relay",
		Description: "Relays camera snapshots and short clips from Home Assistant.",
		Color:       0x3498db,
		Fields: []*discordgo.MessageEmbedField{
			{Name: "Version", Value: Version, Inline: true},
		},
	}
	if err := t.SendEmbed(channelID, embed); err != nil {
		logger.Error("about embed send failed", slog.Any("err", err))
	}
}

// UserError maps any pipeline error to its user-facing notification.
func UserError(err error) string {
	return recorder.UserMessage(err)
}
