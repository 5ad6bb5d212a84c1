package server

import (
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/ekvall/camrelay/recorder"
	"github.com/ekvall/camrelay/telemetry"
)

// HandleSnapshot serves a current camera still image.
func (h *Handlers) HandleSnapshot(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	img, err := h.Camera.Snapshot(r.Context())
	if err != nil {
		telemetry.SnapshotsFailed.Inc()
		telemetry.LoggerWithCorr(r.Context()).Warn("snapshot failed", slog.Any("err", err))
		http.Error(w, "snapshot failed", http.StatusBadGateway)
		return
	}
	telemetry.SnapshotsServed.Inc()
	w.Header().Set("Content-Type", "image/jpeg")
	_, _ = w.Write(img)
}

// HandleRecord records a clip of ?seconds=N and streams it back. The response
// is the artifact itself; the temp file is deleted after the transfer.
func (h *Handlers) HandleRecord(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}
	seconds, err := strconv.Atoi(r.URL.Query().Get("seconds"))
	if err != nil {
		http.Error(w, "seconds must be an integer", http.StatusBadRequest)
		return
	}

	path, err := h.Engine.Record(r.Context(), seconds)
	if err != nil {
		telemetry.LoggerWithCorr(r.Context()).Warn("record failed", slog.String("kind", recorder.Classify(err).String()), slog.Any("err", err))
		http.Error(w, recorder.UserMessage(err), recordStatus(err))
		return
	}
	defer func() {
		if rmErr := os.Remove(path); rmErr != nil && !os.IsNotExist(rmErr) {
			slog.Warn("clip cleanup failed", slog.String("path", path), slog.Any("err", rmErr))
		}
	}()

	f, err := os.Open(path)
	if err != nil {
		http.Error(w, "artifact read failed", http.StatusInternalServerError)
		return
	}
	defer f.Close()

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Content-Disposition", `attachment; filename="clip.mp4"`)
	if _, err := io.Copy(w, f); err != nil {
		telemetry.LoggerWithCorr(r.Context()).Warn("clip transfer interrupted", slog.Any("err", err))
	}
}

// recordStatus maps engine failures to HTTP status codes.
func recordStatus(err error) int {
	switch recorder.Classify(err) {
	case recorder.KindInvalidDuration:
		return http.StatusBadRequest
	case recorder.KindResolutionFailed:
		return http.StatusBadGateway
	case recorder.KindTimedOut:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
