package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"
)

type statusRecording struct {
	JobID         string    `json:"job_id"`
	Kind          string    `json:"kind"`
	Duration      int       `json:"duration_seconds"`
	State         string    `json:"state"`
	ArtifactBytes int64     `json:"artifact_bytes"`
	Error         string    `json:"error,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

type statusResponse struct {
	Journal string            `json:"journal"`
	Counts  map[string]int    `json:"counts,omitempty"`
	Recent  []statusRecording `json:"recent,omitempty"`
}

// HandleStatus returns recent recording jobs and per-state counts from the
// journal. With the journal disabled it reports that and nothing else.
func (h *Handlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	if h.DB == nil {
		_ = json.NewEncoder(w).Encode(statusResponse{Journal: "disabled"})
		return
	}

	resp := statusResponse{Journal: "enabled"}
	counts, err := h.Journal.StateCounts(r.Context())
	if err != nil {
		slog.Warn("status: state counts failed", slog.Any("err", err))
		http.Error(w, "journal query failed", http.StatusInternalServerError)
		return
	}
	resp.Counts = counts

	recent, err := h.Journal.Recent(r.Context(), 20)
	if err != nil {
		slog.Warn("status: recent query failed", slog.Any("err", err))
		http.Error(w, "journal query failed", http.StatusInternalServerError)
		return
	}
	for _, rec := range recent {
		resp.Recent = append(resp.Recent, statusRecording{
			JobID:         rec.JobID,
			Kind:          rec.Kind,
			Duration:      rec.Duration,
			State:         rec.State,
			ArtifactBytes: rec.ArtifactBytes,
			Error:         rec.Error,
			CreatedAt:     rec.CreatedAt,
		})
	}
	_ = json.NewEncoder(w).Encode(resp)
}
