package handlers

import (
	"net/http"
	"time"

	"github.com/lcalzada-xor/ridmap/internal/core/ports"
	"github.com/lcalzada-xor/ridmap/internal/telemetry"
)

// StatsHandler serves pipeline counters and liveness
type StatsHandler struct {
	Stats    ports.StatsProvider
	StaleTTL time.Duration
}

// NewStatsHandler creates a new StatsHandler
func NewStatsHandler(stats ports.StatsProvider) *StatsHandler {
	return &StatsHandler{
		Stats:    stats,
		StaleTTL: 5 * time.Minute,
	}
}

// HandleGetStats returns the capture counters
func (h *StatsHandler) HandleGetStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.Stats.Stats())
}

// HandleHealth reports whether frames are still arriving
func (h *StatsHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	st := h.Stats.Stats()
	status := "ok"
	if st.FramesCaptured > 0 && st.IsStale(h.StaleTTL) {
		status = "stale"
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":   status,
		"version":  telemetry.Version,
		"uptime_s": int(time.Since(st.StartedAt).Seconds()),
	})
}
