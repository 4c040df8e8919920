package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/ridmap/internal/core/domain"
	"github.com/lcalzada-xor/ridmap/internal/core/ports"
)

// CaptureHandler exposes capture sources and their channel lists
type CaptureHandler struct {
	Controller ports.CaptureController
	logger     *slog.Logger
}

// NewCaptureHandler creates a new CaptureHandler
func NewCaptureHandler(controller ports.CaptureController, logger *slog.Logger) *CaptureHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &CaptureHandler{
		Controller: controller,
		logger:     logger,
	}
}

// HandleSources lists every capture source with its status
func (h *CaptureHandler) HandleSources(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"sources": h.Controller.Statuses(),
	})
}

// HandleGetChannels returns the hop list of one interface
func (h *CaptureHandler) HandleGetChannels(w http.ResponseWriter, r *http.Request) {
	iface := mux.Vars(r)["iface"]
	channels, ok := h.Controller.InterfaceChannels(iface)
	if !ok {
		http.Error(w, "Unknown interface", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"interface": iface,
		"channels":  channels,
	})
}

// HandleSetChannels replaces the hop list of one interface
func (h *CaptureHandler) HandleSetChannels(w http.ResponseWriter, r *http.Request) {
	iface := mux.Vars(r)["iface"]
	if !domain.IsValidInterface(iface) {
		http.Error(w, "Invalid interface name", http.StatusBadRequest)
		return
	}

	var req struct {
		Channels []int `json:"channels"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.Controller.SetInterfaceChannels(iface, req.Channels); err != nil {
		status := http.StatusInternalServerError
		switch {
		case errors.Is(err, domain.ErrInvalidChannel):
			status = http.StatusBadRequest
		case !hasInterface(h.Controller, iface):
			status = http.StatusNotFound
		}
		h.logger.Warn("channel update rejected", "interface", iface, "error", err)
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"interface": iface,
		"channels":  req.Channels,
	})
}

func hasInterface(c ports.CaptureController, iface string) bool {
	_, ok := c.InterfaceChannels(iface)
	return ok
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
