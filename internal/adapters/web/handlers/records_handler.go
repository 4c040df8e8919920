package handlers

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/lcalzada-xor/ridmap/internal/core/domain"
)

// RecordStore is the read side of the in-memory record buffer
type RecordStore interface {
	Records() []domain.TelemetryRecord
	Aircraft(uasID string) (domain.TelemetryRecord, bool)
}

// RecordsHandler serves recently decoded telemetry
type RecordsHandler struct {
	Store RecordStore
}

// NewRecordsHandler creates a new RecordsHandler
func NewRecordsHandler(store RecordStore) *RecordsHandler {
	return &RecordsHandler{Store: store}
}

// HandleList returns the latest records, newest first
func (h *RecordsHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"records": h.Store.Records(),
	})
}

// HandleAircraft returns the latest record of one UAS id
func (h *RecordsHandler) HandleAircraft(w http.ResponseWriter, r *http.Request) {
	rec, ok := h.Store.Aircraft(mux.Vars(r)["id"])
	if !ok {
		http.Error(w, "Aircraft not found", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, rec)
}
