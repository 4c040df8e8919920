package server

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lcalzada-xor/ridmap/internal/adapters/web/middleware"
)

func SetupRoutes(s *Server) http.Handler {
	r := mux.NewRouter()
	r.Use(middleware.Logging(s.logger))

	r.HandleFunc("/healthz", s.StatsHandler.HandleHealth).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	// Subrouters answer a method mismatch with 404 unless told otherwise.
	api.MethodNotAllowedHandler = http.HandlerFunc(methodNotAllowed)
	api.HandleFunc("/stats", s.StatsHandler.HandleGetStats).Methods(http.MethodGet)

	if s.CaptureHandler != nil {
		api.HandleFunc("/sources", s.CaptureHandler.HandleSources).Methods(http.MethodGet)
		api.HandleFunc("/interfaces/{iface}/channels", s.CaptureHandler.HandleGetChannels).Methods(http.MethodGet)
		api.Handle("/interfaces/{iface}/channels",
			middleware.RateLimit(s.ChannelLimiter)(http.HandlerFunc(s.CaptureHandler.HandleSetChannels)),
		).Methods(http.MethodPut, http.MethodPost)
	}

	if s.RecordsHandler != nil {
		api.HandleFunc("/records", s.RecordsHandler.HandleList).Methods(http.MethodGet)
		api.HandleFunc("/aircraft/{id}", s.RecordsHandler.HandleAircraft).Methods(http.MethodGet)
	}

	return r
}

func methodNotAllowed(w http.ResponseWriter, r *http.Request) {
	http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
}
