package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/lcalzada-xor/ridmap/internal/adapters/web/handlers"
	"github.com/lcalzada-xor/ridmap/internal/adapters/web/middleware"
	"github.com/lcalzada-xor/ridmap/internal/core/ports"
	"github.com/lcalzada-xor/ridmap/internal/telemetry"
)

// Server serves the operational HTTP API: health, metrics, counters and
// recent records.
type Server struct {
	Addr string

	StatsHandler   *handlers.StatsHandler
	CaptureHandler *handlers.CaptureHandler
	RecordsHandler *handlers.RecordsHandler

	// ChannelLimiter throttles channel updates per client.
	ChannelLimiter *middleware.RateLimiter

	logger *slog.Logger
	srv    *http.Server
}

// NewServer creates a new web server. controller and records may be nil,
// which leaves their routes unregistered.
func NewServer(addr string, stats ports.StatsProvider, controller ports.CaptureController, records handlers.RecordStore, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	s := &Server{
		Addr:           addr,
		StatsHandler:   handlers.NewStatsHandler(stats),
		ChannelLimiter: middleware.NewRateLimiter(10, time.Minute),
		logger:         logger.With("component", "http"),
	}
	if controller != nil {
		s.CaptureHandler = handlers.NewCaptureHandler(controller, s.logger)
	}
	if records != nil {
		s.RecordsHandler = handlers.NewRecordsHandler(records)
	}
	return s
}

// Handler returns the instrumented router.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(SetupRoutes(s), telemetry.ServiceName+"-http")
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	ln, err := net.Listen("tcp", s.Addr)
	if err != nil {
		return err
	}
	return s.Serve(ctx, ln)
}

// Serve is Run on an existing listener.
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	s.srv = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Graceful Shutdown implementation
	go func() {
		<-ctx.Done()
		s.logger.Info("web server shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.srv.Shutdown(shutdownCtx); err != nil {
			s.logger.Error("web server shutdown error", "error", err)
		}
	}()

	s.logger.Info("web server listening", "addr", ln.Addr().String())
	if err := s.srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
