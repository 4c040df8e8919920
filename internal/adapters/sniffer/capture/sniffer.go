// Package capture reads captured frames from a monitor-mode interface or a
// capture file and pushes them through the frame handler.
package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"golang.org/x/sync/errgroup"

	"github.com/lcalzada-xor/ridmap/internal/core/domain"
	"github.com/lcalzada-xor/ridmap/internal/core/ports"
	"github.com/lcalzada-xor/ridmap/internal/telemetry"
)

const DefaultSnapLen = 2048

const (
	defaultAircraftTTL = 5 * time.Minute
	aircraftPruneEvery = time.Minute
)

// SnifferConfig holds the configuration for one capture source.
type SnifferConfig struct {
	// Interface is the monitor-mode interface to capture on. Ignored when
	// PcapFile is set.
	Interface string
	PcapFile  string
	SnapLen   int
	Filter    string
	Workers   int
	// DumpPath, when set, receives every frame that produced a record.
	DumpPath string
}

// Sniffer captures frames from one source and publishes the decoded records.
type Sniffer struct {
	Config SnifferConfig

	handler   ports.FrameHandler
	publisher ports.Publisher
	logger    *slog.Logger
	dump      *Dumper

	// open returns the frame source; replaced in tests.
	open func(ctx context.Context) (FrameSource, func(), error)

	captured  atomic.Uint64
	rejected  atomic.Uint64
	remoteID  atomic.Uint64
	published atomic.Uint64
	failed    atomic.Uint64

	mu          sync.Mutex
	aircraft    map[string]time.Time
	aircraftTTL time.Duration
	lastPrune   time.Time
	startedAt   time.Time
	lastFrame   time.Time
}

// New creates a Sniffer. Records are handed to publisher; it may be nil.
func New(cfg SnifferConfig, handler ports.FrameHandler, publisher ports.Publisher, logger *slog.Logger) *Sniffer {
	if cfg.SnapLen <= 0 {
		cfg.SnapLen = DefaultSnapLen
	}
	if cfg.Workers <= 0 {
		cfg.Workers = runtime.NumCPU()
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Sniffer{
		Config:      cfg,
		handler:     handler,
		publisher:   publisher,
		logger:      logger.With("component", "sniffer", "source", sourceLabel(cfg)),
		aircraft:    make(map[string]time.Time),
		aircraftTTL: defaultAircraftTTL,
		startedAt:   time.Now(),
	}
	s.open = s.openSource
	return s
}

func sourceLabel(cfg SnifferConfig) string {
	if cfg.PcapFile != "" {
		return "file:" + cfg.PcapFile
	}
	return cfg.Interface
}

func (s *Sniffer) openSource(ctx context.Context) (FrameSource, func(), error) {
	if s.Config.PcapFile != "" {
		src, c, err := OpenFile(s.Config.PcapFile)
		if err != nil {
			return nil, nil, err
		}
		return src, func() { c.Close() }, nil
	}
	return OpenLive(ctx, s.Config.Interface, s.Config.SnapLen, s.Config.Filter)
}

// Start runs the capture loop. It returns nil when ctx is cancelled or a
// capture file is exhausted, and the read error when the source fails.
func (s *Sniffer) Start(ctx context.Context) error {
	src, closeSrc, err := s.open(ctx)
	if err != nil {
		return err
	}
	defer closeSrc()

	if s.Config.DumpPath != "" {
		d, err := NewDumper(s.Config.DumpPath, s.Config.SnapLen)
		if err != nil {
			return err
		}
		s.dump = d
		defer d.Close()
	}

	s.logger.Info("capture started", "workers", s.Config.Workers)

	label := sourceLabel(s.Config)
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.Config.Workers)

	var readErr error
	for ctx.Err() == nil {
		data, ci, err := src.ReadPacketData()
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil {
				break
			}
			readErr = fmt.Errorf("read frame from %s: %w", label, err)
			break
		}

		s.captured.Add(1)
		telemetry.FramesCaptured.WithLabelValues(label).Inc()

		g.Go(func() error {
			s.process(gctx, data, ci)
			return nil
		})
	}

	g.Wait()
	if readErr != nil {
		s.logger.Error("capture stopped", "error", readErr)
		return readErr
	}
	s.logger.Info("capture finished", "frames", s.captured.Load(), "records", s.remoteID.Load())
	return nil
}

func (s *Sniffer) process(ctx context.Context, data []byte, ci gopacket.CaptureInfo) {
	rec, err := s.handler.HandleFrame(ctx, data, ci)
	if err != nil {
		s.rejected.Add(1)
		s.logger.Debug("dropping frame", "error", err)
		return
	}
	if rec == nil {
		return
	}

	s.remoteID.Add(1)
	s.noteAircraft(*rec)

	if s.dump != nil {
		if err := s.dump.Write(ci, data); err != nil {
			s.logger.Warn("failed to dump frame", "error", err)
		}
	}

	if s.publisher == nil {
		return
	}
	if err := s.publisher.Publish(ctx, *rec); err != nil {
		s.failed.Add(1)
		s.logger.Warn("failed to publish record", "id", rec.ID, "error", err)
		return
	}
	s.published.Add(1)
}

func (s *Sniffer) noteAircraft(rec domain.TelemetryRecord) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastFrame = time.Now()
	key := rec.UASID
	if key == "" {
		key = rec.SourceMAC
	}
	seen := rec.ReceivedAt
	s.aircraft[key] = seen

	// Ages are measured on the record clock so file replays prune too.
	if seen.Sub(s.lastPrune) >= aircraftPruneEvery {
		for k, v := range s.aircraft {
			if seen.Sub(v) > s.aircraftTTL {
				delete(s.aircraft, k)
			}
		}
		s.lastPrune = seen
	}
}

// Stats returns a snapshot of the capture counters.
func (s *Sniffer) Stats() domain.CaptureStats {
	st := domain.NewCaptureStats()
	st.FramesCaptured = s.captured.Load()
	st.FramesRejected = s.rejected.Load()
	st.RemoteIDFrames = s.remoteID.Load()
	st.RecordsPublished = s.published.Load()
	st.PublishFailures = s.failed.Load()

	s.mu.Lock()
	defer s.mu.Unlock()
	for k, v := range s.aircraft {
		st.Aircraft[k] = v
	}
	st.StartedAt = s.startedAt
	if !s.lastFrame.IsZero() {
		st.LastUpdated = s.lastFrame
	}
	return st
}

// Close is a no-op; Start releases the source and the dump file on return.
func (s *Sniffer) Close() {}
