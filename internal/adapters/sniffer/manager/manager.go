package manager

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/lcalzada-xor/ridmap/internal/adapters/sniffer/capture"
	"github.com/lcalzada-xor/ridmap/internal/adapters/sniffer/hopping"
	"github.com/lcalzada-xor/ridmap/internal/core/domain"
	"github.com/lcalzada-xor/ridmap/internal/core/ports"
)

// ErrUnknownInterface is returned for an interface the manager does not hop.
var ErrUnknownInterface = errors.New("unknown interface")

// Config describes the capture sources the manager runs.
type Config struct {
	Interfaces []string
	PcapFile   string
	Channels   []int
	Dwell      time.Duration
	NoHop      bool

	SnapLen  int
	Filter   string
	Workers  int
	DumpPath string
}

// SnifferManager manages one Sniffer per interface, or a single Sniffer
// replaying a capture file.
type SnifferManager struct {
	Config   Config
	Sniffers []*capture.Sniffer
	Hoppers  map[string]*hopping.ChannelHopper

	handler   ports.FrameHandler
	publisher ports.Publisher
	switcher  hopping.ChannelSwitcher
	logger    *slog.Logger

	statuses map[string]*domain.SourceStatus
	mu       sync.RWMutex
}

// NewManager creates a manager for the configured sources. switcher may be
// nil to use iw.
func NewManager(cfg Config, handler ports.FrameHandler, publisher ports.Publisher, switcher hopping.ChannelSwitcher, logger *slog.Logger) *SnifferManager {
	if logger == nil {
		logger = slog.Default()
	}
	if len(cfg.Channels) == 0 {
		cfg.Channels = hopping.DefaultChannels
	}
	if cfg.Dwell <= 0 {
		cfg.Dwell = 300 * time.Millisecond
	}

	m := &SnifferManager{
		Config:    cfg,
		Hoppers:   make(map[string]*hopping.ChannelHopper),
		handler:   handler,
		publisher: publisher,
		switcher:  switcher,
		logger:    logger.With("component", "manager"),
		statuses:  make(map[string]*domain.SourceStatus),
	}
	m.build()
	return m
}

func (m *SnifferManager) build() {
	base := capture.SnifferConfig{
		SnapLen: m.Config.SnapLen,
		Filter:  m.Config.Filter,
		Workers: m.Config.Workers,
	}

	if m.Config.PcapFile != "" {
		cfg := base
		cfg.PcapFile = m.Config.PcapFile
		cfg.DumpPath = m.Config.DumpPath
		m.Sniffers = append(m.Sniffers, capture.New(cfg, m.handler, m.publisher, m.logger))
		return
	}

	partitioned := partitionChannels(m.Config.Channels, len(m.Config.Interfaces), m.logger)
	for i, iface := range m.Config.Interfaces {
		cfg := base
		cfg.Interface = iface
		cfg.DumpPath = dumpPathFor(m.Config.DumpPath, iface, len(m.Config.Interfaces))
		m.Sniffers = append(m.Sniffers, capture.New(cfg, m.handler, m.publisher, m.logger))

		if !m.Config.NoHop && len(partitioned[i]) > 0 {
			m.logger.Info("assigning channels", "interface", iface, "channels", partitioned[i])
			m.Hoppers[iface] = hopping.NewHopper(iface, partitioned[i], m.Config.Dwell, m.switcher, m.logger)
		}
	}
}

// dumpPathFor gives each interface its own dump file when several run.
func dumpPathFor(path, iface string, n int) string {
	if path == "" || n <= 1 {
		return path
	}
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "-" + iface + ext
}

// Start runs every sniffer with its hopper and blocks until all of them
// return. Sniffer failures are joined into the returned error.
func (m *SnifferManager) Start(ctx context.Context) error {
	if len(m.Sniffers) == 0 {
		return errors.New("no capture source configured")
	}

	var (
		wg   sync.WaitGroup
		errs = make([]error, len(m.Sniffers))
	)

	for i, s := range m.Sniffers {
		source := s.Config.Interface
		if s.Config.PcapFile != "" {
			source = s.Config.PcapFile
		}

		status := &domain.SourceStatus{Source: source, Status: "starting"}
		m.mu.Lock()
		m.statuses[source] = status
		m.mu.Unlock()

		wg.Add(1)
		go func(i int, s *capture.Sniffer) {
			defer wg.Done()

			sctx, cancel := context.WithCancel(ctx)
			defer cancel()

			if h := m.Hoppers[s.Config.Interface]; h != nil {
				go h.Start(sctx)
			}

			m.setStatus(status, "running", nil)
			if err := s.Start(sctx); err != nil {
				m.setStatus(status, "failed", err)
				m.logger.Error("sniffer failed", "source", source, "error", err)
				errs[i] = fmt.Errorf("%s: %w", source, err)
				return
			}
			m.setStatus(status, "stopped", nil)
			m.logger.Info("sniffer stopped gracefully", "source", source)
		}(i, s)
	}

	wg.Wait()
	return errors.Join(errs...)
}

func (m *SnifferManager) setStatus(st *domain.SourceStatus, status string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	st.Status = status
	if err != nil {
		st.Error = err.Error()
	}
}

// partitionChannels divides channels by frequency band so each interface
// stays on one band when possible.
func partitionChannels(channels []int, n int, logger *slog.Logger) [][]int {
	if n <= 0 {
		return nil
	}

	band24 := []int{}
	band5 := []int{}
	for _, ch := range channels {
		if ch <= 14 {
			band24 = append(band24, ch)
		} else {
			band5 = append(band5, ch)
		}
	}

	result := make([][]int, n)

	switch {
	case n == 1:
		result[0] = append(band24, band5...)
	case n == 2 && len(band24) > 0 && len(band5) > 0:
		// One interface per band
		result[0] = band24
		result[1] = band5
		logger.Info("channel partitioning: one interface per band", "band24", band24, "band5", band5)
	default:
		for i, ch := range append(band24, band5...) {
			result[i%n] = append(result[i%n], ch)
		}
		logger.Info("channel partitioning: round robin", "channels", len(channels), "interfaces", n)
	}

	return result
}

// GetChannels returns the channels of every hopper.
func (m *SnifferManager) GetChannels() []int {
	var all []int
	for _, iface := range m.Config.Interfaces {
		if h := m.Hoppers[iface]; h != nil {
			all = append(all, h.GetChannels()...)
		}
	}
	return all
}

// InterfaceChannels returns the hop list of iface. ok is false when the
// interface is unknown or does not hop.
func (m *SnifferManager) InterfaceChannels(iface string) ([]int, bool) {
	h, ok := m.Hoppers[iface]
	if !ok {
		return nil, false
	}
	return h.GetChannels(), true
}

// SetInterfaceChannels replaces the hop list of iface.
func (m *SnifferManager) SetInterfaceChannels(iface string, channels []int) error {
	if err := domain.ValidateChannels(channels); err != nil {
		return err
	}
	h, ok := m.Hoppers[iface]
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownInterface, iface)
	}
	h.SetChannels(channels)
	m.logger.Info("channels updated", "interface", iface, "channels", channels)
	return nil
}

// GetInterfaces returns the list of managed interfaces.
func (m *SnifferManager) GetInterfaces() []string {
	return m.Config.Interfaces
}

// Statuses returns a snapshot of every sniffer status.
func (m *SnifferManager) Statuses() []domain.SourceStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]domain.SourceStatus, 0, len(m.statuses))
	for _, s := range m.Sniffers {
		source := s.Config.Interface
		if s.Config.PcapFile != "" {
			source = s.Config.PcapFile
		}
		if st, ok := m.statuses[source]; ok {
			cp := *st
			if h := m.Hoppers[source]; h != nil {
				cp.Channel = h.CurrentChannel()
				cp.Channels = h.GetChannels()
			}
			out = append(out, cp)
		}
	}
	return out
}

// Stats merges the counters of every sniffer.
func (m *SnifferManager) Stats() domain.CaptureStats {
	total := domain.NewCaptureStats()
	for _, s := range m.Sniffers {
		total.Merge(s.Stats())
	}
	return total
}

// Close stops the hoppers and releases all sniffers.
func (m *SnifferManager) Close() {
	for _, h := range m.Hoppers {
		h.Stop()
	}
	for _, s := range m.Sniffers {
		s.Close()
	}
}
