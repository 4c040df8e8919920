package ports

import (
	"context"

	"github.com/google/gopacket"
	"github.com/lcalzada-xor/ridmap/internal/core/domain"
)

// Sniffer defines the interface for frame capture adapters.
type Sniffer interface {
	// Start runs the capture loop. It blocks until the context is cancelled
	// or the frame source fails.
	Start(ctx context.Context) error
	// Stats returns a snapshot of the capture counters.
	Stats() domain.CaptureStats
	// Close releases resources (handles, dump files).
	Close()
}

// FrameHandler turns one captured frame into a telemetry record. A nil record
// with a nil error means the frame carried no Remote-ID data.
type FrameHandler interface {
	HandleFrame(ctx context.Context, frame []byte, ci gopacket.CaptureInfo) (*domain.TelemetryRecord, error)
}

// Publisher is the output boundary for decoded records.
type Publisher interface {
	Publish(ctx context.Context, rec domain.TelemetryRecord) error
}

// StatsProvider exposes pipeline counters to the HTTP adapter.
type StatsProvider interface {
	Stats() domain.CaptureStats
}

// ChannelHopper is the subset of the hopper the app drives.
type ChannelHopper interface {
	Start(ctx context.Context)
	Stop()
	CurrentChannel() int
}

// CaptureController exposes per-source status and channel control to the
// HTTP adapter.
type CaptureController interface {
	Statuses() []domain.SourceStatus
	InterfaceChannels(iface string) ([]int, bool)
	SetInterfaceChannels(iface string, channels []int) error
}
