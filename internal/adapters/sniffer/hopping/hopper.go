package hopping

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/lcalzada-xor/ridmap/internal/telemetry"
)

// DefaultChannels are the channels Remote-ID beacons are broadcast on:
// 6 in the 2.4 GHz band and 149 in the 5 GHz band.
var DefaultChannels = []int{6, 149}

// ChannelHopper handles switching WiFi channels.
type ChannelHopper struct {
	Interface string
	Delay     time.Duration

	switcher     ChannelSwitcher
	logger       *slog.Logger
	state        AtomicState
	mu           sync.RWMutex // Protects channels, currentIndex and current
	channels     []int
	currentIndex int // For Round Robin
	current      int
	errorCount   int
	stopChan     chan struct{}
	stopOnce     sync.Once
	resetChan    chan time.Duration
}

// NewHopper creates a new ChannelHopper.
func NewHopper(iface string, channels []int, delay time.Duration, switcher ChannelSwitcher, logger *slog.Logger) *ChannelHopper {
	if switcher == nil {
		switcher = NewLinuxChannelSwitcher()
	}
	if logger == nil {
		logger = slog.Default()
	}
	if len(channels) == 0 {
		channels = DefaultChannels
	}
	return &ChannelHopper{
		Interface: iface,
		Delay:     delay,
		switcher:  switcher,
		logger:    logger.With("component", "hopper", "interface", iface),
		channels:  append([]int(nil), channels...),
		stopChan:  make(chan struct{}),
		resetChan: make(chan time.Duration, 1),
	}
}

// SetChannels updates the channel list dynamically.
func (h *ChannelHopper) SetChannels(channels []int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.channels = append([]int(nil), channels...)
	h.currentIndex = 0 // Reset index on update
	h.logger.Info("channel list updated", "channels", channels)
}

// GetChannels returns a copy of the current channel list.
func (h *ChannelHopper) GetChannels() []int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	result := make([]int, len(h.channels))
	copy(result, h.channels)
	return result
}

// CurrentChannel returns the channel of the last successful switch, or 0.
func (h *ChannelHopper) CurrentChannel() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.current
}

// State returns the hopper lifecycle state.
func (h *ChannelHopper) State() HopperState {
	return h.state.Get()
}

// Stop signals the hopper to shut down. It is safe to call more than once.
func (h *ChannelHopper) Stop() {
	h.stopOnce.Do(func() {
		h.state.Set(StateStopped)
		close(h.stopChan)
	})
}

// Start runs the channel hopping loop until ctx is done or Stop is called.
// With a single channel the hopper tunes once and then idles.
func (h *ChannelHopper) Start(ctx context.Context) {
	if !h.state.CompareAndSwap(StateIdle, StateHopping) {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("recovered from panic in channel hopper", "panic", r)
		}
		h.state.Set(StateStopped)
	}()

	h.logger.Info("starting channel hopper", "dwell", h.Delay, "channels", h.GetChannels())

	ticker := time.NewTicker(h.Delay)
	defer ticker.Stop()

	// Initial hop
	h.hop()

	for {
		select {
		case <-ctx.Done():
			h.logger.Info("stopping channel hopper")
			return
		case <-h.stopChan:
			h.logger.Info("stopping channel hopper")
			return
		case d := <-h.resetChan:
			h.state.Set(StatePaused)
			h.logger.Debug("hopper paused", "duration", d)
			ticker.Stop()
			select {
			case <-time.After(d):
				h.state.CompareAndSwap(StatePaused, StateHopping)
				h.logger.Debug("hopper resuming")
				ticker.Reset(h.Delay)
			case <-h.stopChan:
				return
			case <-ctx.Done():
				return
			}
		case <-ticker.C:
			if h.singleChannel() {
				continue
			}
			h.hop()
		}
	}
}

// Pause temporarily stops the hopper for the given duration.
func (h *ChannelHopper) Pause(duration time.Duration) {
	select {
	case h.resetChan <- duration:
	default:
	}
}

// singleChannel reports whether the hopper is already parked on its only
// channel.
func (h *ChannelHopper) singleChannel() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.channels) == 1 && h.current == h.channels[0]
}

func (h *ChannelHopper) hop() {
	h.mu.Lock()
	if len(h.channels) == 0 {
		h.mu.Unlock()
		return
	}

	// Round Robin logic
	if h.currentIndex >= len(h.channels) {
		h.currentIndex = 0
	}
	ch := h.channels[h.currentIndex]

	// Prepare next index
	h.currentIndex++
	if h.currentIndex >= len(h.channels) {
		h.currentIndex = 0
	}
	h.mu.Unlock()

	if err := h.switcher.SetChannel(h.Interface, ch); err != nil {
		telemetry.ChannelHops.WithLabelValues(h.Interface, "error").Inc()
		h.errorCount++
		// Don't spam if it's persistent
		if h.errorCount == 1 || h.errorCount%10 == 0 {
			h.logger.Warn("failed to set channel", "channel", ch, "error", err, "consecutive_errors", h.errorCount)
		}
		return
	}

	telemetry.ChannelHops.WithLabelValues(h.Interface, "ok").Inc()
	if h.errorCount > 0 {
		h.logger.Info("hopper recovered", "after_errors", h.errorCount)
		h.errorCount = 0
	}

	h.mu.Lock()
	h.current = ch
	h.mu.Unlock()
	h.logger.Debug("switched channel", "channel", ch)
}
