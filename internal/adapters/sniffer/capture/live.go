package capture

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcap"
)

// BeaconFilter keeps only beacon frames in the kernel.
const BeaconFilter = "type mgt subtype beacon"

const readTimeout = 500 * time.Millisecond

// liveSource reads from a monitor-mode handle. Read timeouts are retried
// until the context is done, so pcap_close never waits on a blocked read.
type liveSource struct {
	ctx    context.Context
	handle *pcap.Handle
}

func (l *liveSource) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	for {
		data, ci, err := l.handle.ReadPacketData()
		if !errors.Is(err, pcap.NextErrorTimeoutExpired) {
			return data, ci, err
		}
		if err := l.ctx.Err(); err != nil {
			return nil, gopacket.CaptureInfo{}, err
		}
	}
}

// OpenLive puts iface in monitor mode and activates a capture handle on it.
func OpenLive(ctx context.Context, iface string, snapLen int, filter string) (FrameSource, func(), error) {
	inactive, err := pcap.NewInactiveHandle(iface)
	if err != nil {
		return nil, nil, fmt.Errorf("error while opening interface %s: %w", iface, err)
	}
	defer inactive.CleanUp()

	if err := inactive.SetRFMon(true); err != nil {
		return nil, nil, fmt.Errorf("error while setting interface %s in monitor mode: %w", iface, err)
	}
	if err := inactive.SetSnapLen(snapLen); err != nil {
		return nil, nil, fmt.Errorf("error while setting snap len: %w", err)
	}
	if err := inactive.SetTimeout(readTimeout); err != nil {
		return nil, nil, fmt.Errorf("error while setting timeout: %w", err)
	}

	handle, err := inactive.Activate()
	if err != nil {
		return nil, nil, fmt.Errorf("error while activating handle on %s: %w", iface, err)
	}

	if lt := handle.LinkType(); lt != layers.LinkTypeIEEE80211Radio {
		handle.Close()
		return nil, nil, fmt.Errorf("interface %s delivers link type %v, need radiotap (is it in monitor mode?)", iface, lt)
	}

	if filter != "" {
		if err := handle.SetBPFFilter(filter); err != nil {
			handle.Close()
			return nil, nil, fmt.Errorf("error setting BPF filter '%s': %w", filter, err)
		}
	}

	return &liveSource{ctx: ctx, handle: handle}, handle.Close, nil
}
