package capture

import (
	"fmt"
	"os"
	"sync"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// Dumper appends frames to a radiotap pcap file. Safe for concurrent use.
type Dumper struct {
	mu sync.Mutex
	f  *os.File
	w  *pcapgo.Writer
}

// NewDumper creates path and writes the pcap file header.
func NewDumper(path string, snapLen int) (*Dumper, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("create dump: %w", err)
	}

	w := pcapgo.NewWriter(f)
	// LinkType 127 is DLT_IEEE802_11_RADIO (Radiotap)
	if err := w.WriteFileHeader(uint32(snapLen), layers.LinkTypeIEEE80211Radio); err != nil {
		f.Close()
		return nil, fmt.Errorf("write dump header: %w", err)
	}
	return &Dumper{f: f, w: w}, nil
}

// Write appends one frame.
func (d *Dumper) Write(ci gopacket.CaptureInfo, data []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.w.WritePacket(ci, data)
}

// Close flushes and closes the file.
func (d *Dumper) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.f.Close()
}
