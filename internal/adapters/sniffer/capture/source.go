package capture

import (
	"bufio"
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
)

// FrameSource yields captured frames. *pcap.Handle, *pcapgo.Reader and
// *pcapgo.NgReader all satisfy it.
type FrameSource interface {
	ReadPacketData() ([]byte, gopacket.CaptureInfo, error)
}

var pcapngMagic = []byte{0x0A, 0x0D, 0x0D, 0x0A}

// OpenFile opens an offline capture in pcap or pcapng format. The capture
// must carry radiotap headers.
func OpenFile(path string) (FrameSource, io.Closer, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open capture: %w", err)
	}

	src, err := newFileSource(bufio.NewReader(f))
	if err != nil {
		f.Close()
		return nil, nil, fmt.Errorf("read capture %s: %w", path, err)
	}
	return src, f, nil
}

func newFileSource(r *bufio.Reader) (FrameSource, error) {
	magic, err := r.Peek(4)
	if err != nil {
		return nil, err
	}

	var (
		src      FrameSource
		linkType layers.LinkType
	)
	if bytes.Equal(magic, pcapngMagic) {
		ng, err := pcapgo.NewNgReader(r, pcapgo.DefaultNgReaderOptions)
		if err != nil {
			return nil, err
		}
		src, linkType = ng, ng.LinkType()
	} else {
		pr, err := pcapgo.NewReader(r)
		if err != nil {
			return nil, err
		}
		src, linkType = pr, pr.LinkType()
	}

	if linkType != layers.LinkTypeIEEE80211Radio {
		return nil, fmt.Errorf("unsupported link type %v, need radiotap", linkType)
	}
	return src, nil
}
