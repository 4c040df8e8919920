// Package radiotap strips the capture metadata header the driver prefixes to
// every monitor-mode frame.
package radiotap

import (
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/lcalzada-xor/ridmap/internal/remoteid"
)

// MinFrameLength is the shortest captured frame that can hold a radiotap
// header plus a beacon worth decoding.
const MinFrameLength = 100

// preambleLength covers version, pad, length and the first present word.
const preambleLength = 8

// ErrFrameTooShort is returned for frames under MinFrameLength. Callers drop
// them without logging.
var ErrFrameTooShort = errors.New("frame too short")

// ErrMalformedHeader is returned when the radiotap fields cannot be decoded
// even though the present bitmap fits the declared length.
var ErrMalformedHeader = errors.New("malformed radiotap header")

// presentExtended marks a present word that is followed by another one.
const presentExtended = 1 << 31

// Header holds the radio metrics of one frame. Fields the driver did not
// report are zero.
type Header struct {
	Length           int
	Signal           int8   // dBm
	Rate             uint8  // 500 kb/s units
	ChannelFrequency uint16 // MHz
	Channel          int
	FCS              bool // the 802.11 frame ends with its 4 byte FCS
	BadFCS           bool
}

// RateMbps returns the data rate in Mb/s.
func (h Header) RateMbps() float32 { return float32(h.Rate) * 0.5 }

// Read decodes the radiotap header of frame and returns it along with the
// 802.11 frame that starts right after the declared header length.
func Read(frame []byte) (Header, []byte, error) {
	if len(frame) < MinFrameLength {
		return Header{}, nil, ErrFrameTooShort
	}

	length := int(binary.LittleEndian.Uint16(frame[2:4]))
	if length < preambleLength || length > len(frame) {
		return Header{}, nil, &remoteid.BoundsError{What: "radiotap header", Need: length, Have: len(frame)}
	}

	if err := checkPresentWords(frame, length); err != nil {
		return Header{}, nil, err
	}

	rt, err := decode(frame)
	if err != nil {
		return Header{}, nil, err
	}

	hdr := Header{
		Length:           length,
		Signal:           rt.DBMAntennaSignal,
		Rate:             uint8(rt.Rate),
		ChannelFrequency: uint16(rt.ChannelFrequency),
		Channel:          FrequencyToChannel(int(rt.ChannelFrequency)),
		FCS:              rt.Flags.FCS(),
		BadFCS:           rt.Flags.BadFCS(),
	}
	return hdr, frame[length:], nil
}

// checkPresentWords walks the chain of present bitmaps and fails when it
// runs past the declared header length.
func checkPresentWords(frame []byte, length int) error {
	off := 4
	for {
		if off+4 > length {
			return &remoteid.BoundsError{What: "radiotap present bitmap", Need: off + 4, Have: length}
		}
		word := binary.LittleEndian.Uint32(frame[off : off+4])
		off += 4
		if word&presentExtended == 0 {
			return nil
		}
	}
}

// decode runs the gopacket radiotap decoder, which indexes the buffer
// without checking the present fields against the declared length.
func decode(frame []byte) (rt *layers.RadioTap, err error) {
	defer func() {
		if r := recover(); r != nil {
			rt = nil
			err = fmt.Errorf("%w: %v", ErrMalformedHeader, r)
		}
	}()

	rt = &layers.RadioTap{}
	if err := rt.DecodeFromBytes(frame, gopacket.NilDecodeFeedback); err != nil {
		return nil, fmt.Errorf("radiotap: %w", err)
	}
	return rt, nil
}

// FrequencyToChannel converts a WiFi center frequency (MHz) to its channel
// number, or 0 when the frequency is outside the 2.4, 5 and 6 GHz bands.
func FrequencyToChannel(freq int) int {
	// 2.4 GHz band (channels 1-14)
	if freq >= 2412 && freq <= 2484 {
		if freq == 2484 {
			return 14
		}
		return (freq - 2407) / 5
	}

	// 5 GHz band (channels 36-165)
	if freq >= 5170 && freq <= 5825 {
		return (freq - 5000) / 5
	}

	// 6 GHz band (channels 1-233)
	if freq >= 5955 && freq <= 7115 {
		return (freq - 5950) / 5
	}

	return 0
}
