// Package sniffertest builds captured 802.11 frames for tests.
package sniffertest

import (
	"encoding/binary"
	"encoding/hex"
	"net"

	"github.com/google/gopacket/layers"
)

// SampleFrameHex is a Remote-ID beacon captured from a DJI aircraft: radiotap
// header with FCS flag, SSID "RID-1581F7FVC251A00CQ25C" and one vendor
// element carrying a basic id, a location and a system pack.
const SampleFrameHex = "000026002f4000a0200800a0200800007471f30b00000000100c8509c00010000000c400100180000000" +
	"ffffffffffffe47a2c243d26e47a2c243d2600008084000500000000a000200400185249442d3135383146374656433235314130304351323543" +
	"dd53fa0bbc0d75f11903011231353831463746564332353141303043513235430000001122b50000fd1ddd18e3399a49f2084808d2073b04ee130a00" +
	"4108001edd18003a9a4901000000000000014608aeced10b00b6ba45e7"

// SampleFrame returns a fresh copy of the captured beacon.
func SampleFrame() []byte {
	b, err := hex.DecodeString(SampleFrameHex)
	if err != nil {
		panic(err)
	}
	return b
}

// RemoteIDOUI is the ASD-STAN OUI used by Remote-ID vendor elements.
var RemoteIDOUI = [3]byte{0xFA, 0x0B, 0xBC}

// FrameBuilder helps construct captured 802.11 frames using raw bytes.
type FrameBuilder struct {
	data []byte

	radiotap bool
	fcs      bool
	signal   int8
	rate     uint8
	freq     uint16
}

func NewFrameBuilder() *FrameBuilder {
	return &FrameBuilder{
		data: make([]byte, 0, 256),
		fcs:  true,
	}
}

// Radiotap prefixes the frame with a radiotap header reporting flags, rate,
// channel and antenna signal.
func (fb *FrameBuilder) Radiotap(signal int8, rate uint8, freq uint16) *FrameBuilder {
	fb.radiotap = true
	fb.signal = signal
	fb.rate = rate
	fb.freq = freq
	return fb
}

// WithoutFCS leaves the trailing FCS off and clears the radiotap FCS flag.
func (fb *FrameBuilder) WithoutFCS() *FrameBuilder {
	fb.fcs = false
	return fb
}

func (fb *FrameBuilder) Beacon(sa, bssid net.HardwareAddr, ssid string) *FrameBuilder {
	broadcast := net.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	fb.data = append(fb.data, dot11Header(0x80, broadcast, sa, bssid)...)

	// Fixed Param: Timestamp(8), Interval(2), CapInfo(2)
	fb.data = append(fb.data,
		0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00,
		0x64, 0x00,
		0x01, 0x00,
	)
	return fb.AddIE(layers.Dot11InformationElementIDSSID, []byte(ssid))
}

func (fb *FrameBuilder) ProbeReq(sa net.HardwareAddr, ssid string) *FrameBuilder {
	broadcast := net.HardwareAddr{0xFF, 0xFF, 0xFF, 0xFF, 0xFF, 0xFF}
	fb.data = append(fb.data, dot11Header(0x40, broadcast, sa, broadcast)...)
	return fb.AddIE(layers.Dot11InformationElementIDSSID, []byte(ssid))
}

func (fb *FrameBuilder) AddIE(id layers.Dot11InformationElementID, data []byte) *FrameBuilder {
	fb.data = append(fb.data, byte(id), byte(len(data)))
	fb.data = append(fb.data, data...)
	return fb
}

func (fb *FrameBuilder) AddVendorIE(oui [3]byte, ouiType byte, data []byte) *FrameBuilder {
	body := append([]byte{oui[0], oui[1], oui[2], ouiType}, data...)
	return fb.AddIE(layers.Dot11InformationElementIDVendor, body)
}

// AddRemoteID adds a Remote-ID vendor element holding packs of 25 bytes.
func (fb *FrameBuilder) AddRemoteID(counter byte, packs ...[]byte) *FrameBuilder {
	return fb.AddVendorIE(RemoteIDOUI, 0x0D, VendorPayload(counter, packs...))
}

// Pad appends a filler element so the frame clears the minimum capture length.
func (fb *FrameBuilder) Pad(n int) *FrameBuilder {
	return fb.AddIE(layers.Dot11InformationElementID(0xFE), make([]byte, n))
}

// Build returns the captured frame bytes.
func (fb *FrameBuilder) Build() []byte {
	var out []byte
	if fb.radiotap {
		out = append(out, fb.radiotapHeader()...)
	}
	out = append(out, fb.data...)
	if fb.fcs {
		out = append(out, 0xDE, 0xAD, 0xBE, 0xEF)
	}
	return out
}

// radiotapHeader encodes present bits flags, rate, channel and dBm signal.
func (fb *FrameBuilder) radiotapHeader() []byte {
	h := make([]byte, 15)
	binary.LittleEndian.PutUint16(h[2:4], uint16(len(h)))
	binary.LittleEndian.PutUint32(h[4:8], 0x2E)
	if fb.fcs {
		h[8] = byte(layers.RadioTapFlagsFCS)
	}
	h[9] = fb.rate
	binary.LittleEndian.PutUint16(h[10:12], fb.freq)
	binary.LittleEndian.PutUint16(h[12:14], 0x00A0)
	h[14] = byte(fb.signal)
	return h
}

func dot11Header(fcType byte, a1, a2, a3 net.HardwareAddr) []byte {
	h := make([]byte, 24)
	h[0] = fcType
	copy(h[4:], a1)
	copy(h[10:], a2)
	copy(h[16:], a3)
	return h
}

// VendorPayload lays out the Remote-ID sub-header followed by the packs.
func VendorPayload(counter byte, packs ...[]byte) []byte {
	out := []byte{counter, 0xF1, 25, byte(len(packs))}
	for _, p := range packs {
		out = append(out, p...)
	}
	return out
}

// BasicIDPack returns a basic id pack, protocol version 2.
func BasicIDPack(idType, uaType byte, id string) []byte {
	p := make([]byte, 25)
	p[0] = 0x02
	p[1] = idType<<4 | uaType&0x0F
	copy(p[2:22], id)
	return p
}

// LocationPack returns an airborne location pack at lat/lon (1e-7 degrees).
func LocationPack(lat, lon int32) []byte {
	p := make([]byte, 25)
	p[0] = 0x12
	p[1] = 0x20
	binary.LittleEndian.PutUint32(p[5:9], uint32(lat))
	binary.LittleEndian.PutUint32(p[9:13], uint32(lon))
	return p
}

// SystemPack returns a system pack with the given classification region and
// operator location.
func SystemPack(region uint8, lat, lon int32) []byte {
	p := make([]byte, 25)
	p[0] = 0x42
	p[1] = region << 2
	binary.LittleEndian.PutUint32(p[2:6], uint32(lat))
	binary.LittleEndian.PutUint32(p[6:10], uint32(lon))
	return p
}
