package capture

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"github.com/google/gopacket/pcapgo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/ridmap/internal/adapters/sniffer/parser"
	"github.com/lcalzada-xor/ridmap/internal/adapters/sniffer/sniffertest"
	"github.com/lcalzada-xor/ridmap/internal/core/domain"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, rec domain.TelemetryRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testFrames() [][]byte {
	mac := net.HardwareAddr{0x02, 0x00, 0x00, 0x00, 0x00, 0x01}
	return [][]byte{
		sniffertest.SampleFrame(),
		sniffertest.NewFrameBuilder().Radiotap(-40, 2, 2437).Beacon(mac, mac, "ap").Pad(100).Build(),
		make([]byte, 40),
	}
}

func writePcap(t *testing.T, frames [][]byte) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeIEEE80211Radio))
	for i, frame := range frames {
		ci := gopacket.CaptureInfo{
			Timestamp:     time.Unix(1700000000+int64(i), 0),
			CaptureLength: len(frame),
			Length:        len(frame),
		}
		require.NoError(t, w.WritePacket(ci, frame))
	}
	return path
}

func newSniffer(cfg SnifferConfig, pub *MockPublisher) *Sniffer {
	handler := parser.NewFrameHandler(nil, quietLogger())
	if pub == nil {
		return New(cfg, handler, nil, quietLogger())
	}
	return New(cfg, handler, pub, quietLogger())
}

func TestSniffer_PcapFile(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, mock.AnythingOfType("domain.TelemetryRecord")).Return(nil)

	s := newSniffer(SnifferConfig{PcapFile: writePcap(t, testFrames()), Workers: 2}, pub)
	require.NoError(t, s.Start(context.Background()))

	pub.AssertNumberOfCalls(t, "Publish", 1)
	rec := pub.Calls[0].Arguments.Get(1).(domain.TelemetryRecord)
	assert.Equal(t, "1581F7FVC251A00CQ25C", rec.UASID)
	assert.True(t, time.Unix(1700000000, 0).Equal(rec.ReceivedAt))

	st := s.Stats()
	assert.Equal(t, uint64(3), st.FramesCaptured)
	assert.Equal(t, uint64(1), st.RemoteIDFrames)
	assert.Equal(t, uint64(1), st.RecordsPublished)
	assert.Zero(t, st.PublishFailures)
	assert.Contains(t, st.Aircraft, "1581F7FVC251A00CQ25C")
}

func TestSniffer_PcapngFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "capture.pcapng")
	f, err := os.Create(path)
	require.NoError(t, err)

	w, err := pcapgo.NewNgWriter(f, layers.LinkTypeIEEE80211Radio)
	require.NoError(t, err)
	frame := sniffertest.SampleFrame()
	require.NoError(t, w.WritePacket(gopacket.CaptureInfo{
		Timestamp:     time.Now(),
		CaptureLength: len(frame),
		Length:        len(frame),
	}, frame))
	require.NoError(t, w.Flush())
	require.NoError(t, f.Close())

	s := newSniffer(SnifferConfig{PcapFile: path}, nil)
	require.NoError(t, s.Start(context.Background()))
	assert.Equal(t, uint64(1), s.Stats().RemoteIDFrames)
}

func TestSniffer_DumpsRemoteIDFrames(t *testing.T) {
	dump := filepath.Join(t.TempDir(), "rid.pcap")
	s := newSniffer(SnifferConfig{PcapFile: writePcap(t, testFrames()), DumpPath: dump}, nil)
	require.NoError(t, s.Start(context.Background()))

	f, err := os.Open(dump)
	require.NoError(t, err)
	defer f.Close()

	r, err := pcapgo.NewReader(f)
	require.NoError(t, err)
	assert.Equal(t, layers.LinkTypeIEEE80211Radio, r.LinkType())

	data, _, err := r.ReadPacketData()
	require.NoError(t, err)
	assert.Equal(t, sniffertest.SampleFrame(), data)

	_, _, err = r.ReadPacketData()
	assert.ErrorIs(t, err, io.EOF)
}

func TestSniffer_PublishFailureIsCounted(t *testing.T) {
	pub := &MockPublisher{}
	pub.On("Publish", mock.Anything, mock.Anything).Return(errors.New("sink down"))

	s := newSniffer(SnifferConfig{PcapFile: writePcap(t, testFrames())}, pub)
	require.NoError(t, s.Start(context.Background()))

	st := s.Stats()
	assert.Equal(t, uint64(1), st.PublishFailures)
	assert.Zero(t, st.RecordsPublished)
}

func TestSniffer_WrongLinkType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "eth.pcap")
	f, err := os.Create(path)
	require.NoError(t, err)
	w := pcapgo.NewWriter(f)
	require.NoError(t, w.WriteFileHeader(65536, layers.LinkTypeEthernet))
	require.NoError(t, f.Close())

	s := newSniffer(SnifferConfig{PcapFile: path}, nil)
	err = s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "need radiotap")
}

func TestSniffer_MissingFile(t *testing.T) {
	s := newSniffer(SnifferConfig{PcapFile: filepath.Join(t.TempDir(), "nope.pcap")}, nil)
	assert.ErrorIs(t, s.Start(context.Background()), os.ErrNotExist)
}

type failingSource struct{ n int }

func (f *failingSource) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	if f.n > 0 {
		f.n--
		frame := sniffertest.SampleFrame()
		return frame, gopacket.CaptureInfo{CaptureLength: len(frame), Length: len(frame)}, nil
	}
	return nil, gopacket.CaptureInfo{}, errors.New("device gone")
}

func TestSniffer_FatalReadError(t *testing.T) {
	s := newSniffer(SnifferConfig{Interface: "wlan0mon"}, nil)
	s.open = func(context.Context) (FrameSource, func(), error) {
		return &failingSource{n: 2}, func() {}, nil
	}

	err := s.Start(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "device gone")
	assert.Contains(t, err.Error(), "wlan0mon")
	assert.Equal(t, uint64(2), s.Stats().FramesCaptured)
}

type endlessSource struct{ reads atomic.Int64 }

func (e *endlessSource) ReadPacketData() ([]byte, gopacket.CaptureInfo, error) {
	e.reads.Add(1)
	time.Sleep(time.Millisecond)
	frame := sniffertest.SampleFrame()
	return frame, gopacket.CaptureInfo{CaptureLength: len(frame), Length: len(frame)}, nil
}

func TestSniffer_StopsOnCancel(t *testing.T) {
	src := &endlessSource{}
	closed := false

	s := newSniffer(SnifferConfig{Interface: "wlan0mon", Workers: 4}, nil)
	s.open = func(context.Context) (FrameSource, func(), error) {
		return src, func() { closed = true }, nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()

	require.NoError(t, s.Start(ctx))
	assert.True(t, closed)
	assert.Positive(t, src.reads.Load())
	assert.Equal(t, s.Stats().FramesCaptured, s.Stats().RemoteIDFrames)
}

func TestSniffer_AircraftPrunedByAge(t *testing.T) {
	s := newSniffer(SnifferConfig{PcapFile: "unused.pcap"}, nil)
	start := time.Unix(1700000000, 0)

	for i := 0; i < 10000; i++ {
		s.noteAircraft(domain.TelemetryRecord{
			UASID:      fmt.Sprintf("ID%d", i),
			ReceivedAt: start.Add(time.Duration(i) * time.Second),
		})
	}

	st := s.Stats()
	assert.NotContains(t, st.Aircraft, "ID0")
	assert.Contains(t, st.Aircraft, "ID9999")
	// TTL worth of ids plus at most one prune interval.
	assert.LessOrEqual(t, len(st.Aircraft), int((defaultAircraftTTL+aircraftPruneEvery)/time.Second)+1)
}

func TestSniffer_AircraftKeptWithinTTL(t *testing.T) {
	s := newSniffer(SnifferConfig{PcapFile: "unused.pcap"}, nil)
	start := time.Unix(1700000000, 0)

	s.noteAircraft(domain.TelemetryRecord{SourceMAC: "02:00:00:00:00:01", ReceivedAt: start})
	s.noteAircraft(domain.TelemetryRecord{UASID: "UAS2", ReceivedAt: start.Add(2 * time.Minute)})
	s.noteAircraft(domain.TelemetryRecord{UASID: "UAS3", ReceivedAt: start.Add(4 * time.Minute)})

	st := s.Stats()
	assert.Len(t, st.Aircraft, 3)
	assert.Contains(t, st.Aircraft, "02:00:00:00:00:01")
}
