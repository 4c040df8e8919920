package publish

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"log/slog"
	"os"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/ridmap/internal/adapters/sniffer/sniffertest"
	"github.com/lcalzada-xor/ridmap/internal/core/domain"
	"github.com/lcalzada-xor/ridmap/internal/remoteid"
	"github.com/lcalzada-xor/ridmap/internal/telemetry"
)

func TestMain(m *testing.M) {
	color.NoColor = true
	os.Exit(m.Run())
}

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) Publish(ctx context.Context, rec domain.TelemetryRecord) error {
	args := m.Called(ctx, rec)
	return args.Error(0)
}

func sampleRecord() domain.TelemetryRecord {
	return domain.TelemetryRecord{
		ID:          "rec-1",
		ReceivedAt:  time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		SourceMAC:   "e4:7a:2c:24:3d:26",
		SSID:        "RID-1581F7FVC251A00CQ25C",
		Radio:       domain.RadioInfo{Signal: -60, Channel: 6},
		UASID:       "1581F7FVC251A00CQ25C",
		IDType:      "serial_number",
		UAType:      "helicopter_or_multirotor",
		Latitude:    41.7144317,
		Longitude:   123.4844131,
		HasPosition: true,
		Operator:    &domain.OperatorLocation{Latitude: 41.714432, Longitude: 123.484416, AltitudeMeters: 4455.2},
		Messages:    3,
	}
}

func TestLogPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, p.Publish(context.Background(), sampleRecord()))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "remote id record", line["msg"])
	assert.Equal(t, "1581F7FVC251A00CQ25C", line["uas_id"])
	assert.Equal(t, "publisher", line["component"])
	assert.InDelta(t, 41.7144317, line["lat"], 1e-9)
	assert.Contains(t, line, "operator_lat")
}

func TestLogPublisher_OmitsMissingParts(t *testing.T) {
	var buf bytes.Buffer
	p := NewLogPublisher(slog.New(slog.NewJSONHandler(&buf, nil)))

	require.NoError(t, p.Publish(context.Background(), domain.TelemetryRecord{ID: "x", Messages: 1}))

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.NotContains(t, line, "uas_id")
	assert.NotContains(t, line, "lat")
	assert.NotContains(t, line, "operator_lat")
}

func TestConsolePublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewConsolePublisher(&buf)

	require.NoError(t, p.Publish(context.Background(), sampleRecord()))

	out := buf.String()
	assert.Contains(t, out, "REMOTE ID")
	assert.Contains(t, out, "1581F7FVC251A00CQ25C")
	assert.Contains(t, out, "41.7144317, 123.4844131")
	assert.Contains(t, out, "4455.2 m")
	assert.Contains(t, out, "-60 dBm")
}

func TestJSONPublisher(t *testing.T) {
	var buf bytes.Buffer
	p := NewJSONPublisher(&buf)

	require.NoError(t, p.Publish(context.Background(), sampleRecord()))
	require.NoError(t, p.Publish(context.Background(), sampleRecord()))

	dec := json.NewDecoder(&buf)
	for i := 0; i < 2; i++ {
		var rec domain.TelemetryRecord
		require.NoError(t, dec.Decode(&rec))
		assert.Equal(t, "rec-1", rec.ID)
		assert.Equal(t, "1581F7FVC251A00CQ25C", rec.UASID)
		require.NotNil(t, rec.Operator)
	}
}

func TestJSONPublisher_LocationKeys(t *testing.T) {
	var buf bytes.Buffer
	rec := sampleRecord()
	rec.Location = &remoteid.LocationVector{
		Status:         remoteid.StatusAirborne,
		TrackDirection: true,
		TrackAngle:     181,
		Latitude:       417144317,
	}
	require.NoError(t, NewJSONPublisher(&buf).Publish(context.Background(), rec))

	var raw map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &raw))
	loc, ok := raw["location"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, float64(181), loc["track_angle"])
	assert.Equal(t, true, loc["track_direction"])
	assert.Equal(t, float64(417144317), loc["latitude"])
	assert.NotContains(t, loc, "TrackAngle")

	var back domain.TelemetryRecord
	require.NoError(t, json.Unmarshal(buf.Bytes(), &back))
	require.NotNil(t, back.Location)
	assert.Equal(t, *rec.Location, *back.Location)
}

func TestMulti_FansOutAndJoinsErrors(t *testing.T) {
	ok := new(MockPublisher)
	failing := new(MockPublisher)
	boom := errors.New("boom")

	rec := sampleRecord()
	ok.On("Publish", mock.Anything, rec).Return(nil).Once()
	failing.On("Publish", mock.Anything, rec).Return(boom).Once()

	var buf bytes.Buffer
	jp := NewJSONPublisher(&buf)
	m := NewMulti(ok, failing, jp)

	before := testutil.ToFloat64(telemetry.RecordsPublished.WithLabelValues("json", "ok"))
	err := m.Publish(context.Background(), rec)
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)
	assert.Contains(t, err.Error(), "*publish.MockPublisher")

	ok.AssertExpectations(t)
	failing.AssertExpectations(t)
	assert.NotZero(t, buf.Len())
	assert.Equal(t, before+1, testutil.ToFloat64(telemetry.RecordsPublished.WithLabelValues("json", "ok")))
}

func TestMulti_Empty(t *testing.T) {
	assert.NoError(t, NewMulti().Publish(context.Background(), sampleRecord()))
}

func TestPrinter_PrintPayload(t *testing.T) {
	data, err := hex.DecodeString("75f11903" +
		"01123135383146374656433235314130304351323543000000" +
		"1122b50000fd1ddd18e3399a49f2084808d2073b04ee130a00" +
		"4108001edd18003a9a4901000000000000014608aeced10b00")
	require.NoError(t, err)

	vp, err := remoteid.SplitPacks(data)
	require.NoError(t, err)

	var buf bytes.Buffer
	NewPrinter(&buf).PrintPayload(vp)

	out := buf.String()
	for _, want := range []string{
		"VENDOR PAYLOAD", "0xF1 (pack)",
		"BASIC ID", "serial_number", "1581F7FVC251A00CQ25C",
		"LOCATION", "airborne", "41.7144317, 123.4844131", "3/11/0/4", "510.2 s",
		"SYSTEM", "0x46", "4455.2 m",
	} {
		assert.Contains(t, out, want)
	}
}

func TestPrinter_PrintPayloadReportsBadPack(t *testing.T) {
	bad := make([]byte, remoteid.MessageSize)
	bad[0] = 0x22
	vp, err := remoteid.SplitPacks(sniffertest.VendorPayload(0, bad))
	require.NoError(t, err)

	var buf bytes.Buffer
	NewPrinter(&buf).PrintPayload(vp)
	assert.Contains(t, buf.String(), "pack 0: unknown message type: 0x2")
}
