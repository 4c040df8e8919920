package parser

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/google/gopacket"
	"github.com/google/gopacket/layers"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/lcalzada-xor/ridmap/internal/adapters/sniffer/ie"
	"github.com/lcalzada-xor/ridmap/internal/adapters/sniffer/radiotap"
	"github.com/lcalzada-xor/ridmap/internal/core/domain"
	"github.com/lcalzada-xor/ridmap/internal/core/services/aggregator"
	"github.com/lcalzada-xor/ridmap/internal/geo"
	"github.com/lcalzada-xor/ridmap/internal/remoteid"
	"github.com/lcalzada-xor/ridmap/internal/telemetry"
)

// Drop reasons, used as metric labels.
const (
	DropTooShort    = "too_short"
	DropRadiotap    = "radiotap"
	DropBadFCS      = "bad_fcs"
	DropMalformed   = "malformed_80211"
	DropNotBeacon   = "not_beacon"
	DropNoRemoteID  = "no_remote_id"
	DropPackHeader  = "pack_header"
	DropNoValidPack = "no_valid_pack"
	DropThrottled   = "throttled"
)

// FrameHandler turns captured frames into telemetry records.
type FrameHandler struct {
	Location geo.Provider
	// Throttle, when positive, keeps at most one record per transmitter
	// within the interval.
	Throttle time.Duration

	logger        *slog.Logger
	tracer        trace.Tracer
	throttleCache *ShardedCache
	lastPrune     atomic.Int64
}

// NewFrameHandler creates a new FrameHandler. loc may be nil.
func NewFrameHandler(loc geo.Provider, logger *slog.Logger) *FrameHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &FrameHandler{
		Location:      loc,
		logger:        logger.With("component", "frame_handler"),
		tracer:        otel.Tracer(telemetry.ServiceName),
		throttleCache: newShardedCache(),
	}
}

// HandleFrame decodes one captured frame (radiotap header included). It
// returns nil, nil for frames that are dropped silently: too short, not a
// beacon, or without a Remote-ID element.
func (h *FrameHandler) HandleFrame(ctx context.Context, frame []byte, ci gopacket.CaptureInfo) (rec *domain.TelemetryRecord, err error) {
	_, span := h.tracer.Start(ctx, "HandleFrame", trace.WithAttributes(attribute.Int("frame.length", len(frame))))
	defer span.End()

	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("recovered from panic in frame handler", "panic", r)
			rec = nil
			err = fmt.Errorf("frame handler panic: %v", r)
			span.SetStatus(codes.Error, err.Error())
		}
	}()

	hdr, raw, err := radiotap.Read(frame)
	if errors.Is(err, radiotap.ErrFrameTooShort) {
		return nil, h.drop(span, DropTooShort, nil)
	}
	if err != nil {
		return nil, h.drop(span, DropRadiotap, fmt.Errorf("radiotap: %w", err))
	}
	if hdr.BadFCS {
		return nil, h.drop(span, DropBadFCS, nil)
	}
	if !hdr.FCS {
		// The 802.11 decoder always strips a trailing FCS.
		raw = append(raw[:len(raw):len(raw)], 0, 0, 0, 0)
	}

	packet := gopacket.NewPacket(raw, layers.LayerTypeDot11, gopacket.NoCopy)
	dot11, ok := packet.Layer(layers.LayerTypeDot11).(*layers.Dot11)
	if !ok {
		var perr error = errors.New("undecodable 802.11 header")
		if el := packet.ErrorLayer(); el != nil {
			perr = el.Error()
		}
		return nil, h.drop(span, DropMalformed, fmt.Errorf("802.11: %w", perr))
	}
	if dot11.Type != layers.Dot11TypeMgmtBeacon {
		return nil, h.drop(span, DropNotBeacon, nil)
	}
	beacon, ok := packet.Layer(layers.LayerTypeDot11MgmtBeacon).(*layers.Dot11MgmtBeacon)
	if !ok {
		return nil, h.drop(span, DropMalformed, errors.New("802.11: truncated beacon body"))
	}

	ies := beacon.Payload
	elem, found := ie.LocateRemoteID(ie.ParseVendorSpecific(ies))
	if !found {
		return nil, h.drop(span, DropNoRemoteID, nil)
	}

	source := dot11.Address2.String()
	span.SetAttributes(attribute.String("wlan.sa", source))

	payload, err := remoteid.SplitPacks(elem.Data)
	if err != nil {
		telemetry.DecodeErrors.WithLabelValues(remoteid.Kind(err)).Inc()
		return nil, h.drop(span, DropPackHeader, fmt.Errorf("remote-id element from %s: %w", source, err))
	}

	agg := aggregator.New(h.metadata(hdr, ies, source, ci))
	for i, pack := range payload.Packs() {
		msg, err := remoteid.Decode(pack)
		if err != nil {
			telemetry.DecodeErrors.WithLabelValues(remoteid.Kind(err)).Inc()
			h.logger.Warn("skipping pack", "source", source, "index", i, "error", err)
			continue
		}
		telemetry.PacksDecoded.WithLabelValues(msg.Type().String()).Inc()
		agg.Add(msg)
	}

	out, ok := agg.Record()
	if !ok {
		return nil, h.drop(span, DropNoValidPack, nil)
	}

	key := out.UASID
	if key == "" {
		key = source
	}
	if h.Throttle > 0 && h.throttled(key, out.ReceivedAt) {
		return nil, h.drop(span, DropThrottled, nil)
	}

	span.SetAttributes(
		attribute.String("rid.uas_id", out.UASID),
		attribute.Int("rid.messages", out.Messages),
	)
	return &out, nil
}

func (h *FrameHandler) metadata(hdr radiotap.Header, ies []byte, source string, ci gopacket.CaptureInfo) domain.TelemetryRecord {
	meta := domain.TelemetryRecord{
		ReceivedAt: ci.Timestamp,
		SourceMAC:  source,
		Radio: domain.RadioInfo{
			Signal:    int(hdr.Signal),
			RateMbps:  hdr.RateMbps(),
			Frequency: int(hdr.ChannelFrequency),
			Channel:   hdr.Channel,
		},
	}
	if ssid := ie.ParseSSID(ies); !ssid.Hidden {
		meta.SSID = ssid.Value
	}
	if meta.Radio.Channel == 0 {
		if ch, err := ie.ParseChannel(ies); err == nil {
			meta.Radio.Channel = ch
		}
	}
	if h.Location != nil {
		meta.Receiver = h.Location.GetLocation()
	}
	return meta
}

func (h *FrameHandler) throttled(key string, now time.Time) bool {
	// Sweep stale keys at most once per minute
	if last := h.lastPrune.Load(); now.Unix()-last > 60 && h.lastPrune.CompareAndSwap(last, now.Unix()) {
		h.throttleCache.prune(10*h.Throttle, now)
	}
	return h.throttleCache.shouldThrottle(key, h.Throttle, now)
}

// drop counts a dropped frame and marks the span. It returns err unchanged.
func (h *FrameHandler) drop(span trace.Span, reason string, err error) error {
	telemetry.FramesDropped.WithLabelValues(reason).Inc()
	span.SetAttributes(attribute.String("drop.reason", reason))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, reason)
	}
	return err
}
