package telemetry

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "ridmap"

var (
	// FramesCaptured counts total frames read from a capture source
	FramesCaptured = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_captured_total",
			Help:      "Total number of frames read from the capture source",
		},
		[]string{"source"},
	)

	// FramesDropped counts frames discarded before decoding
	FramesDropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "frames_dropped_total",
			Help:      "Total number of frames dropped before Remote-ID decoding",
		},
		[]string{"reason"},
	)

	// PacksDecoded counts Remote-ID messages decoded successfully
	PacksDecoded = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "packs_decoded_total",
			Help:      "Total number of Remote-ID messages decoded",
		},
		[]string{"type"},
	)

	// DecodeErrors counts packs and elements that failed to decode
	DecodeErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "decode_errors_total",
			Help:      "Total number of Remote-ID decode failures",
		},
		[]string{"kind"},
	)

	// RecordsPublished counts telemetry records handed to publishers
	RecordsPublished = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_published_total",
			Help:      "Total number of telemetry records published",
		},
		[]string{"publisher", "status"},
	)

	// ChannelHops counts channel switches
	ChannelHops = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "channel_hops_total",
			Help:      "Total number of channel switch attempts",
		},
		[]string{"interface", "status"},
	)

	// Ensure metrics are only registered once
	once sync.Once
)

// InitMetrics registers all metrics with the global Prometheus registry
// This function is idempotent and can be called multiple times safely
func InitMetrics() {
	once.Do(func() {
		// Registration errors only mean the collector is already there
		prometheus.DefaultRegisterer.Register(FramesCaptured)
		prometheus.DefaultRegisterer.Register(FramesDropped)
		prometheus.DefaultRegisterer.Register(PacksDecoded)
		prometheus.DefaultRegisterer.Register(DecodeErrors)
		prometheus.DefaultRegisterer.Register(RecordsPublished)
		prometheus.DefaultRegisterer.Register(ChannelHops)
	})
}
