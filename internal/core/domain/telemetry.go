package domain

import (
	"time"

	"github.com/lcalzada-xor/ridmap/internal/geo"
	"github.com/lcalzada-xor/ridmap/internal/remoteid"
)

// RadioInfo holds the radiotap metrics of the frame a record came from.
type RadioInfo struct {
	Signal    int     `json:"rssi"`
	RateMbps  float32 `json:"rate_mbps,omitempty"`
	Frequency int     `json:"freq,omitempty"`
	Channel   int     `json:"channel,omitempty"`
}

// OperatorLocation is the ground station position reported by a system message.
type OperatorLocation struct {
	Latitude             float64    `json:"lat"`
	Longitude            float64    `json:"lng"`
	AltitudeMeters       float64    `json:"alt_m"`
	ClassificationRegion uint8      `json:"classification_region"`
	StationType          uint8      `json:"station_type"`
	UACategory           uint8      `json:"ua_category"`
	UAClass              uint8      `json:"ua_class"`
	Timestamp            *time.Time `json:"timestamp,omitempty"`
}

// TelemetryRecord is the output for one Remote-ID beacon: who the aircraft
// is and where it was. It is built fresh per frame and never persisted.
type TelemetryRecord struct {
	ID         string    `json:"id"`
	ReceivedAt time.Time `json:"received_at"`
	SourceMAC  string    `json:"source_mac"`
	SSID       string    `json:"ssid,omitempty"`
	Radio      RadioInfo `json:"radio"`

	// Identity, from the last basic id message of the beacon.
	UASID  string `json:"uas_id,omitempty"`
	IDType string `json:"id_type,omitempty"`
	UAType string `json:"ua_type,omitempty"`

	// Position, from the last location message of the beacon.
	Latitude    float64                  `json:"lat"`
	Longitude   float64                  `json:"lng"`
	HasPosition bool                     `json:"has_position"`
	Location    *remoteid.LocationVector `json:"location,omitempty"`

	Operator *OperatorLocation `json:"operator,omitempty"`
	Receiver geo.Location      `json:"receiver"`
	// RangeMeters is the receiver to aircraft distance; zero when either
	// position is unknown.
	RangeMeters float64 `json:"range_m,omitempty"`

	Messages int `json:"messages"`
}

// HasIdentity reports whether a basic id message contributed to the record.
func (r TelemetryRecord) HasIdentity() bool {
	return r.IDType != ""
}
