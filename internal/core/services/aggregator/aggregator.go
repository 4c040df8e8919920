// Package aggregator folds the Remote-ID messages of one beacon into a
// single telemetry record.
package aggregator

import (
	"time"

	"github.com/google/uuid"
	"github.com/lcalzada-xor/ridmap/internal/core/domain"
	"github.com/lcalzada-xor/ridmap/internal/geo"
	"github.com/lcalzada-xor/ridmap/internal/remoteid"
)

// Aggregator collects the decoded messages of a single frame. It is not safe
// for concurrent use; create one per frame.
type Aggregator struct {
	rec   domain.TelemetryRecord
	count int
}

// New starts a record carrying the frame metadata in meta. The id and
// receive time are filled in when meta leaves them empty.
func New(meta domain.TelemetryRecord) *Aggregator {
	if meta.ID == "" {
		meta.ID = uuid.NewString()
	}
	if meta.ReceivedAt.IsZero() {
		meta.ReceivedAt = time.Now()
	}
	meta.Messages = 0
	return &Aggregator{rec: meta}
}

// Add folds msg into the record. Later messages of the same kind replace
// earlier ones.
func (a *Aggregator) Add(msg remoteid.Message) {
	switch m := msg.(type) {
	case *remoteid.BasicID:
		a.rec.UASID = m.UASID
		a.rec.IDType = m.IDType.String()
		a.rec.UAType = m.UAType.String()
	case *remoteid.LocationVector:
		loc := *m
		a.rec.Location = &loc
		a.rec.Latitude = m.LatitudeDegrees()
		a.rec.Longitude = m.LongitudeDegrees()
		a.rec.HasPosition = true
	case *remoteid.System:
		a.rec.Operator = operatorLocation(m)
	default:
		return
	}
	a.count++
}

// Record returns the folded record. ok is false when no message was added.
func (a *Aggregator) Record() (domain.TelemetryRecord, bool) {
	if a.count == 0 {
		return domain.TelemetryRecord{}, false
	}
	rec := a.rec
	rec.Messages = a.count
	if rec.HasPosition && !rec.Receiver.IsZero() {
		rec.RangeMeters = rec.Receiver.DistanceTo(geo.Location{Latitude: rec.Latitude, Longitude: rec.Longitude})
	}
	return rec, true
}

func operatorLocation(s *remoteid.System) *domain.OperatorLocation {
	op := &domain.OperatorLocation{
		Latitude:             s.LatitudeDegrees(),
		Longitude:            s.LongitudeDegrees(),
		AltitudeMeters:       s.StationAltitudeMeters(),
		ClassificationRegion: s.ClassificationRegion,
		StationType:          s.StationType,
		UACategory:           s.UACategory,
		UAClass:              s.UAClass,
	}
	if ts, ok := s.Time(); ok {
		op.Timestamp = &ts
	}
	return op
}
