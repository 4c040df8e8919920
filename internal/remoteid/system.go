package remoteid

import "time"

// systemMinLength is the shortest body that can decode: the optional
// operation area fields are read greedily ahead of the mandatory tail, so
// anything shorter runs out before the station altitude.
const systemMinLength = 20

// System is the operator/system message (type 0x4).
//
// Flag byte layout: bits 7-5 coordinate system, bits 4-2 classification
// region, bits 1-0 station (operator location) type. ReservedBits is read
// from bits 4-3 and so overlaps the low end of the region field.
type System struct {
	CoordinateSystem     uint8
	ReservedBits         uint8
	ClassificationRegion uint8
	StationType          uint8

	Latitude  int32 // 1e-7 degrees
	Longitude int32 // 1e-7 degrees

	OperationCount  *uint16
	OperationRadius *uint8  // x10 m
	AltitudeUpper   *uint16 // operation area ceiling
	AltitudeLower   *uint16 // operation area floor

	UACategory      uint8
	UAClass         uint8
	StationAltitude uint16 // 0.1 m

	Timestamp *uint32 // Unix seconds
	Reserved  *uint8
}

func (*System) Type() MessageType { return MessageTypeSystem }
func (*System) message()          {}

// DecodeSystem decodes a system body of at least 20 bytes.
func DecodeSystem(data []byte) (*System, error) {
	if len(data) < systemMinLength {
		return nil, &LengthError{Expected: systemMinLength, Actual: len(data)}
	}

	flags := data[0]
	region := (flags >> 2) & 0x07
	if region == 0 || region > 3 {
		return nil, &ClassificationError{Region: region}
	}

	msg := &System{
		CoordinateSystem:     (flags >> 5) & 0x07,
		ReservedBits:         (flags >> 3) & 0x03,
		ClassificationRegion: region,
		StationType:          flags & 0x03,
	}

	c := &cursor{data: data, off: 1}
	var err error
	if msg.Latitude, err = c.i32(); err != nil {
		return nil, err
	}
	if msg.Longitude, err = c.i32(); err != nil {
		return nil, err
	}

	msg.OperationCount = c.optU16()
	msg.OperationRadius = c.optU8()
	msg.AltitudeUpper = c.optU16()
	msg.AltitudeLower = c.optU16()

	if msg.UACategory, err = c.u8(); err != nil {
		return nil, err
	}
	if msg.UAClass, err = c.u8(); err != nil {
		return nil, err
	}
	if msg.StationAltitude, err = c.u16(); err != nil {
		return nil, err
	}

	msg.Timestamp = c.optU32()
	msg.Reserved = c.optU8()

	return msg, nil
}

// LatitudeDegrees returns the station latitude in degrees.
func (s *System) LatitudeDegrees() float64 { return Degrees(s.Latitude) }

// LongitudeDegrees returns the station longitude in degrees.
func (s *System) LongitudeDegrees() float64 { return Degrees(s.Longitude) }

// StationAltitudeMeters returns the station altitude in meters.
func (s *System) StationAltitudeMeters() float64 { return float64(s.StationAltitude) * 0.1 }

// OperationRadiusMeters returns the operation area radius, or 0 when absent.
func (s *System) OperationRadiusMeters() int {
	if s.OperationRadius == nil {
		return 0
	}
	return int(*s.OperationRadius) * 10
}

// Time returns the message timestamp, if present.
func (s *System) Time() (time.Time, bool) {
	if s.Timestamp == nil {
		return time.Time{}, false
	}
	return time.Unix(int64(*s.Timestamp), 0).UTC(), true
}
