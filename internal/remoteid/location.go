package remoteid

import "encoding/binary"

const locationLength = 24

// OperationalStatus is the high nibble of the location status byte.
type OperationalStatus uint8

const (
	StatusUndeclared OperationalStatus = iota
	StatusGround
	StatusAirborne
	StatusEmergency
	StatusRemoteIDSystemFailure
)

func (s OperationalStatus) String() string {
	switch s {
	case StatusUndeclared:
		return "undeclared"
	case StatusGround:
		return "ground"
	case StatusAirborne:
		return "airborne"
	case StatusEmergency:
		return "emergency"
	case StatusRemoteIDSystemFailure:
		return "remote_id_system_failure"
	}
	return "reserved"
}

// HeightType tells what GroundAltitude is measured against. It is a single
// bit (status bit 2) so that bits 1 and 0 stay free for direction and speed
// multiplier.
type HeightType uint8

const (
	HeightAboveTakeoff HeightType = iota
	HeightAboveGround
)

func (h HeightType) String() string {
	if h == HeightAboveGround {
		return "above_ground"
	}
	return "above_takeoff"
}

// LocationVector is the location/vector message (type 0x1).
//
// Status byte layout: bits 7-4 status, bit 3 reserved, bit 2 height type,
// bit 1 east/west direction, bit 0 speed multiplier.
type LocationVector struct {
	Status          OperationalStatus `json:"status"`
	ReservedFlag    bool              `json:"reserved_flag"`
	HeightType      HeightType        `json:"height_type"`
	TrackDirection  bool              `json:"track_direction"` // set when the track angle lies in 180..359
	SpeedMultiplier bool              `json:"speed_multiplier"`

	TrackAngle    uint8 `json:"track_angle"`
	GroundSpeed   int8  `json:"ground_speed"`
	VerticalSpeed int8  `json:"vertical_speed"`

	Latitude  int32 `json:"latitude"`  // 1e-7 degrees
	Longitude int32 `json:"longitude"` // 1e-7 degrees

	PressureAltitude  int16 `json:"pressure_altitude"`
	GeometricAltitude int16 `json:"geometric_altitude"`
	GroundAltitude    int16 `json:"ground_altitude"`

	VerticalAccuracy     uint8 `json:"vertical_accuracy"`
	HorizontalAccuracy   uint8 `json:"horizontal_accuracy"`
	BaroAltitudeAccuracy uint8 `json:"baro_altitude_accuracy"`
	SpeedAccuracy        uint8 `json:"speed_accuracy"`

	Timestamp         uint16 `json:"timestamp"` // 0.1 s since the start of the hour
	TimestampAccuracy uint8  `json:"timestamp_accuracy"`
	Reserved          uint8  `json:"reserved"`
}

func (*LocationVector) Type() MessageType { return MessageTypeLocation }
func (*LocationVector) message()          {}

// DecodeLocationVector decodes a 24 byte location body. Every field is
// mandatory, so length is the only validation.
func DecodeLocationVector(data []byte) (*LocationVector, error) {
	if len(data) < locationLength {
		return nil, &LengthError{Expected: locationLength, Actual: len(data)}
	}

	status := data[0]
	le := binary.LittleEndian

	return &LocationVector{
		Status:          OperationalStatus(status >> 4),
		ReservedFlag:    status&0x08 != 0,
		HeightType:      HeightType((status >> 2) & 0x01),
		TrackDirection:  status&0x02 != 0,
		SpeedMultiplier: status&0x01 != 0,

		TrackAngle:    data[1],
		GroundSpeed:   int8(data[2]),
		VerticalSpeed: int8(data[3]),

		Latitude:  int32(le.Uint32(data[4:8])),
		Longitude: int32(le.Uint32(data[8:12])),

		PressureAltitude:  int16(le.Uint16(data[12:14])),
		GeometricAltitude: int16(le.Uint16(data[14:16])),
		GroundAltitude:    int16(le.Uint16(data[16:18])),

		VerticalAccuracy:     data[18] >> 4,
		HorizontalAccuracy:   data[18] & 0x0F,
		BaroAltitudeAccuracy: data[19] >> 4,
		SpeedAccuracy:        data[19] & 0x0F,

		Timestamp:         le.Uint16(data[20:22]),
		TimestampAccuracy: data[22] & 0x0F,
		Reserved:          data[23],
	}, nil
}

// FullTrackAngle returns the track angle in degrees over 0..359.
func (l *LocationVector) FullTrackAngle() uint16 {
	if l.TrackDirection {
		return uint16(l.TrackAngle) + 180
	}
	return uint16(l.TrackAngle)
}

// GroundSpeedKnots returns the ground speed scaled by the speed multiplier.
func (l *LocationVector) GroundSpeedKnots() float32 {
	if l.SpeedMultiplier {
		return float32(l.GroundSpeed) * 10
	}
	return float32(l.GroundSpeed)
}

// LatitudeDegrees returns Latitude in degrees.
func (l *LocationVector) LatitudeDegrees() float64 { return Degrees(l.Latitude) }

// LongitudeDegrees returns Longitude in degrees.
func (l *LocationVector) LongitudeDegrees() float64 { return Degrees(l.Longitude) }

// Degrees converts a 1e-7 degree fixed point coordinate.
func Degrees(v int32) float64 {
	return float64(v) * 1e-7
}
