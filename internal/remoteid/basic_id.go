package remoteid

import (
	"strings"
	"unicode"

	"golang.org/x/text/encoding"
	"golang.org/x/text/transform"
)

const (
	basicIDLength = 24
	uasIDOffset   = 1
	uasIDLength   = 20
	reservedStart = uasIDOffset + uasIDLength
)

// IDType identifies how the UAS id field is to be interpreted.
type IDType uint8

const (
	IDTypeNone IDType = iota
	IDTypeSerialNumber
	IDTypeCAARegistration
	IDTypeUTMAssigned
	IDTypeSpecificSession
)

func (t IDType) String() string {
	switch t {
	case IDTypeNone:
		return "none"
	case IDTypeSerialNumber:
		return "serial_number"
	case IDTypeCAARegistration:
		return "caa_registration"
	case IDTypeUTMAssigned:
		return "utm_assigned"
	case IDTypeSpecificSession:
		return "specific_session"
	}
	return "reserved"
}

// UAType is the category of the unmanned aircraft.
type UAType uint8

var uaTypeNames = [...]string{
	"none",
	"aeroplane",
	"helicopter_or_multirotor",
	"gyroplane",
	"hybrid_lift",
	"ornithopter",
	"glider",
	"kite",
	"free_balloon",
	"captive_balloon",
	"airship",
	"free_fall_parachute",
	"rocket",
	"tethered_powered_aircraft",
	"ground_obstacle",
	"other",
}

func (t UAType) String() string {
	if int(t) < len(uaTypeNames) {
		return uaTypeNames[t]
	}
	return "reserved"
}

// BasicID is the identity message (type 0x0).
type BasicID struct {
	IDType   IDType
	UAType   UAType
	UASID    string
	Reserved [3]byte
}

func (*BasicID) Type() MessageType { return MessageTypeBasicID }
func (*BasicID) message()          {}

// DecodeBasicID decodes a 24 byte basic id body.
//
// The UAS id must be valid UTF-8 over all of its 20 bytes; trailing NUL
// and whitespace are trimmed only after validation succeeds.
func DecodeBasicID(data []byte) (*BasicID, error) {
	if len(data) < basicIDLength {
		return nil, &LengthError{Expected: basicIDLength, Actual: len(data)}
	}

	raw := data[uasIDOffset : uasIDOffset+uasIDLength]
	text, n, err := transform.Bytes(encoding.UTF8Validator, raw)
	if err != nil {
		return nil, &TextError{Offset: uasIDOffset + n, Err: err}
	}

	msg := &BasicID{
		IDType: IDType(data[0] >> 4),
		UAType: UAType(data[0] & 0x0F),
		UASID:  trimID(string(text)),
	}
	copy(msg.Reserved[:], data[reservedStart:reservedStart+3])

	return msg, nil
}

func trimID(s string) string {
	return strings.TrimRightFunc(s, func(r rune) bool {
		return r == 0 || unicode.IsSpace(r)
	})
}
