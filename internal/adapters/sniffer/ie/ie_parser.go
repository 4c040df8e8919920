package ie

import (
	"errors"
	"unicode/utf8"
)

// Common IE Tags
const (
	TagSSID           = 0
	TagDSParameterSet = 3
	TagVendorSpecific = 221 // 0xDD
)

// Remote-ID vendor element: ASD-STAN OUI and the Open Drone ID OUI type.
var RemoteIDOUI = [3]byte{0xFA, 0x0B, 0xBC}

const RemoteIDOUIType = 0x0D

// Errors
var (
	ErrMalformedIE = errors.New("malformed information element")
	ErrIENotFound  = errors.New("information element not found")
)

// SSID represents a Service Set Identifier
type SSID struct {
	Value  string
	Hidden bool
}

// String returns the string representation of the SSID
func (s SSID) String() string {
	if s.Hidden {
		return "<HIDDEN>"
	}
	return s.Value
}

// VendorElement is a vendor specific IE split into its OUI, OUI type and the
// bytes that follow.
type VendorElement struct {
	ID      int
	OUI     [3]byte
	OUIType uint8
	Data    []byte
}

// IterateIEs calls the provided callback for each valid IE found in the data.
// It stops if it encounters a malformed IE (length exceeds remaining data).
func IterateIEs(data []byte, callback func(id int, data []byte)) {
	offset := 0
	limit := len(data)

	for offset < limit {
		// Needs at least 2 bytes (ID and Length)
		if offset+2 > limit {
			break
		}

		id := int(data[offset])
		length := int(data[offset+1])
		offset += 2

		if offset+length > limit {
			break
		}

		callback(id, data[offset:offset+length])
		offset += length
	}
}

// FindIE returns the data of the first IE with the given ID.
// Returns nil if not found.
func FindIE(data []byte, targetID int) []byte {
	var result []byte
	IterateIEs(data, func(id int, val []byte) {
		if result == nil && id == targetID {
			result = val
		}
	})
	return result
}

// ParseSSID extracts the SSID from the IE data.
func ParseSSID(data []byte) SSID {
	val := FindIE(data, TagSSID)
	if val == nil {
		return SSID{Hidden: true}
	}

	allZero := true
	for _, b := range val {
		if b != 0x00 {
			allZero = false
			break
		}
	}
	if allZero {
		return SSID{Hidden: true}
	}

	if !utf8.Valid(val) {
		return SSID{}
	}
	return SSID{Value: string(val)}
}

// ParseChannel extracts the channel from the DS Parameter Set (Tag 3).
func ParseChannel(data []byte) (int, error) {
	val := FindIE(data, TagDSParameterSet)
	if len(val) >= 1 {
		return int(val[0]), nil
	}
	return 0, ErrIENotFound
}

// ParseVendorSpecific returns every vendor specific IE (Tag 221) in order.
// Elements too short to carry an OUI and OUI type are skipped.
func ParseVendorSpecific(data []byte) []VendorElement {
	var results []VendorElement
	IterateIEs(data, func(id int, val []byte) {
		if id != TagVendorSpecific || len(val) < 4 {
			return
		}
		results = append(results, VendorElement{
			ID:      id,
			OUI:     [3]byte{val[0], val[1], val[2]},
			OUIType: val[3],
			Data:    val[4:],
		})
	})
	return results
}

// LocateRemoteID returns the first element carrying Remote-ID messages.
// Only the element id and OUI type are checked; ok is false when the beacon
// has no such element.
func LocateRemoteID(elements []VendorElement) (VendorElement, bool) {
	for _, e := range elements {
		if e.ID == TagVendorSpecific && e.OUIType == RemoteIDOUIType {
			return e, true
		}
	}
	return VendorElement{}, false
}
