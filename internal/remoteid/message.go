// Package remoteid decodes ASTM F3411 (Open Drone ID) messages carried in
// the vendor specific element of WiFi beacons.
//
// Messages are 25 bytes long: one header byte (message type in the high
// nibble, protocol version in the low nibble) followed by a 24 byte body.
// Decoding is pure; nothing here logs or keeps a reference to its input.
package remoteid

import "fmt"

// MessageType is the high nibble of a message header byte.
type MessageType uint8

const (
	MessageTypeBasicID  MessageType = 0x0
	MessageTypeLocation MessageType = 0x1
	MessageTypeSystem   MessageType = 0x4
	MessageTypePack     MessageType = 0xF
)

// MessageSize is the size of one message including its header byte.
const MessageSize = 25

func (t MessageType) String() string {
	switch t {
	case MessageTypeBasicID:
		return "basic_id"
	case MessageTypeLocation:
		return "location"
	case MessageTypeSystem:
		return "system"
	case MessageTypePack:
		return "pack"
	}
	return fmt.Sprintf("0x%X", uint8(t))
}

// Message is one decoded Remote-ID message. The set of implementations is
// closed: *BasicID, *LocationVector and *System.
type Message interface {
	Type() MessageType
	message()
}

// HeaderType returns the message type nibble of a header byte.
func HeaderType(b byte) MessageType {
	return MessageType((b >> 4) & 0x0F)
}

// ProtocolVersion returns the protocol version nibble of a pack.
// It returns 0 for an empty pack.
func ProtocolVersion(pack []byte) uint8 {
	if len(pack) == 0 {
		return 0
	}
	return pack[0] & 0x0F
}

// Decode dispatches a whole pack, header byte included, to the decoder
// selected by its type nibble.
func Decode(pack []byte) (Message, error) {
	if len(pack) == 0 {
		return nil, &LengthError{Expected: 1, Actual: 0}
	}

	var (
		msg  Message
		err  error
		body = pack[1:]
	)
	switch t := HeaderType(pack[0]); t {
	case MessageTypeBasicID:
		var m *BasicID
		if m, err = DecodeBasicID(body); err == nil {
			msg = m
		}
	case MessageTypeLocation:
		var m *LocationVector
		if m, err = DecodeLocationVector(body); err == nil {
			msg = m
		}
	case MessageTypeSystem:
		var m *System
		if m, err = DecodeSystem(body); err == nil {
			msg = m
		}
	default:
		err = &MessageTypeError{Type: t}
	}

	if err != nil {
		return nil, err
	}
	return msg, nil
}
