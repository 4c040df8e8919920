package remoteid

import (
	"errors"
	"fmt"
)

// Error kinds. Every typed error below matches exactly one of these through errors.Is.
var (
	ErrInsufficientLength    = errors.New("insufficient length")
	ErrInvalidText           = errors.New("invalid text")
	ErrUnknownMessageType    = errors.New("unknown message type")
	ErrInvalidClassification = errors.New("invalid classification region")
	ErrBounds                = errors.New("out of bounds")
)

// LengthError reports a buffer shorter than a decoder requires.
type LengthError struct {
	Expected int
	Actual   int
}

func (e *LengthError) Error() string {
	return fmt.Sprintf("insufficient length: need %d bytes, got %d", e.Expected, e.Actual)
}

func (e *LengthError) Is(target error) bool { return target == ErrInsufficientLength }

// TextError reports identity bytes that are not valid UTF-8.
// Err is the fault returned by the text validator.
type TextError struct {
	Offset int
	Err    error
}

func (e *TextError) Error() string {
	return fmt.Sprintf("invalid text at byte %d: %v", e.Offset, e.Err)
}

func (e *TextError) Is(target error) bool { return target == ErrInvalidText }

func (e *TextError) Unwrap() error { return e.Err }

// MessageTypeError carries the type nibble no decoder is registered for.
type MessageTypeError struct {
	Type MessageType
}

func (e *MessageTypeError) Error() string {
	return fmt.Sprintf("unknown message type: 0x%X", uint8(e.Type))
}

func (e *MessageTypeError) Is(target error) bool { return target == ErrUnknownMessageType }

// ClassificationError carries a classification region outside 1..3.
type ClassificationError struct {
	Region uint8
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("invalid classification region: %d", e.Region)
}

func (e *ClassificationError) Is(target error) bool { return target == ErrInvalidClassification }

// BoundsError reports a declared length or count that does not fit the buffer.
type BoundsError struct {
	What string
	Need int
	Have int
}

func (e *BoundsError) Error() string {
	return fmt.Sprintf("%s out of bounds: need %d bytes, have %d", e.What, e.Need, e.Have)
}

func (e *BoundsError) Is(target error) bool { return target == ErrBounds }

// Kind returns a short label for err, suitable as a metric label.
func Kind(err error) string {
	switch {
	case err == nil:
		return "none"
	case errors.Is(err, ErrInsufficientLength):
		return "insufficient_length"
	case errors.Is(err, ErrInvalidText):
		return "invalid_text"
	case errors.Is(err, ErrUnknownMessageType):
		return "unknown_message_type"
	case errors.Is(err, ErrInvalidClassification):
		return "invalid_classification"
	case errors.Is(err, ErrBounds):
		return "bounds"
	}
	return "other"
}
