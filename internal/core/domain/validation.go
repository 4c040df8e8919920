package domain

import (
	"errors"
	"fmt"
	"regexp"
)

// Validation Helpers

var interfaceRegex = regexp.MustCompile(`^[a-zA-Z0-9\-_]+$`)

var (
	ErrInvalidInterfaceName = errors.New("invalid interface name")
	ErrInvalidChannel       = errors.New("invalid channel")
)

// IsValidInterface checks if the string is a safe interface name (alphanumeric + - _)
func IsValidInterface(iface string) bool {
	// Length check (Linux interfaces are usually short, IFNAMSIZ is 16)
	if len(iface) == 0 || len(iface) > 16 {
		return false
	}
	return interfaceRegex.MatchString(iface)
}

// IsValidChannel accepts the 2.4 GHz channels 1-14 and the 5 GHz channels
// 32-177.
func IsValidChannel(ch int) bool {
	return (ch >= 1 && ch <= 14) || (ch >= 32 && ch <= 177)
}

// ValidateChannels rejects an empty list or any channel outside the
// supported bands.
func ValidateChannels(channels []int) error {
	if len(channels) == 0 {
		return fmt.Errorf("%w: empty channel list", ErrInvalidChannel)
	}
	for _, ch := range channels {
		if !IsValidChannel(ch) {
			return fmt.Errorf("%w: %d", ErrInvalidChannel, ch)
		}
	}
	return nil
}
