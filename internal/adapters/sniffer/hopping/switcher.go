package hopping

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"time"
)

// ChannelSwitcher abstracts the mechanism for changing WiFi channels.
type ChannelSwitcher interface {
	SetChannel(iface string, channel int) error
}

// LinuxChannelSwitcher implements ChannelSwitcher using the 'iw' command.
type LinuxChannelSwitcher struct {
	Timeout time.Duration
}

// NewLinuxChannelSwitcher creates a new LinuxChannelSwitcher.
func NewLinuxChannelSwitcher() *LinuxChannelSwitcher {
	return &LinuxChannelSwitcher{Timeout: 2 * time.Second}
}

// SetChannel executes the iw command to set the channel.
func (s *LinuxChannelSwitcher) SetChannel(iface string, channel int) error {
	ctx, cancel := context.WithTimeout(context.Background(), s.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, "iw", "dev", iface, "set", "channel", strconv.Itoa(channel))
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("failed to set channel %d on %s: %w (%s)", channel, iface, err, out)
	}
	return nil
}
