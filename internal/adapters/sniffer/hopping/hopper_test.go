package hopping

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// MockSwitcher captures channel set calls
type MockSwitcher struct {
	mu         sync.Mutex
	calls      []int
	shouldFail bool
}

func (m *MockSwitcher) SetChannel(iface string, channel int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.calls = append(m.calls, channel)
	if m.shouldFail {
		return fmt.Errorf("mock failure")
	}
	return nil
}

func (m *MockSwitcher) Calls() []int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]int(nil), m.calls...)
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func run(t *testing.T, h *ChannelHopper) (stop func()) {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		h.Start(ctx)
		close(done)
	}()
	return func() {
		cancel()
		<-done
	}
}

func TestHopper_RoundRobin(t *testing.T) {
	mock := &MockSwitcher{}
	h := NewHopper("wlan0", []int{1, 6, 11}, 10*time.Millisecond, mock, quietLogger())

	stop := run(t, h)
	time.Sleep(50 * time.Millisecond)
	stop()

	calls := mock.Calls()
	require.GreaterOrEqual(t, len(calls), 3)

	// The first hop happens immediately, then 1, 6, 11, 1, 6...
	wantSeq := []int{1, 6, 11}
	for i, ch := range calls {
		assert.Equal(t, wantSeq[i%len(wantSeq)], ch, "hop %d", i)
	}
	assert.Equal(t, StateStopped, h.State())
}

func TestHopper_DefaultChannels(t *testing.T) {
	h := NewHopper("wlan0", nil, time.Second, &MockSwitcher{}, quietLogger())
	assert.Equal(t, []int{6, 149}, h.GetChannels())
}

func TestHopper_SingleChannelTunesOnce(t *testing.T) {
	mock := &MockSwitcher{}
	h := NewHopper("wlan0", []int{6}, 5*time.Millisecond, mock, quietLogger())

	stop := run(t, h)
	time.Sleep(40 * time.Millisecond)
	stop()

	assert.Equal(t, []int{6}, mock.Calls())
	assert.Equal(t, 6, h.CurrentChannel())
}

func TestHopper_Pause(t *testing.T) {
	mock := &MockSwitcher{}
	h := NewHopper("wlan0", []int{1, 6}, 10*time.Millisecond, mock, quietLogger())

	stop := run(t, h)
	defer stop()
	time.Sleep(20 * time.Millisecond)

	h.Pause(80 * time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	prePause := len(mock.Calls())

	time.Sleep(30 * time.Millisecond)
	assert.Equal(t, prePause, len(mock.Calls()), "hopper continued hopping during pause")
	assert.Equal(t, StatePaused, h.State())
}

func TestHopper_DynamicChannelUpdate(t *testing.T) {
	mock := &MockSwitcher{}
	h := NewHopper("wlan0", []int{1}, 10*time.Millisecond, mock, quietLogger())

	stop := run(t, h)
	time.Sleep(20 * time.Millisecond)

	h.SetChannels([]int{6})
	time.Sleep(30 * time.Millisecond)
	stop()

	calls := mock.Calls()
	assert.Contains(t, calls, 1)
	assert.Contains(t, calls, 6)
	assert.Equal(t, []int{6}, h.GetChannels())
}

func TestHopper_SwitcherErrors(t *testing.T) {
	mock := &MockSwitcher{shouldFail: true}
	h := NewHopper("wlan0", []int{1, 6}, 10*time.Millisecond, mock, quietLogger())

	stop := run(t, h)
	time.Sleep(35 * time.Millisecond)
	stop()

	assert.Greater(t, len(mock.Calls()), 1, "hopper should keep retrying on errors")
	assert.Zero(t, h.CurrentChannel())
}

func TestHopper_StopIsIdempotent(t *testing.T) {
	h := NewHopper("wlan0", []int{1}, 10*time.Millisecond, &MockSwitcher{}, quietLogger())

	done := make(chan struct{})
	go func() {
		h.Start(context.Background())
		close(done)
	}()
	time.Sleep(10 * time.Millisecond)

	assert.NotPanics(t, func() {
		h.Stop()
		h.Stop()
	})

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("hopper did not stop")
	}
}

func TestHopperState_String(t *testing.T) {
	assert.Equal(t, "Paused", StatePaused.String())
	assert.Equal(t, "Unknown", HopperState(42).String())
}
