package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lcalzada-xor/ridmap/internal/core/domain"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func TestLoad_Defaults(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load(nil)
	require.NoError(t, err)

	assert.Equal(t, []string{"wlan0"}, cfg.Capture.Interfaces)
	assert.Equal(t, []int{6, 149}, cfg.Capture.Channels)
	assert.Equal(t, 300*time.Millisecond, cfg.Capture.Dwell)
	assert.Equal(t, "type mgt subtype beacon", cfg.Capture.Filter)
	assert.Equal(t, ":8080", cfg.Addr)
	assert.Equal(t, "text", cfg.Log.Format)
	assert.Equal(t, 256, cfg.Output.RecentSize)
	assert.Zero(t, cfg.Capture.Throttle)
}

func TestLoad_Precedence(t *testing.T) {
	dir := t.TempDir()
	t.Chdir(dir)

	toml := writeFile(t, dir, "ridmap.toml", `
addr = ":9000"

[capture]
interfaces = ["wlan1", "wlan2"]
channels = [1, 6, 11]
dwell = "500ms"
throttle = "2s"
workers = 2

[receiver]
lat = 40.1
lng = -3.5

[log]
format = "json"
`)
	writeFile(t, dir, ".env", "RIDMAP_WORKERS=3\nRIDMAP_LAT=41.5\n")
	t.Cleanup(func() { os.Unsetenv("RIDMAP_WORKERS") })
	t.Setenv("RIDMAP_LAT", "42.0")
	t.Setenv("RIDMAP_DEBUG", "true")

	cfg, err := Load([]string{"-config", toml, "-channels", "6,149", "-console"})
	require.NoError(t, err)

	// TOML
	assert.Equal(t, ":9000", cfg.Addr)
	assert.Equal(t, []string{"wlan1", "wlan2"}, cfg.Capture.Interfaces)
	assert.Equal(t, 500*time.Millisecond, cfg.Capture.Dwell)
	assert.Equal(t, 2*time.Second, cfg.Capture.Throttle)
	assert.Equal(t, -3.5, cfg.Receiver.Longitude)
	assert.Equal(t, "json", cfg.Log.Format)
	// .env over TOML
	assert.Equal(t, 3, cfg.Capture.Workers)
	// environment over .env
	assert.Equal(t, 42.0, cfg.Receiver.Latitude)
	assert.True(t, cfg.Log.Debug)
	// flags over everything
	assert.Equal(t, []int{6, 149}, cfg.Capture.Channels)
	assert.True(t, cfg.Output.Console)
	assert.Equal(t, toml, cfg.ConfigFile)
}

func TestLoad_FlagsOnlyOverrideWhenSet(t *testing.T) {
	t.Chdir(t.TempDir())
	t.Setenv("RIDMAP_ADDR", ":7000")

	cfg, err := Load([]string{"-debug"})
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Addr)
	assert.True(t, cfg.Log.Debug)
}

func TestLoad_PcapSkipsInterfaceChecks(t *testing.T) {
	t.Chdir(t.TempDir())

	cfg, err := Load([]string{"-pcap", "capture.pcapng", "-i", "", "-channels", ""})
	require.NoError(t, err)
	assert.Equal(t, "capture.pcapng", cfg.Capture.PcapFile)
	assert.Empty(t, cfg.Capture.Interfaces)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		env  map[string]string
		is   error
	}{
		{name: "unknown flag", args: []string{"-nope"}},
		{name: "missing config", args: []string{"-config", "missing.toml"}},
		{name: "missing explicit env", args: []string{"-env", "missing.env"}},
		{name: "bad interface", args: []string{"-i", "wlan0;reboot"}, is: domain.ErrInvalidInterfaceName},
		{name: "bad channel", args: []string{"-channels", "6,300"}, is: domain.ErrInvalidChannel},
		{name: "non numeric channel", args: []string{"-channels", "six"}},
		{name: "no source", args: []string{"-i", ""}},
		{name: "bad log format", args: []string{"-log-format", "xml"}},
		{name: "negative workers", args: []string{"-workers", "-1"}},
		{name: "bad env duration", env: map[string]string{"RIDMAP_DWELL": "soon"}},
		{name: "bad env bool", env: map[string]string{"RIDMAP_CONSOLE": "maybe"}},
		{name: "bad env channels", env: map[string]string{"RIDMAP_CHANNELS": "1,x"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Chdir(t.TempDir())
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(tt.args)
			require.Error(t, err)
			if tt.is != nil {
				assert.ErrorIs(t, err, tt.is)
			}
		})
	}
}

func TestLoad_NoHopSkipsChannelCheck(t *testing.T) {
	t.Chdir(t.TempDir())

	_, err := Load([]string{"-no-hop", "-channels", "300"})
	assert.NoError(t, err)
}

func TestParseInterfaces(t *testing.T) {
	assert.Equal(t, []string{"wlan0", "wlan1"}, parseInterfaces(" wlan0, ,wlan1 "))
	assert.Empty(t, parseInterfaces(""))
}
