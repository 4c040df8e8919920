package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"

	"github.com/lcalzada-xor/ridmap/internal/adapters/sniffer/capture"
	"github.com/lcalzada-xor/ridmap/internal/core/domain"
)

const envPrefix = "RIDMAP_"

// CaptureConfig selects the frame sources and how they are read.
type CaptureConfig struct {
	Interfaces []string      `toml:"interfaces"`
	PcapFile   string        `toml:"pcap_file"`
	DumpPath   string        `toml:"dump"`
	Channels   []int         `toml:"channels"`
	Dwell      time.Duration `toml:"dwell"`
	NoHop      bool          `toml:"no_hop"`
	Workers    int           `toml:"workers"`
	SnapLen    int           `toml:"snaplen"`
	Filter     string        `toml:"bpf_filter"`
	Throttle   time.Duration `toml:"throttle"`
}

// ReceiverConfig is the static position of this receiver.
type ReceiverConfig struct {
	Latitude  float64 `toml:"lat"`
	Longitude float64 `toml:"lng"`
}

// OutputConfig chooses the record publishers.
type OutputConfig struct {
	Console    bool `toml:"console"`
	JSON       bool `toml:"json"`
	RecentSize int  `toml:"recent_size"`
}

// LogConfig controls logging and tracing.
type LogConfig struct {
	Debug   bool   `toml:"debug"`
	Format  string `toml:"format"` // "text" or "json"
	Tracing bool   `toml:"tracing"`
}

// Config holds all application configuration.
type Config struct {
	Capture  CaptureConfig  `toml:"capture"`
	Receiver ReceiverConfig `toml:"receiver"`
	Output   OutputConfig   `toml:"output"`
	Log      LogConfig      `toml:"log"`
	Addr     string         `toml:"addr"`

	// Set by flags only.
	ConfigFile string `toml:"-"`
	EnvFile    string `toml:"-"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		Capture: CaptureConfig{
			Interfaces: []string{"wlan0"},
			Channels:   []int{6, 149},
			Dwell:      300 * time.Millisecond,
			SnapLen:    capture.DefaultSnapLen,
			Filter:     capture.BeaconFilter,
		},
		Output: OutputConfig{RecentSize: 256},
		Log:    LogConfig{Format: "text"},
		Addr:   ":8080",
	}
}

// Load builds the configuration from, in increasing precedence: defaults,
// the TOML file, the .env file, the environment and the command line.
func Load(args []string) (*Config, error) {
	cfg := Default()

	fs := flag.NewFlagSet("ridmap", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fl := registerFlags(fs, cfg)
	if err := fs.Parse(args); err != nil {
		return nil, err
	}

	if fl.configFile != "" {
		if _, err := toml.DecodeFile(fl.configFile, cfg); err != nil {
			return nil, fmt.Errorf("load config %s: %w", fl.configFile, err)
		}
	}

	envFile := fl.envFile
	if envFile == "" {
		envFile = ".env"
	}
	if err := godotenv.Load(envFile); err != nil {
		// The default .env is optional; an explicit one is not.
		if fl.envFile != "" || !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("load env %s: %w", envFile, err)
		}
	}

	if err := applyEnv(cfg); err != nil {
		return nil, err
	}

	var ferr error
	fs.Visit(func(f *flag.Flag) {
		if apply, ok := fl.setters[f.Name]; ok && ferr == nil {
			ferr = apply()
		}
	})
	if ferr != nil {
		return nil, ferr
	}

	cfg.ConfigFile = fl.configFile
	cfg.EnvFile = fl.envFile
	return cfg, cfg.Validate()
}

type flagValues struct {
	configFile string
	envFile    string
	setters    map[string]func() error
}

func registerFlags(fs *flag.FlagSet, cfg *Config) *flagValues {
	fl := &flagValues{setters: make(map[string]func() error)}
	fs.StringVar(&fl.configFile, "config", os.Getenv(envPrefix+"CONFIG"), "Path to TOML configuration file")
	fs.StringVar(&fl.envFile, "env", "", "Path to .env file (default .env when present)")

	var (
		ifaces, channels, logFormat, pcap, dump, filter, addr string
		dwell, throttle                                       time.Duration
		workers, snapLen, recent                              int
		lat, lng                                              float64
		noHop, debug, tracing, console, jsonOut               bool
	)

	str := func(p *string, name, usage string, set func(string) error) {
		fs.StringVar(p, name, "", usage)
		fl.setters[name] = func() error { return set(*p) }
	}
	str(&ifaces, "i", "Network interface(s) in monitor mode (comma separated)", func(v string) error {
		cfg.Capture.Interfaces = parseInterfaces(v)
		return nil
	})
	str(&channels, "channels", "Channels to hop (comma separated)", func(v string) error {
		chs, err := parseChannels(v)
		cfg.Capture.Channels = chs
		return err
	})
	str(&pcap, "pcap", "Replay a pcap/pcapng file instead of live capture", func(v string) error {
		cfg.Capture.PcapFile = v
		return nil
	})
	str(&dump, "dump", "Write Remote-ID frames to this pcap file", func(v string) error {
		cfg.Capture.DumpPath = v
		return nil
	})
	str(&filter, "filter", "BPF filter for live capture", func(v string) error {
		cfg.Capture.Filter = v
		return nil
	})
	str(&addr, "addr", "HTTP server address (empty to disable)", func(v string) error {
		cfg.Addr = v
		return nil
	})
	str(&logFormat, "log-format", "Log format: text or json", func(v string) error {
		cfg.Log.Format = v
		return nil
	})

	fs.DurationVar(&dwell, "dwell", 0, "Channel dwell time")
	fl.setters["dwell"] = func() error { cfg.Capture.Dwell = dwell; return nil }
	fs.DurationVar(&throttle, "throttle", 0, "Minimum interval between records of one aircraft (0 disables)")
	fl.setters["throttle"] = func() error { cfg.Capture.Throttle = throttle; return nil }

	fs.IntVar(&workers, "workers", 0, "Frame decoding workers (0 = number of CPUs)")
	fl.setters["workers"] = func() error { cfg.Capture.Workers = workers; return nil }
	fs.IntVar(&snapLen, "snaplen", 0, "Capture snapshot length")
	fl.setters["snaplen"] = func() error { cfg.Capture.SnapLen = snapLen; return nil }
	fs.IntVar(&recent, "recent", 0, "Records kept in memory for the HTTP API")
	fl.setters["recent"] = func() error { cfg.Output.RecentSize = recent; return nil }

	fs.Float64Var(&lat, "lat", 0, "Static receiver latitude")
	fl.setters["lat"] = func() error { cfg.Receiver.Latitude = lat; return nil }
	fs.Float64Var(&lng, "lng", 0, "Static receiver longitude")
	fl.setters["lng"] = func() error { cfg.Receiver.Longitude = lng; return nil }

	fs.BoolVar(&noHop, "no-hop", false, "Stay on the current channel")
	fl.setters["no-hop"] = func() error { cfg.Capture.NoHop = noHop; return nil }
	fs.BoolVar(&debug, "debug", false, "Enable verbose debug logging")
	fl.setters["debug"] = func() error { cfg.Log.Debug = debug; return nil }
	fs.BoolVar(&tracing, "trace", false, "Export traces to stdout")
	fl.setters["trace"] = func() error { cfg.Log.Tracing = tracing; return nil }
	fs.BoolVar(&console, "console", false, "Print every record as a table")
	fl.setters["console"] = func() error { cfg.Output.Console = console; return nil }
	fs.BoolVar(&jsonOut, "json", false, "Write every record as a JSON line to stdout")
	fl.setters["json"] = func() error { cfg.Output.JSON = jsonOut; return nil }

	return fl
}

func applyEnv(cfg *Config) error {
	str := func(key string, dst *string) {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			*dst = v
		}
	}
	str("PCAP", &cfg.Capture.PcapFile)
	str("DUMP", &cfg.Capture.DumpPath)
	str("FILTER", &cfg.Capture.Filter)
	str("ADDR", &cfg.Addr)
	str("LOG_FORMAT", &cfg.Log.Format)

	if v, ok := os.LookupEnv(envPrefix + "INTERFACE"); ok {
		cfg.Capture.Interfaces = parseInterfaces(v)
	}
	if v, ok := os.LookupEnv(envPrefix + "CHANNELS"); ok {
		chs, err := parseChannels(v)
		if err != nil {
			return fmt.Errorf("%sCHANNELS: %w", envPrefix, err)
		}
		cfg.Capture.Channels = chs
	}

	for key, dst := range map[string]*time.Duration{
		"DWELL":    &cfg.Capture.Dwell,
		"THROTTLE": &cfg.Capture.Throttle,
	} {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			d, err := time.ParseDuration(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = d
		}
	}

	for key, dst := range map[string]*int{
		"WORKERS": &cfg.Capture.Workers,
		"SNAPLEN": &cfg.Capture.SnapLen,
		"RECENT":  &cfg.Output.RecentSize,
	} {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = n
		}
	}

	for key, dst := range map[string]*float64{
		"LAT": &cfg.Receiver.Latitude,
		"LNG": &cfg.Receiver.Longitude,
	} {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			f, err := strconv.ParseFloat(v, 64)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = f
		}
	}

	for key, dst := range map[string]*bool{
		"NO_HOP":  &cfg.Capture.NoHop,
		"DEBUG":   &cfg.Log.Debug,
		"TRACING": &cfg.Log.Tracing,
		"CONSOLE": &cfg.Output.Console,
		"JSON":    &cfg.Output.JSON,
	} {
		if v, ok := os.LookupEnv(envPrefix + key); ok {
			b, err := strconv.ParseBool(v)
			if err != nil {
				return fmt.Errorf("%s%s: %w", envPrefix, key, err)
			}
			*dst = b
		}
	}
	return nil
}

// Validate checks the values a capture run depends on.
func (c *Config) Validate() error {
	if c.Capture.PcapFile == "" {
		if len(c.Capture.Interfaces) == 0 {
			return errors.New("no interface or pcap file configured")
		}
		for _, iface := range c.Capture.Interfaces {
			if !domain.IsValidInterface(iface) {
				return fmt.Errorf("%w: %q", domain.ErrInvalidInterfaceName, iface)
			}
		}
		if !c.Capture.NoHop {
			if err := domain.ValidateChannels(c.Capture.Channels); err != nil {
				return err
			}
		}
	}
	if c.Capture.Workers < 0 {
		return fmt.Errorf("workers must not be negative: %d", c.Capture.Workers)
	}
	if c.Capture.Throttle < 0 {
		return fmt.Errorf("throttle must not be negative: %s", c.Capture.Throttle)
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("unknown log format %q", c.Log.Format)
	}
	return nil
}

func parseInterfaces(s string) []string {
	var ifaces []string
	if s == "" {
		return ifaces
	}
	parts := strings.Split(s, ",")
	for _, p := range parts {
		trimmed := strings.TrimSpace(p)
		if trimmed != "" {
			ifaces = append(ifaces, trimmed)
		}
	}
	return ifaces
}

func parseChannels(s string) ([]int, error) {
	var chs []int
	for _, p := range parseInterfaces(s) {
		ch, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid channel %q", p)
		}
		chs = append(chs, ch)
	}
	return chs, nil
}
