package app

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/lcalzada-xor/ridmap/internal/adapters/publish"
	"github.com/lcalzada-xor/ridmap/internal/adapters/sniffer/hopping"
	"github.com/lcalzada-xor/ridmap/internal/adapters/sniffer/manager"
	"github.com/lcalzada-xor/ridmap/internal/adapters/sniffer/parser"
	webserver "github.com/lcalzada-xor/ridmap/internal/adapters/web/server"
	"github.com/lcalzada-xor/ridmap/internal/config"
	"github.com/lcalzada-xor/ridmap/internal/core/ports"
	"github.com/lcalzada-xor/ridmap/internal/geo"
	"github.com/lcalzada-xor/ridmap/internal/telemetry"
)

// Application holds the core components of the application and orchestrates
// their lifecycle.
type Application struct {
	Config    *config.Config
	Manager   *manager.SnifferManager
	Handler   *parser.FrameHandler
	Publisher ports.Publisher
	Recent    *publish.RecentPublisher
	WebServer *webserver.Server

	logger *slog.Logger
}

// Options carries the dependencies New does not build itself.
type Options struct {
	Logger   *slog.Logger
	Stdout   io.Writer
	Switcher hopping.ChannelSwitcher
}

// New creates a new Application instance and bootstraps its components.
func New(cfg *config.Config, opts Options) (*Application, error) {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Stdout == nil {
		opts.Stdout = io.Discard
	}

	app := &Application{
		Config: cfg,
		logger: opts.Logger,
	}

	if err := app.bootstrap(opts); err != nil {
		return nil, fmt.Errorf("application bootstrap failed: %w", err)
	}
	return app, nil
}

// bootstrap orchestrates the initialization sequence.
func (app *Application) bootstrap(opts Options) error {
	// 1. Foundation
	telemetry.InitMetrics()
	if err := app.Config.Validate(); err != nil {
		return err
	}

	// 2. Outputs
	app.Recent = publish.NewRecentPublisher(app.Config.Output.RecentSize)
	publishers := []ports.Publisher{
		publish.NewLogPublisher(app.logger),
		app.Recent,
	}
	if app.Config.Output.Console {
		publishers = append(publishers, publish.NewConsolePublisher(opts.Stdout))
	}
	if app.Config.Output.JSON {
		publishers = append(publishers, publish.NewJSONPublisher(opts.Stdout))
	}
	app.Publisher = publish.NewMulti(publishers...)

	// 3. Decoding pipeline
	receiver := geo.NewStaticProvider(app.Config.Receiver.Latitude, app.Config.Receiver.Longitude)
	app.Handler = parser.NewFrameHandler(receiver, app.logger)
	app.Handler.Throttle = app.Config.Capture.Throttle

	c := app.Config.Capture
	app.Manager = manager.NewManager(manager.Config{
		Interfaces: c.Interfaces,
		PcapFile:   c.PcapFile,
		Channels:   c.Channels,
		Dwell:      c.Dwell,
		NoHop:      c.NoHop,
		SnapLen:    c.SnapLen,
		Filter:     c.Filter,
		Workers:    c.Workers,
		DumpPath:   c.DumpPath,
	}, app.Handler, app.Publisher, opts.Switcher, app.logger)

	// 4. Servers
	if app.Config.Addr != "" {
		app.WebServer = webserver.NewServer(app.Config.Addr, app.Manager, app.Manager, app.Recent, app.logger)
	}
	return nil
}

// Run starts the capture and the web server. It returns when ctx is
// cancelled or, when replaying a file, once the file is exhausted.
func (app *Application) Run(ctx context.Context) error {
	app.logger.Info("starting ridmap components", "version", telemetry.Version)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if app.WebServer != nil {
		g.Go(func() error {
			if err := app.WebServer.Run(gctx); err != nil {
				return fmt.Errorf("web server error: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		// The capture ending stops everything else.
		defer cancel()
		if err := app.Manager.Start(gctx); err != nil {
			return fmt.Errorf("sniffer error: %w", err)
		}
		return nil
	})

	err := g.Wait()
	app.cleanup()
	return err
}

func (app *Application) cleanup() {
	app.Manager.Close()
	st := app.Manager.Stats()
	app.logger.Info("ridmap stopped",
		"frames", st.FramesCaptured,
		"rejected", st.FramesRejected,
		"remote_id_frames", st.RemoteIDFrames,
		"published", st.RecordsPublished,
		"aircraft", len(st.Aircraft),
	)
}
