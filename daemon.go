package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/smazurov/nodepower/internal/api"
	"github.com/smazurov/nodepower/internal/config"
	"github.com/smazurov/nodepower/internal/events"
	"github.com/smazurov/nodepower/internal/led"
	"github.com/smazurov/nodepower/internal/logging"
	"github.com/smazurov/nodepower/internal/metrics"
	"github.com/smazurov/nodepower/internal/power"
	"github.com/smazurov/nodepower/internal/systemd"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 5 * time.Second

// daemon owns everything the serve command starts. run and stop are called
// from different goroutines by humacli.
type daemon struct {
	opts   *Options
	logger *slog.Logger

	mu         sync.Mutex
	cancel     context.CancelFunc
	ctrl       *power.Controller
	server     *api.Server
	ledManager *led.Manager
	watcher    *config.Watcher[logging.Config]
}

func newDaemon(opts *Options) *daemon {
	return &daemon{opts: opts, logger: logging.GetLogger("main")}
}

func (d *daemon) run() {
	if err := d.serve(); err != nil {
		d.logger.Error("nodepower stopped", "error", err)
		os.Exit(1)
	}
}

func (d *daemon) serve() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	eventBus := events.New()

	powerOpts := []power.Option{power.WithEventBus(eventBus)}
	var m *metrics.Metrics
	if d.opts.MetricsPrometheusEnabled {
		m = metrics.New()
		powerOpts = append(powerOpts, power.WithRecorder(m))
	}

	ctrl, err := power.Open(power.Config{
		Latching: d.opts.BoardLatching,
		Simulate: d.opts.BoardSimulate,
		Consumer: d.opts.BoardConsumer,
		NoLEDs:   !d.opts.BoardIndicators,
	}, powerOpts...)
	if err != nil {
		return err
	}
	d.logger.Info("Enable lines acquired",
		"chip", power.ChipPath(d.opts.BoardLatching),
		"simulate", d.opts.BoardSimulate)

	if d.opts.FeaturesPowerLEDOnStart {
		if ledErr := ctrl.PowerLED(ctx, true); ledErr != nil {
			d.logger.Warn("Failed to switch power LED on", "error", ledErr)
		}
	}

	var ledManager *led.Manager
	if d.opts.FeaturesStatusLEDFollowsNodes {
		ledManager = led.NewManager(ctrl, eventBus, logging.GetLogger("led"))
		ledManager.Start()
	}

	apiOpts := &api.Options{
		AuthUsername: d.opts.AuthUsername,
		AuthPassword: d.opts.AuthPassword,
		Power:        ctrl,
		EventBus:     eventBus,
	}
	if m != nil {
		apiOpts.PrometheusHandler = m.Handler()
	}
	if apiOpts.AuthUsername == "" || apiOpts.AuthPassword == "" {
		d.logger.Warn("Basic auth disabled, every client may switch node power")
	}
	server := api.NewServer(apiOpts)

	watcher := d.watchLogging(ctx)

	d.mu.Lock()
	d.cancel, d.ctrl, d.server, d.ledManager, d.watcher = cancel, ctrl, server, ledManager, watcher
	d.mu.Unlock()

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		d.logger.Info("Starting HTTP server", "port", d.opts.Port)
		return server.Start(d.opts.Port)
	})
	g.Go(func() error {
		systemd.Watchdog(gctx, logging.GetLogger("systemd"))
		return nil
	})

	systemd.Ready(logging.GetLogger("systemd"))
	systemd.Status(logging.GetLogger("systemd"), "Serving on "+d.opts.Port)

	err = g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// watchLogging re-applies the [logging] table when the config file changes.
// Flag and environment overrides are not re-read.
func (d *daemon) watchLogging(ctx context.Context) *config.Watcher[logging.Config] {
	if d.opts.Config == "" {
		return nil
	}

	logger := logging.GetLogger("config")
	w := config.NewConfigWatcher(d.opts.Config, config.LoadLoggingConfig, logger,
		config.WithErrorHandler[logging.Config](func(err error) {
			logger.Warn("Ignoring config change", "error", err)
		}))
	w.OnReload(func(cfg logging.Config) {
		logging.Initialize(cfg)
		logger.Info("Logging levels reloaded", "level", cfg.Level)
	})

	if err := w.Start(ctx); err != nil {
		logger.Warn("Config file not watched", "path", d.opts.Config, "error", err)
		return nil
	}
	return w
}

func (d *daemon) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.logger.Info("Shutting down")
	systemd.Stopping(logging.GetLogger("systemd"))

	if d.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		if err := d.server.Stop(ctx); err != nil {
			d.logger.Error("Error stopping HTTP server", "error", err)
		}
		cancel()
	}
	if d.watcher != nil {
		if err := d.watcher.Stop(); err != nil {
			d.logger.Warn("Error stopping config watcher", "error", err)
		}
	}
	if d.ledManager != nil {
		d.ledManager.Stop()
	}
	if d.cancel != nil {
		d.cancel()
	}
	if d.ctrl != nil {
		if err := d.ctrl.Close(); err != nil {
			d.logger.Error("Error releasing enable lines", "error", err)
		}
	}
}
