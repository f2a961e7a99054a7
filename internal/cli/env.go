package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/roach88/shelflife/internal/app"
	"github.com/roach88/shelflife/internal/camera"
	"github.com/roach88/shelflife/internal/config"
	"github.com/roach88/shelflife/internal/inventory"
	"github.com/roach88/shelflife/internal/records"
	"github.com/roach88/shelflife/internal/scan"
	"github.com/roach88/shelflife/internal/store"
)

// env is everything a command needs once config and storage are open.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	kv     store.KV
	app    *app.App

	closeLog func() error
}

// envOptions tweak openEnv per command.
type envOptions struct {
	// cameraDir overrides scan.camera_dir when non-empty.
	cameraDir string

	// idleTimeout overrides scan.idle_timeout when positive.
	idleTimeout time.Duration

	// logOut receives log lines when log.file is unset.
	logOut io.Writer
}

// openEnv loads the config, applies flag overrides, and opens storage.
// Failures are reported through f and returned as an ExitError.
func openEnv(ctx context.Context, opts *RootOptions, f *OutputFormatter, eo envOptions) (*env, error) {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return nil, f.Fail(ExitCommandError, ErrCodeConfig, "failed to load config", err)
	}
	if opts.Driver != "" {
		cfg.Storage.Driver = opts.Driver
	}
	if opts.Database != "" {
		cfg.Storage.Path = opts.Database
	}
	if eo.cameraDir != "" {
		cfg.Scan.CameraDir = eo.cameraDir
	}
	if eo.idleTimeout > 0 {
		cfg.Scan.IdleTimeout = eo.idleTimeout
	}

	logger, closeLog := newLogger(cfg.Log, opts.Verbose, eo.logOut)
	slog.SetDefault(logger)

	kv, err := store.Open(cfg.Storage.Driver, cfg.Storage.Path)
	if err != nil {
		_ = closeLog()
		return nil, f.Fail(ExitCommandError, ErrCodeStorage, "failed to open storage", err)
	}
	logger.Debug("storage opened", "driver", cfg.Storage.Driver, "path", cfg.Storage.Path)

	ids := opts.IDs
	if ids == nil {
		ids = inventory.UUIDv7Generator{}
	}
	recs := records.Load(ctx, kv, records.WithIDGenerator(ids), records.WithLogger(logger))

	var cam scan.Camera
	if cfg.Scan.CameraDir != "" {
		cam = camera.NewDir(cfg.Scan.CameraDir,
			camera.WithFPS(cfg.Scan.FPS),
			camera.WithLogger(logger),
		)
	}

	appOpts := []app.Option{
		app.WithLogger(logger),
		app.WithScanOptions(
			scan.WithIdleTimeout(cfg.Scan.IdleTimeout),
			scan.WithProbes(
				scan.NativeProbe(cfg.Scan.PollInterval),
				scan.ImageProbe(cfg.Scan.Symbologies...),
			),
		),
	}
	if opts.Clock != nil {
		appOpts = append(appOpts, app.WithClock(opts.Clock))
	}

	return &env{
		cfg:      cfg,
		logger:   logger,
		kv:       kv,
		app:      app.New(recs, cam, appOpts...),
		closeLog: closeLog,
	}, nil
}

// Close releases storage and the log file.
func (e *env) Close() error {
	var firstErr error
	if err := e.kv.Close(); err != nil {
		firstErr = fmt.Errorf("close storage: %w", err)
	}
	if err := e.closeLog(); err != nil && firstErr == nil {
		firstErr = fmt.Errorf("close log: %w", err)
	}
	return firstErr
}

// newFormatter builds the output formatter for a command.
func newFormatter(opts *RootOptions, out, errOut io.Writer) *OutputFormatter {
	return &OutputFormatter{
		Format:    opts.Format,
		Writer:    out,
		ErrWriter: errOut,
		Verbose:   opts.Verbose,
	}
}
