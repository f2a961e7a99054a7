package cli

import (
	"context"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/roach88/shelflife/internal/httpapi"
)

// shutdownTimeout bounds the graceful HTTP shutdown.
const shutdownTimeout = 5 * time.Second

// ServeOptions holds flags for the serve command.
type ServeOptions struct {
	*RootOptions
	Addr      string
	CameraDir string
	NoWatch   bool
}

// NewServeCommand creates the serve command.
func NewServeCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ServeOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the HTTP API",
		Long: `Serve the HTTP/JSON API used by the counter screen.

Alongside the server, the bucket summary is logged on the watch.schedule
from the config file (disable with --no-watch). The camera directory, if
set, backs the /scan endpoints.

Example:
  shelflife serve
  shelflife serve --addr 127.0.0.1:9000 --camera-dir ./frames`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Addr, "addr", "", "listen address (overrides http.addr)")
	cmd.Flags().StringVar(&opts.CameraDir, "camera-dir", "", "frame directory (overrides scan.camera_dir)")
	cmd.Flags().BoolVar(&opts.NoWatch, "no-watch", false, "do not log the summary on a schedule")

	return cmd
}

func runServe(opts *ServeOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	e, err := openEnv(cmd.Context(), opts.RootOptions, f, envOptions{
		cameraDir: opts.CameraDir,
		logOut:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer e.Close()

	addr := e.cfg.HTTP.Addr
	if opts.Addr != "" {
		addr = opts.Addr
	}

	var sched *cron.Cron
	if !opts.NoWatch {
		sched, err = newScheduler(e.cfg.Watch.Schedule, func() { _, _ = logSummary(e) })
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeConfig, "invalid watch schedule", err)
		}
	}

	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to listen", err)
	}

	srv := &http.Server{
		Handler:           httpapi.NewServer(e.app, e.logger).Router(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := withShutdownSignals(cmd.Context(), e.logger)
	defer stop()

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		e.logger.Info("http server listening", "addr", ln.Addr().String())
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		e.app.CancelScan()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if sched != nil {
		g.Go(func() error {
			runScheduler(gctx, sched)
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "server stopped", err)
	}
	e.logger.Info("server stopped")
	return nil
}
