package cli

import (
	"github.com/spf13/cobra"
)

// WatchOptions holds flags for the watch command.
type WatchOptions struct {
	*RootOptions
	Schedule string
}

// NewWatchCommand creates the watch command.
func NewWatchCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &WatchOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Print the summary now and then on a schedule",
		Long: `Print the bucket summary now and then again on every schedule tick,
until interrupted.

The schedule is a cron expression (five or six fields) or a descriptor
such as @hourly or "@every 30m". It defaults to watch.schedule from the
config file.

Example:
  shelflife watch
  shelflife watch --schedule "0 8 * * *"`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Schedule, "schedule", "", "cron schedule (overrides watch.schedule)")

	return cmd
}

func runWatch(opts *WatchOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	e, err := openEnv(cmd.Context(), opts.RootOptions, f, envOptions{logOut: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer e.Close()

	schedule := e.cfg.Watch.Schedule
	if opts.Schedule != "" {
		schedule = opts.Schedule
	}

	report := func() {
		r, err := logSummary(e)
		if err != nil {
			return
		}
		if err := f.Success(r); err != nil {
			e.logger.Error("failed to write summary", "error", err)
		}
	}

	sched, err := newScheduler(schedule, report)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBadFlag, "invalid schedule", err)
	}

	ctx, stop := withShutdownSignals(cmd.Context(), e.logger)
	defer stop()

	report()
	e.logger.Info("watching", "schedule", schedule)
	runScheduler(ctx, sched)
	return nil
}
