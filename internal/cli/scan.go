package cli

import (
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/shelflife/internal/app"
	"github.com/roach88/shelflife/internal/inventory"
	"github.com/roach88/shelflife/internal/scan"
)

// ScanOptions holds flags for the scan command.
type ScanOptions struct {
	*RootOptions
	CameraDir string
	Timeout   time.Duration

	Commit   bool
	Name     string
	Expiry   string
	Location string
}

// NewScanCommand creates the scan command.
func NewScanCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ScanOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Read one barcode from the camera",
		Long: `Open the camera, wait for one barcode and print it.

The camera is a directory of frame images (PNG or JPEG). Each
subdirectory is one device; a back-facing one is preferred. Press Ctrl-C
to stop scanning.

With --commit the scanned code is saved right away as a new record using
--name, --expiry and --location.

Example:
  shelflife scan --camera-dir ./frames
  shelflife scan --camera-dir ./frames --timeout 30s
  shelflife scan --camera-dir ./frames --commit --name Ibuprofen --expiry 2027-01-31`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScan(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.CameraDir, "camera-dir", "", "frame directory (overrides scan.camera_dir)")
	cmd.Flags().DurationVar(&opts.Timeout, "timeout", 0, "give up after this long without a barcode (overrides scan.idle_timeout)")
	cmd.Flags().BoolVar(&opts.Commit, "commit", false, "save the scanned code as a new record")
	cmd.Flags().StringVar(&opts.Name, "name", "", "product name, with --commit")
	cmd.Flags().StringVar(&opts.Expiry, "expiry", "", "expiry date YYYY-MM-DD, with --commit")
	cmd.Flags().StringVar(&opts.Location, "location", "", "counter|stockroom|refrigerator, with --commit")

	return cmd
}

// scanReport is the result of the scan command.
type scanReport struct {
	Scan   app.ScanStatus    `json:"scan"`
	Record *inventory.Record `json:"record,omitempty"`
}

func (r scanReport) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "%s %s\n", r.Scan.Symbology, r.Scan.Code)
	if r.Record != nil {
		fmt.Fprintf(w, "Added %s: %s, expires %s (%s)\n", r.Record.ID, r.Record.Name, r.Record.Expiry, r.Record.Location)
	}
	return nil
}

func runScan(opts *ScanOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	draft := inventory.Draft{Name: opts.Name, Expiry: opts.Expiry, Location: opts.Location}
	if opts.Commit {
		if opts.Name == "" || opts.Expiry == "" {
			return f.Fail(ExitCommandError, ErrCodeBadFlag, "--commit needs --name and --expiry", nil)
		}
		// Reject a bad record before the camera is opened.
		if _, err := draft.Validate(); err != nil {
			return failCommit(f, err)
		}
	}

	e, err := openEnv(cmd.Context(), opts.RootOptions, f, envOptions{
		cameraDir:   opts.CameraDir,
		idleTimeout: opts.Timeout,
		logOut:      cmd.ErrOrStderr(),
	})
	if err != nil {
		return err
	}
	defer e.Close()

	ctx, stop := withShutdownSignals(cmd.Context(), e.logger)
	defer stop()

	session, err := e.app.OpenScan(ctx)
	if err != nil {
		return f.Fail(ExitFailure, ErrCodeScanFailed, "failed to start scan", err)
	}
	f.VerboseLog("Scanning (session %s)...", session.ID())

	outcome, err := session.Wait(ctx)
	if err != nil {
		e.app.CancelScan()
		return f.Fail(ExitFailure, ErrCodeScanClosed, "scan cancelled", nil)
	}

	switch outcome.State {
	case scan.StateSucceeded:
	case scan.StateFailed:
		return f.Fail(ExitFailure, ErrCodeScanFailed, "scan failed", outcome.Err)
	default:
		msg := "scan closed without a barcode"
		if outcome.TimedOut {
			msg = "no barcode found before the timeout"
		}
		return f.Fail(ExitFailure, ErrCodeScanClosed, msg, nil)
	}

	status, _ := e.app.ScanStatus()
	report := scanReport{Scan: status}
	if opts.Commit {
		draft.Code = outcome.Barcode.Value
		rec, err := e.app.CommitDraft(cmd.Context(), draft)
		if err != nil {
			return failCommit(f, err)
		}
		report.Record = &rec
	}
	return f.Success(report)
}
