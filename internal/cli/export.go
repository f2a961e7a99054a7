package cli

import (
	"io"
	"os"

	"github.com/gocarina/gocsv"
	"github.com/spf13/cobra"

	"github.com/roach88/shelflife/internal/view"
)

// ExportOptions holds flags for the export command.
type ExportOptions struct {
	*RootOptions
	Bucket   string
	Location string
	Output   string
}

// NewExportCommand creates the export command.
func NewExportCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ExportOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the list as CSV",
		Long: `Write the list as CSV, with the same filters and order as the list command.

Example:
  shelflife export > expiring.csv
  shelflife export --bucket 30 -o expiring-month.csv`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Bucket, "bucket", "all", "days range: all|7|30|90")
	cmd.Flags().StringVar(&opts.Location, "location", "all", "all|unset|counter|stockroom|refrigerator")
	cmd.Flags().StringVarP(&opts.Output, "output", "o", "", "output file (default: stdout)")

	return cmd
}

// csvRow is one line of the export.
type csvRow struct {
	ID            string `csv:"id"`
	Name          string `csv:"name"`
	Code          string `csv:"code"`
	Expiry        string `csv:"expiry"`
	DaysRemaining int    `csv:"days_remaining"`
	Bucket        string `csv:"bucket"`
	Location      string `csv:"location"`
}

func toCSVRows(rows []view.Row) []*csvRow {
	out := make([]*csvRow, 0, len(rows))
	for _, r := range rows {
		out = append(out, &csvRow{
			ID:            r.Record.ID,
			Name:          r.Record.Name,
			Code:          r.Record.Code,
			Expiry:        r.Record.Expiry.String(),
			DaysRemaining: r.DaysRemaining,
			Bucket:        r.Bucket.String(),
			Location:      string(r.Record.Location),
		})
	}
	return out
}

func runExport(opts *ExportOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	filter, err := parseFilter(opts.Bucket, opts.Location)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeBadFlag, "invalid filter", err)
	}

	e, err := openEnv(cmd.Context(), opts.RootOptions, f, envOptions{logOut: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer e.Close()

	rows, _, err := e.app.View(filter)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to build view", err)
	}

	var w io.Writer = cmd.OutOrStdout()
	if opts.Output != "" {
		file, err := os.Create(opts.Output)
		if err != nil {
			return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to create output file", err)
		}
		defer file.Close()
		w = file
	}

	if err := gocsv.Marshal(toCSVRows(rows), w); err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to write CSV", err)
	}
	if opts.Output != "" {
		f.VerboseLog("Wrote %d rows to %s", len(rows), opts.Output)
	}
	return nil
}
