package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/shelflife/internal/expiry"
	"github.com/roach88/shelflife/internal/view"
)

// NewSummaryCommand creates the summary command.
func NewSummaryCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Count records per expiry bucket",
		Long: `Count every record per expiry bucket, ignoring list filters.

Records already past their date count towards the 7-day bucket and are
also reported separately as expired.

Example:
  shelflife summary
  shelflife summary --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSummary(rootOpts, cmd)
		},
	}

	return cmd
}

// summaryReport is the result of the summary command.
type summaryReport struct {
	Reference expiry.Date  `json:"reference"`
	Summary   view.Summary `json:"summary"`
	Total     int          `json:"total"`
}

func newSummaryReport(s view.Summary, ref expiry.Date) summaryReport {
	return summaryReport{Reference: ref, Summary: s, Total: s.Total()}
}

func (r summaryReport) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "As of %s\n", r.Reference)
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "within 7 days\t%d\n", r.Summary.Urgent7)
	fmt.Fprintf(tw, "  of which expired\t%d\n", r.Summary.Expired)
	fmt.Fprintf(tw, "8-30 days\t%d\n", r.Summary.Warning30)
	fmt.Fprintf(tw, "31-90 days\t%d\n", r.Summary.PreExpired90)
	fmt.Fprintf(tw, "over 90 days\t%d\n", r.Summary.Ok)
	fmt.Fprintf(tw, "total\t%d\n", r.Total)
	return tw.Flush()
}

func runSummary(opts *RootOptions, cmd *cobra.Command) error {
	f := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	e, err := openEnv(cmd.Context(), opts, f, envOptions{logOut: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer e.Close()

	s, ref, err := e.app.Summary()
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to summarize records", err)
	}
	return f.Success(newSummaryReport(s, expiry.DateOf(ref)))
}
