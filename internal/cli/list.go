package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/roach88/shelflife/internal/expiry"
	"github.com/roach88/shelflife/internal/view"
)

// ListOptions holds flags for the list command.
type ListOptions struct {
	*RootOptions
	Bucket   string
	Location string
}

// NewListCommand creates the list command.
func NewListCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ListOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "list",
		Short: "Show records that have not expired, soonest first",
		Long: `Show records that have not expired yet, sorted by expiry date.

Records already past their date are left out of the list; the summary
command still counts them.

Example:
  shelflife list
  shelflife list --bucket 7
  shelflife list --bucket 30 --location refrigerator --format json`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runList(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Bucket, "bucket", "all", "days range: all|7|30|90")
	cmd.Flags().StringVar(&opts.Location, "location", "all", "all|unset|counter|stockroom|refrigerator")

	return cmd
}

// listing is the result of the list command.
type listing struct {
	Reference expiry.Date `json:"reference"`
	Filter    view.Filter `json:"filter"`
	Rows      []view.Row  `json:"rows"`
}

func (l listing) RenderText(w io.Writer) error {
	fmt.Fprintf(w, "As of %s (bucket: %s, location: %s)\n", l.Reference, l.Filter.Bucket, l.Filter.Location)
	if len(l.Rows) == 0 {
		_, err := fmt.Fprintln(w, "No records.")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tCODE\tEXPIRY\tDAYS\tBUCKET\tLOCATION")
	for _, row := range l.Rows {
		code := row.Record.Code
		if code == "" {
			code = "-"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			row.Record.ID, row.Record.Name, code, row.Record.Expiry,
			row.DaysRemaining, row.Bucket, row.Record.Location)
	}
	return tw.Flush()
}

func runList(opts *ListOptions, cmd *cobra.Command) error {
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

	rows, ref, err := e.app.View(filter)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeGeneric, "failed to build view", err)
	}
	return f.Success(listing{Reference: expiry.DateOf(ref), Filter: filter, Rows: rows})
}

// parseFilter turns the --bucket and --location flag values into a filter.
func parseFilter(bucket, location string) (view.Filter, error) {
	bf, err := view.ParseBucketFilter(bucket)
	if err != nil {
		return view.Filter{}, err
	}
	lf, err := view.ParseLocationFilter(location)
	if err != nil {
		return view.Filter{}, err
	}
	return view.Filter{Bucket: bf, Location: lf}, nil
}
