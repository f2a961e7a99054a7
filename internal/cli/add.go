package cli

import (
	"errors"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/shelflife/internal/inventory"
)

// AddOptions holds flags for the add command.
type AddOptions struct {
	*RootOptions
	Name     string
	Expiry   string
	Code     string
	Location string
}

// NewAddCommand creates the add command.
func NewAddCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &AddOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a product with its expiry date",
		Long: `Register a product with its expiry date.

The name and expiry are required. The code is the product barcode, typed
by hand or taken from a scan. Location is one of counter, stockroom or
refrigerator.

Example:
  shelflife add --name "Amoxicillin 500mg" --expiry 2026-11-02 --location counter
  shelflife add --name Ibuprofen --expiry 2027-01-31 --code 4006381333931`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAdd(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Name, "name", "", "product name (required)")
	cmd.Flags().StringVar(&opts.Expiry, "expiry", "", "expiry date, YYYY-MM-DD (required)")
	cmd.Flags().StringVar(&opts.Code, "code", "", "product barcode")
	cmd.Flags().StringVar(&opts.Location, "location", "", "counter|stockroom|refrigerator")

	return cmd
}

func runAdd(opts *AddOptions, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	e, err := openEnv(cmd.Context(), opts.RootOptions, f, envOptions{logOut: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer e.Close()

	draft := inventory.Draft{
		Code:     opts.Code,
		Name:     opts.Name,
		Expiry:   opts.Expiry,
		Location: opts.Location,
	}
	rec, err := e.app.CommitDraft(cmd.Context(), draft)
	if err != nil {
		return failCommit(f, err)
	}
	return f.Success(addedRecord(rec))
}

// failCommit reports a rejected draft or a storage failure.
func failCommit(f *OutputFormatter, err error) error {
	var verr *inventory.ValidationError
	if errors.As(err, &verr) {
		return f.Fail(ExitFailure, ErrCodeValidation, "record rejected", err)
	}
	return f.Fail(ExitCommandError, ErrCodeStorage, "failed to save record", err)
}

// addedRecord renders a committed record. JSON output is the record itself.
type addedRecord inventory.Record

func (r addedRecord) RenderText(w io.Writer) error {
	_, err := fmt.Fprintf(w, "Added %s: %s, expires %s (%s)\n", r.ID, r.Name, r.Expiry, r.Location)
	return err
}
