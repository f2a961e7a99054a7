package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/shelflife/internal/inventory"
)

// RemoveOptions holds flags for the remove command.
type RemoveOptions struct {
	*RootOptions
	Yes bool
}

// NewRemoveCommand creates the remove command.
func NewRemoveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RemoveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "remove <id>",
		Short: "Remove a record",
		Long: `Remove a record by id.

Without --yes the record is only shown, so the operator can check it is
the right one before deleting.

Example:
  shelflife remove 0190f1c2-7d3e-7a4b-9c1d-2e3f4a5b6c7d
  shelflife remove 0190f1c2-7d3e-7a4b-9c1d-2e3f4a5b6c7d --yes`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRemove(opts, args[0], cmd)
		},
	}

	cmd.Flags().BoolVarP(&opts.Yes, "yes", "y", false, "confirm the removal")

	return cmd
}

// removal is the result of the remove command.
type removal struct {
	Record  inventory.Record `json:"record"`
	Removed bool             `json:"removed"`
}

func (r removal) RenderText(w io.Writer) error {
	if r.Removed {
		_, err := fmt.Fprintf(w, "Removed %s: %s (expires %s)\n", r.Record.ID, r.Record.Name, r.Record.Expiry)
		return err
	}
	_, err := fmt.Fprintf(w, "Would remove %s: %s (expires %s)\nRe-run with --yes to confirm.\n",
		r.Record.ID, r.Record.Name, r.Record.Expiry)
	return err
}

func runRemove(opts *RemoveOptions, id string, cmd *cobra.Command) error {
	f := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	e, err := openEnv(cmd.Context(), opts.RootOptions, f, envOptions{logOut: cmd.ErrOrStderr()})
	if err != nil {
		return err
	}
	defer e.Close()

	rec, ok := e.app.Record(id)
	if !ok {
		return f.Fail(ExitFailure, ErrCodeNotFound, fmt.Sprintf("no record with id %q", id), nil)
	}
	if !opts.Yes {
		return f.Success(removal{Record: rec})
	}

	removed, err := e.app.RemoveRecord(cmd.Context(), id)
	if err != nil {
		return f.Fail(ExitCommandError, ErrCodeStorage, "failed to remove record", err)
	}
	return f.Success(removal{Record: rec, Removed: removed})
}
