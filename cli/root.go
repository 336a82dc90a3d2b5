package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCommand builds the command tree. With no subcommand it serves the
// HTTP API.
func NewRootCommand(app *App) *cobra.Command {
	root := &cobra.Command{
		Use:           "story-builder",
		Short:         "Build and play branching picture stories",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return serve(cmd.Context(), app)
		},
	}
	root.AddCommand(
		newServeCommand(app),
		newListCommand(app),
		newPlayCommand(app),
		newExportCommand(app),
		newImportCommand(app),
		newSeedCatalogCommand(app),
	)
	return root
}

// Run executes args against app and returns the process exit code.
func Run(ctx context.Context, app *App, args []string) int {
	cmd := NewRootCommand(app)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err == nil {
		return 0
	}
	code, ok := IsExitError(err)
	if !ok {
		code = 1
	}
	var exitErr *ExitError
	if !errors.As(err, &exitErr) || exitErr.Err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
	}
	return code
}
