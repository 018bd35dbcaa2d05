package cmd

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/codelens-dev/codelens/pkg/version"
)

// NewRootCmd creates the root command for the codelens CLI.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "codelens",
		Short: "Local code-intelligence engine",
		Long: `codelens indexes a project's source tree into an embedded store and
answers symbol, natural-language, and hybrid queries against it without
sending any code off the machine.`,
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
	}
	cmd.SetVersionTemplate("codelens version {{.Version}}\n")

	cmd.AddCommand(newIndexCmd())
	cmd.AddCommand(newWatchCmd())
	cmd.AddCommand(newFindCmd())
	cmd.AddCommand(newDefCmd())
	cmd.AddCommand(newFlowCmd())
	cmd.AddCommand(newLintCmd())
	cmd.AddCommand(newStatusCmd())
	cmd.AddCommand(newConfigCmd())

	return cmd
}

// Execute runs the root command and returns the process exit code.
func Execute() int {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		var ec *exitCodeErr
		if errors.As(err, &ec) {
			if ec.err != nil {
				fmt.Fprintln(root.ErrOrStderr(), "Error:", ec.err)
			}
		} else {
			fmt.Fprintln(root.ErrOrStderr(), "Error:", err)
		}
	}
	return exitCodeOf(err)
}
