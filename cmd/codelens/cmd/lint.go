package cmd

import (
	"github.com/spf13/cobra"

	"github.com/codelens-dev/codelens/internal/cli"
	"github.com/codelens-dev/codelens/internal/lint"
)

func newLintCmd() *cobra.Command {
	var (
		all  bool
		list bool
		root string
	)

	cmd := &cobra.Command{
		Use:   "lint [pattern]",
		Short: "Run built-in or user-supplied patterns over the indexed tree",
		Long: `Scan indexed file content for suspicious patterns. With no
arguments, or --all, every built-in pattern runs; a supplied pattern is
compiled as a case-insensitive regex and run on its own. Exits 0 if no
error-severity hit is found, 1 otherwise.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if list {
				printPatternList(cli.New(cmd.OutOrStdout()))
				return nil
			}

			var pattern string
			if len(args) > 0 {
				pattern = args[0]
			}
			return runLint(cmd, root, pattern, all)
		},
	}

	cmd.Flags().BoolVar(&all, "all", false, "Run every built-in pattern even when a pattern argument is given")
	cmd.Flags().BoolVar(&list, "list", false, "List built-in pattern names and exit")
	cmd.Flags().StringVar(&root, "root", ".", "Project directory")

	return cmd
}

func printPatternList(out *cli.Writer) {
	for _, p := range lint.BuiltinPatterns {
		out.Statusf("", "%-20s %-8s %s", p.Name, p.Severity, p.Message)
	}
}

func runLint(cmd *cobra.Command, root, pattern string, all bool) error {
	a, err := openApp(root)
	if err != nil {
		return err
	}
	defer a.Close()

	var hits []lint.Hit
	switch {
	case pattern == "" || all:
		hits, err = lint.Run(a.Store, lint.BuiltinPatterns)
	default:
		hits, err = lint.RunUserPattern(a.Store, pattern)
	}
	if err != nil {
		return withExitCode(1, err)
	}

	out := cli.New(cmd.OutOrStdout())
	for _, h := range hits {
		out.Statusf("", "%s:%d [%s/%s] %s", h.Path, h.Line, h.Severity, h.Pattern, h.Text)
	}
	if len(hits) == 0 {
		out.Success("no hits")
	}

	if lint.HasErrorSeverity(hits) {
		return withExitCode(1, nil)
	}
	return nil
}
