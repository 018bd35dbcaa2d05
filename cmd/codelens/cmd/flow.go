package cmd

import (
	"github.com/spf13/cobra"

	"github.com/codelens-dev/codelens/internal/cli"
	"github.com/codelens-dev/codelens/internal/query"
)

func newFlowCmd() *cobra.Command {
	var (
		limit int
		root  string
	)

	cmd := &cobra.Command{
		Use:   "flow <name>",
		Short: "Print a symbol's definition followed by its references",
		Long: `Locate name's definition (the symbol-intent path) and then print
the natural-search matches for name, giving a quick definition-then-uses
overview of a symbol.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runFlow(cmd, root, args[0], limit)
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of reference results (0 uses the configured default)")
	cmd.Flags().StringVar(&root, "root", ".", "Project directory")

	return cmd
}

func runFlow(cmd *cobra.Command, root, name string, limit int) error {
	a, err := openApp(root)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cli.New(cmd.OutOrStdout())

	defs, err := a.Router.SearchWithIntent(name, 1, a.searchLimits(), query.IntentSymbol)
	if err != nil {
		return err
	}
	if len(defs) == 0 {
		out.Status("", "no definition found for "+name)
	} else {
		out.Status("📍", "definition")
		d := defs[0]
		out.Statusf("", "%s:%d  %s %s", d.Path, d.StartLine, d.Kind, d.Name)
	}

	refs, err := a.Router.SearchWithIntent(name, limit, a.searchLimits(), query.IntentNatural)
	if err != nil {
		return err
	}

	out.Newline()
	out.Status("🔗", "references")
	printResults(out, refs)
	return nil
}
