package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/codelens-dev/codelens/internal/cli"
	"github.com/codelens-dev/codelens/internal/query"
	"github.com/codelens-dev/codelens/internal/store"
)

func newDefCmd() *cobra.Command {
	var (
		context int
		all     bool
		root    string
	)

	cmd := &cobra.Command{
		Use:   "def <name>",
		Short: "Locate a symbol's definition",
		Long: `Look up name via the symbol-intent search path and print each match
as (path, line, kind) followed by a few lines of surrounding context.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDef(cmd, root, args[0], context, all)
		},
	}

	cmd.Flags().IntVar(&context, "context", 3, "Lines of context to print around each match")
	cmd.Flags().BoolVar(&all, "all", false, "Show every match instead of only the first")
	cmd.Flags().StringVar(&root, "root", ".", "Project directory")

	return cmd
}

func runDef(cmd *cobra.Command, root, name string, contextLines int, all bool) error {
	a, err := openApp(root)
	if err != nil {
		return err
	}
	defer a.Close()

	limit := a.Config.Search.MaxLimit
	if !all {
		limit = 1
	}

	results, err := a.Router.SearchWithIntent(name, limit, a.searchLimits(), query.IntentSymbol)
	if err != nil {
		return err
	}

	out := cli.New(cmd.OutOrStdout())
	if len(results) == 0 {
		out.Status("", "no definition found for "+name)
		return nil
	}

	for _, r := range results {
		out.Statusf("", "%s:%d  %s %s", r.Path, r.StartLine, r.Kind, r.Name)
		printContext(out, a.Store, r.Path, r.StartLine, r.EndLine, contextLines)
		if !all {
			break
		}
	}
	return nil
}

// printContext prints up to contextLines lines before startLine and after
// endLine from the stored file content, falling back to silence if the
// file is no longer indexed.
func printContext(out *cli.Writer, st *store.Store, path string, startLine, endLine, contextLines int) {
	file, err := st.FileByPath(path)
	if err != nil || file == nil {
		return
	}
	lines := strings.Split(file.Content, "\n")

	from := startLine - 1 - contextLines
	if from < 0 {
		from = 0
	}
	to := endLine - 1 + contextLines
	if to > len(lines)-1 {
		to = len(lines) - 1
	}

	for i := from; i <= to && i < len(lines); i++ {
		out.Statusf("", "  %4d| %s", i+1, lines[i])
	}
}
