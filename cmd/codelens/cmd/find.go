package cmd

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/codelens-dev/codelens/internal/cli"
	"github.com/codelens-dev/codelens/internal/query"
	"github.com/codelens-dev/codelens/internal/querycache"
)

func newFindCmd() *cobra.Command {
	var (
		limit  int
		intent string
		root   string
	)

	cmd := &cobra.Command{
		Use:   "find <query>",
		Short: "Search the index",
		Long: `Search the index using the filter DSL (key:value and -key:value
tokens mixed with bare terms) and print ranked matches. Exits 0
regardless of how many results are found.`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			q := strings.Join(args, " ")
			return runFind(cmd, root, q, limit, query.Intent(intent))
		},
	}

	cmd.Flags().IntVar(&limit, "limit", 0, "Maximum number of results (0 uses the configured default)")
	cmd.Flags().StringVar(&intent, "intent", "", "Force an intent: symbol, natural, or hybrid")
	cmd.Flags().StringVar(&root, "root", ".", "Project directory")

	return cmd
}

func runFind(cmd *cobra.Command, root, q string, limit int, intent query.Intent) error {
	a, err := openApp(root)
	if err != nil {
		return err
	}
	defer a.Close()

	results, err := cachedSearch(a, q, limit, intent)
	if err != nil {
		return err
	}

	printResults(cli.New(cmd.OutOrStdout()), results)
	return nil
}

// cachedSearch runs a.Router.SearchWithIntent, consulting and populating
// a.Cache when caching is enabled. The forced intent participates in the
// cache key so "find x" and "find x --intent symbol" never collide.
func cachedSearch(a *app, q string, limit int, intent query.Intent) ([]query.SearchResult, error) {
	if a.Cache == nil {
		return a.Router.SearchWithIntent(q, limit, a.searchLimits(), intent)
	}

	key := querycache.Key(q, limit, string(intent))
	if cached, ok := a.Cache.Get(key); ok {
		return cached, nil
	}

	results, err := a.Router.SearchWithIntent(q, limit, a.searchLimits(), intent)
	if err != nil {
		return nil, err
	}
	a.Cache.Put(key, results)
	return results, nil
}

func printResults(out *cli.Writer, results []query.SearchResult) {
	if len(results) == 0 {
		out.Status("", "no matches")
		return
	}
	for _, r := range results {
		out.Statusf("", "%s:%d-%d  %s %s  (score %.2f)", r.Path, r.StartLine, r.EndLine, r.Kind, r.Name, r.Score)
		if r.Snippet != "" {
			out.Statusf("", "    %s", r.Snippet)
		}
	}
}
