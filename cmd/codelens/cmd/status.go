package cmd

import (
	"io"

	"github.com/spf13/cobra"

	"github.com/codelens-dev/codelens/internal/cli"
	"github.com/codelens-dev/codelens/internal/fsscan"
)

func newStatusCmd() *cobra.Command {
	var (
		verbose bool
		root    string
	)

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show index and cache statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus(cmd, root, verbose)
		},
	}

	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Include submodule discovery and per-language breakdown")
	cmd.Flags().StringVar(&root, "root", ".", "Project directory")

	return cmd
}

func runStatus(cmd *cobra.Command, root string, verbose bool) error {
	a, err := openApp(root)
	if err != nil {
		return err
	}
	defer a.Close()

	stats, err := a.Store.Stats()
	if err != nil {
		return err
	}

	out := cli.New(cmd.OutOrStdout())
	out.Statusf("", "root:    %s", a.Root)
	out.Statusf("", "files:   %d", stats.Files)
	out.Statusf("", "symbols: %d", stats.Symbols)
	out.Statusf("", "chunks:  %d", stats.Chunks)

	if a.Cache != nil {
		cacheStats := a.Cache.Stats()
		out.Statusf("", "cache:   %d/%d entries, %d hits, %d misses, %.1f%% hit rate, %d evictions",
			cacheStats.Size, cacheStats.MaxSize, cacheStats.Hits, cacheStats.Misses, cacheStats.HitRate*100, cacheStats.Evictions)
	} else {
		out.Status("", "cache:   disabled")
	}

	if verbose {
		printVerboseStatus(cmd.OutOrStdout(), out, a)
	}

	return nil
}

func printVerboseStatus(w io.Writer, out *cli.Writer, a *app) {
	table := cli.NewTable("LANGUAGE", "ENABLED")
	for lang, settings := range a.Config.Languages {
		enabled := "no"
		if settings.Enabled {
			enabled = "yes"
		}
		table.AddRow(lang, enabled)
	}
	out.Newline()
	table.Fprint(w)

	if !a.Config.Indexing.Submodules.Enabled {
		out.Status("", "submodules: disabled")
		return
	}

	submodules, err := fsscan.DiscoverSubmodules(a.Root, a.Config.Indexing.Submodules)
	if err != nil {
		out.Warningf("submodule discovery failed: %v", err)
		return
	}
	if len(submodules) == 0 {
		out.Status("", "submodules: none found")
		return
	}
	out.Status("", "submodules:")
	for _, sm := range submodules {
		state := "uninitialized"
		if sm.Initialized {
			state = "initialized"
		}
		out.Statusf("", "  %s -> %s (%s)", sm.Path, sm.Name, state)
	}
}
