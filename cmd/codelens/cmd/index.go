package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codelens-dev/codelens/internal/cli"
	"github.com/codelens-dev/codelens/internal/fsscan"
)

// indexFlags holds the CLI flags shared by index and watch.
type indexFlags struct {
	extensions  []string
	exclude     []string
	maxSize     int64
	concurrency int
}

func bindIndexFlags(cmd *cobra.Command, flags *indexFlags) {
	cmd.Flags().StringSliceVar(&flags.extensions, "extensions", nil, "Limit indexing to these extensions (e.g. .go,.ts)")
	cmd.Flags().StringArrayVar(&flags.exclude, "exclude", nil, "Additional exclude glob, repeatable")
	cmd.Flags().Int64Var(&flags.maxSize, "max-size", 0, "Maximum file size in bytes (0 keeps the configured default)")
	cmd.Flags().IntVar(&flags.concurrency, "concurrency", 0, "Worker concurrency (0 keeps the configured default)")
}

// applyIndexFlags overlays CLI flags onto the app's filter and pipeline
// concurrency, per the index/watch flag contract.
func applyIndexFlags(a *app, flags indexFlags) {
	excludes := append([]string(nil), a.Config.Indexing.ExcludePatterns...)
	excludes = append(excludes, flags.exclude...)

	maxSize := a.Config.Indexing.MaxFileSize
	if flags.maxSize > 0 {
		maxSize = flags.maxSize
	}

	extensions := a.Registry.RecognizedExtensions()
	if len(flags.extensions) > 0 {
		extensions = normalizeExtensions(flags.extensions)
	}

	a.Filter = fsscan.NewFilter(excludes, maxSize, extensions)
	a.Pipeline.Filter = a.Filter

	if flags.concurrency > 0 {
		a.Pipeline.Concurrency = flags.concurrency
	}
}

func normalizeExtensions(exts []string) []string {
	out := make([]string, len(exts))
	for i, e := range exts {
		if e != "" && e[0] != '.' {
			e = "." + e
		}
		out[i] = e
	}
	return out
}

func newIndexCmd() *cobra.Command {
	var flags indexFlags

	cmd := &cobra.Command{
		Use:   "index [root]",
		Short: "Batch index a directory",
		Long: `Walk root (default: the current directory) and bring the embedded
index in sync with the tree: unchanged files are skipped, changed files
are reparsed and rechunked, and files no longer on disk are removed.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return runIndex(ctx, cmd, root, flags)
		},
	}

	bindIndexFlags(cmd, &flags)
	return cmd
}

func runIndex(ctx context.Context, cmd *cobra.Command, root string, flags indexFlags) error {
	a, err := openApp(root)
	if err != nil {
		return withExitCode(1, err)
	}
	defer a.Close()

	applyIndexFlags(a, flags)

	out := cli.New(cmd.OutOrStdout())
	report, err := a.Pipeline.IndexPaths(ctx, a.Root)
	if a.Cache != nil {
		a.Cache.Invalidate()
	}
	if err != nil {
		if report.Cancelled {
			out.Warningf("index cancelled after %d created, %d updated, %d unchanged",
				report.Created, report.Updated, report.Unchanged)
			return withExitCode(2, nil)
		}
		return withExitCode(1, err)
	}

	out.Successf("indexed %s: %d created, %d updated, %d unchanged, %d removed (%dms)",
		a.Root, report.Created, report.Updated, report.Unchanged, report.Removed, report.ElapsedMs)
	for _, ferr := range report.Errors {
		out.Warningf("%s: %v", ferr.Path, ferr.Err)
	}
	if len(report.Errors) > 0 {
		return withExitCode(1, fmt.Errorf("%d file(s) failed to index", len(report.Errors)))
	}
	return nil
}
