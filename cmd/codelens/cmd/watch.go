package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/codelens-dev/codelens/internal/cli"
	"github.com/codelens-dev/codelens/internal/indexwalk"
	"github.com/codelens-dev/codelens/internal/ingest"
	"github.com/codelens-dev/codelens/internal/watcher"
)

func newWatchCmd() *cobra.Command {
	var flags indexFlags

	cmd := &cobra.Command{
		Use:   "watch [root]",
		Short: "Live-index a directory",
		Long: `Index root once, then watch it for changes and keep the index in
sync. Ctrl-C stops the watch cleanly and exits 0.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			root := "."
			if len(args) > 0 {
				root = args[0]
			}
			return runWatch(ctx, cmd, root, flags)
		},
	}

	bindIndexFlags(cmd, &flags)
	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, root string, flags indexFlags) error {
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
		if ctx.Err() != nil {
			out.Warning("watch cancelled before initial index completed")
			return nil
		}
		return withExitCode(1, err)
	}
	out.Successf("initial index: %d created, %d updated, %d unchanged, %d removed",
		report.Created, report.Updated, report.Unchanged, report.Removed)

	hw, err := watcher.NewHybridWatcher(watcher.Options{IgnorePatterns: a.Config.Indexing.ExcludePatterns}.WithDefaults())
	if err != nil {
		return withExitCode(1, err)
	}

	out.Status("👀", fmt.Sprintf("watching %s", a.Root))

	onChange := func(path string, outcome ingest.ReindexOutcome, changeErr error) {
		if a.Cache != nil {
			a.Cache.Invalidate()
		}
		switch {
		case changeErr != nil:
			out.Warningf("%s: %v", path, changeErr)
		case outcome == ingest.OutcomeUnchanged:
			// nothing worth printing
		default:
			out.Statusf("↻", "%s: %s", path, outcome)
		}
	}

	err = indexwalk.Watch(ctx, a.Pipeline, watcher.Flatten(hw), a.Root, onChange)
	if err != nil && !errors.Is(err, context.Canceled) {
		return withExitCode(1, err)
	}

	out.Status("🛑", "watch stopped")
	return nil
}
