package cmd

import (
	"context"
	"errors"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/harrison/finddoc/internal/cache"
	"github.com/harrison/finddoc/internal/index"
	"github.com/harrison/finddoc/internal/watcher"
)

// NewWatchCommand creates the 'finddoc watch' command
func NewWatchCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Keep caches fresh by watching roots for changes",
		Long: `Watch every configured root for file creations and removals and
apply them to the cached lists incrementally, so searches stay
accurate without running 'finddoc update'. Runs in the foreground
until interrupted.`,
		Args: cobra.NoArgs,
		RunE: runWatch,
	}
	cmd.Flags().Duration("flush-interval", watcher.DefaultFlushInterval, "how often to apply coalesced changes")
	return cmd
}

func runWatch(cmd *cobra.Command, args []string) error {
	app, err := loadApp(cmd)
	if err != nil {
		return err
	}
	if err := app.requireRoots(); err != nil {
		return err
	}

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	ignore, err := app.ignoreSet()
	if err != nil {
		return err
	}
	interval, _ := cmd.Flags().GetDuration("flush-interval")

	w, err := watcher.New(app.roots, app.cfg.SkipDirs, ignore, interval)
	if err != nil {
		return err
	}
	defer w.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app.log.Infof("watching %d roots (ctrl-c to stop)", len(app.roots))

	for {
		select {
		case <-ctx.Done():
			app.log.Infof("stopping watch")
			// Apply what the final flush delivers before exiting, under a
			// fresh context so the merges outlive the cancelled one.
			w.Close()
			for batch := range w.Batches() {
				applyBatch(context.Background(), app, store, batch)
			}
			return nil

		case batch, ok := <-w.Batches():
			if !ok {
				return nil
			}
			applyBatch(ctx, app, store, batch)

		case root := <-w.Rescans():
			app.log.Infof("changes in %s exceed incremental tracking, rescanning", root)
			opts, err := app.scanOptions()
			if err != nil {
				return err
			}
			if err := rescanRoot(ctx, app, store, root, opts, index.ReasonWatch, nil); err != nil {
				app.log.Errorf("rescan %s: %v", root, err)
			}

		case err := <-w.Errors():
			app.log.Warnf("watcher: %v", err)
		}
	}
}

// applyBatch merges one change batch into its root's cache, falling back
// to a full rescan when the root has no list to merge into.
func applyBatch(ctx context.Context, app *app, store *index.Store, batch watcher.Batch) {
	count, err := app.cacheDir.Merge(batch.Root, batch.Added, batch.Removed)
	if err == nil {
		app.log.Debugf("merged %+d/-%d changes into %s (%d files)",
			len(batch.Added), len(batch.Removed), batch.Root, count)
		return
	}
	if !errors.Is(err, cache.ErrNoCache) {
		app.log.Errorf("merge changes into %s: %v", batch.Root, err)
		return
	}

	opts, optsErr := app.scanOptions()
	if optsErr != nil {
		app.log.Errorf("scan options: %v", optsErr)
		return
	}
	if err := rescanRoot(ctx, app, store, batch.Root, opts, index.ReasonWatch, nil); err != nil {
		app.log.Errorf("rescan %s: %v", batch.Root, err)
	}
}
