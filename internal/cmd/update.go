package cmd

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/finddoc/internal/config"
	"github.com/harrison/finddoc/internal/display"
	"github.com/harrison/finddoc/internal/index"
	"github.com/harrison/finddoc/internal/scanner"
)

// scanRetention is how long scan history rows are kept.
const scanRetention = 90 * 24 * time.Hour

// NewUpdateCommand creates the 'finddoc update' command
func NewUpdateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update",
		Short: "Rescan all roots and rebuild their caches",
		Long: `Rescan every configured root in parallel and rebuild its cached
file list. Roots that fail to scan keep their previous cache.`,
		Args: cobra.NoArgs,
		RunE: runUpdate,
	}
}

func runUpdate(cmd *cobra.Command, args []string) error {
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

	return updateAll(cmd.Context(), app, store, cmd.ErrOrStderr())
}

// openStore opens the scan-history database in the cache dir.
func openStore() (*index.Store, error) {
	dbPath, err := config.IndexDBPath()
	if err != nil {
		return nil, err
	}
	return index.NewStore(dbPath)
}

// updateAll rescans every root concurrently with a shared progress bar.
// Returns an error only when every root failed; partial failure logs and
// keeps the previous caches for the failed roots.
func updateAll(ctx context.Context, app *app, store *index.Store, progressWriter io.Writer) error {
	opts, err := app.scanOptions()
	if err != nil {
		return err
	}

	estimate, err := store.EstimateTotal(ctx, app.roots)
	if err != nil {
		app.log.Debugf("no scan estimate available: %v", err)
	}
	progress := display.NewScanProgress(progressWriter, estimate)

	var wg sync.WaitGroup
	errs := make([]error, len(app.roots))
	for i, root := range app.roots {
		wg.Add(1)
		go func(i int, root string) {
			defer wg.Done()
			errs[i] = rescanRoot(ctx, app, store, root, opts, index.ReasonUpdate, progress)
		}(i, root)
	}
	wg.Wait()
	progress.Finish()

	failed := 0
	for i, err := range errs {
		if err != nil {
			failed++
			app.log.Errorf("scan %s: %v", app.roots[i], err)
		}
	}

	if removed, err := app.cacheDir.Purge(app.roots); err != nil {
		app.log.Warnf("purge stale caches: %v", err)
	} else if removed > 0 {
		app.log.Debugf("purged %d stale cache lists", removed)
	}
	if _, err := store.Prune(ctx, scanRetention); err != nil {
		app.log.Debugf("prune scan history: %v", err)
	}

	if failed == len(app.roots) {
		return fmt.Errorf("all %d roots failed to scan", failed)
	}
	if failed > 0 {
		app.log.Warnf("%d of %d roots failed to scan; previous caches kept", failed, len(app.roots))
	}
	app.log.Infof("indexed %d files across %d roots", progress.Count(), len(app.roots)-failed)
	return nil
}

// rescanRoot rebuilds one root's cache list and records the scan. The
// previous list stays published until the new one is complete.
func rescanRoot(ctx context.Context, app *app, store *index.Store, root string, opts scanner.Options, reason string, progress *display.ScanProgress) error {
	lw, err := app.cacheDir.NewListWriter(root)
	if err != nil {
		return err
	}

	started := time.Now()
	stats, err := scanner.Scan(ctx, root, opts, func(paths []string) {
		if werr := lw.WritePaths(paths); werr != nil {
			app.log.Debugf("write list for %s: %v", root, werr)
		}
		if progress != nil {
			progress.Add(len(paths))
		}
	})
	if err != nil {
		lw.Discard()
		return err
	}
	if stats.Files == 0 && stats.Dirs == 0 {
		// Nothing was readable at all; treat as a failed scan rather
		// than publishing an empty list over a good one.
		lw.Discard()
		return fmt.Errorf("root is unreadable or missing")
	}
	if err := lw.Commit(); err != nil {
		return err
	}

	if store != nil {
		scan := &index.Scan{
			Root:       root,
			FileCount:  stats.Files,
			Duration:   time.Since(started),
			StartedAt:  started,
			FinishedAt: time.Now(),
			Reason:     reason,
		}
		if err := store.RecordScan(ctx, scan); err != nil {
			app.log.Warnf("record scan for %s: %v", root, err)
		}
	}
	return nil
}
