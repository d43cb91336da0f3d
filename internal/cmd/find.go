package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/harrison/finddoc/internal/actions"
	"github.com/harrison/finddoc/internal/cache"
	"github.com/harrison/finddoc/internal/index"
	"github.com/harrison/finddoc/internal/picker"
	"github.com/harrison/finddoc/internal/scanner"
)

// NewFindCommand creates the 'finddoc find' command
func NewFindCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "find",
		Short: "Fuzzy-search cached file lists and act on the selection (default)",
		Args:  cobra.NoArgs,
		RunE:  runFind,
	}
	cmd.Flags().Bool("preview", false, "show the preview window")
	return cmd
}

func runFind(cmd *cobra.Command, args []string) error {
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

	previewFlag := app.cfg.Preview
	if cmd.Flags().Changed("preview") {
		previewFlag, _ = cmd.Flags().GetBool("preview")
	}

	exe, err := os.Executable()
	if err != nil {
		exe = "finddoc"
	}

	opts := picker.Options{
		HistoryPath:    app.cacheDir.HistoryPath(),
		Preview:        previewFlag,
		PreviewCommand: fmt.Sprintf("%s preview {}", exe),
	}

	ctx := cmd.Context()
	for {
		res, err := picker.Run(ctx, opts, func(w io.Writer) error {
			return feedRoots(ctx, app, store, w)
		})
		if err != nil {
			return err
		}
		if res.Aborted {
			return nil
		}

		switch res.Key {
		case picker.KeyOpen:
			return actions.Open(ctx, res.Path)
		case picker.KeyCopy:
			return actions.CopyPath(res.Path)
		case picker.KeyReveal:
			return actions.Reveal(ctx, res.Path)
		case picker.KeyUpdate:
			if err := updateAll(ctx, app, store, cmd.ErrOrStderr()); err != nil {
				return err
			}
			// Search again over the fresh caches.
			continue
		default:
			return fmt.Errorf("unhandled picker key %q", res.Key)
		}
	}
}

// feedRoots streams every root's cached list into w. A root without a
// cache is scanned on the spot, teeing records to both w and a new list
// that is published when the scan completes.
func feedRoots(ctx context.Context, app *app, store *index.Store, w io.Writer) error {
	opts, err := app.scanOptions()
	if err != nil {
		return err
	}

	for _, root := range app.roots {
		err := app.cacheDir.CopyTo(w, root)
		if err == nil {
			continue
		}
		if !errors.Is(err, cache.ErrNoCache) {
			return err
		}
		if err := scanAndTee(ctx, app, store, root, opts, w); err != nil {
			return err
		}
	}
	return nil
}

// scanAndTee performs the cache-miss path of a find: scan root, write
// records to the picker and to the root's new cache list at once.
func scanAndTee(ctx context.Context, app *app, store *index.Store, root string, opts scanner.Options, w io.Writer) error {
	app.log.Infof("no cache for %s, scanning", root)

	lw, err := app.cacheDir.NewListWriter(root)
	if err != nil {
		return err
	}

	started := time.Now()
	var teeErr error
	stats, err := scanner.Scan(ctx, root, opts, func(paths []string) {
		if teeErr == nil {
			teeErr = cache.WriteRecords(w, paths)
		}
		if werr := lw.WritePaths(paths); werr != nil {
			app.log.Debugf("write list for %s: %v", root, werr)
		}
	})
	if err != nil {
		lw.Discard()
		return err
	}
	if teeErr != nil {
		// The picker went away mid-scan. The scan itself finished, so the
		// list is still worth publishing; the pipe error goes back to the
		// picker layer which knows whether it was expected.
		if err := lw.Commit(); err != nil {
			app.log.Debugf("publish list for %s: %v", root, err)
		}
		return teeErr
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
			Reason:     index.ReasonFind,
		}
		if err := store.RecordScan(ctx, scan); err != nil {
			app.log.Warnf("record scan for %s: %v", root, err)
		}
	}
	return nil
}
