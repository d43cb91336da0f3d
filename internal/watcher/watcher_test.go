package watcher

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/harrison/finddoc/internal/pathutil"
)

func newTestWatcher(t *testing.T, root string) *Watcher {
	t.Helper()
	ignore, err := pathutil.NewIgnoreSet(pathutil.DefaultIgnorePatterns)
	require.NoError(t, err)

	w, err := New([]string{root}, pathutil.DefaultSkipDirs, ignore, 50*time.Millisecond)
	require.NoError(t, err)
	t.Cleanup(func() { w.Close() })
	return w
}

// collectBatches drains batches for root until deadline and returns the
// union of changes seen.
func collectBatches(t *testing.T, w *Watcher, wait time.Duration) (added, removed map[string]bool) {
	t.Helper()
	added = make(map[string]bool)
	removed = make(map[string]bool)
	deadline := time.After(wait)
	for {
		select {
		case batch := <-w.Batches():
			for _, p := range batch.Added {
				added[p] = true
			}
			for _, p := range batch.Removed {
				removed[p] = true
			}
		case <-deadline:
			return added, removed
		}
	}
}

func TestWatcherSeesCreatedFile(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root)

	path := filepath.Join(root, "new.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	added, _ := collectBatches(t, w, 500*time.Millisecond)
	require.True(t, added[path], "created file should appear in a batch")
}

func TestWatcherSeesRemovedFile(t *testing.T) {
	root := t.TempDir()
	path := filepath.Join(root, "doomed.txt")
	require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))

	w := newTestWatcher(t, root)
	require.NoError(t, os.Remove(path))

	_, removed := collectBatches(t, w, 500*time.Millisecond)
	require.True(t, removed[path], "removed file should appear in a batch")
}

func TestWatcherIgnoresFilteredFiles(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root)

	ignored := filepath.Join(root, "download.part")
	require.NoError(t, os.WriteFile(ignored, []byte("x"), 0o644))

	added, _ := collectBatches(t, w, 300*time.Millisecond)
	require.False(t, added[ignored], "ignored file must not enter a batch")
}

func TestWatcherNewDirectoryContents(t *testing.T) {
	root := t.TempDir()
	w := newTestWatcher(t, root)

	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	// Give the watcher a moment to register the new directory before
	// writing into it.
	time.Sleep(100 * time.Millisecond)
	inner := filepath.Join(sub, "inner.txt")
	require.NoError(t, os.WriteFile(inner, []byte("x"), 0o644))

	added, _ := collectBatches(t, w, 700*time.Millisecond)
	require.True(t, added[inner], "file in new directory should appear in a batch")
}

func TestWatcherDirectoryRemovalRequestsRescan(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.Mkdir(sub, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(sub, "f.txt"), []byte("x"), 0o644))

	w := newTestWatcher(t, root)
	require.NoError(t, os.RemoveAll(sub))

	select {
	case got := <-w.Rescans():
		require.Equal(t, root, got)
	case <-time.After(time.Second):
		t.Fatal("expected a rescan request after directory removal")
	}
}

func TestWatcherCloseDeliversPendingChanges(t *testing.T) {
	// An interval far beyond the test's lifetime means the only flush is
	// the one Close triggers; the pending add must survive it.
	for round := 0; round < 10; round++ {
		root := t.TempDir()
		ignore, err := pathutil.NewIgnoreSet(pathutil.DefaultIgnorePatterns)
		require.NoError(t, err)
		w, err := New([]string{root}, pathutil.DefaultSkipDirs, ignore, time.Hour)
		require.NoError(t, err)

		path := filepath.Join(root, "pending.txt")
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
		time.Sleep(100 * time.Millisecond)

		require.NoError(t, w.Close())

		added := make(map[string]bool)
		for batch := range w.Batches() {
			for _, p := range batch.Added {
				added[p] = true
			}
		}
		require.True(t, added[path], "pending add must be delivered on close (round %d)", round)
	}
}

func TestWatcherCloseIsIdempotent(t *testing.T) {
	w := newTestWatcher(t, t.TempDir())
	require.NoError(t, w.Close())
	require.NoError(t, w.Close())
}

func TestRootFor(t *testing.T) {
	w := &Watcher{roots: []string{"/data", "/data/docs"}}

	require.Equal(t, "/data/docs", w.rootFor("/data/docs/a.txt"))
	require.Equal(t, "/data", w.rootFor("/data/other/b.txt"))
	require.Equal(t, "", w.rootFor("/elsewhere/c.txt"))
	require.Equal(t, "", w.rootFor("/database/d.txt"), "prefix must respect path boundaries")
}
