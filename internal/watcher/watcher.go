// Package watcher keeps caches fresh between full scans. It watches every
// configured root recursively with fsnotify, coalesces bursts of events
// into per-root add/remove batches, and emits them on an interval for the
// cache merge. Situations it cannot track precisely (a directory removed
// with unknown contents, kernel event overflow) degrade to a full-rescan
// request for the affected root.
package watcher

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/harrison/finddoc/internal/pathutil"
)

// DefaultFlushInterval is how often pending changes are emitted.
const DefaultFlushInterval = 2 * time.Second

// Batch is a coalesced set of changes under one root.
type Batch struct {
	Root    string
	Added   []string
	Removed []string
}

// Watcher watches roots and emits change batches.
type Watcher struct {
	fsw      *fsnotify.Watcher
	roots    []string
	skip     map[string]bool
	ignore   *pathutil.IgnoreSet
	interval time.Duration

	batches chan Batch
	rescans chan string
	errs    chan error
	done    chan struct{}

	mu          sync.Mutex
	pendingAdd  map[string]map[string]struct{} // root -> paths
	pendingRm   map[string]map[string]struct{}
	watchedDirs map[string]bool
	closed      bool
}

// New starts watching the given roots. skipDirs and ignore apply the same
// filters as a scan, so watch mode never admits paths a rescan would skip.
func New(roots []string, skipDirs []string, ignore *pathutil.IgnoreSet, interval time.Duration) (*Watcher, error) {
	if interval <= 0 {
		interval = DefaultFlushInterval
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create watcher: %w", err)
	}

	skip := make(map[string]bool, len(skipDirs))
	for _, name := range skipDirs {
		skip[name] = true
	}

	w := &Watcher{
		fsw:         fsw,
		roots:       append([]string(nil), roots...),
		skip:        skip,
		ignore:      ignore,
		interval:    interval,
		batches:     make(chan Batch, 16),
		rescans:     make(chan string, len(roots)+1),
		errs:        make(chan error, 8),
		done:        make(chan struct{}),
		pendingAdd:  make(map[string]map[string]struct{}),
		pendingRm:   make(map[string]map[string]struct{}),
		watchedDirs: make(map[string]bool),
	}

	for _, root := range roots {
		if err := w.addRecursive(root, nil); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", root, err)
		}
	}

	go w.loop()
	return w, nil
}

// Batches delivers coalesced change batches.
func (w *Watcher) Batches() <-chan Batch { return w.batches }

// Rescans delivers roots whose cache needs a full rescan.
func (w *Watcher) Rescans() <-chan string { return w.rescans }

// Errors delivers non-fatal watcher errors.
func (w *Watcher) Errors() <-chan error { return w.errs }

// Close stops the watcher. Pending changes are still delivered: callers
// must drain Batches until it closes to receive the final flush.
func (w *Watcher) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.mu.Unlock()

	close(w.done)
	return w.fsw.Close()
}

// addRecursive registers dir and its subtree with the watcher. When
// collect is non-nil, file paths found along the way are appended to it,
// so a freshly created directory contributes its contents to the pending
// additions.
func (w *Watcher) addRecursive(dir string, collect *[]string) error {
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			if os.IsNotExist(err) || os.IsPermission(err) {
				return nil
			}
			return err
		}
		if info.IsDir() {
			if w.skip[filepath.Base(path)] && path != dir {
				return filepath.SkipDir
			}
			if err := w.fsw.Add(path); err != nil {
				if os.IsPermission(err) {
					return nil
				}
				return err
			}
			w.mu.Lock()
			w.watchedDirs[path] = true
			w.mu.Unlock()
			return nil
		}
		if collect != nil && !w.ignore.Match(path) {
			*collect = append(*collect, path)
		}
		return nil
	})
}

// rootFor returns the configured root containing path, or "".
func (w *Watcher) rootFor(path string) string {
	best := ""
	for _, root := range w.roots {
		if path == root || strings.HasPrefix(path, root+string(filepath.Separator)) {
			if len(root) > len(best) {
				best = root
			}
		}
	}
	return best
}

func (w *Watcher) loop() {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.done:
			w.flush(true)
			close(w.batches)
			return
		case <-ticker.C:
			w.flush(false)
		case event, ok := <-w.fsw.Events:
			if !ok {
				w.flush(true)
				close(w.batches)
				return
			}
			w.handleEvent(event)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				continue
			}
			if errors.Is(err, fsnotify.ErrEventOverflow) {
				// Events were dropped; only a rescan restores accuracy.
				for _, root := range w.roots {
					w.requestRescan(root)
				}
				continue
			}
			select {
			case w.errs <- err:
			default:
			}
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event) {
	root := w.rootFor(event.Name)
	if root == "" {
		return
	}

	switch {
	case event.Has(fsnotify.Create):
		w.handleCreate(root, event.Name)
	case event.Has(fsnotify.Remove) || event.Has(fsnotify.Rename):
		w.handleRemove(root, event.Name)
	}
	// Write and Chmod do not change the path list.
}

func (w *Watcher) handleCreate(root, path string) {
	info, err := os.Lstat(path)
	if err != nil {
		// Already gone again; a matching Remove event follows.
		return
	}

	if info.IsDir() {
		if w.skip[filepath.Base(path)] {
			return
		}
		var found []string
		if err := w.addRecursive(path, &found); err != nil {
			w.requestRescan(root)
			return
		}
		w.addPending(w.pendingAdd, w.pendingRm, root, found...)
		return
	}

	if w.ignore.Match(path) {
		return
	}
	w.addPending(w.pendingAdd, w.pendingRm, root, path)
}

func (w *Watcher) handleRemove(root, path string) {
	w.mu.Lock()
	wasDir := w.watchedDirs[path]
	if wasDir {
		delete(w.watchedDirs, path)
	}
	w.mu.Unlock()

	if wasDir {
		// The directory's contents are unknown now; rebuild the root.
		w.requestRescan(root)
		return
	}
	w.addPending(w.pendingRm, w.pendingAdd, root, path)
}

// addPending records paths in dst and drops them from opposite, so a
// create+remove pair within one flush interval cancels out.
func (w *Watcher) addPending(dst, opposite map[string]map[string]struct{}, root string, paths ...string) {
	w.mu.Lock()
	defer w.mu.Unlock()

	set := dst[root]
	if set == nil {
		set = make(map[string]struct{})
		dst[root] = set
	}
	for _, p := range paths {
		set[p] = struct{}{}
		if opp := opposite[root]; opp != nil {
			delete(opp, p)
		}
	}
}

func (w *Watcher) requestRescan(root string) {
	w.mu.Lock()
	delete(w.pendingAdd, root)
	delete(w.pendingRm, root)
	w.mu.Unlock()

	select {
	case w.rescans <- root:
	default:
		// A rescan for this watcher is already queued; dropping the
		// duplicate is safe because rescans rebuild the whole root.
	}
}

// flush emits one batch per root with pending changes. The final flush
// sends unconditionally so changes still pending at Close reach the
// draining caller; a periodic flush interrupted by Close puts its
// undelivered batches back so the final flush re-emits them.
func (w *Watcher) flush(final bool) {
	w.mu.Lock()
	add := w.pendingAdd
	rm := w.pendingRm
	w.pendingAdd = make(map[string]map[string]struct{})
	w.pendingRm = make(map[string]map[string]struct{})
	w.mu.Unlock()

	roots := make(map[string]bool)
	for root := range add {
		roots[root] = true
	}
	for root := range rm {
		roots[root] = true
	}

	for root := range roots {
		batch := Batch{Root: root}
		for p := range add[root] {
			batch.Added = append(batch.Added, p)
		}
		for p := range rm[root] {
			batch.Removed = append(batch.Removed, p)
		}
		if len(batch.Added) == 0 && len(batch.Removed) == 0 {
			continue
		}
		if final {
			w.batches <- batch
			continue
		}
		select {
		case w.batches <- batch:
		case <-w.done:
			w.addPending(w.pendingAdd, w.pendingRm, root, batch.Added...)
			w.addPending(w.pendingRm, w.pendingAdd, root, batch.Removed...)
		}
	}
}
