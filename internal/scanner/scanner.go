// Package scanner walks directory trees with a worker pool, streaming file
// paths to a callback. Workers share one queue of pending directories so
// wide trees keep every worker busy; network roots benefit the most since
// each ReadDir round-trip overlaps with others.
package scanner

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"sync"
	"sync/atomic"

	"github.com/harrison/finddoc/internal/pathutil"
)

// Options configures a scan.
type Options struct {
	// Workers is the directory-reader pool size. Defaults to NumCPU.
	Workers int
	// SkipDirs are directory basenames never descended into.
	SkipDirs []string
	// Ignore filters out matching file paths.
	Ignore *pathutil.IgnoreSet
}

// Stats summarizes a completed scan.
type Stats struct {
	// Files is the number of file paths emitted.
	Files int64
	// Dirs is the number of directories read.
	Dirs int64
	// Errors is the number of directories that could not be read.
	Errors int64
}

// dirQueue is a grow-only work queue. pending counts directories that are
// queued or currently being read; the scan is done when it reaches zero.
type dirQueue struct {
	mu      sync.Mutex
	cond    *sync.Cond
	items   []string
	pending int
}

func newDirQueue() *dirQueue {
	q := &dirQueue{}
	q.cond = sync.NewCond(&q.mu)
	return q
}

func (q *dirQueue) push(dir string) {
	q.mu.Lock()
	q.items = append(q.items, dir)
	q.pending++
	q.mu.Unlock()
	q.cond.Signal()
}

// pop blocks until a directory is available or all pending work is done.
// Returns false when the queue has drained.
func (q *dirQueue) pop() (string, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	for len(q.items) == 0 && q.pending > 0 {
		q.cond.Wait()
	}
	if len(q.items) == 0 {
		return "", false
	}
	dir := q.items[len(q.items)-1]
	q.items = q.items[:len(q.items)-1]
	return dir, true
}

// finish marks one directory as processed and wakes waiters when the scan
// has drained.
func (q *dirQueue) finish() {
	q.mu.Lock()
	q.pending--
	done := q.pending == 0
	q.mu.Unlock()
	if done {
		q.cond.Broadcast()
	}
}

// drain empties the queue so workers stop picking up new directories.
// Used on context cancellation.
func (q *dirQueue) drain() {
	q.mu.Lock()
	q.pending -= len(q.items)
	q.items = nil
	done := q.pending == 0
	q.mu.Unlock()
	if done {
		q.cond.Broadcast()
	}
}

// Scan walks root and calls emit with batches of file paths, one batch per
// directory. emit is never called concurrently. Unreadable directories are
// counted in Stats.Errors and skipped. Symlinked directories are not
// followed. Returns ctx.Err() if the scan was cancelled.
func Scan(ctx context.Context, root string, opts Options, emit func(paths []string)) (Stats, error) {
	workers := opts.Workers
	if workers <= 0 {
		workers = runtime.NumCPU()
	}

	skip := make(map[string]bool, len(opts.SkipDirs))
	for _, name := range opts.SkipDirs {
		skip[name] = true
	}

	var stats Stats
	var emitMu sync.Mutex
	queue := newDirQueue()
	queue.push(root)

	var wg sync.WaitGroup
	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				dir, ok := queue.pop()
				if !ok {
					return
				}
				if ctx.Err() != nil {
					queue.drain()
					queue.finish()
					return
				}
				scanDir(dir, skip, opts.Ignore, queue, &stats, &emitMu, emit)
				queue.finish()
			}
		}()
	}
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return stats, err
	}
	return stats, nil
}

func scanDir(dir string, skip map[string]bool, ignore *pathutil.IgnoreSet, queue *dirQueue, stats *Stats, emitMu *sync.Mutex, emit func(paths []string)) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		atomic.AddInt64(&stats.Errors, 1)
		return
	}
	atomic.AddInt64(&stats.Dirs, 1)

	var files []string
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() {
			if skip[name] {
				continue
			}
			queue.push(filepath.Join(dir, name))
			continue
		}
		// Symlinks (to files or directories) are listed as-is, never
		// resolved, so cycles cannot occur.
		path := filepath.Join(dir, name)
		if ignore.Match(path) {
			continue
		}
		files = append(files, path)
	}

	if len(files) == 0 {
		return
	}
	atomic.AddInt64(&stats.Files, int64(len(files)))
	emitMu.Lock()
	emit(files)
	emitMu.Unlock()
}
