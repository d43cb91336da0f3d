// Package filelock provides file locking and atomic publish operations so
// cache rebuilds stay safe across concurrent finddoc processes.
package filelock

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// FileLock wraps a flock lock for coordinating access to a cache entry.
type FileLock struct {
	flock *flock.Flock
	path  string
}

// New creates a lock backed by the lock file at path.
func New(path string) *FileLock {
	return &FileLock{
		flock: flock.New(path),
		path:  path,
	}
}

// Lock acquires the lock, blocking until it is available.
func (fl *FileLock) Lock() error {
	if err := fl.flock.Lock(); err != nil {
		return fmt.Errorf("acquire lock on %s: %w", fl.path, err)
	}
	return nil
}

// TryLock attempts to acquire the lock without blocking. Returns false when
// another process holds it.
func (fl *FileLock) TryLock() (bool, error) {
	acquired, err := fl.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("try lock on %s: %w", fl.path, err)
	}
	return acquired, nil
}

// Unlock releases the lock.
func (fl *FileLock) Unlock() error {
	if err := fl.flock.Unlock(); err != nil {
		return fmt.Errorf("release lock on %s: %w", fl.path, err)
	}
	return nil
}

// Writer stages content in a part file next to the target and publishes it
// with a rename, so readers only ever see complete files. A Writer that is
// never committed leaves the target untouched; call Discard to clean up.
type Writer struct {
	file   *os.File
	target string
	part   string
	done   bool
}

// NewWriter creates the part file for target, creating parent directories
// as needed. Rename is only atomic within a filesystem, so the part file
// lives in the target's directory.
func NewWriter(target string) (*Writer, error) {
	dir := filepath.Dir(target)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create directory %s: %w", dir, err)
	}

	part := target + ".part"
	file, err := os.OpenFile(part, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return nil, fmt.Errorf("create part file: %w", err)
	}

	return &Writer{file: file, target: target, part: part}, nil
}

// Write appends to the staged content.
func (w *Writer) Write(p []byte) (int, error) {
	return w.file.Write(p)
}

// Commit syncs the staged content and renames it over the target.
func (w *Writer) Commit() error {
	if w.done {
		return fmt.Errorf("writer for %s already finished", w.target)
	}
	w.done = true

	if err := w.file.Sync(); err != nil {
		w.file.Close()
		os.Remove(w.part)
		return fmt.Errorf("sync part file: %w", err)
	}
	if err := w.file.Close(); err != nil {
		os.Remove(w.part)
		return fmt.Errorf("close part file: %w", err)
	}
	if err := os.Rename(w.part, w.target); err != nil {
		os.Remove(w.part)
		return fmt.Errorf("publish %s: %w", w.target, err)
	}
	return nil
}

// Discard abandons the staged content, removing the part file.
func (w *Writer) Discard() {
	if w.done {
		return
	}
	w.done = true
	w.file.Close()
	os.Remove(w.part)
}

// AtomicWrite writes data to path using the part-and-rename protocol.
func AtomicWrite(path string, data []byte) error {
	w, err := NewWriter(path)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		w.Discard()
		return fmt.Errorf("write part file: %w", err)
	}
	return w.Commit()
}
