// Package cache maintains the per-root path lists that make searches
// instantaneous. Each configured root owns one list file in the cache
// directory, named by the hex sha256 of the root path so renaming or
// reordering roots in the config never orphans another root's cache.
//
// List format: each record is a file path terminated by a NUL byte, the
// exact framing fzf consumes with --read0. Lists are rebuilt into a part
// file and published with an atomic rename, and rebuilds of the same root
// are serialized with a flock lock file, so concurrent finddoc processes
// always read complete lists.
package cache

import (
	"bufio"
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/harrison/finddoc/internal/filelock"
)

// recordSep terminates each path record, matching fzf --read0.
const recordSep = 0x00

// ErrNoCache indicates a root has no published list yet. Callers fall back
// to a full scan.
var ErrNoCache = errors.New("no cached list for root")

// Dir is a cache directory holding one list file per root.
type Dir struct {
	path string
}

// New returns a Dir rooted at path. The directory is created lazily on the
// first write.
func New(path string) *Dir {
	return &Dir{path: path}
}

// Path returns the cache directory path.
func (d *Dir) Path() string {
	return d.path
}

// listName returns the file name for a root's list.
func listName(root string) string {
	sum := sha256.Sum256([]byte(root))
	return hex.EncodeToString(sum[:])
}

// ListPath returns the absolute path of the list file for root.
func (d *Dir) ListPath(root string) string {
	return filepath.Join(d.path, listName(root))
}

// HistoryPath returns the picker history file path shared by all roots.
func (d *Dir) HistoryPath() string {
	return filepath.Join(d.path, "history")
}

// Info describes a published list.
type Info struct {
	// Count is the number of records in the list.
	Count int
	// ModTime is when the list was last published.
	ModTime time.Time
}

// Stat returns information about root's published list, or ErrNoCache.
// Count requires reading the list, so Stat is O(list size).
func (d *Dir) Stat(root string) (Info, error) {
	path := d.ListPath(root)
	fi, err := os.Stat(path)
	if os.IsNotExist(err) {
		return Info{}, ErrNoCache
	}
	if err != nil {
		return Info{}, fmt.Errorf("stat list for %s: %w", root, err)
	}

	count, err := countRecords(path)
	if err != nil {
		return Info{}, err
	}
	return Info{Count: count, ModTime: fi.ModTime()}, nil
}

func countRecords(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("open list: %w", err)
	}
	defer f.Close()

	count := 0
	reader := bufio.NewReaderSize(f, 1<<16)
	buf := make([]byte, 1<<16)
	for {
		n, err := reader.Read(buf)
		count += bytes.Count(buf[:n], []byte{recordSep})
		if err == io.EOF {
			return count, nil
		}
		if err != nil {
			return 0, fmt.Errorf("read list: %w", err)
		}
	}
}

// CopyTo streams root's published list into w without materializing it.
// Returns ErrNoCache when the root has never been scanned.
func (d *Dir) CopyTo(w io.Writer, root string) error {
	f, err := os.Open(d.ListPath(root))
	if os.IsNotExist(err) {
		return ErrNoCache
	}
	if err != nil {
		return fmt.Errorf("open list for %s: %w", root, err)
	}
	defer f.Close()

	if _, err := io.Copy(w, f); err != nil {
		return fmt.Errorf("stream list for %s: %w", root, err)
	}
	return nil
}

// WriteRecords encodes paths as NUL-terminated records into w.
func WriteRecords(w io.Writer, paths []string) error {
	for _, p := range paths {
		if _, err := w.Write([]byte(p)); err != nil {
			return err
		}
		if _, err := w.Write([]byte{recordSep}); err != nil {
			return err
		}
	}
	return nil
}

// ListWriter accumulates records for one root's rebuild. It holds the
// root's lock from creation until Commit or Discard.
type ListWriter struct {
	lock  *filelock.FileLock
	part  *filelock.Writer
	buf   *bufio.Writer
	count int
}

// NewListWriter locks root's cache entry and opens its part file. Blocks
// while another process is rebuilding the same root.
func (d *Dir) NewListWriter(root string) (*ListWriter, error) {
	if err := os.MkdirAll(d.path, 0o755); err != nil {
		return nil, fmt.Errorf("create cache directory: %w", err)
	}

	lock := filelock.New(d.ListPath(root) + ".lock")
	if err := lock.Lock(); err != nil {
		return nil, err
	}

	part, err := filelock.NewWriter(d.ListPath(root))
	if err != nil {
		lock.Unlock()
		return nil, err
	}

	return &ListWriter{
		lock: lock,
		part: part,
		buf:  bufio.NewWriterSize(part, 1<<16),
	}, nil
}

// WritePaths appends a batch of records.
func (lw *ListWriter) WritePaths(paths []string) error {
	lw.count += len(paths)
	return WriteRecords(lw.buf, paths)
}

// Count returns the number of records written so far.
func (lw *ListWriter) Count() int {
	return lw.count
}

// Commit publishes the list and releases the lock.
func (lw *ListWriter) Commit() error {
	if err := lw.buf.Flush(); err != nil {
		lw.part.Discard()
		lw.lock.Unlock()
		return fmt.Errorf("flush list: %w", err)
	}
	err := lw.part.Commit()
	if unlockErr := lw.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}

// Discard abandons the rebuild, leaving any previous list intact.
func (lw *ListWriter) Discard() {
	lw.part.Discard()
	lw.lock.Unlock()
}

// Load reads root's list into memory. Intended for merges and tooling, not
// for the picker feed.
func (d *Dir) Load(root string) ([]string, error) {
	f, err := os.Open(d.ListPath(root))
	if os.IsNotExist(err) {
		return nil, ErrNoCache
	}
	if err != nil {
		return nil, fmt.Errorf("open list for %s: %w", root, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("read list for %s: %w", root, err)
	}

	var paths []string
	for len(data) > 0 {
		i := bytes.IndexByte(data, recordSep)
		if i < 0 {
			// Trailing bytes without a terminator: a truncated record
			// from a crashed writer predating the part protocol. Drop it.
			break
		}
		paths = append(paths, string(data[:i]))
		data = data[i+1:]
	}
	return paths, nil
}

// Merge applies added and removed paths to root's published list without a
// rescan. Records are deduplicated and the result is published atomically
// under the root's lock. Returns the new record count, or ErrNoCache when
// the root has no list to merge into (caller should rescan instead).
func (d *Dir) Merge(root string, added, removed []string) (int, error) {
	lock := filelock.New(d.ListPath(root) + ".lock")
	if err := lock.Lock(); err != nil {
		return 0, err
	}
	defer lock.Unlock()

	paths, err := d.Load(root)
	if err != nil {
		return 0, err
	}

	set := make(map[string]struct{}, len(paths)+len(added))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	for _, p := range removed {
		delete(set, p)
	}
	for _, p := range added {
		set[p] = struct{}{}
	}

	merged := make([]string, 0, len(set))
	for p := range set {
		merged = append(merged, p)
	}
	// Deterministic output keeps repeated merges byte-identical.
	sort.Strings(merged)

	part, err := filelock.NewWriter(d.ListPath(root))
	if err != nil {
		return 0, err
	}
	buf := bufio.NewWriterSize(part, 1<<16)
	if err := WriteRecords(buf, merged); err != nil {
		part.Discard()
		return 0, fmt.Errorf("write merged list: %w", err)
	}
	if err := buf.Flush(); err != nil {
		part.Discard()
		return 0, fmt.Errorf("flush merged list: %w", err)
	}
	if err := part.Commit(); err != nil {
		return 0, err
	}
	return len(merged), nil
}

// Purge removes list files whose root is no longer in keepRoots, plus any
// leftover part and lock files for them. Returns the number of lists
// removed.
func (d *Dir) Purge(keepRoots []string) (int, error) {
	keep := make(map[string]bool, len(keepRoots))
	for _, root := range keepRoots {
		keep[listName(root)] = true
	}

	entries, err := os.ReadDir(d.path)
	if os.IsNotExist(err) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("read cache directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		base := name
		for _, suffix := range []string{".part", ".lock"} {
			if cut, ok := cutSuffix(name, suffix); ok {
				base = cut
			}
		}
		if !isListName(base) || keep[base] {
			continue
		}
		if err := os.Remove(filepath.Join(d.path, name)); err != nil {
			return removed, fmt.Errorf("remove stale cache entry %s: %w", name, err)
		}
		if base == name {
			removed++
		}
	}
	return removed, nil
}

func cutSuffix(s, suffix string) (string, bool) {
	if len(s) > len(suffix) && s[len(s)-len(suffix):] == suffix {
		return s[:len(s)-len(suffix)], true
	}
	return s, false
}

// isListName reports whether name looks like a sha256 hex digest.
func isListName(name string) bool {
	if len(name) != sha256.Size*2 {
		return false
	}
	_, err := hex.DecodeString(name)
	return err == nil
}
