package cache

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func publish(t *testing.T, d *Dir, root string, paths []string) {
	t.Helper()
	lw, err := d.NewListWriter(root)
	require.NoError(t, err)
	require.NoError(t, lw.WritePaths(paths))
	require.NoError(t, lw.Commit())
}

func TestListWriterRoundTrip(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "cache"))
	root := "/data/docs"

	publish(t, d, root, []string{"/data/docs/a.txt", "/data/docs/b.txt"})

	paths, err := d.Load(root)
	require.NoError(t, err)
	require.Equal(t, []string{"/data/docs/a.txt", "/data/docs/b.txt"}, paths)

	info, err := d.Stat(root)
	require.NoError(t, err)
	require.Equal(t, 2, info.Count)
}

func TestCopyToStreamsRecords(t *testing.T) {
	d := New(t.TempDir())
	root := "/data/docs"
	publish(t, d, root, []string{"a", "b"})

	var buf bytes.Buffer
	require.NoError(t, d.CopyTo(&buf, root))
	require.Equal(t, []byte("a\x00b\x00"), buf.Bytes())
}

func TestCopyToMissing(t *testing.T) {
	d := New(t.TempDir())
	err := d.CopyTo(&bytes.Buffer{}, "/never/scanned")
	require.ErrorIs(t, err, ErrNoCache)
}

func TestDiscardKeepsPreviousList(t *testing.T) {
	d := New(t.TempDir())
	root := "/data/docs"
	publish(t, d, root, []string{"old"})

	lw, err := d.NewListWriter(root)
	require.NoError(t, err)
	require.NoError(t, lw.WritePaths([]string{"new"}))
	lw.Discard()

	paths, err := d.Load(root)
	require.NoError(t, err)
	require.Equal(t, []string{"old"}, paths)
}

func TestMergeAddsAndRemoves(t *testing.T) {
	d := New(t.TempDir())
	root := "/data/docs"
	publish(t, d, root, []string{"/a", "/b", "/c"})

	count, err := d.Merge(root, []string{"/d", "/b"}, []string{"/a", "/missing"})
	require.NoError(t, err)
	require.Equal(t, 3, count)

	paths, err := d.Load(root)
	require.NoError(t, err)
	require.Equal(t, []string{"/b", "/c", "/d"}, paths)
}

func TestMergeMissingList(t *testing.T) {
	d := New(t.TempDir())
	_, err := d.Merge("/never/scanned", []string{"/a"}, nil)
	require.ErrorIs(t, err, ErrNoCache)
}

func TestMergeIsDeterministic(t *testing.T) {
	d := New(t.TempDir())
	root := "/data/docs"
	publish(t, d, root, []string{"/z", "/a"})

	_, err := d.Merge(root, nil, nil)
	require.NoError(t, err)
	first, err := os.ReadFile(d.ListPath(root))
	require.NoError(t, err)

	_, err = d.Merge(root, nil, nil)
	require.NoError(t, err)
	second, err := os.ReadFile(d.ListPath(root))
	require.NoError(t, err)

	require.Equal(t, first, second)
}

func TestLoadDropsTruncatedTail(t *testing.T) {
	d := New(t.TempDir())
	root := "/data/docs"
	require.NoError(t, os.MkdirAll(d.Path(), 0o755))
	require.NoError(t, os.WriteFile(d.ListPath(root), []byte("/a\x00/trunc"), 0o644))

	paths, err := d.Load(root)
	require.NoError(t, err)
	require.Equal(t, []string{"/a"}, paths)
}

func TestPurgeRemovesUnconfiguredRoots(t *testing.T) {
	d := New(t.TempDir())
	publish(t, d, "/keep", []string{"/keep/a"})
	publish(t, d, "/drop", []string{"/drop/b"})

	// Unrelated files in the cache dir must survive a purge.
	require.NoError(t, os.WriteFile(filepath.Join(d.Path(), "history"), []byte("query\n"), 0o644))

	removed, err := d.Purge([]string{"/keep"})
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, err = d.Stat("/keep")
	require.NoError(t, err)
	_, err = d.Stat("/drop")
	require.ErrorIs(t, err, ErrNoCache)
	_, err = os.Stat(filepath.Join(d.Path(), "history"))
	require.NoError(t, err)
}

func TestPurgeMissingDir(t *testing.T) {
	d := New(filepath.Join(t.TempDir(), "never-created"))
	removed, err := d.Purge(nil)
	require.NoError(t, err)
	require.Zero(t, removed)
}

func TestStatMissing(t *testing.T) {
	d := New(t.TempDir())
	_, err := d.Stat("/never/scanned")
	require.True(t, errors.Is(err, ErrNoCache))
}

func TestListPathStableAcrossDirs(t *testing.T) {
	a := New("/tmp/a")
	b := New("/tmp/b")
	require.Equal(t,
		filepath.Base(a.ListPath("/root")),
		filepath.Base(b.ListPath("/root")),
		"list name must depend only on the root path")
}
