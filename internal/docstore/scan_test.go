package docstore

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
)

func mkFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestScan_FreshRootIsAllAdded(t *testing.T) {
	root := t.TempDir()
	mkFile(t, root, "a.txt", "alpha")
	mkFile(t, root, "sub/b.txt", "beta")

	diff, err := Scan(context.Background(), root, nil, ScanOptions{})
	require.NoError(t, err)

	rels := make([]string, 0, len(diff.Added))
	for _, f := range diff.Added {
		rels = append(rels, f.RelPath)
	}
	assert.ElementsMatch(t, []string{"a.txt", "sub/b.txt"}, rels)
	assert.Empty(t, diff.Changed)
	assert.Empty(t, diff.Removed)
}

func TestScan_DetectsChangedAndRemoved(t *testing.T) {
	root := t.TempDir()
	aPath := mkFile(t, root, "a.txt", "alpha")
	mkFile(t, root, "b.txt", "beta")

	aInfo, err := os.Stat(aPath)
	require.NoError(t, err)
	bInfo, err := os.Stat(filepath.Join(root, "b.txt"))
	require.NoError(t, err)

	known := []Document{
		{ID: DocumentID("a.txt"), Path: "a.txt", Size: aInfo.Size(),
			ModifiedAt: time.Unix(aInfo.ModTime().Unix(), 0).UTC()},
		{ID: DocumentID("b.txt"), Path: "b.txt", Size: bInfo.Size(),
			ModifiedAt: time.Unix(bInfo.ModTime().Unix(), 0).UTC()},
		{ID: DocumentID("gone.txt"), Path: "gone.txt"},
	}

	// Grow a.txt so both size and mtime comparisons see a change.
	require.NoError(t, os.WriteFile(aPath, []byte("alpha grew longer"), 0o644))

	diff, err := Scan(context.Background(), root, known, ScanOptions{})
	require.NoError(t, err)

	require.Len(t, diff.Changed, 1)
	assert.Equal(t, "a.txt", diff.Changed[0].RelPath)
	assert.Empty(t, diff.Added)
	require.Len(t, diff.Removed, 1)
	assert.Equal(t, "gone.txt", diff.Removed[0].Path)
}

func TestScan_UnchangedFilesAreSkipped(t *testing.T) {
	root := t.TempDir()
	path := mkFile(t, root, "a.txt", "alpha")
	info, err := os.Stat(path)
	require.NoError(t, err)

	known := []Document{{
		ID: DocumentID("a.txt"), Path: "a.txt", Size: info.Size(),
		ModifiedAt: time.Unix(info.ModTime().Unix(), 0).UTC(),
	}}

	diff, err := Scan(context.Background(), root, known, ScanOptions{})
	require.NoError(t, err)
	assert.Empty(t, diff.Added)
	assert.Empty(t, diff.Changed)
	assert.Empty(t, diff.Removed)
}

func TestScan_Excludes(t *testing.T) {
	root := t.TempDir()
	mkFile(t, root, "keep.txt", "x")
	mkFile(t, root, ".git/config", "x")
	mkFile(t, root, "node_modules/pkg/index.js", "x")
	mkFile(t, root, "draft.tmp", "x")
	mkFile(t, root, "build/out.txt", "x")

	diff, err := Scan(context.Background(), root, nil, ScanOptions{
		ExcludePatterns: []string{"build"},
	})
	require.NoError(t, err)

	require.Len(t, diff.Added, 1)
	assert.Equal(t, "keep.txt", diff.Added[0].RelPath)
}

func TestScan_MissingRootFails(t *testing.T) {
	_, err := Scan(context.Background(), filepath.Join(t.TempDir(), "nope"), nil, ScanOptions{})
	assert.True(t, wserrors.HasCode(err, wserrors.ErrCodeIOFailure))
}
