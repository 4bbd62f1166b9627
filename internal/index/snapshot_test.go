package index

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
)

func TestSnapshot_RoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")

	ix := New()
	require.NoError(t, ix.Add("doc1", []string{"fox", "fox", "jumps"}))
	require.NoError(t, ix.Add("doc2", []string{"dog"}))
	require.NoError(t, SaveSnapshot(path, ix))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)

	assert.Equal(t, ix.Stats(), loaded.Stats())
	assert.Equal(t, ix.PostingsFor("fox"), loaded.PostingsFor("fox"))
	assert.Equal(t, 3, loaded.DocLength("doc1"))

	// Derived state is rebuilt, so removal works on the loaded copy.
	require.NoError(t, loaded.Remove("doc1"))
	assert.Zero(t, loaded.DocFreq("fox"))
}

func TestSnapshot_MissingFileYieldsEmptyIndex(t *testing.T) {
	ix, err := LoadSnapshot(filepath.Join(t.TempDir(), "nope.gob"))
	require.NoError(t, err)
	assert.Zero(t, ix.Stats().DocCount)
}

func TestSnapshot_CorruptFileIsFatal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")
	require.NoError(t, os.WriteFile(path, []byte("not a gob stream"), 0o644))

	_, err := LoadSnapshot(path)
	require.Error(t, err)
	assert.True(t, wserrors.HasCode(err, wserrors.ErrCodeCorruptIndex))
	assert.True(t, wserrors.IsFatal(err))
}

func TestSnapshot_OverwriteReplacesPrevious(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index.gob")

	first := New()
	require.NoError(t, first.Add("doc1", []string{"one"}))
	require.NoError(t, SaveSnapshot(path, first))

	second := New()
	require.NoError(t, second.Add("doc2", []string{"two"}))
	require.NoError(t, SaveSnapshot(path, second))

	loaded, err := LoadSnapshot(path)
	require.NoError(t, err)
	assert.False(t, loaded.Contains("doc1"))
	assert.True(t, loaded.Contains("doc2"))
}
