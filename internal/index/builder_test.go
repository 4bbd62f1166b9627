package index

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gofrs/flock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heibaibufen/winwin-search/internal/docstore"
	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
	"github.com/heibaibufen/winwin-search/internal/extract"
	"github.com/heibaibufen/winwin-search/internal/tokenizer"
)

type builderFixture struct {
	root    string
	dataDir string
	store   *docstore.Store
	holder  *Holder
	builder *Builder
}

func newBuilderFixture(t *testing.T) *builderFixture {
	t.Helper()
	base := t.TempDir()
	root := filepath.Join(base, "kb-root")
	dataDir := filepath.Join(base, "data")
	require.NoError(t, os.MkdirAll(root, 0o755))
	require.NoError(t, os.MkdirAll(dataDir, 0o755))

	store, err := docstore.Open(filepath.Join(dataDir, "documents.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	tok, err := tokenizer.New()
	require.NoError(t, err)

	holder := NewHolder(New())
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	b := NewBuilder(BuilderConfig{
		KBID:     "test",
		RootPath: root,
		DataDir:  dataDir,
		Workers:  2,
	}, store, holder, tok, extract.NewPlainText(1), logger)

	return &builderFixture{root: root, dataDir: dataDir, store: store, holder: holder, builder: b}
}

func (f *builderFixture) write(t *testing.T, rel, content string) {
	t.Helper()
	path := filepath.Join(f.root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestBuilder_FullReindex(t *testing.T) {
	f := newBuilderFixture(t)
	f.write(t, "a.txt", "the quick brown fox")
	f.write(t, "sub/b.txt", "the lazy dog")

	summary, err := f.builder.Reindex(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Added)
	assert.Zero(t, summary.Updated)
	assert.Zero(t, summary.Removed)
	assert.Empty(t, summary.Failed)

	ix := f.holder.Load()
	assert.Equal(t, 2, ix.Stats().DocCount)
	assert.Equal(t, 1, ix.DocFreq("fox"))
	assert.Equal(t, 1, ix.DocFreq("dog"))
	// Stopwords never reach the index.
	assert.Zero(t, ix.DocFreq("the"))

	n, err := f.store.Count(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	_, err = os.Stat(f.builder.SnapshotPath())
	assert.NoError(t, err)
}

func TestBuilder_FullReindexDropsStaleDocuments(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()

	f.write(t, "keep.txt", "durable content")
	f.write(t, "stale.txt", "about to vanish")
	_, err := f.builder.Reindex(ctx, true)
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(f.root, "stale.txt")))

	_, err = f.builder.Reindex(ctx, true)
	require.NoError(t, err)

	// The store holds exactly the surviving file; the stale row is gone.
	n, err := f.store.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	_, ok, err := f.store.Get(ctx, docstore.DocumentID("stale.txt"))
	require.NoError(t, err)
	assert.False(t, ok)

	ix := f.holder.Load()
	assert.Equal(t, 1, ix.Stats().DocCount)
	assert.Zero(t, ix.DocFreq("vanish"))
}

func TestBuilder_IncrementalAddChangeRemove(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()

	f.write(t, "keep.txt", "unchanged content stays put")
	f.write(t, "edit.txt", "original wording here")
	f.write(t, "gone.txt", "soon deleted")
	_, err := f.builder.Reindex(ctx, true)
	require.NoError(t, err)

	f.write(t, "new.txt", "brand new document appears")
	f.write(t, "edit.txt", "rewritten wording replaces everything entirely")
	require.NoError(t, os.Remove(filepath.Join(f.root, "gone.txt")))

	summary, err := f.builder.Reindex(ctx, false)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Added)
	assert.Equal(t, 1, summary.Updated)
	assert.Equal(t, 1, summary.Removed)

	ix := f.holder.Load()
	assert.Equal(t, 3, ix.Stats().DocCount)
	assert.Zero(t, ix.DocFreq("deleted"))
	assert.Equal(t, 1, ix.DocFreq("rewritten"))
	assert.Zero(t, ix.DocFreq("original"), "old postings for the edited file are gone")
}

func TestBuilder_TouchedButIdenticalIsSkipped(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()

	f.write(t, "a.txt", "stable content")
	_, err := f.builder.Reindex(ctx, true)
	require.NoError(t, err)

	// New mtime, same bytes. The scan flags it; hashing proves it identical.
	future := time.Now().Add(5 * time.Second)
	require.NoError(t, os.Chtimes(filepath.Join(f.root, "a.txt"), future, future))

	summary, err := f.builder.Reindex(ctx, false)
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Zero(t, summary.Added)
	assert.Zero(t, summary.Updated)

	// Metadata was refreshed, so the next pass sees nothing at all.
	summary, err = f.builder.Reindex(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, summary.Skipped)
}

func TestBuilder_IncrementalIsIdempotent(t *testing.T) {
	f := newBuilderFixture(t)
	ctx := context.Background()

	f.write(t, "a.txt", "some indexable words")
	_, err := f.builder.Reindex(ctx, true)
	require.NoError(t, err)
	statsBefore := f.holder.Load().Stats()

	summary, err := f.builder.Reindex(ctx, false)
	require.NoError(t, err)
	assert.Zero(t, summary.Added+summary.Updated+summary.Removed+summary.Skipped)
	assert.Equal(t, statsBefore, f.holder.Load().Stats())
}

func TestBuilder_PartialFailureIndexesTheRest(t *testing.T) {
	f := newBuilderFixture(t)
	f.write(t, "good.txt", "readable text")
	require.NoError(t, os.WriteFile(
		filepath.Join(f.root, "bad.bin"), []byte{0x7f, 0x45, 0x4c, 0x46, 0x00, 0x01}, 0o644))

	summary, err := f.builder.Reindex(context.Background(), true)
	require.NoError(t, err)

	assert.Equal(t, 1, summary.Added)
	require.Len(t, summary.Failed, 1)
	assert.Equal(t, "bad.bin", summary.Failed[0].Path)
	assert.True(t, f.holder.Load().Contains(docstore.DocumentID("good.txt")))
}

func TestBuilder_ConcurrentPassFailsFast(t *testing.T) {
	f := newBuilderFixture(t)
	f.write(t, "a.txt", "content")

	// Simulate another process holding the knowledge-base lock.
	other := flock.New(filepath.Join(f.dataDir, "index.lock"))
	locked, err := other.TryLock()
	require.NoError(t, err)
	require.True(t, locked)
	defer func() { _ = other.Unlock() }()

	_, err = f.builder.Reindex(context.Background(), false)
	require.Error(t, err)
	assert.True(t, wserrors.HasCode(err, wserrors.ErrCodeIndexBusy))
	assert.True(t, wserrors.IsRetryable(err))
}

func TestBuilder_CancelledContextAborts(t *testing.T) {
	f := newBuilderFixture(t)
	f.write(t, "a.txt", "content")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := f.builder.Reindex(ctx, true)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, f.holder.Load().Stats().DocCount, "nothing published on abort")
}

func TestBuilder_SnapshotReloadMatchesPublished(t *testing.T) {
	f := newBuilderFixture(t)
	f.write(t, "a.txt", "persisted across restarts")

	_, err := f.builder.Reindex(context.Background(), true)
	require.NoError(t, err)

	loaded, err := LoadSnapshot(f.builder.SnapshotPath())
	require.NoError(t, err)
	assert.Equal(t, f.holder.Load().Stats(), loaded.Stats())

	report, err := CheckConsistency(context.Background(), f.store, loaded)
	require.NoError(t, err)
	assert.True(t, report.Consistent())
}
