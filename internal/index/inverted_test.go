package index

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
)

func TestIndex_AddAndPostings(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add("doc2", []string{"fox", "fox", "dog"}))
	require.NoError(t, ix.Add("doc1", []string{"fox", "cat"}))

	plist := ix.PostingsFor("fox")
	require.Len(t, plist, 2)
	// Posting lists stay sorted by document id regardless of add order.
	assert.Equal(t, "doc1", plist[0].DocID)
	assert.Equal(t, 1, plist[0].TermFreq)
	assert.Equal(t, "doc2", plist[1].DocID)
	assert.Equal(t, 2, plist[1].TermFreq)

	assert.Equal(t, 2, ix.DocFreq("fox"))
	assert.Equal(t, 1, ix.DocFreq("cat"))
	assert.Zero(t, ix.DocFreq("missing"))
	assert.Nil(t, ix.PostingsFor("missing"))
}

func TestIndex_AddTwiceIsCorruption(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add("doc1", []string{"fox"}))
	err := ix.Add("doc1", []string{"fox"})
	assert.True(t, wserrors.HasCode(err, wserrors.ErrCodeCorruptIndex))
}

func TestIndex_Remove(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add("doc1", []string{"fox", "cat"}))
	require.NoError(t, ix.Add("doc2", []string{"fox"}))

	require.NoError(t, ix.Remove("doc1"))

	// Term shared with doc2 survives; doc1-only term is pruned entirely.
	assert.Equal(t, 1, ix.DocFreq("fox"))
	assert.Zero(t, ix.DocFreq("cat"))
	assert.False(t, ix.Contains("doc1"))

	stats := ix.Stats()
	assert.Equal(t, 1, stats.DocCount)
	assert.Equal(t, int64(1), stats.TotalLength)

	// Removing an unknown document is a no-op.
	require.NoError(t, ix.Remove("ghost"))
}

func TestIndex_Update(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add("doc1", []string{"old", "words"}))
	require.NoError(t, ix.Update("doc1", []string{"new", "words", "words"}))

	assert.Zero(t, ix.DocFreq("old"))
	assert.Equal(t, 1, ix.DocFreq("new"))
	assert.Equal(t, 3, ix.DocLength("doc1"))

	p := ix.PostingsFor("words")
	require.Len(t, p, 1)
	assert.Equal(t, 2, p[0].TermFreq)

	// Update on an absent document behaves like Add.
	require.NoError(t, ix.Update("doc2", []string{"fresh"}))
	assert.True(t, ix.Contains("doc2"))
}

func TestIndex_Stats(t *testing.T) {
	ix := New()
	assert.Zero(t, ix.Stats().AvgDocLength)

	require.NoError(t, ix.Add("doc1", []string{"a", "b", "c", "d"}))
	require.NoError(t, ix.Add("doc2", []string{"a", "b"}))

	stats := ix.Stats()
	assert.Equal(t, 2, stats.DocCount)
	assert.Equal(t, 4, stats.TermCount)
	assert.Equal(t, int64(6), stats.TotalLength)
	assert.InDelta(t, 3.0, stats.AvgDocLength, 1e-9)
}

func TestIndex_StatsResyncsDriftedTotals(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add("doc1", []string{"a", "b"}))

	// Simulate a drifted running sum; the recomputed value must win.
	ix.totalLen = 99

	stats := ix.Stats()
	assert.Equal(t, int64(2), stats.TotalLength)
	assert.InDelta(t, 2.0, stats.AvgDocLength, 1e-9)
}

func TestIndex_CloneIsIndependent(t *testing.T) {
	ix := New()
	require.NoError(t, ix.Add("doc1", []string{"fox"}))

	cp := ix.Clone()
	require.NoError(t, cp.Update("doc1", []string{"wolf"}))
	require.NoError(t, cp.Add("doc2", []string{"fox"}))

	// Original is untouched by mutations of the clone.
	assert.Equal(t, 1, ix.DocFreq("fox"))
	assert.Zero(t, ix.DocFreq("wolf"))
	assert.False(t, ix.Contains("doc2"))
}

func TestHolder_PublishesAtomically(t *testing.T) {
	first := New()
	h := NewHolder(first)
	assert.Same(t, first, h.Load())

	second := New()
	require.NoError(t, second.Add("doc1", []string{"x"}))
	h.Store(second)
	assert.Same(t, second, h.Load())
}
