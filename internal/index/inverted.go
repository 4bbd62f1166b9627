// Package index implements the in-memory inverted index, its on-disk
// snapshot format, and the builder that keeps it in sync with a knowledge
// base on disk.
//
// Readers never see a partially updated index: the builder mutates a private
// clone and publishes it through a Holder swap only after the snapshot and
// document store have both committed.
package index

import (
	"fmt"
	"sort"
	"sync/atomic"

	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
)

// Posting records one document's term frequency for a term.
type Posting struct {
	DocID    string
	TermFreq int
}

// Stats summarizes index-wide aggregates used by BM25.
type Stats struct {
	DocCount     int     `json:"doc_count"`
	TermCount    int     `json:"term_count"`
	TotalLength  int64   `json:"total_length"`
	AvgDocLength float64 `json:"avg_doc_length"`
}

// Index is an in-memory inverted index. It is not safe for concurrent
// mutation; the builder owns writes and publishes read-only copies via
// Holder.
type Index struct {
	// postings maps term to its posting list, sorted by DocID.
	postings map[string][]Posting

	// docTerms maps document id to the distinct terms it contains, so
	// removal touches only that document's posting lists.
	docTerms map[string][]string

	// docLen maps document id to its token count.
	docLen map[string]int

	totalLen int64
}

// New creates an empty index.
func New() *Index {
	return &Index{
		postings: make(map[string][]Posting),
		docTerms: make(map[string][]string),
		docLen:   make(map[string]int),
	}
}

// Add indexes a document's tokens. The document must not already be present;
// use Update for re-adds.
func (ix *Index) Add(docID string, tokens []string) error {
	if _, exists := ix.docLen[docID]; exists {
		return wserrors.IndexCorruption(fmt.Sprintf("document %s added twice", docID))
	}

	freqs := make(map[string]int, len(tokens))
	for _, t := range tokens {
		freqs[t]++
	}

	terms := make([]string, 0, len(freqs))
	for term, tf := range freqs {
		terms = append(terms, term)
		ix.insertPosting(term, Posting{DocID: docID, TermFreq: tf})
	}
	sort.Strings(terms)

	ix.docTerms[docID] = terms
	ix.docLen[docID] = len(tokens)
	ix.totalLen += int64(len(tokens))
	return nil
}

// Remove deletes a document from every posting list it appears in.
// Removing an unknown document is a no-op.
func (ix *Index) Remove(docID string) error {
	length, ok := ix.docLen[docID]
	if !ok {
		return nil
	}

	for _, term := range ix.docTerms[docID] {
		plist, ok := ix.postings[term]
		if !ok {
			return wserrors.IndexCorruption(
				fmt.Sprintf("posting list for term %q missing while removing document %s", term, docID))
		}
		i := findPosting(plist, docID)
		if i < 0 {
			return wserrors.IndexCorruption(
				fmt.Sprintf("document %s missing from posting list for term %q", docID, term))
		}
		plist = append(plist[:i], plist[i+1:]...)
		if len(plist) == 0 {
			// Prune empty lists so document frequency stays exact.
			delete(ix.postings, term)
		} else {
			ix.postings[term] = plist
		}
	}

	delete(ix.docTerms, docID)
	delete(ix.docLen, docID)
	ix.totalLen -= int64(length)
	if ix.totalLen < 0 {
		return wserrors.IndexCorruption("total token count went negative")
	}
	return nil
}

// Update replaces a document's postings with those for the new tokens.
func (ix *Index) Update(docID string, tokens []string) error {
	if err := ix.Remove(docID); err != nil {
		return err
	}
	return ix.Add(docID, tokens)
}

// PostingsFor returns the posting list for term, sorted by document id.
// The returned slice is shared with the index and must not be modified.
func (ix *Index) PostingsFor(term string) []Posting {
	return ix.postings[term]
}

// DocFreq returns the number of documents containing term.
func (ix *Index) DocFreq(term string) int {
	return len(ix.postings[term])
}

// DocLength returns the token count of a document, or 0 if unknown.
func (ix *Index) DocLength(docID string) int {
	return ix.docLen[docID]
}

// Contains reports whether the document is indexed.
func (ix *Index) Contains(docID string) bool {
	_, ok := ix.docLen[docID]
	return ok
}

// DocIDs returns all indexed document ids, sorted.
func (ix *Index) DocIDs() []string {
	ids := make([]string, 0, len(ix.docLen))
	for id := range ix.docLen {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Stats returns index-wide aggregates. The running total is cross-checked
// against the per-document lengths; on drift the recomputed value wins, so a
// stale running sum never skews BM25 length normalization. The receiver is
// not mutated, keeping Stats safe on shared snapshots.
func (ix *Index) Stats() Stats {
	var sum int64
	for _, l := range ix.docLen {
		sum += int64(l)
	}

	s := Stats{
		DocCount:    len(ix.docLen),
		TermCount:   len(ix.postings),
		TotalLength: ix.totalLen,
	}
	if sum != ix.totalLen {
		s.TotalLength = sum
	}
	if s.DocCount > 0 {
		s.AvgDocLength = float64(s.TotalLength) / float64(s.DocCount)
	}
	return s
}

// Clone returns a deep copy the builder can mutate while readers keep using
// the original.
func (ix *Index) Clone() *Index {
	cp := &Index{
		postings: make(map[string][]Posting, len(ix.postings)),
		docTerms: make(map[string][]string, len(ix.docTerms)),
		docLen:   make(map[string]int, len(ix.docLen)),
		totalLen: ix.totalLen,
	}
	for term, plist := range ix.postings {
		cp.postings[term] = append([]Posting(nil), plist...)
	}
	for id, terms := range ix.docTerms {
		cp.docTerms[id] = append([]string(nil), terms...)
	}
	for id, l := range ix.docLen {
		cp.docLen[id] = l
	}
	return cp
}

// insertPosting inserts p into term's list keeping DocID order.
func (ix *Index) insertPosting(term string, p Posting) {
	plist := ix.postings[term]
	i := sort.Search(len(plist), func(i int) bool { return plist[i].DocID >= p.DocID })
	plist = append(plist, Posting{})
	copy(plist[i+1:], plist[i:])
	plist[i] = p
	ix.postings[term] = plist
}

// findPosting returns the position of docID in a sorted posting list, or -1.
func findPosting(plist []Posting, docID string) int {
	i := sort.Search(len(plist), func(i int) bool { return plist[i].DocID >= docID })
	if i < len(plist) && plist[i].DocID == docID {
		return i
	}
	return -1
}

// Holder publishes index snapshots to readers. Load is wait-free; Store
// makes the new snapshot visible atomically.
type Holder struct {
	current atomic.Pointer[Index]
}

// NewHolder creates a holder seeded with ix.
func NewHolder(ix *Index) *Holder {
	h := &Holder{}
	h.current.Store(ix)
	return h
}

// Load returns the current published index.
func (h *Holder) Load() *Index {
	return h.current.Load()
}

// Store publishes a new index snapshot.
func (h *Holder) Store(ix *Index) {
	h.current.Store(ix)
}
