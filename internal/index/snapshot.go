package index

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"os"
	"sort"

	"github.com/google/renameio"

	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
)

// snapshotVersion guards against loading snapshots written by an
// incompatible format. Bump on any change to snapshotFile.
const snapshotVersion = 1

// snapshotFile is the on-disk gob shape. Derived state (docTerms, totalLen)
// is rebuilt on load.
type snapshotFile struct {
	Version  int
	Postings map[string][]Posting
	DocLen   map[string]int
}

// SaveSnapshot writes the index to path atomically: the file is written to a
// temporary name and renamed into place, so a crash mid-write leaves the
// previous snapshot intact.
func SaveSnapshot(path string, ix *Index) error {
	var buf bytes.Buffer
	file := snapshotFile{
		Version:  snapshotVersion,
		Postings: ix.postings,
		DocLen:   ix.docLen,
	}
	if err := gob.NewEncoder(&buf).Encode(&file); err != nil {
		return wserrors.IOFailure(fmt.Sprintf("cannot encode index snapshot %s", path), err)
	}
	if err := renameio.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		return wserrors.IOFailure(fmt.Sprintf("cannot write index snapshot %s", path), err)
	}
	return nil
}

// LoadSnapshot reads a snapshot from path. A missing file yields an empty
// index; a file that cannot be decoded or fails internal checks reports
// index corruption.
func LoadSnapshot(path string) (*Index, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, wserrors.IOFailure(fmt.Sprintf("cannot read index snapshot %s", path), err)
	}

	var file snapshotFile
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&file); err != nil {
		return nil, wserrors.IndexCorruption(fmt.Sprintf("cannot decode index snapshot %s: %v", path, err))
	}
	if file.Version != snapshotVersion {
		return nil, wserrors.IndexCorruption(
			fmt.Sprintf("index snapshot %s has version %d, want %d", path, file.Version, snapshotVersion))
	}

	ix := New()
	if file.Postings != nil {
		ix.postings = file.Postings
	}
	if file.DocLen != nil {
		ix.docLen = file.DocLen
	}

	// Rebuild derived state and validate the snapshot while doing so.
	for term, plist := range ix.postings {
		if !sort.SliceIsSorted(plist, func(i, j int) bool { return plist[i].DocID < plist[j].DocID }) {
			return nil, wserrors.IndexCorruption(
				fmt.Sprintf("posting list for term %q is not sorted in snapshot %s", term, path))
		}
		for _, p := range plist {
			if p.TermFreq <= 0 {
				return nil, wserrors.IndexCorruption(
					fmt.Sprintf("non-positive term frequency for term %q in snapshot %s", term, path))
			}
			if _, ok := ix.docLen[p.DocID]; !ok {
				return nil, wserrors.IndexCorruption(
					fmt.Sprintf("posting references unknown document %s in snapshot %s", p.DocID, path))
			}
			ix.docTerms[p.DocID] = append(ix.docTerms[p.DocID], term)
		}
	}
	for id, terms := range ix.docTerms {
		sort.Strings(terms)
		ix.docTerms[id] = terms
	}
	for _, l := range ix.docLen {
		if l < 0 {
			return nil, wserrors.IndexCorruption(fmt.Sprintf("negative document length in snapshot %s", path))
		}
		ix.totalLen += int64(l)
	}

	return ix, nil
}
