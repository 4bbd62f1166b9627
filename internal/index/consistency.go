package index

import (
	"context"
	"sort"

	"github.com/heibaibufen/winwin-search/internal/docstore"
)

// ConsistencyReport describes disagreement between the document store and
// the index snapshot. The two are written in separate commit steps, so a
// crash can leave them out of sync.
type ConsistencyReport struct {
	// MissingFromIndex are document ids the store knows but the index lacks.
	MissingFromIndex []string `json:"missing_from_index,omitempty"`

	// MissingFromStore are document ids the index holds but the store lacks.
	MissingFromStore []string `json:"missing_from_store,omitempty"`
}

// Consistent reports whether store and index agree.
func (r *ConsistencyReport) Consistent() bool {
	return len(r.MissingFromIndex) == 0 && len(r.MissingFromStore) == 0
}

// CheckConsistency compares the store's document ids against the index's.
// Callers treat an inconsistent report as a prompt to run a full reindex.
func CheckConsistency(ctx context.Context, store *docstore.Store, ix *Index) (*ConsistencyReport, error) {
	docs, err := store.All(ctx)
	if err != nil {
		return nil, err
	}

	report := &ConsistencyReport{}
	stored := make(map[string]struct{}, len(docs))
	for _, d := range docs {
		stored[d.ID] = struct{}{}
		if !ix.Contains(d.ID) {
			report.MissingFromIndex = append(report.MissingFromIndex, d.ID)
		}
	}
	for _, id := range ix.DocIDs() {
		if _, ok := stored[id]; !ok {
			report.MissingFromStore = append(report.MissingFromStore, id)
		}
	}
	sort.Strings(report.MissingFromIndex)

	return report, nil
}
