// Package kb manages the set of registered knowledge bases: opening their
// stores and indexes on demand, running indexing passes, and routing queries
// across them.
package kb

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/heibaibufen/winwin-search/internal/config"
	"github.com/heibaibufen/winwin-search/internal/docstore"
	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
	"github.com/heibaibufen/winwin-search/internal/extract"
	"github.com/heibaibufen/winwin-search/internal/index"
	"github.com/heibaibufen/winwin-search/internal/search"
	"github.com/heibaibufen/winwin-search/internal/tokenizer"
)

// TargetAll routes a query across every enabled knowledge base.
const TargetAll = "all"

// Stats describes one knowledge base for status output.
type Stats struct {
	ID            string    `json:"id"`
	RootPath      string    `json:"root_path"`
	Enabled       bool      `json:"enabled"`
	Documents     int       `json:"documents"`
	Terms         int       `json:"terms"`
	AvgDocLength  float64   `json:"avg_doc_length"`
	IndexSize     int64     `json:"index_size_bytes"`
	LastIndexedAt time.Time `json:"last_indexed_at,omitempty"`
}

// handle bundles the per-knowledge-base machinery, opened lazily.
type handle struct {
	kb      config.KnowledgeBase
	store   *docstore.Store
	holder  *index.Holder
	builder *index.Builder
	engine  *search.Engine
}

// Manager owns all open knowledge bases for one process.
type Manager struct {
	cfg      *config.Config
	registry *config.Registry
	tok      *tokenizer.Tokenizer
	logger   *slog.Logger

	mu      sync.Mutex
	handles map[string]*handle
}

// NewManager creates a manager over the given registry.
func NewManager(cfg *config.Config, registry *config.Registry, logger *slog.Logger) (*Manager, error) {
	tok, err := tokenizer.New()
	if err != nil {
		return nil, err
	}
	return &Manager{
		cfg:      cfg,
		registry: registry,
		tok:      tok,
		logger:   logger,
		handles:  make(map[string]*handle),
	}, nil
}

// open returns the handle for a knowledge base, creating it on first use.
// The snapshot is loaded from disk and checked against the document store;
// drift is logged, not fatal, since a full reindex repairs it.
func (m *Manager) open(ctx context.Context, kb config.KnowledgeBase) (*handle, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if h, ok := m.handles[kb.ID]; ok {
		return h, nil
	}

	dataDir := m.cfg.KBDir(kb.ID)
	store, err := docstore.Open(filepath.Join(dataDir, "documents.db"))
	if err != nil {
		return nil, err
	}

	ix, err := index.LoadSnapshot(filepath.Join(dataDir, "index.gob"))
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	holder := index.NewHolder(ix)

	report, err := index.CheckConsistency(ctx, store, ix)
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	if !report.Consistent() {
		m.logger.Warn("index_inconsistent",
			slog.String("kb", kb.ID),
			slog.Int("missing_from_index", len(report.MissingFromIndex)),
			slog.Int("missing_from_store", len(report.MissingFromStore)))
	}

	extractor := extract.WithTimeout(
		extract.NewPlainText(m.cfg.Index.MaxFileSizeMB),
		m.cfg.Index.ExtractTimeout)

	builder := index.NewBuilder(index.BuilderConfig{
		KBID:            kb.ID,
		RootPath:        kb.RootPath,
		DataDir:         dataDir,
		Workers:         m.cfg.Index.Workers,
		ExcludePatterns: m.cfg.Index.ExcludePatterns,
	}, store, holder, m.tok, extractor, m.logger)

	engine, err := search.NewEngine(kb.ID, kb.RootPath, holder, store, m.tok, extractor,
		search.Config{
			K1:            m.cfg.Search.K1,
			B:             m.cfg.Search.B,
			SnippetLength: m.cfg.Search.SnippetLength,
			CacheSize:     m.cfg.Search.CacheSize,
		}, m.logger)
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	h := &handle{kb: kb, store: store, holder: holder, builder: builder, engine: engine}
	m.handles[kb.ID] = h
	return h, nil
}

// Index runs an indexing pass for one knowledge base and records the pass in
// the registry on success.
func (m *Manager) Index(ctx context.Context, kbID string, full bool) (*index.Summary, error) {
	kb, err := m.registry.Get(kbID)
	if err != nil {
		return nil, err
	}

	h, err := m.open(ctx, kb)
	if err != nil {
		return nil, err
	}

	summary, err := h.builder.Reindex(ctx, full)
	if err != nil {
		return nil, err
	}

	if err := m.registry.Touch(kbID, time.Now().UTC()); err != nil {
		return nil, err
	}
	if err := m.registry.Save(); err != nil {
		return nil, err
	}
	return summary, nil
}

// Search routes a query to one knowledge base, or to every enabled one when
// target is TargetAll. Merged results are ranked by score with knowledge
// base and document id as tie-breakers, so routing is deterministic.
func (m *Manager) Search(ctx context.Context, target, query string, limit int) ([]search.Result, error) {
	var kbs []config.KnowledgeBase
	if target == TargetAll {
		kbs = m.registry.Enabled()
	} else {
		kb, err := m.registry.Get(target)
		if err != nil {
			return nil, err
		}
		kbs = []config.KnowledgeBase{kb}
	}

	if limit <= 0 {
		limit = m.cfg.Search.DefaultLimit
	}

	merged := make([]search.Result, 0, limit)
	for _, kb := range kbs {
		h, err := m.open(ctx, kb)
		if err != nil {
			return nil, err
		}
		results, err := h.engine.Search(ctx, query, limit)
		if err != nil {
			return nil, err
		}
		merged = append(merged, results...)
	}

	sort.Slice(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		if merged[i].KnowledgeBase != merged[j].KnowledgeBase {
			return merged[i].KnowledgeBase < merged[j].KnowledgeBase
		}
		return merged[i].DocID < merged[j].DocID
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// Stats reports status for one knowledge base, or for all registered ones
// when kbID is TargetAll.
func (m *Manager) Stats(ctx context.Context, kbID string) ([]Stats, error) {
	var kbs []config.KnowledgeBase
	if kbID == TargetAll {
		kbs = m.registry.List()
	} else {
		kb, err := m.registry.Get(kbID)
		if err != nil {
			return nil, err
		}
		kbs = []config.KnowledgeBase{kb}
	}

	out := make([]Stats, 0, len(kbs))
	for _, kb := range kbs {
		h, err := m.open(ctx, kb)
		if err != nil {
			return nil, err
		}
		ixStats := h.holder.Load().Stats()
		var indexSize int64
		if fi, err := os.Stat(h.builder.SnapshotPath()); err == nil {
			indexSize = fi.Size()
		}
		out = append(out, Stats{
			ID:            kb.ID,
			RootPath:      kb.RootPath,
			Enabled:       kb.Enabled,
			Documents:     ixStats.DocCount,
			Terms:         ixStats.TermCount,
			AvgDocLength:  ixStats.AvgDocLength,
			IndexSize:     indexSize,
			LastIndexedAt: kb.LastIndexedAt,
		})
	}
	return out, nil
}

// Close releases every open knowledge base. The manager is unusable after.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	var firstErr error
	for id, h := range m.handles {
		if err := h.store.Close(); err != nil && firstErr == nil {
			firstErr = wserrors.IOFailure("closing knowledge base "+id, err)
		}
		delete(m.handles, id)
	}
	return firstErr
}
