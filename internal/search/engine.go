// Package search ranks documents against queries with BM25 over the
// in-memory inverted index.
//
// Each Search call works against the index snapshot published at call time,
// so an indexing pass committing mid-query never changes the result set.
package search

import (
	"context"
	"log/slog"
	"math"
	"path/filepath"
	"sort"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/heibaibufen/winwin-search/internal/docstore"
	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
	"github.com/heibaibufen/winwin-search/internal/extract"
	"github.com/heibaibufen/winwin-search/internal/index"
	"github.com/heibaibufen/winwin-search/internal/tokenizer"
)

// Engine answers queries for one knowledge base.
type Engine struct {
	kbID      string
	rootPath  string
	holder    *index.Holder
	store     *docstore.Store
	tok       *tokenizer.Tokenizer
	extractor extract.Extractor
	cfg       Config
	logger    *slog.Logger

	// textCache keys on docID plus content hash, so stale entries fall out
	// naturally after reindexing.
	textCache *lru.Cache[string, string]
}

// NewEngine wires a query engine from its collaborators.
func NewEngine(kbID, rootPath string, holder *index.Holder, store *docstore.Store,
	tok *tokenizer.Tokenizer, extractor extract.Extractor, cfg Config, logger *slog.Logger) (*Engine, error) {
	if cfg.CacheSize <= 0 {
		cfg.CacheSize = DefaultConfig().CacheSize
	}
	if cfg.SnippetLength <= 0 {
		cfg.SnippetLength = DefaultConfig().SnippetLength
	}
	cache, err := lru.New[string, string](cfg.CacheSize)
	if err != nil {
		return nil, err
	}
	return &Engine{
		kbID:      kbID,
		rootPath:  rootPath,
		holder:    holder,
		store:     store,
		tok:       tok,
		extractor: extractor,
		cfg:       cfg,
		logger:    logger,
		textCache: cache,
	}, nil
}

// Search returns up to limit results ranked by BM25 score. Ties are broken
// by document id so result order is deterministic.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]Result, error) {
	if strings.TrimSpace(query) == "" {
		return nil, wserrors.InvalidQuery("query is empty")
	}
	if limit <= 0 {
		return nil, wserrors.InvalidLimit(limit)
	}

	start := time.Now()
	ix := e.holder.Load()
	stats := ix.Stats()
	if stats.DocCount == 0 {
		return []Result{}, nil
	}

	terms := uniqueTerms(e.tok.Tokenize(query, tokenizer.HintAuto))
	if len(terms) == 0 {
		return []Result{}, nil
	}

	scores := e.score(ix, stats, terms)
	if len(scores) == 0 {
		return []Result{}, nil
	}

	ranked := make([]Result, 0, len(scores))
	for docID, score := range scores {
		ranked = append(ranked, Result{KnowledgeBase: e.kbID, DocID: docID, Score: score})
	}
	sort.Slice(ranked, func(i, j int) bool {
		if ranked[i].Score != ranked[j].Score {
			return ranked[i].Score > ranked[j].Score
		}
		return ranked[i].DocID < ranked[j].DocID
	})
	if len(ranked) > limit {
		ranked = ranked[:limit]
	}

	for i := range ranked {
		if err := e.decorate(ctx, &ranked[i], terms); err != nil {
			return nil, err
		}
	}

	e.logger.Debug("search_complete",
		slog.String("kb", e.kbID),
		slog.Int("terms", len(terms)),
		slog.Int("results", len(ranked)),
		slog.Duration("duration", time.Since(start)))

	return ranked, nil
}

// score computes BM25 scores for every document matching at least one term.
func (e *Engine) score(ix *index.Index, stats index.Stats, terms []string) map[string]float64 {
	n := float64(stats.DocCount)
	avgdl := stats.AvgDocLength

	scores := make(map[string]float64)
	for _, term := range terms {
		plist := ix.PostingsFor(term)
		if len(plist) == 0 {
			continue
		}
		df := float64(len(plist))
		idf := math.Log(1 + (n-df+0.5)/(df+0.5))
		for _, p := range plist {
			tf := float64(p.TermFreq)
			dl := float64(ix.DocLength(p.DocID))
			denom := tf + e.cfg.K1*(1-e.cfg.B+e.cfg.B*dl/avgdl)
			scores[p.DocID] += idf * tf * (e.cfg.K1 + 1) / denom
		}
	}
	return scores
}

// decorate fills in the path and snippet for a ranked hit.
func (e *Engine) decorate(ctx context.Context, r *Result, terms []string) error {
	doc, ok, err := e.store.Get(ctx, r.DocID)
	if err != nil {
		return err
	}
	if !ok {
		// Index and store drifted apart. Degrade the hit rather than fail
		// the whole query; the consistency check reports the drift.
		e.logger.Warn("document_missing_from_store",
			slog.String("kb", e.kbID), slog.String("doc_id", r.DocID))
		return nil
	}
	r.Path = doc.Path

	text, err := e.documentText(ctx, doc)
	if err != nil {
		// Snippets are best effort; the hit itself is still valid.
		e.logger.Warn("snippet_unavailable",
			slog.String("kb", e.kbID),
			slog.String("path", doc.Path),
			slog.String("error", err.Error()))
		return nil
	}
	r.Snippet = makeSnippet(text, terms, e.cfg.SnippetLength)
	return nil
}

// documentText returns extracted text for a document, consulting the cache.
func (e *Engine) documentText(ctx context.Context, doc docstore.Document) (string, error) {
	key := doc.ID + ":" + doc.ContentHash
	if text, ok := e.textCache.Get(key); ok {
		return text, nil
	}
	text, err := e.extractor.Extract(ctx, filepath.Join(e.rootPath, filepath.FromSlash(doc.Path)))
	if err != nil {
		return "", err
	}
	text = extract.Normalize(text)
	e.textCache.Add(key, text)
	return text, nil
}

// uniqueTerms deduplicates tokens preserving first-seen order.
func uniqueTerms(tokens []string) []string {
	seen := make(map[string]struct{}, len(tokens))
	var out []string
	for _, t := range tokens {
		if _, ok := seen[t]; ok {
			continue
		}
		seen[t] = struct{}{}
		out = append(out, t)
	}
	return out
}
