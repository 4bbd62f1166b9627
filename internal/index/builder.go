package index

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"
	"golang.org/x/sync/errgroup"

	"github.com/heibaibufen/winwin-search/internal/docstore"
	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
	"github.com/heibaibufen/winwin-search/internal/extract"
	"github.com/heibaibufen/winwin-search/internal/tokenizer"
)

// BuilderConfig configures a Builder for one knowledge base.
type BuilderConfig struct {
	KBID            string
	RootPath        string
	DataDir         string
	Workers         int
	ExcludePatterns []string
}

// FileFailure records one file that could not be indexed. Failures never
// abort a pass; the rest of the knowledge base still gets indexed.
type FileFailure struct {
	Path   string `json:"path"`
	Reason string `json:"reason"`
}

// Summary reports what an indexing pass did.
type Summary struct {
	KnowledgeBase string        `json:"knowledge_base"`
	Full          bool          `json:"full"`
	Added         int           `json:"added"`
	Updated       int           `json:"updated"`
	Removed       int           `json:"removed"`
	Skipped       int           `json:"skipped"`
	Failed        []FileFailure `json:"failed,omitempty"`
	Duration      time.Duration `json:"duration"`
}

// Builder runs full and incremental indexing passes for one knowledge base.
// Only one pass may run at a time per knowledge base, enforced both in
// process and across processes.
type Builder struct {
	cfg       BuilderConfig
	store     *docstore.Store
	holder    *Holder
	tok       *tokenizer.Tokenizer
	extractor extract.Extractor
	logger    *slog.Logger

	flk  *flock.Flock
	busy atomic.Bool
}

// NewBuilder wires a builder from its collaborators.
func NewBuilder(cfg BuilderConfig, store *docstore.Store, holder *Holder,
	tok *tokenizer.Tokenizer, extractor extract.Extractor, logger *slog.Logger) *Builder {
	if cfg.Workers <= 0 {
		cfg.Workers = 1
	}
	return &Builder{
		cfg:       cfg,
		store:     store,
		holder:    holder,
		tok:       tok,
		extractor: extractor,
		logger:    logger,
		flk:       flock.New(filepath.Join(cfg.DataDir, "index.lock")),
	}
}

// SnapshotPath returns the on-disk location of the index snapshot.
func (b *Builder) SnapshotPath() string {
	return filepath.Join(b.cfg.DataDir, "index.gob")
}

// fileResult is the outcome of extracting and tokenizing one file.
type fileResult struct {
	doc       docstore.Document
	tokens    []string
	unchanged bool
}

// Reindex scans the knowledge-base root and brings index and store up to
// date. With full set, existing state is discarded and everything is
// reindexed from scratch. A concurrent pass on the same knowledge base
// fails fast with an index-busy error.
func (b *Builder) Reindex(ctx context.Context, full bool) (*Summary, error) {
	if !b.busy.CompareAndSwap(false, true) {
		return nil, wserrors.IndexBusy(b.cfg.KBID)
	}
	defer b.busy.Store(false)

	locked, err := b.flk.TryLock()
	if err != nil {
		return nil, wserrors.IOFailure(fmt.Sprintf("cannot acquire index lock for %s", b.cfg.KBID), err)
	}
	if !locked {
		return nil, wserrors.IndexBusy(b.cfg.KBID)
	}
	defer func() { _ = b.flk.Unlock() }()

	start := time.Now()
	b.logger.Info("index_started",
		slog.String("kb", b.cfg.KBID),
		slog.String("root", b.cfg.RootPath),
		slog.Bool("full", full))

	var known []docstore.Document
	if !full {
		known, err = b.store.All(ctx)
		if err != nil {
			return nil, err
		}
	}

	diff, err := docstore.Scan(ctx, b.cfg.RootPath, known, docstore.ScanOptions{
		ExcludePatterns: b.cfg.ExcludePatterns,
	})
	if err != nil {
		return nil, err
	}

	knownByPath := make(map[string]docstore.Document, len(known))
	for _, d := range known {
		knownByPath[d.Path] = d
	}

	summary := &Summary{KnowledgeBase: b.cfg.KBID, Full: full}
	for _, f := range diff.Failures {
		summary.Failed = append(summary.Failed, FileFailure{Path: f.Path, Reason: f.Err.Error()})
	}

	results, failures, err := b.extractAll(ctx, append(diff.Added, diff.Changed...), knownByPath)
	if err != nil {
		return nil, err
	}
	summary.Failed = append(summary.Failed, failures...)

	// Mutate a private clone; readers keep the published index until commit.
	var next *Index
	if full {
		next = New()
	} else {
		next = b.holder.Load().Clone()
	}

	removeIDs := make([]string, 0, len(diff.Removed))
	for _, d := range diff.Removed {
		if err := next.Remove(d.ID); err != nil {
			return nil, err
		}
		removeIDs = append(removeIDs, d.ID)
		summary.Removed++
	}

	upserts := make([]docstore.Document, 0, len(results))
	for _, r := range results {
		if r.unchanged {
			// Same content hash; refresh metadata so the next scan stops
			// flagging the file as changed.
			upserts = append(upserts, r.doc)
			summary.Skipped++
			continue
		}
		_, existed := knownByPath[r.doc.Path]
		if err := next.Update(r.doc.ID, r.tokens); err != nil {
			return nil, err
		}
		upserts = append(upserts, r.doc)
		if existed && !full {
			summary.Updated++
		} else {
			summary.Added++
		}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Commit order: snapshot first, then metadata, then publish. Metadata
	// lands in one transaction either way; a crash between steps is caught
	// by the consistency check on next open.
	if err := SaveSnapshot(b.SnapshotPath(), next); err != nil {
		return nil, err
	}
	if full {
		err = b.store.Replace(ctx, upserts)
	} else {
		err = b.store.Apply(ctx, upserts, removeIDs)
	}
	if err != nil {
		return nil, err
	}
	b.holder.Store(next)

	summary.Duration = time.Since(start)
	b.logger.Info("index_complete",
		slog.String("kb", b.cfg.KBID),
		slog.Bool("full", full),
		slog.Int("added", summary.Added),
		slog.Int("updated", summary.Updated),
		slog.Int("removed", summary.Removed),
		slog.Int("skipped", summary.Skipped),
		slog.Int("failed", len(summary.Failed)),
		slog.Duration("duration", summary.Duration))

	return summary, nil
}

// extractAll extracts and tokenizes files with a bounded worker pool.
// Per-file failures are collected; only context cancellation aborts.
func (b *Builder) extractAll(ctx context.Context, files []docstore.FileInfo,
	knownByPath map[string]docstore.Document) ([]fileResult, []FileFailure, error) {

	var (
		mu       sync.Mutex
		results  []fileResult
		failures []FileFailure
	)

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.cfg.Workers)

	for _, f := range files {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			text, err := b.extractor.Extract(gctx, f.AbsPath)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				b.logger.Warn("extract_failed",
					slog.String("kb", b.cfg.KBID),
					slog.String("path", f.RelPath),
					slog.String("error", err.Error()))
				mu.Lock()
				failures = append(failures, FileFailure{Path: f.RelPath, Reason: err.Error()})
				mu.Unlock()
				return nil
			}

			text = extract.Normalize(text)
			hash := extract.ContentHash(text)
			now := time.Now().UTC()

			doc := docstore.Document{
				ID:          docstore.DocumentID(f.RelPath),
				Path:        f.RelPath,
				ContentHash: hash,
				Size:        f.Size,
				ModifiedAt:  time.Unix(f.ModTime.Unix(), 0).UTC(),
				IndexedAt:   now,
			}

			r := fileResult{doc: doc}
			if prev, ok := knownByPath[f.RelPath]; ok && prev.ContentHash == hash {
				// Touched but identical content. Keep the stored length.
				r.doc.Length = prev.Length
				r.unchanged = true
			} else {
				r.tokens = b.tok.Tokenize(text, tokenizer.HintAuto)
				r.doc.Length = len(r.tokens)
			}

			mu.Lock()
			results = append(results, r)
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return results, failures, nil
}
