// Package docstore persists per-document metadata for one knowledge base and
// scans the knowledge-base root for changes.
//
// The store is the authority on what has been indexed: document ids, paths,
// content hashes, and token lengths. The inverted index holds the postings;
// a consistency check reconciles the two on open.
package docstore

import (
	"context"
	"crypto/sha256"
	"database/sql"
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
)

// Document is one indexed file's metadata row.
type Document struct {
	// ID is the hex SHA-256 of the slash-separated path relative to the
	// knowledge-base root. Stable across moves of the root itself.
	ID string

	// Path is the slash-separated path relative to the root.
	Path string

	// ContentHash is the hex SHA-256 of the extracted, normalized text.
	ContentHash string

	// Length is the token count after tokenization.
	Length int

	// Size is the on-disk file size in bytes at index time.
	Size int64

	ModifiedAt time.Time
	IndexedAt  time.Time
}

// DocumentID derives the stable id for a relative path.
func DocumentID(relPath string) string {
	sum := sha256.Sum256([]byte(filepath.ToSlash(relPath)))
	return hex.EncodeToString(sum[:])
}

const schema = `
CREATE TABLE IF NOT EXISTS documents (
	id            TEXT PRIMARY KEY,
	path          TEXT NOT NULL UNIQUE,
	content_hash  TEXT NOT NULL,
	length        INTEGER NOT NULL,
	size          INTEGER NOT NULL,
	modified_at   INTEGER NOT NULL,
	indexed_at    INTEGER NOT NULL
);
`

// Store is a SQLite-backed document metadata store. Safe for concurrent
// readers; writes are serialized by the single-writer discipline upstream.
type Store struct {
	db   *sql.DB
	path string
}

// Open opens (or creates) the store at path.
func Open(path string) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, wserrors.IOFailure(fmt.Sprintf("cannot create store directory for %s", path), err)
	}

	dsn := fmt.Sprintf("file:%s?_pragma=journal_mode(WAL)&_pragma=synchronous(NORMAL)&_pragma=busy_timeout(5000)", path)
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, wserrors.IOFailure(fmt.Sprintf("cannot open document store %s", path), err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, wserrors.IndexCorruption(fmt.Sprintf("cannot initialize document store %s: %v", path, err))
	}

	return &Store{db: db, path: path}, nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the document with the given id.
func (s *Store) Get(ctx context.Context, id string) (Document, bool, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, path, content_hash, length, size, modified_at, indexed_at
		 FROM documents WHERE id = ?`, id)
	doc, err := scanDocument(row)
	if err == sql.ErrNoRows {
		return Document{}, false, nil
	}
	if err != nil {
		return Document{}, false, wserrors.IOFailure("document store read failed", err)
	}
	return doc, true, nil
}

// All returns every document ordered by path.
func (s *Store) All(ctx context.Context) ([]Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, path, content_hash, length, size, modified_at, indexed_at
		 FROM documents ORDER BY path`)
	if err != nil {
		return nil, wserrors.IOFailure("document store read failed", err)
	}
	defer rows.Close()

	var docs []Document
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, wserrors.IOFailure("document store read failed", err)
		}
		docs = append(docs, doc)
	}
	if err := rows.Err(); err != nil {
		return nil, wserrors.IOFailure("document store read failed", err)
	}
	return docs, nil
}

// Count returns the number of stored documents.
func (s *Store) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM documents`).Scan(&n); err != nil {
		return 0, wserrors.IOFailure("document store read failed", err)
	}
	return n, nil
}

// Apply commits upserts and removals in a single transaction. Either every
// change lands or none do.
func (s *Store) Apply(ctx context.Context, upserts []Document, removeIDs []string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wserrors.IOFailure("document store transaction failed", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, id := range removeIDs {
		if _, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE id = ?`, id); err != nil {
			return wserrors.IOFailure("document store delete failed", err)
		}
	}
	for _, d := range upserts {
		if err := upsertDocument(ctx, tx, d); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return wserrors.IOFailure("document store commit failed", err)
	}
	return nil
}

// Replace swaps the entire document set in a single transaction: every
// existing row is deleted, then docs are inserted. Full reindex uses it so a
// crash mid-commit never leaves the store empty alongside a populated
// snapshot.
func (s *Store) Replace(ctx context.Context, docs []Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return wserrors.IOFailure("document store transaction failed", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM documents`); err != nil {
		return wserrors.IOFailure("document store clear failed", err)
	}
	for _, d := range docs {
		if err := upsertDocument(ctx, tx, d); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return wserrors.IOFailure("document store commit failed", err)
	}
	return nil
}

func upsertDocument(ctx context.Context, tx *sql.Tx, d Document) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO documents (id, path, content_hash, length, size, modified_at, indexed_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET
		   path = excluded.path,
		   content_hash = excluded.content_hash,
		   length = excluded.length,
		   size = excluded.size,
		   modified_at = excluded.modified_at,
		   indexed_at = excluded.indexed_at`,
		d.ID, d.Path, d.ContentHash, d.Length, d.Size,
		d.ModifiedAt.Unix(), d.IndexedAt.Unix())
	if err != nil {
		return wserrors.IOFailure("document store upsert failed", err)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanDocument(r rowScanner) (Document, error) {
	var d Document
	var modified, indexed int64
	if err := r.Scan(&d.ID, &d.Path, &d.ContentHash, &d.Length, &d.Size, &modified, &indexed); err != nil {
		return Document{}, err
	}
	d.ModifiedAt = time.Unix(modified, 0).UTC()
	d.IndexedAt = time.Unix(indexed, 0).UTC()
	return d, nil
}
