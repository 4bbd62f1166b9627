// Package extract turns files on disk into indexable plain text.
//
// Extraction is the only stage that reads file contents. Everything
// downstream (tokenizer, index, document store) operates on the UTF-8 text
// produced here, so per-format handling stays contained in this package.
package extract

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"os"
	"strings"
	"time"
	"unicode/utf8"

	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
)

// Extractor converts one file into plain text.
type Extractor interface {
	// Extract returns the text content of the file at path. A nil error
	// with empty text means the file is valid but has nothing to index.
	Extract(ctx context.Context, path string) (string, error)
}

// binarySniffLen is how many leading bytes are checked for null bytes.
const binarySniffLen = 8192

// PlainText extracts UTF-8 text files and rejects binary content.
type PlainText struct {
	// MaxFileSize is the largest file Extract will read, in bytes.
	// Zero means no limit.
	MaxFileSize int64
}

var _ Extractor = (*PlainText)(nil)

// NewPlainText creates a plain-text extractor with the given size cap in
// megabytes.
func NewPlainText(maxFileSizeMB int) *PlainText {
	return &PlainText{MaxFileSize: int64(maxFileSizeMB) * 1024 * 1024}
}

// Extract reads the file and returns its content as UTF-8 text.
func (e *PlainText) Extract(ctx context.Context, path string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	info, err := os.Stat(path)
	if err != nil {
		return "", wserrors.IOFailure(fmt.Sprintf("cannot stat %s", path), err)
	}
	if e.MaxFileSize > 0 && info.Size() > e.MaxFileSize {
		return "", wserrors.ExtractionFailure(path,
			fmt.Sprintf("file size %d exceeds limit %d", info.Size(), e.MaxFileSize), nil)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", wserrors.IOFailure(fmt.Sprintf("cannot read %s", path), err)
	}

	sniff := data
	if len(sniff) > binarySniffLen {
		sniff = sniff[:binarySniffLen]
	}
	if bytes.IndexByte(sniff, 0) != -1 {
		return "", wserrors.ExtractionFailure(path, "binary content", nil)
	}
	if !utf8.Valid(data) {
		return "", wserrors.ExtractionFailure(path, "not valid UTF-8", nil)
	}

	return string(data), nil
}

// WithTimeout wraps an Extractor so each call is bounded by d. A run that
// exceeds the deadline reports an extraction timeout for the file rather
// than failing the whole indexing pass.
func WithTimeout(inner Extractor, d time.Duration) Extractor {
	if d <= 0 {
		return inner
	}
	return &timeoutExtractor{inner: inner, timeout: d}
}

type timeoutExtractor struct {
	inner   Extractor
	timeout time.Duration
}

func (t *timeoutExtractor) Extract(ctx context.Context, path string) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()

	type result struct {
		text string
		err  error
	}
	ch := make(chan result, 1)
	go func() {
		text, err := t.inner.Extract(ctx, path)
		ch <- result{text, err}
	}()

	select {
	case r := <-ch:
		if r.err != nil && ctx.Err() == context.DeadlineExceeded {
			return "", wserrors.ExtractionTimeout(path)
		}
		return r.text, r.err
	case <-ctx.Done():
		if ctx.Err() == context.DeadlineExceeded {
			return "", wserrors.ExtractionTimeout(path)
		}
		return "", ctx.Err()
	}
}

// ContentHash returns the hex SHA-256 of extracted text. The hash decides
// whether a file that looks changed on disk actually needs reindexing.
func ContentHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// Normalize collapses line endings so the same logical content hashes
// identically across platforms.
func Normalize(text string) string {
	return strings.ReplaceAll(text, "\r\n", "\n")
}
