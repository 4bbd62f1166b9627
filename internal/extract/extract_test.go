package extract

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wserrors "github.com/heibaibufen/winwin-search/internal/errors"
)

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func TestPlainText_Extract(t *testing.T) {
	dir := t.TempDir()
	e := NewPlainText(1)

	t.Run("reads utf8 text", func(t *testing.T) {
		path := writeFile(t, dir, "a.txt", []byte("hello 世界\n"))
		text, err := e.Extract(context.Background(), path)
		require.NoError(t, err)
		assert.Equal(t, "hello 世界\n", text)
	})

	t.Run("rejects binary content", func(t *testing.T) {
		path := writeFile(t, dir, "bin.dat", []byte{'P', 'K', 0, 1, 2})
		_, err := e.Extract(context.Background(), path)
		assert.True(t, wserrors.HasCode(err, wserrors.ErrCodeExtractionFailed))
	})

	t.Run("rejects invalid utf8", func(t *testing.T) {
		path := writeFile(t, dir, "latin1.txt", []byte{'c', 'a', 'f', 0xe9})
		_, err := e.Extract(context.Background(), path)
		assert.True(t, wserrors.HasCode(err, wserrors.ErrCodeExtractionFailed))
	})

	t.Run("rejects oversized files", func(t *testing.T) {
		big := make([]byte, 2*1024*1024)
		for i := range big {
			big[i] = 'a'
		}
		path := writeFile(t, dir, "big.txt", big)
		_, err := e.Extract(context.Background(), path)
		assert.True(t, wserrors.HasCode(err, wserrors.ErrCodeExtractionFailed))
	})

	t.Run("missing file is an io failure", func(t *testing.T) {
		_, err := e.Extract(context.Background(), filepath.Join(dir, "nope.txt"))
		assert.True(t, wserrors.HasCode(err, wserrors.ErrCodeIOFailure))
	})
}

type slowExtractor struct{ delay time.Duration }

func (s *slowExtractor) Extract(ctx context.Context, path string) (string, error) {
	select {
	case <-time.After(s.delay):
		return "done", nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

func TestWithTimeout(t *testing.T) {
	t.Run("fast extraction passes through", func(t *testing.T) {
		e := WithTimeout(&slowExtractor{delay: time.Millisecond}, time.Second)
		text, err := e.Extract(context.Background(), "x")
		require.NoError(t, err)
		assert.Equal(t, "done", text)
	})

	t.Run("slow extraction reports timeout", func(t *testing.T) {
		e := WithTimeout(&slowExtractor{delay: time.Second}, 20*time.Millisecond)
		_, err := e.Extract(context.Background(), "x")
		assert.True(t, wserrors.HasCode(err, wserrors.ErrCodeExtractionTimeout))
		assert.True(t, wserrors.IsRetryable(err))
	})

	t.Run("zero timeout disables the wrapper", func(t *testing.T) {
		inner := &slowExtractor{delay: time.Millisecond}
		assert.Same(t, Extractor(inner), WithTimeout(inner, 0))
	})
}

func TestContentHash(t *testing.T) {
	assert.Equal(t, ContentHash("abc"), ContentHash("abc"))
	assert.NotEqual(t, ContentHash("abc"), ContentHash("abd"))
	assert.Len(t, ContentHash(""), 64)
}

func TestNormalize(t *testing.T) {
	assert.Equal(t, "a\nb\n", Normalize("a\r\nb\r\n"))
	assert.Equal(t, ContentHash(Normalize("x\r\ny")), ContentHash(Normalize("x\ny")))
}
