package output

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWriter_Success_PrintsCheckmark(t *testing.T) {
	// Given: a writer with a buffer
	buf := &bytes.Buffer{}
	w := New(buf)

	// When: printing a success message
	w.Success("Index complete!")

	// Then: output contains checkmark and message
	output := buf.String()
	assert.Contains(t, output, "✓")
	assert.Contains(t, output, "Index complete!")
}

func TestWriter_Warning_PrintsWarningMarker(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Warningf("%d files failed extraction", 3)

	output := buf.String()
	assert.Contains(t, output, "!")
	assert.Contains(t, output, "3 files failed extraction")
}

func TestWriter_Error_PrintsErrorMarker(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Error("index is busy")

	output := buf.String()
	assert.Contains(t, output, "✗")
	assert.Contains(t, output, "index is busy")
}

func TestWriter_Hit_PrintsRankPathAndSnippet(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Hit(1, "docs", "notes/a.md", 1.2345, "matching excerpt here")

	output := buf.String()
	assert.Contains(t, output, " 1. notes/a.md")
	assert.Contains(t, output, "[docs]")
	assert.Contains(t, output, "(1.2345)")
	assert.Contains(t, output, "matching excerpt here")
}

func TestWriter_BufferOutputIsPlain(t *testing.T) {
	// A buffer is not a terminal, so no ANSI escapes appear.
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Header("Results")
	w.Success("done")

	assert.NotContains(t, buf.String(), "\x1b[")
}

func TestWriter_Progress_PrintsProgressBar(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Progress(50, 100, "Indexing files")

	output := buf.String()
	assert.Contains(t, output, "50%")
	assert.Contains(t, output, "Indexing files")
}

func TestWriter_Progress_ZeroTotal_NoOutput(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	assert.NotPanics(t, func() {
		w.Progress(0, 0, "Processing")
	})
	assert.Empty(t, buf.String())
}

func TestProgressBar_Render(t *testing.T) {
	tests := []struct {
		name     string
		current  int
		total    int
		width    int
		wantFull int // number of filled characters
	}{
		{
			name:     "0 percent",
			current:  0,
			total:    100,
			width:    10,
			wantFull: 0,
		},
		{
			name:     "50 percent",
			current:  50,
			total:    100,
			width:    10,
			wantFull: 5,
		},
		{
			name:     "100 percent",
			current:  100,
			total:    100,
			width:    10,
			wantFull: 10,
		},
		{
			name:     "25 percent",
			current:  25,
			total:    100,
			width:    20,
			wantFull: 5,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			bar := renderProgressBar(tt.current, tt.total, tt.width)

			// Count filled characters (█)
			filled := strings.Count(bar, "█")
			assert.Equal(t, tt.wantFull, filled)

			// Total width should be correct
			assert.Equal(t, tt.width, len([]rune(bar)))
		})
	}
}

func TestWriter_Newline_PrintsEmptyLine(t *testing.T) {
	buf := &bytes.Buffer{}
	w := New(buf)

	w.Newline()

	assert.Equal(t, "\n", buf.String())
}
