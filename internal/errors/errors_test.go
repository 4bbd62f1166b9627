package errors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryAndSeverity(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		category Category
		severity Severity
		retry    bool
	}{
		{"io failure", ErrCodeIOFailure, CategoryIO, SeverityError, false},
		{"index busy", ErrCodeIndexBusy, CategoryContention, SeverityWarning, true},
		{"corrupt index", ErrCodeCorruptIndex, CategoryIO, SeverityFatal, false},
		{"invalid query", ErrCodeInvalidQuery, CategoryValidation, SeverityError, false},
		{"invalid limit", ErrCodeInvalidLimit, CategoryValidation, SeverityError, false},
		{"config", ErrCodeConfigInvalid, CategoryConfig, SeverityError, false},
		{"extraction timeout", ErrCodeExtractionTimeout, CategoryIO, SeverityWarning, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := New(tt.code, "boom", nil)
			assert.Equal(t, tt.category, e.Category)
			assert.Equal(t, tt.severity, e.Severity)
			assert.Equal(t, tt.retry, e.Retryable)
		})
	}
}

func TestError_IsMatchesByCode(t *testing.T) {
	err := IndexBusy("docs")
	wrapped := fmt.Errorf("indexing: %w", err)

	assert.True(t, errors.Is(wrapped, New(ErrCodeIndexBusy, "", nil)))
	assert.False(t, errors.Is(wrapped, New(ErrCodeIOFailure, "", nil)))
}

func TestError_UnwrapPreservesCause(t *testing.T) {
	cause := errors.New("permission denied")
	err := IOFailure("cannot read root", cause)

	assert.ErrorIs(t, err, cause)
}

func TestHasCode(t *testing.T) {
	err := fmt.Errorf("pass failed: %w", IndexCorruption("document count went negative"))

	assert.True(t, HasCode(err, ErrCodeCorruptIndex))
	assert.False(t, HasCode(err, ErrCodeIndexBusy))
	assert.False(t, HasCode(errors.New("plain"), ErrCodeCorruptIndex))
}

func TestIsFatal(t *testing.T) {
	assert.True(t, IsFatal(IndexCorruption("bad aggregates")))
	assert.False(t, IsFatal(IndexBusy("kb1")))
	assert.False(t, IsFatal(nil))
}

func TestExtractionFailure_CarriesPath(t *testing.T) {
	err := ExtractionFailure("docs/a.md", "binary content", nil)

	require.NotNil(t, err.Details)
	assert.Equal(t, "docs/a.md", err.Details["path"])
	assert.Equal(t, ErrCodeExtractionFailed, err.Code)
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeIOFailure, nil))
}
