// Package tokenizer splits raw text into normalized index terms.
// Latin-script text is split on non-alphanumeric boundaries and lowercased;
// CJK text goes through dictionary-based segmentation (gse). Both paths are
// deterministic: identical input always yields identical terms, so index
// contents are reproducible across runs.
package tokenizer

import (
	"strings"
	"sync"
	"unicode"

	"github.com/go-ego/gse"
)

// LanguageHint selects the tokenization path.
type LanguageHint int

const (
	// HintAuto detects CJK and Latin runs per character.
	HintAuto LanguageHint = iota
	// HintLatin forces Latin-script word splitting.
	HintLatin
	// HintCJK forces dictionary segmentation.
	HintCJK
)

// minTokenLength is the minimum rune count for Latin tokens.
const minTokenLength = 2

// The gse dictionary is large; load it once per process and share it across
// all Tokenizer instances.
var (
	segOnce sync.Once
	seg     gse.Segmenter
	segErr  error
)

func sharedSegmenter() (*gse.Segmenter, error) {
	segOnce.Do(func() {
		segErr = seg.LoadDict()
	})
	if segErr != nil {
		return nil, segErr
	}
	return &seg, nil
}

// Tokenizer produces normalized terms for indexing and querying. The same
// Tokenizer configuration must be used on both sides so that query terms
// normalize identically to indexed terms.
type Tokenizer struct {
	seg       *gse.Segmenter
	latinStop map[string]struct{}
	cjkStop   map[string]struct{}
}

// New creates a Tokenizer with the default stopword sets.
func New() (*Tokenizer, error) {
	s, err := sharedSegmenter()
	if err != nil {
		return nil, err
	}
	return &Tokenizer{
		seg:       s,
		latinStop: BuildStopWordMap(DefaultLatinStopWords),
		cjkStop:   BuildStopWordMap(DefaultCJKStopWords),
	}, nil
}

// Tokenize splits text into normalized terms. Output order follows input
// order; BM25 ignores order but tests rely on it being stable.
func (t *Tokenizer) Tokenize(text string, hint LanguageHint) []string {
	switch hint {
	case HintLatin:
		return t.tokenizeLatin(text)
	case HintCJK:
		return t.tokenizeCJK(text)
	}

	// Auto: segment contiguous CJK runs with the CJK path and everything
	// else with the Latin path, preserving original order.
	var tokens []string
	var run []rune
	runIsCJK := false

	flush := func() {
		if len(run) == 0 {
			return
		}
		if runIsCJK {
			tokens = append(tokens, t.tokenizeCJK(string(run))...)
		} else {
			tokens = append(tokens, t.tokenizeLatin(string(run))...)
		}
		run = run[:0]
	}

	for _, r := range text {
		cjk := isCJK(r)
		if cjk != runIsCJK {
			flush()
			runIsCJK = cjk
		}
		run = append(run, r)
	}
	flush()

	return tokens
}

// tokenizeLatin splits on non-alphanumeric boundaries, lowercases, and drops
// short tokens and stopwords.
func (t *Tokenizer) tokenizeLatin(text string) []string {
	var tokens []string
	var current []rune

	emit := func() {
		if len(current) >= minTokenLength {
			tok := string(current)
			if _, stop := t.latinStop[tok]; !stop {
				tokens = append(tokens, tok)
			}
		}
		current = current[:0]
	}

	for _, r := range text {
		if (unicode.IsLetter(r) || unicode.IsDigit(r)) && !isCJK(r) {
			current = append(current, unicode.ToLower(r))
		} else {
			emit()
		}
	}
	emit()

	return tokens
}

// tokenizeCJK runs dictionary segmentation and filters punctuation-only
// segments and stopwords. Single CJK characters are kept; they are often
// meaningful words on their own.
func (t *Tokenizer) tokenizeCJK(text string) []string {
	var tokens []string
	for _, s := range t.seg.Cut(text, true) {
		s = strings.ToLower(strings.TrimSpace(s))
		if s == "" || !hasWordRune(s) {
			continue
		}
		if _, stop := t.cjkStop[s]; stop {
			continue
		}
		tokens = append(tokens, s)
	}
	return tokens
}

// isCJK reports whether r belongs to a script requiring segmentation rather
// than whitespace tokenization.
func isCJK(r rune) bool {
	return unicode.Is(unicode.Han, r) ||
		unicode.Is(unicode.Hiragana, r) ||
		unicode.Is(unicode.Katakana, r) ||
		unicode.Is(unicode.Hangul, r)
}

// hasWordRune reports whether s contains at least one letter or digit.
func hasWordRune(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			return true
		}
	}
	return false
}
