package search

import "strings"

// makeSnippet returns roughly window runes of text centered on the first
// occurrence of any query term. Matching is case-insensitive; terms were
// lowercased by the tokenizer.
func makeSnippet(text string, terms []string, window int) string {
	flat := strings.Join(strings.Fields(text), " ")
	if flat == "" {
		return ""
	}

	lower := strings.ToLower(flat)
	matchStart := -1
	for _, term := range terms {
		if i := strings.Index(lower, term); i >= 0 && (matchStart < 0 || i < matchStart) {
			matchStart = i
		}
	}

	runes := []rune(flat)
	if len(runes) <= window {
		return flat
	}

	start := 0
	if matchStart > 0 {
		// Byte offset to rune offset, then back up a quarter window so the
		// match sits near the front of the snippet.
		matchRune := len([]rune(flat[:matchStart]))
		start = matchRune - window/4
		if start < 0 {
			start = 0
		}
	}
	end := start + window
	if end > len(runes) {
		end = len(runes)
		start = end - window
	}

	snippet := string(runes[start:end])
	if start > 0 {
		snippet = "…" + snippet
	}
	if end < len(runes) {
		snippet += "…"
	}
	return snippet
}
