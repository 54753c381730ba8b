// Package transcript normalizes recognizer output before refinement and paste.
package transcript

import (
	"strings"
	"unicode/utf8"
)

// Options controls normalization behavior.
type Options struct {
	CapitalizeSentences bool
}

// Normalize collapses whitespace and optionally applies sentence casing.
func Normalize(raw string, opts Options) string {
	normalized := strings.Join(strings.Fields(raw), " ")
	if normalized == "" {
		return ""
	}
	if opts.CapitalizeSentences {
		normalized = capitalizeSentences(normalized)
	}
	return normalized
}

// WordCount counts whitespace-separated words.
func WordCount(text string) int {
	return len(strings.Fields(text))
}

// Preview truncates text to limit runes, marking the cut with "...".
func Preview(text string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(text) <= limit {
		return text
	}
	runes := []rune(text)
	return string(runes[:limit]) + "..."
}
