package transcript

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	pronounIContractionPattern = regexp.MustCompile(`\bi['’](?:m|d|ll|ve|re|s)\b`)
	pronounIWordPattern        = regexp.MustCompile(`(^|[^\pL.'’])i([^\pL.'’]|$)`)
)

var abbreviations = map[string]struct{}{
	"e.g": {}, "i.e": {}, "etc": {}, "vs": {}, "mr": {}, "mrs": {}, "ms": {},
	"dr": {}, "prof": {}, "st": {}, "approx": {}, "cf": {}, "al": {},
}

func capitalizeSentences(text string) string {
	text = capitalizeSentenceStarts(text)
	text = pronounIContractionPattern.ReplaceAllStringFunc(text, func(match string) string {
		return "I" + match[1:]
	})
	// Run twice so adjacent matches sharing a separator ("i i") are both handled.
	for range 2 {
		text = pronounIWordPattern.ReplaceAllString(text, "${1}I${2}")
	}
	return text
}

// capitalizeSentenceStarts uppercases the first letter of the text and the
// first letter after a sentence terminator followed by whitespace.
func capitalizeSentenceStarts(text string) string {
	runes := []rune(text)
	atStart := true
	afterTerminator := false

	for i, r := range runes {
		switch {
		case atStart:
			if unicode.IsLetter(r) {
				runes[i] = unicode.ToUpper(r)
				atStart = false
			} else if unicode.IsDigit(r) {
				atStart = false
			}
		case isTerminator(runes, i):
			afterTerminator = true
			continue
		case afterTerminator && unicode.IsSpace(r):
			atStart = true
		}
		afterTerminator = false
	}
	return string(runes)
}

// isTerminator reports whether runes[i] ends a sentence.
func isTerminator(runes []rune, i int) bool {
	switch runes[i] {
	case '!', '?':
		return true
	case '.':
	default:
		return false
	}

	if i > 0 && i+1 < len(runes) && unicode.IsDigit(runes[i-1]) && unicode.IsDigit(runes[i+1]) {
		return false
	}

	start := i
	for start > 0 && (unicode.IsLetter(runes[start-1]) || runes[start-1] == '.') {
		start--
	}
	word := strings.ToLower(strings.Trim(string(runes[start:i]), "."))
	_, abbreviated := abbreviations[word]
	return !abbreviated
}
