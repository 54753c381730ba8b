// Package history persists finished dictation sessions.
package history

import (
	"strings"
	"time"

	"github.com/rbright/murmur/internal/transcript"
)

const previewRunes = 80

// Entry is one finished session.
type Entry struct {
	ID             string    `json:"id"`
	RawTranscript  string    `json:"raw_transcript"`
	FinalText      string    `json:"final_text"`
	UsedRefinement bool      `json:"used_refinement"`
	WordCount      int       `json:"word_count"`
	Timestamp      time.Time `json:"timestamp"`
	Model          string    `json:"model,omitempty"`
	WritingStyle   string    `json:"writing_style,omitempty"`
	Formality      string    `json:"formality,omitempty"`
	TimedOut       bool      `json:"timed_out,omitempty"`
}

// NewEntry builds an entry for a finished session and counts its words.
func NewEntry(raw string, final string, usedRefinement bool) Entry {
	return Entry{
		RawTranscript:  raw,
		FinalText:      final,
		UsedRefinement: usedRefinement,
		WordCount:      transcript.WordCount(final),
	}
}

// DisplayText prefers the final text and falls back to the raw transcript.
func (e Entry) DisplayText() string {
	if strings.TrimSpace(e.FinalText) != "" {
		return e.FinalText
	}
	return e.RawTranscript
}

// Preview is DisplayText cut to 80 runes.
func (e Entry) Preview() string {
	return transcript.Preview(e.DisplayText(), previewRunes)
}
