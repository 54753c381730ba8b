package refine

import (
	"fmt"
	"strings"
)

// WritingStyle selects the register the model writes in.
type WritingStyle string

const (
	StyleCasual       WritingStyle = "casual"
	StyleProfessional WritingStyle = "professional"
	StyleCreative     WritingStyle = "creative"
	StyleTechnical    WritingStyle = "technical"
)

// Formality selects the tone sentence appended to the prompt.
type Formality string

const (
	FormalityInformal Formality = "informal"
	FormalityNeutral  Formality = "neutral"
	FormalityFormal   Formality = "formal"
)

// Preferences drive the system prompt.
type Preferences struct {
	RemoveFillerWords bool
	AutoFormat        bool
	Style             WritingStyle
	Formality         Formality
}

// DefaultPreferences matches the shipped configuration defaults.
func DefaultPreferences() Preferences {
	return Preferences{
		RemoveFillerWords: true,
		AutoFormat:        true,
		Style:             StyleProfessional,
		Formality:         FormalityNeutral,
	}
}

// ParseWritingStyle accepts a style name case-insensitively.
func ParseWritingStyle(raw string) (WritingStyle, error) {
	switch style := WritingStyle(strings.ToLower(strings.TrimSpace(raw))); style {
	case StyleCasual, StyleProfessional, StyleCreative, StyleTechnical:
		return style, nil
	default:
		return "", fmt.Errorf("unknown writing style %q (want casual|professional|creative|technical)", raw)
	}
}

// ParseFormality accepts a formality name case-insensitively.
func ParseFormality(raw string) (Formality, error) {
	switch formality := Formality(strings.ToLower(strings.TrimSpace(raw))); formality {
	case FormalityInformal, FormalityNeutral, FormalityFormal:
		return formality, nil
	default:
		return "", fmt.Errorf("unknown formality %q (want informal|neutral|formal)", raw)
	}
}

// BuildSystemPrompt renders the instruction sent ahead of every transcript.
func BuildSystemPrompt(p Preferences) string {
	var b strings.Builder
	b.WriteString("You are a dictation assistant. Your job is to take spoken transcriptions and convert them into polished, well-formatted text.")

	if p.RemoveFillerWords {
		b.WriteString(" Remove filler words like 'um', 'uh', 'like', 'you know', etc.")
	}
	if p.AutoFormat {
		b.WriteString(" Add proper punctuation, capitalization, and paragraph breaks.")
	}

	style := p.Style
	if style == "" {
		style = StyleProfessional
	}
	fmt.Fprintf(&b, " Use a %s writing style.", strings.ToLower(string(style)))

	switch p.Formality {
	case FormalityInformal:
		b.WriteString(" Keep the tone informal and friendly.")
	case FormalityFormal:
		b.WriteString(" Use formal, polished language.")
	default:
		b.WriteString(" Use a neutral, balanced tone.")
	}

	b.WriteString(" Do NOT add extra content - only clean up what was spoken. Return ONLY the cleaned text, no explanations or meta-commentary.")
	return b.String()
}
