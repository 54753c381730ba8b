package config

import (
	"fmt"
	"net/url"
	"sort"
	"strings"

	"github.com/rbright/murmur/internal/refine"
)

// Validate enforces config invariants and returns non-fatal warnings.
func Validate(cfg Config) ([]Warning, error) {
	warnings := make([]Warning, 0)

	if strings.TrimSpace(cfg.Recognizer.GRPC) == "" {
		return nil, fmt.Errorf("recognizer.grpc must not be empty")
	}
	if strings.TrimSpace(cfg.Recognizer.LanguageCode) == "" {
		return nil, fmt.Errorf("recognizer.language_code must not be empty")
	}
	if cfg.Recognizer.FinalizeTimeoutMS <= 0 {
		return nil, fmt.Errorf("recognizer.finalize_timeout_ms must be > 0")
	}
	if cfg.Recognizer.DialTimeoutMS <= 0 {
		return nil, fmt.Errorf("recognizer.dial_timeout_ms must be > 0")
	}

	if cfg.Hotkey.Enable && strings.TrimSpace(cfg.Hotkey.Binding) == "" {
		return nil, fmt.Errorf("hotkey.binding must not be empty when hotkey.enable=true")
	}
	if cfg.Hotkey.DebounceMS < 0 {
		return nil, fmt.Errorf("hotkey.debounce_ms must be >= 0")
	}

	if err := validateRefinement(cfg.Refinement); err != nil {
		return nil, err
	}

	switch strings.ToLower(cfg.Paste.Backend) {
	case "keys", "hypr":
	default:
		return nil, fmt.Errorf("paste.backend must be one of: keys, hypr")
	}
	if cfg.Paste.Enable && cfg.PasteCmd.Raw != "" && len(cfg.PasteCmd.Argv) == 0 {
		return nil, fmt.Errorf("paste_cmd is configured but empty")
	}
	if cfg.Paste.Enable && len(cfg.PasteCmd.Argv) == 0 && strings.ToLower(cfg.Paste.Backend) == "hypr" && strings.TrimSpace(cfg.Paste.Shortcut) == "" {
		return nil, fmt.Errorf("paste.shortcut must not be empty when paste.backend=hypr")
	}
	if cfg.Clipboard.Raw != "" && len(cfg.Clipboard.Argv) == 0 {
		return nil, fmt.Errorf("clipboard_cmd is configured but empty")
	}

	switch strings.ToLower(cfg.Indicator.Backend) {
	case "desktop", "hypr", "none":
	default:
		return nil, fmt.Errorf("indicator.backend must be one of: desktop, hypr, none")
	}
	if cfg.Indicator.ErrorTimeoutMS < 0 {
		return nil, fmt.Errorf("indicator.error_timeout_ms must be >= 0")
	}

	switch strings.ToLower(cfg.Log.Level) {
	case "debug", "info", "warn", "error":
	default:
		return nil, fmt.Errorf("log.level must be one of: debug, info, warn, error")
	}

	if cfg.Vocab.MaxPhrases <= 0 {
		return nil, fmt.Errorf("vocab.max_phrases must be > 0")
	}
	_, vocabWarnings, err := BuildSpeechPhrases(cfg)
	if err != nil {
		return nil, err
	}
	warnings = append(warnings, vocabWarnings...)

	return warnings, nil
}

func validateRefinement(cfg RefinementConfig) error {
	if _, err := refine.ParseWritingStyle(cfg.WritingStyle); err != nil {
		return fmt.Errorf("refinement.writing_style: %w", err)
	}
	if _, err := refine.ParseFormality(cfg.Formality); err != nil {
		return fmt.Errorf("refinement.formality: %w", err)
	}
	if cfg.TimeoutMS < 0 {
		return fmt.Errorf("refinement.timeout_ms must be >= 0")
	}
	if !cfg.Enable {
		return nil
	}

	if strings.TrimSpace(cfg.Model) == "" {
		return fmt.Errorf("refinement.model must not be empty when refinement.enable=true")
	}
	parsed, err := url.Parse(cfg.BaseURL)
	if err != nil || (parsed.Scheme != "http" && parsed.Scheme != "https") || parsed.Host == "" {
		return fmt.Errorf("refinement.base_url must be an http(s) URL, got %q", cfg.BaseURL)
	}
	return nil
}

// BuildSpeechPhrases merges enabled vocab sets into deterministic recognizer phrase payloads.
func BuildSpeechPhrases(cfg Config) ([]SpeechPhrase, []Warning, error) {
	if len(cfg.Vocab.GlobalSets) == 0 {
		return nil, nil, nil
	}

	type candidate struct {
		boost float64
		from  string
	}

	warnings := make([]Warning, 0)
	selected := make(map[string]candidate)

	for _, name := range cfg.Vocab.GlobalSets {
		set, ok := cfg.Vocab.Sets[name]
		if !ok {
			return nil, nil, fmt.Errorf("vocab.global references unknown set %q", name)
		}
		for _, phrase := range set.Phrases {
			phrase = strings.TrimSpace(phrase)
			if phrase == "" {
				continue
			}
			existing, exists := selected[phrase]
			if !exists {
				selected[phrase] = candidate{boost: set.Boost, from: name}
				continue
			}
			if set.Boost > existing.boost {
				warnings = append(warnings, Warning{Message: fmt.Sprintf("phrase %q present in %q and %q; using higher boost %.2f", phrase, existing.from, name, set.Boost)})
				selected[phrase] = candidate{boost: set.Boost, from: name}
			}
		}
	}

	if len(selected) > cfg.Vocab.MaxPhrases {
		return nil, nil, fmt.Errorf("vocabulary phrase count %d exceeds vocab.max_phrases=%d", len(selected), cfg.Vocab.MaxPhrases)
	}

	phrases := make([]SpeechPhrase, 0, len(selected))
	for phrase, c := range selected {
		phrases = append(phrases, SpeechPhrase{Phrase: phrase, Boost: float32(c.boost)})
	}
	sort.Slice(phrases, func(i, j int) bool {
		return phrases[i].Phrase < phrases[j].Phrase
	})

	return phrases, warnings, nil
}
