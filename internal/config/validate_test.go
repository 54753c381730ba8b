package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDefaultValidates(t *testing.T) {
	warnings, err := Validate(Default())
	require.NoError(t, err)
	require.Empty(t, warnings)
}

func TestDefaultDeliversTranscriptVerbatim(t *testing.T) {
	cfg := Default()
	require.False(t, cfg.Transcript.TrailingSpace)
	require.False(t, cfg.Transcript.CapitalizeSentences)
}

func TestBuildSpeechPhrasesSortedAndHighestBoostWins(t *testing.T) {
	cfg := Default()
	cfg.Vocab.GlobalSets = []string{"low", "high"}
	cfg.Vocab.Sets = map[string]VocabSet{
		"low":  {Name: "low", Boost: 2, Phrases: []string{"zeta", "alpha", " "}},
		"high": {Name: "high", Boost: 9, Phrases: []string{"alpha"}},
	}

	phrases, warnings, err := BuildSpeechPhrases(cfg)
	require.NoError(t, err)
	require.Equal(t, []SpeechPhrase{{Phrase: "alpha", Boost: 9}, {Phrase: "zeta", Boost: 2}}, phrases)
	require.Len(t, warnings, 1)
	require.Contains(t, warnings[0].Message, "higher boost")
}

func TestBuildSpeechPhrasesUnknownSetAndLimit(t *testing.T) {
	cfg := Default()
	cfg.Vocab.GlobalSets = []string{"missing"}
	_, _, err := BuildSpeechPhrases(cfg)
	require.ErrorContains(t, err, "unknown set")

	cfg.Vocab.GlobalSets = []string{"big"}
	cfg.Vocab.Sets = map[string]VocabSet{"big": {Phrases: []string{"a", "b", "c"}}}
	cfg.Vocab.MaxPhrases = 2
	_, _, err = BuildSpeechPhrases(cfg)
	require.ErrorContains(t, err, "exceeds vocab.max_phrases")
}

func TestValidateRejectsInvalidFields(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr string
	}{
		{name: "empty grpc", mutate: func(c *Config) { c.Recognizer.GRPC = " " }, wantErr: "recognizer.grpc"},
		{name: "empty language", mutate: func(c *Config) { c.Recognizer.LanguageCode = "" }, wantErr: "recognizer.language_code"},
		{name: "finalize timeout", mutate: func(c *Config) { c.Recognizer.FinalizeTimeoutMS = 0 }, wantErr: "finalize_timeout_ms"},
		{name: "dial timeout", mutate: func(c *Config) { c.Recognizer.DialTimeoutMS = -1 }, wantErr: "dial_timeout_ms"},
		{name: "hotkey binding", mutate: func(c *Config) { c.Hotkey.Binding = "" }, wantErr: "hotkey.binding"},
		{name: "hotkey debounce", mutate: func(c *Config) { c.Hotkey.DebounceMS = -5 }, wantErr: "debounce_ms"},
		{name: "writing style", mutate: func(c *Config) { c.Refinement.WritingStyle = "poetic" }, wantErr: "writing_style"},
		{name: "formality", mutate: func(c *Config) { c.Refinement.Formality = "stiff" }, wantErr: "formality"},
		{name: "base url", mutate: func(c *Config) { c.Refinement.BaseURL = "localhost:4000" }, wantErr: "base_url"},
		{name: "model", mutate: func(c *Config) { c.Refinement.Model = "" }, wantErr: "refinement.model"},
		{name: "paste backend", mutate: func(c *Config) { c.Paste.Backend = "xdotool" }, wantErr: "paste.backend"},
		{name: "hypr shortcut", mutate: func(c *Config) { c.Paste.Backend = "hypr"; c.Paste.Shortcut = "" }, wantErr: "paste.shortcut"},
		{name: "empty paste cmd", mutate: func(c *Config) { c.PasteCmd = CommandConfig{Raw: "# nothing"} }, wantErr: "paste_cmd"},
		{name: "empty clipboard cmd", mutate: func(c *Config) { c.Clipboard = CommandConfig{Raw: "# nothing"} }, wantErr: "clipboard_cmd"},
		{name: "indicator backend", mutate: func(c *Config) { c.Indicator.Backend = "tray" }, wantErr: "indicator.backend"},
		{name: "indicator timeout", mutate: func(c *Config) { c.Indicator.ErrorTimeoutMS = -1 }, wantErr: "error_timeout_ms"},
		{name: "log level", mutate: func(c *Config) { c.Log.Level = "trace" }, wantErr: "log.level"},
		{name: "max phrases", mutate: func(c *Config) { c.Vocab.MaxPhrases = 0 }, wantErr: "max_phrases"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			cfg := Default()
			tc.mutate(&cfg)
			_, err := Validate(cfg)
			require.Error(t, err)
			require.Contains(t, err.Error(), tc.wantErr)
		})
	}
}

func TestValidateSkipsRefinementEndpointWhenDisabled(t *testing.T) {
	cfg := Default()
	cfg.Refinement.Enable = false
	cfg.Refinement.BaseURL = ""
	cfg.Refinement.Model = ""

	_, err := Validate(cfg)
	require.NoError(t, err)
}
