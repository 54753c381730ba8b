package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseValidConfig(t *testing.T) {
	content := `
{
  "recognizer": {
    "grpc": "127.0.0.1:50051",
    "language_code": "en-US",
    "model": "parakeet",
    "automatic_punctuation": false,
    "finalize_timeout_ms": 1500,
  },
  "audio": { "input": "elgato", "fallback": "default" },
  "hotkey": { "binding": "ctrl+alt+d", "debounce_ms": 80 },
  "refinement": {
    "enable": true,
    "base_url": "https://llm.example.com",
    "api_key": "sk-live",
    "model": "gpt-4o",
    "remove_filler": false,
    "writing_style": "Technical",
    "formality": "formal",
  },
  "paste": { "enable": true, "backend": "hypr", "shortcut": " SUPER,V " },
  "transcript": { "trailing_space": true, "capitalize_sentences": true },
  "indicator": { "backend": "none", "sound_start_file": " /tmp/start.wav " },
  "history": { "enable": false, "path": "/tmp/murmur-history" },
  "clipboard_cmd": "wl-copy --trim-newline",
  "vocab": {
    "global": ["team"],
    "sets": { "team": { "boost": 14, "phrases": ["Hyprland", "murmur"] } },
  },
  "log": { "level": "debug" },
  "debug": { "audio_dump": true },
}
`

	cfg, warnings, err := Parse(content, Default())
	require.NoError(t, err)
	require.Empty(t, warnings)

	require.Equal(t, "parakeet", cfg.Recognizer.Model)
	require.False(t, cfg.Recognizer.AutomaticPunctuation)
	require.Equal(t, 1500, cfg.Recognizer.FinalizeTimeoutMS)
	require.Equal(t, 3000, cfg.Recognizer.DialTimeoutMS)
	require.Equal(t, "elgato", cfg.Audio.Input)
	require.Equal(t, "ctrl+alt+d", cfg.Hotkey.Binding)
	require.Equal(t, 80, cfg.Hotkey.DebounceMS)
	require.True(t, cfg.Hotkey.Enable)
	require.Equal(t, "https://llm.example.com", cfg.Refinement.BaseURL)
	require.Equal(t, "sk-live", cfg.Refinement.ResolvedAPIKey())
	require.False(t, cfg.Refinement.RemoveFiller)
	require.True(t, cfg.Refinement.AutoFormat)
	require.Equal(t, "Technical", cfg.Refinement.WritingStyle)
	require.Equal(t, "hypr", cfg.Paste.Backend)
	require.Equal(t, "SUPER,V", cfg.Paste.Shortcut)
	require.True(t, cfg.Transcript.TrailingSpace)
	require.True(t, cfg.Transcript.CapitalizeSentences)
	require.Equal(t, "none", cfg.Indicator.Backend)
	require.Equal(t, "/tmp/start.wav", cfg.Indicator.SoundStartFile)
	require.False(t, cfg.History.Enable)
	require.Equal(t, "/tmp/murmur-history", cfg.History.Path)
	require.Equal(t, []string{"wl-copy", "--trim-newline"}, cfg.Clipboard.Argv)
	require.Equal(t, "debug", cfg.Log.Level)
	require.True(t, cfg.Debug.EnableAudioDump)

	phrases, _, err := BuildSpeechPhrases(cfg)
	require.NoError(t, err)
	require.Equal(t, []SpeechPhrase{{Phrase: "Hyprland", Boost: 14}, {Phrase: "murmur", Boost: 14}}, phrases)
}

func TestParseEmptyContentValidatesBase(t *testing.T) {
	cfg, _, err := Parse("  \n", Default())
	require.NoError(t, err)
	require.Equal(t, Default().Recognizer, cfg.Recognizer)
}

func TestParseUnknownKeyFails(t *testing.T) {
	_, _, err := Parse(`{"recognizer": {"grcp": "x"}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "unknown field")
}

func TestParseTypeErrorIncludesLocation(t *testing.T) {
	_, _, err := Parse("{\n  \"hotkey\": {\n    \"debounce_ms\": \"fast\"\n  }\n}", Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "line 3")
}

func TestParseRejectsMultipleTopLevelValues(t *testing.T) {
	_, _, err := Parse(`{} {}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "multiple JSON values")
}

func TestParseRejectsInvalidCommandArgv(t *testing.T) {
	_, _, err := Parse(`{"paste_cmd": "xdotool \"unterminated"}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "invalid paste_cmd")
}

func TestParseVocabRejectsEmptySetName(t *testing.T) {
	_, _, err := Parse(`{"vocab": {"sets": {" ": {"phrases": ["x"]}}}}`, Default())
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty set name")
}

func TestParseVocabGlobalSupportsCommaString(t *testing.T) {
	cfg, _, err := Parse(`{"vocab": {"global": "a, b", "sets": {"a": {"phrases": ["x"]}, "b": {"phrases": ["y"]}}}}`, Default())
	require.NoError(t, err)
	require.Equal(t, []string{"a", "b"}, cfg.Vocab.GlobalSets)
}

func TestRefinementAPIKeyFromEnvironment(t *testing.T) {
	t.Setenv("MURMUR_TEST_KEY", " sk-env ")

	cfg, _, err := Parse(`{"refinement": {"api_key_env": "MURMUR_TEST_KEY"}}`, Default())
	require.NoError(t, err)
	require.Equal(t, "sk-env", cfg.Refinement.ResolvedAPIKey())

	cfg.Refinement.APIKey = "literal"
	require.Equal(t, "literal", cfg.Refinement.ResolvedAPIKey())
}

func TestDurationsFromMilliseconds(t *testing.T) {
	cfg := Default()
	require.Equal(t, "2s", cfg.Recognizer.FinalizeTimeout().String())
	require.Equal(t, "3s", cfg.Recognizer.DialTimeout().String())
	require.Equal(t, "50ms", cfg.Hotkey.Debounce().String())
	require.Equal(t, "15s", cfg.Refinement.Timeout().String())
}
