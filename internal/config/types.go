// Package config resolves, parses, validates, and defaults murmur configuration.
package config

import (
	"os"
	"strings"
	"time"
)

// Config is the fully materialized runtime configuration used by murmur.
type Config struct {
	Recognizer RecognizerConfig
	Audio      AudioConfig
	Hotkey     HotkeyConfig
	Refinement RefinementConfig
	Paste      PasteConfig
	Transcript TranscriptConfig
	Indicator  IndicatorConfig
	History    HistoryConfig
	Clipboard  CommandConfig
	PasteCmd   CommandConfig
	Vocab      VocabConfig
	Log        LogConfig
	Debug      DebugConfig
}

// RecognizerConfig controls the streaming recognizer connection.
type RecognizerConfig struct {
	GRPC                 string
	LanguageCode         string
	Model                string
	AutomaticPunctuation bool
	FinalizeTimeoutMS    int
	DialTimeoutMS        int
}

func (c RecognizerConfig) FinalizeTimeout() time.Duration {
	return time.Duration(c.FinalizeTimeoutMS) * time.Millisecond
}

func (c RecognizerConfig) DialTimeout() time.Duration {
	return time.Duration(c.DialTimeoutMS) * time.Millisecond
}

// AudioConfig controls preferred and fallback input-source selection.
type AudioConfig struct {
	Input    string
	Fallback string
}

// HotkeyConfig controls the global hold-to-talk binding.
type HotkeyConfig struct {
	Enable     bool
	Binding    string
	DebounceMS int
}

func (c HotkeyConfig) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}

// RefinementConfig controls the optional language-model cleanup pass.
type RefinementConfig struct {
	Enable       bool
	BaseURL      string
	APIKey       string
	APIKeyEnv    string
	Model        string
	RemoveFiller bool
	AutoFormat   bool
	WritingStyle string
	Formality    string
	TimeoutMS    int
}

// ResolvedAPIKey prefers the literal key, then the configured environment variable.
func (c RefinementConfig) ResolvedAPIKey() string {
	if key := strings.TrimSpace(c.APIKey); key != "" {
		return key
	}
	if name := strings.TrimSpace(c.APIKeyEnv); name != "" {
		return strings.TrimSpace(os.Getenv(name))
	}
	return ""
}

func (c RefinementConfig) Timeout() time.Duration {
	return time.Duration(c.TimeoutMS) * time.Millisecond
}

// PasteConfig controls post-commit paste behavior.
type PasteConfig struct {
	Enable   bool
	Backend  string
	Shortcut string
}

// TranscriptConfig controls transcript normalization and paste formatting.
type TranscriptConfig struct {
	TrailingSpace       bool
	CapitalizeSentences bool
}

// IndicatorConfig controls notification and audio cue behavior.
type IndicatorConfig struct {
	Enable            bool
	Backend           string
	AppName           string
	SoundEnable       bool
	SoundStartFile    string
	SoundStopFile     string
	SoundCompleteFile string
	SoundCancelFile   string
	TextRecording     string
	TextFinalizing    string
	TextError         string
	ErrorTimeoutMS    int
}

// HistoryConfig controls session persistence.
type HistoryConfig struct {
	Enable bool
	Path   string
}

// CommandConfig stores a raw command string and its parsed argv form.
type CommandConfig struct {
	Raw  string
	Argv []string
}

// VocabConfig controls enabled speech phrase sets and dedupe limits.
type VocabConfig struct {
	GlobalSets []string
	Sets       map[string]VocabSet
	MaxPhrases int
}

// VocabSet is one named phrase group with a shared boost value.
type VocabSet struct {
	Name    string
	Boost   float64
	Phrases []string
}

// LogConfig controls runtime log verbosity.
type LogConfig struct {
	Level string
}

// DebugConfig controls optional debug artifact output.
type DebugConfig struct {
	EnableAudioDump bool
	EnableGRPCDump  bool
}

// Warning is a non-fatal parse/validation message.
type Warning struct {
	Line    int
	Message string
}

// SpeechPhrase is the normalized phrase payload sent to the recognizer.
type SpeechPhrase struct {
	Phrase string
	Boost  float32
}
