package config

// Default returns the canonical runtime configuration used when no file is present.
func Default() Config {
	return Config{
		Recognizer: RecognizerConfig{
			GRPC:                 "127.0.0.1:50051",
			LanguageCode:         "en-US",
			AutomaticPunctuation: true,
			FinalizeTimeoutMS:    2000,
			DialTimeoutMS:        3000,
		},
		Audio: AudioConfig{
			Input:    "default",
			Fallback: "default",
		},
		Hotkey: HotkeyConfig{
			Enable:     true,
			Binding:    "ctrl+shift+space",
			DebounceMS: 50,
		},
		Refinement: RefinementConfig{
			Enable:       true,
			BaseURL:      "http://127.0.0.1:4000",
			APIKeyEnv:    "MURMUR_API_KEY",
			Model:        "gpt-4o-mini",
			RemoveFiller: true,
			AutoFormat:   true,
			WritingStyle: "professional",
			Formality:    "neutral",
			TimeoutMS:    15000,
		},
		Paste:      PasteConfig{Enable: true, Backend: "keys", Shortcut: "CTRL,V"},
		Transcript: TranscriptConfig{},
		Indicator: IndicatorConfig{
			Enable:         true,
			Backend:        "desktop",
			AppName:        "murmur",
			SoundEnable:    true,
			ErrorTimeoutMS: 1600,
		},
		History: HistoryConfig{Enable: true},
		Vocab: VocabConfig{
			Sets:       map[string]VocabSet{},
			MaxPhrases: 1024,
		},
		Log: LogConfig{Level: "info"},
	}
}
