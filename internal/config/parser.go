package config

import (
	"encoding/json"
	"fmt"
	"strings"
)

type jsoncConfig struct {
	Recognizer *jsoncRecognizer `json:"recognizer"`
	Audio      *jsoncAudio      `json:"audio"`
	Hotkey     *jsoncHotkey     `json:"hotkey"`
	Refinement *jsoncRefinement `json:"refinement"`
	Paste      *jsoncPaste      `json:"paste"`
	Transcript *jsoncTranscript `json:"transcript"`
	Indicator  *jsoncIndicator  `json:"indicator"`
	History    *jsoncHistory    `json:"history"`

	ClipboardCmd *string     `json:"clipboard_cmd"`
	PasteCmd     *string     `json:"paste_cmd"`
	Vocab        *jsoncVocab `json:"vocab"`
	Log          *jsoncLog   `json:"log"`
	Debug        *jsoncDebug `json:"debug"`
}

type jsoncRecognizer struct {
	GRPC                 *string `json:"grpc"`
	LanguageCode         *string `json:"language_code"`
	Model                *string `json:"model"`
	AutomaticPunctuation *bool   `json:"automatic_punctuation"`
	FinalizeTimeoutMS    *int    `json:"finalize_timeout_ms"`
	DialTimeoutMS        *int    `json:"dial_timeout_ms"`
}

type jsoncAudio struct {
	Input    *string `json:"input"`
	Fallback *string `json:"fallback"`
}

type jsoncHotkey struct {
	Enable     *bool   `json:"enable"`
	Binding    *string `json:"binding"`
	DebounceMS *int    `json:"debounce_ms"`
}

type jsoncRefinement struct {
	Enable       *bool   `json:"enable"`
	BaseURL      *string `json:"base_url"`
	APIKey       *string `json:"api_key"`
	APIKeyEnv    *string `json:"api_key_env"`
	Model        *string `json:"model"`
	RemoveFiller *bool   `json:"remove_filler"`
	AutoFormat   *bool   `json:"auto_format"`
	WritingStyle *string `json:"writing_style"`
	Formality    *string `json:"formality"`
	TimeoutMS    *int    `json:"timeout_ms"`
}

type jsoncPaste struct {
	Enable   *bool   `json:"enable"`
	Backend  *string `json:"backend"`
	Shortcut *string `json:"shortcut"`
}

type jsoncTranscript struct {
	TrailingSpace       *bool `json:"trailing_space"`
	CapitalizeSentences *bool `json:"capitalize_sentences"`
}

type jsoncIndicator struct {
	Enable            *bool   `json:"enable"`
	Backend           *string `json:"backend"`
	AppName           *string `json:"app_name"`
	SoundEnable       *bool   `json:"sound_enable"`
	SoundStartFile    *string `json:"sound_start_file"`
	SoundStopFile     *string `json:"sound_stop_file"`
	SoundCompleteFile *string `json:"sound_complete_file"`
	SoundCancelFile   *string `json:"sound_cancel_file"`
	TextRecording     *string `json:"text_recording"`
	TextFinalizing    *string `json:"text_finalizing"`
	TextError         *string `json:"text_error"`
	ErrorTimeoutMS    *int    `json:"error_timeout_ms"`
}

type jsoncHistory struct {
	Enable *bool   `json:"enable"`
	Path   *string `json:"path"`
}

type jsoncVocab struct {
	Global     *jsoncStringList         `json:"global"`
	MaxPhrases *int                     `json:"max_phrases"`
	Sets       map[string]jsoncVocabSet `json:"sets"`
}

type jsoncVocabSet struct {
	Boost   *float64 `json:"boost"`
	Phrases []string `json:"phrases"`
}

type jsoncLog struct {
	Level *string `json:"level"`
}

type jsoncDebug struct {
	AudioDump *bool `json:"audio_dump"`
	GRPCDump  *bool `json:"grpc_dump"`
}

// jsoncStringList accepts either a string array or one comma-delimited string.
type jsoncStringList []string

func (l *jsoncStringList) UnmarshalJSON(data []byte) error {
	var list []string
	if err := json.Unmarshal(data, &list); err == nil {
		*l = list
		return nil
	}

	var single string
	if err := json.Unmarshal(data, &single); err != nil {
		return fmt.Errorf("expected string array or comma-delimited string")
	}
	out := make([]string, 0)
	for _, part := range strings.Split(single, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	*l = out
	return nil
}

// Parse reads JSONC configuration content on top of base and validates the result.
func Parse(content string, base Config) (Config, []Warning, error) {
	if strings.TrimSpace(content) == "" {
		warnings, err := Validate(base)
		if err != nil {
			return Config{}, nil, err
		}
		return base, warnings, nil
	}

	normalized, err := normalizeJSONC(content)
	if err != nil {
		return Config{}, nil, err
	}

	decoder := json.NewDecoder(strings.NewReader(normalized))
	decoder.DisallowUnknownFields()

	var payload jsoncConfig
	if err := decoder.Decode(&payload); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}
	if err := ensureSingleJSONValue(decoder); err != nil {
		return Config{}, nil, wrapJSONDecodeError(normalized, err)
	}

	cfg := base
	if err := payload.applyTo(&cfg); err != nil {
		return Config{}, nil, err
	}

	warnings, err := Validate(cfg)
	if err != nil {
		return Config{}, nil, err
	}
	return cfg, warnings, nil
}

func setString(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func setValue[T any](dst *T, src *T) {
	if src != nil {
		*dst = *src
	}
}

func (payload jsoncConfig) applyTo(cfg *Config) error {
	if r := payload.Recognizer; r != nil {
		setString(&cfg.Recognizer.GRPC, r.GRPC)
		setString(&cfg.Recognizer.LanguageCode, r.LanguageCode)
		setString(&cfg.Recognizer.Model, r.Model)
		setValue(&cfg.Recognizer.AutomaticPunctuation, r.AutomaticPunctuation)
		setValue(&cfg.Recognizer.FinalizeTimeoutMS, r.FinalizeTimeoutMS)
		setValue(&cfg.Recognizer.DialTimeoutMS, r.DialTimeoutMS)
	}

	if a := payload.Audio; a != nil {
		setString(&cfg.Audio.Input, a.Input)
		setString(&cfg.Audio.Fallback, a.Fallback)
	}

	if h := payload.Hotkey; h != nil {
		setValue(&cfg.Hotkey.Enable, h.Enable)
		setString(&cfg.Hotkey.Binding, h.Binding)
		setValue(&cfg.Hotkey.DebounceMS, h.DebounceMS)
	}

	if r := payload.Refinement; r != nil {
		setValue(&cfg.Refinement.Enable, r.Enable)
		setString(&cfg.Refinement.BaseURL, r.BaseURL)
		setString(&cfg.Refinement.APIKey, r.APIKey)
		setString(&cfg.Refinement.APIKeyEnv, r.APIKeyEnv)
		setString(&cfg.Refinement.Model, r.Model)
		setValue(&cfg.Refinement.RemoveFiller, r.RemoveFiller)
		setValue(&cfg.Refinement.AutoFormat, r.AutoFormat)
		setString(&cfg.Refinement.WritingStyle, r.WritingStyle)
		setString(&cfg.Refinement.Formality, r.Formality)
		setValue(&cfg.Refinement.TimeoutMS, r.TimeoutMS)
	}

	if p := payload.Paste; p != nil {
		setValue(&cfg.Paste.Enable, p.Enable)
		setString(&cfg.Paste.Backend, p.Backend)
		setString(&cfg.Paste.Shortcut, p.Shortcut)
	}

	if t := payload.Transcript; t != nil {
		setValue(&cfg.Transcript.TrailingSpace, t.TrailingSpace)
		setValue(&cfg.Transcript.CapitalizeSentences, t.CapitalizeSentences)
	}

	if i := payload.Indicator; i != nil {
		setValue(&cfg.Indicator.Enable, i.Enable)
		setString(&cfg.Indicator.Backend, i.Backend)
		setString(&cfg.Indicator.AppName, i.AppName)
		setValue(&cfg.Indicator.SoundEnable, i.SoundEnable)
		setString(&cfg.Indicator.SoundStartFile, i.SoundStartFile)
		setString(&cfg.Indicator.SoundStopFile, i.SoundStopFile)
		setString(&cfg.Indicator.SoundCompleteFile, i.SoundCompleteFile)
		setString(&cfg.Indicator.SoundCancelFile, i.SoundCancelFile)
		setValue(&cfg.Indicator.TextRecording, i.TextRecording)
		setValue(&cfg.Indicator.TextFinalizing, i.TextFinalizing)
		setValue(&cfg.Indicator.TextError, i.TextError)
		setValue(&cfg.Indicator.ErrorTimeoutMS, i.ErrorTimeoutMS)
	}

	if h := payload.History; h != nil {
		setValue(&cfg.History.Enable, h.Enable)
		setString(&cfg.History.Path, h.Path)
	}

	if payload.ClipboardCmd != nil {
		command, err := parseCommand("clipboard_cmd", *payload.ClipboardCmd)
		if err != nil {
			return err
		}
		cfg.Clipboard = command
	}

	if payload.PasteCmd != nil {
		command, err := parseCommand("paste_cmd", *payload.PasteCmd)
		if err != nil {
			return err
		}
		cfg.PasteCmd = command
	}

	if v := payload.Vocab; v != nil {
		if err := v.applyTo(&cfg.Vocab); err != nil {
			return err
		}
	}

	if l := payload.Log; l != nil {
		setString(&cfg.Log.Level, l.Level)
	}

	if d := payload.Debug; d != nil {
		setValue(&cfg.Debug.EnableAudioDump, d.AudioDump)
		setValue(&cfg.Debug.EnableGRPCDump, d.GRPCDump)
	}

	return nil
}

func parseCommand(field string, raw string) (CommandConfig, error) {
	argv, err := parseArgv(raw)
	if err != nil {
		return CommandConfig{}, fmt.Errorf("invalid %s: %w", field, err)
	}
	return CommandConfig{Raw: raw, Argv: argv}, nil
}

func (v jsoncVocab) applyTo(vocab *VocabConfig) error {
	if v.Global != nil {
		vocab.GlobalSets = nil
		for _, name := range *v.Global {
			if name = strings.TrimSpace(name); name != "" {
				vocab.GlobalSets = append(vocab.GlobalSets, name)
			}
		}
	}
	setValue(&vocab.MaxPhrases, v.MaxPhrases)

	if v.Sets == nil {
		return nil
	}
	if vocab.Sets == nil {
		vocab.Sets = make(map[string]VocabSet)
	}
	for name, set := range v.Sets {
		trimmed := strings.TrimSpace(name)
		if trimmed == "" {
			return fmt.Errorf("vocab.sets contains an empty set name")
		}
		entry := VocabSet{Name: trimmed, Phrases: append([]string(nil), set.Phrases...)}
		setValue(&entry.Boost, set.Boost)
		vocab.Sets[trimmed] = entry
	}
	return nil
}
