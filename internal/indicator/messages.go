package indicator

import (
	"strings"

	"github.com/rbright/murmur/internal/config"
)

type texts struct {
	recording  string
	finalizing string
	errorText  string
}

var defaultTexts = texts{
	recording:  "Recording…",
	finalizing: "Finishing…",
	errorText:  "Dictation failed",
}

func resolveTexts(cfg config.IndicatorConfig) texts {
	out := defaultTexts
	if v := strings.TrimSpace(cfg.TextRecording); v != "" {
		out.recording = v
	}
	if v := strings.TrimSpace(cfg.TextFinalizing); v != "" {
		out.finalizing = v
	}
	if v := strings.TrimSpace(cfg.TextError); v != "" {
		out.errorText = v
	}
	return out
}
