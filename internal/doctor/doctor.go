// Package doctor runs runtime readiness diagnostics for config, tools, audio,
// the recognizer, and the refinement endpoint.
package doctor

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/rbright/murmur/internal/asr"
	"github.com/rbright/murmur/internal/audio"
	"github.com/rbright/murmur/internal/config"
	"github.com/rbright/murmur/internal/hotkey"
	"github.com/rbright/murmur/internal/hypr"
)

const probeTimeout = 2 * time.Second

// Check is one doctor assertion result.
type Check struct {
	Name    string
	Pass    bool
	Message string
}

// Report is the full doctor output contract.
type Report struct {
	Checks []Check
}

// OK returns true when all checks pass.
func (r Report) OK() bool {
	for _, check := range r.Checks {
		if !check.Pass {
			return false
		}
	}
	return true
}

// String renders the report as plain text.
func (r Report) String() string {
	var b strings.Builder
	for _, check := range r.Checks {
		status := "OK"
		if !check.Pass {
			status = "FAIL"
		}
		b.WriteString(fmt.Sprintf("[%s] %s: %s\n", status, check.Name, check.Message))
	}
	return strings.TrimSuffix(b.String(), "\n")
}

// Render styles the report for w. Color is dropped when w is not a terminal.
func (r Report) Render(w io.Writer) string {
	renderer := lipgloss.NewRenderer(w)
	okStyle := renderer.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	failStyle := renderer.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	nameStyle := renderer.NewStyle().Bold(true)
	messageStyle := renderer.NewStyle().Foreground(lipgloss.Color("245"))

	lines := make([]string, 0, len(r.Checks))
	for _, check := range r.Checks {
		status := okStyle.Render("[OK]")
		if !check.Pass {
			status = failStyle.Render("[FAIL]")
		}
		lines = append(lines, fmt.Sprintf("%s %s: %s", status, nameStyle.Render(check.Name), messageStyle.Render(check.Message)))
	}
	return strings.Join(lines, "\n")
}

// probes are the network seams doctor uses.
type probes struct {
	recognizerDialer func(context.Context, string) (net.Conn, error)
	httpClient       *http.Client
	selectDevice     func(ctx context.Context, input string, fallback string) (audio.Selection, error)
}

func defaultProbes() probes {
	return probes{
		httpClient:   &http.Client{Timeout: probeTimeout},
		selectDevice: audio.SelectDevice,
	}
}

// Run executes environment/config/runtime checks for a loaded config.
func Run(ctx context.Context, cfg config.Loaded) Report {
	return run(ctx, cfg, defaultProbes())
}

func run(ctx context.Context, loaded config.Loaded, p probes) Report {
	cfg := loaded.Config
	checks := []Check{checkConfig(loaded)}

	checks = append(checks, checkRecognizer(ctx, cfg.Recognizer, p.recognizerDialer))
	if cfg.Refinement.Enable {
		checks = append(checks, checkRefinement(ctx, cfg.Refinement, p.httpClient))
	}
	if cfg.Hotkey.Enable {
		checks = append(checks, checkHotkey(cfg.Hotkey))
	}

	if len(cfg.Clipboard.Argv) > 0 {
		checks = append(checks, checkCommand(cfg.Clipboard.Argv, "clipboard_cmd"))
	}
	if cfg.Paste.Enable {
		switch {
		case len(cfg.PasteCmd.Argv) > 0:
			checks = append(checks, checkCommand(cfg.PasteCmd.Argv, "paste_cmd"))
		case cfg.Paste.Backend == "hypr":
			checks = append(checks, checkHyprland(), checkBinary("hyprctl", "hypr paste backend requires hyprctl"))
		}
	}
	if cfg.Indicator.Enable && cfg.Indicator.Backend == "hypr" {
		checks = append(checks, checkBinary("hyprctl", "hypr indicator backend requires hyprctl"))
	}

	if cfg.History.Enable {
		checks = append(checks, checkHistoryDir(cfg.History))
	}
	checks = append(checks, checkAudioSelection(ctx, cfg.Audio, p.selectDevice))

	return Report{Checks: checks}
}

func checkConfig(loaded config.Loaded) Check {
	message := fmt.Sprintf("loaded %q", loaded.Path)
	if !loaded.Exists {
		message = fmt.Sprintf("using defaults (%q not found)", loaded.Path)
	}
	if n := len(loaded.Warnings); n > 0 {
		message = fmt.Sprintf("%s with %d warning(s)", message, n)
	}
	return Check{Name: "config", Pass: true, Message: message}
}

// checkRecognizer runs the gRPC health check against the configured endpoint.
func checkRecognizer(ctx context.Context, cfg config.RecognizerConfig, dialer func(context.Context, string) (net.Conn, error)) Check {
	status, err := asr.Probe(ctx, cfg.GRPC, cfg.DialTimeout(), dialer)
	if err != nil {
		return Check{Name: "recognizer", Pass: false, Message: err.Error()}
	}
	if status != "SERVING" {
		return Check{Name: "recognizer", Pass: false, Message: fmt.Sprintf("%s reports %s", cfg.GRPC, status)}
	}
	return Check{Name: "recognizer", Pass: true, Message: fmt.Sprintf("serving at %s", cfg.GRPC)}
}

// checkRefinement confirms the refinement endpoint answers and accepts the key.
func checkRefinement(ctx context.Context, cfg config.RefinementConfig, client *http.Client) Check {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	url := base + "/v1/models"

	reqCtx, cancel := context.WithTimeout(ctx, probeTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, url, nil)
	if err != nil {
		return Check{Name: "refinement", Pass: false, Message: fmt.Sprintf("build request: %v", err)}
	}
	apiKey := cfg.ResolvedAPIKey()
	if apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+apiKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Check{Name: "refinement", Pass: false, Message: fmt.Sprintf("request failed: %v", err)}
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 256))

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		hint := "api key rejected"
		if apiKey == "" {
			hint = fmt.Sprintf("no api key (set refinement.api_key or $%s)", cfg.APIKeyEnv)
		}
		return Check{Name: "refinement", Pass: false, Message: fmt.Sprintf("HTTP %d from %s: %s", resp.StatusCode, url, hint)}
	case resp.StatusCode >= 500:
		return Check{Name: "refinement", Pass: false, Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, url)}
	}
	return Check{Name: "refinement", Pass: true, Message: fmt.Sprintf("reachable at %s (model %s)", base, cfg.Model)}
}

func checkHotkey(cfg config.HotkeyConfig) Check {
	binding, err := hotkey.ParseBinding(cfg.Binding)
	if err != nil {
		return Check{Name: "hotkey", Pass: false, Message: err.Error()}
	}
	return Check{Name: "hotkey", Pass: true, Message: fmt.Sprintf("hold %s to dictate", binding)}
}

func checkHyprland() Check {
	if !hypr.Session() {
		return Check{Name: "HYPRLAND_INSTANCE_SIGNATURE", Pass: false, Message: "HYPRLAND_INSTANCE_SIGNATURE is empty"}
	}
	return Check{Name: "HYPRLAND_INSTANCE_SIGNATURE", Pass: true, Message: "Hyprland session detected"}
}

// checkCommand validates that argv contains a runnable command.
func checkCommand(argv []string, name string) Check {
	if len(argv) == 0 {
		return Check{Name: name, Pass: false, Message: "command is empty"}
	}
	return checkBinary(argv[0], fmt.Sprintf("%s command is available", name))
}

// checkBinary validates that a binary exists in PATH.
func checkBinary(bin string, okMsg string) Check {
	path, err := exec.LookPath(bin)
	if err != nil {
		return Check{Name: bin, Pass: false, Message: fmt.Sprintf("binary not found in PATH: %s", bin)}
	}
	return Check{Name: bin, Pass: true, Message: fmt.Sprintf("found at %s (%s)", path, okMsg)}
}

// checkHistoryDir confirms the history directory exists or can be created.
func checkHistoryDir(cfg config.HistoryConfig) Check {
	dir, err := cfg.ResolvedPath()
	if err != nil {
		return Check{Name: "history", Pass: false, Message: err.Error()}
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return Check{Name: "history", Pass: false, Message: fmt.Sprintf("create %s: %v", dir, err)}
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return Check{Name: "history", Pass: false, Message: fmt.Sprintf("%s is not writable: %v", dir, err)}
	}
	_ = probe.Close()
	_ = os.Remove(probe.Name())
	return Check{Name: "history", Pass: true, Message: fmt.Sprintf("writable at %s", filepath.Clean(dir))}
}

// checkAudioSelection runs live device selection to surface selection/fallback issues.
func checkAudioSelection(ctx context.Context, cfg config.AudioConfig, selectDevice func(context.Context, string, string) (audio.Selection, error)) Check {
	selection, err := selectDevice(ctx, cfg.Input, cfg.Fallback)
	if err != nil {
		return Check{Name: "audio.device", Pass: false, Message: err.Error()}
	}
	message := fmt.Sprintf("selected %q", selection.Device.ID)
	if selection.Warning != "" {
		message = message + " (" + selection.Warning + ")"
	}
	return Check{Name: "audio.device", Pass: true, Message: message}
}
