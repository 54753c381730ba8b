package doctor

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/rbright/murmur/internal/asr/asrtest"
	"github.com/rbright/murmur/internal/audio"
	"github.com/rbright/murmur/internal/config"
	"github.com/stretchr/testify/require"
)

func TestReportOKAndString(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "one", Pass: true, Message: "good"},
		{Name: "two", Pass: false, Message: "bad"},
	}}

	require.False(t, report.OK())
	text := report.String()
	require.Contains(t, text, "[OK] one: good")
	require.Contains(t, text, "[FAIL] two: bad")
}

func TestRenderWithoutTerminalIsPlain(t *testing.T) {
	report := Report{Checks: []Check{
		{Name: "recognizer", Pass: true, Message: "serving"},
		{Name: "hotkey", Pass: false, Message: "unknown modifier"},
	}}

	var out bytes.Buffer
	rendered := report.Render(&out)
	require.Equal(t, report.String(), rendered)
}

func TestCheckCommandEmpty(t *testing.T) {
	check := checkCommand(nil, "clipboard_cmd")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "command is empty")
}

func TestCheckBinaryMissing(t *testing.T) {
	check := checkBinary("definitely-not-a-real-binary", "unused")
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "binary not found")
}

func TestCheckCommandUsesBinaryFromPath(t *testing.T) {
	dir := t.TempDir()
	scriptPath := filepath.Join(dir, "fake-bin")
	require.NoError(t, os.WriteFile(scriptPath, []byte("#!/usr/bin/env bash\nexit 0\n"), 0o755))
	t.Setenv("PATH", dir+":"+os.Getenv("PATH"))

	check := checkCommand([]string{"fake-bin", "--arg"}, "paste_cmd")
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "paste_cmd command is available")
}

func TestCheckConfig(t *testing.T) {
	check := checkConfig(config.Loaded{Path: "/tmp/murmur.jsonc", Exists: true})
	require.True(t, check.Pass)
	require.Equal(t, `loaded "/tmp/murmur.jsonc"`, check.Message)

	check = checkConfig(config.Loaded{Path: "/tmp/missing.jsonc", Warnings: []config.Warning{{Message: "missing"}}})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "using defaults")
	require.Contains(t, check.Message, "1 warning(s)")
}

func TestCheckRecognizerServing(t *testing.T) {
	dialer := asrtest.Start(t, &asrtest.Server{})
	cfg := config.Default().Recognizer
	cfg.GRPC = asrtest.Endpoint

	check := checkRecognizer(context.Background(), cfg, dialer)
	require.True(t, check.Pass, check.Message)
	require.Contains(t, check.Message, "serving at")
}

func TestCheckRecognizerEmptyEndpoint(t *testing.T) {
	cfg := config.Default().Recognizer
	cfg.GRPC = ""

	check := checkRecognizer(context.Background(), cfg, nil)
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "endpoint is empty")
}

func TestCheckRefinement(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		apiKey      string
		wantPass    bool
		wantMessage string
	}{
		{name: "reachable", status: http.StatusOK, apiKey: "sk-test", wantPass: true, wantMessage: "reachable at"},
		{name: "no key", status: http.StatusUnauthorized, wantMessage: "no api key"},
		{name: "bad key", status: http.StatusForbidden, apiKey: "sk-bad", wantMessage: "api key rejected"},
		{name: "server error", status: http.StatusBadGateway, apiKey: "sk-test", wantMessage: "HTTP 502"},
		{name: "no models route", status: http.StatusNotFound, apiKey: "sk-test", wantPass: true, wantMessage: "reachable at"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var gotAuth, gotPath string
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotAuth = r.Header.Get("Authorization")
				gotPath = r.URL.Path
				w.WriteHeader(tc.status)
			}))
			t.Cleanup(server.Close)

			cfg := config.Default().Refinement
			cfg.BaseURL = server.URL + "/"
			cfg.APIKey = tc.apiKey
			cfg.APIKeyEnv = "MURMUR_DOCTOR_TEST_KEY"
			t.Setenv("MURMUR_DOCTOR_TEST_KEY", "")

			check := checkRefinement(context.Background(), cfg, server.Client())
			require.Equal(t, tc.wantPass, check.Pass, check.Message)
			require.Contains(t, check.Message, tc.wantMessage)
			require.Equal(t, "/v1/models", gotPath)
			if tc.apiKey != "" {
				require.Equal(t, "Bearer "+tc.apiKey, gotAuth)
			} else {
				require.Empty(t, gotAuth)
			}
		})
	}
}

func TestCheckHotkey(t *testing.T) {
	check := checkHotkey(config.HotkeyConfig{Binding: "ctrl+shift+space"})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, "ctrl+shift+space")

	check = checkHotkey(config.HotkeyConfig{Binding: "hyper+space"})
	require.False(t, check.Pass)
	require.Contains(t, check.Message, "unknown modifier")
}

func TestCheckHyprland(t *testing.T) {
	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "")
	require.False(t, checkHyprland().Pass)

	t.Setenv("HYPRLAND_INSTANCE_SIGNATURE", "abc")
	require.True(t, checkHyprland().Pass)
}

func TestCheckHistoryDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "history")
	check := checkHistoryDir(config.HistoryConfig{Enable: true, Path: dir})
	require.True(t, check.Pass, check.Message)

	info, err := os.Stat(dir)
	require.NoError(t, err)
	require.True(t, info.IsDir())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	require.Empty(t, entries)
}

func TestCheckHistoryDirNotWritable(t *testing.T) {
	parent := t.TempDir()
	blocker := filepath.Join(parent, "file")
	require.NoError(t, os.WriteFile(blocker, []byte("x"), 0o600))

	check := checkHistoryDir(config.HistoryConfig{Enable: true, Path: filepath.Join(blocker, "history")})
	require.False(t, check.Pass)
}

func TestCheckAudioSelection(t *testing.T) {
	check := checkAudioSelection(context.Background(), config.AudioConfig{Input: "usb", Fallback: "default"},
		func(context.Context, string, string) (audio.Selection, error) {
			return audio.Selection{Device: audio.Device{ID: "alsa_input.default"}, Warning: "input \"usb\" unavailable", Fallback: true}, nil
		})
	require.True(t, check.Pass)
	require.Contains(t, check.Message, `selected "alsa_input.default"`)
	require.Contains(t, check.Message, "unavailable")

	check = checkAudioSelection(context.Background(), config.AudioConfig{},
		func(context.Context, string, string) (audio.Selection, error) {
			return audio.Selection{}, errors.New("no capture sources")
		})
	require.False(t, check.Pass)
	require.Equal(t, "no capture sources", check.Message)
}

func TestRunSelectsChecksFromConfig(t *testing.T) {
	dialer := asrtest.Start(t, &asrtest.Server{})
	cfg := config.Default()
	cfg.Recognizer.GRPC = asrtest.Endpoint
	cfg.Refinement.Enable = false
	cfg.Hotkey.Enable = false
	cfg.Paste.Enable = false
	cfg.Indicator.Enable = false
	cfg.History.Enable = false

	report := run(context.Background(), config.Loaded{Path: "/tmp/murmur.jsonc", Config: cfg, Exists: true}, probes{
		recognizerDialer: dialer,
		httpClient:       http.DefaultClient,
		selectDevice: func(context.Context, string, string) (audio.Selection, error) {
			return audio.Selection{Device: audio.Device{ID: "mic"}}, nil
		},
	})

	names := make([]string, 0, len(report.Checks))
	for _, check := range report.Checks {
		names = append(names, check.Name)
	}
	require.Equal(t, []string{"config", "recognizer", "audio.device"}, names)
	require.True(t, report.OK(), report.String())
}
