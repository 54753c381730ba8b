package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSplitCommand(t *testing.T) {
	env := map[string]string{
		"HOME":  "/home/ada",
		"TOOL":  "wtype",
		"SPACE": "a b",
	}
	lookup := func(name string) (string, bool) {
		v, ok := env[name]
		return v, ok
	}

	tests := []struct {
		name    string
		input   string
		want    []string
		wantErr string
	}{
		{name: "empty", input: "   ", want: nil},
		{name: "commented out", input: `# wl-copy --trim-newline`, want: nil},
		{name: "simple", input: "wl-copy --trim-newline", want: []string{"wl-copy", "--trim-newline"}},
		{name: "double quotes", input: `notify --title "murmur says"`, want: []string{"notify", "--title", "murmur says"}},
		{name: "single quotes", input: `notify --title 'murmur says'`, want: []string{"notify", "--title", "murmur says"}},
		{name: "escaped space", input: `paste\ tool -n`, want: []string{"paste tool", "-n"}},
		{name: "empty quoted argument", input: `xdotool type ""`, want: []string{"xdotool", "type", ""}},
		{name: "adjacent quoting", input: `--flag="a b"'c'`, want: []string{"--flag=a bc"}},
		{name: "bare variable", input: `$TOOL -M ctrl`, want: []string{"wtype", "-M", "ctrl"}},
		{name: "braced variable", input: `${TOOL}-helper`, want: []string{"wtype-helper"}},
		{name: "quoted variable keeps spaces", input: `echo "$SPACE"`, want: []string{"echo", "a b"}},
		{name: "single quotes suppress expansion", input: `echo '$TOOL'`, want: []string{"echo", "$TOOL"}},
		{name: "unset variable drops word", input: `run $MISSING now`, want: []string{"run", "now"}},
		{name: "lone dollar", input: `echo $ 5`, want: []string{"echo", "$", "5"}},
		{name: "malformed brace", input: `echo ${TOOL`, want: []string{"echo", "${TOOL"}},
		{name: "escaped quote inside double quotes", input: `echo "say \"hi\""`, want: []string{"echo", `say "hi"`}},
		{name: "backslash literal in single quotes", input: `echo 'a\b'`, want: []string{"echo", `a\b`}},
		{name: "tilde", input: `~/bin/paste --now`, want: []string{"/home/ada/bin/paste", "--now"}},
		{name: "tilde mid word", input: `a~/b`, want: []string{"a~/b"}},
		{name: "unterminated quote", input: `notify "oops`, wantErr: "unterminated quote"},
		{name: "unterminated escape", input: `notify oops\`, wantErr: "unterminated escape"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := splitCommand(tc.input, lookup)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestParseArgvUsesProcessEnvironment(t *testing.T) {
	t.Setenv("MURMUR_TEST_PASTE", "ydotool")

	got, err := parseArgv(`$MURMUR_TEST_PASTE key 29:1`)
	require.NoError(t, err)
	require.Equal(t, []string{"ydotool", "key", "29:1"}, got)
}
