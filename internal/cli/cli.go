// Package cli parses murmur argv into a command plus global flags.
package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

type Command string

const (
	CommandRun     Command = "run"
	CommandToggle  Command = "toggle"
	CommandStart   Command = "start"
	CommandStop    Command = "stop"
	CommandCancel  Command = "cancel"
	CommandStatus  Command = "status"
	CommandDevices Command = "devices"
	CommandDoctor  Command = "doctor"
	CommandHistory Command = "history"
	CommandStats   Command = "stats"
	CommandVersion Command = "version"
	CommandHelp    Command = "help"
)

const defaultHistoryLimit = 20

var validCommands = map[Command]struct{}{
	CommandRun:     {},
	CommandToggle:  {},
	CommandStart:   {},
	CommandStop:    {},
	CommandCancel:  {},
	CommandStatus:  {},
	CommandDevices: {},
	CommandDoctor:  {},
	CommandHistory: {},
	CommandStats:   {},
	CommandVersion: {},
	CommandHelp:    {},
}

// Forwarded reports whether the command is served by the running daemon.
func (c Command) Forwarded() bool {
	switch c {
	case CommandToggle, CommandStart, CommandStop, CommandCancel, CommandStatus:
		return true
	default:
		return false
	}
}

type Parsed struct {
	Command    Command
	ConfigPath string
	Limit      int
	ShowHelp   bool
}

// Parse reads global flags and at most one command. Flags accept both
// "--flag value" and "--flag=value".
func Parse(args []string) (Parsed, error) {
	parsed := Parsed{Command: CommandHelp, ShowHelp: true, Limit: defaultHistoryLimit}
	limitSet := false
	commandSeen := false

	for i := 0; i < len(args); i++ {
		name, inline, hasInline := strings.Cut(args[i], "=")
		if !strings.HasPrefix(name, "-") {
			hasInline = false
			name = args[i]
		}

		value := func() (string, error) {
			if hasInline {
				return inline, nil
			}
			i++
			if i >= len(args) {
				return "", fmt.Errorf("%s requires a value", name)
			}
			return args[i], nil
		}

		switch name {
		case "-h", "--help":
			parsed.ShowHelp = true
			parsed.Command = CommandHelp
		case "--version":
			parsed.ShowHelp = false
			parsed.Command = CommandVersion
		case "--config":
			path, err := value()
			if err != nil {
				return Parsed{}, errors.New("--config requires a path")
			}
			parsed.ConfigPath = path
		case "--limit":
			raw, err := value()
			if err != nil {
				return Parsed{}, errors.New("--limit requires a number")
			}
			limit, err := strconv.Atoi(raw)
			if err != nil || limit < 0 {
				return Parsed{}, fmt.Errorf("--limit must be a non-negative integer, got %q", raw)
			}
			parsed.Limit = limit
			limitSet = true
		default:
			if strings.HasPrefix(name, "-") {
				return Parsed{}, fmt.Errorf("unknown flag: %s", name)
			}
			if commandSeen {
				return Parsed{}, fmt.Errorf("unexpected arguments after command %q", parsed.Command)
			}

			cmd := Command(name)
			if _, ok := validCommands[cmd]; !ok {
				return Parsed{}, fmt.Errorf("unknown command: %s", name)
			}
			parsed.Command = cmd
			parsed.ShowHelp = cmd == CommandHelp
			commandSeen = true
		}
	}

	if limitSet && parsed.Command != CommandHistory {
		return Parsed{}, fmt.Errorf("--limit only applies to %s", CommandHistory)
	}
	return parsed, nil
}

func HelpText(binaryName string) string {
	return fmt.Sprintf(`Usage:
  %[1]s [--config PATH] [--limit N] <command>

Commands:
  run       Run the dictation daemon (hotkey + IPC)
  toggle    Start recording, or stop and deliver when already recording
  start     Start recording
  stop      Stop recording and deliver the transcript
  cancel    Discard the active recording or finalization
  status    Print daemon state and input level
  devices   List available input devices
  doctor    Run configuration and environment checks
  history   Print recent dictations (newest first)
  stats     Print dictation totals
  version   Print version information
  help      Show this help

Flags:
  --config PATH   Config file path (default: $XDG_CONFIG_HOME/murmur/config.jsonc)
  --limit N       Entries shown by history, 0 for all (default: %[2]d)
  -h, --help      Show help
  --version       Show version
`, binaryName, defaultHistoryLimit)
}
