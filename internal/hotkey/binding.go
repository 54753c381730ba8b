// Package hotkey turns a global key chord into press and release events.
package hotkey

import (
	"fmt"
	"strings"
)

// Binding is a parsed chord such as ctrl+shift+space.
type Binding struct {
	Modifiers []string
	Key       string
}

var modifierAliases = map[string]string{
	"ctrl":    "ctrl",
	"control": "ctrl",
	"shift":   "shift",
	"alt":     "alt",
	"option":  "alt",
	"opt":     "alt",
	"super":   "super",
	"cmd":     "super",
	"command": "super",
	"win":     "super",
	"meta":    "super",
}

var keyAliases = map[string]string{
	"enter":  "return",
	"esc":    "escape",
	"return": "return",
	"escape": "escape",
	"space":  "space",
	"tab":    "tab",
}

// ParseBinding parses "mod+mod+key". Names are case-insensitive; at least
// one modifier is required so plain typing never triggers dictation.
func ParseBinding(raw string) (Binding, error) {
	parts := strings.Split(strings.ToLower(strings.TrimSpace(raw)), "+")
	if len(parts) < 2 {
		return Binding{}, fmt.Errorf("hotkey %q needs at least one modifier and a key", raw)
	}

	var b Binding
	seen := map[string]bool{}
	for _, part := range parts[:len(parts)-1] {
		name, ok := modifierAliases[strings.TrimSpace(part)]
		if !ok {
			return Binding{}, fmt.Errorf("hotkey %q: unknown modifier %q", raw, part)
		}
		if seen[name] {
			return Binding{}, fmt.Errorf("hotkey %q: duplicate modifier %q", raw, part)
		}
		seen[name] = true
		b.Modifiers = append(b.Modifiers, name)
	}

	key, err := normalizeKey(strings.TrimSpace(parts[len(parts)-1]))
	if err != nil {
		return Binding{}, fmt.Errorf("hotkey %q: %w", raw, err)
	}
	b.Key = key
	return b, nil
}

func (b Binding) String() string {
	return strings.Join(append(append([]string(nil), b.Modifiers...), b.Key), "+")
}

func normalizeKey(name string) (string, error) {
	if alias, ok := keyAliases[name]; ok {
		return alias, nil
	}
	if len(name) == 1 && (name[0] >= 'a' && name[0] <= 'z' || name[0] >= '0' && name[0] <= '9') {
		return name, nil
	}
	if _, ok := functionKeys[name]; ok {
		return name, nil
	}
	if name == "" {
		return "", fmt.Errorf("missing key")
	}
	return "", fmt.Errorf("unsupported key %q", name)
}
