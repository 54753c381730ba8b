//go:build linux

package hotkey

import "golang.design/x/hotkey"

// Mod1 is Alt and Mod4 is Super on standard X11 keymaps.
var platformModifiers = map[string]hotkey.Modifier{
	"ctrl":  hotkey.ModCtrl,
	"shift": hotkey.ModShift,
	"alt":   hotkey.Mod1,
	"super": hotkey.Mod4,
}
