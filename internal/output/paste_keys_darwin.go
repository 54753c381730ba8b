//go:build darwin

package output

import "github.com/micmonay/keybd_event"

func setPasteModifier(kb *keybd_event.KeyBonding) {
	kb.HasSuper(true)
}
