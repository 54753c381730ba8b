package output

import (
	"context"
	"sync"

	"github.com/micmonay/keybd_event"
)

var (
	keyBonding     keybd_event.KeyBonding
	keyBondingOnce sync.Once
	keyBondingErr  error
)

// sendPasteKeys synthesizes the platform paste chord on the virtual keyboard.
func sendPasteKeys(ctx context.Context) error {
	keyBondingOnce.Do(func() {
		keyBonding, keyBondingErr = keybd_event.NewKeyBonding()
	})
	if keyBondingErr != nil {
		return keyBondingErr
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	keyBonding.Clear()
	keyBonding.SetKeys(keybd_event.VK_V)
	setPasteModifier(&keyBonding)
	return keyBonding.Launching()
}
