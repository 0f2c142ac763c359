//go:build darwin

package native

import (
	ghk "golang.design/x/hotkey"

	"go.klb.dev/smartclip/internal/hotkey"
)

var modifierMap = map[hotkey.Modifier]ghk.Modifier{
	hotkey.ModCtrl:  ghk.ModCtrl,
	hotkey.ModShift: ghk.ModShift,
	hotkey.ModAlt:   ghk.ModOption,
	hotkey.ModSuper: ghk.ModCmd,
}
