//go:build windows

package native

import (
	ghk "golang.design/x/hotkey"

	"go.klb.dev/smartclip/internal/hotkey"
)

var modifierMap = map[hotkey.Modifier]ghk.Modifier{
	hotkey.ModCtrl:  ghk.ModCtrl,
	hotkey.ModShift: ghk.ModShift,
	hotkey.ModAlt:   ghk.ModAlt,
	hotkey.ModSuper: ghk.ModWin,
}
