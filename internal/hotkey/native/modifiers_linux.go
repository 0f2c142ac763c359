//go:build linux

package native

import (
	ghk "golang.design/x/hotkey"

	"go.klb.dev/smartclip/internal/hotkey"
)

// X11 maps Alt to Mod1 and Super to Mod4.
var modifierMap = map[hotkey.Modifier]ghk.Modifier{
	hotkey.ModCtrl:  ghk.ModCtrl,
	hotkey.ModShift: ghk.ModShift,
	hotkey.ModAlt:   ghk.Mod1,
	hotkey.ModSuper: ghk.Mod4,
}
