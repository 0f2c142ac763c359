//go:build darwin

package native

// #cgo LDFLAGS: -framework CoreGraphics
// #include <CoreGraphics/CoreGraphics.h>
//
// static unsigned long long smartclip_modifier_flags() {
//     return (unsigned long long)CGEventSourceFlagsState(kCGEventSourceStateCombinedSessionState);
// }
import "C"

import (
	"fmt"

	"go.klb.dev/smartclip/internal/hotkey"
)

// CGEventFlags masks.
var flagMasks = map[hotkey.Modifier]uint64{
	hotkey.ModCtrl:  1 << 18, // kCGEventFlagMaskControl
	hotkey.ModShift: 1 << 17, // kCGEventFlagMaskShift
	hotkey.ModAlt:   1 << 19, // kCGEventFlagMaskAlternate
	hotkey.ModSuper: 1 << 20, // kCGEventFlagMaskCommand
}

func watchRelease(m hotkey.Modifier, fn func()) (hotkey.Handle, error) {
	mask, ok := flagMasks[m]
	if !ok {
		return nil, fmt.Errorf("%w: unknown modifier %q", errNoReleaseWatch, m)
	}
	return pollRelease(func() bool {
		return uint64(C.smartclip_modifier_flags())&mask != 0
	}, fn), nil
}
