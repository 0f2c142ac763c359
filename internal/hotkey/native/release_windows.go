//go:build windows

package native

import (
	"fmt"

	"golang.org/x/sys/windows"

	"go.klb.dev/smartclip/internal/hotkey"
)

var procGetAsyncKeyState = windows.NewLazySystemDLL("user32.dll").NewProc("GetAsyncKeyState")

// Virtual-key codes; the generic codes cover both left and right keys.
var virtualKeys = map[hotkey.Modifier][]uintptr{
	hotkey.ModCtrl:  {0x11},       // VK_CONTROL
	hotkey.ModShift: {0x10},       // VK_SHIFT
	hotkey.ModAlt:   {0x12},       // VK_MENU
	hotkey.ModSuper: {0x5B, 0x5C}, // VK_LWIN, VK_RWIN
}

func watchRelease(m hotkey.Modifier, fn func()) (hotkey.Handle, error) {
	vks, ok := virtualKeys[m]
	if !ok {
		return nil, fmt.Errorf("%w: unknown modifier %q", errNoReleaseWatch, m)
	}
	if err := procGetAsyncKeyState.Find(); err != nil {
		return nil, fmt.Errorf("%w: %v", errNoReleaseWatch, err)
	}
	return pollRelease(func() bool {
		for _, vk := range vks {
			r, _, _ := procGetAsyncKeyState.Call(vk)
			if r&0x8000 != 0 {
				return true
			}
		}
		return false
	}, fn), nil
}
