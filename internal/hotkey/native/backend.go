//go:build linux || darwin || windows

// Package native implements hotkey.Backend on top of golang.design/x/hotkey,
// with a per-OS watcher for modifier release: evdev on Linux, polled key
// state on macOS and Windows.
package native

import (
	"errors"
	"fmt"

	ghk "golang.design/x/hotkey"

	"go.klb.dev/smartclip/internal/hotkey"
)

type nativeHotkey struct {
	hk   *ghk.Hotkey
	done chan struct{}
}

type nativeBackend struct{}

// NewBackend returns the OS backend: golang.design/x/hotkey for combinations
// and a platform release watcher for modifiers.
//
// On macOS hotkey registration must happen on the main thread; the binary
// wraps its entry point with mainthread.Init.
func NewBackend() hotkey.Backend { return nativeBackend{} }

func (nativeBackend) Register(b hotkey.Binding, fn func()) (hotkey.Handle, error) {
	mods := make([]ghk.Modifier, 0, len(b.Modifiers))
	for _, m := range b.Modifiers {
		nm, ok := modifierMap[m]
		if !ok {
			return nil, fmt.Errorf("modifier %q not supported on this platform", m)
		}
		mods = append(mods, nm)
	}
	key, ok := keyMap[b.Key]
	if !ok {
		return nil, fmt.Errorf("key %q not supported on this platform", b.Key)
	}

	hk := ghk.New(mods, key)
	if err := hk.Register(); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}

	n := &nativeHotkey{hk: hk, done: make(chan struct{})}
	keydown, keyup := hk.Keydown(), hk.Keyup()
	go func() {
		for {
			select {
			case <-n.done:
				return
			case _, ok := <-keydown:
				if !ok {
					return
				}
				fn()
			case <-keyup:
			}
		}
	}()
	return n, nil
}

func (nativeBackend) Unregister(h hotkey.Handle) error {
	n, ok := h.(*nativeHotkey)
	if !ok || n == nil {
		return nil
	}
	close(n.done)
	return n.hk.Unregister()
}

func (nativeBackend) WatchRelease(m hotkey.Modifier, fn func()) (hotkey.Handle, error) {
	return watchRelease(m, fn)
}

func (nativeBackend) UnwatchRelease(h hotkey.Handle) error {
	s, ok := h.(stopper)
	if !ok || s == nil {
		return nil
	}
	return s.stop()
}

// stopper is implemented by every platform release watch.
type stopper interface {
	stop() error
}

var errNoReleaseWatch = errors.New("modifier release watch unavailable")

var keyMap = map[string]ghk.Key{
	"a": ghk.KeyA, "b": ghk.KeyB, "c": ghk.KeyC, "d": ghk.KeyD,
	"e": ghk.KeyE, "f": ghk.KeyF, "g": ghk.KeyG, "h": ghk.KeyH,
	"i": ghk.KeyI, "j": ghk.KeyJ, "k": ghk.KeyK, "l": ghk.KeyL,
	"m": ghk.KeyM, "n": ghk.KeyN, "o": ghk.KeyO, "p": ghk.KeyP,
	"q": ghk.KeyQ, "r": ghk.KeyR, "s": ghk.KeyS, "t": ghk.KeyT,
	"u": ghk.KeyU, "v": ghk.KeyV, "w": ghk.KeyW, "x": ghk.KeyX,
	"y": ghk.KeyY, "z": ghk.KeyZ,

	"0": ghk.Key0, "1": ghk.Key1, "2": ghk.Key2, "3": ghk.Key3,
	"4": ghk.Key4, "5": ghk.Key5, "6": ghk.Key6, "7": ghk.Key7,
	"8": ghk.Key8, "9": ghk.Key9,

	"f1": ghk.KeyF1, "f2": ghk.KeyF2, "f3": ghk.KeyF3, "f4": ghk.KeyF4,
	"f5": ghk.KeyF5, "f6": ghk.KeyF6, "f7": ghk.KeyF7, "f8": ghk.KeyF8,
	"f9": ghk.KeyF9, "f10": ghk.KeyF10, "f11": ghk.KeyF11, "f12": ghk.KeyF12,

	"space":  ghk.KeySpace,
	"tab":    ghk.KeyTab,
	"enter":  ghk.KeyReturn,
	"esc":    ghk.KeyEscape,
	"delete": ghk.KeyDelete,
	"left":   ghk.KeyLeft,
	"right":  ghk.KeyRight,
	"up":     ghk.KeyUp,
	"down":   ghk.KeyDown,
}
