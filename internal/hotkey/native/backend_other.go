//go:build !linux && !darwin && !windows

package native

import (
	"errors"

	"go.klb.dev/smartclip/internal/hotkey"
)

var errUnsupported = errors.New("global hotkeys are not supported on this platform")

type unsupportedBackend struct{}

// NewBackend returns a backend that refuses every registration.
func NewBackend() hotkey.Backend { return unsupportedBackend{} }

func (unsupportedBackend) Register(hotkey.Binding, func()) (hotkey.Handle, error) {
	return nil, errUnsupported
}
func (unsupportedBackend) Unregister(hotkey.Handle) error { return nil }
func (unsupportedBackend) WatchRelease(hotkey.Modifier, func()) (hotkey.Handle, error) {
	return nil, errUnsupported
}
func (unsupportedBackend) UnwatchRelease(hotkey.Handle) error { return nil }
