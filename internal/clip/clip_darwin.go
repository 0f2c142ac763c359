//go:build darwin

package clip

// #cgo CFLAGS: -x objective-c
// #cgo LDFLAGS: -framework Cocoa
// #import <Cocoa/Cocoa.h>
//
// static NSInteger smartclip_change_count() {
//     return [[NSPasteboard generalPasteboard] changeCount];
// }
import "C"

import (
	"log/slog"
	"time"
)

const darwinPollInterval = 100 * time.Millisecond

type darwinBackend struct {
	nativeText
	stopper
	watchCh chan struct{}
}

// New returns the macOS backend. NSPasteboard has no change notification;
// its changeCount is polled instead.
func New() Backend {
	b := &darwinBackend{
		nativeText: initNative(),
		stopper:    newStopper(),
		watchCh:    make(chan struct{}, 1),
	}
	if b.err != nil {
		slog.Warn("clipboard unavailable", "err", b.err)
	}
	go b.poll(C.smartclip_change_count())
	return b
}

func (b *darwinBackend) Name() string { return "macOS NSPasteboard" }

func (b *darwinBackend) poll(last C.NSInteger) {
	t := time.NewTicker(darwinPollInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			if cc := C.smartclip_change_count(); cc != last {
				last = cc
				signal(b.watchCh)
			}
		}
	}
}

func (b *darwinBackend) Watch() <-chan struct{} { return b.watchCh }
