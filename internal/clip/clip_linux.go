//go:build linux

package clip

import (
	"log/slog"
	"time"

	atotto "github.com/atotto/clipboard"
)

const linuxPollInterval = 250 * time.Millisecond

type linuxBackend struct {
	nativeText
	stopper
	watchCh chan struct{}
}

// New returns the Linux clipboard backend. When the X11 connection cannot be
// made the helper-binary backend is tried, then a headless no-op backend.
func New() Backend {
	n := initNative()
	if n.err != nil {
		if !atotto.Unsupported {
			slog.Info("native clipboard unavailable, using helper binaries", "err", n.err)
			return newAtotto()
		}
		slog.Warn("clipboard unavailable, running headless", "err", n.err)
		return newHeadless()
	}
	b := &linuxBackend{
		nativeText: n,
		stopper:    newStopper(),
		watchCh:    make(chan struct{}, 1),
	}
	go b.poll()
	return b
}

func (b *linuxBackend) Name() string { return "Linux clipboard (X11 poll)" }

// poll compares text because X11 offers no cheap change counter.
func (b *linuxBackend) poll() {
	last, _ := b.ReadText()
	t := time.NewTicker(linuxPollInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			text, err := b.ReadText()
			if err != nil || text == last {
				continue
			}
			last = text
			signal(b.watchCh)
		}
	}
}

func (b *linuxBackend) Watch() <-chan struct{} { return b.watchCh }
