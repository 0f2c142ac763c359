//go:build linux

package clip

import (
	"log/slog"
	"time"

	atotto "github.com/atotto/clipboard"
)

// atottoBackend shells out to xclip, xsel or wl-clipboard. It covers Wayland
// sessions where the X11 connection is unavailable.
type atottoBackend struct {
	stopper
	watchCh chan struct{}
}

func newAtotto() *atottoBackend {
	b := &atottoBackend{
		stopper: newStopper(),
		watchCh: make(chan struct{}, 1),
	}
	last, _ := atotto.ReadAll()
	go b.poll(last)
	return b
}

func (b *atottoBackend) Name() string { return "Linux clipboard (helper binaries)" }

func (b *atottoBackend) poll(last string) {
	t := time.NewTicker(linuxPollInterval)
	defer t.Stop()
	failing := false
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			text, err := atotto.ReadAll()
			if err != nil {
				if !failing {
					slog.Debug("clipboard helper read failed", "err", err)
					failing = true
				}
				continue
			}
			failing = false
			if text != last {
				last = text
				signal(b.watchCh)
			}
		}
	}
}

func (b *atottoBackend) ReadText() (string, error) { return atotto.ReadAll() }

func (b *atottoBackend) WriteText(text string) error { return atotto.WriteAll(text) }

func (b *atottoBackend) Watch() <-chan struct{} { return b.watchCh }
