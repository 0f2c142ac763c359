//go:build darwin || windows

package native

import (
	"sync"
	"time"
)

const releasePollInterval = 15 * time.Millisecond

type pollWatch struct {
	done chan struct{}
	once sync.Once
}

// pollRelease samples isDown and calls fn on every transition to released.
// A modifier that is already up when the watch starts counts as released, so
// a quick tap that beats the watch still commits.
func pollRelease(isDown func() bool, fn func()) *pollWatch {
	w := &pollWatch{done: make(chan struct{})}
	go func() {
		t := time.NewTicker(releasePollInterval)
		defer t.Stop()
		wasDown := true
		for {
			select {
			case <-w.done:
				return
			case <-t.C:
				down := isDown()
				if wasDown && !down {
					fn()
				}
				wasDown = down
			}
		}
	}()
	return w
}

func (w *pollWatch) stop() error {
	w.once.Do(func() { close(w.done) })
	return nil
}
