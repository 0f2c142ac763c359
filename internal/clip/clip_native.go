//go:build linux || darwin || windows

package clip

import (
	"fmt"
	"sync"

	"golang.design/x/clipboard"
)

// nativeText reads and writes text through golang.design/x/clipboard. A
// failed Init is kept and returned from every call.
type nativeText struct{ err error }

// initNative is called from New rather than init() so CLI sub-commands that
// never construct a Backend do not touch the display server.
func initNative() nativeText {
	if err := clipboard.Init(); err != nil {
		return nativeText{err: fmt.Errorf("clipboard init: %w", err)}
	}
	return nativeText{}
}

func (n nativeText) ReadText() (string, error) {
	if n.err != nil {
		return "", n.err
	}
	return string(clipboard.Read(clipboard.FmtText)), nil
}

func (n nativeText) WriteText(text string) error {
	if n.err != nil {
		return n.err
	}
	clipboard.Write(clipboard.FmtText, []byte(text))
	return nil
}

// stopper closes done once.
type stopper struct {
	done chan struct{}
	once sync.Once
}

func newStopper() stopper { return stopper{done: make(chan struct{})} }

func (s *stopper) Close() { s.once.Do(func() { close(s.done) }) }
