// Package clip provides text access to the system clipboard and change
// notification across platforms. Build constraints select the
// implementation:
//
//	clip_native.go   shared golang.design/x/clipboard text access
//	clip_darwin.go   macOS via golang.design/x/clipboard + cgo changeCount poll
//	clip_windows.go  Windows via golang.design/x/clipboard + AddClipboardFormatListener
//	clip_linux.go    Linux via golang.design/x/clipboard polling, falling back to
//	                 github.com/atotto/clipboard (xclip, xsel, wl-clipboard)
//	clip_other.go    headless stub
package clip

// Backend is implemented by every platform clipboard.
type Backend interface {
	// Name returns a human-readable name for the backend.
	Name() string

	// ReadText returns the clipboard text, or "" when the clipboard is empty
	// or holds no text.
	ReadText() (string, error)

	// WriteText replaces the clipboard contents with text.
	WriteText(text string) error

	// Watch returns a channel that receives a signal whenever the clipboard
	// changes. The channel is never closed. The caller reads the new text
	// with ReadText.
	Watch() <-chan struct{}

	// Close releases any resources held by the backend.
	Close()
}

// signal performs a non-blocking send; one pending notification is enough.
func signal(ch chan struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}
