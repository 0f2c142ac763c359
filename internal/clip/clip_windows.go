//go:build windows

package clip

// #cgo LDFLAGS: -luser32
//
// #include <windows.h>
//
// #define SMARTCLIP_CHANGED (WM_APP + 1)
//
// static LRESULT CALLBACK smartclip_wnd_proc(HWND hwnd, UINT msg, WPARAM wp, LPARAM lp) {
//     if (msg == WM_CLIPBOARDUPDATE) {
//         PostMessage(hwnd, SMARTCLIP_CHANGED, 0, 0);
//         return 0;
//     }
//     return DefWindowProc(hwnd, msg, wp, lp);
// }
//
// static HWND smartclip_open_listener(void) {
//     WNDCLASS wc = {0};
//     wc.lpfnWndProc   = smartclip_wnd_proc;
//     wc.hInstance     = GetModuleHandle(NULL);
//     wc.lpszClassName = "SmartClipClipboard";
//     RegisterClass(&wc);
//     HWND hwnd = CreateWindowEx(0, "SmartClipClipboard", NULL, 0,
//         0, 0, 0, 0, HWND_MESSAGE, NULL, GetModuleHandle(NULL), NULL);
//     if (hwnd != NULL && !AddClipboardFormatListener(hwnd)) {
//         DestroyWindow(hwnd);
//         return NULL;
//     }
//     return hwnd;
// }
//
// static void smartclip_close_listener(HWND hwnd) {
//     RemoveClipboardFormatListener(hwnd);
//     DestroyWindow(hwnd);
// }
//
// // Drains the queue; returns 1 if a clipboard update was among the messages.
// static int smartclip_drain(HWND hwnd) {
//     MSG msg;
//     int changed = 0;
//     while (PeekMessage(&msg, hwnd, 0, 0, PM_REMOVE)) {
//         if (msg.message == SMARTCLIP_CHANGED) {
//             changed = 1;
//         }
//         TranslateMessage(&msg);
//         DispatchMessage(&msg);
//     }
//     return changed;
// }
import "C"

import (
	"log/slog"
	"runtime"
	"time"
)

const windowsDrainInterval = 50 * time.Millisecond

type windowsBackend struct {
	nativeText
	stopper
	watchCh chan struct{}
}

// New returns the Windows backend, notified through
// AddClipboardFormatListener on a message-only window.
func New() Backend {
	b := &windowsBackend{
		nativeText: initNative(),
		stopper:    newStopper(),
		watchCh:    make(chan struct{}, 1),
	}
	if b.err != nil {
		slog.Warn("clipboard unavailable", "err", b.err)
	}
	ready := make(chan struct{})
	go b.listen(ready)
	<-ready
	return b
}

func (b *windowsBackend) Name() string { return "Windows clipboard listener" }

// listen owns the listener window. Window messages are only delivered to the
// thread that created the window, so the goroutine stays on one OS thread.
func (b *windowsBackend) listen(ready chan<- struct{}) {
	runtime.LockOSThread()
	defer runtime.UnlockOSThread()

	hwnd := C.smartclip_open_listener()
	close(ready)
	if hwnd == nil {
		slog.Warn("clipboard listener unavailable, changes will not be recorded")
		return
	}
	defer C.smartclip_close_listener(hwnd)

	t := time.NewTicker(windowsDrainInterval)
	defer t.Stop()
	for {
		select {
		case <-b.done:
			return
		case <-t.C:
			if C.smartclip_drain(hwnd) != 0 {
				signal(b.watchCh)
			}
		}
	}
}

func (b *windowsBackend) Watch() <-chan struct{} { return b.watchCh }
