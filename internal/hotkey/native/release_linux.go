//go:build linux

package native

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"syscall"
	"unsafe"

	"golang.org/x/sys/unix"

	"go.klb.dev/smartclip/internal/hotkey"
)

// evdev constants from linux/input-event-codes.h.
const (
	evKey       = 1
	keyReleased = 0
	eventSize   = 24 // sizeof(struct input_event) on 64-bit
	keyMax      = 0x2ff

	keyStateLen = keyMax/8 + 1
	// EVIOCGKEY(keyStateLen), generic _IOC encoding: dir<<30 | size<<16 | 'E'<<8 | nr.
	eviocgkey = 2<<30 | keyStateLen<<16 | 'E'<<8 | 0x18
)

// Left and right codes for each modifier.
var evdevCodes = map[hotkey.Modifier][]uint16{
	hotkey.ModCtrl:  {29, 97},
	hotkey.ModShift: {42, 54},
	hotkey.ModAlt:   {56, 100},
	hotkey.ModSuper: {125, 126},
}

type evdevWatch struct {
	dev  *os.File
	done chan struct{}
	once sync.Once
}

// watchRelease reads key events from the keyboard's evdev node. The user needs
// read access to /dev/input (root or the "input" group).
func watchRelease(m hotkey.Modifier, fn func()) (hotkey.Handle, error) {
	codes, ok := evdevCodes[m]
	if !ok {
		return nil, fmt.Errorf("%w: unknown modifier %q", errNoReleaseWatch, m)
	}
	path, err := findKeyboardDevice()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errNoReleaseWatch, err)
	}
	dev, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: open %s: %v", errNoReleaseWatch, path, err)
	}

	w := &evdevWatch{dev: dev, done: make(chan struct{})}
	go w.run(codes, fn)
	return w, nil
}

func (w *evdevWatch) run(codes []uint16, fn func()) {
	// The press travels through the router before the watch is armed; a
	// modifier released by then has no event left to read.
	if state, err := keyState(w.dev); err != nil {
		slog.Debug("evdev key state unavailable", "err", err)
	} else if !anyDown(state, codes) {
		fn()
	}

	buf := make([]byte, eventSize)
	for {
		n, err := w.dev.Read(buf)
		if err != nil {
			select {
			case <-w.done:
			default:
				_ = w.stop()
			}
			return
		}
		if n != eventSize {
			continue
		}
		typ := binary.LittleEndian.Uint16(buf[16:18])
		code := binary.LittleEndian.Uint16(buf[18:20])
		value := int32(binary.LittleEndian.Uint32(buf[20:24]))
		if typ != evKey || value != keyReleased {
			continue
		}
		for _, c := range codes {
			if c == code {
				fn()
				break
			}
		}
	}
}

// keyState returns the device's key bitmap, one bit per key code.
func keyState(dev *os.File) ([]byte, error) {
	rc, err := dev.SyscallConn()
	if err != nil {
		return nil, err
	}
	state := make([]byte, keyStateLen)
	var errno syscall.Errno
	err = rc.Control(func(fd uintptr) {
		_, _, errno = unix.Syscall(unix.SYS_IOCTL, fd, eviocgkey, uintptr(unsafe.Pointer(&state[0])))
	})
	if err != nil {
		return nil, err
	}
	if errno != 0 {
		return nil, fmt.Errorf("EVIOCGKEY: %w", errno)
	}
	return state, nil
}

func anyDown(state []byte, codes []uint16) bool {
	for _, c := range codes {
		if int(c/8) < len(state) && state[c/8]&(1<<(c%8)) != 0 {
			return true
		}
	}
	return false
}

func (w *evdevWatch) stop() error {
	var err error
	w.once.Do(func() {
		close(w.done)
		err = w.dev.Close()
	})
	return err
}

// findKeyboardDevice returns the first keyboard event node.
func findKeyboardDevice() (string, error) {
	const byID = "/dev/input/by-id"
	if entries, err := os.ReadDir(byID); err == nil {
		for _, e := range entries {
			name := e.Name()
			if strings.HasSuffix(name, "-event-kbd") {
				return filepath.Join(byID, name), nil
			}
		}
	}

	f, err := os.Open("/proc/bus/input/devices")
	if err != nil {
		return "", err
	}
	defer f.Close()

	isKeyboard := false
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		line := sc.Text()
		switch {
		case strings.HasPrefix(line, "N: Name="):
			name := strings.ToLower(line)
			isKeyboard = strings.Contains(name, "keyboard") || strings.Contains(name, "kbd")
		case strings.HasPrefix(line, "H: Handlers=") && isKeyboard:
			for _, part := range strings.Fields(line) {
				if strings.HasPrefix(part, "event") {
					return "/dev/input/" + part, nil
				}
			}
		case line == "":
			isKeyboard = false
		}
	}
	return "", fmt.Errorf("no keyboard device found")
}
