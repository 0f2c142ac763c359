// Package recall implements the hotkey recall session: hold the swap
// modifier, tap the trigger key to cycle through history, release the
// modifier to paste the selected entry.
//
// A Machine is not safe for concurrent use. It is driven from the engine's
// control loop, the same goroutine that owns the hotkey router.
package recall

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/smartclip/internal/history"
	"go.klb.dev/smartclip/internal/hotkey"
)

// DefaultPasteDelay lets the OS clipboard settle before the paste keystroke.
const DefaultPasteDelay = 100 * time.Millisecond

// fallbackModifier is watched when the swap binding has no modifier.
const fallbackModifier = hotkey.ModCtrl

var (
	ErrClosed          = errors.New("no recall session open")
	ErrIndexOutOfRange = errors.New("index out of range")
)

// State is the session state.
type State int

const (
	Closed State = iota
	Open
)

func (s State) String() string {
	if s == Open {
		return "open"
	}
	return "closed"
}

// Clipboard receives the committed text.
type Clipboard interface {
	WriteText(text string) error
}

// ReleaseWatcher arms and disarms the modifier release watch. hotkey.Router
// implements it.
type ReleaseWatcher interface {
	ArmRelease(m hotkey.Modifier) error
	DisarmRelease()
}

// Listener observes the session. Front-ends render the overlay from it.
type Listener interface {
	Opened(snapshot []history.Entry)
	Selected(cursor int, e history.Entry)
	Closed(committed bool, text string)
}

// Config wires a Machine to its collaborators. Paste and Listener are optional.
type Config struct {
	Clipboard  Clipboard
	Watcher    ReleaseWatcher
	Paste      func()
	PasteDelay time.Duration
	Listener   Listener
}

// Session is an open recall session. Its snapshot is frozen at open time.
type Session struct {
	snapshot []history.Entry
	cursor   int
	opened   time.Time
}

// Snapshot returns the candidates; callers must not modify the slice.
func (s *Session) Snapshot() []history.Entry { return s.snapshot }

// Cursor returns the selected index.
func (s *Session) Cursor() int { return s.cursor }

// Selected returns the entry under the cursor.
func (s *Session) Selected() (history.Entry, bool) {
	if len(s.snapshot) == 0 {
		return history.Entry{}, false
	}
	return s.snapshot[s.cursor], true
}

// Machine holds at most one Session.
type Machine struct {
	cfg Config
	cur *Session
}

// New returns a closed Machine.
func New(cfg Config) *Machine {
	if cfg.Paste == nil {
		cfg.Paste = func() {}
	}
	if cfg.Listener == nil {
		cfg.Listener = nopListener{}
	}
	if cfg.PasteDelay <= 0 {
		cfg.PasteDelay = DefaultPasteDelay
	}
	return &Machine{cfg: cfg}
}

// State returns Open or Closed.
func (m *Machine) State() State {
	if m.cur == nil {
		return Closed
	}
	return Open
}

// Session returns the open session or nil.
func (m *Machine) Session() *Session { return m.cur }

// Open starts a session over snapshot with the cursor on the most recent
// entry and arms the release watch for swap's primary modifier. An already
// open session is discarded without committing.
func (m *Machine) Open(snapshot []history.Entry, swap hotkey.Binding) {
	if m.cur != nil {
		slog.Debug("recall session replaced")
		m.close()
		m.cfg.Listener.Closed(false, "")
	}

	m.cur = &Session{snapshot: snapshot, opened: time.Now()}

	mod, ok := swap.Primary()
	if !ok {
		mod = fallbackModifier
	}
	if err := m.cfg.Watcher.ArmRelease(mod); err != nil {
		slog.Warn("modifier release watch unavailable; pick or cancel to close", "modifier", mod, "err", err)
	}

	slog.Debug("recall session opened", "candidates", len(snapshot))
	m.cfg.Listener.Opened(snapshot)
	if e, ok := m.cur.Selected(); ok {
		m.cfg.Listener.Selected(0, e)
	}
}

// Swap handles a swap hotkey press: the first press opens a session over
// snapshot(), later presses advance the cursor, wrapping at the end.
func (m *Machine) Swap(snapshot func() []history.Entry, swap hotkey.Binding) {
	if m.cur == nil {
		m.Open(snapshot(), swap)
		return
	}
	n := len(m.cur.snapshot)
	if n == 0 {
		return
	}
	m.cur.cursor = (m.cur.cursor + 1) % n
	m.cfg.Listener.Selected(m.cur.cursor, m.cur.snapshot[m.cur.cursor])
}

// Release commits the selected entry: it is written to the clipboard, the
// session closes, and the paste action is scheduled. It returns the
// committed text, or "" when the snapshot was empty.
func (m *Machine) Release() (string, error) {
	if m.cur == nil {
		return "", ErrClosed
	}
	return m.commit()
}

// Pick moves the cursor to i and commits. An out-of-range index leaves the
// session open.
func (m *Machine) Pick(i int) (string, error) {
	if m.cur == nil {
		return "", ErrClosed
	}
	if i < 0 || i >= len(m.cur.snapshot) {
		return "", fmt.Errorf("pick %d of %d: %w", i, len(m.cur.snapshot), ErrIndexOutOfRange)
	}
	m.cur.cursor = i
	return m.commit()
}

// Cancel closes the session without touching the clipboard. It reports
// whether a session was open.
func (m *Machine) Cancel() bool {
	if m.cur == nil {
		return false
	}
	m.close()
	slog.Debug("recall session cancelled")
	m.cfg.Listener.Closed(false, "")
	return true
}

func (m *Machine) commit() (string, error) {
	e, ok := m.cur.Selected()
	if !ok {
		m.close()
		m.cfg.Listener.Closed(false, "")
		return "", nil
	}

	if err := m.cfg.Clipboard.WriteText(e.Text); err != nil {
		m.close()
		m.cfg.Listener.Closed(false, "")
		return "", fmt.Errorf("clipboard write: %w", err)
	}
	held := time.Since(m.cur.opened)
	m.close()
	slog.Debug("recall session committed", "len", len(e.Text), "held", held.Round(time.Millisecond))
	m.cfg.Listener.Closed(true, e.Text)

	time.AfterFunc(m.cfg.PasteDelay, m.cfg.Paste)
	return e.Text, nil
}

// close disarms the release watch before dropping the session, so a release
// that arrives afterwards is stale.
func (m *Machine) close() {
	m.cfg.Watcher.DisarmRelease()
	m.cur = nil
}

type nopListener struct{}

func (nopListener) Opened([]history.Entry)      {}
func (nopListener) Selected(int, history.Entry) {}
func (nopListener) Closed(bool, string)         {}
