// Package engine runs the control goroutine. It owns the history buffer, the
// recall state machine and the settings model; clipboard notifications,
// hotkey events, settings-file changes and control requests from other
// goroutines are all marshaled onto it.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.klb.dev/smartclip/internal/clip"
	"go.klb.dev/smartclip/internal/history"
	"go.klb.dev/smartclip/internal/hotkey"
	"go.klb.dev/smartclip/internal/hub"
	"go.klb.dev/smartclip/internal/recall"
	"go.klb.dev/smartclip/internal/settings"
)

// ErrStopped is returned by requests made after Run has returned.
var ErrStopped = errors.New("engine is not running")

// Persister receives fire-and-forget save requests. *store.Saver implements it.
type Persister interface {
	SaveHistory(entries []history.Entry, capacity int)
	SaveSettings(s settings.Settings)
}

// SettingsSource reports external edits of the settings file.
// *store.Gateway implements it.
type SettingsSource interface {
	WatchSettings(ctx context.Context) <-chan struct{}
	LoadSettings() (settings.Settings, error)
}

// Config wires an Engine. Clipboard, Router, Hub and Persister are required.
type Config struct {
	Clipboard clip.Backend
	Router    *hotkey.Router
	Hub       *hub.Hub
	Persister Persister

	// Optional.
	SettingsSource SettingsSource
	Registrar      settings.StartupRegistrar
	Paste          func()
	PasteDelay     time.Duration

	Settings  settings.Settings
	History   []history.Entry
	Minimized bool

	Now func() time.Time
}

// Engine is the clipboard history engine.
type Engine struct {
	cfg Config

	history *history.Store
	recall  *recall.Machine
	model   *settings.Model
	router  *hotkey.Router
	hub     *hub.Hub

	reqs    chan func()
	running chan struct{}
	stopped chan struct{}

	// last text the engine wrote to the clipboard itself
	lastWritten string
	captured    uint64
	minimized   bool
	started     time.Time
}

// New builds an Engine from cfg. Nothing is registered with the OS until Run.
func New(cfg Config) *Engine {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Paste == nil {
		cfg.Paste = func() { slog.Info("paste requested") }
	}
	if err := cfg.Settings.Validate(); err != nil {
		slog.Warn("initial settings invalid, using defaults", "err", err)
		cfg.Settings = settings.Defaults()
	}

	e := &Engine{
		cfg:     cfg,
		history: history.New(cfg.Settings.MaxStackSize),
		router:  cfg.Router,
		hub:     cfg.Hub,
		reqs:    make(chan func()),
		running: make(chan struct{}),
		stopped: make(chan struct{}),
		// A launch at login starts in the background.
		minimized: cfg.Minimized || cfg.Settings.RunAtStartup,
	}
	e.history.Restore(cfg.History)
	e.recall = recall.New(recall.Config{
		Clipboard:  selfWriter{e},
		Watcher:    cfg.Router,
		Paste:      cfg.Paste,
		PasteDelay: cfg.PasteDelay,
		Listener:   sessionEvents{e},
	})
	e.model = settings.NewModel(cfg.Settings, capacity{e}, cfg.Router, cfg.Registrar, cfg.Persister)
	return e
}

// Run applies the initial settings and processes events until ctx is done.
// It must be called once.
func (e *Engine) Run(ctx context.Context) error {
	e.started = e.cfg.Now()
	defer close(e.stopped)
	defer e.shutdown()

	if err := e.model.Apply(e.cfg.Settings); err != nil {
		slog.Warn("initial settings partially applied", "err", err)
	}

	var settingsChanged <-chan struct{}
	if e.cfg.SettingsSource != nil {
		settingsChanged = e.cfg.SettingsSource.WatchSettings(ctx)
	}

	slog.Info("engine started",
		"clipboard", e.cfg.Clipboard.Name(),
		"entries", e.history.Len(),
		"capacity", e.history.Capacity(),
		"minimized", e.minimized,
	)
	e.publishHistory()
	close(e.running)

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-e.cfg.Clipboard.Watch():
			e.clipboardChanged()
		case ev := <-e.router.Events():
			e.hotkeyEvent(ev)
		case _, ok := <-settingsChanged:
			if !ok {
				settingsChanged = nil
				continue
			}
			e.reloadSettings()
		case fn := <-e.reqs:
			fn()
		}
	}
}

func (e *Engine) shutdown() {
	e.recall.Cancel()
	e.router.Close()
	slog.Info("engine stopped", "entries", e.history.Len())
}

// Running is closed once Run has applied the initial settings.
func (e *Engine) Running() <-chan struct{} { return e.running }

// ── control goroutine handlers ───────────────────────────────────────────

func (e *Engine) clipboardChanged() {
	text, err := e.cfg.Clipboard.ReadText()
	if err != nil {
		slog.Error("clipboard read failed", "err", err)
		return
	}
	if text == e.lastWritten && text != "" {
		// Our own write coming back; it was recorded when written.
		e.lastWritten = ""
		return
	}
	e.lastWritten = ""
	if e.record(text) {
		e.captured++
		slog.Debug("clipboard captured", "preview", hub.Preview(text))
	}
}

func (e *Engine) hotkeyEvent(ev hotkey.Event) {
	if !e.router.Accept(ev) {
		slog.Debug("stale hotkey event dropped", "kind", ev.Kind)
		return
	}
	switch ev.Kind {
	case hotkey.SwapPressed:
		swap, _ := e.router.Bindings()
		e.recall.Swap(e.history.Snapshot, swap)
	case hotkey.ModifierReleased:
		if _, err := e.recall.Release(); err != nil && !errors.Is(err, recall.ErrClosed) {
			slog.Error("recall commit failed", "err", err)
		}
	case hotkey.TypePressed:
		slog.Info("type hotkey pressed")
		e.hub.Publish(hub.Event{Kind: hub.TypePressed})
	}
}

func (e *Engine) reloadSettings() {
	s, err := e.cfg.SettingsSource.LoadSettings()
	if err != nil {
		slog.Warn("settings file unreadable, keeping current settings", "err", err)
		return
	}
	if s == e.model.Current() {
		return
	}
	slog.Info("settings file changed, applying")
	e.applySettings(s)
}

// applySettings cancels an open recall session first: re-registering the
// hotkeys drops its release watch.
func (e *Engine) applySettings(s settings.Settings) error {
	if e.recall.Cancel() {
		slog.Info("recall session cancelled by settings change")
	}
	err := e.model.Apply(s)
	cur := e.model.Current()
	e.hub.Publish(hub.Event{Kind: hub.SettingsChanged, Settings: &cur})
	return err
}

// record adds text to history and, when it changed, persists and publishes.
func (e *Engine) record(text string) bool {
	if !e.history.Record(text, e.cfg.Now()) {
		return false
	}
	e.historyChanged()
	return true
}

func (e *Engine) historyChanged() {
	e.cfg.Persister.SaveHistory(e.history.Snapshot(), e.history.Capacity())
	e.publishHistory()
}

func (e *Engine) publishHistory() {
	e.hub.Publish(hub.Event{Kind: hub.HistoryChanged, Entries: e.history.Snapshot()})
}

// writeClipboard puts text on the clipboard and records it right away. The
// watcher notification that follows is folded into this write.
func (e *Engine) writeClipboard(text string) error {
	if err := e.cfg.Clipboard.WriteText(text); err != nil {
		return err
	}
	e.lastWritten = text
	e.record(text)
	return nil
}

// selfWriter is the recall machine's clipboard.
type selfWriter struct{ e *Engine }

func (w selfWriter) WriteText(text string) error { return w.e.writeClipboard(text) }

// capacity is the settings model's view of the history. Evictions are
// persisted and published like any other history change.
type capacity struct{ e *Engine }

func (c capacity) SetCapacity(n int) (int, error) {
	evicted, err := c.e.history.SetCapacity(n)
	if err == nil && evicted > 0 {
		c.e.historyChanged()
	}
	return evicted, err
}

// sessionEvents forwards recall session changes to the hub.
type sessionEvents struct{ e *Engine }

func (s sessionEvents) Opened(snapshot []history.Entry) {
	s.e.hub.Publish(hub.Event{Kind: hub.SessionOpened, Entries: snapshot})
}

func (s sessionEvents) Selected(cursor int, entry history.Entry) {
	s.e.hub.Publish(hub.Event{Kind: hub.SelectionChanged, Cursor: cursor, Text: entry.Text})
}

func (s sessionEvents) Closed(committed bool, text string) {
	s.e.hub.Publish(hub.Event{Kind: hub.SessionClosed, Committed: committed, Text: text})
}

// ── requests from other goroutines ───────────────────────────────────────

// do runs fn on the control goroutine and waits for it.
func (e *Engine) do(ctx context.Context, fn func()) error {
	done := make(chan struct{})
	select {
	case e.reqs <- func() { fn(); close(done) }:
	case <-e.stopped:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Snapshot returns the history, most recent first.
func (e *Engine) Snapshot(ctx context.Context) ([]history.Entry, error) {
	var out []history.Entry
	err := e.do(ctx, func() { out = e.history.Snapshot() })
	return out, err
}

// Select commits history entry i. With a recall session open the index
// refers to the session snapshot and the session commits as if picked in
// the overlay; otherwise the entry is written to the clipboard and moved to
// the front, and a paste follows when paste is true.
func (e *Engine) Select(ctx context.Context, i int, paste bool) (string, error) {
	var (
		text string
		rerr error
	)
	err := e.do(ctx, func() {
		if e.recall.State() == recall.Open {
			text, rerr = e.recall.Pick(i)
			return
		}
		entries := e.history.Snapshot()
		if i < 0 || i >= len(entries) {
			rerr = fmt.Errorf("select %d of %d: %w", i, len(entries), recall.ErrIndexOutOfRange)
			return
		}
		text = entries[i].Text
		if rerr = e.writeClipboard(text); rerr != nil {
			rerr = fmt.Errorf("clipboard write: %w", rerr)
			return
		}
		if paste {
			time.AfterFunc(e.pasteDelay(), e.cfg.Paste)
		}
	})
	return text, errors.Join(err, rerr)
}

func (e *Engine) pasteDelay() time.Duration {
	if e.cfg.PasteDelay > 0 {
		return e.cfg.PasteDelay
	}
	return recall.DefaultPasteDelay
}

// Copy writes text to the clipboard and records it.
func (e *Engine) Copy(ctx context.Context, text string) error {
	var rerr error
	err := e.do(ctx, func() {
		if rerr = e.writeClipboard(text); rerr != nil {
			rerr = fmt.Errorf("clipboard write: %w", rerr)
		}
	})
	return errors.Join(err, rerr)
}

// Current returns the most recent history entry.
func (e *Engine) Current(ctx context.Context) (history.Entry, bool, error) {
	var (
		entry history.Entry
		ok    bool
	)
	err := e.do(ctx, func() { entry, ok = e.history.Front() })
	return entry, ok, err
}

// Cancel closes an open recall session without committing. It reports
// whether one was open.
func (e *Engine) Cancel(ctx context.Context) (bool, error) {
	var open bool
	err := e.do(ctx, func() { open = e.recall.Cancel() })
	return open, err
}

// Settings returns the active settings.
func (e *Engine) Settings(ctx context.Context) (settings.Settings, error) {
	var s settings.Settings
	err := e.do(ctx, func() { s = e.model.Current() })
	return s, err
}

// ApplySettings runs the settings apply transaction and returns the
// settings in effect afterwards along with any apply error.
func (e *Engine) ApplySettings(ctx context.Context, s settings.Settings) (settings.Settings, error) {
	var (
		cur  settings.Settings
		aerr error
	)
	err := e.do(ctx, func() {
		aerr = e.applySettings(s)
		cur = e.model.Current()
	})
	return cur, errors.Join(err, aerr)
}

// Status describes the running engine.
type Status struct {
	Clipboard   string
	Entries     int
	Capacity    int
	Captured    uint64
	Session     recall.State
	Cursor      int
	Candidates  int
	SwapHotkey  hotkey.Binding
	TypeHotkey  hotkey.Binding
	Minimized   bool
	Subscribers int
	Started     time.Time
}

// Status returns a snapshot of the engine state.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	var st Status
	err := e.do(ctx, func() {
		swap, typ := e.router.Bindings()
		st = Status{
			Clipboard:   e.cfg.Clipboard.Name(),
			Entries:     e.history.Len(),
			Capacity:    e.history.Capacity(),
			Captured:    e.captured,
			Session:     e.recall.State(),
			SwapHotkey:  swap,
			TypeHotkey:  typ,
			Minimized:   e.minimized,
			Subscribers: e.hub.Len(),
			Started:     e.started,
		}
		if s := e.recall.Session(); s != nil {
			st.Cursor = s.Cursor()
			st.Candidates = len(s.Snapshot())
		}
	})
	return st, err
}
