// Package hub fans engine events out to front-ends. It is transport-agnostic:
// subscribers register, receive events through a non-blocking Send, and may
// restrict themselves to a set of event kinds.
package hub

import (
	"log/slog"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"go.klb.dev/smartclip/internal/history"
	"go.klb.dev/smartclip/internal/settings"
)

// Kind names an engine event.
type Kind string

const (
	HistoryChanged   Kind = "history_changed"
	SessionOpened    Kind = "session_opened"
	SelectionChanged Kind = "selection_changed"
	SessionClosed    Kind = "session_closed"
	TypePressed      Kind = "type_pressed"
	SettingsChanged  Kind = "settings_changed"
)

// Event is delivered to subscribers. Which fields are set depends on Kind:
// Entries for HistoryChanged and SessionOpened, Cursor and Text for
// SelectionChanged, Committed and Text for SessionClosed, Settings for
// SettingsChanged.
type Event struct {
	Kind      Kind
	Seq       uint64
	Time      time.Time
	Entries   []history.Entry
	Cursor    int
	Text      string
	Committed bool
	Settings  *settings.Settings
}

// Subscriber is anything that receives hub events.
type Subscriber interface {
	ID() string
	// Accepts lists the kinds the subscriber wants; empty means all.
	Accepts() []Kind
	// Send delivers an event. Must be non-blocking.
	Send(Event)
}

// Hub routes engine events to every registered subscriber.
type Hub struct {
	mu     sync.RWMutex
	subs   map[string]Subscriber
	latest *Event // last HistoryChanged
	seq    atomic.Uint64
}

// New returns an empty Hub.
func New() *Hub {
	return &Hub{subs: make(map[string]Subscriber)}
}

// Register adds s and immediately delivers the latest history, if any and if
// s accepts it.
func (h *Hub) Register(s Subscriber) {
	h.mu.Lock()
	h.subs[s.ID()] = s
	latest := h.latest
	total := len(h.subs)
	h.mu.Unlock()

	slog.Info("subscriber registered", "subscriber", s.ID(), "total", total)

	if latest != nil && accepts(s, latest.Kind) {
		s.Send(*latest)
	}
}

// Unregister removes s.
func (h *Hub) Unregister(s Subscriber) {
	h.mu.Lock()
	delete(h.subs, s.ID())
	total := len(h.subs)
	h.mu.Unlock()

	slog.Info("subscriber unregistered", "subscriber", s.ID(), "total", total)
}

// Publish stamps ev with a sequence number and time and sends it to every
// subscriber that accepts its kind.
func (h *Hub) Publish(ev Event) {
	ev.Seq = h.seq.Add(1)
	if ev.Time.IsZero() {
		ev.Time = time.Now()
	}

	h.mu.Lock()
	if ev.Kind == HistoryChanged {
		cp := ev
		h.latest = &cp
	}
	targets := make([]Subscriber, 0, len(h.subs))
	for _, s := range h.subs {
		if accepts(s, ev.Kind) {
			targets = append(targets, s)
		}
	}
	h.mu.Unlock()

	LogEvent(ev)
	for _, s := range targets {
		s.Send(ev)
	}
}

// Len returns the number of registered subscribers.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

func accepts(s Subscriber, k Kind) bool {
	want := s.Accepts()
	return len(want) == 0 || slices.Contains(want, k)
}
