package store

import (
	"log/slog"
	"sync"

	"go.klb.dev/smartclip/internal/history"
	"go.klb.dev/smartclip/internal/settings"
)

// Saver writes to a Gateway from a background goroutine. Requests never
// block the caller; while a write is in progress newer requests replace
// older pending ones of the same kind, so only the latest state is written.
type Saver struct {
	gw *Gateway

	mu       sync.Mutex
	history  *historyJob
	settings *settings.Settings
	wake     chan struct{}

	done    chan struct{}
	stopped chan struct{}
	once    sync.Once
}

type historyJob struct {
	entries  []history.Entry
	capacity int
}

// NewSaver starts a Saver writing through gw. Call Close to flush and stop.
func NewSaver(gw *Gateway) *Saver {
	s := &Saver{
		gw:      gw,
		wake:    make(chan struct{}, 1),
		done:    make(chan struct{}),
		stopped: make(chan struct{}),
	}
	go s.loop()
	return s
}

// SaveHistory queues a history write. entries must not be modified
// afterwards; pass a Snapshot.
func (s *Saver) SaveHistory(entries []history.Entry, capacity int) {
	s.mu.Lock()
	s.history = &historyJob{entries: entries, capacity: capacity}
	s.mu.Unlock()
	s.signal()
}

// SaveSettings queues a settings write.
func (s *Saver) SaveSettings(v settings.Settings) {
	s.mu.Lock()
	s.settings = &v
	s.mu.Unlock()
	s.signal()
}

func (s *Saver) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Saver) loop() {
	defer close(s.stopped)
	for {
		select {
		case <-s.wake:
			s.flush()
		case <-s.done:
			s.flush()
			return
		}
	}
}

func (s *Saver) flush() {
	s.mu.Lock()
	h, st := s.history, s.settings
	s.history, s.settings = nil, nil
	s.mu.Unlock()

	if h != nil {
		if err := s.gw.SaveHistory(h.entries, h.capacity); err != nil {
			slog.Error("history save failed", "err", err)
		} else {
			slog.Debug("history saved", "entries", len(h.entries))
		}
	}
	if st != nil {
		if err := s.gw.SaveSettings(*st); err != nil {
			slog.Error("settings save failed", "err", err)
		} else {
			slog.Debug("settings saved")
		}
	}
}

// Close writes anything pending and stops the goroutine.
func (s *Saver) Close() {
	s.once.Do(func() { close(s.done) })
	<-s.stopped
}
