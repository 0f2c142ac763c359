package hub

import (
	"fmt"
	"log/slog"
	"sync/atomic"
)

const subscriberBuffer = 64

var nextID atomic.Uint64

// ChanSubscriber buffers events on a channel. A slow reader loses events
// rather than stalling the engine.
type ChanSubscriber struct {
	id     string
	kinds  []Kind
	ch     chan Event
	closed atomic.Bool
}

// NewChanSubscriber returns a subscriber named after prefix that accepts
// kinds (all when empty).
func NewChanSubscriber(prefix string, kinds ...Kind) *ChanSubscriber {
	return &ChanSubscriber{
		id:    fmt.Sprintf("%s-%d", prefix, nextID.Add(1)),
		kinds: kinds,
		ch:    make(chan Event, subscriberBuffer),
	}
}

func (s *ChanSubscriber) ID() string      { return s.id }
func (s *ChanSubscriber) Accepts() []Kind { return s.kinds }

// Events returns the delivery channel.
func (s *ChanSubscriber) Events() <-chan Event { return s.ch }

func (s *ChanSubscriber) Send(ev Event) {
	if s.closed.Load() {
		return
	}
	select {
	case s.ch <- ev:
	default:
		slog.Warn("subscriber channel full, dropping", "subscriber", s.id, "kind", ev.Kind)
	}
}

// Close stops delivery. The channel itself stays open so a racing Send
// cannot panic.
func (s *ChanSubscriber) Close() { s.closed.Store(true) }
