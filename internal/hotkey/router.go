// Package hotkey registers the global key combinations that drive clipboard
// recall and turns OS key callbacks into an ordered event stream.
//
// OS callbacks run on goroutines the Router does not own. They never touch
// Router state; they only enqueue an Event. The owner (the engine's control
// loop) drains Events, filters each one through Accept, and calls every other
// Router method from that same goroutine.
package hotkey

import (
	"log/slog"
	"sync"
)

// Kind identifies a recall protocol event.
type Kind int

const (
	SwapPressed Kind = iota + 1
	TypePressed
	ModifierReleased
)

func (k Kind) String() string {
	switch k {
	case SwapPressed:
		return "swap_pressed"
	case TypePressed:
		return "type_pressed"
	case ModifierReleased:
		return "modifier_released"
	default:
		return "unknown"
	}
}

// Event is a key event delivered by the Router.
type Event struct {
	Kind Kind
	gen  uint64 // release watch generation, ModifierReleased only
}

// Handle identifies an OS registration made by a Backend.
type Handle any

// Backend is the OS hotkey facility. Callbacks may run on any goroutine. A
// release callback that races with UnwatchRelease is tolerated: the Router
// discards release events from disarmed watches.
type Backend interface {
	// Register installs a global hotkey; fn runs on every press.
	Register(b Binding, fn func()) (Handle, error)
	// Unregister removes a hotkey. A nil handle is not an error.
	Unregister(h Handle) error
	// WatchRelease calls fn when the modifier key is released.
	WatchRelease(m Modifier, fn func()) (Handle, error)
	// UnwatchRelease stops a release watch. A nil handle is not an error.
	UnwatchRelease(h Handle) error
}

const eventBuffer = 64

type registration struct {
	binding Binding
	handle  Handle
}

// Router owns the swap hotkey, the type hotkey, and the modifier release watch.
type Router struct {
	backend Backend
	events  chan Event
	done    chan struct{}
	once    sync.Once

	swap registration
	typ  registration

	release Handle
	armed   bool
	gen     uint64
}

// NewRouter returns a Router with no active registrations.
func NewRouter(b Backend) *Router {
	return &Router{
		backend: b,
		events:  make(chan Event, eventBuffer),
		done:    make(chan struct{}),
	}
}

// Events returns the ordered event stream.
func (r *Router) Events() <-chan Event { return r.events }

// enqueue is the only thing OS callbacks do. It blocks rather than drops so
// no event is lost; backends call it from their own forwarding goroutines,
// never from inside an OS hook.
func (r *Router) enqueue(ev Event) {
	select {
	case r.events <- ev:
	case <-r.done:
	}
}

func (r *Router) callback(k Kind) func() {
	return func() { r.enqueue(Event{Kind: k}) }
}

// Bindings returns the currently registered swap and type bindings.
func (r *Router) Bindings() (swap, typ Binding) { return r.swap.binding, r.typ.binding }

// ApplyBindings replaces both hotkeys. Both combinations are parsed before
// anything changes. If registering the new set fails, the previous set is
// restored and a *BindingError is returned.
func (r *Router) ApplyBindings(swap, typ string) error {
	sb, err := Parse(swap)
	if err != nil {
		return err
	}
	tb, err := Parse(typ)
	if err != nil {
		return err
	}

	prevSwap, prevType := r.swap.binding, r.typ.binding
	r.unregisterAll()

	if err := r.register(sb, tb); err != nil {
		r.unregisterAll()
		if rerr := r.register(prevSwap, prevType); rerr != nil {
			slog.Error("restoring previous hotkeys failed", "err", rerr)
		}
		return err
	}

	slog.Info("hotkeys registered", "swap", sb.String(), "type", tb.String())
	return nil
}

func (r *Router) register(swap, typ Binding) error {
	if !swap.IsZero() {
		h, err := r.backend.Register(swap, r.callback(SwapPressed))
		if err != nil {
			return &BindingError{Binding: swap.String(), Err: err}
		}
		r.swap = registration{binding: swap, handle: h}
	}
	if !typ.IsZero() {
		h, err := r.backend.Register(typ, r.callback(TypePressed))
		if err != nil {
			return &BindingError{Binding: typ.String(), Err: err}
		}
		r.typ = registration{binding: typ, handle: h}
	}
	return nil
}

func (r *Router) unregisterAll() {
	for _, reg := range []*registration{&r.swap, &r.typ} {
		if reg.handle != nil {
			if err := r.backend.Unregister(reg.handle); err != nil {
				slog.Debug("hotkey unregister failed", "binding", reg.binding.String(), "err", err)
			}
		}
		*reg = registration{}
	}
	r.DisarmRelease()
}

// ArmRelease starts watching for the release of m. Any active watch is
// disarmed first.
func (r *Router) ArmRelease(m Modifier) error {
	r.DisarmRelease()
	r.gen++
	gen := r.gen
	h, err := r.backend.WatchRelease(m, func() {
		r.enqueue(Event{Kind: ModifierReleased, gen: gen})
	})
	if err != nil {
		return err
	}
	r.release = h
	r.armed = true
	slog.Debug("release watch armed", "modifier", m)
	return nil
}

// DisarmRelease stops the active release watch, if any. Release events from
// it that are still queued are rejected by Accept.
func (r *Router) DisarmRelease() {
	if !r.armed {
		return
	}
	if err := r.backend.UnwatchRelease(r.release); err != nil {
		slog.Debug("release unwatch failed", "err", err)
	}
	r.release = nil
	r.armed = false
}

// Armed reports whether a release watch is active.
func (r *Router) Armed() bool { return r.armed }

// Accept reports whether ev is still meaningful. Release events from a watch
// that has since been disarmed or replaced are stale.
func (r *Router) Accept(ev Event) bool {
	if ev.Kind != ModifierReleased {
		return true
	}
	return r.armed && ev.gen == r.gen
}

// Close removes every registration and unblocks pending callbacks.
func (r *Router) Close() {
	r.unregisterAll()
	r.once.Do(func() { close(r.done) })
}
