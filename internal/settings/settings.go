// Package settings holds the user-facing configuration record and the apply
// transaction that pushes a new record into the running engine.
package settings

import (
	"errors"
	"fmt"
	"log/slog"

	"go.klb.dev/smartclip/internal/history"
	"go.klb.dev/smartclip/internal/hotkey"
)

// ErrInvalidCapacity is returned by Validate and Apply for capacities below 1.
var ErrInvalidCapacity = history.ErrInvalidCapacity

// Settings is the persisted configuration record. Field names match the
// settings file.
type Settings struct {
	SwapHotkey        string `json:"swap_hotkey"`
	TypeHotkey        string `json:"type_hotkey"`
	RunAtStartup      bool   `json:"run_at_startup"`
	ShowNotifications bool   `json:"show_notifications"`
	MaxStackSize      int    `json:"max_stack_size"`
	DarkMode          bool   `json:"dark_mode"`
}

// Defaults returns the settings used when nothing is persisted.
func Defaults() Settings {
	return Settings{
		SwapHotkey:        "ctrl+q",
		TypeHotkey:        "",
		RunAtStartup:      false,
		ShowNotifications: true,
		MaxStackSize:      history.DefaultCapacity,
		DarkMode:          false,
	}
}

// Validate checks fields that can be rejected before anything changes.
func (s Settings) Validate() error {
	if s.MaxStackSize < 1 {
		return fmt.Errorf("max_stack_size %d: %w", s.MaxStackSize, ErrInvalidCapacity)
	}
	return nil
}

// Theme returns "dark" or "light".
func (s Settings) Theme() string {
	if s.DarkMode {
		return "dark"
	}
	return "light"
}

// StartupRegistrar enables or disables launch at OS login. Per-OS mechanics
// live outside this module.
type StartupRegistrar interface {
	Enable() error
	Disable() error
	IsEnabled() bool
}

// NopRegistrar records the requested state without touching the OS.
type NopRegistrar struct{ enabled bool }

func (r *NopRegistrar) Enable() error {
	r.enabled = true
	slog.Debug("startup registration requested (no-op)")
	return nil
}

func (r *NopRegistrar) Disable() error {
	r.enabled = false
	return nil
}

func (r *NopRegistrar) IsEnabled() bool { return r.enabled }

// CapacitySetter is the history side of Apply.
type CapacitySetter interface {
	SetCapacity(n int) (int, error)
}

// Binder is the hotkey side of Apply. hotkey.Router implements it.
type Binder interface {
	ApplyBindings(swap, typ string) error
}

// Saver persists the applied record. It must not block.
type Saver interface {
	SaveSettings(s Settings)
}

// Model owns the current Settings. Like the rest of the engine state it is
// used from a single goroutine.
type Model struct {
	cur       Settings
	history   CapacitySetter
	hotkeys   Binder
	registrar StartupRegistrar
	saver     Saver

	// hotkeys last registered successfully, valid once registered is set
	activeSwap, activeType string
	registered             bool
}

// NewModel returns a Model holding initial. Nothing is applied until Apply.
func NewModel(initial Settings, h CapacitySetter, b Binder, r StartupRegistrar, s Saver) *Model {
	if r == nil {
		r = &NopRegistrar{}
	}
	return &Model{cur: initial, history: h, hotkeys: b, registrar: r, saver: s}
}

// Current returns the active settings.
func (m *Model) Current() Settings { return m.cur }

// Apply replaces the settings and pushes them, in order, to history capacity,
// hotkey bindings, startup registration and persistence.
//
// An invalid capacity is rejected before anything changes. A hotkey failure
// keeps the previously registered bindings (both in the OS and in Current)
// while the other fields still take effect; a startup registration failure
// does not undo capacity or hotkeys. Failures are joined into the returned error.
//
// Until some set of bindings has registered, a hotkey failure keeps the
// configured combinations in Current and in the saved record, so a hotkey
// held by another program at launch is not erased from the settings file.
// hotkey.Router.Bindings reports what is actually registered.
func (m *Model) Apply(next Settings) error {
	if err := next.Validate(); err != nil {
		return err
	}

	next.SwapHotkey = canonical(next.SwapHotkey)
	next.TypeHotkey = canonical(next.TypeHotkey)

	prev := m.cur
	m.cur = next

	var errs []error
	if evicted, err := m.history.SetCapacity(next.MaxStackSize); err != nil {
		errs = append(errs, err)
	} else if evicted > 0 {
		slog.Info("history trimmed to new capacity", "capacity", next.MaxStackSize, "evicted", evicted)
	}

	if err := m.hotkeys.ApplyBindings(next.SwapHotkey, next.TypeHotkey); err != nil {
		if m.registered {
			m.cur.SwapHotkey, m.cur.TypeHotkey = m.activeSwap, m.activeType
		} else {
			m.cur.SwapHotkey, m.cur.TypeHotkey = canonical(prev.SwapHotkey), canonical(prev.TypeHotkey)
			slog.Warn("hotkeys not registered, keeping configured bindings",
				"swap", m.cur.SwapHotkey, "type", m.cur.TypeHotkey)
		}
		errs = append(errs, err)
	} else {
		m.activeSwap, m.activeType = next.SwapHotkey, next.TypeHotkey
		m.registered = true
	}

	if err := m.applyStartup(next.RunAtStartup); err != nil {
		errs = append(errs, fmt.Errorf("startup registration: %w", err))
	}

	m.saver.SaveSettings(m.cur)
	return errors.Join(errs...)
}

// canonical stores hotkeys as "ctrl+q" rather than "Ctrl + Q". Text that
// does not parse is kept as typed so the router reports it.
func canonical(s string) string {
	if c, err := hotkey.Normalize(s); err == nil {
		return c
	}
	return s
}

func (m *Model) applyStartup(enable bool) error {
	if enable {
		return m.registrar.Enable()
	}
	if !m.registrar.IsEnabled() {
		return nil
	}
	return m.registrar.Disable()
}
