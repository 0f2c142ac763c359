package settings

import (
	"errors"
	"testing"
)

type call string

type journal struct{ calls []call }

func (j *journal) add(c call) { j.calls = append(j.calls, c) }

type fakeHistory struct {
	j        *journal
	capacity int
}

func (h *fakeHistory) SetCapacity(n int) (int, error) {
	h.j.add("capacity")
	h.capacity = n
	return 0, nil
}

type fakeBinder struct {
	j          *journal
	swap, typ  string
	err        error
	applyCalls int
}

func (b *fakeBinder) ApplyBindings(swap, typ string) error {
	b.j.add("hotkeys")
	b.applyCalls++
	if b.err != nil {
		return b.err
	}
	b.swap, b.typ = swap, typ
	return nil
}

type fakeRegistrar struct {
	j       *journal
	enabled bool
	err     error
}

func (r *fakeRegistrar) Enable() error {
	r.j.add("startup")
	if r.err != nil {
		return r.err
	}
	r.enabled = true
	return nil
}

func (r *fakeRegistrar) Disable() error {
	r.j.add("startup")
	r.enabled = false
	return r.err
}

func (r *fakeRegistrar) IsEnabled() bool { return r.enabled }

type fakeSaver struct {
	j     *journal
	saved []Settings
}

func (s *fakeSaver) SaveSettings(v Settings) {
	s.j.add("save")
	s.saved = append(s.saved, v)
}

type harness struct {
	j   *journal
	h   *fakeHistory
	b   *fakeBinder
	r   *fakeRegistrar
	s   *fakeSaver
	mdl *Model
}

func newHarness() *harness {
	j := &journal{}
	x := &harness{
		j: j,
		h: &fakeHistory{j: j},
		b: &fakeBinder{j: j},
		r: &fakeRegistrar{j: j},
		s: &fakeSaver{j: j},
	}
	x.mdl = NewModel(Defaults(), x.h, x.b, x.r, x.s)
	return x
}

func TestDefaults(t *testing.T) {
	d := Defaults()
	if d.MaxStackSize != 1000 || d.SwapHotkey != "ctrl+q" || d.TypeHotkey != "" ||
		d.RunAtStartup || !d.ShowNotifications || d.DarkMode {
		t.Errorf("Defaults = %+v", d)
	}
	if d.Theme() != "light" {
		t.Errorf("theme = %q", d.Theme())
	}
}

func TestApplyOrder(t *testing.T) {
	x := newHarness()
	next := Defaults()
	next.RunAtStartup = true
	next.MaxStackSize = 50
	if err := x.mdl.Apply(next); err != nil {
		t.Fatal(err)
	}
	want := []call{"capacity", "hotkeys", "startup", "save"}
	if len(x.j.calls) != len(want) {
		t.Fatalf("calls = %v", x.j.calls)
	}
	for i := range want {
		if x.j.calls[i] != want[i] {
			t.Fatalf("calls = %v, want %v", x.j.calls, want)
		}
	}
	if x.h.capacity != 50 || !x.r.enabled {
		t.Error("capacity or startup not applied")
	}
	if x.mdl.Current() != next {
		t.Errorf("Current = %+v", x.mdl.Current())
	}
}

func TestApplyInvalidCapacityMutatesNothing(t *testing.T) {
	x := newHarness()
	next := Defaults()
	next.MaxStackSize = 0
	next.DarkMode = true
	err := x.mdl.Apply(next)
	if !errors.Is(err, ErrInvalidCapacity) {
		t.Fatalf("err = %v", err)
	}
	if len(x.j.calls) != 0 {
		t.Errorf("calls = %v", x.j.calls)
	}
	if x.mdl.Current().DarkMode {
		t.Error("settings changed on invalid capacity")
	}
}

func TestApplyStartupFailureKeepsOtherSteps(t *testing.T) {
	x := newHarness()
	x.r.err = errors.New("denied")
	next := Defaults()
	next.RunAtStartup = true
	next.MaxStackSize = 7
	next.SwapHotkey = "alt+v"

	err := x.mdl.Apply(next)
	if err == nil || !errors.Is(err, x.r.err) {
		t.Fatalf("err = %v", err)
	}
	if x.h.capacity != 7 || x.b.swap != "alt+v" {
		t.Error("capacity and hotkeys should take effect")
	}
	if len(x.s.saved) != 1 {
		t.Error("settings should still be saved")
	}
}

func TestApplyBindingFailureRevertsHotkeys(t *testing.T) {
	x := newHarness()
	if err := x.mdl.Apply(Defaults()); err != nil {
		t.Fatal(err)
	}

	x.b.err = errors.New("claimed by another process")
	next := Defaults()
	next.SwapHotkey = "ctrl+shift+v"
	next.DarkMode = true
	err := x.mdl.Apply(next)
	if !errors.Is(err, x.b.err) {
		t.Fatalf("err = %v", err)
	}
	cur := x.mdl.Current()
	if cur.SwapHotkey != "ctrl+q" {
		t.Errorf("swap = %q, want previous ctrl+q", cur.SwapHotkey)
	}
	if !cur.DarkMode {
		t.Error("non-hotkey fields should still apply")
	}
	if got := x.s.saved[len(x.s.saved)-1]; got.SwapHotkey != "ctrl+q" {
		t.Errorf("saved swap = %q", got.SwapHotkey)
	}
}

func TestApplyBindingFailureAtStartupKeepsConfigured(t *testing.T) {
	x := newHarness()
	x.b.err = errors.New("claimed by another process")

	err := x.mdl.Apply(Defaults())
	if !errors.Is(err, x.b.err) {
		t.Fatalf("err = %v", err)
	}
	if got := x.mdl.Current().SwapHotkey; got != "ctrl+q" {
		t.Errorf("current swap = %q, want ctrl+q", got)
	}
	if got := x.s.saved[len(x.s.saved)-1]; got.SwapHotkey != "ctrl+q" {
		t.Errorf("saved swap = %q, want ctrl+q", got.SwapHotkey)
	}

	// A change that also fails falls back to the configured bindings, not
	// to the empty set registered so far.
	next := Defaults()
	next.SwapHotkey = "alt+v"
	next.DarkMode = true
	if err := x.mdl.Apply(next); err == nil {
		t.Fatal("expected binding error")
	}
	if cur := x.mdl.Current(); cur.SwapHotkey != "ctrl+q" || !cur.DarkMode {
		t.Errorf("current = %+v", cur)
	}

	// Once the conflict clears the configured bindings register.
	x.b.err = nil
	if err := x.mdl.Apply(x.mdl.Current()); err != nil {
		t.Fatal(err)
	}
	if x.b.swap != "ctrl+q" {
		t.Errorf("registered swap = %q", x.b.swap)
	}
}

func TestApplyCanonicalizesHotkeys(t *testing.T) {
	x := newHarness()
	next := Defaults()
	next.SwapHotkey = "Ctrl + Shift + V"
	next.TypeHotkey = "None"
	if err := x.mdl.Apply(next); err != nil {
		t.Fatal(err)
	}
	if x.b.swap != "ctrl+shift+v" || x.b.typ != "" {
		t.Errorf("binder got %q, %q", x.b.swap, x.b.typ)
	}
	if x.mdl.Current().SwapHotkey != "ctrl+shift+v" {
		t.Errorf("stored %q", x.mdl.Current().SwapHotkey)
	}
}

func TestApplyDisableStartupOnlyWhenEnabled(t *testing.T) {
	x := newHarness()
	if err := x.mdl.Apply(Defaults()); err != nil {
		t.Fatal(err)
	}
	for _, c := range x.j.calls {
		if c == "startup" {
			t.Error("disable called while not enabled")
		}
	}
}

func TestNopRegistrar(t *testing.T) {
	var r NopRegistrar
	_ = r.Enable()
	if !r.IsEnabled() {
		t.Error("not enabled")
	}
	_ = r.Disable()
	if r.IsEnabled() {
		t.Error("still enabled")
	}
}
