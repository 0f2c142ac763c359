package hotkey

import (
	"errors"
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		primary Modifier
	}{
		{"ctrl+q", "ctrl+q", ModCtrl},
		{"Ctrl + Q", "ctrl+q", ModCtrl},
		{"CTRL+SHIFT+v", "ctrl+shift+v", ModCtrl},
		{"shift+ctrl+v", "shift+ctrl+v", ModShift},
		{"control+ctrl+a", "ctrl+a", ModCtrl},
		{"cmd+option+space", "super+alt+space", ModSuper},
		{"f9", "f9", ""},
		{"alt+Escape", "alt+esc", ModAlt},
		{"win+return", "super+enter", ModSuper},
	}
	for _, tt := range tests {
		b, err := Parse(tt.in)
		if err != nil {
			t.Errorf("Parse(%q): %v", tt.in, err)
			continue
		}
		if got := b.String(); got != tt.want {
			t.Errorf("Parse(%q) = %q, want %q", tt.in, got, tt.want)
		}
		p, ok := b.Primary()
		if p != tt.primary || ok != (tt.primary != "") {
			t.Errorf("Parse(%q).Primary() = %q, %v", tt.in, p, ok)
		}
	}
}

func TestParseUnset(t *testing.T) {
	for _, in := range []string{"", "  ", "none", "None", "NONE"} {
		b, err := Parse(in)
		if err != nil {
			t.Errorf("Parse(%q): %v", in, err)
		}
		if !b.IsZero() {
			t.Errorf("Parse(%q) = %q, want unset", in, b)
		}
	}
}

func TestParseMalformed(t *testing.T) {
	for _, in := range []string{"ctrl", "ctrl+shift", "ctrl+a+b", "ctrl++q", "+q", "ctrl+hyper", "ctrl+"} {
		_, err := Parse(in)
		var be *BindingError
		if !errors.As(err, &be) {
			t.Errorf("Parse(%q) err = %v, want *BindingError", in, err)
			continue
		}
		if be.Binding != in {
			t.Errorf("BindingError.Binding = %q, want %q", be.Binding, in)
		}
		if !errors.Is(err, ErrMalformedBinding) {
			t.Errorf("Parse(%q) should wrap ErrMalformedBinding", in)
		}
	}
}

func TestDisplay(t *testing.T) {
	b, _ := Parse("ctrl+shift+q")
	if got := b.Display(); got != "Ctrl + Shift + Q" {
		t.Errorf("Display = %q", got)
	}
	if got := (Binding{}).Display(); got != "None" {
		t.Errorf("unset Display = %q", got)
	}
}

func TestNormalize(t *testing.T) {
	if got, err := Normalize(" Alt + F4 "); err != nil || got != "alt+f4" {
		t.Errorf("Normalize = %q, %v", got, err)
	}
	if got, err := Normalize("ctrl"); err == nil || got != "ctrl" {
		t.Errorf("Normalize(ctrl) = %q, %v", got, err)
	}
}
