package hotkey

import (
	"errors"
	"fmt"
	"strings"
)

// ErrMalformedBinding is wrapped by BindingError when a combination cannot be
// parsed.
var ErrMalformedBinding = errors.New("malformed hotkey")

// BindingError reports a hotkey that could not be parsed or registered.
type BindingError struct {
	Binding string
	Err     error
}

func (e *BindingError) Error() string {
	return fmt.Sprintf("hotkey %q: %v", e.Binding, e.Err)
}

func (e *BindingError) Unwrap() error { return e.Err }

// Modifier is a modifier key in its canonical lowercase form.
type Modifier string

const (
	ModCtrl  Modifier = "ctrl"
	ModShift Modifier = "shift"
	ModAlt   Modifier = "alt"
	ModSuper Modifier = "super"
)

var modifierAliases = map[string]Modifier{
	"ctrl":    ModCtrl,
	"control": ModCtrl,
	"shift":   ModShift,
	"alt":     ModAlt,
	"option":  ModAlt,
	"opt":     ModAlt,
	"super":   ModSuper,
	"win":     ModSuper,
	"windows": ModSuper,
	"cmd":     ModSuper,
	"command": ModSuper,
	"meta":    ModSuper,
}

// keyNames lists the trigger keys every backend can register.
var keyNames = func() map[string]struct{} {
	m := make(map[string]struct{})
	for c := 'a'; c <= 'z'; c++ {
		m[string(c)] = struct{}{}
	}
	for c := '0'; c <= '9'; c++ {
		m[string(c)] = struct{}{}
	}
	for i := 1; i <= 12; i++ {
		m[fmt.Sprintf("f%d", i)] = struct{}{}
	}
	for _, k := range []string{"space", "tab", "enter", "esc", "delete", "left", "right", "up", "down"} {
		m[k] = struct{}{}
	}
	return m
}()

var keyAliases = map[string]string{
	"return": "enter",
	"escape": "esc",
	"del":    "delete",
}

// Binding is a global key combination: zero or more modifiers plus exactly
// one trigger key. The zero Binding is "unset".
type Binding struct {
	Modifiers []Modifier
	Key       string
}

// IsZero reports whether the binding is unset.
func (b Binding) IsZero() bool { return b.Key == "" }

// String returns the canonical form, e.g. "ctrl+shift+q", or "" when unset.
func (b Binding) String() string {
	if b.IsZero() {
		return ""
	}
	parts := make([]string, 0, len(b.Modifiers)+1)
	for _, m := range b.Modifiers {
		parts = append(parts, string(m))
	}
	return strings.Join(append(parts, b.Key), "+")
}

// Display returns the form shown in settings, e.g. "Ctrl + Q", or "None".
func (b Binding) Display() string {
	if b.IsZero() {
		return "None"
	}
	parts := strings.Split(b.String(), "+")
	for i, p := range parts {
		parts[i] = strings.ToUpper(p[:1]) + p[1:]
	}
	return strings.Join(parts, " + ")
}

// Primary returns the first listed modifier, the one whose release commits a
// recall session.
func (b Binding) Primary() (Modifier, bool) {
	if len(b.Modifiers) == 0 {
		return "", false
	}
	return b.Modifiers[0], true
}

// Parse reads a "+"-joined combination. Case and whitespace are ignored, so
// "Ctrl + Q" and "ctrl+q" are equal. Empty text and "none" yield the unset
// binding.
func Parse(s string) (Binding, error) {
	norm := strings.ToLower(strings.Join(strings.Fields(s), ""))
	if norm == "" || norm == "none" {
		return Binding{}, nil
	}

	var b Binding
	seen := make(map[Modifier]bool)
	for _, part := range strings.Split(norm, "+") {
		if part == "" {
			return Binding{}, &BindingError{Binding: s, Err: fmt.Errorf("%w: empty key", ErrMalformedBinding)}
		}
		if m, ok := modifierAliases[part]; ok {
			if !seen[m] {
				seen[m] = true
				b.Modifiers = append(b.Modifiers, m)
			}
			continue
		}
		if alias, ok := keyAliases[part]; ok {
			part = alias
		}
		if _, ok := keyNames[part]; !ok {
			return Binding{}, &BindingError{Binding: s, Err: fmt.Errorf("%w: unknown key %q", ErrMalformedBinding, part)}
		}
		if b.Key != "" {
			return Binding{}, &BindingError{Binding: s, Err: fmt.Errorf("%w: more than one trigger key", ErrMalformedBinding)}
		}
		b.Key = part
	}
	if b.Key == "" {
		return Binding{}, &BindingError{Binding: s, Err: fmt.Errorf("%w: no trigger key", ErrMalformedBinding)}
	}
	return b, nil
}

// Normalize returns the canonical form of s, or s unchanged with an error if
// it does not parse.
func Normalize(s string) (string, error) {
	b, err := Parse(s)
	if err != nil {
		return s, err
	}
	return b.String(), nil
}
