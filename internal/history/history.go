// Package history implements the clipboard history buffer: an ordered,
// capacity-bounded, deduplicated list of text entries, most recent first.
//
// The buffer is a plain data structure with no locking and no I/O. It is owned
// by a single goroutine (the engine's control loop); callers that need to hand
// the contents elsewhere use Snapshot.
package history

import (
	"errors"
	"strings"
	"time"
)

// DefaultCapacity is the capacity used when none is configured.
const DefaultCapacity = 1000

// ErrInvalidCapacity is returned when a capacity below 1 is requested.
var ErrInvalidCapacity = errors.New("capacity must be at least 1")

// Entry is one captured clipboard text value. CapturedAt is the time the text
// was first seen; moving an entry to the front does not change it.
type Entry struct {
	Text       string
	CapturedAt time.Time
}

// Store is the history buffer. The zero value is not usable; call New.
type Store struct {
	entries  []Entry
	capacity int
}

// New returns an empty store. capacity values below 1 fall back to
// DefaultCapacity.
func New(capacity int) *Store {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Store{capacity: capacity}
}

// Len returns the number of entries.
func (s *Store) Len() int { return len(s.entries) }

// Capacity returns the configured maximum length.
func (s *Store) Capacity() int { return s.capacity }

// Record adds text to the front of the history and reports whether the buffer
// changed.
//
// Empty and whitespace-only text is ignored. Text already present anywhere in
// the buffer is moved to the front and keeps its original CapturedAt; text
// already at the front is a no-op. New text is inserted with capturedAt and the
// tail is evicted down to capacity.
func (s *Store) Record(text string, capturedAt time.Time) bool {
	if strings.TrimSpace(text) == "" {
		return false
	}
	if i := s.index(text); i >= 0 {
		if i == 0 {
			return false
		}
		e := s.entries[i]
		copy(s.entries[1:i+1], s.entries[:i])
		s.entries[0] = e
		return true
	}

	s.entries = append(s.entries, Entry{})
	copy(s.entries[1:], s.entries[:len(s.entries)-1])
	s.entries[0] = Entry{Text: text, CapturedAt: capturedAt}
	s.evict()
	return true
}

// SetCapacity changes the maximum length, evicting from the tail when the
// buffer is longer than n. It returns the number of evicted entries.
func (s *Store) SetCapacity(n int) (int, error) {
	if n < 1 {
		return 0, ErrInvalidCapacity
	}
	s.capacity = n
	return s.evict(), nil
}

// Restore replaces the contents with entries, as loaded from persistence.
// Empty text is dropped, the first occurrence of duplicated text wins and the
// result is truncated to capacity.
func (s *Store) Restore(entries []Entry) {
	seen := make(map[string]struct{}, len(entries))
	out := make([]Entry, 0, min(len(entries), s.capacity))
	for _, e := range entries {
		if strings.TrimSpace(e.Text) == "" {
			continue
		}
		if _, dup := seen[e.Text]; dup {
			continue
		}
		seen[e.Text] = struct{}{}
		out = append(out, e)
		if len(out) == s.capacity {
			break
		}
	}
	s.entries = out
}

// Snapshot returns a copy of the entries, most recent first.
func (s *Store) Snapshot() []Entry {
	out := make([]Entry, len(s.entries))
	copy(out, s.entries)
	return out
}

// Front returns the most recent entry.
func (s *Store) Front() (Entry, bool) {
	if len(s.entries) == 0 {
		return Entry{}, false
	}
	return s.entries[0], true
}

// Contains reports whether text is in the buffer.
func (s *Store) Contains(text string) bool { return s.index(text) >= 0 }

func (s *Store) index(text string) int {
	for i, e := range s.entries {
		if e.Text == text {
			return i
		}
	}
	return -1
}

// evict drops entries beyond capacity and returns how many were dropped.
func (s *Store) evict() int {
	n := len(s.entries) - s.capacity
	if n <= 0 {
		return 0
	}
	clear(s.entries[s.capacity:])
	s.entries = s.entries[:s.capacity]
	return n
}
