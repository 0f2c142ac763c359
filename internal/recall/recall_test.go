package recall

import (
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"go.klb.dev/smartclip/internal/history"
	"go.klb.dev/smartclip/internal/hotkey"
)

type fakeClipboard struct {
	writes []string
	err    error
}

func (c *fakeClipboard) WriteText(text string) error {
	if c.err != nil {
		return c.err
	}
	c.writes = append(c.writes, text)
	return nil
}

type fakeWatcher struct {
	armed    bool
	modifier hotkey.Modifier
	arms     int
	err      error
}

func (w *fakeWatcher) ArmRelease(m hotkey.Modifier) error {
	w.arms++
	if w.err != nil {
		return w.err
	}
	w.armed = true
	w.modifier = m
	return nil
}

func (w *fakeWatcher) DisarmRelease() { w.armed = false }

type recorder struct {
	opened   int
	cursors  []int
	closed   []bool
	lastText string
}

func (r *recorder) Opened([]history.Entry)          { r.opened++ }
func (r *recorder) Selected(i int, _ history.Entry) { r.cursors = append(r.cursors, i) }
func (r *recorder) Closed(committed bool, text string) {
	r.closed = append(r.closed, committed)
	r.lastText = text
}

func entries(texts ...string) []history.Entry {
	out := make([]history.Entry, len(texts))
	for i, t := range texts {
		out[i] = history.Entry{Text: t}
	}
	return out
}

var ctrlQ = hotkey.Binding{Modifiers: []hotkey.Modifier{hotkey.ModCtrl}, Key: "q"}

type fixture struct {
	m      *Machine
	clip   *fakeClipboard
	watch  *fakeWatcher
	events *recorder
	pasted *atomic.Int32
}

func newFixture() *fixture {
	f := &fixture{
		clip:   &fakeClipboard{},
		watch:  &fakeWatcher{},
		events: &recorder{},
		pasted: &atomic.Int32{},
	}
	f.m = New(Config{
		Clipboard:  f.clip,
		Watcher:    f.watch,
		Paste:      func() { f.pasted.Add(1) },
		PasteDelay: time.Millisecond,
		Listener:   f.events,
	})
	return f
}

func (f *fixture) swap(texts ...string) {
	f.m.Swap(func() []history.Entry { return entries(texts...) }, ctrlQ)
}

func selected(t *testing.T, m *Machine) string {
	t.Helper()
	s := m.Session()
	if s == nil {
		t.Fatal("no session")
	}
	e, ok := s.Selected()
	if !ok {
		t.Fatal("nothing selected")
	}
	return e.Text
}

func TestFirstSwapOpensAtMostRecent(t *testing.T) {
	f := newFixture()
	f.swap("x", "y", "z")
	if f.m.State() != Open {
		t.Fatal("session should be open")
	}
	if got := selected(t, f.m); got != "x" {
		t.Errorf("selected %q, want x", got)
	}
	if !f.watch.armed || f.watch.modifier != hotkey.ModCtrl {
		t.Errorf("release watch = %+v", f.watch)
	}
	if f.events.opened != 1 {
		t.Errorf("opened events = %d", f.events.opened)
	}
}

func TestSwapCyclesAndWraps(t *testing.T) {
	f := newFixture()
	f.swap("x", "y", "z")
	want := []string{"y", "z", "x"}
	for _, w := range want {
		f.swap("ignored")
		if got := selected(t, f.m); got != w {
			t.Fatalf("selected %q, want %q", got, w)
		}
	}
	if f.watch.arms != 1 {
		t.Errorf("cycling re-armed the watch %d times", f.watch.arms)
	}
}

func TestSwapOnEmptySnapshotIsNoop(t *testing.T) {
	f := newFixture()
	f.swap()
	f.swap()
	if f.m.State() != Open || f.m.Session().Cursor() != 0 {
		t.Fatal("empty session should stay open at 0")
	}
	text, err := f.m.Release()
	if err != nil || text != "" {
		t.Errorf("Release = %q, %v", text, err)
	}
	if len(f.clip.writes) != 0 {
		t.Error("empty commit wrote the clipboard")
	}
	if f.m.State() != Closed || f.watch.armed {
		t.Error("empty commit should close and disarm")
	}
}

func TestReleaseCommitsSelected(t *testing.T) {
	f := newFixture()
	f.swap("x", "y", "z")
	f.swap()
	text, err := f.m.Release()
	if err != nil {
		t.Fatal(err)
	}
	if text != "y" || len(f.clip.writes) != 1 || f.clip.writes[0] != "y" {
		t.Errorf("committed %q, writes %q", text, f.clip.writes)
	}
	if f.m.State() != Closed || f.watch.armed {
		t.Error("commit should close and disarm")
	}
	if len(f.events.closed) != 1 || !f.events.closed[0] || f.events.lastText != "y" {
		t.Errorf("closed events %v %q", f.events.closed, f.events.lastText)
	}

	deadline := time.Now().Add(time.Second)
	for f.pasted.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	if f.pasted.Load() != 1 {
		t.Error("paste was not triggered")
	}
}

func TestCancelLeavesClipboard(t *testing.T) {
	f := newFixture()
	f.swap("x", "y")
	f.swap()
	if !f.m.Cancel() {
		t.Fatal("Cancel should report an open session")
	}
	if len(f.clip.writes) != 0 {
		t.Errorf("cancel wrote %q", f.clip.writes)
	}
	if f.m.State() != Closed || f.watch.armed {
		t.Error("cancel should close and disarm")
	}
	time.Sleep(5 * time.Millisecond)
	if f.pasted.Load() != 0 {
		t.Error("cancel triggered a paste")
	}
	if f.m.Cancel() {
		t.Error("second Cancel should be a no-op")
	}
}

func TestPick(t *testing.T) {
	f := newFixture()
	f.swap("x", "y", "z")
	if _, err := f.m.Pick(7); !errors.Is(err, ErrIndexOutOfRange) {
		t.Fatalf("Pick(7) err = %v", err)
	}
	if f.m.State() != Open {
		t.Fatal("bad pick should leave the session open")
	}
	text, err := f.m.Pick(2)
	if err != nil || text != "z" {
		t.Fatalf("Pick(2) = %q, %v", text, err)
	}
	if f.m.State() != Closed || f.clip.writes[0] != "z" {
		t.Error("pick should commit")
	}
}

func TestEventsWhileClosed(t *testing.T) {
	f := newFixture()
	if _, err := f.m.Release(); !errors.Is(err, ErrClosed) {
		t.Errorf("Release err = %v", err)
	}
	if _, err := f.m.Pick(0); !errors.Is(err, ErrClosed) {
		t.Errorf("Pick err = %v", err)
	}
	if len(f.clip.writes) != 0 {
		t.Error("closed machine wrote the clipboard")
	}
}

func TestOpenReplacesSessionWithoutCommit(t *testing.T) {
	f := newFixture()
	f.swap("x", "y")
	f.swap()
	f.m.Open(entries("p", "q"), ctrlQ)
	if got := selected(t, f.m); got != "p" {
		t.Errorf("selected %q", got)
	}
	if len(f.clip.writes) != 0 {
		t.Error("replacing a session committed it")
	}
	if len(f.events.closed) != 1 || f.events.closed[0] {
		t.Errorf("closed events = %v", f.events.closed)
	}
	if f.watch.arms != 2 || !f.watch.armed {
		t.Errorf("watch arms = %d armed = %v", f.watch.arms, f.watch.armed)
	}
}

func TestSnapshotIsFrozen(t *testing.T) {
	f := newFixture()
	store := history.New(10)
	store.Record("a", time.Time{})
	store.Record("b", time.Time{})
	f.m.Swap(store.Snapshot, ctrlQ)

	store.Record("c", time.Time{})
	f.m.Swap(store.Snapshot, ctrlQ)
	if got := selected(t, f.m); got != "a" {
		t.Errorf("selected %q, want a from the frozen snapshot", got)
	}
	if n := len(f.m.Session().Snapshot()); n != 2 {
		t.Errorf("snapshot len = %d", n)
	}
}

func TestBindingWithoutModifierWatchesCtrl(t *testing.T) {
	f := newFixture()
	f.m.Swap(func() []history.Entry { return entries("x") }, hotkey.Binding{Key: "f9"})
	if f.watch.modifier != hotkey.ModCtrl {
		t.Errorf("watched %q", f.watch.modifier)
	}
}

func TestReleaseWatchFailureKeepsSessionUsable(t *testing.T) {
	f := newFixture()
	f.watch.err = errors.New("no device")
	f.swap("x", "y")
	if f.m.State() != Open {
		t.Fatal("session should open without a release watch")
	}
	if text, err := f.m.Pick(1); err != nil || text != "y" {
		t.Errorf("Pick = %q, %v", text, err)
	}
}

func TestClipboardWriteFailureCloses(t *testing.T) {
	f := newFixture()
	f.clip.err = errors.New("busy")
	f.swap("x")
	if _, err := f.m.Release(); err == nil {
		t.Fatal("expected error")
	}
	if f.m.State() != Closed || f.watch.armed {
		t.Error("failed commit should still close")
	}
}
