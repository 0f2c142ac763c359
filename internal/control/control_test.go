package control

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"go.klb.dev/smartclip/internal/engine"
	"go.klb.dev/smartclip/internal/history"
	"go.klb.dev/smartclip/internal/hub"
	"go.klb.dev/smartclip/internal/recall"
	"go.klb.dev/smartclip/internal/settings"
)

// fakeEngine keeps history in a plain slice, most recent first.
type fakeEngine struct {
	mu       sync.Mutex
	entries  []history.Entry
	settings settings.Settings
	open     bool
	pastes   int
}

func newFakeEngine(texts ...string) *fakeEngine {
	e := &fakeEngine{settings: settings.Defaults()}
	for _, t := range texts {
		e.entries = append(e.entries, history.Entry{Text: t})
	}
	return e
}

func (e *fakeEngine) Snapshot(context.Context) ([]history.Entry, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return append([]history.Entry(nil), e.entries...), nil
}

func (e *fakeEngine) Select(_ context.Context, i int, paste bool) (string, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i < 0 || i >= len(e.entries) {
		return "", fmt.Errorf("select %d: %w", i, recall.ErrIndexOutOfRange)
	}
	if paste {
		e.pastes++
	}
	return e.entries[i].Text, nil
}

func (e *fakeEngine) Copy(_ context.Context, text string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.entries = append([]history.Entry{{Text: text, CapturedAt: time.Now()}}, e.entries...)
	return nil
}

func (e *fakeEngine) Current(context.Context) (history.Entry, bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.entries) == 0 {
		return history.Entry{}, false, nil
	}
	return e.entries[0], true, nil
}

func (e *fakeEngine) Cancel(context.Context) (bool, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	was := e.open
	e.open = false
	return was, nil
}

func (e *fakeEngine) Settings(context.Context) (settings.Settings, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings, nil
}

func (e *fakeEngine) ApplySettings(_ context.Context, s settings.Settings) (settings.Settings, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if err := s.Validate(); err != nil {
		return e.settings, err
	}
	e.settings = s
	return e.settings, nil
}

func (e *fakeEngine) pasteCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.pastes
}

func (e *fakeEngine) current() settings.Settings {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.settings
}

func (e *fakeEngine) Status(context.Context) (engine.Status, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return engine.Status{
		Clipboard: "fake",
		Entries:   len(e.entries),
		Capacity:  e.settings.MaxStackSize,
		Session:   recall.Closed,
	}, nil
}

// serve starts Serve on a loopback listener and returns its address.
func serve(t *testing.T, svc *Service) string {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- Serve(ctx, ln, svc) }()
	t.Cleanup(func() {
		cancel()
		select {
		case err := <-done:
			if err != nil {
				t.Errorf("Serve: %v", err)
			}
		case <-time.After(5 * time.Second):
			t.Error("Serve did not return")
		}
	})
	return ln.Addr().String()
}

func dial(t *testing.T, addr, token string) *Client {
	t.Helper()
	c, err := Dial(func(ctx context.Context) (net.Conn, error) {
		var d net.Dialer
		return d.DialContext(ctx, "tcp", addr)
	}, token)
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = c.Close() })
	return c
}

func testCtx(t *testing.T) context.Context {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	t.Cleanup(cancel)
	return ctx
}

func TestClientRoundTrip(t *testing.T) {
	fe := newFakeEngine("gamma", "beta", "alpha")
	addr := serve(t, NewService(fe, hub.New(), ""))
	c := dial(t, addr, "")
	ctx := testCtx(t)

	if err := c.Copy(ctx, "delta"); err != nil {
		t.Fatal(err)
	}
	entries, err := c.History(ctx, "", false, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 4 || entries[0].Text != "delta" || entries[3].Index != 3 {
		t.Fatalf("History = %+v", entries)
	}
	if entries[0].CapturedAt.IsZero() {
		t.Error("captured_at lost in transit")
	}

	entries, err = c.History(ctx, "ta", false, 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 || entries[0].Text != "delta" {
		t.Fatalf("filtered History = %+v", entries)
	}

	text, err := c.Select(ctx, 2, true)
	if err != nil || text != "beta" {
		t.Fatalf("Select = %q, %v", text, err)
	}
	if n := fe.pasteCount(); n != 1 {
		t.Errorf("pastes = %d, want 1", n)
	}

	text, err = c.Paste(ctx)
	if err != nil || text != "delta" {
		t.Fatalf("Paste = %q, %v", text, err)
	}

	st, err := c.Status(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if st["clipboard"] != "fake" || st["entries"] != float64(4) || st["session"] != recall.Closed.String() {
		t.Errorf("Status = %v", st)
	}

	if open, err := c.Cancel(ctx); err != nil || open {
		t.Errorf("Cancel = %v, %v", open, err)
	}
}

func TestClientSelectOutOfRange(t *testing.T) {
	addr := serve(t, NewService(newFakeEngine("a"), hub.New(), ""))
	c := dial(t, addr, "")

	_, err := c.Select(testCtx(t), 5, false)
	if status.Code(err) != codes.OutOfRange {
		t.Fatalf("Select(5) err = %v, want OutOfRange", err)
	}
}

func TestClientSettings(t *testing.T) {
	fe := newFakeEngine()
	addr := serve(t, NewService(fe, hub.New(), ""))
	c := dial(t, addr, "")
	ctx := testCtx(t)

	got, err := c.Settings(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if got != settings.Defaults() {
		t.Fatalf("Settings = %+v, want defaults", got)
	}

	got, err = c.ApplySettings(ctx, map[string]any{"max_stack_size": 5, "dark_mode": true})
	if err != nil {
		t.Fatal(err)
	}
	want := settings.Defaults()
	want.MaxStackSize = 5
	want.DarkMode = true
	if got != want {
		t.Errorf("ApplySettings = %+v, want %+v", got, want)
	}

	_, err = c.ApplySettings(ctx, map[string]any{"colour": "red"})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("unknown key err = %v, want InvalidArgument", err)
	}
	_, err = c.ApplySettings(ctx, map[string]any{"max_stack_size": 0})
	if status.Code(err) != codes.InvalidArgument {
		t.Errorf("zero capacity err = %v, want InvalidArgument", err)
	}
	if cur := fe.current(); cur != want {
		t.Errorf("rejected apply changed settings to %+v", cur)
	}
}

func TestAuth(t *testing.T) {
	addr := serve(t, NewService(newFakeEngine("a"), hub.New(), "s3cret"))
	ctx := testCtx(t)

	_, err := dial(t, addr, "").History(ctx, "", false, 0)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("no token err = %v, want Unauthenticated", err)
	}
	_, err = dial(t, addr, "wrong").History(ctx, "", false, 0)
	if status.Code(err) != codes.Unauthenticated {
		t.Errorf("bad token err = %v, want Unauthenticated", err)
	}
	if _, err := dial(t, addr, "s3cret").History(ctx, "", false, 0); err != nil {
		t.Errorf("good token: %v", err)
	}
}

func TestWatchReplaysHistory(t *testing.T) {
	h := hub.New()
	h.Publish(hub.Event{Kind: hub.HistoryChanged, Entries: []history.Entry{{Text: "one"}, {Text: "two"}}})

	addr := serve(t, NewService(newFakeEngine(), h, ""))
	c := dial(t, addr, "")
	ctx, cancel := context.WithCancel(testCtx(t))
	defer cancel()

	stop := errors.New("stop")
	var got map[string]any
	err := c.Watch(ctx, []string{string(hub.HistoryChanged)}, func(ev map[string]any) error {
		got = ev
		return stop
	})
	if !errors.Is(err, stop) {
		t.Fatalf("Watch err = %v", err)
	}
	if got["kind"] != string(hub.HistoryChanged) {
		t.Fatalf("event = %v", got)
	}
	entries, _ := got["entries"].([]any)
	if len(entries) != 2 {
		t.Fatalf("entries = %v", got["entries"])
	}
}

func TestGatewayOverSharedListener(t *testing.T) {
	fe := newFakeEngine("b", "a")
	addr := serve(t, NewService(fe, hub.New(), "tok"))
	base := "http://" + addr

	do := func(method, path, body string, auth bool) (int, string) {
		t.Helper()
		req, err := http.NewRequestWithContext(testCtx(t), method, base+path, strings.NewReader(body))
		if err != nil {
			t.Fatal(err)
		}
		if auth {
			req.Header.Set("Authorization", "Bearer tok")
		}
		resp, err := http.DefaultClient.Do(req)
		if err != nil {
			t.Fatal(err)
		}
		defer resp.Body.Close()
		b, _ := io.ReadAll(resp.Body)
		return resp.StatusCode, string(b)
	}

	if code, _ := do("GET", "/v1/history", "", false); code != http.StatusUnauthorized {
		t.Errorf("unauthenticated history = %d, want 401", code)
	}
	if code, body := do("POST", "/v1/copy", "hello", true); code != http.StatusOK {
		t.Fatalf("copy = %d %s", code, body)
	}
	if code, body := do("GET", "/v1/paste", "", true); code != http.StatusOK || body != "hello" {
		t.Errorf("paste = %d %q", code, body)
	}
	code, body := do("GET", "/v1/history?q=hel", "", true)
	if code != http.StatusOK || !strings.Contains(body, `"hello"`) || strings.Contains(body, `"b"`) {
		t.Errorf("history = %d %s", code, body)
	}
	if code, body := do("POST", "/v1/history/1/select", "", true); code != http.StatusOK || !strings.Contains(body, "b") {
		t.Errorf("select = %d %s", code, body)
	}
	if code, _ := do("POST", "/v1/history/x/select", "", true); code != http.StatusBadRequest {
		t.Errorf("select bad index = %d, want 400", code)
	}
	if code, body := do("PATCH", "/v1/settings", `{"max_stack_size": 3}`, true); code != http.StatusOK || !strings.Contains(body, "3") {
		t.Errorf("patch settings = %d %s", code, body)
	}
	if code, _ := do("PATCH", "/v1/settings", `{"nope": 1}`, true); code != http.StatusBadRequest {
		t.Errorf("patch unknown key = %d, want 400", code)
	}
	if code, body := do("GET", "/v1/status", "", true); code != http.StatusOK || !strings.Contains(body, "fake") {
		t.Errorf("status = %d %s", code, body)
	}
}

func TestMergeSettings(t *testing.T) {
	base := settings.Defaults()
	patch, _ := structpb.NewStruct(map[string]any{"swap_hotkey": "alt+v"})
	got, err := mergeSettings(base, patch)
	if err != nil {
		t.Fatal(err)
	}
	if got.SwapHotkey != "alt+v" || got.MaxStackSize != base.MaxStackSize {
		t.Errorf("merge = %+v", got)
	}

	patch, _ = structpb.NewStruct(map[string]any{"max_stack_size": "ten"})
	if _, err := mergeSettings(base, patch); err == nil {
		t.Error("string capacity accepted")
	}
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		err  error
		want codes.Code
	}{
		{context.Canceled, codes.Canceled},
		{context.DeadlineExceeded, codes.DeadlineExceeded},
		{engine.ErrStopped, codes.Unavailable},
		{fmt.Errorf("x: %w", recall.ErrIndexOutOfRange), codes.OutOfRange},
		{fmt.Errorf("x: %w", settings.ErrInvalidCapacity), codes.InvalidArgument},
		{errors.New("boom"), codes.Internal},
	}
	for _, tt := range tests {
		if got := status.Code(toStatus(tt.err)); got != tt.want {
			t.Errorf("toStatus(%v) = %v, want %v", tt.err, got, tt.want)
		}
	}
}
