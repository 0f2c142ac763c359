package hub

import (
	"context"
	"log/slog"
)

const previewLen = 120

// Preview shortens text for debug logs.
func Preview(text string) string {
	r := []rune(text)
	if len(r) > previewLen {
		return string(r[:previewLen]) + "…"
	}
	return text
}

// LogEvent logs ev at DEBUG, with a text preview up to 120 characters.
func LogEvent(ev Event) {
	if !slog.Default().Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	attrs := []any{"kind", ev.Kind, "seq", ev.Seq}
	switch ev.Kind {
	case HistoryChanged, SessionOpened:
		attrs = append(attrs, "entries", len(ev.Entries))
	case SelectionChanged:
		attrs = append(attrs, "cursor", ev.Cursor, "preview", Preview(ev.Text))
	case SessionClosed:
		attrs = append(attrs, "committed", ev.Committed, "preview", Preview(ev.Text))
	}
	slog.Debug("hub event", attrs...)
}
