package store

import (
	"bytes"
	"fmt"
	"log/slog"
	"time"

	json "github.com/goccy/go-json"
)

// legacyLayout is the display timestamp older history files carry, without
// a year.
const legacyLayout = "02 Jan  03:04:05 PM"

var now = time.Now

// historyRecord is one element of the history file. On disk it is
// {"text": ..., "timestamp": ...}; older files may hold a bare string.
type historyRecord struct {
	Text string
	at   time.Time
}

type recordJSON struct {
	Text      string `json:"text"`
	Timestamp string `json:"timestamp"`
}

func (r historyRecord) MarshalJSON() ([]byte, error) {
	out := recordJSON{Text: r.Text}
	if !r.at.IsZero() {
		out.Timestamp = r.at.Format(time.RFC3339)
	}
	return json.Marshal(out)
}

func (r *historyRecord) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '"' {
		*r = historyRecord{}
		return json.Unmarshal(data, &r.Text)
	}

	var in recordJSON
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	// Older files wrote the timestamp in the system locale; one that does not
	// parse leaves the time zero and keeps the entry.
	at, err := parseTimestamp(in.Timestamp)
	if err != nil {
		slog.Debug("history timestamp dropped", "preview", fmt.Sprintf("%.20q", in.Text), "err", err)
	}
	*r = historyRecord{Text: in.Text, at: at}
	return nil
}

// parseTimestamp accepts RFC 3339, the legacy display layout (current year
// assumed), and "" (zero time).
func parseTimestamp(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, nil
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation(legacyLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("timestamp %q: unrecognized format", s)
	}
	return time.Date(now().Year(), t.Month(), t.Day(), t.Hour(), t.Minute(), t.Second(), 0, time.Local), nil
}
