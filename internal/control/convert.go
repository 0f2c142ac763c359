package control

import (
	"fmt"
	"slices"
	"sort"
	"time"

	json "github.com/goccy/go-json"
	"google.golang.org/protobuf/types/known/structpb"

	"go.klb.dev/smartclip/internal/engine"
	"go.klb.dev/smartclip/internal/history"
	"go.klb.dev/smartclip/internal/hub"
	"go.klb.dev/smartclip/internal/settings"
)

// Entry is a history entry as seen by front-ends. Index is its position in
// the history, usable with Select.
type Entry struct {
	Index      int       `json:"index"`
	Text       string    `json:"text"`
	CapturedAt time.Time `json:"captured_at"`
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(time.RFC3339)
}

func matchesValue(ms []history.Match) *structpb.Value {
	vals := make([]*structpb.Value, len(ms))
	for i, m := range ms {
		vals[i] = structpb.NewStructValue(&structpb.Struct{Fields: map[string]*structpb.Value{
			"index":       structpb.NewNumberValue(float64(m.Index)),
			"text":        structpb.NewStringValue(m.Entry.Text),
			"captured_at": structpb.NewStringValue(formatTime(m.Entry.CapturedAt)),
		}})
	}
	return structpb.NewListValue(&structpb.ListValue{Values: vals})
}

func entriesFromStruct(s *structpb.Struct) []Entry {
	list := s.GetFields()["entries"].GetListValue().GetValues()
	out := make([]Entry, 0, len(list))
	for _, v := range list {
		f := v.GetStructValue().GetFields()
		e := Entry{
			Index: int(f["index"].GetNumberValue()),
			Text:  f["text"].GetStringValue(),
		}
		if ts := f["captured_at"].GetStringValue(); ts != "" {
			e.CapturedAt, _ = time.Parse(time.RFC3339, ts)
		}
		out = append(out, e)
	}
	return out
}

// toStruct converts v through its JSON form.
func toStruct(v any) (*structpb.Struct, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var m map[string]any
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	return structpb.NewStruct(m)
}

// SettingKeys lists the settings keys accepted by ApplySettings.
func SettingKeys() []string {
	s, _ := toStruct(settings.Defaults())
	keys := make([]string, 0, len(s.GetFields()))
	for k := range s.GetFields() {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mergeSettings overlays the keys present in patch onto base.
func mergeSettings(base settings.Settings, patch *structpb.Struct) (settings.Settings, error) {
	known := SettingKeys()
	for k := range patch.GetFields() {
		if !slices.Contains(known, k) {
			return base, fmt.Errorf("unknown setting %q", k)
		}
	}
	b, err := json.Marshal(patch.AsMap())
	if err != nil {
		return base, err
	}
	if err := json.Unmarshal(b, &base); err != nil {
		return base, fmt.Errorf("settings: %w", err)
	}
	return base, nil
}

func settingsFromStruct(s *structpb.Struct) (settings.Settings, error) {
	return mergeSettings(settings.Settings{}, s)
}

func statusStruct(st engine.Status) *structpb.Struct {
	return &structpb.Struct{Fields: map[string]*structpb.Value{
		"clipboard":   structpb.NewStringValue(st.Clipboard),
		"entries":     structpb.NewNumberValue(float64(st.Entries)),
		"capacity":    structpb.NewNumberValue(float64(st.Capacity)),
		"captured":    structpb.NewNumberValue(float64(st.Captured)),
		"session":     structpb.NewStringValue(st.Session.String()),
		"cursor":      structpb.NewNumberValue(float64(st.Cursor)),
		"candidates":  structpb.NewNumberValue(float64(st.Candidates)),
		"swap_hotkey": structpb.NewStringValue(st.SwapHotkey.Display()),
		"type_hotkey": structpb.NewStringValue(st.TypeHotkey.Display()),
		"minimized":   structpb.NewBoolValue(st.Minimized),
		"subscribers": structpb.NewNumberValue(float64(st.Subscribers)),
		"started":     structpb.NewStringValue(formatTime(st.Started)),
	}}
}

func eventStruct(ev hub.Event) *structpb.Struct {
	f := map[string]*structpb.Value{
		"kind": structpb.NewStringValue(string(ev.Kind)),
		"seq":  structpb.NewNumberValue(float64(ev.Seq)),
		"time": structpb.NewStringValue(ev.Time.Format(time.RFC3339Nano)),
	}
	switch ev.Kind {
	case hub.HistoryChanged, hub.SessionOpened:
		ms := make([]history.Match, len(ev.Entries))
		for i, e := range ev.Entries {
			ms[i] = history.Match{Index: i, Entry: e}
		}
		f["entries"] = matchesValue(ms)
	case hub.SelectionChanged:
		f["cursor"] = structpb.NewNumberValue(float64(ev.Cursor))
		f["text"] = structpb.NewStringValue(ev.Text)
	case hub.SessionClosed:
		f["committed"] = structpb.NewBoolValue(ev.Committed)
		f["text"] = structpb.NewStringValue(ev.Text)
	case hub.SettingsChanged:
		if ev.Settings != nil {
			if s, err := toStruct(*ev.Settings); err == nil {
				f["settings"] = structpb.NewStructValue(s)
			}
		}
	}
	return &structpb.Struct{Fields: f}
}
