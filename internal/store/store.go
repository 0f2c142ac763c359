// Package store persists the clipboard history and the settings record as
// JSON files in the data directory.
//
// Load failures never stop the program: the caller gets defaults or an empty
// history together with a *PersistenceError to log.
package store

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime"

	json "github.com/goccy/go-json"

	"go.klb.dev/smartclip/internal/history"
	"go.klb.dev/smartclip/internal/settings"
)

const (
	HistoryFile  = "clipboard_history.json"
	SettingsFile = "settings.json"

	appDirName = "SmartClip"
)

// PersistenceError reports a failed read or write of a persisted file.
type PersistenceError struct {
	Op   string // "load" or "save"
	Path string
	Err  error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// DataDir returns the default data directory: %APPDATA%\SmartClip on
// Windows, $HOME/.config/SmartClip elsewhere.
func DataDir() (string, error) {
	if runtime.GOOS == "windows" {
		if appData := os.Getenv("APPDATA"); appData != "" {
			return filepath.Join(appData, appDirName), nil
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("data dir: %w", err)
	}
	return filepath.Join(home, ".config", appDirName), nil
}

// Gateway reads and writes the two persisted files under Dir.
type Gateway struct {
	Dir string
}

// Open returns a Gateway rooted at dir, creating it if needed.
func Open(dir string) (*Gateway, error) {
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, &PersistenceError{Op: "mkdir", Path: dir, Err: err}
	}
	return &Gateway{Dir: dir}, nil
}

func (g *Gateway) HistoryPath() string  { return filepath.Join(g.Dir, HistoryFile) }
func (g *Gateway) SettingsPath() string { return filepath.Join(g.Dir, SettingsFile) }

// LoadHistory reads the history file. A missing file yields an empty history
// and no error. Legacy entries are normalized and the result is deduplicated
// and truncated to capacity.
func (g *Gateway) LoadHistory(capacity int) ([]history.Entry, error) {
	path := g.HistoryPath()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, &PersistenceError{Op: "load", Path: path, Err: err}
	}

	var recs []historyRecord
	if err := json.Unmarshal(data, &recs); err != nil {
		return nil, &PersistenceError{Op: "load", Path: path, Err: err}
	}

	entries := make([]history.Entry, 0, len(recs))
	for _, r := range recs {
		if r.Text == "" {
			continue
		}
		entries = append(entries, history.Entry{Text: r.Text, CapturedAt: r.at})
	}

	h := history.New(capacity)
	h.Restore(entries)
	return h.Snapshot(), nil
}

// SaveHistory writes entries, most recent first, truncated to capacity.
func (g *Gateway) SaveHistory(entries []history.Entry, capacity int) error {
	if capacity > 0 && len(entries) > capacity {
		entries = entries[:capacity]
	}
	recs := make([]historyRecord, len(entries))
	for i, e := range entries {
		recs[i] = historyRecord{Text: e.Text, at: e.CapturedAt}
	}
	return g.write(g.HistoryPath(), recs)
}

// LoadSettings reads the settings file. Missing keys keep their defaults and
// an out-of-range capacity is replaced by the default. On any error the
// defaults are returned along with the error.
func (g *Gateway) LoadSettings() (settings.Settings, error) {
	path := g.SettingsPath()
	s := settings.Defaults()
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return s, &PersistenceError{Op: "load", Path: path, Err: err}
	}
	if err := json.Unmarshal(data, &s); err != nil {
		return settings.Defaults(), &PersistenceError{Op: "load", Path: path, Err: err}
	}
	if s.Validate() != nil {
		slog.Warn("invalid max_stack_size in settings, using default", "value", s.MaxStackSize)
		s.MaxStackSize = history.DefaultCapacity
	}
	return s, nil
}

// SaveSettings writes s.
func (g *Gateway) SaveSettings(s settings.Settings) error {
	return g.write(g.SettingsPath(), s)
}

// write replaces path atomically: the data goes to a temp file in the same
// directory which is then renamed over the target.
func (g *Gateway) write(path string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	tmpName := tmp.Name()
	_, werr := tmp.Write(data)
	cerr := tmp.Close()
	if err := errors.Join(werr, cerr); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		os.Remove(tmpName)
		return &PersistenceError{Op: "save", Path: path, Err: err}
	}
	return nil
}
