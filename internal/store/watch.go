package store

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

const (
	watchDebounce     = 200 * time.Millisecond
	watchPollInterval = 2 * time.Second
)

// WatchSettings signals on the returned channel whenever the settings file
// changes, including writes made by this process. Bursts of events are
// debounced into one signal. The directory is watched rather than the file
// so atomic rename-over writes are seen. If fsnotify is unavailable the file
// is polled instead.
//
// The channel is closed when ctx is done.
func (g *Gateway) WatchSettings(ctx context.Context) <-chan struct{} {
	out := make(chan struct{}, 1)
	path := g.SettingsPath()

	fsw, err := fsnotify.NewWatcher()
	if err == nil {
		if err = fsw.Add(filepath.Dir(path)); err != nil {
			fsw.Close()
		}
	}
	if err != nil {
		slog.Warn("settings watch falling back to polling", "err", err)
		go pollFile(ctx, path, out)
		return out
	}
	go watchFile(ctx, fsw, path, out)
	return out
}

func notify(out chan<- struct{}) {
	select {
	case out <- struct{}{}:
	default:
	}
}

func watchFile(ctx context.Context, fsw *fsnotify.Watcher, path string, out chan struct{}) {
	defer close(out)
	defer fsw.Close()

	target := filepath.Base(path)
	debounce := time.NewTimer(watchDebounce)
	debounce.Stop()
	defer debounce.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case ev, ok := <-fsw.Events:
			if !ok {
				return
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) != 0 {
				debounce.Reset(watchDebounce)
			}
		case err, ok := <-fsw.Errors:
			if !ok {
				return
			}
			slog.Warn("settings watch error", "err", err)
		case <-debounce.C:
			notify(out)
		}
	}
}

func pollFile(ctx context.Context, path string, out chan struct{}) {
	defer close(out)

	var lastMod time.Time
	var lastSize int64
	if info, err := os.Stat(path); err == nil {
		lastMod, lastSize = info.ModTime(), info.Size()
	}

	t := time.NewTicker(watchPollInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			info, err := os.Stat(path)
			if err != nil {
				continue
			}
			if info.ModTime().Equal(lastMod) && info.Size() == lastSize {
				continue
			}
			lastMod, lastSize = info.ModTime(), info.Size()
			notify(out)
		}
	}
}
