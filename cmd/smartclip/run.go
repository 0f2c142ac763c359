package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/sync/errgroup"

	"go.klb.dev/smartclip/internal/clip"
	"go.klb.dev/smartclip/internal/control"
	"go.klb.dev/smartclip/internal/engine"
	"go.klb.dev/smartclip/internal/hotkey"
	"go.klb.dev/smartclip/internal/hotkey/native"
	"go.klb.dev/smartclip/internal/hub"
	"go.klb.dev/smartclip/internal/ipc"
	"go.klb.dev/smartclip/internal/recall"
	"go.klb.dev/smartclip/internal/settings"
	"go.klb.dev/smartclip/internal/store"
)

func newRunCmd() *cobra.Command {
	v := viper.New()

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run the clipboard history daemon",
		Long: `Starts the smartclip daemon: watches the clipboard, records history,
registers the global hotkeys and serves the local control socket used by the
other commands.

History and settings are kept in the data directory
(%APPDATA%\SmartClip on Windows, $HOME/.config/SmartClip elsewhere).

Precedence (lowest → highest): defaults → config file → SMARTCLIP_* env vars → flags`,
		Args:    cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) },
		RunE:    func(cmd *cobra.Command, _ []string) error { return runDaemon(cmd.Context(), v) },
	}

	f := cmd.Flags()
	f.String("data-dir", "", "directory for history and settings (default: per-OS location)")
	f.Bool("minimized", false, "start without showing a window")
	f.Bool("no-hotkeys", false, "do not register global hotkeys")
	f.String("token", "", "shared secret required on the control socket (empty = none)")
	f.Duration("paste-delay", recall.DefaultPasteDelay, "delay between committing an entry and pasting it")
	addLoggingFlags(cmd)
	addConfigFlag(cmd)

	return cmd
}

func runDaemon(ctx context.Context, v *viper.Viper) error {
	closeLog, err := setupLogging(v)
	if err != nil {
		return err
	}
	defer closeLog()

	if ipc.IsRunning() {
		return fmt.Errorf("smartclip is already running (%s)", ipc.SocketPath())
	}

	dir := v.GetString("data-dir")
	if dir == "" {
		if dir, err = store.DataDir(); err != nil {
			return fmt.Errorf("data dir: %w", err)
		}
	}
	gw, err := store.Open(dir)
	if err != nil {
		return err
	}

	cur, err := gw.LoadSettings()
	if err != nil {
		slog.Warn("settings unreadable, using defaults", "err", err)
	}
	entries, err := gw.LoadHistory(cur.MaxStackSize)
	if err != nil {
		slog.Warn("history unreadable, starting empty", "err", err)
	}

	saver := store.NewSaver(gw)
	defer saver.Close()

	backend := clip.New()
	defer backend.Close()

	var keys hotkey.Backend = native.NewBackend()
	if v.GetBool("no-hotkeys") {
		keys = hotkey.NopBackend{}
	}

	slog.Info("smartclip starting",
		"version", Version,
		"data_dir", gw.Dir,
		"clipboard", backend.Name(),
		"entries", len(entries),
		"hotkeys", !v.GetBool("no-hotkeys"),
	)

	h := hub.New()
	eng := engine.New(engine.Config{
		Clipboard:      backend,
		Router:         hotkey.NewRouter(keys),
		Hub:            h,
		Persister:      saver,
		SettingsSource: gw,
		Registrar:      &settings.NopRegistrar{},
		PasteDelay:     v.GetDuration("paste-delay"),
		Settings:       cur,
		History:        entries,
		Minimized:      v.GetBool("minimized"),
	})

	ln, err := ipc.Listen()
	if err != nil {
		return fmt.Errorf("control socket: %w", err)
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return eng.Run(ctx) })
	g.Go(func() error {
		select {
		case <-eng.Running():
		case <-ctx.Done():
			_ = ln.Close()
			return nil
		}
		svc := control.NewService(eng, h, v.GetString("token"))
		return control.Serve(ctx, ln, svc)
	})

	err = g.Wait()
	slog.Info("smartclip stopped")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
