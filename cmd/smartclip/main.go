// smartclip: clipboard history with hotkey recall.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"golang.design/x/hotkey/mainthread"

	"go.klb.dev/smartclip/internal/logging"
)

// Version is set at build time via -ldflags "-X main.Version=x.y.z".
var Version = "dev"

func main() {
	// Hotkey registration on macOS must run on the main thread.
	code := 0
	mainthread.Init(func() { code = execute() })
	os.Exit(code)
}

func execute() int {
	root := &cobra.Command{
		Use:   "smartclip",
		Short: "Clipboard history with hotkey recall",
		Long: `smartclip keeps a history of text copied to the system clipboard.
Hold the swap hotkey (default Ctrl+Q) and tap its key to cycle through earlier
entries; releasing the modifier puts the highlighted entry back on the
clipboard and pastes it.

Run "smartclip run" to start the daemon. The other commands talk to it over a
local socket.

Daemon config is read from the file named by --config, or else from the
first of these that exists:
  $HOME/.config/smartclip/smartclip.toml
  /etc/smartclip/smartclip.toml

All flags can be set via SMARTCLIP_<FLAG> env vars or config-file keys.
Application settings (hotkeys, history size, ...) live in the data directory
and are changed with "smartclip settings set".`,
		SilenceUsage: true,
	}

	root.AddCommand(
		newRunCmd(),
		newHistoryCmd(),
		newSelectCmd(),
		newCopyCmd(),
		newPasteCmd(),
		newStatusCmd(),
		newSettingsCmd(),
		newWatchCmd(),
		newCancelCmd(),
		newVersionCmd(),
	)

	if err := root.Execute(); err != nil {
		return 1
	}
	return 0
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "smartclip %s\n", Version)
		},
	}
}

// resolveLogging sets up the global slog logger after flags are parsed.
func resolveLogging(interactive bool, formatStr, levelStr, file string) (func(), error) {
	format := logging.ParseFormat(formatStr)
	level := logging.ParseLevel(levelStr)
	if levelStr == "" {
		if interactive {
			level = logging.ParseLevel("debug")
		} else {
			level = logging.ParseLevel("info")
		}
	}
	c, err := logging.Setup(logging.Options{Format: format, Level: level, File: file})
	if err != nil {
		return func() {}, err
	}
	return func() { _ = c.Close() }, nil
}
