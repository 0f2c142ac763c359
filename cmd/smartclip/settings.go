package main

import (
	"context"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/smartclip/internal/control"
	"go.klb.dev/smartclip/internal/hotkey"
	"go.klb.dev/smartclip/internal/settings"
)

func newSettingsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change application settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Show the active settings",
		Args:  cobra.NoArgs,
	}

	set := &cobra.Command{
		Use:   "set KEY=VALUE...",
		Short: "Change settings",
		Long: `Changes one or more settings on the running daemon. The change is applied
in order (history size, hotkeys, launch at login) and saved to the data
directory. If a hotkey cannot be registered the previous hotkeys stay active.

Keys: ` + strings.Join(control.SettingKeys(), ", ") + `

Hotkeys are written like "ctrl+shift+v"; use "none" to clear the type hotkey.`,
		Example: `  smartclip settings set max_stack_size=50
  smartclip settings set swap_hotkey=alt+v dark_mode=true`,
		Args: cobra.MinimumNArgs(1),
	}

	cmd.AddCommand(
		clientCmd(show, false, runSettingsShow),
		clientCmd(set, false, runSettingsSet),
	)
	return cmd
}

func runSettingsShow(ctx context.Context, c *control.Client, _ *viper.Viper, _ []string) error {
	s, err := c.Settings(ctx)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	printSettings(s)
	return nil
}

func runSettingsSet(ctx context.Context, c *control.Client, _ *viper.Viper, args []string) error {
	patch, err := parseAssignments(args)
	if err != nil {
		return err
	}
	s, err := c.ApplySettings(ctx, patch)
	if err != nil {
		return fmt.Errorf("settings: %w", err)
	}
	printSettings(s)
	return nil
}

// parseAssignments turns key=value arguments into a settings patch, typing
// each value by its key.
func parseAssignments(args []string) (map[string]any, error) {
	keys := control.SettingKeys()
	patch := make(map[string]any, len(args))
	for _, arg := range args {
		key, val, ok := strings.Cut(arg, "=")
		key = strings.TrimSpace(key)
		if !ok || key == "" {
			return nil, fmt.Errorf("%q: want KEY=VALUE", arg)
		}
		if !slices.Contains(keys, key) {
			return nil, fmt.Errorf("unknown setting %q (known: %s)", key, strings.Join(keys, ", "))
		}
		switch key {
		case "max_stack_size":
			n, err := strconv.Atoi(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			patch[key] = n
		case "swap_hotkey", "type_hotkey":
			patch[key] = val
		default:
			b, err := strconv.ParseBool(val)
			if err != nil {
				return nil, fmt.Errorf("%s: %w", key, err)
			}
			patch[key] = b
		}
	}
	return patch, nil
}

func printSettings(s settings.Settings) {
	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	defer w.Flush()
	fmt.Fprintf(w, "Swap hotkey:\t%s\n", displayBinding(s.SwapHotkey))
	fmt.Fprintf(w, "Type hotkey:\t%s\n", displayBinding(s.TypeHotkey))
	fmt.Fprintf(w, "History size:\t%d\n", s.MaxStackSize)
	fmt.Fprintf(w, "Launch at login:\t%t\n", s.RunAtStartup)
	fmt.Fprintf(w, "Notifications:\t%t\n", s.ShowNotifications)
	fmt.Fprintf(w, "Theme:\t%s\n", s.Theme())
}

func displayBinding(text string) string {
	b, err := hotkey.Parse(text)
	if err != nil {
		return text + " (invalid)"
	}
	return b.Display()
}
