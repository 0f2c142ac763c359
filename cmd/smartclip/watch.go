package main

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"strings"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/smartclip/internal/control"
	"go.klb.dev/smartclip/internal/hub"
)

var eventKinds = []string{
	string(hub.HistoryChanged),
	string(hub.SessionOpened),
	string(hub.SelectionChanged),
	string(hub.SessionClosed),
	string(hub.TypePressed),
	string(hub.SettingsChanged),
}

func newWatchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream engine events until interrupted",
		Long: `Prints engine events as they happen: history changes, recall session
activity, the type hotkey and settings changes. The current history is sent
first.

Kinds: ` + strings.Join(eventKinds, ", "),
		Args: cobra.NoArgs,
	}
	cmd.Flags().StringSlice("kind", nil, "only these event kinds (default: all)")
	cmd.Flags().Bool("json", false, "print one JSON object per event")
	return clientCmd(cmd, true, runWatch)
}

func runWatch(ctx context.Context, c *control.Client, v *viper.Viper, _ []string) error {
	kinds := v.GetStringSlice("kind")
	for _, k := range kinds {
		if !slices.Contains(eventKinds, k) {
			return fmt.Errorf("unknown event kind %q (known: %s)", k, strings.Join(eventKinds, ", "))
		}
	}
	jsonOut := v.GetBool("json")

	err := c.Watch(ctx, kinds, func(ev map[string]any) error {
		if jsonOut {
			b, err := json.Marshal(ev)
			if err != nil {
				return err
			}
			fmt.Println(string(b))
			return nil
		}
		fmt.Println(describeEvent(ev))
		return nil
	})
	if errors.Is(err, context.Canceled) || ctx.Err() != nil {
		return nil
	}
	return err
}

func describeEvent(ev map[string]any) string {
	ts := "--:--:--"
	if s, _ := ev["time"].(string); s != "" {
		if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
			ts = t.Local().Format("15:04:05")
		}
	}
	kind, _ := ev["kind"].(string)
	text, _ := ev["text"].(string)

	var detail string
	switch hub.Kind(kind) {
	case hub.HistoryChanged, hub.SessionOpened:
		entries, _ := ev["entries"].([]any)
		detail = fmt.Sprintf("%d entries", len(entries))
	case hub.SelectionChanged:
		detail = fmt.Sprintf("#%d %s", num(ev["cursor"]), preview(text, 60))
	case hub.SessionClosed:
		if ev["committed"] == true {
			detail = "committed " + preview(text, 60)
		} else {
			detail = "cancelled"
		}
	case hub.SettingsChanged:
		if s, ok := ev["settings"].(map[string]any); ok {
			detail = fmt.Sprintf("swap=%v size=%v", s["swap_hotkey"], num(s["max_stack_size"]))
		}
	}
	return strings.TrimSpace(fmt.Sprintf("%s  %-17s %s", ts, kind, detail))
}
