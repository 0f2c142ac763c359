package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/smartclip/internal/control"
	"go.klb.dev/smartclip/internal/ipc"
)

func newStatusCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "status",
		Short: "Show daemon status",
		Args:  cobra.NoArgs,
	}
	cmd.Flags().Bool("json", false, "output raw JSON")
	return clientCmd(cmd, false, runStatus)
}

func runStatus(ctx context.Context, c *control.Client, v *viper.Viper, _ []string) error {
	st, err := c.Status(ctx)
	if err != nil {
		return fmt.Errorf("status: %w", err)
	}

	if v.GetBool("json") {
		enc, err := json.MarshalIndent(st, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(enc))
		return nil
	}

	printStatus(st)
	return nil
}

func printStatus(st map[string]any) {
	w := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	defer w.Flush()

	fmt.Fprintf(w, "Socket:\t%s\n", ipc.SocketPath())
	if s, _ := st["started"].(string); s != "" {
		if t, err := time.Parse(time.RFC3339, s); err == nil {
			fmt.Fprintf(w, "Started:\t%s (%s)\n", t.Format(time.RFC3339), fmtAge(t))
		}
	}
	fmt.Fprintf(w, "Clipboard:\t%v\n", st["clipboard"])
	fmt.Fprintf(w, "History:\t%v / %v entries (%v captured)\n", num(st["entries"]), num(st["capacity"]), num(st["captured"]))
	fmt.Fprintf(w, "Swap hotkey:\t%v\n", st["swap_hotkey"])
	fmt.Fprintf(w, "Type hotkey:\t%v\n", st["type_hotkey"])
	if st["session"] == "open" {
		fmt.Fprintf(w, "Recall:\topen, %v of %v\n", num(st["cursor"])+1, num(st["candidates"]))
	} else {
		fmt.Fprintf(w, "Recall:\tclosed\n")
	}
	fmt.Fprintf(w, "Minimized:\t%v\n", st["minimized"])
	fmt.Fprintf(w, "Watchers:\t%v\n", num(st["subscribers"]))
}

// num converts a JSON number to int for display.
func num(v any) int {
	f, _ := v.(float64)
	return int(f)
}
