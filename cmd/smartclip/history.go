package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"
	"time"
	"unicode/utf8"

	json "github.com/goccy/go-json"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/smartclip/internal/control"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:     "history",
		Aliases: []string{"ls"},
		Short:   "List clipboard history, most recent first",
		Long: `Lists the clipboard history. The index in the first column is what
"smartclip select" takes.

--search keeps entries containing the query (case-insensitive); with --fuzzy
the query is matched as a subsequence and results are ranked by score.`,
		Args: cobra.NoArgs,
	}

	f := cmd.Flags()
	f.StringP("search", "s", "", "only show entries matching this query")
	f.Bool("fuzzy", false, "fuzzy-match --search and rank by score")
	f.Int("limit", 0, "show at most this many entries (0 = all)")
	f.Bool("json", false, "output JSON")
	f.Int("width", 72, "truncate previews to this many characters")

	return clientCmd(cmd, false, runHistory)
}

func runHistory(ctx context.Context, c *control.Client, v *viper.Viper, _ []string) error {
	entries, err := c.History(ctx, v.GetString("search"), v.GetBool("fuzzy"), v.GetInt("limit"))
	if err != nil {
		return fmt.Errorf("history: %w", err)
	}

	if v.GetBool("json") {
		enc, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(enc))
		return nil
	}

	if len(entries) == 0 {
		fmt.Println("No entries.")
		return nil
	}
	printEntries(entries, v.GetInt("width"))
	return nil
}

func printEntries(entries []control.Entry, width int) {
	tw := tabwriter.NewWriter(os.Stdout, 1, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(tw, "#\tCOPIED\tTEXT\n")
	for _, e := range entries {
		_, _ = fmt.Fprintf(tw, "%d\t%s\t%s\n", e.Index, copiedAt(e.CapturedAt), preview(e.Text, width))
	}
	_ = tw.Flush()
}

func copiedAt(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return fmtAge(t)
}

// preview renders text on one line, cut to width runes.
func preview(text string, width int) string {
	text = strings.Join(strings.Fields(text), " ")
	if width <= 0 || utf8.RuneCountInString(text) <= width {
		return text
	}
	r := []rune(text)
	return string(r[:width-1]) + "…"
}

func fmtAge(t time.Time) string {
	age := time.Since(t).Round(time.Second)
	if age < time.Minute {
		return fmt.Sprintf("%ds ago", int(age.Seconds()))
	}
	if age < time.Hour {
		return fmt.Sprintf("%dm ago", int(age.Minutes()))
	}
	if age < 24*time.Hour {
		return t.Format("15:04:05")
	}
	return t.Format("02 Jan 15:04")
}
