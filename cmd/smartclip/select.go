package main

import (
	"context"
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/smartclip/internal/control"
)

func newSelectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "select INDEX",
		Short: "Put a history entry back on the clipboard",
		Long: `Copies history entry INDEX (as listed by "smartclip history") to the
clipboard and moves it to the front of the history.

If a recall session is open, INDEX picks from the session's candidates and
commits the session instead.`,
		Args: cobra.ExactArgs(1),
	}
	cmd.Flags().Bool("paste", false, "paste into the focused window afterwards")
	cmd.Flags().BoolP("quiet", "q", false, "do not print the selected text")

	return clientCmd(cmd, false, runSelect)
}

func runSelect(ctx context.Context, c *control.Client, v *viper.Viper, args []string) error {
	i, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("index %q: %w", args[0], err)
	}
	text, err := c.Select(ctx, i, v.GetBool("paste"))
	if err != nil {
		return fmt.Errorf("select: %w", err)
	}
	if !v.GetBool("quiet") {
		fmt.Println(text)
	}
	return nil
}
