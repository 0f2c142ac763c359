package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/smartclip/internal/control"
)

func newPasteCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "paste",
		Short: "Print the most recent history entry to stdout (like pbpaste)",
		Long: `Writes the most recent history entry to stdout. An empty history prints
nothing and exits 0.`,
		Args: cobra.NoArgs,
	}
	return clientCmd(cmd, false, runPaste)
}

func runPaste(ctx context.Context, c *control.Client, _ *viper.Viper, _ []string) error {
	text, err := c.Paste(ctx)
	if err != nil {
		return fmt.Errorf("paste: %w", err)
	}
	_, err = os.Stdout.WriteString(text)
	return err
}
