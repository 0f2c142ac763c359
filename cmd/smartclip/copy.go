package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/smartclip/internal/control"
)

func newCopyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "copy [TEXT...]",
		Short: "Copy text to the clipboard (like pbcopy)",
		Long: `Puts TEXT on the clipboard through the daemon, which records it in the
history. With no arguments stdin is read instead.`,
	}
	return clientCmd(cmd, false, runCopy)
}

func runCopy(ctx context.Context, c *control.Client, _ *viper.Viper, args []string) error {
	var text string
	if len(args) > 0 {
		text = strings.Join(args, " ")
	} else {
		data, err := io.ReadAll(os.Stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}
	if strings.TrimSpace(text) == "" {
		return nil
	}
	if err := c.Copy(ctx, text); err != nil {
		return fmt.Errorf("copy: %w", err)
	}
	return nil
}
