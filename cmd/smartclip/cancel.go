package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/smartclip/internal/control"
)

func newCancelCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cancel",
		Short: "Close an open recall session without changing the clipboard",
		Args:  cobra.NoArgs,
	}
	return clientCmd(cmd, false, runCancel)
}

func runCancel(ctx context.Context, c *control.Client, _ *viper.Viper, _ []string) error {
	open, err := c.Cancel(ctx)
	if err != nil {
		return fmt.Errorf("cancel: %w", err)
	}
	if open {
		fmt.Println("Recall session cancelled.")
	} else {
		fmt.Println("No recall session open.")
	}
	return nil
}
