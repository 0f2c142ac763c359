package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"go.klb.dev/smartclip/internal/control"
	"go.klb.dev/smartclip/internal/ipc"
)

// requestTimeout bounds one-shot client calls.
const requestTimeout = 10 * time.Second

var errNotRunning = errors.New("smartclip is not running (start it with \"smartclip run\")")

// clientCmd builds a command that talks to the running daemon. run receives
// a connected client and a context bounded by requestTimeout unless stream is
// set.
func clientCmd(cmd *cobra.Command, stream bool, run func(ctx context.Context, c *control.Client, v *viper.Viper, args []string) error) *cobra.Command {
	v := viper.New()
	cmd.Flags().String("token", "", "shared secret (must match the daemon's --token)")
	addConfigFlag(cmd)
	cmd.PreRunE = func(cmd *cobra.Command, _ []string) error { return bindViper(cmd, v) }
	cmd.RunE = func(cmd *cobra.Command, args []string) error {
		c, err := dialDaemon(v.GetString("token"))
		if err != nil {
			return err
		}
		defer c.Close()

		ctx := cmd.Context()
		if !stream {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, requestTimeout)
			defer cancel()
		}
		return run(ctx, c, v, args)
	}
	return cmd
}

// dialDaemon connects to the local control socket. No TCP fallback: the
// daemon only listens locally.
func dialDaemon(token string) (*control.Client, error) {
	if !ipc.IsRunning() {
		return nil, errNotRunning
	}
	c, err := control.Dial(ipc.Dial, token)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", ipc.SocketPath(), err)
	}
	return c, nil
}
