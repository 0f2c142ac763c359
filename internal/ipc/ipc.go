// Package ipc provides the local channel CLI front-ends use to reach a
// running smartclip daemon: a Unix domain socket on Linux and macOS, a named
// pipe on Windows. The daemon serves the control surface (gRPC and the
// HTTP/JSON gateway) on it.
package ipc

import (
	"context"
	"net"
	"os"
	"time"
)

// SocketPath returns the platform-appropriate path for the IPC socket.
//
//   - Linux:   $XDG_RUNTIME_DIR/smartclip.sock, else $TMPDIR/smartclip.sock
//   - macOS:   $TMPDIR/smartclip.sock
//   - Windows: \\.\pipe\smartclip
//
// $SMARTCLIP_SOCKET overrides all of these.
func SocketPath() string {
	if s := os.Getenv("SMARTCLIP_SOCKET"); s != "" {
		return s
	}
	return socketPath()
}

// IsRunning reports whether a daemon appears to be listening on the IPC
// socket. It does a cheap dial-and-close; no data is exchanged.
func IsRunning() bool {
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	c, err := Dial(ctx)
	if err != nil {
		return false
	}
	_ = c.Close()
	return true
}

// Listen returns a listener on the IPC socket path, removing a stale socket
// left by a crashed run first.
func Listen() (net.Listener, error) {
	return listenIPC(SocketPath())
}

// Dial connects to the IPC socket.
func Dial(ctx context.Context) (net.Conn, error) {
	return dialIPC(ctx, SocketPath())
}
