//go:build !windows

package ipc

import (
	"os"
	"path/filepath"
	"testing"
)

func TestSocketPathOverride(t *testing.T) {
	t.Setenv("SMARTCLIP_SOCKET", "/tmp/custom.sock")
	if got := SocketPath(); got != "/tmp/custom.sock" {
		t.Errorf("SocketPath = %q", got)
	}
}

func TestSocketPathXDG(t *testing.T) {
	t.Setenv("SMARTCLIP_SOCKET", "")
	t.Setenv("XDG_RUNTIME_DIR", "/run/user/1000")
	if got := SocketPath(); got != "/run/user/1000/smartclip.sock" {
		t.Errorf("SocketPath = %q", got)
	}
}

func TestListenAndIsRunning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "s.sock")
	t.Setenv("SMARTCLIP_SOCKET", path)

	if IsRunning() {
		t.Fatal("nothing is listening yet")
	}
	// A stale socket file must not block Listen.
	if err := os.WriteFile(path, nil, 0o600); err != nil {
		t.Fatal(err)
	}
	ln, err := Listen()
	if err != nil {
		t.Fatal(err)
	}
	defer ln.Close()
	go func() {
		for {
			c, err := ln.Accept()
			if err != nil {
				return
			}
			c.Close()
		}
	}()

	if !IsRunning() {
		t.Error("IsRunning = false with a listener")
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Errorf("socket mode = %v", info.Mode().Perm())
	}
}
