//go:build linux || darwin || dragonfly || freebsd || netbsd || openbsd

package core

import (
	"syscall"

	"golang.org/x/sys/unix"
)

// socketControl returns a ListenConfig.Control hook that applies socket
// options before bind
func socketControl(reusePort bool) func(network, address string, c syscall.RawConn) error {
	if !reusePort {
		return nil
	}

	return func(network, address string, c syscall.RawConn) error {
		var sockErr error
		err := c.Control(func(fd uintptr) {
			sockErr = unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1)
		})
		if err != nil {
			return err
		}
		return sockErr
	}
}
