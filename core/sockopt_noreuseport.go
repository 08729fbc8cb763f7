//go:build !(linux || darwin || dragonfly || freebsd || netbsd || openbsd)

package core

import "syscall"

// SO_REUSEPORT is not available; the option is ignored
func socketControl(reusePort bool) func(network, address string, c syscall.RawConn) error {
	return nil
}
