// internal/transport/sockopt_linux.go
//go:build linux
// +build linux

//
// Author: momentics <momentics@gmail.com>
// License: Apache-2.0
//
// Linux listener socket options via raw setsockopt.

package transport

import (
	"fmt"
	"syscall"

	"golang.org/x/sys/unix"
)

// control applies the requested options to the listening fd before bind.
func (o listenOptions) control(network, address string, c syscall.RawConn) error {
	var serr error
	err := c.Control(func(fd uintptr) {
		if o.reusePort {
			if err := unix.SetsockoptInt(int(fd), unix.SOL_SOCKET, unix.SO_REUSEPORT, 1); err != nil {
				serr = fmt.Errorf("SO_REUSEPORT: %w", err)
				return
			}
		}
		if secs := o.deferSeconds(); secs > 0 {
			if err := unix.SetsockoptInt(int(fd), unix.IPPROTO_TCP, unix.TCP_DEFER_ACCEPT, secs); err != nil {
				serr = fmt.Errorf("TCP_DEFER_ACCEPT: %w", err)
			}
		}
	})
	if err != nil {
		return fmt.Errorf("raw control: %w", err)
	}
	return serr
}
