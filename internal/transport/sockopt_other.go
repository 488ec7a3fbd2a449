//go:build !linux
// +build !linux

// internal/transport/sockopt_other.go
// Author: momentics <momentics@gmail.com>
//
// Listen options are not applied on non-Linux platforms.

package transport

import "syscall"

func (o listenOptions) control(network, address string, c syscall.RawConn) error {
	return nil
}
