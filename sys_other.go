//go:build !unix

// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"errors"
	"fmt"
	"net"
	"net/netip"
)

// errUnsupportedPlatform is returned by every socket primitive on this system.
var errUnsupportedPlatform = fmt.Errorf("handoff: socket handoff: %w", errors.ErrUnsupported)

func sysSocket(sock SocketResource) (int, error) {
	return -1, errUnsupportedPlatform
}

func sysBind(fd int, sock SocketResource) error {
	return errUnsupportedPlatform
}

func sysClose(fd int) error {
	return errUnsupportedPlatform
}

func sysDup(fd int) (int, error) {
	return -1, errUnsupportedPlatform
}

// SetInheritable always fails on this system.
func SetInheritable(fd int, inheritable bool) error {
	return errUnsupportedPlatform
}

func sysSocketType(fd int) (SocketType, error) {
	return 0, errUnsupportedPlatform
}

func sysLocalAddr(fd int) (Family, netip.AddrPort, error) {
	return 0, netip.AddrPort{}, errUnsupportedPlatform
}

func newSocketOptions(fd int, platform Platform) SocketOptions {
	return unsupportedSocketOptions{}
}

type unsupportedSocketOptions struct{}

func (unsupportedSocketOptions) SetReuseAddr() error { return errUnsupportedPlatform }

func (unsupportedSocketOptions) SetReusePort() error { return errUnsupportedPlatform }

func (unsupportedSocketOptions) SetV6Only(bool) error { return errUnsupportedPlatform }

func probeDualStack() bool {
	return false
}

func sysListener(fd int) (net.Listener, error) {
	return nil, errUnsupportedPlatform
}

func sysPacketConn(fd int) (net.PacketConn, error) {
	return nil, errUnsupportedPlatform
}
