// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"net"
	"net/netip"
	"sync"
	"sync/atomic"
)

// Handle is a live, bound socket owned by the current generation.
//
// Obtain one from [*Sockets.Create] (fresh bind) or [*Sockets.Decode]
// (inherited from the previous generation, not rebound). Release it
// exactly once with [*Sockets.Destroy].
type Handle struct {
	closed    atomic.Bool
	closeonce sync.Once
	fd        int
}

// newHandle returns a [*Handle] owning fd.
func newHandle(fd int) *Handle {
	return &Handle{fd: fd}
}

// Fd returns the underlying OS descriptor.
//
// The descriptor remains owned by the handle: do not close it.
func (h *Handle) Fd() int {
	return h.fd
}

// Close closes the underlying socket.
//
// Subsequent calls return [net.ErrClosed], consistent with Go's standard
// library behavior for closed connections.
func (h *Handle) Close() (err error) {
	err = net.ErrClosed
	h.closeonce.Do(func() {
		h.closed.Store(true)
		err = sysClose(h.fd)
	})
	return
}

// LocalAddr returns the address the socket is bound to.
func (h *Handle) LocalAddr() (netip.AddrPort, error) {
	if h.closed.Load() {
		return netip.AddrPort{}, net.ErrClosed
	}
	_, addr, err := sysLocalAddr(h.fd)
	return addr, err
}

// Listener puts a stream socket in listening state and returns a
// [net.Listener] using a duplicate of its descriptor.
//
// Inherited sockets may already be listening; listening again is harmless.
// Closing the returned listener does not close the handle, and vice versa.
func (h *Handle) Listener() (net.Listener, error) {
	if h.closed.Load() {
		return nil, net.ErrClosed
	}
	return sysListener(h.fd)
}

// PacketConn returns a [net.PacketConn] for a datagram socket using
// a duplicate of its descriptor.
//
// Closing the returned conn does not close the handle, and vice versa.
func (h *Handle) PacketConn() (net.PacketConn, error) {
	if h.closed.Load() {
		return nil, net.ErrClosed
	}
	return sysPacketConn(h.fd)
}

// handleLocalAddr returns the bound address of h as a string, or an empty
// string when h is nil or its address cannot be read.
func handleLocalAddr(h *Handle) string {
	if h == nil {
		return ""
	}
	addr, err := h.LocalAddr()
	if err != nil {
		return ""
	}
	return addr.String()
}
