// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"fmt"
	"net/netip"
)

// Family is the address family of a socket.
type Family int

const (
	// FamilyIPv4 is AF_INET.
	FamilyIPv4 Family = iota + 1

	// FamilyIPv6 is AF_INET6.
	FamilyIPv6
)

// String implements [fmt.Stringer].
func (f Family) String() string {
	switch f {
	case FamilyIPv4:
		return "inet"
	case FamilyIPv6:
		return "inet6"
	default:
		return fmt.Sprintf("Family(%d)", int(f))
	}
}

// SocketType is the type of a socket.
type SocketType int

const (
	// SocketStream is SOCK_STREAM.
	SocketStream SocketType = iota + 1

	// SocketDatagram is SOCK_DGRAM.
	SocketDatagram
)

// String implements [fmt.Stringer].
func (t SocketType) String() string {
	switch t {
	case SocketStream:
		return "stream"
	case SocketDatagram:
		return "dgram"
	default:
		return fmt.Sprintf("SocketType(%d)", int(t))
	}
}

// Protocol is the transport protocol of a socket.
type Protocol int

const (
	// ProtocolTCP is IPPROTO_TCP.
	ProtocolTCP Protocol = iota + 1

	// ProtocolUDP is IPPROTO_UDP.
	ProtocolUDP
)

// String implements [fmt.Stringer].
func (p Protocol) String() string {
	switch p {
	case ProtocolTCP:
		return "tcp"
	case ProtocolUDP:
		return "udp"
	default:
		return fmt.Sprintf("Protocol(%d)", int(p))
	}
}

// SocketResource holds the attributes shared by every socket resource.
//
// The zero [netip.Addr] inside Addr means the wildcard host: the socket
// binds to all interfaces of its family.
type SocketResource struct {
	Family   Family
	Type     SocketType
	Protocol Protocol
	Addr     netip.AddrPort
}

// Socket implements [Resource].
func (r SocketResource) Socket() SocketResource {
	return r
}

// ConfigureSocket applies the generic options before bind: port reuse
// when reuse is true, then address reuse unconditionally.
func (r SocketResource) ConfigureSocket(opts SocketOptions, reuse bool) error {
	if reuse {
		if err := opts.SetReusePort(); err != nil {
			return err
		}
	}
	return opts.SetReuseAddr()
}

// Resource is an immutable descriptor of a socket that can be created,
// destroyed, encoded and decoded by [*Sockets].
//
// Implementations must be comparable values: two descriptors are the same
// resource iff they compare equal, and [*Collection] uses them as map keys.
type Resource interface {
	// Socket returns the family, type, protocol and address to bind.
	Socket() SocketResource

	// ConfigureSocket sets the socket options required before bind.
	ConfigureSocket(opts SocketOptions, reuse bool) error

	// EncodeSpec returns the identifier and tokens of the spec string.
	EncodeSpec() (ident string, tokens []string)
}

// SocketOptions sets options on a socket that is not bound yet.
type SocketOptions interface {
	// SetReuseAddr sets SO_REUSEADDR.
	SetReuseAddr() error

	// SetReusePort sets SO_REUSEPORT or fails with [ErrUnsupportedOption].
	SetReusePort() error

	// SetV6Only sets or clears IPV6_V6ONLY.
	SetV6Only(v6only bool) error
}
