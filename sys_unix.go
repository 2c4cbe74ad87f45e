//go:build unix

// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"fmt"
	"net"
	"net/netip"
	"os"
	"strconv"

	"golang.org/x/sys/unix"
)

// listenBacklog is the backlog passed to listen(2); the kernel caps it to somaxconn.
const listenBacklog = 4096

// sysSocket opens a socket without close-on-exec.
func sysSocket(sock SocketResource) (int, error) {
	var domain, sotype, proto int
	switch sock.Family {
	case FamilyIPv4:
		domain = unix.AF_INET
	case FamilyIPv6:
		domain = unix.AF_INET6
	default:
		return -1, fmt.Errorf("handoff: unknown family: %s", sock.Family)
	}
	switch sock.Type {
	case SocketStream:
		sotype = unix.SOCK_STREAM
	case SocketDatagram:
		sotype = unix.SOCK_DGRAM
	default:
		return -1, fmt.Errorf("handoff: unknown socket type: %s", sock.Type)
	}
	switch sock.Protocol {
	case ProtocolTCP:
		proto = unix.IPPROTO_TCP
	case ProtocolUDP:
		proto = unix.IPPROTO_UDP
	}
	fd, err := unix.Socket(domain, sotype, proto)
	if err != nil {
		return -1, os.NewSyscallError("socket", err)
	}
	return fd, nil
}

// sysBind binds fd to the address of sock.
func sysBind(fd int, sock SocketResource) error {
	sa, err := toSockaddr(sock.Family, sock.Addr)
	if err != nil {
		return err
	}
	return os.NewSyscallError("bind", unix.Bind(fd, sa))
}

// sysClose closes fd.
func sysClose(fd int) error {
	return os.NewSyscallError("close", unix.Close(fd))
}

// sysDup duplicates fd.
func sysDup(fd int) (int, error) {
	dup, err := unix.Dup(fd)
	if err != nil {
		return -1, os.NewSyscallError("dup", err)
	}
	return dup, nil
}

// SetInheritable clears (inheritable == true) or sets the close-on-exec
// flag of fd, deciding whether fd survives an exec.
func SetInheritable(fd int, inheritable bool) error {
	flags, err := unix.FcntlInt(uintptr(fd), unix.F_GETFD, 0)
	if err != nil {
		return os.NewSyscallError("fcntl", err)
	}
	if inheritable {
		flags &^= unix.FD_CLOEXEC
	} else {
		flags |= unix.FD_CLOEXEC
	}
	_, err = unix.FcntlInt(uintptr(fd), unix.F_SETFD, flags)
	return os.NewSyscallError("fcntl", err)
}

// sysSocketType returns the type of the socket fd, failing for
// descriptors that are not sockets.
func sysSocketType(fd int) (SocketType, error) {
	sotype, err := unix.GetsockoptInt(fd, unix.SOL_SOCKET, unix.SO_TYPE)
	if err != nil {
		return 0, os.NewSyscallError("getsockopt", err)
	}
	switch sotype {
	case unix.SOCK_STREAM:
		return SocketStream, nil
	case unix.SOCK_DGRAM:
		return SocketDatagram, nil
	default:
		return 0, fmt.Errorf("handoff: unsupported socket type %d", sotype)
	}
}

// sysLocalAddr returns the family and the bound address of fd.
func sysLocalAddr(fd int) (Family, netip.AddrPort, error) {
	sa, err := unix.Getsockname(fd)
	if err != nil {
		return 0, netip.AddrPort{}, os.NewSyscallError("getsockname", err)
	}
	switch sa := sa.(type) {
	case *unix.SockaddrInet4:
		return FamilyIPv4, netip.AddrPortFrom(netip.AddrFrom4(sa.Addr), uint16(sa.Port)), nil
	case *unix.SockaddrInet6:
		addr := netip.AddrFrom16(sa.Addr)
		if sa.ZoneId != 0 {
			addr = addr.WithZone(zoneName(sa.ZoneId))
		}
		return FamilyIPv6, netip.AddrPortFrom(addr, uint16(sa.Port)), nil
	default:
		return 0, netip.AddrPort{}, fmt.Errorf("handoff: not an IP socket: %T", sa)
	}
}

// toSockaddr converts an address of the given family to a [unix.Sockaddr].
func toSockaddr(family Family, addr netip.AddrPort) (unix.Sockaddr, error) {
	host := addr.Addr()
	switch family {
	case FamilyIPv4:
		sa := &unix.SockaddrInet4{Port: int(addr.Port())}
		if host.IsValid() {
			if !host.Is4() {
				return nil, fmt.Errorf("%w: %s is not an IPv4 address", ErrFamilyMismatch, host)
			}
			sa.Addr = host.As4()
		}
		return sa, nil

	case FamilyIPv6:
		sa := &unix.SockaddrInet6{Port: int(addr.Port())}
		if host.IsValid() {
			sa.Addr = host.As16()
			if zone := host.Zone(); zone != "" {
				index, err := zoneIndex(zone)
				if err != nil {
					return nil, err
				}
				sa.ZoneId = index
			}
		}
		return sa, nil

	default:
		return nil, fmt.Errorf("handoff: unknown family: %s", family)
	}
}

// zoneIndex maps an IPv6 zone (interface name or number) to its index.
func zoneIndex(zone string) (uint32, error) {
	if ifi, err := net.InterfaceByName(zone); err == nil {
		return uint32(ifi.Index), nil
	}
	index, err := strconv.ParseUint(zone, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("handoff: unknown IPv6 zone: %q", zone)
	}
	return uint32(index), nil
}

// zoneName maps an interface index to its name, falling back to the number.
func zoneName(index uint32) string {
	if ifi, err := net.InterfaceByIndex(int(index)); err == nil {
		return ifi.Name
	}
	return strconv.FormatUint(uint64(index), 10)
}

// socketOptions implements [SocketOptions] for a raw descriptor.
type socketOptions struct {
	fd       int
	platform Platform
}

var _ SocketOptions = socketOptions{}

// newSocketOptions returns the [SocketOptions] of fd.
func newSocketOptions(fd int, platform Platform) SocketOptions {
	return socketOptions{fd: fd, platform: platform}
}

// SetReuseAddr implements [SocketOptions].
func (o socketOptions) SetReuseAddr() error {
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(o.fd, unix.SOL_SOCKET, unix.SO_REUSEADDR, 1))
}

// SetReusePort implements [SocketOptions].
func (o socketOptions) SetReusePort() error {
	if !o.platform.ReusePortSupported() {
		return fmt.Errorf("%w: SO_REUSEPORT", ErrUnsupportedOption)
	}
	return setReusePort(o.fd)
}

// SetV6Only implements [SocketOptions].
func (o socketOptions) SetV6Only(v6only bool) error {
	value := 0
	if v6only {
		value = 1
	}
	return os.NewSyscallError("setsockopt", unix.SetsockoptInt(o.fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, value))
}

// probeDualStack reports whether IPV6_V6ONLY can be cleared on an IPv6 socket.
func probeDualStack() bool {
	fd, err := unix.Socket(unix.AF_INET6, unix.SOCK_STREAM, 0)
	if err != nil {
		return false
	}
	defer unix.Close(fd)
	return unix.SetsockoptInt(fd, unix.IPPROTO_IPV6, unix.IPV6_V6ONLY, 0) == nil
}

// sysListener calls listen(2) on fd and wraps a duplicate in a [net.Listener].
func sysListener(fd int) (net.Listener, error) {
	if err := unix.Listen(fd, listenBacklog); err != nil {
		return nil, os.NewSyscallError("listen", err)
	}
	file, err := dupFile(fd)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return net.FileListener(file)
}

// sysPacketConn wraps a duplicate of fd in a [net.PacketConn].
func sysPacketConn(fd int) (net.PacketConn, error) {
	file, err := dupFile(fd)
	if err != nil {
		return nil, err
	}
	defer file.Close()
	return net.FilePacketConn(file)
}

// dupFile returns an [*os.File] owning a duplicate of fd.
func dupFile(fd int) (*os.File, error) {
	dup, err := sysDup(fd)
	if err != nil {
		return nil, err
	}
	return os.NewFile(uintptr(dup), "handoff-"+strconv.Itoa(fd)), nil
}
