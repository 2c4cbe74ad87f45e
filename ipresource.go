// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"context"
	"fmt"
	"net/netip"
	"strconv"
)

// StackMode is the dual-stack setting of an IP resource.
type StackMode int

const (
	// StackDefault leaves the choice to the construction-time policy and,
	// once a descriptor exists, means "do not touch IPV6_V6ONLY".
	StackDefault StackMode = iota

	// StackSingle is a single-stack socket (IPV6_V6ONLY set on IPv6).
	StackSingle

	// StackDual is an IPv6 socket also accepting IPv4-mapped traffic.
	StackDual
)

// String returns the spec marker ("single", "dual") or "default".
func (m StackMode) String() string {
	switch m {
	case StackSingle:
		return "single"
	case StackDual:
		return "dual"
	default:
		return "default"
	}
}

// IPResource is a [SocketResource] bound to an IPv4 or IPv6 address.
//
// Construct using [NewIPResource] so that the family and the dual-stack
// setting are decided consistently. Descriptors built this way always carry
// either [StackSingle] or [StackDual].
type IPResource struct {
	SocketResource
	DualStack StackMode
}

// NewIPResource resolves host and builds an [IPResource].
//
// The host may be empty (wildcard), an IPv4 or IPv6 literal, or a name that is
// resolved using [Config.Resolver]; among the results IPv6 is preferred. The
// request argument is the caller's dual-stack preference, where [StackDefault]
// lets the platform decide for wildcard hosts.
//
// Errors wrap [ErrResolution] or [ErrUnsupportedOption].
func NewIPResource(ctx context.Context, cfg *Config, sotype SocketType,
	proto Protocol, host string, port uint16, request StackMode) (IPResource, error) {
	addr, err := resolveHost(ctx, cfg.Resolver, host)
	if err != nil {
		return IPResource{}, err
	}
	return newIPResource(cfg.Platform, sotype, proto, netip.AddrPortFrom(addr, port), request)
}

// newIPResource builds an [IPResource] for an already resolved address.
func newIPResource(platform Platform, sotype SocketType,
	proto Protocol, addr netip.AddrPort, request StackMode) (IPResource, error) {
	family, mode, err := decideBinding(platform, addr.Addr(), request)
	if err != nil {
		return IPResource{}, err
	}
	return IPResource{
		SocketResource: SocketResource{
			Family:   family,
			Type:     sotype,
			Protocol: proto,
			Addr:     addr,
		},
		DualStack: mode,
	}, nil
}

// resolveHost turns host into a literal address.
//
// It returns the zero [netip.Addr] for the wildcard host.
func resolveHost(ctx context.Context, resolver Resolver, host string) (netip.Addr, error) {
	if host == "" {
		return netip.Addr{}, nil
	}
	if addr, err := netip.ParseAddr(host); err == nil {
		return addr, nil
	}
	addrs, err := resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return netip.Addr{}, fmt.Errorf("%w: %s: %w", ErrResolution, host, err)
	}
	var v4 netip.Addr
	for _, addr := range addrs {
		addr = addr.Unmap()
		if addr.Is6() {
			return addr, nil
		}
		if addr.Is4() && !v4.IsValid() {
			v4 = addr
		}
	}
	if !v4.IsValid() {
		return netip.Addr{}, fmt.Errorf("%w: %s: no usable address", ErrResolution, host)
	}
	return v4, nil
}

// decideBinding chooses the family and the dual-stack setting.
//
// An explicit dual-stack request fails on a platform without dual-stack
// support, whatever the host, even when it would be ignored (IPv4 literal).
func decideBinding(platform Platform, addr netip.Addr, request StackMode) (Family, StackMode, error) {
	if request == StackDual && !platform.DualStackSupported() {
		return 0, 0, fmt.Errorf("%w: dual-stack sockets", ErrUnsupportedOption)
	}
	var (
		family Family
		mode   StackMode
	)
	switch {
	case !addr.IsValid():
		if platform.DualStackSupported() && request != StackSingle {
			family, mode = FamilyIPv6, StackDual
		} else {
			family, mode = FamilyIPv4, StackSingle
		}

	case addr.Is4():
		family, mode = FamilyIPv4, StackSingle

	default:
		// An explicit IPv6 literal is dual-stack only on request.
		family, mode = FamilyIPv6, StackSingle
		if request == StackDual {
			mode = StackDual
		}
	}
	return family, mode, nil
}

// CheckIPv4 validates an address for a forced-IPv4 resource.
//
// The wildcard host becomes 0.0.0.0; an IPv6 literal fails with [ErrFamilyMismatch].
func CheckIPv4(addr netip.AddrPort) (netip.AddrPort, error) {
	host := addr.Addr()
	if !host.IsValid() {
		return netip.AddrPortFrom(netip.IPv4Unspecified(), addr.Port()), nil
	}
	if !host.Is4() {
		return netip.AddrPort{}, fmt.Errorf("%w: IPv6 address %s given for IPv4 socket", ErrFamilyMismatch, host)
	}
	return addr, nil
}

// CheckIPv6 validates an address for a forced-IPv6 resource.
//
// The wildcard host becomes ::; an IPv4 literal fails with [ErrFamilyMismatch].
func CheckIPv6(addr netip.AddrPort) (netip.AddrPort, error) {
	host := addr.Addr()
	if !host.IsValid() {
		return netip.AddrPortFrom(netip.IPv6Unspecified(), addr.Port()), nil
	}
	if host.Is4() {
		return netip.AddrPort{}, fmt.Errorf("%w: IPv4 address %s given for IPv6 socket", ErrFamilyMismatch, host)
	}
	return addr, nil
}

// ConfigureSocket implements [Resource].
//
// On IPv6 sockets with a decided stack mode, IPV6_V6ONLY is cleared for
// dual-stack and set for single-stack before the generic options.
func (r IPResource) ConfigureSocket(opts SocketOptions, reuse bool) error {
	if r.Family == FamilyIPv6 && r.DualStack != StackDefault {
		if err := opts.SetV6Only(r.DualStack == StackSingle); err != nil {
			return err
		}
	}
	return r.SocketResource.ConfigureSocket(opts, reuse)
}

// EncodeAddr returns the address tokens of the spec string.
//
// The stack marker is emitted only when the stack mode is not [StackDefault].
func (r IPResource) EncodeAddr() []string {
	host := ""
	if r.Addr.Addr().IsValid() {
		host = r.Addr.Addr().String()
	}
	tokens := []string{host, strconv.Itoa(int(r.Addr.Port()))}
	if r.DualStack != StackDefault {
		tokens = append(tokens, r.DualStack.String())
	}
	return tokens
}

// encodeSpec picks the identifier from the literal host and appends
// the encoded address tokens.
func (r IPResource) encodeSpec(name string) (string, []string) {
	host := r.Addr.Addr()
	switch {
	case !host.IsValid():
		return name, r.EncodeAddr()
	case host.Is4():
		return name + "4", r.EncodeAddr()
	default:
		return name + "6", r.EncodeAddr()
	}
}

// decodeIPSpec implements the DecodeSpec logic shared by [*TCPKind] and [*UDPKind].
//
// The name argument is the bare identifier; name+"4" and name+"6" force the family.
func decodeIPSpec(platform Platform, name string, sotype SocketType,
	proto Protocol, ident string, tokens []string) (IPResource, bool, error) {
	spec, rest, ok := DecodeAddr(tokens)
	if !ok || len(rest) > 0 {
		return IPResource{}, false, nil
	}
	var err error
	switch ident {
	case name + "4":
		spec.Addr, err = CheckIPv4(spec.Addr)
	case name + "6":
		spec.Addr, err = CheckIPv6(spec.Addr)
	}
	if err != nil {
		return IPResource{}, false, err
	}
	res, err := newIPResource(platform, sotype, proto, spec.Addr, spec.DualStack)
	if err != nil {
		return IPResource{}, false, err
	}
	return res, true, nil
}
