// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"context"
	"net/netip"
)

// Resolver abstracts the [*net.Resolver] behavior.
//
// [NewIPResource] uses it to turn a host name into a literal address.
// The [*net.Resolver] and [*DNSResolver] types satisfy this interface.
//
// Resolution is blocking and has no built-in timeout: bound it using
// the context passed to [NewIPResource].
type Resolver interface {
	LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error)
}

// ResolverFunc adapts a function to the [Resolver] interface.
type ResolverFunc func(ctx context.Context, network, host string) ([]netip.Addr, error)

var _ Resolver = ResolverFunc(nil)

// LookupNetIP implements [Resolver].
func (f ResolverFunc) LookupNetIP(ctx context.Context, network, host string) ([]netip.Addr, error) {
	return f(ctx, network, host)
}
