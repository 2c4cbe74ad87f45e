// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"net/netip"
	"strconv"
)

// AddrSpec is the address part of an IP resource spec string.
type AddrSpec struct {
	// Addr is the literal host (zero [netip.Addr] for wildcard) and the port.
	Addr netip.AddrPort

	// DualStack is the requested stack mode, [StackDefault] when the
	// spec string carries no marker.
	DualStack StackMode
}

// DecodeAddr parses the address tokens of an IP resource spec string:
//
//	[hostOrEmpty, port, optionalStackMarker]
//
// The host must be empty or a literal IP address: names are never resolved
// here. The port must be a decimal number in [0, 65535]. The marker, when
// present, must be exactly "single" or "dual".
//
// On success it returns the decoded address and the tokens left after it.
// On failure it returns ok == false and the original tokens, unchanged.
func DecodeAddr(tokens []string) (spec AddrSpec, rest []string, ok bool) {
	if len(tokens) < 2 {
		return AddrSpec{}, tokens, false
	}
	var host netip.Addr
	if tokens[0] != "" {
		addr, err := netip.ParseAddr(tokens[0])
		if err != nil {
			return AddrSpec{}, tokens, false
		}
		host = addr
	}
	port, err := strconv.ParseUint(tokens[1], 10, 16)
	if err != nil {
		return AddrSpec{}, tokens, false
	}
	spec = AddrSpec{Addr: netip.AddrPortFrom(host, uint16(port))}
	rest = tokens[2:]
	if len(rest) > 0 {
		switch rest[0] {
		case "single":
			spec.DualStack = StackSingle
		case "dual":
			spec.DualStack = StackDual
		default:
			return AddrSpec{}, tokens, false
		}
		rest = rest[1:]
	}
	return spec, rest, true
}
