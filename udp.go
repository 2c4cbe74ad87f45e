// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import "context"

// UDPResource is a UDP socket bound to an IP address.
type UDPResource struct {
	IPResource
}

var _ Resource = UDPResource{}

// NewUDPResource returns a [UDPResource] for host and port.
//
// See [NewIPResource] for the meaning of host and request.
func NewUDPResource(ctx context.Context, cfg *Config, host string, port uint16, request StackMode) (UDPResource, error) {
	res, err := NewIPResource(ctx, cfg, SocketDatagram, ProtocolUDP, host, port, request)
	if err != nil {
		return UDPResource{}, err
	}
	return UDPResource{res}, nil
}

// EncodeSpec implements [Resource].
//
// The identifier is "udp" for the wildcard host, "udp4" for an IPv4
// literal and "udp6" for an IPv6 literal.
func (r UDPResource) EncodeSpec() (string, []string) {
	return r.encodeSpec("udp")
}

// UDPKind is the [Kind] of [UDPResource].
//
// It claims "udp" (family deduced from the address), "udp4" and "udp6".
type UDPKind struct {
	// Platform decides the family of wildcard resources.
	//
	// Set by [NewUDPKind] from [Config.Platform].
	Platform Platform
}

// NewUDPKind returns a new [*UDPKind].
func NewUDPKind(cfg *Config) *UDPKind {
	return &UDPKind{Platform: cfg.Platform}
}

var _ Kind = &UDPKind{}

// Identifiers implements [Kind].
func (k *UDPKind) Identifiers() []string {
	return []string{"udp", "udp4", "udp6"}
}

// DecodeSpec implements [Kind].
func (k *UDPKind) DecodeSpec(ident string, tokens []string) (Resource, bool, error) {
	res, ok, err := decodeIPSpec(k.Platform, "udp", SocketDatagram, ProtocolUDP, ident, tokens)
	if !ok {
		return nil, false, err
	}
	return UDPResource{res}, true, nil
}
