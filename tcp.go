// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import "context"

// TCPResource is a TCP socket bound to an IP address.
type TCPResource struct {
	IPResource
}

var _ Resource = TCPResource{}

// NewTCPResource returns a [TCPResource] for host and port.
//
// See [NewIPResource] for the meaning of host and request.
func NewTCPResource(ctx context.Context, cfg *Config, host string, port uint16, request StackMode) (TCPResource, error) {
	res, err := NewIPResource(ctx, cfg, SocketStream, ProtocolTCP, host, port, request)
	if err != nil {
		return TCPResource{}, err
	}
	return TCPResource{res}, nil
}

// EncodeSpec implements [Resource].
//
// The identifier is "tcp" for the wildcard host, "tcp4" for an IPv4
// literal and "tcp6" for an IPv6 literal.
func (r TCPResource) EncodeSpec() (string, []string) {
	return r.encodeSpec("tcp")
}

// TCPKind is the [Kind] of [TCPResource].
//
// It claims "tcp" (family deduced from the address), "tcp4" and "tcp6".
type TCPKind struct {
	// Platform decides the family of wildcard resources.
	//
	// Set by [NewTCPKind] from [Config.Platform].
	Platform Platform
}

// NewTCPKind returns a new [*TCPKind].
func NewTCPKind(cfg *Config) *TCPKind {
	return &TCPKind{Platform: cfg.Platform}
}

var _ Kind = &TCPKind{}

// Identifiers implements [Kind].
func (k *TCPKind) Identifiers() []string {
	return []string{"tcp", "tcp4", "tcp6"}
}

// DecodeSpec implements [Kind].
func (k *TCPKind) DecodeSpec(ident string, tokens []string) (Resource, bool, error) {
	res, ok, err := decodeIPSpec(k.Platform, "tcp", SocketStream, ProtocolTCP, ident, tokens)
	if !ok {
		return nil, false, err
	}
	return TCPResource{res}, true, nil
}
