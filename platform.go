// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import "sync"

// Platform reports the socket capabilities of the running system.
//
// Resource construction consults DualStackSupported to pick the family
// of wildcard sockets. Tests replace it to simulate other systems.
type Platform interface {
	// DualStackSupported reports whether an IPv6 socket can be
	// configured to also accept IPv4-mapped traffic.
	DualStackSupported() bool

	// ReusePortSupported reports whether SO_REUSEPORT is available.
	ReusePortSupported() bool
}

// SystemPlatform returns the [Platform] describing the running system.
//
// The dual-stack probe opens and closes a throwaway IPv6 socket the
// first time it is needed; the result is cached for the process lifetime.
func SystemPlatform() Platform {
	return systemPlatform{}
}

type systemPlatform struct{}

var probeDualStackOnce = sync.OnceValue(probeDualStack)

// DualStackSupported implements [Platform].
func (systemPlatform) DualStackSupported() bool {
	return probeDualStackOnce()
}

// ReusePortSupported implements [Platform].
func (systemPlatform) ReusePortSupported() bool {
	return reusePortSupported
}
