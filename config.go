// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"context"
	"net"
	"time"
)

// Dialer abstracts the [*net.Dialer] behavior.
//
// By making [*DNSResolver] depend on an abstract implementation we
// allow for unit testing and for using alternative dialers.
type Dialer interface {
	DialContext(ctx context.Context, network, address string) (net.Conn, error)
}

// Config holds common configuration for handoff operations.
//
// Pass this to constructor functions to pre-wire dependencies.
// All fields have sensible defaults set by [NewConfig].
type Config struct {
	// Dialer is used by [*DNSResolver].
	//
	// Set by [NewConfig] to [*net.Dialer].
	Dialer Dialer

	// ErrClassifier classifies errors for structured logging.
	//
	// Set by [NewConfig] to [DefaultErrClassifier].
	ErrClassifier ErrClassifier

	// Platform reports the socket capabilities of the system.
	//
	// Set by [NewConfig] to [SystemPlatform].
	Platform Platform

	// Resolver resolves host names given to [NewIPResource].
	//
	// Set by [NewConfig] to [net.DefaultResolver].
	Resolver Resolver

	// TimeNow returns the current time.
	//
	// Set by [NewConfig] to [time.Now].
	TimeNow func() time.Time
}

// NewConfig creates a [*Config] with sensible defaults.
func NewConfig() *Config {
	return &Config{
		Dialer:        &net.Dialer{},
		ErrClassifier: DefaultErrClassifier,
		Platform:      SystemPlatform(),
		Resolver:      net.DefaultResolver,
		TimeNow:       time.Now,
	}
}
