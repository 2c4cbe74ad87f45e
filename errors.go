// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import "errors"

var (
	// ErrResolution indicates that a host name did not resolve to any
	// usable IPv4 or IPv6 address.
	ErrResolution = errors.New("handoff: cannot resolve host")

	// ErrFamilyMismatch indicates that an IPv4 literal was given where
	// IPv6 was demanded, or vice versa.
	ErrFamilyMismatch = errors.New("handoff: address family mismatch")

	// ErrUnsupportedOption indicates that dual-stack or port reuse was
	// requested but the platform cannot provide it.
	ErrUnsupportedOption = errors.New("handoff: unsupported socket option")

	// ErrMalformedSpec indicates that a spec string did not parse.
	//
	// This is a soft failure: callers may try another candidate or
	// report a configuration error themselves.
	ErrMalformedSpec = errors.New("handoff: malformed resource spec")

	// ErrUnknownIdentifier indicates that a spec string starts with an
	// identifier that no registered [Kind] claims.
	ErrUnknownIdentifier = errors.New("handoff: unknown resource identifier")

	// ErrDuplicateIdentifier indicates that two kinds claim the same identifier.
	ErrDuplicateIdentifier = errors.New("handoff: duplicate resource identifier")
)
