// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

// SLogger is the structured logger used by [*Sockets] and [*DNSResolver].
//
// Socket lifecycle events (create, close, encode and decode, each as a
// Start/Done pair) and DNS exchanges are logged at Info. The reason an
// inherited descriptor was rejected is logged at Debug, so a supervisor
// can tell a missing descriptor from a mismatched one.
//
// A [*slog.Logger] works as is. Tests plug in a capturing logger.
type SLogger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

// DefaultSLogger returns the logger used when the caller has no opinion.
//
// It drops every record: handing sockets over must not write to the
// stdout or stderr that the successor generation inherits.
func DefaultSLogger() SLogger {
	return discardSLogger{}
}

type discardSLogger struct{}

var _ SLogger = discardSLogger{}

// Debug implements [SLogger].
func (discardSLogger) Debug(msg string, args ...any) {}

// Info implements [SLogger].
func (discardSLogger) Info(msg string, args ...any) {}
