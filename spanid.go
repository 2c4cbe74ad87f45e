// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"github.com/bassosimone/runtimex"
	"github.com/google/uuid"
)

// NewSpanID returns a UUIDv7 identifying a span.
//
// A generation (one lifetime of the supervised process) is a natural span:
// attach the ID to the logger with [*slog.Logger.With] so that creating,
// encoding, decoding and destroying its handles can be correlated.
//
// This function panics if the system random number generator fails,
// which should only happen under extraordinary circumstances.
func NewSpanID() string {
	return runtimex.PanicOnError1(uuid.NewV7()).String()
}
