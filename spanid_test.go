// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Span IDs are UUIDv7 values sorting in creation order, so that the events
// of successive generations sort by the generation that emitted them.
func TestNewSpanID(t *testing.T) {
	first := NewSpanID()
	second := NewSpanID()

	for _, spanID := range []string{first, second} {
		parsed, err := uuid.Parse(spanID)
		require.NoError(t, err)
		assert.Equal(t, uuid.Version(7), parsed.Version())
	}
	assert.Less(t, first, second)
}
