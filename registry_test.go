// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// kindStub is a [Kind] claiming fixed identifiers and decoding nothing.
type kindStub struct {
	idents []string
}

var _ Kind = kindStub{}

func (k kindStub) Identifiers() []string {
	return k.idents
}

func (k kindStub) DecodeSpec(ident string, tokens []string) (Resource, bool, error) {
	return nil, false, nil
}

func TestNewDefaultRegistry(t *testing.T) {
	reg := NewDefaultRegistry(NewConfig())

	assert.Equal(t, []string{"tcp", "tcp4", "tcp6", "udp", "udp4", "udp6"}, reg.Identifiers())

	kind, found := reg.Lookup("tcp6")
	require.True(t, found)
	assert.IsType(t, &TCPKind{}, kind)

	kind, found = reg.Lookup("udp")
	require.True(t, found)
	assert.IsType(t, &UDPKind{}, kind)

	_, found = reg.Lookup("unix")
	assert.False(t, found)
}

func TestRegistryRegister(t *testing.T) {
	tests := []struct {
		// name describes what this test case verifies.
		name string

		// kind is the kind to register on top of the default registry.
		kind Kind

		// wantErr is the expected error, if any.
		wantErr error

		// wantIdents is the expected set of identifiers afterward.
		wantIdents []string
	}{
		{
			name:       "new identifiers",
			kind:       kindStub{idents: []string{"sctp", "sctp4"}},
			wantIdents: []string{"sctp", "sctp4", "tcp", "tcp4", "tcp6", "udp", "udp4", "udp6"},
		},

		{
			name:       "clash with an existing kind leaves the registry unchanged",
			kind:       kindStub{idents: []string{"sctp", "tcp"}},
			wantErr:    ErrDuplicateIdentifier,
			wantIdents: []string{"tcp", "tcp4", "tcp6", "udp", "udp4", "udp6"},
		},

		{
			name:       "identifier repeated within the same kind",
			kind:       kindStub{idents: []string{"sctp", "sctp"}},
			wantErr:    ErrDuplicateIdentifier,
			wantIdents: []string{"tcp", "tcp4", "tcp6", "udp", "udp4", "udp6"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			reg := NewDefaultRegistry(NewConfig())

			err := reg.Register(tt.kind)

			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
			} else {
				require.NoError(t, err)
			}
			assert.Equal(t, tt.wantIdents, reg.Identifiers())
		})
	}
}

func TestNewRegistryDuplicate(t *testing.T) {
	cfg := NewConfig()
	reg, err := NewRegistry(NewTCPKind(cfg), NewTCPKind(cfg))

	require.ErrorIs(t, err, ErrDuplicateIdentifier)
	assert.Nil(t, reg)
}
