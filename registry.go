// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"fmt"
	"maps"
	"slices"

	"github.com/bassosimone/runtimex"
)

// Kind is a family of resources sharing a spec grammar.
//
// A kind claims one or more identifiers (e.g., "tcp", "tcp4", "tcp6")
// and turns the tokens following any of them into a [Resource].
type Kind interface {
	// Identifiers returns the identifiers claimed by this kind.
	Identifiers() []string

	// DecodeSpec decodes the tokens following ident.
	//
	// It returns ok == false with a nil error when the tokens do not
	// form a valid spec for this kind, and a non-nil error when they do
	// but the resource cannot be built (e.g., [ErrFamilyMismatch]).
	DecodeSpec(ident string, tokens []string) (res Resource, ok bool, err error)
}

// Registry maps spec identifiers to resource kinds.
//
// Build it once at startup and share it read-only afterward.
type Registry struct {
	kinds map[string]Kind
}

// NewRegistry returns a [*Registry] containing the given kinds.
//
// It fails with [ErrDuplicateIdentifier] when two kinds claim the same identifier.
func NewRegistry(kinds ...Kind) (*Registry, error) {
	r := &Registry{kinds: make(map[string]Kind)}
	for _, kind := range kinds {
		if err := r.Register(kind); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// NewDefaultRegistry returns a [*Registry] with the [*TCPKind] and [*UDPKind]
// kinds, configured from cfg.
//
// This function panics if the built-in kinds claim the same identifier twice,
// which is a programming error.
func NewDefaultRegistry(cfg *Config) *Registry {
	return runtimex.PanicOnError1(NewRegistry(NewTCPKind(cfg), NewUDPKind(cfg)))
}

// Register adds all the identifiers of kind to the registry.
//
// Registration is all or nothing: on [ErrDuplicateIdentifier] the registry
// is left unchanged.
func (r *Registry) Register(kind Kind) error {
	idents := kind.Identifiers()
	for idx, ident := range idents {
		if _, found := r.kinds[ident]; found || slices.Contains(idents[:idx], ident) {
			return fmt.Errorf("%w: %q", ErrDuplicateIdentifier, ident)
		}
	}
	for _, ident := range idents {
		r.kinds[ident] = kind
	}
	return nil
}

// Lookup returns the kind registered for ident.
func (r *Registry) Lookup(ident string) (Kind, bool) {
	kind, found := r.kinds[ident]
	return kind, found
}

// Identifiers returns all the registered identifiers, sorted.
func (r *Registry) Identifiers() []string {
	return slices.Sorted(maps.Keys(r.kinds))
}
