// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"fmt"
	"iter"
	"strconv"
	"strings"

	"github.com/bassosimone/runtimex"
)

// Collection maps resources to the handles of one generation.
//
// Build it during the single-threaded startup or handoff phase; afterward
// it may be read concurrently but must not be modified.
type Collection struct {
	handles map[Resource]*Handle
	order   []Resource
}

// NewCollection returns an empty [*Collection].
func NewCollection() *Collection {
	return &Collection{handles: make(map[Resource]*Handle)}
}

// Add maps res to handle unless res is already present, in which case
// the existing mapping wins and Add returns false.
func (c *Collection) Add(res Resource, handle *Handle) bool {
	if _, found := c.handles[res]; found {
		return false
	}
	c.handles[res] = handle
	c.order = append(c.order, res)
	return true
}

// Get returns the handle of res.
func (c *Collection) Get(res Resource) (*Handle, bool) {
	handle, found := c.handles[res]
	return handle, found
}

// Len returns the number of resources.
func (c *Collection) Len() int {
	return len(c.order)
}

// Resources returns the resources in insertion order.
func (c *Collection) Resources() []Resource {
	return append([]Resource(nil), c.order...)
}

// All iterates over resources and handles in insertion order.
func (c *Collection) All() iter.Seq2[Resource, *Handle] {
	return func(yield func(Resource, *Handle) bool) {
		for _, res := range c.order {
			if !yield(res, c.handles[res]) {
				return
			}
		}
	}
}

// CreateCollection creates a handle for each resource.
//
// Duplicate resources are created once. On failure, the handles created so
// far are destroyed and the error is returned.
func (s *Sockets) CreateCollection(reuse bool, resources ...Resource) (*Collection, error) {
	col := NewCollection()
	for _, res := range resources {
		if _, found := col.Get(res); found {
			continue
		}
		handle, err := s.Create(res, reuse)
		if err != nil {
			s.DestroyCollection(col)
			return nil, err
		}
		col.Add(res, handle)
	}
	return col, nil
}

// DestroyCollection destroys every handle in col.
func (s *Sockets) DestroyCollection(col *Collection) {
	for res, handle := range col.All() {
		s.Destroy(res, handle)
	}
}

// CollectionEntry is a decoded entry of a collection string.
type CollectionEntry struct {
	// Value is the encoded handle, as produced by [*Sockets.Encode].
	Value string

	// Resource is the decoded resource spec.
	Resource Resource
}

// ParseCollection decodes the resource specs of a collection string without
// touching any descriptor.
//
// Any entry that does not decode (see [*Registry.DecodeResourceSpec]) fails
// the whole parse: when the kind of one entry is unknown, the descriptor
// numbers of the others cannot be trusted either. An entry lacking the
// handle value fails with [ErrMalformedSpec]. The empty string is an
// empty collection.
func ParseCollection(reg *Registry, value string) ([]CollectionEntry, error) {
	if value == "" {
		return nil, nil
	}
	var entries []CollectionEntry
	for _, entry := range strings.Split(value, ";") {
		handleValue, spec, found := strings.Cut(entry, ",")
		if !found {
			return nil, fmt.Errorf("%w: entry %q lacks a resource spec", ErrMalformedSpec, entry)
		}
		res, err := reg.DecodeResourceSpec(spec)
		if err != nil {
			return nil, fmt.Errorf("handoff: invalid collection entry %q: %w", entry, err)
		}
		entries = append(entries, CollectionEntry{Value: handleValue, Resource: res})
	}
	return entries, nil
}

// NewCollectionCodec returns a new [*CollectionCodec].
//
// The registry decodes the resource specs and the sockets recover or
// create the handles.
func NewCollectionCodec(reg *Registry, sockets *Sockets) *CollectionCodec {
	runtimex.Assert(reg != nil && sockets != nil)
	return &CollectionCodec{Registry: reg, Sockets: sockets}
}

// CollectionCodec converts a [*Collection] to and from a single string
// suitable for an environment variable:
//
//	value,ident,token,...;value,ident,token,...
//
// where value is the encoded handle and the rest is the resource spec.
type CollectionCodec struct {
	// Registry decodes the resource specs.
	Registry *Registry

	// Sockets encodes, decodes and creates the handles.
	Sockets *Sockets
}

// Encode serializes col, duplicating every descriptor as an inheritable one.
//
// On failure, the duplicates made so far are closed.
func (c *CollectionCodec) Encode(col *Collection) (string, error) {
	var (
		entries []string
		values  []string
	)
	for res, handle := range col.All() {
		value, err := c.Sockets.Encode(res, handle)
		if err != nil {
			closeEncoded(values)
			return "", err
		}
		values = append(values, value)
		entries = append(entries, value+","+EncodeResourceSpec(res))
	}
	return strings.Join(entries, ";"), nil
}

// closeEncoded closes the duplicates created by a failed [*CollectionCodec.Encode].
func closeEncoded(values []string) {
	for _, value := range values {
		if fd, err := strconv.Atoi(value); err == nil {
			sysClose(fd)
		}
	}
}

// Decode restores the collection serialized by [*CollectionCodec.Encode].
//
// Specs are decoded first, as in [ParseCollection], and any failure aborts
// the restore before a descriptor is touched. Then, for each distinct
// resource (first occurrence wins), the inherited handle is recovered with
// [*Sockets.Decode] or, when that is not possible, a fresh one is created
// with [*Sockets.Create]. If creating fails, the handles restored so far
// are destroyed and the error is returned.
func (c *CollectionCodec) Decode(value string) (*Collection, error) {
	entries, err := ParseCollection(c.Registry, value)
	if err != nil {
		return nil, err
	}
	col := NewCollection()
	for _, entry := range entries {
		if _, found := col.Get(entry.Resource); found {
			continue
		}
		handle, ok := c.Sockets.Decode(entry.Resource, entry.Value)
		if !ok {
			handle, err = c.Sockets.Create(entry.Resource, false)
			if err != nil {
				c.Sockets.DestroyCollection(col)
				return nil, fmt.Errorf("handoff: cannot restore %q: %w", EncodeResourceSpec(entry.Resource), err)
			}
		}
		col.Add(entry.Resource, handle)
	}
	return col, nil
}
