// SPDX-License-Identifier: GPL-3.0-or-later

package handoff

import (
	"fmt"
	"strings"
)

// EncodeResourceSpec returns the spec string of res: its identifier
// followed by its tokens, comma separated.
func EncodeResourceSpec(res Resource) string {
	ident, tokens := res.EncodeSpec()
	return strings.Join(append([]string{ident}, tokens...), ",")
}

// DecodeResourceSpec decodes a spec string produced by [EncodeResourceSpec]
// or written by hand in a configuration file.
//
// The identifier before the first comma selects the [Kind]. Errors:
//
//   - [ErrUnknownIdentifier] when no kind claims the identifier;
//   - [ErrMalformedSpec] when the kind does not recognize the tokens;
//   - the kind's own error (e.g., [ErrFamilyMismatch]) otherwise.
//
// Use [errors.Is] to tell them apart: only the last kind of error means that
// the spec was understood and is invalid.
func (r *Registry) DecodeResourceSpec(value string) (Resource, error) {
	ident, body, hasBody := strings.Cut(value, ",")
	kind, found := r.Lookup(ident)
	if !found {
		return nil, fmt.Errorf("%w: %q", ErrUnknownIdentifier, ident)
	}
	var tokens []string
	if hasBody {
		tokens = strings.Split(body, ",")
	}
	res, ok, err := kind.DecodeSpec(ident, tokens)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrMalformedSpec, value)
	}
	return res, nil
}
