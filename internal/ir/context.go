package ir

import (
	"encoding/json"
	"fmt"
	"slices"
	"unicode/utf16"
)

// Context is the flat map of primitive fields backing one machine
// instance. It is mutated only by committed actions or by a force-sync
// write; everything handed to host code is a clone.
type Context map[string]Value

// Clone returns an independent copy. Values are immutable primitives,
// so a shallow map copy is a full snapshot.
func (c Context) Clone() Context {
	out := make(Context, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Equal reports whether two contexts hold exactly the same fields and values.
func (c Context) Equal(other Context) bool {
	if len(c) != len(other) {
		return false
	}
	for k, v := range c {
		ov, ok := other[k]
		if !ok || !Equal(v, ov) {
			return false
		}
	}
	return true
}

// SortedKeys returns field names in RFC 8785 canonical order (UTF-16
// code units). Go's sort.Strings compares UTF-8 bytes, which produces a
// DIFFERENT order for non-BMP keys; the upstream toolchain sorts the
// JavaScript way.
func (c Context) SortedKeys() []string {
	keys := make([]string, 0, len(c))
	for k := range c {
		keys = append(keys, k)
	}
	slices.SortFunc(keys, compareKeysRFC8785)
	return keys
}

// compareKeysRFC8785 compares strings by UTF-16 code units as required
// by RFC 8785 canonical JSON.
func compareKeysRFC8785(a, b string) int {
	a16 := utf16.Encode([]rune(a))
	b16 := utf16.Encode([]rune(b))

	n := min(len(a16), len(b16))
	for i := 0; i < n; i++ {
		if a16[i] != b16[i] {
			if a16[i] < b16[i] {
				return -1
			}
			return 1
		}
	}
	switch {
	case len(a16) < len(b16):
		return -1
	case len(a16) > len(b16):
		return 1
	default:
		return 0
	}
}

// UnmarshalJSON decodes a context object with strict value typing.
func (c *Context) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = make(Context, len(raw))
	for k, v := range raw {
		val, err := UnmarshalValue(v)
		if err != nil {
			return fmt.Errorf("context field %q: %w", k, err)
		}
		(*c)[k] = val
	}
	return nil
}

// MarshalJSON encodes the context with canonically ordered keys so that
// plain serialization is stable too (the canonical encoder in
// canonical.go additionally NFC-normalizes strings for hashing).
func (c Context) MarshalJSON() ([]byte, error) {
	return marshalCanonicalContext(c)
}
