package ir

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind identifies the primitive type of a Value.
type Kind int

const (
	KindBool Kind = iota
	KindNumber
	KindString
)

// String returns the lowercase name of the kind.
func (k Kind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	default:
		return fmt.Sprintf("Kind(%d)", int(k))
	}
}

// Value is a sealed interface over the primitive context types.
// Only Bool, Number, and String implement it. Context fields are flat
// primitives by contract: null, arrays, and nested objects are rejected
// at decode time so every backend sees the exact same value space.
type Value interface {
	value() // sealed
	Kind() Kind
}

// Bool is a boolean context value.
type Bool bool

func (Bool) value()     {}
func (Bool) Kind() Kind { return KindBool }

// Number is a numeric context value. Always float64 on the wire; the
// canonical encoder prints integral values without a fraction so that
// the Go engine and the upstream TypeScript toolchain agree byte-for-byte.
type Number float64

func (Number) value()     {}
func (Number) Kind() Kind { return KindNumber }

// String is a string context value.
type String string

func (String) value()     {}
func (String) Kind() Kind { return KindString }

// Equal reports whether two values have the same kind and contents.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind() != b.Kind() {
		return false
	}
	return a == b
}

// GoValue returns the plain Go representation (bool, float64, or string).
// Used at serialization boundaries (WASM export, YAML vectors).
func GoValue(v Value) any {
	switch val := v.(type) {
	case Bool:
		return bool(val)
	case Number:
		return float64(val)
	case String:
		return string(val)
	default:
		return nil
	}
}

// FromGo converts a plain Go value into a Value. Integers are widened to
// Number. Anything outside the primitive value space is an error.
func FromGo(v any) (Value, error) {
	switch val := v.(type) {
	case bool:
		return Bool(val), nil
	case float64:
		return Number(val), nil
	case float32:
		return Number(val), nil
	case int:
		return Number(val), nil
	case int64:
		return Number(val), nil
	case string:
		return String(val), nil
	case Value:
		return val, nil
	case nil:
		return nil, fmt.Errorf("null is not a valid context value")
	default:
		return nil, fmt.Errorf("unsupported context value type %T", v)
	}
}

// UnmarshalValue decodes a JSON value into a Value.
// Null, arrays, and objects are rejected: context is a flat map of
// primitives and every backend must agree on that.
func UnmarshalValue(data []byte) (Value, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("empty JSON value")
	}
	switch data[0] {
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil, err
		}
		return String(s), nil
	case 't', 'f':
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return nil, err
		}
		return Bool(b), nil
	case 'n':
		return nil, fmt.Errorf("null is not a valid context value")
	case '[', '{':
		return nil, fmt.Errorf("context values must be flat primitives, got %c...", data[0])
	default:
		n, err := strconv.ParseFloat(string(data), 64)
		if err != nil {
			return nil, fmt.Errorf("invalid number %q: %w", string(data), err)
		}
		return Number(n), nil
	}
}

// MarshalValue encodes a Value as plain (non-canonical) JSON.
func MarshalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case Bool:
		return json.Marshal(bool(val))
	case Number:
		return json.Marshal(float64(val))
	case String:
		return json.Marshal(string(val))
	default:
		return nil, fmt.Errorf("unknown Value type %T", v)
	}
}
