// Package params implements the Vincent ability parameter vocabulary: a closed set of
// scalar and array types, the validation rule for each, coercion from raw user input to
// typed values, and the definition-to-schema builder used for tool schemas.
//
// Raw values are strings (arrays are comma separated). The empty string is the "unset"
// sentinel and is valid for every type.
package params

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Type is a parameter type. The numeric values match the on-chain ParameterType encoding.
type Type uint8

const (
	TypeInt256 Type = iota
	TypeInt256Array
	TypeUint256
	TypeUint256Array
	TypeBool
	TypeBoolArray
	TypeAddress
	TypeAddressArray
	TypeString
	TypeStringArray
	TypeBytes
	TypeBytesArray

	typeCount
)

// canonicalNames is indexed by Type.
var canonicalNames = [...]string{
	"INT256",
	"INT256_ARRAY",
	"UINT256",
	"UINT256_ARRAY",
	"BOOL",
	"BOOL_ARRAY",
	"ADDRESS",
	"ADDRESS_ARRAY",
	"STRING",
	"STRING_ARRAY",
	"BYTES",
	"BYTES_ARRAY",
}

// mcpNames is the tool-definition vocabulary, indexed by Type. The unsigned variants have
// no name of their own there and render as the signed ones.
var mcpNames = [...]string{
	"number",
	"number_array",
	"number",
	"number_array",
	"bool",
	"bool_array",
	"address",
	"address_array",
	"string",
	"string_array",
	"bytes",
	"bytes_array",
}

// Adding a Type without a name fails to compile here.
var (
	_ = [1]struct{}{}[len(canonicalNames)-int(typeCount)]
	_ = [1]struct{}{}[len(mcpNames)-int(typeCount)]
)

var typeByName = func() map[string]Type {
	m := make(map[string]Type, 2*int(typeCount))
	// canonical names first so "number" resolves to the signed type below
	for t := Type(0); t < typeCount; t++ {
		m[strings.ToLower(canonicalNames[t])] = t
	}
	for t := Type(0); t < typeCount; t++ {
		if _, ok := m[mcpNames[t]]; !ok {
			m[mcpNames[t]] = t
		}
	}
	return m
}()

// Types returns every parameter type in encoding order.
func Types() []Type {
	out := make([]Type, 0, typeCount)
	for t := Type(0); t < typeCount; t++ {
		out = append(out, t)
	}
	return out
}

// ParseType accepts a canonical name (INT256_ARRAY), a tool vocabulary name (number_array)
// or the numeric encoding, case-insensitively.
func ParseType(s string) (Type, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	if t, ok := typeByName[key]; ok {
		return t, nil
	}
	if n, err := strconv.Atoi(key); err == nil && n >= 0 && n < int(typeCount) {
		return Type(n), nil
	}
	return 0, fmt.Errorf("unknown parameter type %q", s)
}

// Valid reports whether t is one of the declared types.
func (t Type) Valid() bool { return t < typeCount }

// String returns the canonical name.
func (t Type) String() string {
	if !t.Valid() {
		return fmt.Sprintf("Type(%d)", uint8(t))
	}
	return canonicalNames[t]
}

// MCPName returns the tool vocabulary name.
func (t Type) MCPName() string {
	if !t.Valid() {
		return ""
	}
	return mcpNames[t]
}

// IsArray reports whether t is an array variant.
func (t Type) IsArray() bool { return t%2 == 1 }

// Elem returns the scalar type of an array variant, or t itself.
func (t Type) Elem() Type { return t &^ 1 }

// Array returns the array variant of t's scalar type.
func (t Type) Array() Type { return t | 1 }

func (t Type) scalar() scalarKind { return scalarKind(t / 2) }

// MarshalJSON encodes the canonical name.
func (t Type) MarshalJSON() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid parameter type %d", uint8(t))
	}
	return json.Marshal(t.String())
}

// UnmarshalJSON accepts either vocabulary or the numeric encoding.
func (t *Type) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var n int
		if err := json.Unmarshal(data, &n); err != nil {
			return fmt.Errorf("parameter type must be a string or number: %w", err)
		}
		s = strconv.Itoa(n)
	}
	parsed, err := ParseType(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// MarshalText lets Type be used as a map key and in text encoders.
func (t Type) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("invalid parameter type %d", uint8(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText is the inverse of MarshalText.
func (t *Type) UnmarshalText(text []byte) error {
	parsed, err := ParseType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
