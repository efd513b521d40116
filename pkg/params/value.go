package params

import (
	"encoding/json"
	"math/big"
	"strings"

	"github.com/turtacn/vincent/pkg/constants"
)

// Kind discriminates the states a coerced Value can be in.
type Kind uint8

const (
	// KindEmpty is the unset sentinel. It is distinct from an absent value.
	KindEmpty Kind = iota
	// KindInProgress is a partially typed integer such as "-".
	KindInProgress
	// KindInteger carries a parsed integer together with the text it was parsed from.
	KindInteger
	KindBool
	// KindText carries addresses, strings and bytes.
	KindText
	KindArray
)

func (k Kind) String() string {
	switch k {
	case KindEmpty:
		return "empty"
	case KindInProgress:
		return "in_progress"
	case KindInteger:
		return "integer"
	case KindBool:
		return "bool"
	case KindText:
		return "text"
	case KindArray:
		return "array"
	}
	return "unknown"
}

// Value is a coerced parameter value. The zero Value is Empty.
type Value struct {
	kind  Kind
	raw   string
	num   *big.Int
	flag  bool
	items []Value
}

// EmptyValue returns the unset sentinel.
func EmptyValue() Value { return Value{} }

// InProgressValue returns a value that is still being typed.
func InProgressValue(raw string) Value { return Value{kind: KindInProgress, raw: raw} }

// IntegerValue returns an integer that keeps raw as its textual form.
func IntegerValue(n *big.Int, raw string) Value {
	return Value{kind: KindInteger, num: new(big.Int).Set(n), raw: raw}
}

// BoolValue returns a boolean value.
func BoolValue(b bool) Value { return Value{kind: KindBool, flag: b} }

// TextValue returns a text value.
func TextValue(s string) Value { return Value{kind: KindText, raw: s} }

// ArrayValue returns an array of values.
func ArrayValue(items ...Value) Value {
	return Value{kind: KindArray, items: append([]Value(nil), items...)}
}

func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether v is the unset sentinel.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Raw returns the text of InProgress, Integer and Text values.
func (v Value) Raw() string { return v.raw }

// BigInt returns a copy of the integer, or nil when v is not an Integer.
func (v Value) BigInt() *big.Int {
	if v.kind != KindInteger {
		return nil
	}
	return new(big.Int).Set(v.num)
}

// Bool returns the boolean payload.
func (v Value) Bool() bool { return v.kind == KindBool && v.flag }

// Items returns a copy of the array elements.
func (v Value) Items() []Value {
	if v.kind != KindArray {
		return nil
	}
	return append([]Value(nil), v.items...)
}

// Equal compares kind and payload. Integers compare by their text so "007" and "7" differ.
func (v Value) Equal(o Value) bool {
	if v.kind != o.kind {
		return false
	}
	switch v.kind {
	case KindEmpty:
		return true
	case KindInProgress, KindText:
		return v.raw == o.raw
	case KindInteger:
		return v.raw == o.raw && v.num.Cmp(o.num) == 0
	case KindBool:
		return v.flag == o.flag
	case KindArray:
		if len(v.items) != len(o.items) {
			return false
		}
		for i := range v.items {
			if !v.items[i].Equal(o.items[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String serialises v back to raw input form. Coerce(t, v.String()) yields v again.
func (v Value) String() string {
	switch v.kind {
	case KindInProgress, KindInteger, KindText:
		return v.raw
	case KindBool:
		if v.flag {
			return "true"
		}
		return "false"
	case KindArray:
		parts := make([]string, len(v.items))
		for i, item := range v.items {
			parts[i] = item.String()
		}
		return strings.Join(parts, constants.ArraySeparator)
	}
	return ""
}

// Interface returns v as plain Go data: "" for Empty, string for integers and text,
// bool, or []interface{}.
func (v Value) Interface() interface{} {
	switch v.kind {
	case KindBool:
		return v.flag
	case KindArray:
		out := make([]interface{}, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	}
	return v.String()
}

// MarshalJSON renders integers as decimal strings to keep full precision.
func (v Value) MarshalJSON() ([]byte, error) {
	return json.Marshal(v.Interface())
}
