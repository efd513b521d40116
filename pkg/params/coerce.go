package params

import (
	"encoding/json"
	"fmt"
	"math/big"
	"strconv"
	"strings"

	"github.com/turtacn/vincent/pkg/constants"
)

// Coerce converts raw input into a typed Value. Callers are expected to Validate first;
// malformed input collapses to the Empty sentinel instead of failing.
//
// Array values are split on ",", each element trimmed and coerced as a scalar. Trailing
// empty elements are dropped (the user may still be typing) while interior ones are kept
// as Empty. An array with nothing left is Empty, never an empty array.
func Coerce(t Type, raw string) Value {
	if !t.Valid() {
		return EmptyValue()
	}
	rule := rules[t.scalar()]
	if !t.IsArray() {
		if t.scalar() == scalarString {
			return coerceText(raw)
		}
		return rule.coerce(strings.TrimSpace(raw))
	}

	if strings.TrimSpace(raw) == "" {
		return EmptyValue()
	}
	parts := strings.Split(raw, constants.ArraySeparator)
	items := make([]Value, 0, len(parts))
	for _, part := range parts {
		items = append(items, rule.coerce(strings.TrimSpace(part)))
	}
	end := len(items)
	for end > 0 && items[end-1].IsEmpty() {
		end--
	}
	if end == 0 {
		return EmptyValue()
	}
	return Value{kind: KindArray, items: items[:end]}
}

func coerceInt(s string) Value {
	switch s {
	case "":
		return EmptyValue()
	case "-":
		return InProgressValue(s)
	}
	n, parsed := parseInteger(s)
	if !parsed {
		return EmptyValue()
	}
	return Value{kind: KindInteger, num: n, raw: s}
}

func coerceUint(s string) Value {
	if s == "" {
		return EmptyValue()
	}
	n, parsed := parseInteger(s)
	if !parsed {
		return EmptyValue()
	}
	if n.Sign() < 0 {
		n.SetInt64(0)
	}
	return Value{kind: KindInteger, num: n, raw: n.String()}
}

func coerceBool(s string) Value {
	switch strings.ToLower(s) {
	case "", constants.BoolNotSet:
		return EmptyValue()
	case "true", "1":
		return BoolValue(true)
	}
	return BoolValue(false)
}

func coerceText(s string) Value {
	if s == "" {
		return EmptyValue()
	}
	return TextValue(s)
}

// Normalize turns a JSON-decoded value into raw input form so native booleans, numbers
// and arrays go through the same rules as typed-in strings. nil becomes "".
func Normalize(v interface{}) (string, error) {
	switch x := v.(type) {
	case nil:
		return "", nil
	case string:
		return x, nil
	case bool:
		return strconv.FormatBool(x), nil
	case json.Number:
		return x.String(), nil
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64), nil
	case float32:
		return strconv.FormatFloat(float64(x), 'f', -1, 32), nil
	case int:
		return strconv.Itoa(x), nil
	case int64:
		return strconv.FormatInt(x, 10), nil
	case int32:
		return strconv.FormatInt(int64(x), 10), nil
	case uint64:
		return strconv.FormatUint(x, 10), nil
	case uint32:
		return strconv.FormatUint(uint64(x), 10), nil
	case *big.Int:
		if x == nil {
			return "", nil
		}
		return x.String(), nil
	case Value:
		return x.String(), nil
	case []string:
		for i, item := range x {
			if strings.Contains(item, constants.ArraySeparator) {
				return "", fmt.Errorf("item %d contains %q", i+1, constants.ArraySeparator)
			}
		}
		return strings.Join(x, constants.ArraySeparator), nil
	case []interface{}:
		parts := make([]string, len(x))
		for i, item := range x {
			if _, nested := item.([]interface{}); nested {
				return "", fmt.Errorf("nested arrays are not supported (item %d)", i+1)
			}
			s, err := Normalize(item)
			if err != nil {
				return "", err
			}
			if strings.Contains(s, constants.ArraySeparator) {
				return "", fmt.Errorf("item %d contains %q", i+1, constants.ArraySeparator)
			}
			parts[i] = s
		}
		return strings.Join(parts, constants.ArraySeparator), nil
	}
	return "", fmt.Errorf("unsupported value of type %T", v)
}
