package params

import (
	"fmt"
	"math/big"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/turtacn/vincent/pkg/constants"
)

type scalarKind uint8

const (
	scalarInt scalarKind = iota
	scalarUint
	scalarBool
	scalarAddress
	scalarString
	scalarBytes

	scalarCount
)

// Result is the outcome of Validate. Message is empty when Valid.
type Result struct {
	Valid   bool   `json:"valid"`
	Message string `json:"message,omitempty"`
}

var valid = Result{Valid: true}

type scalarRule struct {
	// accept is called with a trimmed, non-empty value
	accept func(s string) bool
	// coerce is called with a trimmed value (untrimmed for scalar strings)
	coerce func(s string) Value
	// message is reported for an invalid scalar
	message string
	// item is reported for an invalid array element
	item string
	// jsonType is the JSON Schema type used in tool schemas
	jsonType string
	// pattern optionally constrains string JSON values
	pattern string
}

// rules is indexed by scalarKind.
var rules = [...]scalarRule{
	{
		accept:   acceptInt,
		coerce:   coerceInt,
		message:  "Must be a valid integer or empty",
		item:     "must be a valid integer",
		jsonType: "number",
	},
	{
		accept:   acceptUint,
		coerce:   coerceUint,
		message:  "Must be a valid non-negative integer or empty",
		item:     "must be a valid non-negative integer",
		jsonType: "number",
	},
	{
		accept:   acceptBool,
		coerce:   coerceBool,
		message:  "Must be true, false or not set",
		item:     "must be true or false",
		jsonType: "boolean",
	},
	{
		accept:   acceptAddress,
		coerce:   coerceText,
		message:  "Must be a valid Ethereum address (0x followed by 40 hex characters) or empty",
		item:     "must be a valid Ethereum address",
		jsonType: "string",
		pattern:  `^(0x[a-fA-F0-9]{40}|0x\.\.\.)?$`,
	},
	{
		accept:   func(string) bool { return true },
		coerce:   coerceText,
		jsonType: "string",
	},
	{
		accept:   acceptBytes,
		coerce:   coerceText,
		message:  "Must be 0x-prefixed hex bytes or empty",
		item:     "must be 0x-prefixed hex bytes",
		jsonType: "string",
		pattern:  `^(0[xX]([a-fA-F0-9]{2})*)?$`,
	},
}

var _ = [1]struct{}{}[len(rules)-int(scalarCount)]

func parseInteger(s string) (*big.Int, bool) {
	return new(big.Int).SetString(s, 10)
}

func acceptInt(s string) bool {
	if s == "-" {
		return true
	}
	_, parsed := parseInteger(s)
	return parsed
}

func acceptUint(s string) bool {
	n, parsed := parseInteger(s)
	return parsed && n.Sign() >= 0
}

func acceptBool(s string) bool {
	switch strings.ToLower(s) {
	case "true", "false", "1", "0", constants.BoolNotSet:
		return true
	}
	return false
}

func acceptAddress(s string) bool {
	if s == constants.AddressPlaceholder {
		return true
	}
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

func acceptBytes(s string) bool {
	_, err := hexutil.Decode(s)
	return err == nil
}

// Validate checks raw against the rule for t. It never panics and never returns an error:
// failures are reported in the Result.
func Validate(t Type, raw string) Result {
	if !t.Valid() {
		return Result{Message: fmt.Sprintf("Unknown parameter type %s", t)}
	}
	rule := rules[t.scalar()]
	if !t.IsArray() {
		s := strings.TrimSpace(raw)
		if t.scalar() == scalarString || s == "" || rule.accept(s) {
			return valid
		}
		return Result{Message: rule.message}
	}

	if strings.TrimSpace(raw) == "" {
		return valid
	}
	for i, part := range strings.Split(raw, constants.ArraySeparator) {
		elem := strings.TrimSpace(part)
		if elem == "" {
			continue
		}
		if !rule.accept(elem) {
			return Result{Message: fmt.Sprintf("Item %d (%q) %s", i+1, elem, rule.item)}
		}
	}
	return valid
}

// JSONType returns the JSON Schema type of t's values ("array" for array variants).
func JSONType(t Type) string {
	if !t.Valid() {
		return ""
	}
	if t.IsArray() {
		return "array"
	}
	return rules[t.scalar()].jsonType
}

// ItemJSONType returns the JSON Schema type of t's scalar values.
func ItemJSONType(t Type) string {
	if !t.Valid() {
		return ""
	}
	return rules[t.scalar()].jsonType
}

// Pattern returns the regular expression string values of t's scalar type must match, if any.
func Pattern(t Type) string {
	if !t.Valid() {
		return ""
	}
	return rules[t.scalar()].pattern
}
