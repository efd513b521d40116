package params

import (
	"regexp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	addr := "0x" + strings.Repeat("ab", 20)

	tests := []struct {
		name  string
		typ   Type
		raw   string
		valid bool
	}{
		{"int positive", TypeInt256, "42", true},
		{"int negative", TypeInt256, "-42", true},
		{"int in progress", TypeInt256, "-", true},
		{"int huge", TypeInt256, "115792089237316195423570985008687907853269984665640564039457584007913129639935", true},
		{"int leading zeros", TypeInt256, "007", true},
		{"int decimal", TypeInt256, "1.5", false},
		{"int letters", TypeInt256, "12abc", false},
		{"uint zero", TypeUint256, "0", true},
		{"uint negative", TypeUint256, "-5", false},
		{"uint dash", TypeUint256, "-", false},
		{"bool true", TypeBool, "true", true},
		{"bool upper", TypeBool, "FALSE", true},
		{"bool not set", TypeBool, "not_set", true},
		{"bool one", TypeBool, "1", true},
		{"bool zero", TypeBool, "0", true},
		{"bool yes", TypeBool, "Yes", false},
		{"bool no", TypeBool, "no", false},
		{"bool garbage", TypeBool, "maybe", false},
		{"address full", TypeAddress, addr, true},
		{"address mixed case", TypeAddress, "0xAbCdEf0123456789abcdef0123456789ABCDEF01", true},
		{"address placeholder", TypeAddress, "0x...", true},
		{"address short", TypeAddress, "0xAbC123", false},
		{"address no prefix", TypeAddress, strings.Repeat("ab", 20), false},
		{"address upper prefix", TypeAddress, "0X" + strings.Repeat("ab", 20), false},
		{"string anything", TypeString, " anything, really ", true},
		{"bytes", TypeBytes, "0xdeadbeef", true},
		{"bytes empty payload", TypeBytes, "0x", true},
		{"bytes odd", TypeBytes, "0xabc", false},
		{"bytes no prefix", TypeBytes, "deadbeef", false},
		{"int array", TypeInt256Array, "1, -2, 3", true},
		{"int array trailing comma", TypeInt256Array, "1,2,", true},
		{"int array interior empty", TypeInt256Array, "1,,2", true},
		{"int array bad item", TypeInt256Array, "1,x,3", false},
		{"uint array negative item", TypeUint256Array, "1,-1", false},
		{"bool array", TypeBoolArray, "true,FALSE,1,0,", true},
		{"bool array yes no", TypeBoolArray, "true,NO", false},
		{"address array", TypeAddressArray, addr + " , " + addr, true},
		{"address array bad", TypeAddressArray, addr + ",0x12", false},
		{"string array", TypeStringArray, "a,b,,c", true},
		{"bytes array", TypeBytesArray, "0x01,0x0203", true},
		{"bytes array bad", TypeBytesArray, "0x01,zz", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := Validate(tt.typ, tt.raw)
			assert.Equal(t, tt.valid, res.Valid, res.Message)
			if tt.valid {
				assert.Empty(t, res.Message)
			} else {
				assert.NotEmpty(t, res.Message)
			}
		})
	}
}

func TestValidate_EmptyIsValidForEveryType(t *testing.T) {
	for _, typ := range Types() {
		assert.True(t, Validate(typ, "").Valid, typ.String())
		assert.True(t, Validate(typ, "   ").Valid, typ.String())
	}
}

func TestValidate_Messages(t *testing.T) {
	assert.Equal(t, "Must be a valid integer or empty", Validate(TypeInt256, "abc").Message)
	assert.Equal(t, "Must be a valid non-negative integer or empty", Validate(TypeUint256, "-5").Message)

	res := Validate(TypeInt256Array, "1, 2, oops")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Message, "Item 3")
	assert.Contains(t, res.Message, `"oops"`)
}

func TestValidate_UnknownType(t *testing.T) {
	res := Validate(Type(200), "1")
	assert.False(t, res.Valid)
	assert.Contains(t, res.Message, "Unknown parameter type")
}

func TestSchemaHelpers(t *testing.T) {
	assert.Equal(t, "number", JSONType(TypeUint256))
	assert.Equal(t, "array", JSONType(TypeBoolArray))
	assert.Equal(t, "boolean", ItemJSONType(TypeBoolArray))
	assert.Equal(t, `^(0x[a-fA-F0-9]{40}|0x\.\.\.)?$`, Pattern(TypeAddressArray))
	assert.Empty(t, Pattern(TypeString))
	assert.Empty(t, JSONType(Type(99)))
}

func TestPattern_MatchesAcceptedValues(t *testing.T) {
	addr := "0x" + strings.Repeat("Ab", 20)

	tests := []struct {
		typ Type
		raw string
	}{
		{TypeAddress, ""},
		{TypeAddress, "0x..."},
		{TypeAddress, addr},
		{TypeAddress, "0x12"},
		{TypeAddress, "0x.."},
		{TypeBytes, ""},
		{TypeBytes, "0x"},
		{TypeBytes, "0xdeadbeef"},
		{TypeBytes, "0XDEADBEEF"},
		{TypeBytes, "0xabc"},
		{TypeBytes, "deadbeef"},
	}
	for _, tt := range tests {
		t.Run(tt.typ.String()+"/"+tt.raw, func(t *testing.T) {
			re := regexp.MustCompile(Pattern(tt.typ))
			assert.Equal(t, Validate(tt.typ, tt.raw).Valid, re.MatchString(tt.raw))
		})
	}
}
