package params

import (
	"encoding/json"
	"math/big"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ints(raws ...string) []Value {
	out := make([]Value, len(raws))
	for i, r := range raws {
		if r == "" {
			out[i] = EmptyValue()
			continue
		}
		n, ok := new(big.Int).SetString(r, 10)
		if !ok {
			panic(r)
		}
		out[i] = IntegerValue(n, r)
	}
	return out
}

func TestCoerce(t *testing.T) {
	addr := "0x" + strings.Repeat("Ab", 20)

	tests := []struct {
		name string
		typ  Type
		raw  string
		want Value
	}{
		{"int passes text through", TypeInt256, "007", IntegerValue(big.NewInt(7), "007")},
		{"int trims", TypeInt256, " -12 ", IntegerValue(big.NewInt(-12), "-12")},
		{"int in progress", TypeInt256, "-", InProgressValue("-")},
		{"int malformed", TypeInt256, "abc", EmptyValue()},
		{"uint clamps negative", TypeUint256, "-5", IntegerValue(big.NewInt(0), "0")},
		{"uint", TypeUint256, "10", IntegerValue(big.NewInt(10), "10")},
		{"uint malformed", TypeUint256, "ten", EmptyValue()},
		{"bool not set", TypeBool, "not_set", EmptyValue()},
		{"bool true", TypeBool, "TRUE", BoolValue(true)},
		{"bool one", TypeBool, "1", BoolValue(true)},
		{"bool false", TypeBool, "false", BoolValue(false)},
		{"bool anything else", TypeBool, "maybe", BoolValue(false)},
		{"address trimmed, case kept", TypeAddress, "  " + addr + " ", TextValue(addr)},
		{"string untouched", TypeString, " hi there ", TextValue(" hi there ")},
		{"bytes", TypeBytes, "0xdead", TextValue("0xdead")},
		{"bool array prunes trailing", TypeBoolArray, "true,NO,1,", ArrayValue(BoolValue(true), BoolValue(false), BoolValue(true))},
		{"int array keeps interior empties", TypeInt256Array, "1,,2,,", ArrayValue(ints("1", "", "2")...)},
		{"int array in progress item", TypeInt256Array, "1,-", ArrayValue(IntegerValue(big.NewInt(1), "1"), InProgressValue("-"))},
		{"int array all empty", TypeInt256Array, " , ,", EmptyValue()},
		{"uint array clamps", TypeUint256Array, "3,-4", ArrayValue(ints("3", "0")...)},
		{"string array trims items", TypeStringArray, " a , b ,,", ArrayValue(TextValue("a"), TextValue("b"))},
		{"address array", TypeAddressArray, addr + ", " + addr, ArrayValue(TextValue(addr), TextValue(addr))},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Coerce(tt.typ, tt.raw)
			assert.True(t, tt.want.Equal(got), "want %v (%s), got %v (%s)", tt.want, tt.want.Kind(), got, got.Kind())
		})
	}
}

func TestCoerce_EmptyIsSentinelForEveryType(t *testing.T) {
	for _, typ := range Types() {
		got := Coerce(typ, "")
		assert.True(t, got.IsEmpty(), typ.String())
		assert.Equal(t, "", got.String())
		assert.Equal(t, "", got.Interface())
	}
}

func TestCoerce_IntegerArrayIsIdempotent(t *testing.T) {
	inputs := []string{
		"1,2,3",
		" 1 , -2 ,3 ",
		"007,,-1",
		"1,2,,,",
		"-,5",
		"115792089237316195423570985008687907853269984665640564039457584007913129639935,-1",
	}
	for _, typ := range []Type{TypeInt256Array, TypeUint256Array} {
		for _, in := range inputs {
			if !Validate(typ, in).Valid {
				continue
			}
			first := Coerce(typ, in)
			second := Coerce(typ, first.String())
			assert.True(t, first.Equal(second), "%s %q: %q vs %q", typ, in, first.String(), second.String())
		}
	}
}

func TestCoerce_UnknownType(t *testing.T) {
	assert.True(t, Coerce(Type(42), "1").IsEmpty())
}

func TestValue_JSON(t *testing.T) {
	data, err := json.Marshal(map[string]Value{
		"amount": Coerce(TypeInt256, "12345678901234567890123"),
		"flags":  Coerce(TypeBoolArray, "true,no"),
		"ids":    Coerce(TypeUint256Array, "1,,2"),
		"unset":  Coerce(TypeAddress, ""),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{
		"amount": "12345678901234567890123",
		"flags": [true, false],
		"ids": ["1", "", "2"],
		"unset": ""
	}`, string(data))
}

func TestValue_Accessors(t *testing.T) {
	v := Coerce(TypeInt256, "-9")
	assert.Equal(t, KindInteger, v.Kind())
	assert.Equal(t, int64(-9), v.BigInt().Int64())
	assert.Nil(t, Coerce(TypeBool, "true").BigInt())
	assert.True(t, Coerce(TypeBool, "1").Bool())
	assert.False(t, Coerce(TypeBool, "yes").Bool())
	assert.Len(t, Coerce(TypeStringArray, "a,b").Items(), 2)
	assert.Nil(t, Coerce(TypeString, "a").Items())

	// 修改副本不影响原值
	n := v.BigInt()
	n.SetInt64(100)
	assert.Equal(t, int64(-9), v.BigInt().Int64())
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		name string
		in   interface{}
		want string
	}{
		{"nil", nil, ""},
		{"string", "abc", "abc"},
		{"bool", true, "true"},
		{"float integer", float64(42), "42"},
		{"float large", float64(1e21), "1000000000000000000000"},
		{"json number", json.Number("-7"), "-7"},
		{"int64", int64(-3), "-3"},
		{"big", big.NewInt(99), "99"},
		{"slice", []interface{}{float64(1), "2", true}, "1,2,true"},
		{"strings", []string{"a", "b"}, "a,b"},
		{"value", Coerce(TypeBoolArray, "1,0"), "true,false"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Normalize(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	for name, in := range map[string]interface{}{
		"strings with separator": []string{"a,b", "c"},
		"slice with separator":   []interface{}{"c", "a,b"},
	} {
		_, err := Normalize(in)
		assert.ErrorContains(t, err, `contains ","`, name)
	}

	_, err := Normalize(map[string]interface{}{"a": 1})
	assert.Error(t, err)
	_, err = Normalize([]interface{}{[]interface{}{1}})
	assert.Error(t, err)
}
