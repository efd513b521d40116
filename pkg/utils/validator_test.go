package utils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/vincent/pkg/constants"
	"github.com/turtacn/vincent/pkg/errors"
)

type sample struct {
	PKPAddress string `validate:"required,ethaddr"`
	ParamType  string `validate:"omitempty,paramtype"`
	Minutes    int    `validate:"min=1"`
}

func TestValidateStruct(t *testing.T) {
	good := sample{PKPAddress: "0x" + strings.Repeat("ab", 20), ParamType: "number_array", Minutes: 5}
	assert.Nil(t, ValidateStruct(good))

	err := ValidateStruct(sample{PKPAddress: "0x12", ParamType: "float", Minutes: 0})
	require.NotNil(t, err)
	assert.True(t, errors.IsKind(err, constants.ErrCodeInvalidRequest))
	assert.Contains(t, err.Error(), "pkp_address must be a 0x-prefixed Ethereum address")
	assert.Contains(t, err.Error(), "param_type must be a known parameter type")
	assert.Contains(t, err.Error(), "minutes must be at least 1")

	fields, ok := err.Metadata()["fields"].(map[string]interface{})
	require.True(t, ok)
	assert.Len(t, fields, 3)
}

func TestToSnakeCase(t *testing.T) {
	assert.Equal(t, "pkp_address", toSnakeCase("PKPAddress"))
	assert.Equal(t, "expires_in_minutes", toSnakeCase("ExpiresInMinutes"))
	assert.Equal(t, "id", toSnakeCase("ID"))
}
