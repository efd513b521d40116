// Package utils provides struct validation for DTOs and configuration.
package utils

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-playground/validator/v10"

	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/params"
)

// defaultValidator holds the singleton instance of the validator.
var defaultValidator *validator.Validate

func init() {
	defaultValidator = validator.New()
	// Register custom validation functions
	_ = defaultValidator.RegisterValidation("ethaddr", validateEthAddress)
	_ = defaultValidator.RegisterValidation("paramtype", validateParamType)
}

// ValidateStruct validates a struct using the default validator.
// It returns an invalid_request error whose metadata maps snake_case field names to messages.
func ValidateStruct(s interface{}) errors.VincentError {
	err := defaultValidator.Struct(s)
	if err == nil {
		return nil
	}
	validationErrors, ok := err.(validator.ValidationErrors)
	if !ok {
		return errors.ErrInvalidRequest(err.Error())
	}
	msgs := make([]string, 0, len(validationErrors))
	out := errors.ErrInvalidRequest("validation failed")
	for _, fe := range validationErrors {
		field := toSnakeCase(fe.Field())
		msg := formatValidationError(fe)
		out.WithMetadata(field, msg)
		msgs = append(msgs, field+" "+msg)
	}
	return errors.ErrInvalidRequest(strings.Join(msgs, "; ")).WithCause(err).
		WithMetadata("fields", out.Metadata())
}

// ValidateVar validates a single value against a tag expression.
func ValidateVar(v interface{}, tag string) error {
	return defaultValidator.Var(v, tag)
}

// validateEthAddress accepts 0x followed by 40 hex characters.
func validateEthAddress(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	return strings.HasPrefix(s, "0x") && common.IsHexAddress(s)
}

func validateParamType(fl validator.FieldLevel) bool {
	_, err := params.ParseType(fl.Field().String())
	return err == nil
}

// formatValidationError creates a user-friendly error message for a validation error.
func formatValidationError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "ethaddr":
		return "must be a 0x-prefixed Ethereum address"
	case "paramtype":
		return "must be a known parameter type"
	case "url":
		return "must be a valid URL"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "min", "gte":
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max", "lte":
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed on the '%s' tag", fe.Tag())
	}
}

var (
	matchFirstCap = regexp.MustCompile("(.)([A-Z][a-z]+)")
	matchAllCap   = regexp.MustCompile("([a-z0-9])([A-Z])")
)

// toSnakeCase converts a string from CamelCase to snake_case.
// This is used to format field names in the validation error response.
func toSnakeCase(str string) string {
	snake := matchFirstCap.ReplaceAllString(str, "${1}_${2}")
	snake = matchAllCap.ReplaceAllString(snake, "${1}_${2}")
	return strings.ToLower(snake)
}
