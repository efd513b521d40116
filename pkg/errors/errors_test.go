package errors

import (
	stderrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/turtacn/vincent/pkg/constants"
)

func TestKindMessages(t *testing.T) {
	tests := []struct {
		name   string
		err    VincentError
		code   constants.ErrorCode
		status int
		msg    string
	}{
		{"expired", ErrInvalidJWT(constants.ReasonExpired), constants.ErrCodeInvalidJWT, http.StatusUnauthorized, "INVALID_JWT: expired"},
		{"no reason", ErrInvalidJWT(""), constants.ErrCodeInvalidJWT, http.StatusUnauthorized, "INVALID_JWT"},
		{"audience", ErrInvalidAudience("app-1"), constants.ErrCodeInvalidAudience, http.StatusUnauthorized, `INVALID_AUDIENCE: token not issued for "app-1"`},
		{"signature", ErrInvalidSignature("bad"), constants.ErrCodeInvalidSignature, http.StatusUnauthorized, "INVALID_SIGNATURE: bad"},
		{"request", ErrInvalidRequest("missing"), constants.ErrCodeInvalidRequest, http.StatusBadRequest, "missing"},
		{"param", ErrParameterValidation("amount", "Must be a valid integer or empty"), constants.ErrCodeParameterValidation, http.StatusUnprocessableEntity, "amount: Must be a valid integer or empty"},
		{"rate", ErrRateLimitExceeded("pkp", 5), constants.ErrCodeRateLimitExceeded, http.StatusTooManyRequests, "Rate limit exceeded for scope 'pkp': 5 requests"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.code, tt.err.Code())
			assert.Equal(t, tt.status, tt.err.HTTPStatus())
			assert.Equal(t, tt.msg, tt.err.Error())
			assert.NotEmpty(t, tt.err.Description())
		})
	}
}

func TestSignerFailureWrapsCause(t *testing.T) {
	cause := fmt.Errorf("wallet locked")
	err := ErrSignerFailure(cause)

	assert.Equal(t, "delegated signer failed: wallet locked", err.Error())
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, http.StatusBadGateway, err.HTTPStatus())
}

func TestIsMatchesKind(t *testing.T) {
	wrapped := fmt.Errorf("verify: %w", ErrInvalidJWT(constants.ReasonExpired))

	assert.True(t, stderrors.Is(wrapped, ErrInvalidJWT("")))
	assert.False(t, stderrors.Is(wrapped, ErrInvalidSignature("")))
	assert.True(t, IsKind(wrapped, constants.ErrCodeInvalidJWT))
	assert.True(t, IsAuthenticationError(wrapped))
	assert.False(t, IsAuthenticationError(ErrInvalidRequest("x")))
	assert.False(t, IsAuthenticationError(fmt.Errorf("plain")))
	assert.True(t, IsRateLimitError(ErrRateLimitExceeded("pkp", 1)))
}

func TestAsVincentError(t *testing.T) {
	ve, ok := AsVincentError(fmt.Errorf("outer: %w", ErrServerError("boom")))
	require.True(t, ok)
	assert.Equal(t, constants.ErrCodeServerError, ve.Code())

	_, ok = AsVincentError(fmt.Errorf("plain"))
	assert.False(t, ok)
}

func TestShouldLogError(t *testing.T) {
	assert.True(t, ShouldLogError(ErrServerError("x")))
	assert.True(t, ShouldLogError(ErrRateLimitExceeded("pkp", 1)))
	assert.True(t, ShouldLogError(fmt.Errorf("unknown")))
	assert.False(t, ShouldLogError(ErrInvalidJWT(constants.ReasonExpired)))
	assert.False(t, ShouldLogError(ErrInvalidRequest("x")))
}

func TestErrorResponses(t *testing.T) {
	t.Run("authentication failures are generic", func(t *testing.T) {
		for _, err := range []VincentError{
			ErrInvalidJWT(constants.ReasonExpired),
			ErrInvalidAudience("app"),
			ErrInvalidSignature("mismatch"),
		} {
			resp := ToErrorResponse(err)
			assert.Equal(t, "not authenticated", resp.Error)
			assert.Empty(t, resp.ErrorDescription)
			assert.Nil(t, resp.Metadata)
		}
	})

	t.Run("other kinds carry details", func(t *testing.T) {
		resp := ToErrorResponse(ErrParameterValidation("to", "bad"))
		assert.Equal(t, string(constants.ErrCodeParameterValidation), resp.Error)
		assert.Equal(t, "to: bad", resp.ErrorDescription)
		assert.Equal(t, "to", resp.Metadata["field"])
	})

	t.Run("foreign errors hide their text", func(t *testing.T) {
		resp := ToGenericErrorResponse(fmt.Errorf("db password is hunter2"))
		assert.Equal(t, string(constants.ErrCodeServerError), resp.Error)
		assert.NotContains(t, resp.ErrorDescription, "hunter2")
	})

	assert.Equal(t, http.StatusUnauthorized, StatusOf(ErrInvalidJWT("")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(fmt.Errorf("x")))
}
