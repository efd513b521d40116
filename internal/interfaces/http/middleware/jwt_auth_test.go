package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/turtacn/vincent/internal/application/service/mocks"
	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/pkg/constants"
	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/logger"
)

const testPKP = "0x9858EfFD232B4033E47d90003D41EC34EcaEda94"

func authResult() *models.AuthResult {
	return &models.AuthResult{
		DecodedJWT: &models.VincentJWT{Payload: map[string]interface{}{"pkpAddress": testPKP}},
		PKPAddress: testPKP,
		RawJWT:     "good-token",
	}
}

func TestExtractBearer(t *testing.T) {
	tests := []struct {
		header string
		token  string
		ok     bool
	}{
		{"Bearer abc.def.ghi", "abc.def.ghi", true},
		{"bearer abc", "abc", true},
		{"Bearer", "", false},
		{"Basic abc", "", false},
		{"Bearer a b", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			token, ok := ExtractBearer(tt.header)
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.token, token)
		})
	}
}

func TestRequireVincentJWT(t *testing.T) {
	gin.SetMode(gin.TestMode)

	authSvc := new(mocks.MockAuthAppService)
	authSvc.On("VerifyToken", mock.Anything, "good-token", "").Return(authResult(), nil)
	authSvc.On("VerifyToken", mock.Anything, "expired-token", "").Return(nil, errors.ErrInvalidJWT(constants.ReasonExpired))
	authSvc.On("VerifyToken", mock.Anything, "forged-token", "").Return(nil, errors.ErrInvalidSignature("signature does not match pkpPublicKey"))

	router := gin.New()
	router.Use(RequireVincentJWT(authSvc, logger.NewNoopLogger()))
	router.GET("/me", func(c *gin.Context) {
		res, ok := AuthResultFrom(c)
		assert.True(t, ok)
		fromCtx, ok := models.AuthFromContext(c.Request.Context())
		assert.True(t, ok)
		assert.Same(t, res, fromCtx)
		c.String(http.StatusOK, res.PKPAddress)
	})

	t.Run("valid token reaches the handler", func(t *testing.T) {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/me", nil)
		req.Header.Set("Authorization", "Bearer good-token")
		router.ServeHTTP(w, req)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.Equal(t, testPKP, w.Body.String())
	})

	for name, header := range map[string]string{
		"missing header": "",
		"wrong scheme":   "Basic good-token",
		"expired token":  "Bearer expired-token",
		"forged token":   "Bearer forged-token",
	} {
		t.Run(name+" is a generic 401", func(t *testing.T) {
			w := httptest.NewRecorder()
			req, _ := http.NewRequest(http.MethodGet, "/me", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
			assert.JSONEq(t, `{"error":"not authenticated"}`, w.Body.String())
		})
	}
}
