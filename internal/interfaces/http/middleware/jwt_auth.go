package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/vincent/internal/application/dto"
	"github.com/turtacn/vincent/internal/application/service"
	"github.com/turtacn/vincent/internal/domain/models"
	"github.com/turtacn/vincent/pkg/constants"
	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/logger"
)

// ExtractBearer extracts the token from an Authorization header value.
func ExtractBearer(authHeader string) (string, bool) {
	parts := strings.Fields(authHeader)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return "", false
	}
	return parts[1], true
}

// RequireVincentJWT protects routes with a Vincent JWT issued for the service's audience.
// Every failure renders the same 401 {"error":"not authenticated"} body.
func RequireVincentJWT(auth service.AuthAppService, log logger.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := ExtractBearer(c.GetHeader("Authorization"))
		if !ok {
			log.Debug(c.Request.Context(), "Missing or malformed bearer token", logger.String("path", c.FullPath()))
			dto.SendError(c, errors.ErrInvalidJWT("missing bearer token"))
			return
		}

		result, err := auth.VerifyToken(c.Request.Context(), token, "")
		if err != nil {
			if !errors.IsAuthenticationError(err) {
				log.Error(c.Request.Context(), "JWT verification failed unexpectedly", err)
			}
			dto.SendError(c, err)
			return
		}

		c.Set(constants.GinKeyAuth, result)
		c.Request = c.Request.WithContext(models.ContextWithAuth(c.Request.Context(), result))
		c.Next()
	}
}

// AuthResultFrom returns the result attached by RequireVincentJWT.
func AuthResultFrom(c *gin.Context) (*models.AuthResult, bool) {
	v, exists := c.Get(constants.GinKeyAuth)
	if !exists {
		return nil, false
	}
	res, ok := v.(*models.AuthResult)
	return res, ok
}
