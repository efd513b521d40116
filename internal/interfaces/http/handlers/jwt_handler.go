package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/vincent/internal/application/dto"
	"github.com/turtacn/vincent/internal/application/service"
	"github.com/turtacn/vincent/internal/interfaces/http/middleware"
	"github.com/turtacn/vincent/pkg/errors"
)

// JWTHandler handles HTTP requests for Vincent JWTs.
type JWTHandler struct {
	authService service.AuthAppService
}

// NewJWTHandler creates a new JWTHandler.
func NewJWTHandler(authService service.AuthAppService) *JWTHandler {
	return &JWTHandler{authService: authService}
}

// Verify checks a token for the requested (or configured) audience.
func (h *JWTHandler) Verify(c *gin.Context) {
	var req dto.VerifyJWTRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest("token is required").WithCause(err))
		return
	}

	result, err := h.authService.VerifyToken(c.Request.Context(), req.Token, req.Audience)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, dto.NewDecodedJWTDTO(result.DecodedJWT))
}

// Me returns the authenticated caller.
func (h *JWTHandler) Me(c *gin.Context) {
	result, ok := middleware.AuthResultFrom(c)
	if !ok {
		dto.SendError(c, errors.ErrInvalidJWT("no authenticated caller"))
		return
	}
	dto.SendSuccess(c, http.StatusOK, &dto.MeResponse{
		PKPAddress: result.PKPAddress,
		DecodedJWT: dto.NewDecodedJWTDTO(result.DecodedJWT),
	})
}

// ConsentURL builds the consent page address for ?appId=&redirectUri=.
func (h *JWTHandler) ConsentURL(c *gin.Context) {
	u, err := h.authService.ConsentURL(c.Query("appId"), c.Query("redirectUri"))
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, &dto.ConsentURLResponse{URL: u})
}
