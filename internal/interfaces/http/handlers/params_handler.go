package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/turtacn/vincent/internal/application/dto"
	"github.com/turtacn/vincent/internal/application/service"
	"github.com/turtacn/vincent/pkg/errors"
	"github.com/turtacn/vincent/pkg/utils"
)

// ParamsHandler exposes the parameter engine over HTTP.
type ParamsHandler struct {
	paramsService service.ParamsAppService
}

// NewParamsHandler creates a new ParamsHandler.
func NewParamsHandler(paramsService service.ParamsAppService) *ParamsHandler {
	return &ParamsHandler{paramsService: paramsService}
}

// bindParams decodes numbers as json.Number so large integers keep every digit.
func bindParams(c *gin.Context) (*dto.ParamsRequest, bool) {
	var req dto.ParamsRequest
	dec := json.NewDecoder(c.Request.Body)
	dec.UseNumber()
	if err := dec.Decode(&req); err != nil {
		dto.SendError(c, errors.ErrInvalidRequest("request body must be a JSON object").WithCause(err))
		return nil, false
	}
	if err := utils.ValidateStruct(&req); err != nil {
		dto.SendError(c, err)
		return nil, false
	}
	return &req, true
}

func (h *ParamsHandler) run(c *gin.Context, fn func(context.Context, *dto.ParamsRequest) (*dto.ParamsResponse, error)) {
	req, ok := bindParams(c)
	if !ok {
		return
	}
	resp, err := fn(c.Request.Context(), req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, resp)
}

// Validate reports per-field validation results. Invalid values are a 200 with valid=false.
func (h *ParamsHandler) Validate(c *gin.Context) { h.run(c, h.paramsService.Validate) }

// Coerce validates and returns the coerced values.
func (h *ParamsHandler) Coerce(c *gin.Context) { h.run(c, h.paramsService.Coerce) }

// Schema describes the definitions.
func (h *ParamsHandler) Schema(c *gin.Context) {
	req, ok := bindParams(c)
	if !ok {
		return
	}
	resp, err := h.paramsService.Schema(c.Request.Context(), req)
	if err != nil {
		dto.SendError(c, err)
		return
	}
	dto.SendSuccess(c, http.StatusOK, resp)
}
