package dto

import (
	"github.com/gin-gonic/gin"

	"github.com/turtacn/vincent/pkg/errors"
)

// APIResponse 通用 API 响应结构
type APIResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	TraceID string      `json:"trace_id,omitempty"`
}

// SuccessResponse 创建成功响应
func SuccessResponse(data interface{}, traceID string) *APIResponse {
	return &APIResponse{Success: true, Data: data, TraceID: traceID}
}

// SendSuccess writes data in the success envelope.
func SendSuccess(c *gin.Context, status int, data interface{}) {
	c.JSON(status, SuccessResponse(data, c.GetString("trace_id")))
}

// SendError writes err as a public error body. Authentication failures always render as
// {"error":"not authenticated"} with 401.
func SendError(c *gin.Context, err error) {
	c.AbortWithStatusJSON(errors.StatusOf(err), errors.ToGenericErrorResponse(err))
}
