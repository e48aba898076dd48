package response

import (
	"github.com/gin-gonic/gin"
)

// ErrorBody is the JSON shape of every error response.
type ErrorBody struct {
	Error     string            `json:"error"`
	RequestID string            `json:"request_id,omitempty"`
	Details   map[string]string `json:"details,omitempty"`
}

// Error writes an error body and aborts the chain.
func Error(ctx *gin.Context, status int, message string, details map[string]string) {
	ctx.AbortWithStatusJSON(status, ErrorBody{
		Error:     message,
		RequestID: ctx.GetString("request_id"),
		Details:   details,
	})
}

// OK writes data as JSON with the given status.
func OK(ctx *gin.Context, status int, data any) {
	ctx.JSON(status, data)
}

// Empty writes a status with no body.
func Empty(ctx *gin.Context, status int) {
	ctx.Status(status)
}
