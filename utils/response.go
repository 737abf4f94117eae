package utils

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// ErrorResponse is the body of every failed API call.
type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// SuccessResponse acknowledges a mutation.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Token   string `json:"token,omitempty"`
}

// Success writes {"success": true} with the given status code.
func Success(ctx *gin.Context, status int) {
	ctx.JSON(status, SuccessResponse{Success: true})
}

// Error writes an error body without diagnostic detail.
func Error(ctx *gin.Context, status int, message string) {
	ctx.JSON(status, ErrorResponse{Error: message})
}

// ErrorWithDetails writes a generic message plus the underlying error text.
func ErrorWithDetails(ctx *gin.Context, status int, message string, err error) {
	body := ErrorResponse{Error: message}
	if err != nil {
		body.Details = err.Error()
	}
	ctx.JSON(status, body)
}

// NotFound is the shared 404 body.
func NotFound(ctx *gin.Context, message string) {
	Error(ctx, http.StatusNotFound, message)
}
