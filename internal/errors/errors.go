package errors

import (
	"net/http"
	"os"

	"github.com/gin-gonic/gin"

	"codeberg.org/taleloom/server/internal/logger"
)

// Error Handling Guidelines:
//
// For HTTP REST handlers:
//   - Use errors.InternalError(), errors.BadRequest(), etc. for critical errors
//     These functions handle both logging and HTTP response automatically
//   - Use logger.ErrorErr() only for non-critical errors where processing continues
//
// For WebSocket handlers:
//   - Use client.SendError() for protocol-level problems the client can act on
//   - Return a wrapped error only for genuine server failures
//
// For internal packages:
//   - Return wrapped errors with context using fmt.Errorf("context: %w", err)
//   - Let the caller (handler) decide how to log and respond

// standard error codes
const (
	CodeUnauthorized    = "unauthorized"
	CodeForbidden       = "forbidden"
	CodeNotFound        = "not_found"
	CodeValidationError = "validation_error"
	CodeServerError     = "server_error"
	CodeBadRequest      = "bad_request"
	CodeTooManyRequests = "too_many_requests"
)

// returns a 400 bad request error
func BadRequest(c *gin.Context, message string, err error) {
	if err != nil {
		logger.ErrorErr(err, "bad request", "path", c.Request.URL.Path)
	}

	c.JSON(http.StatusBadRequest, ErrorResponse{
		Error:   CodeBadRequest,
		Message: message,
		Details: SanitizeDetails(err),
	})
}

// returns a 404 not found error
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = "resource not found"
	}

	c.JSON(http.StatusNotFound, ErrorResponse{
		Error:   CodeNotFound,
		Message: message,
	})
}

// returns a 429 too many requests error
func TooManyRequests(c *gin.Context, message string) {
	if message == "" {
		message = "rate limit exceeded"
	}

	c.JSON(http.StatusTooManyRequests, ErrorResponse{
		Error:   CodeTooManyRequests,
		Message: message,
	})
}

// returns a 500 internal server error
func InternalError(c *gin.Context, message string, err error) {
	if err != nil {
		logger.ErrorErr(err, "internal error", "path", c.Request.URL.Path)
	}

	c.JSON(http.StatusInternalServerError, ErrorResponse{
		Error:   CodeServerError,
		Message: message,
		Details: SanitizeDetails(err),
	})
}

// returns error details suitable for the client; raw error strings are
// only exposed outside production
func SanitizeDetails(err error) string {
	if err == nil {
		return ""
	}

	if os.Getenv("ENVIRONMENT") == "production" {
		return ""
	}

	return err.Error()
}
