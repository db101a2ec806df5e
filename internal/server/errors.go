package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vendaria/trustcore/internal/guard"
	"gorm.io/gorm"
)

type errorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrUnauthorized   = errors.New("unauthorized")
	ErrInvalidRequest = errors.New("invalid_request")
)

// ErrorHandlingMiddleware maps domain errors onto the callable error
// envelope. Only the guard code and its redacted message cross the wire.
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func mapError(err error) (int, errorPayload) {
	var callableErr *guard.Error
	if errors.As(err, &callableErr) {
		return callableStatus(callableErr.Code), errorPayload{
			Code:    string(callableErr.Code),
			Message: callableErr.Message,
		}
	}

	switch {
	case errors.Is(err, ErrUnauthorized):
		return http.StatusUnauthorized, errorPayload{
			Code:    string(guard.CodeUnauthenticated),
			Message: "You must be signed in to perform this action.",
		}
	case errors.Is(err, ErrInvalidRequest):
		return http.StatusBadRequest, errorPayload{
			Code:    string(guard.CodeInvalidArgument),
			Message: "Invalid request payload.",
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return http.StatusNotFound, errorPayload{
			Code:    string(guard.CodeNotFound),
			Message: "The requested resource was not found.",
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Code:    "internal",
		Message: "Something went wrong. Please try again.",
	}
}

func callableStatus(code guard.Code) int {
	switch code {
	case guard.CodeUnauthenticated:
		return http.StatusUnauthorized
	case guard.CodePermissionDenied:
		return http.StatusForbidden
	case guard.CodeInvalidArgument:
		return http.StatusBadRequest
	case guard.CodeNotFound:
		return http.StatusNotFound
	case guard.CodeFailedPrecondition:
		return http.StatusPreconditionFailed
	default:
		return http.StatusInternalServerError
	}
}
