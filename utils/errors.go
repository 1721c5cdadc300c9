package utils

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Error codes for service-level failures.
const (
	CodeValidation       = "validationError"
	CodeNotFound         = "notFound"
	CodeForbidden        = "forbidden"
	CodeConflict         = "conflict"
	CodeSlotUnavailable  = "slotUnavailable"
	CodeExternalProvider = "externalProviderError"
	CodeInternal         = "internalError"
)

// ServiceError is a typed failure returned by service operations so callers
// can distinguish a normal precondition miss from a genuine bug.
type ServiceError struct {
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func NewValidationError(format string, args ...interface{}) error {
	return &ServiceError{Code: CodeValidation, Message: fmt.Sprintf(format, args...)}
}

func NewNotFoundError(format string, args ...interface{}) error {
	return &ServiceError{Code: CodeNotFound, Message: fmt.Sprintf(format, args...)}
}

func NewForbiddenError(format string, args ...interface{}) error {
	return &ServiceError{Code: CodeForbidden, Message: fmt.Sprintf(format, args...)}
}

func NewConflictError(format string, args ...interface{}) error {
	return &ServiceError{Code: CodeConflict, Message: fmt.Sprintf(format, args...)}
}

func NewSlotUnavailableError(format string, args ...interface{}) error {
	return &ServiceError{Code: CodeSlotUnavailable, Message: fmt.Sprintf(format, args...)}
}

func NewExternalProviderError(format string, args ...interface{}) error {
	return &ServiceError{Code: CodeExternalProvider, Message: fmt.Sprintf(format, args...)}
}

func NewInternalError(format string, args ...interface{}) error {
	return &ServiceError{Code: CodeInternal, Message: fmt.Sprintf(format, args...)}
}

// IsCode reports whether err carries the given service error code.
func IsCode(err error, code string) bool {
	var se *ServiceError
	if errors.As(err, &se) {
		return se.Code == code
	}
	return false
}

func IsNotFound(err error) bool        { return IsCode(err, CodeNotFound) }
func IsConflict(err error) bool        { return IsCode(err, CodeConflict) || IsCode(err, CodeSlotUnavailable) }
func IsSlotUnavailable(err error) bool { return IsCode(err, CodeSlotUnavailable) }

// HTTPStatus maps a service error to its HTTP status code.
func HTTPStatus(err error) int {
	var se *ServiceError
	if !errors.As(err, &se) {
		return http.StatusInternalServerError
	}
	switch se.Code {
	case CodeValidation:
		return http.StatusBadRequest
	case CodeNotFound:
		return http.StatusNotFound
	case CodeForbidden:
		return http.StatusForbidden
	case CodeConflict, CodeSlotUnavailable:
		return http.StatusConflict
	case CodeExternalProvider:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// ErrorResponse defines the structure of error responses
type ErrorResponse struct {
	Message string `json:"message"`
	Code    string `json:"code,omitempty"`
}

// ErrorHandler is a middleware to catch panics and return structured errors
func ErrorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				GetLogger().Error("Unhandled panic", zap.Any("error", err))
				c.JSON(http.StatusInternalServerError, ErrorResponse{
					Message: "An unexpected error occurred. Please try again later.",
					Code:    CodeInternal,
				})
				c.Abort()
			}
		}()
		c.Next()
	}
}

// RespondError writes a service error as a JSON response with its mapped
// status, hiding internals behind a generic message for unexpected errors.
func RespondError(c *gin.Context, err error) {
	var se *ServiceError
	if !errors.As(err, &se) {
		GetLogger().Error("unexpected error", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "An unexpected error occurred. Please try again later.",
			Code:    CodeInternal,
		})
		return
	}
	if se.Code == CodeInternal {
		GetLogger().Error("internal error", zap.Error(err), zap.String("path", c.FullPath()))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Message: "An unexpected error occurred. Please try again later.",
			Code:    CodeInternal,
		})
		return
	}
	c.JSON(HTTPStatus(se), ErrorResponse{Message: se.Message, Code: se.Code})
}

// JSONError sends a standardized JSON error response
func JSONError(c *gin.Context, status int, message string, code string) {
	GetLogger().Warn(message, zap.String("code", code))
	c.JSON(status, ErrorResponse{Message: message, Code: code})
}
