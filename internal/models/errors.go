package models

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the uniform error envelope returned by every endpoint.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error,omitempty"`
}

// AppError is a domain error carrying a stable code and an HTTP status.
type AppError struct {
	Code    string
	Status  int
	Message string
	Err     error
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

// Predefined error constructors
func NewNotFoundError(resource string, id interface{}) *AppError {
	return &AppError{
		Code:    "NOT_FOUND",
		Status:  fiber.StatusNotFound,
		Message: fmt.Sprintf("%s with ID %v not found", resource, id),
	}
}

func NewValidationError(message string) *AppError {
	return &AppError{
		Code:    "VALIDATION_FAILED",
		Status:  fiber.StatusBadRequest,
		Message: message,
	}
}

func NewUnauthenticatedError(message string) *AppError {
	return &AppError{
		Code:    "UNAUTHENTICATED",
		Status:  fiber.StatusUnauthorized,
		Message: message,
	}
}

func NewForbiddenError(message string) *AppError {
	return &AppError{
		Code:    "FORBIDDEN",
		Status:  fiber.StatusForbidden,
		Message: message,
	}
}

// NewConflictError reports a state conflict (duplicate like, duplicate
// application, last-moderator leave). Served as 400 to match the API contract.
func NewConflictError(message string) *AppError {
	return &AppError{
		Code:    "CONFLICT",
		Status:  fiber.StatusBadRequest,
		Message: message,
	}
}

func NewInternalError(err error) *AppError {
	return &AppError{
		Code:    "INTERNAL_ERROR",
		Status:  fiber.StatusInternalServerError,
		Message: "Internal server error",
		Err:     err,
	}
}

// NewMisconfiguredError reports missing process-wide configuration (e.g. the
// token signing key). The underlying detail is never exposed to clients.
func NewMisconfiguredError(err error) *AppError {
	return &AppError{
		Code:    "SERVER_MISCONFIGURED",
		Status:  fiber.StatusInternalServerError,
		Message: "Server misconfigured",
		Err:     err,
	}
}

// RespondWithError writes the uniform error envelope for err. When err is an
// AppError its own status wins over the supplied fallback.
func RespondWithError(c *fiber.Ctx, status int, err error) error {
	resp := ErrorResponse{Success: false}

	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Status != 0 {
			status = appErr.Status
		}
		resp.Message = appErr.Message
		if appErr.Err != nil && appErr.Code != "SERVER_MISCONFIGURED" {
			resp.Error = appErr.Err.Error()
		}
	} else {
		resp.Message = err.Error()
	}

	return c.Status(status).JSON(resp)
}
