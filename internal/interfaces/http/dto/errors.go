package dto

import (
	"errors"
	"net/http"

	"github.com/stockflow/backend/internal/domain/shared"
)

// Error code constants organized by category
// Format: ERR_<CATEGORY>_<DESCRIPTION>

// General error codes
const (
	ErrCodeUnknown  = "ERR_UNKNOWN"
	ErrCodeInternal = "ERR_INTERNAL"
)

// Validation error codes
const (
	ErrCodeValidation = "ERR_VALIDATION"
	ErrCodeBadRequest = "ERR_BAD_REQUEST"
)

// Authentication error codes
const (
	ErrCodeUnauthorized = "ERR_UNAUTHORIZED"
	ErrCodeForbidden    = "ERR_FORBIDDEN"
	ErrCodeTokenExpired = "ERR_TOKEN_EXPIRED"
	ErrCodeTokenInvalid = "ERR_TOKEN_INVALID"
)

// Resource and workflow error codes
const (
	ErrCodeNotFound          = "ERR_NOT_FOUND"
	ErrCodeInvalidTransition = "ERR_INVALID_TRANSITION"
	ErrCodeInvalidState      = "ERR_INVALID_STATE"
	ErrCodeInsufficientStock = "ERR_INSUFFICIENT_STOCK"
	ErrCodeNoOp              = "ERR_NO_OP"
)

// Limit error codes
const (
	ErrCodeRateLimited     = "ERR_RATE_LIMITED"
	ErrCodeRequestTooLarge = "ERR_REQUEST_TOO_LARGE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeUnknown:  http.StatusInternalServerError,
	ErrCodeInternal: http.StatusInternalServerError,

	ErrCodeValidation: http.StatusBadRequest,
	ErrCodeBadRequest: http.StatusBadRequest,

	ErrCodeUnauthorized: http.StatusUnauthorized,
	ErrCodeForbidden:    http.StatusForbidden,
	ErrCodeTokenExpired: http.StatusUnauthorized,
	ErrCodeTokenInvalid: http.StatusUnauthorized,

	ErrCodeNotFound:          http.StatusNotFound,
	ErrCodeInvalidTransition: http.StatusConflict,
	ErrCodeInvalidState:      http.StatusConflict,
	ErrCodeInsufficientStock: http.StatusUnprocessableEntity,
	ErrCodeNoOp:              http.StatusOK,

	ErrCodeRateLimited:     http.StatusTooManyRequests,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DomainErrorCode maps a domain error onto an API error code.
// Permission failures share the INVALID_TRANSITION kind but answer 403.
func DomainErrorCode(err *shared.DomainError) string {
	switch err.Kind {
	case shared.KindNotFound:
		return ErrCodeNotFound
	case shared.KindInvalidTransition:
		switch err.Code {
		case shared.ErrPermissionDenied.Code:
			return ErrCodeForbidden
		case "INVALID_STATE":
			return ErrCodeInvalidState
		}
		return ErrCodeInvalidTransition
	case shared.KindInsufficientStock:
		return ErrCodeInsufficientStock
	case shared.KindValidation:
		return ErrCodeValidation
	case shared.KindNoOp:
		return ErrCodeNoOp
	}
	return ErrCodeUnknown
}

// ClassifyError returns the API error code and HTTP status for err.
// Errors that are not domain errors are internal.
func ClassifyError(err error) (code string, status int, message string) {
	var domainErr *shared.DomainError
	if errors.As(err, &domainErr) {
		code = DomainErrorCode(domainErr)
		return code, GetHTTPStatus(code), domainErr.Message
	}
	return ErrCodeInternal, http.StatusInternalServerError, "An unexpected error occurred"
}
