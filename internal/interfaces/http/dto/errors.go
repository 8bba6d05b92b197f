package dto

import (
	"net/http"

	"github.com/invoicely/backend/internal/domain/shared"
)

// Domain error codes surface unchanged
const (
	ErrCodeValidation          = shared.CodeValidation
	ErrCodeNotFound            = shared.CodeNotFound
	ErrCodeConflict            = shared.CodeConflict
	ErrCodeConcurrencyConflict = shared.CodeConcurrencyConflict
	ErrCodeStorage             = shared.CodeStorage
)

// Transport error codes
const (
	ErrCodeBadRequest          = "BAD_REQUEST"
	ErrCodeUnauthorized        = "UNAUTHORIZED"
	ErrCodeTokenExpired        = "TOKEN_EXPIRED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeRateLimited         = "RATE_LIMITED"
	ErrCodeRequestTooLarge     = "REQUEST_TOO_LARGE"
	ErrCodeIdempotencyMismatch = "IDEMPOTENCY_KEY_REUSED"
	ErrCodeIdempotencyInFlight = "IDEMPOTENCY_KEY_IN_FLIGHT"
	ErrCodeInvalidSignature    = "INVALID_SIGNATURE"
	ErrCodeInternal            = "INTERNAL_ERROR"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeValidation:          http.StatusBadRequest,
	ErrCodeNotFound:            http.StatusNotFound,
	ErrCodeConflict:            http.StatusConflict,
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeStorage:             http.StatusInternalServerError,

	ErrCodeBadRequest:          http.StatusBadRequest,
	ErrCodeUnauthorized:        http.StatusUnauthorized,
	ErrCodeTokenExpired:        http.StatusUnauthorized,
	ErrCodeForbidden:           http.StatusForbidden,
	ErrCodeRateLimited:         http.StatusTooManyRequests,
	ErrCodeRequestTooLarge:     http.StatusRequestEntityTooLarge,
	ErrCodeIdempotencyMismatch: http.StatusUnprocessableEntity,
	ErrCodeIdempotencyInFlight: http.StatusConflict,
	ErrCodeInvalidSignature:    http.StatusUnauthorized,
	ErrCodeInternal:            http.StatusInternalServerError,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Unknown codes map to 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
