package dto

import (
	"net/http"
	"strings"
)

// Transport-level error codes. Domain failures keep the code of their domain error.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
)

// Domain error codes with a fixed HTTP status
const (
	ErrCodeNotFound            = "NOT_FOUND"
	ErrCodeAlreadyExists       = "ALREADY_EXISTS"
	ErrCodeInvalidInput        = "INVALID_INPUT"
	ErrCodeInvalidState        = "INVALID_STATE"
	ErrCodeQuantityExceeded    = "QUANTITY_EXCEEDED"
	ErrCodeOrderedBelowShipped = "ORDERED_BELOW_SHIPPED"
	ErrCodeSyntheticShipment   = "SYNTHETIC_SHIPMENT"
	ErrCodeConcurrencyConflict = "CONCURRENCY_CONFLICT"
	ErrCodeLockTimeout         = "LOCK_TIMEOUT"
	ErrCodeDeadlock            = "DEADLOCK"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal:        http.StatusInternalServerError,
	ErrCodeValidation:      http.StatusBadRequest,
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeRouteNotFound:   http.StatusNotFound,

	ErrCodeNotFound:      http.StatusNotFound,
	ErrCodeAlreadyExists: http.StatusConflict,
	ErrCodeInvalidInput:  http.StatusBadRequest,

	// Business rule violations -> 422 Unprocessable Entity
	ErrCodeInvalidState:        http.StatusUnprocessableEntity,
	ErrCodeQuantityExceeded:    http.StatusUnprocessableEntity,
	ErrCodeOrderedBelowShipped: http.StatusUnprocessableEntity,
	ErrCodeSyntheticShipment:   http.StatusUnprocessableEntity,

	// Lost a race for a purchase order row; safe to resend
	ErrCodeConcurrencyConflict: http.StatusConflict,
	ErrCodeLockTimeout:         http.StatusConflict,
	ErrCodeDeadlock:            http.StatusConflict,
}

var retryableCodes = map[string]bool{
	ErrCodeConcurrencyConflict: true,
	ErrCodeLockTimeout:         true,
	ErrCodeDeadlock:            true,
}

// GetHTTPStatus returns the HTTP status code for an error code.
// Field validation codes (INVALID_*) map to 400; anything else unknown is a 500.
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	if strings.HasPrefix(code, "INVALID_") {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// IsRetryable reports whether a request that failed with code may be resent unchanged
func IsRetryable(code string) bool {
	return retryableCodes[code]
}
