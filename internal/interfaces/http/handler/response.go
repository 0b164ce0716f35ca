package handler

import "github.com/venpus/mjshop-sub003/internal/interfaces/http/dto"

// Envelope types referenced by the swag annotations on the handlers. They mirror dto.Response
// with a concrete data type so generated clients get typed payloads.

// APIResponse is a successful envelope carrying T
type APIResponse[T any] struct {
	Success bool      `json:"success" example:"true"`
	Data    T         `json:"data,omitempty"`
	Meta    *dto.Meta `json:"meta,omitempty"`
}

// ErrorResponse is a failed envelope. error.retryable is set for lock failures and
// QUANTITY_EXCEEDED carries error.details.available_quantity.
type ErrorResponse struct {
	Success bool           `json:"success" example:"false"`
	Error   *dto.ErrorInfo `json:"error"`
}
