package dto

import (
	"net/http"

	"github.com/clinicrx/backend/internal/domain/shared"
)

// Error codes produced by the HTTP layer itself. Domain codes
// (NOT_FOUND, INSUFFICIENT_STOCK, ...) are passed through unchanged.
const (
	ErrCodeInternal        = "INTERNAL_ERROR"
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeInvalidJSON     = "INVALID_JSON"
	ErrCodeInvalidID       = "INVALID_ID"
	ErrCodeRouteNotFound   = "ROUTE_NOT_FOUND"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeDuplicate       = "DUPLICATE_REQUEST"
	ErrCodeUnavailable     = "SERVICE_UNAVAILABLE"
)

// ErrorCodeHTTPStatus maps error codes to HTTP status codes
var ErrorCodeHTTPStatus = map[string]int{
	ErrCodeInternal: http.StatusInternalServerError,

	// Validation errors -> 400 Bad Request
	shared.CodeValidationFailed:   http.StatusBadRequest,
	shared.CodeEmptyLines:         http.StatusBadRequest,
	shared.CodeInvalidQuantity:    http.StatusBadRequest,
	shared.CodeInvalidAmount:      http.StatusBadRequest,
	shared.CodeInvalidDiscount:    http.StatusBadRequest,
	shared.CodeAmbiguousTradeName: http.StatusBadRequest,
	shared.CodeUnknownItem:        http.StatusBadRequest,
	shared.CodeItemReferenced:     http.StatusBadRequest,
	shared.ErrInvalidInput.Code:   http.StatusBadRequest,

	// Resource errors
	shared.ErrNotFound.Code:            http.StatusNotFound,
	shared.ErrAlreadyExists.Code:       http.StatusConflict,
	shared.ErrConcurrencyConflict.Code: http.StatusConflict,

	// Business rule errors -> 422 Unprocessable Entity
	shared.ErrInvalidState.Code:      http.StatusUnprocessableEntity,
	shared.ErrInsufficientStock.Code: http.StatusUnprocessableEntity,
	shared.ErrInvalidPayment.Code:    http.StatusUnprocessableEntity,

	// Transport errors
	ErrCodeBadRequest:      http.StatusBadRequest,
	ErrCodeInvalidJSON:     http.StatusBadRequest,
	ErrCodeInvalidID:       http.StatusBadRequest,
	ErrCodeRouteNotFound:   http.StatusNotFound,
	ErrCodeRequestTooLarge: http.StatusRequestEntityTooLarge,
	ErrCodeDuplicate:       http.StatusConflict,
	ErrCodeUnavailable:     http.StatusServiceUnavailable,
}

// GetHTTPStatus returns the HTTP status code for an error code
// Returns 500 Internal Server Error if the error code is not found
func GetHTTPStatus(code string) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}
