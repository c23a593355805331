package dto

import (
	apperrors "shopdash/internal/errors"
	"shopdash/internal/domain"
)

// ErrorResponse keeps the human-readable error message the dashboard has
// always read and adds a machine-readable code.
type ErrorResponse struct {
	Error   string                       `json:"error"`
	Code    apperrors.Code               `json:"code"`
	TraceID string                       `json:"traceId,omitempty"`
	Details []apperrors.ValidationDetail `json:"details,omitempty"`
}

type DeleteResponse struct {
	Message string `json:"message"`
}

// ProductListResponse is the list shape the dashboard expects from the gateway.
type ProductListResponse struct {
	Products []domain.Product `json:"products"`
}

// ProductEnvelope wraps a single product, as returned after create and update.
type ProductEnvelope struct {
	Product *domain.Product `json:"product"`
}
