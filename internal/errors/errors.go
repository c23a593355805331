package errors

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

// Code classifies an error for API responses and logs.
type Code string

const (
	CodeValidation         Code = "VALIDATION_ERROR"
	CodeUpstream           Code = "UPSTREAM_ERROR"
	CodePartialBulkFailure Code = "PARTIAL_BULK_FAILURE"
	CodeInternal           Code = "INTERNAL_ERROR"
)

type ValidationDetail struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Message string
	Details []ValidationDetail
}

func (e *ValidationError) Error() string {
	return e.Message
}

func NewValidationError(message string, details ...ValidationDetail) *ValidationError {
	return &ValidationError{
		Message: message,
		Details: details,
	}
}

func IsValidationError(err error) (*ValidationError, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve, true
	}
	return nil, false
}

// UpstreamError is a failed call to the commerce platform. Status is zero when
// the request never got a response. Body holds the raw upstream payload and is
// meant for server-side logs only.
type UpstreamError struct {
	Operation string
	Status    int
	Body      []byte
	Cause     error
}

func (e *UpstreamError) Error() string {
	switch {
	case e.Cause != nil:
		return fmt.Sprintf("upstream %s: %v", e.Operation, e.Cause)
	case e.Status != 0:
		return fmt.Sprintf("upstream %s: status %d", e.Operation, e.Status)
	default:
		return fmt.Sprintf("upstream %s failed", e.Operation)
	}
}

func (e *UpstreamError) Unwrap() error {
	return e.Cause
}

func NewUpstreamError(operation string, status int, body []byte, cause error) *UpstreamError {
	return &UpstreamError{
		Operation: operation,
		Status:    status,
		Body:      body,
		Cause:     cause,
	}
}

func IsUpstreamError(err error) (*UpstreamError, bool) {
	var ue *UpstreamError
	if errors.As(err, &ue) {
		return ue, true
	}
	return nil, false
}

// PartialBulkFailure reports the ids whose delete failed during a bulk delete.
// Ids deleted successfully are not listed.
type PartialBulkFailure struct {
	Failed map[int64]error
}

func (e *PartialBulkFailure) Error() string {
	ids := e.FailedIDs()
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf("%d", id)
	}
	return fmt.Sprintf("bulk delete: %d of the selected products failed (%s)", len(ids), strings.Join(parts, ", "))
}

// FailedIDs returns the failed ids in ascending order.
func (e *PartialBulkFailure) FailedIDs() []int64 {
	ids := make([]int64, 0, len(e.Failed))
	for id := range e.Failed {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

func NewPartialBulkFailure(failed map[int64]error) *PartialBulkFailure {
	return &PartialBulkFailure{Failed: failed}
}

func IsPartialBulkFailure(err error) (*PartialBulkFailure, bool) {
	var pe *PartialBulkFailure
	if errors.As(err, &pe) {
		return pe, true
	}
	return nil, false
}

type InternalError struct {
	Message string
	Cause   error
}

func (e *InternalError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Cause)
	}
	return e.Message
}

func (e *InternalError) Unwrap() error {
	return e.Cause
}

func NewInternalError(message string, cause error) *InternalError {
	return &InternalError{
		Message: message,
		Cause:   cause,
	}
}

// CodeOf maps any error to its Code. Unknown errors are internal.
func CodeOf(err error) Code {
	if _, ok := IsValidationError(err); ok {
		return CodeValidation
	}
	if _, ok := IsUpstreamError(err); ok {
		return CodeUpstream
	}
	if _, ok := IsPartialBulkFailure(err); ok {
		return CodePartialBulkFailure
	}
	return CodeInternal
}
