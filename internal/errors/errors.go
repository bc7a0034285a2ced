// Package errors defines the service error taxonomy shared by all workflows.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode identifies a class of failure surfaced to API clients.
type ErrorCode string

const (
	CodeNotAuthenticated  ErrorCode = "NOT_AUTHENTICATED"
	CodeIncompleteProfile ErrorCode = "INCOMPLETE_PROFILE"
	CodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	CodeValidation        ErrorCode = "VALIDATION_ERROR"
	CodeInvalidState      ErrorCode = "INVALID_STATE"
	CodeNotFound          ErrorCode = "NOT_FOUND"
	CodeUpstreamFailure   ErrorCode = "UPSTREAM_FAILURE"
	CodePaymentCancelled  ErrorCode = "PAYMENT_CANCELLED"
	CodeInternal          ErrorCode = "INTERNAL_ERROR"
)

// ServiceError is the uniform failure type returned by workflow operations.
type ServiceError struct {
	Code       ErrorCode      `json:"code"`
	Message    string         `json:"message"`
	HTTPStatus int            `json:"-"`
	Details    map[string]any `json:"details,omitempty"`
	cause      error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As.
func (e *ServiceError) Unwrap() error {
	return e.cause
}

// WithDetails attaches a key/value pair to the error and returns it.
func (e *ServiceError) WithDetails(key string, value any) *ServiceError {
	if e.Details == nil {
		e.Details = make(map[string]any)
	}
	e.Details[key] = value
	return e
}

// NotAuthenticated indicates the caller has no valid session.
func NotAuthenticated(message string) *ServiceError {
	if message == "" {
		message = "Authentication required"
	}
	return &ServiceError{Code: CodeNotAuthenticated, Message: message, HTTPStatus: http.StatusUnauthorized}
}

// IncompleteProfile indicates an authenticated identity with no profile row.
func IncompleteProfile(message string) *ServiceError {
	if message == "" {
		message = "Registration incomplete"
	}
	return &ServiceError{Code: CodeIncompleteProfile, Message: message, HTTPStatus: http.StatusForbidden}
}

// Unauthorized indicates a failed role check.
func Unauthorized(message string) *ServiceError {
	if message == "" {
		message = "Insufficient privileges"
	}
	return &ServiceError{Code: CodeUnauthorized, Message: message, HTTPStatus: http.StatusForbidden}
}

// Validation indicates rejected input (file type/size, formats, status enum).
func Validation(message string) *ServiceError {
	return &ServiceError{Code: CodeValidation, Message: message, HTTPStatus: http.StatusBadRequest}
}

// InvalidState indicates an operation not permitted in the record's
// current lifecycle state.
func InvalidState(message string) *ServiceError {
	return &ServiceError{Code: CodeInvalidState, Message: message, HTTPStatus: http.StatusConflict}
}

// NotFound indicates a missing record.
func NotFound(resource, id string) *ServiceError {
	return &ServiceError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found: %s", resource, id),
		HTTPStatus: http.StatusNotFound,
	}
}

// Upstream wraps a backend or storage failure passthrough.
func Upstream(message string, cause error) *ServiceError {
	if message == "" {
		message = "Backend request failed"
	}
	return &ServiceError{Code: CodeUpstreamFailure, Message: message, HTTPStatus: http.StatusBadGateway, cause: cause}
}

// PaymentCancelled indicates the payer dismissed the checkout.
func PaymentCancelled(message string) *ServiceError {
	if message == "" {
		message = "Payment cancelled"
	}
	return &ServiceError{Code: CodePaymentCancelled, Message: message, HTTPStatus: http.StatusConflict}
}

// Internal wraps an unexpected failure.
func Internal(message string, cause error) *ServiceError {
	if message == "" {
		message = "Internal error"
	}
	return &ServiceError{Code: CodeInternal, Message: message, HTTPStatus: http.StatusInternalServerError, cause: cause}
}

// GetServiceError returns err as a *ServiceError, or nil if it is not one.
func GetServiceError(err error) *ServiceError {
	var svcErr *ServiceError
	if errors.As(err, &svcErr) {
		return svcErr
	}
	return nil
}

// IsCode reports whether err carries the given error code.
func IsCode(err error, code ErrorCode) bool {
	svcErr := GetServiceError(err)
	return svcErr != nil && svcErr.Code == code
}
