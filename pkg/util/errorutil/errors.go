package errorutil

import (
	"errors"
	"fmt"
	"net/http"
)

// Error codes shared by the service and rendered by the HTTP layer.
const (
	CodeNotAuthenticated      = "NOT_AUTHENTICATED"
	CodeSchemaMissing         = "SCHEMA_MISSING"
	CodeStoreUnavailable      = "STORE_UNAVAILABLE"
	CodeValidationFailed      = "VALIDATION_FAILED"
	CodePermissionDenied      = "PERMISSION_DENIED"
	CodeRemoteFunctionMissing = "REMOTE_FUNCTION_MISSING"
	CodeAIServiceUnavailable  = "AI_SERVICE_UNAVAILABLE"
	CodeNotFound              = "NOT_FOUND"
	CodeConflict              = "CONFLICT"
	CodeInternal              = "INTERNAL_ERROR"
)

// DomainError standardizes application errors.
type DomainError struct {
	Code       string
	Message    string
	HTTPStatus int
	Details    map[string]any
	Err        error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError constructs a DomainError.
func NewDomainError(code, message string, status int, details map[string]any) *DomainError {
	return &DomainError{Code: code, Message: message, HTTPStatus: status, Details: details}
}

func NewNotAuthenticated(message string) error {
	return NewDomainError(CodeNotAuthenticated, message, http.StatusUnauthorized, nil)
}

func NewValidationError(message string, details map[string]any) error {
	return NewDomainError(CodeValidationFailed, message, http.StatusBadRequest, details)
}

func NewPermissionDenied(message string) error {
	return NewDomainError(CodePermissionDenied, message, http.StatusForbidden, nil)
}

// NewSchemaMissing reports that the backing tables or policies are not provisioned.
func NewSchemaMissing(message string, err error) error {
	return &DomainError{
		Code:       CodeSchemaMissing,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewStoreUnavailable(message string, err error) error {
	return &DomainError{
		Code:       CodeStoreUnavailable,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

// NewRemoteFunctionMissing reports a privileged procedure that was never installed.
func NewRemoteFunctionMissing(function string) error {
	return &DomainError{
		Code:       CodeRemoteFunctionMissing,
		Message:    fmt.Sprintf("missing server-side function %q; run the %s SQL script to provision it", function, function),
		HTTPStatus: http.StatusNotImplemented,
		Details:    map[string]any{"function": function},
	}
}

func NewAIServiceUnavailable(message string, err error) error {
	return &DomainError{
		Code:       CodeAIServiceUnavailable,
		Message:    message,
		HTTPStatus: http.StatusServiceUnavailable,
		Err:        err,
	}
}

func NewNotFound(resource string, details map[string]any) error {
	if details == nil {
		details = map[string]any{}
	}
	return &DomainError{
		Code:       CodeNotFound,
		Message:    fmt.Sprintf("%s not found", resource),
		HTTPStatus: http.StatusNotFound,
		Details:    details,
	}
}

func NewConflict(message string, details map[string]any) error {
	return NewDomainError(CodeConflict, message, http.StatusConflict, details)
}

func NewInternalError(err error) error {
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// ToDomainError converts generic errors to DomainError.
func ToDomainError(err error) *DomainError {
	if err == nil {
		return nil
	}
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr
	}
	return &DomainError{
		Code:       CodeInternal,
		Message:    "internal server error",
		HTTPStatus: http.StatusInternalServerError,
		Err:        err,
	}
}

// HasCode reports whether err carries the given domain code.
func HasCode(err error, code string) bool {
	var domainErr *DomainError
	if errors.As(err, &domainErr) {
		return domainErr.Code == code
	}
	return false
}
