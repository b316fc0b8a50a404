package domain

import "fmt"

// Error codes used across the worker. Codes stay internal: the HTTP surface
// only ever exposes the human-readable message.
const (
	CodeValidation          = "VALIDATION_ERROR"
	CodeUpstreamUnavailable = "UPSTREAM_UNAVAILABLE"
	CodeMalformedResponse   = "MALFORMED_RESPONSE"
	CodeMissingStreamField  = "MISSING_STREAM_FIELD"
	CodeFetchFailed         = "FETCH_FAILED"
	CodeReadFailed          = "READ_FAILED"
	CodePersistFailed       = "PERSIST_FAILED"
	CodeAllTiersFailed      = "ALL_TIERS_FAILED"
	CodeTimeout             = "TIMEOUT"
	CodeInternalFault       = "INTERNAL_ERROR"
)

// DomainError is a coded error carried through the pipeline. Retryable is
// advisory metadata for upstream schedulers; the worker itself never
// retries.
type DomainError struct {
	Code      string
	Message   string
	Err       error
	Retryable bool
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError builds a coded error.
func NewDomainError(code, message string, err error, retryable bool) *DomainError {
	return &DomainError{Code: code, Message: message, Err: err, Retryable: retryable}
}

// CodeOf extracts the domain error code, or CodeInternalFault for
// everything else.
func CodeOf(err error) string {
	if derr, ok := err.(*DomainError); ok {
		return derr.Code
	}
	return CodeInternalFault
}

func ErrValidation(message string) *DomainError {
	return NewDomainError(CodeValidation, message, nil, false)
}

func ErrUpstreamUnavailable(message string, err error) *DomainError {
	return NewDomainError(CodeUpstreamUnavailable, message, err, true)
}

func ErrMalformedResponse(message string, err error) *DomainError {
	return NewDomainError(CodeMalformedResponse, message, err, false)
}

func ErrMissingStreamField(message string) *DomainError {
	return NewDomainError(CodeMissingStreamField, message, nil, false)
}

func ErrFetchFailed(message string, err error) *DomainError {
	return NewDomainError(CodeFetchFailed, message, err, true)
}

func ErrReadFailed(message string, err error) *DomainError {
	return NewDomainError(CodeReadFailed, message, err, true)
}

func ErrPersistFailed(message string, err error) *DomainError {
	return NewDomainError(CodePersistFailed, message, err, true)
}
