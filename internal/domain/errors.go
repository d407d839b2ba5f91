package domain

import "fmt"

// DomainError represents a domain-specific error
type DomainError struct {
	Code    string
	Message string
	Err     error
}

// Error implements the error interface
func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying error
func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewDomainError creates a new DomainError
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     nil,
	}
}

// NewDomainErrorWithCause creates a new DomainError with an underlying cause
func NewDomainErrorWithCause(code, message string, err error) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
		Err:     err,
	}
}

// Common domain error codes
const (
	ErrCodeValidation      = "VALIDATION_ERROR"
	ErrCodeNotFound        = "NOT_FOUND"
	ErrCodeAlreadyExists   = "ALREADY_EXISTS"
	ErrCodeStorage         = "STORAGE_ERROR"
	ErrCodeProvider        = "PROVIDER_ERROR"
	ErrCodeProviderTimeout = "PROVIDER_TIMEOUT"
	ErrCodeInternalError   = "INTERNAL_ERROR"
	ErrCodeUnavailable     = "UNAVAILABLE"
)

// Validation errors
var (
	ErrEmptyQuery            = NewDomainError(ErrCodeValidation, "query cannot be empty")
	ErrQueryTooLong          = NewDomainError(ErrCodeValidation, "query exceeds maximum length")
	ErrInvalidAtomType       = NewDomainError(ErrCodeValidation, "invalid atom type")
	ErrEmbeddingDimension    = NewDomainError(ErrCodeValidation, "embedding dimension does not match the store")
	ErrInvalidResearchStatus = NewDomainError(ErrCodeValidation, "invalid research status")
	ErrMissingRequiredField  = NewDomainError(ErrCodeValidation, "missing required field")
)

// Not found errors
var (
	ErrAtomNotFound   = NewDomainError(ErrCodeNotFound, "knowledge atom not found")
	ErrGapNotFound    = NewDomainError(ErrCodeNotFound, "knowledge gap not found")
	ErrManualNotFound = NewDomainError(ErrCodeNotFound, "manual not found")
)

// Provider errors. Both degrade a route's confidence to zero; they are never
// surfaced to the caller.
var (
	ErrProviderTimeout = NewDomainError(ErrCodeProviderTimeout, "provider call exceeded its budget")
	ErrProviderFailure = NewDomainError(ErrCodeProvider, "provider returned an unusable response")
)

// Storage errors. Callers must treat these as "no KB result available",
// never as a hard failure of the whole query.
var (
	ErrStoreUnavailable = NewDomainError(ErrCodeStorage, "knowledge store unreachable")
)

// The single fatal case: the general fallback itself failed to answer.
var (
	ErrUnableToProcess = NewDomainError(ErrCodeUnavailable, "unable to process the request")
)

// Manual-specific errors
var (
	ErrSHA256Mismatch      = NewDomainError(ErrCodeValidation, "SHA256 hash does not match uploaded file")
	ErrManualUploadPending = NewDomainError(ErrCodeValidation, "manual upload has not completed")
)
