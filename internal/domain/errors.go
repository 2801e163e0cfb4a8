package domain

import (
	"errors"
	"fmt"
)

// Error types for domain-specific errors
type ErrorType string

const (
	ErrorTypeInvalidRequest    ErrorType = "invalid-request"
	ErrorTypeConfiguration     ErrorType = "configuration-error"
	ErrorTypePageAnalysis      ErrorType = "page-analysis-error"
	ErrorTypeMalformedResponse ErrorType = "malformed-response"
	ErrorTypeInvalidDocument   ErrorType = "invalid-document"
	ErrorTypeRateLimit         ErrorType = "rate-limit"
	ErrorTypeAPI               ErrorType = "api"
	ErrorTypeConversion        ErrorType = "conversion"
	ErrorTypeIO                ErrorType = "io"
)

// DomainError represents a domain-specific error with context
type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

// NewError creates a new domain error
func NewError(errType ErrorType, message string, err error) *DomainError {
	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
	}
}

// Common error constructors
func InvalidRequestError(message string, err error) *DomainError {
	return NewError(ErrorTypeInvalidRequest, message, err)
}

func ConfigurationError(message string, err error) *DomainError {
	return NewError(ErrorTypeConfiguration, message, err)
}

func PageAnalysisError(message string, err error) *DomainError {
	return NewError(ErrorTypePageAnalysis, message, err)
}

func MalformedResponseError(message string, err error) *DomainError {
	return NewError(ErrorTypeMalformedResponse, message, err)
}

func InvalidDocumentError(message string, err error) *DomainError {
	return NewError(ErrorTypeInvalidDocument, message, err)
}

func RateLimitError(message string, err error) *DomainError {
	return NewError(ErrorTypeRateLimit, message, err)
}

func APIError(message string, err error) *DomainError {
	return NewError(ErrorTypeAPI, message, err)
}

func ConversionError(message string, err error) *DomainError {
	return NewError(ErrorTypeConversion, message, err)
}

func IOError(message string, err error) *DomainError {
	return NewError(ErrorTypeIO, message, err)
}

// TypeOf returns the domain error type of err, or the empty string when err
// is not a DomainError
func TypeOf(err error) ErrorType {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Type
	}
	return ""
}

// MessageOf returns the sanitized user-facing message of a DomainError,
// falling back to the plain error string for other errors
func MessageOf(err error) string {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Message
	}
	return err.Error()
}
