package errors

import (
	"errors"
	"fmt"
	"net/http"
	"time"
)

// ErrorType represents the type of error
type ErrorType string

const (
	// ErrorTypeNetwork represents transport failures and timeouts
	ErrorTypeNetwork ErrorType = "network"
	// ErrorTypeUpstream represents an unexpected upstream status code
	ErrorTypeUpstream ErrorType = "upstream"
	// ErrorTypeParsing represents document parsing errors
	ErrorTypeParsing ErrorType = "parsing"
	// ErrorTypeRateLimit represents rate limiting errors
	ErrorTypeRateLimit ErrorType = "rate_limit"
	// ErrorTypeNotFound represents a lookup that produced no usable result
	ErrorTypeNotFound ErrorType = "not_found"
	// ErrorTypeCache represents cache-related errors
	ErrorTypeCache ErrorType = "cache"
	// ErrorTypePublisher represents publisher-related errors
	ErrorTypePublisher ErrorType = "publisher"
	// ErrorTypeValidation represents validation errors
	ErrorTypeValidation ErrorType = "validation"
	// ErrorTypeConfiguration represents configuration errors
	ErrorTypeConfiguration ErrorType = "configuration"
)

// PipelineError represents an error raised by one pipeline component
type PipelineError struct {
	Type       ErrorType
	Component  string
	Message    string
	StatusCode int
	Err        error
	Time       time.Time
}

// Error implements the error interface
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %s - %v", e.Type, e.Component, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %s", e.Type, e.Component, e.Message)
}

// Unwrap returns the underlying error
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient
func (e *PipelineError) IsRetryable() bool {
	switch e.Type {
	case ErrorTypeNetwork, ErrorTypeRateLimit:
		return true
	case ErrorTypeUpstream:
		return e.StatusCode >= 500 || e.StatusCode == http.StatusTooManyRequests
	default:
		return false
	}
}

// IsRetryable reports whether err wraps a retryable PipelineError
func IsRetryable(err error) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.IsRetryable()
	}
	return false
}

// IsType reports whether err wraps a PipelineError of the given type
func IsType(err error, errType ErrorType) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Type == errType
	}
	return false
}

// New creates a new PipelineError
func New(errType ErrorType, component, message string, err error) *PipelineError {
	return &PipelineError{
		Type:      errType,
		Component: component,
		Message:   message,
		Err:       err,
		Time:      time.Now(),
	}
}

// NewNetwork creates a new network error
func NewNetwork(component, message string, err error) *PipelineError {
	return New(ErrorTypeNetwork, component, message, err)
}

// NewUpstream creates an error for an unexpected upstream status
func NewUpstream(component string, statusCode int) *PipelineError {
	e := New(ErrorTypeUpstream, component, fmt.Sprintf("unexpected status code: %d", statusCode), nil)
	e.StatusCode = statusCode
	return e
}

// NewParsing creates a new parsing error
func NewParsing(component, message string, err error) *PipelineError {
	return New(ErrorTypeParsing, component, message, err)
}

// NewRateLimit creates a new rate limit error
func NewRateLimit(component string, retryAfter string) *PipelineError {
	e := New(ErrorTypeRateLimit, component, fmt.Sprintf("rate limited; retry after %s", retryAfter), nil)
	e.StatusCode = 429
	return e
}

// NewNotFound creates an error for a lookup without a usable result
func NewNotFound(component, message string) *PipelineError {
	return New(ErrorTypeNotFound, component, message, nil)
}

// NewCache creates a new cache error
func NewCache(component, message string, err error) *PipelineError {
	return New(ErrorTypeCache, component, message, err)
}

// NewPublisher creates a new publisher error
func NewPublisher(component, message string, err error) *PipelineError {
	return New(ErrorTypePublisher, component, message, err)
}

// NewValidation creates a new validation error
func NewValidation(component, message string) *PipelineError {
	return New(ErrorTypeValidation, component, message, nil)
}

// NewConfiguration creates a new configuration error
func NewConfiguration(message string, err error) *PipelineError {
	return New(ErrorTypeConfiguration, "config", message, err)
}
