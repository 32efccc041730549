package common

import (
	"errors"
	"fmt"
)

// AppError represents application-specific errors
type AppError struct {
	Code    string
	Message string
	Cause   error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Recoverability is encoded in which sentinel a failure wraps: unavailable
// and timeout mean "try the next provider", rate-limited means "only a
// strategy-level fallback may proceed", exhausted is terminal for the
// strategy that raised it.
var (
	ErrProviderUnavailable   = errors.New("provider unavailable")
	ErrProviderTimeout       = errors.New("provider timed out")
	ErrRateLimited           = errors.New("rate limit exceeded")
	ErrAllProvidersExhausted = errors.New("all providers exhausted")
	ErrTemplateNotFound      = errors.New("template not found")
	ErrInvalidTemplate       = errors.New("invalid template")
	ErrDocumentNotFound      = errors.New("document not found")
	ErrInvalidDocument       = errors.New("invalid document")
	ErrNoStrategy            = errors.New("no strategy supports this template")
	ErrNotFound              = errors.New("resource not found")
)

// ProviderError annotates a backend failure with the provider that raised it.
type ProviderError struct {
	Provider string
	Op       string
	Err      error
}

func (e *ProviderError) Error() string {
	return fmt.Sprintf("provider %s: %s: %v", e.Provider, e.Op, e.Err)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}

func NewProviderError(provider, op string, err error) *ProviderError {
	return &ProviderError{Provider: provider, Op: op, Err: err}
}

// ExtractionError is the single failure family the façade surfaces to
// callers when no provider produced a usable result.
type ExtractionError struct {
	Strategy string
	Err      error
}

func (e *ExtractionError) Error() string {
	if e.Strategy != "" {
		return fmt.Sprintf("extraction failed (strategy %s): %v", e.Strategy, e.Err)
	}
	return fmt.Sprintf("extraction failed: %v", e.Err)
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

func NewExtractionError(strategy string, err error) *ExtractionError {
	return &ExtractionError{Strategy: strategy, Err: err}
}

// Error constructors
func NewAppError(code, message string, cause error) *AppError {
	return &AppError{
		Code:    code,
		Message: message,
		Cause:   cause,
	}
}

func WrapError(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}
