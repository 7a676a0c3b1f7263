package llm

import (
	"errors"
	"time"
)

// Error is a provider-neutral generation error.
type Error struct {
	Type        ErrorType
	Message     string
	Retryable   bool
	RetryAfter  *time.Duration
	StatusCode  int
	ProviderErr error // original provider-specific error
}

// ErrorType categorizes gateway failures. Transport-class failures are
// recovered by model/provider fallback; malformed output never is.
type ErrorType string

const (
	ErrorTypeTransport ErrorType = "transport"
	ErrorTypeTimeout   ErrorType = "timeout"
	ErrorTypeRateLimit ErrorType = "rate_limit"
	ErrorTypeMalformed ErrorType = "malformed_output"
	ErrorTypeExhausted ErrorType = "all_providers_exhausted"
	ErrorTypeInvalid   ErrorType = "invalid_request"
)

// Error implements the error interface.
func (e *Error) Error() string {
	if e.ProviderErr != nil {
		return e.Message + ": " + e.ProviderErr.Error()
	}
	return e.Message
}

// Unwrap returns the underlying provider error.
func (e *Error) Unwrap() error {
	return e.ProviderErr
}

// IsRateLimited checks whether an error is a provider-reported rate limit.
func IsRateLimited(err error) bool {
	return isType(err, ErrorTypeRateLimit)
}

// IsTimeout checks whether an error is a per-attempt timeout.
func IsTimeout(err error) bool {
	return isType(err, ErrorTypeTimeout)
}

// IsMalformed checks whether an error is a structured-output parse or
// validation failure.
func IsMalformed(err error) bool {
	return isType(err, ErrorTypeMalformed)
}

// IsExhausted checks whether an error is the gateway's terminal failure after
// every provider, model, and retry was attempted.
func IsExhausted(err error) bool {
	return isType(err, ErrorTypeExhausted)
}

// IsRetryable checks whether a failed attempt should advance the fallback
// sweep instead of aborting the call.
func IsRetryable(err error) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Retryable
	}
	return false
}

// ExtractRetryAfter returns the provider-suggested retry delay, if any.
func ExtractRetryAfter(err error) *time.Duration {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.RetryAfter
	}
	return nil
}

func isType(err error, t ErrorType) bool {
	var llmErr *Error
	if errors.As(err, &llmErr) {
		return llmErr.Type == t
	}
	return false
}

// NewTransportError creates a network/provider transport error.
func NewTransportError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeTransport,
		Message:     message,
		Retryable:   true,
		ProviderErr: providerErr,
	}
}

// NewTimeoutError creates a per-attempt timeout error. Timeouts are treated
// identically to transport errors for fallback purposes.
func NewTimeoutError(message string, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeTimeout,
		Message:     message,
		Retryable:   true,
		ProviderErr: providerErr,
	}
}

// NewRateLimitError creates a provider-reported quota exhaustion error.
func NewRateLimitError(message string, retryAfter *time.Duration, providerErr error) *Error {
	return &Error{
		Type:        ErrorTypeRateLimit,
		Message:     message,
		Retryable:   true,
		RetryAfter:  retryAfter,
		ProviderErr: providerErr,
	}
}

// NewMalformedError creates a structured-output failure. Not retryable: the
// gateway never re-issues a call because its text failed to parse.
func NewMalformedError(message string, cause error) *Error {
	return &Error{
		Type:        ErrorTypeMalformed,
		Message:     message,
		Retryable:   false,
		ProviderErr: cause,
	}
}

// NewExhaustedError creates the terminal failure returned when every
// provider and model failed on every retry.
func NewExhaustedError(message string, lastErr error) *Error {
	return &Error{
		Type:        ErrorTypeExhausted,
		Message:     message,
		Retryable:   false,
		ProviderErr: lastErr,
	}
}

// NewInvalidRequestError creates a request-validation error.
func NewInvalidRequestError(message string) *Error {
	return &Error{
		Type:      ErrorTypeInvalid,
		Message:   message,
		Retryable: false,
	}
}
