package core

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorType classifies orchestration failures. The fallback policy in the
// orchestrator branches on these values, so they are data, not just messages.
type ErrorType string

const (
	// ErrorTypeInsufficientCredits rejects a request before any network call.
	// User-visible, never retried.
	ErrorTypeInsufficientCredits ErrorType = "insufficient_credits"
	// ErrorTypeQuotaExhausted means the local quota tracker denied a provider.
	// Internal: triggers fallback to the next provider, never surfaced.
	ErrorTypeQuotaExhausted ErrorType = "quota_exhausted"
	// ErrorTypeProviderTimeout means a provider call exceeded its deadline.
	ErrorTypeProviderTimeout ErrorType = "provider_timeout"
	// ErrorTypeProviderUnreachable covers transport and upstream 5xx failures.
	ErrorTypeProviderUnreachable ErrorType = "provider_unreachable"
	// ErrorTypeMalformedResponse means a reachable provider returned content
	// that could not be decoded into a structured artifact.
	ErrorTypeMalformedResponse ErrorType = "malformed_response"
	// ErrorTypeInvalidArtifact means a decoded artifact failed structural
	// validation and was discarded.
	ErrorTypeInvalidArtifact ErrorType = "invalid_artifact"
	// ErrorTypeProvidersExhausted means every adapter in the chain failed.
	// Unreachable unless the offline fallback adapter is disabled.
	ErrorTypeProvidersExhausted ErrorType = "all_providers_exhausted"
	// ErrorTypeInvalidRequest indicates a malformed caller request.
	ErrorTypeInvalidRequest ErrorType = "invalid_request"
)

// OrchestratorError is the base error type for the generation core.
type OrchestratorError struct {
	Type     ErrorType `json:"type"`
	Message  string    `json:"message"`
	Provider string    `json:"provider,omitempty"`
	// Original error for debugging, not exposed to clients.
	Err error `json:"-"`
}

func (e *OrchestratorError) Error() string {
	if e.Provider != "" {
		return fmt.Sprintf("[%s] %s: %s", e.Provider, e.Type, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *OrchestratorError) Unwrap() error {
	return e.Err
}

// HTTPStatusCode maps the error type to the status code returned by the
// gateway surface.
func (e *OrchestratorError) HTTPStatusCode() int {
	switch e.Type {
	case ErrorTypeInsufficientCredits:
		return http.StatusPaymentRequired
	case ErrorTypeInvalidRequest:
		return http.StatusBadRequest
	case ErrorTypeInvalidArtifact, ErrorTypeMalformedResponse:
		return http.StatusUnprocessableEntity
	case ErrorTypeProviderTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusBadGateway
	}
}

// ToJSON converts the error to the wire shape used by the HTTP surface.
func (e *OrchestratorError) ToJSON() map[string]any {
	return map[string]any{
		"error": map[string]any{
			"type":    e.Type,
			"message": e.Message,
		},
	}
}

// IsErrorType reports whether err is an OrchestratorError of the given type.
func IsErrorType(err error, t ErrorType) bool {
	var oe *OrchestratorError
	return errors.As(err, &oe) && oe.Type == t
}

// NewInsufficientCreditsError rejects a request at admission control.
func NewInsufficientCreditsError(required, available int) *OrchestratorError {
	return &OrchestratorError{
		Type:    ErrorTypeInsufficientCredits,
		Message: fmt.Sprintf("insufficient credits: required %d, available %d", required, available),
	}
}

// NewQuotaExhaustedError marks a provider denied by the local quota tracker.
func NewQuotaExhaustedError(provider string) *OrchestratorError {
	return &OrchestratorError{
		Type:     ErrorTypeQuotaExhausted,
		Message:  "provider quota window exhausted",
		Provider: provider,
	}
}

// NewProviderTimeoutError wraps a provider call that exceeded its deadline.
func NewProviderTimeoutError(provider string, err error) *OrchestratorError {
	return &OrchestratorError{
		Type:     ErrorTypeProviderTimeout,
		Message:  "provider call timed out",
		Provider: provider,
		Err:      err,
	}
}

// NewProviderUnreachableError wraps a transport-level or upstream failure.
func NewProviderUnreachableError(provider, message string, err error) *OrchestratorError {
	if message == "" {
		message = "provider unreachable"
	}
	return &OrchestratorError{
		Type:     ErrorTypeProviderUnreachable,
		Message:  message,
		Provider: provider,
		Err:      err,
	}
}

// NewMalformedResponseError wraps a decode failure on provider output.
func NewMalformedResponseError(provider string, err error) *OrchestratorError {
	return &OrchestratorError{
		Type:     ErrorTypeMalformedResponse,
		Message:  "provider returned undecodable content",
		Provider: provider,
		Err:      err,
	}
}

// NewInvalidArtifactError wraps a structural validation failure.
func NewInvalidArtifactError(provider string, err error) *OrchestratorError {
	return &OrchestratorError{
		Type:     ErrorTypeInvalidArtifact,
		Message:  "artifact failed structural validation",
		Provider: provider,
		Err:      err,
	}
}

// NewProvidersExhaustedError signals total chain failure. Only reachable when
// the offline fallback adapter is disabled for the caller class.
func NewProvidersExhaustedError() *OrchestratorError {
	return &OrchestratorError{
		Type:    ErrorTypeProvidersExhausted,
		Message: "all generation providers failed",
	}
}

// NewInvalidRequestError rejects a malformed caller request.
func NewInvalidRequestError(message string) *OrchestratorError {
	return &OrchestratorError{
		Type:    ErrorTypeInvalidRequest,
		Message: message,
	}
}
