package types

import (
	"errors"
	"fmt"
	"net/http"
)

// ErrorCode represents a unified error code across the module.
type ErrorCode string

// Conversation error codes
const (
	ErrInvalidRequest      ErrorCode = "INVALID_REQUEST"
	ErrConversationClosed  ErrorCode = "CONVERSATION_ENDED"
	ErrConversationMissing ErrorCode = "CONVERSATION_NOT_FOUND"
	ErrInvalidActionCode   ErrorCode = "INVALID_ACTION"
	ErrTurnFailed          ErrorCode = "TURN_FAILED"
	ErrConversationBusy    ErrorCode = "CONVERSATION_BUSY"
)

// Collaborator error codes
const (
	ErrRateLimited        ErrorCode = "RATE_LIMITED"
	ErrUpstreamError      ErrorCode = "UPSTREAM_ERROR"
	ErrUpstreamTimeout    ErrorCode = "UPSTREAM_TIMEOUT"
	ErrStoreUnavailable   ErrorCode = "STORE_UNAVAILABLE"
	ErrInternalError      ErrorCode = "INTERNAL_ERROR"
	ErrServiceUnavailable ErrorCode = "SERVICE_UNAVAILABLE"
	ErrUnauthorized       ErrorCode = "UNAUTHORIZED"
)

// Sentinel errors checked with errors.Is.
var (
	// ErrConversationEnded is returned when a turn is submitted to a terminal conversation.
	ErrConversationEnded = errors.New("conversation has ended")

	// ErrInvalidAction is returned for an account action outside the closed set.
	ErrInvalidAction = errors.New("invalid account action")
)

// Error represents a structured error with code, message, and metadata.
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status,omitempty"`
	Retryable  bool      `json:"retryable"`
	Cause      error     `json:"-"`
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause.
func (e *Error) Unwrap() error {
	return e.Cause
}

// NewError creates a new Error with the given code and message.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}

// WithCause adds a cause to the error.
func (e *Error) WithCause(cause error) *Error {
	e.Cause = cause
	return e
}

// WithHTTPStatus sets the HTTP status code.
func (e *Error) WithHTTPStatus(status int) *Error {
	e.HTTPStatus = status
	return e
}

// WithRetryable marks the error as retryable.
func (e *Error) WithRetryable(retryable bool) *Error {
	e.Retryable = retryable
	return e
}

// AsError extracts a *Error from an error chain.
func AsError(err error) (*Error, bool) {
	var e *Error
	if errors.As(err, &e) {
		return e, true
	}
	return nil, false
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if e, ok := AsError(err); ok {
		return e.Retryable
	}
	return false
}

// GetErrorCode extracts the error code from an error.
func GetErrorCode(err error) ErrorCode {
	if e, ok := AsError(err); ok {
		return e.Code
	}
	return ""
}

// HTTPStatusOf maps an error to the status an API should answer with.
func HTTPStatusOf(err error) int {
	e, ok := AsError(err)
	if !ok {
		switch {
		case errors.Is(err, ErrConversationEnded):
			return http.StatusConflict
		case errors.Is(err, ErrInvalidAction):
			return http.StatusBadRequest
		}
		return http.StatusInternalServerError
	}
	if e.HTTPStatus != 0 {
		return e.HTTPStatus
	}
	switch e.Code {
	case ErrInvalidRequest, ErrInvalidActionCode:
		return http.StatusBadRequest
	case ErrUnauthorized:
		return http.StatusUnauthorized
	case ErrConversationMissing:
		return http.StatusNotFound
	case ErrConversationClosed, ErrConversationBusy:
		return http.StatusConflict
	case ErrRateLimited:
		return http.StatusTooManyRequests
	case ErrTurnFailed, ErrUpstreamError:
		return http.StatusBadGateway
	case ErrUpstreamTimeout:
		return http.StatusGatewayTimeout
	case ErrStoreUnavailable, ErrServiceUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// NewTurnFailedError wraps a collaborator failure that aborted a turn.
func NewTurnFailedError(cause error) *Error {
	return NewError(ErrTurnFailed, "turn could not be completed").
		WithCause(cause).
		WithRetryable(true)
}

// NewInvalidActionError wraps ErrInvalidAction with the offending value.
func NewInvalidActionError(action string) *Error {
	return NewError(ErrInvalidActionCode, fmt.Sprintf("action %q is not one of %v", action, ValidAccountActions())).
		WithCause(ErrInvalidAction)
}
