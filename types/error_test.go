package types

import (
	"errors"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestError_ChainingAndHelpers(t *testing.T) {
	t.Parallel()

	root := errors.New("root")
	err := NewError(ErrUpstreamError, "upstream failed").
		WithCause(root).
		WithHTTPStatus(502).
		WithRetryable(true)

	assert.Equal(t, ErrUpstreamError, GetErrorCode(err))
	assert.True(t, IsRetryable(err))
	assert.ErrorIs(t, err, root)
	assert.Contains(t, err.Error(), "upstream failed")
}

func TestError_WrappedLookup(t *testing.T) {
	t.Parallel()

	inner := NewError(ErrRateLimited, "slow down")
	wrapped := errors.Join(errors.New("outer"), inner)

	e, ok := AsError(wrapped)
	require.True(t, ok)
	assert.Equal(t, ErrRateLimited, e.Code)
	assert.Equal(t, http.StatusTooManyRequests, HTTPStatusOf(wrapped))
}

func TestHTTPStatusOf(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want int
	}{
		{"ended sentinel", ErrConversationEnded, http.StatusConflict},
		{"invalid action", NewInvalidActionError("explode"), http.StatusBadRequest},
		{"turn failed", NewTurnFailedError(errors.New("boom")), http.StatusBadGateway},
		{"explicit status", NewError(ErrInternalError, "x").WithHTTPStatus(418), 418},
		{"plain error", errors.New("plain"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, HTTPStatusOf(tt.err))
		})
	}
}

func TestNewInvalidActionError_UnwrapsSentinel(t *testing.T) {
	t.Parallel()

	err := NewInvalidActionError("explode")
	assert.ErrorIs(t, err, ErrInvalidAction)
	assert.Contains(t, err.Error(), "explode")
	assert.False(t, IsRetryable(err))
}
