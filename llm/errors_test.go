package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/BaSui01/retainflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIsRateLimited(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"code", &Error{Code: ErrRateLimited}, true},
		{"quota", &Error{Code: ErrQuotaExceeded}, true},
		{"status", &Error{Code: ErrUpstreamError, HTTPStatus: http.StatusTooManyRequests}, true},
		{"wrapped", fmt.Errorf("classify: %w", &Error{Code: ErrRateLimited}), true},
		{"types error", types.NewError(types.ErrRateLimited, "slow"), true},
		{"resource exhausted text", errors.New("rpc error: code = RESOURCE_EXHAUSTED"), true},
		{"429 text", errors.New("got 429 from upstream"), true},
		{"unauthorized", &Error{Code: ErrUnauthorized, HTTPStatus: 401, Message: "bad key"}, false},
		{"plain", errors.New("connection reset"), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRateLimited(tt.err))
		})
	}
}

func TestComplete(t *testing.T) {
	t.Parallel()

	var got *ChatRequest
	c := CallerFunc(func(_ context.Context, req *ChatRequest) (*ChatResponse, error) {
		got = req
		return &ChatResponse{Choices: []ChatChoice{{Message: Message{Role: RoleAssistant, Content: "  hello \n"}}}}, nil
	})

	out, err := Complete(context.Background(), c, "m", "sys", "usr", 0.3)
	require.NoError(t, err)
	assert.Equal(t, "hello", out)
	require.Len(t, got.Messages, 2)
	assert.Equal(t, RoleSystem, got.Messages[0].Role)
	assert.Equal(t, "usr", got.Messages[1].Content)
}

func TestChatResponse_ContentEmpty(t *testing.T) {
	t.Parallel()

	_, err := (&ChatResponse{}).Content()
	var le *Error
	require.ErrorAs(t, err, &le)
	assert.Equal(t, ErrEmptyResponse, le.Code)
}
