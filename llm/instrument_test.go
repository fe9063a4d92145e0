package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type callRecord struct {
	provider, model, status string
	prompt, completion      int
}

type observerSpy struct{ calls []callRecord }

func (o *observerSpy) RecordLLMRequest(provider, model, status string, _ time.Duration, prompt, completion int) {
	o.calls = append(o.calls, callRecord{provider, model, status, prompt, completion})
}

func TestInstrument(t *testing.T) {
	spy := &observerSpy{}
	results := []error{nil, &Error{Code: ErrRateLimited, Message: "slow down", HTTPStatus: 429}, errors.New("boom")}
	i := 0
	next := CallerFunc(func(ctx context.Context, req *ChatRequest) (*ChatResponse, error) {
		err := results[i]
		i++
		if err != nil {
			return nil, err
		}
		return &ChatResponse{Model: "served-model", Usage: ChatUsage{PromptTokens: 10, CompletionTokens: 4}}, nil
	})

	c := Instrument(next, "groq", spy)
	for range results {
		_, _ = c.Completion(context.Background(), &ChatRequest{Model: "asked-model"})
	}

	require.Len(t, spy.calls, 3)
	assert.Equal(t, callRecord{"groq", "served-model", CallStatusSuccess, 10, 4}, spy.calls[0])
	assert.Equal(t, CallStatusRateLimited, spy.calls[1].status)
	assert.Equal(t, "asked-model", spy.calls[1].model)
	assert.Equal(t, CallStatusError, spy.calls[2].status)
}

func TestInstrument_NilObserver(t *testing.T) {
	next := CallerFunc(func(context.Context, *ChatRequest) (*ChatResponse, error) { return nil, nil })
	assert.NotNil(t, Instrument(next, "p", nil))
}
