package retention

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/BaSui01/retainflow/llm"
	"github.com/BaSui01/retainflow/rag"
	"github.com/BaSui01/retainflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubSearcher struct {
	hits  []rag.PolicyHit
	query string
	k     int
}

func (s *stubSearcher) SearchPolicies(_ context.Context, query string, k int) []rag.PolicyHit {
	s.query, s.k = query, k
	return s.hits
}

func scripted(text string, seen **llm.ChatRequest) llm.Caller {
	return llm.CallerFunc(func(_ context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
		if seen != nil {
			*seen = req
		}
		return &llm.ChatResponse{Choices: []llm.ChatChoice{{Message: llm.Message{Content: text}}}}, nil
	})
}

func TestExtractOfferMarker(t *testing.T) {
	text, typ, ok := ExtractOfferMarker("I can pause your plan for 3 months. [OFFER:pause]")
	assert.True(t, ok)
	assert.Equal(t, types.OfferPause, typ)
	assert.Equal(t, "I can pause your plan for 3 months.", text)

	text, typ, ok = ExtractOfferMarker("How about this? [offer: Explain Benefits] and [OFFER:discount]")
	assert.True(t, ok)
	assert.Equal(t, types.OfferExplainBenefits, typ)
	assert.Equal(t, "How about this? and", text)

	text, _, ok = ExtractOfferMarker("I understand completely.")
	assert.False(t, ok)
	assert.Equal(t, "I understand completely.", text)
}

func TestReply_RecordsOfferFromPlan(t *testing.T) {
	var req *llm.ChatRequest
	search := &stubSearcher{hits: []rag.PolicyHit{{Text: "Care+ can be paused for up to 3 months.", Source: "care_plus.md"}}}
	a := NewAgent(scripted("I hear you. We can pause it. [OFFER:pause]", &req), nil, search, nil, Config{}, nil)

	res, err := a.Reply(context.Background(), ReplyInput{
		Message:  "can't afford it",
		Customer: &types.CustomerRecord{Found: true, Name: "Sarah", Tier: "gold"},
		Reason:   types.ReasonCost,
	})
	require.NoError(t, err)
	assert.Equal(t, "I hear you. We can pause it.", res.Text)
	require.NotNil(t, res.Offer)
	assert.Equal(t, types.OfferPause, res.Offer.Type)
	assert.Equal(t, "Pause subscription for up to 3 months", res.Offer.Description)

	system := req.Messages[0].Content
	assert.Contains(t, system, "Care+ can be paused")
	assert.Contains(t, system, "None yet")
	assert.Contains(t, system, "type=discount")
	assert.Equal(t, 2, search.k)
	assert.Equal(t, "can't afford it", search.query)
}

func TestReply_UnknownMarkerFallsBackToBareOffer(t *testing.T) {
	a := NewAgent(scripted("Let me fix the phone. [OFFER:replacement]", nil), nil, nil, nil, Config{}, nil)

	res, err := a.Reply(context.Background(), ReplyInput{Message: "it's broken"})
	require.NoError(t, err)
	require.NotNil(t, res.Offer)
	assert.Equal(t, types.OfferReplacement, res.Offer.Type)
	assert.Equal(t, "replacement", res.Offer.Description)
}

func TestReply_SoftCapIgnoresMarkers(t *testing.T) {
	var req *llm.ChatRequest
	a := NewAgent(scripted("One more idea [OFFER:discount]", &req), nil, nil, nil, Config{}, nil)

	made := []types.Offer{{Type: types.OfferPause}, {Type: types.OfferDiscount}, {Type: types.OfferDowngrade}}
	res, err := a.Reply(context.Background(), ReplyInput{Message: "hmm", OffersMade: made})
	require.NoError(t, err)
	assert.Nil(t, res.Offer)
	assert.Equal(t, "One more idea", res.Text)
	assert.Contains(t, req.Messages[0].Content, "offer limit is reached")
	assert.NotContains(t, req.Messages[0].Content, "type=discount")
}

func TestReply_PolicyContextIsBudgeted(t *testing.T) {
	var req *llm.ChatRequest
	long := strings.Repeat("policy ", 1000)
	a := NewAgent(scripted("ok", &req), nil, &stubSearcher{hits: []rag.PolicyHit{{Text: long}}}, nil, Config{PolicyMaxTokens: 10}, nil)

	_, err := a.Reply(context.Background(), ReplyInput{Message: "x"})
	require.NoError(t, err)
	system := req.Messages[0].Content
	idx := strings.Index(system, "Relevant policy information:\n")
	require.GreaterOrEqual(t, idx, 0)
	assert.Len(t, []rune(system[idx+len("Relevant policy information:\n"):]), 40)
}

func TestReply_ErrorPropagates(t *testing.T) {
	boom := errors.New("model down")
	a := NewAgent(llm.CallerFunc(func(context.Context, *llm.ChatRequest) (*llm.ChatResponse, error) {
		return nil, boom
	}), nil, nil, nil, Config{}, nil)

	_, err := a.Reply(context.Background(), ReplyInput{Message: "x"})
	assert.ErrorIs(t, err, boom)

	_, err = a.DetectReason(context.Background(), "x", "")
	assert.ErrorIs(t, err, boom)
}

func TestDetectReason(t *testing.T) {
	var req *llm.ChatRequest
	a := NewAgent(scripted("not_using", &req), nil, nil, nil, Config{}, nil)

	reason, err := a.DetectReason(context.Background(), "never used it", "Customer: hi")
	require.NoError(t, err)
	assert.Equal(t, types.ReasonNotUsing, reason)
	assert.Contains(t, req.Messages[1].Content, "never used it")
}
