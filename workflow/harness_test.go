package workflow

import (
	"errors"
	"fmt"
	"time"

	"github.com/BaSui01/retainflow/agent/identity"
	"github.com/BaSui01/retainflow/agent/intent"
	"github.com/BaSui01/retainflow/agent/orchestrator"
	"github.com/BaSui01/retainflow/agent/processor"
	"github.com/BaSui01/retainflow/agent/retention"
	"github.com/BaSui01/retainflow/testutil/fixtures"
	"github.com/BaSui01/retainflow/testutil/mocks"
	"github.com/BaSui01/retainflow/types"
)

// System prompt markers used to script the mock model per agent.
const (
	classifyPrompt  = "Classify the customer's intent"
	greeterPrompt   = "You are The Greeter"
	reasonPrompt    = "Analyze the customer message"
	retentionPrompt = "You are The Problem Solver"
	processorPrompt = "You are The Processor"
)

type harness struct {
	router  *Router
	llm     *mocks.MockProvider
	store   *mocks.MockCustomerStore
	audit   *mocks.MockAuditSink
	metrics *recorder
}

// newHarness wires the real agents to scripted collaborators. Clock and ids
// are fixed so equal inputs produce equal states.
func newHarness(script ...func(*mocks.MockProvider)) *harness {
	m := mocks.NewMockProvider()
	for _, fn := range script {
		fn(m)
	}
	h := &harness{
		llm: m.
			On(classifyPrompt, fixtures.IntentJSON(types.IntentGeneral, 0.8)).
			On(greeterPrompt, "Happy to help!").
			On(reasonPrompt, "cost").
			On(retentionPrompt, "I can take 50% off your next 3 months. [OFFER:discount]").
			On(processorPrompt, "Your Care+ cancellation is confirmed.").
			WithResponse("unexpected prompt"),
		store:   mocks.NewMockCustomerStore(fixtures.Sarah(), fixtures.Mike()),
		audit:   mocks.NewMockAuditSink(),
		metrics: &recorder{},
	}
	clock := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	ids := 0
	r, err := NewRouter(Deps{
		Identifier:   identity.New(h.store, nil),
		Classifier:   intent.New(h.llm, intent.Config{}, nil),
		Orchestrator: orchestrator.New(h.llm, orchestrator.Config{}, nil),
		Retention:    retention.NewAgent(h.llm, nil, nil, nil, retention.Config{}, nil),
		Escalation:   retention.NewEscalationPolicy(retention.DefaultLexicon(), 0),
		Processor:    processor.New(h.audit, h.store, h.llm, processor.Config{}, nil),
		Metrics:      h.metrics,
	}, Options{
		Now: func() time.Time { return clock },
		NewID: func() string {
			ids++
			return fmt.Sprintf("conv-%d", ids)
		},
	})
	if err != nil {
		panic(err)
	}
	h.router = r
	return h
}

// newFailingHarness fails every call to the agent owning prompt.
func newFailingHarness(prompt string) *harness {
	return newHarness(func(m *mocks.MockProvider) {
		m.OnError(prompt, errors.New("upstream exploded"))
	})
}

func (h *harness) intent(i types.Intent) {
	h.llm.Replace(classifyPrompt, fixtures.IntentJSON(i, 0.9))
}

// retentionState is a conversation already negotiating with Sarah.
func retentionState(offers int) ConversationState {
	sarah := fixtures.Sarah()
	s := ConversationState{
		ID:                 "conv-r",
		Node:               NodeRetention,
		Customer:           &sarah,
		Intent:             &types.IntentResult{Intent: types.IntentCancellation, Confidence: 0.9},
		CancellationReason: types.ReasonCost,
	}
	for i := 0; i < offers; i++ {
		s.OffersMade = append(s.OffersMade, types.Offer{Type: types.OfferDiscount, Description: fmt.Sprintf("offer %d", i)})
	}
	return s
}

type recorder struct {
	turns       []string
	transitions []string
	escalations int
}

func (r *recorder) RecordTurn(node, status string, _ time.Duration) {
	r.turns = append(r.turns, node+":"+status)
}

func (r *recorder) RecordTransition(from, to string) {
	r.transitions = append(r.transitions, from+"->"+to)
}

func (r *recorder) RecordEscalation(int) { r.escalations++ }
