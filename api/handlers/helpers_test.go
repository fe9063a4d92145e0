package handlers

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/BaSui01/retainflow/types"
	"github.com/BaSui01/retainflow/workflow"
)

// fakeEngine echoes messages. "boom" fails the turn, "bye" ends it.
type fakeEngine struct {
	mu  sync.Mutex
	ids int
}

func (e *fakeEngine) Start() workflow.ConversationState {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.ids++
	return workflow.ConversationState{ID: fmt.Sprintf("conv-%d", e.ids), Node: workflow.NodeOrchestrator}
}

func (e *fakeEngine) Advance(_ context.Context, s workflow.ConversationState, msg string) (workflow.ConversationState, workflow.TurnResult, error) {
	if s.Closed() {
		return s, workflow.TurnResult{Ended: true}, types.ErrConversationEnded
	}
	if msg == "boom" {
		return s, workflow.TurnResult{}, types.NewTurnFailedError(errors.New("secret upstream detail"))
	}
	next := s.Clone()
	reply := types.Message{Role: types.RoleAgent, Content: "echo: " + msg, Agent: string(workflow.NodeOrchestrator)}
	next.Transcript = append(next.Transcript, types.Message{Role: types.RoleCustomer, Content: msg}, reply)
	next.TurnCount++
	if msg == "bye" {
		next.Node = workflow.NodeEnded
		next.Ended = true
	}
	return next, workflow.TurnResult{
		Replies: []types.Message{reply},
		Agent:   workflow.NodeOrchestrator,
		Ended:   next.Ended,
	}, nil
}

func (e *fakeEngine) End(s workflow.ConversationState) workflow.ConversationState {
	out := s.Clone()
	out.Node = workflow.NodeEnded
	out.Ended = true
	return out
}

var _ ConversationEngine = (*fakeEngine)(nil)
var _ ConversationEngine = (*workflow.Router)(nil)
