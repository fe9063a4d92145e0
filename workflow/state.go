package workflow

import (
	"github.com/BaSui01/retainflow/types"
)

// Node identifies the handler that owns the next customer message.
//
// Processor and external turns end the conversation but keep their node, so
// the state still names who closed it. NodeEnded is only set by Router.End.
// Closed is the terminal check for either form.
type Node string

const (
	NodeOrchestrator Node = "orchestrator"
	NodeRetention    Node = "retention"
	NodeProcessor    Node = "processor"
	NodeExternal     Node = "external"
	NodeEnded        Node = "ended"
)

// Valid reports whether n is a known node.
func (n Node) Valid() bool {
	switch n {
	case NodeOrchestrator, NodeRetention, NodeProcessor, NodeExternal, NodeEnded:
		return true
	}
	return false
}

// DisplayName is the speaker label shown by front ends.
func (n Node) DisplayName() string {
	switch n {
	case NodeOrchestrator:
		return "Orchestrator"
	case NodeRetention:
		return "Retention"
	case NodeProcessor:
		return "Processor"
	case NodeExternal:
		return "External"
	}
	return "Agent"
}

// ConversationState is the full state of one conversation.
type ConversationState struct {
	ID                 string                   `json:"id"`
	Transcript         []types.Message          `json:"transcript"`
	Customer           *types.CustomerRecord    `json:"customer,omitempty"`
	Node               Node                     `json:"node"`
	Intent             *types.IntentResult      `json:"intent,omitempty"`
	OffersMade         []types.Offer            `json:"offers_made"`
	CancellationReason types.CancellationReason `json:"cancellation_reason,omitempty"`
	Ended              bool                     `json:"ended"`
	TurnCount          int                      `json:"turn_count"`
	LastAgent          Node                     `json:"last_agent,omitempty"`
}

// Clone returns a deep copy.
func (s ConversationState) Clone() ConversationState {
	out := s
	out.Transcript = append([]types.Message(nil), s.Transcript...)
	out.OffersMade = append([]types.Offer(nil), s.OffersMade...)
	out.Customer = s.Customer.Clone()
	if s.Intent != nil {
		in := *s.Intent
		out.Intent = &in
	}
	return out
}

// Identified reports whether a customer record has been resolved.
func (s ConversationState) Identified() bool {
	return s.Customer != nil && s.Customer.Found
}

// Closed reports whether the conversation accepts no further messages.
func (s ConversationState) Closed() bool {
	return s.Ended || s.Node == NodeEnded
}

func (s ConversationState) history() []types.Message {
	// 当前轮的客户消息已追加在末尾
	if n := len(s.Transcript); n > 0 {
		return s.Transcript[:n-1]
	}
	return nil
}
