package api

import (
	"time"

	"github.com/BaSui01/retainflow/types"
)

// =============================================================================
// Conversations
// =============================================================================

// StartConversationResponse is returned by POST /api/v1/conversations.
type StartConversationResponse struct {
	ConversationID string    `json:"conversation_id"`
	Greeting       string    `json:"greeting"`
	Node           string    `json:"node"`
	CreatedAt      time.Time `json:"created_at"`
}

// SendMessageRequest is the body of POST /api/v1/conversations/{id}/messages.
type SendMessageRequest struct {
	Message string `json:"message"`
}

// TurnResponse describes one completed turn.
type TurnResponse struct {
	ConversationID string              `json:"conversation_id"`
	Reply          string              `json:"reply"`
	Replies        []types.Message     `json:"replies"`
	Agent          string              `json:"agent,omitempty"`
	AgentName      string              `json:"agent_name,omitempty"`
	HandedOff      bool                `json:"handed_off"`
	Intent         *types.IntentResult `json:"intent,omitempty"`
	Node           string              `json:"node"`
	OffersMade     int                 `json:"offers_made"`
	Ended          bool                `json:"ended"`
}

// CustomerView is the customer summary exposed over the API.
type CustomerView struct {
	CustomerID string `json:"customer_id"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	PlanType   string `json:"plan_type,omitempty"`
	Tier       string `json:"tier,omitempty"`
	Status     string `json:"status,omitempty"`
}

// ConversationView is returned by GET /api/v1/conversations/{id}.
type ConversationView struct {
	ID                 string              `json:"id"`
	Node               string              `json:"node"`
	Ended              bool                `json:"ended"`
	TurnCount          int                 `json:"turn_count"`
	Customer           *CustomerView       `json:"customer,omitempty"`
	Intent             *types.IntentResult `json:"intent,omitempty"`
	CancellationReason string              `json:"cancellation_reason,omitempty"`
	OffersMade         []types.Offer       `json:"offers_made"`
	Transcript         []types.Message     `json:"transcript"`
}

// AuditListResponse is returned by GET /api/v1/customers/{id}/audit.
type AuditListResponse struct {
	CustomerID string             `json:"customer_id"`
	Entries    []types.AuditEntry `json:"entries"`
}

// =============================================================================
// WebSocket
// =============================================================================

// WebSocket frame types.
const (
	WSTypeMessage  = "message"
	WSTypeReset    = "reset"
	WSTypeEnd      = "end"
	WSTypeGreeting = "greeting"
	WSTypeReply    = "reply"
	WSTypeEnded    = "ended"
	WSTypeError    = "error"
)

// WSClientFrame is sent by the client: message, reset or end.
type WSClientFrame struct {
	Type    string `json:"type"`
	Content string `json:"content,omitempty"`
}

// WSServerFrame is sent by the server.
type WSServerFrame struct {
	Type           string        `json:"type"`
	ConversationID string        `json:"conversation_id"`
	Content        string        `json:"content,omitempty"`
	Turn           *TurnResponse `json:"turn,omitempty"`
	Error          *ErrorDetail  `json:"error,omitempty"`
}

// ErrorDetail is the error body inside WebSocket frames.
type ErrorDetail struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable,omitempty"`
}
