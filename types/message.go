package types

import (
	"strings"
	"time"
)

// Role represents the speaker of a transcript message.
type Role string

const (
	RoleCustomer Role = "customer"
	RoleAgent    Role = "agent"
)

// Message represents one transcript entry.
type Message struct {
	Role      Role      `json:"role"`
	Content   string    `json:"content"`
	Agent     string    `json:"agent,omitempty"` // node that produced an agent message
	Timestamp time.Time `json:"timestamp,omitempty"`
}

// NewCustomerMessage creates a customer message.
func NewCustomerMessage(content string) Message {
	return Message{Role: RoleCustomer, Content: content, Timestamp: time.Now()}
}

// NewAgentMessage creates an agent message attributed to a node.
func NewAgentMessage(agent, content string) Message {
	return Message{Role: RoleAgent, Content: content, Agent: agent, Timestamp: time.Now()}
}

// FormatHistory renders the last n messages as "Customer: ..."/"Agent: ..." lines.
// n <= 0 renders the whole transcript.
func FormatHistory(msgs []Message, n int) string {
	if n > 0 && len(msgs) > n {
		msgs = msgs[len(msgs)-n:]
	}
	var b strings.Builder
	for i, m := range msgs {
		if i > 0 {
			b.WriteByte('\n')
		}
		switch m.Role {
		case RoleCustomer:
			b.WriteString("Customer: ")
		default:
			b.WriteString("Agent: ")
		}
		b.WriteString(m.Content)
	}
	return b.String()
}
