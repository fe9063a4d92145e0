package types

import (
	"fmt"
	"time"
)

// AccountAction is the closed set of account mutations.
type AccountAction string

const (
	ActionCancel    AccountAction = "cancel"
	ActionPause     AccountAction = "pause"
	ActionDowngrade AccountAction = "downgrade"
	ActionRetain    AccountAction = "retain"
	ActionUpgrade   AccountAction = "upgrade"
)

// ValidAccountActions lists the accepted actions in display order.
func ValidAccountActions() []AccountAction {
	return []AccountAction{ActionCancel, ActionPause, ActionDowngrade, ActionRetain, ActionUpgrade}
}

// Valid reports whether a belongs to the closed set.
func (a AccountAction) Valid() bool {
	for _, v := range ValidAccountActions() {
		if a == v {
			return true
		}
	}
	return false
}

// ParseAccountAction validates a raw action string.
func ParseAccountAction(s string) (AccountAction, error) {
	a := AccountAction(normalizeToken(s))
	if !a.Valid() {
		return "", NewInvalidActionError(s)
	}
	return a, nil
}

// Audit entry statuses.
const (
	AuditStatusCompleted = "completed"
)

// DefaultAuditReason is recorded when no reason accompanies an action.
const DefaultAuditReason = "No reason provided"

// AuditEntry is an immutable account-action log record.
type AuditEntry struct {
	ID         string        `json:"id" bson:"_id"`
	CustomerID string        `json:"customer_id" bson:"customer_id"`
	Action     AccountAction `json:"action" bson:"action"`
	Reason     string        `json:"reason" bson:"reason"`
	Status     string        `json:"status" bson:"status"`
	Timestamp  time.Time     `json:"timestamp" bson:"timestamp"`
}

// ActionResult is the outcome of an account mutation.
type ActionResult struct {
	Success   bool          `json:"success"`
	Action    AccountAction `json:"action"`
	Message   string        `json:"message"`
	Timestamp time.Time     `json:"timestamp"`
}

// String implements fmt.Stringer.
func (r ActionResult) String() string {
	return fmt.Sprintf("%s success=%t: %s", r.Action, r.Success, r.Message)
}
