// Package processor executes account actions once retention is over and
// writes the closing confirmation.
package processor

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/BaSui01/retainflow/llm"
	"github.com/BaSui01/retainflow/types"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountRecorder appends audit entries. Implementations must be safe for concurrent use.
type AccountRecorder interface {
	Append(ctx context.Context, entry types.AuditEntry) error
}

// StatusUpdater optionally mirrors an action onto the customer record.
type StatusUpdater interface {
	UpdateStatus(ctx context.Context, customerID, status string) error
}

// Config tunes confirmation replies.
type Config struct {
	Model       string
	Temperature float32
}

// Processor executes account actions.
// It is not idempotent: every Process call writes one audit entry.
type Processor struct {
	recorder AccountRecorder
	status   StatusUpdater
	caller   llm.Caller
	cfg      Config
	logger   *zap.Logger
	now      func() time.Time
}

// New creates a Processor. status may be nil.
func New(recorder AccountRecorder, status StatusUpdater, caller llm.Caller, cfg Config, logger *zap.Logger) *Processor {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Processor{
		recorder: recorder,
		status:   status,
		caller:   caller,
		cfg:      cfg,
		logger:   logger.With(zap.String("component", "processor")),
		now:      time.Now,
	}
}

// Process validates action, records it and returns the canned outcome.
// An action outside the closed set fails with types.ErrInvalidAction.
func (p *Processor) Process(ctx context.Context, customerID string, action types.AccountAction, reason string) (*types.ActionResult, error) {
	if !action.Valid() {
		return nil, types.NewInvalidActionError(string(action))
	}
	if strings.TrimSpace(reason) == "" {
		reason = types.DefaultAuditReason
	}

	ts := p.now().UTC()
	entry := types.AuditEntry{
		ID:         uuid.NewString(),
		CustomerID: customerID,
		Action:     action,
		Reason:     reason,
		Status:     types.AuditStatusCompleted,
		Timestamp:  ts,
	}
	if err := p.recorder.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("record %s for %s: %w", action, customerID, err)
	}

	if p.status != nil {
		if status, ok := statusAfter(action); ok {
			if err := p.status.UpdateStatus(ctx, customerID, status); err != nil {
				// the audit entry is the system of record
				p.logger.Warn("customer status update failed",
					zap.String("customer_id", customerID), zap.String("status", status), zap.Error(err))
			}
		}
	}

	p.logger.Info("account action processed",
		zap.String("customer_id", customerID),
		zap.String("action", string(action)),
		zap.String("reason", reason),
	)
	return &types.ActionResult{
		Success:   true,
		Action:    action,
		Message:   ActionMessage(action, customerID),
		Timestamp: ts,
	}, nil
}

// ActionMessage is the canned outcome text for action.
func ActionMessage(action types.AccountAction, customerID string) string {
	switch action {
	case types.ActionCancel:
		return fmt.Sprintf("Cancellation processed for customer %s. Service will end at billing cycle.", customerID)
	case types.ActionPause:
		return fmt.Sprintf("Account paused for customer %s. No charges during paused period.", customerID)
	case types.ActionDowngrade:
		return fmt.Sprintf("Plan downgraded for customer %s. New rate effective next billing cycle.", customerID)
	case types.ActionRetain:
		return fmt.Sprintf("Customer %s retained. Retention offer applied.", customerID)
	case types.ActionUpgrade:
		return fmt.Sprintf("Plan upgraded for customer %s. New benefits active immediately.", customerID)
	}
	return ""
}

func statusAfter(action types.AccountAction) (string, bool) {
	switch action {
	case types.ActionCancel:
		return types.StatusCancelled, true
	case types.ActionPause:
		return types.StatusPaused, true
	case types.ActionRetain, types.ActionUpgrade, types.ActionDowngrade:
		return types.StatusActive, true
	}
	return "", false
}
