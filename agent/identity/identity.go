// Package identity resolves the customer behind a conversation from an
// email address mentioned in free text.
package identity

import (
	"context"
	"regexp"

	"github.com/BaSui01/retainflow/types"
	"go.uber.org/zap"
)

var emailPattern = regexp.MustCompile(`[\w.\-+]+@[\w.\-]+\.\w+`)

// CustomerLookup finds a customer by email. Matching is case-insensitive.
// A missing customer is reported as a record with Found=false, not an error.
type CustomerLookup interface {
	LookupCustomer(ctx context.Context, email string) (*types.CustomerRecord, error)
}

// Identifier runs the identification gate.
type Identifier struct {
	lookup CustomerLookup
	logger *zap.Logger
}

// New creates an Identifier.
func New(lookup CustomerLookup, logger *zap.Logger) *Identifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Identifier{
		lookup: lookup,
		logger: logger.With(zap.String("component", "identity")),
	}
}

// ExtractEmail returns the first email address in text.
func ExtractEmail(text string) (string, bool) {
	m := emailPattern.FindString(text)
	return m, m != ""
}

// Identify returns current unchanged once it is resolved. Otherwise it looks
// up the first email in text and returns the record when the store found it.
// Lookup failures are logged and treated as not found.
func (i *Identifier) Identify(ctx context.Context, text string, current *types.CustomerRecord) (*types.CustomerRecord, error) {
	if current != nil && current.Found {
		return current, nil
	}
	email, ok := ExtractEmail(text)
	if !ok || i.lookup == nil {
		return nil, nil
	}

	rec, err := i.lookup.LookupCustomer(ctx, email)
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		i.logger.Warn("customer lookup failed", zap.String("email", email), zap.Error(err))
		return nil, nil
	}
	if rec == nil || !rec.Found {
		i.logger.Debug("customer not found", zap.String("email", email))
		return nil, nil
	}

	i.logger.Info("customer identified", zap.String("customer_id", rec.CustomerID))
	return rec, nil
}
