package audit

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/types"
)

// Sink appends audit entries. Implementations must be safe for concurrent use.
type Sink interface {
	Append(ctx context.Context, entry types.AuditEntry) error
}

// ResultObserver receives the outcome of every append made through Multi.
type ResultObserver interface {
	RecordAuditAppend(sink string, err error)
}

// Named pairs a sink with the name used in logs and metrics.
type Named struct {
	Name string
	Sink Sink
}

// Multi appends to every sink in order. All sinks are attempted; failures
// are joined into the returned error.
type Multi struct {
	sinks    []Named
	observer ResultObserver
	logger   *zap.Logger
}

// NewMulti creates a fan-out sink. observer may be nil.
func NewMulti(sinks []Named, observer ResultObserver, logger *zap.Logger) *Multi {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Multi{sinks: sinks, observer: observer, logger: logger.With(zap.String("component", "audit"))}
}

// Append implements Sink.
func (m *Multi) Append(ctx context.Context, entry types.AuditEntry) error {
	var errs []error
	for _, s := range m.sinks {
		err := s.Sink.Append(ctx, entry)
		if m.observer != nil {
			m.observer.RecordAuditAppend(s.Name, err)
		}
		if err != nil {
			m.logger.Error("audit append failed",
				zap.String("sink", s.Name),
				zap.String("customer_id", entry.CustomerID),
				zap.String("action", string(entry.Action)),
				zap.Error(err))
			errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
		}
	}
	return errors.Join(errs...)
}

// Names lists the configured sinks.
func (m *Multi) Names() []string {
	names := make([]string, len(m.sinks))
	for i, s := range m.sinks {
		names[i] = s.Name
	}
	return names
}

// Close closes every sink that holds resources.
func (m *Multi) Close() error {
	var errs []error
	for _, s := range m.sinks {
		if c, ok := s.Sink.(interface{ Close() error }); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", s.Name, err))
			}
		}
	}
	return errors.Join(errs...)
}
