package customer

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/BaSui01/retainflow/config"
	"github.com/BaSui01/retainflow/types"
)

// ErrNotFound is returned by UpdateStatus for an unknown customer id.
var ErrNotFound = errors.New("customer not found")

// Store looks up and updates customer records. Implementations must be safe
// for concurrent use.
type Store interface {
	LookupCustomer(ctx context.Context, email string) (*types.CustomerRecord, error)
	UpdateStatus(ctx context.Context, customerID, status string) error
}

// New builds the backend selected by cfg.Backend. db is required for the
// database backend and ignored otherwise.
func New(cfg config.CustomersConfig, db *gorm.DB, logger *zap.Logger) (Store, error) {
	switch cfg.Backend {
	case "", "csv":
		return NewCSVStore(cfg.CSVPath, logger)
	case "database":
		if db == nil {
			return nil, fmt.Errorf("customer backend %q requires a database", cfg.Backend)
		}
		return NewGormStore(db, logger), nil
	default:
		return nil, fmt.Errorf("unsupported customer backend: %s", cfg.Backend)
	}
}

func notFound() *types.CustomerRecord {
	return &types.CustomerRecord{Found: false}
}
