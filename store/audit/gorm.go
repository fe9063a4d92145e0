package audit

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/BaSui01/retainflow/types"
)

// Entry is the audit_entries table row.
type Entry struct {
	ID         string    `gorm:"primaryKey;size:64"`
	CustomerID string    `gorm:"size:64;index:idx_audit_customer"`
	Action     string    `gorm:"size:32;not null"`
	Reason     string    `gorm:"type:text"`
	Status     string    `gorm:"size:32;not null"`
	Timestamp  time.Time `gorm:"not null;index:idx_audit_timestamp"`
}

// TableName 指定表名
func (Entry) TableName() string {
	return "audit_entries"
}

// GormSink writes entries to the audit_entries table.
type GormSink struct {
	db *gorm.DB
}

// NewGormSink creates a database sink.
func NewGormSink(db *gorm.DB) *GormSink {
	return &GormSink{db: db}
}

// AutoMigrate creates the table when migrations are not in use.
func (s *GormSink) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Entry{})
}

// Append implements Sink.
func (s *GormSink) Append(ctx context.Context, e types.AuditEntry) error {
	row := Entry{
		ID:         e.ID,
		CustomerID: e.CustomerID,
		Action:     string(e.Action),
		Reason:     e.Reason,
		Status:     e.Status,
		Timestamp:  e.Timestamp,
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return fmt.Errorf("insert audit entry: %w", err)
	}
	return nil
}

// ListByCustomer returns a customer's entries, oldest first.
func (s *GormSink) ListByCustomer(ctx context.Context, customerID string) ([]types.AuditEntry, error) {
	var rows []Entry
	err := s.db.WithContext(ctx).
		Where("customer_id = ?", customerID).
		Order("timestamp ASC").
		Find(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("list audit entries: %w", err)
	}
	out := make([]types.AuditEntry, len(rows))
	for i, r := range rows {
		out[i] = types.AuditEntry{
			ID:         r.ID,
			CustomerID: r.CustomerID,
			Action:     types.AccountAction(r.Action),
			Reason:     r.Reason,
			Status:     r.Status,
			Timestamp:  r.Timestamp,
		}
	}
	return out, nil
}
