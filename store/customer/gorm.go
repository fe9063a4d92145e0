package customer

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/BaSui01/retainflow/types"
)

// Customer is the customers table row.
type Customer struct {
	CustomerID          string    `gorm:"primaryKey;size:64" json:"customer_id"`
	Email               string    `gorm:"size:255;not null;index:idx_customers_email" json:"email"`
	Phone               string    `gorm:"size:64" json:"phone"`
	Name                string    `gorm:"size:255" json:"name"`
	PlanType            string    `gorm:"size:64" json:"plan_type"`
	MonthlyCharge       float64   `json:"monthly_charge"`
	SignupDate          string    `gorm:"size:32" json:"signup_date"`
	Status              string    `gorm:"size:32;default:active" json:"status"`
	TotalSpent          float64   `json:"total_spent"`
	SupportTicketsCount int       `json:"support_tickets_count"`
	AccountHealthScore  int       `json:"account_health_score"`
	TenureMonths        int       `json:"tenure_months"`
	Tier                string    `gorm:"size:32" json:"tier"`
	Device              string    `gorm:"size:128" json:"device"`
	PurchaseDate        string    `gorm:"size:32" json:"purchase_date"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

// TableName 指定表名
func (Customer) TableName() string {
	return "customers"
}

// Record converts the row to a found CustomerRecord.
func (c Customer) Record() *types.CustomerRecord {
	return &types.CustomerRecord{
		Found:               true,
		CustomerID:          c.CustomerID,
		Email:               c.Email,
		Phone:               c.Phone,
		Name:                c.Name,
		PlanType:            c.PlanType,
		MonthlyCharge:       c.MonthlyCharge,
		SignupDate:          c.SignupDate,
		Status:              c.Status,
		TotalSpent:          c.TotalSpent,
		SupportTicketsCount: c.SupportTicketsCount,
		AccountHealthScore:  c.AccountHealthScore,
		TenureMonths:        c.TenureMonths,
		Tier:                c.Tier,
		Device:              c.Device,
		PurchaseDate:        c.PurchaseDate,
	}
}

// FromRecord converts a CustomerRecord to a row.
func FromRecord(r types.CustomerRecord) Customer {
	return Customer{
		CustomerID:          r.CustomerID,
		Email:               r.Email,
		Phone:               r.Phone,
		Name:                r.Name,
		PlanType:            r.PlanType,
		MonthlyCharge:       r.MonthlyCharge,
		SignupDate:          r.SignupDate,
		Status:              r.Status,
		TotalSpent:          r.TotalSpent,
		SupportTicketsCount: r.SupportTicketsCount,
		AccountHealthScore:  r.AccountHealthScore,
		TenureMonths:        r.TenureMonths,
		Tier:                r.Tier,
		Device:              r.Device,
		PurchaseDate:        r.PurchaseDate,
	}
}

// GormStore keeps customers in a SQL database.
type GormStore struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewGormStore creates a database-backed store.
func NewGormStore(db *gorm.DB, logger *zap.Logger) *GormStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GormStore{db: db, logger: logger.With(zap.String("component", "customer_db"))}
}

// AutoMigrate creates the customers table when migrations are not in use.
func (s *GormStore) AutoMigrate(ctx context.Context) error {
	return s.db.WithContext(ctx).AutoMigrate(&Customer{})
}

// LookupCustomer implements Store.
func (s *GormStore) LookupCustomer(ctx context.Context, email string) (*types.CustomerRecord, error) {
	var c Customer
	err := s.db.WithContext(ctx).
		Where("LOWER(email) = ?", normalizeEmail(email)).
		Take(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return notFound(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("lookup customer: %w", err)
	}
	return c.Record(), nil
}

// UpdateStatus implements Store.
func (s *GormStore) UpdateStatus(ctx context.Context, customerID, status string) error {
	res := s.db.WithContext(ctx).
		Model(&Customer{}).
		Where("customer_id = ?", customerID).
		Update("status", status)
	if res.Error != nil {
		return fmt.Errorf("update customer status: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, customerID)
	}
	s.logger.Info("customer status updated",
		zap.String("customer_id", customerID),
		zap.String("status", status))
	return nil
}

// Seed upserts records by customer id and returns the number written.
func (s *GormStore) Seed(ctx context.Context, records []types.CustomerRecord) (int, error) {
	if len(records) == 0 {
		return 0, nil
	}
	rows := make([]Customer, 0, len(records))
	for _, r := range records {
		if r.CustomerID == "" || r.Email == "" {
			s.logger.Warn("skipping customer without id or email", zap.String("email", r.Email))
			continue
		}
		rows = append(rows, FromRecord(r))
	}
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "customer_id"}},
			UpdateAll: true,
		}).
		CreateInBatches(rows, 100).Error
	if err != nil {
		return 0, fmt.Errorf("seed customers: %w", err)
	}
	return len(rows), nil
}
