package customer

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/BaSui01/retainflow/types"
)

// csvColumns is the header of customers.csv.
var csvColumns = []string{
	"customer_id", "email", "phone", "name", "plan_type", "monthly_charge",
	"signup_date", "status", "total_spent", "support_tickets_count",
	"account_health_score", "tenure_months", "tier", "device", "purchase_date",
}

// CSVStore serves lookups from a CSV file loaded at construction.
// Status updates are kept in memory only.
type CSVStore struct {
	mu      sync.RWMutex
	byEmail map[string]*types.CustomerRecord
	byID    map[string]*types.CustomerRecord
	logger  *zap.Logger
}

// NewCSVStore loads path.
func NewCSVStore(path string, logger *zap.Logger) (*CSVStore, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open customer csv: %w", err)
	}
	defer f.Close()

	records, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("read customer csv %s: %w", path, err)
	}
	s := NewCSVStoreFromRecords(records, logger)
	s.logger.Info("customers loaded", zap.String("path", path), zap.Int("count", len(records)))
	return s, nil
}

// NewCSVStoreFromRecords builds a store over already parsed records.
func NewCSVStoreFromRecords(records []types.CustomerRecord, logger *zap.Logger) *CSVStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	s := &CSVStore{
		byEmail: make(map[string]*types.CustomerRecord, len(records)),
		byID:    make(map[string]*types.CustomerRecord, len(records)),
		logger:  logger.With(zap.String("component", "customer_csv")),
	}
	for i := range records {
		r := records[i]
		r.Found = true
		s.byEmail[normalizeEmail(r.Email)] = &r
		s.byID[r.CustomerID] = &r
	}
	return s
}

// LookupCustomer implements Store.
func (s *CSVStore) LookupCustomer(ctx context.Context, email string) (*types.CustomerRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.byEmail[normalizeEmail(email)]
	if !ok {
		return notFound(), nil
	}
	return r.Clone(), nil
}

// UpdateStatus implements Store.
func (s *CSVStore) UpdateStatus(ctx context.Context, customerID, status string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.byID[customerID]
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotFound, customerID)
	}
	r.Status = status
	return nil
}

// Len returns the number of loaded customers.
func (s *CSVStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

// ReadCSV parses customer rows keyed by header name. Unknown columns are
// ignored and numeric fields that fail to parse are left at zero.
func ReadCSV(r io.Reader) ([]types.CustomerRecord, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	header, err := cr.Read()
	if err == io.EOF {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	idx := make(map[string]int, len(header))
	for i, h := range header {
		idx[strings.TrimSpace(strings.TrimPrefix(h, "\ufeff"))] = i
	}
	if _, ok := idx["email"]; !ok {
		return nil, fmt.Errorf("missing email column")
	}

	var out []types.CustomerRecord
	for {
		row, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		get := func(col string) string {
			if i, ok := idx[col]; ok && i < len(row) {
				return strings.TrimSpace(row[i])
			}
			return ""
		}
		out = append(out, types.CustomerRecord{
			Found:               true,
			CustomerID:          get("customer_id"),
			Email:               get("email"),
			Phone:               get("phone"),
			Name:                get("name"),
			PlanType:            get("plan_type"),
			MonthlyCharge:       parseFloat(get("monthly_charge")),
			SignupDate:          get("signup_date"),
			Status:              get("status"),
			TotalSpent:          parseFloat(get("total_spent")),
			SupportTicketsCount: parseInt(get("support_tickets_count")),
			AccountHealthScore:  parseInt(get("account_health_score")),
			TenureMonths:        parseInt(get("tenure_months")),
			Tier:                get("tier"),
			Device:              get("device"),
			PurchaseDate:        get("purchase_date"),
		})
	}
	return out, nil
}

// WriteCSV writes records with the standard header.
func WriteCSV(w io.Writer, records []types.CustomerRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvColumns); err != nil {
		return err
	}
	for _, r := range records {
		row := []string{
			r.CustomerID, r.Email, r.Phone, r.Name, r.PlanType,
			strconv.FormatFloat(r.MonthlyCharge, 'f', 2, 64),
			r.SignupDate, r.Status,
			strconv.FormatFloat(r.TotalSpent, 'f', 2, 64),
			strconv.Itoa(r.SupportTicketsCount),
			strconv.Itoa(r.AccountHealthScore),
			strconv.Itoa(r.TenureMonths),
			r.Tier, r.Device, r.PurchaseDate,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(s, 64)
	return f
}

func parseInt(s string) int {
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	// "12.0" 之类的写法
	return int(parseFloat(s))
}
