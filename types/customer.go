package types

import "fmt"

// Customer account statuses.
const (
	StatusActive    = "active"
	StatusPaused    = "paused"
	StatusCancelled = "cancelled"
)

// CustomerRecord is the result of a customer-store lookup.
// Found is false when no record matched; the other fields are then empty.
type CustomerRecord struct {
	Found               bool    `json:"found"`
	CustomerID          string  `json:"customer_id,omitempty"`
	Email               string  `json:"email,omitempty"`
	Phone               string  `json:"phone,omitempty"`
	Name                string  `json:"name,omitempty"`
	PlanType            string  `json:"plan_type,omitempty"`
	MonthlyCharge       float64 `json:"monthly_charge,omitempty"`
	SignupDate          string  `json:"signup_date,omitempty"`
	Status              string  `json:"status,omitempty"`
	TotalSpent          float64 `json:"total_spent,omitempty"`
	SupportTicketsCount int     `json:"support_tickets_count,omitempty"`
	AccountHealthScore  int     `json:"account_health_score,omitempty"`
	TenureMonths        int     `json:"tenure_months,omitempty"`
	Tier                string  `json:"tier,omitempty"`
	Device              string  `json:"device,omitempty"`
	PurchaseDate        string  `json:"purchase_date,omitempty"`
}

// Clone returns a copy of the record. A nil receiver yields nil.
func (c *CustomerRecord) Clone() *CustomerRecord {
	if c == nil {
		return nil
	}
	cp := *c
	return &cp
}

// Summary renders the record for prompt context.
func (c *CustomerRecord) Summary() string {
	if c == nil || !c.Found {
		return "Customer not yet identified."
	}
	return fmt.Sprintf("Name: %s\nCustomer ID: %s\nPlan: %s ($%.2f/month)\nTier: %s\nTenure: %d months\nDevice: %s\nStatus: %s",
		c.Name, c.CustomerID, c.PlanType, c.MonthlyCharge, c.Tier, c.TenureMonths, c.Device, c.Status)
}
