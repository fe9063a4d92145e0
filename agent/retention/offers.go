package retention

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"

	"github.com/BaSui01/retainflow/types"
)

// Offer categories in the rules file.
const (
	CategoryFinancialHardship = "financial_hardship"
	CategoryProductIssues     = "product_issues"
	CategoryServiceValue      = "service_value"
)

// Customer types in the rules file.
const (
	CustomerPremium = "premium_customers"
	CustomerRegular = "regular_customers"
	CustomerNew     = "new_customers"
)

// RuleOffer is one entry of retention_rules.json.
type RuleOffer struct {
	Type           string   `json:"type"`
	Description    string   `json:"description"`
	Percentage     float64  `json:"percentage,omitempty"`
	DurationMonths int      `json:"duration_months,omitempty"`
	NewCost        float64  `json:"new_cost,omitempty"`
	Savings        float64  `json:"savings,omitempty"`
	Cost           *float64 `json:"cost,omitempty"`
	NewPlan        string   `json:"new_plan,omitempty"`
	RefundPromise  string   `json:"refund_promise,omitempty"`
	Benefits       []string `json:"benefits,omitempty"`
	Authorization  string   `json:"authorization,omitempty"`
}

// AgentLimits is what a frontline agent may grant without approval.
type AgentLimits struct {
	MaxDiscountPercentage float64 `json:"max_discount_percentage"`
	CanPause              bool    `json:"can_pause"`
	CanDowngrade          bool    `json:"can_downgrade"`
}

// Rules mirrors retention_rules.json.
type Rules struct {
	FinancialHardship   map[string][]RuleOffer `json:"financial_hardship"`
	ProductIssues       map[string][]RuleOffer `json:"product_issues"`
	ServiceValue        map[string][]RuleOffer `json:"service_value"`
	AuthorizationLevels struct {
		Agent *AgentLimits `json:"agent"`
	} `json:"authorization_levels"`
}

// PlannedOffer is an offer the agent may present.
type PlannedOffer struct {
	types.Offer
	Authorization string `json:"authorization"`
}

// OfferPlan is the calculator's answer for one customer and reason.
type OfferPlan struct {
	CustomerType   string         `json:"customer_type"`
	Category       string         `json:"category"`
	SubCategory    string         `json:"sub_category,omitempty"`
	Offers         []PlannedOffer `json:"offers"`
	Recommendation string         `json:"recommendation"`
	Limits         AgentLimits    `json:"agent_can_authorize"`
}

// Calculator maps reason and tier onto the offer catalogue.
type Calculator struct {
	rules *Rules
}

// NewCalculator uses rules; nil rules yields the default offers for every request.
func NewCalculator(rules *Rules) *Calculator {
	return &Calculator{rules: rules}
}

// LoadRules reads a rules file. A missing file returns (nil, nil).
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read retention rules: %w", err)
	}
	var r Rules
	if err := json.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("parse retention rules %s: %w", path, err)
	}
	return &r, nil
}

// Calculate returns the offers for a customer tier and cancellation reason.
func (c *Calculator) Calculate(tier string, reason string) OfferPlan {
	category, sub := CategoryForReason(reason)
	plan := OfferPlan{
		CustomerType: CustomerTypeForTier(tier),
		Category:     category,
		SubCategory:  sub,
		Limits:       AgentLimits{MaxDiscountPercentage: 25, CanPause: true, CanDowngrade: true},
	}
	if c.rules == nil {
		plan.Offers = defaultOffers()
		plan.Recommendation = "Start by understanding their concern. Offer pause for temporary issues, discount for cost concerns."
		return plan
	}

	var raw []RuleOffer
	switch category {
	case CategoryFinancialHardship:
		raw = c.rules.FinancialHardship[plan.CustomerType]
	case CategoryProductIssues:
		raw = c.rules.ProductIssues[sub]
	case CategoryServiceValue:
		raw = c.rules.ServiceValue["care_plus_premium"]
	}
	for _, r := range raw {
		plan.Offers = append(plan.Offers, toPlanned(r))
	}
	if len(plan.Offers) == 0 {
		plan.Offers = defaultOffers()
	}
	if l := c.rules.AuthorizationLevels.Agent; l != nil {
		plan.Limits = *l
	}
	plan.Recommendation = recommendation(category, sub)
	return plan
}

// CategoryForReason maps a reason (a detected category or free text) onto a rules category.
func CategoryForReason(reason string) (category, sub string) {
	r := strings.ToLower(strings.TrimSpace(reason))
	switch {
	case containsAny(r, "cost", "afford", "expensive", "money", "price", "financial"):
		return CategoryFinancialHardship, ""
	case containsAny(r, "overheat", "hot", "heat"):
		return CategoryProductIssues, "overheating"
	case containsAny(r, "battery", "charge", "charging", "power"):
		return CategoryProductIssues, "battery_issues"
	case containsAny(r, "broken", "defect", "malfunction", "not working", "phone_issues", "phone issues"):
		return CategoryProductIssues, "overheating"
	case containsAny(r, "value", "worth", "never used", "not using", "not_using", "don't use"):
		return CategoryServiceValue, ""
	}
	return CategoryFinancialHardship, ""
}

// CustomerTypeForTier maps a customer tier onto a rules customer type.
func CustomerTypeForTier(tier string) string {
	switch strings.ToLower(strings.TrimSpace(tier)) {
	case "gold", "premium":
		return CustomerPremium
	case "basic", "new":
		return CustomerNew
	default:
		return CustomerRegular
	}
}

func toPlanned(r RuleOffer) PlannedOffer {
	auth := r.Authorization
	if auth == "" {
		auth = "agent"
	}
	if types.ParseOfferType(r.Type) == types.OfferExplainBenefits {
		return PlannedOffer{
			Offer: types.Offer{
				Type:        types.OfferExplainBenefits,
				Description: "Explain the value of their current plan",
				Details:     "Benefits: " + strings.Join(r.Benefits, "; "),
			},
			Authorization: "agent",
		}
	}
	return PlannedOffer{
		Offer: types.Offer{
			Type:        types.ParseOfferType(r.Type),
			Description: r.Description,
			Details:     formatDetails(r),
		},
		Authorization: auth,
	}
}

func formatDetails(r RuleOffer) string {
	var parts []string
	if r.Percentage > 0 {
		parts = append(parts, fmt.Sprintf("%g%% discount", r.Percentage))
	}
	if r.DurationMonths > 0 {
		parts = append(parts, fmt.Sprintf("for %d months", r.DurationMonths))
	}
	if r.NewCost > 0 {
		parts = append(parts, fmt.Sprintf("new cost: $%.2f/month", r.NewCost))
	}
	if r.Savings > 0 {
		parts = append(parts, fmt.Sprintf("saves $%.2f/month", r.Savings))
	}
	if r.Cost != nil && *r.Cost == 0 {
		parts = append(parts, "free")
	}
	if r.NewPlan != "" {
		parts = append(parts, "switch to "+r.NewPlan)
	}
	if r.RefundPromise != "" {
		parts = append(parts, r.RefundPromise)
	}
	if len(parts) == 0 {
		return r.Description
	}
	return strings.Join(parts, " | ")
}

func defaultOffers() []PlannedOffer {
	return []PlannedOffer{
		{Offer: types.Offer{Type: types.OfferDiscount, Description: "25% discount for 3 months", Details: "Reduced rate to help with costs"}, Authorization: "agent"},
		{Offer: types.Offer{Type: types.OfferPause, Description: "Pause subscription for up to 3 months", Details: "No charges during pause period"}, Authorization: "agent"},
		{Offer: types.Offer{Type: types.OfferDowngrade, Description: "Switch to a lower-cost plan", Details: "Keep coverage at reduced price"}, Authorization: "agent"},
	}
}

func recommendation(category, sub string) string {
	switch category {
	case CategoryFinancialHardship:
		return "Start with empathy about their financial situation. Offer the pause option first (no commitment), then discuss discounts if they prefer to keep service active."
	case CategoryProductIssues:
		if sub == "battery_issues" {
			return "Offer free battery replacement first. This is usually a quick fix that saves the customer relationship."
		}
		return "Apologize for the device issue. Offer free replacement immediately. If they still want to cancel after replacement offered, don't push."
	case CategoryServiceValue:
		return "Don't be defensive. Walk them through the specific benefits and their value. If they are still unsure, offer the trial extension with refund promise."
	}
	return "Listen to their concerns first. Match the offer to their specific situation."
}

func containsAny(s string, words ...string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
