package retention

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/BaSui01/retainflow/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const rulesFixture = `{
  "financial_hardship": {
    "premium_customers": [
      {"type": "pause", "description": "Pause for 3 months", "duration_months": 3, "cost": 0},
      {"type": "discount", "description": "50% off", "percentage": 50, "duration_months": 6, "authorization": "manager"}
    ],
    "regular_customers": [
      {"type": "discount", "description": "25% off", "percentage": 25, "duration_months": 3}
    ]
  },
  "product_issues": {
    "overheating": [{"type": "replacement", "description": "Free device replacement", "cost": 0}],
    "battery_issues": [{"type": "replacement", "description": "Free battery replacement", "cost": 0}]
  },
  "service_value": {
    "care_plus_premium": [
      {"type": "explain_benefits", "benefits": ["Screen repairs", "Battery swaps"]},
      {"type": "trial_extension", "description": "One more month", "refund_promise": "full refund if unused"}
    ]
  },
  "authorization_levels": {"agent": {"max_discount_percentage": 30, "can_pause": true, "can_downgrade": false}}
}`

func loadFixture(t *testing.T) *Rules {
	t.Helper()
	path := filepath.Join(t.TempDir(), "retention_rules.json")
	require.NoError(t, os.WriteFile(path, []byte(rulesFixture), 0o600))
	rules, err := LoadRules(path)
	require.NoError(t, err)
	require.NotNil(t, rules)
	return rules
}

func TestLoadRules_Missing(t *testing.T) {
	rules, err := LoadRules(filepath.Join(t.TempDir(), "nope.json"))
	assert.NoError(t, err)
	assert.Nil(t, rules)
}

func TestLoadRules_Invalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))
	_, err := LoadRules(path)
	assert.Error(t, err)
}

func TestCategoryForReason(t *testing.T) {
	tests := []struct {
		reason, category, sub string
	}{
		{"cost", CategoryFinancialHardship, ""},
		{"can't afford it", CategoryFinancialHardship, ""},
		{"phone keeps overheating", CategoryProductIssues, "overheating"},
		{"battery dies", CategoryProductIssues, "battery_issues"},
		{"phone_issues", CategoryProductIssues, "overheating"},
		{"not_using", CategoryServiceValue, ""},
		{"value", CategoryServiceValue, ""},
		{"competitor", CategoryFinancialHardship, ""},
	}
	for _, tt := range tests {
		c, s := CategoryForReason(tt.reason)
		assert.Equal(t, tt.category, c, tt.reason)
		assert.Equal(t, tt.sub, s, tt.reason)
	}
}

func TestCustomerTypeForTier(t *testing.T) {
	assert.Equal(t, CustomerPremium, CustomerTypeForTier("Gold"))
	assert.Equal(t, CustomerRegular, CustomerTypeForTier("silver"))
	assert.Equal(t, CustomerNew, CustomerTypeForTier("basic"))
	assert.Equal(t, CustomerRegular, CustomerTypeForTier(""))
}

func TestCalculate_FromRules(t *testing.T) {
	calc := NewCalculator(loadFixture(t))

	plan := calc.Calculate("gold", "cost")
	assert.Equal(t, CustomerPremium, plan.CustomerType)
	require.Len(t, plan.Offers, 2)
	assert.Equal(t, types.OfferPause, plan.Offers[0].Type)
	assert.Equal(t, "for 3 months | free", plan.Offers[0].Details)
	assert.Equal(t, "manager", plan.Offers[1].Authorization)
	assert.Equal(t, "agent", plan.Offers[0].Authorization)
	assert.InDelta(t, 30, plan.Limits.MaxDiscountPercentage, 1e-9)
	assert.False(t, plan.Limits.CanDowngrade)

	plan = calc.Calculate("silver", "value")
	require.Len(t, plan.Offers, 2)
	assert.Equal(t, types.OfferExplainBenefits, plan.Offers[0].Type)
	assert.Equal(t, "Benefits: Screen repairs; Battery swaps", plan.Offers[0].Details)
	assert.Equal(t, types.OfferTrialExtension, plan.Offers[1].Type)
	assert.Contains(t, plan.Recommendation, "benefits")

	plan = calc.Calculate("gold", "battery")
	require.Len(t, plan.Offers, 1)
	assert.Equal(t, "Free battery replacement", plan.Offers[0].Description)
}

func TestCalculate_FallsBackToDefaults(t *testing.T) {
	plan := NewCalculator(nil).Calculate("gold", "cost")
	require.Len(t, plan.Offers, 3)
	assert.Equal(t, "25% discount for 3 months", plan.Offers[0].Description)

	// new customers have no financial hardship entries in the fixture
	plan = NewCalculator(loadFixture(t)).Calculate("basic", "cost")
	assert.Len(t, plan.Offers, 3)
}

func TestParseReason(t *testing.T) {
	assert.Equal(t, types.ReasonCost, parseReason("cost"))
	assert.Equal(t, types.ReasonNotUsing, parseReason("  Not_Using.\n"))
	assert.Equal(t, types.ReasonPhoneIssues, parseReason("`phone_issues`"))
	assert.Equal(t, types.ReasonOther, parseReason("I think it's about money"))
	assert.Equal(t, types.ReasonOther, parseReason(""))
}
