package types

// Intent is the coarse category of a customer need.
type Intent string

const (
	IntentCancellation Intent = "cancellation"
	IntentTechnical    Intent = "technical"
	IntentBilling      Intent = "billing"
	IntentGeneral      Intent = "general"
)

// Valid reports whether the intent is one of the known categories.
func (i Intent) Valid() bool {
	switch i {
	case IntentCancellation, IntentTechnical, IntentBilling, IntentGeneral:
		return true
	}
	return false
}

// IntentResult is the classifier output.
type IntentResult struct {
	Intent     Intent  `json:"intent"`
	Confidence float64 `json:"confidence"`
	Reasoning  string  `json:"reasoning"`
}

// DefaultIntent is returned whenever classification output cannot be trusted.
func DefaultIntent() IntentResult {
	return IntentResult{Intent: IntentGeneral, Confidence: 0.5, Reasoning: "parse failure"}
}

// CancellationReason is the category detected once by retention.
type CancellationReason string

const (
	ReasonCost        CancellationReason = "cost"
	ReasonNotUsing    CancellationReason = "not_using"
	ReasonPhoneIssues CancellationReason = "phone_issues"
	ReasonCompetitor  CancellationReason = "competitor"
	ReasonValue       CancellationReason = "value"
	ReasonTemporary   CancellationReason = "temporary"
	ReasonOther       CancellationReason = "other"
)

// ParseCancellationReason normalizes free text into a known reason; unknown values map to ReasonOther.
func ParseCancellationReason(s string) CancellationReason {
	switch r := CancellationReason(normalizeToken(s)); r {
	case ReasonCost, ReasonNotUsing, ReasonPhoneIssues, ReasonCompetitor, ReasonValue, ReasonTemporary, ReasonOther:
		return r
	}
	return ReasonOther
}
