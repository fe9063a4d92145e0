package types

import "strings"

// OfferType identifies the kind of retention incentive.
type OfferType string

const (
	OfferDiscount        OfferType = "discount"
	OfferPause           OfferType = "pause"
	OfferDowngrade       OfferType = "downgrade"
	OfferReplacement     OfferType = "replacement"
	OfferExplainBenefits OfferType = "explain_benefits"
	OfferTrialExtension  OfferType = "trial_extension"
	OfferOther           OfferType = "other"
)

// ParseOfferType normalizes s into a known offer type; unknown values map to OfferOther.
func ParseOfferType(s string) OfferType {
	switch t := OfferType(normalizeToken(s)); t {
	case OfferDiscount, OfferPause, OfferDowngrade, OfferReplacement, OfferExplainBenefits, OfferTrialExtension:
		return t
	}
	return OfferOther
}

// Offer is one retention incentive presented to the customer. Immutable once recorded.
type Offer struct {
	Type        OfferType `json:"type"`
	Description string    `json:"description"`
	Details     string    `json:"details,omitempty"`
}

func normalizeToken(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, "-", "_")
	return strings.ReplaceAll(s, " ", "_")
}
