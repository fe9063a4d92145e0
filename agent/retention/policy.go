package retention

import (
	"regexp"
	"strings"
)

const (
	// MinOffersBeforeEscalation is the offer count after which insistence alone escalates.
	MinOffersBeforeEscalation = 2

	// OfferSoftCap is the number of offers after which no new offer is proposed.
	OfferSoftCap = 3
)

// Lexicon holds the phrase tables the escalation decision matches against.
type Lexicon struct {
	Insistence []string `yaml:"insistence" json:"insistence"`
	Refusal    []string `yaml:"refusal" json:"refusal"`
}

// DefaultLexicon returns the stock phrase tables.
func DefaultLexicon() Lexicon {
	return Lexicon{
		Insistence: []string{
			"just cancel",
			"cancel it now",
			"want to cancel",
			"please cancel",
			"stop the service",
			"end my subscription",
			"i said cancel",
			"not interested",
			"no thanks just cancel",
		},
		Refusal: []string{
			"no",
			"not interested",
			"don't want",
			"already decided",
		},
	}
}

// EscalationPolicy decides when retention must hand off to the processor.
// Phrases match case-insensitively on word boundaries.
type EscalationPolicy struct {
	insistence []*regexp.Regexp
	refusal    []*regexp.Regexp
	minOffers  int
}

// NewEscalationPolicy compiles lex. minOffers <= 0 uses MinOffersBeforeEscalation.
func NewEscalationPolicy(lex Lexicon, minOffers int) *EscalationPolicy {
	if minOffers <= 0 {
		minOffers = MinOffersBeforeEscalation
	}
	return &EscalationPolicy{
		insistence: compilePhrases(lex.Insistence),
		refusal:    compilePhrases(lex.Refusal),
		minOffers:  minOffers,
	}
}

// ShouldEscalate reports whether the negotiation must end.
func (p *EscalationPolicy) ShouldEscalate(message string, offersCount int) bool {
	msg := normalize(message)
	if !matchAny(p.insistence, msg) {
		return false
	}
	return offersCount >= p.minOffers || matchAny(p.refusal, msg)
}

func compilePhrases(phrases []string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(phrases))
	for _, ph := range phrases {
		ph = normalize(strings.TrimSpace(ph))
		if ph == "" {
			continue
		}
		words := strings.Fields(ph)
		for i, w := range words {
			words[i] = regexp.QuoteMeta(w)
		}
		out = append(out, regexp.MustCompile(`\b`+strings.Join(words, `\s+`)+`\b`))
	}
	return out
}

func matchAny(res []*regexp.Regexp, s string) bool {
	for _, re := range res {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

var apostrophes = strings.NewReplacer("’", "'", "‘", "'")

func normalize(s string) string {
	return apostrophes.Replace(strings.ToLower(s))
}
