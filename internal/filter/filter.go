package filter

import "github.com/amishk599/staywatch/internal/model"

// Ensure RuleFilter implements model.ListingFilter.
var _ model.ListingFilter = (*RuleFilter)(nil)

// Match reports whether l satisfies r. Absent fields never reject a listing,
// bounds are inclusive, and only an explicit "no free cancellation" fails
// RequireFreeCancel.
func Match(l model.Listing, r model.Rules) bool {
	if l.PriceTotal != nil {
		if *l.PriceTotal < r.MinTotalPrice || *l.PriceTotal > r.MaxTotalPrice {
			return false
		}
	}
	if l.Rating != nil && *l.Rating < r.MinRating {
		return false
	}
	if r.RequireFreeCancel && l.FreeCancel == model.No {
		return false
	}
	return true
}

// RuleFilter applies a fixed rule set.
type RuleFilter struct {
	rules model.Rules
}

// NewRuleFilter returns a filter for rules.
func NewRuleFilter(rules model.Rules) *RuleFilter {
	return &RuleFilter{rules: rules}
}

// Rules returns the configured rules.
func (f *RuleFilter) Rules() model.Rules { return f.rules }

func (f *RuleFilter) Match(l model.Listing) bool {
	return Match(l, f.rules)
}
