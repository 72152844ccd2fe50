package rewards

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// ResolveTier returns the tier matching amount.
//
// Tiers are checked in table order: an unbounded tier matches at or above its
// lower bound, a bounded tier matches in [Min, Max). If nothing matches the
// first tier is returned; a validated table always matches.
func ResolveTier(amount decimal.Decimal, tiers []Tier) Tier {
	for _, t := range tiers {
		if t.Contains(amount) {
			return t
		}
	}
	if len(tiers) == 0 {
		return Tier{}
	}
	return tiers[0]
}

// ValidateTiers checks that tiers partition [0, inf) with no gaps or
// overlaps. It returns one message per problem found.
func ValidateTiers(tiers []Tier) []string {
	if len(tiers) == 0 {
		return []string{"tier table is empty"}
	}

	var problems []string
	seen := make(map[string]bool, len(tiers))

	if !tiers[0].Min.IsZero() {
		problems = append(problems, fmt.Sprintf("first tier %q must start at 0, starts at %s", tiers[0].Name, tiers[0].Min))
	}

	for i, t := range tiers {
		if t.Name == "" {
			problems = append(problems, fmt.Sprintf("tier %d has no name", i))
		} else if seen[t.Name] {
			problems = append(problems, fmt.Sprintf("duplicate tier name %q", t.Name))
		}
		seen[t.Name] = true

		if t.Base.IsNegative() || t.Boost.IsNegative() || t.Bonus.IsNegative() {
			problems = append(problems, fmt.Sprintf("tier %q has a negative rate or bonus", t.Name))
		}

		last := i == len(tiers)-1
		if t.Max == nil {
			if !last {
				problems = append(problems, fmt.Sprintf("tier %q is unbounded but is not the last tier", t.Name))
			}
			continue
		}
		if !t.Max.GreaterThan(t.Min) {
			problems = append(problems, fmt.Sprintf("tier %q upper bound %s must exceed lower bound %s", t.Name, t.Max, t.Min))
		}
		if last {
			problems = append(problems, fmt.Sprintf("last tier %q must be unbounded", t.Name))
			continue
		}
		next := tiers[i+1]
		switch {
		case t.Max.LessThan(next.Min):
			problems = append(problems, fmt.Sprintf("gap between %q and %q: [%s, %s)", t.Name, next.Name, t.Max, next.Min))
		case t.Max.GreaterThan(next.Min):
			problems = append(problems, fmt.Sprintf("overlap between %q and %q: [%s, %s)", t.Name, next.Name, next.Min, t.Max))
		}
	}

	return problems
}

// TierByName returns the named tier.
func TierByName(tiers []Tier, name string) (Tier, bool) {
	for _, t := range tiers {
		if t.Name == name {
			return t, true
		}
	}
	return Tier{}, false
}
