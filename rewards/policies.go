/*
policies.go - Pre-built payout rulesets

PURPOSE:
  Provides the reviewed ruleset the agency pays with today. Other rulesets
  are loaded from YAML/JSON through the factory package; this one is the
  fallback when no ruleset file is configured and the baseline tests pin.

DEFAULT RULESET ("live-agency-2025"):
  Tiers (rates already include the +0.5 point uplift):
    <75 000               base 0.000  boost 0.000
    75 000-500 000        base 0.015  boost 0.020
    500 000-1 000 000     base 0.020  boost 0.025
    1 000 000-2 000 000   base 0.025  boost 0.030
    2 000 000-∞           base 0.030  boost 0.035

  Minimums:   12 live days, 25 live hours
  Boost:      20 live days and 80 live hours
  Beginner:   7 days / 15 hours, tier 75 000-500 000 only, joined < 90 days
              ago, never reached 150k
  Rounding:   down to a multiple of 100 diamonds
  Threshold:  150 000 diamonds in a single period ("150k")
  Status:     default-deny (anything not an explicit "no" is excluded)

SEE ALSO:
  - ruleset.go: Ruleset type and validation
  - factory/ruleset.go: Loading rulesets from documents
*/
package rewards

import (
	"github.com/shopspring/decimal"
)

// DefaultRulesetVersion identifies DefaultRuleset in logs and API output.
const DefaultRulesetVersion = "live-agency-2025"

// DefaultRuleset returns a fresh copy of the reviewed default ruleset.
func DefaultRuleset() *Ruleset {
	return &Ruleset{
		Version: DefaultRulesetVersion,
		Tiers: []Tier{
			tier("<75 000", 0, 75_000, "0", "0"),
			tier("75 000-500 000", 75_000, 500_000, "0.015", "0.020"),
			tier("500 000-1 000 000", 500_000, 1_000_000, "0.020", "0.025"),
			tier("1 000 000-2 000 000", 1_000_000, 2_000_000, "0.025", "0.030"),
			tier("2 000 000-∞", 2_000_000, -1, "0.030", "0.035"),
		},
		MinDays:       12,
		MinHours:      25,
		BoostDays:     20,
		BoostHours:    80,
		RoundStep:     100,
		Threshold:     decimal.NewFromInt(150_000),
		ThresholdName: "150k",
		Beginner: BeginnerRules{
			Tier:             "75 000-500 000",
			MaxDaysSinceJoin: 90,
			MinDays:          7,
			MinHours:         15,
		},
		Status:         DefaultStatusRules(),
		RequiredFields: append([]Field(nil), AllFields...),
	}
}

// tier builds a Tier; hi < 0 means unbounded.
func tier(name string, lo, hi int64, base, boost string) Tier {
	t := Tier{
		Name:  name,
		Min:   decimal.NewFromInt(lo),
		Base:  decimal.RequireFromString(base),
		Boost: decimal.RequireFromString(boost),
		Bonus: decimal.Zero,
	}
	if hi >= 0 {
		m := decimal.NewFromInt(hi)
		t.Max = &m
	}
	return t
}
