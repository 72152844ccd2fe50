package rewards

import (
	"fmt"

	"github.com/shopspring/decimal"
	"github.com/warp/payout-engine/generic"
)

// =============================================================================
// RULESET - Every tunable constant of the engine
// =============================================================================

// Ruleset is one reviewed, versioned set of payout rules. A new ruleset is a
// data change (see factory.ParseRuleset), not a code change.
type Ruleset struct {
	Version string

	Tiers []Tier

	// Default activity minimums
	MinDays  int
	MinHours float64

	// Boost applies when both are met or exceeded
	BoostDays  int
	BoostHours float64

	// Rewards are floored to a multiple of RoundStep
	RoundStep int64

	// First-crossing memory
	Threshold     decimal.Decimal
	ThresholdName string // used in output column names, e.g. "150k"

	Beginner BeginnerRules
	Status   StatusRules

	// Logical fields that must be mapped to an existing column
	RequiredFields []Field
}

// BeginnerRules relax the activity minimums for recently joined creators on
// one tier, until they first cross the threshold.
type BeginnerRules struct {
	Tier             string
	MaxDaysSinceJoin float64 // exclusive
	MinDays          int
	MinHours         float64
}

// Enabled reports whether a beginner tier is configured.
func (b BeginnerRules) Enabled() bool { return b.Tier != "" }

// Validate checks the ruleset as a whole.
func (rs *Ruleset) Validate() error {
	var problems []string

	problems = append(problems, ValidateTiers(rs.Tiers)...)

	if rs.RoundStep <= 0 {
		problems = append(problems, fmt.Sprintf("round step must be positive, got %d", rs.RoundStep))
	}
	if rs.MinDays < 0 || rs.MinHours < 0 {
		problems = append(problems, "activity minimums must not be negative")
	}
	if rs.BoostDays < 0 || rs.BoostHours < 0 {
		problems = append(problems, "boost thresholds must not be negative")
	}
	if !rs.Threshold.IsPositive() {
		problems = append(problems, fmt.Sprintf("threshold must be positive, got %s", rs.Threshold))
	}
	if rs.ThresholdName == "" {
		problems = append(problems, "threshold name is required")
	}

	if rs.Beginner.Enabled() {
		if _, ok := TierByName(rs.Tiers, rs.Beginner.Tier); !ok {
			problems = append(problems, fmt.Sprintf("beginner tier %q is not in the tier table", rs.Beginner.Tier))
		}
		if rs.Beginner.MinDays < 0 || rs.Beginner.MinHours < 0 || rs.Beginner.MaxDaysSinceJoin < 0 {
			problems = append(problems, "beginner rules must not be negative")
		}
	}

	problems = append(problems, rs.Status.validate()...)

	required := make(map[Field]bool)
	for _, f := range rs.RequiredFields {
		if !isKnownField(f) {
			problems = append(problems, fmt.Sprintf("unknown required field %q", f))
		}
		required[f] = true
	}
	// Rows cannot be keyed or priced without these
	for _, f := range []Field{FieldCreatorID, FieldDiamonds, FieldLiveDays, FieldLiveHours, FieldStatus} {
		if !required[f] {
			problems = append(problems, fmt.Sprintf("field %q must be required", f))
		}
	}

	if len(problems) > 0 {
		return &generic.RulesetError{Version: rs.Version, Problems: problems}
	}
	return nil
}

// Requires reports whether f must be mapped.
func (rs *Ruleset) Requires(f Field) bool {
	for _, r := range rs.RequiredFields {
		if r == f {
			return true
		}
	}
	return false
}

func isKnownField(f Field) bool {
	for _, k := range AllFields {
		if k == f {
			return true
		}
	}
	return false
}
