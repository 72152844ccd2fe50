/*
Package rewards computes periodic creator payouts from a tabular export.

PURPOSE:
  Each row of an export describes one creator's period: diamonds earned, live
  days and hours validated, an account status and how long ago the creator
  joined. The engine picks a reward tier, applies the activity gates, rounds
  the reward, and remembers the first period each creator crossed the
  tracked diamonds threshold.

PIPELINE (per row, in input order):
  raw cells -> normalize (mapping + coercion)
            -> threshold store (read, write-once on first crossing)
            -> tier lookup
            -> eligibility gates
            -> reward (boost or base rate, floored to the rounding step)
            -> annotated output row

KEY TYPES:
  Field / Mapping:  Logical field -> actual column name
  Tier:             Half-open diamonds band with base/boost rate and bonus
  Ruleset:          Every tunable constant, validated as one versioned value
  NormalizedRow:    One row after coercion
  Evaluation:       Verdict for one row (pure, no I/O)
  OutputRow:        Evaluation plus the threshold memory for that creator

PURITY:
  Evaluate is a pure function of (ruleset, row, tier, reached). The only side
  effect of a run is the write-once threshold insert done by Engine.

SEE ALSO:
  - ruleset.go: Ruleset and validation
  - policies.go: The reviewed default ruleset
  - calculator.go: Eligibility and reward
  - engine.go: Entry point
*/
package rewards

import (
	"github.com/shopspring/decimal"
	"github.com/warp/payout-engine/generic"
)

// =============================================================================
// LOGICAL FIELDS
// =============================================================================

// Field is a logical input field. The engine never assumes column names;
// a Mapping supplies the correspondence.
type Field string

const (
	FieldCreatorID     Field = "creator_id"
	FieldDiamonds      Field = "diamonds_month"
	FieldLiveDays      Field = "live_days_valid"
	FieldLiveHours     Field = "live_hours_valid"
	FieldStatus        Field = "status_excluding"
	FieldDaysSinceJoin Field = "days_since_join"
)

// AllFields lists every logical field in the order warnings are reported.
var AllFields = []Field{
	FieldCreatorID,
	FieldDiamonds,
	FieldLiveDays,
	FieldLiveHours,
	FieldStatus,
	FieldDaysSinceJoin,
}

// Mapping maps logical fields to column names in the input table.
type Mapping map[Field]string

// =============================================================================
// TIER
// =============================================================================

// Tier is one band of the ordered tier table.
type Tier struct {
	Name  string
	Min   decimal.Decimal  // inclusive
	Max   *decimal.Decimal // exclusive; nil = unbounded
	Base  decimal.Decimal
	Boost decimal.Decimal
	Bonus decimal.Decimal
}

// Unbounded reports whether the tier has no upper bound.
func (t Tier) Unbounded() bool { return t.Max == nil }

// Contains reports whether amount falls in [Min, Max).
func (t Tier) Contains(amount decimal.Decimal) bool {
	if amount.LessThan(t.Min) {
		return false
	}
	return t.Max == nil || amount.LessThan(*t.Max)
}

// =============================================================================
// ROWS
// =============================================================================

// NormalizedRow is one input row after coercion.
type NormalizedRow struct {
	Index         int // position in the input table
	CreatorID     string
	Diamonds      decimal.Decimal
	LiveDays      int
	LiveHours     float64
	Status        string
	DaysSinceJoin *float64 // nil when unknown
}

// Reason codes recorded on ineligible rows.
const (
	ReasonStatusExcluded   = "status_excluded"
	ReasonBelowThreshold   = "below_threshold"
	ReasonMissingCreatorID = "missing_creator_id"
)

// Evaluation is the verdict for one row.
type Evaluation struct {
	Tier        string
	AppliedRate decimal.Decimal // zero when no reward is paid
	Bonus       decimal.Decimal
	Reward      int64
	Eligible    bool
	Reasons     []string
	Excluded    bool
	Boosted     bool
	Beginner    bool // beginner minimums were applied
}

// OutputRow is one annotated row of a compute result.
type OutputRow struct {
	Row NormalizedRow
	Evaluation

	ReachedThreshold   bool
	FirstReachedPeriod generic.PeriodLabel
	NewlyRecorded      bool // this run inserted the threshold record
}
