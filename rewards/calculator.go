/*
calculator.go - Eligibility gates and reward computation for one row

PURPOSE:
  Turns a normalized row, its tier and the creator's threshold memory into
  a verdict. No I/O happens here; the engine supplies `reached`.

ALGORITHM:
  1. No creator identifier  -> missing_creator_id, reward 0
  2. Excluded status        -> status_excluded, reward 0, no further gates
  3. Minimums               -> default, or beginner minimums when the tier is
                               the beginner tier, days-since-join is known and
                               below the ceiling, and the creator never reached
                               the threshold
     Shortfalls            -> "days<N" and/or "hours<N"
     Zero base rate        -> below_threshold
  4. Any reason             -> reward 0, applied rate 0
  5. Rate                   -> boost when days AND hours meet the boost
                               thresholds, else base
     Reward                 -> floor((diamonds x rate + bonus) / step) x step

EXAMPLE (default ruleset):
  600 000 diamonds, 25 days, 90 hours, status "non"
  -> tier "500 000-1 000 000", boosted (25 >= 20, 90 >= 80), rate 0.025
  -> reward floor(15 000 / 100) x 100 = 15 000
*/
package rewards

import (
	"fmt"
	"strconv"

	"github.com/shopspring/decimal"
	"github.com/warp/payout-engine/generic"
)

// Evaluate computes the verdict for one row. reached reports whether the
// creator has a first-reached period recorded (including one recorded for
// this very row).
func (rs *Ruleset) Evaluate(row NormalizedRow, tier Tier, reached bool) Evaluation {
	ev := Evaluation{
		Tier:        tier.Name,
		AppliedRate: decimal.Zero,
		Bonus:       tier.Bonus,
	}

	if row.CreatorID == "" {
		ev.Reasons = append(ev.Reasons, ReasonMissingCreatorID)
		return ev
	}

	if rs.Status.IsExcluded(row.Status) {
		ev.Excluded = true
		ev.Reasons = append(ev.Reasons, ReasonStatusExcluded)
		return ev
	}

	minDays, minHours := rs.MinDays, rs.MinHours
	if rs.beginnerApplies(row, tier, reached) {
		minDays, minHours = rs.Beginner.MinDays, rs.Beginner.MinHours
		ev.Beginner = true
	}

	if row.LiveDays < minDays {
		ev.Reasons = append(ev.Reasons, "days<"+strconv.Itoa(minDays))
	}
	if row.LiveHours < minHours {
		ev.Reasons = append(ev.Reasons, "hours<"+strconv.FormatFloat(minHours, 'f', -1, 64))
	}
	if !tier.Base.IsPositive() {
		ev.Reasons = append(ev.Reasons, ReasonBelowThreshold)
	}

	if len(ev.Reasons) > 0 {
		return ev
	}

	rate := tier.Base
	if row.LiveDays >= rs.BoostDays && row.LiveHours >= rs.BoostHours {
		rate = tier.Boost
		ev.Boosted = true
	}

	ev.AppliedRate = rate
	ev.Reward = generic.FloorToStep(row.Diamonds.Mul(rate).Add(tier.Bonus), rs.RoundStep)
	if ev.Reward < 0 {
		ev.Reward = 0
	}
	ev.Eligible = ev.Reward > 0
	return ev
}

func (rs *Ruleset) beginnerApplies(row NormalizedRow, tier Tier, reached bool) bool {
	if !rs.Beginner.Enabled() || reached || row.DaysSinceJoin == nil {
		return false
	}
	return tier.Name == rs.Beginner.Tier && *row.DaysSinceJoin < rs.Beginner.MaxDaysSinceJoin
}

// CrossesThreshold reports whether this row's diamonds meet the tracked
// threshold.
func (rs *Ruleset) CrossesThreshold(row NormalizedRow) bool {
	return row.Diamonds.GreaterThanOrEqual(rs.Threshold)
}

// Describe renders a one-line summary of a verdict for logs and the CLI.
func (ev Evaluation) Describe() string {
	if ev.Eligible {
		return fmt.Sprintf("%s: %d at rate %s", ev.Tier, ev.Reward, ev.AppliedRate)
	}
	return fmt.Sprintf("%s: ineligible %v", ev.Tier, ev.Reasons)
}
