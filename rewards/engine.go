/*
engine.go - Payout computation entry point

PURPOSE:
  Runs the per-row pipeline over a whole table and returns the annotated
  table, typed rows and warnings.

CONTRACT:
  - Mapping problems are returned as Warnings with the input table unchanged
    and no reward columns. Callers must not display or export such a result.
  - Threshold store failures abort the run with an error wrapping
    generic.ErrThresholdStore. Skipping the write would break write-once.
  - Rows are processed sequentially in input order. The only side effect is
    the write-once threshold insert, so a re-run over the same input and the
    same store yields the same output.

USAGE:
  engine := rewards.NewEngine(rewards.DefaultRuleset(), store)
  res, err := engine.Compute(ctx, table, mapping, "2025-12")
  if err != nil { ... }            // fatal
  if len(res.Warnings) > 0 { ... } // hard stop, show warnings verbatim

SEE ALSO:
  - normalize.go: Mapping validation and coercion
  - calculator.go: Per-row verdict
  - generic/store.go: ThresholdStore contract
*/
package rewards

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/rs/zerolog"
	"github.com/warp/payout-engine/generic"
	"github.com/warp/payout-engine/tabular"
)

// Derived output columns. The last two embed Ruleset.ThresholdName.
const (
	ColumnTier        = "Tier"
	ColumnAppliedRate = "Applied Rate"
	ColumnBonus       = "Bonus"
	ColumnReward      = "Reward (diamonds)"
	ColumnEligible    = "Eligible"
	ColumnReasons     = "Ineligibility Reasons"
)

// ReachedColumn returns the "ever reached" column name for the ruleset.
func (rs *Ruleset) ReachedColumn() string {
	return fmt.Sprintf("Reached %s (Yes/No)", rs.ThresholdName)
}

// FirstPeriodColumn returns the "first period" column name for the ruleset.
func (rs *Ruleset) FirstPeriodColumn() string {
	return fmt.Sprintf("First %s Period", rs.ThresholdName)
}

// DerivedColumns lists the eight columns appended to every successful result.
func (rs *Ruleset) DerivedColumns() []string {
	return []string{
		ColumnTier, ColumnAppliedRate, ColumnBonus, ColumnReward,
		ColumnEligible, ColumnReasons, rs.ReachedColumn(), rs.FirstPeriodColumn(),
	}
}

// =============================================================================
// ENGINE
// =============================================================================

// Engine evaluates tables against one ruleset and one threshold store.
type Engine struct {
	Ruleset *Ruleset
	Store   generic.ThresholdStore
}

// NewEngine creates an engine. The ruleset is assumed valid.
func NewEngine(rs *Ruleset, store generic.ThresholdStore) *Engine {
	return &Engine{Ruleset: rs, Store: store}
}

// ComputeResult is the outcome of one run.
type ComputeResult struct {
	Period   generic.PeriodLabel
	Table    *tabular.Table
	Rows     []OutputRow
	Warnings []string
	Summary  Summary
}

// Summary aggregates a run.
type Summary struct {
	RulesetVersion string
	Rows           int
	Eligible       int
	Excluded       int
	TotalReward    int64
	NewThresholds  int
}

// Compute evaluates every row of table for the given period.
func (e *Engine) Compute(ctx context.Context, table *tabular.Table, mapping Mapping, period string) (*ComputeResult, error) {
	label, err := generic.ParsePeriodLabel(period)
	if err != nil {
		return nil, err
	}

	rs := e.Ruleset
	log := zerolog.Ctx(ctx)

	if warnings := ValidateMapping(table, mapping, rs.RequiredFields); len(warnings) > 0 {
		log.Warn().Strs("warnings", warnings).Str("period", label.String()).Msg("column mapping incomplete, nothing computed")
		return &ComputeResult{
			Period:   label,
			Table:    table.Clone(),
			Warnings: warnings,
			Summary:  Summary{RulesetVersion: rs.Version},
		}, nil
	}

	cols := resolveColumns(table, mapping)
	out := table.Clone()
	rows := make([]OutputRow, 0, out.Len())
	summary := Summary{RulesetVersion: rs.Version}

	for i := range out.Rows {
		row := cols.normalizeRow(out, i)
		cols.writeBack(out, row)

		res, err := e.evaluateRow(ctx, row, label)
		if err != nil {
			return nil, err
		}
		rows = append(rows, res)

		summary.Rows++
		summary.TotalReward += res.Reward
		if res.Eligible {
			summary.Eligible++
		}
		if res.Excluded {
			summary.Excluded++
		}
		if res.NewlyRecorded {
			summary.NewThresholds++
		}
	}

	if err := annotate(out, rows, rs); err != nil {
		return nil, err
	}

	log.Debug().
		Str("period", label.String()).
		Str("ruleset", rs.Version).
		Int("rows", summary.Rows).
		Int("eligible", summary.Eligible).
		Int64("total_reward", summary.TotalReward).
		Int("new_thresholds", summary.NewThresholds).
		Msg("payouts computed")

	return &ComputeResult{
		Period:  label,
		Table:   out,
		Rows:    rows,
		Summary: summary,
	}, nil
}

// evaluateRow consults the threshold store, then evaluates the row. The
// store is consulted for every keyed row, excluded or not.
func (e *Engine) evaluateRow(ctx context.Context, row NormalizedRow, period generic.PeriodLabel) (OutputRow, error) {
	rs := e.Ruleset
	out := OutputRow{Row: row}

	if row.CreatorID != "" {
		first, found, err := e.Store.FirstReached(ctx, row.CreatorID)
		if err != nil {
			return OutputRow{}, &generic.ThresholdStoreError{Op: "get", CreatorID: row.CreatorID, Err: err}
		}

		if !found && rs.CrossesThreshold(row) {
			stored, inserted, err := e.Store.SetFirstReachedIfAbsent(ctx, row.CreatorID, period)
			if err != nil {
				return OutputRow{}, &generic.ThresholdStoreError{Op: "set_if_absent", CreatorID: row.CreatorID, Err: err}
			}
			first, found = stored, true
			out.NewlyRecorded = inserted
			if inserted {
				zerolog.Ctx(ctx).Info().
					Str("creator_id", row.CreatorID).
					Str("period", period.String()).
					Msg("threshold reached for the first time")
			}
		}

		out.ReachedThreshold = found
		out.FirstReachedPeriod = first
	}

	tier := ResolveTier(row.Diamonds, rs.Tiers)
	out.Evaluation = rs.Evaluate(row, tier, out.ReachedThreshold)
	return out, nil
}

// annotate appends the derived columns to table.
func annotate(table *tabular.Table, rows []OutputRow, rs *Ruleset) error {
	n := len(rows)
	cols := make([][]string, 8)
	for c := range cols {
		cols[c] = make([]string, n)
	}

	for i, r := range rows {
		cols[0][i] = r.Tier
		cols[1][i] = r.AppliedRate.String()
		cols[2][i] = r.Bonus.String()
		cols[3][i] = strconv.FormatInt(r.Reward, 10)
		cols[4][i] = yesNo(r.Eligible, "OK", "NO")
		cols[5][i] = strings.Join(r.Reasons, ";")
		cols[6][i] = yesNo(r.ReachedThreshold, "Yes", "No")
		cols[7][i] = r.FirstReachedPeriod.String()
	}

	for c, name := range rs.DerivedColumns() {
		if err := table.AppendColumn(name, cols[c]); err != nil {
			return err
		}
	}
	return nil
}

func yesNo(b bool, yes, no string) string {
	if b {
		return yes
	}
	return no
}
