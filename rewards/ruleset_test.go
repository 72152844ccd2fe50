package rewards_test

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payout-engine/generic"
	"github.com/warp/payout-engine/rewards"
)

func TestDefaultRuleset_IsValid(t *testing.T) {
	rs := rewards.DefaultRuleset()
	require.NoError(t, rs.Validate())

	assert.Equal(t, rewards.DefaultRulesetVersion, rs.Version)
	assert.True(t, rs.Requires(rewards.FieldDaysSinceJoin))
	assert.Len(t, rs.Tiers, 5)
}

func TestDefaultRuleset_FreshCopy(t *testing.T) {
	a := rewards.DefaultRuleset()
	a.Tiers[1].Base = decimal.NewFromInt(9)
	a.RequiredFields[0] = "changed"

	b := rewards.DefaultRuleset()
	assert.Equal(t, "0.015", b.Tiers[1].Base.String())
	assert.Equal(t, rewards.FieldCreatorID, b.RequiredFields[0])
}

func TestRulesetValidate_CollectsAllProblems(t *testing.T) {
	// GIVEN: A ruleset broken in several independent ways
	rs := rewards.DefaultRuleset()
	rs.RoundStep = 0
	rs.Threshold = decimal.Zero
	rs.Beginner.Tier = "nope"
	rs.Status.Default = "maybe"
	rs.RequiredFields = []rewards.Field{rewards.FieldCreatorID, "shoe_size"}

	// WHEN: Validating
	err := rs.Validate()

	// THEN: One RulesetError lists every problem
	require.Error(t, err)
	assert.True(t, errors.Is(err, generic.ErrInvalidRuleset))
	assert.True(t, generic.IsClientError(err))

	var rerr *generic.RulesetError
	require.ErrorAs(t, err, &rerr)
	assert.Equal(t, rewards.DefaultRulesetVersion, rerr.Version)

	joined := rerr.Error()
	for _, want := range []string{
		"round step must be positive",
		"threshold must be positive",
		`beginner tier "nope"`,
		"status default must be",
		`unknown required field "shoe_size"`,
		`field "diamonds_month" must be required`,
	} {
		assert.Contains(t, joined, want)
	}
}

func TestRulesetValidate_BeginnerDisabled(t *testing.T) {
	rs := rewards.DefaultRuleset()
	rs.Beginner = rewards.BeginnerRules{}

	assert.NoError(t, rs.Validate())
	assert.False(t, rs.Beginner.Enabled())
}

func TestRulesetValidate_ConflictingStatusTokens(t *testing.T) {
	rs := rewards.DefaultRuleset()
	rs.Status.PositiveTokens = append(rs.Status.PositiveTokens, "NON")

	err := rs.Validate()
	require.Error(t, err)
	assert.Contains(t, err.Error(), `status token "non" is both negative and positive`)
}

func TestEvaluate_Describe(t *testing.T) {
	rs := rewards.DefaultRuleset()
	tier, ok := rewards.TierByName(rs.Tiers, "500 000-1 000 000")
	require.True(t, ok)

	row := rewards.NormalizedRow{CreatorID: "C9", Diamonds: dec(600_000), LiveDays: 25, LiveHours: 90, Status: "non"}
	ev := rs.Evaluate(row, tier, false)
	assert.Equal(t, "500 000-1 000 000: 15000 at rate 0.025", ev.Describe())

	row.LiveDays = 3
	ev = rs.Evaluate(row, tier, false)
	assert.Equal(t, "500 000-1 000 000: ineligible [days<12]", ev.Describe())
}

func TestEvaluate_BonusAddedBeforeRounding(t *testing.T) {
	// GIVEN: A tier carrying a flat bonus
	rs := rewards.DefaultRuleset()
	tier := rs.Tiers[1]
	tier.Bonus = decimal.NewFromInt(250)

	row := rewards.NormalizedRow{CreatorID: "C1", Diamonds: dec(100_000), LiveDays: 15, LiveHours: 30, Status: "non"}

	// THEN: 100000 x 0.015 + 250 = 1750, floored to 1700
	ev := rs.Evaluate(row, tier, false)
	assert.Equal(t, int64(1700), ev.Reward)
	assert.Equal(t, "250", ev.Bonus.String())
}

func TestEvaluate_FractionalHoursThreshold(t *testing.T) {
	rs := rewards.DefaultRuleset()
	rs.MinHours = 25.5
	tier := rs.Tiers[1]

	row := rewards.NormalizedRow{CreatorID: "C1", Diamonds: dec(100_000), LiveDays: 15, LiveHours: 25}
	ev := rs.Evaluate(row, tier, false)
	assert.Equal(t, []string{"hours<25.5"}, ev.Reasons)
}
