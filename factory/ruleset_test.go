package factory_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payout-engine/factory"
	"github.com/warp/payout-engine/generic"
	"github.com/warp/payout-engine/rewards"
)

func TestParseRuleset_PartialDocumentKeepsDefaults(t *testing.T) {
	// GIVEN: A document overriding only the version and the minimums
	doc := `
version: agency-2026
minimums: {days: 10, hours: 20}
`
	// WHEN: Parsing
	rs, err := factory.ParseRuleset([]byte(doc))
	require.NoError(t, err)

	// THEN: Overrides apply and everything else is the default ruleset
	def := rewards.DefaultRuleset()
	assert.Equal(t, "agency-2026", rs.Version)
	assert.Equal(t, 10, rs.MinDays)
	assert.Equal(t, 20.0, rs.MinHours)
	assert.Equal(t, def.Tiers, rs.Tiers)
	assert.Equal(t, def.BoostDays, rs.BoostDays)
	assert.Equal(t, def.Beginner, rs.Beginner)
	assert.True(t, def.Threshold.Equal(rs.Threshold))
}

func TestParseRuleset_FullYAML(t *testing.T) {
	doc := `
version: flat-2026
tiers:
  - {name: low, min: 0, max: 100000, base: 0, boost: 0}
  - {name: high, min: 100000, base: 0.01, boost: 0.015, bonus: 250}
boost: {days: 25, hours: 100}
round_step: 50
threshold: {diamonds: 200000, name: 200k}
beginner:
  tier: low
  max_days_since_join: 60
  minimums: {days: 5, hours: 10}
status:
  default: allow
  banned_keywords: [suspendu]
required_fields: [creator_id, diamonds_month, live_days_valid, live_hours_valid, status_excluding]
`
	rs, err := factory.ParseRuleset([]byte(doc))
	require.NoError(t, err)

	require.Len(t, rs.Tiers, 2)
	assert.Equal(t, "0.01", rs.Tiers[1].Base.String())
	assert.Equal(t, "250", rs.Tiers[1].Bonus.String())
	assert.True(t, rs.Tiers[1].Unbounded())
	assert.Equal(t, int64(50), rs.RoundStep)
	assert.Equal(t, "200k", rs.ThresholdName)
	assert.Equal(t, "Reached 200k (Yes/No)", rs.ReachedColumn())
	assert.Equal(t, 60.0, rs.Beginner.MaxDaysSinceJoin)
	assert.Equal(t, rewards.StatusDefaultAllow, rs.Status.Default)
	assert.True(t, rs.Status.IsExcluded("Suspendu"))
	assert.False(t, rs.Status.IsExcluded("en attente"))
	assert.False(t, rs.Requires(rewards.FieldDaysSinceJoin))
}

func TestParseRuleset_JSON(t *testing.T) {
	doc := `{"version": "json-2026", "round_step": 10, "threshold": {"diamonds": "150000", "name": "150k"}}`

	rs, err := factory.ParseRuleset([]byte(doc))
	require.NoError(t, err)
	assert.Equal(t, "json-2026", rs.Version)
	assert.Equal(t, int64(10), rs.RoundStep)
}

func TestParseRuleset_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		doc     string
		problem string
	}{
		{"empty", "", "empty document"},
		{"unknown key", "version: x\nroundstep: 5\n", "roundstep"},
		{"bad decimal", "tiers:\n  - {name: a, min: 0, base: abc, boost: 0}\n", `tier 0: base "abc" is not a number`},
		{"missing min", "tiers:\n  - {name: a, base: 0, boost: 0}\n", "tier 0: min is required"},
		{"gap", "tiers:\n  - {name: a, min: 0, max: 10, base: 0, boost: 0}\n  - {name: b, min: 20, base: 0.01, boost: 0.02}\n", "gap"},
		{"beginner tier", "beginner: {tier: nope, max_days_since_join: 90, minimums: {days: 7, hours: 15}}\n", `beginner tier "nope"`},
		{"zero step", "round_step: 0\n", "round step must be positive"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rs, err := factory.ParseRuleset([]byte(tt.doc))
			assert.Nil(t, rs)
			require.Error(t, err)
			assert.ErrorIs(t, err, generic.ErrInvalidRuleset)
			assert.Contains(t, err.Error(), tt.problem)
		})
	}
}

func TestMarshalRuleset_RoundTrip(t *testing.T) {
	// GIVEN: The default ruleset rendered as YAML
	data, err := factory.MarshalRuleset(rewards.DefaultRuleset())
	require.NoError(t, err)
	assert.Contains(t, string(data), "version: live-agency-2025")

	// WHEN: Parsing it back
	rs, err := factory.ParseRuleset(data)
	require.NoError(t, err)

	// THEN: Same ruleset
	assert.Equal(t, factory.ToDoc(rewards.DefaultRuleset()), factory.ToDoc(rs))
}

func TestLoadRuleset(t *testing.T) {
	rs, err := factory.LoadRuleset("")
	require.NoError(t, err)
	assert.Equal(t, rewards.DefaultRulesetVersion, rs.Version)

	path := filepath.Join(t.TempDir(), "ruleset.yaml")
	require.NoError(t, os.WriteFile(path, []byte("version: file-2026\n"), 0o600))

	rs, err = factory.LoadRuleset(path)
	require.NoError(t, err)
	assert.Equal(t, "file-2026", rs.Version)

	_, err = factory.LoadRuleset(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}
