package rewards_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payout-engine/generic"
	"github.com/warp/payout-engine/rewards"
	"github.com/warp/payout-engine/tabular"
)

// =============================================================================
// DURATION PARSING
// =============================================================================

func TestParseDurationHours(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"96h 43min 48s", 96 + 43.0/60 + 48.0/3600},
		{"96H 43MIN 48S", 96 + 43.0/60 + 48.0/3600},
		{"10h", 10},
		{"45min", 0.75},
		{"30 min 36 s", 0.5 + 36.0/3600},
		{"2h 30min", 2.5},
		{"", 0},
		{"   ", 0},
		{"n/a", 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, rewards.ParseDurationHours(tt.in), 1e-9, "input %q", tt.in)
	}

	assert.InDelta(t, 96.7300, rewards.ParseDurationHours("96h 43min 48s"), 1e-4)
}

func TestParseHoursCell(t *testing.T) {
	tests := []struct {
		in   string
		want float64
	}{
		{"90", 90},
		{" 80.5 ", 80.5},
		{"96h 43min 48s", 96.73},
		{"-5", 0},
		{"NaN", 0},
		{"", 0},
		{"garbage", 0},
	}

	for _, tt := range tests {
		assert.InDelta(t, tt.want, rewards.ParseHoursCell(tt.in), 1e-4, "input %q", tt.in)
	}
}

// =============================================================================
// MAPPING VALIDATION
// =============================================================================

func TestValidateMapping_ReportsEachMissingField(t *testing.T) {
	// GIVEN: A table and a mapping with one unmapped field and one wrong column
	table := tabular.New([]string{"id", "diamonds", "days", "hours", "status", "since"}, nil)
	mapping := fullMapping()
	delete(mapping, rewards.FieldLiveDays)
	mapping[rewards.FieldStatus] = "Statut"

	// WHEN: Validating against all six required fields
	warnings := rewards.ValidateMapping(table, mapping, rewards.AllFields)

	// THEN: One warning per problem, in field order
	assert.Equal(t, []string{
		"missing or unmapped column: live_days_valid -> ''",
		"missing or unmapped column: status_excluding -> 'Statut'",
	}, warnings)
}

func TestValidateMapping_OptionalFieldSkipped(t *testing.T) {
	table := tabular.New([]string{"id", "diamonds", "days", "hours", "status"}, nil)
	mapping := fullMapping()
	delete(mapping, rewards.FieldDaysSinceJoin)

	required := []rewards.Field{
		rewards.FieldCreatorID, rewards.FieldDiamonds, rewards.FieldLiveDays,
		rewards.FieldLiveHours, rewards.FieldStatus,
	}
	assert.Empty(t, rewards.ValidateMapping(table, mapping, required))
}

// =============================================================================
// STATUS EXCLUSION
// =============================================================================

func TestStatusRules_IsExcluded(t *testing.T) {
	rules := rewards.DefaultStatusRules()

	tests := []struct {
		status   string
		excluded bool
	}{
		// Empty and explicit negatives
		{"", false},
		{"   ", false},
		{"no", false},
		{"Non", false},
		{" NON ", false},
		{"0", false},
		{"false", false},
		// Explicit positives
		{"yes", true},
		{"Oui", true},
		{"1", true},
		{"TRUE", true},
		// Banned keywords, with or without accents
		{"Banni", true},
		{"ban temporaire", true},
		{"infraction grave", true},
		{"Départ", true},
		{"depart volontaire", true},
		{"inactive", true},
		// Default-deny for anything unrecognized
		{"maybe", true},
		{"en attente", true},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.excluded, rules.IsExcluded(tt.status), "status %q", tt.status)
	}
}

func TestStatusRules_DefaultAllow(t *testing.T) {
	rules := rewards.DefaultStatusRules()
	rules.Default = rewards.StatusDefaultAllow

	assert.False(t, rules.IsExcluded("en attente"))
	assert.True(t, rules.IsExcluded("banni"))
	assert.True(t, rules.IsExcluded("oui"))
}

func TestParseMapping(t *testing.T) {
	m, err := rewards.ParseMapping(map[string]string{
		" creator_id ":   "ID",
		"diamonds_month": " Diamonds ",
		"live_days_valid": "",
	})
	require.NoError(t, err)
	assert.Equal(t, rewards.Mapping{
		rewards.FieldCreatorID: "ID",
		rewards.FieldDiamonds:  "Diamonds",
	}, m)

	_, err = rewards.ParseMapping(map[string]string{"shoe_size": "Size"})
	assert.ErrorIs(t, err, generic.ErrUnknownField)
	assert.True(t, generic.IsClientError(err))
}
