/*
Package factory converts ruleset documents into rewards.Ruleset values.

PURPOSE:
  A new payout ruleset is a reviewed data change, not a code change. The
  factory reads a YAML (or JSON) document, fills every omitted section from
  the default ruleset, and validates the result as one value.

DOCUMENT SCHEMA (YAML; JSON uses the same keys):
  version: live-agency-2026
  tiers:                        # replaces the whole table when present
    - {name: "<75 000", min: 0, max: 75000, base: 0, boost: 0}
    - {name: "75 000-500 000", min: 75000, max: 500000, base: 0.015, boost: 0.020}
    - {name: "500 000-∞", min: 500000, base: 0.020, boost: 0.025, bonus: 100}
  minimums: {days: 12, hours: 25}
  boost:    {days: 20, hours: 80}
  round_step: 100
  threshold: {diamonds: 150000, name: 150k}
  beginner:
    tier: "75 000-500 000"
    max_days_since_join: 90
    minimums: {days: 7, hours: 15}
  status:
    default: exclude            # or allow
    negative_tokens: [no, non, 0, false]
    positive_tokens: [yes, oui, 1, true]
    banned_keywords: [banni, depart]
  required_fields: [creator_id, diamonds_month, live_days_valid,
                    live_hours_valid, status_excluding, days_since_join]

  A tier without max is unbounded. Decimal values are read as text so
  0.015 is never rounded through a float.

USAGE:
  rs, err := factory.LoadRuleset(path)   // "" -> rewards.DefaultRuleset()
  data, err := factory.MarshalRuleset(rs)

SEE ALSO:
  - rewards/ruleset.go: Ruleset type and validation
  - rewards/policies.go: The default ruleset
*/
package factory

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/shopspring/decimal"
	"github.com/warp/payout-engine/generic"
	"github.com/warp/payout-engine/rewards"
	"gopkg.in/yaml.v3"
)

// =============================================================================
// DOCUMENT TYPES
// =============================================================================

// RulesetDoc is the document representation of a ruleset. Pointer sections
// are optional and default to the corresponding DefaultRuleset values.
type RulesetDoc struct {
	Version        string        `yaml:"version" json:"version"`
	Tiers          []TierDoc     `yaml:"tiers,omitempty" json:"tiers,omitempty"`
	Minimums       *ActivityDoc  `yaml:"minimums,omitempty" json:"minimums,omitempty"`
	Boost          *ActivityDoc  `yaml:"boost,omitempty" json:"boost,omitempty"`
	RoundStep      *int64        `yaml:"round_step,omitempty" json:"round_step,omitempty"`
	Threshold      *ThresholdDoc `yaml:"threshold,omitempty" json:"threshold,omitempty"`
	Beginner       *BeginnerDoc  `yaml:"beginner,omitempty" json:"beginner,omitempty"`
	Status         *StatusDoc    `yaml:"status,omitempty" json:"status,omitempty"`
	RequiredFields []string      `yaml:"required_fields,omitempty" json:"required_fields,omitempty"`
}

// TierDoc is one band. Max empty means unbounded.
type TierDoc struct {
	Name  string `yaml:"name" json:"name"`
	Min   string `yaml:"min" json:"min"`
	Max   string `yaml:"max,omitempty" json:"max,omitempty"`
	Base  string `yaml:"base" json:"base"`
	Boost string `yaml:"boost" json:"boost"`
	Bonus string `yaml:"bonus,omitempty" json:"bonus,omitempty"`
}

// ActivityDoc is a days/hours pair.
type ActivityDoc struct {
	Days  int     `yaml:"days" json:"days"`
	Hours float64 `yaml:"hours" json:"hours"`
}

// ThresholdDoc configures first-crossing memory.
type ThresholdDoc struct {
	Diamonds string `yaml:"diamonds" json:"diamonds"`
	Name     string `yaml:"name" json:"name"`
}

// BeginnerDoc configures the beginner exception. An empty tier disables it.
type BeginnerDoc struct {
	Tier             string      `yaml:"tier" json:"tier"`
	MaxDaysSinceJoin float64     `yaml:"max_days_since_join" json:"max_days_since_join"`
	Minimums         ActivityDoc `yaml:"minimums" json:"minimums"`
}

// StatusDoc configures the status-exclusion predicate. Empty lists keep the
// default tokens.
type StatusDoc struct {
	Default        string   `yaml:"default,omitempty" json:"default,omitempty"`
	NegativeTokens []string `yaml:"negative_tokens,omitempty" json:"negative_tokens,omitempty"`
	PositiveTokens []string `yaml:"positive_tokens,omitempty" json:"positive_tokens,omitempty"`
	BannedKeywords []string `yaml:"banned_keywords,omitempty" json:"banned_keywords,omitempty"`
}

// =============================================================================
// PARSING
// =============================================================================

// ParseRuleset decodes a YAML or JSON document and validates the result.
// Unknown keys are rejected.
func ParseRuleset(data []byte) (*rewards.Ruleset, error) {
	var doc RulesetDoc
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty document", generic.ErrInvalidRuleset)
		}
		return nil, fmt.Errorf("%w: %v", generic.ErrInvalidRuleset, err)
	}
	return FromDoc(doc)
}

// LoadRuleset reads a ruleset file. An empty path returns the default ruleset.
func LoadRuleset(path string) (*rewards.Ruleset, error) {
	if path == "" {
		return rewards.DefaultRuleset(), nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read ruleset %s: %w", path, err)
	}
	rs, err := ParseRuleset(data)
	if err != nil {
		return nil, fmt.Errorf("ruleset %s: %w", path, err)
	}
	return rs, nil
}

// FromDoc converts a document to a validated Ruleset.
func FromDoc(doc RulesetDoc) (*rewards.Ruleset, error) {
	rs := rewards.DefaultRuleset()
	var problems []string

	if doc.Version != "" {
		rs.Version = doc.Version
	}

	if len(doc.Tiers) > 0 {
		rs.Tiers = rs.Tiers[:0:0]
		for i, td := range doc.Tiers {
			t, errs := parseTier(td)
			for _, e := range errs {
				problems = append(problems, fmt.Sprintf("tier %d: %s", i, e))
			}
			rs.Tiers = append(rs.Tiers, t)
		}
	}

	if doc.Minimums != nil {
		rs.MinDays, rs.MinHours = doc.Minimums.Days, doc.Minimums.Hours
	}
	if doc.Boost != nil {
		rs.BoostDays, rs.BoostHours = doc.Boost.Days, doc.Boost.Hours
	}
	if doc.RoundStep != nil {
		rs.RoundStep = *doc.RoundStep
	}

	if doc.Threshold != nil {
		if doc.Threshold.Diamonds != "" {
			d, err := decimal.NewFromString(doc.Threshold.Diamonds)
			if err != nil {
				problems = append(problems, fmt.Sprintf("threshold diamonds %q is not a number", doc.Threshold.Diamonds))
			}
			rs.Threshold = d
		}
		if doc.Threshold.Name != "" {
			rs.ThresholdName = doc.Threshold.Name
		}
	}

	if doc.Beginner != nil {
		rs.Beginner = rewards.BeginnerRules{
			Tier:             doc.Beginner.Tier,
			MaxDaysSinceJoin: doc.Beginner.MaxDaysSinceJoin,
			MinDays:          doc.Beginner.Minimums.Days,
			MinHours:         doc.Beginner.Minimums.Hours,
		}
	}

	if s := doc.Status; s != nil {
		if s.Default != "" {
			rs.Status.Default = rewards.StatusDefault(s.Default)
		}
		if len(s.NegativeTokens) > 0 {
			rs.Status.NegativeTokens = s.NegativeTokens
		}
		if len(s.PositiveTokens) > 0 {
			rs.Status.PositiveTokens = s.PositiveTokens
		}
		if len(s.BannedKeywords) > 0 {
			rs.Status.BannedKeywords = s.BannedKeywords
		}
	}

	if len(doc.RequiredFields) > 0 {
		rs.RequiredFields = make([]rewards.Field, len(doc.RequiredFields))
		for i, f := range doc.RequiredFields {
			rs.RequiredFields[i] = rewards.Field(f)
		}
	}

	if len(problems) > 0 {
		return nil, &generic.RulesetError{Version: rs.Version, Problems: problems}
	}
	if err := rs.Validate(); err != nil {
		return nil, err
	}
	return rs, nil
}

func parseTier(td TierDoc) (rewards.Tier, []string) {
	var errs []string
	num := func(field, s string, required bool) decimal.Decimal {
		if s == "" {
			if required {
				errs = append(errs, field+" is required")
			}
			return decimal.Zero
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			errs = append(errs, fmt.Sprintf("%s %q is not a number", field, s))
		}
		return d
	}

	t := rewards.Tier{
		Name:  td.Name,
		Min:   num("min", td.Min, true),
		Base:  num("base", td.Base, true),
		Boost: num("boost", td.Boost, true),
		Bonus: num("bonus", td.Bonus, false),
	}
	if td.Max != "" {
		m := num("max", td.Max, false)
		t.Max = &m
	}
	return t, errs
}

// =============================================================================
// SERIALIZATION
// =============================================================================

// ToDoc converts a Ruleset to its document form with every section present.
func ToDoc(rs *rewards.Ruleset) RulesetDoc {
	step := rs.RoundStep
	doc := RulesetDoc{
		Version:   rs.Version,
		Minimums:  &ActivityDoc{Days: rs.MinDays, Hours: rs.MinHours},
		Boost:     &ActivityDoc{Days: rs.BoostDays, Hours: rs.BoostHours},
		RoundStep: &step,
		Threshold: &ThresholdDoc{Diamonds: rs.Threshold.String(), Name: rs.ThresholdName},
		Beginner: &BeginnerDoc{
			Tier:             rs.Beginner.Tier,
			MaxDaysSinceJoin: rs.Beginner.MaxDaysSinceJoin,
			Minimums:         ActivityDoc{Days: rs.Beginner.MinDays, Hours: rs.Beginner.MinHours},
		},
		Status: &StatusDoc{
			Default:        string(rs.Status.Default),
			NegativeTokens: rs.Status.NegativeTokens,
			PositiveTokens: rs.Status.PositiveTokens,
			BannedKeywords: rs.Status.BannedKeywords,
		},
	}

	for _, t := range rs.Tiers {
		td := TierDoc{
			Name:  t.Name,
			Min:   t.Min.String(),
			Base:  t.Base.String(),
			Boost: t.Boost.String(),
		}
		if t.Max != nil {
			td.Max = t.Max.String()
		}
		if !t.Bonus.IsZero() {
			td.Bonus = t.Bonus.String()
		}
		doc.Tiers = append(doc.Tiers, td)
	}

	for _, f := range rs.RequiredFields {
		doc.RequiredFields = append(doc.RequiredFields, string(f))
	}
	return doc
}

// MarshalRuleset renders rs as a YAML document that ParseRuleset accepts.
func MarshalRuleset(rs *rewards.Ruleset) ([]byte, error) {
	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(ToDoc(rs)); err != nil {
		return nil, fmt.Errorf("failed to encode ruleset: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("failed to encode ruleset: %w", err)
	}
	return buf.Bytes(), nil
}
