package rewards

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StatusDefault decides what happens to a status value that is neither an
// explicit negative, an explicit positive, nor contains a banned keyword.
type StatusDefault string

const (
	// StatusDefaultExclude excludes unrecognized text (default-deny).
	StatusDefaultExclude StatusDefault = "exclude"
	// StatusDefaultAllow keeps unrecognized text eligible.
	StatusDefaultAllow StatusDefault = "allow"
)

// StatusRules is the status-exclusion predicate's configuration.
// Tokens and keywords are compared after normalization (trimmed, lower-cased,
// diacritics removed), so "Départ" matches the keyword "depart".
type StatusRules struct {
	Default        StatusDefault
	NegativeTokens []string // explicit "not excluded"
	PositiveTokens []string // explicit "excluded"
	BannedKeywords []string // substring match => excluded
}

// DefaultStatusRules returns the reviewed predicate: default-deny with French
// and English tokens.
func DefaultStatusRules() StatusRules {
	return StatusRules{
		Default:        StatusDefaultExclude,
		NegativeTokens: []string{"no", "non", "0", "false"},
		PositiveTokens: []string{"yes", "oui", "1", "true"},
		BannedKeywords: []string{"banned", "banni", "ban", "infraction", "departure", "depart", "inactive"},
	}
}

// IsExcluded reports whether a status value excludes the creator from payout.
//
// Empty values and explicit negatives are never excluded. Explicit positives
// and values containing a banned keyword are excluded. Anything else follows
// Default.
func (s StatusRules) IsExcluded(value string) bool {
	v := normalizeStatus(value)
	if v == "" {
		return false
	}
	if containsToken(s.NegativeTokens, v) {
		return false
	}
	if containsToken(s.PositiveTokens, v) {
		return true
	}
	for _, k := range s.BannedKeywords {
		if k = normalizeStatus(k); k != "" && strings.Contains(v, k) {
			return true
		}
	}
	return s.Default != StatusDefaultAllow
}

func (s StatusRules) validate() []string {
	var problems []string
	switch s.Default {
	case StatusDefaultExclude, StatusDefaultAllow:
	default:
		problems = append(problems, fmt.Sprintf("status default must be %q or %q, got %q", StatusDefaultExclude, StatusDefaultAllow, s.Default))
	}
	for _, n := range s.NegativeTokens {
		if containsToken(s.PositiveTokens, normalizeStatus(n)) {
			problems = append(problems, fmt.Sprintf("status token %q is both negative and positive", n))
		}
	}
	return problems
}

func containsToken(tokens []string, v string) bool {
	for _, t := range tokens {
		if normalizeStatus(t) == v {
			return true
		}
	}
	return false
}

// normalizeStatus trims, lower-cases and strips combining marks.
func normalizeStatus(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	// Transformer chains carry state; build one per call.
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}
