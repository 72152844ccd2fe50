package generic

import (
	"fmt"
	"strings"
	"time"
)

// =============================================================================
// PERIOD LABEL - The payout period a run belongs to
// =============================================================================

// PeriodLabel names the period a batch of rows was earned in, e.g. "2025-12".
// Labels are opaque to the engine: they are stored verbatim as the
// first-reached period and never compared or ordered.
type PeriodLabel string

// ParsePeriodLabel trims s and rejects empty labels or labels containing
// control characters.
func ParsePeriodLabel(s string) (PeriodLabel, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return "", fmt.Errorf("%w: empty", ErrInvalidPeriod)
	}
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			return "", fmt.Errorf("%w: %q contains control characters", ErrInvalidPeriod, s)
		}
	}
	return PeriodLabel(s), nil
}

// MonthLabel returns the canonical monthly label for t ("2006-01").
func MonthLabel(t time.Time) PeriodLabel {
	return PeriodLabel(t.Format("2006-01"))
}

func (p PeriodLabel) String() string {
	return string(p)
}
