/*
errors.go - Centralized error types shared by the payout engine

PURPOSE:
  All error types in one place for consistency and discoverability.
  Domain packages wrap these errors with additional context.

ERROR CATEGORIES:
  1. Configuration errors - Invalid ruleset, invalid period label
  2. Input errors - Rows that cannot be keyed (no creator identifier)
  3. Store errors - Threshold store unavailable or corrupt (fatal for a run)

Column-mapping problems are NOT errors: they are returned as warnings on the
compute result so the caller can show them verbatim.

USAGE:
  if errors.Is(err, generic.ErrThresholdStore) {
      // abort the run, nothing may be displayed or exported
  }

SEE ALSO:
  - store.go: ThresholdStore contract
  - rewards/engine.go: Wraps store failures in ThresholdStoreError
*/
package generic

import (
	"errors"
	"fmt"
	"strings"
)

// =============================================================================
// SENTINEL ERRORS - Use with errors.Is()
// =============================================================================

var (
	// ErrInvalidPeriod is returned when a period label is empty or malformed.
	ErrInvalidPeriod = errors.New("invalid period label")

	// ErrInvalidRuleset is returned when a ruleset fails validation
	// (gapped or overlapping tiers, missing beginner tier, zero rounding step).
	ErrInvalidRuleset = errors.New("invalid ruleset")

	// ErrThresholdStore is returned when the threshold store cannot be read or
	// written. A run that hits this error has no usable output.
	ErrThresholdStore = errors.New("threshold store failure")

	// ErrCreatorIDRequired is returned when a threshold operation receives an
	// empty creator identifier.
	ErrCreatorIDRequired = errors.New("creator identifier required")

	// ErrThresholdNotFound is returned by lookups that require a record to exist.
	ErrThresholdNotFound = errors.New("threshold record not found")

	// ErrUnknownField is returned when a column mapping names a logical field
	// the engine does not know.
	ErrUnknownField = errors.New("unknown logical field")
)

// =============================================================================
// STRUCTURED ERRORS - Carry additional context
// =============================================================================

// ThresholdStoreError records which store operation failed and for whom.
type ThresholdStoreError struct {
	Op        string // "get" or "set_if_absent"
	CreatorID string
	Err       error
}

func (e *ThresholdStoreError) Error() string {
	return fmt.Sprintf("threshold store %s for creator %q: %v", e.Op, e.CreatorID, e.Err)
}

func (e *ThresholdStoreError) Unwrap() []error {
	return []error{ErrThresholdStore, e.Err}
}

// RulesetError lists every problem found while validating a ruleset.
type RulesetError struct {
	Version  string
	Problems []string
}

func (e *RulesetError) Error() string {
	return fmt.Sprintf("invalid ruleset %q: %s", e.Version, strings.Join(e.Problems, "; "))
}

func (e *RulesetError) Unwrap() error {
	return ErrInvalidRuleset
}

// =============================================================================
// ERROR HELPERS
// =============================================================================

// IsClientError returns true if the error is due to invalid caller input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidPeriod) ||
		errors.Is(err, ErrInvalidRuleset) ||
		errors.Is(err, ErrCreatorIDRequired) ||
		errors.Is(err, ErrUnknownField)
}

// IsNotFound returns true if the error indicates a missing record.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrThresholdNotFound)
}
