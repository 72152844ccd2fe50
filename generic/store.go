/*
store.go - Persistence interface for first-threshold-crossing records

PURPOSE:
  Defines the interface between the payout engine and the database.
  The engine remembers, per creator, the first period in which the period
  diamonds met the tracked threshold. That memory outlives any single run.

KEY INTERFACES:
  ThresholdStore:  Lookup + write-once insert (what the engine needs)
  ThresholdLister: Read-only listing (what the API and CLI need)

WRITE-ONCE CONTRACT:
  SetFirstReachedIfAbsent never overwrites. If a record exists the call is a
  no-op that returns the existing label. Implementations must make the
  check-and-insert atomic (uniqueness constraint on the creator identifier),
  never a separate read-then-write.

DURABILITY:
  SetFirstReachedIfAbsent returns only after the record is committed. A crash
  between "threshold crossed" and the commit loses nothing: the next run
  re-evaluates the same row and inserts the same record.

IMPLEMENTATIONS:
  - store/sqlite/sqlite.go: Production SQLite
  - generic/store/memory.go: In-memory for tests and dry runs

SEE ALSO:
  - rewards/engine.go: The only writer
*/
package generic

import (
	"context"
	"time"
)

// =============================================================================
// THRESHOLD STORE - Write-once creator -> first-reached period
// =============================================================================

// ThresholdStore persists the first period each creator reached the threshold.
type ThresholdStore interface {
	// FirstReached returns the recorded label, or found=false if none exists.
	FirstReached(ctx context.Context, creatorID string) (label PeriodLabel, found bool, err error)

	// SetFirstReachedIfAbsent records label for creatorID unless a record
	// already exists. It returns the label stored after the call and whether
	// this call inserted it.
	SetFirstReachedIfAbsent(ctx context.Context, creatorID string, label PeriodLabel) (stored PeriodLabel, inserted bool, err error)
}

// ThresholdRecord is one persisted first-crossing.
type ThresholdRecord struct {
	CreatorID          string
	FirstReachedPeriod PeriodLabel
	RecordedAt         time.Time
}

// ThresholdLister extends ThresholdStore with read-only listing.
type ThresholdLister interface {
	ThresholdStore

	// Threshold returns one record, or ErrThresholdNotFound.
	Threshold(ctx context.Context, creatorID string) (ThresholdRecord, error)

	// ListThresholds returns every record ordered by creator identifier.
	ListThresholds(ctx context.Context) ([]ThresholdRecord, error)
}
