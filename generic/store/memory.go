// Package store provides in-memory ThresholdStore implementations.
package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/warp/payout-engine/generic"
)

// =============================================================================
// MEMORY STORE - In-memory implementation (for testing/dry runs)
// =============================================================================

// Memory keeps threshold records in a map guarded by a mutex.
//
// When created with NewOverlay, lookups that miss fall through to a base
// store, and writes stay in memory. This lets a dry run see the real history
// without ever writing to it.
type Memory struct {
	mu      sync.RWMutex
	records map[string]generic.ThresholdRecord
	base    generic.ThresholdStore
	now     func() time.Time
}

// Compile-time check that Memory implements generic.ThresholdLister
var _ generic.ThresholdLister = (*Memory)(nil)

func NewMemory() *Memory {
	return &Memory{
		records: make(map[string]generic.ThresholdRecord),
		now:     time.Now,
	}
}

// NewOverlay returns a Memory store that reads through to base on a miss.
func NewOverlay(base generic.ThresholdStore) *Memory {
	m := NewMemory()
	m.base = base
	return m
}

// FirstReached returns the recorded label for creatorID.
func (m *Memory) FirstReached(ctx context.Context, creatorID string) (generic.PeriodLabel, bool, error) {
	if creatorID == "" {
		return "", false, generic.ErrCreatorIDRequired
	}

	m.mu.RLock()
	rec, ok := m.records[creatorID]
	m.mu.RUnlock()
	if ok {
		return rec.FirstReachedPeriod, true, nil
	}

	if m.base != nil {
		return m.base.FirstReached(ctx, creatorID)
	}
	return "", false, nil
}

// SetFirstReachedIfAbsent inserts label unless a record exists (here or in
// the base store).
func (m *Memory) SetFirstReachedIfAbsent(ctx context.Context, creatorID string, label generic.PeriodLabel) (generic.PeriodLabel, bool, error) {
	if creatorID == "" {
		return "", false, generic.ErrCreatorIDRequired
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if rec, ok := m.records[creatorID]; ok {
		return rec.FirstReachedPeriod, false, nil
	}

	if m.base != nil {
		existing, found, err := m.base.FirstReached(ctx, creatorID)
		if err != nil {
			return "", false, err
		}
		if found {
			return existing, false, nil
		}
	}

	m.records[creatorID] = generic.ThresholdRecord{
		CreatorID:          creatorID,
		FirstReachedPeriod: label,
		RecordedAt:         m.now().UTC(),
	}
	return label, true, nil
}

// Threshold returns the record for creatorID, looking through to the base
// store on a miss.
func (m *Memory) Threshold(ctx context.Context, creatorID string) (generic.ThresholdRecord, error) {
	m.mu.RLock()
	rec, ok := m.records[creatorID]
	m.mu.RUnlock()
	if ok {
		return rec, nil
	}

	switch base := m.base.(type) {
	case nil:
	case generic.ThresholdLister:
		return base.Threshold(ctx, creatorID)
	default:
		label, found, err := base.FirstReached(ctx, creatorID)
		if err != nil {
			return generic.ThresholdRecord{}, err
		}
		if found {
			return generic.ThresholdRecord{CreatorID: creatorID, FirstReachedPeriod: label}, nil
		}
	}
	return generic.ThresholdRecord{}, generic.ErrThresholdNotFound
}

// ListThresholds returns the records held in memory, sorted by creator.
// Records that only exist in an overlay's base store are not included.
func (m *Memory) ListThresholds(_ context.Context) ([]generic.ThresholdRecord, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]generic.ThresholdRecord, 0, len(m.records))
	for _, rec := range m.records {
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatorID < out[j].CreatorID })
	return out, nil
}

// Len returns the number of records written to this store.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.records)
}
