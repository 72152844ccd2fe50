package metrics_test

import (
	"context"
	"errors"
	"io"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/warp/payout-engine/generic"
	"github.com/warp/payout-engine/generic/store"
	"github.com/warp/payout-engine/metrics"
	"github.com/warp/payout-engine/rewards"
)

func TestObserveRun(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)

	m.ObserveRun(&rewards.ComputeResult{Summary: rewards.Summary{
		Rows: 5, Eligible: 2, Excluded: 1, TotalReward: 16500, NewThresholds: 1,
	}}, nil, 10*time.Millisecond)
	m.ObserveRun(&rewards.ComputeResult{Warnings: []string{"missing"}}, nil, time.Millisecond)
	m.ObserveRun(nil, errors.New("boom"), time.Millisecond)

	body := scrape(t, m)
	assert.Contains(t, body, `payouts_compute_runs_total{outcome="ok"} 1`)
	assert.Contains(t, body, `payouts_compute_runs_total{outcome="warnings"} 1`)
	assert.Contains(t, body, `payouts_compute_runs_total{outcome="error"} 1`)
	assert.Contains(t, body, `payouts_rows_total{verdict="ineligible"} 2`)
	assert.Contains(t, body, `payouts_reward_diamonds_total 16500`)
	assert.Contains(t, body, `payouts_thresholds_recorded_total 1`)
	assert.Contains(t, body, `payouts_compute_duration_seconds_count 3`)
}

func TestInstrumentStore(t *testing.T) {
	// GIVEN: A memory store wrapped with metrics
	m, err := metrics.New()
	require.NoError(t, err)
	st := m.InstrumentStore(store.NewMemory())
	ctx := context.Background()

	// WHEN: Exercising every operation, including failures
	_, _, err = st.SetFirstReachedIfAbsent(ctx, "C1", "2025-12")
	require.NoError(t, err)
	_, _, err = st.FirstReached(ctx, "C1")
	require.NoError(t, err)
	_, _, err = st.FirstReached(ctx, "")
	require.ErrorIs(t, err, generic.ErrCreatorIDRequired)
	_, err = st.Threshold(ctx, "C404")
	require.ErrorIs(t, err, generic.ErrThresholdNotFound)
	_, err = st.ListThresholds(ctx)
	require.NoError(t, err)

	// THEN: Operations are counted by result, not-found is not an error
	body := scrape(t, m)
	assert.Contains(t, body, `payouts_store_operations_total{op="get",result="ok"} 1`)
	assert.Contains(t, body, `payouts_store_operations_total{op="get",result="error"} 1`)
	assert.Contains(t, body, `payouts_store_operations_total{op="set_if_absent",result="ok"} 1`)
	assert.Contains(t, body, `payouts_store_operations_total{op="get_record",result="ok"} 1`)
	assert.Contains(t, body, `payouts_store_operations_total{op="list",result="ok"} 1`)
}

func TestAssistantCounters(t *testing.T) {
	m, err := metrics.New()
	require.NoError(t, err)

	m.AssistantReply("offline")
	m.AssistantReply("offline")
	m.ModelCacheLookup(true)
	m.ModelCacheLookup(false)

	n, err := testutil.GatherAndCount(m.Registry(), "payouts_assistant_requests_total", "payouts_assistant_model_cache_total")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.Contains(t, scrape(t, m), `payouts_assistant_requests_total{outcome="offline"} 2`)
}

func TestIndependentRegistries(t *testing.T) {
	_, err := metrics.New()
	require.NoError(t, err)
	_, err = metrics.New()
	assert.NoError(t, err)
}

func scrape(t *testing.T, m *metrics.Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}
