/*
Package metrics exposes Prometheus metrics for payout runs, the threshold
store and the assistant.

PURPOSE:
  Every collector lives on a private registry so tests can create as many
  Metrics values as they like and /metrics only shows this process's series.

METRICS:
  payouts_compute_runs_total{outcome}          ok | warnings | error
  payouts_compute_duration_seconds             histogram per run
  payouts_rows_total{verdict}                  eligible | ineligible | excluded
  payouts_reward_diamonds_total                sum of rewards computed
  payouts_thresholds_recorded_total            first crossings inserted
  payouts_store_operations_total{op,result}    get | set_if_absent | get_record | list, ok | error
  payouts_store_operation_duration_seconds{op}
  payouts_assistant_requests_total{outcome}    ok | offline | quota | error
  payouts_assistant_model_cache_total{result}  hit | miss

SEE ALSO:
  - api/server.go: Serves Handler() on /metrics
*/
package metrics

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/warp/payout-engine/generic"
	"github.com/warp/payout-engine/rewards"
)

const namespace = "payouts"

// Run outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeWarnings = "warnings"
	OutcomeError    = "error"
)

// Metrics holds every collector of the process.
type Metrics struct {
	registry *prometheus.Registry

	runsTotal          *prometheus.CounterVec
	runDuration        prometheus.Histogram
	rowsTotal          *prometheus.CounterVec
	rewardTotal        prometheus.Counter
	thresholdsRecorded prometheus.Counter

	storeOpsTotal   *prometheus.CounterVec
	storeOpDuration *prometheus.HistogramVec

	assistantRequests *prometheus.CounterVec
	modelCache        *prometheus.CounterVec
}

// New creates and registers all collectors, plus the Go runtime and process
// collectors.
func New() (*Metrics, error) {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "compute_runs_total",
			Help:      "Payout computations by outcome.",
		}, []string{"outcome"}),
		runDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "compute_duration_seconds",
			Help:      "Duration of payout computations.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 8),
		}),
		rowsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "rows_total",
			Help:      "Evaluated rows by verdict.",
		}, []string{"verdict"}),
		rewardTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reward_diamonds_total",
			Help:      "Sum of computed rewards in diamonds.",
		}),
		thresholdsRecorded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "thresholds_recorded_total",
			Help:      "First threshold crossings inserted into the store.",
		}),
		storeOpsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "store_operations_total",
			Help:      "Threshold store operations by result.",
		}, []string{"op", "result"}),
		storeOpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "store_operation_duration_seconds",
			Help:      "Threshold store operation latency.",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 8),
		}, []string{"op"}),
		assistantRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_requests_total",
			Help:      "Assistant replies by outcome.",
		}, []string{"outcome"}),
		modelCache: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "assistant_model_cache_total",
			Help:      "Model discovery cache lookups.",
		}, []string{"result"}),
	}

	for _, c := range []prometheus.Collector{
		m.runsTotal, m.runDuration, m.rowsTotal, m.rewardTotal, m.thresholdsRecorded,
		m.storeOpsTotal, m.storeOpDuration, m.assistantRequests, m.modelCache,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	} {
		if err := m.registry.Register(c); err != nil {
			return nil, fmt.Errorf("failed to register collector: %w", err)
		}
	}
	return m, nil
}

// Registry returns the private registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// =============================================================================
// COMPUTE RUNS
// =============================================================================

// ObserveRun records one Engine.Compute call.
func (m *Metrics) ObserveRun(res *rewards.ComputeResult, err error, elapsed time.Duration) {
	m.runDuration.Observe(elapsed.Seconds())

	switch {
	case err != nil:
		m.runsTotal.WithLabelValues(OutcomeError).Inc()
		return
	case len(res.Warnings) > 0:
		m.runsTotal.WithLabelValues(OutcomeWarnings).Inc()
		return
	}

	m.runsTotal.WithLabelValues(OutcomeOK).Inc()
	s := res.Summary
	m.rowsTotal.WithLabelValues("eligible").Add(float64(s.Eligible))
	m.rowsTotal.WithLabelValues("excluded").Add(float64(s.Excluded))
	m.rowsTotal.WithLabelValues("ineligible").Add(float64(s.Rows - s.Eligible - s.Excluded))
	m.rewardTotal.Add(float64(s.TotalReward))
	m.thresholdsRecorded.Add(float64(s.NewThresholds))
}

// =============================================================================
// ASSISTANT
// =============================================================================

// AssistantReply counts one assistant reply by outcome.
func (m *Metrics) AssistantReply(outcome string) {
	m.assistantRequests.WithLabelValues(outcome).Inc()
}

// ModelCacheLookup counts one model discovery cache lookup.
func (m *Metrics) ModelCacheLookup(hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	m.modelCache.WithLabelValues(result).Inc()
}

// =============================================================================
// INSTRUMENTED STORE
// =============================================================================

// InstrumentStore wraps st so every call is counted and timed.
func (m *Metrics) InstrumentStore(st generic.ThresholdLister) generic.ThresholdLister {
	return &instrumentedStore{next: st, m: m}
}

type instrumentedStore struct {
	next generic.ThresholdLister
	m    *Metrics
}

func (s *instrumentedStore) observe(op string, start time.Time, err error) {
	s.m.storeOpDuration.WithLabelValues(op).Observe(time.Since(start).Seconds())
	result := "ok"
	// A missing record is an answer, not a failure.
	if err != nil && !errors.Is(err, generic.ErrThresholdNotFound) {
		result = "error"
	}
	s.m.storeOpsTotal.WithLabelValues(op, result).Inc()
}

func (s *instrumentedStore) FirstReached(ctx context.Context, creatorID string) (label generic.PeriodLabel, found bool, err error) {
	defer func(start time.Time) { s.observe("get", start, err) }(time.Now())
	return s.next.FirstReached(ctx, creatorID)
}

func (s *instrumentedStore) SetFirstReachedIfAbsent(ctx context.Context, creatorID string, label generic.PeriodLabel) (stored generic.PeriodLabel, inserted bool, err error) {
	defer func(start time.Time) { s.observe("set_if_absent", start, err) }(time.Now())
	return s.next.SetFirstReachedIfAbsent(ctx, creatorID, label)
}

func (s *instrumentedStore) Threshold(ctx context.Context, creatorID string) (rec generic.ThresholdRecord, err error) {
	defer func(start time.Time) { s.observe("get_record", start, err) }(time.Now())
	return s.next.Threshold(ctx, creatorID)
}

func (s *instrumentedStore) ListThresholds(ctx context.Context) (recs []generic.ThresholdRecord, err error) {
	defer func(start time.Time) { s.observe("list", start, err) }(time.Now())
	return s.next.ListThresholds(ctx)
}
