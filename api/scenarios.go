/*
scenarios.go - Sample exports for demos and smoke tests

PURPOSE:
  Provides pre-built exports that exercise the payout rules end to end.
  Each scenario is a ComputeRequest that can be posted as-is to
  /api/payouts/compute, or dry-run in place.

AVAILABLE SCENARIOS:
  monthly-export:   Mixed batch (boosted, base, beginner, excluded, below tier)
  beginner-cohort:  New creators around the beginner minimums and age ceiling
  missing-column:   Mapping points at a column the export lacks (422)

HOW A DRY RUN WORKS:
  1. Wrap the live threshold store in an in-memory overlay
  2. Compute with the active ruleset against the overlay
  3. Discard the overlay: reads saw real records, writes went nowhere

ADDING NEW SCENARIOS:
  Append to 'scenarios' with an ID, name, description and request.

SEE ALSO:
  - handlers.go: compute
  - generic/store/memory.go: NewOverlay
*/
package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/warp/payout-engine/generic/store"
	"github.com/warp/payout-engine/rewards"
)

// ScenarioPeriod is the period label every sample is computed for.
const ScenarioPeriod = "2025-12"

// Column names shared by the samples.
const (
	colCreator  = "Creator ID"
	colDiamonds = "Diamonds"
	colDays     = "Valid days"
	colHours    = "Valid hours"
	colStatus   = "Excluded"
	colSince    = "Days since joining"
)

var sampleColumns = []string{colCreator, colDiamonds, colDays, colHours, colStatus, colSince}

func sampleMapping() map[string]string {
	return map[string]string{
		string(rewards.FieldCreatorID):     colCreator,
		string(rewards.FieldDiamonds):      colDiamonds,
		string(rewards.FieldLiveDays):      colDays,
		string(rewards.FieldLiveHours):     colHours,
		string(rewards.FieldStatus):        colStatus,
		string(rewards.FieldDaysSinceJoin): colSince,
	}
}

// =============================================================================
// SCENARIO DEFINITIONS
// =============================================================================

var scenarios = []ScenarioDTO{
	{
		ID:          "monthly-export",
		Name:        "Monthly Export",
		Description: "Boosted, base, beginner, excluded and below-tier creators in one batch",
		Request: ComputeRequest{
			Period:  ScenarioPeriod,
			Mapping: sampleMapping(),
			Columns: sampleColumns,
			Rows: [][]string{
				{"A1", "620000", "22", "96h 30min", "non", "400"},
				{"A2", "100000", "14", "30", "non", "200"},
				{"A3", "50000", "15", "40", "non", "300"},
				{"A4", "300000", "20", "90", "oui", "500"},
				{"A5", "90000", "9", "18h", "non", "45"},
			},
		},
	},
	{
		ID:          "beginner-cohort",
		Name:        "Beginner Cohort",
		Description: "New creators at the edges of the beginner minimums and the 90-day ceiling",
		Request: ComputeRequest{
			Period:  ScenarioPeriod,
			Mapping: sampleMapping(),
			Columns: sampleColumns,
			Rows: [][]string{
				{"B1", "80000", "7", "15", "non", "10"},
				{"B2", "80000", "7", "15", "non", "90"},
				{"B3", "80000", "6", "20", "non", "10"},
				{"B4", "40000", "15", "30", "non", "10"},
			},
		},
	},
	{
		ID:          "missing-column",
		Name:        "Missing Column",
		Description: "Diamonds are mapped to a column the export does not have",
		Request: ComputeRequest{
			Period: ScenarioPeriod,
			Mapping: func() map[string]string {
				m := sampleMapping()
				m[string(rewards.FieldDiamonds)] = "Diamants"
				return m
			}(),
			Columns: sampleColumns,
			Rows: [][]string{
				{"C1", "200000", "20", "80", "non", "400"},
			},
		},
	},
}

func findScenario(id string) (ScenarioDTO, bool) {
	for _, s := range scenarios {
		if s.ID == id {
			return s, true
		}
	}
	return ScenarioDTO{}, false
}

// =============================================================================
// HANDLERS
// =============================================================================

// ListScenarios returns available scenarios.
func (h *Handler) ListScenarios(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, scenarios)
}

// GetScenario handles GET /api/scenarios/{id}
func (h *Handler) GetScenario(w http.ResponseWriter, r *http.Request) {
	s, ok := findScenario(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "scenario not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// RunScenario handles POST /api/scenarios/{id}/run. The run reads recorded
// thresholds but records nothing.
func (h *Handler) RunScenario(w http.ResponseWriter, r *http.Request) {
	s, ok := findScenario(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, r, http.StatusNotFound, "scenario not found", nil)
		return
	}

	mapping, err := rewards.ParseMapping(s.Request.Mapping)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "invalid scenario mapping", err)
		return
	}

	dry := rewards.NewEngine(h.Engine.Ruleset, store.NewOverlay(h.Engine.Store))
	table, err := tabularFromRequest(s.Request)
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "invalid scenario rows", err)
		return
	}

	runID, res, ok := h.compute(w, r, dry, table, mapping, s.Request.Period)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toComputeResponse(runID, res))
}
