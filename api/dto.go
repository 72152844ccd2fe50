/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  Defines the JSON structures for API communication. These types decouple
  the engine's types from the external API contract.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients
  - *Response: Complex response wrappers

TYPES:
  Compute:    ComputeRequest, ComputeResponse, RowResultDTO, SummaryDTO,
              WarningsResponse
  Thresholds: ThresholdDTO, ThresholdListResponse
  Assistant:  AssistantRequest (response is assistant.Reply)
  Scenarios:  ScenarioDTO

VALIDATION:
  Validation is done in handlers, not in DTOs. DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
  - factory/ruleset.go: RulesetDoc, served as-is by GET /api/ruleset
*/
package api

import (
	"time"

	"github.com/warp/payout-engine/assistant"
	"github.com/warp/payout-engine/generic"
	"github.com/warp/payout-engine/rewards"
	"github.com/warp/payout-engine/tabular"
)

// =============================================================================
// COMPUTE
// =============================================================================

// ComputeRequest carries one export as columns + rows and the mapping from
// logical field names to column names.
type ComputeRequest struct {
	Period  string            `json:"period"`
	Mapping map[string]string `json:"mapping"`
	Columns []string          `json:"columns"`
	Rows    [][]string        `json:"rows"`
}

// ComputeResponse is the annotated table plus typed per-row results.
type ComputeResponse struct {
	RunID   string         `json:"run_id"`
	Period  string         `json:"period"`
	Columns []string       `json:"columns"`
	Rows    [][]string     `json:"rows"`
	Results []RowResultDTO `json:"results"`
	Summary SummaryDTO     `json:"summary"`
}

// RowResultDTO is the verdict for one row.
type RowResultDTO struct {
	CreatorID          string   `json:"creator_id"`
	Tier               string   `json:"tier"`
	AppliedRate        string   `json:"applied_rate"`
	Bonus              string   `json:"bonus"`
	Reward             int64    `json:"reward"`
	Eligible           bool     `json:"eligible"`
	Reasons            []string `json:"reasons"`
	Excluded           bool     `json:"excluded"`
	Boosted            bool     `json:"boosted"`
	Beginner           bool     `json:"beginner"`
	ReachedThreshold   bool     `json:"reached_threshold"`
	FirstReachedPeriod string   `json:"first_reached_period,omitempty"`
	NewlyRecorded      bool     `json:"newly_recorded"`
}

// SummaryDTO aggregates a run.
type SummaryDTO struct {
	RulesetVersion string `json:"ruleset_version"`
	Rows           int    `json:"rows"`
	Eligible       int    `json:"eligible"`
	Excluded       int    `json:"excluded"`
	TotalReward    int64  `json:"total_reward"`
	NewThresholds  int    `json:"new_thresholds"`
}

// WarningsResponse is returned with 422 when the mapping is incomplete.
type WarningsResponse struct {
	Error    string   `json:"error"`
	Warnings []string `json:"warnings"`
}

// =============================================================================
// THRESHOLDS
// =============================================================================

// ThresholdDTO is one first-crossing record.
type ThresholdDTO struct {
	CreatorID          string     `json:"creator_id"`
	FirstReachedPeriod string     `json:"first_reached_period"`
	RecordedAt         *time.Time `json:"recorded_at,omitempty"`
}

// ThresholdListResponse lists every record.
type ThresholdListResponse struct {
	Thresholds []ThresholdDTO `json:"thresholds"`
	Count      int            `json:"count"`
}

// =============================================================================
// ASSISTANT
// =============================================================================

// AssistantRequest is a chat history. An empty history starts a new
// conversation with the default system prompt.
type AssistantRequest struct {
	History []assistant.Message `json:"history"`
}

// =============================================================================
// MISC
// =============================================================================

// HealthResponse reports liveness and the active configuration.
type HealthResponse struct {
	Status          string `json:"status"`
	RulesetVersion  string `json:"ruleset_version"`
	AssistantOnline bool   `json:"assistant_online"`
}

// ErrorResponse is the body of every 4xx/5xx except mapping warnings.
type ErrorResponse struct {
	Error     string `json:"error"`
	Details   string `json:"details,omitempty"`
	RequestID string `json:"request_id,omitempty"`
}

// ScenarioDTO describes a built-in sample export.
type ScenarioDTO struct {
	ID          string         `json:"id"`
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Request     ComputeRequest `json:"request"`
}

// =============================================================================
// CONVERSIONS
// =============================================================================

func tabularFromRequest(req ComputeRequest) (*tabular.Table, error) {
	return tabular.FromRecords(req.Columns, req.Rows)
}

func toComputeResponse(runID string, res *rewards.ComputeResult) ComputeResponse {
	resp := ComputeResponse{
		RunID:   runID,
		Period:  res.Period.String(),
		Columns: res.Table.Columns,
		Rows:    res.Table.Rows,
		Results: make([]RowResultDTO, len(res.Rows)),
		Summary: SummaryDTO(res.Summary),
	}
	for i, r := range res.Rows {
		reasons := r.Reasons
		if reasons == nil {
			reasons = []string{}
		}
		resp.Results[i] = RowResultDTO{
			CreatorID:          r.Row.CreatorID,
			Tier:               r.Tier,
			AppliedRate:        r.AppliedRate.String(),
			Bonus:              r.Bonus.String(),
			Reward:             r.Reward,
			Eligible:           r.Eligible,
			Reasons:            reasons,
			Excluded:           r.Excluded,
			Boosted:            r.Boosted,
			Beginner:           r.Beginner,
			ReachedThreshold:   r.ReachedThreshold,
			FirstReachedPeriod: r.FirstReachedPeriod.String(),
			NewlyRecorded:      r.NewlyRecorded,
		}
	}
	return resp
}

func toThresholdDTO(rec generic.ThresholdRecord) ThresholdDTO {
	dto := ThresholdDTO{
		CreatorID:          rec.CreatorID,
		FirstReachedPeriod: rec.FirstReachedPeriod.String(),
	}
	if !rec.RecordedAt.IsZero() {
		t := rec.RecordedAt
		dto.RecordedAt = &t
	}
	return dto
}
