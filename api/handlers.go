/*
handlers.go - HTTP API handlers for the payout engine

PURPOSE:
  Exposes the payout engine, the threshold records and the assistant via a
  REST API. Handles HTTP request/response, JSON serialization, and delegates
  to domain logic.

ENDPOINTS:
  Payouts:
    POST   /api/payouts/compute        Compute from JSON columns + rows
    POST   /api/payouts/compute.csv    Compute from an uploaded CSV, CSV back

  Thresholds:
    GET    /api/thresholds             List first-crossing records
    GET    /api/thresholds/{id}        One creator's record

  Ruleset:
    GET    /api/ruleset                Active ruleset as a document

  Assistant:
    POST   /api/assistant/reply        Chat reply (offline placeholder on failure)

  Scenarios:
    GET    /api/scenarios              List sample exports
    GET    /api/scenarios/{id}         One sample, ready to POST to compute
    POST   /api/scenarios/{id}/run     Dry-run a sample (nothing is recorded)

  Misc:
    GET    /api/health                 Liveness

ARCHITECTURE:
  Handler struct holds all dependencies:
  - Engine:    Ruleset + threshold store
  - Store:     Read side of the same threshold store
  - Assistant: Text-generation collaborator
  - Metrics:   Optional, nil disables observation

REQUEST FLOW:
  1. Parse HTTP request
  2. Validate input (period, mapping field names)
  3. Call domain logic (engine.Compute)
  4. Serialize response
  5. Handle errors

ERROR HANDLING:
  Errors are returned as JSON with appropriate HTTP status:
  - 400: Invalid period, unknown mapping field, malformed body
  - 404: No threshold record for the creator
  - 422: Mapping incomplete; body carries the warnings verbatim
  - 500: Threshold store failure; no partial result is returned

SECURITY NOTE:
  No authentication or authorization. All endpoints are public.

SEE ALSO:
  - dto.go: Request/response data structures
  - middleware.go: Request ID + request-scoped logger
  - server.go: Router setup and middleware
*/
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"github.com/warp/payout-engine/assistant"
	"github.com/warp/payout-engine/factory"
	"github.com/warp/payout-engine/generic"
	"github.com/warp/payout-engine/metrics"
	"github.com/warp/payout-engine/rewards"
	"github.com/warp/payout-engine/tabular"
)

// maxUploadBytes bounds multipart uploads kept in memory.
const maxUploadBytes = 32 << 20

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Engine    *rewards.Engine
	Store     generic.ThresholdLister
	Assistant *assistant.Client
	Metrics   *metrics.Metrics

	newRunID func() (string, error)
}

// NewHandler creates a handler. The engine must write through store so the
// threshold endpoints see what compute records.
func NewHandler(engine *rewards.Engine, store generic.ThresholdLister, asst *assistant.Client, m *metrics.Metrics) *Handler {
	return &Handler{
		Engine:    engine,
		Store:     store,
		Assistant: asst,
		Metrics:   m,
		newRunID:  func() (string, error) { return gonanoid.New() },
	}
}

// =============================================================================
// PAYOUT HANDLERS
// =============================================================================

// Compute handles POST /api/payouts/compute
func (h *Handler) Compute(w http.ResponseWriter, r *http.Request) {
	var req ComputeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}
	if len(req.Columns) == 0 {
		writeError(w, r, http.StatusBadRequest, "columns are required", nil)
		return
	}

	mapping, err := rewards.ParseMapping(req.Mapping)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid mapping", err)
		return
	}

	table, err := tabularFromRequest(req)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid rows", err)
		return
	}

	runID, res, ok := h.compute(w, r, h.Engine, table, mapping, req.Period)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toComputeResponse(runID, res))
}

// ComputeCSV handles POST /api/payouts/compute.csv
// Form fields: file (CSV), period, mapping (JSON object field -> column).
func (h *Handler) ComputeCSV(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid multipart form", err)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "file is required", err)
		return
	}
	defer file.Close()

	table, err := tabular.ReadCSV(file)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid csv", err)
		return
	}

	var raw map[string]string
	if s := r.FormValue("mapping"); s != "" {
		if err := json.Unmarshal([]byte(s), &raw); err != nil {
			writeError(w, r, http.StatusBadRequest, "mapping must be a JSON object", err)
			return
		}
	}
	mapping, err := rewards.ParseMapping(raw)
	if err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid mapping", err)
		return
	}

	period := r.FormValue("period")
	runID, res, ok := h.compute(w, r, h.Engine, table, mapping, period)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := res.Table.WriteCSV(&buf); err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to write csv", err)
		return
	}

	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="payouts_%s.csv"`, safeFilename(res.Period.String())))
	w.Header().Set("X-Run-ID", runID)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(buf.Bytes())
}

// compute runs the engine and writes the error response itself. ok is false
// when a response has already been written.
func (h *Handler) compute(w http.ResponseWriter, r *http.Request, engine *rewards.Engine, table *tabular.Table, mapping rewards.Mapping, period string) (string, *rewards.ComputeResult, bool) {
	ctx := r.Context()
	log := zerolog.Ctx(ctx)

	runID, err := h.newRunID()
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to generate run id", err)
		return "", nil, false
	}

	start := time.Now()
	res, err := engine.Compute(ctx, table, mapping, period)
	if h.Metrics != nil {
		h.Metrics.ObserveRun(res, err, time.Since(start))
	}

	switch {
	case err == nil:
	case generic.IsClientError(err):
		writeError(w, r, http.StatusBadRequest, "invalid input", err)
		return "", nil, false
	case errors.Is(err, generic.ErrThresholdStore):
		log.Error().Err(err).Str("run_id", runID).Msg("compute aborted by threshold store")
		writeError(w, r, http.StatusInternalServerError, "threshold store unavailable", err)
		return "", nil, false
	default:
		log.Error().Err(err).Str("run_id", runID).Msg("compute failed")
		writeError(w, r, http.StatusInternalServerError, "compute failed", err)
		return "", nil, false
	}

	if len(res.Warnings) > 0 {
		writeJSON(w, http.StatusUnprocessableEntity, WarningsResponse{
			Error:    "column mapping incomplete",
			Warnings: res.Warnings,
		})
		return "", nil, false
	}

	log.Info().
		Str("run_id", runID).
		Str("period", res.Period.String()).
		Int("rows", res.Summary.Rows).
		Int64("total_reward", res.Summary.TotalReward).
		Msg("payout run completed")

	return runID, res, true
}

func safeFilename(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, s)
}

// =============================================================================
// THRESHOLD HANDLERS
// =============================================================================

// ListThresholds handles GET /api/thresholds
func (h *Handler) ListThresholds(w http.ResponseWriter, r *http.Request) {
	recs, err := h.Store.ListThresholds(r.Context())
	if err != nil {
		writeError(w, r, http.StatusInternalServerError, "failed to list thresholds", err)
		return
	}

	out := make([]ThresholdDTO, len(recs))
	for i, rec := range recs {
		out[i] = toThresholdDTO(rec)
	}
	writeJSON(w, http.StatusOK, ThresholdListResponse{Thresholds: out, Count: len(out)})
}

// GetThreshold handles GET /api/thresholds/{creatorID}
func (h *Handler) GetThreshold(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "creatorID")

	rec, err := h.Store.Threshold(r.Context(), id)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, toThresholdDTO(rec))
	case generic.IsNotFound(err):
		writeError(w, r, http.StatusNotFound, "threshold not reached", err)
	case generic.IsClientError(err):
		writeError(w, r, http.StatusBadRequest, "invalid creator id", err)
	default:
		writeError(w, r, http.StatusInternalServerError, "failed to get threshold", err)
	}
}

// =============================================================================
// RULESET / ASSISTANT / HEALTH
// =============================================================================

// GetRuleset handles GET /api/ruleset
func (h *Handler) GetRuleset(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, factory.ToDoc(h.Engine.Ruleset))
}

// AssistantReply handles POST /api/assistant/reply
func (h *Handler) AssistantReply(w http.ResponseWriter, r *http.Request) {
	var req AssistantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, r, http.StatusBadRequest, "invalid request body", err)
		return
	}

	history := req.History
	if len(history) == 0 || history[0].Role != assistant.RoleSystem {
		history = append(assistant.NewConversation(), history...)
	}

	writeJSON(w, http.StatusOK, h.Assistant.Reply(r.Context(), history))
}

// Health handles GET /api/health
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status:          "ok",
		RulesetVersion:  h.Engine.Ruleset.Version,
		AssistantOnline: h.Assistant.Online(),
	})
}

// =============================================================================
// HELPERS
// =============================================================================

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, r *http.Request, status int, message string, err error) {
	resp := ErrorResponse{Error: message, RequestID: GetRequestID(r.Context())}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
