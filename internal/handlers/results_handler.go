package handlers

import (
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/services/responses"
)

// ResultsHandler exposes the pipeline's extracted and generated rows
// for review: requirements, responses, schedule, pricing, plan, and the
// aggregate compliance score.
type ResultsHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewResultsHandler(storage interfaces.StorageManager) *ResultsHandler {
	return &ResultsHandler{
		storage: storage,
		logger:  common.GetLogger(),
	}
}

// RequirementsHandler handles GET /api/projects/{id}/requirements
func (h *ResultsHandler) RequirementsHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	reqs, err := h.storage.RequirementStorage().GetRequirementsByProject(r.Context(), projectID)
	if err != nil {
		WriteKindError(w, err)
		return
	}
	for _, req := range reqs {
		req.Embedding = nil
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"requirements": reqs, "count": len(reqs)})
}

// ResponsesHandler handles GET /api/projects/{id}/responses
func (h *ResultsHandler) ResponsesHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	resps, err := h.storage.ResponseStorage().GetResponsesByProject(r.Context(), projectID)
	if err != nil {
		WriteKindError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"responses": resps, "count": len(resps)})
}

// ScoreHandler handles GET /api/projects/{id}/score - compliance
// aggregation computed on read.
func (h *ResultsHandler) ScoreHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	reqs, err := h.storage.RequirementStorage().GetRequirementsByProject(r.Context(), projectID)
	if err != nil {
		WriteKindError(w, err)
		return
	}
	resps, err := h.storage.ResponseStorage().GetResponsesByProject(r.Context(), projectID)
	if err != nil {
		WriteKindError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, responses.Score(reqs, resps))
}

// ScheduleHandler handles GET /api/projects/{id}/schedule
func (h *ResultsHandler) ScheduleHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	events, err := h.storage.ScheduleStorage().GetEventsByProject(r.Context(), projectID)
	if err != nil {
		WriteKindError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"events": events, "count": len(events)})
}

// PricingHandler handles GET /api/projects/{id}/pricing
func (h *ResultsHandler) PricingHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	items, err := h.storage.PricingStorage().GetItemsByProject(r.Context(), projectID)
	if err != nil {
		WriteKindError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{"items": items, "count": len(items)})
}

// PlanHandler handles GET /api/projects/{id}/plan
func (h *ResultsHandler) PlanHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	plan, err := h.storage.PlanStorage().GetPlanByProject(r.Context(), projectID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "no plan generated for project")
		return
	}
	WriteJSON(w, http.StatusOK, plan)
}
