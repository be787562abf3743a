package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

// ProjectHandler serves project CRUD and the processing-status poll
// endpoint.
type ProjectHandler struct {
	storage interfaces.StorageManager
	logger  arbor.ILogger
}

func NewProjectHandler(storage interfaces.StorageManager) *ProjectHandler {
	return &ProjectHandler{
		storage: storage,
		logger:  common.GetLogger(),
	}
}

type projectRequest struct {
	Name          string `json:"name"`
	ClientName    string `json:"client_name"`
	Industry      string `json:"industry"`
	Description   string `json:"description"`
	UploadContext string `json:"upload_context"`
	OwnerID       string `json:"owner_id"`
}

// ListHandler handles GET /api/projects
func (h *ProjectHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	projects, err := h.storage.ProjectStorage().ListProjects(r.Context())
	if err != nil {
		WriteKindError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"projects": projects,
		"count":    len(projects),
	})
}

// CreateHandler handles POST /api/projects
func (h *ProjectHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "POST") {
		return
	}
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" {
		WriteError(w, http.StatusBadRequest, "name is required")
		return
	}

	project := &models.Project{
		ID:            common.NewID(),
		Name:          req.Name,
		ClientName:    req.ClientName,
		Industry:      req.Industry,
		Description:   req.Description,
		UploadContext: req.UploadContext,
		OwnerID:       req.OwnerID,
		Status:        models.ProjectStatusDraft,
	}
	if err := h.storage.ProjectStorage().SaveProject(r.Context(), project); err != nil {
		WriteKindError(w, err)
		return
	}
	h.logger.Info().Str("project_id", project.ID).Str("name", project.Name).Msg("Project created")
	WriteJSON(w, http.StatusCreated, project)
}

// GetHandler handles GET /api/projects/{id}
func (h *ProjectHandler) GetHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	project, err := h.storage.ProjectStorage().GetProject(r.Context(), projectID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "project not found")
		return
	}
	WriteJSON(w, http.StatusOK, project)
}

// UpdateHandler handles PUT /api/projects/{id}
func (h *ProjectHandler) UpdateHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	project, err := h.storage.ProjectStorage().GetProject(r.Context(), projectID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "project not found")
		return
	}
	var req projectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name != "" {
		project.Name = req.Name
	}
	if req.ClientName != "" {
		project.ClientName = req.ClientName
	}
	if req.Industry != "" {
		project.Industry = req.Industry
	}
	if req.Description != "" {
		project.Description = req.Description
	}
	if req.UploadContext != "" {
		project.UploadContext = req.UploadContext
	}
	if err := h.storage.ProjectStorage().SaveProject(r.Context(), project); err != nil {
		WriteKindError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, project)
}

// DeleteHandler handles DELETE /api/projects/{id}; removal cascades to
// every child row.
func (h *ProjectHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	if _, err := h.storage.ProjectStorage().GetProject(r.Context(), projectID); err != nil {
		WriteError(w, http.StatusNotFound, "project not found")
		return
	}
	if err := h.storage.DeleteProjectCascade(r.Context(), projectID); err != nil {
		WriteKindError(w, err)
		return
	}
	h.logger.Info().Str("project_id", projectID).Msg("Project deleted")
	WriteSuccess(w, "project deleted")
}

// StatusHandler handles GET /api/projects/{id}/status - the polling
// endpoint for pipeline progress.
func (h *ProjectHandler) StatusHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	project, err := h.storage.ProjectStorage().GetProject(r.Context(), projectID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "project not found")
		return
	}

	payload := map[string]interface{}{
		"project_id":         project.ID,
		"processing_status":  project.ProcessingStatus,
		"processing_message": project.ProcessingMessage,
	}
	if project.ProcessingStartedAt != nil {
		payload["processing_started_at"] = project.ProcessingStartedAt.Format(time.RFC3339)
	}
	WriteJSON(w, http.StatusOK, payload)
}
