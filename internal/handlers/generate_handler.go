package handlers

import (
	"context"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/pipeline"
)

// GenerateHandler triggers the generation pipeline. The trigger is
// idempotent on processing_status: a live run yields 409, a project
// with no source documents yields 400, otherwise the status flips to
// processing before the 202 is written and the pipeline runs in the
// background.
type GenerateHandler struct {
	storage  interfaces.StorageManager
	pipeline *pipeline.Pipeline
	logger   arbor.ILogger
}

func NewGenerateHandler(storage interfaces.StorageManager, p *pipeline.Pipeline) *GenerateHandler {
	return &GenerateHandler{
		storage:  storage,
		pipeline: p,
		logger:   common.GetLogger(),
	}
}

// GenerateFullHandler handles POST /api/projects/{id}/generate-full
func (h *GenerateHandler) GenerateFullHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	if !RequireMethod(w, r, "POST") {
		return
	}

	ctx := r.Context()
	if _, err := h.storage.ProjectStorage().GetProject(ctx, projectID); err != nil {
		WriteError(w, http.StatusNotFound, "project not found")
		return
	}

	docs, err := h.storage.DocumentStorage().GetDocumentsByProject(ctx, projectID)
	if err != nil {
		WriteKindError(w, err)
		return
	}
	hasSource := false
	for _, doc := range docs {
		if doc.DocCategory != models.CategoryGeneratedOutput {
			hasSource = true
			break
		}
	}
	if !hasSource {
		WriteError(w, http.StatusBadRequest, "no_documents")
		return
	}

	if err := h.storage.ProjectStorage().BeginProcessing(ctx, projectID); err != nil {
		if common.IsKind(err, common.KindConflict) {
			WriteError(w, http.StatusConflict, "generation already in progress")
			return
		}
		WriteKindError(w, err)
		return
	}

	h.logger.Info().Str("project_id", projectID).Msg("Generation pipeline triggered")
	go h.pipeline.Run(context.Background(), projectID)

	WriteAccepted(w, "generation started")
}
