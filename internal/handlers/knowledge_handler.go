package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/knowledge"
)

// KnowledgeHandler manages the answer library: adding entries (embedded
// on insert) and listing them.
type KnowledgeHandler struct {
	storage interfaces.StorageManager
	kb      *knowledge.Service
	logger  arbor.ILogger
}

func NewKnowledgeHandler(storage interfaces.StorageManager, kb *knowledge.Service) *KnowledgeHandler {
	return &KnowledgeHandler{
		storage: storage,
		kb:      kb,
		logger:  common.GetLogger(),
	}
}

// ListHandler handles GET /api/knowledge
func (h *KnowledgeHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	entries, err := h.storage.KnowledgeStorage().ListEntries(r.Context(), r.URL.Query().Get("org_id"))
	if err != nil {
		WriteKindError(w, err)
		return
	}
	// Strip vectors from the listing payload.
	for _, entry := range entries {
		entry.Embedding = nil
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}

// CreateHandler handles POST /api/knowledge
func (h *KnowledgeHandler) CreateHandler(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Title           string   `json:"title"`
		Content         string   `json:"content"`
		Category        string   `json:"category"`
		Tags            []string `json:"tags"`
		OrgID           string   `json:"org_id"`
		SourceProjectID string   `json:"source_project_id"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Title == "" || req.Content == "" {
		WriteError(w, http.StatusBadRequest, "title and content are required")
		return
	}

	entry := &models.KnowledgeEntry{
		ID:              common.NewID(),
		Title:           req.Title,
		Content:         req.Content,
		Category:        req.Category,
		Tags:            req.Tags,
		OrgID:           req.OrgID,
		SourceProjectID: req.SourceProjectID,
	}
	if err := h.kb.Add(r.Context(), entry); err != nil {
		WriteKindError(w, err)
		return
	}

	h.logger.Info().Str("entry_id", entry.ID).Str("title", entry.Title).Msg("Knowledge entry indexed")
	entry.Embedding = nil
	WriteJSON(w, http.StatusCreated, entry)
}

// DeleteHandler handles DELETE /api/knowledge/{id}
func (h *KnowledgeHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, entryID string) {
	if !RequireMethod(w, r, "DELETE") {
		return
	}
	if _, err := h.storage.KnowledgeStorage().GetEntry(r.Context(), entryID); err != nil {
		WriteError(w, http.StatusNotFound, "knowledge entry not found")
		return
	}
	if err := h.storage.KnowledgeStorage().DeleteEntry(r.Context(), entryID); err != nil {
		WriteKindError(w, err)
		return
	}
	WriteSuccess(w, "knowledge entry deleted")
}
