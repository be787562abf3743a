package handlers

import (
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

const maxUploadBytes = 100 << 20

// DocumentHandler serves document upload, listing, and download for a
// project. Bytes go to the blob store; only metadata is persisted.
type DocumentHandler struct {
	storage interfaces.StorageManager
	blob    interfaces.BlobService
	logger  arbor.ILogger
}

func NewDocumentHandler(storage interfaces.StorageManager, blob interfaces.BlobService) *DocumentHandler {
	return &DocumentHandler{
		storage: storage,
		blob:    blob,
		logger:  common.GetLogger(),
	}
}

// ListHandler handles GET /api/projects/{id}/documents
func (h *DocumentHandler) ListHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	docs, err := h.storage.DocumentStorage().GetDocumentsByProject(r.Context(), projectID)
	if err != nil {
		WriteKindError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"documents": docs,
		"count":     len(docs),
	})
}

// UploadHandler handles POST /api/projects/{id}/documents (multipart
// form, field "file").
func (h *DocumentHandler) UploadHandler(w http.ResponseWriter, r *http.Request, projectID string) {
	if _, err := h.storage.ProjectStorage().GetProject(r.Context(), projectID); err != nil {
		WriteError(w, http.StatusNotFound, "project not found")
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	file, header, err := r.FormFile("file")
	if err != nil {
		WriteError(w, http.StatusBadRequest, "missing file upload")
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "failed to read upload")
		return
	}

	fileType, ok := models.FileTypeFromFilename(header.Filename)
	if !ok {
		WriteError(w, http.StatusBadRequest, fmt.Sprintf("unsupported file type: %s", header.Filename))
		return
	}

	doc := &models.Document{
		ID:         common.NewDocumentID(),
		ProjectID:  projectID,
		Filename:   header.Filename,
		FileType:   fileType,
		SizeBytes:  int64(len(data)),
		Status:     models.DocumentStatusUploaded,
		UploadedBy: r.FormValue("uploaded_by"),
	}
	doc.StorageKey = fmt.Sprintf("projects/%s/uploads/%s/%s", projectID, doc.ID, header.Filename)

	if err := h.blob.Put(r.Context(), doc.StorageKey, data, header.Header.Get("Content-Type")); err != nil {
		WriteKindError(w, err)
		return
	}
	if err := h.storage.DocumentStorage().SaveDocument(r.Context(), doc); err != nil {
		if delErr := h.blob.Delete(r.Context(), doc.StorageKey); delErr != nil {
			h.logger.Warn().Err(delErr).Str("key", doc.StorageKey).Msg("Failed to clean up orphaned upload")
		}
		WriteKindError(w, err)
		return
	}

	h.logger.Info().
		Str("project_id", projectID).
		Str("document_id", doc.ID).
		Str("filename", doc.Filename).
		Int64("size", doc.SizeBytes).
		Msg("Document uploaded")
	WriteJSON(w, http.StatusCreated, doc)
}

// DownloadHandler handles GET /api/documents/{id}/download - redirects
// to a short-lived presigned URL. Generated artifacts download the same
// way as uploads.
func (h *DocumentHandler) DownloadHandler(w http.ResponseWriter, r *http.Request, documentID string) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	doc, err := h.storage.DocumentStorage().GetDocument(r.Context(), documentID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "document not found")
		return
	}
	url, err := h.blob.PresignGet(r.Context(), doc.StorageKey, 15*time.Minute)
	if err != nil {
		WriteKindError(w, err)
		return
	}
	http.Redirect(w, r, url, http.StatusTemporaryRedirect)
}

// DeleteHandler handles DELETE /api/documents/{id}
func (h *DocumentHandler) DeleteHandler(w http.ResponseWriter, r *http.Request, documentID string) {
	doc, err := h.storage.DocumentStorage().GetDocument(r.Context(), documentID)
	if err != nil {
		WriteError(w, http.StatusNotFound, "document not found")
		return
	}
	if err := h.blob.Delete(r.Context(), doc.StorageKey); err != nil {
		h.logger.Warn().Err(err).Str("key", doc.StorageKey).Msg("Failed to delete blob, removing metadata anyway")
	}
	if err := h.storage.DocumentStorage().DeleteDocument(r.Context(), documentID); err != nil {
		WriteKindError(w, err)
		return
	}
	WriteSuccess(w, "document deleted")
}
