package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/respondeo/internal/models"
)

func multipartUpload(t *testing.T, filename string, content []byte, fields map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	fw, err := mw.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = fw.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, mw.WriteField(k, v))
	}
	require.NoError(t, mw.Close())
	return &buf, mw.FormDataContentType()
}

func TestDocumentUploadStoresBytesAndMetadata(t *testing.T) {
	manager := newHandlerStorage(t)
	blob := newFakeBlob()
	h := NewDocumentHandler(manager, blob)
	ctx := context.Background()
	require.NoError(t, manager.ProjectStorage().SaveProject(ctx, &models.Project{ID: "p1", Name: "x"}))

	content := []byte("%PDF-1.4 fixture")
	body, contentType := multipartUpload(t, "rfp.pdf", content, map[string]string{"uploaded_by": "analyst"})
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/projects/p1/documents", body)
	req.Header.Set("Content-Type", contentType)
	h.UploadHandler(rec, req, "p1")

	require.Equal(t, 201, rec.Code)
	var doc models.Document
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.True(t, strings.HasPrefix(doc.ID, "doc_"))
	assert.Equal(t, models.FileTypePDF, doc.FileType)
	assert.Equal(t, models.DocumentStatusUploaded, doc.Status)
	assert.Equal(t, int64(len(content)), doc.SizeBytes)
	assert.Equal(t, "analyst", doc.UploadedBy)
	assert.Equal(t, "projects/p1/uploads/"+doc.ID+"/rfp.pdf", doc.StorageKey)

	stored, err := blob.Get(ctx, doc.StorageKey)
	require.NoError(t, err)
	assert.Equal(t, content, stored)

	saved, err := manager.DocumentStorage().GetDocument(ctx, doc.ID)
	require.NoError(t, err)
	assert.Equal(t, "rfp.pdf", saved.Filename)
}

func TestDocumentUploadRejectsUnsupportedExtension(t *testing.T) {
	manager := newHandlerStorage(t)
	blob := newFakeBlob()
	h := NewDocumentHandler(manager, blob)
	ctx := context.Background()
	require.NoError(t, manager.ProjectStorage().SaveProject(ctx, &models.Project{ID: "p1", Name: "x"}))

	body, contentType := multipartUpload(t, "tool.exe", []byte("MZ"), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/projects/p1/documents", body)
	req.Header.Set("Content-Type", contentType)
	h.UploadHandler(rec, req, "p1")

	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "unsupported file type")
	assert.Empty(t, blob.objects)
}

func TestDocumentUploadRequiresFileField(t *testing.T) {
	manager := newHandlerStorage(t)
	h := NewDocumentHandler(manager, newFakeBlob())
	ctx := context.Background()
	require.NoError(t, manager.ProjectStorage().SaveProject(ctx, &models.Project{ID: "p1", Name: "x"}))

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("uploaded_by", "analyst"))
	require.NoError(t, mw.Close())

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/projects/p1/documents", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	h.UploadHandler(rec, req, "p1")

	assert.Equal(t, 400, rec.Code)
	assert.Contains(t, rec.Body.String(), "missing file upload")
}

func TestDocumentUploadUnknownProject(t *testing.T) {
	h := NewDocumentHandler(newHandlerStorage(t), newFakeBlob())

	body, contentType := multipartUpload(t, "rfp.pdf", []byte("x"), nil)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/api/projects/ghost/documents", body)
	req.Header.Set("Content-Type", contentType)
	h.UploadHandler(rec, req, "ghost")

	assert.Equal(t, 404, rec.Code)
}

func TestDocumentDownloadRedirectsToPresignedURL(t *testing.T) {
	manager := newHandlerStorage(t)
	h := NewDocumentHandler(manager, newFakeBlob())
	ctx := context.Background()
	require.NoError(t, manager.DocumentStorage().SaveDocument(ctx, &models.Document{
		ID: "d1", ProjectID: "p1", Filename: "rfp.pdf",
		StorageKey: "projects/p1/uploads/d1/rfp.pdf",
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/documents/d1/download", nil)
	h.DownloadHandler(rec, req, "d1")

	assert.Equal(t, 307, rec.Code)
	assert.Equal(t, "http://blob.local/projects/p1/uploads/d1/rfp.pdf", rec.Header().Get("Location"))
}

func TestDocumentDeleteRemovesBlobAndRow(t *testing.T) {
	manager := newHandlerStorage(t)
	blob := newFakeBlob()
	h := NewDocumentHandler(manager, blob)
	ctx := context.Background()
	require.NoError(t, blob.Put(ctx, "projects/p1/uploads/d1/rfp.pdf", []byte("x"), "application/pdf"))
	require.NoError(t, manager.DocumentStorage().SaveDocument(ctx, &models.Document{
		ID: "d1", ProjectID: "p1", Filename: "rfp.pdf",
		StorageKey: "projects/p1/uploads/d1/rfp.pdf",
	}))

	rec := httptest.NewRecorder()
	req := httptest.NewRequest("DELETE", "/api/documents/d1", nil)
	h.DeleteHandler(rec, req, "d1")

	require.Equal(t, 200, rec.Code)
	exists, err := blob.Exists(ctx, "projects/p1/uploads/d1/rfp.pdf")
	require.NoError(t, err)
	assert.False(t, exists)
	_, err = manager.DocumentStorage().GetDocument(ctx, "d1")
	assert.Error(t, err)
}
