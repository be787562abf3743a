package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/respondeo/internal/common"
)

func TestPathSegment(t *testing.T) {
	const prefix = "/api/projects/"

	assert.Equal(t, "abc", PathSegment("/api/projects/abc", prefix, 0))
	assert.Equal(t, "abc", PathSegment("/api/projects/abc/", prefix, 0))
	assert.Equal(t, "generate-full", PathSegment("/api/projects/abc/generate-full", prefix, 1))
	assert.Equal(t, "", PathSegment("/api/projects/abc", prefix, 1))
	assert.Equal(t, "", PathSegment("/api/other/abc", prefix, 0))
}

func TestWriteKindErrorStatusMapping(t *testing.T) {
	cases := []struct {
		kind common.ErrorKind
		want int
	}{
		{common.KindInvalidInput, http.StatusBadRequest},
		{common.KindNotFound, http.StatusNotFound},
		{common.KindConflict, http.StatusConflict},
		{common.KindTransient, http.StatusServiceUnavailable},
		{common.KindFatal, http.StatusInternalServerError},
	}
	for _, tc := range cases {
		rec := httptest.NewRecorder()
		WriteKindError(rec, common.Errorf(tc.kind, "boom"))
		assert.Equal(t, tc.want, rec.Code, "kind %s", tc.kind)
	}

	// Unclassified errors map to 500.
	rec := httptest.NewRecorder()
	WriteKindError(rec, errors.New("plain"))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestWriteAccepted(t *testing.T) {
	rec := httptest.NewRecorder()
	require.NoError(t, WriteAccepted(rec, "generation started"))

	assert.Equal(t, http.StatusAccepted, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "accepted", body["status"])
	assert.Equal(t, "generation started", body["message"])
}

func TestRequireMethod(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("POST", "/x", nil)
	assert.False(t, RequireMethod(rec, req, "GET"))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)

	rec = httptest.NewRecorder()
	req = httptest.NewRequest("GET", "/x", nil)
	assert.True(t, RequireMethod(rec, req, "GET"))
}
