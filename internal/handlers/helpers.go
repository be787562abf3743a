package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/ternarybob/respondeo/internal/common"
)

// RequireMethod validates that the HTTP request uses the specified method.
// Returns true if the method matches, false otherwise (and writes error response).
func RequireMethod(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method != method {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

// WriteJSON writes a JSON response with the specified status code and data.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	return json.NewEncoder(w).Encode(data)
}

// WriteSuccess writes a standard success JSON response.
func WriteSuccess(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusOK, map[string]string{
		"status":  "success",
		"message": message,
	})
}

// WriteError writes a standard error JSON response.
func WriteError(w http.ResponseWriter, statusCode int, message string) error {
	return WriteJSON(w, statusCode, map[string]string{
		"status": "error",
		"error":  message,
	})
}

// WriteAccepted writes the 202 response for async pipeline triggers.
func WriteAccepted(w http.ResponseWriter, message string) error {
	return WriteJSON(w, http.StatusAccepted, map[string]string{
		"status":  "accepted",
		"message": message,
	})
}

// WriteKindError maps an error's kind onto an HTTP status.
func WriteKindError(w http.ResponseWriter, err error) error {
	status := http.StatusInternalServerError
	switch common.KindOf(err) {
	case common.KindInvalidInput:
		status = http.StatusBadRequest
	case common.KindNotFound:
		status = http.StatusNotFound
	case common.KindConflict:
		status = http.StatusConflict
	case common.KindTransient:
		status = http.StatusServiceUnavailable
	}
	return WriteError(w, status, err.Error())
}

// PathSegment returns the path segment at index after the prefix.
// PathSegment("/api/projects/abc/generate-full", "/api/projects/", 0) == "abc".
func PathSegment(path, prefix string, index int) string {
	if !strings.HasPrefix(path, prefix) {
		return ""
	}
	parts := strings.Split(strings.Trim(path[len(prefix):], "/"), "/")
	if index >= len(parts) {
		return ""
	}
	return parts[index]
}
