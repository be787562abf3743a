package handlers

import (
	"net/http"
	"strconv"

	"github.com/ternarybob/respondeo/internal/services/systemlogs"
)

const defaultLogTail = 500

// LogsHandler exposes the server's own log files for troubleshooting.
type LogsHandler struct {
	logs *systemlogs.Service
}

func NewLogsHandler(logs *systemlogs.Service) *LogsHandler {
	return &LogsHandler{logs: logs}
}

// ListHandler handles GET /api/logs
func (h *LogsHandler) ListHandler(w http.ResponseWriter, r *http.Request) {
	if !RequireMethod(w, r, "GET") {
		return
	}
	files, err := h.logs.List()
	if err != nil {
		WriteKindError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"files": files,
		"count": len(files),
	})
}

// TailHandler handles GET /api/logs/{file}?limit=N&level=ERR
func (h *LogsHandler) TailHandler(w http.ResponseWriter, r *http.Request, filename string) {
	if !RequireMethod(w, r, "GET") {
		return
	}

	limit := defaultLogTail
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			WriteError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := h.logs.Tail(filename, limit, r.URL.Query().Get("level"))
	if err != nil {
		WriteKindError(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
		"count":   len(entries),
	})
}
