package server

import (
	"net/http"

	"github.com/ternarybob/respondeo/internal/handlers"
)

// setupRoutes configures all HTTP routes
func (s *Server) setupRoutes() *http.ServeMux {
	mux := http.NewServeMux()

	// API routes - Projects
	mux.HandleFunc("/api/projects", s.handleProjectsRoute)
	mux.HandleFunc("/api/projects/", s.handleProjectRoutes)

	// API routes - Documents (download/delete by id)
	mux.HandleFunc("/api/documents/", s.handleDocumentRoutes)

	// API routes - Knowledge base
	mux.HandleFunc("/api/knowledge", s.handleKnowledgeRoute)
	mux.HandleFunc("/api/knowledge/", s.handleKnowledgeItemRoute)

	// API routes - System
	mux.HandleFunc("/api/version", s.app.APIHandler.VersionHandler)
	mux.HandleFunc("/api/health", s.app.APIHandler.HealthHandler)
	mux.HandleFunc("/api/logs", s.app.LogsHandler.ListHandler)
	mux.HandleFunc("/api/logs/", s.handleLogRoutes)

	return mux
}

// handleProjectsRoute handles /api/projects (list + create)
func (s *Server) handleProjectsRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.ProjectHandler.ListHandler, s.app.ProjectHandler.CreateHandler)
}

// handleProjectRoutes dispatches /api/projects/{id} and its subpaths.
func (s *Server) handleProjectRoutes(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/projects/"
	projectID := handlers.PathSegment(r.URL.Path, prefix, 0)
	if projectID == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	switch handlers.PathSegment(r.URL.Path, prefix, 1) {
	case "":
		RouteResourceItem(w, r,
			func(w http.ResponseWriter, r *http.Request) { s.app.ProjectHandler.GetHandler(w, r, projectID) },
			func(w http.ResponseWriter, r *http.Request) { s.app.ProjectHandler.UpdateHandler(w, r, projectID) },
			func(w http.ResponseWriter, r *http.Request) { s.app.ProjectHandler.DeleteHandler(w, r, projectID) })
	case "status":
		s.app.ProjectHandler.StatusHandler(w, r, projectID)
	case "generate-full":
		s.app.GenerateHandler.GenerateFullHandler(w, r, projectID)
	case "documents":
		RouteResourceCollection(w, r,
			func(w http.ResponseWriter, r *http.Request) { s.app.DocumentHandler.ListHandler(w, r, projectID) },
			func(w http.ResponseWriter, r *http.Request) { s.app.DocumentHandler.UploadHandler(w, r, projectID) })
	case "requirements":
		s.app.ResultsHandler.RequirementsHandler(w, r, projectID)
	case "responses":
		s.app.ResultsHandler.ResponsesHandler(w, r, projectID)
	case "score":
		s.app.ResultsHandler.ScoreHandler(w, r, projectID)
	case "schedule":
		s.app.ResultsHandler.ScheduleHandler(w, r, projectID)
	case "pricing":
		s.app.ResultsHandler.PricingHandler(w, r, projectID)
	case "plan":
		s.app.ResultsHandler.PlanHandler(w, r, projectID)
	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}

// handleDocumentRoutes dispatches /api/documents/{id} and
// /api/documents/{id}/download.
func (s *Server) handleDocumentRoutes(w http.ResponseWriter, r *http.Request) {
	const prefix = "/api/documents/"
	documentID := handlers.PathSegment(r.URL.Path, prefix, 0)
	if documentID == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}

	switch handlers.PathSegment(r.URL.Path, prefix, 1) {
	case "":
		RouteByMethod(w, r, MethodRouter{
			"DELETE": func(w http.ResponseWriter, r *http.Request) {
				s.app.DocumentHandler.DeleteHandler(w, r, documentID)
			},
		})
	case "download":
		s.app.DocumentHandler.DownloadHandler(w, r, documentID)
	default:
		s.app.APIHandler.NotFoundHandler(w, r)
	}
}

// handleLogRoutes handles /api/logs/{file}
func (s *Server) handleLogRoutes(w http.ResponseWriter, r *http.Request) {
	filename := handlers.PathSegment(r.URL.Path, "/api/logs/", 0)
	if filename == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}
	s.app.LogsHandler.TailHandler(w, r, filename)
}

// handleKnowledgeRoute handles /api/knowledge (list + create)
func (s *Server) handleKnowledgeRoute(w http.ResponseWriter, r *http.Request) {
	RouteResourceCollection(w, r, s.app.KnowledgeHandler.ListHandler, s.app.KnowledgeHandler.CreateHandler)
}

// handleKnowledgeItemRoute handles /api/knowledge/{id}
func (s *Server) handleKnowledgeItemRoute(w http.ResponseWriter, r *http.Request) {
	entryID := handlers.PathSegment(r.URL.Path, "/api/knowledge/", 0)
	if entryID == "" {
		s.app.APIHandler.NotFoundHandler(w, r)
		return
	}
	s.app.KnowledgeHandler.DeleteHandler(w, r, entryID)
}
