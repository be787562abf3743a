package interfaces

import (
	"context"

	"github.com/ternarybob/respondeo/internal/models"
)

// ProjectStorage - interface for project persistence and the
// processing-status state machine
type ProjectStorage interface {
	SaveProject(ctx context.Context, project *models.Project) error
	GetProject(ctx context.Context, id string) (*models.Project, error)
	ListProjects(ctx context.Context) ([]*models.Project, error)
	DeleteProject(ctx context.Context, id string) error

	// SetProcessingStatus writes the (status, message, started_at) tuple
	// through a fresh transaction so pollers always see a monotone value.
	SetProcessingStatus(ctx context.Context, id string, status models.ProcessingStatus, message string) error

	// BeginProcessing flips processing_status to processing iff no run is
	// live; returns a conflict error otherwise.
	BeginProcessing(ctx context.Context, id string) error
}

// DocumentStorage - interface for document metadata persistence
type DocumentStorage interface {
	SaveDocument(ctx context.Context, doc *models.Document) error
	GetDocument(ctx context.Context, id string) (*models.Document, error)
	GetDocumentsByProject(ctx context.Context, projectID string) ([]*models.Document, error)
	DeleteDocument(ctx context.Context, id string) error
	DeleteDocumentsByProject(ctx context.Context, projectID string) error

	// SaveDocumentsAtomic inserts all rows in one transaction; either all
	// rows land or none do. Used by artifact publication.
	SaveDocumentsAtomic(ctx context.Context, docs []*models.Document) error
}

// RequirementStorage - interface for extracted requirement persistence
type RequirementStorage interface {
	SaveRequirement(ctx context.Context, req *models.Requirement) error
	SaveRequirements(ctx context.Context, reqs []*models.Requirement) error
	GetRequirement(ctx context.Context, id string) (*models.Requirement, error)
	GetRequirementsByProject(ctx context.Context, projectID string) ([]*models.Requirement, error)
	DeleteRequirementsByProject(ctx context.Context, projectID string) error
}

// ResponseStorage - interface for drafted response persistence
type ResponseStorage interface {
	SaveResponse(ctx context.Context, resp *models.Response) error
	SaveResponses(ctx context.Context, resps []*models.Response) error
	GetResponse(ctx context.Context, id string) (*models.Response, error)
	GetResponseByRequirement(ctx context.Context, requirementID string) (*models.Response, error)
	GetResponsesByProject(ctx context.Context, projectID string) ([]*models.Response, error)
	DeleteResponsesByProject(ctx context.Context, projectID string) error
}

// ScheduleStorage - interface for schedule event persistence
type ScheduleStorage interface {
	SaveEvent(ctx context.Context, event *models.ScheduleEvent) error
	SaveEvents(ctx context.Context, events []*models.ScheduleEvent) error
	GetEventsByProject(ctx context.Context, projectID string) ([]*models.ScheduleEvent, error)
	DeleteEventsByProject(ctx context.Context, projectID string) error
}

// PricingStorage - interface for pricing line item persistence
type PricingStorage interface {
	SaveItem(ctx context.Context, item *models.PricingItem) error
	SaveItems(ctx context.Context, items []*models.PricingItem) error
	GetItemsByProject(ctx context.Context, projectID string) ([]*models.PricingItem, error)
	DeleteItemsByProject(ctx context.Context, projectID string) error
}

// PlanStorage - interface for response plan persistence
type PlanStorage interface {
	// SavePlan replaces the project's plan, incrementing Version when a
	// prior plan exists.
	SavePlan(ctx context.Context, plan *models.ResponsePlan) error
	GetPlanByProject(ctx context.Context, projectID string) (*models.ResponsePlan, error)
	DeletePlanByProject(ctx context.Context, projectID string) error
}

// KnowledgeStorage - interface for the vector-indexed answer library
type KnowledgeStorage interface {
	SaveEntry(ctx context.Context, entry *models.KnowledgeEntry) error
	GetEntry(ctx context.Context, id string) (*models.KnowledgeEntry, error)
	ListEntries(ctx context.Context, orgID string) ([]*models.KnowledgeEntry, error)
	DeleteEntry(ctx context.Context, id string) error

	// SearchByVector returns up to limit entries ranked by cosine
	// similarity to the query vector, scoped to orgID when non-empty.
	SearchByVector(ctx context.Context, vector []float32, orgID string, limit int) ([]*models.KnowledgeEntry, []float64, error)

	// GetStaleEntries returns entries whose embedding model differs from
	// model, for the periodic re-embed sweep.
	GetStaleEntries(ctx context.Context, model string, limit int) ([]*models.KnowledgeEntry, error)
}

// StorageManager - composite interface for all storage operations
type StorageManager interface {
	ProjectStorage() ProjectStorage
	DocumentStorage() DocumentStorage
	RequirementStorage() RequirementStorage
	ResponseStorage() ResponseStorage
	ScheduleStorage() ScheduleStorage
	PricingStorage() PricingStorage
	PlanStorage() PlanStorage
	KnowledgeStorage() KnowledgeStorage

	// DeleteProjectCascade removes a project and every child row.
	DeleteProjectCascade(ctx context.Context, projectID string) error

	DB() interface{}
	Close() error
}
