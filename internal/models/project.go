package models

import "time"

// ProjectStatus is the user-facing lifecycle of a procurement project.
type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "draft"
	ProjectStatusInProgress ProjectStatus = "in_progress"
	ProjectStatusReview     ProjectStatus = "review"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusArchived   ProjectStatus = "archived"
)

// ProcessingStatus is the pipeline state machine callers poll.
// Empty means no run has been triggered.
type ProcessingStatus string

const (
	ProcessingStatusNone       ProcessingStatus = ""
	ProcessingStatusProcessing ProcessingStatus = "processing"
	ProcessingStatusCompleted  ProcessingStatus = "completed"
	ProcessingStatusFailed     ProcessingStatus = "failed"
)

// Project is the root entity; all other rows hang off it and are
// cascade-deleted with it.
type Project struct {
	ID            string        `json:"id" badgerhold:"key"`
	Name          string        `json:"name"`
	OwnerID       string        `json:"owner_id"`
	ClientName    string        `json:"client_name,omitempty"`
	Industry      string        `json:"industry,omitempty"`
	Description   string        `json:"description,omitempty"`
	Deadline      *time.Time    `json:"deadline,omitempty"`
	Status        ProjectStatus `json:"status"`
	UploadContext string        `json:"upload_context,omitempty"`

	ProcessingStatus    ProcessingStatus `json:"processing_status"`
	ProcessingMessage   string           `json:"processing_message,omitempty"`
	ProcessingStartedAt *time.Time       `json:"processing_started_at,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}
