package models

import "time"

// Workstream is one track of delivery work in a response plan.
type Workstream struct {
	Name         string   `json:"name"`
	Description  string   `json:"description,omitempty"`
	Lead         string   `json:"lead,omitempty"`
	Deliverables []string `json:"deliverables,omitempty"`
}

// EscalationLevel is one tier of the escalation matrix (L1 first).
type EscalationLevel struct {
	Level    int    `json:"level"`
	Role     string `json:"role"`
	Criteria string `json:"criteria,omitempty"`
}

// ResponsePlan is the per-project delivery plan. One plan per project;
// regeneration replaces the payload and increments Version.
type ResponsePlan struct {
	ID               string            `json:"id" badgerhold:"key"`
	ProjectID        string            `json:"project_id" badgerhold:"unique"`
	Workstreams      []Workstream      `json:"workstreams"`
	EscalationMatrix []EscalationLevel `json:"escalation_matrix"`
	Version          int               `json:"version"`
	Notes            string            `json:"notes,omitempty"`
	OwnerID          string            `json:"owner_id,omitempty"`
	CreatedAt        time.Time         `json:"created_at"`
	UpdatedAt        time.Time         `json:"updated_at"`
}
