package models

import "time"

// RequirementType partitions requirements; each type numbers independently.
type RequirementType string

const (
	RequirementFunctional    RequirementType = "functional"
	RequirementNonFunctional RequirementType = "non_functional"
	RequirementCommercial    RequirementType = "commercial"
	RequirementLegal         RequirementType = "legal"
	RequirementTechnical     RequirementType = "technical"
)

// ReqNumberPrefix returns the stable typed prefix used in requirement
// numbers (FR-001, NFR-001, CR-001, LR-001, TR-001).
func (t RequirementType) ReqNumberPrefix() string {
	switch t {
	case RequirementFunctional:
		return "FR"
	case RequirementNonFunctional:
		return "NFR"
	case RequirementCommercial:
		return "CR"
	case RequirementLegal:
		return "LR"
	case RequirementTechnical:
		return "TR"
	}
	return "FR"
}

// Priority of an extracted requirement.
type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Requirement is one atomic obligation extracted from an RFP document.
// ReqNumber is unique per project per type prefix and densely sequenced.
type Requirement struct {
	ID               string          `json:"id" badgerhold:"key"`
	ProjectID        string          `json:"project_id" badgerhold:"index"`
	DocumentID       string          `json:"document_id,omitempty"`
	ReqNumber        string          `json:"req_number"`
	Title            string          `json:"title"`
	Description      string          `json:"description"`
	Type             RequirementType `json:"type"`
	Category         string          `json:"category,omitempty"`
	IsMandatory      bool            `json:"is_mandatory"`
	Priority         Priority        `json:"priority"`
	ResponseRequired bool            `json:"response_required"`
	ReferenceSection string          `json:"reference_section,omitempty"`
	Embedding        []float32       `json:"embedding,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
	UpdatedAt        time.Time       `json:"updated_at"`
}
