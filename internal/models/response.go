package models

import "time"

// ComplianceStatus is the five-valued judgement of how the proposed
// solution meets a requirement.
type ComplianceStatus string

const (
	ComplianceFullyCompliant     ComplianceStatus = "fully_compliant"
	CompliancePartiallyCompliant ComplianceStatus = "partially_compliant"
	ComplianceConfigurable       ComplianceStatus = "configurable"
	ComplianceCustomDev          ComplianceStatus = "custom_dev"
	ComplianceNotApplicable      ComplianceStatus = "not_applicable"
)

// SourceRef points at a knowledge base entry used to ground a response.
type SourceRef struct {
	EntryID string  `json:"entry_id"`
	Title   string  `json:"title"`
	Score   float64 `json:"score,omitempty"`
}

// Response is the drafted answer to a single requirement (1:1).
// Marking it reviewed clears IsAIGenerated and stamps the reviewer.
type Response struct {
	ID               string           `json:"id" badgerhold:"key"`
	RequirementID    string           `json:"requirement_id" badgerhold:"unique"`
	ProjectID        string           `json:"project_id" badgerhold:"index"`
	ComplianceStatus ComplianceStatus `json:"compliance_status"`
	ResponseText     string           `json:"response_text"`
	ConfidenceScore  float64          `json:"confidence_score"`
	SourceRefs       []SourceRef      `json:"source_refs,omitempty"`
	KeyFeatures      []string         `json:"key_features,omitempty"`
	IsAIGenerated    bool             `json:"is_ai_generated"`
	IsReviewed       bool             `json:"is_reviewed"`
	ReviewedBy       string           `json:"reviewed_by,omitempty"`
	ReviewedAt       *time.Time       `json:"reviewed_at,omitempty"`
	Notes            string           `json:"notes,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	UpdatedAt        time.Time        `json:"updated_at"`
}

// MarkReviewed records a human review pass.
func (r *Response) MarkReviewed(reviewer string, at time.Time) {
	r.IsReviewed = true
	r.IsAIGenerated = false
	r.ReviewedBy = reviewer
	r.ReviewedAt = &at
	r.UpdatedAt = at
}
