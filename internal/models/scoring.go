package models

// ComplianceScore is the aggregate produced by the compliance scorer.
// Scores are percentages in [0,100]; empty input yields all zeros.
type ComplianceScore struct {
	OverallScore    float64                     `json:"overall_score"`
	ScoresByType    map[RequirementType]float64 `json:"scores_by_type"`
	StatusBreakdown map[ComplianceStatus]int    `json:"status_breakdown"`
	RespondedCount  int                         `json:"responded_count"`
	TotalCount      int                         `json:"total_count"`
}
