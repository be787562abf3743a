package responses

import (
	"github.com/ternarybob/respondeo/internal/models"
)

// complianceWeights map each status to its contribution; not_applicable
// is excluded from the averages entirely.
var complianceWeights = map[models.ComplianceStatus]float64{
	models.ComplianceFullyCompliant:     1.0,
	models.ComplianceConfigurable:       0.8,
	models.CompliancePartiallyCompliant: 0.5,
	models.ComplianceCustomDev:          0.3,
}

// Score aggregates compliance over the generated responses: per-type
// and overall weighted means as percentages, plus a verbatim status
// breakdown. Empty input yields zeros.
func Score(requirements []*models.Requirement, responses []*models.Response) *models.ComplianceScore {
	score := &models.ComplianceScore{
		ScoresByType:    make(map[models.RequirementType]float64),
		StatusBreakdown: make(map[models.ComplianceStatus]int),
		TotalCount:      len(requirements),
	}

	typeByReq := make(map[string]models.RequirementType, len(requirements))
	for _, req := range requirements {
		typeByReq[req.ID] = req.Type
	}

	typeSums := make(map[models.RequirementType]float64)
	typeCounts := make(map[models.RequirementType]int)
	overallSum := 0.0
	overallCount := 0

	for _, resp := range responses {
		if resp == nil {
			continue
		}
		score.RespondedCount++
		score.StatusBreakdown[resp.ComplianceStatus]++

		weight, scored := complianceWeights[resp.ComplianceStatus]
		if !scored {
			continue
		}
		overallSum += weight
		overallCount++

		if reqType, ok := typeByReq[resp.RequirementID]; ok {
			typeSums[reqType] += weight
			typeCounts[reqType]++
		}
	}

	if overallCount > 0 {
		score.OverallScore = overallSum / float64(overallCount) * 100
	}
	for reqType, sum := range typeSums {
		score.ScoresByType[reqType] = sum / float64(typeCounts[reqType]) * 100
	}
	return score
}
