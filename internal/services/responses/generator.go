package responses

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/knowledge"
	"golang.org/x/sync/errgroup"
)

const generatorSystemPrompt = `You draft vendor responses to RFP requirements for a GRC software proposal.

Judge compliance_status as exactly one of:
- fully_compliant: the product meets the requirement out of the box
- configurable: met through configuration, no code changes
- partially_compliant: met in part; gaps remain
- custom_dev: requires custom development
- not_applicable: the requirement does not apply to this solution

Calibrate confidence_score: 0.9-1.0 when grounded in provided knowledge excerpts,
0.6-0.8 when inferred from product capability, below 0.5 when speculative.
Write response_text as 2-5 complete sentences addressed to the buyer.
Ground claims in the provided excerpts when available; never contradict them.`

var responseTool = interfaces.ToolDefinition{
	Name:        "record_response",
	Description: "Record the drafted response to one requirement.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"compliance_status": map[string]any{"type": "string", "enum": []string{
				"fully_compliant", "partially_compliant", "configurable", "custom_dev", "not_applicable",
			}},
			"response_text":    map[string]any{"type": "string", "description": "2-5 sentences"},
			"confidence_score": map[string]any{"type": "number", "minimum": 0, "maximum": 1},
			"key_features":     map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
			"notes":            map[string]any{"type": "string"},
		},
		"required": []string{"compliance_status", "response_text", "confidence_score"},
	},
}

// Generator drafts one response per requirement: retrieve prior
// answers, assemble the grounded prompt, and call the model in
// tool-constrained mode.
type Generator struct {
	llm            interfaces.LLMService
	kb             *knowledge.Service
	maxConcurrency int
	logger         arbor.ILogger
}

func NewGenerator(llm interfaces.LLMService, kb *knowledge.Service, maxConcurrency int, logger arbor.ILogger) *Generator {
	if maxConcurrency <= 0 {
		maxConcurrency = 4
	}
	return &Generator{llm: llm, kb: kb, maxConcurrency: maxConcurrency, logger: logger}
}

// GenerateBatch drafts responses for all requirements with bounded
// parallelism. Per-requirement failures yield a manual-response stub;
// the batch never aborts.
func (g *Generator) GenerateBatch(ctx context.Context, requirements []*models.Requirement, orgID string) []*models.Response {
	results := make([]*models.Response, len(requirements))
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(g.maxConcurrency)

	for i, req := range requirements {
		group.Go(func() error {
			response := g.generateOne(groupCtx, req, orgID)
			mu.Lock()
			results[i] = response
			mu.Unlock()
			return nil
		})
	}
	group.Wait()

	return results
}

func (g *Generator) generateOne(ctx context.Context, req *models.Requirement, orgID string) *models.Response {
	hits := g.kb.Retrieve(ctx, req.Title+" "+req.Description, orgID)

	response, err := g.draft(ctx, req, hits)
	if err != nil {
		g.logger.Warn().Err(err).Str("req_number", req.ReqNumber).Msg("Response generation failed, writing manual stub")
		return &models.Response{
			ID:               common.NewID(),
			RequirementID:    req.ID,
			ProjectID:        req.ProjectID,
			ComplianceStatus: models.ComplianceCustomDev,
			ResponseText:     "Response generation failed. Manual response required.",
			ConfidenceScore:  0,
			IsAIGenerated:    true,
			Notes:            truncate(err.Error(), 500),
		}
	}
	return response
}

func (g *Generator) draft(ctx context.Context, req *models.Requirement, hits []knowledge.Hit) (*models.Response, error) {
	var user strings.Builder
	fmt.Fprintf(&user, "Requirement %s (%s, priority %s, mandatory=%t):\n", req.ReqNumber, req.Type, req.Priority, req.IsMandatory)
	fmt.Fprintf(&user, "Title: %s\n", req.Title)
	fmt.Fprintf(&user, "Description: %s\n", req.Description)
	if req.Category != "" {
		fmt.Fprintf(&user, "Category: %s\n", req.Category)
	}
	if len(hits) > 0 {
		user.WriteString("\nPrior approved answers:\n")
		for i, hit := range hits {
			fmt.Fprintf(&user, "[%d] %s: %s\n", i+1, hit.Entry.Title, hit.Excerpt)
		}
	} else {
		user.WriteString("\nNo prior answers found; respond from general product capability.\n")
	}

	raw, _, err := g.llm.GenerateStructured(ctx, interfaces.ToolRequest{
		System:    generatorSystemPrompt,
		User:      user.String(),
		Tool:      responseTool,
		MaxTokens: 2000,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		ComplianceStatus string   `json:"compliance_status"`
		ResponseText     string   `json:"response_text"`
		ConfidenceScore  float64  `json:"confidence_score"`
		KeyFeatures      []string `json:"key_features"`
		Notes            string   `json:"notes"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode response payload: %w", err)
	}
	if payload.ResponseText == "" {
		return nil, fmt.Errorf("model returned empty response_text")
	}
	if payload.ConfidenceScore < 0 {
		payload.ConfidenceScore = 0
	}
	if payload.ConfidenceScore > 1 {
		payload.ConfidenceScore = 1
	}

	sourceRefs := make([]models.SourceRef, 0, len(hits))
	for _, hit := range hits {
		sourceRefs = append(sourceRefs, models.SourceRef{
			EntryID: hit.Entry.ID,
			Title:   hit.Entry.Title,
			Score:   hit.Score,
		})
	}

	return &models.Response{
		ID:               common.NewID(),
		RequirementID:    req.ID,
		ProjectID:        req.ProjectID,
		ComplianceStatus: models.ComplianceStatus(payload.ComplianceStatus),
		ResponseText:     payload.ResponseText,
		ConfidenceScore:  payload.ConfidenceScore,
		SourceRefs:       sourceRefs,
		KeyFeatures:      payload.KeyFeatures,
		IsAIGenerated:    true,
		Notes:            payload.Notes,
	}, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
