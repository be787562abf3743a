package responses

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

var planTool = interfaces.ToolDefinition{
	Name:        "record_response_plan",
	Description: "Record the delivery plan for responding to this RFP.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"workstreams": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"name":         map[string]any{"type": "string"},
						"description":  map[string]any{"type": "string"},
						"lead":         map[string]any{"type": "string", "description": "Role, not a person"},
						"deliverables": map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
					},
					"required": []string{"name"},
				},
			},
			"escalation_matrix": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"level":    map[string]any{"type": "integer", "minimum": 1, "maximum": 3},
						"role":     map[string]any{"type": "string"},
						"criteria": map[string]any{"type": "string"},
					},
					"required": []string{"level", "role"},
				},
			},
			"notes": map[string]any{"type": "string"},
		},
		"required": []string{"workstreams", "escalation_matrix"},
	},
}

// Planner synthesizes a per-project response plan from the extracted
// requirement and schedule picture.
type Planner struct {
	llm     interfaces.LLMService
	storage interfaces.PlanStorage
	logger  arbor.ILogger
}

func NewPlanner(llm interfaces.LLMService, storage interfaces.PlanStorage, logger arbor.ILogger) *Planner {
	return &Planner{llm: llm, storage: storage, logger: logger}
}

// Generate drafts the plan and persists it; an existing plan is
// replaced with its version incremented.
func (p *Planner) Generate(ctx context.Context, projectID string, requirements []*models.Requirement, events []*models.ScheduleEvent) (*models.ResponsePlan, error) {
	var user strings.Builder
	fmt.Fprintf(&user, "Requirement counts by type:\n")
	counts := make(map[models.RequirementType]int)
	for _, req := range requirements {
		counts[req.Type]++
	}
	for reqType, count := range counts {
		fmt.Fprintf(&user, "- %s: %d\n", reqType, count)
	}
	if len(events) > 0 {
		user.WriteString("\nSchedule milestones:\n")
		for _, event := range events {
			date := "date not stated"
			if event.EventDate != nil {
				date = event.EventDate.Format("2006-01-02")
			}
			fmt.Fprintf(&user, "- %s (%s): %s\n", event.EventName, event.EventType, date)
		}
	}

	raw, _, err := p.llm.GenerateStructured(ctx, interfaces.ToolRequest{
		System: "You plan RFP response delivery for a software vendor. " +
			"Define workstreams covering the requirement areas and a three-level escalation matrix (L1 delivery lead, L2 engagement manager, L3 executive sponsor).",
		User:      user.String(),
		Tool:      planTool,
		MaxTokens: 3000,
	})
	if err != nil {
		return nil, fmt.Errorf("plan generation failed: %w", err)
	}

	var payload struct {
		Workstreams []models.Workstream      `json:"workstreams"`
		Escalation  []models.EscalationLevel `json:"escalation_matrix"`
		Notes       string                   `json:"notes"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode plan payload: %w", err)
	}

	plan := &models.ResponsePlan{
		ID:               common.NewID(),
		ProjectID:        projectID,
		Workstreams:      payload.Workstreams,
		EscalationMatrix: payload.Escalation,
		Notes:            payload.Notes,
	}
	if err := p.storage.SavePlan(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}
