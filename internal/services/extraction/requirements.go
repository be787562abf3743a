package extraction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/chunker"
)

// requirementRecord is the tool output shape for one requirement. The
// schema is the contract; the model is treated as an untrusted server
// and every decoded record is validated before use.
type requirementRecord struct {
	Title            string `json:"title" validate:"required,min=3"`
	Description      string `json:"description" validate:"required,min=10"`
	Type             string `json:"type" validate:"required,oneof=functional non_functional commercial legal technical"`
	Category         string `json:"category,omitempty"`
	IsMandatory      bool   `json:"is_mandatory"`
	ResponseRequired bool   `json:"response_required"`
	Priority         string `json:"priority" validate:"required,oneof=high medium low"`
	ReferenceSection string `json:"reference_section,omitempty"`
}

// RequirementExtractor pulls typed requirement records out of document
// text chunk by chunk; a failed chunk is skipped, not fatal.
type RequirementExtractor struct {
	llm      interfaces.LLMService
	deduper  *Deduper
	chunker  *chunker.Chunker
	validate *validator.Validate
	logger   arbor.ILogger
}

func NewRequirementExtractor(llm interfaces.LLMService, deduper *Deduper, ch *chunker.Chunker, logger arbor.ILogger) *RequirementExtractor {
	return &RequirementExtractor{
		llm:      llm,
		deduper:  deduper,
		chunker:  ch,
		validate: validator.New(),
		logger:   logger,
	}
}

var requirementTool = interfaces.ToolDefinition{
	Name:        "record_requirements",
	Description: "Record every requirement found in the provided RFP text.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"requirements": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"title":             map[string]any{"type": "string", "description": "Short requirement title"},
						"description":       map[string]any{"type": "string", "description": "Full requirement text"},
						"type":              map[string]any{"type": "string", "enum": []string{"functional", "non_functional", "commercial", "legal", "technical"}},
						"category":          map[string]any{"type": "string"},
						"is_mandatory":      map[string]any{"type": "boolean"},
						"response_required": map[string]any{"type": "boolean"},
						"priority":          map[string]any{"type": "string", "enum": []string{"high", "medium", "low"}},
						"reference_section": map[string]any{"type": "string"},
					},
					"required": []string{"title", "description", "type", "is_mandatory", "response_required", "priority"},
				},
			},
		},
		"required": []string{"requirements"},
	},
}

const requirementSystemPrompt = `You extract vendor requirements from procurement (RFP/RFI) documents.
Record each distinct obligation the vendor must satisfy as one requirement.
Classify type as functional, non_functional, commercial, legal, or technical.
Mark is_mandatory true for shall/must language, false for should/may.
Mark response_required true unless the text is purely informational.
Do not invent requirements that are not in the text.`

// Extract splits text, runs the extraction tool per chunk, dedupes the
// merged result, and assigns dense per-type requirement numbers.
func (e *RequirementExtractor) Extract(ctx context.Context, projectID, documentID, text string) ([]*models.Requirement, error) {
	chunks := e.chunker.Split(text)
	if len(chunks) == 0 {
		return nil, nil
	}

	var records []requirementRecord
	failed := 0
	for _, chunk := range chunks {
		chunkRecords, err := e.extractChunk(ctx, chunk.Text)
		if err != nil {
			failed++
			e.logger.Warn().Err(err).Int("chunk", chunk.ChunkIndex).Msg("Requirement extraction failed for chunk")
			continue
		}
		records = append(records, chunkRecords...)
	}
	if failed == len(chunks) {
		return nil, common.Errorf(common.KindStagePartial, "requirement extraction failed for all %d chunks", len(chunks))
	}

	records = e.deduper.Dedupe(ctx, records)

	return e.number(projectID, documentID, records), nil
}

func (e *RequirementExtractor) extractChunk(ctx context.Context, text string) ([]requirementRecord, error) {
	raw, _, err := e.llm.GenerateStructured(ctx, interfaces.ToolRequest{
		System:    requirementSystemPrompt,
		User:      "Extract all requirements from this RFP text:\n\n" + text,
		Tool:      requirementTool,
		MaxTokens: 8000,
	})
	if err != nil {
		return nil, err
	}

	var payload struct {
		Requirements []requirementRecord `json:"requirements"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode requirement payload: %w", err)
	}

	var valid []requirementRecord
	for _, rec := range payload.Requirements {
		if err := e.validate.Struct(rec); err != nil {
			e.logger.Debug().Err(err).Str("title", rec.Title).Msg("Dropping invalid requirement record")
			continue
		}
		valid = append(valid, rec)
	}
	return valid, nil
}

// number materializes model rows; Renumber assigns the identifiers.
func (e *RequirementExtractor) number(projectID, documentID string, records []requirementRecord) []*models.Requirement {
	requirements := make([]*models.Requirement, 0, len(records))
	for _, rec := range records {
		requirements = append(requirements, &models.Requirement{
			ID:               common.NewID(),
			ProjectID:        projectID,
			DocumentID:       documentID,
			Title:            rec.Title,
			Description:      rec.Description,
			Type:             models.RequirementType(rec.Type),
			Category:         rec.Category,
			IsMandatory:      rec.IsMandatory,
			Priority:         models.Priority(rec.Priority),
			ResponseRequired: rec.ResponseRequired,
			ReferenceSection: rec.ReferenceSection,
		})
	}
	Renumber(requirements)
	return requirements
}

// Renumber assigns FR-001 style identifiers, dense per type in slice
// order. Safe to call again after merging extracts from several
// documents.
func Renumber(requirements []*models.Requirement) {
	counters := make(map[models.RequirementType]int)
	for _, req := range requirements {
		counters[req.Type]++
		req.ReqNumber = fmt.Sprintf("%s-%03d", req.Type.ReqNumberPrefix(), counters[req.Type])
	}
}
