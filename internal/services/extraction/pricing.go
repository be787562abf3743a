package extraction

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

const pricingTextLimit = 6000

var pricingCategories = []string{
	"license", "implementation", "support", "add_on", "training", "hosting", "other",
}

var pricingTool = interfaces.ToolDefinition{
	Name:        "record_pricing_structure",
	Description: "Record whether the text contains a pricing template and enumerate its line items.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"has_pricing_template": map[string]any{"type": "boolean"},
			"currency":             map[string]any{"type": "string", "description": "ISO currency code if stated"},
			"line_items": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"category":        map[string]any{"type": "string", "enum": pricingCategories},
						"line_item":       map[string]any{"type": "string"},
						"description":     map[string]any{"type": "string"},
						"unit_of_measure": map[string]any{"type": "string"},
						"multi_year":      map[string]any{"type": "boolean"},
						"years_requested": map[string]any{"type": "integer"},
					},
					"required": []string{"category", "line_item"},
				},
			},
		},
		"required": []string{"has_pricing_template", "line_items"},
	},
}

// PricingStructure is the extraction result: whether a template exists
// and the line items it requests.
type PricingStructure struct {
	HasTemplate bool
	Items       []*models.PricingItem
}

// PricingExtractor describes the pricing template a buyer expects, in
// one tool-constrained call over the opening of the document.
type PricingExtractor struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

func NewPricingExtractor(llm interfaces.LLMService, logger arbor.ILogger) *PricingExtractor {
	return &PricingExtractor{llm: llm, logger: logger}
}

func (e *PricingExtractor) Extract(ctx context.Context, projectID, text string) (*PricingStructure, error) {
	if len(text) > pricingTextLimit {
		text = text[:pricingTextLimit]
	}

	raw, _, err := e.llm.GenerateStructured(ctx, interfaces.ToolRequest{
		System: "You analyse procurement documents for pricing structure. " +
			"Report whether a pricing template is present and list the line items it asks vendors to price. Do not invent line items.",
		User:      "Describe the pricing structure requested in this text:\n\n" + text,
		Tool:      pricingTool,
		MaxTokens: 4000,
	})
	if err != nil {
		return nil, fmt.Errorf("pricing extraction failed: %w", err)
	}

	var payload struct {
		HasPricingTemplate bool   `json:"has_pricing_template"`
		Currency           string `json:"currency"`
		LineItems          []struct {
			Category       string `json:"category"`
			LineItem       string `json:"line_item"`
			Description    string `json:"description"`
			UnitOfMeasure  string `json:"unit_of_measure"`
			MultiYear      bool   `json:"multi_year"`
			YearsRequested int    `json:"years_requested"`
		} `json:"line_items"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode pricing payload: %w", err)
	}

	currency := payload.Currency
	if currency == "" {
		currency = "USD"
	}

	result := &PricingStructure{HasTemplate: payload.HasPricingTemplate}
	for _, rec := range payload.LineItems {
		if rec.LineItem == "" {
			continue
		}
		category := models.PricingCategory(rec.Category)
		if !validPricingCategory(rec.Category) {
			category = models.PricingOther
		}
		item := &models.PricingItem{
			ID:          common.NewID(),
			ProjectID:   projectID,
			Category:    category,
			LineItem:    rec.LineItem,
			Description: rec.Description,
			Currency:    currency,
			Notes:       rec.UnitOfMeasure,
		}
		if rec.MultiYear && rec.YearsRequested > 0 {
			years := rec.YearsRequested
			item.Year = &years
		}
		result.Items = append(result.Items, item)
	}
	return result, nil
}

func validPricingCategory(c string) bool {
	for _, known := range pricingCategories {
		if c == known {
			return true
		}
	}
	return false
}
