package classifier

import (
	"context"
	"fmt"
	"strings"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

const classifyTextLimit = 3000

// candidateCategories in declared order; the first category name found in
// the model reply wins.
var candidateCategories = []models.DocumentCategory{
	models.CategoryRFPDocument,
	models.CategoryCommercialTerms,
	models.CategoryTechRequirements,
	models.CategoryPricingSheet,
	models.CategoryLegalAppendix,
	models.CategoryEvaluationCriteria,
}

// categoryKeywords drive the deterministic fallback. Counts must reach
// the per-category threshold to beat the rfp_document default.
var categoryKeywords = map[models.DocumentCategory]struct {
	filename  []string
	content   []string
	threshold int
}{
	models.CategoryPricingSheet: {
		filename:  []string{"pricing", "price", "cost", "quote", "commercial schedule"},
		content:   []string{"unit cost", "price", "pricing", "total cost", "per annum", "license fee"},
		threshold: 2,
	},
	models.CategoryCommercialTerms: {
		filename:  []string{"commercial", "terms", "contract"},
		content:   []string{"payment terms", "liability", "warranty", "termination", "commercial"},
		threshold: 2,
	},
	models.CategoryTechRequirements: {
		filename:  []string{"technical", "requirements", "functional", "specification"},
		content:   []string{"the system shall", "the solution must", "requirement", "integration", "api"},
		threshold: 3,
	},
	models.CategoryLegalAppendix: {
		filename:  []string{"legal", "appendix", "nda", "confidentiality"},
		content:   []string{"governing law", "jurisdiction", "indemnif", "confidential"},
		threshold: 2,
	},
	models.CategoryEvaluationCriteria: {
		filename:  []string{"evaluation", "criteria", "scoring"},
		content:   []string{"evaluation criteria", "weighting", "scoring", "assessment"},
		threshold: 2,
	},
}

// Service labels an uploaded document with one category from the closed
// set. The model call is primary; any failure drops to keywords.
type Service struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

func NewService(llm interfaces.LLMService, logger arbor.ILogger) *Service {
	return &Service{llm: llm, logger: logger}
}

// Classify returns a category for the document. Never returns an error:
// the keyword fallback always yields a label.
func (s *Service) Classify(ctx context.Context, text, filename string, hasTables bool) models.DocumentCategory {
	sample := text
	if len(sample) > classifyTextLimit {
		sample = sample[:classifyTextLimit]
	}

	category, err := s.classifyLLM(ctx, sample, filename, hasTables)
	if err != nil {
		s.logger.Warn().Err(err).Str("filename", filename).Msg("LLM classification failed, using keyword fallback")
		return classifyKeywords(sample, filename)
	}
	return category
}

func (s *Service) classifyLLM(ctx context.Context, sample, filename string, hasTables bool) (models.DocumentCategory, error) {
	names := make([]string, len(candidateCategories))
	for i, c := range candidateCategories {
		names[i] = string(c)
	}

	var user strings.Builder
	fmt.Fprintf(&user, "Filename: %s\n", filename)
	fmt.Fprintf(&user, "Contains tables: %t\n\n", hasTables)
	fmt.Fprintf(&user, "Document text (truncated):\n%s", sample)

	reply, _, err := s.llm.Generate(ctx, interfaces.TextRequest{
		System: "You classify procurement documents. Respond with exactly one category from: " +
			strings.Join(names, ", ") + ". Reply with the category name only.",
		User:      user.String(),
		MaxTokens: 50,
	})
	if err != nil {
		return "", err
	}

	lower := strings.ToLower(reply)
	for _, c := range candidateCategories {
		if strings.Contains(lower, string(c)) {
			return c, nil
		}
	}
	return "", fmt.Errorf("no known category in classifier reply: %q", reply)
}

// classifyKeywords scores each category; filename hits outrank content
// hits, ties resolve to the default rfp_document.
func classifyKeywords(sample, filename string) models.DocumentCategory {
	lowerName := strings.ToLower(filename)
	lowerText := strings.ToLower(sample)

	for _, c := range candidateCategories {
		rules, ok := categoryKeywords[c]
		if !ok {
			continue
		}
		for _, kw := range rules.filename {
			if strings.Contains(lowerName, kw) {
				return c
			}
		}
	}

	best := models.CategoryRFPDocument
	bestCount := 0
	for _, c := range candidateCategories {
		rules, ok := categoryKeywords[c]
		if !ok {
			continue
		}
		count := 0
		for _, kw := range rules.content {
			count += strings.Count(lowerText, kw)
		}
		if count >= rules.threshold && count > bestCount {
			best = c
			bestCount = count
		}
	}
	return best
}
