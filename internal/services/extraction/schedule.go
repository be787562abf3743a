package extraction

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

const scheduleTextLimit = 8000

var scheduleEventTypes = []string{
	"rfp_release", "clarification_window", "qa_deadline", "submission_deadline",
	"demo_date", "award_notification", "contract_start", "other",
}

var scheduleTool = interfaces.ToolDefinition{
	Name:        "record_schedule",
	Description: "Record every dated procurement milestone found in the text.",
	InputSchema: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"events": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type": "object",
					"properties": map[string]any{
						"event_type": map[string]any{"type": "string", "enum": scheduleEventTypes},
						"event_name": map[string]any{"type": "string"},
						"date":       map[string]any{"type": []string{"string", "null"}, "description": "ISO-8601 date or null when not stated"},
						"notes":      map[string]any{"type": "string"},
					},
					"required": []string{"event_type", "event_name"},
				},
			},
		},
		"required": []string{"events"},
	},
}

// ScheduleExtractor pulls procurement milestones from the opening of a
// document in one tool-constrained call.
type ScheduleExtractor struct {
	llm    interfaces.LLMService
	logger arbor.ILogger
}

func NewScheduleExtractor(llm interfaces.LLMService, logger arbor.ILogger) *ScheduleExtractor {
	return &ScheduleExtractor{llm: llm, logger: logger}
}

func (e *ScheduleExtractor) Extract(ctx context.Context, projectID, text string) ([]*models.ScheduleEvent, error) {
	if len(text) > scheduleTextLimit {
		text = text[:scheduleTextLimit]
	}

	raw, _, err := e.llm.GenerateStructured(ctx, interfaces.ToolRequest{
		System: "You extract procurement timeline milestones from RFP documents. " +
			"Record each milestone with its type, name, and date. Use null for dates the text does not state. Do not invent dates.",
		User:      "Extract the procurement schedule from this text:\n\n" + text,
		Tool:      scheduleTool,
		MaxTokens: 4000,
	})
	if err != nil {
		return nil, fmt.Errorf("schedule extraction failed: %w", err)
	}

	var payload struct {
		Events []struct {
			EventType string  `json:"event_type"`
			EventName string  `json:"event_name"`
			Date      *string `json:"date"`
			Notes     string  `json:"notes"`
		} `json:"events"`
	}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode schedule payload: %w", err)
	}

	events := make([]*models.ScheduleEvent, 0, len(payload.Events))
	for _, rec := range payload.Events {
		if rec.EventName == "" {
			continue
		}
		event := &models.ScheduleEvent{
			ID:        common.NewID(),
			ProjectID: projectID,
			EventType: models.ScheduleEventType(rec.EventType),
			EventName: rec.EventName,
			Notes:     rec.Notes,
		}
		if !validEventType(rec.EventType) {
			event.EventType = models.EventOther
		}
		if rec.Date != nil && *rec.Date != "" {
			if parsed, err := parseEventDate(*rec.Date); err == nil {
				event.EventDate = &parsed
			} else {
				e.logger.Debug().Str("date", *rec.Date).Str("event", rec.EventName).Msg("Unparseable event date dropped")
			}
		}
		events = append(events, event)
	}
	return events, nil
}

func validEventType(t string) bool {
	for _, known := range scheduleEventTypes {
		if t == known {
			return true
		}
	}
	return false
}

func parseEventDate(s string) (time.Time, error) {
	for _, layout := range []string{"2006-01-02", time.RFC3339, "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format %q", s)
}
