package models

import "time"

// ScheduleEventType is the fixed vocabulary of procurement milestones.
type ScheduleEventType string

const (
	EventRFPRelease          ScheduleEventType = "rfp_release"
	EventClarificationWindow ScheduleEventType = "clarification_window"
	EventQADeadline          ScheduleEventType = "qa_deadline"
	EventSubmissionDeadline  ScheduleEventType = "submission_deadline"
	EventDemoDate            ScheduleEventType = "demo_date"
	EventAwardNotification   ScheduleEventType = "award_notification"
	EventContractStart       ScheduleEventType = "contract_start"
	EventOther               ScheduleEventType = "other"
)

// ScheduleEvent is one dated milestone extracted from RFP text.
// EventDate is nil when the document names the milestone without a date.
type ScheduleEvent struct {
	ID        string            `json:"id" badgerhold:"key"`
	ProjectID string            `json:"project_id" badgerhold:"index"`
	EventType ScheduleEventType `json:"event_type"`
	EventName string            `json:"event_name"`
	EventDate *time.Time        `json:"event_date,omitempty"`
	Notes     string            `json:"notes,omitempty"`
	CreatedAt time.Time         `json:"created_at"`
	UpdatedAt time.Time         `json:"updated_at"`
}
