package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ScheduleStorage handles schedule event persistence
type ScheduleStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewScheduleStorage creates a new schedule storage instance
func NewScheduleStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ScheduleStorage {
	return &ScheduleStorage{db: db, logger: logger}
}

// SaveEvent inserts or updates a schedule event
func (s *ScheduleStorage) SaveEvent(ctx context.Context, event *models.ScheduleEvent) error {
	now := time.Now().UTC()
	if event.CreatedAt.IsZero() {
		event.CreatedAt = now
	}
	event.UpdatedAt = now

	if err := s.db.Store().Upsert(event.ID, event); err != nil {
		return fmt.Errorf("failed to save schedule event: %w", err)
	}
	return nil
}

// SaveEvents saves a batch of schedule events
func (s *ScheduleStorage) SaveEvents(ctx context.Context, events []*models.ScheduleEvent) error {
	for _, event := range events {
		if err := s.SaveEvent(ctx, event); err != nil {
			return err
		}
	}
	s.logger.Debug().Int("count", len(events)).Msg("Schedule events saved")
	return nil
}

// GetEventsByProject returns all schedule events for a project
func (s *ScheduleStorage) GetEventsByProject(ctx context.Context, projectID string) ([]*models.ScheduleEvent, error) {
	var events []*models.ScheduleEvent
	if err := s.db.Store().Find(&events, badgerhold.Where("ProjectID").Eq(projectID)); err != nil {
		return nil, fmt.Errorf("failed to query schedule events: %w", err)
	}
	return events, nil
}

// DeleteEventsByProject removes all schedule events for a project
func (s *ScheduleStorage) DeleteEventsByProject(ctx context.Context, projectID string) error {
	if err := s.db.Store().DeleteMatching(&models.ScheduleEvent{}, badgerhold.Where("ProjectID").Eq(projectID)); err != nil {
		return fmt.Errorf("failed to delete schedule events: %w", err)
	}
	return nil
}
