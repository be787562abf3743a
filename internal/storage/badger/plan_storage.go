package badger

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// PlanStorage handles response plan persistence. One plan per project;
// regeneration replaces the payload and increments Version.
type PlanStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPlanStorage creates a new plan storage instance
func NewPlanStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PlanStorage {
	return &PlanStorage{db: db, logger: logger}
}

// SavePlan replaces the project's plan, carrying forward and
// incrementing the version when a prior plan exists.
func (s *PlanStorage) SavePlan(ctx context.Context, plan *models.ResponsePlan) error {
	now := time.Now().UTC()

	existing, err := s.GetPlanByProject(ctx, plan.ProjectID)
	if err == nil {
		plan.ID = existing.ID
		plan.Version = existing.Version + 1
		plan.CreatedAt = existing.CreatedAt
	} else if !common.IsKind(err, common.KindNotFound) {
		return err
	} else {
		if plan.Version == 0 {
			plan.Version = 1
		}
		plan.CreatedAt = now
	}
	plan.UpdatedAt = now

	if err := s.db.Store().Upsert(plan.ID, plan); err != nil {
		return fmt.Errorf("failed to save response plan: %w", err)
	}

	s.logger.Debug().
		Str("project_id", plan.ProjectID).
		Int("version", plan.Version).
		Msg("Response plan saved")
	return nil
}

// GetPlanByProject returns the plan for a project
func (s *PlanStorage) GetPlanByProject(ctx context.Context, projectID string) (*models.ResponsePlan, error) {
	var plans []*models.ResponsePlan
	if err := s.db.Store().Find(&plans, badgerhold.Where("ProjectID").Eq(projectID)); err != nil {
		return nil, fmt.Errorf("failed to query response plan: %w", err)
	}
	if len(plans) == 0 {
		return nil, common.Errorf(common.KindNotFound, "no response plan for project %s", projectID)
	}
	return plans[0], nil
}

// DeletePlanByProject removes the plan for a project
func (s *PlanStorage) DeletePlanByProject(ctx context.Context, projectID string) error {
	if err := s.db.Store().DeleteMatching(&models.ResponsePlan{}, badgerhold.Where("ProjectID").Eq(projectID)); err != nil {
		return fmt.Errorf("failed to delete response plan: %w", err)
	}
	return nil
}
