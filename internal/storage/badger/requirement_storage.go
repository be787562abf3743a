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

// RequirementStorage handles extracted requirement persistence
type RequirementStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewRequirementStorage creates a new requirement storage instance
func NewRequirementStorage(db *BadgerDB, logger arbor.ILogger) interfaces.RequirementStorage {
	return &RequirementStorage{db: db, logger: logger}
}

// SaveRequirement inserts or updates a requirement
func (s *RequirementStorage) SaveRequirement(ctx context.Context, req *models.Requirement) error {
	now := time.Now().UTC()
	if req.CreatedAt.IsZero() {
		req.CreatedAt = now
	}
	req.UpdatedAt = now

	if err := s.db.Store().Upsert(req.ID, req); err != nil {
		return fmt.Errorf("failed to save requirement: %w", err)
	}
	return nil
}

// SaveRequirements saves a batch of requirements
func (s *RequirementStorage) SaveRequirements(ctx context.Context, reqs []*models.Requirement) error {
	for _, req := range reqs {
		if err := s.SaveRequirement(ctx, req); err != nil {
			return err
		}
	}
	s.logger.Debug().Int("count", len(reqs)).Msg("Requirements saved")
	return nil
}

// GetRequirement retrieves a requirement by ID
func (s *RequirementStorage) GetRequirement(ctx context.Context, id string) (*models.Requirement, error) {
	var req models.Requirement
	if err := s.db.Store().Get(id, &req); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, common.Errorf(common.KindNotFound, "requirement %s not found", id)
		}
		return nil, fmt.Errorf("failed to get requirement: %w", err)
	}
	return &req, nil
}

// GetRequirementsByProject returns all requirements for a project
func (s *RequirementStorage) GetRequirementsByProject(ctx context.Context, projectID string) ([]*models.Requirement, error) {
	var reqs []*models.Requirement
	if err := s.db.Store().Find(&reqs, badgerhold.Where("ProjectID").Eq(projectID)); err != nil {
		return nil, fmt.Errorf("failed to query requirements: %w", err)
	}
	return reqs, nil
}

// DeleteRequirementsByProject removes all requirements for a project
func (s *RequirementStorage) DeleteRequirementsByProject(ctx context.Context, projectID string) error {
	if err := s.db.Store().DeleteMatching(&models.Requirement{}, badgerhold.Where("ProjectID").Eq(projectID)); err != nil {
		return fmt.Errorf("failed to delete requirements: %w", err)
	}
	return nil
}
