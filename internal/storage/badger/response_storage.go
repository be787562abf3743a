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

// ResponseStorage handles drafted response persistence
type ResponseStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewResponseStorage creates a new response storage instance
func NewResponseStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ResponseStorage {
	return &ResponseStorage{db: db, logger: logger}
}

// SaveResponse inserts or updates a response
func (s *ResponseStorage) SaveResponse(ctx context.Context, resp *models.Response) error {
	now := time.Now().UTC()
	if resp.CreatedAt.IsZero() {
		resp.CreatedAt = now
	}
	resp.UpdatedAt = now

	if err := s.db.Store().Upsert(resp.ID, resp); err != nil {
		return fmt.Errorf("failed to save response: %w", err)
	}
	return nil
}

// SaveResponses saves a batch of responses
func (s *ResponseStorage) SaveResponses(ctx context.Context, resps []*models.Response) error {
	for _, resp := range resps {
		if err := s.SaveResponse(ctx, resp); err != nil {
			return err
		}
	}
	s.logger.Debug().Int("count", len(resps)).Msg("Responses saved")
	return nil
}

// GetResponse retrieves a response by ID
func (s *ResponseStorage) GetResponse(ctx context.Context, id string) (*models.Response, error) {
	var resp models.Response
	if err := s.db.Store().Get(id, &resp); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, common.Errorf(common.KindNotFound, "response %s not found", id)
		}
		return nil, fmt.Errorf("failed to get response: %w", err)
	}
	return &resp, nil
}

// GetResponseByRequirement returns the response for a requirement, if any
func (s *ResponseStorage) GetResponseByRequirement(ctx context.Context, requirementID string) (*models.Response, error) {
	var resps []*models.Response
	if err := s.db.Store().Find(&resps, badgerhold.Where("RequirementID").Eq(requirementID)); err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	if len(resps) == 0 {
		return nil, common.Errorf(common.KindNotFound, "no response for requirement %s", requirementID)
	}
	return resps[0], nil
}

// GetResponsesByProject returns all responses for a project
func (s *ResponseStorage) GetResponsesByProject(ctx context.Context, projectID string) ([]*models.Response, error) {
	var resps []*models.Response
	if err := s.db.Store().Find(&resps, badgerhold.Where("ProjectID").Eq(projectID)); err != nil {
		return nil, fmt.Errorf("failed to query responses: %w", err)
	}
	return resps, nil
}

// DeleteResponsesByProject removes all responses for a project
func (s *ResponseStorage) DeleteResponsesByProject(ctx context.Context, projectID string) error {
	if err := s.db.Store().DeleteMatching(&models.Response{}, badgerhold.Where("ProjectID").Eq(projectID)); err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}
	return nil
}
