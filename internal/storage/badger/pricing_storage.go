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

// PricingStorage handles pricing line item persistence
type PricingStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewPricingStorage creates a new pricing storage instance
func NewPricingStorage(db *BadgerDB, logger arbor.ILogger) interfaces.PricingStorage {
	return &PricingStorage{db: db, logger: logger}
}

// SaveItem inserts or updates a pricing item
func (s *PricingStorage) SaveItem(ctx context.Context, item *models.PricingItem) error {
	now := time.Now().UTC()
	if item.CreatedAt.IsZero() {
		item.CreatedAt = now
	}
	item.UpdatedAt = now

	if err := s.db.Store().Upsert(item.ID, item); err != nil {
		return fmt.Errorf("failed to save pricing item: %w", err)
	}
	return nil
}

// SaveItems saves a batch of pricing items
func (s *PricingStorage) SaveItems(ctx context.Context, items []*models.PricingItem) error {
	for _, item := range items {
		if err := s.SaveItem(ctx, item); err != nil {
			return err
		}
	}
	s.logger.Debug().Int("count", len(items)).Msg("Pricing items saved")
	return nil
}

// GetItemsByProject returns all pricing items for a project
func (s *PricingStorage) GetItemsByProject(ctx context.Context, projectID string) ([]*models.PricingItem, error) {
	var items []*models.PricingItem
	if err := s.db.Store().Find(&items, badgerhold.Where("ProjectID").Eq(projectID)); err != nil {
		return nil, fmt.Errorf("failed to query pricing items: %w", err)
	}
	return items, nil
}

// DeleteItemsByProject removes all pricing items for a project
func (s *PricingStorage) DeleteItemsByProject(ctx context.Context, projectID string) error {
	if err := s.db.Store().DeleteMatching(&models.PricingItem{}, badgerhold.Where("ProjectID").Eq(projectID)); err != nil {
		return fmt.Errorf("failed to delete pricing items: %w", err)
	}
	return nil
}
