package badger

import (
	"context"
	"fmt"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
)

// Manager implements the StorageManager interface for Badger
type Manager struct {
	db          *BadgerDB
	project     interfaces.ProjectStorage
	document    interfaces.DocumentStorage
	requirement interfaces.RequirementStorage
	response    interfaces.ResponseStorage
	schedule    interfaces.ScheduleStorage
	pricing     interfaces.PricingStorage
	plan        interfaces.PlanStorage
	knowledge   interfaces.KnowledgeStorage
	logger      arbor.ILogger
}

// NewManager creates a new Badger storage manager
func NewManager(logger arbor.ILogger, config *common.BadgerConfig) (interfaces.StorageManager, error) {
	db, err := NewBadgerDB(logger, config)
	if err != nil {
		return nil, err
	}

	manager := &Manager{
		db:          db,
		project:     NewProjectStorage(db, logger),
		document:    NewDocumentStorage(db, logger),
		requirement: NewRequirementStorage(db, logger),
		response:    NewResponseStorage(db, logger),
		schedule:    NewScheduleStorage(db, logger),
		pricing:     NewPricingStorage(db, logger),
		plan:        NewPlanStorage(db, logger),
		knowledge:   NewKnowledgeStorage(db, logger),
		logger:      logger,
	}

	logger.Info().Msg("Badger storage manager initialized")

	return manager, nil
}

// ProjectStorage returns the Project storage interface
func (m *Manager) ProjectStorage() interfaces.ProjectStorage {
	return m.project
}

// DocumentStorage returns the Document storage interface
func (m *Manager) DocumentStorage() interfaces.DocumentStorage {
	return m.document
}

// RequirementStorage returns the Requirement storage interface
func (m *Manager) RequirementStorage() interfaces.RequirementStorage {
	return m.requirement
}

// ResponseStorage returns the Response storage interface
func (m *Manager) ResponseStorage() interfaces.ResponseStorage {
	return m.response
}

// ScheduleStorage returns the ScheduleEvent storage interface
func (m *Manager) ScheduleStorage() interfaces.ScheduleStorage {
	return m.schedule
}

// PricingStorage returns the PricingItem storage interface
func (m *Manager) PricingStorage() interfaces.PricingStorage {
	return m.pricing
}

// PlanStorage returns the ResponsePlan storage interface
func (m *Manager) PlanStorage() interfaces.PlanStorage {
	return m.plan
}

// KnowledgeStorage returns the KnowledgeEntry storage interface
func (m *Manager) KnowledgeStorage() interfaces.KnowledgeStorage {
	return m.knowledge
}

// DeleteProjectCascade removes a project and every child row.
func (m *Manager) DeleteProjectCascade(ctx context.Context, projectID string) error {
	if err := m.response.DeleteResponsesByProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete responses: %w", err)
	}
	if err := m.requirement.DeleteRequirementsByProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete requirements: %w", err)
	}
	if err := m.schedule.DeleteEventsByProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete schedule events: %w", err)
	}
	if err := m.pricing.DeleteItemsByProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete pricing items: %w", err)
	}
	if err := m.plan.DeletePlanByProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete response plan: %w", err)
	}
	if err := m.document.DeleteDocumentsByProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	if err := m.project.DeleteProject(ctx, projectID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}

	m.logger.Info().Str("project_id", projectID).Msg("Project deleted with all children")
	return nil
}

// DB returns the underlying database connection
func (m *Manager) DB() interface{} {
	if m.db != nil {
		return m.db.Store()
	}
	return nil
}

// Close closes the database connection
func (m *Manager) Close() error {
	if m.db != nil {
		return m.db.Close()
	}
	return nil
}
