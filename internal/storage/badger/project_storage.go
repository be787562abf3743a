package badger

import (
	"context"
	"fmt"
	"time"

	badgerdb "github.com/dgraph-io/badger/v4"
	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// ProjectStorage handles project persistence and the processing-status
// state machine.
type ProjectStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewProjectStorage creates a new project storage instance
func NewProjectStorage(db *BadgerDB, logger arbor.ILogger) interfaces.ProjectStorage {
	return &ProjectStorage{db: db, logger: logger}
}

// SaveProject inserts or updates a project
func (s *ProjectStorage) SaveProject(ctx context.Context, project *models.Project) error {
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	if err := s.db.Store().Upsert(project.ID, project); err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	s.logger.Debug().Str("project_id", project.ID).Str("name", project.Name).Msg("Project saved")
	return nil
}

// GetProject retrieves a project by ID
func (s *ProjectStorage) GetProject(ctx context.Context, id string) (*models.Project, error) {
	var project models.Project
	if err := s.db.Store().Get(id, &project); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, common.Errorf(common.KindNotFound, "project %s not found", id)
		}
		return nil, fmt.Errorf("failed to get project: %w", err)
	}
	return &project, nil
}

// ListProjects returns all projects
func (s *ProjectStorage) ListProjects(ctx context.Context) ([]*models.Project, error) {
	var projects []*models.Project
	if err := s.db.Store().Find(&projects, nil); err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	return projects, nil
}

// DeleteProject removes a project row
func (s *ProjectStorage) DeleteProject(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Project{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

// SetProcessingStatus writes the (status, message, started_at) tuple in
// its own transaction so pollers always observe a monotone value.
func (s *ProjectStorage) SetProcessingStatus(ctx context.Context, id string, status models.ProcessingStatus, message string) error {
	store := s.db.Store()
	err := store.Badger().Update(func(tx *badgerdb.Txn) error {
		var project models.Project
		if err := store.TxGet(tx, id, &project); err != nil {
			if err == badgerhold.ErrNotFound {
				return common.Errorf(common.KindNotFound, "project %s not found", id)
			}
			return err
		}

		now := time.Now().UTC()
		project.ProcessingStatus = status
		project.ProcessingMessage = truncateMessage(message, 500)
		if status == models.ProcessingStatusProcessing {
			project.ProcessingStartedAt = &now
		}
		project.UpdatedAt = now

		return store.TxUpdate(tx, id, &project)
	})
	if err != nil {
		return err
	}

	s.logger.Debug().
		Str("project_id", id).
		Str("status", string(status)).
		Msg("Processing status updated")
	return nil
}

// BeginProcessing flips processing_status to processing iff no run is
// currently live for the project.
func (s *ProjectStorage) BeginProcessing(ctx context.Context, id string) error {
	store := s.db.Store()
	return store.Badger().Update(func(tx *badgerdb.Txn) error {
		var project models.Project
		if err := store.TxGet(tx, id, &project); err != nil {
			if err == badgerhold.ErrNotFound {
				return common.Errorf(common.KindNotFound, "project %s not found", id)
			}
			return err
		}

		if project.ProcessingStatus == models.ProcessingStatusProcessing {
			return common.Errorf(common.KindConflict, "generation already in progress for project %s", id)
		}

		now := time.Now().UTC()
		project.ProcessingStatus = models.ProcessingStatusProcessing
		project.ProcessingMessage = ""
		project.ProcessingStartedAt = &now
		project.UpdatedAt = now

		return store.TxUpdate(tx, id, &project)
	})
}

func truncateMessage(msg string, max int) string {
	if len(msg) <= max {
		return msg
	}
	return msg[:max]
}
