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

// DocumentStorage handles document metadata persistence
type DocumentStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewDocumentStorage creates a new document storage instance
func NewDocumentStorage(db *BadgerDB, logger arbor.ILogger) interfaces.DocumentStorage {
	return &DocumentStorage{db: db, logger: logger}
}

// SaveDocument inserts or updates a document row
func (s *DocumentStorage) SaveDocument(ctx context.Context, doc *models.Document) error {
	now := time.Now().UTC()
	if doc.CreatedAt.IsZero() {
		doc.CreatedAt = now
	}
	doc.UpdatedAt = now

	if err := s.db.Store().Upsert(doc.ID, doc); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}

	s.logger.Debug().
		Str("document_id", doc.ID).
		Str("filename", doc.Filename).
		Str("status", string(doc.Status)).
		Msg("Document saved")
	return nil
}

// GetDocument retrieves a document by ID
func (s *DocumentStorage) GetDocument(ctx context.Context, id string) (*models.Document, error) {
	var doc models.Document
	if err := s.db.Store().Get(id, &doc); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, common.Errorf(common.KindNotFound, "document %s not found", id)
		}
		return nil, fmt.Errorf("failed to get document: %w", err)
	}
	return &doc, nil
}

// GetDocumentsByProject returns all documents belonging to a project
func (s *DocumentStorage) GetDocumentsByProject(ctx context.Context, projectID string) ([]*models.Document, error) {
	var docs []*models.Document
	if err := s.db.Store().Find(&docs, badgerhold.Where("ProjectID").Eq(projectID)); err != nil {
		return nil, fmt.Errorf("failed to query documents: %w", err)
	}
	return docs, nil
}

// DeleteDocument removes a document row
func (s *DocumentStorage) DeleteDocument(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.Document{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	return nil
}

// DeleteDocumentsByProject removes all document rows for a project
func (s *DocumentStorage) DeleteDocumentsByProject(ctx context.Context, projectID string) error {
	if err := s.db.Store().DeleteMatching(&models.Document{}, badgerhold.Where("ProjectID").Eq(projectID)); err != nil {
		return fmt.Errorf("failed to delete documents: %w", err)
	}
	return nil
}

// SaveDocumentsAtomic inserts all rows inside one Badger transaction;
// either every row lands or none do. Artifact publication depends on
// this being the single transactional boundary.
func (s *DocumentStorage) SaveDocumentsAtomic(ctx context.Context, docs []*models.Document) error {
	store := s.db.Store()
	now := time.Now().UTC()

	err := store.Badger().Update(func(tx *badgerdb.Txn) error {
		for _, doc := range docs {
			if doc.CreatedAt.IsZero() {
				doc.CreatedAt = now
			}
			doc.UpdatedAt = now
			if err := store.TxUpsert(tx, doc.ID, doc); err != nil {
				return fmt.Errorf("failed to insert document %s: %w", doc.Filename, err)
			}
		}
		return nil
	})
	if err != nil {
		return common.NewError(common.KindFatal, err)
	}

	s.logger.Debug().Int("count", len(docs)).Msg("Documents inserted atomically")
	return nil
}
