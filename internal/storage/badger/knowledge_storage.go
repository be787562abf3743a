package badger

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/timshannon/badgerhold/v4"
)

// KnowledgeStorage handles the vector-indexed answer library. Nearest
// neighbour search is an in-process cosine scan over stored vectors.
type KnowledgeStorage struct {
	db     *BadgerDB
	logger arbor.ILogger
}

// NewKnowledgeStorage creates a new knowledge storage instance
func NewKnowledgeStorage(db *BadgerDB, logger arbor.ILogger) interfaces.KnowledgeStorage {
	return &KnowledgeStorage{db: db, logger: logger}
}

// SaveEntry inserts or updates a knowledge entry
func (s *KnowledgeStorage) SaveEntry(ctx context.Context, entry *models.KnowledgeEntry) error {
	now := time.Now().UTC()
	if entry.CreatedAt.IsZero() {
		entry.CreatedAt = now
	}
	entry.UpdatedAt = now

	if err := s.db.Store().Upsert(entry.ID, entry); err != nil {
		return fmt.Errorf("failed to save knowledge entry: %w", err)
	}
	return nil
}

// GetEntry retrieves a knowledge entry by ID
func (s *KnowledgeStorage) GetEntry(ctx context.Context, id string) (*models.KnowledgeEntry, error) {
	var entry models.KnowledgeEntry
	if err := s.db.Store().Get(id, &entry); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, common.Errorf(common.KindNotFound, "knowledge entry %s not found", id)
		}
		return nil, fmt.Errorf("failed to get knowledge entry: %w", err)
	}
	return &entry, nil
}

// ListEntries returns all entries, scoped to orgID when non-empty
func (s *KnowledgeStorage) ListEntries(ctx context.Context, orgID string) ([]*models.KnowledgeEntry, error) {
	var entries []*models.KnowledgeEntry
	var query *badgerhold.Query
	if orgID != "" {
		query = badgerhold.Where("OrgID").Eq(orgID)
	}
	if err := s.db.Store().Find(&entries, query); err != nil {
		return nil, fmt.Errorf("failed to list knowledge entries: %w", err)
	}
	return entries, nil
}

// DeleteEntry removes a knowledge entry
func (s *KnowledgeStorage) DeleteEntry(ctx context.Context, id string) error {
	if err := s.db.Store().Delete(id, &models.KnowledgeEntry{}); err != nil && err != badgerhold.ErrNotFound {
		return fmt.Errorf("failed to delete knowledge entry: %w", err)
	}
	return nil
}

// SearchByVector ranks entries by cosine similarity to the query vector
// and returns the top limit with their scores. Entries without an
// embedding are skipped.
func (s *KnowledgeStorage) SearchByVector(ctx context.Context, vector []float32, orgID string, limit int) ([]*models.KnowledgeEntry, []float64, error) {
	entries, err := s.ListEntries(ctx, orgID)
	if err != nil {
		return nil, nil, err
	}

	type scored struct {
		entry *models.KnowledgeEntry
		score float64
	}
	ranked := make([]scored, 0, len(entries))
	for _, entry := range entries {
		if len(entry.Embedding) == 0 || len(entry.Embedding) != len(vector) {
			continue
		}
		ranked = append(ranked, scored{entry, CosineSimilarity(vector, entry.Embedding)})
	}

	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].score > ranked[j].score
	})
	if limit > 0 && len(ranked) > limit {
		ranked = ranked[:limit]
	}

	results := make([]*models.KnowledgeEntry, len(ranked))
	scores := make([]float64, len(ranked))
	for i, r := range ranked {
		results[i] = r.entry
		scores[i] = r.score
	}
	return results, scores, nil
}

// GetStaleEntries returns entries embedded with a different model
func (s *KnowledgeStorage) GetStaleEntries(ctx context.Context, model string, limit int) ([]*models.KnowledgeEntry, error) {
	var entries []*models.KnowledgeEntry
	query := badgerhold.Where("EmbeddingModel").Ne(model)
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := s.db.Store().Find(&entries, query); err != nil {
		return nil, fmt.Errorf("failed to query stale entries: %w", err)
	}
	return entries, nil
}

// CosineSimilarity computes the cosine of the angle between two vectors
// of equal length. Zero vectors score zero.
func CosineSimilarity(a, b []float32) float64 {
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}
