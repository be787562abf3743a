package knowledge

import (
	"context"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

const (
	defaultTopK     = 5
	defaultMinScore = 0.30
	excerptMaxLen   = 500
)

// Hit is one retrieval result with its truncated excerpt ready for
// prompt assembly.
type Hit struct {
	Entry   *models.KnowledgeEntry
	Score   float64
	Excerpt string
}

// Service owns the answer library: indexing entries with embeddings,
// similarity retrieval for response generation, and the periodic
// re-embed sweep after a model change.
type Service struct {
	storage    interfaces.KnowledgeStorage
	embeddings interfaces.EmbeddingService
	model      string
	topK       int
	minScore   float64
	logger     arbor.ILogger
}

func NewService(storage interfaces.KnowledgeStorage, embeddings interfaces.EmbeddingService, model string, topK int, minScore float64, logger arbor.ILogger) *Service {
	if topK <= 0 {
		topK = defaultTopK
	}
	if minScore <= 0 {
		minScore = defaultMinScore
	}
	return &Service{
		storage:    storage,
		embeddings: embeddings,
		model:      model,
		topK:       topK,
		minScore:   minScore,
		logger:     logger,
	}
}

// Add embeds and indexes one entry. Entries are embedded on the
// document side so retrieval queries compare against a consistent
// task type.
func (s *Service) Add(ctx context.Context, entry *models.KnowledgeEntry) error {
	vectors, err := s.embeddings.EmbedDocuments(ctx, []string{entry.Title + " " + entry.Content})
	if err != nil {
		return common.Errorf(common.KindTransient, "failed to embed knowledge entry: %v", err)
	}
	entry.Embedding = vectors[0]
	entry.EmbeddingModel = s.model
	return s.storage.SaveEntry(ctx, entry)
}

// Retrieve returns the top matches for a requirement, cut off below the
// minimum similarity. Backend failure degrades to an empty result so
// generation proceeds ungrounded rather than failing.
func (s *Service) Retrieve(ctx context.Context, query, orgID string) []Hit {
	vector, err := s.embeddings.EmbedQuery(ctx, query)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Query embedding failed, retrieving nothing")
		return nil
	}

	entries, scores, err := s.storage.SearchByVector(ctx, vector, orgID, s.topK)
	if err != nil {
		s.logger.Warn().Err(err).Msg("Vector search failed, retrieving nothing")
		return nil
	}

	var hits []Hit
	for i, entry := range entries {
		if scores[i] < s.minScore {
			continue
		}
		excerpt := entry.Content
		if len(excerpt) > excerptMaxLen {
			excerpt = excerpt[:excerptMaxLen]
		}
		hits = append(hits, Hit{Entry: entry, Score: scores[i], Excerpt: excerpt})
	}
	return hits
}

// ReembedStale re-embeds entries indexed under a different model. Runs
// from the cron sweep; limit bounds one pass.
func (s *Service) ReembedStale(ctx context.Context, limit int) (int, error) {
	entries, err := s.storage.GetStaleEntries(ctx, s.model, limit)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	texts := make([]string, len(entries))
	for i, entry := range entries {
		texts[i] = entry.Title + " " + entry.Content
	}
	vectors, err := s.embeddings.EmbedDocuments(ctx, texts)
	if err != nil {
		return 0, common.Errorf(common.KindTransient, "re-embed batch failed: %v", err)
	}

	updated := 0
	for i, entry := range entries {
		entry.Embedding = vectors[i]
		entry.EmbeddingModel = s.model
		entry.UpdatedAt = time.Now()
		if err := s.storage.SaveEntry(ctx, entry); err != nil {
			s.logger.Warn().Err(err).Str("entry_id", entry.ID).Msg("Failed to persist re-embedded entry")
			continue
		}
		updated++
	}
	s.logger.Info().Int("updated", updated).Str("model", s.model).Msg("Re-embedded stale knowledge entries")
	return updated, nil
}
