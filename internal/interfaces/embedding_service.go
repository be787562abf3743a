package interfaces

import "context"

// EmbeddingService - single and batch text embeddings. Document and
// query embeddings use distinct provider input types and must not be
// mixed when computing similarity.
type EmbeddingService interface {
	// EmbedDocuments embeds texts for indexing; batches of at most 64 are
	// sent per provider call internally.
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)

	// EmbedQuery embeds a retrieval query.
	EmbedQuery(ctx context.Context, text string) ([]float32, error)

	// Dimension returns the fixed vector width.
	Dimension() int
}
