package models

import "time"

// KnowledgeEntry is a prior approved answer or product statement,
// vector-indexed for retrieval. Content is immutable once indexed; the
// entry may be re-embedded when the embedding model changes.
type KnowledgeEntry struct {
	ID              string    `json:"id" badgerhold:"key"`
	OrgID           string    `json:"org_id,omitempty" badgerhold:"index"`
	Title           string    `json:"title"`
	Content         string    `json:"content"`
	Category        string    `json:"category,omitempty"`
	Tags            []string  `json:"tags,omitempty"`
	Embedding       []float32 `json:"embedding,omitempty"`
	EmbeddingModel  string    `json:"embedding_model,omitempty"`
	SourceProjectID string    `json:"source_project_id,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}
