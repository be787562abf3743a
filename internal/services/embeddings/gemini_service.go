package embeddings

import (
	"context"
	"fmt"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/services/llm"
	"google.golang.org/genai"
)

// Service implements EmbeddingService using the Google GenAI embedding
// models. Documents and queries are embedded with distinct task types;
// batches are capped at the provider limit per call.
type Service struct {
	client    *genai.Client
	config    *common.EmbeddingsConfig
	retry     *llm.RetryConfig
	batchSize int
	logger    arbor.ILogger
}

// NewService creates a new embedding service
func NewService(ctx context.Context, config *common.EmbeddingsConfig, logger arbor.ILogger) (interfaces.EmbeddingService, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Google API key is required (set GOOGLE_API_KEY, RESPONDEO_EMBEDDINGS_API_KEY, or embeddings.api_key in config)")
	}
	if config.Model == "" {
		config.Model = "text-embedding-004"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  config.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize genai client: %w", err)
	}

	batchSize := config.BatchSize
	if batchSize <= 0 || batchSize > 64 {
		batchSize = 64
	}

	logger.Debug().
		Str("model", config.Model).
		Int("dimension", config.Dimension).
		Int("batch_size", batchSize).
		Msg("Embedding service initialized")

	return &Service{
		client:    client,
		config:    config,
		retry:     llm.NewDefaultRetryConfig(),
		batchSize: batchSize,
		logger:    logger,
	}, nil
}

// EmbedDocuments embeds texts for indexing, splitting into provider-sized
// batches internally. Output order matches input order.
func (s *Service) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	vectors := make([][]float32, 0, len(texts))
	for start := 0; start < len(texts); start += s.batchSize {
		end := start + s.batchSize
		if end > len(texts) {
			end = len(texts)
		}

		batch, err := s.embedBatch(ctx, texts[start:end], "RETRIEVAL_DOCUMENT")
		if err != nil {
			return nil, err
		}
		vectors = append(vectors, batch...)
	}
	return vectors, nil
}

// EmbedQuery embeds a retrieval query.
func (s *Service) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	if text == "" {
		return nil, fmt.Errorf("text cannot be empty for embedding generation")
	}

	vectors, err := s.embedBatch(ctx, []string{text}, "RETRIEVAL_QUERY")
	if err != nil {
		return nil, err
	}
	return vectors[0], nil
}

// Dimension returns the fixed vector width.
func (s *Service) Dimension() int {
	return s.config.Dimension
}

func (s *Service) embedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	outputDim := int32(s.config.Dimension)
	embeddingConfig := &genai.EmbedContentConfig{
		OutputDimensionality: &outputDim,
		TaskType:             taskType,
	}

	contents := make([]*genai.Content, len(texts))
	for i, text := range texts {
		contents[i] = genai.NewContentFromText(text, genai.RoleUser)
	}

	start := time.Now()
	var result *genai.EmbedContentResponse
	err := llm.WithRetry(ctx, s.retry, func() error {
		var callErr error
		result, callErr = s.client.Models.EmbedContent(ctx, s.config.Model, contents, embeddingConfig)
		return callErr
	})
	if err != nil {
		if llm.IsRetryable(err) {
			return nil, common.NewError(common.KindTransient, err)
		}
		return nil, fmt.Errorf("embedding generation failed: %w", err)
	}

	if result == nil {
		return nil, fmt.Errorf("embedding response was empty")
	}
	if len(result.Embeddings) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: expected %d, got %d", len(texts), len(result.Embeddings))
	}

	vectors := make([][]float32, len(texts))
	for i, emb := range result.Embeddings {
		if len(emb.Values) != s.config.Dimension {
			return nil, fmt.Errorf("embedding dimension mismatch: expected %d, got %d", s.config.Dimension, len(emb.Values))
		}
		vectors[i] = emb.Values
	}

	s.logger.Debug().
		Int("batch", len(texts)).
		Str("task_type", taskType).
		Dur("duration", time.Since(start)).
		Msg("Generated embeddings")

	return vectors, nil
}
