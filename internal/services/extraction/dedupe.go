package extraction

import (
	"context"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/storage/badger"
)

// Deduper collapses near-duplicate requirement records surfaced by
// overlapping chunks. Records are compared by embedding cosine; the
// earlier record always wins.
type Deduper struct {
	embeddings interfaces.EmbeddingService
	threshold  float64
	logger     arbor.ILogger
}

func NewDeduper(embeddings interfaces.EmbeddingService, threshold float64, logger arbor.ILogger) *Deduper {
	if threshold <= 0 || threshold > 1 {
		threshold = 0.95
	}
	return &Deduper{embeddings: embeddings, threshold: threshold, logger: logger}
}

// Dedupe returns the kept records in discovery order. Embedding failure
// degrades to a pass-through rather than failing the pipeline.
func (d *Deduper) Dedupe(ctx context.Context, records []requirementRecord) []requirementRecord {
	if len(records) < 2 {
		return records
	}

	texts := make([]string, len(records))
	for i, rec := range records {
		texts[i] = rec.Title + " " + rec.Description
	}

	vectors, err := d.embeddings.EmbedDocuments(ctx, texts)
	if err != nil || len(vectors) != len(records) {
		d.logger.Warn().Err(err).Int("count", len(records)).Msg("Dedupe embedding failed, keeping all records")
		return records
	}

	dropped := make([]bool, len(records))
	for i := range records {
		if dropped[i] {
			continue
		}
		for j := i + 1; j < len(records); j++ {
			if dropped[j] {
				continue
			}
			if badger.CosineSimilarity(vectors[i], vectors[j]) > d.threshold {
				dropped[j] = true
			}
		}
	}

	kept := records[:0:0]
	for i, rec := range records {
		if !dropped[i] {
			kept = append(kept, rec)
		}
	}
	if removed := len(records) - len(kept); removed > 0 {
		d.logger.Info().Int("removed", removed).Int("kept", len(kept)).Msg("Deduplicated requirement records")
	}
	return kept
}
