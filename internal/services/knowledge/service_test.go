package knowledge

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
)

type fakeEmbedder struct {
	vector []float32
	err    error
}

func (f *fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = f.vector
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return f.vector, f.err
}

func (f *fakeEmbedder) Dimension() int { return len(f.vector) }

// fakeKnowledgeStorage returns canned search results and records saves.
type fakeKnowledgeStorage struct {
	saved   []*models.KnowledgeEntry
	entries []*models.KnowledgeEntry
	scores  []float64
	stale   []*models.KnowledgeEntry
	err     error
}

func (f *fakeKnowledgeStorage) SaveEntry(ctx context.Context, entry *models.KnowledgeEntry) error {
	f.saved = append(f.saved, entry)
	return f.err
}

func (f *fakeKnowledgeStorage) GetEntry(ctx context.Context, id string) (*models.KnowledgeEntry, error) {
	return nil, common.Errorf(common.KindNotFound, "entry %s not found", id)
}

func (f *fakeKnowledgeStorage) ListEntries(ctx context.Context, orgID string) ([]*models.KnowledgeEntry, error) {
	return f.entries, nil
}

func (f *fakeKnowledgeStorage) DeleteEntry(ctx context.Context, id string) error { return f.err }

func (f *fakeKnowledgeStorage) SearchByVector(ctx context.Context, vector []float32, orgID string, limit int) ([]*models.KnowledgeEntry, []float64, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	if limit < len(f.entries) {
		return f.entries[:limit], f.scores[:limit], nil
	}
	return f.entries, f.scores, nil
}

func (f *fakeKnowledgeStorage) GetStaleEntries(ctx context.Context, model string, limit int) ([]*models.KnowledgeEntry, error) {
	return f.stale, f.err
}

var _ interfaces.KnowledgeStorage = (*fakeKnowledgeStorage)(nil)

func entry(id, content string) *models.KnowledgeEntry {
	return &models.KnowledgeEntry{ID: id, Title: "title " + id, Content: content}
}

func TestAddEmbedsAndStampsModel(t *testing.T) {
	storage := &fakeKnowledgeStorage{}
	svc := NewService(storage, &fakeEmbedder{vector: []float32{0.1, 0.2}}, "gemini-embedding-001", 5, 0.30, common.GetLogger())

	e := entry("k1", "Our platform supports SAML SSO.")
	require.NoError(t, svc.Add(context.Background(), e))

	require.Len(t, storage.saved, 1)
	assert.Equal(t, []float32{0.1, 0.2}, storage.saved[0].Embedding)
	assert.Equal(t, "gemini-embedding-001", storage.saved[0].EmbeddingModel)
}

func TestAddEmbeddingFailureIsTransient(t *testing.T) {
	svc := NewService(&fakeKnowledgeStorage{}, &fakeEmbedder{err: errors.New("quota")}, "m", 5, 0.30, common.GetLogger())

	err := svc.Add(context.Background(), entry("k1", "content"))
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindTransient))
}

func TestRetrieveAppliesScoreCutoff(t *testing.T) {
	storage := &fakeKnowledgeStorage{
		entries: []*models.KnowledgeEntry{entry("k1", "strong match"), entry("k2", "weak match")},
		scores:  []float64{0.82, 0.12},
	}
	svc := NewService(storage, &fakeEmbedder{vector: []float32{1}}, "m", 5, 0.30, common.GetLogger())

	hits := svc.Retrieve(context.Background(), "sso question", "")
	require.Len(t, hits, 1)
	assert.Equal(t, "k1", hits[0].Entry.ID)
	assert.InDelta(t, 0.82, hits[0].Score, 0.001)
}

func TestRetrieveTruncatesExcerpts(t *testing.T) {
	long := make([]byte, 900)
	for i := range long {
		long[i] = 'x'
	}
	storage := &fakeKnowledgeStorage{
		entries: []*models.KnowledgeEntry{entry("k1", string(long))},
		scores:  []float64{0.9},
	}
	svc := NewService(storage, &fakeEmbedder{vector: []float32{1}}, "m", 5, 0.30, common.GetLogger())

	hits := svc.Retrieve(context.Background(), "q", "")
	require.Len(t, hits, 1)
	assert.Len(t, hits[0].Excerpt, 500)
}

func TestRetrieveDegradesToEmptyOnFailure(t *testing.T) {
	svc := NewService(&fakeKnowledgeStorage{err: errors.New("closed")}, &fakeEmbedder{vector: []float32{1}}, "m", 5, 0.30, common.GetLogger())
	assert.Empty(t, svc.Retrieve(context.Background(), "q", ""))

	svc = NewService(&fakeKnowledgeStorage{}, &fakeEmbedder{err: errors.New("quota")}, "m", 5, 0.30, common.GetLogger())
	assert.Empty(t, svc.Retrieve(context.Background(), "q", ""))
}

func TestReembedStaleUpdatesModel(t *testing.T) {
	storage := &fakeKnowledgeStorage{
		stale: []*models.KnowledgeEntry{entry("k1", "a"), entry("k2", "b")},
	}
	svc := NewService(storage, &fakeEmbedder{vector: []float32{0.5}}, "new-model", 5, 0.30, common.GetLogger())

	updated, err := svc.ReembedStale(context.Background(), 100)
	require.NoError(t, err)
	assert.Equal(t, 2, updated)
	require.Len(t, storage.saved, 2)
	for _, saved := range storage.saved {
		assert.Equal(t, "new-model", saved.EmbeddingModel)
		assert.Equal(t, []float32{0.5}, saved.Embedding)
	}
}

func TestReembedStaleNothingToDo(t *testing.T) {
	svc := NewService(&fakeKnowledgeStorage{}, &fakeEmbedder{vector: []float32{1}}, "m", 5, 0.30, common.GetLogger())
	updated, err := svc.ReembedStale(context.Background(), 100)
	require.NoError(t, err)
	assert.Zero(t, updated)
}

func TestNewServiceDefaults(t *testing.T) {
	svc := NewService(&fakeKnowledgeStorage{}, &fakeEmbedder{}, "m", 0, 0, common.GetLogger())
	assert.Equal(t, 5, svc.topK)
	assert.InDelta(t, 0.30, svc.minScore, 0.001)
}
