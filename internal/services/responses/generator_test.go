package responses

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/knowledge"
)

type fakeLLM struct {
	payload string
	err     error
}

func (f *fakeLLM) Generate(ctx context.Context, req interfaces.TextRequest) (string, interfaces.TokenUsage, error) {
	return "", interfaces.TokenUsage{}, errors.New("not implemented")
}

func (f *fakeLLM) GenerateStructured(ctx context.Context, req interfaces.ToolRequest) (json.RawMessage, interfaces.TokenUsage, error) {
	if f.err != nil {
		return nil, interfaces.TokenUsage{}, f.err
	}
	return json.RawMessage(f.payload), interfaces.TokenUsage{}, nil
}

func (f *fakeLLM) TotalUsage() interfaces.TokenUsage { return interfaces.TokenUsage{} }
func (f *fakeLLM) Close() error                      { return nil }

type fakeEmbedder struct{}

func (fakeEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i := range texts {
		out[i] = []float32{1}
	}
	return out, nil
}
func (fakeEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return []float32{1}, nil
}
func (fakeEmbedder) Dimension() int { return 1 }

type fakeKB struct {
	entries []*models.KnowledgeEntry
	scores  []float64
}

func (f *fakeKB) SaveEntry(ctx context.Context, entry *models.KnowledgeEntry) error { return nil }
func (f *fakeKB) GetEntry(ctx context.Context, id string) (*models.KnowledgeEntry, error) {
	return nil, common.Errorf(common.KindNotFound, "not found")
}
func (f *fakeKB) ListEntries(ctx context.Context, orgID string) ([]*models.KnowledgeEntry, error) {
	return f.entries, nil
}
func (f *fakeKB) DeleteEntry(ctx context.Context, id string) error { return nil }
func (f *fakeKB) SearchByVector(ctx context.Context, vector []float32, orgID string, limit int) ([]*models.KnowledgeEntry, []float64, error) {
	return f.entries, f.scores, nil
}
func (f *fakeKB) GetStaleEntries(ctx context.Context, model string, limit int) ([]*models.KnowledgeEntry, error) {
	return nil, nil
}

func newTestGenerator(llm *fakeLLM, kb *fakeKB) *Generator {
	logger := common.GetLogger()
	svc := knowledge.NewService(kb, fakeEmbedder{}, "m", 5, 0.30, logger)
	return NewGenerator(llm, svc, 2, logger)
}

func testRequirement() *models.Requirement {
	return &models.Requirement{
		ID:          "r1",
		ProjectID:   "p1",
		ReqNumber:   "FR-001",
		Title:       "SSO",
		Description: "The system shall support SAML single sign-on.",
		Type:        models.RequirementFunctional,
		Priority:    models.PriorityHigh,
	}
}

func TestGenerateBatchDraftsResponses(t *testing.T) {
	llm := &fakeLLM{payload: `{
		"compliance_status": "fully_compliant",
		"response_text": "The platform ships with SAML 2.0 single sign-on.",
		"confidence_score": 0.92,
		"key_features": ["SAML 2.0", "OIDC"]
	}`}
	kb := &fakeKB{
		entries: []*models.KnowledgeEntry{{ID: "k1", Title: "SSO answer", Content: "We support SAML."}},
		scores:  []float64{0.81},
	}
	g := newTestGenerator(llm, kb)

	responses := g.GenerateBatch(context.Background(), []*models.Requirement{testRequirement()}, "")
	require.Len(t, responses, 1)

	resp := responses[0]
	assert.Equal(t, "r1", resp.RequirementID)
	assert.Equal(t, models.ComplianceFullyCompliant, resp.ComplianceStatus)
	assert.InDelta(t, 0.92, resp.ConfidenceScore, 0.001)
	assert.True(t, resp.IsAIGenerated)
	require.Len(t, resp.SourceRefs, 1)
	assert.Equal(t, "k1", resp.SourceRefs[0].EntryID)
}

func TestGenerateBatchWritesStubOnFailure(t *testing.T) {
	g := newTestGenerator(&fakeLLM{err: errors.New("overloaded")}, &fakeKB{})

	responses := g.GenerateBatch(context.Background(), []*models.Requirement{testRequirement()}, "")
	require.Len(t, responses, 1)

	stub := responses[0]
	assert.Equal(t, models.ComplianceCustomDev, stub.ComplianceStatus)
	assert.Equal(t, "Response generation failed. Manual response required.", stub.ResponseText)
	assert.Zero(t, stub.ConfidenceScore)
	assert.Contains(t, stub.Notes, "overloaded")
}

func TestGenerateBatchClampsConfidence(t *testing.T) {
	llm := &fakeLLM{payload: `{
		"compliance_status": "configurable",
		"response_text": "Configurable via the policy engine.",
		"confidence_score": 1.7
	}`}
	g := newTestGenerator(llm, &fakeKB{})

	responses := g.GenerateBatch(context.Background(), []*models.Requirement{testRequirement()}, "")
	require.Len(t, responses, 1)
	assert.InDelta(t, 1.0, responses[0].ConfidenceScore, 0.001)
}

func TestGenerateBatchEmptyResponseTextBecomesStub(t *testing.T) {
	llm := &fakeLLM{payload: `{"compliance_status": "fully_compliant", "response_text": "", "confidence_score": 0.5}`}
	g := newTestGenerator(llm, &fakeKB{})

	responses := g.GenerateBatch(context.Background(), []*models.Requirement{testRequirement()}, "")
	require.Len(t, responses, 1)
	assert.Equal(t, models.ComplianceCustomDev, responses[0].ComplianceStatus)
}

func TestGenerateBatchPreservesOrder(t *testing.T) {
	llm := &fakeLLM{payload: `{"compliance_status": "fully_compliant", "response_text": "Supported.", "confidence_score": 0.8}`}
	g := newTestGenerator(llm, &fakeKB{})

	reqs := make([]*models.Requirement, 5)
	for i := range reqs {
		req := testRequirement()
		req.ID = string(rune('a' + i))
		reqs[i] = req
	}

	responses := g.GenerateBatch(context.Background(), reqs, "")
	require.Len(t, responses, 5)
	for i, resp := range responses {
		assert.Equal(t, reqs[i].ID, resp.RequirementID)
	}
}
