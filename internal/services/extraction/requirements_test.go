package extraction

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/services/chunker"
)

func newTestExtractor(llm *fakeStructuredLLM) *RequirementExtractor {
	logger := common.GetLogger()
	deduper := NewDeduper(&fakeEmbedder{err: errors.New("no embeddings in test")}, 0.95, logger)
	return NewRequirementExtractor(llm, deduper, chunker.New(4000, 200), logger)
}

func TestExtractDecodesAndNumbers(t *testing.T) {
	payload := `{"requirements":[
		{"title":"SSO support","description":"The system shall support SAML single sign-on.","type":"functional","is_mandatory":true,"response_required":true,"priority":"high"},
		{"title":"Payment terms","description":"Invoices are payable within 30 days of receipt.","type":"commercial","is_mandatory":false,"response_required":true,"priority":"medium"}
	]}`
	e := newTestExtractor(&fakeStructuredLLM{payload: payload})

	requirements, err := e.Extract(context.Background(), "proj-1", "doc-1", "The system shall support SAML.")
	require.NoError(t, err)
	require.Len(t, requirements, 2)

	assert.Equal(t, "FR-001", requirements[0].ReqNumber)
	assert.Equal(t, "CR-001", requirements[1].ReqNumber)
	assert.Equal(t, "proj-1", requirements[0].ProjectID)
	assert.Equal(t, "doc-1", requirements[0].DocumentID)
	assert.True(t, requirements[0].IsMandatory)
	assert.NotEmpty(t, requirements[0].ID)
}

func TestExtractDropsInvalidRecords(t *testing.T) {
	// Second record carries an unknown type, third has no description.
	payload := `{"requirements":[
		{"title":"Valid one","description":"A complete requirement description.","type":"technical","is_mandatory":true,"response_required":true,"priority":"low"},
		{"title":"Bad type","description":"Long enough description here.","type":"wishlist","is_mandatory":false,"response_required":true,"priority":"low"},
		{"title":"No body","description":"","type":"legal","is_mandatory":false,"response_required":true,"priority":"low"}
	]}`
	e := newTestExtractor(&fakeStructuredLLM{payload: payload})

	requirements, err := e.Extract(context.Background(), "proj-1", "doc-1", "text")
	require.NoError(t, err)
	require.Len(t, requirements, 1)
	assert.Equal(t, "TR-001", requirements[0].ReqNumber)
}

func TestExtractEmptyTextReturnsNothing(t *testing.T) {
	e := newTestExtractor(&fakeStructuredLLM{payload: `{"requirements":[]}`})
	requirements, err := e.Extract(context.Background(), "proj-1", "doc-1", "  ")
	require.NoError(t, err)
	assert.Nil(t, requirements)
}

func TestExtractAllChunksFailed(t *testing.T) {
	e := newTestExtractor(&fakeStructuredLLM{err: errors.New("overloaded")})

	_, err := e.Extract(context.Background(), "proj-1", "doc-1", "some document text")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindStagePartial))
}

func TestExtractMalformedPayloadCountsAsFailedChunk(t *testing.T) {
	e := newTestExtractor(&fakeStructuredLLM{payload: `{"requirements": "not an array"}`})

	_, err := e.Extract(context.Background(), "proj-1", "doc-1", "some document text")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindStagePartial))
}
