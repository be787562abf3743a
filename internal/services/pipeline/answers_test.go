package pipeline

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
)

// scriptedLLM returns one canned reply per call, then errors.
type scriptedLLM struct {
	replies []string
	calls   int
}

func (s *scriptedLLM) Generate(ctx context.Context, req interfaces.TextRequest) (string, interfaces.TokenUsage, error) {
	if s.calls >= len(s.replies) {
		return "", interfaces.TokenUsage{}, errors.New("no more scripted replies")
	}
	reply := s.replies[s.calls]
	s.calls++
	return reply, interfaces.TokenUsage{}, nil
}

func (s *scriptedLLM) GenerateStructured(ctx context.Context, req interfaces.ToolRequest) (json.RawMessage, interfaces.TokenUsage, error) {
	return nil, interfaces.TokenUsage{}, errors.New("not implemented")
}

func (s *scriptedLLM) TotalUsage() interfaces.TokenUsage { return interfaces.TokenUsage{} }
func (s *scriptedLLM) Close() error                      { return nil }

func newAnswerPipeline(llm interfaces.LLMService, batchSize int) *Pipeline {
	cfg := common.NewDefaultConfig()
	cfg.Pipeline.AnswerBatchSize = batchSize
	return New(cfg, Services{LLM: llm}, common.GetLogger())
}

func question(row int, text string) *models.SheetQuestion {
	return &models.SheetQuestion{
		SheetName:    "Questions",
		Row:          row,
		Question:     text,
		QuestionType: models.QuestionBinary,
		ResponseCol:  "D",
	}
}

func TestAnswerQuestionsParsesBatches(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		"```json\n[{\"row\":4,\"sheet_name\":\"Questions\",\"response_col_letter\":\"D\",\"answer\":\"Yes, supported.\"}]\n```",
	}}
	p := newAnswerPipeline(llm, 20)

	answers := p.answerQuestions(context.Background(), []*models.SheetQuestion{question(4, "Does it support SSO?")})
	require.Len(t, answers, 1)
	assert.Equal(t, 4, answers[0].Row)
	assert.Equal(t, "D", answers[0].ResponseCol)
	assert.Equal(t, "Yes, supported.", answers[0].Answer)
}

func TestAnswerQuestionsDropsMalformedBatch(t *testing.T) {
	// First batch replies with prose, second with valid JSON; only the
	// second survives and there is no retry.
	llm := &scriptedLLM{replies: []string{
		"Sorry, I cannot answer these questions.",
		`[{"row":2,"sheet_name":"Questions","response_col_letter":"D","answer":"No."}]`,
	}}
	p := newAnswerPipeline(llm, 1)

	answers := p.answerQuestions(context.Background(), []*models.SheetQuestion{
		question(1, "First question"),
		question(2, "Second question"),
	})
	require.Len(t, answers, 1)
	assert.Equal(t, 2, answers[0].Row)
	assert.Equal(t, 2, llm.calls)
}

func TestAnswerQuestionsFiltersInvalidRecords(t *testing.T) {
	llm := &scriptedLLM{replies: []string{
		`[{"row":0,"sheet_name":"Questions","response_col_letter":"D","answer":"bad row"},
		  {"row":3,"sheet_name":"Questions","response_col_letter":"","answer":"no column"},
		  {"row":5,"sheet_name":"Questions","response_col_letter":"D","answer":""},
		  {"row":6,"sheet_name":"Questions","response_col_letter":"D","answer":"kept"}]`,
	}}
	p := newAnswerPipeline(llm, 20)

	answers := p.answerQuestions(context.Background(), []*models.SheetQuestion{question(6, "q")})
	require.Len(t, answers, 1)
	assert.Equal(t, "kept", answers[0].Answer)
}
