package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/xuri/excelize/v2"
)

const answerSystemPrompt = `You answer RFP questionnaire rows on behalf of a software vendor.
Answer each question in 1-4 sentences from general product capability.
For yes/no questions lead with "Yes" or "No" before any elaboration.
Reply with ONLY a JSON array; each element is
{"row": <int>, "sheet_name": "<string>", "response_col_letter": "<string>", "answer": "<string>"}.
Do not wrap the array in prose.`

// answerSpreadsheets runs the questionnaire branch over every
// downloaded workbook: detect answerable sheets, narrow by hints,
// extract questions, answer in batches, and write the answers back
// into a copy of the original workbook.
func (p *Pipeline) answerSpreadsheets(ctx context.Context, project *models.Project, sheetDocs []*localDoc, hints Hints, outputDir string) {
	for _, local := range sheetDocs {
		if err := p.answerWorkbook(ctx, project, local, hints, outputDir); err != nil {
			p.logStageSkip("questionnaire "+local.doc.Filename, err)
		}
	}
}

func (p *Pipeline) answerWorkbook(ctx context.Context, project *models.Project, local *localDoc, hints Hints, outputDir string) error {
	workbook, err := excelize.OpenFile(local.path)
	if err != nil {
		return fmt.Errorf("failed to open workbook: %w", err)
	}
	defer workbook.Close()

	// Detect answerable sheets and their questions.
	structures := make(map[string]models.SheetStructure)
	questionsBySheet := make(map[string][]*models.SheetQuestion)
	var detected []string
	for _, sheetName := range workbook.GetSheetList() {
		structure := p.svc.Detector.Detect(workbook, sheetName)
		if !structure.Answerable() {
			continue
		}
		questions, err := p.svc.Questions.Extract(workbook, structure)
		if err != nil || len(questions) == 0 {
			continue
		}
		structures[sheetName] = structure
		questionsBySheet[sheetName] = questions
		detected = append(detected, sheetName)
	}
	if len(detected) == 0 {
		p.logger.Info().Str("filename", local.doc.Filename).Msg("No answerable questionnaire sheets detected")
		return nil
	}

	chosen := MatchSheets(detected, hints.SheetNames)

	var questions []*models.SheetQuestion
	for _, sheetName := range chosen {
		questions = append(questions, questionsBySheet[sheetName]...)
	}
	p.logger.Info().
		Str("filename", local.doc.Filename).
		Int("sheets", len(chosen)).
		Int("questions", len(questions)).
		Msg("Answering questionnaire")

	answers := p.answerQuestions(ctx, questions)
	if len(answers) == 0 {
		return nil
	}

	// Group by sheet and write back.
	answersBySheet := make(map[string][]*models.SheetAnswer)
	for _, answer := range answers {
		answersBySheet[answer.SheetName] = append(answersBySheet[answer.SheetName], answer)
	}
	for sheetName, sheetAnswers := range answersBySheet {
		if _, ok := structures[sheetName]; !ok {
			continue
		}
		report, err := p.svc.Writer.Write(workbook, sheetName, sheetAnswers)
		if err != nil {
			return fmt.Errorf("write-back failed for sheet %s: %w", sheetName, err)
		}
		p.logger.Info().
			Str("sheet", sheetName).
			Int("written", report.Written).
			Int("unmerged", report.Unmerged).
			Int("skipped_formula", report.SkippedFormula).
			Msg("Answers written")
	}

	outPath := filepath.Join(outputDir, "Answered_"+local.doc.Filename)
	if err := workbook.SaveAs(outPath); err != nil {
		return fmt.Errorf("failed to save answered workbook: %w", err)
	}
	return nil
}

// answerQuestions calls the model in free-text JSON-array mode over
// batches. A malformed batch is dropped and logged, never retried.
func (p *Pipeline) answerQuestions(ctx context.Context, questions []*models.SheetQuestion) []*models.SheetAnswer {
	batchSize := p.config.Pipeline.AnswerBatchSize
	if batchSize <= 0 {
		batchSize = 20
	}

	var answers []*models.SheetAnswer
	for start := 0; start < len(questions); start += batchSize {
		end := min(start+batchSize, len(questions))
		batch := questions[start:end]

		stageCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
		batchAnswers, err := p.answerBatch(stageCtx, batch)
		cancel()
		if err != nil {
			p.logger.Warn().Err(err).Int("batch_start", start).Int("batch_size", len(batch)).Msg("Answer batch dropped")
			continue
		}
		answers = append(answers, batchAnswers...)
	}
	return answers
}

func (p *Pipeline) answerBatch(ctx context.Context, batch []*models.SheetQuestion) ([]*models.SheetAnswer, error) {
	var user strings.Builder
	user.WriteString("Answer these questionnaire rows:\n\n")
	for _, q := range batch {
		fmt.Fprintf(&user, "Row %d, sheet %q, response column %s", q.Row, q.SheetName, q.ResponseCol)
		if q.Category != "" {
			fmt.Fprintf(&user, ", category %q", q.Category)
		}
		fmt.Fprintf(&user, " (%s): %s\n", q.QuestionType, q.Question)
	}

	reply, _, err := p.svc.LLM.Generate(ctx, interfaces.TextRequest{
		System:    answerSystemPrompt,
		User:      user.String(),
		MaxTokens: p.config.Claude.MaxTokens,
	})
	if err != nil {
		return nil, err
	}

	var records []struct {
		Row         int    `json:"row"`
		SheetName   string `json:"sheet_name"`
		ResponseCol string `json:"response_col_letter"`
		Answer      string `json:"answer"`
	}
	if err := json.Unmarshal([]byte(stripFences(reply)), &records); err != nil {
		return nil, fmt.Errorf("malformed answer batch: %w", err)
	}

	answers := make([]*models.SheetAnswer, 0, len(records))
	for _, rec := range records {
		if rec.Row < 1 || rec.Answer == "" || rec.ResponseCol == "" {
			continue
		}
		answers = append(answers, &models.SheetAnswer{
			SheetName:   rec.SheetName,
			Row:         rec.Row,
			ResponseCol: rec.ResponseCol,
			Answer:      rec.Answer,
		})
	}
	return answers, nil
}

// stripFences removes a leading/trailing markdown code fence, tolerating
// trailing prose after the closing fence.
func stripFences(reply string) string {
	trimmed := strings.TrimSpace(reply)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = trimmed[3:]
	if newline := strings.IndexByte(trimmed, '\n'); newline >= 0 {
		// Drop the language tag line.
		if lang := strings.TrimSpace(trimmed[:newline]); len(lang) <= 10 && !strings.ContainsAny(lang, "[{") {
			trimmed = trimmed[newline+1:]
		}
	}
	if closing := strings.LastIndex(trimmed, "```"); closing >= 0 {
		trimmed = trimmed[:closing]
	}
	return strings.TrimSpace(trimmed)
}
