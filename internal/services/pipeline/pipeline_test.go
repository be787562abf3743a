package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"baliance.com/gooxml/document"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/artifacts"
	"github.com/ternarybob/respondeo/internal/services/chunker"
	"github.com/ternarybob/respondeo/internal/services/classifier"
	"github.com/ternarybob/respondeo/internal/services/extraction"
	"github.com/ternarybob/respondeo/internal/services/parsers"
	"github.com/ternarybob/respondeo/internal/services/sheets"
	"github.com/ternarybob/respondeo/internal/storage/badger"
	"github.com/xuri/excelize/v2"
)

// memBlob is an in-memory object store. failPutAfter > 0 rejects every
// Put once that many have succeeded.
type memBlob struct {
	mu           sync.Mutex
	objects      map[string][]byte
	deleted      []string
	puts         int
	failPutAfter int
}

func newMemBlob() *memBlob {
	return &memBlob{objects: make(map[string][]byte)}
}

func (m *memBlob) Put(ctx context.Context, key string, data []byte, contentType string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPutAfter > 0 && m.puts >= m.failPutAfter {
		return errors.New("put rejected")
	}
	m.puts++
	m.objects[key] = append([]byte(nil), data...)
	return nil
}

func (m *memBlob) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.objects[key]
	if !ok {
		return nil, common.Errorf(common.KindNotFound, "object %s not found", key)
	}
	return data, nil
}

func (m *memBlob) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.objects, key)
	m.deleted = append(m.deleted, key)
	return nil
}

func (m *memBlob) Exists(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.objects[key]
	return ok, nil
}

func (m *memBlob) PresignGet(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", errors.New("presign not supported")
}

var _ interfaces.BlobService = (*memBlob)(nil)

func newTestStorage(t *testing.T) interfaces.StorageManager {
	t.Helper()
	manager, err := badger.NewManager(common.GetLogger(), &common.BadgerConfig{Path: t.TempDir()})
	require.NoError(t, err)
	t.Cleanup(func() { manager.Close() })
	return manager
}

// questionnaireBytes builds a workbook with a recognizable header row
// and two identified requirement rows.
func questionnaireBytes(t *testing.T) []byte {
	t.Helper()
	wb := excelize.NewFile()
	defer wb.Close()
	sheet := "Questions"
	_, err := wb.NewSheet(sheet)
	require.NoError(t, err)

	require.NoError(t, wb.SetSheetRow(sheet, "A3", &[]string{"ID", "Requirement", "Score", "Response"}))
	require.NoError(t, wb.SetCellValue(sheet, "A4", "D.1"))
	require.NoError(t, wb.SetCellValue(sheet, "B4", "The system shall provide an immutable audit trail."))
	require.NoError(t, wb.SetCellValue(sheet, "A5", "D.2"))
	require.NoError(t, wb.SetCellValue(sheet, "B5", "Does the platform support single sign-on?"))

	buf, err := wb.WriteToBuffer()
	require.NoError(t, err)
	return buf.Bytes()
}

func TestRunAnswersQuestionnaireAndPublishes(t *testing.T) {
	ctx := context.Background()
	manager := newTestStorage(t)
	blob := newMemBlob()

	require.NoError(t, manager.ProjectStorage().SaveProject(ctx, &models.Project{
		ID:         "p1",
		Name:       "Transport RFP",
		ClientName: "Department of Transport",
	}))
	const uploadKey = "projects/p1/uploads/u1/Questionnaire.xlsx"
	require.NoError(t, blob.Put(ctx, uploadKey, questionnaireBytes(t), ""))
	require.NoError(t, manager.DocumentStorage().SaveDocument(ctx, &models.Document{
		ID:         "d1",
		ProjectID:  "p1",
		Filename:   "Questionnaire.xlsx",
		StorageKey: uploadKey,
		FileType:   models.FileTypeXLSX,
		Status:     models.DocumentStatusUploaded,
	}))

	llm := &scriptedLLM{replies: []string{
		`[{"row":4,"sheet_name":"Questions","response_col_letter":"D","answer":"Yes. Audit events are written to an immutable store."},
		  {"row":5,"sheet_name":"Questions","response_col_letter":"D","answer":"Yes, via SAML 2.0."}]`,
	}}
	logger := common.GetLogger()
	p := New(common.NewDefaultConfig(), Services{
		Storage:   manager,
		Blob:      blob,
		LLM:       llm,
		Detector:  sheets.NewDetector(logger),
		Questions: sheets.NewExtractor(logger),
		Writer:    sheets.NewWriter(logger),
	}, logger)

	p.Run(ctx, "p1")

	project, err := manager.ProjectStorage().GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatusCompleted, project.ProcessingStatus)
	assert.Contains(t, project.ProcessingMessage, "Generated 1 artifacts")

	docs, err := manager.DocumentStorage().GetDocumentsByProject(ctx, "p1")
	require.NoError(t, err)
	var generated *models.Document
	for _, doc := range docs {
		if doc.DocCategory == models.CategoryGeneratedOutput {
			generated = doc
		}
	}
	require.NotNil(t, generated, "published artifact row missing")
	assert.Equal(t, "Answered_Questionnaire.xlsx", generated.Filename)
	assert.Equal(t, models.FileTypeXLSX, generated.FileType)
	assert.Equal(t, models.DocumentStatusCompleted, generated.Status)
	assert.True(t, strings.HasPrefix(generated.StorageKey, "projects/p1/generated/"), generated.StorageKey)

	data, err := blob.Get(ctx, generated.StorageKey)
	require.NoError(t, err)
	answered, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer answered.Close()

	got, err := answered.GetCellValue("Questions", "D4")
	require.NoError(t, err)
	assert.Equal(t, "Yes. Audit events are written to an immutable store.", got)
	got, err = answered.GetCellValue("Questions", "D5")
	require.NoError(t, err)
	assert.Equal(t, "Yes, via SAML 2.0.", got)

	// The original question cells are untouched.
	question, err := answered.GetCellValue("Questions", "B4")
	require.NoError(t, err)
	assert.Equal(t, "The system shall provide an immutable audit trail.", question)
}

func TestRunFailsWhenProjectHasNoSourceDocuments(t *testing.T) {
	ctx := context.Background()
	manager := newTestStorage(t)

	require.NoError(t, manager.ProjectStorage().SaveProject(ctx, &models.Project{ID: "p1", Name: "Empty"}))
	// Artifacts from an earlier run do not count as sources.
	require.NoError(t, manager.DocumentStorage().SaveDocument(ctx, &models.Document{
		ID:          "gen1",
		ProjectID:   "p1",
		Filename:    "RFI_Response.pdf",
		DocCategory: models.CategoryGeneratedOutput,
	}))

	p := New(common.NewDefaultConfig(), Services{Storage: manager, Blob: newMemBlob()}, common.GetLogger())
	p.Run(ctx, "p1")

	project, err := manager.ProjectStorage().GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatusFailed, project.ProcessingStatus)
	assert.Contains(t, project.ProcessingMessage, "No documents uploaded")
}

func TestRunFailsWhenNoDocumentFetchable(t *testing.T) {
	ctx := context.Background()
	manager := newTestStorage(t)

	require.NoError(t, manager.ProjectStorage().SaveProject(ctx, &models.Project{ID: "p1", Name: "Stale"}))
	require.NoError(t, manager.DocumentStorage().SaveDocument(ctx, &models.Document{
		ID:         "d1",
		ProjectID:  "p1",
		Filename:   "missing.xlsx",
		StorageKey: "projects/p1/uploads/u1/missing.xlsx",
		FileType:   models.FileTypeXLSX,
	}))

	p := New(common.NewDefaultConfig(), Services{Storage: manager, Blob: newMemBlob()}, common.GetLogger())
	p.Run(ctx, "p1")

	project, err := manager.ProjectStorage().GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatusFailed, project.ProcessingStatus)
	assert.Contains(t, project.ProcessingMessage, "could be fetched")
}

func TestRunUnknownProjectFails(t *testing.T) {
	manager := newTestStorage(t)
	p := New(common.NewDefaultConfig(), Services{Storage: manager, Blob: newMemBlob()}, common.GetLogger())

	p.Run(context.Background(), "ghost")

	// The terminal status write has no row to land on; the run must not
	// panic and must not create one.
	projects, err := manager.ProjectStorage().ListProjects(context.Background())
	require.NoError(t, err)
	assert.Empty(t, projects)
}

// toolLLM scripts text and tool-use replies on independent queues.
type toolLLM struct {
	textReplies []string
	toolReplies []string
	textCalls   int
	toolCalls   int
}

func (s *toolLLM) Generate(ctx context.Context, req interfaces.TextRequest) (string, interfaces.TokenUsage, error) {
	if s.textCalls >= len(s.textReplies) {
		return "", interfaces.TokenUsage{}, errors.New("no more text replies")
	}
	reply := s.textReplies[s.textCalls]
	s.textCalls++
	return reply, interfaces.TokenUsage{}, nil
}

func (s *toolLLM) GenerateStructured(ctx context.Context, req interfaces.ToolRequest) (json.RawMessage, interfaces.TokenUsage, error) {
	if s.toolCalls >= len(s.toolReplies) {
		return nil, interfaces.TokenUsage{}, errors.New("no more tool replies")
	}
	reply := s.toolReplies[s.toolCalls]
	s.toolCalls++
	return json.RawMessage(reply), interfaces.TokenUsage{}, nil
}

func (s *toolLLM) TotalUsage() interfaces.TokenUsage { return interfaces.TokenUsage{} }
func (s *toolLLM) Close() error                      { return nil }

type failEmbedder struct{}

func (failEmbedder) EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error) {
	return nil, errors.New("embeddings unavailable")
}

func (failEmbedder) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return nil, errors.New("embeddings unavailable")
}

func (failEmbedder) Dimension() int { return 768 }

func rfpDocxBytes(t *testing.T) []byte {
	t.Helper()
	doc := document.New()
	doc.AddParagraph().AddRun().AddText("Request for Proposal: Integrated GRC Platform")
	doc.AddParagraph().AddRun().AddText(
		"Proposal submission deadline: 2026-04-01. Vendors must submit all responses electronically.")
	var buf bytes.Buffer
	require.NoError(t, doc.Save(&buf))
	return buf.Bytes()
}

func TestRunSchedulePathPublishesWinPlanAndRFI(t *testing.T) {
	ctx := context.Background()
	manager := newTestStorage(t)
	blob := newMemBlob()

	require.NoError(t, manager.ProjectStorage().SaveProject(ctx, &models.Project{
		ID:         "p1",
		Name:       "GRC Platform RFP",
		ClientName: "Acme Bank",
	}))
	const uploadKey = "projects/p1/uploads/u1/RFP.docx"
	require.NoError(t, blob.Put(ctx, uploadKey, rfpDocxBytes(t), ""))
	require.NoError(t, manager.DocumentStorage().SaveDocument(ctx, &models.Document{
		ID:         "d1",
		ProjectID:  "p1",
		Filename:   "RFP.docx",
		StorageKey: uploadKey,
		FileType:   models.FileTypeDOCX,
		Status:     models.DocumentStatusUploaded,
	}))

	// One classification reply and one schedule payload are scripted; the
	// requirement chunk call exhausts the queue and that stage is skipped.
	llm := &toolLLM{
		textReplies: []string{"rfp_document"},
		toolReplies: []string{`{"events":[{"event_type":"submission_deadline","event_name":"Proposal submission deadline","date":"2026-04-01"}]}`},
	}
	logger := common.GetLogger()
	p := New(common.NewDefaultConfig(), Services{
		Storage:      manager,
		Blob:         blob,
		LLM:          llm,
		Parsers:      parsers.NewDispatcherWithParsers(logger, parsers.NewDocxParser(logger)),
		Classifier:   classifier.NewService(llm, logger),
		Requirements: extraction.NewRequirementExtractor(llm, extraction.NewDeduper(failEmbedder{}, 0.95, logger), chunker.New(4000, 200), logger),
		Schedule:     extraction.NewScheduleExtractor(llm, logger),
		WinPlan:      artifacts.NewWinPlanBuilder(logger),
		RFIPDF:       artifacts.NewRFIPDFBuilder("", logger),
	}, logger)

	p.Run(ctx, "p1")

	project, err := manager.ProjectStorage().GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatusCompleted, project.ProcessingStatus)
	assert.Contains(t, project.ProcessingMessage, "Generated 2 artifacts")

	events, err := manager.ScheduleStorage().GetEventsByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.EventSubmissionDeadline, events[0].EventType)
	require.NotNil(t, events[0].EventDate)
	assert.Equal(t, "2026-04-01", events[0].EventDate.Format("2006-01-02"))

	docs, err := manager.DocumentStorage().GetDocumentsByProject(ctx, "p1")
	require.NoError(t, err)
	published := make(map[string]*models.Document)
	for _, doc := range docs {
		if doc.DocCategory == models.CategoryGeneratedOutput {
			published[doc.Filename] = doc
		}
	}
	require.Len(t, published, 2)
	require.Contains(t, published, "Win_Plan.docx")
	require.Contains(t, published, "RFI_Response.pdf")
	assert.Equal(t, models.FileTypeDOCX, published["Win_Plan.docx"].FileType)
	assert.Equal(t, models.FileTypePDF, published["RFI_Response.pdf"].FileType)
	for _, doc := range published {
		assert.Equal(t, models.DocumentStatusCompleted, doc.Status)
		exists, err := blob.Exists(ctx, doc.StorageKey)
		require.NoError(t, err)
		assert.True(t, exists, doc.StorageKey)
	}

	// The source document carries the classified category and stays
	// parsed after the failed requirement pass.
	source, err := manager.DocumentStorage().GetDocument(ctx, "d1")
	require.NoError(t, err)
	assert.Equal(t, models.CategoryRFPDocument, source.DocCategory)
	assert.Equal(t, models.DocumentStatusParsed, source.Status)
	assert.Contains(t, source.ParsedText, "submission deadline")
}

func TestRunRerunReplacesScheduleRows(t *testing.T) {
	ctx := context.Background()
	manager := newTestStorage(t)
	blob := newMemBlob()

	require.NoError(t, manager.ProjectStorage().SaveProject(ctx, &models.Project{
		ID:         "p1",
		Name:       "GRC Platform RFP",
		ClientName: "Acme Bank",
	}))
	const uploadKey = "projects/p1/uploads/u1/RFP.docx"
	require.NoError(t, blob.Put(ctx, uploadKey, rfpDocxBytes(t), ""))
	require.NoError(t, manager.DocumentStorage().SaveDocument(ctx, &models.Document{
		ID:         "d1",
		ProjectID:  "p1",
		Filename:   "RFP.docx",
		StorageKey: uploadKey,
		FileType:   models.FileTypeDOCX,
		Status:     models.DocumentStatusUploaded,
	}))

	logger := common.GetLogger()
	services := func(llm interfaces.LLMService) Services {
		return Services{
			Storage:      manager,
			Blob:         blob,
			LLM:          llm,
			Parsers:      parsers.NewDispatcherWithParsers(logger, parsers.NewDocxParser(logger)),
			Classifier:   classifier.NewService(llm, logger),
			Requirements: extraction.NewRequirementExtractor(llm, extraction.NewDeduper(failEmbedder{}, 0.95, logger), chunker.New(4000, 200), logger),
			Schedule:     extraction.NewScheduleExtractor(llm, logger),
			WinPlan:      artifacts.NewWinPlanBuilder(logger),
			RFIPDF:       artifacts.NewRFIPDFBuilder("", logger),
		}
	}

	first := &toolLLM{
		textReplies: []string{"rfp_document"},
		toolReplies: []string{`{"events":[{"event_type":"submission_deadline","event_name":"Proposal submission deadline","date":"2026-04-01"}]}`},
	}
	New(common.NewDefaultConfig(), services(first), logger).Run(ctx, "p1")

	// The document keeps its category, so the rerun consumes no
	// classification reply.
	second := &toolLLM{
		toolReplies: []string{`{"events":[{"event_type":"submission_deadline","event_name":"Revised submission deadline","date":"2026-05-15"}]}`},
	}
	New(common.NewDefaultConfig(), services(second), logger).Run(ctx, "p1")

	project, err := manager.ProjectStorage().GetProject(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, models.ProcessingStatusCompleted, project.ProcessingStatus)

	// The rerun's events replace the first run's rather than piling up.
	events, err := manager.ScheduleStorage().GetEventsByProject(ctx, "p1")
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "Revised submission deadline", events[0].EventName)
	require.NotNil(t, events[0].EventDate)
	assert.Equal(t, "2026-05-15", events[0].EventDate.Format("2006-01-02"))

	// Artifacts version: each run publishes under fresh keys.
	docs, err := manager.DocumentStorage().GetDocumentsByProject(ctx, "p1")
	require.NoError(t, err)
	generated := 0
	for _, doc := range docs {
		if doc.DocCategory == models.CategoryGeneratedOutput {
			generated++
		}
	}
	assert.Equal(t, 4, generated)
}

func TestPublishRollsBackOnUploadFailure(t *testing.T) {
	blob := newMemBlob()
	blob.failPutAfter = 1
	outputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "Answered_Q.xlsx"), []byte("xlsx"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "RFI_Response.pdf"), []byte("pdf"), 0o644))

	p := New(common.NewDefaultConfig(), Services{Blob: blob}, common.GetLogger())
	_, err := p.publish(context.Background(), "p1", outputDir)
	require.Error(t, err)

	assert.Empty(t, blob.objects, "uploaded artifact must be rolled back")
	assert.Len(t, blob.deleted, 1)
}

// failingDocStorage rejects the atomic insert while delegating
// everything else.
type failingDocStorage struct {
	interfaces.DocumentStorage
}

func (f *failingDocStorage) SaveDocumentsAtomic(ctx context.Context, docs []*models.Document) error {
	return errors.New("transaction aborted")
}

type failingDocManager struct {
	interfaces.StorageManager
	docs interfaces.DocumentStorage
}

func (m *failingDocManager) DocumentStorage() interfaces.DocumentStorage { return m.docs }

func TestPublishRollsBackOnStorageFailure(t *testing.T) {
	manager := newTestStorage(t)
	blob := newMemBlob()
	outputDir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outputDir, "Answered_Q.xlsx"), []byte("xlsx"), 0o644))

	storage := &failingDocManager{
		StorageManager: manager,
		docs:           &failingDocStorage{DocumentStorage: manager.DocumentStorage()},
	}
	p := New(common.NewDefaultConfig(), Services{Storage: storage, Blob: blob}, common.GetLogger())

	_, err := p.publish(context.Background(), "p1", outputDir)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "artifact publication failed")
	assert.Empty(t, blob.objects)
}
