package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ternarybob/arbor"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/interfaces"
	"github.com/ternarybob/respondeo/internal/models"
	"github.com/ternarybob/respondeo/internal/services/artifacts"
	"github.com/ternarybob/respondeo/internal/services/classifier"
	"github.com/ternarybob/respondeo/internal/services/extraction"
	"github.com/ternarybob/respondeo/internal/services/parsers"
	"github.com/ternarybob/respondeo/internal/services/responses"
	"github.com/ternarybob/respondeo/internal/services/sheets"
)

// Services are the collaborators the pipeline drives. Injected as a
// struct so tests can substitute fakes per concern.
type Services struct {
	Storage      interfaces.StorageManager
	Blob         interfaces.BlobService
	LLM          interfaces.LLMService
	Parsers      *parsers.Dispatcher
	Classifier   *classifier.Service
	Requirements *extraction.RequirementExtractor
	Schedule     *extraction.ScheduleExtractor
	Pricing      *extraction.PricingExtractor
	Detector     *sheets.Detector
	Questions    *sheets.Extractor
	Writer       *sheets.Writer
	Generator    *responses.Generator
	Planner      *responses.Planner
	WinPlan      *artifacts.WinPlanBuilder
	RFIPDF       *artifacts.RFIPDFBuilder
}

// Pipeline is the per-project generation orchestrator: it turns a
// project's uploaded documents into published artifacts through a fixed
// stage sequence, writing processing status at every stage boundary.
type Pipeline struct {
	config          *common.Config
	svc             Services
	stageTimeout    time.Duration
	scheduleTimeout time.Duration
	logger          arbor.ILogger
}

func New(config *common.Config, svc Services, logger arbor.ILogger) *Pipeline {
	stageTimeout := parseTimeout(config.Pipeline.StageTimeout, 120*time.Second)
	scheduleTimeout := parseTimeout(config.Pipeline.ScheduleStageTimeout, 180*time.Second)
	return &Pipeline{
		config:          config,
		svc:             svc,
		stageTimeout:    stageTimeout,
		scheduleTimeout: scheduleTimeout,
		logger:          logger,
	}
}

func parseTimeout(value string, fallback time.Duration) time.Duration {
	if d, err := time.ParseDuration(value); err == nil && d > 0 {
		return d
	}
	return fallback
}

// localDoc is one downloaded document with its workspace path and
// parse result.
type localDoc struct {
	doc    *models.Document
	path   string
	parsed *models.ParsedDoc
}

// Run executes the full pipeline for a project. The caller must have
// flipped processing_status to processing already; Run owns the
// terminal transition to completed or failed.
func (p *Pipeline) Run(ctx context.Context, projectID string) {
	p.logger.Info().Str("project_id", projectID).Msg("Generation pipeline started")

	artifactCount, err := p.run(ctx, projectID)
	if err != nil {
		p.logger.Error().Err(err).Str("project_id", projectID).Msg("Generation pipeline failed")
		p.setStatus(projectID, models.ProcessingStatusFailed, err.Error())
		return
	}

	p.setStatus(projectID, models.ProcessingStatusCompleted, fmt.Sprintf("Generated %d artifacts", artifactCount))
	p.logger.Info().Str("project_id", projectID).Int("artifacts", artifactCount).Msg("Generation pipeline completed")
}

func (p *Pipeline) run(ctx context.Context, projectID string) (int, error) {
	project, err := p.svc.Storage.ProjectStorage().GetProject(ctx, projectID)
	if err != nil {
		return 0, common.Errorf(common.KindNotFound, "project %s not found", projectID)
	}

	docs, err := p.sourceDocuments(ctx, projectID)
	if err != nil {
		return 0, err
	}
	if len(docs) == 0 {
		return 0, common.Errorf(common.KindInvalidInput, "No documents uploaded for project %s", projectID)
	}

	hints := ParseHints(project.UploadContext)
	clientName := hints.ClientName
	if clientName == "" {
		clientName = project.ClientName
	}
	if clientName == "" {
		clientName = project.Name
	}

	workspace, err := os.MkdirTemp("", "respondeo-pipeline-*")
	if err != nil {
		return 0, common.Errorf(common.KindFatal, "failed to create workspace: %v", err)
	}
	defer os.RemoveAll(workspace)
	outputDir := filepath.Join(workspace, "output")
	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return 0, common.Errorf(common.KindFatal, "failed to create output dir: %v", err)
	}

	p.setStatus(projectID, models.ProcessingStatusProcessing, "Downloading and parsing documents")
	textDocs, sheetDocs := p.fetchAndParse(ctx, workspace, docs)
	if len(textDocs) == 0 && len(sheetDocs) == 0 {
		return 0, common.Errorf(common.KindInvalidInput, "No documents could be fetched for project %s", projectID)
	}

	events := p.scheduleStage(ctx, project, clientName, textDocs, outputDir)

	requirements := p.requirementStage(ctx, project, textDocs)
	p.pricingStage(ctx, project, textDocs)

	var score *models.ComplianceScore
	if len(requirements) > 0 {
		p.setStatus(projectID, models.ProcessingStatusProcessing, fmt.Sprintf("Generating responses for %d requirements", len(requirements)))
		score = p.responseStage(ctx, project, requirements, events)
	}

	if len(sheetDocs) > 0 {
		p.setStatus(projectID, models.ProcessingStatusProcessing, "Answering questionnaire spreadsheets")
		p.answerSpreadsheets(ctx, project, sheetDocs, hints, outputDir)
	}

	if len(textDocs) > 0 || len(events) > 0 {
		p.setStatus(projectID, models.ProcessingStatusProcessing, "Rendering RFI response document")
		p.rfiStage(project, clientName, events, score, outputDir)
	}

	p.setStatus(projectID, models.ProcessingStatusProcessing, "Publishing artifacts")
	return p.publish(ctx, projectID, outputDir)
}

// sourceDocuments lists the project's uploads, excluding artifacts from
// earlier runs.
func (p *Pipeline) sourceDocuments(ctx context.Context, projectID string) ([]*models.Document, error) {
	all, err := p.svc.Storage.DocumentStorage().GetDocumentsByProject(ctx, projectID)
	if err != nil {
		return nil, common.Errorf(common.KindFatal, "failed to list documents: %v", err)
	}
	var docs []*models.Document
	for _, doc := range all {
		if doc.DocCategory != models.CategoryGeneratedOutput {
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// fetchAndParse downloads each document, parses and classifies the
// text-bearing formats, and buckets files for the later branches.
// Unfetchable documents are skipped, not fatal.
func (p *Pipeline) fetchAndParse(ctx context.Context, workspace string, docs []*models.Document) (textDocs, sheetDocs []*localDoc) {
	for _, doc := range docs {
		data, err := p.svc.Blob.Get(ctx, doc.StorageKey)
		if err != nil {
			p.logger.Warn().Err(err).Str("document_id", doc.ID).Str("filename", doc.Filename).Msg("Skipping unfetchable document")
			continue
		}
		path := filepath.Join(workspace, doc.Filename)
		if err := os.WriteFile(path, data, 0o644); err != nil {
			p.logger.Warn().Err(err).Str("filename", doc.Filename).Msg("Skipping unwritable document")
			continue
		}

		local := &localDoc{doc: doc, path: path}
		switch doc.FileType {
		case models.FileTypeXLSX:
			sheetDocs = append(sheetDocs, local)
		case models.FileTypePDF, models.FileTypeDOCX:
			p.parseAndClassify(ctx, local, data)
			textDocs = append(textDocs, local)
		default:
			p.parseAndClassify(ctx, local, data)
		}
	}
	return textDocs, sheetDocs
}

func (p *Pipeline) parseAndClassify(ctx context.Context, local *localDoc, data []byte) {
	doc := local.doc
	doc.Status = models.DocumentStatusParsing
	p.saveDocument(ctx, doc)

	parsed, err := p.svc.Parsers.Parse(ctx, data, doc.Filename)
	if err != nil {
		p.logger.Warn().Err(err).Str("filename", doc.Filename).Msg("Document parse failed")
		doc.Status = models.DocumentStatusFailed
		doc.ErrorMessage = truncate(err.Error(), 500)
		p.saveDocument(ctx, doc)
		return
	}
	local.parsed = parsed

	doc.ParsedText = parsed.Text
	doc.PageCount = parsed.PageCount
	doc.WasOCR = parsed.WasOCR
	doc.Status = models.DocumentStatusParsed
	if doc.DocCategory == "" {
		doc.DocCategory = p.svc.Classifier.Classify(ctx, parsed.Text, doc.Filename, len(parsed.Tables) > 0)
	}
	p.saveDocument(ctx, doc)
}

// scheduleStage extracts the procurement timeline from the first
// text-bearing document and renders the Win-Plan when events exist.
// Timeouts and extraction failures skip the stage.
func (p *Pipeline) scheduleStage(ctx context.Context, project *models.Project, clientName string, textDocs []*localDoc, outputDir string) []*models.ScheduleEvent {
	source := firstParsed(textDocs)
	if source == nil {
		return nil
	}

	p.setStatus(project.ID, models.ProcessingStatusProcessing, "Extracting procurement schedule")
	stageCtx, cancel := context.WithTimeout(ctx, p.scheduleTimeout)
	defer cancel()

	events, err := p.svc.Schedule.Extract(stageCtx, project.ID, source.parsed.Text)
	if err != nil {
		p.logStageSkip("schedule extraction", err)
		return nil
	}
	if len(events) == 0 {
		p.logger.Info().Str("project_id", project.ID).Msg("No schedule events found, skipping win plan")
		return nil
	}
	// A rerun replaces the prior run's events.
	if err := p.svc.Storage.ScheduleStorage().DeleteEventsByProject(ctx, project.ID); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to clear prior schedule events")
	}
	if err := p.svc.Storage.ScheduleStorage().SaveEvents(ctx, events); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to persist schedule events")
	}

	data := &models.WinPlanData{
		ProjectName:      project.Name,
		ClientName:       clientName,
		SolutionName:     p.config.Proposal.SolutionName,
		Events:           derefEvents(events),
		SolutionOverview: p.solutionOverview(),
		WinThemes:        p.config.Proposal.WinThemes,
		Differentiators:  p.config.Proposal.Differentiators,
		RiskAreas:        p.config.Proposal.RiskAreas,
		GeneratedAt:      time.Now().UTC(),
	}
	if err := p.svc.WinPlan.Build(data, filepath.Join(outputDir, "Win_Plan.docx")); err != nil {
		p.logStageSkip("win plan rendering", err)
	}
	return events
}

// requirementStage extracts requirements from every text-bearing
// document, renumbers the merged set densely per type, and persists it.
func (p *Pipeline) requirementStage(ctx context.Context, project *models.Project, textDocs []*localDoc) []*models.Requirement {
	var merged []*models.Requirement
	for _, local := range textDocs {
		if local.parsed == nil {
			continue
		}
		stageCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
		reqs, err := p.svc.Requirements.Extract(stageCtx, project.ID, local.doc.ID, local.parsed.Text)
		cancel()
		if err != nil {
			p.logStageSkip("requirement extraction for "+local.doc.Filename, err)
			continue
		}
		merged = append(merged, reqs...)
		local.doc.Status = models.DocumentStatusExtracted
		p.saveDocument(ctx, local.doc)
	}
	if len(merged) == 0 {
		return nil
	}

	// A rerun replaces the prior extraction; req_number sequences
	// restart dense at 1. Responses hang off the replaced rows and go
	// with them.
	if err := p.svc.Storage.ResponseStorage().DeleteResponsesByProject(ctx, project.ID); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to clear prior responses")
	}
	if err := p.svc.Storage.RequirementStorage().DeleteRequirementsByProject(ctx, project.ID); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to clear prior requirements")
	}

	extraction.Renumber(merged)
	if err := p.svc.Storage.RequirementStorage().SaveRequirements(ctx, merged); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to persist requirements")
	}
	return merged
}

// pricingStage runs pricing structure extraction over documents the
// classifier marked commercial. The first save of a run clears the
// prior run's items.
func (p *Pipeline) pricingStage(ctx context.Context, project *models.Project, textDocs []*localDoc) {
	cleared := false
	for _, local := range textDocs {
		if local.parsed == nil {
			continue
		}
		category := local.doc.DocCategory
		if category != models.CategoryPricingSheet && category != models.CategoryCommercialTerms {
			continue
		}
		stageCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
		structure, err := p.svc.Pricing.Extract(stageCtx, project.ID, local.parsed.Text)
		cancel()
		if err != nil {
			p.logStageSkip("pricing extraction for "+local.doc.Filename, err)
			continue
		}
		if structure.HasTemplate && len(structure.Items) > 0 {
			if !cleared {
				if err := p.svc.Storage.PricingStorage().DeleteItemsByProject(ctx, project.ID); err != nil {
					p.logger.Warn().Err(err).Msg("Failed to clear prior pricing items")
				}
				cleared = true
			}
			if err := p.svc.Storage.PricingStorage().SaveItems(ctx, structure.Items); err != nil {
				p.logger.Warn().Err(err).Msg("Failed to persist pricing items")
			}
		}
	}
}

// responseStage drafts grounded responses, persists them, scores
// compliance, and synthesizes the response plan.
func (p *Pipeline) responseStage(ctx context.Context, project *models.Project, requirements []*models.Requirement, events []*models.ScheduleEvent) *models.ComplianceScore {
	generated := p.svc.Generator.GenerateBatch(ctx, requirements, "")
	if err := p.svc.Storage.ResponseStorage().SaveResponses(ctx, generated); err != nil {
		p.logger.Warn().Err(err).Msg("Failed to persist responses")
	}

	score := responses.Score(requirements, generated)
	p.logger.Info().
		Float64("overall_score", score.OverallScore).
		Int("responded", score.RespondedCount).
		Msg("Compliance scored")

	stageCtx, cancel := context.WithTimeout(ctx, p.stageTimeout)
	defer cancel()
	if _, err := p.svc.Planner.Generate(stageCtx, project.ID, requirements, events); err != nil {
		p.logStageSkip("response plan generation", err)
	}
	return score
}

// rfiStage renders the branded RFI response PDF from project data.
func (p *Pipeline) rfiStage(project *models.Project, clientName string, events []*models.ScheduleEvent, score *models.ComplianceScore, outputDir string) {
	now := time.Now().UTC()
	data := &models.RFIDocData{
		Title:        fmt.Sprintf("RFI Response: %s", project.Name),
		ClientName:   clientName,
		CompanyName:  p.config.Proposal.CompanyName,
		SolutionName: p.config.Proposal.SolutionName,
		Sections:     p.rfiSections(clientName, events, score),
		RevisionHistory: []models.RFIRevision{
			{Version: "1.0", Date: now.Format("2006-01-02"), Author: p.config.Proposal.CompanyName, Summary: "Initial draft response"},
		},
		Copyright:   fmt.Sprintf("© %d %s. All rights reserved.", now.Year(), p.config.Proposal.CompanyName),
		GeneratedAt: now,
	}
	if err := p.svc.RFIPDF.Build(data, filepath.Join(outputDir, "RFI_Response.pdf")); err != nil {
		p.logStageSkip("RFI PDF rendering", err)
	}
}

func (p *Pipeline) rfiSections(clientName string, events []*models.ScheduleEvent, score *models.ComplianceScore) []models.RFISection {
	sections := []models.RFISection{
		{
			Title: "Executive Summary",
			Body: fmt.Sprintf("%s is pleased to respond to %s with %s. "+
				"This document summarises our proposed solution, compliance position, and delivery schedule.",
				p.config.Proposal.CompanyName, clientName, p.config.Proposal.SolutionName),
		},
	}

	if overview := p.solutionOverview(); overview != "" {
		sections = append(sections, models.RFISection{Title: "Solution Overview", Body: overview})
	}

	if score != nil && score.RespondedCount > 0 {
		var body strings.Builder
		fmt.Fprintf(&body, "Overall compliance score: %.0f%%.\n\n", score.OverallScore)
		for status, count := range score.StatusBreakdown {
			fmt.Fprintf(&body, "- %s: %d\n", status, count)
		}
		sections = append(sections, models.RFISection{Title: "Compliance Summary", Body: body.String()})
	}

	if len(events) > 0 {
		var body strings.Builder
		for _, event := range events {
			date := "date to be confirmed"
			if event.EventDate != nil {
				date = event.EventDate.Format("2 January 2006")
			}
			fmt.Fprintf(&body, "- %s: %s\n", event.EventName, date)
		}
		sections = append(sections, models.RFISection{Title: "Procurement Schedule", Body: body.String()})
	}
	return sections
}

// publish uploads every file in the output directory and records the
// rows in one transaction; any failure deletes the uploaded blobs and
// fails the run.
func (p *Pipeline) publish(ctx context.Context, projectID, outputDir string) (int, error) {
	entries, err := os.ReadDir(outputDir)
	if err != nil {
		return 0, common.Errorf(common.KindFatal, "failed to read output dir: %v", err)
	}

	var uploadedKeys []string
	var rows []*models.Document
	rollback := func() {
		for _, key := range uploadedKeys {
			if err := p.svc.Blob.Delete(ctx, key); err != nil {
				p.logger.Warn().Err(err).Str("key", key).Msg("Failed to roll back uploaded artifact")
			}
		}
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		data, err := os.ReadFile(filepath.Join(outputDir, name))
		if err != nil {
			rollback()
			return 0, common.Errorf(common.KindFatal, "failed to read artifact %s: %v", name, err)
		}

		key := fmt.Sprintf("projects/%s/generated/%s/%s", projectID, common.NewID(), name)
		if err := p.svc.Blob.Put(ctx, key, data, contentTypeFor(name)); err != nil {
			rollback()
			return 0, common.Errorf(common.KindFatal, "failed to upload artifact %s: %v", name, err)
		}
		uploadedKeys = append(uploadedKeys, key)

		fileType, _ := models.FileTypeFromFilename(name)
		rows = append(rows, &models.Document{
			ID:          common.NewDocumentID(),
			ProjectID:   projectID,
			Filename:    name,
			StorageKey:  key,
			FileType:    fileType,
			SizeBytes:   int64(len(data)),
			DocCategory: models.CategoryGeneratedOutput,
			Status:      models.DocumentStatusCompleted,
		})
	}

	if len(rows) > 0 {
		if err := p.svc.Storage.DocumentStorage().SaveDocumentsAtomic(ctx, rows); err != nil {
			rollback()
			return 0, common.Errorf(common.KindFatal, "artifact publication failed: %v", err)
		}
	}
	return len(rows), nil
}

// solutionOverview reads the configured overview markdown; missing file
// yields empty and the section is skipped.
func (p *Pipeline) solutionOverview() string {
	if p.config.Proposal.OverviewFile == "" {
		return ""
	}
	data, err := os.ReadFile(p.config.Proposal.OverviewFile)
	if err != nil {
		p.logger.Debug().Err(err).Str("path", p.config.Proposal.OverviewFile).Msg("Solution overview file not readable")
		return ""
	}
	return string(data)
}

func (p *Pipeline) setStatus(projectID string, status models.ProcessingStatus, message string) {
	if err := p.svc.Storage.ProjectStorage().SetProcessingStatus(context.Background(), projectID, status, message); err != nil {
		p.logger.Error().Err(err).Str("project_id", projectID).Msg("Failed to write processing status")
	}
}

func (p *Pipeline) saveDocument(ctx context.Context, doc *models.Document) {
	if err := p.svc.Storage.DocumentStorage().SaveDocument(ctx, doc); err != nil {
		p.logger.Warn().Err(err).Str("document_id", doc.ID).Msg("Failed to persist document")
	}
}

func (p *Pipeline) logStageSkip(stage string, err error) {
	if errors.Is(err, context.DeadlineExceeded) {
		p.logger.Warn().Str("stage", stage).Msg("Stage timed out, skipping")
		return
	}
	p.logger.Warn().Err(err).Str("stage", stage).Msg("Stage failed, skipping")
}

func firstParsed(docs []*localDoc) *localDoc {
	for _, local := range docs {
		if local.parsed != nil && strings.TrimSpace(local.parsed.Text) != "" {
			return local
		}
	}
	return nil
}

func derefEvents(events []*models.ScheduleEvent) []models.ScheduleEvent {
	out := make([]models.ScheduleEvent, len(events))
	for i, event := range events {
		out[i] = *event
	}
	return out
}

func contentTypeFor(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".pdf":
		return "application/pdf"
	case ".docx":
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case ".xlsx":
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	default:
		return "application/octet-stream"
	}
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max]
}
