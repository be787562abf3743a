package models

import "time"

// FileType identifies the parseable upload formats.
type FileType string

const (
	FileTypePDF    FileType = "pdf"
	FileTypeDOCX   FileType = "docx"
	FileTypeXLSX   FileType = "xlsx"
	FileTypeCSV    FileType = "csv"
	FileTypePPTX   FileType = "pptx"
	FileTypeGSheet FileType = "gsheet"
)

// DocumentCategory is the closed classification set for uploads plus the
// reserved label for pipeline outputs.
type DocumentCategory string

const (
	CategoryRFPDocument        DocumentCategory = "rfp_document"
	CategoryCommercialTerms    DocumentCategory = "commercial_terms"
	CategoryTechRequirements   DocumentCategory = "tech_requirements"
	CategoryPricingSheet       DocumentCategory = "pricing_sheet"
	CategoryLegalAppendix      DocumentCategory = "legal_appendix"
	CategoryEvaluationCriteria DocumentCategory = "evaluation_criteria"
	CategoryGeneratedOutput    DocumentCategory = "generated_output"
)

// DocumentStatus advances monotonically; failed is terminal until retried.
type DocumentStatus string

const (
	DocumentStatusUploaded  DocumentStatus = "uploaded"
	DocumentStatusParsing   DocumentStatus = "parsing"
	DocumentStatusParsed    DocumentStatus = "parsed"
	DocumentStatusExtracted DocumentStatus = "extracted"
	DocumentStatusCompleted DocumentStatus = "completed"
	DocumentStatusFailed    DocumentStatus = "failed"
)

// Document is an uploaded or generated file belonging to a project. Bytes
// live in the blob store under StorageKey; only metadata is persisted here.
type Document struct {
	ID           string           `json:"id" badgerhold:"key"`
	ProjectID    string           `json:"project_id" badgerhold:"index"`
	Filename     string           `json:"filename"`
	StorageKey   string           `json:"storage_key"`
	FileType     FileType         `json:"file_type"`
	SizeBytes    int64            `json:"size_bytes"`
	DocCategory  DocumentCategory `json:"doc_category,omitempty"`
	ParsedText   string           `json:"parsed_text,omitempty"`
	PageCount    int              `json:"page_count,omitempty"`
	WasOCR       bool             `json:"was_ocr,omitempty"`
	Status       DocumentStatus   `json:"status"`
	ErrorMessage string           `json:"error_message,omitempty"`
	UploadedBy   string           `json:"uploaded_by,omitempty"`
	CreatedAt    time.Time        `json:"created_at"`
	UpdatedAt    time.Time        `json:"updated_at"`
}

// FileTypeFromFilename maps a filename extension to a FileType. The second
// return is false for unsupported extensions.
func FileTypeFromFilename(name string) (FileType, bool) {
	dot := -1
	for i := len(name) - 1; i >= 0; i-- {
		if name[i] == '.' {
			dot = i
			break
		}
	}
	if dot < 0 {
		return "", false
	}
	switch lower(name[dot+1:]) {
	case "pdf":
		return FileTypePDF, true
	case "docx", "doc":
		return FileTypeDOCX, true
	case "xlsx", "xlsm", "xls":
		return FileTypeXLSX, true
	case "csv":
		return FileTypeCSV, true
	case "pptx", "ppt":
		return FileTypePPTX, true
	case "gsheet":
		return FileTypeGSheet, true
	}
	return "", false
}

func lower(s string) string {
	b := []byte(s)
	for i, c := range b {
		if c >= 'A' && c <= 'Z' {
			b[i] = c + 32
		}
	}
	return string(b)
}
