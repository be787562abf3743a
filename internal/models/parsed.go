package models

// Table is a row-major grid extracted from a document. Empty cells are
// empty strings, never absent, so downstream equality stays clean.
type Table struct {
	Page int        `json:"page,omitempty"`
	Name string     `json:"name,omitempty"`
	Rows [][]string `json:"rows"`
}

// Section is a heading-delimited slice of a word-processor document.
type Section struct {
	Heading string `json:"heading"`
	Level   int    `json:"level"`
	Content string `json:"content"`
}

// ParsedDoc is the common output shape of every format parser.
type ParsedDoc struct {
	Text      string            `json:"text"`
	PageCount int               `json:"page_count"`
	Metadata  map[string]string `json:"metadata,omitempty"`
	Tables    []Table           `json:"tables,omitempty"`
	Sections  []Section         `json:"sections,omitempty"`
	WasOCR    bool              `json:"was_ocr"`
}

// Chunk is a contiguous substring of parsed text sized for an LLM
// context budget. StartChar/EndChar index into the source text.
type Chunk struct {
	Text       string `json:"text"`
	StartChar  int    `json:"start_char"`
	EndChar    int    `json:"end_char"`
	ChunkIndex int    `json:"chunk_index"`
}
