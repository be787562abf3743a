package models

// QuestionType classifies how a questionnaire row wants to be answered.
type QuestionType string

const (
	QuestionCompanyInfo QuestionType = "company_info"
	QuestionReference   QuestionType = "reference"
	QuestionBinary      QuestionType = "binary"
	QuestionNarrative   QuestionType = "narrative"
)

// SheetStructure is the detected layout of one questionnaire worksheet.
// Column fields hold letters ("A".."XFD"); empty means not present.
type SheetStructure struct {
	SheetName         string `json:"sheet_name"`
	HeaderRow         int    `json:"header_row"`
	FirstDataRow      int    `json:"first_data_row"`
	IDCol             string `json:"id_col,omitempty"`
	QuestionCol       string `json:"question_col"`
	ResponseCol       string `json:"response_col"`
	ScoreCol          string `json:"score_col,omitempty"`
	AdditionalInfoCol string `json:"additional_info_col,omitempty"`
}

// Answerable reports whether detection found both a question and a
// response column.
func (s SheetStructure) Answerable() bool {
	return s.QuestionCol != "" && s.ResponseCol != ""
}

// SheetQuestion is one extracted questionnaire row.
type SheetQuestion struct {
	SheetName       string       `json:"sheet_name"`
	Row             int          `json:"row"`
	ID              string       `json:"id,omitempty"`
	Category        string       `json:"category,omitempty"`
	Question        string       `json:"question"`
	AdditionalInfo  string       `json:"additional_info,omitempty"`
	QuestionType    QuestionType `json:"question_type"`
	CurrentResponse string       `json:"current_response,omitempty"`
	ResponseCol     string       `json:"response_col_letter"`
	ScoreCol        string       `json:"score_col_letter,omitempty"`
	CurrentScore    string       `json:"current_score,omitempty"`
	ScoreIsFormula  bool         `json:"score_is_formula,omitempty"`
}

// SheetAnswer is one write-back record produced by answer generation.
type SheetAnswer struct {
	SheetName   string `json:"sheet_name"`
	Row         int    `json:"row"`
	ResponseCol string `json:"response_col_letter"`
	Answer      string `json:"answer"`
	Score       string `json:"score,omitempty"`
	ScoreCol    string `json:"score_col_letter,omitempty"`
}

// WriteReport summarizes a write-back pass over one workbook.
type WriteReport struct {
	Written        int `json:"written"`
	Unmerged       int `json:"unmerged"`
	SkippedFormula int `json:"skipped_formula"`
}
