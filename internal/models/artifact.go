package models

import "time"

// WinPlanData is the pure data contract consumed by the Win-Plan DOCX
// builder. It carries no storage or network handles.
type WinPlanData struct {
	ProjectName      string          `json:"project_name"`
	ClientName       string          `json:"client_name"`
	SolutionName     string          `json:"solution_name"`
	Events           []ScheduleEvent `json:"events"`
	SolutionOverview string          `json:"solution_overview"`
	Differentiators  []string        `json:"differentiators,omitempty"`
	WinThemes        []string        `json:"win_themes,omitempty"`
	RiskAreas        []string        `json:"risk_areas,omitempty"`
	GeneratedAt      time.Time       `json:"generated_at"`
}

// RFIRevision is one row of the revision history table in the RFI PDF.
type RFIRevision struct {
	Version string `json:"version"`
	Date    string `json:"date"`
	Author  string `json:"author"`
	Summary string `json:"summary"`
}

// RFISection is one titled body section of the RFI response PDF.
// Body is markdown; the builder renders headings, paragraphs and bullets.
type RFISection struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}

// RFIDocData is the pure data contract consumed by the RFI PDF builder.
type RFIDocData struct {
	Title           string        `json:"title"`
	ClientName      string        `json:"client_name"`
	CompanyName     string        `json:"company_name"`
	SolutionName    string        `json:"solution_name"`
	Sections        []RFISection  `json:"sections"`
	RevisionHistory []RFIRevision `json:"revision_history,omitempty"`
	Copyright       string        `json:"copyright,omitempty"`
	GeneratedAt     time.Time     `json:"generated_at"`
}
