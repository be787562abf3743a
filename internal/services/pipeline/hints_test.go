package pipeline

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseHintsQuotedSheet(t *testing.T) {
	hints := ParseHints(`Please focus on tab: "D. Functional Requirements" for answers.`)
	assert.Equal(t, []string{"D. Functional Requirements"}, hints.SheetNames)
}

func TestParseHintsBareSheetAndClient(t *testing.T) {
	hints := ParseHints("Worksheet: Security Questionnaire\nClient: Acme Corp\n")
	assert.Equal(t, []string{"Security Questionnaire"}, hints.SheetNames)
	assert.Equal(t, "Acme Corp", hints.ClientName)
}

func TestParseHintsRequiresSeparator(t *testing.T) {
	// Prose mentioning a tab without a separator is not a hint.
	hints := ParseHints("The workbook has a tab the vendor should review carefully.")
	assert.Empty(t, hints.SheetNames)
}

func TestParseHintsDedupesCaseInsensitive(t *testing.T) {
	hints := ParseHints("Tab: Pricing\nSheet: pricing\n")
	assert.Equal(t, []string{"Pricing"}, hints.SheetNames)
}

func TestParseHintsEmpty(t *testing.T) {
	hints := ParseHints("   ")
	assert.Empty(t, hints.SheetNames)
	assert.Empty(t, hints.ClientName)
}

func TestMatchSheetsExactAndSubstring(t *testing.T) {
	detected := []string{"D. Functional Requirements", "Pricing", "Instructions"}

	assert.Equal(t, []string{"Pricing"}, MatchSheets(detected, []string{"pricing"}))
	assert.Equal(t, []string{"D. Functional Requirements"}, MatchSheets(detected, []string{"functional requirements"}))
}

func TestMatchSheetsNoHintsKeepsAll(t *testing.T) {
	detected := []string{"A", "B"}
	assert.Equal(t, detected, MatchSheets(detected, nil))
}

func TestMatchSheetsNoMatchKeepsAll(t *testing.T) {
	detected := []string{"A", "B"}
	assert.Equal(t, detected, MatchSheets(detected, []string{"zzz"}))
}

func TestStripFences(t *testing.T) {
	cases := []struct {
		name  string
		in    string
		wantw string
	}{
		{"plain", `[{"row":1}]`, `[{"row":1}]`},
		{"fenced", "```json\n[{\"row\":1}]\n```", `[{"row":1}]`},
		{"fence no language", "```\n[{\"row\":1}]\n```", `[{"row":1}]`},
		{"trailing prose", "```json\n[{\"row\":1}]\n```\nHope this helps!", `[{"row":1}]`},
		{"whitespace", "  \n[{\"row\":1}]\n ", `[{"row":1}]`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.wantw, stripFences(tc.in))
		})
	}
}
