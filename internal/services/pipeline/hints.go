package pipeline

import (
	"regexp"
	"strings"
)

const maxSheetHintLen = 60

// Hints are the optional steering values parsed out of a project's
// free-text upload context. Only high-confidence matches are kept;
// ambiguous text is silently ignored.
type Hints struct {
	SheetNames []string
	ClientName string
}

// Sheet hints require an explicit separator after the keyword so prose
// mentioning "tab" does not become a hint. Quoted values end at the
// closing quote; bare values end at the line.
var (
	quotedSheetPattern = regexp.MustCompile(`(?i)\b(?:tab|sheet|worksheet)s?\s*[:\-]\s*"([^"\n]{1,60})"`)
	bareSheetPattern   = regexp.MustCompile(`(?i)\b(?:tab|sheet|worksheet)s?\s*[:\-]\s*([^\n",]{1,60})`)
	clientPattern      = regexp.MustCompile(`(?i)\b(?:client|customer|buyer)\s*[:\-]\s*"?([A-Za-z0-9][A-Za-z0-9 .&'\-]{1,60})"?`)
)

// ParseHints extracts sheet-name and client-name hints from upload
// context text.
func ParseHints(uploadContext string) Hints {
	var hints Hints
	if strings.TrimSpace(uploadContext) == "" {
		return hints
	}

	seen := make(map[string]bool)
	add := func(name string) {
		name = strings.TrimSpace(name)
		if name == "" || len(name) > maxSheetHintLen {
			return
		}
		key := strings.ToLower(name)
		if !seen[key] {
			seen[key] = true
			hints.SheetNames = append(hints.SheetNames, name)
		}
	}

	for _, m := range quotedSheetPattern.FindAllStringSubmatch(uploadContext, -1) {
		add(m[1])
	}
	stripped := quotedSheetPattern.ReplaceAllString(uploadContext, "")
	for _, m := range bareSheetPattern.FindAllStringSubmatch(stripped, -1) {
		add(m[1])
	}

	if m := clientPattern.FindStringSubmatch(uploadContext); m != nil {
		hints.ClientName = strings.TrimSpace(m[1])
	}

	return hints
}

// MatchSheets intersects hinted names with detected sheet names using
// case-insensitive equality then substring containment. When no hint
// matches anything, every detected sheet is kept.
func MatchSheets(detected []string, hints []string) []string {
	if len(hints) == 0 {
		return detected
	}

	var matched []string
	for _, sheet := range detected {
		lowerSheet := strings.ToLower(sheet)
		for _, hint := range hints {
			lowerHint := strings.ToLower(hint)
			if lowerSheet == lowerHint || strings.Contains(lowerSheet, lowerHint) || strings.Contains(lowerHint, lowerSheet) {
				matched = append(matched, sheet)
				break
			}
		}
	}
	if len(matched) == 0 {
		return detected
	}
	return matched
}
