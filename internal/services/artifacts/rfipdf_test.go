package artifacts

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/respondeo/internal/common"
	"github.com/ternarybob/respondeo/internal/models"
)

func rfiFixture() *models.RFIDocData {
	return &models.RFIDocData{
		Title:        "RFI Response: Transport RFP",
		ClientName:   "Department of Transport",
		CompanyName:  "IBM",
		SolutionName: "OpenPages with Watson",
		Sections: []models.RFISection{
			{Title: "Executive Summary", Body: "We are pleased to respond.\n\n- Proven platform\n- Rapid delivery"},
			{Title: "Compliance Summary", Body: "Overall compliance score: 87%."},
		},
		RevisionHistory: []models.RFIRevision{
			{Version: "1.0", Date: "2026-08-25", Author: "IBM", Summary: "Initial draft response"},
		},
		Copyright:   "(c) 2026 IBM. All rights reserved.",
		GeneratedAt: time.Date(2026, 8, 25, 10, 0, 0, 0, time.UTC),
	}
}

func TestRFIPDFBuildProducesValidDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "RFI_Response.pdf")
	b := NewRFIPDFBuilder("", common.GetLogger())

	// Build validates the output itself; a second count confirms the
	// fixed page plan: cover, revisions, contents, two sections.
	require.NoError(t, b.Build(rfiFixture(), path))

	pageCount, err := api.PageCountFile(path)
	require.NoError(t, err)
	assert.Equal(t, 5, pageCount)
}

func TestRFIPDFBuildWithoutRevisions(t *testing.T) {
	data := rfiFixture()
	data.RevisionHistory = nil

	path := filepath.Join(t.TempDir(), "RFI_Response.pdf")
	b := NewRFIPDFBuilder("", common.GetLogger())
	require.NoError(t, b.Build(data, path))

	pageCount, err := api.PageCountFile(path)
	require.NoError(t, err)
	assert.Equal(t, 4, pageCount)
}

func TestRFIPDFBuildIsDeterministicPerInput(t *testing.T) {
	dir := t.TempDir()
	b := NewRFIPDFBuilder("", common.GetLogger())

	first := filepath.Join(dir, "a.pdf")
	second := filepath.Join(dir, "b.pdf")
	require.NoError(t, b.Build(rfiFixture(), first))
	require.NoError(t, b.Build(rfiFixture(), second))

	firstCount, err := api.PageCountFile(first)
	require.NoError(t, err)
	secondCount, err := api.PageCountFile(second)
	require.NoError(t, err)
	assert.Equal(t, firstCount, secondCount)
}
