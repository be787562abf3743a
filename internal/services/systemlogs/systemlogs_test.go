package systemlogs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/respondeo/internal/common"
)

const sampleLog = `10:01:02 INF > Application initialized
10:01:03 DBG > HTTP request
10:01:04 ERR > Pipeline failed for project p1
garbage line without structure
10:01:05 WRN > Retrying upload
`

func writeLog(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0644))
}

func TestListReturnsLogFilesOnly(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "respondeo.log", sampleLog)
	writeLog(t, dir, "notes.txt", "not a log")

	svc := NewService(dir, common.GetLogger())
	files, err := svc.List()
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "respondeo.log", files[0].Name)
	assert.Greater(t, files[0].Size, int64(0))
}

func TestListMissingDirIsEmpty(t *testing.T) {
	svc := NewService(filepath.Join(t.TempDir(), "nope"), common.GetLogger())
	files, err := svc.List()
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestTailParsesAndFilters(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "respondeo.log", sampleLog)
	svc := NewService(dir, common.GetLogger())

	entries, err := svc.Tail("respondeo.log", 0, "")
	require.NoError(t, err)
	require.Len(t, entries, 5)
	assert.Equal(t, "Application initialized", entries[0].Message)
	assert.Equal(t, "INF", entries[0].Level)
	// Unstructured lines come back whole with the default level.
	assert.Equal(t, "garbage line without structure", entries[3].Message)
	assert.Equal(t, "INF", entries[3].Level)

	errs, err := svc.Tail("respondeo.log", 0, "error")
	require.NoError(t, err)
	require.Len(t, errs, 1)
	assert.Equal(t, "Pipeline failed for project p1", errs[0].Message)
}

func TestTailLimitTakesLastEntries(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "respondeo.log", sampleLog)
	svc := NewService(dir, common.GetLogger())

	entries, err := svc.Tail("respondeo.log", 2, "")
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "Retrying upload", entries[1].Message)
}

func TestTailMissingFile(t *testing.T) {
	svc := NewService(t.TempDir(), common.GetLogger())
	_, err := svc.Tail("missing.log", 10, "")
	require.Error(t, err)
	assert.True(t, common.IsKind(err, common.KindNotFound))
}

func TestTailStripsPathTraversal(t *testing.T) {
	dir := t.TempDir()
	writeLog(t, dir, "respondeo.log", sampleLog)
	svc := NewService(dir, common.GetLogger())

	entries, err := svc.Tail("../../etc/respondeo.log", 0, "")
	require.NoError(t, err)
	assert.Len(t, entries, 5)
}

func TestNormalizeLevel(t *testing.T) {
	assert.Equal(t, "ERR", normalizeLevel("error"))
	assert.Equal(t, "WRN", normalizeLevel("WARNING"))
	assert.Equal(t, "DBG", normalizeLevel("dbg"))
	assert.Equal(t, "", normalizeLevel(""))
	assert.Equal(t, "INF", normalizeLevel("anything else"))
}
