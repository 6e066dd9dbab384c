package utils

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2025, 1, 15, 10, 30, 5, 0, time.UTC)

func newManager(t *testing.T) *FileManager {
	t.Helper()
	root := t.TempDir()
	fm := NewFileManager(filepath.Join(root, "output"), filepath.Join(root, "archive"))
	fm.Now = func() time.Time { return fixedNow }
	require.NoError(t, fm.EnsureDirectories())
	return fm
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestGenerateOutputFileName(t *testing.T) {
	tests := []struct {
		format, ext string
		params      map[string]string
		want        string
	}{
		{"Report_{timestamp}", "xlsx", nil, "Report_20250115_103005.xlsx"},
		{"Report_{date}_{kind}", "html", nil, "Report_20250115_html.html"},
		{"{uuid}", "xml", map[string]string{"uuid": "r-1"}, "r-1.xml"},
		{"Gitajnana_Data.csv", "csv", nil, "Gitajnana_Data.csv"},
		{"DATA.CSV", "csv", nil, "DATA.CSV"},
		{"notes", "", nil, "notes"},
		{"{unknown}", "txt", nil, "{unknown}.txt"},
	}
	for _, tt := range tests {
		t.Run(tt.format, func(t *testing.T) {
			assert.Equal(t, tt.want, GenerateOutputFileName(tt.format, fixedNow, tt.ext, tt.params))
		})
	}
}

func TestOutputPath(t *testing.T) {
	fm := newManager(t)
	assert.Equal(t, filepath.Join(fm.OutputDir, "Report_r-9.html"), fm.OutputPath("Report_{uuid}", "r-9", "html"))
}

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.csv"), "x")
	writeFile(t, filepath.Join(dir, "a.XLSX"), "x")
	writeFile(t, filepath.Join(dir, "nested", "c.csv"), "x")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	writeFile(t, filepath.Join(dir, "~$a.xlsx"), "x")
	writeFile(t, filepath.Join(dir, ".hidden.csv"), "x")

	files, err := DiscoverInputFiles(dir, ".csv", ".xlsx")
	require.NoError(t, err)
	assert.Equal(t, []string{
		filepath.Join(dir, "a.XLSX"),
		filepath.Join(dir, "b.csv"),
		filepath.Join(dir, "nested", "c.csv"),
	}, files)

	single, err := DiscoverInputFiles(filepath.Join(dir, "notes.txt"), ".csv")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, single)

	_, err = DiscoverInputFiles(filepath.Join(dir, "missing"))
	assert.Error(t, err)
}

func TestArchiveInputFile(t *testing.T) {
	fm := newManager(t)
	src := filepath.Join(t.TempDir(), "in.csv")
	writeFile(t, src, "DISTRICT\nPuri")

	archived, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.ArchiveDir, "in.csv"), archived)
	assert.False(t, FileExists(src))
	assert.True(t, FileExists(archived))

	fm.UseTimestampSubdirs = true
	writeFile(t, src, "DISTRICT\nPuri")
	archived, err = fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.ArchiveDir, "2025", "01", "15", "in.csv"), archived)
}

func TestArchiveInputFile_KeepsEarlierArchives(t *testing.T) {
	fm := newManager(t)
	src := filepath.Join(t.TempDir(), "batch.csv")

	var got []string
	for _, body := range []string{"first", "second", "third"} {
		writeFile(t, src, body)
		archived, err := fm.ArchiveInputFile(src)
		require.NoError(t, err)
		got = append(got, filepath.Base(archived))
	}
	assert.Equal(t, []string{"batch.csv", "batch_1.csv", "batch_2.csv"}, got)

	data, err := os.ReadFile(filepath.Join(fm.ArchiveDir, "batch.csv"))
	require.NoError(t, err)
	assert.Equal(t, "first", string(data))
}

func TestArchiveInputFile_Disabled(t *testing.T) {
	fm := newManager(t)
	fm.ArchiveDir = ""
	src := filepath.Join(t.TempDir(), "in.csv")
	writeFile(t, src, "x")

	archived, err := fm.ArchiveInputFile(src)
	require.NoError(t, err)
	assert.Equal(t, src, archived)
	assert.True(t, FileExists(src))
}

func TestWriteErrorLog(t *testing.T) {
	fm := newManager(t)

	path, err := fm.WriteErrorLog(nil)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = fm.WriteErrorLog([]ErrorLogEntry{
		{FileName: "in.csv", RecordNumber: 3, ErrorType: "validation", Field: "GROUP A", Value: "three", ErrorMessage: "not a number"},
		{ErrorMessage: "HTTP 500 from http://sheet"},
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(fm.OutputDir, "error_log_20250115_103005.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	out := string(data)
	assert.Contains(t, out, "Total Errors: 2")
	assert.Contains(t, out, "Record:     3")
	assert.Contains(t, out, "Value:      three")
	assert.Contains(t, out, "Message:    HTTP 500 from http://sheet")
}
