// =============================================================================
// Registration Report - File Manager Utility
// =============================================================================
//
// This module provides file management utilities for the CLI, including:
//   - Output directory management
//   - Report file naming
//   - Import file discovery and archival
//   - Import error log generation
//
// ARCHIVAL STRATEGY:
//   - Imported files are moved to the archive directory once every record
//     of the file was written
//   - Files with failed records stay where they are, next to an error log
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for the CLI.
type FileManager struct {
	// OutputDir is where reports, exports and error logs are written.
	OutputDir string

	// ArchiveDir receives imported files. Empty disables archival.
	ArchiveDir string

	// UseTimestampSubdirs creates date-based subdirectories in the archive.
	// Example: archive/2025/01/15/registrations.csv
	UseTimestampSubdirs bool

	// Now is the clock used for names and archive subdirectories.
	Now func() time.Time
}

// NewFileManager creates a FileManager.
func NewFileManager(outputDir, archiveDir string) *FileManager {
	return &FileManager{
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
		Now:        time.Now,
	}
}

// EnsureDirectories creates the output and archive directories.
func (fm *FileManager) EnsureDirectories() error {
	for _, dir := range []string{fm.OutputDir, fm.ArchiveDir} {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands a file name pattern.
//
// Placeholders:
//
//	{uuid}      - the report ID
//	{timestamp} - current time (YYYYMMDD_HHMMSS)
//	{date}      - current date (YYYYMMDD)
//	{kind}      - output kind, e.g. "xlsx" or "html"
//
// Further placeholders come from params. The extension ext is appended unless
// the name already ends with it.
//
// Example:
//
//	GenerateOutputFileName("Report_{timestamp}", now, "xlsx", map[string]string{"uuid": id})
//	=> "Report_20250115_100000.xlsx"
func GenerateOutputFileName(format string, now time.Time, ext string, params map[string]string) string {
	replacements := []string{
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{kind}", ext,
	}
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	for _, k := range keys {
		replacements = append(replacements, "{"+k+"}", params[k])
	}

	result := strings.NewReplacer(replacements...).Replace(format)

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), "."+strings.ToLower(ext)) {
		result += "." + ext
	}
	return result
}

// OutputPath returns the path of a generated report file in OutputDir.
func (fm *FileManager) OutputPath(format, reportID, ext string) string {
	name := GenerateOutputFileName(format, fm.Now(), ext, map[string]string{"uuid": reportID})
	return filepath.Join(fm.OutputDir, name)
}

// =============================================================================
// IMPORT FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles returns the files under path ending in one of the
// extensions (".csv", ".xlsx"). A file path is returned as is. Files whose
// name starts with "." or "~$" (editor lock files) are skipped.
func DiscoverInputFiles(path string, extensions ...string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}

	var files []string
	err = filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		name := d.Name()
		if strings.HasPrefix(name, ".") || strings.HasPrefix(name, "~$") {
			return nil
		}
		if len(extensions) == 0 || hasExtension(name, extensions) {
			files = append(files, p)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk input directory: %w", err)
	}

	slices.Sort(files)
	return files, nil
}

func hasExtension(name string, extensions []string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	for _, e := range extensions {
		if ext == strings.ToLower(e) {
			return true
		}
	}
	return false
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves an imported file to the archive directory and
// returns its new path. With no archive directory the file stays put. An
// earlier archive of the same name is never overwritten: the new copy gets a
// numbered suffix (batch_1.csv, batch_2.csv, ...).
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	if fm.ArchiveDir == "" {
		return filePath, nil
	}

	archivePath := fm.archivePath(filePath)
	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Cross-device rename: copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}
	return archivePath, nil
}

func (fm *FileManager) archivePath(filePath string) string {
	dir := fm.ArchiveDir
	if fm.UseTimestampSubdirs {
		now := fm.Now()
		dir = filepath.Join(dir,
			fmt.Sprintf("%d", now.Year()),
			fmt.Sprintf("%02d", now.Month()),
			fmt.Sprintf("%02d", now.Day()),
		)
	}

	fileName := filepath.Base(filePath)
	path := filepath.Join(dir, fileName)
	ext := filepath.Ext(fileName)
	stem := strings.TrimSuffix(fileName, ext)
	for n := 1; FileExists(path); n++ {
		path = filepath.Join(dir, fmt.Sprintf("%s_%d%s", stem, n, ext))
	}
	return path
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry is one failed record.
type ErrorLogEntry struct {
	FileName     string
	RecordNumber int
	Field        string
	Value        string
	ErrorType    string
	ErrorMessage string
}

// WriteErrorLog writes the entries to error_log_<timestamp>.txt in OutputDir
// and returns its path. Nothing is written for zero entries.
func (fm *FileManager) WriteErrorLog(entries []ErrorLogEntry) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	now := fm.Now()
	logPath := filepath.Join(fm.OutputDir, fmt.Sprintf("error_log_%s.txt", now.Format("20060102_150405")))

	file, err := os.Create(logPath)
	if err != nil {
		return "", fmt.Errorf("failed to create error log: %w", err)
	}
	defer file.Close()

	writer := bufio.NewWriter(file)

	fmt.Fprintf(writer, "Registration Import - Error Log\n"+
		"Generated: %s\n"+
		"Total Errors: %d\n"+
		"================================================================================\n\n",
		now.Format("2006-01-02 15:04:05"), len(entries))

	for i, entry := range entries {
		fmt.Fprintf(writer, "Error #%d\n", i+1)
		if entry.FileName != "" {
			fmt.Fprintf(writer, "  File:       %s\n", entry.FileName)
		}
		if entry.RecordNumber > 0 {
			fmt.Fprintf(writer, "  Record:     %d\n", entry.RecordNumber)
		}
		if entry.ErrorType != "" {
			fmt.Fprintf(writer, "  Error Type: %s\n", entry.ErrorType)
		}
		if entry.Field != "" {
			fmt.Fprintf(writer, "  Field:      %s\n", entry.Field)
		}
		if entry.Value != "" {
			fmt.Fprintf(writer, "  Value:      %s\n", entry.Value)
		}
		fmt.Fprintf(writer, "  Message:    %s\n\n", entry.ErrorMessage)
	}

	writer.WriteString("================================================================================\n" +
		"End of Error Log\n")

	if err := writer.Flush(); err != nil {
		return "", fmt.Errorf("failed to flush error log: %w", err)
	}
	return logPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}

// FileExists checks if a file exists.
func FileExists(path string) bool {
	_, err := os.Stat(path)
	return !os.IsNotExist(err)
}
