// =============================================================================
// Registration Report - CSV Reader
// =============================================================================
//
// This module reads CSV files for import and for the "csv" record source.
// It handles:
//   - Different encodings (utf-8, windows-1252, iso-8859-1, utf-16le, ...)
//   - Two decode modes:
//       naive   : the positional comma split used by the export format
//       rfc4180 : quoted fields, embedded commas and custom delimiters
//
// In rfc4180 mode the reader is lenient: lazy quotes, variable field counts,
// leading space trimmed. Empty header cells become "Column_N".
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/types"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
)

// =============================================================================
// READER FUNCTIONS
// =============================================================================

// ParseFile reads a CSV file with the given settings.
func ParseFile(filePath string, settings config.CSVSettings) ([]types.RawRecord, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	records, err := DecodeReader(file, settings)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", filePath, err)
	}
	return records, nil
}

// DecodeReader decodes CSV from r.
//
// PROCESS:
//  1. Convert the input to UTF-8 when an encoding other than utf-8 is set
//  2. Decode in the configured mode
func DecodeReader(r io.Reader, settings config.CSVSettings) ([]types.RawRecord, error) {
	reader, err := decodingReader(bufio.NewReader(r), settings.Encoding)
	if err != nil {
		return nil, err
	}

	if settings.Mode != config.CSVModeRFC4180 {
		data, err := io.ReadAll(reader)
		if err != nil {
			return nil, fmt.Errorf("failed to read CSV: %w", err)
		}
		return Decode(strings.TrimPrefix(string(data), "\ufeff"))
	}

	csvReader := csv.NewReader(reader)
	configureReader(csvReader, settings)

	allRows, err := csvReader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV: %w", err)
	}

	// Skip blank lines before the header.
	for len(allRows) > 0 && isRowEmpty(allRows[0]) {
		allRows = allRows[1:]
	}
	if len(allRows) == 0 {
		return []types.RawRecord{}, nil
	}

	allRows[0][0] = strings.TrimPrefix(allRows[0][0], "\ufeff")
	headers := cleanHeaders(allRows[0])
	return extractDataRows(allRows[1:], headers), nil
}

// decodingReader wraps r so that it yields UTF-8.
func decodingReader(r io.Reader, name string) (io.Reader, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.EqualFold(name, "utf-8") || strings.EqualFold(name, "utf8") {
		return r, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported encoding %q: %w", name, err)
	}
	return transform.NewReader(r, enc.NewDecoder()), nil
}

// configureReader configures the CSV reader based on the settings.
func configureReader(reader *csv.Reader, settings config.CSVSettings) {
	// Handle special cases for common delimiters.
	switch settings.Delimiter {
	case "\\t", "tab", "TAB":
		reader.Comma = '\t'
	case "|", "pipe", "PIPE":
		reader.Comma = '|'
	case ";", "semicolon":
		reader.Comma = ';'
	default:
		if len(settings.Delimiter) > 0 {
			reader.Comma = rune(settings.Delimiter[0])
		} else {
			reader.Comma = ','
		}
	}

	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true
}

// cleanHeaders trims header cells and names empty ones by position.
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))

	for i, header := range headers {
		header = strings.TrimSpace(header)
		if header == "" {
			header = fmt.Sprintf("Column_%d", i+1)
		}
		cleaned[i] = header
	}

	return cleaned
}

// extractDataRows converts rows to raw records, skipping empty rows.
// Missing trailing cells leave the key absent, as in naive mode.
func extractDataRows(rows [][]string, headers []string) []types.RawRecord {
	records := make([]types.RawRecord, 0, len(rows))

	for _, row := range rows {
		if isRowEmpty(row) {
			continue
		}

		rec := make(types.RawRecord, len(headers))
		for colIndex, header := range headers {
			if colIndex >= len(row) {
				break
			}
			rec[header] = strings.TrimSpace(row[colIndex])
		}
		records = append(records, rec)
	}

	return records
}

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
