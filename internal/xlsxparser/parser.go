// =============================================================================
// Registration Report - XLSX Sheet Reader
// =============================================================================
//
// This module reads registration records from an XLSX workbook, the format
// the registration sheet is downloaded in. The expected layout is:
//
//   | DISTRICT | BLOCK      | PLACE | DATE OF\nCOMPETITION | GROUP A | ... |
//   |----------|------------|-------|----------------------|---------|-----|
//   | Khordha  | Jatni      | ...   | 45672                | 12      | ... |
//
//   - One header row (row 1 by default, `source.header_row`). Header cells
//     may contain line breaks; the normalizer folds them.
//   - Data rows below it. Fully empty rows are skipped.
//   - Title rows above the header row are ignored.
//
// Cells are read as raw values, so dates arrive as spreadsheet serial numbers
// and are converted by the normalizer regardless of the cell's display format.
//
// =============================================================================

package xlsxparser

import (
	"fmt"
	"strings"

	"github.com/ginjaninja78/registration-report/internal/types"
	"github.com/xuri/excelize/v2"
)

// =============================================================================
// SHEET LAYOUT
// =============================================================================

// SheetLayout locates the header and data rows in a sheet.
type SheetLayout struct {
	// HeaderRow is the 1-based row holding the column headers.
	// Default: 1
	HeaderRow int

	// DataStartRow is the 1-based first data row.
	// Default: HeaderRow + 1
	DataStartRow int
}

// DefaultSheetLayout returns the layout of a plain exported sheet.
func DefaultSheetLayout() SheetLayout {
	return SheetLayout{HeaderRow: 1, DataStartRow: 2}
}

// Sheet is the records of one worksheet.
type Sheet struct {
	Name    string
	Records []types.RawRecord
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// Parse reads records from a sheet of the workbook at path. An empty sheet
// name selects the first sheet.
func Parse(path, sheet string, layout SheetLayout) ([]types.RawRecord, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
		if sheet == "" {
			return nil, fmt.Errorf("workbook has no sheets")
		}
	}

	return parseSheet(f, sheet, layout)
}

// ParseMultiSheet reads every visible sheet in workbook order. Sheets whose
// name starts with "_" are skipped.
func ParseMultiSheet(path string, layout SheetLayout) ([]Sheet, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	var sheets []Sheet
	for _, name := range f.GetSheetList() {
		if strings.HasPrefix(name, "_") {
			continue
		}
		visible, err := f.GetSheetVisible(name)
		if err == nil && !visible {
			continue
		}

		records, err := parseSheet(f, name, layout)
		if err != nil {
			return nil, fmt.Errorf("error parsing sheet '%s': %w", name, err)
		}
		sheets = append(sheets, Sheet{Name: name, Records: records})
	}
	return sheets, nil
}

// parseSheet reads one sheet of an open workbook.
func parseSheet(f *excelize.File, sheet string, layout SheetLayout) ([]types.RawRecord, error) {
	if layout.HeaderRow <= 0 {
		layout.HeaderRow = 1
	}
	if layout.DataStartRow <= layout.HeaderRow {
		layout.DataStartRow = layout.HeaderRow + 1
	}

	rows, err := f.GetRows(sheet, excelize.Options{RawCellValue: true})
	if err != nil {
		return nil, fmt.Errorf("failed to read rows: %w", err)
	}
	if len(rows) < layout.HeaderRow {
		return []types.RawRecord{}, nil
	}

	headers := rows[layout.HeaderRow-1]
	records := make([]types.RawRecord, 0, len(rows))

	for i := layout.DataStartRow - 1; i < len(rows); i++ {
		row := rows[i]
		if isRowEmpty(row) {
			continue
		}
		records = append(records, parseRow(row, headers))
	}
	return records, nil
}

// parseRow maps a row onto the headers. Cells under an empty header are
// dropped; missing trailing cells leave the key absent.
func parseRow(row, headers []string) types.RawRecord {
	rec := make(types.RawRecord, len(headers))
	for col, header := range headers {
		if strings.TrimSpace(header) == "" || col >= len(row) {
			continue
		}
		rec[header] = row[col]
	}
	return rec
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// isRowEmpty checks if a row contains only empty values.
func isRowEmpty(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}
