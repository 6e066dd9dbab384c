package render

import (
	"fmt"
	"io"
	"strconv"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/report"
	"github.com/ginjaninja78/registration-report/internal/types"
)

// xlsxStyles holds the style IDs registered on a workbook.
type xlsxStyles struct {
	title, header, section, summary, total int
}

func newXLSXStyles(f *excelize.File) (xlsxStyles, error) {
	var s xlsxStyles
	var err error
	border := []excelize.Border{
		{Type: "left", Color: "000000", Style: 1},
		{Type: "right", Color: "000000", Style: 1},
		{Type: "top", Color: "000000", Style: 1},
		{Type: "bottom", Color: "000000", Style: 1},
	}

	if s.title, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 14},
		Alignment: &excelize.Alignment{Horizontal: "center"},
	}); err != nil {
		return s, err
	}
	if s.header, err = f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", WrapText: true},
		Border:    border,
	}); err != nil {
		return s, err
	}
	if s.section, err = f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true, Italic: true},
	}); err != nil {
		return s, err
	}
	if s.summary, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Border: border,
	}); err != nil {
		return s, err
	}
	if s.total, err = f.NewStyle(&excelize.Style{
		Font:   &excelize.Font{Bold: true},
		Fill:   excelize.Fill{Type: "pattern", Color: []string{"FFF2CC"}, Pattern: 1},
		Border: border,
	}); err != nil {
		return s, err
	}
	return s, nil
}

// XLSX writes the report as a workbook with one worksheet. The title sits in
// row 1; every page after the first starts after a manual page break.
func (r *Renderer) XLSX(w io.Writer, res *report.Result) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := r.opts.SheetName
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name worksheet: %w", err)
	}

	styles, err := newXLSXStyles(f)
	if err != nil {
		return fmt.Errorf("failed to create styles: %w", err)
	}

	ncols := len(r.cells.Labels())
	lastCol, err := excelize.ColumnNumberToName(max(ncols, 1))
	if err != nil {
		return err
	}

	if err := f.SetCellValue(sheet, "A1", r.title(res)); err != nil {
		return err
	}
	if ncols > 1 {
		if err := f.MergeCell(sheet, "A1", lastCol+"1"); err != nil {
			return err
		}
	}
	if err := f.SetCellStyle(sheet, "A1", lastCol+"1", styles.title); err != nil {
		return err
	}

	if res.Malformed {
		if err := f.SetCellValue(sheet, "A2", MsgError); err != nil {
			return err
		}
		return writeWorkbook(f, w)
	}

	rowNum := 2
	for _, page := range res.Layout.Pages {
		if page.Number > 1 {
			if err := f.InsertPageBreak(sheet, fmt.Sprintf("A%d", rowNum)); err != nil {
				return fmt.Errorf("failed to insert page break: %w", err)
			}
		}
		for _, row := range page.Rows {
			if err := r.writeXLSXRow(f, sheet, rowNum, row, styles, lastCol); err != nil {
				return fmt.Errorf("failed to write row %d: %w", rowNum, err)
			}
			rowNum++
		}
	}

	if err := f.SetColWidth(sheet, "A", lastCol, 14); err != nil {
		return err
	}
	return writeWorkbook(f, w)
}

func (r *Renderer) writeXLSXRow(f *excelize.File, sheet string, rowNum int, row types.Row, styles xlsxStyles, lastCol string) error {
	cells := r.cells.Cells(row)
	values := make([]any, len(cells))
	for i, c := range cells {
		values[i] = c
		if c == "" || row.Kind == types.ColumnHeaderRow {
			continue
		}
		// Numbers stay numbers so the sheet can be summed.
		if r.cells.SummedColumn(i) || r.cells.columns[i].Source == config.ColumnSerial {
			if n, err := strconv.ParseInt(c, 10, 64); err == nil {
				values[i] = n
			}
		}
	}

	first := fmt.Sprintf("A%d", rowNum)
	if err := f.SetSheetRow(sheet, first, &values); err != nil {
		return err
	}

	last := fmt.Sprintf("%s%d", lastCol, rowNum)
	switch row.Kind {
	case types.ColumnHeaderRow:
		return f.SetCellStyle(sheet, first, last, styles.header)
	case types.SectionHeaderRow:
		if len(cells) > 1 {
			if err := f.MergeCell(sheet, first, last); err != nil {
				return err
			}
		}
		return f.SetCellStyle(sheet, first, last, styles.section)
	case types.GroupSummaryRow:
		return f.SetCellStyle(sheet, first, last, styles.summary)
	case types.GrandTotalRow:
		return f.SetCellStyle(sheet, first, last, styles.total)
	}
	return nil
}

func writeWorkbook(f *excelize.File, w io.Writer) error {
	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}
