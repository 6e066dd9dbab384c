package render

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"

	"github.com/ginjaninja78/registration-report/internal/report"
	"github.com/ginjaninja78/registration-report/internal/types"
)

// Terminal styles. Colors degrade to plain text when the output is not a
// terminal.
var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#101F38"))
	pageStyle    = lipgloss.NewStyle().Faint(true)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#e53935"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Padding(0, 1)
	numberStyle  = cellStyle.Align(lipgloss.Right)
	summaryStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	borderStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#2a3850"))
)

// Text writes a terminal preview of the report, one table per page.
func (r *Renderer) Text(w io.Writer, res *report.Result) error {
	var b strings.Builder

	b.WriteString(titleStyle.Render(r.title(res)))
	b.WriteString("\n")

	if res.Malformed {
		b.WriteString(errorStyle.Render(MsgError))
		b.WriteString("\n")
		_, err := io.WriteString(w, b.String())
		return err
	}

	for _, page := range res.Layout.Pages {
		b.WriteString("\n")
		b.WriteString(pageStyle.Render(fmt.Sprintf("Page %d of %d", page.Number, len(res.Layout.Pages))))
		b.WriteString("\n")
		b.WriteString(r.pageTable(page).Render())
		b.WriteString("\n")
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func (r *Renderer) pageTable(page types.Page) *table.Table {
	var kinds []types.RowKind
	var rows [][]string
	for _, row := range page.Rows {
		if row.Kind == types.ColumnHeaderRow {
			continue
		}
		kinds = append(kinds, row.Kind)
		rows = append(rows, r.cells.Cells(row))
	}

	return table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(r.cells.Labels()...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			if row < 0 || row >= len(kinds) {
				return cellStyle
			}
			switch kinds[row] {
			case types.GroupSummaryRow, types.GrandTotalRow, types.SectionHeaderRow:
				if r.cells.SummedColumn(col) {
					return summaryStyle.Align(lipgloss.Right)
				}
				return summaryStyle
			}
			if r.cells.SummedColumn(col) {
				return numberStyle
			}
			return cellStyle
		})
}

// RecordsText writes the normalized records as a terminal table in field
// display order, with the same states as RecordsHTML.
func (r *Renderer) RecordsText(w io.Writer, res *report.Result) error {
	var status string
	switch {
	case res == nil:
		status = MsgLoading
	case res.Malformed:
		status = errorStyle.Render(MsgError)
	case len(res.Records) == 0:
		status = MsgNoData
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		BorderStyle(borderStyle).
		Headers(r.fields...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return cellStyle
		})

	if status == "" {
		for _, rec := range res.Records {
			row := make([]string, len(r.fields))
			for i, name := range r.fields {
				row[i] = r.cells.RecordCell(rec, name)
			}
			t.Row(row...)
		}
	}

	out := t.Render() + "\n"
	if status != "" {
		out += status + "\n"
	}
	_, err := io.WriteString(w, out)
	return err
}
