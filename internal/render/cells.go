// =============================================================================
// Registration Report - Cell Formatting
// =============================================================================
//
// Every renderer draws the same cells. This module turns a layout row into
// its display strings, one per report column.
//
// ROW CONTENTS:
//   column header : the column labels
//   section header: the section label in the first column
//   data          : serial, group key (first row of the group only), fields
//   group summary : label in the label column, totals under summed fields
//   grand total   : label in the label column, totals under summed fields
//
// DISPLAY RULES:
//   - Dates use the locale's short date form (en-IN: 15/1/2025 as 2/1/2006)
//     unless report.date_format is set.
//   - Zero counts on data rows are blank when report.blank_zeros is on.
//     Summary and total rows always show zeros.
//
// =============================================================================

package render

import (
	"strconv"

	"golang.org/x/text/language"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/types"
)

// Placeholder messages for the records table and failed reports.
const (
	MsgLoading = "Loading..."
	MsgNoData  = "No data found"
	MsgError   = "Error loading data"
)

// localeDateLayouts are short date forms keyed by locale.
var localeDateLayouts = []struct {
	tag    language.Tag
	layout string
}{
	{language.Und, types.DateLayout},
	{language.MustParse("en-IN"), "2/1/2006"},
	{language.MustParse("en-GB"), "02/01/2006"},
	{language.AmericanEnglish, "1/2/2006"},
	{language.German, "2.1.2006"},
	{language.French, "02/01/2006"},
	{language.Japanese, "2006/01/02"},
	{language.Chinese, "2006/1/2"},
	{language.Hindi, "2/1/2006"},
	{language.MustParse("or-IN"), "2/1/2006"},
}

var dateMatcher = func() language.Matcher {
	tags := make([]language.Tag, len(localeDateLayouts))
	for i, l := range localeDateLayouts {
		tags[i] = l.tag
	}
	return language.NewMatcher(tags)
}()

// DateLayoutFor returns the short date layout of a BCP 47 locale. Unknown
// locales fall back to 2006-01-02.
func DateLayoutFor(locale string) string {
	tag, err := language.Parse(locale)
	if err != nil {
		return types.DateLayout
	}
	_, index, confidence := dateMatcher.Match(tag)
	if confidence == language.No {
		return types.DateLayout
	}
	return localeDateLayouts[index].layout
}

// Formatter renders layout rows into cell strings.
type Formatter struct {
	columns    []config.Column
	sumFields  map[string]bool
	labelCol   int
	dateLayout string
	blankZeros bool
}

// NewFormatter creates a Formatter for the report configuration.
func NewFormatter(cfg *config.Config) *Formatter {
	f := &Formatter{
		columns:    cfg.Columns,
		sumFields:  make(map[string]bool),
		labelCol:   -1,
		dateLayout: cfg.Report.DateFormat,
		blankZeros: cfg.Report.BlankZeros == nil || *cfg.Report.BlankZeros,
	}
	if f.dateLayout == "" {
		f.dateLayout = DateLayoutFor(cfg.Report.Locale)
	}
	for _, col := range cfg.Columns {
		if col.Source == config.ColumnField && cfg.IsSumField(col.Field) {
			f.sumFields[col.Field] = true
		}
	}

	for i, col := range cfg.Columns {
		if col.Source == config.ColumnField && col.Field == cfg.Report.LabelColumn {
			f.labelCol = i
			break
		}
	}
	if f.labelCol < 0 {
		// First field column that is not summed.
		for i, col := range cfg.Columns {
			if col.Source == config.ColumnField && !f.sumFields[col.Field] {
				f.labelCol = i
				break
			}
		}
	}
	if f.labelCol < 0 {
		f.labelCol = 0
	}
	return f
}

// Labels returns the column header labels.
func (f *Formatter) Labels() []string {
	labels := make([]string, len(f.columns))
	for i, col := range f.columns {
		labels[i] = col.Label
	}
	return labels
}

// SummedColumn reports whether column i shows a summed field.
func (f *Formatter) SummedColumn(i int) bool {
	col := f.columns[i]
	return col.Source == config.ColumnField && f.sumFields[col.Field]
}

// Cells returns the display strings of a row, one per column.
func (f *Formatter) Cells(row types.Row) []string {
	cells := make([]string, len(f.columns))

	switch row.Kind {
	case types.ColumnHeaderRow:
		return f.Labels()

	case types.SectionHeaderRow:
		label := row.Label
		if row.Continued {
			label += " (continued)"
		}
		if len(cells) > 0 {
			cells[0] = label
		}

	case types.DataRow:
		for i, col := range f.columns {
			cells[i] = f.dataCell(row, col)
		}

	case types.GroupSummaryRow, types.GrandTotalRow:
		for i, col := range f.columns {
			if f.SummedColumn(i) {
				cells[i] = strconv.FormatInt(row.Totals[col.Field], 10)
			}
		}
		if len(cells) > 0 {
			cells[f.labelCol] = row.Label
		}
	}
	return cells
}

func (f *Formatter) dataCell(row types.Row, col config.Column) string {
	switch col.Source {
	case config.ColumnSerial:
		return strconv.Itoa(row.Serial)
	case config.ColumnGroup:
		if row.FirstInGroup {
			return row.GroupKey
		}
		return ""
	}

	if row.Record == nil {
		return ""
	}
	v := row.Record.Get(col.Field)
	switch v.Kind {
	case types.KindDate:
		return v.Date.Format(f.dateLayout)
	case types.KindInt:
		if v.Int == 0 && f.blankZeros && f.sumFields[col.Field] {
			return ""
		}
		return strconv.FormatInt(v.Int, 10)
	default:
		return v.String()
	}
}

// RecordCell formats one field of a normalized record for the records table.
func (f *Formatter) RecordCell(rec types.Record, field string) string {
	v := rec.Get(field)
	if v.Kind == types.KindDate {
		return v.Date.Format(f.dateLayout)
	}
	return v.String()
}
