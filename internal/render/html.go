package render

import (
	"fmt"
	"html/template"
	"io"

	"github.com/ginjaninja78/registration-report/internal/report"
	"github.com/ginjaninja78/registration-report/internal/types"
)

const baseStyle = `
body { font-family: Arial, sans-serif; font-size: 12px; margin: 16px; }
h1 { font-size: 16px; text-align: center; }
table { border-collapse: collapse; width: 100%; }
th, td { border: 1px solid #333; padding: 2px 6px; }
th { background: #d9e1f2; }
td.num { text-align: right; }
tr.section_header td { font-weight: bold; font-style: italic; border: none; }
tr.group_summary td { font-weight: bold; }
tr.grand_total td { font-weight: bold; background: #fff2cc; }
.page { page-break-after: always; break-after: page; }
.page:last-child { page-break-after: auto; break-after: auto; }
.status { text-align: center; padding: 24px; }
.error { color: #e53935; }
`

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.Style}}</style>
</head>
<body>
{{- if .Error}}
<h1>{{.Title}}</h1>
<p class="status error">{{.Error}}</p>
{{- else}}
{{- range .Pages}}
<div class="page" data-page="{{.Number}}">
{{- if eq .Number 1}}
<h1>{{$.Title}}</h1>
{{- end}}
<table>
{{- range .Rows}}
<tr class="{{.Class}}">
{{- if .Header}}{{range .Cells}}<th>{{.Text}}</th>{{end}}
{{- else if .Span}}<td colspan="{{.Span}}">{{(index .Cells 0).Text}}</td>
{{- else}}{{range .Cells}}<td{{if .Number}} class="num"{{end}}>{{.Text}}</td>{{end}}
{{- end}}</tr>
{{- end}}
</table>
</div>
{{- end}}
{{- end}}
</body>
</html>
`))

var recordsTemplate = template.Must(template.New("records").Parse(`<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.Style}}</style>
</head>
<body>
<table>
<tr>{{range .Headers}}<th>{{.}}</th>{{end}}</tr>
{{- if .Status}}
<tr><td colspan="{{len .Headers}}" class="status{{if .Error}} error{{end}}">{{.Status}}</td></tr>
{{- else}}
{{- range .Rows}}
<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
{{- end}}
{{- end}}
</table>
</body>
</html>
`))

type htmlCell struct {
	Text   string
	Number bool
}

type htmlRow struct {
	Class  string
	Header bool
	Span   int
	Cells  []htmlCell
}

type htmlPage struct {
	Number int
	Rows   []htmlRow
}

// HTML writes the report as a printable HTML document. Each page is a block
// followed by a CSS page break.
func (r *Renderer) HTML(w io.Writer, res *report.Result) error {
	data := struct {
		Title string
		Style template.CSS
		Error string
		Pages []htmlPage
	}{
		Title: r.title(res),
		Style: template.CSS(baseStyle),
	}

	if res.Malformed {
		data.Error = MsgError
	} else {
		for _, page := range res.Layout.Pages {
			data.Pages = append(data.Pages, r.htmlPage(page))
		}
	}

	if err := reportTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render HTML: %w", err)
	}
	return nil
}

func (r *Renderer) htmlPage(page types.Page) htmlPage {
	out := htmlPage{Number: page.Number}
	for _, row := range page.Rows {
		cells := r.cells.Cells(row)
		hr := htmlRow{
			Class:  row.Kind.String(),
			Header: row.Kind == types.ColumnHeaderRow,
			Cells:  make([]htmlCell, len(cells)),
		}
		if row.Kind == types.SectionHeaderRow {
			hr.Span = len(cells)
		}
		for i, c := range cells {
			hr.Cells[i] = htmlCell{Text: c, Number: r.cells.SummedColumn(i)}
		}
		out.Rows = append(out.Rows, hr)
	}
	return out
}

// RecordsHTML writes the normalized records as a table in field display
// order. A nil result draws the loading state, a malformed one the error
// state and an empty one "No data found".
func (r *Renderer) RecordsHTML(w io.Writer, res *report.Result) error {
	data := struct {
		Title   string
		Style   template.CSS
		Headers []string
		Status  string
		Error   bool
		Rows    [][]string
	}{
		Title:   "Registrations",
		Style:   template.CSS(baseStyle),
		Headers: r.fields,
	}

	switch {
	case res == nil:
		data.Status = MsgLoading
	case res.Malformed:
		data.Status = MsgError
		data.Error = true
	case len(res.Records) == 0:
		data.Status = MsgNoData
	default:
		for _, rec := range res.Records {
			row := make([]string, len(r.fields))
			for i, name := range r.fields {
				row[i] = r.cells.RecordCell(rec, name)
			}
			data.Rows = append(data.Rows, row)
		}
	}

	if err := recordsTemplate.Execute(w, data); err != nil {
		return fmt.Errorf("failed to render records: %w", err)
	}
	return nil
}
