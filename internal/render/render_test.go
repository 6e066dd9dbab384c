package render

import (
	"bytes"
	"context"
	"encoding/xml"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/report"
	"github.com/ginjaninja78/registration-report/internal/types"
)

func sheet() []types.RawRecord {
	return []types.RawRecord{
		{"DISTRICT": "Puri", "BLOCK": "Satyabadi", "PLACE": "Sakhigopal", "GROUP A": float64(2), "TOTAL": float64(2), "DATE": "15/01/2025"},
		{"DISTRICT": "Angul", "BLOCK": "Talcher", "PLACE": "Talcher <Town>", "GROUP B": "5", "TOTAL": "5"},
		{"DISTRICT": "", "BLOCK": "Nowhere", "GROUP A": float64(100), "TOTAL": float64(100)},
		{"DISTRICT": "Puri", "BLOCK": "Brahmagiri", "PLACE": "Sakhigopal", "GROUP A": float64(3), "TOTAL": float64(3)},
	}
}

func build(t *testing.T, cfg *config.Config, raws []types.RawRecord) *report.Result {
	t.Helper()
	p, err := report.NewPipeline(cfg)
	require.NoError(t, err)
	res := p.Process(raws)
	res.ReportID = "r-1"
	res.GeneratedAt = time.Date(2025, 1, 15, 10, 0, 0, 0, time.UTC)
	return res
}

func rowsOfKind(res *report.Result, kind types.RowKind) []types.Row {
	var out []types.Row
	for _, p := range res.Layout.Pages {
		for _, r := range p.Rows {
			if r.Kind == kind {
				out = append(out, r)
			}
		}
	}
	return out
}

func TestDateLayoutFor(t *testing.T) {
	assert.Equal(t, "2/1/2006", DateLayoutFor("en-IN"))
	assert.Equal(t, "1/2/2006", DateLayoutFor("en-US"))
	assert.Equal(t, "02/01/2006", DateLayoutFor("en-GB"))
	assert.Equal(t, "2.1.2006", DateLayoutFor("de-DE"))
	assert.Equal(t, types.DateLayout, DateLayoutFor("!!"))
}

func TestCells_DataRows(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, sheet())
	f := NewFormatter(cfg)

	data := rowsOfKind(res, types.DataRow)
	require.Len(t, data, 3)

	// Angul / Talcher: group A is zero and blank.
	assert.Equal(t,
		[]string{"1", "Angul", "Talcher", "Talcher <Town>", "", "", "5", "", "", "5"},
		f.Cells(data[0]))
	// Puri sorted by block: Brahmagiri first, then Satyabadi with its date.
	assert.Equal(t,
		[]string{"1", "Puri", "Brahmagiri", "Sakhigopal", "", "3", "", "", "", "3"},
		f.Cells(data[1]))
	assert.Equal(t,
		[]string{"2", "", "Satyabadi", "Sakhigopal", "15/1/2025", "2", "", "", "", "2"},
		f.Cells(data[2]))
}

func TestCells_SummaryRows(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, sheet())
	f := NewFormatter(cfg)

	summaries := rowsOfKind(res, types.GroupSummaryRow)
	require.Len(t, summaries, 2)
	assert.Equal(t,
		[]string{"", "", "", "Summary", "", "0", "5", "0", "0", "5"},
		f.Cells(summaries[0]))

	totals := rowsOfKind(res, types.GrandTotalRow)
	require.Len(t, totals, 1)
	assert.Equal(t,
		[]string{"", "", "", "STATE TOTAL (2 Places)", "", "5", "5", "0", "0", "10"},
		f.Cells(totals[0]))
}

func TestCells_Options(t *testing.T) {
	cfg := config.Default()
	blank := false
	cfg.Report.BlankZeros = &blank
	cfg.Report.DateFormat = "02 Jan 2006"
	res := build(t, cfg, sheet())
	f := NewFormatter(cfg)

	data := rowsOfKind(res, types.DataRow)
	assert.Equal(t, "0", f.Cells(data[0])[5])
	assert.Equal(t, "15 Jan 2025", f.Cells(data[2])[4])
}

func TestCells_SectionHeader(t *testing.T) {
	f := NewFormatter(config.Default())
	cells := f.Cells(types.Row{Kind: types.SectionHeaderRow, Label: "Puri", Continued: true})
	assert.Equal(t, "Puri (continued)", cells[0])
	assert.Equal(t, "", cells[1])
}

func TestCells_LabelColumnFallback(t *testing.T) {
	cfg := config.Default()
	cfg.Report.LabelColumn = ""
	f := NewFormatter(cfg)
	cells := f.Cells(types.Row{Kind: types.GrandTotalRow, Label: "TOTAL", Totals: types.Totals{}})
	// Block is the first field column that is not summed.
	assert.Equal(t, "TOTAL", cells[2])
}

func TestParseFormats(t *testing.T) {
	formats, err := ParseFormats(" XLSX, html,xlsx,text ")
	require.NoError(t, err)
	assert.Equal(t, []Format{FormatXLSX, FormatHTML, FormatText}, formats)

	_, err = ParseFormats("pdf")
	assert.ErrorContains(t, err, `unknown format "pdf"`)

	_, err = ParseFormats(" , ")
	assert.Error(t, err)

	assert.Equal(t, "txt", FormatText.Ext())
	assert.Equal(t, "xlsx", FormatXLSX.Ext())
}

func TestXLSX(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, sheet())

	var buf bytes.Buffer
	require.NoError(t, New(cfg, Options{}).XLSX(&buf, res))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Report")
	require.NoError(t, err)
	require.Len(t, rows, 8)
	assert.Equal(t, cfg.Report.Title, rows[0][0])
	assert.Equal(t, "SL. NO.", rows[1][0])
	assert.Equal(t, "Angul", rows[2][1])
	assert.Equal(t, "Summary", rows[3][3])
	assert.Equal(t, "STATE TOTAL (2 Places)", rows[7][3])
	assert.Equal(t, "10", rows[7][9])
}

func TestXLSX_PageBreaks(t *testing.T) {
	cfg := config.Default()
	cfg.Page.Capacity = 4
	res := build(t, cfg, sheet())
	require.Greater(t, len(res.Layout.Pages), 1)

	var buf bytes.Buffer
	require.NoError(t, New(cfg, Options{SheetName: "Districts"}).XLSX(&buf, res))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Districts")
	require.NoError(t, err)

	// Every page repeats the column header.
	headers := 0
	for _, row := range rows {
		if len(row) > 0 && row[0] == "SL. NO." {
			headers++
		}
	}
	assert.Equal(t, len(res.Layout.Pages), headers)
}

func TestXLSX_Malformed(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, nil)
	res.Malformed = true

	var buf bytes.Buffer
	require.NoError(t, New(cfg, Options{}).XLSX(&buf, res))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Report", "A2")
	require.NoError(t, err)
	assert.Equal(t, MsgError, v)
}

func TestHTML(t *testing.T) {
	cfg := config.Default()
	cfg.Page.Capacity = 4
	res := build(t, cfg, sheet())

	var buf bytes.Buffer
	require.NoError(t, New(cfg, Options{Title: "Preview"}).HTML(&buf, res))
	out := buf.String()

	assert.Contains(t, out, "<title>Preview</title>")
	assert.Contains(t, out, "page-break-after: always")
	assert.Equal(t, len(res.Layout.Pages), strings.Count(out, `<div class="page"`))
	assert.Contains(t, out, "Talcher &lt;Town&gt;")
	assert.Contains(t, out, `<tr class="grand_total">`)
	assert.NotContains(t, out, MsgError)
}

func TestHTML_Malformed(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, nil)
	res.Malformed = true

	var buf bytes.Buffer
	require.NoError(t, New(cfg, Options{}).HTML(&buf, res))
	assert.Contains(t, buf.String(), MsgError)
	assert.NotContains(t, buf.String(), "<table>")
}

func TestRecordsHTML(t *testing.T) {
	cfg := config.Default()
	r := New(cfg, Options{})

	render := func(res *report.Result) string {
		var buf bytes.Buffer
		require.NoError(t, r.RecordsHTML(&buf, res))
		return buf.String()
	}

	assert.Contains(t, render(nil), MsgLoading)
	assert.Contains(t, render(build(t, cfg, nil)), MsgNoData)

	malformed := build(t, cfg, nil)
	malformed.Malformed = true
	assert.Contains(t, render(malformed), MsgError)

	out := render(build(t, cfg, sheet()))
	assert.Equal(t, 4+1, strings.Count(out, "<tr>"))
	assert.Contains(t, out, "<th>"+config.FieldDistrict+"</th>")
	assert.Contains(t, out, "<td>15/1/2025</td>")
	assert.NotContains(t, out, MsgNoData)
}

func TestText(t *testing.T) {
	cfg := config.Default()
	cfg.Page.Capacity = 4
	res := build(t, cfg, sheet())

	var buf bytes.Buffer
	require.NoError(t, New(cfg, Options{}).Text(&buf, res))
	out := buf.String()

	assert.Contains(t, out, cfg.Report.Title)
	assert.Contains(t, out, "Page 1 of ")
	assert.Contains(t, out, "Angul")
	assert.Contains(t, out, "STATE TOTAL (2 Places)")
}

func TestText_Malformed(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, nil)
	res.Malformed = true

	var buf bytes.Buffer
	require.NoError(t, New(cfg, Options{}).Text(&buf, res))
	assert.Contains(t, buf.String(), MsgError)
	assert.NotContains(t, buf.String(), "Page 1")
}

func TestXML(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, sheet())

	var buf bytes.Buffer
	require.NoError(t, New(cfg, DefaultOptions()).XML(&buf, res))

	assert.True(t, strings.HasPrefix(buf.String(), `<?xml version="1.0" encoding="UTF-8"?>`))

	var doc struct {
		ID    string `xml:"id,attr"`
		Pages []struct {
			N    int `xml:"n,attr"`
			Rows []struct {
				Kind  string `xml:"kind,attr"`
				Group string `xml:"group,attr"`
				Cells []struct {
					Column string `xml:"column,attr"`
					Value  string `xml:",chardata"`
				} `xml:"cell"`
			} `xml:"row"`
		} `xml:"page"`
	}
	require.NoError(t, xml.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, "r-1", doc.ID)
	require.Len(t, doc.Pages, 1)
	rows := doc.Pages[0].Rows
	require.Len(t, rows, 7)
	assert.Equal(t, "column_header", rows[0].Kind)
	assert.Equal(t, "data", rows[1].Kind)
	assert.Equal(t, "Angul", rows[1].Group)
	assert.Equal(t, "Place", rows[1].Cells[3].Column)
	assert.Equal(t, "Talcher <Town>", rows[1].Cells[3].Value)
	assert.Equal(t, "grand_total", rows[6].Kind)
}

func TestXML_Malformed(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, nil)
	res.Malformed = true

	var buf bytes.Buffer
	require.NoError(t, New(cfg, Options{}).XML(&buf, res))
	assert.Contains(t, buf.String(), `error="Error loading data"`)
	assert.NotContains(t, buf.String(), "<page")
}

func TestRenderAll(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, sheet())
	dir := t.TempDir()

	var targets []Target
	for _, f := range []Format{FormatXLSX, FormatHTML, FormatText, FormatXML} {
		targets = append(targets, Target{Format: f, Path: filepath.Join(dir, "out", "report."+f.Ext())})
	}
	require.NoError(t, New(cfg, Options{}).RenderAll(context.Background(), res, targets))

	for _, target := range targets {
		info, err := os.Stat(target.Path)
		require.NoError(t, err, target.Path)
		assert.Positive(t, info.Size(), target.Path)
	}
}

func TestRenderAll_Error(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, sheet())
	dir := t.TempDir()

	err := New(cfg, Options{}).RenderAll(context.Background(), res, []Target{
		{Format: "pdf", Path: filepath.Join(dir, "report.pdf")},
	})
	assert.ErrorContains(t, err, `unknown format "pdf"`)
}

func TestRenderAll_Cancelled(t *testing.T) {
	cfg := config.Default()
	res := build(t, cfg, sheet())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	path := filepath.Join(t.TempDir(), "report.html")
	err := New(cfg, Options{}).RenderAll(ctx, res, []Target{{Format: FormatHTML, Path: path}})
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, path)
}

func TestRecordsText(t *testing.T) {
	cfg := config.Default()
	r := New(cfg, Options{})

	render := func(res *report.Result) string {
		var buf bytes.Buffer
		require.NoError(t, r.RecordsText(&buf, res))
		return buf.String()
	}

	assert.Contains(t, render(nil), MsgLoading)
	assert.Contains(t, render(build(t, cfg, nil)), MsgNoData)

	out := render(build(t, cfg, sheet()))
	assert.Contains(t, out, config.FieldDistrict)
	assert.Contains(t, out, "Satyabadi")
	assert.Contains(t, out, "Nowhere")
	assert.NotContains(t, out, MsgNoData)
}
