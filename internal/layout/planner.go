// =============================================================================
// Registration Report - Pagination / Layout Planner
// =============================================================================
//
// The planner turns aggregated groups into typed rows with explicit page
// boundaries. Renderers only draw what the planner decided.
//
// PAGE MODEL:
//   - Every page starts with the column header row.
//   - A page holds `capacity` units; each row kind has a configured height.
//   - A group's unit is: [section header] + data rows + group summary row.
//
// PLACEMENT RULES:
//   1. A unit that fits the remaining space is emitted whole.
//   2. A unit that does not fit a page with content starts a new page.
//   3. A unit taller than an empty page is emitted row by row and spills over
//      as many pages as needed. Continuation pages repeat the column header
//      and, with section headers enabled, a "continued" section header.
//   4. The grand total row comes last, on a new page if it does not fit.
//   5. A single row taller than an empty page is still placed.
//
// With zero groups the layout is one page: column header + grand total.
//
// =============================================================================

package layout

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/ginjaninja78/registration-report/internal/aggregator"
	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/types"
)

// Options holds the presentation inputs of a layout.
type Options struct {
	Title   string
	Columns []string

	// SectionHeaders emits a labeled row before each group's data rows.
	SectionHeaders bool

	// Labels. "{group}" expands to the group key; "{FIELD}" expands to the
	// distinct count of FIELD.
	SummaryLabel    string
	SectionLabel    string
	GrandTotalLabel string
}

// Planner lays out aggregated groups onto pages.
type Planner struct {
	page config.Page
	opts Options
}

// New creates a Planner. It fails when a page cannot hold the column header
// plus one body row.
func New(page config.Page, opts Options) (*Planner, error) {
	if page.Capacity <= 0 {
		return nil, fmt.Errorf("page capacity must be positive, got %d", page.Capacity)
	}
	need := page.Height(types.DataRow)
	if opts.SectionHeaders {
		need += page.Height(types.SectionHeaderRow)
	}
	if body := page.Capacity - page.Height(types.ColumnHeaderRow); body < need {
		return nil, fmt.Errorf("page capacity %d leaves no room for a body row", page.Capacity)
	}
	if opts.SummaryLabel == "" {
		opts.SummaryLabel = "Summary"
	}
	if opts.SectionLabel == "" {
		opts.SectionLabel = "{group}"
	}
	if opts.GrandTotalLabel == "" {
		opts.GrandTotalLabel = "GRAND TOTAL"
	}
	return &Planner{page: page, opts: opts}, nil
}

// FromConfig creates a Planner from the report configuration.
func FromConfig(cfg *config.Config) (*Planner, error) {
	return New(cfg.Page, Options{
		Title:           cfg.Report.Title,
		Columns:         cfg.ColumnLabels(),
		SectionHeaders:  cfg.Grouping.SectionHeaders,
		SummaryLabel:    cfg.Report.SummaryLabel,
		SectionLabel:    cfg.Report.SectionLabel,
		GrandTotalLabel: cfg.Report.GrandTotalLabel,
	})
}

// =============================================================================
// PLANNING
// =============================================================================

type state int

const (
	awaitingGroup state = iota
	emittingGroup
	pageFull
)

// run is the mutable state of a single Plan call.
type run struct {
	p      *Planner
	layout types.Layout
	state  state

	// fresh is true while the current page holds only repeated headers.
	fresh bool
}

// Plan lays out the summary. The summary is not modified.
func (p *Planner) Plan(s aggregator.Summary) types.Layout {
	r := &run{
		p: p,
		layout: types.Layout{
			Title:   p.opts.Title,
			Columns: append([]string(nil), p.opts.Columns...),
		},
	}
	r.newPage()

	for _, g := range s.Groups {
		r.placeGroup(g.Key, p.unit(g))
	}

	r.placeGrandTotal(types.Row{
		Kind:   types.GrandTotalRow,
		Totals: s.GrandTotal.Clone(),
		Label:  expand(p.opts.GrandTotalLabel, "", s.Distinct),
	})
	return r.layout
}

// unit builds the rows of one group.
func (p *Planner) unit(g types.Group) []types.Row {
	rows := make([]types.Row, 0, len(g.Records)+2)
	if p.opts.SectionHeaders {
		rows = append(rows, p.sectionHeader(g.Key, false))
	}
	for i := range g.Records {
		rec := g.Records[i]
		rows = append(rows, types.Row{
			Kind:         types.DataRow,
			GroupKey:     g.Key,
			Record:       &rec,
			Serial:       i + 1,
			FirstInGroup: i == 0,
		})
	}
	rows = append(rows, types.Row{
		Kind:     types.GroupSummaryRow,
		GroupKey: g.Key,
		Totals:   g.Totals.Clone(),
		Label:    expand(p.opts.SummaryLabel, g.Key, nil),
	})
	return rows
}

func (p *Planner) sectionHeader(key string, continued bool) types.Row {
	return types.Row{
		Kind:      types.SectionHeaderRow,
		GroupKey:  key,
		Continued: continued,
		Label:     expand(p.opts.SectionLabel, key, nil),
	}
}

// placeGroup runs the placement state machine for one group's unit.
func (r *run) placeGroup(key string, pending []types.Row) {
	r.state = awaitingGroup
	started := false

	for len(pending) > 0 {
		switch r.state {
		case awaitingGroup:
			if r.height(pending...) > r.remaining() && !r.fresh {
				r.state = pageFull
				continue
			}
			r.state = emittingGroup

		case emittingGroup:
			row := pending[0]
			if r.height(row) > r.remaining() && !r.fresh {
				r.state = pageFull
				continue
			}
			r.add(row)
			pending = pending[1:]
			started = true

		case pageFull:
			r.newPage()
			if started && r.p.opts.SectionHeaders && pending[0].Kind != types.SectionHeaderRow {
				r.add(r.p.sectionHeader(key, true))
				r.fresh = true
			}
			r.state = emittingGroup
		}
	}
	r.state = awaitingGroup
}

func (r *run) placeGrandTotal(row types.Row) {
	if r.height(row) > r.remaining() && !r.fresh {
		r.newPage()
	}
	r.add(row)
}

func (r *run) newPage() {
	r.layout.Pages = append(r.layout.Pages, types.Page{Number: len(r.layout.Pages) + 1})
	r.add(types.Row{Kind: types.ColumnHeaderRow})
	r.fresh = true
}

func (r *run) add(row types.Row) {
	page := &r.layout.Pages[len(r.layout.Pages)-1]
	page.Rows = append(page.Rows, row)
	page.Used += r.p.page.Height(row.Kind)
	r.fresh = false
}

func (r *run) remaining() int {
	return r.p.page.Capacity - r.layout.Pages[len(r.layout.Pages)-1].Used
}

func (r *run) height(rows ...types.Row) int {
	h := 0
	for _, row := range rows {
		h += r.p.page.Height(row.Kind)
	}
	return h
}

// =============================================================================
// LABELS
// =============================================================================

var placeholderRe = regexp.MustCompile(`\{([^{}]+)\}`)

// expand replaces {group} with key and {FIELD} with the distinct count of
// FIELD. Unknown placeholders are kept verbatim.
func expand(label, key string, distinct map[string]int) string {
	if !strings.Contains(label, "{") {
		return label
	}
	return placeholderRe.ReplaceAllStringFunc(label, func(m string) string {
		name := m[1 : len(m)-1]
		if name == "group" {
			return key
		}
		if n, ok := distinct[name]; ok {
			return strconv.Itoa(n)
		}
		return m
	})
}
