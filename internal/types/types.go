// =============================================================================
// Registration Report - Shared Types
// =============================================================================
//
// This package contains the data model shared by every stage of the report
// pipeline. Keeping it in one leaf package avoids import cycles between:
//   - normalizer
//   - grouper
//   - aggregator
//   - layout
//   - render
//
// All values are snapshots. A stage receives its input, builds new values and
// never mutates what it was given.
//
// =============================================================================

package types

import (
	"errors"
	"strconv"
	"time"
)

// ErrMalformedInput is returned when a source payload cannot be parsed.
// It is non-fatal for the pipeline: the report renders a placeholder instead.
var ErrMalformedInput = errors.New("malformed input")

// DateLayout is the storage form of date values (CSV export, SQLite rows).
const DateLayout = "2006-01-02"

// =============================================================================
// RAW AND NORMALIZED RECORDS
// =============================================================================

// RawRecord is one record as delivered by a source, before normalization.
// Keys are arbitrary header spellings; values are whatever the source decoded
// (string, float64, bool or nil for JSON, string for CSV and XLSX).
type RawRecord map[string]any

// FieldType is the declared type of a canonical field.
type FieldType string

const (
	FieldText FieldType = "text"
	FieldInt  FieldType = "int"
	FieldDate FieldType = "date"
)

// ValueKind tags the content of a Value.
type ValueKind int

const (
	KindEmpty ValueKind = iota
	KindText
	KindInt
	KindDate
)

// Value is a normalized field value.
type Value struct {
	Kind ValueKind
	Text string
	Int  int64
	Date time.Time
}

// TextValue returns a text Value.
func TextValue(s string) Value { return Value{Kind: KindText, Text: s} }

// IntValue returns an integer Value.
func IntValue(n int64) Value { return Value{Kind: KindInt, Int: n} }

// DateValue returns a date Value truncated to the calendar day.
func DateValue(t time.Time) Value {
	y, m, d := t.Date()
	return Value{Kind: KindDate, Date: time.Date(y, m, d, 0, 0, 0, 0, time.UTC)}
}

// IsEmpty reports whether the value carries no content.
// An empty text value is empty; a zero integer is not.
func (v Value) IsEmpty() bool {
	switch v.Kind {
	case KindEmpty:
		return true
	case KindText:
		return v.Text == ""
	default:
		return false
	}
}

// String returns the storage form of the value.
func (v Value) String() string {
	switch v.Kind {
	case KindText:
		return v.Text
	case KindInt:
		return strconv.FormatInt(v.Int, 10)
	case KindDate:
		return v.Date.Format(DateLayout)
	default:
		return ""
	}
}

// Record is a normalized record. Every canonical field is present in Fields.
type Record struct {
	// Index is the position of the record in the input sequence.
	Index int

	// Fields maps canonical field name to its value.
	Fields map[string]Value
}

// Get returns the value of a field (the zero Value when absent).
func (r Record) Get(name string) Value {
	return r.Fields[name]
}

// Text returns the storage form of a field.
func (r Record) Text(name string) string {
	return r.Fields[name].String()
}

// Int returns the integer content of a field, 0 for non-integer fields.
func (r Record) Int(name string) int64 {
	v := r.Fields[name]
	if v.Kind != KindInt {
		return 0
	}
	return v.Int
}

// =============================================================================
// GROUPS AND TOTALS
// =============================================================================

// Totals holds sums keyed by numeric field name.
type Totals map[string]int64

// Clone returns an independent copy.
func (t Totals) Clone() Totals {
	out := make(Totals, len(t))
	for k, v := range t {
		out[k] = v
	}
	return out
}

// Group is the set of records sharing one primary key value.
type Group struct {
	// Key is the primary key (district) value.
	Key string

	// Records are the members, sorted by the secondary key.
	Records []Record

	// Totals is the aggregate over Records. Nil until aggregation.
	Totals Totals
}

// =============================================================================
// LAYOUT
// =============================================================================

// RowKind tags a layout row.
type RowKind int

const (
	// ColumnHeaderRow is the table header repeated at the top of every page.
	ColumnHeaderRow RowKind = iota
	SectionHeaderRow
	DataRow
	GroupSummaryRow
	GrandTotalRow
)

func (k RowKind) String() string {
	switch k {
	case ColumnHeaderRow:
		return "column_header"
	case SectionHeaderRow:
		return "section_header"
	case DataRow:
		return "data"
	case GroupSummaryRow:
		return "group_summary"
	case GrandTotalRow:
		return "grand_total"
	default:
		return "unknown"
	}
}

// Row is one laid-out table row.
type Row struct {
	Kind RowKind

	// GroupKey is set for section header, data and group summary rows.
	GroupKey string

	// Record is set for data rows.
	Record *Record

	// Serial is the 1-based position of a data row within its group.
	Serial int

	// FirstInGroup marks the first data row of a group.
	FirstInGroup bool

	// Totals is set for group summary and grand total rows.
	Totals Totals

	// Continued marks a section header re-emitted on a continuation page.
	Continued bool

	// Label is the rendered label of summary and section rows.
	Label string
}

// Page is one page of rows. The first row is always a ColumnHeaderRow.
type Page struct {
	Number int
	Rows   []Row

	// Used is the capacity consumed by the rows on this page.
	Used int
}

// Layout is the finished, paginated report handed to renderers.
type Layout struct {
	Title   string
	Columns []string
	Pages   []Page
}

// CountRows returns the number of rows of the given kind across all pages.
func (l Layout) CountRows(kind RowKind) int {
	n := 0
	for _, p := range l.Pages {
		for _, r := range p.Rows {
			if r.Kind == kind {
				n++
			}
		}
	}
	return n
}
