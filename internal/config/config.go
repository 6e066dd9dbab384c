// =============================================================================
// Registration Report - Configuration Module
// =============================================================================
//
// This module loads and validates the report configuration. Every knob the
// observed report variants disagreed on lives here instead of in code:
//   - the canonical field list, its display order and raw header aliases
//   - the grouping fields (primary: district, secondary: block)
//   - the numeric fields summed at group and grand-total level
//   - the report columns and labels
//   - the per-page capacity used by the layout planner
//
// LOADING ORDER:
//   1. Read the YAML file (a missing default file falls back to Default())
//   2. Apply defaults for unset options
//   3. Apply environment overrides
//   4. Validate cross references between sections
//
// =============================================================================

package config

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"time"
	_ "time/tzdata"

	"github.com/ginjaninja78/registration-report/internal/types"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up when --config is not given.
const DefaultPath = "regreport.yaml"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config is the root configuration.
type Config struct {
	Source      SourceConfig   `yaml:"source"`
	AMQP        AMQPConfig     `yaml:"amqp"`
	Report      ReportSettings `yaml:"report"`
	Fields      []Field        `yaml:"fields"`
	Grouping    Grouping       `yaml:"grouping"`
	Aggregation Aggregation    `yaml:"aggregation"`
	Columns     []Column       `yaml:"columns"`
	Page        Page           `yaml:"page"`
	CSV         CSVSettings    `yaml:"csv"`
	Output      OutputSettings `yaml:"output"`
}

// SourceConfig selects where records are fetched from and appended to.
type SourceConfig struct {
	// Kind is one of "http", "sqlite", "csv", "xlsx".
	// Default: "http"
	Kind string `yaml:"kind"`

	// URL is the spreadsheet-backed endpoint (kind "http").
	URL string `yaml:"url"`

	// Path is the database or file path (kinds "sqlite", "csv", "xlsx").
	Path string `yaml:"path"`

	// Sheet is the worksheet to read (kind "xlsx"). Empty means the first sheet.
	Sheet string `yaml:"sheet"`

	// HeaderRow is the 1-based row holding the column headers of an XLSX
	// sheet. Data starts on the row below. Downloaded sheets often carry a
	// title row above the headers.
	// Default: 1
	HeaderRow int `yaml:"header_row"`

	// Timeout bounds a single HTTP request.
	// Default: 30s
	Timeout time.Duration `yaml:"timeout"`

	// Retries is the number of extra attempts for a failed HTTP request.
	// Retries never reorder writes: a record is retried before the next one.
	Retries int `yaml:"retries"`
}

// AMQPConfig enables publishing appended records to a queue.
type AMQPConfig struct {
	URL   string `yaml:"url"`
	Queue string `yaml:"queue"`
}

// Enabled reports whether records should also be published to AMQP.
func (a AMQPConfig) Enabled() bool {
	return a.URL != "" && a.Queue != ""
}

// ReportSettings holds presentation settings for the paginated report.
type ReportSettings struct {
	// Title is printed above the first page.
	Title string `yaml:"title"`

	// Locale is a BCP 47 tag used for collation and date formatting.
	// Default: "en-IN"
	Locale string `yaml:"locale"`

	// DateFormat overrides the locale date layout (Go reference time).
	DateFormat string `yaml:"date_format"`

	// DateInputLayouts are tried before the built-in layouts when parsing
	// date fields (Go reference time).
	DateInputLayouts []string `yaml:"date_input_layouts"`

	// Timezone converts timestamps carrying a zone (e.g. "...T18:30:00.000Z")
	// before they are truncated to a calendar day.
	// Default: "Asia/Kolkata"
	Timezone string `yaml:"timezone"`

	// SummaryLabel labels group summary rows. "{group}" is replaced by the key.
	// Default: "Summary"
	SummaryLabel string `yaml:"summary_label"`

	// SectionLabel labels section header rows. "{group}" is replaced by the key.
	// Default: "{group}"
	SectionLabel string `yaml:"section_label"`

	// GrandTotalLabel labels the grand total row. "{FIELD}" placeholders are
	// replaced by the distinct-value count of that field.
	// Default: "STATE TOTAL ({PLACE} Places)"
	GrandTotalLabel string `yaml:"grand_total_label"`

	// LabelColumn is the field whose column carries summary labels.
	// Default: "PLACE"
	LabelColumn string `yaml:"label_column"`

	// BlankZeros renders zero counts on data rows as empty cells.
	// Default: true
	BlankZeros *bool `yaml:"blank_zeros"`
}

// Field declares one canonical field.
type Field struct {
	// Name is the canonical field name.
	Name string `yaml:"name"`

	// Type is "text", "int" or "date".
	// Default: "text"
	Type types.FieldType `yaml:"type"`

	// Aliases are raw header spellings mapped onto this field, in precedence
	// order. The canonical name is always tried first.
	Aliases []string `yaml:"aliases"`

	// Transforms are applied to text values after trimming.
	Transforms []Transform `yaml:"transforms"`

	// Required rejects added records where this field is empty.
	Required bool `yaml:"required"`
}

// Transform is a single value transformation.
type Transform struct {
	// Type is one of: trim, uppercase, lowercase, title_case,
	// normalize_whitespace, replace, regex_replace, lookup.
	Type string `yaml:"type"`

	// Value is the replacement for replace and regex_replace.
	Value string `yaml:"value"`

	// Find is the substring or pattern for replace and regex_replace.
	Find string `yaml:"find,omitempty"`

	// LookupTable maps input values to output values.
	LookupTable map[string]string `yaml:"lookup_table,omitempty"`
}

// Grouping names the hierarchical grouping fields.
type Grouping struct {
	Primary   string `yaml:"primary"`
	Secondary string `yaml:"secondary"`

	// Fallback is the key given to records with an empty primary field.
	// Records in the fallback group never appear in reports.
	// Default: "Unknown"
	Fallback string `yaml:"fallback"`

	// SectionHeaders emits a labeled row before each group's data rows.
	SectionHeaders bool `yaml:"section_headers"`
}

// Aggregation lists the fields summed and counted.
type Aggregation struct {
	SumFields      []string `yaml:"sum_fields"`
	DistinctFields []string `yaml:"distinct_fields"`
}

// Column sources.
const (
	ColumnField  = "field"
	ColumnSerial = "serial"
	ColumnGroup  = "group"
)

// Column is one column of the paginated report.
type Column struct {
	Label string `yaml:"label"`

	// Field is the canonical field shown in this column (source "field").
	Field string `yaml:"field"`

	// Source is "field", "serial" (position within group) or "group"
	// (group key, printed on the group's first row only).
	// Default: "field"
	Source string `yaml:"source"`
}

// Page configures the layout planner.
type Page struct {
	// Capacity is the vertical budget of one page, in row units.
	// Default: 40
	Capacity int `yaml:"capacity"`

	// HeaderHeight is consumed by the column header at the top of each page.
	// Default: 1
	HeaderHeight int `yaml:"header_height"`

	// RowHeights overrides the height of a row kind: section_header, data,
	// group_summary, grand_total. Unset kinds have height 1.
	RowHeights map[string]int `yaml:"row_heights"`
}

// Height returns the configured height of a row kind.
func (p Page) Height(kind types.RowKind) int {
	if h, ok := p.RowHeights[kind.String()]; ok && h > 0 {
		return h
	}
	if kind == types.ColumnHeaderRow && p.HeaderHeight > 0 {
		return p.HeaderHeight
	}
	return 1
}

// CSV decode modes.
const (
	CSVModeNaive   = "naive"
	CSVModeRFC4180 = "rfc4180"
)

// CSVSettings contains settings for reading CSV input.
type CSVSettings struct {
	// Mode is "naive" (positional comma split) or "rfc4180".
	// Default: "naive"
	Mode string `yaml:"mode"`

	// Delimiter is used in rfc4180 mode. Common values: ",", ";", "|", "tab".
	// Default: ","
	Delimiter string `yaml:"delimiter"`

	// Encoding is the character encoding of the input file.
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`
}

// OutputSettings controls where generated files are written.
type OutputSettings struct {
	// Dir is the output directory.
	// Default: "./output"
	Dir string `yaml:"dir"`

	// NameFormat is the report file name pattern.
	// Placeholders: {uuid}, {timestamp}, {kind}
	// Default: "Gitajnana_Report_{timestamp}"
	NameFormat string `yaml:"name_format"`

	// CSVName is the file name used by export.
	// Default: "Gitajnana_Data.csv"
	CSVName string `yaml:"csv_name"`

	// ArchiveByDate files imported sheets under YYYY/MM/DD subdirectories of
	// the archive directory.
	// Default: false
	ArchiveByDate bool `yaml:"archive_by_date"`
}

// =============================================================================
// LOADING
// =============================================================================

// Load reads the configuration at path.
//
// A missing file at DefaultPath is not an error: the built-in Default() is
// used. A missing file anywhere else is.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) && path == DefaultPath {
			cfg := Default()
			cfg.applyEnvOverrides()
			return cfg, cfg.Validate()
		}
		return nil, fmt.Errorf("read config file: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML into a Config, applying defaults, environment
// overrides and validation. Sections absent from the YAML keep their
// Default() values.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	cfg.applyDefaults()
	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// applyDefaults sets default values for any unset options.
func (c *Config) applyDefaults() {
	if c.Source.Kind == "" {
		c.Source.Kind = "http"
	}
	if c.Source.Timeout == 0 {
		c.Source.Timeout = 30 * time.Second
	}
	if c.Source.HeaderRow == 0 {
		c.Source.HeaderRow = 1
	}
	if c.Report.Locale == "" {
		c.Report.Locale = "en-IN"
	}
	if c.Report.Timezone == "" {
		c.Report.Timezone = "Asia/Kolkata"
	}
	if c.Report.SummaryLabel == "" {
		c.Report.SummaryLabel = "Summary"
	}
	if c.Report.SectionLabel == "" {
		c.Report.SectionLabel = "{group}"
	}
	if c.Report.GrandTotalLabel == "" {
		c.Report.GrandTotalLabel = "GRAND TOTAL"
	}
	if c.Report.BlankZeros == nil {
		blank := true
		c.Report.BlankZeros = &blank
	}
	for i := range c.Fields {
		if c.Fields[i].Type == "" {
			c.Fields[i].Type = types.FieldText
		}
	}
	if c.Grouping.Fallback == "" {
		c.Grouping.Fallback = "Unknown"
	}
	for i := range c.Columns {
		if c.Columns[i].Source == "" {
			c.Columns[i].Source = ColumnField
		}
	}
	if c.Page.Capacity == 0 {
		c.Page.Capacity = 40
	}
	if c.Page.HeaderHeight == 0 {
		c.Page.HeaderHeight = 1
	}
	if c.CSV.Mode == "" {
		c.CSV.Mode = CSVModeNaive
	}
	if c.CSV.Delimiter == "" {
		c.CSV.Delimiter = ","
	}
	if c.CSV.Encoding == "" {
		c.CSV.Encoding = "utf-8"
	}
	if c.Output.Dir == "" {
		c.Output.Dir = "./output"
	}
	if c.Output.NameFormat == "" {
		c.Output.NameFormat = "Gitajnana_Report_{timestamp}"
	}
	if c.Output.CSVName == "" {
		c.Output.CSVName = "Gitajnana_Data.csv"
	}
}

// applyEnvOverrides lets deployment settings come from the environment.
func (c *Config) applyEnvOverrides() {
	if v := os.Getenv("REGREPORT_SOURCE_URL"); v != "" {
		c.Source.URL = v
	}
	if v := os.Getenv("REGREPORT_SOURCE_KIND"); v != "" {
		c.Source.Kind = v
	}
	if v := os.Getenv("REGREPORT_SOURCE_PATH"); v != "" {
		c.Source.Path = v
	}
	if v := os.Getenv("REGREPORT_SOURCE_RETRIES"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n >= 0 {
			c.Source.Retries = n
		}
	}
	if v := os.Getenv("REGREPORT_AMQP_URL"); v != "" {
		c.AMQP.URL = v
	}
	if v := os.Getenv("REGREPORT_OUTPUT_DIR"); v != "" {
		c.Output.Dir = v
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks that every field referenced by grouping, aggregation and
// columns is declared, and that the page can hold at least one body row.
func (c *Config) Validate() error {
	var errs []error

	if len(c.Fields) == 0 {
		errs = append(errs, errors.New("no fields declared"))
	}

	seen := make(map[string]bool, len(c.Fields))
	for _, f := range c.Fields {
		if f.Name == "" {
			errs = append(errs, errors.New("field with empty name"))
			continue
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("field %q declared twice", f.Name))
		}
		seen[f.Name] = true

		switch f.Type {
		case types.FieldText, types.FieldInt, types.FieldDate:
		default:
			errs = append(errs, fmt.Errorf("field %q: unknown type %q", f.Name, f.Type))
		}
	}

	requireField := func(where, name string) {
		if name != "" && !seen[name] {
			errs = append(errs, fmt.Errorf("%s: unknown field %q", where, name))
		}
	}

	if c.Grouping.Primary == "" {
		errs = append(errs, errors.New("grouping.primary is required"))
	}
	requireField("grouping.primary", c.Grouping.Primary)
	requireField("grouping.secondary", c.Grouping.Secondary)
	requireField("report.label_column", c.Report.LabelColumn)

	for _, name := range c.Aggregation.SumFields {
		requireField("aggregation.sum_fields", name)
		if f, ok := c.FieldByName(name); ok && f.Type != types.FieldInt {
			errs = append(errs, fmt.Errorf("aggregation.sum_fields: field %q is not an int field", name))
		}
	}
	for _, name := range c.Aggregation.DistinctFields {
		requireField("aggregation.distinct_fields", name)
	}

	for i, col := range c.Columns {
		switch col.Source {
		case ColumnField:
			if col.Field == "" {
				errs = append(errs, fmt.Errorf("columns[%d]: field is required", i))
			}
			requireField(fmt.Sprintf("columns[%d]", i), col.Field)
		case ColumnSerial, ColumnGroup:
		default:
			errs = append(errs, fmt.Errorf("columns[%d]: unknown source %q", i, col.Source))
		}
	}

	switch c.Source.Kind {
	case "http", "sqlite", "csv", "xlsx":
	default:
		errs = append(errs, fmt.Errorf("source.kind: unknown kind %q", c.Source.Kind))
	}
	if c.Source.HeaderRow < 1 {
		errs = append(errs, fmt.Errorf("source.header_row: must be 1 or more, got %d", c.Source.HeaderRow))
	}

	if _, err := time.LoadLocation(c.Report.Timezone); err != nil {
		errs = append(errs, fmt.Errorf("report.timezone: %w", err))
	}

	switch c.CSV.Mode {
	case CSVModeNaive, CSVModeRFC4180:
	default:
		errs = append(errs, fmt.Errorf("csv.mode: unknown mode %q", c.CSV.Mode))
	}

	if body := c.Page.Capacity - c.Page.Height(types.ColumnHeaderRow); body < c.minBodyHeight() {
		errs = append(errs, fmt.Errorf("page.capacity %d leaves no room for a body row", c.Page.Capacity))
	}

	return errors.Join(errs...)
}

// minBodyHeight is the smallest block a continuation page must hold: one data
// row, preceded by a repeated section header when those are enabled.
func (c *Config) minBodyHeight() int {
	h := c.Page.Height(types.DataRow)
	if c.Grouping.SectionHeaders {
		h += c.Page.Height(types.SectionHeaderRow)
	}
	return h
}

// =============================================================================
// LOOKUP HELPERS
// =============================================================================

// FieldNames returns the canonical field names in display order.
func (c *Config) FieldNames() []string {
	names := make([]string, len(c.Fields))
	for i, f := range c.Fields {
		names[i] = f.Name
	}
	return names
}

// FieldByName returns the declaration of a canonical field.
func (c *Config) FieldByName(name string) (Field, bool) {
	i := slices.IndexFunc(c.Fields, func(f Field) bool { return f.Name == name })
	if i < 0 {
		return Field{}, false
	}
	return c.Fields[i], true
}

// Location returns the configured report time zone, UTC if it cannot load.
func (c *Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Report.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// IsSumField reports whether name is aggregated.
func (c *Config) IsSumField(name string) bool {
	return slices.Contains(c.Aggregation.SumFields, name)
}

// ColumnLabels returns the report column header labels.
func (c *Config) ColumnLabels() []string {
	labels := make([]string, len(c.Columns))
	for i, col := range c.Columns {
		labels[i] = col.Label
	}
	return labels
}
