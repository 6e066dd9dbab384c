// =============================================================================
// Registration Report - Renderers
// =============================================================================
//
// This package draws a finished report. Renderers never reorder, regroup or
// recompute anything: they walk the Layout page by page and print the cells
// the Formatter gives them.
//
// FORMATS:
//   xlsx : workbook with a title row, styled header and a page break before
//          every page after the first
//   html : printable document, one table per page, CSS page breaks
//   text : terminal preview, one lipgloss table per page
//   xml  : <report><page n="1"><row kind="data">... for downstream systems
//
// A malformed source payload is not an error here: every format draws the
// "Error loading data" placeholder instead of pages.
//
// CUSTOMIZATION:
//   - Change sheet names, XML element names and indentation via Options
//   - Add a format by implementing a method with the Render signature and
//     registering it in formatRenderers
//
// =============================================================================

package render

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/report"
)

// Format is an output format.
type Format string

const (
	FormatXLSX Format = "xlsx"
	FormatHTML Format = "html"
	FormatText Format = "text"
	FormatXML  Format = "xml"
)

// Ext returns the file extension of the format, without the dot.
func (f Format) Ext() string {
	if f == FormatText {
		return "txt"
	}
	return string(f)
}

// ParseFormats parses a comma-separated format list such as "xlsx,html".
// Duplicates are dropped and order is kept.
func ParseFormats(s string) ([]Format, error) {
	var formats []Format
	seen := make(map[Format]bool)
	for _, part := range strings.Split(s, ",") {
		f := Format(strings.ToLower(strings.TrimSpace(part)))
		if f == "" {
			continue
		}
		if _, ok := formatRenderers[f]; !ok {
			return nil, fmt.Errorf("unknown format %q (valid: xlsx, html, text, xml)", part)
		}
		if !seen[f] {
			seen[f] = true
			formats = append(formats, f)
		}
	}
	if len(formats) == 0 {
		return nil, fmt.Errorf("no output format given")
	}
	return formats, nil
}

// =============================================================================
// RENDER OPTIONS
// =============================================================================

// Options contains renderer settings.
type Options struct {
	// Title overrides the layout title.
	Title string

	// SheetName is the XLSX worksheet name.
	// Default: "Report"
	SheetName string

	// Indent is the XML indentation string.
	// Default: "  " (two spaces)
	Indent string

	// IncludeXMLDeclaration writes <?xml version="1.0" encoding="UTF-8"?>.
	// Default: true
	IncludeXMLDeclaration bool
}

// DefaultOptions returns the default render options.
func DefaultOptions() Options {
	return Options{
		SheetName:             "Report",
		Indent:                "  ",
		IncludeXMLDeclaration: true,
	}
}

// Renderer draws reports for one configuration.
type Renderer struct {
	cells  *Formatter
	fields []string
	opts   Options
}

// New creates a Renderer. Unset options take their defaults.
func New(cfg *config.Config, opts Options) *Renderer {
	def := DefaultOptions()
	if opts.SheetName == "" {
		opts.SheetName = def.SheetName
	}
	if opts.Indent == "" {
		opts.Indent = def.Indent
	}
	return &Renderer{
		cells:  NewFormatter(cfg),
		fields: cfg.FieldNames(),
		opts:   opts,
	}
}

type renderFunc func(r *Renderer, w io.Writer, res *report.Result) error

var formatRenderers = map[Format]renderFunc{
	FormatXLSX: (*Renderer).XLSX,
	FormatHTML: (*Renderer).HTML,
	FormatText: (*Renderer).Text,
	FormatXML:  (*Renderer).XML,
}

// Render writes res in the given format.
func (r *Renderer) Render(format Format, w io.Writer, res *report.Result) error {
	fn, ok := formatRenderers[format]
	if !ok {
		return fmt.Errorf("unknown format %q", format)
	}
	return fn(r, w, res)
}

func (r *Renderer) title(res *report.Result) string {
	if r.opts.Title != "" {
		return r.opts.Title
	}
	return res.Layout.Title
}

// =============================================================================
// FILE OUTPUT
// =============================================================================

// Target is one artifact to write.
type Target struct {
	Format Format
	Path   string
}

// RenderAll writes every target concurrently. Renderers only read res, so
// they share it. The first failure cancels the targets not yet started and
// is returned; files already written are kept.
func (r *Renderer) RenderAll(ctx context.Context, res *report.Result, targets []Target) error {
	eg, egCtx := errgroup.WithContext(ctx)
	for _, t := range targets {
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			if err := r.renderFile(t, res); err != nil {
				return fmt.Errorf("render %s to %s: %w", t.Format, t.Path, err)
			}
			return nil
		})
	}
	return eg.Wait()
}

func (r *Renderer) renderFile(t Target, res *report.Result) (err error) {
	if err := os.MkdirAll(filepath.Dir(t.Path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	f, err := os.Create(t.Path)
	if err != nil {
		return fmt.Errorf("failed to create file: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()
	return r.Render(t.Format, f, res)
}
