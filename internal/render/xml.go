package render

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/ginjaninja78/registration-report/internal/report"
	"github.com/ginjaninja78/registration-report/internal/types"
)

// =============================================================================
// XML OUTPUT
// =============================================================================
//
// STRUCTURE:
//
//   <report id="..." title="..." generated="2025-01-15T10:00:00Z">
//     <page n="1">
//       <row kind="column_header">
//         <cell column="SL. NO.">SL. NO.</cell>
//         ...
//       </row>
//       <row kind="data" group="Angul" serial="1">
//         <cell column="Block">Talcher</cell>
//         <cell column="A"/>                  <!-- blank zero -->
//       </row>
//       <row kind="group_summary" group="Angul">...</row>
//     </page>
//   </report>
//
// A malformed source produces <report error="Error loading data"/>.

// xmlElement is a generic XML element.
type xmlElement struct {
	XMLName    xml.Name
	Attributes []xml.Attr
	Value      string
	Children   []xmlElement
}

// XML writes the report as an XML document.
func (r *Renderer) XML(w io.Writer, res *report.Result) error {
	var buffer bytes.Buffer

	if r.opts.IncludeXMLDeclaration {
		buffer.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	}
	writeElement(&buffer, r.buildDocument(res), r.opts.Indent, 0)

	if _, err := w.Write(buffer.Bytes()); err != nil {
		return fmt.Errorf("failed to write XML: %w", err)
	}
	return nil
}

func (r *Renderer) buildDocument(res *report.Result) xmlElement {
	doc := xmlElement{
		XMLName: xml.Name{Local: "report"},
		Attributes: []xml.Attr{
			attr("id", res.ReportID),
			attr("title", r.title(res)),
		},
	}
	if !res.GeneratedAt.IsZero() {
		doc.Attributes = append(doc.Attributes, attr("generated", res.GeneratedAt.UTC().Format("2006-01-02T15:04:05Z")))
	}
	if res.Malformed {
		doc.Attributes = append(doc.Attributes, attr("error", MsgError))
		return doc
	}

	labels := r.cells.Labels()
	for _, page := range res.Layout.Pages {
		pageElement := xmlElement{
			XMLName:    xml.Name{Local: "page"},
			Attributes: []xml.Attr{attr("n", strconv.Itoa(page.Number))},
		}
		for _, row := range page.Rows {
			pageElement.Children = append(pageElement.Children, r.buildRowElement(row, labels))
		}
		doc.Children = append(doc.Children, pageElement)
	}
	return doc
}

func (r *Renderer) buildRowElement(row types.Row, labels []string) xmlElement {
	element := xmlElement{
		XMLName:    xml.Name{Local: "row"},
		Attributes: []xml.Attr{attr("kind", row.Kind.String())},
	}
	if row.GroupKey != "" {
		element.Attributes = append(element.Attributes, attr("group", row.GroupKey))
	}
	switch row.Kind {
	case types.DataRow:
		element.Attributes = append(element.Attributes, attr("serial", strconv.Itoa(row.Serial)))
	case types.SectionHeaderRow:
		if row.Continued {
			element.Attributes = append(element.Attributes, attr("continued", "true"))
		}
	}
	if row.Label != "" {
		element.Attributes = append(element.Attributes, attr("label", row.Label))
	}

	for i, value := range r.cells.Cells(row) {
		if row.Kind == types.SectionHeaderRow && value == "" {
			continue
		}
		element.Children = append(element.Children, xmlElement{
			XMLName:    xml.Name{Local: "cell"},
			Attributes: []xml.Attr{attr("column", labels[i])},
			Value:      value,
		})
	}
	return element
}

func attr(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// writeElement writes an element and its children with indentation.
func writeElement(buffer *bytes.Buffer, element xmlElement, indent string, level int) {
	buffer.WriteString(strings.Repeat(indent, level))

	buffer.WriteString("<")
	buffer.WriteString(element.XMLName.Local)
	for _, a := range element.Attributes {
		fmt.Fprintf(buffer, ` %s="%s"`, a.Name.Local, escapeXML(a.Value))
	}

	if len(element.Children) == 0 && element.Value == "" {
		buffer.WriteString("/>\n")
		return
	}
	buffer.WriteString(">")

	if element.Value != "" {
		buffer.WriteString(escapeXML(element.Value))
	} else {
		buffer.WriteString("\n")
		for _, child := range element.Children {
			writeElement(buffer, child, indent, level+1)
		}
		buffer.WriteString(strings.Repeat(indent, level))
	}

	buffer.WriteString("</")
	buffer.WriteString(element.XMLName.Local)
	buffer.WriteString(">\n")
}

var xmlEscaper = strings.NewReplacer(
	"&", "&amp;",
	"<", "&lt;",
	">", "&gt;",
	`"`, "&quot;",
	"'", "&apos;",
	"\n", "&#xA;",
)

// escapeXML escapes special characters for XML text and attributes.
func escapeXML(s string) string {
	return xmlEscaper.Replace(s)
}
