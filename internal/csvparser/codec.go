// =============================================================================
// Registration Report - CSV Codec
// =============================================================================
//
// Plain-text export and import of registration records.
//
// EXPORT FORMAT:
//   - Line 1: canonical field names joined by ","
//   - Each following line: every value in storage form, wrapped in double
//     quotes and joined by ","
//   - Lines joined by "\n"
//   - A line break inside a value is written as one space, so a record never
//     spans two lines (coordinator and address cells often hold breaks)
//
// KNOWN LIMITATIONS (kept for compatibility with existing exports):
//   - Embedded double quotes are not escaped on export.
//   - The naive decoder splits on every ",", so values containing commas do
//     not survive a round trip. Use `csv.mode: rfc4180` for files written by
//     spreadsheet programs.
//
// =============================================================================

package csvparser

import (
	"strings"

	"github.com/ginjaninja78/registration-report/internal/types"
)

var lineBreaks = strings.NewReplacer("\r\n", " ", "\n", " ", "\r", " ")

// Encode writes records as CSV text with one column per field, in order.
func Encode(records []types.Record, fields []string) string {
	lines := make([]string, 0, len(records)+1)
	lines = append(lines, strings.Join(fields, ","))

	values := make([]string, len(fields))
	for _, rec := range records {
		for i, f := range fields {
			values[i] = `"` + lineBreaks.Replace(rec.Text(f)) + `"`
		}
		lines = append(lines, strings.Join(values, ","))
	}
	return strings.Join(lines, "\n")
}

// Decode parses CSV text in naive mode.
//
// Blank lines are dropped. The first remaining line holds the headers. Values
// are matched to headers by position. Headers and values alike have double
// quotes removed and whitespace trimmed. A line with fewer values than headers leaves the
// trailing keys absent; extra values are ignored. Empty input yields no
// records and no error.
func Decode(text string) ([]types.RawRecord, error) {
	var lines []string
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) != "" {
			lines = append(lines, line)
		}
	}
	if len(lines) == 0 {
		return []types.RawRecord{}, nil
	}

	headers := strings.Split(lines[0], ",")
	for i, h := range headers {
		headers[i] = cleanValue(h)
	}

	records := make([]types.RawRecord, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := strings.Split(line, ",")
		rec := make(types.RawRecord, len(headers))
		for i, h := range headers {
			if i >= len(values) {
				break
			}
			rec[h] = cleanValue(values[i])
		}
		records = append(records, rec)
	}
	return records, nil
}

func cleanValue(s string) string {
	return strings.TrimSpace(strings.ReplaceAll(s, `"`, ""))
}
