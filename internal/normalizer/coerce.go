package normalizer

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/registration-report/internal/types"
	"github.com/xuri/excelize/v2"
)

// builtinDateLayouts are tried in order. Slash and dash forms are day-first,
// the convention of the registration sheets: 03/04/2024 is 3 April. Sheets
// written month-first need report.date_input_layouts.
var builtinDateLayouts = []string{
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02/01/2006",
	"2/1/2006",
	"02-01-2006",
	"2-1-2006",
	"02.01.2006",
	"January 2, 2006",
	"Jan 2, 2006",
	"2 January 2006",
	"2 Jan 2006",
}

// maxExcelSerial is 9999-12-31 in the 1900 date system.
const maxExcelSerial = 2958465

// coerceInt parses a numeric cell. Fractions truncate toward zero; thousands
// separators are ignored; anything unparsable is 0.
func coerceInt(v any) int64 {
	switch x := v.(type) {
	case nil, bool:
		return 0
	case int:
		return int64(x)
	case int64:
		return x
	case float64:
		return floatToInt(x)
	case string:
		return parseInt(x)
	default:
		return parseInt(fmt.Sprint(x))
	}
}

func parseInt(s string) int64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", "")
	if s == "" {
		return 0
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return floatToInt(f)
}

func floatToInt(f float64) int64 {
	if math.IsNaN(f) || math.IsInf(f, 0) || math.Abs(f) >= math.MaxInt64 {
		return 0
	}
	return int64(f)
}

// coerceDate parses a date cell. Numbers are spreadsheet serial days.
// Failure yields an empty value, never an error.
func coerceDate(v any, layouts []string, loc *time.Location) types.Value {
	switch x := v.(type) {
	case time.Time:
		return types.DateValue(x.In(loc))
	case float64:
		return serialDate(x)
	case int:
		return serialDate(float64(x))
	case int64:
		return serialDate(float64(x))
	case string:
		s := strings.TrimSpace(x)
		if s == "" {
			return types.Value{}
		}
		for _, layout := range layouts {
			t, err := time.Parse(layout, s)
			if err != nil {
				continue
			}
			if hasZone(layout) {
				t = t.In(loc)
			}
			return types.DateValue(t)
		}
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return serialDate(f)
		}
		return types.Value{}
	default:
		return types.Value{}
	}
}

func hasZone(layout string) bool {
	return strings.Contains(layout, "Z07") || strings.Contains(layout, "MST") || strings.Contains(layout, "-07")
}

func serialDate(f float64) types.Value {
	if math.IsNaN(f) || f < 1 || f > maxExcelSerial {
		return types.Value{}
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return types.Value{}
	}
	return types.DateValue(t)
}

// coerceText formats a scalar cell and trims it.
func coerceText(v any) string {
	var s string
	switch x := v.(type) {
	case nil:
		return ""
	case string:
		s = x
	case float64:
		s = strconv.FormatFloat(x, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(x)
	case time.Time:
		s = x.Format(types.DateLayout)
	default:
		s = fmt.Sprint(x)
	}
	return strings.TrimSpace(s)
}
