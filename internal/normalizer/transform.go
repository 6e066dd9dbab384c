// =============================================================================
// Registration Report - Value Transformations
// =============================================================================
//
// Optional per-field transformations applied to text values after trimming.
// They exist for sheets where the same district is typed several ways
// ("khordha", "KHORDHA ", "Khurda") and the report should fold them into one
// group. With no transforms configured the grouping key stays case-sensitive.
//
// SUPPORTED TRANSFORMATIONS:
//   - trim                 : remove leading and trailing whitespace
//   - uppercase, lowercase : change case
//   - title_case           : first letter of each word capitalized
//   - normalize_whitespace : collapse whitespace runs to one space
//   - replace              : replace every Find with Value
//   - regex_replace        : replace matches of Find with Value
//   - lookup               : replace the whole value through LookupTable
//
// =============================================================================

package normalizer

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/registration-report/internal/config"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type transformFunc func(string) string

// compileTransform turns a transform definition into a function.
func compileTransform(t config.Transform) (transformFunc, error) {
	switch t.Type {
	case "trim":
		return strings.TrimSpace, nil

	case "uppercase":
		return func(s string) string { return cases.Upper(language.Und).String(s) }, nil

	case "lowercase":
		return func(s string) string { return cases.Lower(language.Und).String(s) }, nil

	case "title_case":
		// Example: "NEW  delhi" -> "New  Delhi"
		return func(s string) string { return cases.Title(language.Und).String(s) }, nil

	case "normalize_whitespace":
		return CanonicalKey, nil

	case "replace":
		if t.Find == "" {
			return nil, fmt.Errorf("transform replace: find is required")
		}
		return func(s string) string { return strings.ReplaceAll(s, t.Find, t.Value) }, nil

	case "regex_replace":
		if t.Find == "" {
			return nil, fmt.Errorf("transform regex_replace: find is required")
		}
		re, err := regexp.Compile(t.Find)
		if err != nil {
			return nil, fmt.Errorf("transform regex_replace: invalid pattern: %w", err)
		}
		return func(s string) string { return re.ReplaceAllString(s, t.Value) }, nil

	case "lookup":
		table := make(map[string]string, len(t.LookupTable))
		for k, v := range t.LookupTable {
			table[k] = v
		}
		return func(s string) string {
			if replacement, ok := table[s]; ok {
				return replacement
			}
			return s
		}, nil

	default:
		return nil, fmt.Errorf("unknown transformation type: %s", t.Type)
	}
}
