// =============================================================================
// Registration Report - Aggregator
// =============================================================================
//
// The aggregator computes, over completed groups:
//   - per-group totals of every configured numeric field
//   - the grand total over all reported records
//   - distinct-value counts of auxiliary fields (used in labels such as
//     "STATE TOTAL (12 Places)")
//
// Totals are always recomputed from the full group snapshot. Records of the
// fallback group are removed by the grouper and never reach this package.
//
// =============================================================================

package aggregator

import (
	"strings"

	"github.com/ginjaninja78/registration-report/internal/types"
)

// Aggregator sums numeric fields and counts distinct values.
type Aggregator struct {
	sumFields      []string
	distinctFields []string
}

// Summary is the aggregated view of a grouped record set.
type Summary struct {
	// Groups are copies of the input groups with Totals filled in.
	Groups []types.Group

	// GrandTotal sums every configured field over all groups.
	GrandTotal types.Totals

	// Distinct maps a field to the number of distinct non-empty values.
	Distinct map[string]int

	// Records is the number of aggregated records.
	Records int
}

// New creates an Aggregator.
func New(sumFields, distinctFields []string) *Aggregator {
	return &Aggregator{
		sumFields:      append([]string(nil), sumFields...),
		distinctFields: append([]string(nil), distinctFields...),
	}
}

// Aggregate computes group totals, the grand total and distinct counts.
// The input groups are not modified.
func (a *Aggregator) Aggregate(groups []types.Group) Summary {
	summary := Summary{
		Groups:     make([]types.Group, 0, len(groups)),
		GrandTotal: a.zero(),
		Distinct:   make(map[string]int, len(a.distinctFields)),
	}

	seen := make(map[string]map[string]struct{}, len(a.distinctFields))
	for _, f := range a.distinctFields {
		seen[f] = make(map[string]struct{})
	}

	for _, g := range groups {
		totals := a.Totals(g.Records)
		for field, v := range totals {
			summary.GrandTotal[field] += v
		}

		for _, r := range g.Records {
			for _, f := range a.distinctFields {
				if v := strings.TrimSpace(r.Text(f)); v != "" {
					seen[f][v] = struct{}{}
				}
			}
		}

		summary.Groups = append(summary.Groups, types.Group{
			Key:     g.Key,
			Records: append([]types.Record(nil), g.Records...),
			Totals:  totals,
		})
		summary.Records += len(g.Records)
	}

	for f, values := range seen {
		summary.Distinct[f] = len(values)
	}
	return summary
}

// Totals sums the configured fields over records.
func (a *Aggregator) Totals(records []types.Record) types.Totals {
	totals := a.zero()
	for _, r := range records {
		for _, f := range a.sumFields {
			totals[f] += r.Int(f)
		}
	}
	return totals
}

func (a *Aggregator) zero() types.Totals {
	t := make(types.Totals, len(a.sumFields))
	for _, f := range a.sumFields {
		t[f] = 0
	}
	return t
}
