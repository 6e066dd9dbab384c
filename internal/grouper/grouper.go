// =============================================================================
// Registration Report - Hierarchical Grouper
// =============================================================================
//
// The grouper partitions normalized records by the primary field (district)
// and orders each partition by the secondary field (block).
//
// GROUPING RULES:
//   - The primary key is the trimmed text of the primary field, compared
//     case-sensitively.
//   - Records with an empty primary key go to the fallback group ("Unknown").
//     The fallback group is NOT returned with the report groups: it is set
//     aside here, before aggregation, so it can never leak into any total.
//   - Groups are ordered by locale-aware comparison of their keys.
//   - Records inside a group are stable-sorted by the secondary key with the
//     same comparison. Empty secondary keys are ordinary empty strings.
//
// Grouping is a single pass over a closed input; groups are not mutated after
// they are returned.
//
// =============================================================================

package grouper

import (
	"sort"
	"strings"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/types"
)

// Grouper builds ordered groups from normalized records.
type Grouper struct {
	primary   string
	secondary string
	fallback  string
	collator  *Collator
}

// Result is the outcome of grouping one record sequence.
type Result struct {
	// Groups are the report groups in key order. The fallback group is never
	// among them.
	Groups []types.Group

	// Fallback holds the records without a primary key, or nil if none.
	Fallback *types.Group

	// Excluded is the number of records in Fallback.
	Excluded int
}

// New creates a Grouper.
func New(cfg config.Grouping, locale string) (*Grouper, error) {
	collator, err := NewCollator(locale)
	if err != nil {
		return nil, err
	}
	fallback := cfg.Fallback
	if fallback == "" {
		fallback = "Unknown"
	}
	return &Grouper{
		primary:   cfg.Primary,
		secondary: cfg.Secondary,
		fallback:  fallback,
		collator:  collator,
	}, nil
}

// Group partitions records. The input slice is not modified.
func (g *Grouper) Group(records []types.Record) Result {
	buckets := make(map[string][]types.Record)
	var keys []string

	for _, rec := range records {
		key := strings.TrimSpace(rec.Text(g.primary))
		if key == "" {
			key = g.fallback
		}
		if _, exists := buckets[key]; !exists {
			keys = append(keys, key)
		}
		buckets[key] = append(buckets[key], rec)
	}

	sort.Slice(keys, func(i, j int) bool {
		return g.collator.Compare(keys[i], keys[j]) < 0
	})

	var result Result
	for _, key := range keys {
		members := buckets[key]
		g.sortMembers(members)

		group := types.Group{Key: key, Records: members}
		if key == g.fallback {
			result.Fallback = &group
			result.Excluded = len(members)
			continue
		}
		result.Groups = append(result.Groups, group)
	}
	return result
}

// sortMembers orders a group's records by the secondary key, keeping input
// order for equal keys.
func (g *Grouper) sortMembers(members []types.Record) {
	if g.secondary == "" {
		return
	}
	sort.SliceStable(members, func(i, j int) bool {
		return g.collator.Compare(members[i].Text(g.secondary), members[j].Text(g.secondary)) < 0
	})
}
