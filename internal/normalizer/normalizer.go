// =============================================================================
// Registration Report - Record Normalizer
// =============================================================================
//
// The normalizer turns loosely-typed source records into canonical records.
// Raw sheets are inconsistent: header cells carry embedded line breaks,
// doubled spaces and mixed capitalization, and numeric cells arrive as JSON
// numbers, strings or blanks.
//
// NORMALIZATION STEPS (per record):
//   1. Canonicalize every raw key (collapse whitespace, trim)
//   2. Resolve raw keys to canonical fields through the alias table
//   3. Pick one raw value per field: the first non-empty one wins
//   4. Coerce the value to the declared field type
//   5. Default every field that got no value
//
// ALIAS PRECEDENCE:
//   Candidates are ordered by the alias position in the table (the canonical
//   name is always first) and then by raw key byte order. The order does not
//   depend on map iteration order, so the result is deterministic.
//
// =============================================================================

package normalizer

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/types"
	"golang.org/x/text/cases"
)

// Normalizer maps raw records onto the canonical field set.
type Normalizer struct {
	fields []fieldSpec

	// aliases maps a folded, canonicalized alias to the fields it feeds.
	aliases map[string][]aliasRef

	dateLayouts []string
	location    *time.Location
}

type fieldSpec struct {
	config.Field
	transforms []transformFunc
}

type aliasRef struct {
	field    int
	position int
}

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithDateLayouts adds date layouts tried before the built-in ones.
func WithDateLayouts(layouts ...string) Option {
	return func(n *Normalizer) {
		n.dateLayouts = append(append([]string{}, layouts...), n.dateLayouts...)
	}
}

// WithLocation sets the zone that zoned timestamps are converted to before
// being truncated to a day.
func WithLocation(loc *time.Location) Option {
	return func(n *Normalizer) {
		if loc != nil {
			n.location = loc
		}
	}
}

// New builds a Normalizer for the declared fields.
// Transform definitions are compiled here so that a bad pattern fails early.
func New(fields []config.Field, opts ...Option) (*Normalizer, error) {
	n := &Normalizer{
		fields:      make([]fieldSpec, len(fields)),
		aliases:     make(map[string][]aliasRef),
		dateLayouts: append([]string{}, builtinDateLayouts...),
		location:    time.UTC,
	}

	for i, f := range fields {
		spec := fieldSpec{Field: f}
		for _, t := range f.Transforms {
			fn, err := compileTransform(t)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", f.Name, err)
			}
			spec.transforms = append(spec.transforms, fn)
		}
		n.fields[i] = spec

		names := append([]string{f.Name}, f.Aliases...)
		for pos, alias := range names {
			key := foldKey(alias)
			if key == "" || n.hasAlias(key, i) {
				continue
			}
			n.aliases[key] = append(n.aliases[key], aliasRef{field: i, position: pos})
		}
	}

	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

func (n *Normalizer) hasAlias(key string, field int) bool {
	for _, ref := range n.aliases[key] {
		if ref.field == field {
			return true
		}
	}
	return false
}

// FromConfig builds the Normalizer described by a report configuration.
func FromConfig(cfg *config.Config) (*Normalizer, error) {
	return New(cfg.Fields,
		WithDateLayouts(cfg.Report.DateInputLayouts...),
		WithLocation(cfg.Location()),
	)
}

// Fields returns the canonical field names in declaration order.
func (n *Normalizer) Fields() []string {
	names := make([]string, len(n.fields))
	for i, f := range n.fields {
		names[i] = f.Name
	}
	return names
}

// Resolve returns the canonical field fed by a raw key. When a key feeds
// several fields, the one whose alias list ranks it highest wins.
func (n *Normalizer) Resolve(rawKey string) (string, bool) {
	refs := n.aliases[foldKey(rawKey)]
	if len(refs) == 0 {
		return "", false
	}
	best := refs[0]
	for _, ref := range refs[1:] {
		if ref.position < best.position {
			best = ref
		}
	}
	return n.fields[best.field].Name, true
}

// ParseDate parses a date cell exactly as Normalize does. An unparsable value
// yields an empty Value.
func (n *Normalizer) ParseDate(v any) types.Value {
	return coerceDate(v, n.dateLayouts, n.location)
}

// =============================================================================
// NORMALIZATION
// =============================================================================

// NormalizeAll normalizes a record sequence, keeping input order.
func (n *Normalizer) NormalizeAll(raws []types.RawRecord) []types.Record {
	out := make([]types.Record, len(raws))
	for i, raw := range raws {
		out[i] = n.Normalize(raw, i)
	}
	return out
}

// Normalize produces the canonical form of one raw record.
func (n *Normalizer) Normalize(raw types.RawRecord, index int) types.Record {
	candidates := n.candidates(raw)

	rec := types.Record{
		Index:  index,
		Fields: make(map[string]types.Value, len(n.fields)),
	}
	for i, f := range n.fields {
		var value any
		for _, c := range candidates[i] {
			if v := raw[c.key]; !isEmptyRaw(v) {
				value = v
				break
			}
		}
		rec.Fields[f.Name] = n.coerce(f, value)
	}
	return rec
}

type candidate struct {
	key      string
	position int
}

// candidates lists, per field, the raw keys that feed it in precedence order.
func (n *Normalizer) candidates(raw types.RawRecord) [][]candidate {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := make([][]candidate, len(n.fields))
	for _, k := range keys {
		for _, ref := range n.aliases[foldKey(k)] {
			out[ref.field] = append(out[ref.field], candidate{key: k, position: ref.position})
		}
	}
	for _, cs := range out {
		sort.SliceStable(cs, func(a, b int) bool { return cs[a].position < cs[b].position })
	}
	return out
}

func (n *Normalizer) coerce(f fieldSpec, v any) types.Value {
	switch f.Type {
	case types.FieldInt:
		return types.IntValue(coerceInt(v))
	case types.FieldDate:
		return coerceDate(v, n.dateLayouts, n.location)
	default:
		s := coerceText(v)
		for _, t := range f.transforms {
			s = t(s)
		}
		return types.TextValue(s)
	}
}

// =============================================================================
// KEY CANONICALIZATION
// =============================================================================

// CanonicalKey collapses line breaks and whitespace runs to single spaces and
// trims the result: "TOTAL NO OF\nPARTICIPANTS " -> "TOTAL NO OF PARTICIPANTS".
func CanonicalKey(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// foldKey is the alias lookup key: canonical form with Unicode case folding.
func foldKey(s string) string {
	return cases.Fold().String(CanonicalKey(s))
}

func isEmptyRaw(v any) bool {
	switch x := v.(type) {
	case nil:
		return true
	case string:
		return strings.TrimSpace(x) == ""
	default:
		return false
	}
}
