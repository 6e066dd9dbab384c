// =============================================================================
// Registration Report - Report Pipeline
// =============================================================================
//
// This module orchestrates one report run, from fetching the raw records to
// the finished page layout.
//
// PIPELINE:
//   1. Fetch raw records from the source
//   2. Normalize them onto the canonical field set
//   3. Group by district, sort by block, set aside the fallback group
//   4. Aggregate group totals, the grand total and distinct counts
//   5. Plan the paginated layout
//
// Every stage works on a complete snapshot of its input and returns new
// values; nothing is updated incrementally.
//
// FAILURE MODES:
//   - Malformed payload: not fatal. The result is flagged Malformed and
//     carries the empty-dataset layout (one page, zero grand total);
//     renderers check the flag and draw a placeholder instead.
//   - Empty dataset: not an error. The layout holds only the zero grand total.
//   - Any other fetch error is returned.
//
// =============================================================================

package report

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ginjaninja78/registration-report/internal/aggregator"
	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/grouper"
	"github.com/ginjaninja78/registration-report/internal/layout"
	"github.com/ginjaninja78/registration-report/internal/normalizer"
	"github.com/ginjaninja78/registration-report/internal/types"
)

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result is the outcome of one report run.
type Result struct {
	ReportID    string
	GeneratedAt time.Time

	// Records are all normalized records in source order, fallback included.
	Records []types.Record

	// Grouping is the grouper output; Grouping.Fallback holds the excluded
	// records.
	Grouping grouper.Result

	Summary aggregator.Summary
	Layout  types.Layout

	// Malformed is set when the source payload could not be parsed.
	Malformed bool

	// Empty is set when the source returned no records.
	Empty bool

	Stats Stats
}

// Stats contains processing statistics.
type Stats struct {
	Fetched  int
	Reported int
	Excluded int
	Groups   int
	Pages    int
	Duration time.Duration
}

// =============================================================================
// PIPELINE
// =============================================================================

// Pipeline holds the configured stages. Build it once per configuration.
type Pipeline struct {
	Normalizer *normalizer.Normalizer
	Grouper    *grouper.Grouper
	Aggregator *aggregator.Aggregator
	Planner    *layout.Planner
}

// NewPipeline builds every stage from the configuration.
func NewPipeline(cfg *config.Config) (*Pipeline, error) {
	norm, err := normalizer.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build normalizer: %w", err)
	}
	grp, err := grouper.New(cfg.Grouping, cfg.Report.Locale)
	if err != nil {
		return nil, fmt.Errorf("build grouper: %w", err)
	}
	planner, err := layout.FromConfig(cfg)
	if err != nil {
		return nil, fmt.Errorf("build layout planner: %w", err)
	}
	return &Pipeline{
		Normalizer: norm,
		Grouper:    grp,
		Aggregator: aggregator.New(cfg.Aggregation.SumFields, cfg.Aggregation.DistinctFields),
		Planner:    planner,
	}, nil
}

// Process runs stages 2 to 5 on raw records.
func (p *Pipeline) Process(raws []types.RawRecord) *Result {
	records := p.Normalizer.NormalizeAll(raws)
	grouping := p.Grouper.Group(records)
	summary := p.Aggregator.Aggregate(grouping.Groups)
	lay := p.Planner.Plan(summary)

	return &Result{
		Records:  records,
		Grouping: grouping,
		Summary:  summary,
		Layout:   lay,
		Empty:    len(raws) == 0,
		Stats: Stats{
			Fetched:  len(raws),
			Reported: summary.Records,
			Excluded: grouping.Excluded,
			Groups:   len(summary.Groups),
			Pages:    len(lay.Pages),
		},
	}
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run fetches the records and builds the report.
func (c *Context) Run(ctx context.Context) (*Result, error) {
	start := c.Now()

	p, err := NewPipeline(c.Config)
	if err != nil {
		return nil, err
	}

	c.Logger.Debugw("fetching records", "report_id", c.ReportID)
	raws, err := c.Source.Fetch(ctx)
	malformed := false
	if err != nil {
		if !errors.Is(err, types.ErrMalformedInput) {
			return nil, fmt.Errorf("fetch records: %w", err)
		}
		c.Logger.Warnw("source returned malformed data", "report_id", c.ReportID, "error", err)
		malformed = true
		raws = nil
	}

	res := c.Build(p, raws)
	res.Malformed = malformed
	res.Empty = res.Empty && !malformed
	res.GeneratedAt = start
	res.Stats.Duration = c.Now().Sub(start)
	return res, nil
}

// Build runs the pipeline on records that are already in hand and logs the
// outcome.
func (c *Context) Build(p *Pipeline, raws []types.RawRecord) *Result {
	res := p.Process(raws)
	res.ReportID = c.ReportID
	res.GeneratedAt = c.Now()

	if res.Stats.Excluded > 0 {
		c.Logger.Warnw("records without a group key left out of the report",
			"report_id", c.ReportID,
			"excluded", res.Stats.Excluded,
			"fallback_key", c.Config.Grouping.Fallback,
		)
	}
	if res.Empty {
		c.Logger.Infow("no records found", "report_id", c.ReportID)
	}
	c.Logger.Infow("report built",
		"report_id", c.ReportID,
		"records", res.Stats.Fetched,
		"reported", res.Stats.Reported,
		"groups", res.Stats.Groups,
		"pages", res.Stats.Pages,
	)
	return res
}
