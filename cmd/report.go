// =============================================================================
// Registration Report - Report Command
// =============================================================================
//
// This file defines the 'report' command, the main command of the tool. It
// runs the whole pipeline and writes the report files.
//
// COMMAND USAGE:
//   regreport report [flags]
//
// FLAGS:
//   --format   : Comma-separated output formats: xlsx, html, text, xml
//   --out-dir  : Output directory (overrides output.dir)
//   --title    : Report title (overrides report.title)
//   --dry-run  : Build the report and print the summary without writing files
//
// PROCESSING PIPELINE:
//   1. Load configuration
//   2. Open the record source
//   3. Fetch, normalize, group, aggregate and lay out the records
//   4. Render every requested format concurrently
//   5. Print a summary
//
// =============================================================================

package cmd

import (
	"fmt"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/registration-report/internal/render"
	"github.com/ginjaninja78/registration-report/internal/report"
	"github.com/ginjaninja78/registration-report/internal/source"
	"github.com/ginjaninja78/registration-report/pkg/utils"
)

// =============================================================================
// COMMAND FLAGS
// =============================================================================

var (
	reportFormats string
	reportOutDir  string
	reportTitle   string
	dryRun        bool
)

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Build the paginated registration report",
	Long: `The report command fetches every registration record, groups the records by
district, sorts each district's rows by block, sums the participant counts and
lays the result out on pages.

Records without a district are left out of the report and counted in the
summary. A source that returns malformed data still produces report files,
showing "Error loading data" in place of the tables.

Output files are named after output.name_format, for example
Gitajnana_Report_20250115_100000.xlsx.`,

	RunE: func(cmd *cobra.Command, args []string) error {
		return runReport(cmd)
	},
}

func init() {
	rootCmd.AddCommand(reportCmd)

	reportCmd.Flags().StringVarP(&reportFormats, "format", "f", "xlsx",
		"Output formats, comma separated (xlsx, html, text, xml)")
	reportCmd.Flags().StringVarP(&reportOutDir, "out-dir", "o", "",
		"Output directory (default from output.dir)")
	reportCmd.Flags().StringVar(&reportTitle, "title", "",
		"Report title (default from report.title)")
	reportCmd.Flags().BoolVar(&dryRun, "dry-run", false,
		"Build the report without writing output files")
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runReport(cmd *cobra.Command) error {
	startTime := time.Now()
	out := cmd.OutOrStdout()

	formats, err := render.ParseFormats(reportFormats)
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 1: LOAD CONFIGURATION
	// =========================================================================

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if reportOutDir != "" {
		cfg.Output.Dir = reportOutDir
	}

	// =========================================================================
	// STEP 2: OPEN THE SOURCE
	// =========================================================================

	store, err := source.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	defer store.Close()

	// =========================================================================
	// STEP 3: BUILD THE REPORT
	// =========================================================================

	rc := report.NewContext(cfg, store, report.WithLogger(logger))
	res, err := rc.Run(cmd.Context())
	if err != nil {
		return err
	}

	// =========================================================================
	// STEP 4: RENDER
	// =========================================================================

	fm := utils.NewFileManager(cfg.Output.Dir, "")
	fm.Now = func() time.Time { return res.GeneratedAt }

	var targets []render.Target
	for _, f := range formats {
		targets = append(targets, render.Target{
			Format: f,
			Path:   fm.OutputPath(cfg.Output.NameFormat, res.ReportID, f.Ext()),
		})
	}

	if !dryRun {
		if err := fm.EnsureDirectories(); err != nil {
			return err
		}
		opts := render.DefaultOptions()
		opts.Title = reportTitle
		renderer := render.New(cfg, opts)
		if err := renderer.RenderAll(cmd.Context(), res, targets); err != nil {
			return err
		}
	}

	// =========================================================================
	// STEP 5: PRINT SUMMARY
	// =========================================================================

	fmt.Fprintln(out, "=== Registration Report ===")
	fmt.Fprintf(out, "Report ID:       %s\n", res.ReportID)
	switch {
	case res.Malformed:
		fmt.Fprintln(out, "Status:          source returned malformed data")
	case res.Empty:
		fmt.Fprintln(out, "Status:          no records found")
	}
	fmt.Fprintf(out, "Records:         %d\n", res.Stats.Fetched)
	fmt.Fprintf(out, "Reported:        %d\n", res.Stats.Reported)
	fmt.Fprintf(out, "Left out:        %d (no %s)\n", res.Stats.Excluded, cfg.Grouping.Primary)
	fmt.Fprintf(out, "Groups:          %d\n", res.Stats.Groups)
	fmt.Fprintf(out, "Pages:           %d\n", res.Stats.Pages)
	for _, t := range targets {
		if dryRun {
			fmt.Fprintf(out, "  - %s (dry run, not written)\n", filepath.Base(t.Path))
		} else {
			fmt.Fprintf(out, "  ✓ %s\n", t.Path)
		}
	}
	fmt.Fprintf(out, "Time elapsed:    %s\n", time.Since(startTime).Round(time.Millisecond))

	return nil
}
