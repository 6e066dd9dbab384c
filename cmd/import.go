// =============================================================================
// Registration Report - Import Command
// =============================================================================
//
// COMMAND USAGE:
//   regreport import <file|dir>... [flags]
//
// Every row of every CSV/XLSX file is appended to the configured store, one
// record at a time and in file order. A failed record does not stop the
// import: failures are written to an error log once all files are done.
//
// XLSX files are read from --sheet (default: first sheet), or from every
// visible sheet with --all-sheets. The header row comes from
// source.header_row.
//
// ON SUCCESS: the file is moved to --archive-dir (when given), under a
// YYYY/MM/DD subdirectory when output.archive_by_date is set.
// ON FAILURE: the file stays in place; see error_log_<timestamp>.txt, which
// names the file, record number and DISTRICT (the primary grouping field) of
// every failed record.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/registration-report/internal/normalizer"
	"github.com/ginjaninja78/registration-report/internal/source"
	"github.com/ginjaninja78/registration-report/pkg/utils"
)

var (
	importArchiveDir string
	importSheet      string
	importAllSheets  bool
)

var importCmd = &cobra.Command{
	Use:   "import <file|dir>...",
	Short: "Append every record of CSV or XLSX files to the store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runImport(cmd, args)
	},
}

func init() {
	rootCmd.AddCommand(importCmd)
	importCmd.Flags().StringVar(&importArchiveDir, "archive-dir", "",
		"Move fully imported files to this directory")
	importCmd.Flags().StringVar(&importSheet, "sheet", "",
		"Worksheet to read from XLSX files (default: first sheet)")
	importCmd.Flags().BoolVar(&importAllSheets, "all-sheets", false,
		"Read every visible worksheet of XLSX files, in workbook order")
}

func runImport(cmd *cobra.Command, args []string) (err error) {
	ctx := cmd.Context()
	out := cmd.OutOrStdout()

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if importAllSheets && importSheet != "" {
		return fmt.Errorf("--sheet and --all-sheets cannot be combined")
	}
	norm, err := normalizer.FromConfig(cfg)
	if err != nil {
		return err
	}

	var files []string
	for _, arg := range args {
		found, err := utils.DiscoverInputFiles(arg, ".csv", ".xlsx")
		if err != nil {
			return err
		}
		files = append(files, found...)
	}
	if len(files) == 0 {
		fmt.Fprintln(out, "No CSV or XLSX files found.")
		return nil
	}

	store, err := source.Open(cfg)
	if err != nil {
		return fmt.Errorf("failed to open source: %w", err)
	}
	app, closeQueue, err := openAppender(cfg, store)
	if err != nil {
		store.Close()
		return err
	}
	defer func() {
		if cerr := closeAll(closeQueue, store.Close); err == nil {
			err = cerr
		}
	}()

	fm := utils.NewFileManager(cfg.Output.Dir, importArchiveDir)
	fm.UseTimestampSubdirs = cfg.Output.ArchiveByDate

	var (
		logEntries []utils.ErrorLogEntry
		written    int
		failed     int
	)

	for _, file := range files {
		kind := strings.TrimPrefix(strings.ToLower(filepath.Ext(file)), ".")
		src := &source.FileSource{
			Kind:      kind,
			Path:      file,
			Sheet:     importSheet,
			AllSheets: importAllSheets,
			HeaderRow: cfg.Source.HeaderRow,
			CSV:       cfg.CSV,
		}

		records, err := src.Fetch(ctx)
		if err != nil {
			failed++
			logEntries = append(logEntries, utils.ErrorLogEntry{
				FileName:     file,
				ErrorType:    "read",
				ErrorMessage: err.Error(),
			})
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(file), err)
			continue
		}

		n, err := source.Import(ctx, app, records)
		written += n
		if err != nil {
			var partial *source.PartialImportError
			if !errors.As(err, &partial) {
				return err
			}
			failed += partial.Failed + partial.Skipped
			for _, e := range partial.Errs {
				entry := utils.ErrorLogEntry{
					FileName:     file,
					ErrorType:    "cancelled",
					ErrorMessage: e.Error(),
				}
				var recErr *source.RecordError
				if errors.As(e, &recErr) {
					entry.ErrorType = "append"
					entry.RecordNumber = recErr.Number
					entry.Field = cfg.Grouping.Primary
					entry.Value = norm.Normalize(recErr.Record, recErr.Number).Text(cfg.Grouping.Primary)
					entry.ErrorMessage = recErr.Err.Error()
				}
				logEntries = append(logEntries, entry)
			}
			logger.Warnw("import incomplete", "file", file, "written", n, "failed", partial.Failed, "skipped", partial.Skipped)
			fmt.Fprintf(out, "  ✗ %s: %v\n", filepath.Base(file), err)

			if ctx.Err() != nil {
				break
			}
			continue
		}

		logger.Infow("file imported", "file", file, "records", n)
		archived, err := fm.ArchiveInputFile(file)
		if err != nil {
			logger.Warnw("failed to archive file", "file", file, "error", err)
			archived = file
		}
		fmt.Fprintf(out, "  ✓ %s (%d records) -> %s\n", filepath.Base(file), n, archived)
	}

	fmt.Fprintln(out, "\n=== Import Complete ===")
	fmt.Fprintf(out, "Files:           %d\n", len(files))
	fmt.Fprintf(out, "Records written: %d\n", written)
	fmt.Fprintf(out, "Failures:        %d\n", failed)

	if len(logEntries) == 0 {
		return nil
	}
	if err := fm.EnsureDirectories(); err != nil {
		return err
	}
	logPath, err := fm.WriteErrorLog(logEntries)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Errors have been logged to %s\n", logPath)
	return fmt.Errorf("import finished with %d failure(s)", failed)
}
