package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/registration-report/internal/csvparser"
	"github.com/ginjaninja78/registration-report/internal/report"
	"github.com/ginjaninja78/registration-report/internal/source"
	"github.com/ginjaninja78/registration-report/internal/types"
)

var exportOut string

// exportCmd writes the normalized records as CSV, every canonical field in
// display order. Records without a district are exported too.
var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export the normalized records as CSV",
	Long: `The export command fetches every record, maps it onto the canonical field
set and writes a CSV file with one column per field, in display order.

Default output: <output.dir>/<output.csv_name> (Gitajnana_Data.csv).
Use --out - to write to standard output.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		store, err := source.Open(cfg)
		if err != nil {
			return fmt.Errorf("failed to open source: %w", err)
		}
		defer store.Close()

		res, err := report.NewContext(cfg, store, report.WithLogger(logger)).Run(cmd.Context())
		if err != nil {
			return err
		}
		if res.Malformed {
			return fmt.Errorf("nothing exported: %w", types.ErrMalformedInput)
		}

		text := csvparser.Encode(res.Records, cfg.FieldNames())

		if exportOut == "-" {
			_, err := fmt.Fprintln(cmd.OutOrStdout(), text)
			return err
		}

		path := exportOut
		if path == "" {
			path = filepath.Join(cfg.Output.Dir, cfg.Output.CSVName)
		}
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
		if err := os.WriteFile(path, []byte(text), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", path, err)
		}

		logger.Infow("records exported", "path", path, "records", len(res.Records))
		fmt.Fprintf(cmd.OutOrStdout(), "Exported %d record(s) to %s\n", len(res.Records), path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&exportOut, "out", "o", "", "Output file, - for stdout (default <output.dir>/<output.csv_name>)")
}
