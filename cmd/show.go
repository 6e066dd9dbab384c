package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/registration-report/internal/render"
	"github.com/ginjaninja78/registration-report/internal/report"
	"github.com/ginjaninja78/registration-report/internal/source"
)

var (
	showFormat string
	showOut    string
)

var showCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the records table",
	Long: `The show command prints every normalized record in field display order,
as a terminal table (--format text) or an HTML page (--format html).

An empty source prints "No data found"; malformed data prints
"Error loading data".`,
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		if showFormat != string(render.FormatText) && showFormat != string(render.FormatHTML) {
			return fmt.Errorf("unknown format %q (valid: text, html)", showFormat)
		}

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

		var w io.Writer = cmd.OutOrStdout()
		if showOut != "" {
			f, err := os.Create(showOut)
			if err != nil {
				return fmt.Errorf("failed to create %s: %w", showOut, err)
			}
			defer func() {
				if cerr := f.Close(); err == nil {
					err = cerr
				}
			}()
			w = f
		}

		r := render.New(cfg, render.Options{})
		if showFormat == string(render.FormatHTML) {
			return r.RecordsHTML(w, res)
		}
		return r.RecordsText(w, res)
	},
}

func init() {
	rootCmd.AddCommand(showCmd)
	showCmd.Flags().StringVarP(&showFormat, "format", "f", "text", "Output format: text or html")
	showCmd.Flags().StringVarP(&showOut, "out", "o", "", "Write to a file instead of stdout")
}
