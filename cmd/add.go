package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/registration-report/internal/normalizer"
	"github.com/ginjaninja78/registration-report/internal/source"
	"github.com/ginjaninja78/registration-report/internal/validation"
)

var rejectUnknown bool

var addCmd = &cobra.Command{
	Use:   "add KEY=VALUE...",
	Short: "Validate and append one registration record",
	Long: `The add command appends a single record. Keys may use any header spelling
the configuration knows (DISTRICT, district, "DISTRICT NAME"). Values are
checked before anything is written:

  - required fields must be present
  - count fields must be whole numbers, zero or more
  - date fields must parse
  - a total that differs from the sum of the group counts is a warning

Example:
  regreport add DISTRICT=Puri BLOCK=Nimapara "GROUP A=3" TOTAL=3 DATE=15/01/2025`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) (err error) {
		input, err := parseAssignments(args)
		if err != nil {
			return err
		}

		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		norm, err := normalizer.FromConfig(cfg)
		if err != nil {
			return err
		}

		v := validation.NewValidator(cfg.Fields, norm, validation.ValidationOptions{
			RejectUnknown: rejectUnknown,
			SumCheck:      validation.DefaultSumCheck(cfg),
		})
		result := v.ValidateRecord(input)
		for _, w := range result.Warnings() {
			logger.Warnw(w.Message, "field", w.Field, "value", w.Value, "rule", w.Rule)
		}
		if !result.IsValid {
			return fmt.Errorf("record rejected: %w", result.Err())
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

		if err := app.Append(cmd.Context(), result.Record); err != nil {
			return fmt.Errorf("failed to add record: %w", err)
		}

		logger.Infow("record added", "fields", len(result.Record))
		fmt.Fprintln(cmd.OutOrStdout(), "Record added.")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(addCmd)
	addCmd.Flags().BoolVar(&rejectUnknown, "strict", false, "Reject keys that match no configured field")
}

// parseAssignments turns KEY=VALUE arguments into a map. The value may be
// empty; the key may not.
func parseAssignments(args []string) (map[string]string, error) {
	out := make(map[string]string, len(args))
	for _, arg := range args {
		key, value, ok := strings.Cut(arg, "=")
		if !ok || strings.TrimSpace(key) == "" {
			return nil, fmt.Errorf("invalid argument %q: expected KEY=VALUE", arg)
		}
		if _, dup := out[key]; dup {
			return nil, fmt.Errorf("key %q given twice", key)
		}
		out[key] = value
	}
	return out, nil
}
