// =============================================================================
// Registration Report - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. Every other command
// is attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (regreport)
//   ├── reportCmd  (regreport report)
//   ├── exportCmd  (regreport export)
//   ├── importCmd  (regreport import <file>...)
//   ├── addCmd     (regreport add KEY=VALUE...)
//   ├── showCmd    (regreport show)
//   └── versionCmd (regreport version)
//
// The root command is responsible for:
//   1. Global flags (--config, --verbose)
//   2. Building the zap logger before any command runs, syncing it after
//   3. Cancelling the command context on Ctrl-C
//
// =============================================================================

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/source"
)

// =============================================================================
// GLOBAL VARIABLES
// =============================================================================

// cfgFile holds the path to the configuration file.
var cfgFile string

// verbose enables debug logging.
var verbose bool

// logger is built in PersistentPreRunE.
var logger = zap.NewNop().Sugar()

// =============================================================================
// ROOT COMMAND DEFINITION
// =============================================================================

var rootCmd = &cobra.Command{
	Use:   "regreport",
	Short: "Registration report engine for competition sign-up sheets",
	Long: `regreport turns the rows of a competition registration sheet into a
paginated district report with block-level rows, district summaries and a
state grand total.

Records come from the spreadsheet web endpoint, a local SQLite database, or a
CSV/XLSX file. New records can be added one at a time or imported in bulk.

Example Usage:
  regreport report --format xlsx,html      # Build the report files
  regreport show                           # Print the records table
  regreport export --out data.csv          # Export normalized records
  regreport import registrations.csv       # Append every row of a file
  regreport add DISTRICT=Puri BLOCK=Nimapara "GROUP A=3"`,

	SilenceUsage: true,

	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		l, err := newLogger(verbose)
		if err != nil {
			return fmt.Errorf("build logger: %w", err)
		}
		logger = l
		return nil
	},

	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		// Sync fails on terminals (EINVAL/ENOTTY); there is nothing to do about it.
		_ = logger.Sync()
	},

	Run: func(cmd *cobra.Command, args []string) {
		cmd.Help()
	},
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the root command. It is called by main.main().
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		stop()
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		config.DefaultPath,
		"Path to the configuration file (built-in defaults when absent)",
	)

	rootCmd.PersistentFlags().BoolVarP(
		&verbose,
		"verbose",
		"v",
		false,
		"Enable debug logging",
	)
}

// =============================================================================
// HELPERS
// =============================================================================

// newLogger builds a console logger writing to stderr.
func newLogger(debug bool) (*zap.SugaredLogger, error) {
	cfg := zap.NewProductionConfig()
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = !debug
	if debug {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		cfg.Development = true
	}
	l, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return l.Sugar(), nil
}

// loadConfig loads the configuration named by --config.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	logger.Debugw("configuration loaded",
		"path", cfgFile,
		"source", cfg.Source.Kind,
		"fields", len(cfg.Fields),
	)
	return cfg, nil
}

// openAppender returns where new records go: the configured store, followed
// by the AMQP queue when one is configured. The returned close function
// releases the queue connection; the caller still closes the store.
func openAppender(cfg *config.Config, store source.Store) (source.Appender, func() error, error) {
	if _, ok := store.(*source.FileSource); ok {
		return nil, nil, fmt.Errorf("source kind %s: %w", cfg.Source.Kind, source.ErrReadOnly)
	}
	if !cfg.AMQP.Enabled() {
		return store, func() error { return nil }, nil
	}

	queue, err := source.DialAMQP(cfg.AMQP.URL, cfg.AMQP.Queue)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to AMQP: %w", err)
	}
	logger.Debugw("publishing added records", "queue", cfg.AMQP.Queue)
	return source.MultiAppender{store, queue}, queue.Close, nil
}

// closeAll closes every closer and joins the errors.
func closeAll(closers ...func() error) error {
	var errs []error
	for _, c := range closers {
		if c != nil {
			errs = append(errs, c())
		}
	}
	return errors.Join(errs...)
}
