// =============================================================================
// Registration Report - Record Sources
// =============================================================================
//
// A Source delivers the raw registration records; an Appender accepts new
// ones. Implementations:
//
//   - HTTPSource  : the spreadsheet web endpoint (GET list, POST add)
//   - SQLiteStore : a local database, for offline use and tests
//   - FileSource  : a CSV or XLSX file (read only)
//   - AMQPAppender: publishes added records to a queue (write only)
//
// Writes are strictly sequential. Import sends one record at a time, in input
// order, and finishes the whole batch before reporting failures.
//
// =============================================================================

package source

import (
	"context"
	"errors"
	"fmt"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/types"
)

// ErrReadOnly is returned by Append on sources that cannot store records.
var ErrReadOnly = errors.New("source is read only")

// Source fetches the complete record set.
type Source interface {
	Fetch(ctx context.Context) ([]types.RawRecord, error)
}

// Appender stores one new record.
type Appender interface {
	Append(ctx context.Context, rec types.RawRecord) error
}

// Store is a Source that also accepts new records.
type Store interface {
	Source
	Appender
	Close() error
}

// Open builds the store selected by cfg.Source.
func Open(cfg *config.Config) (Store, error) {
	switch cfg.Source.Kind {
	case "http":
		if cfg.Source.URL == "" {
			return nil, errors.New("source.url is required for kind http")
		}
		return NewHTTPSource(cfg.Source.URL,
			WithTimeout(cfg.Source.Timeout),
			WithRetries(cfg.Source.Retries),
		), nil
	case "sqlite":
		if cfg.Source.Path == "" {
			return nil, errors.New("source.path is required for kind sqlite")
		}
		return OpenSQLiteStore(cfg.Source.Path)
	case "csv", "xlsx":
		if cfg.Source.Path == "" {
			return nil, fmt.Errorf("source.path is required for kind %s", cfg.Source.Kind)
		}
		return &FileSource{
			Kind:  cfg.Source.Kind,
			Path:  cfg.Source.Path,
			Sheet:     cfg.Source.Sheet,
			HeaderRow: cfg.Source.HeaderRow,
			CSV:       cfg.CSV,
		}, nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Source.Kind)
	}
}

// =============================================================================
// FAN-OUT
// =============================================================================

// MultiAppender appends to each appender in order and stops at the first
// failure. The first appender is the system of record.
type MultiAppender []Appender

// Append implements Appender.
func (m MultiAppender) Append(ctx context.Context, rec types.RawRecord) error {
	for _, a := range m {
		if err := a.Append(ctx, rec); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// IMPORT
// =============================================================================

// PartialImportError reports an import where some records were not written.
type PartialImportError struct {
	Total   int
	Written int
	Failed  int

	// Skipped counts records never attempted because the context ended.
	Skipped int

	// Errs holds one *RecordError per failed record, then the context error
	// if the import was cut short.
	Errs []error
}

func (e *PartialImportError) Error() string {
	msg := fmt.Sprintf("imported %d of %d records, %d failed", e.Written, e.Total, e.Failed)
	if e.Skipped > 0 {
		msg += fmt.Sprintf(", %d not attempted", e.Skipped)
	}
	if len(e.Errs) > 0 {
		msg += ": " + e.Errs[0].Error()
	}
	return msg
}

// Unwrap returns the per-record errors.
func (e *PartialImportError) Unwrap() []error {
	return e.Errs
}

// RecordError is the failure of one record during Import.
type RecordError struct {
	// Number is the 1-based position of the record in the input.
	Number int
	Record types.RawRecord
	Err    error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d: %v", e.Number, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Import appends records one at a time in input order. Individual failures do
// not stop the import; they are collected into a *PartialImportError returned
// after the last record. Cancelling ctx stops the import.
func Import(ctx context.Context, app Appender, records []types.RawRecord) (int, error) {
	res := &PartialImportError{Total: len(records)}

	for i, rec := range records {
		if err := ctx.Err(); err != nil {
			res.Skipped = len(records) - i
			res.Errs = append(res.Errs, err)
			break
		}
		if err := app.Append(ctx, rec); err != nil {
			res.Failed++
			res.Errs = append(res.Errs, &RecordError{Number: i + 1, Record: rec, Err: err})
			continue
		}
		res.Written++
	}

	if res.Failed == 0 && res.Skipped == 0 {
		return res.Written, nil
	}
	return res.Written, res
}
