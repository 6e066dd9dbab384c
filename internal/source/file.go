package source

import (
	"context"
	"fmt"

	"github.com/ginjaninja78/registration-report/internal/config"
	"github.com/ginjaninja78/registration-report/internal/csvparser"
	"github.com/ginjaninja78/registration-report/internal/types"
	"github.com/ginjaninja78/registration-report/internal/xlsxparser"
)

// FileSource reads records from a CSV or XLSX file.
type FileSource struct {
	// Kind is "csv" or "xlsx".
	Kind string
	Path string

	// Sheet selects the worksheet of an XLSX file.
	Sheet string

	// AllSheets reads every visible worksheet in workbook order instead of
	// Sheet.
	AllSheets bool

	// HeaderRow is the 1-based header row of XLSX sheets. Zero means row 1.
	HeaderRow int

	// CSV holds the CSV reader settings.
	CSV config.CSVSettings
}

// Fetch reads the whole file.
func (f *FileSource) Fetch(ctx context.Context) ([]types.RawRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch f.Kind {
	case "csv":
		return csvparser.ParseFile(f.Path, f.CSV)
	case "xlsx":
		layout := xlsxparser.SheetLayout{HeaderRow: f.HeaderRow}
		if !f.AllSheets {
			return xlsxparser.Parse(f.Path, f.Sheet, layout)
		}
		sheets, err := xlsxparser.ParseMultiSheet(f.Path, layout)
		if err != nil {
			return nil, err
		}
		var records []types.RawRecord
		for _, s := range sheets {
			records = append(records, s.Records...)
		}
		return records, nil
	default:
		return nil, fmt.Errorf("unknown file kind %q", f.Kind)
	}
}

// Append always fails: files are read only.
func (f *FileSource) Append(context.Context, types.RawRecord) error {
	return fmt.Errorf("%s %s: %w", f.Kind, f.Path, ErrReadOnly)
}

// Close implements Store.
func (f *FileSource) Close() error { return nil }
