// =============================================================================
// Registration Report - Main Entry Point
// =============================================================================
//
// USAGE:
//   regreport report   - Build the paginated report files
//   regreport export   - Export normalized records as CSV
//   regreport import   - Append the records of CSV/XLSX files
//   regreport add      - Validate and append one record
//   regreport show     - Print the records table
//   regreport version  - Display the application version
//
// ARCHITECTURE:
//   - cmd/      : CLI command definitions (Cobra)
//   - internal/ : the report pipeline, sources and renderers
//   - pkg/      : shared file utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/registration-report/cmd"
)

func main() {
	cmd.Execute()
}
