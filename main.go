// =============================================================================
// TOA5 Converter - Main Entry Point
// =============================================================================
//
// USAGE:
//   toa5 convert [FILE...]  - Convert TOA5 files to CSV or XLSX
//   toa5 headers FILE       - Show how a file's headers will be named
//   toa5 version            - Display the application version
//
// LAYOUT:
//   cmd/       : CLI command definitions (Cobra)
//   internal/  : header parsing, naming, checking and conversion
//   pkg/       : file handling utilities
//
// =============================================================================

package main

import (
	"github.com/ginjaninja78/toa5-converter/cmd"
)

func main() {
	cmd.Execute()
}
