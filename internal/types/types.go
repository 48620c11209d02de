// =============================================================================
// TOA5 Converter - Shared Types
// =============================================================================
//
// This package contains shared types used across multiple modules to avoid
// import cycles. Types defined here are used by:
//   - converter
//   - validation
//   - csvwriter
//   - xlsxwriter
//
// =============================================================================

package types

import (
	"time"

	"github.com/ginjaninja78/toa5-converter/internal/toa5"
)

// =============================================================================
// HEADER SET
// =============================================================================

// HeaderSet is the ordered list of output column names for one file.
//
// Names[i] was derived from Sources[i]; both are in source column order.
type HeaderSet struct {
	// Names contains the transformed header strings.
	Names []string

	// Sources contains the column headers the names were derived from.
	Sources []toa5.ColumnHeader

	// Fixed is the number of leading entries that are the TIMESTAMP and
	// RECORD columns. Zero unless the naming policy includes them.
	Fixed int
}

// Len returns the number of headers in the set.
func (s HeaderSet) Len() int {
	return len(s.Names)
}

// =============================================================================
// FRAME TYPES
// =============================================================================

// Frame is an in-memory table built from one TOA5 file.
type Frame struct {
	// Env is the environment line of the source file.
	Env toa5.EnvironmentLine

	// Fixed are the output names of the timestamp and record columns.
	Fixed []string

	// Columns are the output names of the data columns.
	// The timestamp and record number are carried on each Row instead.
	Columns []string

	// Rows contains the data rows in file order.
	Rows []Row
}

// Row is a single data row of a Frame.
type Row struct {
	// Timestamp is the parsed first column.
	Timestamp time.Time

	// Record is the parsed second column (the logger's record number).
	Record int64

	// Values contains one entry per Frame column.
	Values []Value

	// Line is the line number in the source file, for error reporting.
	Line int
}

// Value is a single cell of a Frame.
type Value struct {
	// Raw is the cell text exactly as read.
	Raw string

	// Num is the parsed number when Numeric is true.
	Num float64

	// Numeric is true if Raw parsed as a number.
	Numeric bool

	// Missing is true for the logger's "NAN" token and for empty cells.
	Missing bool
}

// Column returns all values of the column at index i.
func (f *Frame) Column(i int) []Value {
	values := make([]Value, len(f.Rows))
	for r, row := range f.Rows {
		values[r] = row.Values[i]
	}
	return values
}
