// =============================================================================
// TOA5 Converter - Header Parser
// =============================================================================
//
// The parser turns the four preamble records into a Header. It is a pure
// function over already-split records (ParseHeader); ReadHeader is the thin
// adapter that pulls those records from a CSV reader.
//
// VALIDATION RULES:
//   - Line 1 has exactly 8 fields and the first one is "TOA5"
//   - Lines 2, 3 and 4 have the same number of fields
//   - That number is at least 2 (TIMESTAMP and RECORD)
//
// Any violation is a *FormatError and no partial Header is returned.
//
// =============================================================================

package toa5

import (
	"errors"
	"io"
)

// RecordReader is the subset of *csv.Reader used by ReadHeader.
type RecordReader interface {
	Read() ([]string, error)
}

// RecordWriter is the subset of *csv.Writer used by WriteHeader.
type RecordWriter interface {
	Write(record []string) error
}

// =============================================================================
// PARSER FUNCTIONS
// =============================================================================

// ReadHeader reads the four preamble records from r and parses them.
//
// Only the preamble is consumed, so after a successful call r is positioned
// at the first data row.
//
// PARAMETERS:
//   - r: The record source, normally a *csv.Reader with FieldsPerRecord = -1.
//
// RETURNS:
//   - The parsed Header.
//   - A *FormatError if the preamble is missing, truncated or malformed.
func ReadHeader(r RecordReader) (*Header, error) {
	lines := make([][]string, 0, PreambleLines)

	for i := 1; i <= PreambleLines; i++ {
		record, err := r.Read()
		if errors.Is(err, io.EOF) {
			if i == 1 {
				return nil, formatErrorf(i, "failed to read environment line")
			}
			return nil, formatErrorf(i, "unexpected end of headers")
		}
		if err != nil {
			return nil, &FormatError{Line: i, Reason: "CSV parse error in header", Err: err}
		}

		// Reject early so a non-TOA5 file fails on line 1 instead of on
		// whatever its second line happens to look like.
		if i == 1 {
			if err := checkEnvironmentLine(record); err != nil {
				return nil, err
			}
		}

		lines = append(lines, record)
	}

	return ParseHeader(lines)
}

// ParseHeader builds a Header from the four preamble records.
func ParseHeader(lines [][]string) (*Header, error) {
	if len(lines) != PreambleLines {
		return nil, formatErrorf(0, "expected %d header lines, got %d", PreambleLines, len(lines))
	}

	if err := checkEnvironmentLine(lines[0]); err != nil {
		return nil, err
	}

	env := lines[0]
	header := &Header{
		Env: EnvironmentLine{
			StationName:  env[1],
			LoggerModel:  env[2],
			LoggerSerial: env[3],
			LoggerOS:     env[4],
			ProgramName:  env[5],
			ProgramSig:   env[6],
			TableName:    env[7],
		},
	}

	names, units, procs := lines[1], lines[2], lines[3]
	if len(units) != len(names) {
		return nil, formatErrorf(3, "header column count mismatch: %d names but %d units", len(names), len(units))
	}
	if len(procs) != len(names) {
		return nil, formatErrorf(4, "header column count mismatch: %d names but %d processing codes", len(names), len(procs))
	}
	if len(names) < FixedColumns {
		return nil, formatErrorf(2, "expected at least %d columns (TIMESTAMP, RECORD), got %d", FixedColumns, len(names))
	}

	columns := make([]ColumnHeader, len(names))
	for i := range names {
		columns[i] = ColumnHeader{Name: names[i], Unit: units[i], Prc: procs[i]}
	}

	header.Fixed = columns[:FixedColumns:FixedColumns]
	header.Columns = columns[FixedColumns:]

	return header, nil
}

// checkEnvironmentLine validates the tag and field count of line 1.
func checkEnvironmentLine(record []string) error {
	if len(record) < 1 || record[0] != Tag {
		return formatErrorf(1, "not a TOA5 file")
	}
	if len(record) != EnvironmentFields {
		return formatErrorf(1, "malformed environment line: expected %d fields, got %d", EnvironmentFields, len(record))
	}
	return nil
}

// =============================================================================
// WRITER
// =============================================================================

// WriteHeader writes h back out as the four TOA5 preamble records.
func WriteHeader(w RecordWriter, h *Header) error {
	columns := h.AllColumns()

	names := make([]string, len(columns))
	units := make([]string, len(columns))
	procs := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
		units[i] = c.Unit
		procs[i] = c.Prc
	}

	for _, record := range [][]string{h.Env.Fields(), names, units, procs} {
		if err := w.Write(record); err != nil {
			return err
		}
	}
	return nil
}
