package converter

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ginjaninja78/toa5-converter/internal/csvparser"
	"github.com/ginjaninja78/toa5-converter/internal/csvwriter"
	"github.com/ginjaninja78/toa5-converter/internal/toa5"
	"github.com/ginjaninja78/toa5-converter/internal/types"
)

// timestampLayouts are tried in order. Fractional seconds are accepted by
// each of them.
var timestampLayouts = []string{
	"2006-01-02 15:04:05",
	"2006-01-02T15:04:05",
	time.RFC3339Nano,
}

// RowError reports a data row that cannot go into a Frame.
type RowError struct {
	// Line is the file line of the row.
	Line int

	// Column is the 1-based file column of the bad field.
	Column int

	// Value is the offending field.
	Value string

	Err error
}

// Error implements the error interface.
func (e *RowError) Error() string {
	return fmt.Sprintf("line %d, column %d: %q: %v", e.Line, e.Column, e.Value, e.Err)
}

// Unwrap returns the underlying error.
func (e *RowError) Unwrap() error {
	return e.Err
}

// BuildFrame reads the remaining rows of reader into a Frame named by set.
//
// PARAMETERS:
//   - reader: A reader positioned at the first data row.
//   - set: The header set built for reader.Header().
//
// RETURNS:
//   - The frame.
//   - A *RowError for an unparsable timestamp or record number, or the
//     reader's error.
func BuildFrame(reader *csvparser.Reader, set types.HeaderSet) (*types.Frame, error) {
	h := reader.Header()

	frame := &types.Frame{
		Env:     h.Env,
		Columns: set.Names[set.Fixed:],
	}
	if set.Fixed > 0 {
		frame.Fixed = set.Names[:set.Fixed]
	}

	for reader.Next() {
		row, err := buildRow(reader.Row(), reader.Line())
		if err != nil {
			return nil, err
		}
		frame.Rows = append(frame.Rows, row)
	}
	if err := reader.Err(); err != nil {
		return nil, err
	}
	return frame, nil
}

func buildRow(fields []string, line int) (types.Row, error) {
	ts, err := ParseTimestamp(fields[0])
	if err != nil {
		return types.Row{}, &RowError{Line: line, Column: 1, Value: fields[0], Err: err}
	}

	record, err := strconv.ParseInt(strings.TrimSpace(fields[1]), 10, 64)
	if err != nil {
		return types.Row{}, &RowError{Line: line, Column: 2, Value: fields[1], Err: fmt.Errorf("invalid record number")}
	}

	values := make([]types.Value, 0, len(fields)-toa5.FixedColumns)
	for _, raw := range fields[toa5.FixedColumns:] {
		values = append(values, ParseValue(raw))
	}

	return types.Row{Timestamp: ts, Record: record, Values: values, Line: line}, nil
}

// ParseTimestamp parses a logger timestamp such as "2021-06-19 00:00:00"
// or "2021-06-19 00:00:00.25". Timestamps without a zone are UTC.
func ParseTimestamp(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid timestamp")
}

// ParseValue classifies one data cell. "NAN" and empty cells are missing;
// finite numbers are numeric; anything else is kept as text.
func ParseValue(raw string) types.Value {
	v := types.Value{Raw: raw}

	s := strings.TrimSpace(raw)
	if s == "" || s == csvwriter.MissingToken {
		v.Missing = true
		return v
	}

	if num, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(num, 0) && !math.IsNaN(num) {
		v.Num = num
		v.Numeric = true
	}
	return v
}
