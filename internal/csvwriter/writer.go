// =============================================================================
// TOA5 Converter - CSV Writer Module
// =============================================================================
//
// This module writes converted TOA5 data as plain CSV.
//
// HEADER MODES:
//   names : one header line built from the transformed header set
//           TIMESTAMP,RECORD,AirTemp_Avg,AirTemp_Max
//   toa5  : the original four-line preamble, re-encoded, so the output is
//           still a TOA5 file
//
// Data rows are written as read. Missing values ("NAN") are replaced only
// when Options.NAValue is set.
//
// =============================================================================

package csvwriter

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/ginjaninja78/toa5-converter/internal/toa5"
	"github.com/ginjaninja78/toa5-converter/internal/types"
	"github.com/ginjaninja78/toa5-converter/pkg/utils"
)

// HeaderMode selects the header layout of the output.
type HeaderMode string

const (
	// HeaderNames writes a single line of output header names.
	HeaderNames HeaderMode = "names"

	// HeaderTOA5 writes the original four-line preamble.
	HeaderTOA5 HeaderMode = "toa5"
)

// MissingToken is the logger's marker for a missing value.
const MissingToken = "NAN"

// Options contains options for CSV output.
type Options struct {
	// HeaderMode selects the header layout. Default: HeaderNames
	HeaderMode HeaderMode

	// NAValue, if not nil, replaces MissingToken in data columns.
	NAValue *string

	// Encoding is the WHATWG label of the output encoding.
	// Default: "utf-8"
	Encoding string
}

// Writer writes one CSV output.
type Writer struct {
	csv     *csv.Writer
	enc     io.WriteCloser
	options Options
	rows    int
}

// New creates a Writer on w.
//
// RETURNS:
//   - The Writer. Call Close to flush it.
//   - An error if the encoding or header mode is unknown.
func New(w io.Writer, options Options) (*Writer, error) {
	if options.HeaderMode == "" {
		options.HeaderMode = HeaderNames
	}
	switch options.HeaderMode {
	case HeaderNames, HeaderTOA5:
	default:
		return nil, fmt.Errorf("unknown header mode %q", options.HeaderMode)
	}

	enc, err := utils.LookupEncoding(options.Encoding)
	if err != nil {
		return nil, err
	}

	ew := utils.EncodeWriter(w, enc)
	return &Writer{
		csv:     csv.NewWriter(ew),
		enc:     ew,
		options: options,
	}, nil
}

// WriteHeader writes the header lines for the configured mode.
//
// PARAMETERS:
//   - h: The parsed source header.
//   - set: The transformed header set. It covers only the data columns
//     unless set.Fixed is non-zero.
func (w *Writer) WriteHeader(h *toa5.Header, set types.HeaderSet) error {
	if w.options.HeaderMode == HeaderTOA5 {
		if err := toa5.WriteHeader(w.csv, h); err != nil {
			return fmt.Errorf("failed to write TOA5 header: %w", err)
		}
		return nil
	}

	if err := w.csv.Write(HeaderLine(h, set)); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

// HeaderLine returns the single output header line: the fixed column names
// followed by the data column names.
func HeaderLine(h *toa5.Header, set types.HeaderSet) []string {
	if set.Fixed > 0 {
		return append([]string(nil), set.Names...)
	}

	line := make([]string, 0, len(h.Fixed)+set.Len())
	for _, col := range h.Fixed {
		line = append(line, col.Name)
	}
	return append(line, set.Names...)
}

// WriteRow writes a data row.
func (w *Writer) WriteRow(row []string) error {
	if w.options.NAValue != nil {
		row = replaceMissing(row, *w.options.NAValue)
	}
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("failed to write row %d: %w", w.rows+1, err)
	}
	w.rows++
	return nil
}

// Rows returns the number of data rows written.
func (w *Writer) Rows() int {
	return w.rows
}

// Close flushes all buffered output. It does not close the underlying writer.
func (w *Writer) Close() error {
	w.csv.Flush()
	if err := w.csv.Error(); err != nil {
		return fmt.Errorf("failed to flush CSV output: %w", err)
	}
	if err := w.enc.Close(); err != nil {
		return fmt.Errorf("failed to encode CSV output: %w", err)
	}
	return nil
}

// replaceMissing returns row with MissingToken in the data columns
// replaced. The input slice is not modified.
func replaceMissing(row []string, value string) []string {
	var out []string
	for i := toa5.FixedColumns; i < len(row); i++ {
		if row[i] != MissingToken {
			continue
		}
		if out == nil {
			out = append([]string(nil), row...)
		}
		out[i] = value
	}
	if out == nil {
		return row
	}
	return out
}
