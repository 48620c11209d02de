// =============================================================================
// TOA5 Converter - CSV Parser Module
// =============================================================================
//
// This module reads TOA5 files: the four-line preamble through the toa5
// package and the data rows after it, one at a time.
//
// FEATURES:
//   - Input decoding from any WHATWG encoding (utf-8, windows-1252, ...)
//   - A leading byte order mark is removed
//   - Strict CSV: no lazy quotes, every data row must be as wide as the header
//   - Memory-efficient streaming for large files
//   - Errors carry the file line number
//
// =============================================================================

package csvparser

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/ginjaninja78/toa5-converter/internal/toa5"
	"github.com/ginjaninja78/toa5-converter/pkg/utils"
)

// Settings holds input decoding settings.
type Settings struct {
	// Encoding is the WHATWG label of the input encoding.
	// Default: "utf-8"
	Encoding string
}

// =============================================================================
// STREAMING READER
// =============================================================================

// Reader streams the data rows of a TOA5 file.
//
// USAGE:
//
//	r, err := csvparser.Open(path, csvparser.Settings{})
//	if err != nil { ... }
//	defer r.Close()
//
//	for r.Next() {
//	    row := r.Row()
//	    // Process row...
//	}
//	if err := r.Err(); err != nil { ... }
type Reader struct {
	closer io.Closer
	reader *csv.Reader
	header *toa5.Header
	row    []string
	line   int
	rows   int
	err    error
}

// Open opens a TOA5 file and reads its header.
//
// PARAMETERS:
//   - path: The path to the file.
//   - settings: The decoding settings.
//
// RETURNS:
//   - A Reader positioned at the first data row.
//   - An error if the file cannot be opened or its header is malformed.
//     Header problems are *toa5.FormatError values.
func Open(path string, settings Settings) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}

	r, err := NewReader(file, settings)
	if err != nil {
		file.Close()
		return nil, err
	}
	r.closer = file
	return r, nil
}

// NewReader reads the TOA5 header from src. Closing the Reader does not
// close src.
func NewReader(src io.Reader, settings Settings) (*Reader, error) {
	enc, err := utils.LookupEncoding(settings.Encoding)
	if err != nil {
		return nil, err
	}

	reader := csv.NewReader(utils.DecodeReader(bufio.NewReader(src), enc))
	configureReader(reader)

	header, err := toa5.ReadHeader(reader)
	if err != nil {
		return nil, err
	}

	// From here on every row must match the header.
	reader.FieldsPerRecord = header.Width()

	return &Reader{
		reader: reader,
		header: header,
		line:   toa5.PreambleLines,
	}, nil
}

// configureReader sets up encoding/csv for TOA5 input.
func configureReader(reader *csv.Reader) {
	reader.Comma = ','
	reader.LazyQuotes = false
	reader.TrimLeadingSpace = false

	// The preamble lines have different widths; the header width is set
	// once the preamble is read.
	reader.FieldsPerRecord = -1
}

// Header returns the parsed file header.
func (r *Reader) Header() *toa5.Header {
	return r.header
}

// Next advances to the next data row. Returns false at the end of the data
// or on error; check Err afterwards.
func (r *Reader) Next() bool {
	for r.err == nil {
		row, err := r.reader.Read()
		if errors.Is(err, io.EOF) {
			return false
		}
		if err != nil {
			r.err = fmt.Errorf("error reading data row: %w", err)
			return false
		}

		r.line, _ = r.reader.FieldPos(0)

		if isRowEmpty(row) {
			continue
		}

		r.row = row
		r.rows++
		return true
	}
	return false
}

// Row returns the current data row.
func (r *Reader) Row() []string {
	return r.row
}

// Line returns the file line number of the current row.
func (r *Reader) Line() int {
	return r.line
}

// RowNumber returns the number of data rows read so far.
func (r *Reader) RowNumber() int {
	return r.rows
}

// Err returns the first error encountered while reading rows.
func (r *Reader) Err() error {
	return r.err
}

// Close closes the underlying file, if the Reader opened one.
func (r *Reader) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer.Close()
}

// =============================================================================
// CONVENIENCE
// =============================================================================

// ReadAll reads a whole TOA5 file into memory.
//
// RETURNS:
//   - The header.
//   - The data rows.
//   - An error if the file cannot be read.
func ReadAll(path string, settings Settings) (*toa5.Header, [][]string, error) {
	r, err := Open(path, settings)
	if err != nil {
		return nil, nil, err
	}
	defer r.Close()

	var rows [][]string
	for r.Next() {
		rows = append(rows, r.Row())
	}
	if err := r.Err(); err != nil {
		return nil, nil, err
	}
	return r.Header(), rows, nil
}

// isRowEmpty checks if every field of a row is blank.
func isRowEmpty(row []string) bool {
	for _, field := range row {
		if field != "" {
			return false
		}
	}
	return true
}
