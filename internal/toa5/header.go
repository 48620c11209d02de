// =============================================================================
// TOA5 Converter - Header Model
// =============================================================================
//
// A TOA5 file is a CSV file with a fixed four-line preamble:
//
//   Line 1: the environment line ("TOA5", station, logger model, serial,
//           OS version, program name, program signature, table name)
//   Line 2: column names
//   Line 3: column units
//   Line 4: column processing codes ("Smp", "Avg", "Max", ...)
//
// The first two columns are always the timestamp and the record number.
// This package holds the data structures for the preamble and the parser
// that builds them. It has no dependencies on the rest of the converter.
//
// =============================================================================

package toa5

// =============================================================================
// CONSTANTS
// =============================================================================

const (
	// Tag is the literal first field of every TOA5 environment line.
	Tag = "TOA5"

	// EnvironmentFields is the number of fields on line 1, including Tag.
	EnvironmentFields = 8

	// FixedColumns is the number of leading columns (TIMESTAMP, RECORD)
	// that are not data columns.
	FixedColumns = 2

	// PreambleLines is the number of header lines before the data rows.
	PreambleLines = 4
)

// Names and units of the fixed columns as written by the loggers.
const (
	TimestampName = "TIMESTAMP"
	TimestampUnit = "TS"
	RecordName    = "RECORD"
	RecordUnit    = "RN"
)

// =============================================================================
// ENVIRONMENT LINE
// =============================================================================

// EnvironmentLine describes the data logger and its program.
type EnvironmentLine struct {
	// StationName is the station (data logger) name.
	StationName string `json:"station_name" yaml:"station_name"`

	// LoggerModel is the model number of the data logger.
	LoggerModel string `json:"logger_model" yaml:"logger_model"`

	// LoggerSerial is the serial number of the data logger.
	LoggerSerial string `json:"logger_serial" yaml:"logger_serial"`

	// LoggerOS is the data logger operating system and version.
	LoggerOS string `json:"logger_os" yaml:"logger_os"`

	// ProgramName is the name of the program running on the logger.
	ProgramName string `json:"program_name" yaml:"program_name"`

	// ProgramSig is the program's signature (checksum).
	ProgramSig string `json:"program_sig" yaml:"program_sig"`

	// TableName is the name of the table contained in the file.
	TableName string `json:"table_name" yaml:"table_name"`
}

// Fields returns the environment line as it appears on line 1, tag included.
func (e EnvironmentLine) Fields() []string {
	return []string{
		Tag,
		e.StationName,
		e.LoggerModel,
		e.LoggerSerial,
		e.LoggerOS,
		e.ProgramName,
		e.ProgramSig,
		e.TableName,
	}
}

// =============================================================================
// COLUMN HEADER
// =============================================================================

// ColumnHeader is one column's metadata as read from lines 2 to 4.
//
// Optional values are empty strings, exactly as they appear in the file.
type ColumnHeader struct {
	// Name is the column name, e.g. "AirTemp" or "Temp(3)".
	Name string `json:"name" yaml:"name"`

	// Unit is the scientific/engineering unit, e.g. "Deg C". Optional.
	Unit string `json:"unit,omitempty" yaml:"unit,omitempty"`

	// Prc is the data processing code, e.g. "Smp", "Avg", "Max". Optional.
	Prc string `json:"prc,omitempty" yaml:"prc,omitempty"`
}

// IsTimestamp reports whether c is the logger's TIMESTAMP column.
func (c ColumnHeader) IsTimestamp() bool {
	return c.Name == TimestampName && c.Unit == TimestampUnit
}

// IsRecord reports whether c is the logger's RECORD column.
func (c ColumnHeader) IsRecord() bool {
	return c.Name == RecordName && c.Unit == RecordUnit
}

// =============================================================================
// HEADER
// =============================================================================

// Header is the parsed four-line preamble of one file.
type Header struct {
	// Env is the environment line.
	Env EnvironmentLine

	// Fixed holds the TIMESTAMP and RECORD columns, in file order.
	Fixed []ColumnHeader

	// Columns holds the data columns, in file order.
	Columns []ColumnHeader
}

// AllColumns returns the fixed columns followed by the data columns.
func (h *Header) AllColumns() []ColumnHeader {
	all := make([]ColumnHeader, 0, len(h.Fixed)+len(h.Columns))
	all = append(all, h.Fixed...)
	return append(all, h.Columns...)
}

// Width is the number of fields every data row must have.
func (h *Header) Width() int {
	return len(h.Fixed) + len(h.Columns)
}
