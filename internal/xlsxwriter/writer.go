// =============================================================================
// TOA5 Converter - XLSX Writer Module
// =============================================================================
//
// This module writes a Frame to an Excel workbook using excelize.
//
// WORKBOOK LAYOUT:
//   <table name>  : the data sheet
//                   row 1   : TIMESTAMP, RECORD, <column names>
//                   row 2.. : one row per frame row
//   environment   : key/value pairs from the environment line
//
// Numbers are written as numbers, timestamps as dates and missing values
// as empty cells. Non-numeric text is written as a string.
//
// Rows are streamed with excelize's StreamWriter, so large frames do not
// build a cell tree in memory.
//
// =============================================================================

package xlsxwriter

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/toa5-converter/internal/toa5"
	"github.com/ginjaninja78/toa5-converter/internal/types"
)

const (
	// EnvironmentSheet is the name of the sheet holding the environment line.
	EnvironmentSheet = "environment"

	// DefaultDataSheet is used when the table name gives no usable sheet name.
	DefaultDataSheet = "data"

	maxSheetName = 31

	timestampFormat = "yyyy-mm-dd hh:mm:ss"
)

// Write writes frame as an XLSX workbook to w.
//
// PARAMETERS:
//   - w: The destination.
//   - frame: The frame to write.
//
// RETURNS:
//   - An error if the workbook cannot be built or written.
func Write(w io.Writer, frame *types.Frame) error {
	f := excelize.NewFile()
	defer f.Close()

	sheet := SheetName(frame.Env.TableName)
	if err := f.SetSheetName("Sheet1", sheet); err != nil {
		return fmt.Errorf("failed to name data sheet: %w", err)
	}

	if err := writeData(f, sheet, frame); err != nil {
		return err
	}
	if err := writeEnvironment(f, frame.Env); err != nil {
		return err
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

// writeData streams the header and data rows into sheet.
func writeData(f *excelize.File, sheet string, frame *types.Frame) error {
	headerStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("failed to create header style: %w", err)
	}
	numFmt := timestampFormat
	dateStyle, err := f.NewStyle(&excelize.Style{CustomNumFmt: &numFmt})
	if err != nil {
		return fmt.Errorf("failed to create date style: %w", err)
	}

	sw, err := f.NewStreamWriter(sheet)
	if err != nil {
		return fmt.Errorf("failed to open stream writer: %w", err)
	}
	if err := sw.SetColWidth(1, 1, 20); err != nil {
		return fmt.Errorf("failed to set column width: %w", err)
	}

	fixed := frame.Fixed
	if len(fixed) == 0 {
		fixed = []string{toa5.TimestampName, toa5.RecordName}
	}

	header := make([]interface{}, 0, len(fixed)+len(frame.Columns))
	for _, name := range fixed {
		header = append(header, excelize.Cell{StyleID: headerStyle, Value: name})
	}
	for _, name := range frame.Columns {
		header = append(header, excelize.Cell{StyleID: headerStyle, Value: name})
	}
	if err := sw.SetRow("A1", header); err != nil {
		return fmt.Errorf("failed to write header row: %w", err)
	}

	for i, row := range frame.Rows {
		cells := make([]interface{}, 0, 2+len(row.Values))
		cells = append(cells,
			excelize.Cell{StyleID: dateStyle, Value: row.Timestamp},
			row.Record,
		)
		for _, v := range row.Values {
			cells = append(cells, cellValue(v))
		}

		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := sw.SetRow(cell, cells); err != nil {
			return fmt.Errorf("failed to write row for line %d: %w", row.Line, err)
		}
	}

	if err := sw.Flush(); err != nil {
		return fmt.Errorf("failed to flush data sheet: %w", err)
	}
	return nil
}

// writeEnvironment adds the environment sheet.
func writeEnvironment(f *excelize.File, env toa5.EnvironmentLine) error {
	if _, err := f.NewSheet(EnvironmentSheet); err != nil {
		return fmt.Errorf("failed to create environment sheet: %w", err)
	}

	rows := [][]interface{}{
		{"file_type", toa5.Tag},
		{"station_name", env.StationName},
		{"logger_model", env.LoggerModel},
		{"logger_serial", env.LoggerSerial},
		{"logger_os", env.LoggerOS},
		{"program_name", env.ProgramName},
		{"program_sig", env.ProgramSig},
		{"table_name", env.TableName},
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(EnvironmentSheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write environment sheet: %w", err)
		}
	}
	return nil
}

func cellValue(v types.Value) interface{} {
	switch {
	case v.Missing:
		return nil
	case v.Numeric:
		return v.Num
	default:
		return v.Raw
	}
}

// SheetName turns a table name into a valid worksheet name: at most 31
// characters, none of : \ / ? * [ ], no leading or trailing apostrophe.
func SheetName(table string) string {
	name := strings.Map(func(r rune) rune {
		switch r {
		case ':', '\\', '/', '?', '*', '[', ']':
			return '_'
		}
		return r
	}, strings.TrimSpace(table))
	name = strings.Trim(name, "'")

	if utf8.RuneCountInString(name) > maxSheetName {
		name = string([]rune(name)[:maxSheetName])
	}
	if name == "" || strings.EqualFold(name, EnvironmentSheet) {
		return DefaultDataSheet
	}
	return name
}
