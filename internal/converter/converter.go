// =============================================================================
// TOA5 Converter - Converter Module
// =============================================================================
//
// This module contains the per-file conversion pipeline, from reading the
// TOA5 preamble to writing the output file.
//
// CONVERSION PIPELINE:
//   1. Open the input and parse its header
//   2. Transform the column headers and check the resulting set
//   3. Log columns whose name, unit or processing code look unusual
//   4. Write the output (CSV or XLSX) to a temporary file and rename it
//   5. Write the environment line sidecar, if asked to
//   6. Archive the input, if an archiver is set
//
// The header set is fully validated before any output file is created, so
// a rejected file never leaves an output behind.
//
// CONCURRENCY:
//   A Converter handles one file. Several Converters may run at once; they
//   share nothing but the logger.
//
// =============================================================================

package converter

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/ginjaninja78/toa5-converter/internal/csvparser"
	"github.com/ginjaninja78/toa5-converter/internal/csvwriter"
	"github.com/ginjaninja78/toa5-converter/internal/logging"
	"github.com/ginjaninja78/toa5-converter/internal/toa5"
	"github.com/ginjaninja78/toa5-converter/internal/types"
	"github.com/ginjaninja78/toa5-converter/internal/xlsxwriter"
	"github.com/ginjaninja78/toa5-converter/pkg/utils"
)

// Stdout is the output path that means "write to standard output".
const Stdout = "-"

// =============================================================================
// OPTIONS
// =============================================================================

// OutputFormat is the output file format.
type OutputFormat string

const (
	FormatCSV  OutputFormat = "csv"
	FormatXLSX OutputFormat = "xlsx"
)

// Ext returns the file extension for the format, including the dot.
func (f OutputFormat) Ext() string {
	return "." + string(f)
}

// Options holds everything a conversion needs besides the paths.
type Options struct {
	// Policy is the header naming policy.
	Policy Policy

	// InputEncoding is the WHATWG label of the input encoding.
	InputEncoding string

	// Format is the output format. Default: FormatCSV
	Format OutputFormat

	// CSV holds CSV output options.
	CSV csvwriter.Options

	// EnvLine writes the environment line as JSON next to the output.
	EnvLine bool

	// EnvLinePath overrides where the environment line is written.
	// Setting it implies EnvLine.
	EnvLinePath string

	// DryRun stops after the header checks. Nothing is written.
	DryRun bool
}

// Archiver moves a converted input out of the way.
type Archiver interface {
	ArchiveInputFile(path string) (string, error)
}

// =============================================================================
// RESULT STRUCTURE
// =============================================================================

// Result represents the outcome of converting a single file.
type Result struct {
	// FilePath is the input file.
	FilePath string

	// OutputFile is the written output, "-" for stdout, or empty if
	// nothing was written.
	OutputFile string

	// ArchivePath is where the input was archived to, if it was.
	ArchivePath string

	// Env is the environment line of the input, once read.
	Env toa5.EnvironmentLine

	// Headers is the transformed header set, once built. It is also set
	// when the set failed validation.
	Headers types.HeaderSet

	// Success indicates whether the conversion was successful.
	Success bool

	// Error contains the error if the conversion failed.
	Error error

	// Stats contains processing statistics.
	Stats ProcessingStats
}

// ProcessingStats contains statistics about one conversion.
type ProcessingStats struct {
	// Columns is the number of data columns.
	Columns int

	// RowsProcessed is the number of data rows written.
	RowsProcessed int

	// Warnings is the number of columns with unusual header entries.
	Warnings int

	// ProcessingTime is the time taken by the conversion.
	ProcessingTime time.Duration
}

// =============================================================================
// CONVERTER STRUCTURE
// =============================================================================

// Converter converts one TOA5 file.
type Converter struct {
	inPath      string
	outPath     string
	options     Options
	transformer *Transformer
	archiver    Archiver
	namer       OutputNamer
	logger      *slog.Logger
	stdout      io.Writer
}

// Option configures a Converter.
type Option func(*Converter)

// WithLogger sets the logger. The default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(c *Converter) {
		c.logger = logger
	}
}

// WithStdout sets where output path "-" writes to. The default is os.Stdout.
func WithStdout(w io.Writer) Option {
	return func(c *Converter) {
		c.stdout = w
	}
}

// OutputNamer picks the output path once the input's environment line is
// known.
type OutputNamer func(env toa5.EnvironmentLine) (string, error)

// WithOutputNamer names the output when New was given an empty outPath.
func WithOutputNamer(fn OutputNamer) Option {
	return func(c *Converter) {
		c.namer = fn
	}
}

// WithArchiver archives the input after a successful conversion.
func WithArchiver(a Archiver) Option {
	return func(c *Converter) {
		c.archiver = a
	}
}

// New creates a Converter for one input and output path.
//
// PARAMETERS:
//   - inPath: The TOA5 input file.
//   - outPath: The output file, "-" for stdout, or "" to use the
//     OutputNamer.
//   - options: The conversion options.
//
// RETURNS:
//   - A new Converter.
//   - An error if the options are invalid.
func New(inPath, outPath string, options Options, opts ...Option) (*Converter, error) {
	if options.Format == "" {
		options.Format = FormatCSV
	}
	switch options.Format {
	case FormatCSV, FormatXLSX:
	default:
		return nil, fmt.Errorf("unknown output format %q", options.Format)
	}
	if options.Format == FormatXLSX && options.CSV.HeaderMode == csvwriter.HeaderTOA5 {
		return nil, fmt.Errorf("header mode %q only applies to csv output", options.CSV.HeaderMode)
	}

	transformer, err := NewTransformer(options.Policy)
	if err != nil {
		return nil, err
	}

	c := &Converter{
		inPath:      inPath,
		outPath:     outPath,
		options:     options,
		transformer: transformer,
		stdout:      os.Stdout,
	}
	for _, opt := range opts {
		opt(c)
	}
	if outPath == "" && c.namer == nil {
		return nil, fmt.Errorf("no output path and no output namer")
	}
	c.logger = logging.ForFile(c.logger, inPath)
	return c, nil
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

// Run executes the conversion pipeline.
//
// RETURNS:
//   - A Result describing the outcome. Run never panics on bad input;
//     failures are reported in Result.Error.
func (c *Converter) Run() (result Result) {
	startTime := time.Now()
	result.FilePath = c.inPath
	defer func() {
		result.Stats.ProcessingTime = time.Since(startTime)
	}()

	// =========================================================================
	// STEP 1: OPEN INPUT
	// =========================================================================

	c.logger.Debug("opening input", "encoding", c.options.InputEncoding)

	reader, err := csvparser.Open(c.inPath, csvparser.Settings{Encoding: c.options.InputEncoding})
	if err != nil {
		result.Error = fmt.Errorf("%s: %w", c.inPath, err)
		return result
	}
	defer reader.Close()

	header := reader.Header()
	result.Env = header.Env
	result.Stats.Columns = len(header.Columns)

	// =========================================================================
	// STEP 2: BUILD HEADERS
	// =========================================================================
	// Strict-mode rejections and header collisions both stop the file here,
	// before any output exists.

	set, err := c.transformer.Headers(header)
	result.Headers = set
	if err != nil {
		result.Error = fmt.Errorf("%s: %w", c.inPath, err)
		return result
	}

	c.logger.Debug("built headers", "table", header.Env.TableName, "columns", set.Len())

	// =========================================================================
	// STEP 3: CHECK COLUMNS
	// =========================================================================

	if c.transformer.policy.Strict {
		result.Stats.Warnings = c.checkColumns(header)
	}

	// =========================================================================
	// STEP 4: WRITE OUTPUT
	// =========================================================================

	if c.options.DryRun {
		c.logger.Info("dry run, nothing written", "headers", strings.Join(set.Names, ","))
		result.Success = true
		return result
	}

	if c.outPath == "" {
		c.outPath, err = c.namer(header.Env)
		if err != nil {
			result.Error = fmt.Errorf("%s: %w", c.inPath, err)
			return result
		}
	}

	if c.outPath != Stdout && utils.SamePath(c.outPath, c.inPath) {
		result.Error = fmt.Errorf("%s: output %s would overwrite the input", c.inPath, c.outPath)
		return result
	}

	write := func(w io.Writer) error {
		rows, err := c.writeOutput(w, reader, set)
		result.Stats.RowsProcessed = rows
		return err
	}

	if c.outPath == Stdout {
		err = write(c.stdout)
	} else {
		err = utils.WriteFileAtomic(c.outPath, write)
	}
	if err != nil {
		result.Error = fmt.Errorf("%s: %w", c.inPath, err)
		return result
	}

	result.OutputFile = c.outPath
	c.logger.Info("wrote output", "output", c.outPath, "rows", result.Stats.RowsProcessed)

	// =========================================================================
	// STEP 5: ENVIRONMENT LINE
	// =========================================================================

	if c.options.EnvLine || c.options.EnvLinePath != "" {
		path := c.envLinePath()
		if utils.SamePath(path, c.inPath) {
			result.Error = fmt.Errorf("%s: environment line %s would overwrite the input", c.inPath, path)
			return result
		}
		if err := writeEnvLine(path, header.Env); err != nil {
			result.Error = fmt.Errorf("%s: %w", c.inPath, err)
			return result
		}
		c.logger.Debug("wrote environment line", "path", path)
	}

	// =========================================================================
	// STEP 6: ARCHIVE INPUT
	// =========================================================================

	if c.archiver != nil {
		reader.Close()
		archived, err := c.archiver.ArchiveInputFile(c.inPath)
		if err != nil {
			// The output is already in place, so this does not fail the file.
			c.logger.Warn("failed to archive input", "error", err)
		} else {
			result.ArchivePath = archived
		}
	}

	result.Success = true
	return result
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// checkColumns logs every column whose header entries look unusual and
// returns how many did.
func (c *Converter) checkColumns(h *toa5.Header) int {
	warnings := 0
	for i, col := range h.Columns {
		problems := col.Check()
		if len(problems) == 0 {
			continue
		}
		warnings++
		c.logger.Warn("unusual column header",
			"column", i+1,
			"name", col.Name,
			"unit", col.Unit,
			"prc", col.Prc,
			"problems", strings.Join(problems, "; "))
	}
	return warnings
}

// writeOutput writes the whole output in the configured format.
func (c *Converter) writeOutput(w io.Writer, reader *csvparser.Reader, set types.HeaderSet) (int, error) {
	switch c.options.Format {
	case FormatXLSX:
		frame, err := BuildFrame(reader, set)
		if err != nil {
			return 0, err
		}
		if err := xlsxwriter.Write(w, frame); err != nil {
			return 0, err
		}
		return len(frame.Rows), nil

	default:
		return writeCSV(w, reader, set, c.options.CSV)
	}
}

// writeCSV streams the data rows from reader to w as CSV.
func writeCSV(w io.Writer, reader *csvparser.Reader, set types.HeaderSet, options csvwriter.Options) (int, error) {
	cw, err := csvwriter.New(w, options)
	if err != nil {
		return 0, err
	}

	if err := cw.WriteHeader(reader.Header(), set); err != nil {
		return 0, err
	}
	for reader.Next() {
		if err := cw.WriteRow(reader.Row()); err != nil {
			return cw.Rows(), err
		}
	}
	if err := reader.Err(); err != nil {
		return cw.Rows(), err
	}
	return cw.Rows(), cw.Close()
}

// envLinePath returns where the environment line sidecar goes.
func (c *Converter) envLinePath() string {
	if c.options.EnvLinePath != "" {
		return c.options.EnvLinePath
	}
	base := c.outPath
	if base == Stdout {
		base = c.inPath
	}
	return strings.TrimSuffix(base, filepath.Ext(base)) + ".env.json"
}

// writeEnvLine writes env as indented JSON.
func writeEnvLine(path string, env toa5.EnvironmentLine) error {
	data, err := json.MarshalIndent(env, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode environment line: %w", err)
	}
	data = append(data, '\n')

	err = utils.WriteFileAtomic(path, func(w io.Writer) error {
		_, err := w.Write(data)
		return err
	})
	if err != nil {
		return fmt.Errorf("failed to write environment line: %w", err)
	}
	return nil
}
