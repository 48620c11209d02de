// =============================================================================
// TOA5 Converter - Convert Command
// =============================================================================
//
// This file defines the 'convert' command, which converts TOA5 files.
//
// COMMAND USAGE:
//   toa5 convert [flags] [FILE...]
//
// With no FILE arguments the input directory from the configuration is
// scanned for input.pattern (default "*.dat").
//
// PROCESSING PIPELINE:
//   1. Apply command-line flags over the configuration
//   2. Collect the input files
//   3. Convert the files concurrently, at most --jobs at a time
//   4. Report each file and write the error log, if enabled
//
// Errors in one file do not stop the others unless processing.stop_on_error
// is set. The command exits non-zero if any file failed.
//
// =============================================================================

package cmd

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/toa5-converter/internal/converter"
	"github.com/ginjaninja78/toa5-converter/internal/toa5"
	"github.com/ginjaninja78/toa5-converter/internal/validation"
	"github.com/ginjaninja78/toa5-converter/pkg/utils"
)

// errSkipped marks files not attempted after an earlier failure.
var errSkipped = errors.New("skipped after an earlier failure")

// convertFlags holds the flags of the convert command.
type convertFlags struct {
	naming namingFlags

	out         string
	outDir      string
	format      string
	headerMode  string
	outEncoding string
	naValue     string
	nameFormat  string
	envLine     string
	dryRun      bool
	archive     bool
	jobs        int
}

func newConvertCmd(a *app) *cobra.Command {
	cf := &convertFlags{}

	cmd := &cobra.Command{
		Use:   "convert [FILE...]",
		Short: "Convert TOA5 files to CSV or XLSX",
		Long: `The convert command reads each TOA5 file, builds its output headers,
checks them, and writes the data.

Headers are checked before anything is written. A file whose headers
contain forbidden characters (in strict mode) or collide with each other
produces no output at all.

On success:
  - The output is written next to the input, or into --out-dir
  - The input is archived if --archive is set

On error:
  - The error names the file, the line or column, and the offending value
  - The input stays where it is
  - Other files are still converted`,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, a, cf, args)
		},
	}

	addNamingFlags(cmd, &cf.naming)

	f := cmd.Flags()
	f.StringVarP(&cf.out, "out", "o", "", `Output file for a single input ("-" for stdout)`)
	f.StringVar(&cf.outDir, "out-dir", "", "Directory for output files (default: next to each input)")
	f.StringVar(&cf.format, "format", string(converter.FormatCSV), `Output format: "csv" or "xlsx"`)
	f.StringVar(&cf.headerMode, "header-mode", "names", `CSV header: "names" (one line) or "toa5" (original preamble)`)
	f.StringVar(&cf.outEncoding, "out-encoding", "utf-8", "Output character encoding (CSV only)")
	f.StringVar(&cf.naValue, "na-value", "", `Replace "NAN" cells with this value`)
	f.StringVar(&cf.nameFormat, "name-format", "{original}", "Output file name format ({original}, {table}, {station}, {uuid}, {timestamp}, {date})")
	f.StringVar(&cf.envLine, "env-line", "", "Write the environment line as JSON to this file (single input only)")
	f.BoolVar(&cf.dryRun, "dry-run", false, "Check headers without writing anything")
	f.BoolVar(&cf.archive, "archive", false, "Move converted inputs to the archive directory")
	f.IntVarP(&cf.jobs, "jobs", "j", 0, "Number of files converted at once (default from configuration)")

	return cmd
}

// apply copies explicitly set flags over the configuration.
func (cf *convertFlags) apply(cmd *cobra.Command, a *app) error {
	cfg := a.cfg
	f := cmd.Flags()

	cf.naming.apply(cmd, cfg)

	if f.Changed("out-dir") {
		cfg.Output.Dir = cf.outDir
	}
	if f.Changed("format") {
		cfg.Output.Format = cf.format
	}
	if f.Changed("header-mode") {
		cfg.Output.HeaderMode = cf.headerMode
	}
	if f.Changed("out-encoding") {
		cfg.Output.Encoding = cf.outEncoding
	}
	if f.Changed("na-value") {
		na := cf.naValue
		cfg.Output.NAValue = &na
	}
	if f.Changed("name-format") {
		cfg.Output.NameFormat = cf.nameFormat
	}
	if f.Changed("archive") {
		cfg.Input.Archive = cf.archive
	}
	if f.Changed("jobs") && cf.jobs > 0 {
		cfg.Processing.MaxConcurrency = cf.jobs
	}

	return cfg.Validate()
}

// =============================================================================
// MAIN PROCESSING FUNCTION
// =============================================================================

func runConvert(cmd *cobra.Command, a *app, cf *convertFlags, args []string) error {
	startTime := time.Now()
	stderr := cmd.ErrOrStderr()

	// =========================================================================
	// STEP 1: APPLY FLAGS
	// =========================================================================

	if err := cf.apply(cmd, a); err != nil {
		return err
	}
	cfg := a.cfg

	options, err := cfg.Options()
	if err != nil {
		return err
	}
	options.DryRun = cf.dryRun
	options.EnvLine = cfg.Output.EnvLine
	options.EnvLinePath = cf.envLine

	fm := utils.NewFileManager(cfg.Input.Dir, cfg.Output.Dir, cfg.Input.ArchiveDir)

	// =========================================================================
	// STEP 2: COLLECT INPUT FILES
	// =========================================================================

	inputs := args
	if len(inputs) == 0 {
		inputs, err = fm.DiscoverInputFiles(cfg.Input.Pattern)
		if err != nil {
			return err
		}
		if len(inputs) == 0 {
			fmt.Fprintf(stderr, "No files matching %q in %s.\n", cfg.Input.Pattern, cfg.Input.Dir)
			return nil
		}
	}

	if len(inputs) > 1 && (cf.out != "" || cf.envLine != "") {
		return fmt.Errorf("--out and --env-line take a single input file, got %d", len(inputs))
	}
	if cf.out == converter.Stdout && cfg.Output.Format == string(converter.FormatXLSX) && !cf.dryRun {
		a.logger.Warn("writing a binary workbook to stdout")
	}

	if !cf.dryRun {
		if err := fm.EnsureDirectories(cfg.Input.Archive); err != nil {
			return err
		}
	}

	a.logger.Debug("converting", "files", len(inputs), "jobs", cfg.Processing.MaxConcurrency)

	// =========================================================================
	// STEP 3: CONVERT FILES CONCURRENTLY
	// =========================================================================
	// Each file gets its own Converter and its own copy of the policy.

	namer := newOutputNamer(fm, cfg.Output.NameFormat, converter.OutputFormat(cfg.Output.Format).Ext())

	results := make([]converter.Result, len(inputs))
	sem := make(chan struct{}, cfg.Processing.MaxConcurrency)
	var failed atomic.Bool
	var wg sync.WaitGroup

	for i, input := range inputs {
		wg.Add(1)
		sem <- struct{}{}

		go func(i int, input string) {
			defer wg.Done()
			defer func() { <-sem }()

			if cfg.Processing.StopOnError && failed.Load() {
				results[i] = converter.Result{FilePath: input, Error: errSkipped}
				return
			}

			opts := []converter.Option{
				converter.WithLogger(a.logger),
				converter.WithStdout(cmd.OutOrStdout()),
				converter.WithOutputNamer(namer.forInput(input)),
			}
			if cfg.Input.Archive {
				opts = append(opts, converter.WithArchiver(fm))
			}

			conv, err := converter.New(input, cf.out, options, opts...)
			if err != nil {
				results[i] = converter.Result{FilePath: input, Error: err}
				failed.Store(true)
				return
			}

			results[i] = conv.Run()
			if !results[i].Success {
				failed.Store(true)
			}
		}(i, input)
	}
	wg.Wait()

	// =========================================================================
	// STEP 4: REPORT
	// =========================================================================

	summary := utils.ProcessingSummary{
		StartTime:  startTime,
		TotalFiles: len(inputs),
	}
	var errorEntries []utils.ErrorLogEntry

	for _, result := range results {
		name := filepath.Base(result.FilePath)
		if result.Success {
			summary.Successful++
			summary.TotalRows += result.Stats.RowsProcessed
			summary.ProcessedFiles = append(summary.ProcessedFiles, utils.ProcessedFileInfo{
				InputFile:   result.FilePath,
				OutputFile:  result.OutputFile,
				ArchivePath: result.ArchivePath,
				Columns:     result.Stats.Columns,
				Rows:        result.Stats.RowsProcessed,
				ProcessTime: result.Stats.ProcessingTime,
			})
			printSuccess(stderr, name, result, cf.dryRun)
			continue
		}

		summary.Failed++
		summary.FailedFiles = append(summary.FailedFiles, utils.FailedFileInfo{
			InputFile:    result.FilePath,
			ErrorMessage: result.Error.Error(),
			ErrorType:    errorType(result.Error),
		})
		errorEntries = append(errorEntries, errorLogEntries(result)...)
		fmt.Fprintf(stderr, "  ✗ %s: %v\n", name, result.Error)
	}
	summary.EndTime = time.Now()

	if len(inputs) > 1 {
		fmt.Fprintf(stderr, "\n=== Conversion Complete ===\n")
		fmt.Fprintf(stderr, "Total files:  %d\n", summary.TotalFiles)
		fmt.Fprintf(stderr, "Successful:   %d\n", summary.Successful)
		fmt.Fprintf(stderr, "Failed:       %d\n", summary.Failed)
		fmt.Fprintf(stderr, "Time elapsed: %s\n", summary.EndTime.Sub(startTime).Round(time.Millisecond))
	}

	if cfg.Processing.ErrorLog && !cf.dryRun {
		logDir := cfg.Output.Dir
		if logDir == "" {
			logDir = "."
		}
		if path, err := utils.WriteErrorLog(errorEntries, logDir); err != nil {
			a.logger.Error("failed to write error log", "error", err)
		} else if path != "" {
			fmt.Fprintf(stderr, "Errors have been logged to %s\n", path)
		}
		if _, err := utils.WriteSummaryLog(summary, logDir); err != nil {
			a.logger.Error("failed to write summary", "error", err)
		}
	}

	if summary.Failed > 0 {
		return fmt.Errorf("%d of %d file(s) failed", summary.Failed, summary.TotalFiles)
	}
	return nil
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

func printSuccess(w io.Writer, name string, result converter.Result, dryRun bool) {
	if dryRun {
		fmt.Fprintf(w, "  ✓ %s: %s\n", name, strings.Join(result.Headers.Names, ","))
		return
	}
	suffix := ""
	if result.Stats.Warnings > 0 {
		suffix = fmt.Sprintf(", %d column warning(s)", result.Stats.Warnings)
	}
	fmt.Fprintf(w, "  ✓ %s -> %s (%d rows%s)\n", name, result.OutputFile, result.Stats.RowsProcessed, suffix)
}

// outputNamer hands out output paths and refuses to give the same path to
// two inputs of one run.
type outputNamer struct {
	fm     *utils.FileManager
	format string
	ext    string

	mu    sync.Mutex
	taken map[string]string
}

func newOutputNamer(fm *utils.FileManager, format, ext string) *outputNamer {
	return &outputNamer{fm: fm, format: format, ext: ext, taken: make(map[string]string)}
}

func (n *outputNamer) forInput(input string) converter.OutputNamer {
	return func(env toa5.EnvironmentLine) (string, error) {
		base := filepath.Base(input)
		name := utils.GenerateOutputFileName(n.format, map[string]string{
			"original": strings.TrimSuffix(base, filepath.Ext(base)),
			"table":    env.TableName,
			"station":  env.StationName,
		}, n.ext)
		path := n.fm.OutputPath(input, name)

		n.mu.Lock()
		defer n.mu.Unlock()

		key, err := filepath.Abs(path)
		if err != nil {
			key = path
		}
		if other, ok := n.taken[key]; ok {
			return "", fmt.Errorf("output %s is also the output of %s", path, other)
		}
		if utils.SamePath(path, input) {
			return "", fmt.Errorf("output %s would overwrite the input", path)
		}
		n.taken[key] = input
		return path, nil
	}
}

// errorType names the kind of failure for logs and summaries.
func errorType(err error) string {
	var (
		formatErr *toa5.FormatError
		strictErr *converter.StrictNameError
		emptyErr  *validation.EmptyHeaderError
		dupErr    *validation.DuplicateHeaderError
		rowErr    *converter.RowError
	)
	switch {
	case errors.Is(err, errSkipped):
		return "skipped"
	case errors.As(err, &formatErr):
		return "format"
	case errors.As(err, &strictErr):
		return "strict name"
	case errors.As(err, &dupErr):
		return "duplicate header"
	case errors.As(err, &emptyErr):
		return "empty header"
	case errors.As(err, &rowErr):
		return "data row"
	default:
		return "error"
	}
}

// errorLogEntries turns a failed result into error log entries, one per
// header problem where the error carries several.
func errorLogEntries(result converter.Result) []utils.ErrorLogEntry {
	now := time.Now()
	base := utils.ErrorLogEntry{
		Timestamp: now,
		FileName:  result.FilePath,
	}

	var errs []error
	if joined, ok := unwrapJoined(result.Error); ok {
		errs = joined
	} else {
		errs = []error{result.Error}
	}

	entries := make([]utils.ErrorLogEntry, 0, len(errs))
	for _, err := range errs {
		entry := base
		entry.ErrorType = errorType(err)
		entry.ErrorMessage = err.Error()

		var (
			formatErr *toa5.FormatError
			strictErr *converter.StrictNameError
			emptyErr  *validation.EmptyHeaderError
			dupErr    *validation.DuplicateHeaderError
			rowErr    *converter.RowError
		)
		switch {
		case errors.As(err, &formatErr):
			entry.Line = formatErr.Line
		case errors.As(err, &strictErr):
			entry.Column = strictErr.Column
			entry.Header = strictErr.Value
		case errors.As(err, &dupErr):
			entry.Column = dupErr.Columns[0]
			entry.Header = dupErr.Header
		case errors.As(err, &emptyErr):
			entry.Column = emptyErr.Column
		case errors.As(err, &rowErr):
			entry.Line = rowErr.Line
			entry.Column = rowErr.Column
		}
		entries = append(entries, entry)
	}
	return entries
}

// unwrapJoined finds the first errors.Join result in err's chain.
func unwrapJoined(err error) ([]error, bool) {
	for err != nil {
		if j, ok := err.(interface{ Unwrap() []error }); ok {
			return j.Unwrap(), true
		}
		err = errors.Unwrap(err)
	}
	return nil, false
}
