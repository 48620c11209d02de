// =============================================================================
// TOA5 Converter - File Manager Utility
// =============================================================================
//
// This module provides the file handling around a conversion:
//   - Input discovery in a directory
//   - Output file naming from a placeholder format
//   - Atomic output writes (temp file + rename)
//   - Archival of converted inputs
//   - Error and summary logs for batch runs
//
// ARCHIVAL STRATEGY:
//   - Inputs are moved to the archive directory only after success
//   - Failed inputs stay where they are
//   - An existing archive entry is never overwritten
//
// =============================================================================

package utils

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

// =============================================================================
// FILE MANAGER
// =============================================================================

// FileManager handles file operations for a batch run.
type FileManager struct {
	// InputDir is scanned for input files.
	InputDir string

	// OutputDir receives outputs. Empty means next to each input.
	OutputDir string

	// ArchiveDir receives converted inputs.
	ArchiveDir string

	// UseDateSubdirs files archived inputs under YYYY/MM/DD.
	UseDateSubdirs bool
}

// NewFileManager creates a new FileManager with the specified directories.
func NewFileManager(inputDir, outputDir, archiveDir string) *FileManager {
	return &FileManager{
		InputDir:   inputDir,
		OutputDir:  outputDir,
		ArchiveDir: archiveDir,
	}
}

// EnsureDirectories creates the output and archive directories. The input
// directory is never created.
func (fm *FileManager) EnsureDirectories(withArchive bool) error {
	dirs := []string{fm.OutputDir}
	if withArchive {
		dirs = append(dirs, fm.ArchiveDir)
	}

	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return nil
}

// OutputPath returns where the output named name for input belongs.
func (fm *FileManager) OutputPath(input, name string) string {
	dir := fm.OutputDir
	if dir == "" {
		dir = filepath.Dir(input)
	}
	return filepath.Join(dir, name)
}

// SamePath reports whether a and b name the same file. Existing files are
// compared with os.SameFile, so links and different spellings of one path
// match; otherwise the absolute cleaned paths are compared.
func SamePath(a, b string) bool {
	ia, errA := os.Stat(a)
	ib, errB := os.Stat(b)
	if errA == nil && errB == nil {
		return os.SameFile(ia, ib)
	}

	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	if errA != nil || errB != nil {
		return filepath.Clean(a) == filepath.Clean(b)
	}
	return absA == absB
}

// =============================================================================
// FILE DISCOVERY
// =============================================================================

// DiscoverInputFiles scans the input directory for regular files matching
// pattern, sorted by name.
//
// PARAMETERS:
//   - pattern: A glob pattern (e.g., "*.dat"). If empty, "*.dat" is used.
//
// RETURNS:
//   - A slice of file paths.
//   - An error if the pattern is malformed.
func (fm *FileManager) DiscoverInputFiles(pattern string) ([]string, error) {
	if pattern == "" {
		pattern = "*.dat"
	}

	files, err := filepath.Glob(filepath.Join(fm.InputDir, pattern))
	if err != nil {
		return nil, fmt.Errorf("failed to scan input directory: %w", err)
	}

	var result []string
	for _, file := range files {
		info, err := os.Stat(file)
		if err != nil || !info.Mode().IsRegular() {
			continue
		}
		result = append(result, file)
	}

	sort.Strings(result)
	return result, nil
}

// =============================================================================
// FILE ARCHIVAL
// =============================================================================

// ArchiveInputFile moves a converted input file into the archive directory.
//
// RETURNS:
//   - The path to the archived file.
//   - An error if archival fails. The input is left in place then.
func (fm *FileManager) ArchiveInputFile(filePath string) (string, error) {
	archivePath, err := fm.archivePath(filePath, time.Now())
	if err != nil {
		return "", err
	}

	if err := os.MkdirAll(filepath.Dir(archivePath), 0o755); err != nil {
		return "", fmt.Errorf("failed to create archive directory: %w", err)
	}

	if err := os.Rename(filePath, archivePath); err != nil {
		// Rename fails across devices; fall back to copy and delete.
		if err := copyFile(filePath, archivePath); err != nil {
			return "", fmt.Errorf("failed to copy file to archive: %w", err)
		}
		if err := os.Remove(filePath); err != nil {
			return "", fmt.Errorf("failed to remove original file: %w", err)
		}
	}

	return archivePath, nil
}

// archivePath picks a free archive path for filePath.
func (fm *FileManager) archivePath(filePath string, now time.Time) (string, error) {
	dir := fm.ArchiveDir
	if fm.UseDateSubdirs {
		dir = filepath.Join(dir, now.Format("2006"), now.Format("01"), now.Format("02"))
	}

	base := filepath.Base(filePath)
	candidate := filepath.Join(dir, base)
	if _, err := os.Stat(candidate); os.IsNotExist(err) {
		return candidate, nil
	}

	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	for i := 1; i < 1000; i++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_%s_%d%s", stem, now.Format("20060102_150405"), i, ext))
		if _, err := os.Stat(candidate); os.IsNotExist(err) {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("no free archive name for %s in %s", base, dir)
}

// =============================================================================
// OUTPUT FILE NAMING
// =============================================================================

// GenerateOutputFileName expands an output name format.
//
// PARAMETERS:
//   - format: The format string. Placeholders:
//       {uuid}      - A random UUID
//       {timestamp} - Current timestamp (YYYYMMDD_HHMMSS)
//       {date}      - Current date (YYYYMMDD)
//       {time}      - Current time (HHMMSS)
//       {key}       - Any key in params, e.g. {original}, {table}, {station}
//   - params: Placeholder values. Path separators in values become "_".
//   - ext: The extension the name must end with, e.g. ".csv".
//
// EXAMPLE:
//   format: "{station}_{table}_{date}"
//   params: {"station": "CR1000X", "table": "Hourly"}
//   ext:    ".csv"
//   output: "CR1000X_Hourly_20240115.csv"
func GenerateOutputFileName(format string, params map[string]string, ext string) string {
	now := time.Now()

	pairs := []string{
		"{timestamp}", now.Format("20060102_150405"),
		"{date}", now.Format("20060102"),
		"{time}", now.Format("150405"),
	}
	if strings.Contains(format, "{uuid}") {
		pairs = append(pairs, "{uuid}", uuid.New().String())
	}

	keys := make([]string, 0, len(params))
	for key := range params {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		pairs = append(pairs, "{"+key+"}", safeNamePart(params[key]))
	}

	result := strings.NewReplacer(pairs...).Replace(format)

	if ext != "" && !strings.HasSuffix(strings.ToLower(result), strings.ToLower(ext)) {
		result += ext
	}
	return result
}

func safeNamePart(s string) string {
	return strings.NewReplacer("/", "_", `\`, "_").Replace(strings.TrimSpace(s))
}

// =============================================================================
// ATOMIC WRITES
// =============================================================================

// WriteFileAtomic writes path through fn. The data goes to a temporary file
// in the same directory that is renamed over path only when fn and the
// close succeed, so readers never see a partial file.
func WriteFileAtomic(path string, fn func(w io.Writer) error) (err error) {
	dir := filepath.Dir(path)
	tmp, err := os.CreateTemp(dir, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("failed to create temporary file: %w", err)
	}

	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	bw := bufio.NewWriter(tmp)
	if err = fn(bw); err != nil {
		return err
	}
	if err = bw.Flush(); err != nil {
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err = tmp.Sync(); err != nil {
		return fmt.Errorf("failed to sync %s: %w", path, err)
	}
	if err = tmp.Chmod(outputMode(path)); err != nil {
		return fmt.Errorf("failed to set permissions on %s: %w", path, err)
	}
	if err = tmp.Close(); err != nil {
		return fmt.Errorf("failed to close %s: %w", path, err)
	}
	if err = os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("failed to move output into place: %w", err)
	}
	return nil
}

// outputMode is the mode for a file written to path: the mode of the file
// being replaced, or 0644 for a new one.
func outputMode(path string) os.FileMode {
	if info, err := os.Stat(path); err == nil && info.Mode().IsRegular() {
		return info.Mode().Perm()
	}
	return 0o644
}

// =============================================================================
// ERROR LOG GENERATION
// =============================================================================

// ErrorLogEntry represents a single error log entry.
type ErrorLogEntry struct {
	Timestamp    time.Time
	FileName     string
	ErrorType    string
	ErrorMessage string
	Line         int
	Column       int
	Header       string
}

// WriteErrorLog writes error entries to error_log_<timestamp>.txt in
// outputDir. Nothing is written for an empty slice.
//
// RETURNS:
//   - The path to the error log file, or "" if nothing was written.
//   - An error if writing fails.
func WriteErrorLog(entries []ErrorLogEntry, outputDir string) (string, error) {
	if len(entries) == 0 {
		return "", nil
	}

	logPath := filepath.Join(outputDir, fmt.Sprintf("error_log_%s.txt", time.Now().Format("20060102_150405")))

	err := WriteFileAtomic(logPath, func(w io.Writer) error {
		fmt.Fprintf(w, "TOA5 Converter - Error Log\n"+
			"Generated: %s\n"+
			"Total Errors: %d\n"+
			"================================================================================\n\n",
			time.Now().Format("2006-01-02 15:04:05"), len(entries))

		for i, entry := range entries {
			fmt.Fprintf(w, "Error #%d\n"+
				"  Timestamp:  %s\n"+
				"  File:       %s\n"+
				"  Error Type: %s\n"+
				"  Message:    %s\n",
				i+1,
				entry.Timestamp.Format("2006-01-02 15:04:05"),
				entry.FileName,
				entry.ErrorType,
				entry.ErrorMessage)
			if entry.Line > 0 {
				fmt.Fprintf(w, "  Line:       %d\n", entry.Line)
			}
			if entry.Column > 0 {
				fmt.Fprintf(w, "  Column:     %d\n", entry.Column)
			}
			if entry.Header != "" {
				fmt.Fprintf(w, "  Header:     %s\n", entry.Header)
			}
			fmt.Fprintln(w)
		}

		_, err := io.WriteString(w, "================================================================================\n"+
			"End of Error Log\n")
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to write error log: %w", err)
	}
	return logPath, nil
}

// =============================================================================
// PROCESSING SUMMARY
// =============================================================================

// ProcessingSummary contains summary information about a batch run.
type ProcessingSummary struct {
	StartTime      time.Time
	EndTime        time.Time
	TotalFiles     int
	Successful     int
	Failed         int
	TotalRows      int
	ProcessedFiles []ProcessedFileInfo
	FailedFiles    []FailedFileInfo
}

// ProcessedFileInfo describes a converted file.
type ProcessedFileInfo struct {
	InputFile   string
	OutputFile  string
	ArchivePath string
	Columns     int
	Rows        int
	ProcessTime time.Duration
}

// FailedFileInfo describes a failed file.
type FailedFileInfo struct {
	InputFile    string
	ErrorMessage string
	ErrorType    string
}

// WriteSummaryLog writes processing_summary_<timestamp>.txt to outputDir.
func WriteSummaryLog(summary ProcessingSummary, outputDir string) (string, error) {
	summaryPath := filepath.Join(outputDir, fmt.Sprintf("processing_summary_%s.txt", time.Now().Format("20060102_150405")))

	err := WriteFileAtomic(summaryPath, func(w io.Writer) error {
		fmt.Fprintf(w, "TOA5 Converter - Processing Summary\n"+
			"================================================================================\n\n"+
			"Run Information:\n"+
			"  Start Time: %s\n"+
			"  End Time:   %s\n"+
			"  Duration:   %s\n\n"+
			"Statistics:\n"+
			"  Total Files: %d\n"+
			"  Successful:  %d\n"+
			"  Failed:      %d\n"+
			"  Total Rows:  %d\n\n",
			summary.StartTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Format("2006-01-02 15:04:05"),
			summary.EndTime.Sub(summary.StartTime).String(),
			summary.TotalFiles,
			summary.Successful,
			summary.Failed,
			summary.TotalRows)

		if len(summary.ProcessedFiles) > 0 {
			fmt.Fprint(w, "Successful Files:\n"+
				"--------------------------------------------------------------------------------\n")
			for _, pf := range summary.ProcessedFiles {
				fmt.Fprintf(w, "  Input:        %s\n", pf.InputFile)
				fmt.Fprintf(w, "  Output:       %s\n", pf.OutputFile)
				if pf.ArchivePath != "" {
					fmt.Fprintf(w, "  Archived:     %s\n", pf.ArchivePath)
				}
				fmt.Fprintf(w, "  Columns:      %d\n", pf.Columns)
				fmt.Fprintf(w, "  Rows:         %d\n", pf.Rows)
				fmt.Fprintf(w, "  Process Time: %s\n\n", pf.ProcessTime.String())
			}
		}

		if len(summary.FailedFiles) > 0 {
			fmt.Fprint(w, "Failed Files:\n"+
				"--------------------------------------------------------------------------------\n")
			for _, ff := range summary.FailedFiles {
				fmt.Fprintf(w, "  File:  %s\n", ff.InputFile)
				fmt.Fprintf(w, "  Type:  %s\n", ff.ErrorType)
				fmt.Fprintf(w, "  Error: %s\n\n", ff.ErrorMessage)
			}
		}

		_, err := io.WriteString(w, "================================================================================\n"+
			"End of Summary\n")
		return err
	})
	if err != nil {
		return "", fmt.Errorf("failed to write summary file: %w", err)
	}
	return summaryPath, nil
}

// =============================================================================
// UTILITY FUNCTIONS
// =============================================================================

// copyFile copies a file from src to dst.
func copyFile(src, dst string) error {
	sourceFile, err := os.Open(src)
	if err != nil {
		return err
	}
	defer sourceFile.Close()

	destFile, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destFile.Close()

	if _, err := io.Copy(destFile, sourceFile); err != nil {
		return err
	}
	return destFile.Sync()
}
