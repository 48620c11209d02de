package utils

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestDiscoverInputFiles(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "b.dat"), "x")
	writeFile(t, filepath.Join(dir, "a.dat"), "x")
	writeFile(t, filepath.Join(dir, "notes.txt"), "x")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "dir.dat"), 0o755))

	fm := NewFileManager(dir, "", "")

	files, err := fm.DiscoverInputFiles("")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "a.dat"), filepath.Join(dir, "b.dat")}, files)

	files, err = fm.DiscoverInputFiles("*.txt")
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(dir, "notes.txt")}, files)

	_, err = fm.DiscoverInputFiles("[")
	assert.Error(t, err)
}

func TestGenerateOutputFileName(t *testing.T) {
	params := map[string]string{"original": "CR1000X_Hourly", "table": "Hourly", "station": "Site/A"}

	assert.Equal(t, "CR1000X_Hourly.csv", GenerateOutputFileName("{original}", params, ".csv"))
	assert.Equal(t, "Site_A-Hourly.xlsx", GenerateOutputFileName("{station}-{table}.xlsx", params, ".xlsx"))
	assert.Equal(t, "Hourly.CSV", GenerateOutputFileName("{table}.CSV", params, ".csv"))

	name := GenerateOutputFileName("{uuid}", nil, ".csv")
	assert.Regexp(t, regexp.MustCompile(`^[0-9a-f-]{36}\.csv$`), name)

	name = GenerateOutputFileName("{table}_{date}", params, "")
	assert.Equal(t, "Hourly_"+time.Now().Format("20060102"), name)
}

func TestOutputPath(t *testing.T) {
	fm := NewFileManager("in", "", "")
	assert.Equal(t, filepath.Join("data", "x.csv"), fm.OutputPath(filepath.Join("data", "x.dat"), "x.csv"))

	fm.OutputDir = "out"
	assert.Equal(t, filepath.Join("out", "x.csv"), fm.OutputPath(filepath.Join("data", "x.dat"), "x.csv"))
}

func TestWriteFileAtomic(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.csv")

	require.NoError(t, WriteFileAtomic(path, func(w io.Writer) error {
		_, err := io.WriteString(w, "a,b\n")
		return err
	}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data))

	boom := errors.New("boom")
	err = WriteFileAtomic(path, func(w io.Writer) error {
		io.WriteString(w, "partial")
		return boom
	})
	require.ErrorIs(t, err, boom)

	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "a,b\n", string(data), "a failed write leaves the old file alone")

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")
}

func TestWriteFileAtomic_Mode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dir := t.TempDir()
	write := func(path string) {
		require.NoError(t, WriteFileAtomic(path, func(w io.Writer) error {
			_, err := io.WriteString(w, "x\n")
			return err
		}))
	}

	fresh := filepath.Join(dir, "fresh.csv")
	write(fresh)
	info, err := os.Stat(fresh)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	private := filepath.Join(dir, "private.csv")
	require.NoError(t, os.WriteFile(private, []byte("old"), 0o600))
	require.NoError(t, os.Chmod(private, 0o600))
	write(private)
	info, err = os.Stat(private)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm(), "a replaced file keeps its mode")
}

func TestSamePath(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "data.dat")
	writeFile(t, path, "x")

	assert.True(t, SamePath(path, dir+"/./data.dat"))
	assert.True(t, SamePath(path, filepath.Join(dir, "sub", "..", "data.dat")))
	assert.False(t, SamePath(path, filepath.Join(dir, "data.csv")))
	assert.True(t, SamePath(filepath.Join(dir, "new.csv"), dir+"/./new.csv"), "paths that do not exist yet")
}

func TestArchiveInputFile(t *testing.T) {
	dir := t.TempDir()
	archive := filepath.Join(dir, "archive")
	fm := NewFileManager(dir, "", archive)
	require.NoError(t, fm.EnsureDirectories(true))

	first := filepath.Join(dir, "x.dat")
	writeFile(t, first, "one")
	dest, err := fm.ArchiveInputFile(first)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(archive, "x.dat"), dest)
	assert.NoFileExists(t, first)

	writeFile(t, first, "two")
	dest2, err := fm.ArchiveInputFile(first)
	require.NoError(t, err)
	assert.NotEqual(t, dest, dest2)
	assert.True(t, strings.HasPrefix(filepath.Base(dest2), "x_"))

	data, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "one", string(data), "an archived file is never overwritten")
}

func TestWriteErrorLog(t *testing.T) {
	dir := t.TempDir()

	path, err := WriteErrorLog(nil, dir)
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = WriteErrorLog([]ErrorLogEntry{{
		Timestamp:    time.Now(),
		FileName:     "a.dat",
		ErrorType:    "duplicate header",
		ErrorMessage: `duplicate header "x" in columns 1, 2`,
		Column:       1,
		Header:       "x",
	}}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Total Errors: 1")
	assert.Contains(t, string(data), "Column:     1")
	assert.NotContains(t, string(data), "Line:")
}

func TestWriteSummaryLog(t *testing.T) {
	dir := t.TempDir()
	start := time.Now()

	path, err := WriteSummaryLog(ProcessingSummary{
		StartTime:      start,
		EndTime:        start.Add(time.Second),
		TotalFiles:     2,
		Successful:     1,
		Failed:         1,
		TotalRows:      10,
		ProcessedFiles: []ProcessedFileInfo{{InputFile: "a.dat", OutputFile: "a.csv", Columns: 3, Rows: 10}},
		FailedFiles:    []FailedFileInfo{{InputFile: "b.dat", ErrorType: "format", ErrorMessage: "not a TOA5 file"}},
	}, dir)
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Successful:  1")
	assert.Contains(t, string(data), "a.csv")
	assert.Contains(t, string(data), "not a TOA5 file")
}
