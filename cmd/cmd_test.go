package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const hourly = `"TOA5","StationA","CR1000","12345","CR1000.Std.32","Prog1","SigA","Hourly"
"TIMESTAMP","RECORD","AirTemp","AirTemp","BattV"
"TS","RN","C","C","V"
"","","Avg","Max","Min"
"2021-06-19 00:00:00",0,12.5,13.1,12.9
"2021-06-19 01:00:00",1,"NAN",12.0,12.8
`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

// run executes the CLI with args and returns stdout, stderr and the error.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	root := newRootCmd()
	root.SetOut(&stdout)
	root.SetErr(&stderr)
	root.SetArgs(args)
	err := root.Execute()
	return stdout.String(), stderr.String(), err
}

func TestConvert_SingleFile(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "Hourly.dat", hourly)
	out := filepath.Join(dir, "out.csv")

	_, stderr, err := run(t, "convert", "-o", out, in)
	require.NoError(t, err, stderr)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "TIMESTAMP,RECORD,AirTemp_Avg,AirTemp_Max,BattV_Min\n"))
	assert.Contains(t, stderr, "✓ Hourly.dat")
}

func TestConvert_DefaultOutputNextToInput(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "Hourly.dat", hourly)

	_, stderr, err := run(t, "convert", in)
	require.NoError(t, err, stderr)
	assert.FileExists(t, filepath.Join(dir, "Hourly.csv"))
}

func TestConvert_Stdout(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "Hourly.dat", hourly)

	stdout, _, err := run(t, "convert", "-o", "-", "--sql", "--units", "join", "--na-value", "", in)
	require.NoError(t, err)

	lines := strings.Split(stdout, "\n")
	assert.Equal(t, "TIMESTAMP,RECORD,airtemp_avg_c,airtemp_max_c,battv_min_v", lines[0])
	assert.Equal(t, "2021-06-19 01:00:00,1,,12.0,12.8", lines[2])
}

func TestConvert_BatchWithFailure(t *testing.T) {
	dir := t.TempDir()
	outDir := filepath.Join(dir, "out")
	good := writeFile(t, dir, "good.dat", hourly)
	bad := writeFile(t, dir, "bad.dat", strings.Replace(hourly, `"Avg","Max","Min"`, `"Avg","Avg","Min"`, 1))

	_, stderr, err := run(t, "convert", "--out-dir", outDir, "-j", "2", good, bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "1 of 2 file(s) failed")

	assert.FileExists(t, filepath.Join(outDir, "good.csv"))
	assert.NoFileExists(t, filepath.Join(outDir, "bad.csv"))
	assert.Contains(t, stderr, `duplicate header "AirTemp_Avg" in columns 1, 2`)
	assert.Contains(t, stderr, "Failed:       1")
}

func TestConvert_AllowDupes(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "dupes.dat", strings.Replace(hourly, `"Avg","Max","Min"`, `"Avg","Avg","Min"`, 1))

	_, _, err := run(t, "convert", "--allow-dupes", in)
	require.NoError(t, err)
}

func TestConvert_StrictAndSanitize(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "slash.dat", strings.Replace(hourly, `"BattV"`, `"Batt/V"`, 1))

	_, stderr, err := run(t, "convert", "-o", "-", in)
	require.Error(t, err)
	assert.Contains(t, stderr, "column 3")

	stdout, _, err := run(t, "convert", "-o", "-", "--sanitize", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Batt_V_Min")

	stdout, _, err = run(t, "convert", "-o", "-", "--strict=false", in)
	require.NoError(t, err)
	assert.Contains(t, stdout, "Batt/V_Min")
}

func TestConvert_DirectoryFromConfig(t *testing.T) {
	dir := t.TempDir()
	inDir := filepath.Join(dir, "in")
	outDir := filepath.Join(dir, "out")
	require.NoError(t, os.Mkdir(inDir, 0o755))
	writeFile(t, inDir, "a.dat", hourly)
	writeFile(t, inDir, "b.dat", strings.Replace(hourly, `"Hourly"`, `"Daily"`, 1))
	writeFile(t, inDir, "notes.txt", "not data")

	cfg := writeFile(t, dir, "toa5.yaml", `
input:
  dir: `+inDir+`
  archive_dir: `+filepath.Join(dir, "archive")+`
output:
  dir: `+outDir+`
  name_format: "{station}_{table}"
processing:
  error_log: true
`)

	_, stderr, err := run(t, "--config", cfg, "convert", "--archive")
	require.NoError(t, err, stderr)

	assert.FileExists(t, filepath.Join(outDir, "StationA_Hourly.csv"))
	assert.FileExists(t, filepath.Join(outDir, "StationA_Daily.csv"))
	assert.FileExists(t, filepath.Join(dir, "archive", "a.dat"))
	assert.NoFileExists(t, filepath.Join(inDir, "a.dat"))
	assert.FileExists(t, filepath.Join(inDir, "notes.txt"))

	summaries, err := filepath.Glob(filepath.Join(outDir, "processing_summary_*.txt"))
	require.NoError(t, err)
	assert.Len(t, summaries, 1)
}

func TestConvert_OutputNameCollision(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.dat", hourly)
	b := writeFile(t, dir, "b.dat", hourly)

	_, stderr, err := run(t, "convert", "--name-format", "{table}", "-j", "1", a, b)
	require.Error(t, err)
	assert.Contains(t, stderr, "is also the output of")
	assert.FileExists(t, filepath.Join(dir, "Hourly.csv"))
}

func TestConvert_NeverOverwritesInput(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "data.csv", hourly)

	_, stderr, err := run(t, "convert", dir+"/./data.csv")
	require.Error(t, err)
	assert.Contains(t, stderr, "would overwrite the input")

	_, stderr, err = run(t, "convert", "-o", in, in)
	require.Error(t, err)
	assert.Contains(t, stderr, "would overwrite the input")

	data, err := os.ReadFile(in)
	require.NoError(t, err)
	assert.Equal(t, hourly, string(data))
}

func TestConvert_OutNeedsSingleInput(t *testing.T) {
	dir := t.TempDir()
	a := writeFile(t, dir, "a.dat", hourly)
	b := writeFile(t, dir, "b.dat", hourly)

	_, _, err := run(t, "convert", "-o", "x.csv", a, b)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "single input")
}

func TestConvert_DryRun(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "Hourly.dat", hourly)

	_, stderr, err := run(t, "convert", "--dry-run", in)
	require.NoError(t, err)
	assert.Contains(t, stderr, "AirTemp_Avg,AirTemp_Max,BattV_Min")
	assert.NoFileExists(t, filepath.Join(dir, "Hourly.csv"))
}

func TestConvert_InvalidFlags(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "Hourly.dat", hourly)

	_, _, err := run(t, "convert", "--units", "bracket", in)
	require.Error(t, err, "bracket units need sanitize or non-strict")

	_, _, err = run(t, "convert", "--format", "parquet", in)
	require.Error(t, err)
}

func TestHeaders_Plain(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "Hourly.dat", hourly)

	stdout, _, err := run(t, "headers", in)
	require.NoError(t, err)

	lines := strings.Split(strings.TrimRight(stdout, "\n"), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "TOA5\tStationA\tCR1000\t12345\tCR1000.Std.32\tProg1\tSigA\tHourly", lines[0])
	assert.Equal(t, "1\tAirTemp\tC\tAvg\tAirTemp_Avg\t", lines[2])
	assert.Equal(t, "3\tBattV\tV\tMin\tBattV_Min\t", lines[4])
}

func TestHeaders_ShowsEveryRejectedColumn(t *testing.T) {
	dir := t.TempDir()
	src := strings.Replace(hourly, `"AirTemp","AirTemp","BattV"`, `"Air/Temp","AirTemp","Batt[V]"`, 1)
	in := writeFile(t, dir, "bad.dat", src)

	stdout, _, err := run(t, "headers", in)
	require.Error(t, err)
	assert.Contains(t, stdout, `column name "Air/Temp"`)
	assert.Contains(t, stdout, `"Batt[V]_Min"`)
	assert.Contains(t, stdout, "column 1: header")
	assert.Contains(t, stdout, "column 3: header")
}

func TestHeaders_Styled(t *testing.T) {
	dir := t.TempDir()
	in := writeFile(t, dir, "Hourly.dat", hourly)

	a := &app{}
	require.NoError(t, a.init(newRootCmd()))

	var buf bytes.Buffer
	require.NoError(t, runHeaders(&buf, a, in, false))
	assert.Contains(t, buf.String(), "StationA / Hourly")
	assert.Contains(t, buf.String(), "AirTemp_Max")
}

func TestVersion(t *testing.T) {
	stdout, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, stdout, "TOA5 Converter")
	assert.Contains(t, stdout, "Version:")
}
