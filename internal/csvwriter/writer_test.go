package csvwriter

import (
	"bytes"
	"encoding/csv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/toa5-converter/internal/toa5"
	"github.com/ginjaninja78/toa5-converter/internal/types"
)

const preamble = `"TOA5","StationA","CR1000","12345","CR1000.Std.32","Prog1","SigA","Hourly"
"TIMESTAMP","RECORD","AirTemp","AirTemp"
"TS","RN","Deg C","Deg C"
"","","Avg","Max"
`

func parseHeader(t *testing.T) *toa5.Header {
	t.Helper()
	r := csv.NewReader(strings.NewReader(preamble))
	r.FieldsPerRecord = -1
	h, err := toa5.ReadHeader(r)
	require.NoError(t, err)
	return h
}

func dataSet() types.HeaderSet {
	return types.HeaderSet{Names: []string{"AirTemp_Avg", "AirTemp_Max"}}
}

func TestWriter_Names(t *testing.T) {
	h := parseHeader(t)

	var buf bytes.Buffer
	w, err := New(&buf, Options{})
	require.NoError(t, err)

	require.NoError(t, w.WriteHeader(h, dataSet()))
	require.NoError(t, w.WriteRow([]string{"2021-06-19 00:00:00", "0", "12.5", "NAN"}))
	require.NoError(t, w.Close())

	assert.Equal(t, "TIMESTAMP,RECORD,AirTemp_Avg,AirTemp_Max\n"+
		"2021-06-19 00:00:00,0,12.5,NAN\n", buf.String())
	assert.Equal(t, 1, w.Rows())
}

func TestWriter_IncludeFixedNames(t *testing.T) {
	h := parseHeader(t)
	set := types.HeaderSet{Names: []string{"timestamp", "record", "airtemp_avg", "airtemp_max"}, Fixed: 2}

	assert.Equal(t, set.Names, HeaderLine(h, set))
	assert.Equal(t, []string{"TIMESTAMP", "RECORD", "AirTemp_Avg", "AirTemp_Max"}, HeaderLine(h, dataSet()))
}

func TestWriter_TOA5RoundTrip(t *testing.T) {
	h := parseHeader(t)

	var buf bytes.Buffer
	w, err := New(&buf, Options{HeaderMode: HeaderTOA5})
	require.NoError(t, err)
	require.NoError(t, w.WriteHeader(h, dataSet()))
	require.NoError(t, w.Close())

	r := csv.NewReader(&buf)
	r.FieldsPerRecord = -1
	again, err := toa5.ReadHeader(r)
	require.NoError(t, err)
	assert.Equal(t, h, again)
}

func TestWriter_NAValue(t *testing.T) {
	blank := ""

	var buf bytes.Buffer
	w, err := New(&buf, Options{NAValue: &blank})
	require.NoError(t, err)

	row := []string{"NAN", "0", "NAN", "1.5"}
	require.NoError(t, w.WriteRow(row))
	require.NoError(t, w.Close())

	assert.Equal(t, "NAN,0,,1.5\n", buf.String(), "fixed columns are left alone")
	assert.Equal(t, "NAN", row[2], "the caller's row is not modified")
}

func TestWriter_Encoding(t *testing.T) {
	var buf bytes.Buffer
	w, err := New(&buf, Options{Encoding: "windows-1252"})
	require.NoError(t, err)
	require.NoError(t, w.WriteRow([]string{"x", "1", "°C"}))
	require.NoError(t, w.Close())

	assert.Equal(t, []byte{'x', ',', '1', ',', 0xB0, 'C', '\n'}, buf.Bytes())
}

func TestNew_Invalid(t *testing.T) {
	_, err := New(&bytes.Buffer{}, Options{HeaderMode: "wide"})
	assert.Error(t, err)

	_, err = New(&bytes.Buffer{}, Options{Encoding: "klingon"})
	assert.Error(t, err)
}
