package xlsxwriter

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/ginjaninja78/toa5-converter/internal/toa5"
	"github.com/ginjaninja78/toa5-converter/internal/types"
)

func sampleFrame() *types.Frame {
	ts := time.Date(2021, 6, 19, 0, 0, 0, 0, time.UTC)
	return &types.Frame{
		Env: toa5.EnvironmentLine{
			StationName: "StationA",
			LoggerModel: "CR1000",
			TableName:   "Hourly",
		},
		Columns: []string{"AirTemp_Avg", "Status", "BattV_Min"},
		Rows: []types.Row{
			{
				Timestamp: ts,
				Record:    0,
				Values: []types.Value{
					{Raw: "12.5", Num: 12.5, Numeric: true},
					{Raw: "NAN", Missing: true},
					{Raw: "12.9", Num: 12.9, Numeric: true},
				},
				Line: 5,
			},
			{
				Timestamp: ts.Add(time.Hour),
				Record:    1,
				Values: []types.Value{
					{Raw: "11", Num: 11, Numeric: true},
					{Raw: "ok"},
					{Raw: "12.8", Num: 12.8, Numeric: true},
				},
				Line: 6,
			},
		},
	}
}

func TestWrite(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, sampleFrame()))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{"Hourly", EnvironmentSheet}, f.GetSheetList())

	header, err := f.GetRows("Hourly")
	require.NoError(t, err)
	require.Len(t, header, 3)
	assert.Equal(t, []string{"TIMESTAMP", "RECORD", "AirTemp_Avg", "Status", "BattV_Min"}, header[0])

	get := func(cell string) string {
		t.Helper()
		v, err := f.GetCellValue("Hourly", cell)
		require.NoError(t, err)
		return v
	}
	assert.Equal(t, "0", get("B2"))
	assert.Equal(t, "12.5", get("C2"))
	assert.Equal(t, "", get("D2"), "missing values are empty cells")
	assert.Equal(t, "ok", get("D3"))
	assert.Equal(t, "1", get("B3"))
	assert.NotEmpty(t, get("A2"))

	typ, err := f.GetCellType("Hourly", "C2")
	require.NoError(t, err)
	assert.NotEqual(t, excelize.CellTypeSharedString, typ, "numbers are not stored as text")

	station, err := f.GetCellValue(EnvironmentSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "StationA", station)
}

func TestWrite_FixedNames(t *testing.T) {
	frame := sampleFrame()
	frame.Fixed = []string{"timestamp", "record"}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, frame))

	f, err := excelize.OpenReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer f.Close()

	v, err := f.GetCellValue("Hourly", "A1")
	require.NoError(t, err)
	assert.Equal(t, "timestamp", v)
}

func TestSheetName(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"Hourly", "Hourly"},
		{"Table[1]", "Table_1_"},
		{"a/b:c", "a_b_c"},
		{"", DefaultDataSheet},
		{"  ", DefaultDataSheet},
		{"Environment", DefaultDataSheet},
		{"'quoted'", "quoted"},
		{strings.Repeat("x", 40), strings.Repeat("x", 31)},
		{"Température_" + strings.Repeat("é", 30), "Température_" + strings.Repeat("é", 19)},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SheetName(tt.in), tt.in)
	}
}
