package validation

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ginjaninja78/toa5-converter/internal/toa5"
	"github.com/ginjaninja78/toa5-converter/internal/types"
)

func headerSet(names ...string) types.HeaderSet {
	sources := make([]toa5.ColumnHeader, len(names))
	for i, n := range names {
		sources[i] = toa5.ColumnHeader{Name: n}
	}
	return types.HeaderSet{Names: names, Sources: sources}
}

func TestValidate_Unique(t *testing.T) {
	result := Validate(headerSet("AirTemp_Avg", "AirTemp_Max"), Options{})

	assert.True(t, result.IsValid)
	assert.NoError(t, result.Err())
	assert.Equal(t, 2, result.HeadersValidated)
}

func TestValidate_DuplicateNamesColumns(t *testing.T) {
	result := Validate(headerSet("Temp_Avg", "Temp_Avg"), Options{})
	require.False(t, result.IsValid)

	var dup *DuplicateHeaderError
	require.True(t, errors.As(result.Err(), &dup))
	assert.Equal(t, "Temp_Avg", dup.Header)
	assert.Equal(t, []int{1, 2}, dup.Columns)
}

func TestValidate_MultipleDuplicateGroups(t *testing.T) {
	result := Validate(headerSet("b", "a", "b", "c", "a", "b"), Options{})
	require.Len(t, result.Errors, 2)

	first := result.Errors[0].(*DuplicateHeaderError)
	second := result.Errors[1].(*DuplicateHeaderError)
	assert.Equal(t, "b", first.Header)
	assert.Equal(t, []int{1, 3, 6}, first.Columns)
	assert.Equal(t, "a", second.Header)
	assert.Equal(t, []int{2, 5}, second.Columns)
}

func TestValidate_AllowDupes(t *testing.T) {
	result := Validate(headerSet("x", "x"), Options{AllowDupes: true})
	assert.True(t, result.IsValid)
	assert.NoError(t, result.Err())
}

func TestValidate_EmptyIsNeverWaived(t *testing.T) {
	set := types.HeaderSet{
		Names:   []string{"x", ""},
		Sources: []toa5.ColumnHeader{{Name: "x"}, {}},
	}

	for _, allow := range []bool{false, true} {
		result := Validate(set, Options{AllowDupes: allow})
		require.False(t, result.IsValid)

		var empty *EmptyHeaderError
		require.True(t, errors.As(result.Err(), &empty))
		assert.Equal(t, 2, empty.Column)
	}
}

func TestValidate_EmptyHeadersAreNotDuplicates(t *testing.T) {
	result := Validate(types.HeaderSet{Names: []string{"", ""}}, Options{})
	require.Len(t, result.Errors, 2)

	var dup *DuplicateHeaderError
	assert.False(t, errors.As(result.Err(), &dup))
}

func TestValidate_FoldCase(t *testing.T) {
	set := headerSet("Temp", "TEMP")

	assert.True(t, Validate(set, Options{}).IsValid, "case-sensitive by default")

	result := Validate(set, Options{FoldCase: true})
	require.False(t, result.IsValid)
	dup := result.Errors[0].(*DuplicateHeaderError)
	assert.Equal(t, "Temp", dup.Header)
	assert.Equal(t, []int{1, 2}, dup.Columns)
}

func TestFormatErrors(t *testing.T) {
	assert.Equal(t, "No validation errors.", FormatErrors(nil))

	out := FormatErrors([]error{
		&EmptyHeaderError{Column: 3},
		&DuplicateHeaderError{Header: "a", Columns: []int{1, 2}},
	})
	assert.Contains(t, out, "2 error(s)")
	assert.Contains(t, out, "1. column 3: empty header")
	assert.Contains(t, out, `2. duplicate header "a" in columns 1, 2`)
}
