// =============================================================================
// TOA5 Converter - Header Validation Module
// =============================================================================
//
// This module checks a complete set of transformed column headers before any
// data row is written. A header set is rejected if:
//   - any header is the empty string (never waivable)
//   - two or more headers are equal (unless duplicates are allowed)
//
// Running the check on the whole set up front means a caller never ends up
// with a half-written output file whose columns are ambiguous.
//
// =============================================================================

package validation

import (
	"errors"
	"fmt"
	"strings"

	"github.com/ginjaninja78/toa5-converter/internal/toa5"
	"github.com/ginjaninja78/toa5-converter/internal/types"
)

// =============================================================================
// VALIDATION ERROR TYPES
// =============================================================================

// EmptyHeaderError reports a column whose output header is empty.
type EmptyHeaderError struct {
	// Column is the 1-based position in the header set.
	Column int

	// Source is the column header the empty name was derived from.
	Source toa5.ColumnHeader
}

// Error implements the error interface.
func (e *EmptyHeaderError) Error() string {
	return fmt.Sprintf("column %d: empty header (name %q, unit %q, prc %q)",
		e.Column, e.Source.Name, e.Source.Unit, e.Source.Prc)
}

// DuplicateHeaderError reports a header shared by two or more columns.
type DuplicateHeaderError struct {
	// Header is the duplicated string (as first seen).
	Header string

	// Columns are the 1-based positions of every column using it, ascending.
	Columns []int
}

// Error implements the error interface.
func (e *DuplicateHeaderError) Error() string {
	cols := make([]string, len(e.Columns))
	for i, c := range e.Columns {
		cols[i] = fmt.Sprint(c)
	}
	return fmt.Sprintf("duplicate header %q in columns %s", e.Header, strings.Join(cols, ", "))
}

// =============================================================================
// VALIDATION RESULT
// =============================================================================

// Result contains the outcome of validating one header set.
type Result struct {
	// IsValid is true if no errors were found.
	IsValid bool

	// Errors contains all problems found, empty headers first, then
	// duplicates, each group in column order.
	Errors []error

	// HeadersValidated is the number of headers checked.
	HeadersValidated int
}

// Err returns nil for a valid set, otherwise all errors joined.
func (r *Result) Err() error {
	if r.IsValid {
		return nil
	}
	return errors.Join(r.Errors...)
}

// =============================================================================
// VALIDATOR
// =============================================================================

// Options controls validation.
type Options struct {
	// AllowDupes lets duplicate headers pass. Empty headers are still errors.
	// Default: false
	AllowDupes bool

	// FoldCase compares headers case-insensitively, for targets such as
	// SQL engines that fold unquoted identifiers.
	// Default: false
	FoldCase bool
}

// Validator checks header sets.
type Validator struct {
	options Options
}

// NewValidator creates a Validator with the given options.
func NewValidator(options Options) *Validator {
	return &Validator{options: options}
}

// =============================================================================
// MAIN VALIDATION FUNCTION
// =============================================================================

// Validate checks set with the given options.
//
// PARAMETERS:
//   - set: The transformed headers in column order.
//   - options: Duplicate handling.
//
// RETURNS:
//   - A Result; call Result.Err to get a single error value.
func Validate(set types.HeaderSet, options Options) *Result {
	return NewValidator(options).ValidateAll(set)
}

// ValidateAll checks every header in set.
func (v *Validator) ValidateAll(set types.HeaderSet) *Result {
	result := &Result{
		IsValid:          true,
		Errors:           make([]error, 0),
		HeadersValidated: len(set.Names),
	}

	for _, err := range v.checkEmpty(set) {
		result.Errors = append(result.Errors, err)
	}

	if !v.options.AllowDupes {
		for _, err := range v.checkDuplicates(set) {
			result.Errors = append(result.Errors, err)
		}
	}

	result.IsValid = len(result.Errors) == 0
	return result
}

// checkEmpty finds headers that are the empty string.
func (v *Validator) checkEmpty(set types.HeaderSet) []*EmptyHeaderError {
	var errs []*EmptyHeaderError
	for i, name := range set.Names {
		if name != "" {
			continue
		}
		err := &EmptyHeaderError{Column: i + 1}
		if i < len(set.Sources) {
			err.Source = set.Sources[i]
		}
		errs = append(errs, err)
	}
	return errs
}

// checkDuplicates groups equal headers, ordered by first occurrence. Empty
// headers are reported by checkEmpty and skipped here.
func (v *Validator) checkDuplicates(set types.HeaderSet) []*DuplicateHeaderError {
	seen := make(map[string]*DuplicateHeaderError)
	var order []string

	for i, name := range set.Names {
		if name == "" {
			continue
		}
		key := name
		if v.options.FoldCase {
			key = strings.ToLower(name)
		}

		entry, ok := seen[key]
		if !ok {
			entry = &DuplicateHeaderError{Header: name}
			seen[key] = entry
			order = append(order, key)
		}
		entry.Columns = append(entry.Columns, i+1)
	}

	var errs []*DuplicateHeaderError
	for _, key := range order {
		if entry := seen[key]; len(entry.Columns) > 1 {
			errs = append(errs, entry)
		}
	}
	return errs
}

// =============================================================================
// ERROR FORMATTING
// =============================================================================

// FormatErrors formats validation errors for display.
//
// PARAMETERS:
//   - errs: The validation errors to format.
//
// RETURNS:
//   - A numbered, multi-line report.
func FormatErrors(errs []error) string {
	if len(errs) == 0 {
		return "No validation errors."
	}

	var builder strings.Builder

	builder.WriteString(fmt.Sprintf("Header validation failed with %d error(s):\n", len(errs)))

	for i, err := range errs {
		builder.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}

	return builder.String()
}
