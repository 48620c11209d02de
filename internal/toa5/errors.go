package toa5

import "fmt"

// FormatError reports a structurally invalid preamble.
//
// Line is the 1-based line number of the offending preamble line, or 0
// when the problem is not tied to one line.
type FormatError struct {
	Line   int
	Reason string
	Err    error
}

func (e *FormatError) Error() string {
	msg := "toa5: " + e.Reason
	if e.Line > 0 {
		msg = fmt.Sprintf("toa5: line %d: %s", e.Line, e.Reason)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *FormatError) Unwrap() error {
	return e.Err
}

func formatErrorf(line int, format string, args ...interface{}) *FormatError {
	return &FormatError{Line: line, Reason: fmt.Sprintf(format, args...)}
}
