package toa5

import (
	"fmt"
	"regexp"
	"unicode/utf8"
)

// These rules come from experience with real logger files rather than from
// a vendor document, so Check only reports; it never rejects.
var (
	colNameRe = regexp.MustCompile(`^[A-Za-z_$][A-Za-z0-9_$]*(?:\([0-9]+(?:,[0-9]+)*\))?$`)
	colUnitRe = regexp.MustCompile(`^[ -\[\]-~°]*$`)
	colPrcRe  = regexp.MustCompile(`^[A-Za-z0-9_-]{0,32}$`)
)

const (
	maxNameLen = 255
	maxUnitLen = 64
)

// Check returns a description of each unusual value in c, or nil.
//
//   - Name must start with a letter, underscore or dollar sign and otherwise
//     contain only letters, digits, underscores and dollar signs, optionally
//     followed by integer indices in parentheses. At most 255 characters.
//   - Unit may contain printable ASCII except backslash, plus "°". At most
//     64 characters.
//   - Prc may contain up to 32 letters, digits, underscores and dashes.
func (c ColumnHeader) Check() []string {
	var problems []string
	if len(c.Name) > maxNameLen || !colNameRe.MatchString(c.Name) {
		problems = append(problems, fmt.Sprintf("column name %q", c.Name))
	}
	if utf8.RuneCountInString(c.Unit) > maxUnitLen || !colUnitRe.MatchString(c.Unit) {
		problems = append(problems, fmt.Sprintf("unit %q", c.Unit))
	}
	if !colPrcRe.MatchString(c.Prc) {
		problems = append(problems, fmt.Sprintf("data process %q", c.Prc))
	}
	return problems
}
