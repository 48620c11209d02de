// =============================================================================
// TOA5 Converter - Header Transformation Engine
// =============================================================================
//
// This module turns each column's (name, unit, processing code) triple into
// a single output header string under a Policy.
//
// NAMING STRATEGIES:
//   - DefaultNaming : "AirTemp" + "Avg" -> "AirTemp_Avg"
//   - SQLNaming     : lowercase identifier, e.g. "airtemp_avg"
//   - CustomNaming  : placeholder template or caller-supplied function
//
// The processing code is always kept by default. Loggers happily record the
// average and the maximum of the same sensor under the same name and unit,
// so dropping it produces duplicate headers.
//
// STRICT MODE:
//   After assembly the header is checked for "/", "[" and "]". Depending on
//   the policy the column is rejected with a *StrictNameError or the
//   characters are replaced with underscores.
//
// Every function here is pure: the same column under the same policy always
// yields the same string.
//
// =============================================================================

package converter

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/ginjaninja78/toa5-converter/internal/toa5"
	"github.com/ginjaninja78/toa5-converter/internal/types"
	"github.com/ginjaninja78/toa5-converter/internal/validation"
)

// =============================================================================
// ERRORS
// =============================================================================

// StrictNameError reports a header containing a character forbidden in
// strict mode.
type StrictNameError struct {
	// Column is the 1-based position in the header set, or 0 if unknown.
	Column int

	// Source is the column header the value was derived from.
	Source toa5.ColumnHeader

	// Value is the assembled header.
	Value string

	// Chars are the forbidden characters found, in order of first use.
	Chars string
}

// Error implements the error interface.
func (e *StrictNameError) Error() string {
	prefix := ""
	if e.Column > 0 {
		prefix = fmt.Sprintf("column %d: ", e.Column)
	}
	return fmt.Sprintf("%sheader %q (from name %q) contains forbidden character(s) %q",
		prefix, e.Value, e.Source.Name, e.Chars)
}

// =============================================================================
// NAMING STRATEGIES
// =============================================================================

// NamingStrategy assembles the raw header for one column. The set of
// strategies is closed: DefaultNaming, SQLNaming and CustomNaming.
type NamingStrategy interface {
	// Name returns the strategy's configuration name.
	Name() string

	assemble(col toa5.ColumnHeader, p *Policy) string
}

// DefaultNaming joins name, processing code and (optionally) unit.
type DefaultNaming struct{}

// Name implements NamingStrategy.
func (DefaultNaming) Name() string { return "default" }

func (DefaultNaming) assemble(col toa5.ColumnHeader, p *Policy) string {
	return joinComponents(col, p, p.Units)
}

// SQLNaming produces an unquoted SQL-style identifier.
type SQLNaming struct{}

// Name implements NamingStrategy.
func (SQLNaming) Name() string { return "sql" }

var (
	sqlDisallowedRe = regexp.MustCompile(`[^a-z0-9_]+`)
	sqlUnderscoreRe = regexp.MustCompile(`_{2,}`)
)

func (SQLNaming) assemble(col toa5.ColumnHeader, p *Policy) string {
	units := p.Units
	if units == UnitsBracket {
		units = UnitsJoin
	}

	s := strings.ToLower(joinComponents(col, p, units))
	s = sqlDisallowedRe.ReplaceAllString(s, "_")
	s = sqlUnderscoreRe.ReplaceAllString(s, "_")
	s = strings.Trim(s, "_")

	if s != "" && s[0] >= '0' && s[0] <= '9' {
		s = "_" + s
	}
	return s
}

// CustomNaming builds headers from a placeholder template or a function.
//
// Template placeholders: {name}, {prc}, {unit} (shortened), {sep}.
// Placeholders are replaced literally, so a template decides for itself
// what happens around empty components. Func, if set, wins over Template.
type CustomNaming struct {
	Template string
	Func     func(col toa5.ColumnHeader) string
}

// Name implements NamingStrategy.
func (CustomNaming) Name() string { return "template" }

func (c CustomNaming) assemble(col toa5.ColumnHeader, p *Policy) string {
	if c.Func != nil {
		return c.Func(col)
	}

	replacer := strings.NewReplacer(
		"{name}", p.clean(col.Name),
		"{prc}", p.clean(col.Prc),
		"{unit}", p.shortUnit(col),
		"{sep}", p.Separator,
	)
	return replacer.Replace(c.Template)
}

// =============================================================================
// TRANSFORMER
// =============================================================================

// Transformer applies a Policy to column headers.
type Transformer struct {
	policy Policy
}

// NewTransformer creates a new Transformer with its own copy of policy.
func NewTransformer(policy Policy) (*Transformer, error) {
	policy = policy.withDefaults()
	if err := policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid naming policy: %w", err)
	}
	return &Transformer{policy: policy}, nil
}

// Policy returns a copy of the transformer's policy.
func (t *Transformer) Policy() Policy {
	p := t.policy
	p.ShortUnits = copyUnits(p.ShortUnits)
	return p
}

// Transform returns the output header for one column.
//
// PARAMETERS:
//   - col: The column header.
//
// RETURNS:
//   - The header string.
//   - A *StrictNameError if strict mode rejects the result.
func (t *Transformer) Transform(col toa5.ColumnHeader) (string, error) {
	return t.TransformColumn(0, col)
}

// TransformColumn is Transform for the column at 1-based position index,
// which a *StrictNameError then reports.
func (t *Transformer) TransformColumn(index int, col toa5.ColumnHeader) (string, error) {
	return t.transformColumn(index, col)
}

// TransformAll transforms cols in order. The first failure is returned with
// its 1-based column position set.
func (t *Transformer) TransformAll(cols []toa5.ColumnHeader) ([]string, error) {
	names := make([]string, len(cols))
	for i, col := range cols {
		name, err := t.transformColumn(i+1, col)
		if err != nil {
			return nil, err
		}
		names[i] = name
	}
	return names, nil
}

// Headers builds and validates the header set for a parsed file.
//
// On a validity failure the set is returned together with the error, so
// callers that only inspect headers can still show them.
func (t *Transformer) Headers(h *toa5.Header) (types.HeaderSet, error) {
	cols := h.Columns
	fixed := 0
	if t.policy.IncludeFixed {
		cols = h.AllColumns()
		fixed = len(h.Fixed)
	}

	names, err := t.TransformAll(cols)
	if err != nil {
		return types.HeaderSet{}, err
	}

	set := types.HeaderSet{Names: names, Sources: cols, Fixed: fixed}

	result := validation.Validate(set, validation.Options{
		AllowDupes: t.policy.AllowDupes,
		FoldCase:   t.policy.FoldCase,
	})
	return set, result.Err()
}

func (t *Transformer) transformColumn(index int, col toa5.ColumnHeader) (string, error) {
	p := &t.policy

	s := p.Naming.assemble(col, p)
	if p.StripWhitespace {
		s = strings.TrimSpace(s)
	}

	if !p.Strict {
		return s, nil
	}

	chars := forbiddenChars(s)
	if chars == "" {
		return s, nil
	}

	if p.OnViolation == Sanitize {
		return sanitize(s), nil
	}

	return "", &StrictNameError{Column: index, Source: col, Value: s, Chars: chars}
}

// =============================================================================
// HELPER FUNCTIONS
// =============================================================================

// joinComponents joins the non-empty name, processing code and unit.
func joinComponents(col toa5.ColumnHeader, p *Policy, units UnitMode) string {
	name := p.clean(col.Name)
	prc := p.clean(col.Prc)

	parts := make([]string, 0, 3)
	if name != "" {
		parts = append(parts, name)
	}
	if prc != "" && !(p.SkipRedundantPrc && endsWithPrc(name, prc)) {
		parts = append(parts, prc)
	}

	unit := ""
	if units != UnitsOmit {
		unit = p.shortUnit(col)
	}
	if units == UnitsJoin && unit != "" {
		parts = append(parts, unit)
	}

	s := strings.Join(parts, p.Separator)
	if units == UnitsBracket && unit != "" {
		s += "[" + unit + "]"
	}
	return s
}

// clean trims a component if the policy strips whitespace.
func (p *Policy) clean(s string) string {
	if p.StripWhitespace {
		return strings.TrimSpace(s)
	}
	return s
}

// shortUnit returns the unit to print for col. The logger's own "TS" and
// "RN" units of the fixed columns carry no information and are dropped.
func (p *Policy) shortUnit(col toa5.ColumnHeader) string {
	if col.IsTimestamp() || col.IsRecord() {
		return ""
	}
	unit := col.Unit
	if short, ok := p.ShortUnits[unit]; ok {
		unit = short
	}
	return strings.TrimSpace(unit)
}

// endsWithPrc reports whether name already ends with prc, ignoring case and
// an optional trailing index such as "(3)" or "(1,2)".
func endsWithPrc(name, prc string) bool {
	base := name
	if strings.HasSuffix(base, ")") {
		if open := strings.LastIndex(base, "("); open >= 0 {
			base = base[:open]
		}
	}
	return strings.HasSuffix(strings.ToLower(base), strings.ToLower(prc))
}

// forbiddenChars returns the strict-mode characters found in s.
func forbiddenChars(s string) string {
	var found []byte
	for i := 0; i < len(StrictForbidden); i++ {
		if strings.IndexByte(s, StrictForbidden[i]) >= 0 {
			found = append(found, StrictForbidden[i])
		}
	}
	return string(found)
}

var forbiddenRunRe = regexp.MustCompile(`_*[/\[\]]+_*`)

// sanitize replaces each run of forbidden characters (with any adjoining
// underscores) by a single underscore and drops one at either end, so
// "BattV[V]" becomes "BattV_V" and "AirTemp/Avg" becomes "AirTemp_Avg".
func sanitize(s string) string {
	out := forbiddenRunRe.ReplaceAllString(s, "_")
	if strings.ContainsAny(s[len(s)-1:], StrictForbidden) {
		out = strings.TrimSuffix(out, "_")
	}
	if strings.ContainsAny(s[:1], StrictForbidden) {
		out = strings.TrimPrefix(out, "_")
	}
	return out
}
