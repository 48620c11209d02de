package converter

import (
	"fmt"
	"strings"
)

// =============================================================================
// POLICY OPTIONS
// =============================================================================

// ViolationAction selects what strict mode does with a forbidden character.
type ViolationAction string

const (
	// Reject fails the column with a *StrictNameError.
	Reject ViolationAction = "reject"

	// Sanitize replaces forbidden characters with underscores.
	Sanitize ViolationAction = "sanitize"
)

// UnitMode selects whether and how units appear in output headers.
type UnitMode string

const (
	// UnitsOmit leaves units out of the header.
	UnitsOmit UnitMode = "omit"

	// UnitsJoin appends the unit as another separated component.
	UnitsJoin UnitMode = "join"

	// UnitsBracket appends the unit in square brackets, e.g. "BattV_Min[V]".
	// Brackets are forbidden in strict mode, so this needs Strict off or
	// OnViolation set to Sanitize.
	UnitsBracket UnitMode = "bracket"
)

// StrictForbidden lists the characters strict mode does not allow in
// output headers.
const StrictForbidden = "/[]"

// DefaultSeparator joins name, processing code and unit.
const DefaultSeparator = "_"

// DefaultShortUnits maps unit spellings common in logger programs to
// shorter forms. It is only consulted when units are included.
var DefaultShortUnits = map[string]string{
	"meters/second": "m/s",
	"Deg C":         "°C",
	"oC":            "°C",
	"Volts":         "V",
	"m^3/m^3":       "m³/m³",
	"W/m^2":         "W/m²",
	"Watts/meter^2": "W/m²",
	"nSec":          "ns",
	"uSec":          "μs",
	"hours":         "hr",
	"micrometer":    "μm",
	"degrees":       "°",
	"Deg":           "°",
	"unitless":      "",
}

// =============================================================================
// POLICY
// =============================================================================

// Policy configures how column headers become output header strings.
//
// A Policy is a plain value. It is built once, passed into NewTransformer,
// and never changed afterwards; the Transformer keeps its own copy.
type Policy struct {
	// Naming is the naming strategy: DefaultNaming, SQLNaming or CustomNaming.
	Naming NamingStrategy

	// Separator joins the non-empty components. Default: "_"
	Separator string

	// Strict checks the assembled header for the characters in
	// StrictForbidden. Default: true
	Strict bool

	// OnViolation decides what Strict does on a hit. Default: Reject
	OnViolation ViolationAction

	// StripWhitespace trims each component and the joined header.
	// Default: true
	StripWhitespace bool

	// AllowDupes lets duplicate headers through the validity check.
	// Default: false
	AllowDupes bool

	// FoldCase makes the duplicate check case-insensitive. Default: false
	FoldCase bool

	// Units selects whether units are part of the header. Default: UnitsOmit
	Units UnitMode

	// ShortUnits replaces unit spellings before they are appended.
	// Default: DefaultShortUnits
	ShortUnits map[string]string

	// SkipRedundantPrc leaves the processing code off when the name already
	// ends with it (e.g. "BattV_Min" with "Min"). Default: false
	SkipRedundantPrc bool

	// IncludeFixed runs the TIMESTAMP and RECORD columns through the
	// transformer as well. Default: false
	IncludeFixed bool
}

// DefaultPolicy returns a new Policy with the default settings.
func DefaultPolicy() Policy {
	return Policy{
		Naming:          DefaultNaming{},
		Separator:       DefaultSeparator,
		Strict:          true,
		OnViolation:     Reject,
		StripWhitespace: true,
		Units:           UnitsOmit,
		ShortUnits:      copyUnits(DefaultShortUnits),
	}
}

// Validate reports option values and combinations that cannot work.
func (p Policy) Validate() error {
	if p.Naming == nil {
		return fmt.Errorf("naming strategy is not set")
	}
	if c, ok := p.Naming.(CustomNaming); ok && c.Template == "" && c.Func == nil {
		return fmt.Errorf("custom naming needs a template or a function")
	}

	switch p.OnViolation {
	case Reject, Sanitize:
	default:
		return fmt.Errorf("unknown strict violation action %q (want %q or %q)", p.OnViolation, Reject, Sanitize)
	}

	switch p.Units {
	case UnitsOmit, UnitsJoin, UnitsBracket:
	default:
		return fmt.Errorf("unknown unit mode %q (want %q, %q or %q)", p.Units, UnitsOmit, UnitsJoin, UnitsBracket)
	}

	// SQL naming rewrites every forbidden character, so only the other
	// strategies can carry one into a header.
	if _, isSQL := p.Naming.(SQLNaming); p.Strict && p.OnViolation == Reject && !isSQL {
		if strings.ContainsAny(p.Separator, StrictForbidden) {
			return fmt.Errorf("separator %q contains a character forbidden in strict mode", p.Separator)
		}
		if p.Units == UnitsBracket {
			return fmt.Errorf("bracketed units are forbidden in strict mode; disable strict or use sanitize")
		}
	}

	return nil
}

// withDefaults fills zero values that have an obvious default.
func (p Policy) withDefaults() Policy {
	if p.Naming == nil {
		p.Naming = DefaultNaming{}
	}
	if p.OnViolation == "" {
		p.OnViolation = Reject
	}
	if p.Units == "" {
		p.Units = UnitsOmit
	}
	p.ShortUnits = copyUnits(p.ShortUnits)
	return p
}

func copyUnits(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
