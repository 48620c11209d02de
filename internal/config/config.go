// =============================================================================
// TOA5 Converter - Configuration Module
// =============================================================================
//
// This module loads the optional YAML configuration file and turns it into
// the values the converter runs with.
//
// SECTIONS:
//   naming     : how column headers are assembled and checked
//   input      : where input files come from and how they are decoded
//   output     : where results go and in which format
//   logging    : log level and format
//   processing : batch behaviour
//
// Every field has a default, so an empty or missing file is a valid
// configuration. Command-line flags are applied on top by the cmd package.
//
// =============================================================================

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ginjaninja78/toa5-converter/internal/converter"
	"github.com/ginjaninja78/toa5-converter/internal/csvwriter"
)

// DefaultPath is the configuration file looked for when none is given.
const DefaultPath = "toa5.yaml"

// =============================================================================
// CONFIGURATION STRUCTURE
// =============================================================================

// Config holds the whole application configuration.
type Config struct {
	Naming     NamingConfig     `yaml:"naming"`
	Input      InputConfig      `yaml:"input"`
	Output     OutputConfig     `yaml:"output"`
	Logging    LoggingConfig    `yaml:"logging"`
	Processing ProcessingConfig `yaml:"processing"`
}

// NamingConfig mirrors converter.Policy in YAML form.
//
// Booleans whose default is true are pointers so that an explicit "false"
// can be told apart from "not set".
type NamingConfig struct {
	// Strategy selects the naming strategy.
	// Valid values: "default", "sql", "template"
	// Default: "default"
	Strategy string `yaml:"strategy"`

	// Template is the placeholder template used by the "template" strategy.
	// Placeholders: {name}, {prc}, {unit}, {sep}
	// Example: "{name}.{prc}"
	Template string `yaml:"template"`

	// Separator joins name, processing code and unit.
	// Default: "_"
	Separator *string `yaml:"separator"`

	// Strict rejects or sanitizes "/", "[" and "]" in output headers.
	// Default: true
	Strict *bool `yaml:"strict"`

	// OnViolation is what strict mode does on a hit.
	// Valid values: "reject", "sanitize"
	// Default: "reject"
	OnViolation string `yaml:"on_violation"`

	// StripWhitespace trims header components.
	// Default: true
	StripWhitespace *bool `yaml:"strip_whitespace"`

	// AllowDupes lets duplicate output headers through.
	AllowDupes bool `yaml:"allow_dupes"`

	// FoldCase compares headers case-insensitively for duplicates.
	FoldCase bool `yaml:"fold_case"`

	// Units selects whether units appear in headers.
	// Valid values: "omit", "join", "bracket"
	// Default: "omit"
	Units string `yaml:"units"`

	// ShortUnits adds to (or overrides) the built-in unit abbreviations.
	ShortUnits map[string]string `yaml:"short_units"`

	// SkipRedundantPrc drops the processing code when the name ends with it.
	SkipRedundantPrc bool `yaml:"skip_redundant_prc"`

	// IncludeFixed renames TIMESTAMP and RECORD with the same policy.
	IncludeFixed bool `yaml:"include_fixed"`
}

// InputConfig holds input discovery and decoding settings.
type InputConfig struct {
	// Dir is scanned when no files are named on the command line.
	// Default: "."
	Dir string `yaml:"dir"`

	// Pattern is the glob matched against file names in Dir.
	// Default: "*.dat"
	Pattern string `yaml:"pattern"`

	// Encoding is the character encoding of input files (WHATWG label).
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`

	// ArchiveDir receives successfully converted inputs when archiving.
	// Default: "./archive"
	ArchiveDir string `yaml:"archive_dir"`

	// Archive moves inputs to ArchiveDir after a successful conversion.
	Archive bool `yaml:"archive"`
}

// OutputConfig holds output settings.
type OutputConfig struct {
	// Dir receives output files. Empty means next to each input file.
	Dir string `yaml:"dir"`

	// Format is the output file format.
	// Valid values: "csv", "xlsx"
	// Default: "csv"
	Format string `yaml:"format"`

	// HeaderMode selects the CSV header layout.
	// Valid values: "names" (one header line), "toa5" (original preamble)
	// Default: "names"
	HeaderMode string `yaml:"header_mode"`

	// Encoding is the character encoding of CSV output.
	// Default: "utf-8"
	Encoding string `yaml:"encoding"`

	// NAValue replaces "NAN" cells when set. An empty string blanks them.
	NAValue *string `yaml:"na_value"`

	// NameFormat builds output file names.
	// Placeholders:
	//   {original}  - input file name without extension
	//   {table}     - table name from the environment line
	//   {station}   - station name from the environment line
	//   {uuid}      - a random UUID
	//   {timestamp} - current time (YYYYMMDD_HHMMSS)
	//   {date}      - current date (YYYYMMDD)
	// The extension for Format is appended if missing.
	// Default: "{original}"
	NameFormat string `yaml:"name_format"`

	// EnvLine writes the environment line as JSON next to each output.
	EnvLine bool `yaml:"env_line"`
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	// Level: "debug", "info", "warn", "error". Default: "info"
	Level string `yaml:"level"`

	// Format: "text", "json". Default: "text"
	Format string `yaml:"format"`
}

// ProcessingConfig holds batch settings.
type ProcessingConfig struct {
	// MaxConcurrency is the number of files converted at once.
	// Default: 4
	MaxConcurrency int `yaml:"max_concurrency"`

	// StopOnError skips the remaining files after the first failure.
	StopOnError bool `yaml:"stop_on_error"`

	// ErrorLog writes a batch error log into the output directory.
	ErrorLog bool `yaml:"error_log"`
}

// =============================================================================
// LOADING
// =============================================================================

// Default returns the configuration used when no file is present.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Load reads, defaults and validates a configuration file.
//
// PARAMETERS:
//   - path: The file to read. An empty path tries DefaultPath and falls
//     back to Default() if that file does not exist.
//
// RETURNS:
//   - The configuration.
//   - An error if the file cannot be read, parsed or validated.
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		path = DefaultPath
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return Default(), nil
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML configuration data. Unknown keys are an error.
func Parse(data []byte) (*Config, error) {
	var cfg Config

	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	applyDefaults(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func applyDefaults(cfg *Config) {
	n := &cfg.Naming
	if n.Strategy == "" {
		n.Strategy = "default"
	}
	if n.Separator == nil {
		sep := converter.DefaultSeparator
		n.Separator = &sep
	}
	if n.Strict == nil {
		strict := true
		n.Strict = &strict
	}
	if n.OnViolation == "" {
		n.OnViolation = string(converter.Reject)
	}
	if n.StripWhitespace == nil {
		strip := true
		n.StripWhitespace = &strip
	}
	if n.Units == "" {
		n.Units = string(converter.UnitsOmit)
	}

	if cfg.Input.Dir == "" {
		cfg.Input.Dir = "."
	}
	if cfg.Input.Pattern == "" {
		cfg.Input.Pattern = "*.dat"
	}
	if cfg.Input.Encoding == "" {
		cfg.Input.Encoding = "utf-8"
	}
	if cfg.Input.ArchiveDir == "" {
		cfg.Input.ArchiveDir = "./archive"
	}

	if cfg.Output.Format == "" {
		cfg.Output.Format = string(converter.FormatCSV)
	}
	if cfg.Output.HeaderMode == "" {
		cfg.Output.HeaderMode = string(csvwriter.HeaderNames)
	}
	if cfg.Output.Encoding == "" {
		cfg.Output.Encoding = "utf-8"
	}
	if cfg.Output.NameFormat == "" {
		cfg.Output.NameFormat = "{original}"
	}

	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "info"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "text"
	}

	if cfg.Processing.MaxConcurrency <= 0 {
		cfg.Processing.MaxConcurrency = 4
	}
}

// =============================================================================
// VALIDATION
// =============================================================================

// Validate checks enum values and option combinations.
func (c *Config) Validate() error {
	if err := oneOf("naming.strategy", c.Naming.Strategy, "default", "sql", "template"); err != nil {
		return err
	}
	if err := oneOf("output.format", c.Output.Format, string(converter.FormatCSV), string(converter.FormatXLSX)); err != nil {
		return err
	}
	if err := oneOf("output.header_mode", c.Output.HeaderMode, string(csvwriter.HeaderNames), string(csvwriter.HeaderTOA5)); err != nil {
		return err
	}
	if err := oneOf("logging.format", c.Logging.Format, "text", "json"); err != nil {
		return err
	}
	if err := oneOf("logging.level", strings.ToLower(c.Logging.Level), "debug", "info", "warn", "warning", "error"); err != nil {
		return err
	}
	if c.Output.Format == string(converter.FormatXLSX) && c.Output.HeaderMode == string(csvwriter.HeaderTOA5) {
		return fmt.Errorf("output.header_mode %q only applies to csv output", c.Output.HeaderMode)
	}

	// Enum values and combinations of the naming section are checked by
	// the policy itself.
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

func oneOf(key, value string, allowed ...string) error {
	for _, a := range allowed {
		if value == a {
			return nil
		}
	}
	return fmt.Errorf("%s: unknown value %q (want one of %s)", key, value, strings.Join(allowed, ", "))
}

// =============================================================================
// CONVERSION TO RUNTIME VALUES
// =============================================================================

// Policy builds the naming policy from the naming section.
func (c *Config) Policy() (converter.Policy, error) {
	n := c.Naming
	p := converter.DefaultPolicy()

	switch n.Strategy {
	case "", "default":
		p.Naming = converter.DefaultNaming{}
	case "sql":
		p.Naming = converter.SQLNaming{}
	case "template":
		if n.Template == "" {
			return converter.Policy{}, fmt.Errorf("naming.strategy %q needs naming.template", n.Strategy)
		}
		p.Naming = converter.CustomNaming{Template: n.Template}
	default:
		return converter.Policy{}, fmt.Errorf("naming.strategy: unknown value %q", n.Strategy)
	}

	if n.Separator != nil {
		p.Separator = *n.Separator
	}
	if n.Strict != nil {
		p.Strict = *n.Strict
	}
	if n.StripWhitespace != nil {
		p.StripWhitespace = *n.StripWhitespace
	}
	if n.OnViolation != "" {
		p.OnViolation = converter.ViolationAction(n.OnViolation)
	}
	if n.Units != "" {
		p.Units = converter.UnitMode(n.Units)
	}
	for k, v := range n.ShortUnits {
		p.ShortUnits[k] = v
	}
	p.AllowDupes = n.AllowDupes
	p.FoldCase = n.FoldCase
	p.SkipRedundantPrc = n.SkipRedundantPrc
	p.IncludeFixed = n.IncludeFixed

	if err := p.Validate(); err != nil {
		return converter.Policy{}, fmt.Errorf("naming: %w", err)
	}
	return p, nil
}

// Options builds the per-file conversion options.
func (c *Config) Options() (converter.Options, error) {
	policy, err := c.Policy()
	if err != nil {
		return converter.Options{}, err
	}

	return converter.Options{
		Policy:        policy,
		InputEncoding: c.Input.Encoding,
		Format:        converter.OutputFormat(c.Output.Format),
		CSV: csvwriter.Options{
			HeaderMode: csvwriter.HeaderMode(c.Output.HeaderMode),
			NAValue:    c.Output.NAValue,
			Encoding:   c.Output.Encoding,
		},
	}, nil
}
