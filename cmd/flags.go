package cmd

import (
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/toa5-converter/internal/config"
	"github.com/ginjaninja78/toa5-converter/internal/converter"
)

// namingFlags are the header naming flags shared by convert and headers.
type namingFlags struct {
	strategy         string
	sql              bool
	template         string
	separator        string
	strict           bool
	sanitize         bool
	allowDupes       bool
	foldCase         bool
	units            string
	skipRedundantPrc bool
	includeFixed     bool
	inEncoding       string
}

func addNamingFlags(cmd *cobra.Command, nf *namingFlags) {
	f := cmd.Flags()
	f.StringVar(&nf.strategy, "strategy", "default", `Naming strategy: "default", "sql" or "template"`)
	f.BoolVar(&nf.sql, "sql", false, `Shorthand for --strategy sql`)
	f.StringVar(&nf.template, "template", "", "Header template for --strategy template, e.g. \"{name}.{prc}\"")
	f.StringVar(&nf.separator, "separator", converter.DefaultSeparator, "Separator between name, processing code and unit")
	f.BoolVar(&nf.strict, "strict", true, `Reject headers containing "/", "[" or "]"`)
	f.BoolVar(&nf.sanitize, "sanitize", false, "Replace forbidden characters with underscores instead of failing")
	f.BoolVar(&nf.allowDupes, "allow-dupes", false, "Allow duplicate output headers")
	f.BoolVar(&nf.foldCase, "fold-case", false, "Treat headers differing only in case as duplicates")
	f.StringVar(&nf.units, "units", string(converter.UnitsOmit), `Units in headers: "omit", "join" or "bracket"`)
	f.BoolVar(&nf.skipRedundantPrc, "skip-redundant-prc", false, "Leave out the processing code when the name already ends with it")
	f.BoolVar(&nf.includeFixed, "include-fixed", false, "Rename TIMESTAMP and RECORD with the same strategy")
	f.StringVar(&nf.inEncoding, "in-encoding", "utf-8", "Input character encoding")
}

// apply copies explicitly set flags over the configuration.
func (nf *namingFlags) apply(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	n := &cfg.Naming

	if f.Changed("strategy") {
		n.Strategy = nf.strategy
	}
	if f.Changed("sql") && nf.sql {
		n.Strategy = "sql"
	}
	if f.Changed("template") {
		n.Template = nf.template
		if !f.Changed("strategy") {
			n.Strategy = "template"
		}
	}
	if f.Changed("separator") {
		sep := nf.separator
		n.Separator = &sep
	}
	if f.Changed("strict") {
		strict := nf.strict
		n.Strict = &strict
	}
	if f.Changed("sanitize") {
		if nf.sanitize {
			n.OnViolation = string(converter.Sanitize)
		} else {
			n.OnViolation = string(converter.Reject)
		}
	}
	if f.Changed("allow-dupes") {
		n.AllowDupes = nf.allowDupes
	}
	if f.Changed("fold-case") {
		n.FoldCase = nf.foldCase
	}
	if f.Changed("units") {
		n.Units = nf.units
	}
	if f.Changed("skip-redundant-prc") {
		n.SkipRedundantPrc = nf.skipRedundantPrc
	}
	if f.Changed("include-fixed") {
		n.IncludeFixed = nf.includeFixed
	}
	if f.Changed("in-encoding") {
		cfg.Input.Encoding = nf.inEncoding
	}
}
