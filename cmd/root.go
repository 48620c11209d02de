// =============================================================================
// TOA5 Converter - Root Command
// =============================================================================
//
// This file defines the root command for the Cobra CLI. All other commands
// are attached to it.
//
// COBRA CLI STRUCTURE:
//   rootCmd (toa5)
//   ├── convertCmd (toa5 convert)
//   ├── headersCmd (toa5 headers)
//   └── versionCmd (toa5 version)
//
// The root command loads the configuration file and sets up logging before
// any subcommand runs. Logs always go to stderr; stdout is reserved for
// converted data and command output.
//
// =============================================================================

package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ginjaninja78/toa5-converter/internal/config"
	"github.com/ginjaninja78/toa5-converter/internal/logging"
)

// app holds the state shared by all subcommands of one invocation.
type app struct {
	// cfgFile is the configuration file given with --config.
	cfgFile string

	// verbose forces debug logging.
	verbose bool

	// logFormat overrides logging.format when set.
	logFormat string

	cfg    *config.Config
	logger *slog.Logger
}

// newRootCmd builds the command tree.
func newRootCmd() *cobra.Command {
	a := &app{}

	rootCmd := &cobra.Command{
		Use:   "toa5",
		Short: "TOA5 Converter - Turn data logger TOA5 files into CSV or XLSX",
		Long: `TOA5 Converter reads TOA5 files written by data loggers, builds one
header per column from its name, unit and processing code, checks the
headers for forbidden characters and collisions, and writes the data as
plain CSV or as an Excel workbook.

Example Usage:
  toa5 convert Hourly.dat                  # writes Hourly.csv next to it
  toa5 convert -o - Hourly.dat             # CSV to stdout
  toa5 convert --sql --out-dir out *.dat   # SQL-style headers, batch
  toa5 headers Hourly.dat                  # inspect the header`,

		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},

		Run: func(cmd *cobra.Command, args []string) {
			cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVar(&a.cfgFile, "config", "",
		"Path to the configuration file (default "+config.DefaultPath+" if present)")
	rootCmd.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false,
		"Enable debug logging")
	rootCmd.PersistentFlags().StringVar(&a.logFormat, "log-format", "",
		`Log format: "text" or "json" (overrides the configuration file)`)

	rootCmd.AddCommand(newConvertCmd(a))
	rootCmd.AddCommand(newHeadersCmd(a))
	rootCmd.AddCommand(newVersionCmd())

	return rootCmd
}

// init loads the configuration and sets up logging.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.Load(a.cfgFile)
	if err != nil {
		return err
	}

	if a.logFormat != "" {
		cfg.Logging.Format = a.logFormat
	}
	if a.verbose {
		cfg.Logging.Level = "debug"
	}

	a.cfg = cfg
	a.logger = logging.Setup(cfg.Logging.Level, cfg.Logging.Format, cmd.ErrOrStderr())
	return nil
}

// =============================================================================
// EXECUTE FUNCTION
// =============================================================================

// Execute runs the CLI. It is called by main.main().
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
