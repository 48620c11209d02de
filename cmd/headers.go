// =============================================================================
// TOA5 Converter - Headers Command
// =============================================================================
//
// This file defines the 'headers' command, which shows how a file's header
// will be named without converting anything.
//
// COMMAND USAGE:
//   toa5 headers [flags] FILE
//
// OUTPUT:
//   The environment line, then one row per column:
//     #  NAME  UNIT  PRC  HEADER  NOTES
//   On a terminal the table is drawn with lipgloss; otherwise (or with
//   --plain) it is tab-separated so it can be piped into other tools.
//
// The command fails if the headers would be rejected by 'convert'.
//
// =============================================================================

package cmd

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"

	"github.com/ginjaninja78/toa5-converter/internal/converter"
	"github.com/ginjaninja78/toa5-converter/internal/csvparser"
	"github.com/ginjaninja78/toa5-converter/internal/toa5"
)

// headerRow is one line of the headers table.
type headerRow struct {
	index  int
	col    toa5.ColumnHeader
	header string
	notes  []string
	bad    bool
}

func newHeadersCmd(a *app) *cobra.Command {
	var nf namingFlags
	var plain bool

	cmd := &cobra.Command{
		Use:   "headers FILE",
		Short: "Show the output headers a TOA5 file will get",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			nf.apply(cmd, a.cfg)
			if err := a.cfg.Validate(); err != nil {
				return err
			}
			return runHeaders(cmd.OutOrStdout(), a, args[0], plain || !isTerminal(cmd.OutOrStdout()))
		},
	}

	addNamingFlags(cmd, &nf)
	cmd.Flags().BoolVar(&plain, "plain", false, "Print tab-separated output even on a terminal")

	return cmd
}

func runHeaders(w io.Writer, a *app, path string, plain bool) error {
	policy, err := a.cfg.Policy()
	if err != nil {
		return err
	}
	tr, err := converter.NewTransformer(policy)
	if err != nil {
		return err
	}

	reader, err := csvparser.Open(path, csvparser.Settings{Encoding: a.cfg.Input.Encoding})
	if err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	defer reader.Close()

	h := reader.Header()
	rows, failed := headerRows(tr, h)

	// The set check only runs once every column has a header.
	var setErr error
	if !failed {
		_, setErr = tr.Headers(h)
	}

	if plain {
		printPlain(w, h, rows)
	} else {
		printStyled(w, h, rows)
	}

	if failed {
		return fmt.Errorf("%s: some headers are rejected in strict mode", path)
	}
	if setErr != nil {
		return fmt.Errorf("%s: %w", path, setErr)
	}
	return nil
}

// headerRows transforms each column on its own so that every rejected
// column is shown, not just the first.
func headerRows(tr *converter.Transformer, h *toa5.Header) ([]headerRow, bool) {
	cols := h.Columns
	if tr.Policy().IncludeFixed {
		cols = h.AllColumns()
	}

	failed := false
	rows := make([]headerRow, 0, len(cols))
	for i, col := range cols {
		row := headerRow{index: i + 1, col: col, notes: col.Check()}

		name, err := tr.TransformColumn(i+1, col)
		if err != nil {
			row.bad = true
			row.notes = append(row.notes, err.Error())
			failed = true
		}
		row.header = name
		rows = append(rows, row)
	}
	return rows, failed
}

func printPlain(w io.Writer, h *toa5.Header, rows []headerRow) {
	fmt.Fprintln(w, strings.Join(h.Env.Fields(), "\t"))
	fmt.Fprintln(w, "#\tNAME\tUNIT\tPRC\tHEADER\tNOTES")
	for _, r := range rows {
		fmt.Fprintf(w, "%d\t%s\t%s\t%s\t%s\t%s\n",
			r.index, r.col.Name, r.col.Unit, r.col.Prc, r.header, strings.Join(r.notes, "; "))
	}
}

var (
	titleStyle  = lipgloss.NewStyle().Bold(true)
	labelStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headStyle   = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
	badStyle    = cellStyle.Foreground(lipgloss.Color("9"))
	warnStyle   = cellStyle.Foreground(lipgloss.Color("11"))
	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

func printStyled(w io.Writer, h *toa5.Header, rows []headerRow) {
	env := h.Env
	fmt.Fprintln(w, titleStyle.Render(env.StationName+" / "+env.TableName))
	fmt.Fprintln(w, labelStyle.Render(fmt.Sprintf("%s %s, OS %s, program %s (sig %s)",
		env.LoggerModel, env.LoggerSerial, env.LoggerOS, env.ProgramName, env.ProgramSig)))

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		Headers("#", "NAME", "UNIT", "PRC", "HEADER", "NOTES")

	for _, r := range rows {
		t.Row(strconv.Itoa(r.index), r.col.Name, r.col.Unit, r.col.Prc, r.header, strings.Join(r.notes, "; "))
	}

	t.StyleFunc(func(row, col int) lipgloss.Style {
		if row == table.HeaderRow {
			return headStyle
		}
		if row < 0 || row >= len(rows) {
			return cellStyle
		}
		switch {
		case rows[row].bad:
			return badStyle
		case len(rows[row].notes) > 0 && col == 5:
			return warnStyle
		}
		return cellStyle
	})

	fmt.Fprintln(w, t.Render())
}

// isTerminal reports whether w is a terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
