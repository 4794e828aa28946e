package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
	"sigs.k8s.io/yaml"
)

// OutputFormat selects how results are rendered.
type OutputFormat string

const (
	// OutputFormatTable renders a rounded table for humans.
	OutputFormatTable OutputFormat = "table"
	// OutputFormatJSON renders indented JSON.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML renders YAML using the JSON field names.
	OutputFormatYAML OutputFormat = "yaml"
)

// ParseOutputFormat validates the --output flag.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch OutputFormat(strings.ToLower(s)) {
	case "", OutputFormatTable:
		return OutputFormatTable, nil
	case OutputFormatJSON:
		return OutputFormatJSON, nil
	case OutputFormatYAML:
		return OutputFormatYAML, nil
	default:
		return "", fmt.Errorf("unsupported output format %q (want table, json or yaml)", s)
	}
}

// Table is tabular data plus the raw value it was built from, so the same
// result can be printed as a table or serialized.
type Table struct {
	Headers []string
	Rows    [][]string
	// Data is serialized for json and yaml output.
	Data interface{}
	// Empty is shown instead of an empty table.
	Empty string
}

// Printer writes command results in the selected format.
type Printer struct {
	Out       io.Writer
	Format    OutputFormat
	NoHeaders bool
	Quiet     bool
}

// NewPrinter returns a printer for out.
func NewPrinter(out io.Writer, format OutputFormat) *Printer {
	return &Printer{Out: out, Format: format}
}

// Print renders t in the printer's format.
func (p *Printer) Print(t Table) error {
	switch p.Format {
	case OutputFormatJSON:
		return p.printJSON(t.Data)
	case OutputFormatYAML:
		return p.printYAML(t.Data)
	default:
		p.printTable(t)
		return nil
	}
}

// Object renders a single value; tables show it as key/value pairs.
func (p *Printer) Object(pairs [][2]string, data interface{}) error {
	rows := make([][]string, 0, len(pairs))
	for _, kv := range pairs {
		rows = append(rows, []string{kv[0], kv[1]})
	}
	return p.Print(Table{Headers: []string{"Key", "Value"}, Rows: rows, Data: data})
}

// Infof prints a progress or status line unless quiet.
func (p *Printer) Infof(format string, args ...interface{}) {
	if !p.Quiet {
		fmt.Fprintf(p.Out, format, args...)
	}
}

// Successf prints a green confirmation line unless quiet.
func (p *Printer) Successf(format string, args ...interface{}) {
	if !p.Quiet {
		fmt.Fprintln(p.Out, text.FgGreen.Sprintf(format, args...))
	}
}

// Failuref prints a red failure line. Failures are shown even when quiet.
func (p *Printer) Failuref(format string, args ...interface{}) {
	fmt.Fprintln(p.Out, text.FgRed.Sprintf(format, args...))
}

func (p *Printer) printJSON(data interface{}) error {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to format as JSON: %w", err)
	}
	_, err = fmt.Fprintln(p.Out, string(out))
	return err
}

func (p *Printer) printYAML(data interface{}) error {
	out, err := yaml.Marshal(data)
	if err != nil {
		return fmt.Errorf("failed to format as YAML: %w", err)
	}
	_, err = p.Out.Write(out)
	return err
}

func (p *Printer) printTable(t Table) {
	if len(t.Rows) == 0 {
		empty := t.Empty
		if empty == "" {
			empty = "No items found"
		}
		fmt.Fprintln(p.Out, text.FgYellow.Sprint(empty))
		return
	}

	w := table.NewWriter()
	w.SetOutputMirror(p.Out)
	w.SetStyle(table.StyleRounded)

	if !p.NoHeaders {
		header := make(table.Row, 0, len(t.Headers))
		for _, h := range t.Headers {
			header = append(header, text.FgHiCyan.Sprint(strings.ToUpper(h)))
		}
		w.AppendHeader(header)
	}

	for _, r := range t.Rows {
		row := make(table.Row, 0, len(r))
		for _, cell := range r {
			row = append(row, cell)
		}
		w.AppendRow(row)
	}
	w.Render()
}
