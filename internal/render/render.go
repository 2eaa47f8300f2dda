// Package render formats analysis results for humans and machines:
// the canonical one-line-per-diagnostic text form, the structured JSON
// document, and the rule-catalog and summary tables.
package render

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/charmbracelet/lipgloss"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/muesli/termenv"
	"golang.org/x/term"

	"github.com/reap-dev/reap/pkg/lint"
)

// Mode selects the output format.
type Mode string

const (
	ModeAuto Mode = "auto"
	ModeText Mode = "text"
	ModeJSON Mode = "json"
)

// Styles holds the text styles used by terminal output.
type Styles struct {
	RuleID   lipgloss.Style
	Location lipgloss.Style
	Error    lipgloss.Style
	Warning  lipgloss.Style
	Success  lipgloss.Style
	Bold     lipgloss.Style
}

// Renderer writes analysis output in the selected mode.
type Renderer struct {
	out    io.Writer
	errOut io.Writer
	mode   Mode
	color  bool
	styles Styles
}

// New creates a Renderer. In ModeAuto, color is enabled only when out
// is a terminal; piped output gets plain text.
func New(out, errOut io.Writer, mode Mode) *Renderer {
	if mode == "" {
		mode = ModeAuto
	}
	color := false
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		color = termenv.NewOutput(f).ColorProfile() != termenv.Ascii
	}
	if mode == ModeJSON {
		color = false
	}
	return &Renderer{
		out:    out,
		errOut: errOut,
		mode:   mode,
		color:  color,
		styles: Styles{
			RuleID:   lipgloss.NewStyle().Bold(true),
			Location: lipgloss.NewStyle().Foreground(lipgloss.Color("244")),
			Error:    lipgloss.NewStyle().Foreground(lipgloss.Color("1")),
			Warning:  lipgloss.NewStyle().Foreground(lipgloss.Color("3")),
			Success:  lipgloss.NewStyle().Foreground(lipgloss.Color("2")),
			Bold:     lipgloss.NewStyle().Bold(true),
		},
	}
}

func (r *Renderer) style(s lipgloss.Style, text string) string {
	if !r.color {
		return text
	}
	return s.Render(text)
}

// jsonDiagnostic is one entry of the structured output document.
type jsonDiagnostic struct {
	File    string `json:"file"`
	Line    int    `json:"line"`
	Col     int    `json:"col"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type jsonDocument struct {
	Count       int              `json:"count"`
	Diagnostics []jsonDiagnostic `json:"diagnostics"`
}

// Diagnostics writes the run's findings: one line per diagnostic
// followed by the summary line, or the JSON document in JSON mode.
func (r *Renderer) Diagnostics(diags []lint.Diagnostic) error {
	if r.mode == ModeJSON {
		doc := jsonDocument{Count: len(diags), Diagnostics: make([]jsonDiagnostic, 0, len(diags))}
		for _, d := range diags {
			doc.Diagnostics = append(doc.Diagnostics, jsonDiagnostic{
				File: d.File, Line: d.Line, Col: d.Col, Code: d.RuleID, Message: d.Message,
			})
		}
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(doc)
	}

	for _, d := range diags {
		loc := fmt.Sprintf("%s:%d:%d:", d.File, d.Line, d.Col)
		fmt.Fprintf(r.out, "%s %s %s\n",
			r.style(r.styles.Location, loc),
			r.style(r.styles.RuleID, d.RuleID),
			d.Message,
		)
	}
	fmt.Fprintf(r.out, "Found %d issue(s)\n", len(diags))
	return nil
}

// Summary writes a per-rule count table after the diagnostic list.
func (r *Renderer) Summary(diags []lint.Diagnostic) {
	if r.mode == ModeJSON || len(diags) == 0 {
		return
	}
	counts := make(map[string]int)
	for _, d := range diags {
		counts[d.RuleID]++
	}
	codes := make([]string, 0, len(counts))
	for code := range counts {
		codes = append(codes, code)
	}
	sort.Strings(codes)

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Code", "Count"})
	for _, code := range codes {
		t.AppendRow(table.Row{code, counts[code]})
	}
	t.Render()
}

// Rules writes the rule catalog as a table, or as JSON in JSON mode.
func (r *Renderer) Rules(infos []lint.RuleInfo) error {
	if r.mode == ModeJSON {
		enc := json.NewEncoder(r.out)
		enc.SetIndent("", "  ")
		return enc.Encode(infos)
	}

	t := table.NewWriter()
	t.SetOutputMirror(r.out)
	t.SetStyle(table.StyleLight)
	t.AppendHeader(table.Row{"Code", "Name", "Severity", "Type", "Description"})
	for _, info := range infos {
		t.AppendRow(table.Row{info.ID, info.Name, info.DefaultSeverity.String(), info.Type, info.Description})
	}
	t.Render()
	return nil
}

// Errorf writes an error line to the error stream.
func (r *Renderer) Errorf(format string, args ...any) {
	fmt.Fprintf(r.errOut, "%s %s\n", r.style(r.styles.Error, "Error:"), fmt.Sprintf(format, args...))
}

// Successf writes a success line to the output stream.
func (r *Renderer) Successf(format string, args ...any) {
	fmt.Fprintf(r.out, "%s\n", r.style(r.styles.Success, fmt.Sprintf(format, args...)))
}
