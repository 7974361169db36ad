// Package ui renders run progress and command output.
package ui

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/chriserin/ftrun/internal/runner"
)

// Printer writes styled lines to w. Without color every style renders as
// plain text.
type Printer struct {
	w io.Writer

	featureStyle lipgloss.Style
	nameStyle    lipgloss.Style
	faintStyle   lipgloss.Style
	statusStyles map[string]lipgloss.Style
}

func New(w io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(w)
	if color {
		r.SetColorProfile(termenv.ANSI)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}

	return &Printer{
		w:            w,
		featureStyle: r.NewStyle().Bold(true),
		nameStyle:    r.NewStyle().Foreground(lipgloss.Color("6")),
		faintStyle:   r.NewStyle().Faint(true),
		statusStyles: map[string]lipgloss.Style{
			runner.StatusPassed.String():  r.NewStyle().Foreground(lipgloss.Color("2")),
			runner.StatusFailed.String():  r.NewStyle().Foreground(lipgloss.Color("1")),
			runner.StatusError.String():   r.NewStyle().Foreground(lipgloss.Color("1")).Bold(true),
			runner.StatusSkipped.String(): r.NewStyle().Foreground(lipgloss.Color("3")),
		},
	}
}

// statusLabel renders name padded to the widest status name.
func (p *Printer) statusLabel(name string) string {
	pad := strings.Repeat(" ", max(0, len("skipped")-len(name)))
	if style, ok := p.statusStyles[name]; ok {
		return style.Render(name) + pad
	}
	return name + pad
}

// CheckOK reports a feature file that parsed and expanded cleanly.
func (p *Printer) CheckOK(path string, scenarios int) {
	fmt.Fprintf(p.w, "%s  %s (%d %s)\n", p.statusStyles[runner.StatusPassed.String()].Render("ok"), path, scenarios, plural(scenarios, "scenario"))
}

// CheckError reports a file that failed to parse or expand.
func (p *Printer) CheckError(err error) {
	fmt.Fprintf(p.w, "%s  %v\n", p.statusStyles[runner.StatusError.String()].Render("err"), err)
}

// ScenarioRow prints one concrete scenario for ftrun list.
func (p *Printer) ScenarioRow(path string, line int, name string, tags []string, pathWidth int) {
	loc := fmt.Sprintf("%s:%d", path, line)
	fmt.Fprintf(p.w, "%-*s  %s", pathWidth, loc, p.nameStyle.Render(name))
	if len(tags) > 0 {
		fmt.Fprint(p.w, "  "+p.faintStyle.Render("@"+strings.Join(tags, " @")))
	}
	fmt.Fprintln(p.w)
}

// HistoryRow prints one recorded run for ftrun history.
func (p *Printer) HistoryRow(id int64, startedAt string, status string, scenarios, failed int, d time.Duration) {
	fmt.Fprintf(p.w, "#%-4d %s  %s  %d %s, %d failed  %s\n",
		id, startedAt, p.statusLabel(status), scenarios, plural(scenarios, "scenario"), failed,
		p.faintStyle.Render(d.Round(time.Millisecond).String()))
}

func plural(n int, word string) string {
	if n == 1 {
		return word
	}
	return word + "s"
}
