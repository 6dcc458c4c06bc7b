// Package console renders pipeline results for the terminal.
package console

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"

	"github.com/0xcro3dile/ragprompt/internal/domain/entities"
)

// Printer writes human readable output. Styling is dropped automatically
// when out is not a terminal.
type Printer struct {
	out        io.Writer
	showPrompt bool

	heading lipgloss.Style
	warn    lipgloss.Style
	muted   lipgloss.Style
	failure lipgloss.Style
}

// NewPrinter creates a Printer. When showPrompt is set the rendered prompt
// is printed before the answer.
func NewPrinter(out io.Writer, showPrompt bool) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:        out,
		showPrompt: showPrompt,
		heading:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("12")),
		warn:       r.NewStyle().Foreground(lipgloss.Color("11")),
		muted:      r.NewStyle().Faint(true),
		failure:    r.NewStyle().Bold(true).Foreground(lipgloss.Color("9")),
	}
}

// Question echoes the question before the pipeline runs.
func (p *Printer) Question(question string) {
	fmt.Fprintf(p.out, "\n%s %s\n", p.heading.Render("Question:"), question)
}

// Result prints the load summary, the optional prompt and the answer.
func (p *Printer) Result(res *entities.AskResult) {
	if res == nil {
		return
	}

	p.report(res.Report)

	if p.showPrompt && res.Prompt != "" {
		fmt.Fprintf(p.out, "\n%s\n%s\n", p.heading.Render("Prompt:"), res.Prompt)
	}

	if res.Answer != "" {
		fmt.Fprintf(p.out, "\n%s\n%s\n", p.heading.Render("Answer:"), res.Answer)
	}
}

// Failure prints a run error.
func (p *Printer) Failure(err error) {
	fmt.Fprintf(p.out, "\n%s %v\n", p.failure.Render("Error:"), err)
}

// Notice prints a one-line informational message.
func (p *Printer) Notice(msg string) {
	fmt.Fprintln(p.out, p.muted.Render(msg))
}

func (p *Printer) report(report entities.LoadReport) {
	fmt.Fprintf(p.out, "Loaded %d documents\n", report.Loaded())
	for _, e := range report.Skipped() {
		line := fmt.Sprintf("  skipped %s (%s): %s", e.Key, e.Path, e.Reason)
		fmt.Fprintln(p.out, p.warn.Render(line))
	}
}

// History prints stored runs, newest first.
func (p *Printer) History(records []entities.RunRecord) {
	if len(records) == 0 {
		fmt.Fprintln(p.out, p.muted.Render("No runs recorded"))
		return
	}
	for _, r := range records {
		status := "ok"
		if r.Error != "" {
			status = p.failure.Render("failed")
		}
		fmt.Fprintf(p.out, "%s  %s  %s  loaded=%d skipped=%d selected=%d  %s\n",
			p.muted.Render(r.CreatedAt.Local().Format(time.DateTime)),
			r.ID, r.Model, r.Loaded, r.Skipped, r.Selected, status)
		fmt.Fprintf(p.out, "  %s %s\n", p.heading.Render("Q:"), r.Question)
		if r.Error != "" {
			fmt.Fprintf(p.out, "  %s\n", r.Error)
		}
	}
}
