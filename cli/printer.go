package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
)

// Printer writes styled terminal output. Styling is dropped automatically
// when the writer is not a terminal.
type Printer struct {
	out     io.Writer
	heading lipgloss.Style
	muted   lipgloss.Style
	warning lipgloss.Style
	choice  lipgloss.Style
}

func NewPrinter() *Printer {
	return NewPrinterWithWriter(os.Stdout)
}

func NewPrinterWithWriter(w io.Writer) *Printer {
	r := lipgloss.NewRenderer(w)
	return &Printer{
		out:     w,
		heading: r.NewStyle().Bold(true).Foreground(lipgloss.Color("212")),
		muted:   r.NewStyle().Faint(true),
		warning: r.NewStyle().Foreground(lipgloss.Color("214")),
		choice:  r.NewStyle().Foreground(lipgloss.Color("86")),
	}
}

func (p *Printer) Heading(format string, args ...any) {
	fmt.Fprintln(p.out, p.heading.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Line(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

func (p *Printer) Muted(format string, args ...any) {
	fmt.Fprintln(p.out, p.muted.Render(fmt.Sprintf(format, args...)))
}

func (p *Printer) Warning(format string, args ...any) {
	fmt.Fprintln(p.out, p.warning.Render("! "+fmt.Sprintf(format, args...)))
}

// Choice prints a numbered decision.
func (p *Printer) Choice(n int, text string) {
	fmt.Fprintf(p.out, "  %s %s\n", p.choice.Render(fmt.Sprintf("%d)", n)), text)
}
