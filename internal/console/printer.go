package console

import (
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Printer writes status lines, colored when the destination is a terminal.
type Printer struct {
	out     io.Writer
	color   bool
	success lipgloss.Style
	failure lipgloss.Style
	warn    lipgloss.Style
	info    lipgloss.Style
}

// NewPrinter colors output only when out is a terminal.
func NewPrinter(out io.Writer) *Printer {
	return newPrinter(out, shouldColorize(out))
}

// NewPlainPrinter never emits escape codes.
func NewPlainPrinter(out io.Writer) *Printer {
	return newPrinter(out, false)
}

func newPrinter(out io.Writer, color bool) *Printer {
	r := lipgloss.NewRenderer(out)
	return &Printer{
		out:     out,
		color:   color,
		success: r.NewStyle().Foreground(lipgloss.Color("2")),
		failure: r.NewStyle().Foreground(lipgloss.Color("1")),
		warn:    r.NewStyle().Foreground(lipgloss.Color("3")),
		info:    r.NewStyle().Foreground(lipgloss.Color("6")),
	}
}

func shouldColorize(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := f.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Writer returns the underlying destination.
func (p *Printer) Writer() io.Writer { return p.out }

func (p *Printer) render(style lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return style.Render(text)
}

func (p *Printer) line(style lipgloss.Style, format string, args ...any) {
	fmt.Fprintln(p.out, p.render(style, fmt.Sprintf(format, args...)))
}

// Success prints a green line.
func (p *Printer) Success(format string, args ...any) { p.line(p.success, format, args...) }

// Failure prints a red line.
func (p *Printer) Failure(format string, args ...any) { p.line(p.failure, format, args...) }

// Warn prints a yellow line.
func (p *Printer) Warn(format string, args ...any) { p.line(p.warn, format, args...) }

// Info prints a cyan line.
func (p *Printer) Info(format string, args ...any) { p.line(p.info, format, args...) }

// Plain prints an unstyled line.
func (p *Printer) Plain(format string, args ...any) {
	fmt.Fprintf(p.out, format+"\n", args...)
}

// Overwrite rewrites the current terminal line without a trailing newline.
func (p *Printer) Overwrite(format string, args ...any) {
	fmt.Fprintf(p.out, "\r"+format, args...)
}

// Connection renders "Connected" in green or "Not Connected" in red.
func (p *Printer) Connection(connected bool) string {
	if connected {
		return p.render(p.success, "Connected")
	}
	return p.render(p.failure, "Not Connected")
}
