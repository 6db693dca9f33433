// Package printer formats herkulexctl output with colors.
package printer

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/fatih/color"

	"github.com/ClubRobotInsat/herkulex-go/drs"
)

var (
	// Color definitions
	green  = color.New(color.FgGreen)
	yellow = color.New(color.FgYellow)
	red    = color.New(color.FgRed, color.Bold)
	cyan   = color.New(color.FgCyan)
	faint  = color.New(color.Faint)
)

// Printer writes user-facing output. Errors go to Err, everything else to Out.
type Printer struct {
	Out io.Writer
	Err io.Writer
}

// New returns a printer writing to out and errOut.
func New(out, errOut io.Writer) *Printer {
	return &Printer{Out: out, Err: errOut}
}

// Stdio returns a printer on the process standard streams.
func Stdio() *Printer {
	return New(os.Stdout, os.Stderr)
}

// Success prints a success message in green with a checkmark prefix
func (p *Printer) Success(format string, a ...any) {
	green.Fprintf(p.Out, "✓ %s\n", fmt.Sprintf(format, a...))
}

// Info prints an informational message in the default color
func (p *Printer) Info(format string, a ...any) {
	fmt.Fprintf(p.Out, format+"\n", a...)
}

// Warning prints a warning message in yellow
func (p *Printer) Warning(format string, a ...any) {
	yellow.Fprintf(p.Err, "! %s\n", fmt.Sprintf(format, a...))
}

// Step prints a step message with emphasis (used in multi-step operations)
func (p *Printer) Step(format string, a ...any) {
	cyan.Fprintf(p.Out, "→ %s\n", fmt.Sprintf(format, a...))
}

// Error prints title, explanation and suggestions to Err and returns an
// error carrying only the title, for Cobra.
func (p *Printer) Error(title string, explanation string, suggestions []string) error {
	red.Fprintf(p.Err, "%s\n", title)

	if explanation != "" {
		fmt.Fprintf(p.Err, "\n%s\n", explanation)
	}

	if len(suggestions) > 0 {
		fmt.Fprintf(p.Err, "\n")
		if len(suggestions) == 1 {
			fmt.Fprintf(p.Err, "%s\n", suggestions[0])
		} else {
			fmt.Fprintf(p.Err, "Either:\n")
			for i, suggestion := range suggestions {
				fmt.Fprintf(p.Err, "  %d. %s\n", i+1, suggestion)
			}
		}
	}

	return fmt.Errorf("%s", title)
}

// Status prints one line describing the status of motor id.
func (p *Printer) Status(id byte, s drs.Status) {
	flags := make([]string, 0, 3)
	if s.TorqueOn() {
		flags = append(flags, "torque on")
	}
	if s.Moving() {
		flags = append(flags, "moving")
	}
	if s.InPosition() {
		flags = append(flags, "in position")
	}
	detail := strings.Join(flags, ", ")
	if detail == "" {
		detail = "idle"
	}

	if s.Error.HasError() {
		red.Fprintf(p.Out, "motor %d: %s", id, s.Error.Error())
		faint.Fprintf(p.Out, " [%s]\n", detail)
		return
	}
	green.Fprintf(p.Out, "motor %d: ok", id)
	faint.Fprintf(p.Out, " [%s]\n", detail)
}

// Table prints rows as aligned columns under header.
func (p *Printer) Table(header []string, rows [][]string) {
	widths := make([]int, len(header))
	for i, h := range header {
		widths[i] = len(h)
	}
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) && len(cell) > widths[i] {
				widths[i] = len(cell)
			}
		}
	}

	line := func(cells []string, c *color.Color) {
		parts := make([]string, len(cells))
		for i, cell := range cells {
			if i < len(widths) {
				parts[i] = fmt.Sprintf("%-*s", widths[i], cell)
			} else {
				parts[i] = cell
			}
		}
		c.Fprintln(p.Out, strings.TrimRight(strings.Join(parts, "  "), " "))
	}

	line(header, cyan)
	plain := color.New(color.Reset)
	for _, row := range rows {
		line(row, plain)
	}
}
