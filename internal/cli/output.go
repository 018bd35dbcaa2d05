// Package cli provides plain, deterministic CLI output helpers: status
// lines, a progress bar, and a TTY-aware table renderer for `status
// --verbose`.
package cli

import (
	"fmt"
	"io"
	"strings"
)

// Writer formats status messages for the CLI's plain-text output.
type Writer struct {
	out io.Writer
}

// New creates a Writer over out.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a message with an icon prefix, or indented plainly when
// icon is empty.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf is Status with fmt.Sprintf formatting.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success-flagged status line.
func (w *Writer) Success(msg string) { w.Status("✅", msg) }

// Successf is Success with formatting.
func (w *Writer) Successf(format string, args ...any) { w.Success(fmt.Sprintf(format, args...)) }

// Warning prints a warning-flagged status line.
func (w *Writer) Warning(msg string) { w.Status("⚠️ ", msg) }

// Warningf is Warning with formatting.
func (w *Writer) Warningf(format string, args ...any) { w.Warning(fmt.Sprintf(format, args...)) }

// Error prints an error-flagged status line.
func (w *Writer) Error(msg string) { w.Status("❌", msg) }

// Errorf is Error with formatting.
func (w *Writer) Errorf(format string, args ...any) { w.Error(fmt.Sprintf(format, args...)) }

// Newline prints a blank line.
func (w *Writer) Newline() { fmt.Fprintln(w.out) }

// Code prints an indented block of text, blank-line framed.
func (w *Writer) Code(content string) {
	fmt.Fprintln(w.out)
	for _, line := range strings.Split(content, "\n") {
		fmt.Fprintf(w.out, "  %s\n", line)
	}
	fmt.Fprintln(w.out)
}

// Progress prints an in-place progress bar; call with current == total to
// finish the line.
func (w *Writer) Progress(current, total int, msg string) {
	if total <= 0 {
		return
	}
	pct := float64(current) / float64(total) * 100
	fmt.Fprintf(w.out, "\r[%s] %.0f%% %s", renderBar(current, total, 30), pct, msg)
	if current >= total {
		fmt.Fprintln(w.out)
	}
}

func renderBar(current, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}
	filled := int(float64(current) / float64(total) * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
