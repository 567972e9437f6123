// Package diagfmt renders diagnostics for humans: one headline per
// diagnostic, the offending source line, and a caret underline.
package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-runewidth"

	"obx/internal/diag"
	"obx/internal/source"
)

// Options control rendering.
type Options struct {
	// Color switches ANSI styling on.
	Color bool
	// Context renders the offending source line with a caret.
	Context bool
}

var (
	errStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warnStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	posStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	gutter    = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
)

// Write renders every diagnostic in bag to w. The bag should be sorted
// first so output order is deterministic.
func Write(w io.Writer, bag *diag.Bag, fs *source.FileSet, opts Options) {
	for _, d := range bag.Items() {
		writeOne(w, d, fs, opts)
	}
}

func writeOne(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts Options) {
	start, _ := fs.Resolve(d.Primary)
	pos := fmt.Sprintf("%s:%d:%d", fs.PathOf(d.Primary.File), start.Line, start.Col)
	sev := d.Severity.String()
	headline := fmt.Sprintf("%s: %s[%s]: %s", pos, sev, d.Code, d.Message)
	if opts.Color {
		style := warnStyle
		if d.Severity >= diag.SevError {
			style = errStyle
		}
		headline = posStyle.Render(pos) + ": " + style.Render(sev+"["+d.Code.String()+"]") + ": " + d.Message
	}
	fmt.Fprintln(w, headline)

	if opts.Context {
		writeContext(w, d, fs, opts)
	}
	for _, note := range d.Notes {
		nStart, _ := fs.Resolve(note.Span)
		fmt.Fprintf(w, "  note: %s:%d:%d: %s\n",
			fs.PathOf(note.Span.File), nStart.Line, nStart.Col, note.Msg)
	}
}

// writeContext prints the source line and underlines the span with
// carets, accounting for display width of wide runes and tabs.
func writeContext(w io.Writer, d diag.Diagnostic, fs *source.FileSet, opts Options) {
	start, end := fs.Resolve(d.Primary)
	file := fs.Get(d.Primary.File)
	line := file.Line(start.Line)
	if line == "" && start.Line != 0 {
		return
	}

	prefix := fmt.Sprintf("%5d | ", start.Line)
	if opts.Color {
		prefix = gutter.Render(prefix)
	}
	fmt.Fprintf(w, "%s%s\n", prefix, strings.ReplaceAll(line, "\t", " "))

	startCol := int(start.Col) - 1
	if startCol > len(line) {
		startCol = len(line)
	}
	width := 1
	if end.Line == start.Line && end.Col > start.Col {
		segment := line
		if int(end.Col)-1 <= len(line) {
			segment = line[startCol : end.Col-1]
		}
		width = runewidth.StringWidth(segment)
		if width < 1 {
			width = 1
		}
	}
	pad := runewidth.StringWidth(line[:startCol])
	caret := strings.Repeat(" ", pad) + strings.Repeat("^", width)
	if opts.Color {
		style := warnStyle
		if d.Severity >= diag.SevError {
			style = errStyle
		}
		caret = strings.Repeat(" ", pad) + style.Render(strings.Repeat("^", width))
	}
	fmt.Fprintf(w, "      | %s\n", caret)
}

// Summary returns the closing line of a run.
func Summary(bag *diag.Bag) string {
	errs, warns := 0, 0
	for _, d := range bag.Items() {
		if d.Severity >= diag.SevError {
			errs++
		} else {
			warns++
		}
	}
	switch {
	case errs == 0 && warns == 0:
		return "ok"
	case errs == 0:
		return fmt.Sprintf("%d warning(s)", warns)
	default:
		return fmt.Sprintf("%d error(s), %d warning(s)", errs, warns)
	}
}
