// Package output provides consistent CLI output formatting with colors and
// progress indicators.
package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/mattn/go-isatty"
)

// Color palette, single lime accent.
const (
	colorLime     = "154"
	colorGray     = "245"
	colorDarkGray = "238"
	colorRed      = "196"
	colorYellow   = "220"
)

// Styles holds the text styles used by the writer.
type Styles struct {
	Header  lipgloss.Style
	Success lipgloss.Style
	Warning lipgloss.Style
	Error   lipgloss.Style
	Dim     lipgloss.Style
	Score   lipgloss.Style
	Path    lipgloss.Style
}

// DefaultStyles returns the colored style set.
func DefaultStyles() Styles {
	return Styles{
		Header:  lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color(colorLime)),
		Success: lipgloss.NewStyle().Foreground(lipgloss.Color(colorLime)),
		Warning: lipgloss.NewStyle().Foreground(lipgloss.Color(colorYellow)),
		Error:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorRed)),
		Dim:     lipgloss.NewStyle().Foreground(lipgloss.Color(colorDarkGray)),
		Score:   lipgloss.NewStyle().Foreground(lipgloss.Color(colorGray)),
		Path:    lipgloss.NewStyle().Bold(true),
	}
}

// NoColorStyles returns unstyled components for plain mode.
func NoColorStyles() Styles {
	return Styles{}
}

// Writer provides formatted output for the CLI.
type Writer struct {
	out    io.Writer
	styles Styles
}

// New creates a Writer. Colors are enabled only when out is a terminal and
// NO_COLOR is unset.
func New(out io.Writer) *Writer {
	useColor := false
	if f, ok := out.(*os.File); ok {
		useColor = (isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())) &&
			os.Getenv("NO_COLOR") == ""
	}
	return NewWithColor(out, useColor)
}

// NewWithColor creates a Writer with an explicit color choice.
func NewWithColor(out io.Writer, useColor bool) *Writer {
	styles := NoColorStyles()
	if useColor {
		styles = DefaultStyles()
	}
	return &Writer{out: out, styles: styles}
}

// Printf writes formatted text as-is.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Printf(format string, args ...any) {
	_, _ = fmt.Fprintf(w.out, format, args...)
}

// Header prints a bold section header.
func (w *Writer) Header(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Header.Render(msg))
}

// Success prints a success message.
func (w *Writer) Success(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Success.Render("✓ "+msg))
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Warning.Render("! "+msg))
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Error.Render("✗ "+msg))
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Dim prints secondary text.
func (w *Writer) Dim(msg string) {
	_, _ = fmt.Fprintln(w.out, w.styles.Dim.Render(msg))
}

// Newline prints an empty line.
func (w *Writer) Newline() {
	_, _ = fmt.Fprintln(w.out)
}

// Hit prints one ranked search result.
func (w *Writer) Hit(rank int, kb, path string, score float64, snippet string) {
	_, _ = fmt.Fprintf(w.out, "%2d. %s %s %s\n",
		rank,
		w.styles.Path.Render(path),
		w.styles.Dim.Render("["+kb+"]"),
		w.styles.Score.Render(fmt.Sprintf("(%.4f)", score)))
	if snippet != "" {
		_, _ = fmt.Fprintf(w.out, "    %s\n", snippet)
	}
}

// Progress prints an in-place progress bar with message.
func (w *Writer) Progress(current, total int, msg string) {
	if total <= 0 {
		return
	}

	pct := float64(current) / float64(total) * 100
	bar := renderProgressBar(current, total, 30)

	_, _ = fmt.Fprintf(w.out, "\r[%s] %.0f%% %s", bar, pct, msg)
	if current >= total {
		_, _ = fmt.Fprintln(w.out)
	}
}

// renderProgressBar creates a text progress bar.
func renderProgressBar(current, total, width int) string {
	if total <= 0 {
		return strings.Repeat("░", width)
	}

	pct := float64(current) / float64(total)
	filled := int(pct * float64(width))

	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}
