// Package view writes rendered session output to a terminal.
package view

import (
	"fmt"
	"io"
	"os"
	"strconv"

	"sessionlog/internal/format"
	"sessionlog/internal/model"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/x/ansi"
	"github.com/mattn/go-isatty"
	"github.com/muesli/termenv"
	"golang.org/x/term"
)

// Options controls terminal output.
type Options struct {
	Out          io.Writer
	Wrap         int
	ForceColor   bool
	ForceNoColor bool
}

// UseColor resolves whether ANSI styling should be emitted.
func UseColor(opts Options) bool {
	if opts.ForceColor {
		return true
	}
	if opts.ForceNoColor {
		return false
	}
	return shouldUseColorAuto(opts.Out)
}

func shouldUseColorAuto(out io.Writer) bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	file, ok := out.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

// Width returns the column budget for clipped output. Zero means unbounded.
func Width(opts Options) int {
	if opts.Wrap > 0 {
		return opts.Wrap
	}
	if file, ok := opts.Out.(*os.File); ok {
		if w, _, err := term.GetSize(int(file.Fd())); err == nil && w > 0 {
			return w
		}
	}
	if colsStr := os.Getenv("COLUMNS"); colsStr != "" {
		if v, err := strconv.Atoi(colsStr); err == nil && v > 0 {
			return v
		}
	}
	return 0
}

// NewRenderer returns a lipgloss renderer bound to out. Color is forced on or
// off according to enabled rather than detected.
func NewRenderer(out io.Writer, enabled bool) *lipgloss.Renderer {
	r := lipgloss.NewRenderer(out)
	if enabled {
		r.SetColorProfile(termenv.ANSI256)
	} else {
		r.SetColorProfile(termenv.Ascii)
	}
	return r
}

// LevelStyler returns a styler coloring level tags by severity, or nil when
// color is disabled.
func LevelStyler(r *lipgloss.Renderer, enabled bool) format.LevelStyler {
	if !enabled {
		return nil
	}
	styles := map[model.Level]lipgloss.Style{
		model.LevelInfo:  r.NewStyle().Foreground(lipgloss.Color("245")),
		model.LevelDebug: r.NewStyle().Foreground(lipgloss.Color("245")).Faint(true),
		model.LevelWarn:  r.NewStyle().Foreground(lipgloss.Color("220")),
		model.LevelError: r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
	}
	return func(level model.Level, tag string) string {
		style, ok := styles[level]
		if !ok {
			return tag
		}
		return style.Render(tag)
	}
}

// WriteLines writes each line to out, clipping to width visible cells when
// width > 0. Escape sequences do not count toward the width and are never cut.
func WriteLines(out io.Writer, lines []string, width int) error {
	for _, line := range lines {
		if width > 0 && ansi.StringWidth(line) > width {
			line = ansi.Truncate(line, width, "…")
		}
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}
