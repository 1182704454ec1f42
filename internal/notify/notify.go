// Package notify delivers user-visible notifications.
package notify

import (
	"fmt"
	"io"
	"sync"

	"sessionlog/internal/model"
	"sessionlog/internal/view"

	"github.com/charmbracelet/lipgloss"
)

const prefix = "[SessionLog]"

// Terminal writes severity-colored notifications to a writer.
type Terminal struct {
	mu     sync.Mutex
	out    io.Writer
	prefix lipgloss.Style
	styles map[model.Severity]lipgloss.Style
}

// NewTerminal returns a notifier writing to opts.Out, colored according to
// view.UseColor.
func NewTerminal(opts view.Options) *Terminal {
	r := view.NewRenderer(opts.Out, view.UseColor(opts))
	return &Terminal{
		out:    opts.Out,
		prefix: r.NewStyle().Foreground(lipgloss.Color("39")).Bold(true),
		styles: map[model.Severity]lipgloss.Style{
			model.SeverityInfo:    r.NewStyle().Foreground(lipgloss.Color("252")),
			model.SeveritySuccess: r.NewStyle().Foreground(lipgloss.Color("42")),
			model.SeverityWarning: r.NewStyle().Foreground(lipgloss.Color("220")),
			model.SeverityError:   r.NewStyle().Foreground(lipgloss.Color("196")).Bold(true),
		},
	}
}

// Notify writes one notification line.
func (t *Terminal) Notify(severity model.Severity, message string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	fmt.Fprintf(t.out, "%s %s\n", t.prefix.Render(prefix), t.styles[severity].Render(message)) //nolint:errcheck
}

// Notice is a recorded notification.
type Notice struct {
	Severity model.Severity
	Message  string
}

// Recorder keeps notifications in memory.
type Recorder struct {
	mu      sync.Mutex
	notices []Notice
}

// Notify records the notification.
func (r *Recorder) Notify(severity model.Severity, message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = append(r.notices, Notice{Severity: severity, Message: message})
}

// Notices returns a copy of the recorded notifications.
func (r *Recorder) Notices() []Notice {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Notice(nil), r.notices...)
}

// Reset forgets recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notices = nil
}
