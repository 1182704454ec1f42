// Package format renders entries, statistics, and reports as text.
package format

import (
	"fmt"
	"strings"
	"time"

	"sessionlog/internal/model"
	"sessionlog/internal/serialize"

	"github.com/mattn/go-runewidth"
)

const (
	categoryWidth  = 8
	maxDataDisplay = 100
)

// LevelStyler decorates the padded level tag of a display line.
type LevelStyler func(level model.Level, tag string) string

// EntryForDisplay renders e as a single plain line.
func EntryForDisplay(e model.Entry) string {
	return StyledEntry(e, nil)
}

// StyledEntry renders e as a single line, passing the level tag through style
// when it is non-nil.
func StyledEntry(e model.Entry, style LevelStyler) string {
	tag := fmt.Sprintf("[%-5s]", e.Level)
	if style != nil {
		tag = style(e.Level, tag)
	}

	line := fmt.Sprintf("%s %s [%s] %s", tag, SessionTime(e.SessionTime), Category(e.Category), escapeNewlines(e.Message))
	if data, ok := serialize.Serialize(e.Data); ok {
		line += " | " + clip(escapeNewlines(data), maxDataDisplay)
	}
	return line
}

// SessionTime renders a session-relative offset as +Ns, +NmNs or +NhNm.
func SessionTime(d time.Duration) string {
	seconds := int(d / time.Second)
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("+%ds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("+%dm%ds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("+%dh%dm", seconds/3600, (seconds%3600)/60)
	}
}

// Category fits c into a fixed-width column.
func Category(c string) string {
	if runewidth.StringWidth(c) > categoryWidth {
		return runewidth.Truncate(c, categoryWidth, "…")
	}
	return runewidth.FillRight(c, categoryWidth)
}

// Duration renders whole seconds in words.
func Duration(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	switch {
	case seconds < 60:
		return fmt.Sprintf("%d seconds", seconds)
	case seconds < 3600:
		return fmt.Sprintf("%d minutes, %d seconds", seconds/60, seconds%60)
	default:
		return fmt.Sprintf("%d hours, %d minutes", seconds/3600, (seconds%3600)/60)
	}
}

// Bytes renders a byte count in B, KB or MB.
func Bytes(n int) string {
	switch {
	case n < 1024:
		return fmt.Sprintf("%d B", n)
	case n < 1024*1024:
		return fmt.Sprintf("%.1f KB", float64(n)/1024)
	default:
		return fmt.Sprintf("%.1f MB", float64(n)/(1024*1024))
	}
}

// ReportLine renders e as "[time] LEVEL [category] message (data)".
func ReportLine(e model.Entry) string {
	line := fmt.Sprintf("[%s] %s [%s] %s", e.Timestamp.Format(time.TimeOnly), e.Level, e.Category, e.Message)
	if data, ok := serialize.Serialize(e.Data); ok {
		line += " (" + data + ")"
	}
	return line
}

// FlushLine renders e for persisted session logs.
func FlushLine(e model.Entry) string {
	line := fmt.Sprintf("[%s] +%ds %s/%s: %s",
		e.Timestamp.Format(time.DateTime),
		int(e.SessionTime/time.Second),
		e.Level,
		e.Category,
		e.Message,
	)
	if data, ok := serialize.Serialize(e.Data); ok {
		line += " | Data: " + data
	}
	return line
}

func clip(text string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	if maxLen == 1 {
		return "…"
	}
	return string(runes[:maxLen-1]) + "…"
}

func escapeNewlines(text string) string {
	return strings.ReplaceAll(text, "\n", "\\n")
}
