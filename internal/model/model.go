// Package model provides the entry, level, and structured data types shared by
// the session log packages.
package model

import (
	"encoding/json"
	"strings"
	"time"
)

// Level is the severity classification of an entry.
type Level string

const (
	// LevelInfo marks informational entries.
	LevelInfo Level = "INFO"
	// LevelWarn marks recoverable problems.
	LevelWarn Level = "WARN"
	// LevelError marks failures.
	LevelError Level = "ERROR"
	// LevelDebug marks verbose diagnostic entries.
	LevelDebug Level = "DEBUG"
)

// Levels lists every level in display order.
var Levels = []Level{LevelInfo, LevelWarn, LevelError, LevelDebug}

// ParseLevel normalizes raw to its canonical uppercase form.
func ParseLevel(raw string) (Level, error) {
	if raw == "" {
		return "", InvalidArgument("level is required")
	}
	level := Level(strings.ToUpper(strings.TrimSpace(raw)))
	for _, known := range Levels {
		if level == known {
			return level, nil
		}
	}
	return "", InvalidArgument("unknown level %q", raw)
}

// Entry is a single recorded log event. Entries are never mutated after they
// are appended; Data is shared by reference with every copy.
type Entry struct {
	Timestamp   time.Time
	SessionTime time.Duration
	Level       Level
	Category    string
	Message     string
	Data        Value
}

// HasData reports whether the entry carries structured context.
func (e Entry) HasData() bool {
	return !e.Data.IsNull()
}

// Stats is a point-in-time view of the current session.
type Stats struct {
	SessionID            string         `json:"session_id"`
	SessionStart         time.Time      `json:"session_start"`
	SessionDuration      time.Duration  `json:"-"`
	TotalEntries         int            `json:"total_entries"`
	ByLevel              map[Level]int  `json:"by_level"`
	ByCategory           map[string]int `json:"by_category"`
	EstimatedMemoryBytes int            `json:"estimated_memory_bytes"`
	BufferUtilization    float64        `json:"buffer_utilization"`
	MaxEntries           int            `json:"max_entries"`
	Enabled              bool           `json:"enabled"`
}

type statsJSON Stats

// MarshalJSON encodes SessionDuration as session_duration_seconds.
func (s Stats) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		statsJSON
		SessionDurationSeconds float64 `json:"session_duration_seconds"`
	}{statsJSON(s), s.SessionDuration.Seconds()})
}

// UnmarshalJSON decodes the form written by MarshalJSON.
func (s *Stats) UnmarshalJSON(data []byte) error {
	var aux struct {
		statsJSON
		SessionDurationSeconds float64 `json:"session_duration_seconds"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*s = Stats(aux.statsJSON)
	s.SessionDuration = time.Duration(aux.SessionDurationSeconds * float64(time.Second))
	return nil
}

// Facts are host-provided environment details, consumed read-only.
type Facts struct {
	Build        string
	Version      string
	AddonVersion string
	User         string
	Realm        string
	Guild        string
}

// Severity classifies user-visible notifications.
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityError
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	default:
		return "info"
	}
}
