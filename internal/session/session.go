// Package session owns the session log: the enabled gate, the bounded entry
// store, running statistics, and export.
package session

import (
	"fmt"
	"sync"
	"time"

	"sessionlog/internal/model"
	"sessionlog/internal/serialize"
	"sessionlog/internal/stats"
	"sessionlog/internal/store"

	"github.com/google/uuid"
)

// Blob names used with the persistence collaborator.
const (
	SettingsBlob = "settings"
	LogsBlob     = "session_logs"
)

// Category of entries the manager records about its own operations.
const selfCategory = "SessionLog"

// Clock supplies the current host time.
type Clock interface {
	Now() time.Time
}

// ClockFunc adapts a function to Clock.
type ClockFunc func() time.Time

// Now calls f.
func (f ClockFunc) Now() time.Time { return f() }

// Environment supplies host facts.
type Environment interface {
	Facts() model.Facts
}

// Notifier shows user-visible notifications.
type Notifier interface {
	Notify(severity model.Severity, message string)
}

// BlobStore persists named payloads.
type BlobStore interface {
	Save(name string, v any) error
	Load(name string, v any) (bool, error)
}

// Options configures a Manager. Nil collaborators fall back to the wall
// clock, empty facts, and discarded notifications; a nil Blobs disables
// persistence.
type Options struct {
	// MaxEntries bounds the store. Zero selects store.DefaultMaxEntries and a
	// negative value gives a store that keeps nothing.
	MaxEntries int
	Enabled    bool
	Clock      Clock
	Env        Environment
	Notifier   Notifier
	Blobs      BlobStore
	NewID      func() string
}

// Settings is the persisted form of the enabled flag.
type Settings struct {
	Enabled bool `json:"enabled"`
}

// Manager owns one process's session log. All methods are safe for
// concurrent use.
type Manager struct {
	mu sync.Mutex

	enabled      bool
	store        *store.Store
	agg          *stats.Aggregator
	sessionID    string
	sessionStart time.Time
	lastFlush    time.Time

	// selfLogging is set while the manager records one of its own operations.
	selfLogging bool

	clock    Clock
	env      Environment
	notifier Notifier
	blobs    BlobStore
	newID    func() string
}

type noFacts struct{}

func (noFacts) Facts() model.Facts { return model.Facts{} }

type discard struct{}

func (discard) Notify(model.Severity, string) {}

// New builds a manager. When a blob store holds saved settings, the saved
// enabled flag wins over opts.Enabled.
func New(opts Options) *Manager {
	maxEntries := opts.MaxEntries
	if maxEntries == 0 {
		maxEntries = store.DefaultMaxEntries
	}
	m := &Manager{
		enabled:  opts.Enabled,
		store:    store.New(maxEntries),
		agg:      stats.New(),
		clock:    opts.Clock,
		env:      opts.Env,
		notifier: opts.Notifier,
		blobs:    opts.Blobs,
		newID:    opts.NewID,
	}
	if m.clock == nil {
		m.clock = ClockFunc(time.Now)
	}
	if m.env == nil {
		m.env = noFacts{}
	}
	if m.notifier == nil {
		m.notifier = discard{}
	}
	if m.newID == nil {
		m.newID = func() string { return uuid.NewString() }
	}
	if m.blobs != nil {
		var saved Settings
		if found, err := m.blobs.Load(SettingsBlob, &saved); err == nil && found {
			m.enabled = saved.Enabled
		}
	}
	return m
}

// IsEnabled reports whether leveled logging is recording entries.
func (m *Manager) IsEnabled() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.enabled
}

// SetEnabled switches logging on or off and persists the flag. Switching to
// the current state only persists. A change records one entry (while logging
// is on) and sends one notification. The returned error reports a failure to
// persist the flag; the in-memory state changes regardless.
func (m *Manager) SetEnabled(enabled bool) error {
	m.mu.Lock()
	changed := m.enabled != enabled
	if changed {
		if m.enabled {
			m.logLocked(model.LevelInfo, selfCategory, "Session logging disabled", model.Null())
		}
		m.enabled = enabled
		if enabled {
			m.logLocked(model.LevelInfo, selfCategory, "Session logging enabled", model.Null())
		}
	}
	m.mu.Unlock()

	err := m.persistSettings(enabled)
	if changed {
		if enabled {
			m.notifier.Notify(model.SeveritySuccess, "Session logging enabled")
		} else {
			m.notifier.Notify(model.SeverityWarning, "Session logging disabled")
		}
	}
	return err
}

// Toggle inverts the enabled flag through SetEnabled.
func (m *Manager) Toggle() error {
	m.mu.Lock()
	next := !m.enabled
	m.mu.Unlock()
	return m.SetEnabled(next)
}

func (m *Manager) persistSettings(enabled bool) error {
	if m.blobs == nil {
		return nil
	}
	if err := m.blobs.Save(SettingsBlob, Settings{Enabled: enabled}); err != nil {
		return model.Persistence("save settings", err)
	}
	return nil
}

// StartSession begins a new session at the current host time, discarding all
// entries and statistics. It returns the new session ID.
func (m *Manager) StartSession() string {
	now := m.clock.Now()

	m.mu.Lock()
	defer m.mu.Unlock()

	m.sessionStart = now
	m.sessionID = m.newID()
	m.store.Reset()
	m.agg.Reset()

	if m.enabled {
		facts := m.env.Facts()
		m.logLocked(model.LevelInfo, selfCategory, "Session started", model.Map(
			model.F("session_id", model.String(m.sessionID)),
			model.F("start_time", model.String(now.Format(time.RFC3339))),
			model.F("build", model.String(facts.Build)),
			model.F("version", model.String(facts.Version)),
			model.F("addon_version", model.String(facts.AddonVersion)),
			model.F("user", model.String(facts.User)),
			model.F("realm", model.String(facts.Realm)),
			model.F("guild", model.String(facts.Guild)),
		))
	}
	return m.sessionID
}

// ClearLogs drops all entries and statistics and returns how many entries
// were stored beforehand.
func (m *Manager) ClearLogs() int {
	m.mu.Lock()
	count := m.store.Len()
	if count > 0 && m.enabled {
		m.logLocked(model.LevelInfo, selfCategory, "Clearing session logs", model.Map(
			model.F("count", model.Int(int64(count))),
		))
	}
	m.store.Reset()
	m.agg.Reset()
	m.mu.Unlock()

	if count == 0 {
		m.notifier.Notify(model.SeverityInfo, "No session log entries to clear")
	} else {
		m.notifier.Notify(model.SeveritySuccess, pluralEntries("Cleared %d session log %s", count))
	}
	return count
}

// Stats returns the current session statistics without recording anything.
func (m *Manager) Stats() model.Stats {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.statsLocked(now)
}

func (m *Manager) statsLocked(now time.Time) model.Stats {
	counts := m.agg.Counts()

	var duration time.Duration
	if !m.sessionStart.IsZero() && now.After(m.sessionStart) {
		duration = now.Sub(m.sessionStart)
	}

	memory := 0
	for i := 0; i < m.store.Len(); i++ {
		memory += serialize.EstimateEntry(m.store.At(i))
	}

	var utilization float64
	if capacity := m.store.Cap(); capacity > 0 {
		utilization = float64(counts.Total) / float64(capacity)
	}

	return model.Stats{
		SessionID:            m.sessionID,
		SessionStart:         m.sessionStart,
		SessionDuration:      duration,
		TotalEntries:         counts.Total,
		ByLevel:              counts.ByLevel,
		ByCategory:           counts.ByCategory,
		EstimatedMemoryBytes: memory,
		BufferUtilization:    utilization,
		MaxEntries:           m.store.Cap(),
		Enabled:              m.enabled,
	}
}

// ReportStats returns the current statistics and records the request.
func (m *Manager) ReportStats() model.Stats {
	now := m.clock.Now()
	m.mu.Lock()
	defer m.mu.Unlock()

	s := m.statsLocked(now)
	m.recordSelfLocked("Session statistics requested", model.Map(
		model.F("entries", model.Int(int64(s.TotalEntries))),
	))
	return s
}

// Verify rebuilds statistics from the stored entries. It reports whether the
// running counts matched and replaces them when they did not.
func (m *Manager) Verify() bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	fresh := stats.Recompute(m.store.Entries())
	if fresh.Equal(m.agg.Counts()) {
		return true
	}
	m.agg.Replace(fresh)
	return false
}

// recordSelfLocked records one of the manager's own operations. Nested calls
// made while a record is in progress are dropped.
func (m *Manager) recordSelfLocked(message string, data model.Value) {
	if !m.enabled || m.selfLogging {
		return
	}
	m.selfLogging = true
	defer func() { m.selfLogging = false }()
	m.logLocked(model.LevelInfo, selfCategory, message, data)
}

func pluralEntries(format string, n int) string {
	noun := "entries"
	if n == 1 {
		noun = "entry"
	}
	return fmt.Sprintf(format, n, noun)
}
