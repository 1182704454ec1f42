package session

import (
	"errors"
	"strings"
	"time"

	"sessionlog/internal/format"
	"sessionlog/internal/model"
	"sessionlog/internal/query"
)

// VersionInfo identifies the host build in persisted payloads.
type VersionInfo struct {
	Build        string `json:"build"`
	Version      string `json:"version"`
	AddonVersion string `json:"addonVersion"`
}

// FlushPayload is the persisted form of a session's entries.
type FlushPayload struct {
	SessionID    string      `json:"sessionId"`
	SessionStart int64       `json:"sessionStart"`
	LastFlush    int64       `json:"lastFlush"`
	VersionInfo  VersionInfo `json:"versionInfo"`
	LogCount     int         `json:"logCount"`
	Logs         []string    `json:"logs"`
}

// SavedReport is the persisted form of an exported report.
type SavedReport struct {
	GeneratedAt int64  `json:"generatedAt"`
	Report      string `json:"report"`
}

var errNoBlobStore = errors.New("no blob store configured")

// GetSessionLogs returns the entries matching opts, most recent first.
func (m *Manager) GetSessionLogs(opts ...query.Option) ([]model.Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return query.Filter(m.store.Entries(), opts...)
}

// DisplayLogs renders the entries matching opts as display lines, most recent
// first, and records the request.
func (m *Manager) DisplayLogs(style format.LevelStyler, opts ...query.Option) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entries, err := query.Filter(m.store.Entries(), opts...)
	if err != nil {
		return nil, err
	}
	lines := make([]string, 0, len(entries))
	for _, e := range entries {
		lines = append(lines, format.StyledEntry(e, style))
	}

	m.recordSelfLocked("Session logs displayed", model.Map(
		model.F("shown", model.Int(int64(len(lines)))),
	))
	return lines, nil
}

// Report renders the full plain-text report without recording the request.
func (m *Manager) Report() string {
	now := m.clock.Now()
	facts := m.env.Facts()

	m.mu.Lock()
	defer m.mu.Unlock()
	text, _ := m.renderReportLocked(now, facts)
	return text
}

// ExportReport renders the full plain-text report and records the export. The
// report reflects the state before the export records itself.
func (m *Manager) ExportReport() string {
	now := m.clock.Now()
	facts := m.env.Facts()

	m.mu.Lock()
	defer m.mu.Unlock()

	text, shown := m.renderReportLocked(now, facts)
	m.recordSelfLocked("Session report exported", model.Map(
		model.F("bytes", model.Int(int64(len(text)))),
		model.F("entries", model.Int(int64(shown))),
	))
	return text
}

func (m *Manager) renderReportLocked(now time.Time, facts model.Facts) (string, int) {
	recent, err := query.Filter(m.store.Entries(), query.Count(format.ReportEntries))
	if err != nil {
		recent = nil
	}

	var b strings.Builder
	// strings.Builder never fails a write.
	_ = format.WriteReport(&b, format.Report{
		GeneratedAt: now,
		Facts:       facts,
		Stats:       m.statsLocked(now),
		Entries:     recent,
	})
	return b.String(), len(recent)
}

// SaveReport exports the report and persists it under name.
func (m *Manager) SaveReport(name string) (string, error) {
	text := m.ExportReport()
	if m.blobs == nil {
		return text, m.persistFailed("save report", errNoBlobStore)
	}
	err := m.blobs.Save(name, SavedReport{
		GeneratedAt: m.clock.Now().Unix(),
		Report:      text,
	})
	if err != nil {
		return text, m.persistFailed("save report", err)
	}
	m.notifier.Notify(model.SeveritySuccess, "Session report saved as "+name)
	return text, nil
}

// Flush persists every stored entry, oldest first, under LogsBlob.
func (m *Manager) Flush() error {
	now := m.clock.Now()
	facts := m.env.Facts()

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.blobs == nil {
		return m.persistFailed("flush session logs", errNoBlobStore)
	}

	logs := make([]string, 0, m.store.Len())
	for i := 0; i < m.store.Len(); i++ {
		logs = append(logs, format.FlushLine(m.store.At(i)))
	}
	payload := FlushPayload{
		SessionID:    m.sessionID,
		SessionStart: unixOrZero(m.sessionStart),
		LastFlush:    now.Unix(),
		VersionInfo: VersionInfo{
			Build:        facts.Build,
			Version:      facts.Version,
			AddonVersion: facts.AddonVersion,
		},
		LogCount: len(logs),
		Logs:     logs,
	}
	if err := m.blobs.Save(LogsBlob, payload); err != nil {
		return m.persistFailed("flush session logs", err)
	}
	m.lastFlush = now

	m.notifier.Notify(model.SeveritySuccess, pluralEntries("Saved %d session log %s", len(logs)))
	m.recordSelfLocked("Session logs flushed", model.Map(
		model.F("count", model.Int(int64(len(logs)))),
	))
	return nil
}

// LastFlush returns the time of the last successful flush in this process.
func (m *Manager) LastFlush() (int64, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastFlush.IsZero() {
		return 0, false
	}
	return m.lastFlush.Unix(), true
}

func (m *Manager) persistFailed(op string, cause error) error {
	err := model.Persistence(op, cause)
	m.notifier.Notify(model.SeverityError, "Failed to "+err.Error())
	return err
}

func unixOrZero(t time.Time) int64 {
	if t.IsZero() {
		return 0
	}
	return t.Unix()
}
