package session

import (
	"time"

	"sessionlog/internal/model"
	"sessionlog/internal/serialize"
)

// Log records an entry when logging is enabled. While disabled it returns nil
// without validating anything. Otherwise an empty or unknown level, or an
// empty category or message, fails with model.ErrInvalidArgument.
//
// Optional data is converted with model.ValueOf: one argument is attached
// as-is, several are attached as a list. Data that cannot be converted is
// replaced by the serialization sentinel.
func (m *Manager) Log(level, category, message string, data ...any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.enabled {
		return nil
	}
	parsed, err := model.ParseLevel(level)
	if err != nil {
		return err
	}
	if err := validate(category, message); err != nil {
		return err
	}
	m.logLocked(parsed, category, message, dataValue(data))
	return nil
}

// LogInfo records an INFO entry. Category and message are validated even
// when logging is disabled.
func (m *Manager) LogInfo(category, message string, data ...any) error {
	return m.logLevel(model.LevelInfo, category, message, data)
}

// LogWarn records a WARN entry. Category and message are validated even
// when logging is disabled.
func (m *Manager) LogWarn(category, message string, data ...any) error {
	return m.logLevel(model.LevelWarn, category, message, data)
}

// LogError records an ERROR entry. Category and message are validated even
// when logging is disabled.
func (m *Manager) LogError(category, message string, data ...any) error {
	return m.logLevel(model.LevelError, category, message, data)
}

// LogDebug records a DEBUG entry. Category and message are validated even
// when logging is disabled.
func (m *Manager) LogDebug(category, message string, data ...any) error {
	return m.logLevel(model.LevelDebug, category, message, data)
}

func (m *Manager) logLevel(level model.Level, category, message string, data []any) error {
	if err := validate(category, message); err != nil {
		return err
	}
	return m.Log(string(level), category, message, data...)
}

func validate(category, message string) error {
	if category == "" {
		return model.InvalidArgument("category is required")
	}
	if message == "" {
		return model.InvalidArgument("message is required")
	}
	return nil
}

func dataValue(data []any) model.Value {
	var (
		v   model.Value
		err error
	)
	switch len(data) {
	case 0:
		return model.Null()
	case 1:
		v, err = model.ValueOf(data[0])
	default:
		v, err = model.ValueOf(data)
	}
	if err != nil {
		return model.String(serialize.ErrorSentinel)
	}
	return v
}

// logLocked appends an entry without checking the gate. Callers hold m.mu.
func (m *Manager) logLocked(level model.Level, category, message string, data model.Value) {
	now := m.clock.Now()

	var sessionTime time.Duration
	if !m.sessionStart.IsZero() && now.After(m.sessionStart) {
		sessionTime = now.Sub(m.sessionStart)
	}

	entry := model.Entry{
		Timestamp:   now,
		SessionTime: sessionTime,
		Level:       level,
		Category:    category,
		Message:     message,
		Data:        data,
	}
	evicted, ok := m.store.Append(entry)
	m.agg.Update(entry)
	if ok {
		m.agg.Evict(evicted)
	}
}
