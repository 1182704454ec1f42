package session

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"sessionlog/internal/blob"
	"sessionlog/internal/model"
	"sessionlog/internal/notify"
	"sessionlog/internal/query"
	"sessionlog/internal/serialize"
	"sessionlog/internal/store"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2024, 3, 1, 20, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type staticFacts model.Facts

func (f staticFacts) Facts() model.Facts { return model.Facts(f) }

type fixture struct {
	m     *Manager
	clock *fakeClock
	rec   *notify.Recorder
	blobs *blob.MemoryStore
}

func newFixture(t *testing.T, opts Options) fixture {
	t.Helper()
	f := fixture{clock: newFakeClock(), rec: &notify.Recorder{}, blobs: blob.NewMemoryStore()}
	opts.Clock = f.clock
	opts.Notifier = f.rec
	if opts.Blobs == nil {
		opts.Blobs = f.blobs
	}
	if opts.Env == nil {
		opts.Env = staticFacts{Build: "11.0.2", Version: "55818", AddonVersion: "1.4.0", User: "Thrall", Realm: "Draenor"}
	}
	ids := 0
	opts.NewID = func() string {
		ids++
		return fmt.Sprintf("session-%d", ids)
	}
	f.m = New(opts)
	return f
}

func (f fixture) logs(t *testing.T, opts ...query.Option) []model.Entry {
	t.Helper()
	entries, err := f.m.GetSessionLogs(opts...)
	if err != nil {
		t.Fatalf("GetSessionLogs: %v", err)
	}
	return entries
}

func TestLogDisabledIgnoresEverything(t *testing.T) {
	f := newFixture(t, Options{})
	f.m.StartSession()

	calls := [][3]string{
		{"INFO", "Loot", "item dropped"},
		{"", "", ""},
		{"bogus", "Loot", "x"},
		{"INFO", "", "x"},
	}
	for _, c := range calls {
		if err := f.m.Log(c[0], c[1], c[2]); err != nil {
			t.Fatalf("Log(%q, %q, %q) while disabled: %v", c[0], c[1], c[2], err)
		}
	}
	if got := f.m.Stats().TotalEntries; got != 0 {
		t.Fatalf("expected no entries while disabled, got %d", got)
	}
	if got := len(f.logs(t)); got != 0 {
		t.Fatalf("expected empty store, got %d entries", got)
	}
}

func TestLogValidatesWhenEnabled(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})

	cases := [][3]string{
		{"", "Loot", "x"},
		{"TRACE", "Loot", "x"},
		{"INFO", "", "x"},
		{"INFO", "Loot", ""},
	}
	for _, c := range cases {
		err := f.m.Log(c[0], c[1], c[2])
		if !errors.Is(err, model.ErrInvalidArgument) {
			t.Fatalf("Log(%q, %q, %q): expected invalid argument, got %v", c[0], c[1], c[2], err)
		}
	}
	if got := f.m.Stats().TotalEntries; got != 0 {
		t.Fatalf("rejected calls must not append, got %d entries", got)
	}
}

func TestLogNormalizesLevel(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	if err := f.m.Log(" warn ", "Net", "latency spike"); err != nil {
		t.Fatalf("Log: %v", err)
	}
	entries := f.logs(t)
	if len(entries) != 1 || entries[0].Level != model.LevelWarn {
		t.Fatalf("expected one WARN entry, got %+v", entries)
	}
}

func TestWrappersValidateRegardlessOfEnabled(t *testing.T) {
	f := newFixture(t, Options{})
	wrappers := map[string]func(string, string, ...any) error{
		"LogInfo":  f.m.LogInfo,
		"LogWarn":  f.m.LogWarn,
		"LogError": f.m.LogError,
		"LogDebug": f.m.LogDebug,
	}

	for _, enabled := range []bool{false, true} {
		f.m.SetEnabled(enabled)
		for name, fn := range wrappers {
			if err := fn("", "msg"); !errors.Is(err, model.ErrInvalidArgument) {
				t.Fatalf("%s with empty category (enabled=%v): got %v", name, enabled, err)
			}
			if err := fn("Raid", ""); !errors.Is(err, model.ErrInvalidArgument) {
				t.Fatalf("%s with empty message (enabled=%v): got %v", name, enabled, err)
			}
		}
	}
}

func TestWrappersRecordLevel(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.m.LogInfo("Raid", "a")
	f.m.LogWarn("Raid", "b")
	f.m.LogError("Raid", "c")
	f.m.LogDebug("Raid", "d")

	s := f.m.Stats()
	for _, level := range model.Levels {
		if s.ByLevel[level] != 1 {
			t.Fatalf("expected one %s entry, got %v", level, s.ByLevel)
		}
	}
	if s.ByCategory["Raid"] != 4 {
		t.Fatalf("expected 4 Raid entries, got %v", s.ByCategory)
	}
}

func TestLogData(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.m.LogInfo("Data", "none")
	f.m.LogInfo("Data", "one", map[string]any{"player": "Jaina"})
	f.m.LogInfo("Data", "many", "a", 2)
	f.m.LogInfo("Data", "bad", make(chan int))

	entries := f.logs(t)
	byMessage := make(map[string]model.Entry, len(entries))
	for _, e := range entries {
		byMessage[e.Message] = e
	}
	if byMessage["none"].HasData() {
		t.Fatalf("expected no data, got %+v", byMessage["none"].Data)
	}
	if v, ok := byMessage["one"].Data.Get("player"); !ok || v.Str() != "Jaina" {
		t.Fatalf("unexpected map data: %+v", byMessage["one"].Data)
	}
	if got := byMessage["many"].Data; got.Kind() != model.KindList || got.Len() != 2 {
		t.Fatalf("expected two-item list, got %+v", got)
	}
	if got := byMessage["bad"].Data; got.Str() != serialize.ErrorSentinel {
		t.Fatalf("expected sentinel for unconvertible data, got %+v", got)
	}
}

type lootRoll struct {
	Player string
	Value  int
}

func TestLogStructData(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	if err := f.m.LogInfo("Loot", "roll", lootRoll{Player: "Thrall", Value: 87}); err != nil {
		t.Fatalf("LogInfo returned error: %v", err)
	}

	entries := f.logs(t)
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got, ok := serialize.Serialize(entries[0].Data)
	if !ok || got != `{Player="Thrall", Value=87}` {
		t.Fatalf("unexpected struct rendering %q", got)
	}
}

func TestSessionTime(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.m.LogInfo("Boot", "before session")

	f.m.StartSession()
	f.clock.Advance(90 * time.Second)
	f.m.LogInfo("Boot", "after session")

	entries := f.logs(t, query.Category("Boot"))
	if len(entries) != 1 {
		t.Fatalf("expected the pre-session entry to be cleared, got %d", len(entries))
	}
	if got := entries[0].SessionTime; got != 90*time.Second {
		t.Fatalf("expected +90s, got %s", got)
	}
	if got := f.m.Stats().SessionDuration; got != 90*time.Second {
		t.Fatalf("expected 90s session duration, got %s", got)
	}
}

func TestSessionTimeZeroWithoutSession(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.m.LogInfo("Boot", "x")
	if got := f.logs(t)[0].SessionTime; got != 0 {
		t.Fatalf("expected zero session time, got %s", got)
	}
	if got := f.m.Stats().SessionDuration; got != 0 {
		t.Fatalf("expected zero duration, got %s", got)
	}
}

func TestSetEnabledIdempotent(t *testing.T) {
	f := newFixture(t, Options{})

	for i := 0; i < 2; i++ {
		if err := f.m.SetEnabled(true); err != nil {
			t.Fatalf("SetEnabled: %v", err)
		}
	}
	notices := f.rec.Notices()
	if len(notices) != 1 || notices[0].Severity != model.SeveritySuccess {
		t.Fatalf("expected one success notification, got %+v", notices)
	}
	entries := f.logs(t)
	if len(entries) != 1 || entries[0].Message != "Session logging enabled" {
		t.Fatalf("expected one enable entry, got %+v", entries)
	}

	f.m.SetEnabled(false)
	f.m.SetEnabled(false)
	notices = f.rec.Notices()
	if len(notices) != 2 || notices[1].Severity != model.SeverityWarning {
		t.Fatalf("expected one warning after disabling, got %+v", notices)
	}
	if got := f.m.Stats().TotalEntries; got != 2 {
		t.Fatalf("expected the disable entry to be recorded, got %d entries", got)
	}
	if f.m.IsEnabled() {
		t.Fatalf("expected logging disabled")
	}
}

func TestToggle(t *testing.T) {
	f := newFixture(t, Options{})
	f.m.Toggle()
	if !f.m.IsEnabled() {
		t.Fatalf("expected toggle to enable")
	}
	f.m.Toggle()
	if f.m.IsEnabled() {
		t.Fatalf("expected toggle to disable")
	}
	if got := len(f.rec.Notices()); got != 2 {
		t.Fatalf("expected two notifications, got %d", got)
	}
}

func TestEnabledFlagPersisted(t *testing.T) {
	f := newFixture(t, Options{})
	if err := f.m.SetEnabled(true); err != nil {
		t.Fatalf("SetEnabled: %v", err)
	}

	restored := New(Options{Blobs: f.blobs})
	if !restored.IsEnabled() {
		t.Fatalf("expected saved flag to be restored")
	}
}

func TestSetEnabledPersistFailure(t *testing.T) {
	f := newFixture(t, Options{})
	f.blobs.Fail = errors.New("read-only volume")

	err := f.m.SetEnabled(true)
	if !errors.Is(err, model.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if !f.m.IsEnabled() {
		t.Fatalf("in-memory flag must change even when persisting fails")
	}
}

func TestStartSessionResets(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	for i := 0; i < 5; i++ {
		f.m.LogInfo("Combat", fmt.Sprintf("hit %d", i))
	}

	f.m.SetEnabled(false)
	f.m.StartSession()
	if got := f.m.Stats().TotalEntries; got != 0 {
		t.Fatalf("expected empty store after session start, got %d", got)
	}

	f.m.SetEnabled(true)
	id := f.m.StartSession()
	entries := f.logs(t)
	if len(entries) != 1 || entries[0].Message != "Session started" {
		t.Fatalf("expected only the session start entry, got %+v", entries)
	}
	data := entries[0].Data
	if v, _ := data.Get("session_id"); v.Str() != id {
		t.Fatalf("expected session id %q in data, got %+v", id, data)
	}
	if v, _ := data.Get("user"); v.Str() != "Thrall" {
		t.Fatalf("expected user fact in data, got %+v", data)
	}
	if got := f.m.Stats().SessionID; got != id {
		t.Fatalf("expected stats session id %q, got %q", id, got)
	}
}

func TestBoundedFIFO(t *testing.T) {
	const capacity = 5
	f := newFixture(t, Options{Enabled: true, MaxEntries: capacity})
	for i := 0; i < 12; i++ {
		f.clock.Advance(time.Second)
		f.m.LogInfo("Loop", fmt.Sprintf("m%d", i))
	}

	entries := f.logs(t)
	if len(entries) != capacity {
		t.Fatalf("expected %d entries, got %d", capacity, len(entries))
	}
	for i, e := range entries {
		want := fmt.Sprintf("m%d", 11-i)
		if e.Message != want {
			t.Fatalf("entry %d: expected %s, got %s", i, want, e.Message)
		}
	}

	s := f.m.Stats()
	if s.TotalEntries != capacity || s.ByCategory["Loop"] != capacity {
		t.Fatalf("stats out of step with store: %+v", s)
	}
	if s.BufferUtilization != 1 {
		t.Fatalf("expected full utilization, got %v", s.BufferUtilization)
	}
	if !f.m.Verify() {
		t.Fatalf("incremental stats diverged from recompute")
	}
}

func TestDefaultCapacity(t *testing.T) {
	f := newFixture(t, Options{})
	if got := f.m.Stats().MaxEntries; got != store.DefaultMaxEntries {
		t.Fatalf("expected default capacity %d, got %d", store.DefaultMaxEntries, got)
	}
}

func TestZeroCapacityKeepsStatsEmpty(t *testing.T) {
	f := newFixture(t, Options{Enabled: true, MaxEntries: -1})
	f.m.LogInfo("Loop", "dropped")

	s := f.m.Stats()
	if s.TotalEntries != 0 || s.BufferUtilization != 0 || s.MaxEntries != 0 {
		t.Fatalf("unexpected stats for zero capacity: %+v", s)
	}
	if !f.m.Verify() {
		t.Fatalf("expected consistent stats")
	}
}

func TestVerifyRepairsCounts(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.m.LogInfo("Loot", "a")

	f.m.agg.Update(model.Entry{Level: model.LevelError, Category: "Ghost"})
	if f.m.Verify() {
		t.Fatalf("expected verification to detect drift")
	}
	if !f.m.Verify() {
		t.Fatalf("expected counts to be repaired")
	}
	if _, ok := f.m.Stats().ByCategory["Ghost"]; ok {
		t.Fatalf("repaired counts still contain drift")
	}
}

func TestClearLogs(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})

	if got := f.m.ClearLogs(); got != 0 {
		t.Fatalf("expected 0 cleared, got %d", got)
	}
	for i := 0; i < 3; i++ {
		f.m.LogInfo("Loot", "roll")
	}
	if got := f.m.ClearLogs(); got != 3 {
		t.Fatalf("expected 3 cleared, got %d", got)
	}
	f.m.LogInfo("Loot", "roll")
	f.m.ClearLogs()

	notices := f.rec.Notices()
	want := []notify.Notice{
		{Severity: model.SeverityInfo, Message: "No session log entries to clear"},
		{Severity: model.SeveritySuccess, Message: "Cleared 3 session log entries"},
		{Severity: model.SeveritySuccess, Message: "Cleared 1 session log entry"},
	}
	if len(notices) != len(want) {
		t.Fatalf("expected %d notifications, got %+v", len(want), notices)
	}
	for i := range want {
		if notices[i] != want[i] {
			t.Fatalf("notification %d: expected %+v, got %+v", i, want[i], notices[i])
		}
	}
	if got := f.m.Stats().TotalEntries; got != 0 {
		t.Fatalf("expected empty store after clear, got %d", got)
	}
}

func TestGetSessionLogsByLevel(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	levels := []model.Level{"INFO", "ERROR", "INFO", "INFO", "ERROR", "INFO", "ERROR", "INFO"}
	for i, level := range levels {
		f.clock.Advance(time.Second)
		f.m.Log(string(level), "Raid", fmt.Sprintf("e%d", i))
	}

	entries := f.logs(t, query.Level("error"))
	if len(entries) != 3 {
		t.Fatalf("expected 3 errors, got %d", len(entries))
	}
	for i, e := range entries {
		if e.Level != model.LevelError {
			t.Fatalf("entry %d has level %s", i, e.Level)
		}
		if i > 0 && e.Timestamp.After(entries[i-1].Timestamp) {
			t.Fatalf("entries not most recent first")
		}
	}
	if entries[0].Message != "e6" {
		t.Fatalf("expected newest error first, got %s", entries[0].Message)
	}

	if got := f.logs(t, query.Count(2)); len(got) != 2 || got[0].Message != "e7" {
		t.Fatalf("unexpected count-limited result: %+v", got)
	}
	if _, err := f.m.GetSessionLogs(query.Count(-1)); !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument for negative count, got %v", err)
	}
}

func TestGetSessionLogsEmptyStore(t *testing.T) {
	f := newFixture(t, Options{})
	entries, err := f.m.GetSessionLogs(query.Count(-1))
	if err != nil {
		t.Fatalf("empty store must not fail: %v", err)
	}
	if entries == nil || len(entries) != 0 {
		t.Fatalf("expected empty non-nil slice, got %#v", entries)
	}
}

func TestDisplayLogsRecordsItself(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.m.LogWarn("Net", "lag")

	lines, err := f.m.DisplayLogs(nil)
	if err != nil {
		t.Fatalf("DisplayLogs: %v", err)
	}
	if len(lines) != 1 || !strings.HasPrefix(lines[0], "[WARN ]") {
		t.Fatalf("unexpected lines: %q", lines)
	}
	if got := f.logs(t)[0].Message; got != "Session logs displayed" {
		t.Fatalf("expected display to be recorded, got %q", got)
	}

	before := f.m.Stats().TotalEntries
	if _, err := f.m.DisplayLogs(nil, query.Category("")); !errors.Is(err, model.ErrInvalidArgument) {
		t.Fatalf("expected invalid argument, got %v", err)
	}
	if got := f.m.Stats().TotalEntries; got != before {
		t.Fatalf("failed display must not record, got %d entries", got)
	}
}

func TestReportStatsRecordsItself(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.m.LogInfo("Loot", "a")

	if got := f.m.Stats().TotalEntries; got != 1 {
		t.Fatalf("Stats must not record, got %d entries", got)
	}
	s := f.m.ReportStats()
	if s.TotalEntries != 1 {
		t.Fatalf("expected snapshot before self entry, got %d", s.TotalEntries)
	}
	if got := f.m.Stats().TotalEntries; got != 2 {
		t.Fatalf("expected request to be recorded, got %d entries", got)
	}
}

func TestExportReportUsesSnapshot(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.m.StartSession()
	f.m.LogInfo("Loot", "epic drop", map[string]any{"item": "Ashbringer"})

	report := f.m.ExportReport()
	for _, want := range []string{"=== Session Log Report ===", "Thrall", "epic drop", "=== End of Report ==="} {
		if !strings.Contains(report, want) {
			t.Fatalf("report missing %q:\n%s", want, report)
		}
	}
	if strings.Contains(report, "Session report exported") {
		t.Fatalf("report must not contain its own export entry:\n%s", report)
	}

	newest := f.logs(t)[0]
	if newest.Message != "Session report exported" {
		t.Fatalf("expected export to be recorded, got %q", newest.Message)
	}
	if v, _ := newest.Data.Get("entries"); v.Num() != 2 {
		t.Fatalf("expected 2 exported entries recorded, got %+v", newest.Data)
	}

	if second := f.m.ExportReport(); !strings.Contains(second, "Session report exported") {
		t.Fatalf("second report should include the first export entry")
	}
}

func TestReportDoesNotRecord(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.m.StartSession()
	f.m.LogError("Raid", "wipe")
	before := len(f.logs(t))

	if got := f.m.Report(); !strings.Contains(got, "ERROR [Raid] wipe") {
		t.Fatalf("report missing entry:\n%s", got)
	}
	if got := len(f.logs(t)); got != before {
		t.Fatalf("expected %d entries after Report, got %d", before, got)
	}
	if f.m.Report() != f.m.Report() {
		t.Fatalf("repeated reports should be identical without new entries")
	}
}

func TestExportReportDisabled(t *testing.T) {
	f := newFixture(t, Options{Env: staticFacts{}})
	report := f.m.ExportReport()
	if !strings.Contains(report, "Unknown") || !strings.Contains(report, "(no entries)") {
		t.Fatalf("unexpected report:\n%s", report)
	}
	if got := f.m.Stats().TotalEntries; got != 0 {
		t.Fatalf("disabled export must not record, got %d", got)
	}
}

func TestFlush(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.m.StartSession()
	f.clock.Advance(5 * time.Second)
	f.m.LogError("Raid", "wipe", map[string]any{"boss": "Ragnaros"})

	if err := f.m.Flush(); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	var payload FlushPayload
	found, err := f.blobs.Load(LogsBlob, &payload)
	if err != nil || !found {
		t.Fatalf("expected saved payload, found=%v err=%v", found, err)
	}
	if payload.LogCount != 2 || len(payload.Logs) != 2 {
		t.Fatalf("expected 2 logs, got %+v", payload)
	}
	if !strings.Contains(payload.Logs[0], "Session started") {
		t.Fatalf("expected oldest entry first, got %q", payload.Logs[0])
	}
	if want := `+5s ERROR/Raid: wipe | Data: {boss="Ragnaros"}`; !strings.Contains(payload.Logs[1], want) {
		t.Fatalf("expected %q in %q", want, payload.Logs[1])
	}
	if payload.VersionInfo.Build != "11.0.2" || payload.SessionStart == 0 || payload.LastFlush == 0 {
		t.Fatalf("unexpected payload header: %+v", payload)
	}
	if _, ok := f.m.LastFlush(); !ok {
		t.Fatalf("expected last flush to be set")
	}

	notices := f.rec.Notices()
	if len(notices) != 1 || notices[0].Severity != model.SeveritySuccess {
		t.Fatalf("expected success notification, got %+v", notices)
	}
	if got := f.logs(t)[0].Message; got != "Session logs flushed" {
		t.Fatalf("expected flush to be recorded, got %q", got)
	}
}

func TestFlushFailure(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.m.LogInfo("Loot", "a")
	f.blobs.Fail = errors.New("disk full")

	err := f.m.Flush()
	if !errors.Is(err, model.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	notices := f.rec.Notices()
	if len(notices) != 1 || notices[0].Severity != model.SeverityError || !strings.Contains(notices[0].Message, "disk full") {
		t.Fatalf("expected error notification carrying the cause, got %+v", notices)
	}
	if _, ok := f.m.LastFlush(); ok {
		t.Fatalf("failed flush must not set last flush")
	}
	if got := f.m.Stats().TotalEntries; got != 1 {
		t.Fatalf("failed flush must not record, got %d entries", got)
	}
}

func TestFlushWithoutStore(t *testing.T) {
	m := New(Options{Enabled: true})
	if err := m.Flush(); !errors.Is(err, model.ErrPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
}

func TestSaveReport(t *testing.T) {
	f := newFixture(t, Options{Enabled: true})
	f.m.LogInfo("Loot", "a")

	text, err := f.m.SaveReport("report_1")
	if err != nil {
		t.Fatalf("SaveReport: %v", err)
	}
	var saved SavedReport
	if found, err := f.blobs.Load("report_1", &saved); err != nil || !found {
		t.Fatalf("expected saved report, found=%v err=%v", found, err)
	}
	if saved.Report != text {
		t.Fatalf("saved report differs from returned text")
	}

	if _, err := f.m.SaveReport("../escape"); !errors.Is(err, model.ErrPersistence) {
		t.Fatalf("expected persistence error for bad name, got %v", err)
	}
	last := f.rec.Notices()[len(f.rec.Notices())-1]
	if last.Severity != model.SeverityError {
		t.Fatalf("expected error notification, got %+v", last)
	}
}

func TestConcurrentLogging(t *testing.T) {
	f := newFixture(t, Options{Enabled: true, MaxEntries: 50})

	var wg sync.WaitGroup
	for g := 0; g < 8; g++ {
		wg.Add(1)
		go func(g int) {
			defer wg.Done()
			for i := 0; i < 40; i++ {
				f.m.LogDebug(fmt.Sprintf("G%d", g), "tick")
				if i%10 == 0 {
					f.m.Stats()
				}
			}
		}(g)
	}
	wg.Wait()

	if got := f.m.Stats().TotalEntries; got != 50 {
		t.Fatalf("expected a full store, got %d", got)
	}
	if !f.m.Verify() {
		t.Fatalf("stats diverged under concurrent logging")
	}
}
