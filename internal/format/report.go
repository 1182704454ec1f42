package format

import (
	"fmt"
	"io"
	"time"

	"sessionlog/internal/model"
)

// ReportEntries is how many recent entries a report includes.
const ReportEntries = 50

const unknown = "Unknown"

// Report is everything rendered into an exported report.
type Report struct {
	GeneratedAt time.Time
	Facts       model.Facts
	Stats       model.Stats
	Entries     []model.Entry // most recent first
}

// WriteReport renders r as a multi-section plain-text document.
func WriteReport(w io.Writer, r Report) error {
	const labelWidth = 20
	ew := &errWriter{w: w}

	ew.println("=== Session Log Report ===")
	ew.printf("Generated: %s\n", r.GeneratedAt.Format(time.DateTime))
	ew.println()

	ew.println("--- System Information ---")
	ew.kv(labelWidth, "Addon Version", orUnknown(r.Facts.AddonVersion))
	ew.kv(labelWidth, "Build", orUnknown(r.Facts.Build))
	ew.kv(labelWidth, "Version", orUnknown(r.Facts.Version))
	ew.kv(labelWidth, "User", orUnknown(r.Facts.User))
	ew.kv(labelWidth, "Realm", orUnknown(r.Facts.Realm))
	ew.kv(labelWidth, "Guild", orUnknown(r.Facts.Guild))
	ew.println()

	s := r.Stats
	ew.println("--- Session Statistics ---")
	ew.kv(labelWidth, "Session ID", orUnknown(s.SessionID))
	ew.kv(labelWidth, "Session Duration", Duration(int(s.SessionDuration.Seconds())))
	ew.kv(labelWidth, "Total Entries", fmt.Sprintf("%d", s.TotalEntries))
	ew.kv(labelWidth, "Buffer Utilization", fmt.Sprintf("%s (%d max)", utilization(s), s.MaxEntries))
	ew.kv(labelWidth, "Estimated Memory", Bytes(s.EstimatedMemoryBytes))
	ew.println("Entries by Level:")
	for _, level := range model.Levels {
		ew.printf("  %s: %d\n", level, s.ByLevel[level])
	}
	ew.println("Entries by Category:")
	for _, row := range SortedCategories(s.ByCategory) {
		ew.printf("  %s: %d\n", row.Category, row.Count)
	}
	ew.println()

	ew.printf("--- Recent Entries (last %d) ---\n", ReportEntries)
	if len(r.Entries) == 0 {
		ew.println("(no entries)")
	}
	for _, e := range r.Entries {
		ew.println(ReportLine(e))
	}
	ew.println()
	ew.println("=== End of Report ===")

	return ew.err
}

func orUnknown(v string) string {
	if v == "" {
		return unknown
	}
	return v
}

// errWriter keeps the first write error and skips later writes.
type errWriter struct {
	w   io.Writer
	err error
}

func (ew *errWriter) printf(format string, args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintf(ew.w, format, args...)
}

func (ew *errWriter) println(args ...any) {
	if ew.err != nil {
		return
	}
	_, ew.err = fmt.Fprintln(ew.w, args...)
}

func (ew *errWriter) kv(width int, label, value string) {
	ew.printf("%-*s: %s\n", width, label, value)
}
