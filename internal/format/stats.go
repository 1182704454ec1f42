package format

import (
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"sessionlog/internal/model"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/jedib0t/go-pretty/v6/text"
)

// WriteStats writes s to w in the requested format: table, plain or json.
func WriteStats(w io.Writer, s model.Stats, format string) error {
	format = strings.ToLower(format)
	switch format {
	case "", "table":
		return writeStatsTable(w, s)
	case "plain":
		return writeStatsPlain(w, s)
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
}

// CategoryCount is one row of a category breakdown.
type CategoryCount struct {
	Category string
	Count    int
}

// SortedCategories orders counts by descending count, then by name.
func SortedCategories(counts map[string]int) []CategoryCount {
	rows := make([]CategoryCount, 0, len(counts))
	for category, n := range counts {
		rows = append(rows, CategoryCount{Category: category, Count: n})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].Count != rows[j].Count {
			return rows[i].Count > rows[j].Count
		}
		return rows[i].Category < rows[j].Category
	})
	return rows
}

func utilization(s model.Stats) string {
	return fmt.Sprintf("%.1f%%", s.BufferUtilization*100)
}

func writeStatsPlain(w io.Writer, s model.Stats) error {
	lines := []string{
		fmt.Sprintf("session_id\t%s", s.SessionID),
		fmt.Sprintf("enabled\t%t", s.Enabled),
		fmt.Sprintf("duration\t%s", Duration(int(s.SessionDuration.Seconds()))),
		fmt.Sprintf("entries\t%d/%d", s.TotalEntries, s.MaxEntries),
		fmt.Sprintf("utilization\t%s", utilization(s)),
		fmt.Sprintf("memory\t%s", Bytes(s.EstimatedMemoryBytes)),
	}
	for _, level := range model.Levels {
		lines = append(lines, fmt.Sprintf("level.%s\t%d", level, s.ByLevel[level]))
	}
	for _, row := range SortedCategories(s.ByCategory) {
		lines = append(lines, fmt.Sprintf("category.%s\t%d", row.Category, row.Count))
	}
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

func writeStatsTable(w io.Writer, s model.Stats) error {
	tw := table.NewWriter()
	tw.SetOutputMirror(w)
	tw.SetStyle(table.StyleRounded)
	tw.Style().Options.SeparateHeader = true
	tw.Style().Options.DrawBorder = true
	tw.SetColumnConfigs([]table.ColumnConfig{
		{Number: 1, Align: text.AlignLeft, AlignHeader: text.AlignCenter},
		{Number: 2, Align: text.AlignRight, AlignHeader: text.AlignCenter},
	})

	tw.AppendHeader(table.Row{"Metric", "Value"})
	tw.AppendRow(table.Row{"Session Duration", Duration(int(s.SessionDuration.Seconds()))})
	tw.AppendRow(table.Row{"Total Entries", fmt.Sprintf("%d / %d", s.TotalEntries, s.MaxEntries)})
	tw.AppendRow(table.Row{"Buffer Utilization", utilization(s)})
	tw.AppendRow(table.Row{"Estimated Memory", Bytes(s.EstimatedMemoryBytes)})
	tw.AppendSeparator()
	for _, level := range model.Levels {
		tw.AppendRow(table.Row{"Level " + string(level), s.ByLevel[level]})
	}
	rows := SortedCategories(s.ByCategory)
	if len(rows) > 0 {
		tw.AppendSeparator()
	}
	for _, row := range rows {
		tw.AppendRow(table.Row{"Category " + row.Category, row.Count})
	}

	_ = tw.Render()
	return nil
}
