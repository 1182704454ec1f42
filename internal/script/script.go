// Package script reads host command scripts: JSON Lines files in which each
// record asks the session log to do one thing.
package script

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"sessionlog/internal/model"
)

// Op names a host command.
type Op string

const (
	OpStart      Op = "start"
	OpLog        Op = "log"
	OpEnable     Op = "enable"
	OpDisable    Op = "disable"
	OpToggle     Op = "toggle"
	OpClear      Op = "clear"
	OpShow       Op = "show"
	OpStats      Op = "stats"
	OpReport     Op = "report"
	OpSaveReport Op = "save_report"
	OpFlush      Op = "flush"
	OpVerify     Op = "verify"
)

var knownOps = map[Op]bool{
	OpStart: true, OpLog: true, OpEnable: true, OpDisable: true, OpToggle: true,
	OpClear: true, OpShow: true, OpStats: true, OpReport: true, OpSaveReport: true,
	OpFlush: true, OpVerify: true,
}

// ErrUnknownOp is returned for records whose op is missing or unrecognized.
var ErrUnknownOp = errors.New("unknown op")

// Command is one decoded script record. Level, Category and Count are nil
// when the record leaves them out.
type Command struct {
	Op        Op
	Timestamp time.Time
	Level     *string
	Category  *string
	Message   string
	Data      model.Value
	Count     *int
	Format    string
	Name      string
	Line      int
}

type rawCommand struct {
	Op        string          `json:"op"`
	Timestamp string          `json:"timestamp"`
	Level     *string         `json:"level"`
	Category  *string         `json:"category"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Count     *int            `json:"count"`
	Format    string          `json:"format"`
	Name      string          `json:"name"`
}

// Parse decodes a single record.
func Parse(raw []byte) (Command, error) {
	var rec rawCommand
	if err := json.Unmarshal(raw, &rec); err != nil {
		return Command{}, fmt.Errorf("unmarshal record: %w", err)
	}

	op := Op(rec.Op)
	if !knownOps[op] {
		return Command{}, fmt.Errorf("%w %q", ErrUnknownOp, rec.Op)
	}

	cmd := Command{
		Op:       op,
		Level:    rec.Level,
		Category: rec.Category,
		Message:  rec.Message,
		Count:    rec.Count,
		Format:   rec.Format,
		Name:     rec.Name,
	}
	if rec.Timestamp != "" {
		ts, err := parseTimestamp(rec.Timestamp)
		if err != nil {
			return Command{}, err
		}
		cmd.Timestamp = ts
	}
	if len(rec.Data) > 0 {
		if err := json.Unmarshal(rec.Data, &cmd.Data); err != nil {
			return Command{}, fmt.Errorf("unmarshal data: %w", err)
		}
	}
	return cmd, nil
}

// Iterate decodes r record by record and calls fn for each command. Blank
// lines and lines starting with '#' are skipped.
func Iterate(r io.Reader, fn func(Command) error) error {
	scanner := newScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		recBytes := bytes.TrimSpace(scanner.Bytes())
		if len(recBytes) == 0 || recBytes[0] == '#' {
			continue
		}

		cmd, err := Parse(recBytes)
		if err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		cmd.Line = line

		if err := fn(cmd); err != nil {
			return err
		}
	}

	if err := scanner.Err(); err != nil {
		return fmt.Errorf("scan script: %w", err)
	}
	return nil
}

// IterateFile runs Iterate over the file at path.
func IterateFile(path string, fn func(Command) error) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open script: %w", err)
	}
	defer file.Close() //nolint:errcheck

	return Iterate(file, fn)
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	// Allow large data payloads.
	const maxCapacity = 8 * 1024 * 1024
	buf := make([]byte, 1024)
	scanner.Buffer(buf, maxCapacity)
	return scanner
}

func parseTimestamp(value string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339Nano, value); err == nil {
		return ts, nil
	}
	ts, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("parse timestamp %q: %w", value, err)
	}
	return ts, nil
}
