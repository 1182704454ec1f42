package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"sessionlog/internal/blob"
	"sessionlog/internal/config"
	"sessionlog/internal/session"

	"github.com/spf13/cobra"
)

// errNotFound is returned when the requested blob was never saved.
var errNotFound = errors.New("nothing saved")

func openStore(cmd *cobra.Command, sf *storeFlags) (blob.Store, error) {
	cfg, err := loadConfig(func(c *config.Config) { sf.apply(cmd, c) })
	if err != nil {
		return nil, err
	}
	store, err := blob.Open(cfg.Store, cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Store, err)
	}
	return store, nil
}

func newLogsCmd() *cobra.Command {
	var (
		formatFlag string
		limit      int
		sf         storeFlags
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Print the most recently flushed session log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if limit < 0 {
				return fmt.Errorf("invalid --limit value: %d", limit)
			}
			store, err := openStore(cmd, &sf)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			var payload session.FlushPayload
			found, err := store.Load(session.LogsBlob, &payload)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%s: %w", session.LogsBlob, errNotFound)
			}
			if limit > 0 && len(payload.Logs) > limit {
				payload.Logs = payload.Logs[len(payload.Logs)-limit:]
			}

			switch strings.ToLower(formatFlag) {
			case "json":
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(payload)
			case "text":
				renderFlushText(cmd.OutOrStdout(), payload)
				return nil
			default:
				return fmt.Errorf("unsupported format: %s", formatFlag)
			}
		},
	}

	flags := cmd.Flags()
	flags.StringVar(&formatFlag, "format", "text", "output format: text or json")
	flags.IntVar(&limit, "limit", 0, "show only the most recent N lines (0 means no limit)")
	sf.register(cmd)

	return cmd
}

func renderFlushText(out io.Writer, payload session.FlushPayload) {
	const labelWidth = 14
	writeKV(out, labelWidth, "Session ID", orNone(payload.SessionID))
	writeKV(out, labelWidth, "Session Start", unixDisplay(payload.SessionStart))
	writeKV(out, labelWidth, "Last Flush", unixDisplay(payload.LastFlush))
	writeKV(out, labelWidth, "Build", orNone(payload.VersionInfo.Build))
	writeKV(out, labelWidth, "Version", orNone(payload.VersionInfo.Version))
	writeKV(out, labelWidth, "Addon Version", orNone(payload.VersionInfo.AddonVersion))
	writeKV(out, labelWidth, "Log Count", strconv.Itoa(payload.LogCount))
	fmt.Fprintln(out) //nolint:errcheck
	for _, line := range payload.Logs {
		fmt.Fprintln(out, line) //nolint:errcheck
	}
}

func unixDisplay(sec int64) string {
	if sec == 0 {
		return "-"
	}
	return time.Unix(sec, 0).UTC().Format(time.RFC3339)
}

func newReportCmd() *cobra.Command {
	var sf storeFlags

	cmd := &cobra.Command{
		Use:   "report [name]",
		Short: "Print a saved session report",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			name := defaultReportName
			if len(args) == 1 {
				name = args[0]
			}
			store, err := openStore(cmd, &sf)
			if err != nil {
				return err
			}
			defer store.Close() //nolint:errcheck

			var saved session.SavedReport
			found, err := store.Load(name, &saved)
			if err != nil {
				return err
			}
			if !found {
				return fmt.Errorf("%s: %w", name, errNotFound)
			}
			_, err = io.WriteString(cmd.OutOrStdout(), saved.Report)
			return err
		},
	}

	sf.register(cmd)
	return cmd
}
