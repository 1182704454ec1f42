package main

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"time"

	"sessionlog/internal/blob"
	"sessionlog/internal/config"
	"sessionlog/internal/format"
	"sessionlog/internal/logger"
	"sessionlog/internal/metrics"
	"sessionlog/internal/model"
	"sessionlog/internal/notify"
	"sessionlog/internal/query"
	"sessionlog/internal/script"
	"sessionlog/internal/server"
	"sessionlog/internal/session"
	"sessionlog/internal/view"

	"github.com/spf13/cobra"
)

const defaultReportName = "session_report"

func newRunCmd() *cobra.Command {
	var (
		maxEntries   int
		enabled      bool
		listen       string
		wrap         int
		forceColor   bool
		forceNoColor bool
		sf           storeFlags
	)

	cmd := &cobra.Command{
		Use:   "run [script.jsonl|-]",
		Short: "Run a command script against a fresh session log",
		Long: `Run reads JSON Lines host commands (from a file, or stdin when the
argument is "-" or omitted) and applies them to one session log. Each record
names an op: start, log, enable, disable, toggle, clear, show, stats, report,
save_report, flush, or verify. A record's "timestamp" sets the host clock.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if forceColor && forceNoColor {
				return errors.New("--color and --no-color cannot be used together")
			}

			cfg, err := loadConfig(func(c *config.Config) {
				sf.apply(cmd, c)
				flags := cmd.Flags()
				if flags.Changed("max-entries") {
					c.MaxEntries = maxEntries
				}
				if flags.Changed("enabled") {
					c.Enabled = enabled
				}
				if flags.Changed("listen") {
					c.Listen = listen
				}
			})
			if err != nil {
				return err
			}

			log := logger.New(cmd.ErrOrStderr(), logger.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

			blobs, err := blob.Open(cfg.Store, cfg.DataDir)
			if err != nil {
				return fmt.Errorf("open %s store: %w", cfg.Store, err)
			}
			defer blobs.Close() //nolint:errcheck

			out := cmd.OutOrStdout()
			opts := view.Options{Out: out, Wrap: wrap, ForceColor: forceColor, ForceNoColor: forceNoColor}
			h := newHost(cfg, blobs, opts, log)

			ctx := cmd.Context()
			var srvErr chan error
			if cfg.Listen != "" {
				srv := server.New(h.manager, metrics.New(h.manager), log)
				srvErr = make(chan error, 1)
				go func() { srvErr <- srv.Run(ctx, cfg.Listen) }()
			}

			if err := h.runScript(cmd.InOrStdin(), args); err != nil {
				return err
			}

			if srvErr == nil {
				return nil
			}
			log.Info("script finished, serving until interrupted", "addr", cfg.Listen)
			return <-srvErr
		},
	}

	flags := cmd.Flags()
	flags.IntVar(&maxEntries, "max-entries", 0, "store capacity (env: SESSIONLOG_MAX_ENTRIES, default: 1000)")
	flags.BoolVar(&enabled, "enabled", false, "start with logging enabled unless a saved setting says otherwise (env: SESSIONLOG_ENABLED)")
	flags.StringVar(&listen, "listen", "", "serve the read-only HTTP API on this address (env: SESSIONLOG_LISTEN)")
	flags.IntVar(&wrap, "wrap", 0, "clip displayed lines at the given column width")
	flags.BoolVar(&forceColor, "color", false, "force-enable ANSI colors even when stdout is not a TTY")
	flags.BoolVar(&forceNoColor, "no-color", false, "disable ANSI colors regardless of terminal detection")
	sf.register(cmd)

	return cmd
}

// scriptClock reports the time of the most recent timestamped command, or the
// wall clock before any command carried one.
type scriptClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *scriptClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.now.IsZero() {
		return time.Now()
	}
	return c.now
}

func (c *scriptClock) set(t time.Time) {
	if t.IsZero() {
		return
	}
	c.mu.Lock()
	c.now = t
	c.mu.Unlock()
}

type host struct {
	manager *session.Manager
	clock   *scriptClock
	out     io.Writer
	width   int
	styler  format.LevelStyler
	log     *slog.Logger
}

func newHost(cfg config.Config, blobs blob.Store, opts view.Options, log *slog.Logger) *host {
	clock := &scriptClock{}
	color := view.UseColor(opts)
	manager := session.New(session.Options{
		MaxEntries: cfg.MaxEntries,
		Enabled:    cfg.Enabled,
		Clock:      clock,
		Env:        cfg.Host,
		Notifier:   notify.NewTerminal(opts),
		Blobs:      blobs,
	})
	return &host{
		manager: manager,
		clock:   clock,
		out:     opts.Out,
		width:   view.Width(opts),
		styler:  view.LevelStyler(view.NewRenderer(opts.Out, color), color),
		log:     log,
	}
}

func (h *host) runScript(stdin io.Reader, args []string) error {
	if len(args) == 0 || args[0] == "-" {
		return script.Iterate(stdin, h.exec)
	}
	return script.IterateFile(args[0], h.exec)
}

// exec applies one command. Rejected arguments and persistence failures are
// logged and the script continues.
func (h *host) exec(cmd script.Command) error {
	h.clock.set(cmd.Timestamp)

	err := h.dispatch(cmd)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, model.ErrInvalidArgument):
		h.log.Warn("command rejected", "line", cmd.Line, "op", cmd.Op, "error", err)
		return nil
	case errors.Is(err, model.ErrPersistence):
		h.log.Error("persistence failed", "line", cmd.Line, "op", cmd.Op, "error", err)
		return nil
	default:
		return fmt.Errorf("line %d: %s: %w", cmd.Line, cmd.Op, err)
	}
}

func (h *host) dispatch(cmd script.Command) error {
	m := h.manager
	switch cmd.Op {
	case script.OpStart:
		id := m.StartSession()
		h.log.Debug("session started", "session_id", id)
		return nil
	case script.OpLog:
		var data []any
		if !cmd.Data.IsNull() {
			data = append(data, cmd.Data)
		}
		return m.Log(deref(cmd.Level), deref(cmd.Category), cmd.Message, data...)
	case script.OpEnable:
		return m.SetEnabled(true)
	case script.OpDisable:
		return m.SetEnabled(false)
	case script.OpToggle:
		return m.Toggle()
	case script.OpClear:
		m.ClearLogs()
		return nil
	case script.OpShow:
		lines, err := m.DisplayLogs(h.styler, queryOptions(cmd)...)
		if err != nil {
			return err
		}
		return view.WriteLines(h.out, lines, h.width)
	case script.OpStats:
		formatFlag := cmd.Format
		if formatFlag == "" {
			formatFlag = "table"
		}
		return format.WriteStats(h.out, m.ReportStats(), strings.ToLower(formatFlag))
	case script.OpReport:
		_, err := io.WriteString(h.out, m.ExportReport())
		return err
	case script.OpSaveReport:
		name := cmd.Name
		if name == "" {
			name = defaultReportName
		}
		_, err := m.SaveReport(name)
		return err
	case script.OpFlush:
		return m.Flush()
	case script.OpVerify:
		if m.Verify() {
			_, err := fmt.Fprintln(h.out, "stats consistent")
			return err
		}
		h.log.Warn("running stats diverged from the store and were rebuilt")
		_, err := fmt.Fprintln(h.out, "stats rebuilt")
		return err
	default:
		return fmt.Errorf("%w %q", script.ErrUnknownOp, cmd.Op)
	}
}

func queryOptions(cmd script.Command) []query.Option {
	var opts []query.Option
	if cmd.Level != nil {
		opts = append(opts, query.Level(*cmd.Level))
	}
	if cmd.Category != nil {
		opts = append(opts, query.Category(*cmd.Category))
	}
	if cmd.Count != nil {
		opts = append(opts, query.Count(*cmd.Count))
	}
	return opts
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
