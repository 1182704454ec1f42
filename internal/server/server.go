// Package server exposes the session log over a read-only HTTP API.
package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"sessionlog/internal/format"
	"sessionlog/internal/metrics"
	"sessionlog/internal/model"
	"sessionlog/internal/query"

	"github.com/gin-gonic/gin"
)

const shutdownTimeout = 5 * time.Second

// Source is the session state served by the API.
type Source interface {
	Stats() model.Stats
	GetSessionLogs(opts ...query.Option) ([]model.Entry, error)
	Report() string
}

// Server holds the Gin engine and its dependencies.
type Server struct {
	engine  *gin.Engine
	source  Source
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New builds the engine and its routes. A nil logger discards diagnostics.
func New(source Source, m *metrics.Metrics, logger *slog.Logger) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())
	engine.RedirectTrailingSlash = false
	engine.RedirectFixedPath = false

	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	s := &Server{engine: engine, source: source, metrics: m, logger: logger}
	if m != nil {
		engine.Use(s.observe)
	}
	s.setupRoutes()
	return s
}

// Handler returns the engine as an http.Handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) setupRoutes() {
	s.engine.GET("/healthz", func(c *gin.Context) {
		st := s.source.Stats()
		c.JSON(http.StatusOK, gin.H{
			"status":     "ok",
			"session_id": st.SessionID,
			"enabled":    st.Enabled,
			"entries":    st.TotalEntries,
		})
	})

	api := s.engine.Group("/api")
	api.GET("/stats", func(c *gin.Context) {
		c.JSON(http.StatusOK, s.source.Stats())
	})
	api.GET("/logs", s.handleLogs)
	api.GET("/report", func(c *gin.Context) {
		c.String(http.StatusOK, s.source.Report())
	})

	if s.metrics != nil {
		s.engine.GET("/metrics", gin.WrapH(s.metrics.Handler()))
	}
}

// entryJSON is the wire form of a stored entry.
type entryJSON struct {
	Timestamp   time.Time   `json:"timestamp"`
	SessionTime float64     `json:"session_time_seconds"`
	Level       model.Level `json:"level"`
	Category    string      `json:"category"`
	Message     string      `json:"message"`
	Data        model.Value `json:"data"`
	Display     string      `json:"display"`
}

func (s *Server) handleLogs(c *gin.Context) {
	var opts []query.Option
	if level, ok := c.GetQuery("level"); ok {
		opts = append(opts, query.Level(level))
	}
	if category, ok := c.GetQuery("category"); ok {
		opts = append(opts, query.Category(category))
	}
	if raw, ok := c.GetQuery("count"); ok {
		n, err := strconv.Atoi(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "count must be an integer"})
			return
		}
		opts = append(opts, query.Count(n))
	}

	entries, err := s.source.GetSessionLogs(opts...)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, model.ErrInvalidArgument) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	out := make([]entryJSON, 0, len(entries))
	for _, e := range entries {
		out = append(out, entryJSON{
			Timestamp:   e.Timestamp,
			SessionTime: e.SessionTime.Seconds(),
			Level:       e.Level,
			Category:    e.Category,
			Message:     e.Message,
			Data:        e.Data,
			Display:     format.EntryForDisplay(e),
		})
	}
	c.JSON(http.StatusOK, gin.H{"count": len(out), "entries": out})
}

func (s *Server) observe(c *gin.Context) {
	start := time.Now()
	c.Next()
	route := c.FullPath()
	if route == "" {
		route = "unmatched"
	}
	s.metrics.RequestTotal.WithLabelValues(c.Request.Method, route, strconv.Itoa(c.Writer.Status())).Inc()
	s.metrics.RequestDuration.WithLabelValues(c.Request.Method, route).Observe(time.Since(start).Seconds())
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", "addr", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.logger.Info("http server stopped", "addr", addr)
	return nil
}
