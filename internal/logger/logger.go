// Package logger builds the slog logger shared by the formwizard commands.
package logger

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	slogmulti "github.com/samber/slog-multi"
)

type config struct {
	debug  bool
	format string
	writer io.Writer
	quiet  bool
	stderr io.Writer
}

// Option configures New.
type Option func(*config)

// WithDebug lowers the level to debug and records source locations.
func WithDebug() Option {
	return func(c *config) {
		c.debug = true
	}
}

// WithFormat selects "text" or "json" output.
func WithFormat(format string) Option {
	return func(c *config) {
		c.format = format
	}
}

// WithWriter mirrors every record to w, e.g. a log file.
func WithWriter(w io.Writer) Option {
	return func(c *config) {
		c.writer = w
	}
}

// WithQuiet suppresses console output.
func WithQuiet() Option {
	return func(c *config) {
		c.quiet = true
	}
}

// withConsole replaces stderr, for tests.
func withConsole(w io.Writer) Option {
	return func(c *config) {
		c.stderr = w
	}
}

// New builds a logger that fans out to the console and an optional writer.
func New(opts ...Option) *slog.Logger {
	cfg := &config{format: "text", stderr: os.Stderr}
	for _, opt := range opts {
		if opt != nil {
			opt(cfg)
		}
	}

	level := slog.LevelInfo
	if cfg.debug {
		level = slog.LevelDebug
	}
	handlerOpts := &slog.HandlerOptions{
		Level:     level,
		AddSource: cfg.debug,
	}

	var handlers []slog.Handler
	if !cfg.quiet {
		handlers = append(handlers, newHandler(cfg.stderr, cfg.format, handlerOpts))
	}
	if cfg.writer != nil {
		handlers = append(handlers, &guardedHandler{
			handler: newHandler(cfg.writer, cfg.format, handlerOpts),
			mu:      &sync.Mutex{},
		})
	}
	return slog.New(slogmulti.Fanout(handlers...))
}

type loggerKey struct{}

// WithLogger stores logger in ctx.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerKey{}, logger)
}

// FromContext returns the logger stored in ctx or slog.Default.
func FromContext(ctx context.Context) *slog.Logger {
	if ctx != nil {
		if logger, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && logger != nil {
			return logger
		}
	}
	return slog.Default()
}

// guardedHandler serialises writes to a shared writer so lines from
// concurrent sessions do not interleave.
type guardedHandler struct {
	handler slog.Handler
	mu      *sync.Mutex
}

func (g *guardedHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return g.handler.Enabled(ctx, level)
}

func (g *guardedHandler) Handle(ctx context.Context, record slog.Record) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.handler.Handle(ctx, record)
}

func (g *guardedHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &guardedHandler{handler: g.handler.WithAttrs(attrs), mu: g.mu}
}

func (g *guardedHandler) WithGroup(name string) slog.Handler {
	return &guardedHandler{handler: g.handler.WithGroup(name), mu: g.mu}
}

func newHandler(w io.Writer, format string, opts *slog.HandlerOptions) slog.Handler {
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}
