// Package cli implements the healthviz command-line interface.
//
// The commands load CSV or XLSX datasets and turn them into chart documents
// through the shared pipeline. The CLI is built using cobra, styled with
// lipgloss and logs via the charmbracelet/log library.
//
// # Commands
//
// The main commands are:
//   - sunburst: Aggregate rows into a partitioned, zoomable sunburst
//   - flow: Build a multi-stage flow graph and draw it with Graphviz
//   - rates: Join per-year rates with populations into derived counts
//   - browse: Explore a sunburst interactively in the terminal
//   - run, serve: Build config presets once or serve them over HTTP
//   - cache, config: Manage the local cache and the config file
//
// # Logging
//
// All commands support --verbose (-v) for debug-level logging, which also
// reports pipeline, cache and HTTP events. Loggers are passed through
// context.Context to allow structured progress tracking.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/log"
)

// newLogger creates a new logger with timestamp formatting.
// The logger writes to w and filters messages at the specified level.
// Timestamps are formatted as "HH:MM:SS.ms" (e.g., "14:32:01.45").
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      "15:04:05.00",
		Level:           level,
	})
}

// progress times one pipeline step and logs its completion with the elapsed
// duration. Not safe for concurrent use.
type progress struct {
	logger *log.Logger
	start  time.Time
}

func newProgress(l *log.Logger) *progress {
	return &progress{logger: l, start: time.Now()}
}

// done logs msg with the elapsed time rounded to the millisecond, e.g.
// "Wrote 2 artifacts (12ms) kind=flow". keyvals are structured fields.
func (p *progress) done(msg string, keyvals ...any) {
	p.logger.Info(fmt.Sprintf("%s (%s)", msg, p.elapsed()), keyvals...)
}

func (p *progress) elapsed() time.Duration {
	return time.Since(p.start).Round(time.Millisecond)
}

// ctxKey is the type for context keys used in this package.
// Using a distinct type prevents collisions with other packages.
type ctxKey int

// loggerKey is the context key for storing a logger.
const loggerKey ctxKey = 0

// withLogger returns a new context with the given logger attached.
// The logger can be retrieved later with loggerFromContext.
func withLogger(ctx context.Context, l *log.Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// loggerFromContext retrieves the logger from ctx.
// If no logger is attached, it returns log.Default().
// This ensures commands always have a valid logger even if context setup fails.
func loggerFromContext(ctx context.Context) *log.Logger {
	if l, ok := ctx.Value(loggerKey).(*log.Logger); ok {
		return l
	}
	return log.Default()
}
