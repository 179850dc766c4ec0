package cli

import (
	"bytes"
	"context"
	"regexp"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestNewLoggerTimestamp(t *testing.T) {
	var buf bytes.Buffer
	logger := newLogger(&buf, log.InfoLevel)
	logger.Info("loaded dataset", "rows", 12)

	out := buf.String()
	if !regexp.MustCompile(`^\d{2}:\d{2}:\d{2}\.\d{2} `).MatchString(out) {
		t.Errorf("missing HH:MM:SS.ms timestamp: %q", out)
	}
	if !strings.Contains(out, "rows=12") {
		t.Errorf("missing structured field: %q", out)
	}
}

func TestNewLoggerLevels(t *testing.T) {
	tests := []struct {
		name    string
		level   log.Level
		logFunc func(*log.Logger)
		wantLog bool
	}{
		{"info at info level", log.InfoLevel, func(l *log.Logger) { l.Info("aggregated") }, true},
		{"debug at info level", log.InfoLevel, func(l *log.Logger) { l.Debug("cache hit") }, false},
		{"debug at debug level", log.DebugLevel, func(l *log.Logger) { l.Debug("cache hit") }, true},
		{"warn at error level", log.ErrorLevel, func(l *log.Logger) { l.Warn("coerced") }, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			tt.logFunc(newLogger(&buf, tt.level))
			if got := buf.Len() > 0; got != tt.wantLog {
				t.Errorf("got log output = %v, want %v", got, tt.wantLog)
			}
		})
	}
}

func TestSetLogLevel(t *testing.T) {
	var buf bytes.Buffer
	c := New(&buf, log.InfoLevel)
	c.Logger.Debug("hidden")
	if buf.Len() != 0 {
		t.Fatalf("debug logged at info level: %q", buf.String())
	}

	c.SetLogLevel(log.DebugLevel)
	c.Logger.Debug("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("debug not logged after SetLogLevel: %q", buf.String())
	}
}

func TestProgressDone(t *testing.T) {
	var buf bytes.Buffer
	prog := newProgress(newLogger(&buf, log.InfoLevel))
	prog.done("Wrote 2 artifacts", "kind", "flow")

	out := buf.String()
	if !regexp.MustCompile(`Wrote 2 artifacts \(\d+(\.\d+)?[mµn]?s\)`).MatchString(out) {
		t.Errorf("missing message with elapsed time: %q", out)
	}
	if !strings.Contains(out, "kind=flow") {
		t.Errorf("missing kind field: %q", out)
	}
}

func TestProgressQuietAboveInfo(t *testing.T) {
	var buf bytes.Buffer
	newProgress(newLogger(&buf, log.WarnLevel)).done("Wrote 1 artifacts")
	if buf.Len() != 0 {
		t.Errorf("progress logged at warn level: %q", buf.String())
	}
}

func TestLoggerContext(t *testing.T) {
	var buf bytes.Buffer
	custom := newLogger(&buf, log.InfoLevel)

	ctx := withLogger(context.Background(), custom)
	if got := loggerFromContext(ctx); got != custom {
		t.Error("loggerFromContext should return the attached logger")
	}
	if got := loggerFromContext(context.Background()); got != log.Default() {
		t.Error("loggerFromContext should fall back to log.Default()")
	}
}
