package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks implements every hook interface by writing debug records to a
// charm logger. Failures are logged at warn level.
type LogHooks struct {
	Logger *log.Logger
}

// NewLogHooks returns hooks writing to logger.
func NewLogHooks(logger *log.Logger) *LogHooks {
	return &LogHooks{Logger: logger}
}

// Install registers h for pipeline, cache and HTTP events.
func (h *LogHooks) Install() {
	SetPipelineHooks(h)
	SetCacheHooks(h)
	SetHTTPHooks(h)
}

func (h *LogHooks) done(msg string, d time.Duration, err error, kv ...any) {
	kv = append(kv, "took", d.Round(time.Millisecond))
	if err != nil {
		h.Logger.Warn(msg+" failed", append(kv, "err", err)...)
		return
	}
	h.Logger.Debug(msg, kv...)
}

func (h *LogHooks) OnLoadStart(_ context.Context, source string) {
	h.Logger.Debug("loading dataset", "source", source)
}

func (h *LogHooks) OnLoadComplete(_ context.Context, source string, rows int, d time.Duration, err error) {
	h.done("loaded dataset", d, err, "source", source, "rows", rows)
}

func (h *LogHooks) OnTransformStart(_ context.Context, kind string, rows int) {
	h.Logger.Debug("building chart", "kind", kind, "rows", rows)
}

func (h *LogHooks) OnTransformComplete(_ context.Context, kind string, d time.Duration, err error) {
	h.done("built chart", d, err, "kind", kind)
}

func (h *LogHooks) OnRenderStart(_ context.Context, formats []string) {
	h.Logger.Debug("rendering", "formats", formats)
}

func (h *LogHooks) OnRenderComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.done("rendered", d, err, "formats", formats)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.Logger.Debug("cache hit", "type", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.Logger.Debug("cache miss", "type", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.Logger.Debug("cache set", "type", keyType, "bytes", size)
}

func (h *LogHooks) OnRequest(_ context.Context, method, host, path string) {
	h.Logger.Debug("http request", "method", method, "host", host, "path", path)
}

func (h *LogHooks) OnResponse(_ context.Context, method, host, path string, status int, d time.Duration) {
	h.Logger.Debug("http response", "method", method, "host", host, "path", path, "status", status, "took", d.Round(time.Millisecond))
}

func (h *LogHooks) OnError(_ context.Context, method, host, path string, err error) {
	h.Logger.Warn("http error", "method", method, "host", host, "path", path, "err", err)
}
