package pipeline

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/matzehuels/healthviz/pkg/cache"
	"github.com/matzehuels/healthviz/pkg/chart"
	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/httputil"
	"github.com/matzehuels/healthviz/pkg/observability"
)

// Runner encapsulates pipeline execution with caching.
//
// The Runner is stateless except for the cache, fetcher and logger, so
// multiple goroutines can share one Runner with different options.
type Runner struct {
	Cache   cache.Cache
	Keyer   cache.Keyer
	Fetcher dataset.Fetcher
	Logger  *log.Logger
}

// NewRunner creates a runner. A nil keyer means [cache.DefaultKeyer], a nil
// cache disables caching and a nil logger means log.Default(). Remote
// datasets are downloaded with an [httputil.Client] sharing the cache.
func NewRunner(c cache.Cache, keyer cache.Keyer, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Runner{
		Cache:   c,
		Keyer:   keyer,
		Fetcher: httputil.NewClient(c, cache.TTLDataset, nil),
		Logger:  logger,
	}
}

// Execute runs load → transform → render with caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{RunID: uuid.NewString()}
	logger := r.Logger.With("run", result.RunID[:8])

	loadStart := time.Now()
	t, err := r.Load(ctx, opts.Source, opts.Format)
	if err != nil {
		return nil, err
	}
	result.Stats.Rows = t.Len()
	result.Stats.LoadTime = time.Since(loadStart)

	transformStart := time.Now()
	c, hit, err := r.TransformWithCacheInfo(ctx, t, opts)
	if err != nil {
		return nil, err
	}
	result.Chart = c
	result.Stats.TransformTime = time.Since(transformStart)
	result.CacheInfo.ChartHit = hit

	logger.Info("built chart", "summary", c.Summary(), "cached", hit, "duration", result.Stats.TransformTime)

	renderStart := time.Now()
	artifacts, hash, hit, err := r.RenderWithCacheInfo(ctx, c, opts)
	if err != nil {
		return nil, err
	}
	result.Artifacts = artifacts
	result.ChartHash = hash
	result.Stats.RenderTime = time.Since(renderStart)
	result.CacheInfo.RenderHit = hit

	logger.Info("rendered outputs", "formats", opts.Formats, "cached", hit, "duration", result.Stats.RenderTime)
	return result, nil
}

// TransformWithCacheInfo builds the chart with caching and reports whether
// it came from cache.
func (r *Runner) TransformWithCacheInfo(ctx context.Context, t *dataset.Table, opts Options) (chart.Chart, bool, error) {
	if err := opts.ValidateForTransform(); err != nil {
		return chart.Chart{}, false, err
	}
	r.applyLogger(&opts)

	// Rates charts depend on the population table too, so both contents
	// go into the key.
	pop, err := r.loadPopulation(ctx, opts)
	if err != nil {
		return chart.Chart{}, false, err
	}
	hash := TableHash(t)
	if pop != nil {
		hash = cache.Hash([]byte(hash + TableHash(pop)))
	}

	key := r.Keyer.ChartKey(hash, opts.ChartKeyOpts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, key); err == nil && hit {
			if c, err := chart.Unmarshal(data); err == nil {
				observability.Cache().OnCacheHit(ctx, "chart")
				return c, true, nil
			}
		}
		observability.Cache().OnCacheMiss(ctx, "chart")
	}

	hooks := observability.Pipeline()
	hooks.OnTransformStart(ctx, opts.Kind, t.Len())
	start := time.Now()
	c, err := transform(t, pop, opts)
	hooks.OnTransformComplete(ctx, opts.Kind, time.Since(start), err)
	if err != nil {
		return chart.Chart{}, false, err
	}

	if data, err := chart.Marshal(c); err == nil {
		if err := r.Cache.Set(ctx, key, data, cache.TTLChart); err == nil {
			observability.Cache().OnCacheSet(ctx, "chart", len(data))
		}
	}
	return c, false, nil
}

// RenderWithCacheInfo renders every requested format, serving all of them
// from cache when possible. It also returns the chart's content hash.
func (r *Runner) RenderWithCacheInfo(ctx context.Context, c chart.Chart, opts Options) (map[string][]byte, string, bool, error) {
	if err := opts.ValidateForRender(); err != nil {
		return nil, "", false, err
	}

	data, err := chart.Marshal(c)
	if err != nil {
		return nil, "", false, errors.Staged(err, errors.StageRender)
	}
	hash := cache.Hash(data)

	artifacts := make(map[string][]byte, len(opts.Formats))
	for _, format := range opts.Formats {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		data, hit, err := r.Cache.Get(ctx, key)
		if err != nil || !hit {
			break
		}
		artifacts[format] = data
	}
	if len(artifacts) == len(opts.Formats) {
		observability.Cache().OnCacheHit(ctx, "artifact")
		return artifacts, hash, true, nil
	}
	observability.Cache().OnCacheMiss(ctx, "artifact")

	hooks := observability.Pipeline()
	hooks.OnRenderStart(ctx, opts.Formats)
	start := time.Now()
	rendered, err := Render(ctx, c, opts.Formats)
	hooks.OnRenderComplete(ctx, opts.Formats, time.Since(start), err)
	if err != nil {
		return nil, "", false, err
	}

	for format, out := range rendered {
		key := r.Keyer.ArtifactKey(hash, opts.ArtifactKeyOpts(format))
		if err := r.Cache.Set(ctx, key, out, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "artifact", len(out))
		}
	}
	return rendered, hash, false, nil
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
