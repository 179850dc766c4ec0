// Package cache stores serialized pipeline results between runs.
//
// Three layers are cached, each under its own key space:
//
//   - datasets: raw bytes fetched from remote sources
//   - charts: serialized chart documents (sunburst, flow, rates)
//   - artifacts: rendered outputs such as DOT and SVG
//
// Backends implement [Cache]. [FileCache] serves the CLI, [RedisCache] is
// shared by API replicas, and [NullCache] disables caching. Key construction
// lives in [Keyer] so every entry point derives identical keys for identical
// inputs.
package cache

import (
	"context"
	"errors"
	"time"
)

// Default TTLs per layer.
const (
	TTLDataset  = 24 * time.Hour
	TTLChart    = 7 * 24 * time.Hour
	TTLArtifact = 7 * 24 * time.Hour
)

// ErrUnknownBackend is returned by [Open] for unrecognized backend names.
var ErrUnknownBackend = errors.New("unknown cache backend")

// Cache is a byte-oriented key/value store with per-entry TTL.
//
// Get reports a miss as (nil, false, nil); errors are reserved for backend
// failures. A TTL of zero means the entry does not expire.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, data []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Close() error
}

// Keyer builds cache keys for each cached layer.
type Keyer interface {
	DatasetKey(source string) string
	ChartKey(datasetHash string, opts ChartKeyOpts) string
	ArtifactKey(chartHash string, opts ArtifactKeyOpts) string
}

// ChartKeyOpts are the transform options that change a chart document.
type ChartKeyOpts struct {
	Kind    string   `json:"kind"`
	Fields  []string `json:"fields"`
	Measure string   `json:"measure,omitempty"`
	Extra   []string `json:"extra,omitempty"`
}

// ArtifactKeyOpts are the render options that change an artifact.
type ArtifactKeyOpts struct {
	Format string `json:"format"`
}

// DefaultKeyer hashes options into fixed-width keys.
type DefaultKeyer struct{}

// NewDefaultKeyer returns the standard keyer.
func NewDefaultKeyer() Keyer { return DefaultKeyer{} }

// DatasetKey keys raw source bytes by location.
func (DefaultKeyer) DatasetKey(source string) string {
	return "dataset:" + source
}

// ChartKey keys a chart document by its input hash and transform options.
func (DefaultKeyer) ChartKey(datasetHash string, opts ChartKeyOpts) string {
	return hashKey("chart", datasetHash, opts)
}

// ArtifactKey keys a rendered output by its chart hash and format.
func (DefaultKeyer) ArtifactKey(chartHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", chartHash, opts)
}

// Backend names a cache implementation.
type Backend string

const (
	BackendFile  Backend = "file"
	BackendRedis Backend = "redis"
	BackendNone  Backend = "none"
)

// OpenOptions configures [Open].
type OpenOptions struct {
	Dir       string
	RedisAddr string
	RedisDB   int
}

// Open constructs the cache for backend.
func Open(ctx context.Context, backend Backend, opts OpenOptions) (Cache, error) {
	switch backend {
	case BackendFile, "":
		c, err := NewFileCache(opts.Dir)
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendRedis:
		c, err := NewRedisCache(ctx, RedisOptions{Addr: opts.RedisAddr, DB: opts.RedisDB})
		if err != nil {
			return nil, err
		}
		return c, nil
	case BackendNone:
		return NewNullCache(), nil
	default:
		return nil, ErrUnknownBackend
	}
}
