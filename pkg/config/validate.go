package config

import (
	"github.com/matzehuels/healthviz/pkg/cache"
	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/storage"
)

// Validate checks backends and every preset. All failures are INVALID_CONFIG.
func (c *Config) Validate() error {
	switch c.Cache.Backend {
	case cache.BackendFile, cache.BackendNone:
	case cache.BackendRedis:
		if c.Cache.RedisAddr == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "cache.redis_addr is required for the redis backend")
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown cache backend %q (want file, redis or none)", c.Cache.Backend)
	}

	switch c.Storage.Backend {
	case storage.BackendMemory, storage.BackendFile:
	case storage.BackendMongo:
		if c.Storage.URI == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "storage.uri is required for the mongo backend")
		}
		if c.Storage.Database == "" {
			c.Storage.Database = storage.DefaultDatabase
		}
	default:
		return errors.New(errors.ErrCodeInvalidConfig, "unknown storage backend %q (want memory, file or mongo)", c.Storage.Backend)
	}

	if c.Server.Listen == "" {
		c.Server.Listen = DefaultListen
	}

	seen := make(map[string]bool, len(c.Charts))
	for i, p := range c.Charts {
		if p.Name == "" {
			return errors.New(errors.ErrCodeInvalidConfig, "charts[%d] has no name", i)
		}
		if seen[p.Name] {
			return errors.New(errors.ErrCodeInvalidConfig, "duplicate chart preset %q", p.Name)
		}
		seen[p.Name] = true

		opts := p.Options
		if err := opts.ValidateForTransform(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "chart preset %q: %s", p.Name, errors.UserMessage(err))
		}
		if err := opts.ValidateForRender(); err != nil {
			return errors.Wrap(errors.ErrCodeInvalidConfig, err, "chart preset %q: %s", p.Name, errors.UserMessage(err))
		}
	}
	return nil
}
