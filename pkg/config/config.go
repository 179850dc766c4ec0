// Package config loads the healthviz TOML configuration.
//
// A config file selects cache and storage backends, the API listen address,
// and named chart presets:
//
//	[cache]
//	backend = "redis"
//	redis_addr = "localhost:6379"
//	ttl = "12h"
//
//	[storage]
//	backend = "mongo"
//	uri = "mongodb://localhost:27017"
//	database = "healthviz"
//
//	[server]
//	listen = ":8080"
//
//	[[charts]]
//	name = "diabetes"
//	kind = "sunburst"
//	source = "data/diabetes.csv"
//	levels = ["State", "Year"]
//	measure = "Diabetes %"
//
// Unknown keys are rejected so typos surface as INVALID_CONFIG.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/matzehuels/healthviz/pkg/cache"
	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/pipeline"
	"github.com/matzehuels/healthviz/pkg/storage"
)

// DefaultListen is the API listen address when none is configured.
const DefaultListen = ":8080"

// Config is the decoded configuration file.
type Config struct {
	Cache   CacheConfig   `toml:"cache"`
	Storage StorageConfig `toml:"storage"`
	Server  ServerConfig  `toml:"server"`
	Charts  []Preset      `toml:"charts"`

	// Path is the file the config was read from, empty for defaults.
	Path string `toml:"-"`
}

// CacheConfig selects the cache backend.
type CacheConfig struct {
	Backend   cache.Backend `toml:"backend"`
	Dir       string        `toml:"dir"`
	TTL       Duration      `toml:"ttl"`
	RedisAddr string        `toml:"redis_addr"`
	RedisDB   int           `toml:"redis_db"`
}

// StorageConfig selects where API runs are persisted.
type StorageConfig struct {
	Backend  storage.Backend `toml:"backend"`
	URI      string          `toml:"uri"`
	Database string          `toml:"database"`
	Dir      string          `toml:"dir"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Listen          string   `toml:"listen"`
	ShutdownTimeout Duration `toml:"shutdown_timeout"`
}

// Preset is a named, reusable set of pipeline options.
type Preset struct {
	Name string `toml:"name" json:"name"`
	pipeline.Options
}

// Duration decodes TOML strings such as "90s" or "24h".
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Default returns the configuration used when no file exists.
func Default() *Config {
	return &Config{
		Cache:   CacheConfig{Backend: cache.BackendFile},
		Storage: StorageConfig{Backend: storage.BackendMemory},
		Server:  ServerConfig{Listen: DefaultListen, ShutdownTimeout: Duration{10 * time.Second}},
	}
}

// DefaultPath returns $XDG_CONFIG_HOME/healthviz/config.toml (or the
// platform equivalent).
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeInvalidConfig, err, "locate config dir")
	}
	return filepath.Join(dir, "healthviz", "config.toml"), nil
}

// Load reads and validates the config at path. An empty path means
// [DefaultPath]; a missing default file yields [Default].
func Load(path string) (*Config, error) {
	explicit := path != ""
	if !explicit {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) && !explicit {
			return Default(), nil
		}
		if os.IsNotExist(err) {
			return nil, errors.Wrap(errors.ErrCodeFileNotFound, err, "config %s", path)
		}
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "read config %s", path)
	}

	cfg, err := Parse(data)
	if err != nil {
		return nil, err
	}
	cfg.Path = path
	return cfg, nil
}

// Parse decodes TOML data on top of [Default] and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	md, err := toml.Decode(string(data), cfg)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidConfig, err, "decode config")
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return nil, errors.New(errors.ErrCodeInvalidConfig, "unknown config key %q", undecoded[0].String())
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Preset returns the chart preset called name.
func (c *Config) Preset(name string) (Preset, bool) {
	for _, p := range c.Charts {
		if p.Name == name {
			return p, true
		}
	}
	return Preset{}, false
}

// CacheTTL returns the configured dataset TTL or the package default.
func (c *Config) CacheTTL() time.Duration {
	if c.Cache.TTL.Duration > 0 {
		return c.Cache.TTL.Duration
	}
	return cache.TTLDataset
}
