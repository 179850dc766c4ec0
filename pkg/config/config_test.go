package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/healthviz/pkg/cache"
	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/storage"
)

const sample = `
[cache]
backend = "redis"
redis_addr = "localhost:6379"
ttl = "12h"

[storage]
backend = "mongo"
uri = "mongodb://localhost:27017"

[server]
listen = ":9090"

[[charts]]
name = "diabetes"
kind = "sunburst"
source = "data/diabetes.csv"
levels = ["State", "Year"]
measure = "Diabetes %"

[[charts]]
name = "risk"
kind = "flow"
source = "data/risk.csv"
stages = ["rei", "age", "sex", "year"]
weight = "val"
merge = true
formats = ["json", "svg"]

[[charts]]
name = "obesity"
kind = "rates"
source = "data/obesity.csv"
entity = "States"
population_source = "data/usa-population.csv"
population_field = "Total Resident Population"
start_year = 2019
end_year = 2022

[charts.schema]
States = "NAME"
`

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() error: %v", err)
	}

	if cfg.Cache.Backend != cache.BackendRedis || cfg.Cache.RedisAddr != "localhost:6379" {
		t.Errorf("cache = %+v", cfg.Cache)
	}
	if cfg.CacheTTL() != 12*time.Hour {
		t.Errorf("CacheTTL() = %v, want 12h", cfg.CacheTTL())
	}
	if cfg.Storage.Backend != storage.BackendMongo || cfg.Storage.Database != storage.DefaultDatabase {
		t.Errorf("storage = %+v", cfg.Storage)
	}
	if cfg.Server.Listen != ":9090" {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
	if cfg.Server.ShutdownTimeout.Duration != 10*time.Second {
		t.Errorf("shutdown timeout = %v, want default 10s", cfg.Server.ShutdownTimeout)
	}
	if len(cfg.Charts) != 3 {
		t.Fatalf("charts = %d, want 3", len(cfg.Charts))
	}

	risk, ok := cfg.Preset("risk")
	if !ok {
		t.Fatal("preset risk missing")
	}
	if !risk.Merge || len(risk.Stages) != 4 || risk.Weight != "val" {
		t.Errorf("risk = %+v", risk.Options)
	}

	ob, _ := cfg.Preset("obesity")
	if ob.Schema["States"] != "NAME" || ob.StartYear != 2019 {
		t.Errorf("obesity = %+v", ob.Options)
	}
	if ob.PopulationEntity != "" {
		t.Error("validation should not write defaults back into presets")
	}

	if _, ok := cfg.Preset("nope"); ok {
		t.Error("Preset(nope) should be absent")
	}
}

func TestParseDefaults(t *testing.T) {
	cfg, err := Parse(nil)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Cache.Backend != cache.BackendFile || cfg.Storage.Backend != storage.BackendMemory {
		t.Errorf("defaults = %+v", cfg)
	}
	if cfg.Server.Listen != DefaultListen {
		t.Errorf("listen = %q", cfg.Server.Listen)
	}
	if cfg.CacheTTL() != cache.TTLDataset {
		t.Errorf("CacheTTL() = %v", cfg.CacheTTL())
	}
}

func TestParseInvalid(t *testing.T) {
	tests := []struct {
		name string
		data string
	}{
		{"syntax", `[cache`},
		{"unknown key", "[cache]\nbackend = \"file\"\ncolour = \"red\""},
		{"bad backend", "[cache]\nbackend = \"memcached\""},
		{"redis without addr", "[cache]\nbackend = \"redis\""},
		{"mongo without uri", "[storage]\nbackend = \"mongo\""},
		{"bad storage", "[storage]\nbackend = \"sqlite\""},
		{"bad ttl", "[cache]\nttl = \"soon\""},
		{"unnamed preset", "[[charts]]\nkind = \"flow\""},
		{"duplicate preset", "[[charts]]\nname = \"a\"\nkind = \"flow\"\nsource = \"x.csv\"\nstages = [\"a\", \"b\"]\nweight = \"w\"\n[[charts]]\nname = \"a\"\nkind = \"flow\"\nsource = \"x.csv\"\nstages = [\"a\", \"b\"]\nweight = \"w\""},
		{"bad preset", "[[charts]]\nname = \"a\"\nkind = \"flow\"\nsource = \"x.csv\"\nstages = [\"a\"]\nweight = \"w\""},
		{"svg for sunburst", "[[charts]]\nname = \"a\"\nkind = \"sunburst\"\nsource = \"x.csv\"\nlevels = [\"a\"]\nmeasure = \"v\"\nformats = [\"svg\"]"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.data))
			if err == nil {
				t.Fatal("Parse() should fail")
			}
			if !errors.Is(err, errors.ErrCodeInvalidConfig) {
				t.Errorf("Parse() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error: %v", err)
	}
	if cfg.Path != path {
		t.Errorf("Path = %q, want %q", cfg.Path, path)
	}

	_, err = Load(filepath.Join(t.TempDir(), "missing.toml"))
	if !errors.Is(err, errors.ErrCodeFileNotFound) {
		t.Errorf("Load(missing) error = %v, want FILE_NOT_FOUND", err)
	}
}

func TestLoadDefaultPathMissing(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	t.Setenv("HOME", t.TempDir())

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load(\"\") error: %v", err)
	}
	if cfg.Path != "" || cfg.Cache.Backend != cache.BackendFile {
		t.Errorf("Load(\"\") = %+v, want defaults", cfg)
	}
}
