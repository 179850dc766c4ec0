package cli

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/matzehuels/healthviz/pkg/cache"
)

func TestCacheDir(t *testing.T) {
	t.Setenv("XDG_CACHE_HOME", "")

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}

	home, _ := os.UserHomeDir()
	if !strings.HasPrefix(dir, home) {
		t.Errorf("cacheDir() = %q, should be under home %q", dir, home)
	}

	expected := filepath.Join(home, ".cache", appName)
	if dir != expected {
		t.Errorf("cacheDir() = %q, want %q", dir, expected)
	}
}

func TestCacheDirXDG(t *testing.T) {
	xdg := t.TempDir()
	t.Setenv("XDG_CACHE_HOME", xdg)

	dir, err := cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if want := filepath.Join(xdg, appName); dir != want {
		t.Errorf("cacheDir() = %q, want %q", dir, want)
	}
}

func TestCLICacheDirFromConfig(t *testing.T) {
	dir := t.TempDir()
	c := newTestCLI(t, "[cache]\nbackend = \"file\"\ndir = \""+filepath.ToSlash(dir)+"\"\n")

	got, err := c.cacheDir()
	if err != nil {
		t.Fatalf("cacheDir() error: %v", err)
	}
	if got != filepath.ToSlash(dir) {
		t.Errorf("cacheDir() = %q, want %q", got, dir)
	}
}

func TestCLICacheDirRedis(t *testing.T) {
	c := newTestCLI(t, "[cache]\nbackend = \"redis\"\nredis_addr = \"localhost:6379\"\n")
	if _, err := c.cacheDir(); err == nil {
		t.Error("cacheDir() should fail for the redis backend")
	}
}

func TestCacheClear(t *testing.T) {
	dir := t.TempDir()
	fc, err := cache.NewFileCache(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, k := range []string{"a", "b", "c"} {
		if err := fc.Set(t.Context(), k, []byte(k), 0); err != nil {
			t.Fatal(err)
		}
	}
	if n := countEntries(dir); n != 3 {
		t.Fatalf("countEntries() = %d, want 3", n)
	}

	c := newTestCLI(t, "[cache]\ndir = \""+filepath.ToSlash(dir)+"\"\n")
	if err := c.runCacheClear(); err != nil {
		t.Fatalf("runCacheClear() error: %v", err)
	}
	if n := countEntries(dir); n != 0 {
		t.Errorf("countEntries() after clear = %d, want 0", n)
	}
	if _, hit, _ := fc.Get(t.Context(), "a"); hit {
		t.Error("entry should be gone after clear")
	}
}

func TestCacheLabel(t *testing.T) {
	tests := []struct {
		backend cache.Backend
		noCache bool
		want    string
	}{
		{"", false, "file"},
		{cache.BackendRedis, false, "redis"},
		{cache.BackendRedis, true, "none"},
	}
	for _, tt := range tests {
		if got := cacheLabel(tt.backend, tt.noCache); got != tt.want {
			t.Errorf("cacheLabel(%q, %v) = %q, want %q", tt.backend, tt.noCache, got, tt.want)
		}
	}
}
