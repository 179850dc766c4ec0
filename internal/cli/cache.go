package cli

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/healthviz/pkg/cache"
)

// cacheCommand creates the cache management command.
func (c *CLI) cacheCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cache",
		Short: "Manage the local dataset and chart cache",
	}

	cmd.AddCommand(c.cacheClearCommand())
	cmd.AddCommand(c.cachePathCommand())

	return cmd
}

// cacheClearCommand creates the "cache clear" subcommand.
func (c *CLI) cacheClearCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Clear all cached datasets, charts and artifacts",
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runCacheClear()
		},
	}
}

func (c *CLI) runCacheClear() error {
	dir, err := c.cacheDir()
	if err != nil {
		return err
	}

	if _, err := os.Stat(dir); os.IsNotExist(err) {
		printInfo("Cache is empty")
		return nil
	}

	fc, err := cache.NewFileCache(dir)
	if err != nil {
		return fmt.Errorf("open cache %s: %w", dir, err)
	}
	defer fc.Close()

	count := countEntries(dir)
	if err := fc.Clear(); err != nil {
		return fmt.Errorf("clear cache %s: %w", dir, err)
	}

	printSuccess("Cleared %d cached entries", count)
	printDetail("Directory: %s", dir)
	return nil
}

// cachePathCommand creates the "cache path" subcommand.
func (c *CLI) cachePathCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "path",
		Short: "Print the cache directory path",
		RunE: func(cmd *cobra.Command, args []string) error {
			dir, err := c.cacheDir()
			if err != nil {
				return err
			}
			fmt.Println(dir)
			return nil
		},
	}
}

// cacheDir is the configured file cache directory, or the XDG default.
// Other backends have no local directory.
func (c *CLI) cacheDir() (string, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return "", err
	}
	if b := cfg.Cache.Backend; b != cache.BackendFile && b != "" {
		return "", fmt.Errorf("cache backend %q has no local directory", b)
	}
	if cfg.Cache.Dir != "" {
		return cfg.Cache.Dir, nil
	}
	dir, err := cacheDir()
	if err != nil {
		return "", fmt.Errorf("get cache dir: %w", err)
	}
	return dir, nil
}

// cacheLabel describes the active cache backend.
func cacheLabel(backend cache.Backend, noCache bool) string {
	if noCache {
		return string(cache.BackendNone)
	}
	if backend == "" {
		return string(cache.BackendFile)
	}
	return string(backend)
}

// countEntries counts cache entry files below dir.
func countEntries(dir string) int {
	count := 0
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil // Skip errors, continue walking
		}
		if !d.IsDir() && filepath.Ext(path) == ".json" {
			count++
		}
		return nil
	})
	return count
}
