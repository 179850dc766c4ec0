package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/matzehuels/healthviz/pkg/buildinfo"
	"github.com/matzehuels/healthviz/pkg/cache"
	"github.com/matzehuels/healthviz/pkg/config"
	"github.com/matzehuels/healthviz/pkg/httputil"
	"github.com/matzehuels/healthviz/pkg/observability"
	"github.com/matzehuels/healthviz/pkg/pipeline"
)

// =============================================================================
// Constants
// =============================================================================

// appName is the application name used for directories and display.
const appName = "healthviz"

// Log levels exported for use in main.go.
const (
	LogDebug = log.DebugLevel
	LogInfo  = log.InfoLevel
)

// =============================================================================
// CLI - Central CLI State
// =============================================================================

// CLI holds shared state for all commands.
type CLI struct {
	Logger *log.Logger

	// ConfigPath is the --config flag; empty means the default location.
	ConfigPath string

	cfg *config.Config
}

// New creates a new CLI instance with a default logger.
func New(w io.Writer, level log.Level) *CLI {
	return &CLI{Logger: newLogger(w, level)}
}

// SetLogLevel updates the logger's level.
func (c *CLI) SetLogLevel(level log.Level) {
	c.Logger.SetLevel(level)
}

// RootCommand creates the root cobra command with all subcommands registered.
func (c *CLI) RootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   appName,
		Short: "Healthviz turns public-health tables into charts",
		Long: `Healthviz is a CLI tool that loads tabular public-health data (CSV or XLSX)
and derives chart-ready documents from it: hierarchical sunbursts, multi-stage
flow graphs, and population-adjusted rate tables.`,
		Version:       buildinfo.Get().Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.Logger.GetLevel() <= log.DebugLevel {
				observability.NewLogHooks(c.Logger).Install()
			}
			cmd.SetContext(withLogger(cmd.Context(), c.Logger))
			return nil
		},
	}

	root.SetVersionTemplate(buildinfo.Template())
	root.PersistentFlags().StringVar(&c.ConfigPath, "config", "", "config file (default: $XDG_CONFIG_HOME/healthviz/config.toml)")

	root.AddCommand(c.sunburstCommand())
	root.AddCommand(c.flowCommand())
	root.AddCommand(c.ratesCommand())
	root.AddCommand(c.browseCommand())
	root.AddCommand(c.runCommand())
	root.AddCommand(c.serveCommand())
	root.AddCommand(c.configCommand())
	root.AddCommand(c.cacheCommand())
	root.AddCommand(c.completionCommand())
	c.registerCompletions(root)

	return root
}

// =============================================================================
// Config & Runner Factory
// =============================================================================

// loadConfig loads the configuration once per process.
func (c *CLI) loadConfig() (*config.Config, error) {
	if c.cfg != nil {
		return c.cfg, nil
	}
	cfg, err := config.Load(c.ConfigPath)
	if err != nil {
		return nil, err
	}
	if cfg.Path != "" {
		c.Logger.Debug("loaded config", "path", cfg.Path, "presets", len(cfg.Charts))
	}
	c.cfg = cfg
	return cfg, nil
}

// newRunner creates a pipeline runner for CLI use, backed by the configured
// cache.
func (c *CLI) newRunner(ctx context.Context, noCache bool) (*pipeline.Runner, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, err
	}
	ch, err := newCache(ctx, cfg, noCache)
	if err != nil {
		return nil, err
	}
	runner := pipeline.NewRunner(ch, nil, c.Logger)
	runner.Fetcher = httputil.NewClient(ch, cfg.CacheTTL(), nil)
	return runner, nil
}

func newCache(ctx context.Context, cfg *config.Config, noCache bool) (cache.Cache, error) {
	if noCache {
		return cache.NewNullCache(), nil
	}
	dir := cfg.Cache.Dir
	if dir == "" && cfg.Cache.Backend != cache.BackendRedis {
		d, err := cacheDir()
		if err != nil {
			return cache.NewNullCache(), nil
		}
		dir = d
	}
	return cache.Open(ctx, cfg.Cache.Backend, cache.OpenOptions{
		Dir:       dir,
		RedisAddr: cfg.Cache.RedisAddr,
		RedisDB:   cfg.Cache.RedisDB,
	})
}

// =============================================================================
// Paths
// =============================================================================

// cacheDir returns the cache directory using XDG standard (~/.cache/healthviz/).
func cacheDir() (string, error) {
	if cacheHome := os.Getenv("XDG_CACHE_HOME"); cacheHome != "" {
		return filepath.Join(cacheHome, appName), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".cache", appName), nil
}

// basePath derives the base output path from the output flag and the input
// source. Without an output it strips the directory and extension from input
// and appends the chart kind; a known format extension on output is dropped.
func basePath(output, input, kind string) string {
	if output == "" {
		name := filepath.Base(input)
		if i := strings.IndexAny(name, "?#"); i >= 0 {
			name = name[:i]
		}
		return strings.TrimSuffix(name, filepath.Ext(name)) + "." + kind
	}
	ext := filepath.Ext(output)
	if pipeline.ValidFormats[strings.TrimPrefix(ext, ".")] {
		return strings.TrimSuffix(output, ext)
	}
	return output
}

// =============================================================================
// Flag Helpers
// =============================================================================

// parseFormats parses a comma-separated format string into a slice.
func parseFormats(s string) []string {
	if formats := parseList(s); len(formats) > 0 {
		return formats
	}
	return []string{pipeline.FormatJSON}
}

// parseList parses a comma-separated field list, trimming blanks.
func parseList(s string) []string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	var out []string
	for _, f := range strings.Split(s, ",") {
		if f = strings.TrimSpace(f); f != "" {
			out = append(out, f)
		}
	}
	return out
}

// parseSchema parses repeated field=column pairs.
func parseSchema(pairs []string) (map[string]string, error) {
	if len(pairs) == 0 {
		return nil, nil
	}
	out := make(map[string]string, len(pairs))
	for _, p := range pairs {
		field, column, ok := strings.Cut(p, "=")
		field, column = strings.TrimSpace(field), strings.TrimSpace(column)
		if !ok || field == "" || column == "" {
			return nil, errInvalidFlag("schema", p, "want field=column")
		}
		out[field] = column
	}
	return out, nil
}

// joinList is the inverse of parseList.
func joinList(fields []string) string {
	return strings.Join(fields, ",")
}
