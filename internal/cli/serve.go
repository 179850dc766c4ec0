package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/matzehuels/healthviz/pkg/api"
	"github.com/matzehuels/healthviz/pkg/storage"
)

// serveCommand creates the serve command for the HTTP API.
func (c *CLI) serveCommand() *cobra.Command {
	var (
		listen  string
		noCache bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve config presets over HTTP",
		Long: `Serve config presets over HTTP.

Endpoints:
  GET  /healthz                       liveness
  GET  /v1/charts                     list presets
  POST /v1/charts/{name}/runs         build a preset, store and return the run
  GET  /v1/charts/{name}/focus?path=  sunburst zoomed onto an arc
  GET  /v1/runs                       list stored runs
  GET  /v1/runs/{id}                  fetch a stored run

Runs are stored in the [storage] backend of the config file (memory, file or
mongo) and charts are cached in the [cache] backend.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return c.runServe(cmd.Context(), listen, noCache)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "listen address (default: [server] listen)")
	cmd.Flags().BoolVar(&noCache, "no-cache", false, "disable caching")

	return cmd
}

func (c *CLI) runServe(ctx context.Context, listen string, noCache bool) error {
	cfg, err := c.loadConfig()
	if err != nil {
		return err
	}
	if listen == "" {
		listen = cfg.Server.Listen
	}

	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	store, err := storage.Open(ctx, cfg.Storage.Backend, storage.OpenOptions{
		URI:      cfg.Storage.URI,
		Database: cfg.Storage.Database,
		Dir:      cfg.Storage.Dir,
	})
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := store.Close(closeCtx); err != nil {
			c.Logger.Warn("close storage", "err", err)
		}
	}()

	if len(cfg.Charts) == 0 {
		printWarning("No chart presets configured in %s", configLabel(cfg))
	}
	printSuccess("Serving %d presets on %s", len(cfg.Charts), StyleLink.Render(listen))
	printDetail("cache: %s · storage: %s", cacheLabel(cfg.Cache.Backend, noCache), cfg.Storage.Backend)

	srv := api.NewServer(runner, store, cfg.Charts, c.Logger)
	return srv.ListenAndServe(ctx, listen, cfg.Server.ShutdownTimeout.Duration)
}
