package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/pipeline"
)

// chartFlags are the flags shared by the chart-building commands.
type chartFlags struct {
	output  string
	formats string
	input   string
	title   string
	schema  []string
	noCache bool
	refresh bool
}

// register adds the shared flags to cmd. formatsHelp describes the formats
// the command accepts.
func (f *chartFlags) register(cmd *cobra.Command, formatsHelp string) {
	cmd.Flags().StringVarP(&f.output, "output", "o", "", "output path or base name (default: <input>.<kind>.<format>, - for stdout)")
	cmd.Flags().StringVarP(&f.formats, "format", "f", "", formatsHelp)
	cmd.Flags().StringVar(&f.input, "input-format", "", "input format: csv, xlsx (default: from extension)")
	cmd.Flags().StringVar(&f.title, "title", "", "chart title")
	cmd.Flags().StringArrayVar(&f.schema, "schema", nil, "rename a raw column as field=column (repeatable)")
	cmd.Flags().BoolVar(&f.noCache, "no-cache", false, "disable caching")
	cmd.Flags().BoolVar(&f.refresh, "refresh", false, "rebuild even when a cached chart exists")
}

// apply copies the shared flags into opts.
func (f *chartFlags) apply(opts *pipeline.Options) error {
	schema, err := parseSchema(f.schema)
	if err != nil {
		return err
	}
	opts.Schema = schema
	opts.Format = dataset.Format(f.input)
	opts.Title = f.title
	opts.Refresh = f.refresh
	opts.Formats = parseFormats(f.formats)
	return nil
}

// runChart executes the pipeline for opts and writes every artifact.
func (c *CLI) runChart(ctx context.Context, opts pipeline.Options, flags chartFlags) (*pipeline.Result, error) {
	if err := flags.apply(&opts); err != nil {
		return nil, err
	}

	runner, err := c.newRunner(ctx, flags.noCache)
	if err != nil {
		return nil, fmt.Errorf("initialize runner: %w", err)
	}
	defer runner.Close()

	spinner := newSpinnerWithContext(ctx, fmt.Sprintf("Building %s chart from %s...", opts.Kind, filepath.Base(opts.Source)))
	spinner.Start()

	res, err := runner.Execute(ctx, opts)
	spinner.Stop()
	if spinner.Cancelled() {
		return nil, ctx.Err()
	}
	if err != nil {
		spinner.StopWithError("Build failed")
		return nil, err
	}

	prog := newProgress(loggerFromContext(ctx))
	paths, err := writeArtifacts(res.Artifacts, opts.Formats, flags.output, basePath(flags.output, opts.Source, opts.Kind))
	if err != nil {
		return nil, err
	}
	if len(paths) > 0 {
		prog.done(fmt.Sprintf("Wrote %d artifacts", len(paths)), "kind", opts.Kind)
	}

	printSuccess("%s chart complete", opts.Kind)
	for _, p := range paths {
		printFile(p)
	}
	printStats(chartStats(res.Chart), res.CacheInfo.ChartHit)
	return res, nil
}

// writeArtifacts writes artifacts in formats order to base.<format>. An
// output of "-" streams them to stdout instead. It returns the written paths.
func writeArtifacts(artifacts map[string][]byte, formats []string, output, base string) ([]string, error) {
	var paths []string
	for _, format := range formats {
		data, ok := artifacts[format]
		if !ok {
			continue
		}
		if output == "-" {
			if _, err := os.Stdout.Write(data); err != nil {
				return nil, err
			}
			continue
		}

		path := base + "." + format
		if err := writeFile(path, data); err != nil {
			return nil, fmt.Errorf("write %s: %w", path, err)
		}
		paths = append(paths, path)
	}
	return paths, nil
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(path, data, 0o644)
}

// openOutput returns stdout for an empty path.
func openOutput(path string) (io.WriteCloser, error) {
	if path == "" || path == "-" {
		return nopCloser{os.Stdout}, nil
	}
	return os.Create(path)
}

type nopCloser struct{ io.Writer }

func (nopCloser) Close() error { return nil }

func errInvalidFlag(flag, value, reason string) error {
	return errors.New(errors.ErrCodeInvalidInput, "--%s %q: %s", flag, value, reason)
}
