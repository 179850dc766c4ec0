package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/healthviz/pkg/chart"
	"github.com/matzehuels/healthviz/pkg/pipeline"
)

// flowCommand creates the flow command for multi-stage flow graphs.
func (c *CLI) flowCommand() *cobra.Command {
	var (
		flags  chartFlags
		stages string
	)
	opts := pipeline.Options{Kind: chart.KindFlow}

	cmd := &cobra.Command{
		Use:   "flow [source]",
		Short: "Build a multi-stage flow graph (sankey)",
		Long: `Build a multi-stage flow graph (sankey).

Every row adds one node per --stages field and one link between each pair of
consecutive stages, weighted by the --weight column. Nodes are deduplicated by
label across all stages; use --prefix to keep equal values in different stages
apart. Rows missing a stage value are skipped (or fail with --on-missing abort).

Output formats: json (chart document), dot, svg, png and pdf (node-link
drawing via Graphviz; png and pdf need rsvg-convert).`,
		Example: `  healthviz flow burden.csv --stages rei,age,sex,year --weight val
  healthviz flow burden.csv --stages rei,age,sex,year --weight val --merge -f json,svg`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source = args[0]
			opts.Stages = parseList(stages)
			return c.runFlow(cmd.Context(), opts, flags)
		},
	}

	flags.register(cmd, "comma-separated output formats: json, dot, svg, png, pdf")
	cmd.Flags().StringVarP(&stages, "stages", "s", "", "comma-separated stage fields, in flow order")
	cmd.Flags().StringVarP(&opts.Weight, "weight", "w", "", "numeric column weighting every link of a row")
	cmd.Flags().BoolVar(&opts.Merge, "merge", false, "fold parallel links into one")
	cmd.Flags().StringVar(&opts.OnMissing, "on-missing", "skip", "missing stage value policy: skip, abort")
	cmd.Flags().BoolVar(&opts.PrefixStages, "prefix", false, "label nodes as \"field: value\"")
	_ = cmd.MarkFlagRequired("stages")
	_ = cmd.MarkFlagRequired("weight")

	return cmd
}

func (c *CLI) runFlow(ctx context.Context, opts pipeline.Options, flags chartFlags) error {
	defer streamUI(flags.output)()
	res, err := c.runChart(ctx, opts, flags)
	if err != nil {
		return err
	}

	f := res.Chart.Flow
	if f.Skipped > 0 {
		printWarning("%d rows skipped for missing stage values", f.Skipped)
	}
	if f.Coerced > 0 {
		printWarning("%d weights were not numeric and counted as 0", f.Coerced)
	}
	printNewline()
	fmt.Fprintln(uiOutput(), legendTable(f))
	return nil
}
