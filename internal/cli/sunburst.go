package cli

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/healthviz/pkg/chart"
	"github.com/matzehuels/healthviz/pkg/pipeline"
)

// sunburstCommand creates the sunburst command for hierarchical aggregation.
func (c *CLI) sunburstCommand() *cobra.Command {
	var (
		flags  chartFlags
		levels string
	)
	opts := pipeline.Options{Kind: chart.KindSunburst}

	cmd := &cobra.Command{
		Use:   "sunburst [source]",
		Short: "Aggregate a dataset into a partitioned sunburst",
		Long: `Aggregate a dataset into a partitioned sunburst.

Rows are grouped by each --levels field in turn and the --measure column is
summed at the leaves. Every arc gets an angular span proportional to its value
and one ring per depth. --focus zooms the layout onto an arc given as a
slash-separated path such as "Texas/2020".

Source is a CSV or XLSX file path or an http(s) URL.`,
		Example: `  healthviz sunburst diabetes.csv --levels State,Year --measure "Diabetes %"
  healthviz sunburst diabetes.csv --levels State,Year --measure "Diabetes %" --focus Texas -o texas`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source = args[0]
			opts.Levels = parseList(levels)
			return c.runSunburst(cmd.Context(), opts, flags)
		},
	}

	flags.register(cmd, "output format: json")
	cmd.Flags().StringVarP(&levels, "levels", "l", "", "comma-separated grouping fields, outermost first")
	cmd.Flags().StringVarP(&opts.Measure, "measure", "m", "", "numeric column summed at the leaves")
	cmd.Flags().StringVar(&opts.Focus, "focus", "", "zoom onto this arc path (a/b/c, write / inside a key as \\/)")
	cmd.Flags().IntVar(&opts.Rings, "rings", chart.DefaultRings, "rings visible around the center")
	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "fail on non-numeric measures instead of counting them as 0")
	cmd.Flags().BoolVar(&opts.Sort, "sort", false, "order children by descending value")
	_ = cmd.MarkFlagRequired("levels")
	_ = cmd.MarkFlagRequired("measure")

	return cmd
}

func (c *CLI) runSunburst(ctx context.Context, opts pipeline.Options, flags chartFlags) error {
	defer streamUI(flags.output)()
	res, err := c.runChart(ctx, opts, flags)
	if err != nil {
		return err
	}

	s := res.Chart.Sunburst
	if s.Coerced > 0 {
		printWarning("%d measure values were not numeric and counted as 0", s.Coerced)
	}
	if s.Focus != "" {
		printDetail("Focus: %s", s.Focus)
	}
	printNewline()
	fmt.Fprintln(uiOutput(), sunburstTable(s))
	printNewline()
	printNextStep("Explore", fmt.Sprintf("%s browse %s --levels %s --measure %q", appName, opts.Source, joinList(opts.Levels), opts.Measure))
	return nil
}
