package cli

import (
	"cmp"
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/matzehuels/healthviz/pkg/chart"
	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/pipeline"
	"github.com/matzehuels/healthviz/pkg/rates"
)

// ratesCommand creates the rates command for population-adjusted rate joins.
func (c *CLI) ratesCommand() *cobra.Command {
	var (
		flags chartFlags
		year  int
	)
	opts := pipeline.Options{Kind: chart.KindRates}

	cmd := &cobra.Command{
		Use:   "rates [source]",
		Short: "Join per-year rates with populations into derived counts",
		Long: `Join per-year rates with populations into derived counts.

Source is a wide table with one row per entity and one column per year holding
a percentage rate. The --population table maps the same entities to a
population. For each entity and year in [--from, --to] a record is emitted
with the rate rounded to 2 decimals and the derived count
round(population * rate / 100). Pairs with a missing or non-numeric rate, or
no population, are reported as misses and never fail the join.

The table printed afterwards lists every population entity for --year,
showing "Data Not Available" where no record exists.`,
		Example: `  healthviz rates obesity.csv --entity States --population population.csv \
    --population-field "Total Resident Population" --from 2019 --to 2022`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Source = args[0]
			return c.runRates(cmd.Context(), opts, flags, year)
		},
	}

	flags.register(cmd, "output format: json")
	cmd.Flags().StringVarP(&opts.Entity, "entity", "e", "", "entity column of the rate table")
	cmd.Flags().StringVarP(&opts.PopulationSource, "population", "p", "", "population table (path or URL)")
	cmd.Flags().StringVar(&opts.PopulationEntity, "population-entity", "", "entity column of the population table (default: --entity)")
	cmd.Flags().StringVar(&opts.PopulationField, "population-field", "", "population column of the population table")
	cmd.Flags().IntVar(&opts.StartYear, "from", 0, "first year, inclusive")
	cmd.Flags().IntVar(&opts.EndYear, "to", 0, "last year, inclusive")
	cmd.Flags().IntVar(&year, "year", 0, "year shown in the summary table (default: --to)")
	for _, name := range []string{"entity", "population", "population-field", "from", "to"} {
		_ = cmd.MarkFlagRequired(name)
	}

	return cmd
}

func (c *CLI) runRates(ctx context.Context, opts pipeline.Options, flags chartFlags, year int) error {
	defer streamUI(flags.output)()
	res, err := c.runChart(ctx, opts, flags)
	if err != nil {
		return err
	}

	r := res.Chart.Rates
	if r.Misses > 0 {
		printWarning("%d entity/year pairs had no usable rate or population", r.Misses)
	}
	if year == 0 {
		year = r.Range.End
	}
	if !r.Range.Contains(year) {
		return errInvalidFlag("year", fmt.Sprint(year), fmt.Sprintf("outside %d-%d", r.Range.Start, r.Range.End))
	}

	lookup, err := c.populationLookup(ctx, opts, flags.noCache)
	if err != nil {
		return err
	}

	printNewline()
	fmt.Fprintln(uiOutput(), StyleTitle.Render(fmt.Sprintf("Rates for %d", year)))
	fmt.Fprintln(uiOutput(), ratesTable(rates.Snapshot(lookup, r.Table(), year)))
	if s, ok := summaryFor(r.Summaries, year); ok {
		printDetail("min %.2f · median %.2f · max %.2f · total %d", s.Min, s.Median, s.Max, s.Total)
	}
	return nil
}

// populationLookup reloads the population table for the snapshot view.
func (c *CLI) populationLookup(ctx context.Context, opts pipeline.Options, noCache bool) (*rates.Lookup, error) {
	runner, err := c.newRunner(ctx, noCache)
	if err != nil {
		return nil, err
	}
	defer runner.Close()

	pop, err := runner.Load(ctx, opts.PopulationSource, dataset.FormatAuto)
	if err != nil {
		return nil, err
	}
	entity := cmp.Or(opts.PopulationEntity, opts.Entity)
	return rates.BuildPopulationLookup(pop.Rows, entity, opts.PopulationField, c.Logger)
}

func summaryFor(sums []rates.Summary, year int) (rates.Summary, bool) {
	for _, s := range sums {
		if s.Year == year {
			return s, true
		}
	}
	return rates.Summary{}, false
}
