package pipeline

import (
	"context"

	"github.com/matzehuels/healthviz/pkg/chart"
	"github.com/matzehuels/healthviz/pkg/dataset"
	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/flow"
	"github.com/matzehuels/healthviz/pkg/hierarchy"
	"github.com/matzehuels/healthviz/pkg/rates"
)

// Transform builds the chart document for opts from t. Rates charts load
// their population table through r.
func (r *Runner) Transform(ctx context.Context, t *dataset.Table, opts Options) (chart.Chart, error) {
	pop, err := r.loadPopulation(ctx, opts)
	if err != nil {
		return chart.Chart{}, err
	}
	return transform(t, pop, opts)
}

// loadPopulation loads the population table of a rates chart. Other kinds
// have none.
func (r *Runner) loadPopulation(ctx context.Context, opts Options) (*dataset.Table, error) {
	if opts.Kind != chart.KindRates {
		return nil, nil
	}
	return r.Load(ctx, opts.PopulationSource, dataset.FormatAuto)
}

func transform(t, pop *dataset.Table, opts Options) (chart.Chart, error) {
	rows := t.Rows
	if len(opts.Schema) > 0 {
		mapped, err := opts.Schema.Apply(t)
		if err != nil {
			return chart.Chart{}, err
		}
		rows = mapped
	}

	var (
		c   chart.Chart
		err error
	)
	switch opts.Kind {
	case chart.KindSunburst:
		c, err = BuildSunburst(rows, opts)
	case chart.KindFlow:
		c, err = BuildFlow(rows, opts)
	case chart.KindRates:
		c, err = BuildRates(rows, pop.Rows, opts)
	default:
		err = ValidateKind(opts.Kind)
	}
	if err != nil {
		return chart.Chart{}, err
	}
	c.Title = opts.Title
	c.Source = opts.Source
	return c, nil
}

// BuildSunburst aggregates rows, partitions the tree and zooms onto
// opts.Focus when set.
func BuildSunburst(rows []dataset.Row, opts Options) (chart.Chart, error) {
	root, err := hierarchy.Aggregate(rows, opts.Levels, opts.Measure, hierarchy.Options{
		Strict: opts.Strict,
		Logger: opts.Logger,
	})
	if err != nil {
		return chart.Chart{}, err
	}
	if opts.Sort {
		hierarchy.SortByValue(root)
	}
	return layoutSunburst(root, opts.Focus, chart.SunburstOptions{
		Levels:  opts.Levels,
		Measure: opts.Measure,
		Rings:   opts.Rings,
	})
}

// Refocus re-zooms a sunburst chart onto the arc at focus ("" or "/" is the
// root). The input chart is not modified.
func Refocus(c chart.Chart, focus string) (chart.Chart, error) {
	if c.Kind != chart.KindSunburst || c.Sunburst == nil {
		return chart.Chart{}, errors.New(errors.ErrCodeUnsupported, "%s charts cannot be refocused", c.Kind)
	}
	root, err := c.Sunburst.Tree()
	if err != nil {
		return chart.Chart{}, err
	}
	out, err := layoutSunburst(root, focus, chart.SunburstOptions{
		Levels:  c.Sunburst.Levels,
		Measure: c.Sunburst.Measure,
		Rings:   c.Sunburst.Rings,
	})
	if err != nil {
		return chart.Chart{}, err
	}
	out.Title, out.Source = c.Title, c.Source
	return out, nil
}

func layoutSunburst(root *hierarchy.Node, focus string, opts chart.SunburstOptions) (chart.Chart, error) {
	arcs := hierarchy.Partition(root)
	keys := chart.FocusPath(focus)
	if len(keys) == 0 {
		return chart.FromSunburst(arcs, nil, opts), nil
	}
	target := arcs.Find(keys...)
	if target == nil {
		return chart.Chart{}, errors.New(errors.ErrCodeNotFound, "no arc at %q", focus).In(errors.StageAggregate)
	}
	if err := hierarchy.Reframe(arcs, target); err != nil {
		return chart.Chart{}, err
	}
	return chart.FromSunburst(arcs, target, opts), nil
}

// BuildFlow builds the stage graph for rows.
func BuildFlow(rows []dataset.Row, opts Options) (chart.Chart, error) {
	policy, err := flow.ParseMissingPolicy(opts.OnMissing)
	if err != nil {
		return chart.Chart{}, err
	}
	g, err := flow.BuildGraph(rows, opts.Stages, opts.Weight, flow.Options{
		OnMissing:    policy,
		PrefixStages: opts.PrefixStages,
		Logger:       opts.Logger,
	})
	if err != nil {
		return chart.Chart{}, err
	}
	return chart.FromFlow(g, opts.Weight, opts.Merge), nil
}

// BuildRates joins rate rows with population rows over the year range.
func BuildRates(rows, popRows []dataset.Row, opts Options) (chart.Chart, error) {
	lookup, err := rates.BuildPopulationLookup(popRows, opts.PopulationEntity, opts.PopulationField, opts.Logger)
	if err != nil {
		return chart.Chart{}, err
	}
	t, err := rates.Join(rows, opts.Entity, lookup, rates.YearRange{Start: opts.StartYear, End: opts.EndYear})
	if err != nil {
		return chart.Chart{}, err
	}
	if len(t.Misses) > 0 {
		opts.Logger.Warn("rate join had misses", "misses", len(t.Misses), "records", t.Len())
	}
	return chart.FromRates(t)
}
