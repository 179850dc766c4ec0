package chart

import (
	"cmp"
	"slices"

	"github.com/matzehuels/healthviz/pkg/errors"
	"github.com/matzehuels/healthviz/pkg/flow"
	"github.com/matzehuels/healthviz/pkg/hierarchy"
	"github.com/matzehuels/healthviz/pkg/rates"
)

// DefaultRings is how many rings a zoomed sunburst shows around its center.
const DefaultRings = 3

// SunburstOptions describe how a partitioned tree was produced.
type SunburstOptions struct {
	Levels  []string
	Measure string
	// Rings bounds visibility; zero means DefaultRings.
	Rings int
}

// FromSunburst flattens a partitioned tree. Frames are taken from
// Arc.Current, so a tree that has been reframed serializes zoomed onto focus.
// A nil focus means the root.
func FromSunburst(root, focus *hierarchy.Arc, opts SunburstOptions) Chart {
	rings := opts.Rings
	if rings <= 0 {
		rings = DefaultRings
	}
	s := &Sunburst{
		Levels:  slices.Clone(opts.Levels),
		Measure: opts.Measure,
		Rings:   rings,
		Total:   root.Value(),
		Coerced: root.Node.Coerced,
	}
	if focus != nil {
		s.Focus = focus.Title()
	}

	arcs := root.Descendants()
	ids := make(map[*hierarchy.Arc]int, len(arcs))
	s.Arcs = make([]Arc, len(arcs))
	for i, a := range arcs {
		ids[a] = i
		parent := -1
		if a.Parent != nil {
			parent = ids[a.Parent]
		}
		s.Arcs[i] = Arc{
			ID:           i,
			Parent:       parent,
			Key:          a.Key(),
			Path:         a.Title(),
			Value:        a.Value(),
			Rows:         a.Node.Rows,
			Depth:        a.Depth(),
			Frame:        a.Current,
			Visible:      a.Current.Visible(rings),
			LabelVisible: a.Current.LabelVisible(rings),
		}
	}
	return Chart{Kind: KindSunburst, Sunburst: s}
}

// Tree rebuilds the aggregated tree from s. Leaf values are taken from the
// document; internal values are recomputed.
func (s *Sunburst) Tree() (*hierarchy.Node, error) {
	if len(s.Arcs) == 0 {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "sunburst has no arcs")
	}
	nodes := make([]*hierarchy.Node, len(s.Arcs))
	var root *hierarchy.Node
	for i, a := range s.Arcs {
		if a.ID != i {
			return nil, errors.New(errors.ErrCodeInvalidFormat, "arc %d has id %d", i, a.ID)
		}
		n := &hierarchy.Node{Key: a.Key, Value: a.Value, Rows: a.Rows}
		nodes[i] = n
		switch {
		case a.Parent < 0:
			if root != nil {
				return nil, errors.New(errors.ErrCodeInvalidFormat, "sunburst has more than one root")
			}
			root = n
		case a.Parent >= i:
			return nil, errors.New(errors.ErrCodeInvalidFormat, "arc %d lists parent %d out of order", i, a.Parent)
		default:
			p := nodes[a.Parent]
			p.Children = append(p.Children, n)
		}
	}
	if root == nil {
		return nil, errors.New(errors.ErrCodeInvalidFormat, "sunburst has no root arc")
	}
	root.Coerced = s.Coerced
	hierarchy.Link(root)
	return root, nil
}

// FocusPath splits a "a/b/c" focus string into keys. A "/" inside a key is
// written as "\/".
func FocusPath(focus string) []string {
	return hierarchy.SplitPath(focus)
}

// FromFlow converts a flow graph. When merge is set parallel edges are folded
// first.
func FromFlow(g *flow.Graph, weight string, merge bool) Chart {
	if merge {
		g = flow.Merge(g)
	}
	vals := g.NodeValues()

	f := &Flow{
		Stages:  slices.Clone(g.Stages),
		Weight:  weight,
		Merged:  merge,
		Nodes:   make([]FlowNode, len(g.Nodes)),
		Links:   make([]Link, len(g.Edges)),
		Legend:  g.ByStage(),
		Skipped: len(g.Skipped),
		Coerced: g.Coerced,
	}
	for i, n := range g.Nodes {
		f.Nodes[i] = FlowNode{Node: n, Value: vals[n.ID]}
	}
	for i, e := range g.Edges {
		f.Links[i] = Link{Source: e.Source, Target: e.Target, Value: e.Weight}
	}
	return Chart{Kind: KindFlow, Flow: f}
}

// Graph rebuilds a flow graph from f.
func (f *Flow) Graph() *flow.Graph {
	g := &flow.Graph{
		Stages:  slices.Clone(f.Stages),
		Nodes:   make([]flow.Node, len(f.Nodes)),
		Edges:   make([]flow.Edge, len(f.Links)),
		Coerced: f.Coerced,
	}
	for i, n := range f.Nodes {
		g.Nodes[i] = n.Node
	}
	for i, l := range f.Links {
		g.Edges[i] = flow.Edge{Source: l.Source, Target: l.Target, Weight: l.Value, Row: -1, Count: 1}
	}
	return g
}

// FromRates converts a joined table. Records are sorted by entity then year.
func FromRates(t *rates.Table) (Chart, error) {
	r := &Rates{
		Range:  t.Range,
		Series: rates.Series(t),
		Misses: len(t.Misses),
	}
	for _, e := range t.Entities() {
		for _, y := range sortedYears(t.Records[e]) {
			r.Records = append(r.Records, t.Records[e][y])
		}
	}
	if t.Len() > 0 {
		sums, err := rates.SummarizeAll(t)
		if err != nil {
			return Chart{}, err
		}
		r.Summaries = sums
	}
	return Chart{Kind: KindRates, Rates: r}, nil
}

// Table rebuilds the joined table from r. Misses are not preserved beyond
// their count.
func (r *Rates) Table() *rates.Table {
	t := &rates.Table{Range: r.Range, Records: make(map[string]map[int]rates.Record)}
	for _, rec := range r.Records {
		if t.Records[rec.Entity] == nil {
			t.Records[rec.Entity] = make(map[int]rates.Record)
		}
		t.Records[rec.Entity][rec.Year] = rec
	}
	return t
}

func sortedYears(m map[int]rates.Record) []int {
	ys := make([]int, 0, len(m))
	for y := range m {
		ys = append(ys, y)
	}
	slices.SortFunc(ys, cmp.Compare[int])
	return ys
}
